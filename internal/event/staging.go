package event

// Staging buffers records produced after a snapshot is finalized, so a
// finalized event list is never edited after the fact. The topology observer
// writes here; at the start of the next tick the driver drains the buffer
// into that tick's bus before any stage runs. Nothing is silently discarded.
type Staging struct {
	records []Record
}

func NewStaging() *Staging {
	return &Staging{}
}

// Stage buffers one record for injection into the next tick.
func (s *Staging) Stage(kind Kind, fields Fields) {
	s.records = append(s.records, Record{Kind: kind, Fields: fields})
}

// Len returns the number of buffered records.
func (s *Staging) Len() int {
	return len(s.records)
}

// Drain returns the buffered records in stage order and empties the buffer.
func (s *Staging) Drain() []Record {
	out := s.records
	s.records = nil
	return out
}
