package event

import "log/slog"

// Bus collects the raw records published during one tick, in publish order.
// The driver creates a fresh bus per tick, injects any staged records before
// the first stage runs, and drains exactly once after the last stage.
type Bus struct {
	records []Record
}

func NewBus() *Bus {
	return &Bus{}
}

// Publish appends one raw record.
func (b *Bus) Publish(kind Kind, fields Fields) {
	b.records = append(b.records, Record{Kind: kind, Fields: fields})
}

// Inject adds records staged from a previous tick ahead of stage
// publications. Call on a fresh bus, before any stage runs.
func (b *Bus) Inject(records []Record) {
	b.records = append(b.records, records...)
}

// Len returns the number of collected records.
func (b *Bus) Len() int {
	return len(b.records)
}

// Drain converts every collected record into its typed event, in publish
// order, and resets the bus. Records with unknown kinds are logged and
// dropped; conversion of the rest continues.
func (b *Bus) Drain(tick uint64, log *slog.Logger) []Event {
	events := make([]Event, 0, len(b.records))
	for _, r := range b.records {
		ev, err := Convert(tick, r)
		if err != nil {
			log.Warn("dropping unconvertible event record",
				"tick", tick,
				"kind", r.Kind,
				"error", err)
			continue
		}
		events = append(events, ev)
	}
	b.records = b.records[:0]
	return events
}
