package event

// Payload is the typed body of an event. The implementations below form a
// closed set; Convert and DecodePayload are the only constructor paths.
// Entity and territory references are carried as plain IDs.
type Payload interface {
	isPayload()
}

// RentExtractedPayload records value siphoned along one extraction edge,
// target to source.
type RentExtractedPayload struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Amount float64 `json:"amount"`
}

// WagesPaidPayload records a wage transfer from employer to worker.
type WagesPaidPayload struct {
	Employer string  `json:"employer"`
	Worker   string  `json:"worker"`
	Amount   float64 `json:"amount"`
}

// TributePaidPayload records a tribute transfer from payer to recipient.
type TributePaidPayload struct {
	Payer     string  `json:"payer"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
}

// SolidarityForgedPayload records a new solidarity channel between two units.
type SolidarityForgedPayload struct {
	First    string  `json:"first"`
	Second   string  `json:"second"`
	Strength float64 `json:"strength"`
}

// SolidarityDissolvedPayload records a solidarity channel decayed below the
// retention floor.
type SolidarityDissolvedPayload struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// IdeologyShiftPayload records one tick of ideology drift for a unit.
type IdeologyShiftPayload struct {
	Entity   string  `json:"entity"`
	From     float64 `json:"from"`
	To       float64 `json:"to"`
	Drift    float64 `json:"drift"`
	Solidary bool    `json:"solidary"`
}

// RupturePayload records the moment revolutionary survival overtakes
// acquiescent survival for a unit.
type RupturePayload struct {
	Entity       string  `json:"entity"`
	Revolution   float64 `json:"revolution"`
	Acquiescence float64 `json:"acquiescence"`
}

// UprisingPayload records a spark that caught: a unit in rupture acted.
type UprisingPayload struct {
	Entity    string  `json:"entity"`
	Territory string  `json:"territory,omitempty"`
	Intensity float64 `json:"intensity"`
	Outcome   string  `json:"outcome"`
}

// EvictionPayload records a territory clearing its occupants after heat
// crossed the eviction threshold.
type EvictionPayload struct {
	Territory string  `json:"territory"`
	Occupant  string  `json:"occupant"`
	Heat      float64 `json:"heat"`
}

// DisplacementPayload records where an evicted occupant landed. To is empty
// when no adjacent territory could take them and the occupancy dispersed.
type DisplacementPayload struct {
	Occupant string `json:"occupant"`
	From     string `json:"from"`
	To       string `json:"to,omitempty"`
}

// TensionCriticalPayload records an antagonistic edge crossing the critical
// tension threshold from below.
type TensionCriticalPayload struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Relation string  `json:"relation"`
	Tension  float64 `json:"tension"`
}

// ControlCrisisPayload records a dependent population outgrowing its
// controller and the terminal resolution chosen.
type ControlCrisisPayload struct {
	Controller string  `json:"controller"`
	Dependent  string  `json:"dependent"`
	Ratio      float64 `json:"ratio"`
	Outcome    string  `json:"outcome"`
}

// AttritionPayload records deaths from a subsistence shortfall.
type AttritionPayload struct {
	Entity   string  `json:"entity"`
	Deaths   int64   `json:"deaths"`
	Rate     float64 `json:"rate"`
	Coverage float64 `json:"coverage"`
}

// ExtinctionPayload records terminal collapse of a unit.
type ExtinctionPayload struct {
	Entity string `json:"entity"`
	Cause  string `json:"cause"`
}

// DecompositionPayload records a unit splitting into enforcement and general
// children, the parent deactivated.
type DecompositionPayload struct {
	Parent           string  `json:"parent"`
	Enforcement      string  `json:"enforcement"`
	General          string  `json:"general"`
	EnforcementShare float64 `json:"enforcement_share"`
	GeneralShare     float64 `json:"general_share"`
}

// PhaseTransitionPayload records the solidarity network crossing between
// connectivity phases. ObservedTick is the tick whose finalized graph was
// measured; the event itself lands on the following tick's list.
type PhaseTransitionPayload struct {
	Previous     string  `json:"previous"`
	Next         string  `json:"next"`
	Ratio        float64 `json:"ratio"`
	Largest      int64   `json:"largest"`
	ObservedTick uint64  `json:"observed_tick"`
}

// ResilienceProbePayload records one purge test of the solidarity network.
// Tested is false when the sample could not run; the probe then reports
// nothing about network health.
type ResilienceProbePayload struct {
	Tested        bool    `json:"tested"`
	Passed        bool    `json:"passed"`
	Removed       int64   `json:"removed"`
	LargestBefore int64   `json:"largest_before"`
	LargestAfter  int64   `json:"largest_after"`
	SurvivalRatio float64 `json:"survival_ratio"`
	ObservedTick  uint64  `json:"observed_tick"`
}

func (RentExtractedPayload) isPayload()       {}
func (WagesPaidPayload) isPayload()           {}
func (TributePaidPayload) isPayload()         {}
func (SolidarityForgedPayload) isPayload()    {}
func (SolidarityDissolvedPayload) isPayload() {}
func (IdeologyShiftPayload) isPayload()       {}
func (RupturePayload) isPayload()             {}
func (UprisingPayload) isPayload()            {}
func (EvictionPayload) isPayload()            {}
func (DisplacementPayload) isPayload()        {}
func (TensionCriticalPayload) isPayload()     {}
func (ControlCrisisPayload) isPayload()       {}
func (AttritionPayload) isPayload()           {}
func (ExtinctionPayload) isPayload()          {}
func (DecompositionPayload) isPayload()       {}
func (PhaseTransitionPayload) isPayload()     {}
func (ResilienceProbePayload) isPayload()     {}
