package event

import (
	"encoding/json"
	"fmt"
)

// Fields carries the loose key/value body of a published record before
// conversion. Missing or mistyped fields convert to zero values rather than
// failing the record.
type Fields map[string]any

// Record is one raw publication: a kind plus loose fields. Stages produce
// records; conversion produces events.
type Record struct {
	Kind   Kind
	Fields Fields
}

// ConversionError reports a record whose kind is outside the closed set.
type ConversionError struct {
	Kind Kind
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("event: unknown kind %q", e.Kind)
}

// Convert maps one raw record into its typed event. Unknown kinds return a
// ConversionError and no event; the caller drops the record and moves on.
func Convert(tick uint64, r Record) (Event, error) {
	p, err := payloadFor(r.Kind, r.Fields)
	if err != nil {
		return Event{}, err
	}
	return Event{Tick: tick, Kind: r.Kind, Payload: p}, nil
}

func payloadFor(k Kind, f Fields) (Payload, error) {
	switch k {
	case KindRentExtracted:
		return RentExtractedPayload{
			Source: f.str("source"),
			Target: f.str("target"),
			Amount: f.num("amount"),
		}, nil
	case KindWagesPaid:
		return WagesPaidPayload{
			Employer: f.str("employer"),
			Worker:   f.str("worker"),
			Amount:   f.num("amount"),
		}, nil
	case KindTributePaid:
		return TributePaidPayload{
			Payer:     f.str("payer"),
			Recipient: f.str("recipient"),
			Amount:    f.num("amount"),
		}, nil
	case KindSolidarityForged:
		return SolidarityForgedPayload{
			First:    f.str("first"),
			Second:   f.str("second"),
			Strength: f.num("strength"),
		}, nil
	case KindSolidarityDissolved:
		return SolidarityDissolvedPayload{
			First:  f.str("first"),
			Second: f.str("second"),
		}, nil
	case KindIdeologyShift:
		return IdeologyShiftPayload{
			Entity:   f.str("entity"),
			From:     f.num("from"),
			To:       f.num("to"),
			Drift:    f.num("drift"),
			Solidary: f.boolean("solidary"),
		}, nil
	case KindRupture:
		return RupturePayload{
			Entity:       f.str("entity"),
			Revolution:   f.num("revolution"),
			Acquiescence: f.num("acquiescence"),
		}, nil
	case KindUprising:
		return UprisingPayload{
			Entity:    f.str("entity"),
			Territory: f.str("territory"),
			Intensity: f.num("intensity"),
			Outcome:   f.str("outcome"),
		}, nil
	case KindEviction:
		return EvictionPayload{
			Territory: f.str("territory"),
			Occupant:  f.str("occupant"),
			Heat:      f.num("heat"),
		}, nil
	case KindDisplacement:
		return DisplacementPayload{
			Occupant: f.str("occupant"),
			From:     f.str("from"),
			To:       f.str("to"),
		}, nil
	case KindTensionCritical:
		return TensionCriticalPayload{
			Source:   f.str("source"),
			Target:   f.str("target"),
			Relation: f.str("relation"),
			Tension:  f.num("tension"),
		}, nil
	case KindControlCrisis:
		return ControlCrisisPayload{
			Controller: f.str("controller"),
			Dependent:  f.str("dependent"),
			Ratio:      f.num("ratio"),
			Outcome:    f.str("outcome"),
		}, nil
	case KindAttrition:
		return AttritionPayload{
			Entity:   f.str("entity"),
			Deaths:   f.count("deaths"),
			Rate:     f.num("rate"),
			Coverage: f.num("coverage"),
		}, nil
	case KindExtinction:
		return ExtinctionPayload{
			Entity: f.str("entity"),
			Cause:  f.str("cause"),
		}, nil
	case KindDecomposition:
		return DecompositionPayload{
			Parent:           f.str("parent"),
			Enforcement:      f.str("enforcement"),
			General:          f.str("general"),
			EnforcementShare: f.num("enforcement_share"),
			GeneralShare:     f.num("general_share"),
		}, nil
	case KindPhaseTransition:
		return PhaseTransitionPayload{
			Previous:     f.str("previous"),
			Next:         f.str("next"),
			Ratio:        f.num("ratio"),
			Largest:      f.count("largest"),
			ObservedTick: f.tick("observed_tick"),
		}, nil
	case KindResilienceProbe:
		return ResilienceProbePayload{
			Tested:        f.boolean("tested"),
			Passed:        f.boolean("passed"),
			Removed:       f.count("removed"),
			LargestBefore: f.count("largest_before"),
			LargestAfter:  f.count("largest_after"),
			SurvivalRatio: f.num("survival_ratio"),
			ObservedTick:  f.tick("observed_tick"),
		}, nil
	}
	return nil, &ConversionError{Kind: k}
}

// DecodePayload unmarshals a stored JSON payload back into its typed form.
// Used when reading the event log out of persistence.
func DecodePayload(k Kind, data []byte) (Payload, error) {
	switch k {
	case KindRentExtracted:
		return decodeAs[RentExtractedPayload](data)
	case KindWagesPaid:
		return decodeAs[WagesPaidPayload](data)
	case KindTributePaid:
		return decodeAs[TributePaidPayload](data)
	case KindSolidarityForged:
		return decodeAs[SolidarityForgedPayload](data)
	case KindSolidarityDissolved:
		return decodeAs[SolidarityDissolvedPayload](data)
	case KindIdeologyShift:
		return decodeAs[IdeologyShiftPayload](data)
	case KindRupture:
		return decodeAs[RupturePayload](data)
	case KindUprising:
		return decodeAs[UprisingPayload](data)
	case KindEviction:
		return decodeAs[EvictionPayload](data)
	case KindDisplacement:
		return decodeAs[DisplacementPayload](data)
	case KindTensionCritical:
		return decodeAs[TensionCriticalPayload](data)
	case KindControlCrisis:
		return decodeAs[ControlCrisisPayload](data)
	case KindAttrition:
		return decodeAs[AttritionPayload](data)
	case KindExtinction:
		return decodeAs[ExtinctionPayload](data)
	case KindDecomposition:
		return decodeAs[DecompositionPayload](data)
	case KindPhaseTransition:
		return decodeAs[PhaseTransitionPayload](data)
	case KindResilienceProbe:
		return decodeAs[ResilienceProbePayload](data)
	}
	return nil, &ConversionError{Kind: k}
}

func decodeAs[P Payload](data []byte) (Payload, error) {
	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (f Fields) str(key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

func (f Fields) num(key string) float64 {
	switch v := f[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	}
	return 0
}

func (f Fields) count(key string) int64 {
	switch v := f[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func (f Fields) boolean(key string) bool {
	if v, ok := f[key].(bool); ok {
		return v
	}
	return false
}

func (f Fields) tick(key string) uint64 {
	switch v := f[key].(type) {
	case uint64:
		return v
	case int64:
		if v >= 0 {
			return uint64(v)
		}
	case int:
		if v >= 0 {
			return uint64(v)
		}
	case float64:
		if v >= 0 {
			return uint64(v)
		}
	}
	return 0
}
