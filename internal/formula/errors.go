package formula

import "fmt"

// DomainError reports an input outside a formula's numeric domain. The formula
// has already substituted the clamped value by the time the error is returned;
// callers log a warning and continue with the result.
type DomainError struct {
	Formula   string
	Input     string
	Value     float64
	ClampedTo float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("formula %s: input %s=%g outside domain, clamped to %g",
		e.Formula, e.Input, e.Value, e.ClampedTo)
}
