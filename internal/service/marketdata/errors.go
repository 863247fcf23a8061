package marketdata

import "fmt"

// SourceError wraps any upstream network or parse failure. The strategies
// treat a SourceError as "no update this cycle"; it never becomes a zero value.
type SourceError struct {
	Source string
	Op     string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func sourceErr(source, op string, err error) *SourceError {
	return &SourceError{Source: source, Op: op, Err: err}
}
