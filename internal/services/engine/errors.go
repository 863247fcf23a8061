package engine

import (
	"errors"
	"fmt"
	"time"
)

// The engine error taxonomy. All four are local and recoverable: the calling
// cycle logs and skips signal emission for that symbol, never aborts the process.

// OutOfOrderError reports an ingest whose timestamp precedes the last
// recorded observation for the symbol.
type OutOfOrderError struct {
	Symbol string
	Got    int64
	Last   int64
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("out-of-order observation for %s: got ts=%d, last ts=%d", e.Symbol, e.Got, e.Last)
}

// InsufficientDataError reports an extrema query over an empty window.
type InsufficientDataError struct {
	Symbol string
	Window time.Duration
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("no observations for %s within %s", e.Symbol, e.Window)
}

// DivisionByZeroError reports a percentage-change with a zero base.
type DivisionByZeroError struct {
	Op string
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("%s: division by zero base", e.Op)
}

// InvalidArgumentError reports a malformed input (non-positive cycle length,
// malformed order book payload).
type InvalidArgumentError struct {
	Op     string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// IsRecoverable reports whether err belongs to the engine taxonomy and the
// cycle should log and continue.
func IsRecoverable(err error) bool {
	var (
		ooo *OutOfOrderError
		ins *InsufficientDataError
		div *DivisionByZeroError
		arg *InvalidArgumentError
	)
	return errors.As(err, &ooo) || errors.As(err, &ins) || errors.As(err, &div) || errors.As(err, &arg)
}
