package pipeline

import (
	"errors"
	"fmt"
)

// ErrNotIdle is returned by Run when the executor already ran. Call Reset to
// make the executor runnable again.
var ErrNotIdle = errors.New("pipeline: executor is not idle, call Reset before re-running")

// SchemaError reports a missing or malformed required column.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("missing required column %q", e.Column)
	}
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

// EmptyInputError reports that a stage received no rows to process.
type EmptyInputError struct {
	Context string
}

func (e *EmptyInputError) Error() string {
	if e.Context == "" {
		return "empty input: no rows to process"
	}
	return fmt.Sprintf("empty input: %s", e.Context)
}

// DimensionError reports an invalid target dimension or a shape mismatch.
type DimensionError struct {
	K   int
	Dim int
	Msg string
}

func (e *DimensionError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("invalid dimension k=%d for matrix of dimension %d", e.K, e.Dim)
}

// RankError reports a requested dimensionality that exceeds the effective
// rank of the matrix being decomposed.
type RankError struct {
	K    int
	Rank int
}

func (e *RankError) Error() string {
	return fmt.Sprintf("k=%d exceeds effective rank %d", e.K, e.Rank)
}

// NumericError reports a failure of the underlying numerical computation,
// such as a factorization that did not converge or a non-finite result.
type NumericError struct {
	Op  string
	Err error
}

func (e *NumericError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("numeric failure in %s", e.Op)
	}
	return fmt.Sprintf("numeric failure in %s: %v", e.Op, e.Err)
}

func (e *NumericError) Unwrap() error { return e.Err }

// StageError wraps an error raised by a stage with the stage's identity and
// its 1-based position in the pipeline. It is the only error type Run returns.
type StageError struct {
	Position int
	Stage    string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Position, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
