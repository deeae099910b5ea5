// Package pipeline provides the transform contract and the sequential
// executor that drives interaction rows through to labeled item embeddings.
package pipeline

import "context"

// Transform is a single pipeline stage. A transform must not depend on
// global state: all configuration is supplied at construction. Apply receives
// ownership of the state for the duration of the call and returns the
// authoritative version; it must not assume the caller reuses the input
// afterwards. On a violated precondition a transform returns the most
// specific taxonomy error it can detect (SchemaError, EmptyInputError,
// DimensionError, RankError, NumericError).
type Transform interface {
	// Name identifies the stage in errors and logs.
	Name() string
	// In is the state kind the stage accepts.
	In() StateKind
	// Out is the state kind the stage produces.
	Out() StateKind
	// Apply runs the stage on s and returns the next state.
	Apply(ctx context.Context, s State) (State, error)
}
