package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Phase is the executor lifecycle state.
type Phase int

const (
	// PhaseIdle means Run has not been called since construction or Reset.
	PhaseIdle Phase = iota
	// PhaseRunning means Run is in progress.
	PhaseRunning
	// PhaseCompleted means the last stage finished and the artifact is held.
	PhaseCompleted
	// PhaseFailed means a stage failed and the run halted.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Executor drives an ordered list of transforms strictly in sequence, passing
// the evolving state from each stage to the next. The first stage error halts
// the run: the executor wraps it with the stage's 1-based position and name
// and does not attempt the remaining stages. A failed run yields no artifact.
//
// An executor runs at most once. Run on a Completed or Failed executor
// returns ErrNotIdle; Reset restores Idle and drops the held artifact.
type Executor struct {
	stages   []Transform
	phase    Phase
	artifact State
	logger   *zap.Logger // optional; when set, logs stage timing
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets a logger for per-stage debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor validates that the stages chain (each stage's output kind is
// the next stage's input kind) and returns an idle executor.
func NewExecutor(stages []Transform, opts ...Option) (*Executor, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline: no stages configured")
	}
	for i := 1; i < len(stages); i++ {
		prev, cur := stages[i-1], stages[i]
		if prev.Out() != cur.In() {
			return nil, fmt.Errorf("pipeline: stage %d (%s) produces %s but stage %d (%s) expects %s",
				i, prev.Name(), prev.Out(), i+1, cur.Name(), cur.In())
		}
	}
	e := &Executor{stages: stages, phase: PhaseIdle}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Phase returns the current lifecycle state.
func (e *Executor) Phase() Phase { return e.phase }

// Run executes the stages in order on initial and returns the terminal state.
// The context is checked between stages only; a stage that has started runs
// to completion (callers wanting interruption wrap Run in a cancellable task).
func (e *Executor) Run(ctx context.Context, initial State) (State, error) {
	if e.phase != PhaseIdle {
		return nil, ErrNotIdle
	}
	if initial == nil {
		return nil, fmt.Errorf("pipeline: initial state is nil")
	}
	if got, want := initial.Kind(), e.stages[0].In(); got != want {
		return nil, fmt.Errorf("pipeline: initial state is %s, first stage (%s) expects %s",
			got, e.stages[0].Name(), want)
	}

	e.phase = PhaseRunning
	cur := initial
	for i, st := range e.stages {
		if err := ctx.Err(); err != nil {
			e.phase = PhaseFailed
			return nil, &StageError{Position: i + 1, Stage: st.Name(), Err: err}
		}
		start := time.Now()
		next, err := st.Apply(ctx, cur)
		if err != nil {
			e.phase = PhaseFailed
			return nil, &StageError{Position: i + 1, Stage: st.Name(), Err: err}
		}
		if next == nil || next.Kind() != st.Out() {
			e.phase = PhaseFailed
			return nil, &StageError{Position: i + 1, Stage: st.Name(),
				Err: fmt.Errorf("stage returned %v, declared output is %s", kindOf(next), st.Out())}
		}
		if e.logger != nil {
			e.logger.Debug("stage completed",
				zap.Int("position", i+1),
				zap.String("stage", st.Name()),
				zap.Duration("elapsed", time.Since(start)),
			)
		}
		cur = next
	}
	e.phase = PhaseCompleted
	e.artifact = cur
	return cur, nil
}

// Artifact returns the terminal state of a completed run.
func (e *Executor) Artifact() (State, bool) {
	if e.phase != PhaseCompleted {
		return nil, false
	}
	return e.artifact, true
}

// Reset returns the executor to Idle, dropping any held artifact. The stage
// list is unchanged; the next Run starts from the caller's initial state.
func (e *Executor) Reset() {
	e.phase = PhaseIdle
	e.artifact = nil
}

func kindOf(s State) string {
	if s == nil {
		return "nil"
	}
	return s.Kind().String()
}
