package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/weftlab/weft/internal/frame"
)

type fakeStage struct {
	name    string
	in, out StateKind
	apply   func(ctx context.Context, s State) (State, error)
}

func (f *fakeStage) Name() string    { return f.name }
func (f *fakeStage) In() StateKind   { return f.in }
func (f *fakeStage) Out() StateKind  { return f.out }
func (f *fakeStage) Apply(ctx context.Context, s State) (State, error) {
	return f.apply(ctx, s)
}

func passthrough(name string) *fakeStage {
	return &fakeStage{
		name: name,
		in:   KindRows,
		out:  KindRows,
		apply: func(_ context.Context, s State) (State, error) { return s, nil },
	}
}

func TestNewExecutor_RejectsEmptyStageList(t *testing.T) {
	if _, err := NewExecutor(nil); err == nil {
		t.Error("expected error for empty stage list")
	}
}

func TestNewExecutor_RejectsMismatchedChain(t *testing.T) {
	a := &fakeStage{name: "a", in: KindRows, out: KindLinkItemMatrix}
	b := &fakeStage{name: "b", in: KindRows, out: KindRows}
	if _, err := NewExecutor([]Transform{a, b}); err == nil {
		t.Error("expected error for mismatched stage kinds")
	}
}

func TestExecutor_RunSequence(t *testing.T) {
	var order []string
	mk := func(name string) *fakeStage {
		s := passthrough(name)
		inner := s.apply
		s.apply = func(ctx context.Context, st State) (State, error) {
			order = append(order, name)
			return inner(ctx, st)
		}
		return s
	}
	exec, err := NewExecutor([]Transform{mk("first"), mk("second"), mk("third")})
	if err != nil {
		t.Fatal(err)
	}
	out, err := exec.Run(context.Background(), Rows{Frame: frame.New()})
	if err != nil {
		t.Fatal(err)
	}
	if out == nil {
		t.Fatal("expected terminal state")
	}
	if len(order) != 3 || order[0] != "first" || order[2] != "third" {
		t.Errorf("stage order = %v", order)
	}
	if exec.Phase() != PhaseCompleted {
		t.Errorf("phase = %s, want completed", exec.Phase())
	}
	if _, ok := exec.Artifact(); !ok {
		t.Error("completed executor should hold the artifact")
	}
}

func TestExecutor_FailureWrapsPositionAndHalts(t *testing.T) {
	boom := errors.New("boom")
	failing := passthrough("broken")
	failing.apply = func(context.Context, State) (State, error) { return nil, boom }
	var thirdRan bool
	third := passthrough("after")
	third.apply = func(_ context.Context, s State) (State, error) {
		thirdRan = true
		return s, nil
	}

	exec, err := NewExecutor([]Transform{passthrough("ok"), failing, third})
	if err != nil {
		t.Fatal(err)
	}
	_, err = exec.Run(context.Background(), Rows{Frame: frame.New()})
	if err == nil {
		t.Fatal("expected run to fail")
	}
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("error is %T, want *StageError", err)
	}
	if se.Position != 2 || se.Stage != "broken" {
		t.Errorf("StageError = position %d stage %q, want 2/broken", se.Position, se.Stage)
	}
	if !errors.Is(err, boom) {
		t.Error("StageError should unwrap to the underlying cause")
	}
	if thirdRan {
		t.Error("stages after the failure must not run")
	}
	if exec.Phase() != PhaseFailed {
		t.Errorf("phase = %s, want failed", exec.Phase())
	}
	if _, ok := exec.Artifact(); ok {
		t.Error("failed run must yield no artifact")
	}
}

func TestExecutor_RerunRequiresReset(t *testing.T) {
	exec, err := NewExecutor([]Transform{passthrough("only")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := exec.Run(context.Background(), Rows{Frame: frame.New()}); err != nil {
		t.Fatal(err)
	}
	if _, err := exec.Run(context.Background(), Rows{Frame: frame.New()}); !errors.Is(err, ErrNotIdle) {
		t.Errorf("second Run = %v, want ErrNotIdle", err)
	}
	exec.Reset()
	if exec.Phase() != PhaseIdle {
		t.Errorf("phase after Reset = %s, want idle", exec.Phase())
	}
	if _, err := exec.Run(context.Background(), Rows{Frame: frame.New()}); err != nil {
		t.Errorf("Run after Reset = %v", err)
	}
}

func TestExecutor_RejectsWrongInitialKind(t *testing.T) {
	exec, err := NewExecutor([]Transform{passthrough("only")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := exec.Run(context.Background(), LabeledTable{Frame: frame.New()}); err == nil {
		t.Error("expected error for initial state of the wrong kind")
	}
}

func TestExecutor_DetectsDeclaredOutputViolation(t *testing.T) {
	lying := &fakeStage{
		name: "lying",
		in:   KindRows,
		out:  KindLabeledTable,
		apply: func(_ context.Context, s State) (State, error) {
			return s, nil // returns rows despite declaring a labeled table
		},
	}
	exec, err := NewExecutor([]Transform{lying})
	if err != nil {
		t.Fatal(err)
	}
	_, err = exec.Run(context.Background(), Rows{Frame: frame.New()})
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StageError", err)
	}
}

func TestExecutor_ContextCancelledBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := passthrough("first")
	first.apply = func(_ context.Context, s State) (State, error) {
		cancel() // cancel while the first stage holds the state
		return s, nil
	}
	exec, err := NewExecutor([]Transform{first, passthrough("second")})
	if err != nil {
		t.Fatal(err)
	}
	_, err = exec.Run(ctx, Rows{Frame: frame.New()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled via StageError", err)
	}
	var se *StageError
	if !errors.As(err, &se) || se.Position != 2 {
		t.Errorf("cancellation should surface at the stage that did not start, got %v", err)
	}
}

func TestStageError_Message(t *testing.T) {
	err := &StageError{Position: 3, Stage: "svd-reduce", Err: fmt.Errorf("k too large")}
	want := "stage 3 (svd-reduce): k too large"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
