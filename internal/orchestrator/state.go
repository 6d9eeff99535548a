package orchestrator

import "fmt"

// Phase is a step of the run state machine:
// Idle -> Running(batch i of N) -> Aggregating -> Done(Pass|Fail).
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseAggregating
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseRunning:
		return "Running"
	case PhaseAggregating:
		return "Aggregating"
	case PhaseDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// State is a snapshot of the orchestrator's progress.
type State struct {
	Phase Phase
	// Batch is 1-based and only meaningful while Running.
	Batch   int
	Batches int
	// Passed is only meaningful when Done.
	Passed bool
}

func (s State) String() string {
	switch s.Phase {
	case PhaseRunning:
		return fmt.Sprintf("Running(batch %d of %d)", s.Batch, s.Batches)
	case PhaseDone:
		if s.Passed {
			return "Done(Pass)"
		}
		return "Done(Fail)"
	default:
		return s.Phase.String()
	}
}

// Event is delivered to observers on every state transition and after
// each validator settles (Validator non-nil).
type Event struct {
	State     State
	Validator *ValidatorReport
}

// Observer receives events. Calls are serialized.
type Observer func(Event)
