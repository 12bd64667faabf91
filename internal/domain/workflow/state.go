package workflow

import "github.com/garyjia/freight-audit/internal/domain/entity"

// State is the lifecycle state of one workflow step for one invoice
type State string

const (
	StatePending  State = State(entity.StepStatusPending)
	StateActive   State = State(entity.StepStatusActive)
	StateApproved State = State(entity.StepStatusApproved)
	StateRejected State = State(entity.StepStatusRejected)
	StateSkipped  State = State(entity.StepStatusSkipped)
)

// IsTerminal returns true if the step has been decided
func (s State) IsTerminal() bool {
	return s == StateApproved || s == StateRejected
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid step state
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateActive, StateApproved, StateRejected, StateSkipped:
		return true
	}
	return false
}
