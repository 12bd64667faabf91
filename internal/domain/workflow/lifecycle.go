package workflow

import (
	"fmt"

	"github.com/garyjia/freight-audit/internal/domain/entity"
)

// stepLifecycle is the transition table shared by every history item.
// A fabricated PENDING placeholder may be decided directly.
var stepLifecycle StateMachineBuilder

func init() {
	stepLifecycle = newStepLifecycle()
}

func newStepLifecycle() StateMachineBuilder {
	builder := NewBuilder()

	builder.Configure(StatePending).
		Permit(TriggerActivate, StateActive).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerSkip, StateSkipped)

	builder.Configure(StateActive).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	builder.Configure(StateSkipped).
		Permit(TriggerActivate, StateActive)

	return builder
}

// advanceStep applies trigger to a step status and returns the new status
func advanceStep(from entity.StepStatus, trigger Trigger) (entity.StepStatus, error) {
	state := State(from)
	if !state.IsValid() {
		return from, fmt.Errorf("%w: %q", ErrInvalidState, from)
	}

	machine := stepLifecycle.Build(state)
	if err := machine.Fire(trigger); err != nil {
		return from, err
	}
	return entity.StepStatus(machine.State()), nil
}
