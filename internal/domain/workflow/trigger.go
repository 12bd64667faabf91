package workflow

import (
	"fmt"
	"strings"
)

// Trigger represents an event that moves a step between states
type Trigger string

const (
	TriggerActivate Trigger = "ACTIVATE"
	TriggerApprove  Trigger = "APPROVE"
	TriggerReject   Trigger = "REJECT"
	TriggerSkip     Trigger = "SKIP"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// Decision is an approver's verdict on a step
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// IsValid returns true for exactly APPROVE or REJECT
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Trigger maps the decision onto the step lifecycle
func (d Decision) Trigger() Trigger {
	if d == DecisionReject {
		return TriggerReject
	}
	return TriggerApprove
}

// ParseDecision parses a decision value. Surrounding whitespace and case are
// ignored; anything other than APPROVE or REJECT is a validation error.
func ParseDecision(s string) (Decision, error) {
	d := Decision(strings.ToUpper(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("%w: decision must be APPROVE or REJECT, got %q", ErrValidation, s)
	}
	return d, nil
}
