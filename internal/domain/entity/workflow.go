package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkflowStepConfig is one role-gated checkpoint in the approval chain.
// Its position in WorkflowConfig.Steps is its precedence.
type WorkflowStepConfig struct {
	ID             string           `json:"id"`
	StepName       string           `json:"step_name"`
	RoleID         string           `json:"role_id"`
	ConditionType  ConditionType    `json:"condition_type"`
	ConditionValue *decimal.Decimal `json:"condition_value,omitempty"`
	IsSystemStep   bool             `json:"is_system_step"`
}

// Applies reports whether the step's condition holds for the invoice
func (s WorkflowStepConfig) Applies(inv *Invoice) bool {
	switch s.ConditionType {
	case ConditionAmountThreshold:
		return s.ConditionValue != nil && inv.Amount.GreaterThanOrEqual(*s.ConditionValue)
	case ConditionVarianceThreshold:
		return s.ConditionValue != nil && inv.Variance.GreaterThanOrEqual(*s.ConditionValue)
	default:
		return true
	}
}

// WorkflowConfig is a versioned, ordered snapshot of the approval chain.
// Callers must treat a loaded config as immutable; edits produce a new version.
type WorkflowConfig struct {
	Version   int64                `json:"version"`
	Steps     []WorkflowStepConfig `json:"steps"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// IndexOf returns the position of stepID in the chain, or -1
func (c *WorkflowConfig) IndexOf(stepID string) int {
	for i := range c.Steps {
		if c.Steps[i].ID == stepID {
			return i
		}
	}
	return -1
}

// WorkflowHistoryItem records one invoice's progress through one step
type WorkflowHistoryItem struct {
	StepID       string     `json:"step_id"`
	Status       StepStatus `json:"status"`
	ApproverName string     `json:"approver_name,omitempty"`
	ApproverRole string     `json:"approver_role,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	Comment      string     `json:"comment,omitempty"`
}

func (h WorkflowHistoryItem) clone() WorkflowHistoryItem {
	if h.Timestamp != nil {
		ts := *h.Timestamp
		h.Timestamp = &ts
	}
	return h
}
