package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a carrier invoice moving through audit and approval.
// It owns its workflow history and the pointer to the active step.
type Invoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	VendorID      string          `json:"vendor_id"`
	CarrierName   string          `json:"carrier_name"`
	Status        InvoiceStatus   `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Variance      decimal.Decimal `json:"variance"` // billed - expected
	LineItems     []LineItem      `json:"line_items"`

	// Logistics fields consumed by GL coding
	TransportMode string `json:"transport_mode"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`

	// Workflow state
	CurrentStepID    *string               `json:"current_step_id"`
	NextApproverRole *string               `json:"next_approver_role"`
	WorkflowVersion  int64                 `json:"workflow_version"`
	WorkflowHistory  []WorkflowHistoryItem `json:"workflow_history"`
	// RemindedAt is when the last stale-approval reminder went out
	RemindedAt *time.Time `json:"reminded_at,omitempty"`

	// Version increases on every persisted change (optimistic concurrency)
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineItem represents a billed charge on an invoice
type LineItem struct {
	Description string          `json:"description"`
	ChargeCode  string          `json:"charge_code"`
	Amount      decimal.Decimal `json:"amount"`
	Expected    decimal.Decimal `json:"expected"`
}

// Clone returns a deep copy of the invoice. Workflow decisions operate on the
// copy so that holders of the previous value never observe a change.
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}

	out := *inv
	out.CurrentStepID = cloneString(inv.CurrentStepID)
	out.NextApproverRole = cloneString(inv.NextApproverRole)
	if inv.RemindedAt != nil {
		t := *inv.RemindedAt
		out.RemindedAt = &t
	}

	if inv.LineItems != nil {
		out.LineItems = append([]LineItem(nil), inv.LineItems...)
	}
	if inv.WorkflowHistory != nil {
		out.WorkflowHistory = make([]WorkflowHistoryItem, len(inv.WorkflowHistory))
		for i, item := range inv.WorkflowHistory {
			out.WorkflowHistory[i] = item.clone()
		}
	}

	return &out
}

// HistoryIndex returns the position of the history item for stepID, or -1
func (inv *Invoice) HistoryIndex(stepID string) int {
	for i := range inv.WorkflowHistory {
		if inv.WorkflowHistory[i].StepID == stepID {
			return i
		}
	}
	return -1
}

// HistoryFor returns the history item for stepID, if present
func (inv *Invoice) HistoryFor(stepID string) (WorkflowHistoryItem, bool) {
	if i := inv.HistoryIndex(stepID); i >= 0 {
		return inv.WorkflowHistory[i], true
	}
	return WorkflowHistoryItem{}, false
}

// ActiveStep returns the history item currently ACTIVE, if any
func (inv *Invoice) ActiveStep() (WorkflowHistoryItem, bool) {
	for _, item := range inv.WorkflowHistory {
		if item.Status == StepStatusActive {
			return item, true
		}
	}
	return WorkflowHistoryItem{}, false
}

// CurrentStep returns the current step id or "" when the invoice is terminal
func (inv *Invoice) CurrentStep() string {
	if inv.CurrentStepID == nil {
		return ""
	}
	return *inv.CurrentStepID
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
