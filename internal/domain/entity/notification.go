package entity

import "time"

// Notification is emitted by workflow decisions and delivered by the
// notification layer. Read state is tracked by consumers, never here.
type Notification struct {
	ID         string           `json:"id"`
	Type       NotificationType `json:"type"`
	InvoiceID  string           `json:"invoice_id"`
	TargetRole string           `json:"target_role,omitempty"`
	Message    string           `json:"message"`
	ActionLink string           `json:"action_link"`
	Timestamp  time.Time        `json:"timestamp"`
}
