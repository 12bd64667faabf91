package entity

import "strings"

// InvoiceStatus is the top-level business status of an invoice
type InvoiceStatus string

// Invoice status constants
const (
	InvoiceStatusPending         InvoiceStatus = "PENDING"
	InvoiceStatusOpsApproved     InvoiceStatus = "OPS_APPROVED"
	InvoiceStatusFinanceApproved InvoiceStatus = "FINANCE_APPROVED"
	InvoiceStatusApproved        InvoiceStatus = "APPROVED"
	InvoiceStatusRejected        InvoiceStatus = "REJECTED"
	InvoiceStatusPaid            InvoiceStatus = "PAID"
	InvoiceStatusException       InvoiceStatus = "EXCEPTION"
	InvoiceStatusVendorResponded InvoiceStatus = "VENDOR_RESPONDED"
)

// IsValid returns true if the status is a known invoice status
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusOpsApproved, InvoiceStatusFinanceApproved,
		InvoiceStatusApproved, InvoiceStatusRejected, InvoiceStatusPaid,
		InvoiceStatusException, InvoiceStatusVendorResponded:
		return true
	}
	return false
}

// IsTerminal returns true if no further workflow decisions can be taken
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusRejected || s == InvoiceStatusPaid
}

// IsApproved returns true once the invoice has cleared approval
func (s InvoiceStatus) IsApproved() bool {
	return s == InvoiceStatusApproved || s == InvoiceStatusPaid
}

// StepStatus is the status of one invoice's progress through one workflow step
type StepStatus string

// Step status constants
const (
	StepStatusPending  StepStatus = "PENDING"
	StepStatusActive   StepStatus = "ACTIVE"
	StepStatusApproved StepStatus = "APPROVED"
	StepStatusRejected StepStatus = "REJECTED"
	StepStatusSkipped  StepStatus = "SKIPPED"
)

// ConditionType controls when a workflow step is considered applicable
type ConditionType string

// Condition type constants
const (
	ConditionAlways            ConditionType = "ALWAYS"
	ConditionAmountThreshold   ConditionType = "AMOUNT_THRESHOLD"
	ConditionVarianceThreshold ConditionType = "VARIANCE_THRESHOLD"
)

// Well-known role ids. Role ids are data; these are the ones the status
// mapping and the default configuration refer to.
const (
	RoleOpsManager      = "OPS_MANAGER"
	RoleFinanceManager  = "FINANCE_MANAGER"
	RoleEnterpriseAdmin = "ENTERPRISE_ADMIN"
	RoleAuditor         = "AUDITOR"
)

// NotificationType classifies notifications emitted by workflow decisions
type NotificationType string

// Notification type constants
const (
	NotificationTypeAssignment NotificationType = "ASSIGNMENT"
	NotificationTypeInfo       NotificationType = "INFO"
)

// Constitution is the legal form of a vendor, which drives the TDS tier
type Constitution string

// Constitution constants
const (
	ConstitutionProprietorship Constitution = "PROPRIETORSHIP"
	ConstitutionPartnership    Constitution = "PARTNERSHIP"
	ConstitutionCompany        Constitution = "COMPANY"
	ConstitutionLLP            Constitution = "LLP"
)

// Normalize returns the canonical upper-case spelling
func (c Constitution) Normalize() Constitution {
	return Constitution(strings.ToUpper(strings.TrimSpace(string(c))))
}

// IsValid checks if the constitution is a known legal form
func (c Constitution) IsValid() bool {
	switch c.Normalize() {
	case ConstitutionProprietorship, ConstitutionPartnership, ConstitutionCompany, ConstitutionLLP:
		return true
	}
	return false
}

// Transport mode constants
const (
	TransportModeOcean = "OCEAN"
	TransportModeAir   = "AIR"
	TransportModeRoad  = "ROAD"
	TransportModeRail  = "RAIL"
)
