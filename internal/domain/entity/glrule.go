package entity

import "github.com/shopspring/decimal"

// GLMatchKind tags the predicate a GL rule evaluates
type GLMatchKind string

// GL match kinds
const (
	GLMatchAlways        GLMatchKind = "ALWAYS"
	GLMatchTransportMode GLMatchKind = "TRANSPORT_MODE"
	GLMatchCarrier       GLMatchKind = "CARRIER"
	GLMatchOriginCountry GLMatchKind = "ORIGIN_COUNTRY"
	GLMatchMinAmount     GLMatchKind = "MIN_AMOUNT"
)

// GLTarget is the general-ledger account and cost segment a rule codes to
type GLTarget struct {
	Code    string `json:"code"`
	Segment string `json:"segment"`
}

// GLRule maps invoices matching a tagged predicate to a GL target.
// Lower Priority wins.
type GLRule struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Priority int         `json:"priority"`
	Match    GLMatchKind `json:"match"`
	Value    string      `json:"value,omitempty"`
	Target   GLTarget    `json:"target"`
}

// GLSegment is one line of a GL allocation
type GLSegment struct {
	Code       string          `json:"code"`
	Segment    string          `json:"segment"`
	RuleID     string          `json:"rule_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}
