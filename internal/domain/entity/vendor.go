package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vendor is a carrier or logistics provider submitting invoices
type Vendor struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	GSTIN      string            `json:"gstin"`
	TaxProfile *VendorTaxProfile `json:"tax_profile,omitempty"`
}

// VendorTaxProfile carries the attributes that drive GST and TDS treatment
type VendorTaxProfile struct {
	StateCode          string              `json:"state_code"`
	Constitution       Constitution        `json:"constitution"`
	IsGTA              bool                `json:"is_gta"`
	IsRCMOpted         bool                `json:"is_rcm_opted"`
	DefaultGSTRate     decimal.Decimal     `json:"default_gst_rate"`
	LowerDeductionCert *LowerDeductionCert `json:"lower_deduction_cert,omitempty"`
}

// LowerDeductionCert is a certificate reducing the TDS rate until ValidTo
type LowerDeductionCert struct {
	CertificateNo string          `json:"certificate_no"`
	Rate          decimal.Decimal `json:"rate"`
	ValidTo       time.Time       `json:"valid_to"`
}
