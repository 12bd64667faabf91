// Package tax computes the India GST and TDS treatment of a freight invoice.
package tax

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/freight-audit/internal/domain/entity"
)

// Basis explains which tier produced the TDS rate
type Basis string

const (
	BasisNone                        Basis = "NOT_APPLICABLE"
	BasisLowerCert                   Basis = "LOWER_DEDUCTION_CERTIFICATE"
	BasisProprietorshipOrPartnership Basis = "PROPRIETORSHIP_OR_PARTNERSHIP"
	BasisCompany                     Basis = "COMPANY"
)

// SectionContractors is the Income Tax Act section governing TDS on freight
const SectionContractors = "194C"

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)

	rcmRate        = decimal.NewFromInt(5)
	firmRate       = decimal.NewFromInt(1)
	companyRate    = decimal.NewFromInt(2)
)

// Jurisdiction identifies the paying entity and the day the calculation is for
type Jurisdiction struct {
	PayerStateCode string
	Today          time.Time
}

// Breakdown is the GST and TDS treatment of one taxable amount. Values are
// exact; use Rounded for display.
type Breakdown struct {
	BaseAmount         decimal.Decimal `json:"base_amount"`
	GSTRate            decimal.Decimal `json:"gst_rate"`
	IsRCM              bool            `json:"is_rcm"`
	GSTPayableToVendor decimal.Decimal `json:"gst_payable_to_vendor"`
	GSTPayableToGovt   decimal.Decimal `json:"gst_payable_to_govt"`
	IGST               decimal.Decimal `json:"igst"`
	CGST               decimal.Decimal `json:"cgst"`
	SGST               decimal.Decimal `json:"sgst"`
	TDSRate            decimal.Decimal `json:"tds_rate"`
	TDSAmount          decimal.Decimal `json:"tds_amount"`
	TDSBasis           Basis           `json:"tds_basis"`
	TDSSection         string          `json:"tds_section,omitempty"`
	NetPayableToVendor decimal.Decimal `json:"net_payable_to_vendor"`
}

// Calculate returns the tax breakdown for base under profile. It never fails:
// a nil profile yields an all-zero breakdown with the full base payable.
func Calculate(base decimal.Decimal, profile *entity.VendorTaxProfile, j Jurisdiction) Breakdown {
	if profile == nil {
		return Breakdown{
			BaseAmount:         base,
			TDSBasis:           BasisNone,
			NetPayableToVendor: base,
		}
	}

	b := Breakdown{BaseAmount: base, TDSSection: SectionContractors}

	// liability
	var liability decimal.Decimal
	if profile.IsGTA && profile.IsRCMOpted {
		b.IsRCM = true
		b.GSTRate = rcmRate
		liability = percentOf(base, rcmRate)
		b.GSTPayableToGovt = liability
	} else {
		b.GSTRate = profile.DefaultGSTRate
		liability = percentOf(base, profile.DefaultGSTRate)
		b.GSTPayableToVendor = liability
	}

	// jurisdiction
	if profile.StateCode != j.PayerStateCode {
		b.IGST = liability
	} else {
		half := liability.Div(two)
		b.CGST = half
		b.SGST = half
	}

	// withholding
	b.TDSRate, b.TDSBasis = tdsTier(profile, j.Today)
	b.TDSAmount = percentOf(base, b.TDSRate)

	b.NetPayableToVendor = base.Add(b.GSTPayableToVendor).Sub(b.TDSAmount)
	return b
}

// tdsTier picks the withholding rate: a certificate valid on today, then the
// constitution tier.
func tdsTier(profile *entity.VendorTaxProfile, today time.Time) (decimal.Decimal, Basis) {
	if cert := profile.LowerDeductionCert; cert != nil && !dateOf(cert.ValidTo).Before(dateOf(today)) {
		return cert.Rate, BasisLowerCert
	}

	switch profile.Constitution.Normalize() {
	case entity.ConstitutionProprietorship, entity.ConstitutionPartnership:
		return firmRate, BasisProprietorshipOrPartnership
	default:
		return companyRate, BasisCompany
	}
}

// Rounded returns a copy with every amount rounded to the currency's minor
// unit. Each field is rounded from its exact value.
func (b Breakdown) Rounded() Breakdown {
	r := b
	r.BaseAmount = round(b.BaseAmount)
	r.GSTPayableToVendor = round(b.GSTPayableToVendor)
	r.GSTPayableToGovt = round(b.GSTPayableToGovt)
	r.IGST = round(b.IGST)
	r.CGST = round(b.CGST)
	r.SGST = round(b.SGST)
	r.TDSAmount = round(b.TDSAmount)
	r.NetPayableToVendor = round(b.NetPayableToVendor)
	return r
}

// TotalGST is the full GST liability whichever side remits it
func (b Breakdown) TotalGST() decimal.Decimal {
	return b.GSTPayableToVendor.Add(b.GSTPayableToGovt)
}

func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
