package service

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/tax"
)

// InvoiceTax is the tax view of one invoice
type InvoiceTax struct {
	InvoiceID string        `json:"invoice_id"`
	VendorID  string        `json:"vendor_id"`
	Currency  string        `json:"currency"`
	Exact     tax.Breakdown `json:"exact"`
	Display   tax.Breakdown `json:"display"`
}

// TaxService derives GST and TDS views. Nothing it computes is stored.
type TaxService interface {
	InvoiceTax(ctx context.Context, invoiceID string) (*InvoiceTax, error)
	Compute(ctx context.Context, invoice *entity.Invoice) (*InvoiceTax, error)
}

type taxServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	vendorRepo  port.VendorRepository
	payerState  string
	now         func() time.Time
	logger      Logger
}

// NewTaxService creates a new TaxService for a payer registered in payerState
func NewTaxService(
	invoiceRepo port.InvoiceRepository,
	vendorRepo port.VendorRepository,
	payerState string,
	logger Logger,
) TaxService {
	return &taxServiceImpl{
		invoiceRepo: invoiceRepo,
		vendorRepo:  vendorRepo,
		payerState:  payerState,
		now:         time.Now,
		logger:      logger,
	}
}

// InvoiceTax loads the invoice and computes its tax view
func (s *taxServiceImpl) InvoiceTax(ctx context.Context, invoiceID string) (*InvoiceTax, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.Compute(ctx, invoice)
}

// Compute taxes the invoice amount under its vendor's profile. An unknown
// vendor gets the all-zero breakdown.
func (s *taxServiceImpl) Compute(ctx context.Context, invoice *entity.Invoice) (*InvoiceTax, error) {
	var profile *entity.VendorTaxProfile
	if invoice.VendorID != "" {
		vendor, err := s.vendorRepo.GetByID(ctx, invoice.VendorID)
		switch {
		case err == nil:
			profile = vendor.TaxProfile
		case errors.Is(err, port.ErrNotFound):
			s.logger.Info("Vendor not found, using zero tax profile", "invoice_id", invoice.ID, "vendor_id", invoice.VendorID)
		default:
			return nil, err
		}
	}

	exact := tax.Calculate(invoice.Amount, profile, tax.Jurisdiction{
		PayerStateCode: s.payerState,
		Today:          s.now(),
	})

	return &InvoiceTax{
		InvoiceID: invoice.ID,
		VendorID:  invoice.VendorID,
		Currency:  invoice.Currency,
		Exact:     exact,
		Display:   exact.Rounded(),
	}, nil
}
