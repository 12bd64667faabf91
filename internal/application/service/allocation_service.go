package service

import (
	"context"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/gl"
)

// InvoiceAllocation is the GL coding of one invoice
type InvoiceAllocation struct {
	InvoiceID   string             `json:"invoice_id"`
	MatchedRule string             `json:"matched_rule"`
	Segments    []entity.GLSegment `json:"segments"`
}

// AllocationService derives GL coding. Nothing it computes is stored.
type AllocationService interface {
	InvoiceAllocation(ctx context.Context, invoiceID string) (*InvoiceAllocation, error)
	Compute(ctx context.Context, invoice *entity.Invoice) (*InvoiceAllocation, error)
	Rules(ctx context.Context) ([]entity.GLRule, error)
}

type allocationServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	ruleRepo    port.GLRuleRepository
	logger      Logger
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	invoiceRepo port.InvoiceRepository,
	ruleRepo port.GLRuleRepository,
	logger Logger,
) AllocationService {
	return &allocationServiceImpl{
		invoiceRepo: invoiceRepo,
		ruleRepo:    ruleRepo,
		logger:      logger,
	}
}

// InvoiceAllocation loads the invoice and codes it
func (s *allocationServiceImpl) InvoiceAllocation(ctx context.Context, invoiceID string) (*InvoiceAllocation, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.Compute(ctx, invoice)
}

// Compute codes the invoice against the current rule table
func (s *allocationServiceImpl) Compute(ctx context.Context, invoice *entity.Invoice) (*InvoiceAllocation, error) {
	rules, err := s.ruleRepo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to load GL rules", "error", err)
		return nil, err
	}

	return &InvoiceAllocation{
		InvoiceID:   invoice.ID,
		MatchedRule: gl.Resolve(invoice, rules).ID,
		Segments:    gl.Allocate(invoice, rules),
	}, nil
}

// Rules returns the current rule table
func (s *allocationServiceImpl) Rules(ctx context.Context) ([]entity.GLRule, error) {
	return s.ruleRepo.List(ctx)
}
