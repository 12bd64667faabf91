package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
)

// InvoiceRepository implements port.InvoiceRepository on the invoices collection
type InvoiceRepository struct {
	doc    document[[]*entity.Invoice]
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(store port.CollectionStore, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		doc:    document[[]*entity.Invoice]{store: store, key: port.CollectionInvoices, logger: logger},
		logger: logger,
	}
}

// Create appends a new invoice at version 1
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	invoices, version, err := r.doc.load(ctx)
	if err != nil {
		return err
	}

	for _, existing := range invoices {
		if existing.ID == invoice.ID {
			return fmt.Errorf("%w: invoice %s", port.ErrAlreadyExists, invoice.ID)
		}
	}

	stored := invoice.Clone()
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = now
	}
	stored.Version = 1

	if err := r.doc.save(ctx, append(invoices, stored), version); err != nil {
		r.logger.Error("Failed to create invoice", zap.String("invoice_id", invoice.ID), zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	invoice.Version = stored.Version
	invoice.CreatedAt = stored.CreatedAt
	invoice.UpdatedAt = stored.UpdatedAt
	return nil
}

// GetByID retrieves an invoice by ID
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	invoices, _, err := r.doc.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, inv := range invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, fmt.Errorf("%w: invoice %s", port.ErrNotFound, id)
}

// List returns the invoices matching filter in registration order
func (r *InvoiceRepository) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	invoices, _, err := r.doc.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*entity.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.Role != "" && (inv.NextApproverRole == nil || *inv.NextApproverRole != filter.Role) {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

// Update replaces the stored invoice if it is still at invoice.Version
func (r *InvoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	invoices, version, err := r.doc.load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i, inv := range invoices {
		if inv.ID == invoice.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: invoice %s", port.ErrNotFound, invoice.ID)
	}
	if invoices[idx].Version != invoice.Version {
		return fmt.Errorf("%w: invoice %s is at version %d, update based on %d",
			port.ErrVersionConflict, invoice.ID, invoices[idx].Version, invoice.Version)
	}

	stored := invoice.Clone()
	stored.Version++
	invoices[idx] = stored

	if err := r.doc.save(ctx, invoices, version); err != nil {
		r.logger.Error("Failed to update invoice", zap.String("invoice_id", invoice.ID), zap.Error(err))
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	invoice.Version = stored.Version
	return nil
}
