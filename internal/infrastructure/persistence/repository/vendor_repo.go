package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
)

// VendorRepository implements port.VendorRepository
type VendorRepository struct {
	doc    document[[]*entity.Vendor]
	logger *zap.Logger
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(store port.CollectionStore, logger *zap.Logger) port.VendorRepository {
	return &VendorRepository{
		doc:    document[[]*entity.Vendor]{store: store, key: port.CollectionVendors, logger: logger},
		logger: logger,
	}
}

// GetByID retrieves a vendor by ID
func (r *VendorRepository) GetByID(ctx context.Context, id string) (*entity.Vendor, error) {
	vendors, _, err := r.doc.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, v := range vendors {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: vendor %s", port.ErrNotFound, id)
}

// List returns every vendor
func (r *VendorRepository) List(ctx context.Context) ([]*entity.Vendor, error) {
	vendors, _, err := r.doc.load(ctx)
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

// Upsert inserts the vendor or replaces the one with the same ID
func (r *VendorRepository) Upsert(ctx context.Context, vendor *entity.Vendor) error {
	vendors, version, err := r.doc.load(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i, v := range vendors {
		if v.ID == vendor.ID {
			vendors[i] = vendor
			replaced = true
			break
		}
	}
	if !replaced {
		vendors = append(vendors, vendor)
	}

	if err := r.doc.save(ctx, vendors, version); err != nil {
		r.logger.Error("Failed to save vendor", zap.String("vendor_id", vendor.ID), zap.Error(err))
		return fmt.Errorf("failed to save vendor: %w", err)
	}
	return nil
}
