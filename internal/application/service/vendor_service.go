package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/workflow"
	"github.com/garyjia/freight-audit/pkg/utils"
)

// VendorService maintains vendor tax profiles
type VendorService interface {
	List(ctx context.Context) ([]*entity.Vendor, error)
	Get(ctx context.Context, id string) (*entity.Vendor, error)
	Save(ctx context.Context, vendor *entity.Vendor) error
}

type vendorServiceImpl struct {
	vendorRepo port.VendorRepository
	logger     Logger
}

// NewVendorService creates a new VendorService
func NewVendorService(vendorRepo port.VendorRepository, logger Logger) VendorService {
	return &vendorServiceImpl{
		vendorRepo: vendorRepo,
		logger:     logger,
	}
}

// List returns every vendor
func (s *vendorServiceImpl) List(ctx context.Context) ([]*entity.Vendor, error) {
	return s.vendorRepo.List(ctx)
}

// Get retrieves a vendor by ID
func (s *vendorServiceImpl) Get(ctx context.Context, id string) (*entity.Vendor, error) {
	return s.vendorRepo.GetByID(ctx, id)
}

// Save validates and stores a vendor
func (s *vendorServiceImpl) Save(ctx context.Context, vendor *entity.Vendor) error {
	if strings.TrimSpace(vendor.ID) == "" {
		return fmt.Errorf("%w: vendor id is required", workflow.ErrValidation)
	}
	if vendor.GSTIN != "" {
		vendor.GSTIN = strings.ToUpper(strings.TrimSpace(vendor.GSTIN))
		if err := utils.ValidateGSTIN(vendor.GSTIN); err != nil {
			return fmt.Errorf("%w: %v", workflow.ErrValidation, err)
		}
	}

	if p := vendor.TaxProfile; p != nil {
		if p.StateCode == "" && len(vendor.GSTIN) >= 2 {
			// the first two GSTIN digits are the state code
			p.StateCode = vendor.GSTIN[:2]
		}
		if err := utils.ValidateStateCode(p.StateCode); err != nil {
			return fmt.Errorf("%w: %v", workflow.ErrValidation, err)
		}
		if p.Constitution != "" {
			if !p.Constitution.IsValid() {
				return fmt.Errorf("%w: unknown constitution %q", workflow.ErrValidation, p.Constitution)
			}
			p.Constitution = p.Constitution.Normalize()
		}
		if p.DefaultGSTRate.IsNegative() {
			return fmt.Errorf("%w: default GST rate must not be negative", workflow.ErrValidation)
		}
		if c := p.LowerDeductionCert; c != nil && c.Rate.IsNegative() {
			return fmt.Errorf("%w: certificate rate must not be negative", workflow.ErrValidation)
		}
	}

	if err := s.vendorRepo.Upsert(ctx, vendor); err != nil {
		s.logger.Error("Failed to save vendor", "error", err, "vendor_id", vendor.ID)
		return err
	}

	s.logger.Info("Vendor saved", "vendor_id", vendor.ID)
	return nil
}
