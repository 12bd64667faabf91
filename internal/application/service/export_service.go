package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/export"
)

// RegisterWriter renders GL register rows into a workbook
type RegisterWriter interface {
	Write(rows []export.RegisterRow) ([]byte, error)
}

// ExportService produces finance exports
type ExportService interface {
	// GLRegister builds the register for every invoice, archives a copy and
	// returns the file name and content.
	GLRegister(ctx context.Context) (string, []byte, error)
}

type exportServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	taxes       TaxService
	allocations AllocationService
	writer      RegisterWriter
	archive     port.FileStorage
	now         func() time.Time
	logger      Logger
}

// NewExportService creates a new ExportService. archive may be nil.
func NewExportService(
	invoiceRepo port.InvoiceRepository,
	taxes TaxService,
	allocations AllocationService,
	writer RegisterWriter,
	archive port.FileStorage,
	logger Logger,
) ExportService {
	return &exportServiceImpl{
		invoiceRepo: invoiceRepo,
		taxes:       taxes,
		allocations: allocations,
		writer:      writer,
		archive:     archive,
		now:         time.Now,
		logger:      logger,
	}
}

// GLRegister builds the GL coding register workbook
func (s *exportServiceImpl) GLRegister(ctx context.Context) (string, []byte, error) {
	invoices, err := s.invoiceRepo.List(ctx, port.InvoiceFilter{})
	if err != nil {
		return "", nil, fmt.Errorf("list invoices: %w", err)
	}

	rows := make([]export.RegisterRow, 0, len(invoices))
	for _, inv := range invoices {
		taxView, err := s.taxes.Compute(ctx, inv)
		if err != nil {
			return "", nil, fmt.Errorf("tax for invoice %s: %w", inv.ID, err)
		}
		allocation, err := s.allocations.Compute(ctx, inv)
		if err != nil {
			return "", nil, fmt.Errorf("allocation for invoice %s: %w", inv.ID, err)
		}
		rows = append(rows, export.RegisterRow{
			Invoice:  inv,
			Segments: allocation.Segments,
			Tax:      taxView.Exact,
		})
	}

	data, err := s.writer.Write(rows)
	if err != nil {
		s.logger.Error("Failed to write GL register", "error", err)
		return "", nil, err
	}

	name := fmt.Sprintf("gl-register-%s.xlsx", s.now().UTC().Format("20060102-150405"))
	if s.archive != nil {
		if err := s.archive.Save(ctx, path.Join("gl-register", name), data); err != nil {
			// the download still succeeds without the archived copy
			s.logger.Error("Failed to archive GL register", "error", err, "file", name)
		}
	}

	s.logger.Info("GL register exported", "file", name, "invoices", len(rows))
	return name, data, nil
}
