// Package export writes finance spreadsheets for ERP upload.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/tax"
)

// Sheet names
const (
	SheetRegister = "GL Register"
	SheetTax      = "Tax Summary"
)

var registerHeader = []string{
	"Invoice ID", "Invoice Number", "Carrier", "Status", "Currency",
	"GL Code", "Segment", "Rule", "Amount", "Percentage",
}

var taxHeader = []string{
	"Invoice ID", "Invoice Number", "Vendor", "Base", "GST Rate", "RCM",
	"GST to Vendor", "GST to Govt", "IGST", "CGST", "SGST",
	"TDS Section", "TDS Rate", "TDS", "Net Payable",
}

// RegisterRow is one invoice with its derived GL coding and tax view
type RegisterRow struct {
	Invoice  *entity.Invoice
	Segments []entity.GLSegment
	Tax      tax.Breakdown
}

// GLRegisterWriter builds the GL coding register workbook
type GLRegisterWriter struct {
	logger *zap.Logger
}

// NewGLRegisterWriter creates a new register writer
func NewGLRegisterWriter(logger *zap.Logger) *GLRegisterWriter {
	return &GLRegisterWriter{logger: logger}
}

// Write renders rows into an xlsx workbook and returns its bytes.
// Tax values are written rounded for display.
func (w *GLRegisterWriter) Write(rows []RegisterRow) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), SheetRegister); err != nil {
		return nil, fmt.Errorf("failed to name register sheet: %w", err)
	}
	if _, err := file.NewSheet(SheetTax); err != nil {
		return nil, fmt.Errorf("failed to add tax sheet: %w", err)
	}

	if err := w.writeRow(file, SheetRegister, 1, toCells(registerHeader)); err != nil {
		return nil, err
	}
	if err := w.writeRow(file, SheetTax, 1, toCells(taxHeader)); err != nil {
		return nil, err
	}

	registerLine, taxLine := 2, 2
	for _, row := range rows {
		inv := row.Invoice
		for _, seg := range row.Segments {
			cells := []interface{}{
				inv.ID, inv.InvoiceNumber, inv.CarrierName, string(inv.Status), inv.Currency,
				seg.Code, seg.Segment, seg.RuleID,
				seg.Amount.Round(2).InexactFloat64(), seg.Percentage.InexactFloat64(),
			}
			if err := w.writeRow(file, SheetRegister, registerLine, cells); err != nil {
				return nil, err
			}
			registerLine++
		}

		t := row.Tax.Rounded()
		cells := []interface{}{
			inv.ID, inv.InvoiceNumber, inv.VendorID,
			t.BaseAmount.InexactFloat64(), t.GSTRate.InexactFloat64(), t.IsRCM,
			t.GSTPayableToVendor.InexactFloat64(), t.GSTPayableToGovt.InexactFloat64(),
			t.IGST.InexactFloat64(), t.CGST.InexactFloat64(), t.SGST.InexactFloat64(),
			t.TDSSection, t.TDSRate.InexactFloat64(), t.TDSAmount.InexactFloat64(),
			t.NetPayableToVendor.InexactFloat64(),
		}
		if err := w.writeRow(file, SheetTax, taxLine, cells); err != nil {
			return nil, err
		}
		taxLine++
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Info("GL register written",
		zap.Int("invoices", len(rows)),
		zap.Int("segments", registerLine-2),
		zap.Int("size", buf.Len()))

	return buf.Bytes(), nil
}

func (w *GLRegisterWriter) writeRow(file *excelize.File, sheet string, line int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", line, err)
	}
	if err := file.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to set %s row %d: %w", sheet, line, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
