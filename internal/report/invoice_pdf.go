package report

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/money"
)

const dateLayout = "02 Jan 2006"

// InvoiceDocument is everything printed on an invoice.
type InvoiceDocument struct {
	ClinicName string
	Invoice    *model.Invoice
	Patient    *model.Patient
	Formatter  *money.Formatter
}

// RenderInvoice lays out a finalized invoice as a single A4 PDF.
func RenderInvoice(doc InvoiceDocument) ([]byte, error) {
	if doc.Invoice == nil || doc.Patient == nil || doc.Formatter == nil {
		return nil, errors.New("invoice document is incomplete")
	}
	inv := doc.Invoice
	f := doc.Formatter

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle(fmt.Sprintf("Invoice %s", inv.ID), true)
	pdf.AddPage()

	// core fonts are cp1252, currency symbols go through the translator
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, tr(doc.ClinicName), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, "Invoice", "1", 1, "C", false, 0, "")

	addDetail(pdf, "Invoice", inv.ID.String())
	addDetail(pdf, "Patient", tr(doc.Patient.Name))
	if inv.FinalizedAt != nil {
		addDetail(pdf, "Date", inv.FinalizedAt.Format(dateLayout))
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(30, 8, "Code", "1", 0, "", true, 0, "")
	pdf.CellFormat(70, 8, "Description", "1", 0, "", true, 0, "")
	pdf.CellFormat(30, 8, "Unit price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range inv.Items {
		pdf.CellFormat(30, 8, tr(item.ServiceCode), "1", 0, "", false, 0, "")
		pdf.CellFormat(70, 8, tr(item.Description), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 8, tr(f.Format(item.UnitPrice)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 8, strconv.Itoa(item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, tr(f.Format(item.Total())), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	addTotal(pdf, "Subtotal", tr(f.Format(inv.Subtotal)))
	addTotal(pdf, fmt.Sprintf("Discount (%s%%)", inv.DiscountPercent.String()), tr("-"+f.Format(inv.DiscountAmount)))
	pdf.SetFont("Arial", "B", 11)
	addTotal(pdf, "Total due", tr(f.Format(inv.TotalDue)))
	pdf.SetFont("Arial", "", 10)
	addTotal(pdf, "Amount tendered", tr(f.Format(inv.AmountTendered)))
	addTotal(pdf, "Change", tr(f.Format(inv.Change)))

	pdf.SetY(pdf.GetY() + 12)
	pdf.CellFormat(0, 10, "This is a computer generated invoice", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func addDetail(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 8, label, "1", 0, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 8, value, "1", 1, "", false, 0, "")
}

func addTotal(pdf *gofpdf.Fpdf, label, value string) {
	pdf.CellFormat(150, 7, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, value, "", 1, "R", false, 0, "")
}
