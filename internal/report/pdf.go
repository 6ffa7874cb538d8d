// Package report renders closed-day summaries for printing and spreadsheets.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"brasa/backend/internal/domain"
)

// SummaryPDF renders a closed day as an A4 report. It returns the document
// and a suggested file name.
func SummaryPDF(summary domain.HistoricalSummary, companyName string) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 8, safeValue(companyName), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 7, "Day Closing Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Operation Date: %s", formatDateTime(summary.OperationDate)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Summary: %s", summary.ID), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Totals", "1", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 7, fmt.Sprintf("Opening Balance: %s", FormatMoney(summary.OpeningBalanceCents)), "1", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Closing Balance: %s", FormatMoney(summary.ClosingBalanceCents)), "1", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Revenue: %s", FormatMoney(summary.TotalRevenueCents)), "1", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Average Ticket: %s", FormatMoney(summary.AverageTicketCents())), "1", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Units Sold: %d", summary.TotalUnitsSold), "1", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Sales: %d", summary.TotalSalesCount), "1", 1, "L", false, 0, "")
	pdf.Ln(3)

	section(pdf, "Products")
	if len(summary.Products) == 0 {
		emptyLine(pdf, "No products sold.")
	}
	for _, p := range summary.Products {
		ensurePageSpace(pdf, 12)
		pdf.MultiCell(0, 5, fmt.Sprintf("- %dx %s @ %s = %s", p.UnitsSold, safeValue(p.Name), FormatMoney(p.PriceCents), FormatMoney(p.RevenueCents)), "", "L", false)
	}
	pdf.Ln(2)

	section(pdf, "Customers")
	if len(summary.Customers) == 0 {
		emptyLine(pdf, "No identified customers.")
	}
	for _, c := range summary.Customers {
		ensurePageSpace(pdf, 12)
		pdf.MultiCell(0, 5, fmt.Sprintf("- %s | Phone: %s | Orders: %d | Spent: %s", safeValue(c.Name), safeValue(c.Phone), c.OrdersCount, FormatMoney(c.SpentCents)), "", "L", false)
	}
	pdf.Ln(2)

	section(pdf, "Payments")
	if len(summary.Payments) == 0 {
		emptyLine(pdf, "No payments recorded.")
	}
	for _, m := range summary.Payments {
		ensurePageSpace(pdf, 12)
		pdf.MultiCell(0, 5, fmt.Sprintf("- %s: %d payment(s), %s", m.Method.Label(), m.Count, FormatMoney(m.TotalCents)), "", "L", false)
	}

	var buffer bytes.Buffer
	if err := pdf.Output(&buffer); err != nil {
		return nil, "", fmt.Errorf("failed to render PDF: %w", err)
	}
	return buffer.Bytes(), FileName(summary, "pdf"), nil
}

// FileName is the download name for an export of summary.
func FileName(summary domain.HistoricalSummary, ext string) string {
	return fmt.Sprintf("day-closing-%s.%s", summary.OperationDate.Format("2006-01-02"), ext)
}

// FormatMoney renders cents the way the till displays them, e.g. "R$ 12,50".
func FormatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sR$ %d,%02d", sign, cents/100, cents%100)
}

func section(pdf *gofpdf.Fpdf, title string) {
	ensurePageSpace(pdf, 20)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, title, "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
}

func emptyLine(pdf *gofpdf.Fpdf, text string) {
	pdf.CellFormat(0, 6, text, "", 1, "L", false, 0, "")
}

func ensurePageSpace(pdf *gofpdf.Fpdf, minSpace float64) {
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottomMargin := pdf.GetMargins()
	if pdf.GetY()+minSpace > pageHeight-bottomMargin {
		pdf.AddPage()
	}
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatDateTime(value time.Time) string {
	return value.Format("02 Jan 2006 15:04")
}
