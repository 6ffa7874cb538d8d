package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"brasa/backend/internal/domain"
)

// SummaryCSV writes the summary as sections separated by blank rows. Money
// columns hold integer cents.
func SummaryCSV(summary domain.HistoricalSummary) ([]byte, string, error) {
	var buffer bytes.Buffer
	w := csv.NewWriter(&buffer)

	rows := [][]string{
		{"summary_id", summary.ID},
		{"operation_date", summary.OperationDate.Format(time.RFC3339)},
		{"opening_balance_cents", cents(summary.OpeningBalanceCents)},
		{"closing_balance_cents", cents(summary.ClosingBalanceCents)},
		{"total_revenue_cents", cents(summary.TotalRevenueCents)},
		{"average_ticket_cents", cents(summary.AverageTicketCents())},
		{"total_units_sold", strconv.Itoa(summary.TotalUnitsSold)},
		{"total_sales_count", strconv.Itoa(summary.TotalSalesCount)},
		{},
		{"product_id", "product", "price_cents", "units_sold", "revenue_cents"},
	}
	for _, p := range summary.Products {
		rows = append(rows, []string{p.ProductID, p.Name, cents(p.PriceCents), strconv.Itoa(p.UnitsSold), cents(p.RevenueCents)})
	}

	rows = append(rows, []string{}, []string{"customer_id", "customer", "phone", "orders", "spent_cents"})
	for _, c := range summary.Customers {
		rows = append(rows, []string{c.CustomerID, c.Name, c.Phone, strconv.Itoa(c.OrdersCount), cents(c.SpentCents)})
	}

	rows = append(rows, []string{}, []string{"payment_method", "payments", "total_cents"})
	for _, m := range summary.Payments {
		rows = append(rows, []string{string(m.Method), strconv.Itoa(m.Count), cents(m.TotalCents)})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, "", fmt.Errorf("failed to write CSV: %w", err)
	}
	return buffer.Bytes(), FileName(summary, "csv"), nil
}

func cents(v int64) string {
	return strconv.FormatInt(v, 10)
}
