package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brasa/backend/internal/domain"
)

func sampleSummary() domain.HistoricalSummary {
	return domain.HistoricalSummary{
		ID:                  "sum-1",
		OperationDate:       time.Date(2026, 5, 9, 18, 0, 0, 0, time.UTC),
		OpeningBalanceCents: 10000,
		ClosingBalanceCents: 17600,
		TotalUnitsSold:      7,
		TotalSalesCount:     4,
		TotalRevenueCents:   7600,
		Products: []domain.ProductSummary{
			{ProductID: "carne", Name: "Espetinho de carne", PriceCents: 1200, UnitsSold: 3, RevenueCents: 3600},
			{ProductID: "frango", Name: "Espetinho de frango", PriceCents: 1000, UnitsSold: 4, RevenueCents: 4000},
		},
		Customers: []domain.CustomerSummary{
			{CustomerID: "c-1", Name: "Ana, Paula", Phone: "2222", SpentCents: 3400, OrdersCount: 2},
		},
		Payments: []domain.PaymentMethodSummary{
			{Method: domain.PaymentInstantTransfer, Count: 1, TotalCents: 3400},
			{Method: domain.PaymentCash, Count: 2, TotalCents: 4200},
		},
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "R$ 0,00", FormatMoney(0))
	assert.Equal(t, "R$ 12,05", FormatMoney(1205))
	assert.Equal(t, "-R$ 1,50", FormatMoney(-150))
}

func TestSummaryPDF(t *testing.T) {
	doc, name, err := SummaryPDF(sampleSummary(), "Brasa do Ze")
	require.NoError(t, err)
	assert.Equal(t, "day-closing-2026-05-09.pdf", name)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")), "expected a PDF header")
}

func TestSummaryPDFWithoutSales(t *testing.T) {
	summary := domain.HistoricalSummary{ID: "empty", OperationDate: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)}
	doc, _, err := SummaryPDF(summary, "")
	require.NoError(t, err)
	assert.NotEmpty(t, doc)
}

func TestSummaryCSV(t *testing.T) {
	data, name, err := SummaryCSV(sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, "day-closing-2026-05-09.csv", name)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)

	values := map[string]string{}
	for _, row := range rows {
		if len(row) == 2 {
			values[row[0]] = row[1]
		}
	}
	assert.Equal(t, "7600", values["total_revenue_cents"])
	assert.Equal(t, "1900", values["average_ticket_cents"])
	assert.Equal(t, "2026-05-09T18:00:00Z", values["operation_date"])

	assert.Contains(t, rows, []string{"carne", "Espetinho de carne", "1200", "3", "3600"})
	assert.Contains(t, rows, []string{"c-1", "Ana, Paula", "2222", "2", "3400"})
	assert.Contains(t, rows, []string{"instant-transfer", "1", "3400"})
	assert.Contains(t, rows, []string{"cash", "2", "4200"})
}
