package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brasa/backend/internal/domain"
)

// paidDay runs a small service: two customers, one counter sale, a cancelled
// order and a product nobody bought. Every remaining order ends up paid.
func paidDay(t *testing.T, e *Engine) domain.DaySession {
	t.Helper()
	catalog := []domain.Product{
		{ID: "carne", Name: "Carne", PriceCents: 1200, DefaultInitialQty: intPtr(30)},
		{ID: "frango", Name: "Frango", PriceCents: 1000, DefaultInitialQty: intPtr(30)},
		{ID: "queijo", Name: "Queijo coalho", PriceCents: 900, DefaultInitialQty: intPtr(10)},
	}
	ana := domain.Customer{ID: "ana", Name: "Ana", Phone: "1111"}
	bia := domain.Customer{ID: "bia", Name: "Bia"}
	day, ok := e.OpenDay(stockControl(), catalog, []domain.Customer{ana, bia}, 5000, nil)
	require.True(t, ok)

	add := func(c *domain.Customer, productID string, qty int) string {
		order, ok := e.AddOrderItem(&day, stockControl(), c, domain.AddOrderItemRequest{ProductID: productID, Quantity: qty})
		require.True(t, ok)
		return order.ID
	}
	deliver := func(id string) {
		_, ok := e.StartPreparation(&day, id)
		require.True(t, ok)
		_, ok = e.DeliverOrder(&day, id)
		require.True(t, ok)
	}

	a1 := add(&ana, "carne", 2)
	a2 := add(&ana, "frango", 1)
	b1 := add(&bia, "carne", 1)
	walkIn := add(nil, "frango", 3)
	cancelled := add(&bia, "frango", 4)
	_, ok = e.CancelAwaitingOrder(&day, cancelled)
	require.True(t, ok)

	for _, id := range []string{a1, a2, b1, walkIn} {
		deliver(id)
	}
	_, ok = e.Settle(&day, []string{a1, a2}, domain.PaymentInstantTransfer)
	require.True(t, ok)
	_, ok = e.Settle(&day, []string{b1}, domain.PaymentCash)
	require.True(t, ok)
	_, ok = e.Settle(&day, []string{walkIn}, domain.PaymentCash)
	require.True(t, ok)
	return day
}

func TestUnpaidOrdersBlocksClosing(t *testing.T) {
	e := newTestEngine()
	day := openScenarioDay(t, e)
	assert.Empty(t, UnpaidOrders(day))

	order, _ := e.AddOrderItem(&day, stockControl(), nil, domain.AddOrderItemRequest{ProductID: "P", Quantity: 1})
	e.StartPreparation(&day, order.ID)
	e.DeliverOrder(&day, order.ID)

	unpaid := UnpaidOrders(day)
	require.Len(t, unpaid, 1)
	assert.Equal(t, order.ID, unpaid[0].OrderID)
	assert.Equal(t, domain.OrderDelivered, unpaid[0].Status)
	assert.Equal(t, int64(1000), unpaid[0].TotalCents)
}

func TestSummarizeTotals(t *testing.T) {
	e := newTestEngine()
	day := paidDay(t, e)
	require.Empty(t, UnpaidOrders(day))

	summary := e.Summarize(day, nil)

	assert.Equal(t, fixedNow, summary.OperationDate)
	assert.Equal(t, int64(5000), summary.OpeningBalanceCents)
	assert.Equal(t, day.CurrentBalanceCents, summary.ClosingBalanceCents)
	assert.Equal(t, 4, summary.TotalSalesCount)
	assert.Equal(t, 7, summary.TotalUnitsSold)
	assert.Equal(t, int64(2400+1000+1200+3000), summary.TotalRevenueCents)
	assert.Equal(t, summary.OpeningBalanceCents+summary.TotalRevenueCents, summary.ClosingBalanceCents)
}

func TestSummarizeBreakdownsAddUp(t *testing.T) {
	e := newTestEngine()
	day := paidDay(t, e)
	summary := e.Summarize(day, nil)

	var productRevenue int64
	for _, p := range summary.Products {
		productRevenue += p.RevenueCents
		assert.Positive(t, p.UnitsSold)
	}
	assert.Equal(t, summary.TotalRevenueCents, productRevenue)

	var methodTotal, paymentTotal int64
	for _, m := range summary.Payments {
		methodTotal += m.TotalCents
	}
	for _, p := range day.Payments {
		paymentTotal += p.TotalCents
	}
	assert.Equal(t, paymentTotal, methodTotal)
}

func TestSummarizeProductBreakdown(t *testing.T) {
	e := newTestEngine()
	summary := e.Summarize(paidDay(t, e), nil)

	require.Len(t, summary.Products, 2, "unsold products are left out")
	assert.Equal(t, "carne", summary.Products[0].ProductID)
	assert.Equal(t, 3, summary.Products[0].UnitsSold)
	assert.Equal(t, int64(3600), summary.Products[0].RevenueCents)
	assert.Equal(t, "frango", summary.Products[1].ProductID)
	assert.Equal(t, 4, summary.Products[1].UnitsSold)
}

func TestSummarizeCustomerBreakdown(t *testing.T) {
	e := newTestEngine()
	day := paidDay(t, e)
	directory := []domain.Customer{{ID: "ana", Name: "Ana Paula", Phone: "2222"}}

	summary := e.Summarize(day, directory)

	require.Len(t, summary.Customers, 2)
	assert.Equal(t, domain.CustomerSummary{CustomerID: "ana", Name: "Ana Paula", Phone: "2222", SpentCents: 3400, OrdersCount: 2}, summary.Customers[0])
	assert.Equal(t, domain.CustomerSummary{CustomerID: "bia", Name: "Bia", SpentCents: 1200, OrdersCount: 1}, summary.Customers[1])
}

func TestSummarizeLeavesOutCustomersWithoutSpend(t *testing.T) {
	e := newTestEngine()
	catalog := []domain.Product{
		{ID: "carne", Name: "Carne", PriceCents: 1200, DefaultInitialQty: intPtr(10)},
		{ID: "farofa", Name: "Farofa cortesia", PriceCents: 0, DefaultInitialQty: intPtr(10)},
	}
	ana := domain.Customer{ID: "ana", Name: "Ana"}
	bia := domain.Customer{ID: "bia", Name: "Bia"}
	day, ok := e.OpenDay(stockControl(), catalog, []domain.Customer{ana, bia}, 5000, nil)
	require.True(t, ok)

	_, ok = e.AddOrderItem(&day, stockControl(), &ana, domain.AddOrderItemRequest{ProductID: "carne", Quantity: 1})
	require.True(t, ok)
	_, ok = e.AddOrderItem(&day, stockControl(), &bia, domain.AddOrderItemRequest{ProductID: "farofa", Quantity: 2})
	require.True(t, ok)

	summary := e.Summarize(day, nil)

	require.Len(t, summary.Customers, 1)
	assert.Equal(t, "ana", summary.Customers[0].CustomerID)

	require.Len(t, summary.Products, 2)
	assert.Equal(t, "farofa", summary.Products[1].ProductID)
	assert.Equal(t, 2, summary.Products[1].UnitsSold)
	assert.Zero(t, summary.Products[1].RevenueCents)
}

func TestSummarizePaymentBreakdownKeepsFirstSeenOrder(t *testing.T) {
	e := newTestEngine()
	summary := e.Summarize(paidDay(t, e), nil)

	require.Len(t, summary.Payments, 2)
	assert.Equal(t, domain.PaymentMethodSummary{Method: domain.PaymentInstantTransfer, Count: 1, TotalCents: 3400}, summary.Payments[0])
	assert.Equal(t, domain.PaymentMethodSummary{Method: domain.PaymentCash, Count: 2, TotalCents: 4200}, summary.Payments[1])
}

func TestSummarizeWithoutOperationDateUsesClock(t *testing.T) {
	e := newTestEngine()
	day := EmptyDay()
	summary := e.Summarize(day, nil)

	assert.Equal(t, fixedNow, summary.OperationDate)
	assert.Empty(t, summary.Products)
	assert.Empty(t, summary.Customers)
	assert.Empty(t, summary.Payments)
}
