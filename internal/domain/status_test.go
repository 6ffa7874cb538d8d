package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionOnlyForward(t *testing.T) {
	statuses := []OrderStatus{OrderAwaitingPreparation, OrderInPreparation, OrderDelivered, OrderPaid}

	for i, from := range statuses {
		for j, to := range statuses {
			got := CanTransition(from, to)
			assert.Equal(t, j == i+1, got, "%s -> %s", from, to)
		}
	}
}

func TestPaidIsTerminal(t *testing.T) {
	assert.True(t, OrderPaid.Terminal())
	for _, to := range []OrderStatus{OrderAwaitingPreparation, OrderInPreparation, OrderDelivered, OrderPaid} {
		assert.False(t, CanTransition(OrderPaid, to))
	}
}

func TestOnlyAwaitingOrdersAreCancellable(t *testing.T) {
	assert.True(t, OrderAwaitingPreparation.Cancellable())
	assert.False(t, OrderInPreparation.Cancellable())
	assert.False(t, OrderDelivered.Cancellable())
	assert.False(t, OrderPaid.Cancellable())
}

func TestPaymentMethodValid(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentCash, PaymentInstantTransfer, PaymentDebitCard, PaymentCreditCard} {
		assert.True(t, m.Valid(), string(m))
	}
	assert.False(t, PaymentMethod("cheque").Valid())
	assert.False(t, PaymentMethod("").Valid())
}

func TestDaySessionCloneIsDeep(t *testing.T) {
	now := time.Now().UTC()
	day := DaySession{
		Stock:         []StockEntry{{ProductID: "p1", Available: 3}},
		Orders:        []Order{{ID: "o1", Items: []SaleLine{{ID: "s1", Quantity: 1}}, DeliveredAt: &now}},
		Payments:      []Payment{{ID: "pay1", OrderIDs: []string{"o1"}}},
		OperationDate: &now,
	}

	cp := day.Clone()
	cp.Stock[0].Available = 99
	cp.Orders[0].Items[0].Quantity = 7
	*cp.Orders[0].DeliveredAt = now.Add(time.Hour)
	cp.Payments[0].OrderIDs[0] = "other"

	require.Equal(t, 3, day.Stock[0].Available)
	require.Equal(t, 1, day.Orders[0].Items[0].Quantity)
	require.Equal(t, now, *day.Orders[0].DeliveredAt)
	require.Equal(t, "o1", day.Payments[0].OrderIDs[0])
}

func TestProductPatchApply(t *testing.T) {
	name := "Picanha"
	qty := 12
	product := Product{ID: "p1", Name: "Frango", PriceCents: 800}

	ProductPatch{Name: &name, DefaultInitialQty: &qty}.Apply(&product)

	assert.Equal(t, "Picanha", product.Name)
	assert.Equal(t, int64(800), product.PriceCents)
	require.NotNil(t, product.DefaultInitialQty)
	assert.Equal(t, 12, *product.DefaultInitialQty)
}
