// Package storetest checks a store.Repository implementation against the
// behaviour the service relies on.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brasa/backend/internal/domain"
	"brasa/backend/internal/store"
)

// Run exercises every repository operation. open must return an empty
// repository on each call.
func Run(t *testing.T, open func(t *testing.T) store.Repository) {
	t.Run("day", func(t *testing.T) { testDay(t, open(t)) })
	t.Run("products", func(t *testing.T) { testProducts(t, open(t)) })
	t.Run("customers", func(t *testing.T) { testCustomers(t, open(t)) })
	t.Run("summaries", func(t *testing.T) { testSummaries(t, open(t)) })
	t.Run("settings", func(t *testing.T) { testSettings(t, open(t)) })
	t.Run("apply", func(t *testing.T) { testApply(t, open(t)) })
	t.Run("clear everything", func(t *testing.T) { testClearEverything(t, open(t)) })
}

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func qty(v int) *int { return &v }

// SampleDay is a started session with one delivered order.
func SampleDay() domain.DaySession {
	opened := base
	delivered := base.Add(20 * time.Minute)
	line := domain.SaleLine{
		ID: "sale-1", OrderID: "o-1", ProductID: "carne", ProductName: "Carne",
		UnitPriceCents: 1000, Quantity: 2, LineTotalCents: 2000, CreatedAt: base,
		CustomerID: "ana", CustomerName: "Ana",
	}
	return domain.DaySession{
		OpeningBalanceCents: 5000,
		CurrentBalanceCents: 7000,
		Stock:               []domain.StockEntry{{ProductID: "carne", Name: "Carne", PriceCents: 1000, Available: 8, Finished: 2, InPreparation: -2}},
		Orders: []domain.Order{{
			ID: "o-1", CustomerID: "ana", CustomerName: "Ana", Items: []domain.SaleLine{line},
			TotalCents: 2000, CreatedAt: base, Status: domain.OrderDelivered,
			PreparationStartedAt: &opened, DeliveredAt: &delivered,
		}},
		Sales:         []domain.SaleLine{line},
		Payments:      []domain.Payment{},
		Customers:     []domain.Customer{{ID: "ana", Name: "Ana", RegisteredAt: base}},
		Started:       true,
		OperationDate: &opened,
	}
}

func sampleSummary(id string, date time.Time) domain.HistoricalSummary {
	return domain.HistoricalSummary{
		ID:                  id,
		OperationDate:       date,
		OpeningBalanceCents: 5000,
		ClosingBalanceCents: 9000,
		TotalUnitsSold:      4,
		TotalSalesCount:     2,
		TotalRevenueCents:   4000,
		Products:            []domain.ProductSummary{{ProductID: "carne", Name: "Carne", PriceCents: 1000, UnitsSold: 4, RevenueCents: 4000}},
		Customers:           []domain.CustomerSummary{{CustomerID: "ana", Name: "Ana", SpentCents: 4000, OrdersCount: 2}},
		Payments:            []domain.PaymentMethodSummary{{Method: domain.PaymentCash, Count: 2, TotalCents: 4000}},
	}
}

func testDay(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	_, err := repo.GetDay(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	day := SampleDay()
	require.NoError(t, repo.ReplaceDay(ctx, day))
	got, err := repo.GetDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, day, got)

	day.Stock[0].Available = 0
	got, err = repo.GetDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stock[0].Available, "stored day must not alias the caller's value")

	require.NoError(t, repo.ClearDay(ctx))
	_, err = repo.GetDay(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testProducts(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	for _, p := range []domain.Product{
		{ID: "b", Name: "Frango", PriceCents: 900},
		{ID: "a", Name: "Carne", PriceCents: 1000, DefaultInitialQty: qty(10)},
		{ID: "c", Name: "Queijo", PriceCents: 800, Note: "com melado"},
	} {
		require.NoError(t, repo.UpsertProduct(ctx, p))
	}
	require.NoError(t, repo.UpsertProduct(ctx, domain.Product{ID: "b", Name: "Frango assado", PriceCents: 950}))

	products, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, []string{"b", "a", "c"}, productIDs(products), "insertion order survives upserts")
	assert.Equal(t, "Frango assado", products[0].Name)
	require.NotNil(t, products[1].DefaultInitialQty)
	assert.Equal(t, 10, *products[1].DefaultInitialQty)

	name := "Carne de sol"
	price := int64(1200)
	patched, err := repo.PatchProduct(ctx, "a", domain.ProductPatch{Name: &name, PriceCents: &price})
	require.NoError(t, err)
	assert.Equal(t, "Carne de sol", patched.Name)
	assert.Equal(t, int64(1200), patched.PriceCents)
	require.NotNil(t, patched.DefaultInitialQty)

	got, err := repo.GetProduct(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, *patched, *got)

	_, err = repo.PatchProduct(ctx, "missing", domain.ProductPatch{Name: &name})
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.GetProduct(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, repo.DeleteProduct(ctx, "b"))
	require.ErrorIs(t, repo.DeleteProduct(ctx, "b"), store.ErrNotFound)

	require.NoError(t, repo.ReplaceProducts(ctx, []domain.Product{{ID: "z", Name: "Pao de alho", PriceCents: 700}}))
	products, err = repo.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, productIDs(products))
}

func testCustomers(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	require.NoError(t, repo.UpsertCustomer(ctx, domain.Customer{ID: "ana", Name: "Ana", Phone: "1111", RegisteredAt: base}))
	require.NoError(t, repo.UpsertCustomer(ctx, domain.Customer{ID: "bia", Name: "Bia", RegisteredAt: base.Add(time.Hour)}))

	name := "Ana Paula"
	patched, err := repo.PatchCustomer(ctx, "ana", domain.CustomerPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana Paula", patched.Name)
	assert.Equal(t, "1111", patched.Phone)

	customers, err := repo.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "ana", customers[0].ID)
	assert.Equal(t, "Ana Paula", customers[0].Name)

	got, err := repo.GetCustomer(ctx, "bia")
	require.NoError(t, err)
	assert.Equal(t, "Bia", got.Name)
	assert.True(t, base.Add(time.Hour).Equal(got.RegisteredAt))

	_, err = repo.PatchCustomer(ctx, "missing", domain.CustomerPatch{})
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, repo.DeleteCustomer(ctx, "ana"))
	require.ErrorIs(t, repo.DeleteCustomer(ctx, "ana"), store.ErrNotFound)
	_, err = repo.GetCustomer(ctx, "ana")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, repo.ReplaceCustomers(ctx, []domain.Customer{{ID: "caio", Name: "Caio", RegisteredAt: base}}))
	customers, err = repo.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "caio", customers[0].ID)
}

func testSummaries(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	older := sampleSummary("s-old", base)
	newer := sampleSummary("s-new", base.Add(48*time.Hour))
	middle := sampleSummary("s-mid", base.Add(24*time.Hour))
	for _, s := range []domain.HistoricalSummary{older, newer, middle} {
		require.NoError(t, repo.UpsertSummary(ctx, s))
	}

	summaries, err := repo.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "s-new", summaries[0].ID)
	assert.Equal(t, "s-mid", summaries[1].ID)
	assert.Equal(t, "s-old", summaries[2].ID)

	got, err := repo.GetSummary(ctx, "s-mid")
	require.NoError(t, err)
	assert.Equal(t, middle, *got)

	require.NoError(t, repo.DeleteSummary(ctx, "s-mid"))
	require.ErrorIs(t, repo.DeleteSummary(ctx, "s-mid"), store.ErrNotFound)
	_, err = repo.GetSummary(ctx, "s-mid")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, repo.ClearSummaries(ctx))
	summaries, err = repo.ListSummaries(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func testSettings(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	settings, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, settings.AllowStartWithoutBalance)
	assert.True(t, settings.ControlStock)
	assert.Empty(t, settings.CompanyName)
	assert.Empty(t, settings.PixKey)

	settings.CompanyName = "Brasa do Ze"
	settings.PixKey = "ze@brasa"
	settings.ControlStock = false
	settings.UpdatedAt = base
	require.NoError(t, repo.ReplaceSettings(ctx, settings))

	got, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Brasa do Ze", got.CompanyName)
	assert.Equal(t, "ze@brasa", got.PixKey)
	assert.False(t, got.ControlStock)
	assert.True(t, base.Equal(got.UpdatedAt))
}

func testApply(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	day := SampleDay()
	summary := sampleSummary("s-1", base)
	err := repo.Apply(ctx, store.Batch{
		Day:       &day,
		Customers: []domain.Customer{{ID: "ana", Name: "Ana", RegisteredAt: base, CumulativeSpendCents: 2000}},
	})
	require.NoError(t, err)

	got, err := repo.GetDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, day, got)
	customer, err := repo.GetCustomer(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), customer.CumulativeSpendCents)

	err = repo.Apply(ctx, store.Batch{ClearDay: true, Summary: &summary})
	require.NoError(t, err)
	_, err = repo.GetDay(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
	stored, err := repo.GetSummary(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, summary, *stored)

	bad := store.Batch{Day: &day, Customers: []domain.Customer{{Name: "no id"}}}
	require.ErrorIs(t, repo.Apply(ctx, bad), store.ErrInvalidInput)
	_, err = repo.GetDay(ctx)
	require.ErrorIs(t, err, store.ErrNotFound, "rejected batch must not write the day")

	require.NoError(t, repo.Apply(ctx, store.Batch{}))
}

func testClearEverything(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	day := SampleDay()
	require.NoError(t, repo.ReplaceDay(ctx, day))
	require.NoError(t, repo.UpsertProduct(ctx, domain.Product{ID: "a", Name: "Carne", PriceCents: 1000}))
	require.NoError(t, repo.UpsertCustomer(ctx, domain.Customer{ID: "ana", Name: "Ana", RegisteredAt: base}))
	require.NoError(t, repo.UpsertSummary(ctx, sampleSummary("s-1", base)))
	require.NoError(t, repo.ReplaceSettings(ctx, domain.Settings{CompanyName: "Brasa", AllowStartWithoutBalance: true, UpdatedAt: base}))

	require.NoError(t, repo.ClearEverything(ctx))

	_, err := repo.GetDay(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
	products, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
	customers, err := repo.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Empty(t, customers)
	summaries, err := repo.ListSummaries(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	settings, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(settings.UpdatedAt), settings)
}

func productIDs(products []domain.Product) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}
