package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brasa/backend/internal/domain"
	"brasa/backend/internal/store"
	"brasa/backend/internal/store/memory"
)

var testNow = time.Date(2026, 7, 4, 19, 0, 0, 0, time.UTC)

type recordingCache struct {
	summaries   []domain.HistoricalSummary
	filled      bool
	sets        int
	invalidated int
}

func (c *recordingCache) Get(_ context.Context) ([]domain.HistoricalSummary, bool, error) {
	return c.summaries, c.filled, nil
}

func (c *recordingCache) Set(_ context.Context, summaries []domain.HistoricalSummary, _ time.Duration) error {
	c.summaries = summaries
	c.filled = true
	c.sets++
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context) error {
	c.summaries = nil
	c.filled = false
	c.invalidated++
	return nil
}

// flakyRepo fails every Apply while failApply is set.
type flakyRepo struct {
	*memory.Store
	failApply bool
}

func (r *flakyRepo) Apply(ctx context.Context, batch store.Batch) error {
	if r.failApply {
		return &store.PersistenceError{Op: "apply batch", Err: errors.New("connection reset")}
	}
	return r.Store.Apply(ctx, batch)
}

func newTestService(t *testing.T) (*Service, *flakyRepo, *recordingCache) {
	t.Helper()
	repo := &flakyRepo{Store: memory.NewSeeded()}
	summaries := &recordingCache{}
	seq := 0
	svc := New(repo, summaries, nil,
		WithClock(func() time.Time { return testNow }),
		WithIDs(func(prefix string) string {
			seq++
			if prefix == "" {
				return fmt.Sprintf("id-%03d", seq)
			}
			return fmt.Sprintf("%s-%03d", prefix, seq)
		}),
	)
	return svc, repo, summaries
}

func openTestDay(t *testing.T, svc *Service) *domain.DaySession {
	t.Helper()
	day, err := svc.OpenDay(context.Background(), domain.OpenDayRequest{
		OpeningBalanceCents: 10000,
		InitialQuantities:   map[string]int{"espeto-carne": 5},
	})
	require.NoError(t, err)
	require.NotNil(t, day, "expected day to open")
	return day
}

func availableOf(t *testing.T, day domain.DaySession, productID string) int {
	t.Helper()
	for _, entry := range day.Stock {
		if entry.ProductID == productID {
			return entry.Available
		}
	}
	require.FailNowf(t, "stock lookup", "product %s missing from stock", productID)
	return 0
}

func deliver(t *testing.T, svc *Service, orderID string) {
	t.Helper()
	ctx := context.Background()
	started, err := svc.StartPreparation(ctx, orderID)
	require.NoError(t, err)
	require.NotNil(t, started, "start preparation %s", orderID)
	delivered, err := svc.DeliverOrder(ctx, orderID)
	require.NoError(t, err)
	require.NotNil(t, delivered, "deliver %s", orderID)
}

func TestOpenDayUsesCatalogDefaultsAndOverrides(t *testing.T) {
	svc, _, _ := newTestService(t)
	day := openTestDay(t, svc)

	assert.Equal(t, 5, availableOf(t, *day, "espeto-carne"))
	assert.Equal(t, 40, availableOf(t, *day, "espeto-frango"))
	assert.Equal(t, 0, availableOf(t, *day, "refrigerante"))

	again, err := svc.OpenDay(context.Background(), domain.OpenDayRequest{OpeningBalanceCents: 500})
	require.NoError(t, err)
	assert.Nil(t, again, "second open is a no-op")
}

func TestOpenDayWithoutBalanceNeedsSetting(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	day, err := svc.OpenDay(ctx, domain.OpenDayRequest{})
	require.NoError(t, err)
	assert.Nil(t, day)

	settings, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	settings.AllowStartWithoutBalance = true
	_, err = svc.UpdateSettings(ctx, settings)
	require.NoError(t, err)

	day, err = svc.OpenDay(ctx, domain.OpenDayRequest{})
	require.NoError(t, err)
	assert.NotNil(t, day)
}

func TestAddThenCancelRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	openTestDay(t, svc)

	order, err := svc.AddOrderItem(ctx, domain.AddOrderItemRequest{ProductID: "espeto-carne", Quantity: 2})
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, int64(2000), order.TotalCents)

	day, err := svc.CurrentDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, availableOf(t, day, "espeto-carne"))
	assert.Equal(t, int64(12000), day.CurrentBalanceCents)

	preview, err := svc.PreviewCancellation(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, preview)
	assert.Equal(t, 2, preview.TotalUnits)
	assert.Equal(t, int64(2000), preview.TotalCents)

	removed, err := svc.CancelAwaitingOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, removed)

	day, err = svc.CurrentDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, availableOf(t, day, "espeto-carne"))
	assert.Equal(t, int64(10000), day.CurrentBalanceCents)
	assert.Empty(t, day.Orders)
	assert.Empty(t, day.Sales)
}

func TestInsufficientStockIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	openTestDay(t, svc)
	before, err := svc.CurrentDay(ctx)
	require.NoError(t, err)

	order, err := svc.AddOrderItem(ctx, domain.AddOrderItemRequest{ProductID: "espeto-carne", Quantity: 6})
	require.NoError(t, err)
	assert.Nil(t, order)

	after, err := svc.CurrentDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, availableOf(t, before, "espeto-carne"), availableOf(t, after, "espeto-carne"))
	assert.Equal(t, before.CurrentBalanceCents, after.CurrentBalanceCents)
}

func TestCustomerSpendFollowsSalesAndCancellations(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ana, err := svc.AddCustomer(ctx, domain.CustomerDraft{Name: "  Ana  ", Phone: "11 9999"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", ana.Name)
	assert.True(t, ana.RegisteredAt.Equal(testNow))
	openTestDay(t, svc)

	first, err := svc.AddOrderItem(ctx, domain.AddOrderItemRequest{ProductID: "espeto-frango", Quantity: 2, CustomerID: ana.ID})
	require.NoError(t, err)
	second, err := svc.AddOrderItem(ctx, domain.AddOrderItemRequest{ProductID: "espeto-carne", Quantity: 1, CustomerID: ana.ID})
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, "Ana", first.CustomerName)
	assert.Equal(t, "11 9999", first.CustomerPhone)

	customers, err := svc.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2800), customers[0].CumulativeSpendCents)

	_, err = svc.CancelAwaitingOrder(ctx, second.ID)
	require.NoError(t, err)
	customers, err = svc.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), customers[0].CumulativeSpendCents)
}

func TestUnknownCustomerMakesCounterSale(t *testing.T) {
	svc, _, _ := newTestService(t)
	openTestDay(t, svc)

	order, err := svc.AddOrderItem(context.Background(), domain.AddOrderItemRequest{ProductID: "pao-alho", Quantity: 1, CustomerID: "ghost"})
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Empty(t, order.CustomerID)
	assert.Empty(t, order.CustomerName)
}

func TestLifecycleAndSettlement(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	openTestDay(t, svc)

	order, err := svc.AddOrderItem(ctx, domain.AddOrderItemRequest{ProductID: "espeto-carne", Quantity: 1})
	require.NoError(t, err)
	skipped, err := svc.DeliverOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, skipped, "deliver must not skip preparation")
	deliver(t, svc, order.ID)

	day, err := svc.CurrentDay(ctx)
	require.NoError(t, err)
	for _, entry := range day.Stock {
		if entry.ProductID == "espeto-carne" {
			assert.Equal(t, 1, entry.Finished)
		}
	}

	groups, err := svc.PendingSettlements(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(1000), groups[0].TotalCents)

	payment, err := svc.SettlePayment(ctx, domain.SettlePaymentRequest{OrderIDs: []string{order.ID}, Method: domain.PaymentCash})
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, int64(1000), payment.TotalCents)

	day, err = svc.CurrentDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, day.Orders[0].Status)

	again, err := svc.SettlePayment(ctx, domain.SettlePaymentRequest{OrderIDs: []string{order.ID}, Method: domain.PaymentCash})
	require.NoError(t, err)
	assert.Nil(t, again, "paid order must not settle twice")
}

func TestSettlePaymentRejectsUnknownMethod(t *testing.T) {
	svc, _, _ := newTestService(t)
	openTestDay(t, svc)

	_, err := svc.SettlePayment(context.Background(), domain.SettlePaymentRequest{OrderIDs: []string{"x"}, Method: "voucher"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestCloseDayRefusedWhileOrdersUnpaid(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	openTestDay(t, svc)
	order, err := svc.AddOrderItem(ctx, domain.AddOrderItemRequest{ProductID: "espeto-carne", Quantity: 1})
	require.NoError(t, err)

	summary, err := svc.CloseDay(ctx)
	var unpaid *UnpaidOrdersError
	require.ErrorAs(t, err, &unpaid)
	assert.Nil(t, summary)
	require.Len(t, unpaid.Orders, 1)
	assert.Equal(t, order.ID, unpaid.Orders[0].OrderID)

	day, err := svc.CurrentDay(ctx)
	require.NoError(t, err)
	assert.True(t, day.Started, "day must be untouched after refused close")
	assert.Len(t, day.Orders, 1)

	summaries, err := repo.ListSummaries(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries, "no summary may be written on refused close")
}

func TestCloseDayArchivesAndClears(t *testing.T) {
	svc, _, summaries := newTestService(t)
	ctx := context.Background()
	openTestDay(t, svc)

	ana, err := svc.AddCustomer(ctx, domain.CustomerDraft{Name: "Ana"})
	require.NoError(t, err)
	a, err := svc.AddOrderItem(ctx, domain.AddOrderItemRequest{ProductID: "espeto-carne", Quantity: 2, CustomerID: ana.ID})
	require.NoError(t, err)
	b, err := svc.AddOrderItem(ctx, domain.AddOrderItemRequest{ProductID: "queijo-coalho", Quantity: 1})
	require.NoError(t, err)
	deliver(t, svc, a.ID)
	deliver(t, svc, b.ID)
	_, err = svc.SettlePayment(ctx, domain.SettlePaymentRequest{OrderIDs: []string{a.ID}, Method: domain.PaymentInstantTransfer})
	require.NoError(t, err)
	_, err = svc.SettlePayment(ctx, domain.SettlePaymentRequest{OrderIDs: []string{b.ID}, Method: domain.PaymentCash})
	require.NoError(t, err)

	_, err = svc.ListSummaries(ctx)
	require.NoError(t, err, "warm cache")

	summary, err := svc.CloseDay(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, int64(2800), summary.TotalRevenueCents)
	assert.Equal(t, int64(12800), summary.ClosingBalanceCents)
	assert.True(t, summary.OperationDate.Equal(testNow))
	require.Len(t, summary.Customers, 1)
	assert.Equal(t, int64(2000), summary.Customers[0].SpentCents)
	assert.NotZero(t, summaries.invalidated, "summary cache must be invalidated")

	day, err := svc.CurrentDay(ctx)
	require.NoError(t, err)
	assert.False(t, day.Started)
	settings, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.ControlStock, "settings survive day close")

	list, err := svc.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, summary.ID, list[0].ID)
}

func TestCloseDayWithoutOpenDayIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t)
	summary, err := svc.CloseDay(context.Background())
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestListSummariesServesFromCache(t *testing.T) {
	svc, repo, summaries := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertSummary(ctx, domain.HistoricalSummary{ID: "s-1", OperationDate: testNow}))

	_, err := svc.ListSummaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summaries.sets)

	require.NoError(t, repo.UpsertSummary(ctx, domain.HistoricalSummary{ID: "s-2", OperationDate: testNow.Add(time.Hour)}))
	list, err := svc.ListSummaries(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1, "served from cache")

	deleted, err := svc.DeleteSummary(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	list, err = svc.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "s-2", list[0].ID)

	deleted, err = svc.DeleteSummary(ctx, "s-1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.GetSummary(ctx, "s-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPersistenceFailureLeavesStateAndCanBeRetried(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	openTestDay(t, svc)

	repo.failApply = true
	order, err := svc.AddOrderItem(ctx, domain.AddOrderItemRequest{ProductID: "espeto-carne", Quantity: 1})
	require.ErrorIs(t, err, store.ErrPersistence)
	assert.Nil(t, order)

	day, err := svc.CurrentDay(ctx)
	require.NoError(t, err)
	assert.Empty(t, day.Orders)
	assert.Equal(t, 5, availableOf(t, day, "espeto-carne"))

	repo.failApply = false
	order, err = svc.AddOrderItem(ctx, domain.AddOrderItemRequest{ProductID: "espeto-carne", Quantity: 1})
	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestRemoveCustomerBlockedBySales(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	ana, err := svc.AddCustomer(ctx, domain.CustomerDraft{Name: "Ana"})
	require.NoError(t, err)
	bia, err := svc.AddCustomer(ctx, domain.CustomerDraft{Name: "Bia"})
	require.NoError(t, err)
	openTestDay(t, svc)
	_, err = svc.AddOrderItem(ctx, domain.AddOrderItemRequest{ProductID: "pao-alho", Quantity: 1, CustomerID: ana.ID})
	require.NoError(t, err)

	n, err := svc.CustomerSalesCount(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.RemoveCustomer(ctx, ana.ID)
	assert.ErrorIs(t, err, ErrCustomerHasSales)

	removed, err := svc.RemoveCustomer(ctx, bia.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = svc.RemoveCustomer(ctx, bia.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestCatalogEdits(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, domain.ProductDraft{Name: " Picanha ", PriceCents: 1500})
	require.NoError(t, err)
	assert.Equal(t, "Picanha", created.Name)

	_, err = svc.CreateProduct(ctx, domain.ProductDraft{Name: " ", PriceCents: 100})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	_, err = svc.CreateProduct(ctx, domain.ProductDraft{Name: "Boi inteiro", PriceCents: domain.MaxPriceCents + 1})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	price := int64(1700)
	updated, err := svc.EditProduct(ctx, created.ID, domain.ProductPatch{PriceCents: &price})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, int64(1700), updated.PriceCents)

	negative := int64(-1)
	_, err = svc.EditProduct(ctx, created.ID, domain.ProductPatch{PriceCents: &negative})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	missing, err := svc.EditProduct(ctx, "nope", domain.ProductPatch{PriceCents: &price})
	require.NoError(t, err)
	assert.Nil(t, missing)

	removed, err := svc.RemoveProduct(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, removed)
	removed, err = svc.RemoveProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestImportCatalogReplacesProducts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	imported, err := svc.ImportCatalog(ctx, []domain.Product{
		{ID: "kafta", Name: "Kafta", PriceCents: 1100},
		{Name: "Coracao", PriceCents: 900},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, imported[1].ID, "missing ids are generated")

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "kafta", products[0].ID)

	_, err = svc.ImportCatalog(ctx, []domain.Product{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestLowStockUsesDefaultThreshold(t *testing.T) {
	svc, _, _ := newTestService(t)
	openTestDay(t, svc)

	alerts, err := svc.LowStock(context.Background(), -1)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "refrigerante", alerts[0].ProductID)
	assert.Equal(t, "espeto-carne", alerts[1].ProductID)
}

func TestClearEverythingRestoresDefaults(t *testing.T) {
	svc, _, summaries := newTestService(t)
	ctx := context.Background()
	openTestDay(t, svc)
	settings, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	settings.CompanyName = "Brasa"
	_, err = svc.UpdateSettings(ctx, settings)
	require.NoError(t, err)

	require.NoError(t, svc.ClearEverything(ctx))

	day, err := svc.CurrentDay(ctx)
	require.NoError(t, err)
	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	settings, err = svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, day.Started)
	assert.Empty(t, products)
	assert.Empty(t, settings.CompanyName)
	assert.True(t, settings.ControlStock)
	assert.NotZero(t, summaries.invalidated)
}
