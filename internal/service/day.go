package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"brasa/backend/internal/domain"
	"brasa/backend/internal/metrics"
	"brasa/backend/internal/register"
	"brasa/backend/internal/store"
)

// CurrentDay returns the open session, or an empty not-started one.
func (s *Service) CurrentDay(ctx context.Context) (domain.DaySession, error) {
	day, err := s.loadDay(ctx)
	if err != nil {
		return domain.DaySession{}, s.fail(ctx, "current_day", err)
	}
	return day, nil
}

// OpenDay starts a session from the current catalog. It does nothing when a
// day is already open.
func (s *Service) OpenDay(ctx context.Context, req domain.OpenDayRequest) (*domain.DaySession, error) {
	const op = "open_day"

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	catalog, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	var opened domain.DaySession
	applied, err := s.mutateDay(ctx, op, func(day *domain.DaySession, _ *store.Batch) (bool, error) {
		if day.Started {
			return false, nil
		}
		next, ok := s.engine.OpenDay(settings, catalog, customers, req.OpeningBalanceCents, req.InitialQuantities)
		if !ok {
			return false, nil
		}
		*day = next
		opened = next.Clone()
		return true, nil
	})
	if err != nil || !applied {
		return nil, err
	}

	s.log(ctx).Info("day opened",
		zap.Int64("opening_balance_cents", opened.OpeningBalanceCents),
		zap.Int("products", len(opened.Stock)),
	)
	return &opened, nil
}

// AddOrderItem opens an order with one sale line. A customer id that is not
// in the directory makes a counter sale.
func (s *Service) AddOrderItem(ctx context.Context, req domain.AddOrderItemRequest) (*domain.Order, error) {
	const op = "add_order_item"

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	var created *domain.Order
	_, err = s.mutateDay(ctx, op, func(day *domain.DaySession, batch *store.Batch) (bool, error) {
		customer, err := s.lookupCustomer(ctx, req.CustomerID)
		if err != nil {
			return false, err
		}
		order, ok := s.engine.AddOrderItem(day, settings, customer, req)
		if !ok {
			return false, nil
		}
		if customer != nil {
			batch.Customers = append(batch.Customers, register.AdjustSpend(*customer, order.TotalCents))
		}
		created = order
		return true, nil
	})
	if err != nil || created == nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	metrics.UnitsSold.Add(float64(created.Units()))
	s.log(ctx).Info("order created",
		zap.String("order_id", created.ID),
		zap.String("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity),
		zap.Int64("total_cents", created.TotalCents),
	)
	return created, nil
}

func (s *Service) lookupCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	if id == "" {
		return nil, nil
	}
	customer, err := s.repo.GetCustomer(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.log(ctx).Debug("unknown customer, recording counter sale", zap.String("customer_id", id))
		return nil, nil
	}
	return customer, err
}

func (s *Service) StartPreparation(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, "start_preparation", orderID, s.engine.StartPreparation)
}

func (s *Service) DeliverOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, "deliver_order", orderID, s.engine.DeliverOrder)
}

func (s *Service) transition(ctx context.Context, op string, orderID string, step func(*domain.DaySession, string) (*domain.Order, bool)) (*domain.Order, error) {
	var updated *domain.Order
	_, err := s.mutateDay(ctx, op, func(day *domain.DaySession, _ *store.Batch) (bool, error) {
		order, ok := step(day, orderID)
		updated = order
		return ok, nil
	})
	if err != nil || updated == nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(string(updated.Status)).Inc()
	s.log(ctx).Info("order status changed", zap.String("order_id", orderID), zap.String("status", string(updated.Status)))
	return updated, nil
}

// PreviewCancellation is read-only; nil means the order cannot be cancelled.
func (s *Service) PreviewCancellation(ctx context.Context, orderID string) (*domain.RefundPreview, error) {
	day, err := s.loadDay(ctx)
	if err != nil {
		return nil, s.fail(ctx, "preview_cancellation", err)
	}
	preview, ok := s.engine.PreviewCancellation(day, orderID)
	if !ok {
		return nil, nil
	}
	return &preview, nil
}

func (s *Service) CancelAwaitingOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	const op = "cancel_order"

	var removed *domain.Order
	_, err := s.mutateDay(ctx, op, func(day *domain.DaySession, batch *store.Batch) (bool, error) {
		order, ok := s.engine.CancelAwaitingOrder(day, orderID)
		if !ok {
			return false, nil
		}
		customer, err := s.lookupCustomer(ctx, order.CustomerID)
		if err != nil {
			return false, err
		}
		if customer != nil {
			batch.Customers = append(batch.Customers, register.AdjustSpend(*customer, -order.TotalCents))
		}
		removed = order
		return true, nil
	})
	if err != nil || removed == nil {
		return nil, err
	}

	metrics.OrdersCancelled.Inc()
	s.log(ctx).Info("order cancelled", zap.String("order_id", orderID), zap.Int64("refund_cents", removed.TotalCents))
	return removed, nil
}

func (s *Service) AddStock(ctx context.Context, productID string, qty int) (*domain.StockEntry, error) {
	var entry *domain.StockEntry
	_, err := s.mutateDay(ctx, "add_stock", func(day *domain.DaySession, _ *store.Batch) (bool, error) {
		updated, ok := s.engine.AddStock(day, productID, qty)
		if ok {
			entry = &updated
		}
		return ok, nil
	})
	if err != nil || entry == nil {
		return nil, err
	}
	s.log(ctx).Info("stock added", zap.String("product_id", productID), zap.Int("quantity", qty), zap.Int("available", entry.Available))
	return entry, nil
}

// LowStock lists products at or below threshold. A negative threshold uses
// the configured default.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]domain.StockAlert, error) {
	if threshold < 0 {
		threshold = s.lowStock
	}
	day, err := s.loadDay(ctx)
	if err != nil {
		return nil, s.fail(ctx, "low_stock", err)
	}
	alerts := register.LowStock(day, threshold)
	metrics.LowStockProducts.Set(float64(len(alerts)))
	return alerts, nil
}

func (s *Service) PendingSettlements(ctx context.Context) ([]domain.SettlementGroup, error) {
	day, err := s.loadDay(ctx)
	if err != nil {
		return nil, s.fail(ctx, "pending_settlements", err)
	}
	return register.PendingSettlements(day), nil
}

// SettlePayment pays the delivered orders among orderIDs. Orders in any
// other status are left alone; a nil result means none qualified.
func (s *Service) SettlePayment(ctx context.Context, req domain.SettlePaymentRequest) (*domain.Payment, error) {
	if !req.Method.Valid() {
		return nil, invalid("unknown payment method %q", req.Method)
	}

	var payment *domain.Payment
	_, err := s.mutateDay(ctx, "settle_payment", func(day *domain.DaySession, _ *store.Batch) (bool, error) {
		p, ok := s.engine.Settle(day, req.OrderIDs, req.Method)
		payment = p
		return ok, nil
	})
	if err != nil || payment == nil {
		return nil, err
	}

	method := string(payment.Method)
	metrics.Payments.WithLabelValues(method).Inc()
	metrics.PaymentAmountCents.WithLabelValues(method).Add(float64(payment.TotalCents))
	for range payment.OrderIDs {
		metrics.OrderTransitions.WithLabelValues(string(domain.OrderPaid)).Inc()
	}
	s.log(ctx).Info("payment settled",
		zap.String("payment_id", payment.ID),
		zap.String("method", method),
		zap.Strings("order_ids", payment.OrderIDs),
		zap.Int64("total_cents", payment.TotalCents),
	)
	return payment, nil
}

// CloseDay archives a fully paid day as a historical summary and clears the
// session in the same commit. Unpaid orders yield *UnpaidOrdersError.
func (s *Service) CloseDay(ctx context.Context) (*domain.HistoricalSummary, error) {
	const op = "close_day"

	s.mu.Lock()
	defer s.mu.Unlock()

	day, err := s.loadDay(ctx)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if !day.Started {
		s.notApplied(ctx, op)
		return nil, nil
	}
	if unpaid := register.UnpaidOrders(day); len(unpaid) > 0 {
		s.log(ctx).Info("close refused, orders unpaid", zap.Int("unpaid", len(unpaid)))
		return nil, &UnpaidOrdersError{Orders: unpaid}
	}

	directory, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	summary := s.engine.Summarize(day, directory)
	if err := s.repo.Apply(ctx, store.Batch{ClearDay: true, Summary: &summary}); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	s.invalidateSummaries(ctx)

	metrics.DaysClosed.Inc()
	s.log(ctx).Info("day closed",
		zap.String("summary_id", summary.ID),
		zap.Int64("revenue_cents", summary.TotalRevenueCents),
		zap.Int64("closing_balance_cents", summary.ClosingBalanceCents),
	)
	return &summary, nil
}
