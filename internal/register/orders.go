package register

import (
	"math"
	"strings"

	"brasa/backend/internal/domain"
)

// AddOrderItem opens a new order holding a single sale line. The customer is
// the directory record the caller resolved for req.CustomerID, or nil.
func (e *Engine) AddOrderItem(day *domain.DaySession, settings domain.Settings, customer *domain.Customer, req domain.AddOrderItemRequest) (*domain.Order, bool) {
	if !day.Started || req.Quantity < 1 {
		return nil, false
	}
	idx := findStock(day, req.ProductID)
	if idx < 0 {
		return nil, false
	}
	entry := &day.Stock[idx]
	if settings.ControlStock && req.Quantity > entry.Available {
		return nil, false
	}
	if entry.PriceCents > 0 && int64(req.Quantity) > math.MaxInt64/entry.PriceCents {
		return nil, false
	}
	lineTotal := entry.PriceCents * int64(req.Quantity)
	if day.CurrentBalanceCents > math.MaxInt64-lineTotal {
		return nil, false
	}

	now := e.now()
	orderID := e.newID("")

	line := domain.SaleLine{
		ID:             e.newID("sale"),
		OrderID:        orderID,
		ProductID:      entry.ProductID,
		ProductName:    entry.Name,
		UnitPriceCents: entry.PriceCents,
		Quantity:       req.Quantity,
		LineTotalCents: lineTotal,
		CreatedAt:      now,
		ProductNote:    entry.Note,
	}
	order := domain.Order{
		ID:         orderID,
		Note:       strings.TrimSpace(req.Note),
		TotalCents: lineTotal,
		CreatedAt:  now,
		Status:     domain.OrderAwaitingPreparation,
	}
	if customer != nil {
		line.CustomerID = customer.ID
		line.CustomerName = customer.Name
		order.CustomerID = customer.ID
		order.CustomerName = customer.Name
		order.CustomerPhone = customer.Phone
	}
	order.Items = []domain.SaleLine{line}

	if settings.ControlStock {
		entry.Available -= req.Quantity
	}
	day.Sales = append(day.Sales, line)
	day.Orders = append(day.Orders, order)
	day.CurrentBalanceCents += lineTotal

	created := order.Clone()
	return &created, true
}

// StartPreparation moves an awaiting order into preparation. Stock was
// already debited when the order was created.
func (e *Engine) StartPreparation(day *domain.DaySession, orderID string) (*domain.Order, bool) {
	idx := findOrder(day, orderID)
	if idx < 0 || !domain.CanTransition(day.Orders[idx].Status, domain.OrderInPreparation) {
		return nil, false
	}

	now := e.now()
	order := &day.Orders[idx]
	order.Status = domain.OrderInPreparation
	order.PreparationStartedAt = &now

	updated := order.Clone()
	return &updated, true
}

// DeliverOrder hands an order over. For each product of the order the
// quantity moves from InPreparation to Finished. Nothing ever adds to
// InPreparation, so every delivery drives it further below zero; it is
// reported as stored.
func (e *Engine) DeliverOrder(day *domain.DaySession, orderID string) (*domain.Order, bool) {
	idx := findOrder(day, orderID)
	if idx < 0 || !domain.CanTransition(day.Orders[idx].Status, domain.OrderDelivered) {
		return nil, false
	}

	now := e.now()
	order := &day.Orders[idx]
	order.Status = domain.OrderDelivered
	order.DeliveredAt = &now

	for productID, qty := range quantitiesByProduct(order.Items) {
		if s := findStock(day, productID); s >= 0 {
			day.Stock[s].InPreparation -= qty
			day.Stock[s].Finished += qty
		}
	}

	updated := order.Clone()
	return &updated, true
}

// PreviewCancellation is the dry run of CancelAwaitingOrder.
func (e *Engine) PreviewCancellation(day domain.DaySession, orderID string) (domain.RefundPreview, bool) {
	idx := findOrder(&day, orderID)
	if idx < 0 || !day.Orders[idx].Status.Cancellable() {
		return domain.RefundPreview{}, false
	}
	order := day.Orders[idx]

	preview := domain.RefundPreview{
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		TotalUnits:   order.Units(),
		TotalCents:   order.TotalCents,
	}
	seen := make(map[string]int)
	for _, item := range order.Items {
		if i, ok := seen[item.ProductID]; ok {
			preview.Lines[i].Quantity += item.Quantity
			continue
		}
		seen[item.ProductID] = len(preview.Lines)
		preview.Lines = append(preview.Lines, domain.RefundLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		})
	}
	return preview, true
}

// CancelAwaitingOrder removes an order that has not entered preparation,
// gives its stock back and takes its total out of the balance. The returned
// order is the removed one; the caller adjusts the customer's spend.
func (e *Engine) CancelAwaitingOrder(day *domain.DaySession, orderID string) (*domain.Order, bool) {
	preview, ok := e.PreviewCancellation(*day, orderID)
	if !ok {
		return nil, false
	}
	idx := findOrder(day, orderID)
	removed := day.Orders[idx].Clone()

	for _, line := range preview.Lines {
		if s := findStock(day, line.ProductID); s >= 0 {
			day.Stock[s].Available += line.Quantity
		}
	}

	sales := day.Sales[:0:0]
	for _, sale := range day.Sales {
		if sale.OrderID != orderID {
			sales = append(sales, sale)
		}
	}
	day.Sales = sales
	day.Orders = append(day.Orders[:idx:idx], day.Orders[idx+1:]...)
	day.CurrentBalanceCents = clampZero(day.CurrentBalanceCents - removed.TotalCents)

	return &removed, true
}

func quantitiesByProduct(items []domain.SaleLine) map[string]int {
	out := make(map[string]int, len(items))
	for _, item := range items {
		out[item.ProductID] += item.Quantity
	}
	return out
}
