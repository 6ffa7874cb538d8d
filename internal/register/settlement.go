package register

import (
	"brasa/backend/internal/domain"
)

// Settle pays a batch of delivered orders. Ids of orders in any other status
// are dropped from the batch. The payment takes the customer of the first
// settled order; callers batch one customer at a time.
func (e *Engine) Settle(day *domain.DaySession, orderIDs []string, method domain.PaymentMethod) (*domain.Payment, bool) {
	if !method.Valid() {
		return nil, false
	}

	requested := make(map[string]struct{}, len(orderIDs))
	for _, id := range orderIDs {
		requested[id] = struct{}{}
	}

	settled := make([]int, 0, len(orderIDs))
	for i := range day.Orders {
		if _, ok := requested[day.Orders[i].ID]; !ok {
			continue
		}
		if day.Orders[i].Status != domain.OrderDelivered {
			continue
		}
		settled = append(settled, i)
	}
	if len(settled) == 0 {
		return nil, false
	}

	now := e.now()
	first := day.Orders[settled[0]]
	payment := domain.Payment{
		ID:           e.newID(""),
		CustomerID:   first.CustomerID,
		CustomerName: first.CustomerName,
		OrderIDs:     make([]string, 0, len(settled)),
		CreatedAt:    now,
		Method:       method,
	}
	for _, i := range settled {
		order := &day.Orders[i]
		payment.TotalCents += order.TotalCents
		payment.OrderIDs = append(payment.OrderIDs, order.ID)

		paidAt := now
		order.Status = domain.OrderPaid
		order.PaidAt = &paidAt
		order.PaymentMethod = method
	}
	day.Payments = append(day.Payments, payment)

	out := payment
	out.OrderIDs = append([]string(nil), payment.OrderIDs...)
	return &out, true
}

// PendingSettlements groups delivered orders by customer, in the order each
// customer first appears. Orders without a customer share one group.
func PendingSettlements(day domain.DaySession) []domain.SettlementGroup {
	groups := make([]domain.SettlementGroup, 0)
	index := make(map[string]int)
	for _, order := range day.Orders {
		if order.Status != domain.OrderDelivered {
			continue
		}
		i, ok := index[order.CustomerID]
		if !ok {
			i = len(groups)
			index[order.CustomerID] = i
			groups = append(groups, domain.SettlementGroup{
				CustomerID:   order.CustomerID,
				CustomerName: order.CustomerName,
			})
		}
		groups[i].Orders = append(groups[i].Orders, order.Clone())
		groups[i].TotalUnits += order.Units()
		groups[i].TotalCents += order.TotalCents
	}
	return groups
}
