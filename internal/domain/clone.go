package domain

import "time"

// Clone returns a deep copy of the session so a mutation can be computed
// without touching the committed state.
func (d DaySession) Clone() DaySession {
	out := d
	out.Stock = cloneSlice(d.Stock)
	out.Sales = cloneSlice(d.Sales)
	out.Customers = cloneSlice(d.Customers)
	out.OperationDate = cloneTime(d.OperationDate)

	out.Orders = cloneSlice(d.Orders)
	for i := range out.Orders {
		out.Orders[i] = out.Orders[i].Clone()
	}
	out.Payments = cloneSlice(d.Payments)
	for i := range out.Payments {
		out.Payments[i].OrderIDs = cloneSlice(out.Payments[i].OrderIDs)
	}
	return out
}

func (o Order) Clone() Order {
	out := o
	out.Items = cloneSlice(o.Items)
	out.PreparationStartedAt = cloneTime(o.PreparationStartedAt)
	out.DeliveredAt = cloneTime(o.DeliveredAt)
	out.PaidAt = cloneTime(o.PaidAt)
	return out
}

func (p Product) Clone() Product {
	out := p
	if p.DefaultInitialQty != nil {
		qty := *p.DefaultInitialQty
		out.DefaultInitialQty = &qty
	}
	return out
}

func (s HistoricalSummary) Clone() HistoricalSummary {
	out := s
	out.Products = cloneSlice(s.Products)
	out.Customers = cloneSlice(s.Customers)
	out.Payments = cloneSlice(s.Payments)
	return out
}

// cloneSlice keeps nil and empty slices apart.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
