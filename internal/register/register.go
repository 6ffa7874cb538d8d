// Package register holds the till's state machine: day opening, the order
// lifecycle, the day's inventory ledger, payment settlement and day closing.
//
// Every operation works on a *domain.DaySession in memory and never performs
// IO. Operations whose preconditions do not hold leave the session untouched
// and report ok=false; callers persist the session only when ok is true.
package register

import (
	"time"

	"brasa/backend/internal/domain"
	"brasa/backend/internal/xid"
)

type Engine struct {
	now   func() time.Time
	newID func(prefix string) string
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithIDs(newID func(prefix string) string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		now:   func() time.Time { return time.Now().UTC() },
		newID: xid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OpenDay builds a fresh session from the catalog. It requires a positive
// opening balance unless the settings allow starting without one, and at
// least one product.
func (e *Engine) OpenDay(settings domain.Settings, catalog []domain.Product, customers []domain.Customer, openingBalanceCents int64, overrides map[string]int) (domain.DaySession, bool) {
	if openingBalanceCents < 0 {
		return domain.DaySession{}, false
	}
	if openingBalanceCents == 0 && !settings.AllowStartWithoutBalance {
		return domain.DaySession{}, false
	}
	if len(catalog) == 0 {
		return domain.DaySession{}, false
	}

	stock := make([]domain.StockEntry, 0, len(catalog))
	for _, product := range catalog {
		available := 0
		if product.DefaultInitialQty != nil {
			available = *product.DefaultInitialQty
		}
		if qty, ok := overrides[product.ID]; ok {
			available = qty
		}
		if available < 0 {
			available = 0
		}
		stock = append(stock, domain.StockEntry{
			ProductID:  product.ID,
			Name:       product.Name,
			PriceCents: product.PriceCents,
			Note:       product.Note,
			Available:  available,
		})
	}

	now := e.now()
	return domain.DaySession{
		OpeningBalanceCents: openingBalanceCents,
		CurrentBalanceCents: openingBalanceCents,
		Stock:               stock,
		Orders:              []domain.Order{},
		Sales:               []domain.SaleLine{},
		Payments:            []domain.Payment{},
		Customers:           append([]domain.Customer{}, customers...),
		Started:             true,
		OperationDate:       &now,
	}, true
}

// EmptyDay is the not-started session a closed or reset till goes back to.
func EmptyDay() domain.DaySession {
	return domain.DaySession{
		Stock:     []domain.StockEntry{},
		Orders:    []domain.Order{},
		Sales:     []domain.SaleLine{},
		Payments:  []domain.Payment{},
		Customers: []domain.Customer{},
	}
}

// AdjustSpend moves a customer's cumulative spend by delta, never below zero.
func AdjustSpend(customer domain.Customer, deltaCents int64) domain.Customer {
	customer.CumulativeSpendCents = clampZero(customer.CumulativeSpendCents + deltaCents)
	return customer
}

// ExpectedBalanceCents recomputes the balance from the opening float and the
// sale lines still in the session.
func ExpectedBalanceCents(day domain.DaySession) int64 {
	total := day.OpeningBalanceCents
	for _, sale := range day.Sales {
		total += sale.LineTotalCents
	}
	return total
}

func findOrder(day *domain.DaySession, orderID string) int {
	for i := range day.Orders {
		if day.Orders[i].ID == orderID {
			return i
		}
	}
	return -1
}

func findStock(day *domain.DaySession, productID string) int {
	for i := range day.Stock {
		if day.Stock[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func clampZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
