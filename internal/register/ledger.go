package register

import (
	"math"
	"sort"

	"brasa/backend/internal/domain"
)

// AddStock tops up a product's available count mid-day.
func (e *Engine) AddStock(day *domain.DaySession, productID string, qty int) (domain.StockEntry, bool) {
	if !day.Started || qty < 1 {
		return domain.StockEntry{}, false
	}
	idx := findStock(day, productID)
	if idx < 0 || day.Stock[idx].Available > math.MaxInt-qty {
		return domain.StockEntry{}, false
	}
	day.Stock[idx].Available += qty
	return day.Stock[idx], true
}

// LowStock lists products whose available count is at or below threshold,
// emptiest first.
func LowStock(day domain.DaySession, threshold int) []domain.StockAlert {
	alerts := make([]domain.StockAlert, 0)
	for _, entry := range day.Stock {
		if entry.Available > threshold {
			continue
		}
		alerts = append(alerts, domain.StockAlert{
			ProductID:     entry.ProductID,
			Name:          entry.Name,
			Available:     entry.Available,
			InPreparation: entry.InPreparation,
			Threshold:     threshold,
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Available < alerts[j].Available
	})
	return alerts
}

// CustomerSalesCount counts the day's sale lines that belong to a customer.
// A customer with recorded sales must not be removed from the directory.
func CustomerSalesCount(day domain.DaySession, customerID string) int {
	if customerID == "" {
		return 0
	}
	count := 0
	for _, sale := range day.Sales {
		if sale.CustomerID == customerID {
			count++
		}
	}
	return count
}
