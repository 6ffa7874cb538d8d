package register

import (
	"brasa/backend/internal/domain"
)

// UnpaidOrders lists every order that still blocks the day from closing.
func UnpaidOrders(day domain.DaySession) []domain.UnpaidOrder {
	unpaid := make([]domain.UnpaidOrder, 0)
	for _, order := range day.Orders {
		if order.Status == domain.OrderPaid {
			continue
		}
		unpaid = append(unpaid, domain.UnpaidOrder{
			OrderID:      order.ID,
			CustomerName: order.CustomerName,
			TotalCents:   order.TotalCents,
			Status:       order.Status,
		})
	}
	return unpaid
}

// Summarize aggregates a fully paid day into its historical summary. The
// directory supplies current customer names and phones; customers no longer
// in it fall back to the names captured on the sale lines.
func (e *Engine) Summarize(day domain.DaySession, directory []domain.Customer) domain.HistoricalSummary {
	summary := domain.HistoricalSummary{
		ID:                  e.newID(""),
		OpeningBalanceCents: day.OpeningBalanceCents,
		ClosingBalanceCents: day.CurrentBalanceCents,
		TotalSalesCount:     len(day.Sales),
		Products:            summarizeProducts(day),
		Customers:           summarizeCustomers(day, directory),
		Payments:            summarizePayments(day.Payments),
	}
	if day.OperationDate != nil {
		summary.OperationDate = *day.OperationDate
	} else {
		summary.OperationDate = e.now()
	}
	for _, sale := range day.Sales {
		summary.TotalUnitsSold += sale.Quantity
		summary.TotalRevenueCents += sale.LineTotalCents
	}
	return summary
}

func summarizeProducts(day domain.DaySession) []domain.ProductSummary {
	out := make([]domain.ProductSummary, 0, len(day.Stock))
	index := make(map[string]int, len(day.Stock))
	for _, entry := range day.Stock {
		index[entry.ProductID] = len(out)
		out = append(out, domain.ProductSummary{
			ProductID:  entry.ProductID,
			Name:       entry.Name,
			PriceCents: entry.PriceCents,
			Note:       entry.Note,
		})
	}
	for _, sale := range day.Sales {
		i, ok := index[sale.ProductID]
		if !ok {
			i = len(out)
			index[sale.ProductID] = i
			out = append(out, domain.ProductSummary{
				ProductID:  sale.ProductID,
				Name:       sale.ProductName,
				PriceCents: sale.UnitPriceCents,
				Note:       sale.ProductNote,
			})
		}
		out[i].UnitsSold += sale.Quantity
		out[i].RevenueCents += sale.LineTotalCents
	}

	sold := out[:0]
	for _, p := range out {
		if p.UnitsSold > 0 {
			sold = append(sold, p)
		}
	}
	return sold
}

func summarizeCustomers(day domain.DaySession, directory []domain.Customer) []domain.CustomerSummary {
	known := make(map[string]domain.Customer, len(directory)+len(day.Customers))
	for _, c := range day.Customers {
		known[c.ID] = c
	}
	for _, c := range directory {
		known[c.ID] = c
	}

	out := make([]domain.CustomerSummary, 0)
	index := make(map[string]int)
	for _, sale := range day.Sales {
		if sale.CustomerID == "" {
			continue
		}
		i, ok := index[sale.CustomerID]
		if !ok {
			i = len(out)
			index[sale.CustomerID] = i
			entry := domain.CustomerSummary{CustomerID: sale.CustomerID, Name: sale.CustomerName}
			if c, found := known[sale.CustomerID]; found {
				entry.Name = c.Name
				entry.Phone = c.Phone
			}
			out = append(out, entry)
		}
		out[i].SpentCents += sale.LineTotalCents
	}
	for _, order := range day.Orders {
		if i, ok := index[order.CustomerID]; ok && order.CustomerID != "" {
			out[i].OrdersCount++
		}
	}

	spent := out[:0]
	for _, c := range out {
		if c.SpentCents > 0 {
			spent = append(spent, c)
		}
	}
	return spent
}

func summarizePayments(payments []domain.Payment) []domain.PaymentMethodSummary {
	out := make([]domain.PaymentMethodSummary, 0)
	index := make(map[domain.PaymentMethod]int)
	for _, payment := range payments {
		i, ok := index[payment.Method]
		if !ok {
			i = len(out)
			index[payment.Method] = i
			out = append(out, domain.PaymentMethodSummary{Method: payment.Method})
		}
		out[i].Count++
		out[i].TotalCents += payment.TotalCents
	}
	return out
}
