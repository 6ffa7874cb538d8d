package domain

type OrderStatus string

const (
	OrderAwaitingPreparation OrderStatus = "awaiting-preparation"
	OrderInPreparation       OrderStatus = "in-preparation"
	OrderDelivered           OrderStatus = "delivered"
	OrderPaid                OrderStatus = "paid"
)

// next holds the single forward edge out of each status. Paid is terminal.
var next = map[OrderStatus]OrderStatus{
	OrderAwaitingPreparation: OrderInPreparation,
	OrderInPreparation:       OrderDelivered,
	OrderDelivered:           OrderPaid,
}

// CanTransition reports whether an order may move from one status to another.
// Only single forward steps are legal.
func CanTransition(from OrderStatus, to OrderStatus) bool {
	n, ok := next[from]
	return ok && n == to
}

// Cancellable reports whether an order in this status may be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderAwaitingPreparation
}

func (s OrderStatus) Terminal() bool {
	return s == OrderPaid
}

func (s OrderStatus) Label() string {
	switch s {
	case OrderAwaitingPreparation:
		return "Awaiting preparation"
	case OrderInPreparation:
		return "In preparation"
	case OrderDelivered:
		return "Delivered"
	case OrderPaid:
		return "Paid"
	default:
		return string(s)
	}
}

type PaymentMethod string

const (
	PaymentCash            PaymentMethod = "cash"
	PaymentInstantTransfer PaymentMethod = "instant-transfer"
	PaymentDebitCard       PaymentMethod = "debit-card"
	PaymentCreditCard      PaymentMethod = "credit-card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentInstantTransfer, PaymentDebitCard, PaymentCreditCard:
		return true
	default:
		return false
	}
}

func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCash:
		return "Cash"
	case PaymentInstantTransfer:
		return "Instant transfer"
	case PaymentDebitCard:
		return "Debit card"
	case PaymentCreditCard:
		return "Credit card"
	default:
		return string(m)
	}
}
