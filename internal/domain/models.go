package domain

import "time"

// Upper bounds on money and unit counts accepted from the outside. They keep
// line totals and day balances far from int64 overflow.
const (
	MaxPriceCents int64 = 100_000_000
	MaxQuantity         = 100_000
)

type Product struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	PriceCents        int64  `json:"price_cents"`
	Note              string `json:"note,omitempty"`
	DefaultInitialQty *int   `json:"default_initial_qty,omitempty"`
}

// ProductDraft is the editable part of a product. Stock counters only exist
// inside a day session.
type ProductDraft struct {
	Name              string `json:"name" validate:"required,max=120"`
	PriceCents        int64  `json:"price_cents" validate:"gte=0,max=100000000"`
	Note              string `json:"note" validate:"max=280"`
	DefaultInitialQty *int   `json:"default_initial_qty,omitempty" validate:"omitempty,gte=0,max=100000"`
}

type ProductPatch struct {
	Name              *string `json:"name,omitempty"`
	PriceCents        *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0,max=100000000"`
	Note              *string `json:"note,omitempty"`
	DefaultInitialQty *int    `json:"default_initial_qty,omitempty" validate:"omitempty,gte=0,max=100000"`
}

func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.PriceCents != nil {
		product.PriceCents = *p.PriceCents
	}
	if p.Note != nil {
		product.Note = *p.Note
	}
	if p.DefaultInitialQty != nil {
		qty := *p.DefaultInitialQty
		product.DefaultInitialQty = &qty
	}
}

// StockEntry is the day-scoped inventory ledger of one product. Name, price
// and note are copied from the catalog when the day opens.
type StockEntry struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	PriceCents    int64  `json:"price_cents"`
	Note          string `json:"note,omitempty"`
	Available     int    `json:"available"`
	InPreparation int    `json:"in_preparation"`
	Finished      int    `json:"finished"`
}

type Customer struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Phone                string    `json:"phone,omitempty"`
	RegisteredAt         time.Time `json:"registered_at"`
	CumulativeSpendCents int64     `json:"cumulative_spend_cents"`
}

type CustomerDraft struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"max=32"`
}

type CustomerPatch struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

func (p CustomerPatch) Apply(customer *Customer) {
	if p.Name != nil {
		customer.Name = *p.Name
	}
	if p.Phone != nil {
		customer.Phone = *p.Phone
	}
}

type SaleLine struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"order_id"`
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	LineTotalCents int64     `json:"line_total_cents"`
	CreatedAt      time.Time `json:"created_at"`
	CustomerID     string    `json:"customer_id,omitempty"`
	CustomerName   string    `json:"customer_name,omitempty"`
	ProductNote    string    `json:"product_note,omitempty"`
}

type Order struct {
	ID                   string        `json:"id"`
	CustomerID           string        `json:"customer_id,omitempty"`
	CustomerName         string        `json:"customer_name,omitempty"`
	CustomerPhone        string        `json:"customer_phone,omitempty"`
	Note                 string        `json:"note,omitempty"`
	Items                []SaleLine    `json:"items"`
	TotalCents           int64         `json:"total_cents"`
	CreatedAt            time.Time     `json:"created_at"`
	Status               OrderStatus   `json:"status"`
	PreparationStartedAt *time.Time    `json:"preparation_started_at,omitempty"`
	DeliveredAt          *time.Time    `json:"delivered_at,omitempty"`
	PaidAt               *time.Time    `json:"paid_at,omitempty"`
	PaymentMethod        PaymentMethod `json:"payment_method,omitempty"`
}

// Units returns the number of items across all lines of the order.
func (o Order) Units() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

type Payment struct {
	ID           string        `json:"id"`
	CustomerID   string        `json:"customer_id,omitempty"`
	CustomerName string        `json:"customer_name,omitempty"`
	OrderIDs     []string      `json:"order_ids"`
	TotalCents   int64         `json:"total_cents"`
	CreatedAt    time.Time     `json:"created_at"`
	Method       PaymentMethod `json:"method"`
}

// DaySession is the single active-day aggregate. It is persisted as one
// record and replaced wholesale on every mutation.
type DaySession struct {
	OpeningBalanceCents int64        `json:"opening_balance_cents"`
	CurrentBalanceCents int64        `json:"current_balance_cents"`
	Stock               []StockEntry `json:"stock"`
	Orders              []Order      `json:"orders"`
	Sales               []SaleLine   `json:"sales"`
	Payments            []Payment    `json:"payments"`
	Customers           []Customer   `json:"customers"`
	Started             bool         `json:"started"`
	OperationDate       *time.Time   `json:"operation_date,omitempty"`
}

type ProductSummary struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	UnitsSold    int    `json:"units_sold"`
	RevenueCents int64  `json:"revenue_cents"`
	Note         string `json:"note,omitempty"`
}

type CustomerSummary struct {
	CustomerID  string `json:"customer_id"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	SpentCents  int64  `json:"spent_cents"`
	OrdersCount int    `json:"orders_count"`
}

type PaymentMethodSummary struct {
	Method     PaymentMethod `json:"method"`
	Count      int           `json:"count"`
	TotalCents int64         `json:"total_cents"`
}

// HistoricalSummary is written once when a day closes and never mutated.
type HistoricalSummary struct {
	ID                  string                 `json:"id"`
	OperationDate       time.Time              `json:"operation_date"`
	OpeningBalanceCents int64                  `json:"opening_balance_cents"`
	ClosingBalanceCents int64                  `json:"closing_balance_cents"`
	TotalUnitsSold      int                    `json:"total_units_sold"`
	TotalSalesCount     int                    `json:"total_sales_count"`
	TotalRevenueCents   int64                  `json:"total_revenue_cents"`
	Products            []ProductSummary       `json:"products"`
	Customers           []CustomerSummary      `json:"customers"`
	Payments            []PaymentMethodSummary `json:"payments"`
}

// AverageTicketCents is revenue divided by the number of sale lines.
func (s HistoricalSummary) AverageTicketCents() int64 {
	if s.TotalSalesCount == 0 {
		return 0
	}
	return s.TotalRevenueCents / int64(s.TotalSalesCount)
}

type Settings struct {
	AllowStartWithoutBalance bool      `json:"allow_start_without_balance"`
	ControlStock             bool      `json:"control_stock"`
	CompanyName              string    `json:"company_name"`
	PixKey                   string    `json:"pix_key"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// DefaultSettings is what a fresh or reset installation starts with.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		AllowStartWithoutBalance: false,
		ControlStock:             true,
		CompanyName:              "",
		PixKey:                   "",
		UpdatedAt:                now,
	}
}

type RefundLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// RefundPreview describes what cancelling an awaiting order would give back.
type RefundPreview struct {
	OrderID      string       `json:"order_id"`
	CustomerName string       `json:"customer_name,omitempty"`
	Lines        []RefundLine `json:"lines"`
	TotalUnits   int          `json:"total_units"`
	TotalCents   int64        `json:"total_cents"`
}

// SettlementGroup is a set of delivered orders that belong to the same
// customer (or to no customer at all).
type SettlementGroup struct {
	CustomerID   string  `json:"customer_id,omitempty"`
	CustomerName string  `json:"customer_name,omitempty"`
	Orders       []Order `json:"orders"`
	TotalUnits   int     `json:"total_units"`
	TotalCents   int64   `json:"total_cents"`
}

type StockAlert struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	Available     int    `json:"available"`
	InPreparation int    `json:"in_preparation"`
	Threshold     int    `json:"threshold"`
}

type UnpaidOrder struct {
	OrderID      string      `json:"order_id"`
	CustomerName string      `json:"customer_name,omitempty"`
	TotalCents   int64       `json:"total_cents"`
	Status       OrderStatus `json:"status"`
}

type OpenDayRequest struct {
	OpeningBalanceCents int64          `json:"opening_balance_cents" validate:"gte=0"`
	InitialQuantities   map[string]int `json:"initial_quantities,omitempty" validate:"omitempty,dive,gte=0,max=100000"`
}

type AddOrderItemRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gt=0,max=100000"`
	CustomerID string `json:"customer_id,omitempty"`
	Note       string `json:"note,omitempty" validate:"max=280"`
}

type AddStockRequest struct {
	Quantity int `json:"quantity" validate:"max=100000"`
}

type SettlePaymentRequest struct {
	OrderIDs []string      `json:"order_ids" validate:"required,min=1,dive,required"`
	Method   PaymentMethod `json:"method" validate:"required,payment_method"`
}

type LoginRequest struct {
	PIN string `json:"pin" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}
