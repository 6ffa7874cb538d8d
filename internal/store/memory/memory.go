package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"brasa/backend/internal/domain"
	"brasa/backend/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	day          *domain.DaySession
	products     map[string]domain.Product
	productOrder []string
	customers    map[string]domain.Customer
	customerSeq  []string
	summaries    map[string]domain.HistoricalSummary
	settings     *domain.Settings
	now          func() time.Time
}

func New() *Store {
	return &Store{
		products:  make(map[string]domain.Product),
		customers: make(map[string]domain.Customer),
		summaries: make(map[string]domain.HistoricalSummary),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func intPtr(v int) *int { return &v }

// NewSeeded returns a store holding a small demo catalog for local runs.
func NewSeeded() *Store {
	s := New()
	for _, p := range []domain.Product{
		{ID: "espeto-carne", Name: "Espetinho de carne", PriceCents: 1000, DefaultInitialQty: intPtr(40)},
		{ID: "espeto-frango", Name: "Espetinho de frango", PriceCents: 900, DefaultInitialQty: intPtr(40)},
		{ID: "espeto-linguica", Name: "Espetinho de linguica", PriceCents: 900, DefaultInitialQty: intPtr(30)},
		{ID: "queijo-coalho", Name: "Queijo coalho", PriceCents: 800, Note: "com melado", DefaultInitialQty: intPtr(20)},
		{ID: "pao-alho", Name: "Pao de alho", PriceCents: 700, DefaultInitialQty: intPtr(25)},
		{ID: "refrigerante", Name: "Refrigerante lata", PriceCents: 600},
	} {
		s.putProduct(p)
	}
	return s
}

func (s *Store) GetDay(_ context.Context) (domain.DaySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.day == nil {
		return domain.DaySession{}, store.ErrNotFound
	}
	return s.day.Clone(), nil
}

func (s *Store) ReplaceDay(_ context.Context, day domain.DaySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := day.Clone()
	s.day = &cp
	return nil
}

func (s *Store) ClearDay(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.day = nil
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		products = append(products, s.products[id].Clone())
	}
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	cp := product.Clone()
	return &cp, nil
}

func (s *Store) UpsertProduct(_ context.Context, product domain.Product) error {
	if product.ID == "" {
		return store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putProduct(product)
	return nil
}

func (s *Store) PatchProduct(_ context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	patch.Apply(&product)
	s.products[id] = product.Clone()
	return &product, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	s.productOrder = slices.DeleteFunc(s.productOrder, func(v string) bool { return v == id })
	return nil
}

func (s *Store) ReplaceProducts(_ context.Context, products []domain.Product) error {
	for _, p := range products {
		if p.ID == "" {
			return store.ErrInvalidInput
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = make(map[string]domain.Product, len(products))
	s.productOrder = nil
	for _, p := range products {
		s.putProduct(p)
	}
	return nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customerSeq))
	for _, id := range s.customerSeq {
		customers = append(customers, s.customers[id])
	}
	return customers, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &customer, nil
}

func (s *Store) UpsertCustomer(_ context.Context, customer domain.Customer) error {
	if customer.ID == "" {
		return store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putCustomer(customer)
	return nil
}

func (s *Store) PatchCustomer(_ context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, exists := s.customers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	patch.Apply(&customer)
	s.customers[id] = customer
	return &customer, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.customers, id)
	s.customerSeq = slices.DeleteFunc(s.customerSeq, func(v string) bool { return v == id })
	return nil
}

func (s *Store) ReplaceCustomers(_ context.Context, customers []domain.Customer) error {
	for _, c := range customers {
		if c.ID == "" {
			return store.ErrInvalidInput
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customers = make(map[string]domain.Customer, len(customers))
	s.customerSeq = nil
	for _, c := range customers {
		s.putCustomer(c)
	}
	return nil
}

func (s *Store) ListSummaries(_ context.Context) ([]domain.HistoricalSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.HistoricalSummary, 0, len(s.summaries))
	for _, summary := range s.summaries {
		summaries = append(summaries, summary.Clone())
	}
	slices.SortFunc(summaries, func(a, b domain.HistoricalSummary) int {
		if c := b.OperationDate.Compare(a.OperationDate); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return summaries, nil
}

func (s *Store) GetSummary(_ context.Context, id string) (*domain.HistoricalSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, exists := s.summaries[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	cp := summary.Clone()
	return &cp, nil
}

func (s *Store) UpsertSummary(_ context.Context, summary domain.HistoricalSummary) error {
	if summary.ID == "" {
		return store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries[summary.ID] = summary.Clone()
	return nil
}

func (s *Store) DeleteSummary(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.summaries[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.summaries, id)
	return nil
}

func (s *Store) ClearSummaries(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries = make(map[string]domain.HistoricalSummary)
	return nil
}

func (s *Store) GetSettings(_ context.Context) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings == nil {
		defaults := domain.DefaultSettings(s.now())
		s.settings = &defaults
	}
	return *s.settings, nil
}

func (s *Store) ReplaceSettings(_ context.Context, settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = &settings
	return nil
}

// Apply validates the whole batch before touching any collection, so a
// rejected batch leaves the store as it was.
func (s *Store) Apply(_ context.Context, batch store.Batch) error {
	for _, c := range batch.Customers {
		if c.ID == "" {
			return store.ErrInvalidInput
		}
	}
	if batch.Summary != nil && batch.Summary.ID == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case batch.ClearDay:
		s.day = nil
	case batch.Day != nil:
		cp := batch.Day.Clone()
		s.day = &cp
	}
	for _, c := range batch.Customers {
		s.putCustomer(c)
	}
	if batch.Summary != nil {
		s.summaries[batch.Summary.ID] = batch.Summary.Clone()
	}
	return nil
}

func (s *Store) ClearEverything(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.day = nil
	s.products = make(map[string]domain.Product)
	s.productOrder = nil
	s.customers = make(map[string]domain.Customer)
	s.customerSeq = nil
	s.summaries = make(map[string]domain.HistoricalSummary)
	defaults := domain.DefaultSettings(s.now())
	s.settings = &defaults
	return nil
}

func (s *Store) putProduct(product domain.Product) {
	if _, exists := s.products[product.ID]; !exists {
		s.productOrder = append(s.productOrder, product.ID)
	}
	s.products[product.ID] = product.Clone()
}

func (s *Store) putCustomer(customer domain.Customer) {
	if _, exists := s.customers[customer.ID]; !exists {
		s.customerSeq = append(s.customerSeq, customer.ID)
	}
	s.customers[customer.ID] = customer
}

var _ store.Repository = (*Store)(nil)
