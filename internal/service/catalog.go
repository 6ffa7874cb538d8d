package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"brasa/backend/internal/domain"
	"brasa/backend/internal/register"
	"brasa/backend/internal/store"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list_products", err)
	}
	return products, nil
}

func (s *Service) CreateProduct(ctx context.Context, draft domain.ProductDraft) (domain.Product, error) {
	product := domain.Product{
		ID:                s.newID(""),
		Name:              strings.TrimSpace(draft.Name),
		PriceCents:        draft.PriceCents,
		Note:              strings.TrimSpace(draft.Note),
		DefaultInitialQty: draft.DefaultInitialQty,
	}
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.UpsertProduct(ctx, product); err != nil {
		return domain.Product{}, s.fail(ctx, "create_product", err)
	}
	s.log(ctx).Info("product created", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return product, nil
}

// EditProduct applies a partial update. An unknown id is not an error: the
// result is nil.
func (s *Service) EditProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.Note != nil {
		note := strings.TrimSpace(*patch.Note)
		patch.Note = &note
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.GetProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.notApplied(ctx, "edit_product", zap.String("product_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(ctx, "edit_product", err)
	}
	preview := *existing
	patch.Apply(&preview)
	if err := validateProduct(preview); err != nil {
		return nil, err
	}

	updated, err := s.repo.PatchProduct(ctx, id, patch)
	if err != nil {
		return nil, s.fail(ctx, "edit_product", err)
	}
	return updated, nil
}

// RemoveProduct deletes a catalog entry. The open day keeps its own stock
// snapshot. Returns false when the id is unknown.
func (s *Service) RemoveProduct(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.repo.DeleteProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.notApplied(ctx, "remove_product", zap.String("product_id", id))
		return false, nil
	}
	if err != nil {
		return false, s.fail(ctx, "remove_product", err)
	}
	return true, nil
}

// ImportCatalog replaces the whole catalog. Products without an id get one.
func (s *Service) ImportCatalog(ctx context.Context, products []domain.Product) ([]domain.Product, error) {
	seen := make(map[string]struct{}, len(products))
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		p.Name = strings.TrimSpace(p.Name)
		p.Note = strings.TrimSpace(p.Note)
		if p.ID == "" {
			p.ID = s.newID("")
		}
		if _, dup := seen[p.ID]; dup {
			return nil, invalid("duplicate product id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		if err := validateProduct(p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ReplaceProducts(ctx, out); err != nil {
		return nil, s.fail(ctx, "import_catalog", err)
	}
	s.log(ctx).Info("catalog imported", zap.Int("products", len(out)))
	return out, nil
}

func validateProduct(p domain.Product) error {
	if p.Name == "" {
		return invalid("product name is required")
	}
	if p.PriceCents < 0 {
		return invalid("product price cannot be negative")
	}
	if p.PriceCents > domain.MaxPriceCents {
		return invalid("product price above %d cents", domain.MaxPriceCents)
	}
	if p.DefaultInitialQty != nil && *p.DefaultInitialQty < 0 {
		return invalid("default initial quantity cannot be negative")
	}
	if p.DefaultInitialQty != nil && *p.DefaultInitialQty > domain.MaxQuantity {
		return invalid("default initial quantity above %d", domain.MaxQuantity)
	}
	return nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list_customers", err)
	}
	return customers, nil
}

func (s *Service) AddCustomer(ctx context.Context, draft domain.CustomerDraft) (domain.Customer, error) {
	customer := domain.Customer{
		ID:           s.newID(""),
		Name:         strings.TrimSpace(draft.Name),
		Phone:        strings.TrimSpace(draft.Phone),
		RegisteredAt: s.now(),
	}
	if customer.Name == "" {
		return domain.Customer{}, invalid("customer name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.UpsertCustomer(ctx, customer); err != nil {
		return domain.Customer{}, s.fail(ctx, "add_customer", err)
	}
	return customer, nil
}

// EditCustomer applies a partial update. An unknown id yields a nil result.
func (s *Service) EditCustomer(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalid("customer name is required")
		}
		patch.Name = &name
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		patch.Phone = &phone
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.repo.PatchCustomer(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		s.notApplied(ctx, "edit_customer", zap.String("customer_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(ctx, "edit_customer", err)
	}
	return updated, nil
}

// CustomerSalesCount counts the open day's sale lines for a customer.
func (s *Service) CustomerSalesCount(ctx context.Context, id string) (int, error) {
	day, err := s.loadDay(ctx)
	if err != nil {
		return 0, s.fail(ctx, "customer_sales_count", err)
	}
	return register.CustomerSalesCount(day, id), nil
}

// RemoveCustomer deletes a customer unless the open day has sales for them.
// Returns false when the id is unknown.
func (s *Service) RemoveCustomer(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, err := s.loadDay(ctx)
	if err != nil {
		return false, s.fail(ctx, "remove_customer", err)
	}
	if n := register.CustomerSalesCount(day, id); n > 0 {
		return false, fmt.Errorf("%w (%d sale lines)", ErrCustomerHasSales, n)
	}

	err = s.repo.DeleteCustomer(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.notApplied(ctx, "remove_customer", zap.String("customer_id", id))
		return false, nil
	}
	if err != nil {
		return false, s.fail(ctx, "remove_customer", err)
	}
	return true, nil
}

func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return domain.Settings{}, s.fail(ctx, "get_settings", err)
	}
	return settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	settings.CompanyName = strings.TrimSpace(settings.CompanyName)
	settings.PixKey = strings.TrimSpace(settings.PixKey)
	settings.UpdatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ReplaceSettings(ctx, settings); err != nil {
		return domain.Settings{}, s.fail(ctx, "update_settings", err)
	}
	s.log(ctx).Info("settings updated",
		zap.Bool("allow_start_without_balance", settings.AllowStartWithoutBalance),
		zap.Bool("control_stock", settings.ControlStock),
	)
	return settings, nil
}
