package store

import (
	"context"
	"errors"
	"fmt"

	"brasa/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrPersistence  = errors.New("persistence failure")
)

// PersistenceError reports a failed read or write against a backing store.
// It matches ErrPersistence under errors.Is.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Wrap tags err as a persistence failure of op. Sentinel errors of this
// package and errors that are already tagged pass through unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// Batch is a set of writes that commit together or not at all.
type Batch struct {
	Day       *domain.DaySession
	ClearDay  bool
	Customers []domain.Customer
	Summary   *domain.HistoricalSummary
}

func (b Batch) Empty() bool {
	return b.Day == nil && !b.ClearDay && len(b.Customers) == 0 && b.Summary == nil
}

type Repository interface {
	// GetDay returns ErrNotFound when no day session has been stored.
	GetDay(ctx context.Context) (domain.DaySession, error)
	ReplaceDay(ctx context.Context, day domain.DaySession) error
	ClearDay(ctx context.Context) error

	// ListProducts returns the catalog in insertion order.
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	UpsertProduct(ctx context.Context, product domain.Product) error
	PatchProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ReplaceProducts(ctx context.Context, products []domain.Product) error

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	UpsertCustomer(ctx context.Context, customer domain.Customer) error
	PatchCustomer(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	ReplaceCustomers(ctx context.Context, customers []domain.Customer) error

	// ListSummaries returns summaries newest operation date first.
	ListSummaries(ctx context.Context) ([]domain.HistoricalSummary, error)
	GetSummary(ctx context.Context, id string) (*domain.HistoricalSummary, error)
	UpsertSummary(ctx context.Context, summary domain.HistoricalSummary) error
	DeleteSummary(ctx context.Context, id string) error
	ClearSummaries(ctx context.Context) error

	// GetSettings seeds and returns the defaults on first access.
	GetSettings(ctx context.Context) (domain.Settings, error)
	ReplaceSettings(ctx context.Context, settings domain.Settings) error

	Apply(ctx context.Context, batch Batch) error
	// ClearEverything wipes every collection and re-seeds default settings.
	ClearEverything(ctx context.Context) error
}
