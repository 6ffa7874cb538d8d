package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"brasa/backend/internal/cache"
	"brasa/backend/internal/domain"
	"brasa/backend/internal/logger"
	"brasa/backend/internal/metrics"
	"brasa/backend/internal/register"
	"brasa/backend/internal/store"
	"brasa/backend/internal/xid"
)

// ErrCustomerHasSales blocks removing a customer who bought something in the
// open day.
var ErrCustomerHasSales = errors.New("customer has sales in the open day")

// UnpaidOrdersError is returned by CloseDay while any order is not paid.
type UnpaidOrdersError struct {
	Orders []domain.UnpaidOrder
}

func (e *UnpaidOrdersError) Error() string {
	return fmt.Sprintf("cannot close the day: %d order(s) not paid", len(e.Orders))
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Service serializes every till operation. Each mutation loads the current
// records, computes the next state on a copy and commits it with one
// repository batch. A mutation whose preconditions fail returns a nil result
// and a nil error.
type Service struct {
	mu         sync.Mutex
	repo       store.Repository
	summaries  cache.SummaryCache
	logger     *zap.Logger
	engine     *register.Engine
	now        func() time.Time
	newID      func(prefix string) string
	summaryTTL time.Duration
	lowStock   int
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDs(newID func(prefix string) string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func WithSummaryCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.summaryTTL = ttl
		}
	}
}

// WithLowStockThreshold sets the level LowStock uses when called with a
// negative threshold.
func WithLowStockThreshold(threshold int) Option {
	return func(s *Service) {
		if threshold >= 0 {
			s.lowStock = threshold
		}
	}
}

func New(repo store.Repository, summaries cache.SummaryCache, log *zap.Logger, opts ...Option) *Service {
	if summaries == nil {
		summaries = cache.NoopSummaryCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		repo:       repo,
		summaries:  summaries,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      xid.New,
		summaryTTL: 5 * time.Minute,
		lowStock:   5,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = register.New(register.WithClock(s.now), register.WithIDs(s.newID))
	return s
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	l, ok := logger.Lookup(ctx)
	if !ok {
		l = s.logger
	}
	if actor, ok := ActorFromContext(ctx); ok {
		l = l.With(zap.String("actor", actor.Username))
	}
	return l
}

// fail tags err as a persistence failure of op unless it is one of the
// store's sentinel errors, and records it.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	err = store.Wrap(op, err)
	if errors.Is(err, store.ErrPersistence) {
		metrics.PersistenceFailures.WithLabelValues(op).Inc()
		s.log(ctx).Error("persistence failure", zap.String("operation", op), zap.Error(err))
	}
	return err
}

func (s *Service) notApplied(ctx context.Context, op string, fields ...zap.Field) {
	metrics.NotApplied.WithLabelValues(op).Inc()
	s.log(ctx).Debug("operation not applied", append(fields, zap.String("operation", op))...)
}

func (s *Service) loadDay(ctx context.Context) (domain.DaySession, error) {
	day, err := s.repo.GetDay(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return register.EmptyDay(), nil
	}
	if err != nil {
		return domain.DaySession{}, err
	}
	return day, nil
}

// mutateDay runs fn against a copy of the current day while holding the
// service lock. When fn reports true, the copy and any extra writes fn put
// into the batch are committed together.
func (s *Service) mutateDay(ctx context.Context, op string, fn func(day *domain.DaySession, batch *store.Batch) (bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadDay(ctx)
	if err != nil {
		return false, s.fail(ctx, op, err)
	}
	work := current.Clone()
	batch := store.Batch{Day: &work}

	applied, err := fn(&work, &batch)
	if err != nil {
		return false, s.fail(ctx, op, err)
	}
	if !applied {
		s.notApplied(ctx, op)
		return false, nil
	}
	if err := s.repo.Apply(ctx, batch); err != nil {
		return false, s.fail(ctx, op, err)
	}
	return true, nil
}

func (s *Service) invalidateSummaries(ctx context.Context) {
	if err := s.summaries.Invalidate(ctx); err != nil {
		s.log(ctx).Warn("summary cache invalidate failed", zap.Error(err))
	}
}

// ClearEverything wipes the day, catalog, customers and history and restores
// default settings.
func (s *Service) ClearEverything(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ClearEverything(ctx); err != nil {
		return s.fail(ctx, "clear_everything", err)
	}
	s.invalidateSummaries(ctx)
	s.log(ctx).Warn("all records cleared")
	return nil
}
