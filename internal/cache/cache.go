package cache

import (
	"context"
	"time"

	"brasa/backend/internal/domain"
)

// SummariesKey holds the full summary history list.
const SummariesKey = "brasa:summaries:all"

type SummaryCache interface {
	Get(ctx context.Context) ([]domain.HistoricalSummary, bool, error)
	Set(ctx context.Context, summaries []domain.HistoricalSummary, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(_ context.Context) ([]domain.HistoricalSummary, bool, error) {
	return nil, false, nil
}

func (NoopSummaryCache) Set(_ context.Context, _ []domain.HistoricalSummary, _ time.Duration) error {
	return nil
}

func (NoopSummaryCache) Invalidate(_ context.Context) error {
	return nil
}
