package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"brasa/backend/internal/domain"
	"brasa/backend/internal/store"
)

// ListSummaries returns the closed days, newest first. The list is served
// from the summary cache when it holds one.
func (s *Service) ListSummaries(ctx context.Context) ([]domain.HistoricalSummary, error) {
	cached, ok, err := s.summaries.Get(ctx)
	if err != nil {
		s.log(ctx).Warn("summary cache read failed", zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	summaries, err := s.repo.ListSummaries(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list_summaries", err)
	}
	if err := s.summaries.Set(ctx, summaries, s.summaryTTL); err != nil {
		s.log(ctx).Warn("summary cache write failed", zap.Error(err))
	}
	return summaries, nil
}

func (s *Service) GetSummary(ctx context.Context, id string) (domain.HistoricalSummary, error) {
	summary, err := s.repo.GetSummary(ctx, id)
	if err != nil {
		return domain.HistoricalSummary{}, s.fail(ctx, "get_summary", err)
	}
	return *summary, nil
}

// DeleteSummary returns false when no summary has that id.
func (s *Service) DeleteSummary(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.repo.DeleteSummary(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.notApplied(ctx, "delete_summary", zap.String("summary_id", id))
		return false, nil
	}
	if err != nil {
		return false, s.fail(ctx, "delete_summary", err)
	}
	s.invalidateSummaries(ctx)
	return true, nil
}

func (s *Service) ClearSummaries(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ClearSummaries(ctx); err != nil {
		return s.fail(ctx, "clear_summaries", err)
	}
	s.invalidateSummaries(ctx)
	s.log(ctx).Info("summary history cleared")
	return nil
}
