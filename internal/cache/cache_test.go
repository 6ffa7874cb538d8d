package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brasa/backend/internal/domain"
)

func TestNoopSummaryCacheAlwaysMisses(t *testing.T) {
	var c SummaryCache = NoopSummaryCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []domain.HistoricalSummary{{ID: "s-1"}}, time.Minute))
	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.Invalidate(ctx))
}

func TestRedisSummaryCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("BRASA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set BRASA_TEST_REDIS_ADDR to run redis integration test")
	}

	ctx := context.Background()
	c := NewRedisSummaryCache(addr, os.Getenv("BRASA_TEST_REDIS_PASSWORD"), 0)
	c.key = fmt.Sprintf("brasa:test:summaries:%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_ = c.Invalidate(ctx)
		_ = c.Close()
	})
	require.NoError(t, c.Ping(ctx))

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	summaries := []domain.HistoricalSummary{{
		ID:                "s-1",
		OperationDate:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		TotalRevenueCents: 4200,
		Payments:          []domain.PaymentMethodSummary{{Method: domain.PaymentCash, Count: 1, TotalCents: 4200}},
	}}
	require.NoError(t, c.Set(ctx, summaries, time.Minute))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, summaries, got)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
