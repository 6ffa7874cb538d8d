package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"brasa/backend/internal/store"
	"brasa/backend/internal/store/storetest"
)

func TestRepositoryContractLive(t *testing.T) {
	databaseURL := os.Getenv("BRASA_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set BRASA_TEST_DATABASE_URL to run postgres integration test")
	}

	storetest.Run(t, func(t *testing.T) store.Repository {
		ctx := context.Background()
		s, err := New(ctx, databaseURL)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = s.Close()
		})
		_, err = s.db.ExecContext(ctx, `TRUNCATE day_session, products, customers, summaries, settings`)
		require.NoError(t, err)
		return s
	})
}
