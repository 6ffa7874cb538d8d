package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brasa/backend/internal/store"
	"brasa/backend/internal/store/storetest"
)

func TestRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository { return New() })
}

func TestSeededCatalog(t *testing.T) {
	s := NewSeeded()
	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, products)
	assert.Equal(t, "espeto-carne", products[0].ID)
}

func TestReturnedDayIsACopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.ReplaceDay(ctx, storetest.SampleDay()))

	day, err := s.GetDay(ctx)
	require.NoError(t, err)
	day.Orders[0].Items[0].Quantity = 99

	again, err := s.GetDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Orders[0].Items[0].Quantity)
}
