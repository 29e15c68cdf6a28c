package billing_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassanidea/Subscription-Status-Viewer/internal/billing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing mapping", func(t *testing.T) {
		store := billing.NewMemoryStore()

		_, err := store.Get(ctx, "user-1")
		assert.ErrorIs(t, err, billing.ErrMappingNotFound)
	})

	t.Run("create and get", func(t *testing.T) {
		store := billing.NewMemoryStore()

		require.NoError(t, store.Create(ctx, billing.CustomerMapping{
			UserID:           "user-1",
			StripeCustomerID: "cus_123",
			Email:            "user@example.com",
		}))

		mapping, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "cus_123", mapping.StripeCustomerID)
		assert.Equal(t, "user@example.com", mapping.Email)
		assert.False(t, mapping.CreatedAt.IsZero())
	})

	t.Run("duplicate create", func(t *testing.T) {
		store := billing.NewMemoryStore()

		require.NoError(t, store.Create(ctx, billing.CustomerMapping{UserID: "user-1", StripeCustomerID: "cus_1"}))
		err := store.Create(ctx, billing.CustomerMapping{UserID: "user-1", StripeCustomerID: "cus_2"})
		assert.ErrorIs(t, err, billing.ErrMappingExists)

		// First write wins.
		mapping, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "cus_1", mapping.StripeCustomerID)
	})

	t.Run("concurrent creates admit exactly one", func(t *testing.T) {
		store := billing.NewMemoryStore()

		var wg sync.WaitGroup
		var mu sync.Mutex
		created := 0

		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.Create(ctx, billing.CustomerMapping{UserID: "user-1", StripeCustomerID: "cus_x"})
				if err == nil {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, created)
	})
}
