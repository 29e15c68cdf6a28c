package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
)

func TestNewStripeProviderRequiresKey(t *testing.T) {
	_, err := NewStripeProvider(StripeConfig{})
	assert.Error(t, err)

	provider, err := NewStripeProvider(StripeConfig{SecretKey: "sk_test_123"})
	require.NoError(t, err)
	assert.NotNil(t, provider)
}

func TestFromStripeSubscription(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, fromStripeSubscription(nil))
	})

	t.Run("full subscription", func(t *testing.T) {
		got := fromStripeSubscription(&stripe.Subscription{
			ID:     "sub_123",
			Status: stripe.SubscriptionStatusActive,
			Items: &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{
					{
						CurrentPeriodStart: 1735689600,
						CurrentPeriodEnd:   1738368000,
						Price: &stripe.Price{
							ID:      "price_123",
							Product: &stripe.Product{ID: "prod_123"},
						},
					},
				},
			},
		})

		require.NotNil(t, got)
		assert.Equal(t, "sub_123", got.ID)
		assert.Equal(t, "active", got.Status)
		assert.Equal(t, "prod_123", got.ProductID)
		assert.Equal(t, int64(1735689600), got.CurrentPeriodStart)
		assert.Equal(t, int64(1738368000), got.CurrentPeriodEnd)
	})

	t.Run("no items", func(t *testing.T) {
		got := fromStripeSubscription(&stripe.Subscription{
			ID:     "sub_123",
			Status: stripe.SubscriptionStatusCanceled,
		})

		require.NotNil(t, got)
		assert.Equal(t, "canceled", got.Status)
		assert.Empty(t, got.ProductID)
		assert.Zero(t, got.CurrentPeriodStart)
		assert.Zero(t, got.CurrentPeriodEnd)
	})
}
