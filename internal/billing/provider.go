package billing

import (
	"context"
	"time"
)

// BillingProvider defines the minimal interface for payment provider
// integrations. The abstraction keeps the service provider-agnostic: Stripe
// is the only implementation today, but nothing above this interface knows
// that. Implementations should use official provider SDKs and handle
// provider quirks internally.
type BillingProvider interface {
	// CreateCustomer creates a billing customer tagged with the user ID so
	// webhooks and dashboard lookups can be traced back to the user.
	CreateCustomer(ctx context.Context, userID, email string) (*ProviderCustomer, error)

	// LatestSubscription returns the most recent subscription for the
	// customer regardless of its status, or nil when the customer has none.
	LatestSubscription(ctx context.Context, customerID string) (*ProviderSubscription, error)

	// GetProductName resolves a provider product ID to its display name.
	GetProductName(ctx context.Context, productID string) (string, error)

	// CreatePortalSession returns a pre-authenticated customer portal link
	// where users manage payment methods and cancel or change plans.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalLink, error)

	// CreateCheckoutSession creates a hosted checkout session for a new
	// subscription.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)
}

// ProviderCustomer is a billing customer record as created by the provider.
type ProviderCustomer struct {
	ID    string
	Email string
}

// ProviderSubscription is the raw subscription data the service normalizes.
// Period boundaries are provider epoch seconds.
type ProviderSubscription struct {
	ID                 string
	Status             string
	ProductID          string
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	CustomerID string // Provider's customer identifier
	PriceID    string // Provider's price identifier
	ReturnURL  string // Base URL the hosted page redirects back to
}

// CheckoutLink represents a hosted checkout session.
type CheckoutLink struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}

// PortalLink represents a customer portal session.
type PortalLink struct {
	URL       string
	ExpiresAt time.Time
}
