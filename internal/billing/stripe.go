package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v83"
	portalsession "github.com/stripe/stripe-go/v83/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/customer"
	"github.com/stripe/stripe-go/v83/product"
	"github.com/stripe/stripe-go/v83/subscription"
)

// StripeConfig holds configuration for the Stripe billing provider.
type StripeConfig struct {
	SecretKey string `env:"STRIPE_SECRET_KEY,required"`
}

// StripeProvider implements BillingProvider for Stripe.
type StripeProvider struct {
	config StripeConfig
}

// NewStripeProvider creates a new Stripe billing provider.
// Sets the global Stripe API key; one provider instance per process.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if config.SecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}

	stripe.Key = config.SecretKey

	return &StripeProvider{config: config}, nil
}

// CreateCustomer creates a Stripe customer tagged with the user ID in
// metadata, so dashboard lookups and webhooks trace back to the user.
func (p *StripeProvider) CreateCustomer(ctx context.Context, userID, email string) (*ProviderCustomer, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if email == "" {
		return nil, ErrMissingEmail
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.AddMetadata("userId", userID)

	cust, err := customer.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe customer: %w", err)
	}

	return &ProviderCustomer{
		ID:    cust.ID,
		Email: cust.Email,
	}, nil
}

// LatestSubscription returns the customer's most recent subscription in any
// status, or nil when the customer has none. Stripe lists newest first, so
// a single-item page is enough.
func (p *StripeProvider) LatestSubscription(ctx context.Context, customerID string) (*ProviderSubscription, error) {
	if customerID == "" {
		return nil, errors.New("customer ID is required")
	}

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := subscription.List(params)
	if iter.Next() {
		return fromStripeSubscription(iter.Subscription()), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stripe subscriptions: %w", err)
	}
	return nil, nil
}

// GetProductName resolves a Stripe product ID to its display name.
func (p *StripeProvider) GetProductName(ctx context.Context, productID string) (string, error) {
	if productID == "" {
		return "", errors.New("product ID is required")
	}

	params := &stripe.ProductParams{}
	params.Context = ctx

	prod, err := product.Get(productID, params)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve stripe product: %w", err)
	}
	return prod.Name, nil
}

// CreatePortalSession creates a Stripe billing portal session.
func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalLink, error) {
	if customerID == "" {
		return nil, errors.New("customer ID is required")
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe portal session: %w", err)
	}
	if sess.URL == "" {
		return nil, ErrNoPortalURL
	}

	return &PortalLink{URL: sess.URL}, nil
}

// CreateCheckoutSession creates a Stripe hosted checkout session in
// subscription mode. The return URL gets success/canceled markers appended
// so the frontend can render the outcome.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.CustomerID == "" {
		return nil, errors.New("customer ID is required")
	}
	if req.PriceID == "" {
		return nil, ErrMissingPriceID
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(req.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.ReturnURL + "?success=true"),
		CancelURL:  stripe.String(req.ReturnURL + "?canceled=true"),
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	if sess.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	link := &CheckoutLink{
		URL:       sess.URL,
		SessionID: sess.ID,
	}
	if sess.ExpiresAt > 0 {
		link.ExpiresAt = time.Unix(sess.ExpiresAt, 0).UTC()
	}
	return link, nil
}

// fromStripeSubscription maps a Stripe subscription to the provider-neutral
// shape. Period boundaries live on the first subscription item.
func fromStripeSubscription(sub *stripe.Subscription) *ProviderSubscription {
	if sub == nil {
		return nil
	}

	out := &ProviderSubscription{
		ID:     sub.ID,
		Status: string(sub.Status),
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		out.CurrentPeriodStart = item.CurrentPeriodStart
		out.CurrentPeriodEnd = item.CurrentPeriodEnd
		if item.Price != nil && item.Price.Product != nil {
			out.ProductID = item.Price.Product.ID
		}
	}

	return out
}
