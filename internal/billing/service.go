package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Config holds orchestration settings for the billing service.
type Config struct {
	// DefaultPriceID is used for checkout when the request does not name a
	// price. Optional; requests without a price fail when unset.
	DefaultPriceID string `env:"STRIPE_DEFAULT_PRICE_ID"`

	// ProviderTimeout bounds every individual billing provider call.
	ProviderTimeout time.Duration `env:"BILLING_PROVIDER_TIMEOUT" envDefault:"10s"`

	// StoreTimeout bounds every individual mapping store call, so a stalled
	// database connection surfaces as ErrStorageUnavailable instead of
	// hanging the request.
	StoreTimeout time.Duration `env:"BILLING_STORE_TIMEOUT" envDefault:"5s"`
}

// Service defines the public interface for subscription viewing and billing
// session management.
type Service interface {
	// EnsureCustomer returns the user's billing customer mapping, creating
	// the provider customer and the mapping on first use. Safe to call
	// concurrently for the same user.
	EnsureCustomer(ctx context.Context, userID, email string) (*CustomerMapping, error)

	// GetSubscriptionStatus returns the normalized subscription view for the
	// user. Read-only: it never provisions a customer.
	GetSubscriptionStatus(ctx context.Context, userID string) (*NormalizedSubscription, error)

	// CreateBillingPortalSession returns a customer portal link for the user.
	// Fails with ErrNoCustomer when the user was never provisioned.
	CreateBillingPortalSession(ctx context.Context, userID, returnURL string) (*PortalLink, error)

	// Subscribe provisions the user if needed and returns a hosted checkout
	// link. An empty priceID falls back to the configured default price.
	Subscribe(ctx context.Context, userID, email, priceID, returnURL string) (*CheckoutLink, error)
}

type service struct {
	provider BillingProvider
	store    CustomerStore
	cfg      Config
	log      *slog.Logger
}

// ServiceOption configures optional service settings.
type ServiceOption func(*service)

// WithLogger sets the logger used for non-fatal events.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a new Service with the given dependencies.
// Panics if provider or store is nil to fail fast during initialization.
func NewService(provider BillingProvider, store CustomerStore, cfg Config, opts ...ServiceOption) Service {
	if provider == nil {
		panic("billing: BillingProvider is required")
	}
	if store == nil {
		panic("billing: CustomerStore is required")
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}

	s := &service{
		provider: provider,
		store:    store,
		cfg:      cfg,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) EnsureCustomer(ctx context.Context, userID, email string) (*CustomerMapping, error) {
	if userID == "" {
		return nil, errors.Join(ErrInvalidArgument, ErrMissingUserID)
	}
	if email == "" {
		return nil, errors.Join(ErrInvalidArgument, ErrMissingEmail)
	}

	mapping, err := s.getMapping(ctx, userID)
	if err == nil {
		return mapping, nil
	}
	if !errors.Is(err, ErrMappingNotFound) {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}

	pctx, cancel := s.providerContext(ctx)
	defer cancel()

	cust, err := s.provider.CreateCustomer(pctx, userID, email)
	if err != nil {
		return nil, errors.Join(ErrUpstreamProvider, err)
	}

	mapping = &CustomerMapping{
		UserID:           userID,
		StripeCustomerID: cust.ID,
		Email:            email,
		CreatedAt:        time.Now().UTC(),
	}

	switch err := s.createMapping(ctx, *mapping); {
	case err == nil:
		return mapping, nil
	case errors.Is(err, ErrMappingExists):
		// Lost a provisioning race. Use the winner's mapping and leave the
		// extra provider customer unused; it carries no payment state.
		s.log.WarnContext(ctx, "concurrent customer provisioning, using existing mapping",
			slog.String("user_id", userID),
			slog.String("orphaned_customer_id", cust.ID))

		winner, err := s.getMapping(ctx, userID)
		if err != nil {
			return nil, errors.Join(ErrStorageUnavailable, err)
		}
		return winner, nil
	default:
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
}

func (s *service) GetSubscriptionStatus(ctx context.Context, userID string) (*NormalizedSubscription, error) {
	if userID == "" {
		return nil, errors.Join(ErrInvalidArgument, ErrMissingUserID)
	}

	mapping, err := s.getMapping(ctx, userID)
	if errors.Is(err, ErrMappingNotFound) {
		return EmptySubscription(StatusNoCustomer), nil
	}
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}

	pctx, cancel := s.providerContext(ctx)
	defer cancel()

	sub, err := s.provider.LatestSubscription(pctx, mapping.StripeCustomerID)
	if err != nil {
		return nil, errors.Join(ErrUpstreamProvider, err)
	}
	if sub == nil {
		return EmptySubscription(StatusNoSubscription), nil
	}

	planName := ""
	if sub.ProductID != "" {
		name, err := s.provider.GetProductName(pctx, sub.ProductID)
		if err != nil {
			// The status itself is more useful than the plan label. Degrade
			// to the default name instead of failing the whole read.
			s.log.WarnContext(ctx, "failed to resolve plan name",
				slog.String("product_id", sub.ProductID),
				slog.Any("error", err))
		} else {
			planName = name
		}
	}

	return Normalize(sub, planName), nil
}

func (s *service) CreateBillingPortalSession(ctx context.Context, userID, returnURL string) (*PortalLink, error) {
	if userID == "" {
		return nil, errors.Join(ErrInvalidArgument, ErrMissingUserID)
	}
	if returnURL == "" {
		return nil, errors.Join(ErrInvalidArgument, ErrMissingReturnURL)
	}

	mapping, err := s.getMapping(ctx, userID)
	if errors.Is(err, ErrMappingNotFound) {
		return nil, ErrNoCustomer
	}
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}

	pctx, cancel := s.providerContext(ctx)
	defer cancel()

	link, err := s.provider.CreatePortalSession(pctx, mapping.StripeCustomerID, returnURL)
	if err != nil {
		return nil, errors.Join(ErrUpstreamProvider, err)
	}
	return link, nil
}

func (s *service) Subscribe(ctx context.Context, userID, email, priceID, returnURL string) (*CheckoutLink, error) {
	if userID == "" {
		return nil, errors.Join(ErrInvalidArgument, ErrMissingUserID)
	}
	if email == "" {
		return nil, errors.Join(ErrInvalidArgument, ErrMissingEmail)
	}
	if returnURL == "" {
		return nil, errors.Join(ErrInvalidArgument, ErrMissingReturnURL)
	}
	if priceID == "" {
		priceID = s.cfg.DefaultPriceID
	}
	if priceID == "" {
		return nil, errors.Join(ErrInvalidArgument, ErrMissingPriceID)
	}

	mapping, err := s.EnsureCustomer(ctx, userID, email)
	if err != nil {
		return nil, err
	}

	pctx, cancel := s.providerContext(ctx)
	defer cancel()

	link, err := s.provider.CreateCheckoutSession(pctx, CheckoutRequest{
		CustomerID: mapping.StripeCustomerID,
		PriceID:    priceID,
		ReturnURL:  returnURL,
	})
	if err != nil {
		return nil, errors.Join(ErrUpstreamProvider, err)
	}
	return link, nil
}

func (s *service) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.ProviderTimeout)
}

// getMapping and createMapping bound every store call with StoreTimeout so
// no operation can hang on a stalled database connection.

func (s *service) getMapping(ctx context.Context, userID string) (*CustomerMapping, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return s.store.Get(ctx, userID)
}

func (s *service) createMapping(ctx context.Context, mapping CustomerMapping) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return s.store.Create(ctx, mapping)
}
