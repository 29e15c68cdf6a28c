package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hassanidea/Subscription-Status-Viewer/internal/api"
	"github.com/hassanidea/Subscription-Status-Viewer/internal/billing"
	"github.com/hassanidea/Subscription-Status-Viewer/pkg/jwt"
	"github.com/hassanidea/Subscription-Status-Viewer/pkg/ratelimit"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) EnsureCustomer(ctx context.Context, userID, email string) (*billing.CustomerMapping, error) {
	args := m.Called(ctx, userID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CustomerMapping), args.Error(1)
}

func (m *mockService) GetSubscriptionStatus(ctx context.Context, userID string) (*billing.NormalizedSubscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.NormalizedSubscription), args.Error(1)
}

func (m *mockService) CreateBillingPortalSession(ctx context.Context, userID, returnURL string) (*billing.PortalLink, error) {
	args := m.Called(ctx, userID, returnURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PortalLink), args.Error(1)
}

func (m *mockService) Subscribe(ctx context.Context, userID, email, priceID, returnURL string) (*billing.CheckoutLink, error) {
	args := m.Called(ctx, userID, email, priceID, returnURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CheckoutLink), args.Error(1)
}

type testEnv struct {
	svc    *mockService
	jwtSvc *jwt.Service
	router http.Handler
}

func newTestEnv(t *testing.T, opts ...func(*api.RouterOptions)) *testEnv {
	t.Helper()

	jwtSvc, err := jwt.NewFromString("test-signing-key-with-enough-bytes")
	require.NoError(t, err)

	svc := new(mockService)
	routerOpts := api.RouterOptions{
		Handler: api.NewHandler(svc, nil),
		JWT:     jwtSvc,
	}
	for _, opt := range opts {
		opt(&routerOpts)
	}

	return &testEnv{
		svc:    svc,
		jwtSvc: jwtSvc,
		router: api.Router(routerOpts),
	}
}

func (e *testEnv) token(t *testing.T, userID, email string) string {
	t.Helper()

	token, err := e.jwtSvc.Generate(map[string]any{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type responseBody struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) responseBody {
	t.Helper()

	var body responseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/subscription", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/subscription", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetSubscription(t *testing.T) {
	t.Run("returns normalized view", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.On("GetSubscriptionStatus", mock.Anything, "user-1").
			Return(billing.EmptySubscription(billing.StatusNoCustomer), nil)

		rec := env.do(t, http.MethodGet, "/v1/subscription", env.token(t, "user-1", "user@example.com"), "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.Nil(t, body.Error)
		assert.JSONEq(t, `{"status":"no_customer","planName":"None"}`, string(body.Data))
	})

	t.Run("maps error taxonomy to status codes", func(t *testing.T) {
		tests := []struct {
			name       string
			err        error
			wantStatus int
			wantCode   string
		}{
			{"invalid argument", billing.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
			{"upstream provider", billing.ErrUpstreamProvider, http.StatusBadGateway, "upstream_provider"},
			{"storage unavailable", billing.ErrStorageUnavailable, http.StatusServiceUnavailable, "storage_unavailable"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := newTestEnv(t)
				env.svc.On("GetSubscriptionStatus", mock.Anything, "user-1").Return(nil, tt.err)

				rec := env.do(t, http.MethodGet, "/v1/subscription", env.token(t, "user-1", ""), "")
				assert.Equal(t, tt.wantStatus, rec.Code)

				body := decodeBody(t, rec)
				require.NotNil(t, body.Error)
				assert.Equal(t, tt.wantCode, body.Error.Code)
			})
		}
	})
}

func TestCreateCustomer(t *testing.T) {
	env := newTestEnv(t)
	env.svc.On("EnsureCustomer", mock.Anything, "user-1", "user@example.com").
		Return(&billing.CustomerMapping{
			UserID:           "user-1",
			StripeCustomerID: "cus_123",
			Email:            "user@example.com",
		}, nil)

	rec := env.do(t, http.MethodPost, "/v1/billing/customer", env.token(t, "user-1", "user@example.com"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Nil(t, body.Error)
	assert.Contains(t, string(body.Data), "cus_123")
}

func TestCreatePortalSession(t *testing.T) {
	t.Run("returns portal url", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.On("CreateBillingPortalSession", mock.Anything, "user-1", "https://app.example.com/account").
			Return(&billing.PortalLink{URL: "https://billing.stripe.com/p/session_123"}, nil)

		rec := env.do(t, http.MethodPost, "/v1/billing/portal", env.token(t, "user-1", ""),
			`{"returnUrl":"https://app.example.com/account"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.JSONEq(t, `{"url":"https://billing.stripe.com/p/session_123"}`, string(body.Data))
	})

	t.Run("unprovisioned user gets 404", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.On("CreateBillingPortalSession", mock.Anything, "user-1", mock.Anything).
			Return(nil, billing.ErrNoCustomer)

		rec := env.do(t, http.MethodPost, "/v1/billing/portal", env.token(t, "user-1", ""),
			`{"returnUrl":"https://app.example.com"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		body := decodeBody(t, rec)
		require.NotNil(t, body.Error)
		assert.Equal(t, "no_customer", body.Error.Code)
	})

	t.Run("malformed body gets 400", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/v1/billing/portal", env.token(t, "user-1", ""), "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateCheckoutSession(t *testing.T) {
	env := newTestEnv(t)
	env.svc.On("Subscribe", mock.Anything, "user-1", "user@example.com", "price_123", "https://app.example.com").
		Return(&billing.CheckoutLink{
			URL:       "https://checkout.stripe.com/c/cs_123",
			SessionID: "cs_123",
		}, nil)

	rec := env.do(t, http.MethodPost, "/v1/billing/checkout", env.token(t, "user-1", "user@example.com"),
		`{"priceId":"price_123","returnUrl":"https://app.example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.JSONEq(t, `{"url":"https://checkout.stripe.com/c/cs_123","sessionId":"cs_123"}`, string(body.Data))
}

func TestBillingRateLimit(t *testing.T) {
	limiter, err := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), 2, time.Minute)
	require.NoError(t, err)

	env := newTestEnv(t, func(opts *api.RouterOptions) {
		opts.Limiter = limiter
	})
	env.svc.On("EnsureCustomer", mock.Anything, "user-1", mock.Anything).
		Return(&billing.CustomerMapping{UserID: "user-1", StripeCustomerID: "cus_123"}, nil)
	env.svc.On("GetSubscriptionStatus", mock.Anything, "user-1").
		Return(billing.EmptySubscription(billing.StatusNoSubscription), nil)

	token := env.token(t, "user-1", "user@example.com")

	for range 2 {
		rec := env.do(t, http.MethodPost, "/v1/billing/customer", token, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/v1/billing/customer", token, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads are never rate limited.
	rec = env.do(t, http.MethodGet, "/v1/subscription", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
