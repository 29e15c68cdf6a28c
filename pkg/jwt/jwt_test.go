package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassanidea/Subscription-Status-Viewer/pkg/jwt"
)

func TestGenerateAndParse(t *testing.T) {
	svc, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!")
	require.NoError(t, err)

	claims := jwt.StandardClaims{
		Subject:   "user-123",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}

	token, err := svc.Generate(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var parsed jwt.StandardClaims
	require.NoError(t, svc.Parse(token, &parsed))
	assert.Equal(t, "user-123", parsed.Subject)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	svc, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!")
	require.NoError(t, err)

	token, err := svc.Generate(jwt.StandardClaims{Subject: "user-123"})
	require.NoError(t, err)

	var parsed jwt.StandardClaims
	err = svc.Parse(token+"x", &parsed)
	assert.ErrorIs(t, err, jwt.ErrInvalidSignature)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	svc, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!")
	require.NoError(t, err)

	token, err := svc.Generate(jwt.StandardClaims{
		Subject:   "user-123",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	})
	require.NoError(t, err)

	var parsed jwt.StandardClaims
	err = svc.Parse(token, &parsed)
	assert.ErrorIs(t, err, jwt.ErrExpiredToken)
}

func TestParseRejectsWrongKey(t *testing.T) {
	issuer, err := jwt.NewFromString("issuer-signing-key-32-bytes-long!!!")
	require.NoError(t, err)
	verifier, err := jwt.NewFromString("different-signing-key-32-bytes!!!!!")
	require.NoError(t, err)

	token, err := issuer.Generate(jwt.StandardClaims{Subject: "user-123"})
	require.NoError(t, err)

	var parsed jwt.StandardClaims
	assert.ErrorIs(t, verifier.Parse(token, &parsed), jwt.ErrInvalidSignature)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := jwt.New(nil)
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)

	_, err = jwt.NewFromString("")
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)
}

// assertUnauthorizedBody checks rejections render the tagged JSON error
// shape with a fixed message instead of leaking validation detail.
func assertUnauthorizedBody(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()

	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t,
		`{"error":{"code":"unauthorized","message":"missing or invalid credentials"}}`,
		rec.Body.String())
}

func TestMiddleware(t *testing.T) {
	svc, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!")
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := jwt.GetClaims[map[string]any](r.Context())
		require.True(t, ok)
		assert.Equal(t, "user-123", claims["sub"])
		w.WriteHeader(http.StatusOK)
	})

	handler := jwt.Middleware(svc)(next)

	t.Run("valid token", func(t *testing.T) {
		token, err := svc.Generate(jwt.StandardClaims{Subject: "user-123"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assertUnauthorizedBody(t, rec)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assertUnauthorizedBody(t, rec)
	})

	t.Run("invalid token hides failure detail", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assertUnauthorizedBody(t, rec)
	})
}
