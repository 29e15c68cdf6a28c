// Package api exposes the subscription viewer over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hassanidea/Subscription-Status-Viewer/pkg/httpserver"
	"github.com/hassanidea/Subscription-Status-Viewer/pkg/jwt"
	"github.com/hassanidea/Subscription-Status-Viewer/pkg/ratelimit"
)

// RouterOptions configures the API router. Service and JWT are required;
// the rest is optional.
type RouterOptions struct {
	Handler *Handler
	JWT     *jwt.Service
	Log     *slog.Logger

	// Limiter, when set, rate-limits billing session endpoints per user.
	// Reads stay unlimited.
	Limiter ratelimit.Limiter

	// HealthChecks run on GET /health readiness probes.
	HealthChecks []func(context.Context) error
}

// Router assembles the HTTP surface: a public health endpoint plus the
// JWT-protected v1 API.
func Router(opts RouterOptions) chi.Router {
	if opts.Handler == nil {
		panic("api: handler is required")
	}
	if opts.JWT == nil {
		panic("api: jwt service is required")
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(RequestID)

	r.Get("/health", httpserver.HealthCheckHandler(log, opts.HealthChecks...))

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(jwt.Middleware(opts.JWT))

		v1.Get("/subscription", opts.Handler.getSubscription)

		v1.Route("/billing", func(b chi.Router) {
			if opts.Limiter != nil {
				b.Use(ratelimit.Middleware(opts.Limiter, limitKeyByUser))
			}
			b.Post("/customer", opts.Handler.createCustomer)
			b.Post("/portal", opts.Handler.createPortalSession)
			b.Post("/checkout", opts.Handler.createCheckoutSession)
		})
	})

	return r
}

// limitKeyByUser buckets rate limits by the authenticated user. Runs after
// the JWT middleware, so claims are always in context here.
func limitKeyByUser(r *http.Request) string {
	id, ok := identityFromContext(r)
	if !ok {
		return ""
	}
	return "billing:" + id.UserID
}
