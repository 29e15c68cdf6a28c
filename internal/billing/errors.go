package billing

import "errors"

var (
	// Taxonomy roots. Every error returned by the service wraps exactly one
	// of these so callers can map failures without inspecting provider types.
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUpstreamProvider   = errors.New("billing provider error")

	ErrMappingNotFound = errors.New("customer mapping not found")
	ErrMappingExists   = errors.New("customer mapping already exists")
	ErrNoCustomer      = errors.New("no billing customer for user")

	ErrMissingUserID    = errors.New("user ID is required")
	ErrMissingEmail     = errors.New("email is required")
	ErrMissingPriceID   = errors.New("price ID is required")
	ErrMissingReturnURL = errors.New("return URL is required")
	ErrNoPortalURL      = errors.New("no portal URL returned from provider")
	ErrNoCheckoutURL    = errors.New("no checkout URL returned from provider")
)
