// Package billing provides subscription status viewing and billing session
// management backed by a payment provider.
//
// The package normalizes provider subscription data into a small fixed
// status set, provisions billing customers on demand with race-safe
// insert-if-absent semantics, and issues hosted portal and checkout links.
// Provider interactions go through the BillingProvider interface; Stripe is
// the bundled implementation.
//
//   - Service: main interface with all billing operations
//   - BillingProvider: abstracts payment provider interactions
//   - CustomerStore: persists user to billing-customer mappings
//   - NormalizedSubscription: provider-agnostic subscription view
package billing
