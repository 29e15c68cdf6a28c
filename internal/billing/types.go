package billing

import "time"

// SubscriptionStatus is the normalized subscription state exposed to clients.
// Provider-specific statuses collapse into this fixed set so the frontend
// never has to know which billing provider sits behind the API.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"

	// StatusNoSubscription means the user has a billing customer but no
	// subscription on record (or one in a state we do not surface).
	StatusNoSubscription SubscriptionStatus = "no_subscription"

	// StatusNoCustomer means the user has never been provisioned with the
	// billing provider at all.
	StatusNoCustomer SubscriptionStatus = "no_customer"
)

// defaultPlanName is returned whenever no plan can be resolved.
const defaultPlanName = "None"

// MapProviderStatus normalizes a raw provider subscription status.
// Unknown or incomplete states map to no_subscription rather than failing,
// so new provider statuses never break clients.
func MapProviderStatus(raw string) SubscriptionStatus {
	switch raw {
	case "active":
		return StatusActive
	case "trialing":
		return StatusTrialing
	case "past_due":
		return StatusPastDue
	case "canceled", "unpaid":
		return StatusCanceled
	default:
		return StatusNoSubscription
	}
}

// NormalizedSubscription is the provider-agnostic view of a user's
// subscription. Timestamps are UTC and omitted entirely when the user has
// no subscription, so clients can rely on presence rather than zero values.
type NormalizedSubscription struct {
	Status             SubscriptionStatus `json:"status"`
	PlanName           string             `json:"planName"`
	CurrentPeriodStart *time.Time         `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time         `json:"currentPeriodEnd,omitempty"`

	// RenewalDate mirrors CurrentPeriodEnd. Kept as a separate field because
	// clients render it independently of the billing period.
	RenewalDate *time.Time `json:"renewalDate,omitempty"`
}

// EmptySubscription returns the normalized view for a user without a
// subscription in the given terminal state.
func EmptySubscription(status SubscriptionStatus) *NormalizedSubscription {
	return &NormalizedSubscription{
		Status:   status,
		PlanName: defaultPlanName,
	}
}

// Normalize converts a raw provider subscription plus its resolved plan name
// into the client-facing shape.
func Normalize(sub *ProviderSubscription, planName string) *NormalizedSubscription {
	if sub == nil {
		return EmptySubscription(StatusNoSubscription)
	}
	if planName == "" {
		planName = defaultPlanName
	}

	start := epochToTime(sub.CurrentPeriodStart)
	end := epochToTime(sub.CurrentPeriodEnd)

	return &NormalizedSubscription{
		Status:             MapProviderStatus(sub.Status),
		PlanName:           planName,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		RenewalDate:        end,
	}
}

// epochToTime converts provider epoch seconds to UTC time.
// Zero and negative values mean "not set" and yield nil.
func epochToTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

// CustomerMapping links an authenticated user to their billing provider
// customer record.
type CustomerMapping struct {
	UserID           string    `json:"userId"`
	StripeCustomerID string    `json:"stripeCustomerId"`
	Email            string    `json:"email"`
	CreatedAt        time.Time `json:"createdAt"`
}
