package billing

import "context"

// CustomerStore persists user to billing-customer mappings.
//
// Create must be insert-if-absent: when two requests race to provision the
// same user, exactly one insert wins and the loser gets ErrMappingExists.
// Callers resolve the race by re-reading the winner's mapping.
type CustomerStore interface {
	// Get returns the mapping for the user. Returns ErrMappingNotFound when
	// the user has never been provisioned.
	Get(ctx context.Context, userID string) (*CustomerMapping, error)

	// Create inserts a new mapping. Returns ErrMappingExists when a mapping
	// for the user already exists.
	Create(ctx context.Context, mapping CustomerMapping) error
}
