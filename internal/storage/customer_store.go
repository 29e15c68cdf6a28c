// Package storage provides the PostgreSQL-backed persistence layer.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hassanidea/Subscription-Status-Viewer/internal/billing"
	"github.com/hassanidea/Subscription-Status-Viewer/pkg/pg"
)

// CustomerStore implements billing.CustomerStore on top of PostgreSQL.
type CustomerStore struct {
	pool *pgxpool.Pool
}

// NewCustomerStore creates a PostgreSQL customer store.
// Panics if pool is nil to fail fast during initialization.
func NewCustomerStore(pool *pgxpool.Pool) *CustomerStore {
	if pool == nil {
		panic("storage: pgx pool is required")
	}
	return &CustomerStore{pool: pool}
}

func (s *CustomerStore) Get(ctx context.Context, userID string) (*billing.CustomerMapping, error) {
	const query = `
		SELECT user_id, stripe_customer_id, email, created_at
		FROM customer_mappings
		WHERE user_id = $1`

	var m billing.CustomerMapping
	err := s.pool.QueryRow(ctx, query, userID).Scan(&m.UserID, &m.StripeCustomerID, &m.Email, &m.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, billing.ErrMappingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer mapping: %w", err)
	}
	return &m, nil
}

// Create inserts a mapping with insert-if-absent semantics. Concurrent
// provisioning races resolve inside the database: the conflict clause keeps
// the first row and losers get billing.ErrMappingExists.
func (s *CustomerStore) Create(ctx context.Context, mapping billing.CustomerMapping) error {
	const query = `
		INSERT INTO customer_mappings (user_id, stripe_customer_id, email, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query,
		mapping.UserID, mapping.StripeCustomerID, mapping.Email, mapping.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create customer mapping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrMappingExists
	}
	return nil
}
