// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces, not on the pgx implementation,
// so the ledger logic stays testable against in-memory fakes.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction support.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
// Reporting paths (kardex, low-stock scan) use it to avoid write locks.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	// Attempts to modify data will fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
