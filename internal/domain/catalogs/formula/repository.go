package formula

import (
	"context"

	"texcore/internal/core/id"
)

// Repository defines read operations over the formula catalog.
type Repository interface {
	GetByID(ctx context.Context, formulaID id.ID) (*Formula, error)
	// Lines returns the recipe's chemical lines; empty is legal (a formula
	// with no components consumes nothing).
	Lines(ctx context.Context, formulaID id.ID) ([]Line, error)
}
