package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"texcore/internal/core/apperror"
	"texcore/internal/core/id"
	"texcore/internal/domain/catalogs/formula"
	"texcore/internal/infrastructure/storage/postgres"
)

const (
	formulasTable     = "cat_formulas"
	formulaLinesTable = "cat_formula_lines"
)

// FormulaRepo implements formula.Repository.
type FormulaRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewFormulaRepo creates a new formula catalog repository.
func NewFormulaRepo(txManager *postgres.TxManager) *FormulaRepo {
	return &FormulaRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID retrieves a formula header.
func (r *FormulaRepo) GetByID(ctx context.Context, formulaID id.ID) (*formula.Formula, error) {
	q := r.builder.Select("id", "code", "name").
		From(formulasTable).
		Where(squirrel.Eq{"id": formulaID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var f formula.Formula
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &f, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("formula", formulaID.String())
		}
		return nil, fmt.Errorf("get formula: %w", err)
	}

	return &f, nil
}

// Lines returns the recipe's chemical lines.
func (r *FormulaRepo) Lines(ctx context.Context, formulaID id.ID) ([]formula.Line, error) {
	q := r.builder.Select("formula_id", "chemical_product_id", "grams_per_kilo").
		From(formulaLinesTable).
		Where(squirrel.Eq{"formula_id": formulaID}).
		OrderBy("chemical_product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []formula.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select formula lines: %w", err)
	}

	return lines, nil
}

// Ensure interface compliance.
var _ formula.Repository = (*FormulaRepo)(nil)
