package storage

import (
	"context"
	"fmt"
	"strings"

	"vastra/internal/infra/dbx"
	"vastra/internal/slug"

	"github.com/jackc/pgx/v5"
)

// SlugChecker answers the assigner's existence probes with plain SELECT
// EXISTS queries against the table named by each policy.
type SlugChecker struct {
	db dbx.Querier
}

func NewSlugChecker(db dbx.Querier) *SlugChecker {
	return &SlugChecker{db: db}
}

func (c *SlugChecker) SlugExists(ctx context.Context, p slug.Policy, scope slug.Scope, s string, excludeID *int64) (bool, error) {
	query, args := existsQuery(p, p.SlugColumn, false, scope, s, excludeID)
	return c.exists(ctx, query, args)
}

// NameExists compares names case-insensitively, matching the lower(name)
// unique indexes.
func (c *SlugChecker) NameExists(ctx context.Context, p slug.Policy, scope slug.Scope, name string, excludeID *int64) (bool, error) {
	query, args := existsQuery(p, p.NameColumn, true, scope, name, excludeID)
	return c.exists(ctx, query, args)
}

func (c *SlugChecker) exists(ctx context.Context, query string, args []any) (bool, error) {
	var exists bool
	if err := c.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists query: %w", err)
	}
	return exists, nil
}

func existsQuery(p slug.Policy, column string, fold bool, scope slug.Scope, value string, excludeID *int64) (string, []any) {
	var b strings.Builder
	args := []any{value}

	col := pgx.Identifier{column}.Sanitize()
	if fold {
		col = "lower(" + col + ")"
	}

	fmt.Fprintf(&b, "SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ", pgx.Identifier{p.Table}.Sanitize(), col)
	if fold {
		b.WriteString("lower($1)")
	} else {
		b.WriteString("$1")
	}

	for _, f := range p.ScopeFields {
		ident := pgx.Identifier{f}.Sanitize()
		v := scope[f]
		if v == nil {
			fmt.Fprintf(&b, " AND %s IS NULL", ident)
			continue
		}
		args = append(args, v)
		fmt.Fprintf(&b, " AND %s = $%d", ident, len(args))
	}

	if excludeID != nil {
		args = append(args, *excludeID)
		fmt.Fprintf(&b, " AND %s <> $%d", pgx.Identifier{p.IDColumn}.Sanitize(), len(args))
	}

	b.WriteString(")")
	return b.String(), args
}
