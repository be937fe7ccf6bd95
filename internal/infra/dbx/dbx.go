package dbx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx so repositories
// can run against a pool or inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ScanFunc scans one row into a new T. extra receives columns that follow
// the entity's own columns, such as a COUNT(*) OVER() total.
type ScanFunc[T any] func(row pgx.Row, extra ...any) (*T, error)

// CollectWithTotal drains rows whose last column is COUNT(*) OVER() and
// returns the items along with that total.
func CollectWithTotal[T any](rows pgx.Rows, scan ScanFunc[T]) ([]*T, int, error) {
	defer rows.Close()

	var (
		items []*T
		total int
	)
	for rows.Next() {
		item, err := scan(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Collect drains rows without a total column.
func Collect[T any](rows pgx.Rows, scan ScanFunc[T]) ([]*T, error) {
	defer rows.Close()

	var items []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
