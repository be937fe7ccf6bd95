// Package dbdiff compares the schema and row counts of two Postgres databases,
// typically a production copy against a freshly migrated one.
package dbdiff

import (
	"context"
	"fmt"
	"sort"

	"vastra/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Table struct {
	Columns map[string]string `json:"columns"` // column name -> data type
	Rows    int64             `json:"rows"`
}

// Snapshot is the state of one schema, keyed by table name.
type Snapshot map[string]Table

type ColumnDiff struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Source string `json:"source"` // "" when the column is missing in source
	Target string `json:"target"` // "" when the column is missing in target
}

type CountDiff struct {
	Table  string `json:"table"`
	Source int64  `json:"source"`
	Target int64  `json:"target"`
	Delta  int64  `json:"delta"`
}

type Report struct {
	MissingInTarget []string     `json:"missing_in_target"`
	MissingInSource []string     `json:"missing_in_source"`
	Columns         []ColumnDiff `json:"columns"`
	Counts          []CountDiff  `json:"counts"`
}

func (r Report) Empty() bool {
	return len(r.MissingInTarget) == 0 && len(r.MissingInSource) == 0 &&
		len(r.Columns) == 0 && len(r.Counts) == 0
}

// Load reads every base table of schema with its columns and exact row count.
func Load(ctx context.Context, q dbx.Querier, schema string) (Snapshot, error) {
	rows, err := q.Query(ctx, `
		SELECT c.table_name, c.column_name, c.data_type
		FROM information_schema.columns c
		JOIN information_schema.tables t
		  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema = $1 AND t.table_type = 'BASE TABLE'
		ORDER BY c.table_name, c.ordinal_position`, schema)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}

	snap := Snapshot{}
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan column: %w", err)
		}
		t, ok := snap[table]
		if !ok {
			t = Table{Columns: map[string]string{}}
		}
		t.Columns[column] = dataType
		snap[table] = t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}

	for name, t := range snap {
		query := `SELECT count(*) FROM ` + pgx.Identifier{schema, name}.Sanitize()
		if err := q.QueryRow(ctx, query).Scan(&t.Rows); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		snap[name] = t
	}
	return snap, nil
}

// Diff reports tables and columns present on one side only, column type
// changes and row-count differences for tables present on both sides.
func Diff(source, target Snapshot) Report {
	var r Report

	for _, name := range sortedKeys(source) {
		st := source[name]
		tt, ok := target[name]
		if !ok {
			r.MissingInTarget = append(r.MissingInTarget, name)
			continue
		}

		for _, col := range union(st.Columns, tt.Columns) {
			if st.Columns[col] != tt.Columns[col] {
				r.Columns = append(r.Columns, ColumnDiff{
					Table: name, Column: col, Source: st.Columns[col], Target: tt.Columns[col],
				})
			}
		}

		if st.Rows != tt.Rows {
			r.Counts = append(r.Counts, CountDiff{
				Table: name, Source: st.Rows, Target: tt.Rows, Delta: tt.Rows - st.Rows,
			})
		}
	}

	for _, name := range sortedKeys(target) {
		if _, ok := source[name]; !ok {
			r.MissingInSource = append(r.MissingInSource, name)
		}
	}
	return r
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func union(a, b map[string]string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		set[k] = struct{}{}
	}
	for k := range b {
		set[k] = struct{}{}
	}
	return sortedKeys(set)
}
