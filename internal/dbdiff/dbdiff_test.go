package dbdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	t.Parallel()

	source := Snapshot{
		"products": {Columns: map[string]string{"id": "bigint", "name": "text", "gsm": "numeric"}, Rows: 120},
		"cities":   {Columns: map[string]string{"id": "bigint", "slug": "text"}, Rows: 40},
		"legacy":   {Columns: map[string]string{"id": "integer"}, Rows: 3},
	}
	target := Snapshot{
		"products":    {Columns: map[string]string{"id": "bigint", "name": "text", "gsm": "double precision", "width_cm": "double precision"}, Rows: 118},
		"cities":      {Columns: map[string]string{"id": "bigint", "slug": "text"}, Rows: 40},
		"topic_pages": {Columns: map[string]string{"id": "bigint"}, Rows: 0},
	}

	r := Diff(source, target)

	assert.Equal(t, []string{"legacy"}, r.MissingInTarget)
	assert.Equal(t, []string{"topic_pages"}, r.MissingInSource)
	assert.Equal(t, []ColumnDiff{
		{Table: "products", Column: "gsm", Source: "numeric", Target: "double precision"},
		{Table: "products", Column: "width_cm", Source: "", Target: "double precision"},
	}, r.Columns)
	assert.Equal(t, []CountDiff{{Table: "products", Source: 120, Target: 118, Delta: -2}}, r.Counts)
	assert.False(t, r.Empty())
}

func TestDiff_Identical(t *testing.T) {
	t.Parallel()

	snap := Snapshot{"seo": {Columns: map[string]string{"id": "bigint"}, Rows: 9}}
	assert.True(t, Diff(snap, snap).Empty())
	assert.True(t, Diff(Snapshot{}, Snapshot{}).Empty())
}
