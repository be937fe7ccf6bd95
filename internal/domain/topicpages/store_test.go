package topicpages

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRow fills Scan destinations from values in order.
type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *int64:
			*d = r.values[i].(int64)
		case *string:
			*d = r.values[i].(string)
		case **string:
			*d = r.values[i].(*string)
		case *bool:
			*d = r.values[i].(bool)
		case *time.Time:
			*d = r.values[i].(time.Time)
		}
	}
	return nil
}

func TestScanPage(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	title := "Wedding Silks"
	p, err := scanPage(stubRow{values: []any{
		int64(4), "Wedding Silks", "wedding-silks", &title, (*string)(nil), (*string)(nil), true, now, now,
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.ID)
	assert.Equal(t, "wedding-silks", p.Slug)
	assert.Equal(t, &title, p.Title)
	assert.Nil(t, p.ImageURL)
	assert.True(t, p.IsActive)

	boom := errors.New("scan failed")
	_, err = scanPage(stubRow{err: boom})
	assert.ErrorIs(t, err, boom)
}
