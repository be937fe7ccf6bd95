package slug

import (
	"context"
	"strconv"
)

// DefaultMaxAttempts caps the number of suffixed variants probed per resolution.
const DefaultMaxAttempts = 1000

// ExistsFunc reports whether candidate is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Resolver finds the first free variant of a base token: base, base-1, base-2, ...
// It keeps no state between calls; every probe asks exists afresh.
type Resolver struct {
	maxAttempts int
}

func NewResolver(maxAttempts int) *Resolver {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Resolver{maxAttempts: maxAttempts}
}

func (r *Resolver) MaxAttempts() int { return r.maxAttempts }

// Resolve returns base when it is free, otherwise the first base-N (N starting at 1)
// that is free. base must be non-empty.
func (r *Resolver) Resolve(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	taken, err := exists(ctx, base)
	if err != nil {
		return "", &StorageError{Op: "check " + base, Err: err}
	}
	if !taken {
		return base, nil
	}

	for n := 1; n <= r.maxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := base + "-" + strconv.Itoa(n)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", &StorageError{Op: "check " + candidate, Err: err}
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", &ExhaustedProbeError{Base: base, Attempts: r.maxAttempts}
}
