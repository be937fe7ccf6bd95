package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DefaultPersistRetries is how many times Save re-resolves after the store
// rejects a write with ErrDuplicateKey.
const DefaultPersistRetries = 1

// Checker is the storage collaborator the Assigner probes. excludeID is the
// entity's own id on update and nil on create.
type Checker interface {
	SlugExists(ctx context.Context, p Policy, scope Scope, slug string, excludeID *int64) (bool, error)
	NameExists(ctx context.Context, p Policy, scope Scope, name string, excludeID *int64) (bool, error)
}

// Input is what the Assigner needs to know about the entity being saved.
type Input struct {
	// ID is nil on create.
	ID *int64
	// Name is the display name the slug derives from.
	Name string
	// Slug is a slug explicitly supplied by the caller, "" when absent.
	Slug string
	// CurrentSlug is the slug stored for the entity before this update.
	CurrentSlug string
	// NameChanged marks an update whose change set includes the name.
	NameChanged bool
	// Refs holds the entity's scope references keyed by column.
	Refs Scope
}

func (in Input) creating() bool { return in.ID == nil }

func (in Input) touchesName() bool { return in.creating() || in.NameChanged }

// PersistFunc writes the entity with the given slug. It must return an error
// wrapping ErrDuplicateKey when the slug unique constraint rejects the write.
type PersistFunc func(ctx context.Context, slug string) error

type Option func(*Assigner)

func WithMaxAttempts(n int) Option {
	return func(a *Assigner) { a.resolver = NewResolver(n) }
}

func WithPersistRetries(n int) Option {
	return func(a *Assigner) {
		if n >= 0 {
			a.persistRetries = n
		}
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(a *Assigner) {
		if l != nil {
			a.logger = l
		}
	}
}

// Assigner computes slugs for entities right before they are persisted.
type Assigner struct {
	registry       *Registry
	checker        Checker
	resolver       *Resolver
	persistRetries int
	logger         *zap.SugaredLogger
}

func NewAssigner(registry *Registry, checker Checker, opts ...Option) *Assigner {
	a := &Assigner{
		registry:       registry,
		checker:        checker,
		resolver:       NewResolver(DefaultMaxAttempts),
		persistRetries: DefaultPersistRetries,
		logger:         zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assign returns the slug the entity should be persisted with.
//
// On update the current slug is kept unless the name changed or a slug was
// supplied. For name-unique entities a colliding name fails with a
// *ValidationError before any slug work happens.
func (a *Assigner) Assign(ctx context.Context, entity string, in Input) (string, error) {
	p, err := a.registry.Lookup(entity)
	if err != nil {
		return "", err
	}
	scope, err := p.Bind(in.Refs)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(in.Name)
	if p.NameUnique && name != "" && in.touchesName() {
		taken, err := a.checker.NameExists(ctx, p, scope, name, in.ID)
		if err != nil {
			return "", &StorageError{Op: "check name " + name, Err: err}
		}
		if taken {
			return "", &ValidationError{Entity: p.Entity, Field: p.NameColumn, Value: name}
		}
	}

	if base := Normalize(in.Slug); base != "" {
		return a.resolve(ctx, p, scope, base, in.ID)
	}

	if in.touchesName() && name != "" {
		if base := Normalize(name); base != "" {
			return a.resolve(ctx, p, scope, base, in.ID)
		}
		return a.fallback(p)
	}

	if in.CurrentSlug != "" {
		return in.CurrentSlug, nil
	}
	return a.fallback(p)
}

// Save assigns a slug and hands it to persist. When persist reports
// ErrDuplicateKey (another writer claimed the slug between the probe and the
// write) the slug is resolved again, up to the configured retry count. Any
// other persist failure except a *ValidationError is returned as a
// *StorageError wrapping the original error.
func (a *Assigner) Save(ctx context.Context, entity string, in Input, persist PersistFunc) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= a.persistRetries; attempt++ {
		s, err := a.Assign(ctx, entity, in)
		if err != nil {
			return "", err
		}

		err = persist(ctx, s)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrDuplicateKey) {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return "", err
			}
			return "", &StorageError{Op: "persist " + entity, Err: err}
		}

		a.logger.Debugw("slug claimed concurrently, resolving again",
			"entity", entity, "slug", s, "attempt", attempt+1)
		lastErr = err

		// A kept slug is only rejected when its scope moved; resolve it
		// within the new scope instead of handing back the same value.
		if s == in.CurrentSlug {
			in.Slug = s
		}
	}
	return "", fmt.Errorf("save %s after %d attempts: %w", entity, a.persistRetries+1, lastErr)
}

func (a *Assigner) resolve(ctx context.Context, p Policy, scope Scope, base string, excludeID *int64) (string, error) {
	s, err := a.resolver.Resolve(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		return a.checker.SlugExists(ctx, p, scope, candidate, excludeID)
	})
	if err != nil {
		return "", err
	}
	if s != base {
		a.logger.Debugw("slug suffixed", "entity", p.Entity, "scope", scope.Key(), "base", base, "slug", s)
	}
	return s, nil
}

func (a *Assigner) fallback(p Policy) (string, error) {
	s, err := Fallback(p.FallbackPrefix)
	if err != nil {
		return "", err
	}
	a.logger.Debugw("slug fallback", "entity", p.Entity, "slug", s)
	return s, nil
}
