package storage

import (
	"context"
	"fmt"

	"vastra/internal/domain/geo"
	"vastra/internal/domain/products"
	"vastra/internal/domain/seo"
	"vastra/internal/domain/taxonomies"
	"vastra/internal/domain/topicpages"
	"vastra/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	pool       *pgxpool.Pool // WithTx needs the pool
	Products   products.Store
	Seo        seo.Store
	Geo        geo.Store
	Taxonomies taxonomies.Store
	TopicPages topicpages.Store
	Slugs      *SlugChecker
}

func NewContainer(db *pgxpool.Pool) *Container {
	c := newRepos(db)
	c.pool = db
	return c
}

func newRepos(q dbx.Querier) *Container {
	return &Container{
		Products:   products.NewRepository(q),
		Seo:        seo.NewRepository(q),
		Geo:        geo.NewRepository(q),
		Taxonomies: taxonomies.NewRepository(q),
		TopicPages: topicpages.NewRepository(q),
		Slugs:      NewSlugChecker(q),
	}
}

// Ping checks database reachability for the health endpoint.
func (c *Container) Ping(ctx context.Context) error {
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil")
	}
	return c.pool.Ping(ctx)
}

// WithTx runs fn against tx-scoped repositories and commits when fn returns nil.
func (c *Container) WithTx(ctx context.Context, fn func(tx *Container) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil (did you forget to set pool in NewContainer?)")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	if err := fn(newRepos(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
