package seo

import (
	"context"
	"errors"
	"fmt"

	"vastra/internal/db"
	"vastra/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var (
	ErrEntryNotFound   = errors.New("seo entry not found")
	ErrProductNotFound = errors.New("referenced product does not exist")
)

type Store interface {
	Create(ctx context.Context, e *Entry) (*Entry, error)
	GetByID(ctx context.Context, id int64) (*Entry, error)
	GetBySlug(ctx context.Context, slug string) (*Entry, error)
	ListByProduct(ctx context.Context, productID int64) ([]*Entry, error)
	Update(ctx context.Context, e *Entry) (*Entry, error)
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{db: q}
}

const entryColumns = `id, product_id, title, slug, description, keywords, canonical_url, created_at, updated_at`

func scanEntry(row pgx.Row, extra ...any) (*Entry, error) {
	e := &Entry{}
	dest := append([]any{
		&e.ID, &e.ProductID, &e.Title, &e.Slug, &e.Description, &e.Keywords,
		&e.CanonicalURL, &e.CreatedAt, &e.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return e, nil
}

func writeErr(op string, e *Entry, err error) error {
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrProductNotFound)
	}
	return fmt.Errorf("%s: %w", op, db.ClassifyUniqueViolation(err, "seo", e.Title))
}

func (r *Repository) Create(ctx context.Context, e *Entry) (*Entry, error) {
	if e.Keywords == nil {
		e.Keywords = []string{}
	}
	query := `
		INSERT INTO seo (product_id, title, slug, description, keywords, canonical_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + entryColumns
	created, err := scanEntry(r.db.QueryRow(ctx, query,
		e.ProductID, e.Title, e.Slug, e.Description, e.Keywords, e.CanonicalURL))
	if err != nil {
		return nil, writeErr("create seo", e, err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Entry, error) {
	e, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM seo WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	return e, err
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Entry, error) {
	e, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM seo WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	return e, err
}

func (r *Repository) ListByProduct(ctx context.Context, productID int64) ([]*Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM seo WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list seo by product: %w", err)
	}
	return dbx.Collect(rows, scanEntry)
}

func (r *Repository) Update(ctx context.Context, e *Entry) (*Entry, error) {
	if e.Keywords == nil {
		e.Keywords = []string{}
	}
	query := `
		UPDATE seo
		SET product_id = $1, title = $2, slug = $3, description = $4, keywords = $5,
		    canonical_url = $6, updated_at = now()
		WHERE id = $7
		RETURNING ` + entryColumns
	updated, err := scanEntry(r.db.QueryRow(ctx, query,
		e.ProductID, e.Title, e.Slug, e.Description, e.Keywords, e.CanonicalURL, e.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, writeErr("update seo", e, err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM seo WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete seo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}
