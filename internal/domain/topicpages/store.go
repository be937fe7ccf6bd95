package topicpages

import (
	"context"
	"errors"
	"fmt"

	"vastra/internal/db"
	"vastra/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var ErrPageNotFound = errors.New("topic page not found")

type Store interface {
	Create(ctx context.Context, p *Page) (*Page, error)
	GetByID(ctx context.Context, id int64) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Page, int, error)
	Update(ctx context.Context, p *Page) (*Page, error)
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{db: q}
}

const pageColumns = `id, name, slug, title, body, image_url, is_active, created_at, updated_at`

func scanPage(row pgx.Row, extra ...any) (*Page, error) {
	p := &Page{}
	dest := append([]any{
		&p.ID, &p.Name, &p.Slug, &p.Title, &p.Body, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) Create(ctx context.Context, p *Page) (*Page, error) {
	query := `
		INSERT INTO topic_pages (name, slug, title, body, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + pageColumns
	created, err := scanPage(r.db.QueryRow(ctx, query, p.Name, p.Slug, p.Title, p.Body, p.ImageURL, p.IsActive))
	if err != nil {
		return nil, fmt.Errorf("create topic page: %w", db.ClassifyUniqueViolation(err, "topicpage", p.Name))
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Page, error) {
	p, err := scanPage(r.db.QueryRow(ctx, `SELECT `+pageColumns+` FROM topic_pages WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	return p, err
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	p, err := scanPage(r.db.QueryRow(ctx, `SELECT `+pageColumns+` FROM topic_pages WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	return p, err
}

func (r *Repository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Page, int, error) {
	query := `
		SELECT ` + pageColumns + `, COUNT(*) OVER()
		FROM topic_pages
		WHERE (NOT $1 OR is_active)
		ORDER BY name
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, activeOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list topic pages: %w", err)
	}
	return dbx.CollectWithTotal(rows, scanPage)
}

func (r *Repository) Update(ctx context.Context, p *Page) (*Page, error) {
	query := `
		UPDATE topic_pages
		SET name = $1, slug = $2, title = $3, body = $4, image_url = $5, is_active = $6, updated_at = now()
		WHERE id = $7
		RETURNING ` + pageColumns
	updated, err := scanPage(r.db.QueryRow(ctx, query, p.Name, p.Slug, p.Title, p.Body, p.ImageURL, p.IsActive, p.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update topic page: %w", db.ClassifyUniqueViolation(err, "topicpage", p.Name))
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM topic_pages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete topic page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPageNotFound
	}
	return nil
}
