package taxonomies

import (
	"context"
	"errors"
	"fmt"

	"vastra/internal/db"
	"vastra/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var (
	ErrTaxonomyNotFound = errors.New("taxonomy not found")
	ErrInvalidKind      = errors.New("invalid taxonomy kind")
	ErrInUse            = errors.New("cannot delete taxonomy referenced by products")
)

type Store interface {
	Create(ctx context.Context, t *Taxonomy) (*Taxonomy, error)
	GetByID(ctx context.Context, kind Kind, id int64) (*Taxonomy, error)
	GetBySlug(ctx context.Context, kind Kind, slug string) (*Taxonomy, error)
	List(ctx context.Context, kind Kind, activeOnly bool, limit, offset int) ([]*Taxonomy, int, error)
	Update(ctx context.Context, t *Taxonomy) (*Taxonomy, error)
	Delete(ctx context.Context, kind Kind, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{db: q}
}

const taxonomyColumns = `id, kind, name, slug, description, image_url, is_active, created_at, updated_at`

func scanTaxonomy(row pgx.Row, extra ...any) (*Taxonomy, error) {
	t := &Taxonomy{}
	dest := append([]any{
		&t.ID, &t.Kind, &t.Name, &t.Slug, &t.Description, &t.ImageURL,
		&t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Repository) Create(ctx context.Context, t *Taxonomy) (*Taxonomy, error) {
	if !t.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	query := `
		INSERT INTO taxonomies (kind, name, slug, description, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + taxonomyColumns
	created, err := scanTaxonomy(r.db.QueryRow(ctx, query,
		t.Kind, t.Name, t.Slug, t.Description, t.ImageURL, t.IsActive))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", t.Kind, db.ClassifyUniqueViolation(err, string(t.Kind), t.Name))
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, kind Kind, id int64) (*Taxonomy, error) {
	query := `SELECT ` + taxonomyColumns + ` FROM taxonomies WHERE kind = $1 AND id = $2`
	t, err := scanTaxonomy(r.db.QueryRow(ctx, query, kind, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaxonomyNotFound
	}
	return t, err
}

func (r *Repository) GetBySlug(ctx context.Context, kind Kind, slug string) (*Taxonomy, error) {
	query := `SELECT ` + taxonomyColumns + ` FROM taxonomies WHERE kind = $1 AND slug = $2`
	t, err := scanTaxonomy(r.db.QueryRow(ctx, query, kind, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaxonomyNotFound
	}
	return t, err
}

func (r *Repository) List(ctx context.Context, kind Kind, activeOnly bool, limit, offset int) ([]*Taxonomy, int, error) {
	query := `
		SELECT ` + taxonomyColumns + `, COUNT(*) OVER()
		FROM taxonomies
		WHERE kind = $1 AND (NOT $2 OR is_active)
		ORDER BY name
		LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(ctx, query, kind, activeOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", kind, err)
	}
	return dbx.CollectWithTotal(rows, scanTaxonomy)
}

func (r *Repository) Update(ctx context.Context, t *Taxonomy) (*Taxonomy, error) {
	query := `
		UPDATE taxonomies
		SET name = $1, slug = $2, description = $3, image_url = $4, is_active = $5, updated_at = now()
		WHERE kind = $6 AND id = $7
		RETURNING ` + taxonomyColumns
	updated, err := scanTaxonomy(r.db.QueryRow(ctx, query,
		t.Name, t.Slug, t.Description, t.ImageURL, t.IsActive, t.Kind, t.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaxonomyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", t.Kind, db.ClassifyUniqueViolation(err, string(t.Kind), t.Name))
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, kind Kind, id int64) error {
	if col := kind.productColumn(); col != "" {
		var used bool
		query := `SELECT EXISTS(SELECT 1 FROM products WHERE ` + pgx.Identifier{col}.Sanitize() + ` = $1)`
		if err := r.db.QueryRow(ctx, query, id).Scan(&used); err != nil {
			return fmt.Errorf("check %s usage: %w", kind, err)
		}
		if used {
			return ErrInUse
		}
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM taxonomies WHERE kind = $1 AND id = $2`, kind, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaxonomyNotFound
	}
	return nil
}
