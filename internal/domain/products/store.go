package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vastra/internal/db"
	"vastra/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidTaxonomy = errors.New("referenced taxonomy does not exist")
)

// Store is the data access abstraction for the products domain.
type Store interface {
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	GetProductByID(ctx context.Context, id int64) (*Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	ListProducts(ctx context.Context, f ListFilter, limit, offset int) ([]*Product, int, error)
	ListSimilar(ctx context.Context, p *Product, limit int) ([]*Product, error)
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{db: q}
}

const productColumns = `p.id, p.name, p.slug, p.description, p.category_id, p.color_id, p.content_id,
	p.design_id, p.groupcode_id, p.gsm, p.width_cm, p.price_cents, p.image_urls, p.is_active,
	p.created_at, p.updated_at`

func scanProduct(row pgx.Row, extra ...any) (*Product, error) {
	p := &Product{}
	dest := append([]any{
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.CategoryID, &p.ColorID, &p.ContentID,
		&p.DesignID, &p.GroupcodeID, &p.GSM, &p.WidthCM, &p.PriceCents, &p.ImageURLs, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return p, nil
}

func writeErr(op string, p *Product, err error) error {
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrInvalidTaxonomy)
	}
	return fmt.Errorf("%s: %w", op, db.ClassifyUniqueViolation(err, "product", p.Name))
}

func (r *Repository) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	query := `
		INSERT INTO products AS p (name, slug, description, category_id, color_id, content_id,
			design_id, groupcode_id, gsm, width_cm, price_cents, image_urls, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + productColumns
	created, err := scanProduct(r.db.QueryRow(ctx, query,
		p.Name, p.Slug, p.Description, p.CategoryID, p.ColorID, p.ContentID,
		p.DesignID, p.GroupcodeID, p.GSM, p.WidthCM, p.PriceCents, p.ImageURLs, p.IsActive))
	if err != nil {
		return nil, writeErr("create product", p, err)
	}
	return created, nil
}

func (r *Repository) GetProductByID(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *Repository) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.slug = $1`
	p, err := scanProduct(r.db.QueryRow(ctx, query, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *Repository) ListProducts(ctx context.Context, f ListFilter, limit, offset int) ([]*Product, int, error) {
	query := `
		SELECT ` + productColumns + `, COUNT(*) OVER()
		FROM products p
		LEFT JOIN taxonomies c ON c.id = p.category_id
		WHERE ($1::text = '' OR c.slug = $1)
		  AND (NOT $2::boolean OR p.is_active)
		  AND ($3::text = '' OR p.name ILIKE '%' || $3 || '%' ESCAPE '\')
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.db.Query(ctx, query, f.CategorySlug, f.ActiveOnly, escapeLike(f.Search), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return dbx.CollectWithTotal(rows, scanProduct)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ListSimilar returns active products whose gsm and price both fall within
// SimilarTolerance of p's. A nil gsm on p skips the gsm band.
func (r *Repository) ListSimilar(ctx context.Context, p *Product, limit int) ([]*Product, error) {
	gsmLo, gsmHi := band(p.GSM)
	price := float64(p.PriceCents)
	query := `
		SELECT ` + productColumns + `
		FROM products p
		WHERE p.id <> $1
		  AND p.is_active
		  AND ($2::double precision IS NULL OR p.gsm BETWEEN $2 AND $3)
		  AND p.price_cents BETWEEN $4 AND $5
		ORDER BY abs(p.price_cents - $6), p.id
		LIMIT $7`
	rows, err := r.db.Query(ctx, query,
		p.ID, gsmLo, gsmHi,
		int64(price*(1-SimilarTolerance)), int64(price*(1+SimilarTolerance)),
		p.PriceCents, limit)
	if err != nil {
		return nil, fmt.Errorf("list similar products: %w", err)
	}
	return dbx.Collect(rows, scanProduct)
}

func band(v *float64) (lo, hi *float64) {
	if v == nil {
		return nil, nil
	}
	l, h := *v*(1-SimilarTolerance), *v*(1+SimilarTolerance)
	return &l, &h
}

func (r *Repository) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	query := `
		UPDATE products AS p
		SET name = $1, slug = $2, description = $3, category_id = $4, color_id = $5,
		    content_id = $6, design_id = $7, groupcode_id = $8, gsm = $9, width_cm = $10,
		    price_cents = $11, image_urls = $12, is_active = $13, updated_at = now()
		WHERE p.id = $14
		RETURNING ` + productColumns
	updated, err := scanProduct(r.db.QueryRow(ctx, query,
		p.Name, p.Slug, p.Description, p.CategoryID, p.ColorID, p.ContentID, p.DesignID,
		p.GroupcodeID, p.GSM, p.WidthCM, p.PriceCents, p.ImageURLs, p.IsActive, p.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, writeErr("update product", p, err)
	}
	return updated, nil
}

// DeleteProduct removes the product; its SEO rows cascade.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
