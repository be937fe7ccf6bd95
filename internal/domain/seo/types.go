package seo

import "time"

// Entry is SEO metadata for a landing URL. Its slug derives from Title and
// is globally unique; ProductID is an optional, non-unique link.
type Entry struct {
	ID           int64     `json:"id"`
	ProductID    *int64    `json:"product_id,omitempty"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description,omitempty"`
	Keywords     []string  `json:"keywords"`
	CanonicalURL *string   `json:"canonical_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
