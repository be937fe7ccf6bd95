package products

import "time"

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	CategoryID  *int64    `json:"category_id,omitempty"`
	ColorID     *int64    `json:"color_id,omitempty"`
	ContentID   *int64    `json:"content_id,omitempty"`
	DesignID    *int64    `json:"design_id,omitempty"`
	GroupcodeID *int64    `json:"groupcode_id,omitempty"`
	GSM         *float64  `json:"gsm,omitempty"`
	WidthCM     *float64  `json:"width_cm,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	ImageURLs   []string  `json:"image_urls"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilter narrows ListProducts. Zero values mean "any".
type ListFilter struct {
	CategorySlug string
	ActiveOnly   bool
	Search       string
}

// SimilarTolerance is the relative band used by ListSimilar on gsm and price.
const SimilarTolerance = 0.15
