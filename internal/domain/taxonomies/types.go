package taxonomies

import "time"

// Kind partitions taxonomy rows; slugs and names are unique per kind.
type Kind string

const (
	KindCategory  Kind = "category"
	KindColor     Kind = "color"
	KindContent   Kind = "content"
	KindDesign    Kind = "design"
	KindGroupcode Kind = "groupcode"
	KindFinish    Kind = "finish"
	KindWeave     Kind = "weave"
	KindPattern   Kind = "pattern"
)

var kinds = map[Kind]bool{
	KindCategory: true, KindColor: true, KindContent: true, KindDesign: true,
	KindGroupcode: true, KindFinish: true, KindWeave: true, KindPattern: true,
}

func (k Kind) Valid() bool { return kinds[k] }

// productColumn is the products column referencing this kind, "" if none.
func (k Kind) productColumn() string {
	switch k {
	case KindCategory:
		return "category_id"
	case KindColor:
		return "color_id"
	case KindContent:
		return "content_id"
	case KindDesign:
		return "design_id"
	case KindGroupcode:
		return "groupcode_id"
	}
	return ""
}

type Taxonomy struct {
	ID          int64     `json:"id"`
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
