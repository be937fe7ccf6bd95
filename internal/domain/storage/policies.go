package storage

import (
	"fmt"
	"os"

	"vastra/internal/slug"
)

// Sluggable entity types.
const (
	EntityProduct   = "product"
	EntitySeo       = "seo"
	EntityCountry   = "country"
	EntityState     = "state"
	EntityCity      = "city"
	EntityArea      = "area"
	EntityLocation  = "location"
	EntityTopicPage = "topicpage"
	EntityTaxonomy  = "taxonomy"
)

// DefaultSlugPolicies mirrors the unique indexes created by the migrations.
func DefaultSlugPolicies() []slug.Policy {
	return []slug.Policy{
		{Entity: EntityProduct, Table: "products", FallbackPrefix: "product-"},
		{Entity: EntitySeo, Table: "seo", NameColumn: "title", FallbackPrefix: "seo-"},
		{Entity: EntityCountry, Table: "countries", NameUnique: true, FallbackPrefix: "country-"},
		{Entity: EntityState, Table: "states", FallbackPrefix: "state-"},
		{Entity: EntityCity, Table: "cities", ScopeFields: []string{"state_id"}, FallbackPrefix: "city-"},
		{Entity: EntityArea, Table: "areas", ScopeFields: []string{"city_id"}, NameUnique: true, FallbackPrefix: "area-"},
		{Entity: EntityLocation, Table: "locations", ScopeFields: []string{"city_id"}, FallbackPrefix: "location-"},
		{Entity: EntityTopicPage, Table: "topic_pages", FallbackPrefix: "topic-"},
		{Entity: EntityTaxonomy, Table: "taxonomies", ScopeFields: []string{"kind"}, NameUnique: true},
	}
}

// NewSlugRegistry builds the policy table from the defaults, then applies
// overrides from policyFile when it is set.
func NewSlugRegistry(policyFile string) (*slug.Registry, error) {
	reg, err := slug.NewRegistry(DefaultSlugPolicies()...)
	if err != nil {
		return nil, err
	}
	if policyFile == "" {
		return reg, nil
	}

	f, err := os.Open(policyFile)
	if err != nil {
		return nil, fmt.Errorf("open slug policy file: %w", err)
	}
	defer f.Close()

	if err := reg.LoadYAML(f); err != nil {
		return nil, fmt.Errorf("load slug policy file %s: %w", policyFile, err)
	}
	return reg, nil
}
