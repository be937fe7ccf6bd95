package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"vastra/internal/auth"
	"vastra/internal/config"
	"vastra/internal/domain/geo"
	"vastra/internal/domain/products"
	"vastra/internal/domain/seo"
	"vastra/internal/domain/storage"
	"vastra/internal/domain/taxonomies"
	"vastra/internal/domain/topicpages"
	"vastra/internal/slug"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errUniqueSlug = errors.Join(slug.ErrDuplicateKey, errors.New(`duplicate key value violates unique constraint "products_slug_key"`))

// fakeProducts keeps products in memory and enforces the global slug index.
type fakeProducts struct {
	products.Store

	mu     sync.Mutex
	rows   map[int64]*products.Product
	nextID int64
}

func (f *fakeProducts) slugTaken(s string, excludeID *int64) bool {
	for _, p := range f.rows {
		if p.Slug == s && (excludeID == nil || p.ID != *excludeID) {
			return true
		}
	}
	return false
}

func (f *fakeProducts) CreateProduct(_ context.Context, p *products.Product) (*products.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slugTaken(p.Slug, nil) {
		return nil, fmt.Errorf("create product: %w", errUniqueSlug)
	}
	f.nextID++
	out := *p
	out.ID = f.nextID
	f.rows[out.ID] = &out
	cp := out
	return &cp, nil
}

func (f *fakeProducts) GetProductByID(_ context.Context, id int64) (*products.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, products.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) GetProductBySlug(_ context.Context, s string) (*products.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.Slug == s {
			cp := *p
			return &cp, nil
		}
	}
	return nil, products.ErrProductNotFound
}

func (f *fakeProducts) UpdateProduct(_ context.Context, p *products.Product) (*products.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[p.ID]; !ok {
		return nil, products.ErrProductNotFound
	}
	if f.slugTaken(p.Slug, &p.ID) {
		return nil, fmt.Errorf("update product: %w", errUniqueSlug)
	}
	cp := *p
	f.rows[p.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeProducts) DeleteProduct(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return products.ErrProductNotFound
	}
	delete(f.rows, id)
	return nil
}

// fakeTaxonomies keeps taxonomies in memory, slugs and names unique per kind.
// It starts with the category "Sarees" (id 1), which products reference.
type fakeTaxonomies struct {
	taxonomies.Store

	mu     sync.Mutex
	rows   map[int64]*taxonomies.Taxonomy
	inUse  map[int64]bool
	nextID int64
}

func newFakeTaxonomies() *fakeTaxonomies {
	return &fakeTaxonomies{
		rows: map[int64]*taxonomies.Taxonomy{
			1: {ID: 1, Kind: taxonomies.KindCategory, Name: "Sarees", Slug: "sarees", IsActive: true},
		},
		inUse:  map[int64]bool{1: true},
		nextID: 1,
	}
}

func (f *fakeTaxonomies) slugTaken(kind taxonomies.Kind, s string, excludeID *int64) bool {
	for _, t := range f.rows {
		if t.Kind == kind && t.Slug == s && (excludeID == nil || t.ID != *excludeID) {
			return true
		}
	}
	return false
}

func (f *fakeTaxonomies) nameTaken(kind taxonomies.Kind, name string, excludeID *int64) bool {
	for _, t := range f.rows {
		if t.Kind == kind && strings.EqualFold(t.Name, name) && (excludeID == nil || t.ID != *excludeID) {
			return true
		}
	}
	return false
}

func (f *fakeTaxonomies) Create(_ context.Context, t *taxonomies.Taxonomy) (*taxonomies.Taxonomy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slugTaken(t.Kind, t.Slug, nil) {
		return nil, fmt.Errorf("create taxonomy: %w", slug.ErrDuplicateKey)
	}
	f.nextID++
	out := *t
	out.ID = f.nextID
	f.rows[out.ID] = &out
	cp := out
	return &cp, nil
}

func (f *fakeTaxonomies) GetByID(_ context.Context, kind taxonomies.Kind, id int64) (*taxonomies.Taxonomy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok || t.Kind != kind {
		return nil, taxonomies.ErrTaxonomyNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTaxonomies) GetBySlug(_ context.Context, kind taxonomies.Kind, s string) (*taxonomies.Taxonomy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.rows {
		if t.Kind == kind && t.Slug == s {
			cp := *t
			return &cp, nil
		}
	}
	return nil, taxonomies.ErrTaxonomyNotFound
}

func (f *fakeTaxonomies) Update(_ context.Context, t *taxonomies.Taxonomy) (*taxonomies.Taxonomy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[t.ID]; !ok {
		return nil, taxonomies.ErrTaxonomyNotFound
	}
	if f.slugTaken(t.Kind, t.Slug, &t.ID) {
		return nil, fmt.Errorf("update taxonomy: %w", slug.ErrDuplicateKey)
	}
	cp := *t
	f.rows[t.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeTaxonomies) Delete(_ context.Context, kind taxonomies.Kind, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok || t.Kind != kind {
		return taxonomies.ErrTaxonomyNotFound
	}
	if f.inUse[id] {
		return taxonomies.ErrInUse
	}
	delete(f.rows, id)
	return nil
}

// fakeSeo keeps SEO entries with a global slug index and checks the product
// reference the way the foreign key does.
type fakeSeo struct {
	seo.Store

	products *fakeProducts

	mu     sync.Mutex
	rows   map[int64]*seo.Entry
	nextID int64
}

func (f *fakeSeo) slugTaken(s string, excludeID *int64) bool {
	for _, e := range f.rows {
		if e.Slug == s && (excludeID == nil || e.ID != *excludeID) {
			return true
		}
	}
	return false
}

func (f *fakeSeo) productExists(id *int64) bool {
	if id == nil {
		return true
	}
	f.products.mu.Lock()
	defer f.products.mu.Unlock()
	_, ok := f.products.rows[*id]
	return ok
}

func (f *fakeSeo) Create(_ context.Context, e *seo.Entry) (*seo.Entry, error) {
	if !f.productExists(e.ProductID) {
		return nil, fmt.Errorf("create seo entry: %w", seo.ErrProductNotFound)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slugTaken(e.Slug, nil) {
		return nil, fmt.Errorf("create seo entry: %w", slug.ErrDuplicateKey)
	}
	f.nextID++
	out := *e
	out.ID = f.nextID
	f.rows[out.ID] = &out
	cp := out
	return &cp, nil
}

func (f *fakeSeo) GetByID(_ context.Context, id int64) (*seo.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok {
		return nil, seo.ErrEntryNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeSeo) GetBySlug(_ context.Context, s string) (*seo.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.Slug == s {
			cp := *e
			return &cp, nil
		}
	}
	return nil, seo.ErrEntryNotFound
}

func (f *fakeSeo) ListByProduct(_ context.Context, productID int64) ([]*seo.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*seo.Entry
	for _, e := range f.rows {
		if e.ProductID != nil && *e.ProductID == productID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSeo) Update(_ context.Context, e *seo.Entry) (*seo.Entry, error) {
	if !f.productExists(e.ProductID) {
		return nil, fmt.Errorf("update seo entry: %w", seo.ErrProductNotFound)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[e.ID]; !ok {
		return nil, seo.ErrEntryNotFound
	}
	if f.slugTaken(e.Slug, &e.ID) {
		return nil, fmt.Errorf("update seo entry: %w", slug.ErrDuplicateKey)
	}
	cp := *e
	f.rows[e.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeSeo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return seo.ErrEntryNotFound
	}
	delete(f.rows, id)
	return nil
}

// fakeTopicPages keeps topic pages with a global slug index.
type fakeTopicPages struct {
	topicpages.Store

	mu     sync.Mutex
	rows   map[int64]*topicpages.Page
	nextID int64
}

func (f *fakeTopicPages) slugTaken(s string, excludeID *int64) bool {
	for _, p := range f.rows {
		if p.Slug == s && (excludeID == nil || p.ID != *excludeID) {
			return true
		}
	}
	return false
}

func (f *fakeTopicPages) Create(_ context.Context, p *topicpages.Page) (*topicpages.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slugTaken(p.Slug, nil) {
		return nil, fmt.Errorf("create topic page: %w", slug.ErrDuplicateKey)
	}
	f.nextID++
	out := *p
	out.ID = f.nextID
	f.rows[out.ID] = &out
	cp := out
	return &cp, nil
}

func (f *fakeTopicPages) GetByID(_ context.Context, id int64) (*topicpages.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, topicpages.ErrPageNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeTopicPages) GetBySlug(_ context.Context, s string) (*topicpages.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.Slug == s {
			cp := *p
			return &cp, nil
		}
	}
	return nil, topicpages.ErrPageNotFound
}

func (f *fakeTopicPages) List(_ context.Context, activeOnly bool, limit, offset int) ([]*topicpages.Page, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*topicpages.Page
	for id := int64(1); id <= f.nextID; id++ {
		p, ok := f.rows[id]
		if !ok || (activeOnly && !p.IsActive) {
			continue
		}
		cp := *p
		all = append(all, &cp)
	}
	total := len(all)
	if offset >= total {
		return []*topicpages.Page{}, total, nil
	}
	return all[offset:min(offset+limit, total)], total, nil
}

func (f *fakeTopicPages) Update(_ context.Context, p *topicpages.Page) (*topicpages.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[p.ID]; !ok {
		return nil, topicpages.ErrPageNotFound
	}
	if f.slugTaken(p.Slug, &p.ID) {
		return nil, fmt.Errorf("update topic page: %w", slug.ErrDuplicateKey)
	}
	cp := *p
	f.rows[p.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeTopicPages) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return topicpages.ErrPageNotFound
	}
	delete(f.rows, id)
	return nil
}

// fakeGeo stores countries, cities, areas and locations. City slugs are
// scoped by state, area and location slugs by city. Areas and locations
// require an existing city, and deletes refuse while children exist.
type fakeGeo struct {
	geo.Store

	mu        sync.Mutex
	countries map[int64]*geo.Country
	cities    map[int64]*geo.City
	areas     map[int64]*geo.Area
	locations map[int64]*geo.Location
	nextID    int64
}

func newFakeGeo() *fakeGeo {
	return &fakeGeo{
		countries: map[int64]*geo.Country{},
		cities:    map[int64]*geo.City{},
		areas:     map[int64]*geo.Area{},
		locations: map[int64]*geo.Location{},
	}
}

func (f *fakeGeo) CreateCountry(_ context.Context, c *geo.Country) (*geo.Country, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.countries {
		if other.Slug == c.Slug {
			return nil, fmt.Errorf("create country: %w", slug.ErrDuplicateKey)
		}
	}
	f.nextID++
	out := *c
	out.ID = f.nextID
	f.countries[out.ID] = &out
	cp := out
	return &cp, nil
}

func (f *fakeGeo) CreateCity(_ context.Context, c *geo.City) (*geo.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.cities {
		if other.StateID == c.StateID && other.Slug == c.Slug {
			return nil, fmt.Errorf("create city: %w", slug.ErrDuplicateKey)
		}
	}
	f.nextID++
	out := *c
	out.ID = f.nextID
	f.cities[out.ID] = &out
	cp := out
	return &cp, nil
}

func (f *fakeGeo) DeleteCity(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cities[id]; !ok {
		return geo.ErrCityNotFound
	}
	for _, a := range f.areas {
		if a.CityID == id {
			return geo.ErrHasChildren
		}
	}
	for _, l := range f.locations {
		if l.CityID == id {
			return geo.ErrHasChildren
		}
	}
	delete(f.cities, id)
	return nil
}

func (f *fakeGeo) CreateArea(_ context.Context, a *geo.Area) (*geo.Area, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cities[a.CityID]; !ok {
		return nil, fmt.Errorf("create area: %w", geo.ErrInvalidParent)
	}
	for _, other := range f.areas {
		if other.CityID == a.CityID && other.Slug == a.Slug {
			return nil, fmt.Errorf("create area: %w", slug.ErrDuplicateKey)
		}
	}
	f.nextID++
	out := *a
	out.ID = f.nextID
	f.areas[out.ID] = &out
	cp := out
	return &cp, nil
}

func (f *fakeGeo) GetAreaByID(_ context.Context, id int64) (*geo.Area, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.areas[id]
	if !ok {
		return nil, geo.ErrAreaNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeGeo) DeleteArea(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.areas[id]; !ok {
		return geo.ErrAreaNotFound
	}
	for _, l := range f.locations {
		if l.AreaID != nil && *l.AreaID == id {
			return geo.ErrHasChildren
		}
	}
	delete(f.areas, id)
	return nil
}

func (f *fakeGeo) CreateLocation(_ context.Context, l *geo.Location) (*geo.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cities[l.CityID]; !ok {
		return nil, fmt.Errorf("create location: %w", geo.ErrInvalidParent)
	}
	for _, other := range f.locations {
		if other.CityID == l.CityID && other.Slug == l.Slug {
			return nil, fmt.Errorf("create location: %w", slug.ErrDuplicateKey)
		}
	}
	f.nextID++
	out := *l
	out.ID = f.nextID
	f.locations[out.ID] = &out
	cp := out
	return &cp, nil
}

// fakeChecker answers slug and name probes from the fake stores.
type fakeChecker struct {
	products   *fakeProducts
	seo        *fakeSeo
	taxonomies *fakeTaxonomies
	topicPages *fakeTopicPages
	geo        *fakeGeo
}

func (c *fakeChecker) SlugExists(_ context.Context, p slug.Policy, scope slug.Scope, s string, excludeID *int64) (bool, error) {
	other := func(id int64) bool { return excludeID == nil || id != *excludeID }

	switch p.Entity {
	case storage.EntityProduct:
		c.products.mu.Lock()
		defer c.products.mu.Unlock()
		return c.products.slugTaken(s, excludeID), nil
	case storage.EntitySeo:
		c.seo.mu.Lock()
		defer c.seo.mu.Unlock()
		return c.seo.slugTaken(s, excludeID), nil
	case storage.EntityTopicPage:
		c.topicPages.mu.Lock()
		defer c.topicPages.mu.Unlock()
		return c.topicPages.slugTaken(s, excludeID), nil
	case storage.EntityTaxonomy:
		c.taxonomies.mu.Lock()
		defer c.taxonomies.mu.Unlock()
		return c.taxonomies.slugTaken(taxonomies.Kind(scope["kind"].(string)), s, excludeID), nil
	}

	c.geo.mu.Lock()
	defer c.geo.mu.Unlock()
	switch p.Entity {
	case storage.EntityCountry:
		for _, country := range c.geo.countries {
			if country.Slug == s && other(country.ID) {
				return true, nil
			}
		}
		return false, nil
	case storage.EntityCity:
		for _, city := range c.geo.cities {
			if city.StateID == scope["state_id"] && city.Slug == s && other(city.ID) {
				return true, nil
			}
		}
		return false, nil
	case storage.EntityArea:
		for _, a := range c.geo.areas {
			if a.CityID == scope["city_id"] && a.Slug == s && other(a.ID) {
				return true, nil
			}
		}
		return false, nil
	case storage.EntityLocation:
		for _, l := range c.geo.locations {
			if l.CityID == scope["city_id"] && l.Slug == s && other(l.ID) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unexpected entity %q", p.Entity)
}

func (c *fakeChecker) NameExists(_ context.Context, p slug.Policy, scope slug.Scope, name string, excludeID *int64) (bool, error) {
	other := func(id int64) bool { return excludeID == nil || id != *excludeID }

	switch p.Entity {
	case storage.EntityTaxonomy:
		c.taxonomies.mu.Lock()
		defer c.taxonomies.mu.Unlock()
		return c.taxonomies.nameTaken(taxonomies.Kind(scope["kind"].(string)), name, excludeID), nil
	case storage.EntityCountry:
		c.geo.mu.Lock()
		defer c.geo.mu.Unlock()
		for _, country := range c.geo.countries {
			if strings.EqualFold(country.Name, name) && other(country.ID) {
				return true, nil
			}
		}
		return false, nil
	case storage.EntityArea:
		c.geo.mu.Lock()
		defer c.geo.mu.Unlock()
		for _, a := range c.geo.areas {
			if a.CityID == scope["city_id"] && strings.EqualFold(a.Name, name) && other(a.ID) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unexpected entity %q", p.Entity)
}

type testApp struct {
	*application
	products   *fakeProducts
	seo        *fakeSeo
	taxonomies *fakeTaxonomies
	topicPages *fakeTopicPages
	geo        *fakeGeo
	handler    http.Handler
	token      string
}

func newTestApplication(t *testing.T) *testApp {
	t.Helper()

	fp := &fakeProducts{rows: map[int64]*products.Product{}}
	fs := &fakeSeo{products: fp, rows: map[int64]*seo.Entry{}}
	ft := newFakeTaxonomies()
	fpg := &fakeTopicPages{rows: map[int64]*topicpages.Page{}}
	fg := newFakeGeo()

	registry, err := storage.NewSlugRegistry("")
	require.NoError(t, err)

	authenticator := auth.NewJWTAuthenticator("test-secret", "test-refresh", "vastra", "vastra", time.Hour, time.Hour)
	token, _, err := authenticator.GenerateTokens(7, auth.RoleAdmin)
	require.NoError(t, err)

	app := &application{
		config: config.Config{Env: "test"},
		store: &storage.Container{
			Products:   fp,
			Seo:        fs,
			Geo:        fg,
			Taxonomies: ft,
			TopicPages: fpg,
		},
		slugs: slug.NewAssigner(registry, &fakeChecker{
			products:   fp,
			seo:        fs,
			taxonomies: ft,
			topicPages: fpg,
			geo:        fg,
		}),
		logger:        zap.NewNop().Sugar(),
		authenticator: authenticator,
	}

	return &testApp{
		application: app,
		products:    fp,
		seo:         fs,
		taxonomies:  ft,
		topicPages:  fpg,
		geo:         fg,
		handler:     app.mount(),
		token:       token,
	}
}

func (ta *testApp) do(t *testing.T, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+ta.token)
	}

	rr := httptest.NewRecorder()
	ta.handler.ServeHTTP(rr, req)
	return rr
}

// decodeData unwraps the {"data": ...} envelope into dst.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(strings.NewReader(rr.Body.String())).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}
