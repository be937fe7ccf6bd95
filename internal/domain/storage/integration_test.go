package storage

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"vastra/internal/db"
	"vastra/internal/domain/geo"
	"vastra/internal/domain/products"
	"vastra/internal/domain/seo"
	"vastra/internal/domain/taxonomies"
	"vastra/internal/domain/topicpages"
	"vastra/internal/slug"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mustTestPool migrates a throwaway schema and returns a pool pinned to it.
func mustTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url, ok := os.LookupEnv("TEST_DATABASE_URL")
	if !ok || strings.TrimSpace(url) == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	ctx := context.Background()

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	admin, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize())
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
		admin.Close()
	})

	require.NoError(t, db.Migrate(ctx, pool, zap.NewNop().Sugar()))
	return pool
}

func newIntegrationAssigner(t *testing.T, c *Container) *slug.Assigner {
	t.Helper()
	reg, err := NewSlugRegistry("")
	require.NoError(t, err)
	return slug.NewAssigner(reg, c.Slugs)
}

func TestIntegration_CitySlugScenario(t *testing.T) {
	pool := mustTestPool(t)
	ctx := context.Background()
	c := NewContainer(pool)
	a := newIntegrationAssigner(t, c)

	country, err := c.Geo.CreateCountry(ctx, &geo.Country{Name: "India", Slug: "india"})
	require.NoError(t, err)
	stateX, err := c.Geo.CreateState(ctx, &geo.State{CountryID: country.ID, Name: "X", Slug: "x"})
	require.NoError(t, err)
	stateY, err := c.Geo.CreateState(ctx, &geo.State{CountryID: country.ID, Name: "Y", Slug: "y"})
	require.NoError(t, err)

	createCity := func(stateID int64, name string) *geo.City {
		city := &geo.City{StateID: stateID, Name: name}
		var created *geo.City
		_, err := a.Save(ctx, EntityCity, slug.Input{Name: name, Refs: slug.Scope{"state_id": stateID}},
			func(ctx context.Context, s string) error {
				city.Slug = s
				var err error
				created, err = c.Geo.CreateCity(ctx, city)
				return err
			})
		require.NoError(t, err)
		return created
	}

	first := createCity(stateX.ID, "Mumbai")
	assert.Equal(t, "mumbai", first.Slug)
	assert.Equal(t, "mumbai", createCity(stateY.ID, "Mumbai").Slug)
	second := createCity(stateX.ID, "Mumbai")
	assert.Equal(t, "mumbai-1", second.Slug)

	second.Name = "Mumbai Central"
	_, err = a.Save(ctx, EntityCity, slug.Input{
		ID: &second.ID, Name: second.Name, CurrentSlug: second.Slug, NameChanged: true,
		Refs: slug.Scope{"state_id": second.StateID},
	}, func(ctx context.Context, s string) error {
		second.Slug = s
		_, err := c.Geo.UpdateCity(ctx, second)
		return err
	})
	require.NoError(t, err)

	got, err := c.Geo.GetCityByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "mumbai-central", got.Slug)

	got, err = c.Geo.GetCityByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "mumbai", got.Slug)

	assert.ErrorIs(t, c.Geo.DeleteState(ctx, stateX.ID), geo.ErrHasChildren)
}

func TestIntegration_UniqueIndexBacksConcurrentCreates(t *testing.T) {
	pool := mustTestPool(t)
	ctx := context.Background()
	c := NewContainer(pool)
	a := newIntegrationAssigner(t, c)

	const writers = 8
	var wg sync.WaitGroup
	slugs := make([]string, writers)
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			slugs[i], errs[i] = a.Save(ctx, EntityProduct, slug.Input{Name: "Pure Silk"},
				func(ctx context.Context, s string) error {
					_, err := c.Products.CreateProduct(ctx, &products.Product{Name: "Pure Silk", Slug: s, IsActive: true})
					return err
				})
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := range slugs {
		if errs[i] != nil {
			// Only exhausted persist retries are acceptable under contention.
			assert.ErrorIs(t, errs[i], slug.ErrDuplicateKey)
			continue
		}
		assert.False(t, seen[slugs[i]], "slug %q assigned twice", slugs[i])
		seen[slugs[i]] = true
	}
	assert.NotEmpty(t, seen)
}

func TestIntegration_NameUniqueness(t *testing.T) {
	pool := mustTestPool(t)
	ctx := context.Background()
	c := NewContainer(pool)
	a := newIntegrationAssigner(t, c)

	save := func(name string) error {
		_, err := a.Save(ctx, EntityCountry, slug.Input{Name: name}, func(ctx context.Context, s string) error {
			_, err := c.Geo.CreateCountry(ctx, &geo.Country{Name: name, Slug: s})
			return err
		})
		return err
	}

	require.NoError(t, save("Nepal"))
	var ve *slug.ValidationError
	assert.ErrorAs(t, save("NEPAL"), &ve)
}

func TestIntegration_ReferenceGuards(t *testing.T) {
	pool := mustTestPool(t)
	ctx := context.Background()
	c := NewContainer(pool)

	silk, err := c.Taxonomies.Create(ctx, &taxonomies.Taxonomy{Kind: taxonomies.KindCategory, Name: "Silk", Slug: "silk", IsActive: true})
	require.NoError(t, err)
	p, err := c.Products.CreateProduct(ctx, &products.Product{Name: "Banarasi", Slug: "banarasi", CategoryID: &silk.ID, IsActive: true})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Taxonomies.Delete(ctx, taxonomies.KindCategory, silk.ID), taxonomies.ErrInUse)
	assert.ErrorIs(t, c.Taxonomies.Delete(ctx, taxonomies.KindColor, silk.ID), taxonomies.ErrTaxonomyNotFound)

	missing := int64(987654)
	_, err = c.Seo.Create(ctx, &seo.Entry{ProductID: &missing, Title: "Ghost", Slug: "ghost"})
	assert.ErrorIs(t, err, seo.ErrProductNotFound)
	_, err = c.Seo.Create(ctx, &seo.Entry{ProductID: &p.ID, Title: "Banarasi Guide", Slug: "banarasi-guide"})
	require.NoError(t, err)

	country, err := c.Geo.CreateCountry(ctx, &geo.Country{Name: "India", Slug: "india"})
	require.NoError(t, err)
	state, err := c.Geo.CreateState(ctx, &geo.State{CountryID: country.ID, Name: "Maharashtra", Slug: "maharashtra"})
	require.NoError(t, err)
	city, err := c.Geo.CreateCity(ctx, &geo.City{StateID: state.ID, Name: "Mumbai", Slug: "mumbai"})
	require.NoError(t, err)
	area, err := c.Geo.CreateArea(ctx, &geo.Area{CityID: city.ID, Name: "Bandra", Slug: "bandra"})
	require.NoError(t, err)
	_, err = c.Geo.CreateLocation(ctx, &geo.Location{CityID: city.ID, AreaID: &area.ID, Name: "Hill Road", Slug: "hill-road"})
	require.NoError(t, err)

	_, err = c.Geo.CreateArea(ctx, &geo.Area{CityID: missing, Name: "Nowhere", Slug: "nowhere"})
	assert.ErrorIs(t, err, geo.ErrInvalidParent)

	var ve *slug.ValidationError
	_, err = c.Geo.CreateArea(ctx, &geo.Area{CityID: city.ID, Name: "BANDRA", Slug: "bandra-west"})
	assert.ErrorAs(t, err, &ve)

	assert.ErrorIs(t, c.Geo.DeleteArea(ctx, area.ID), geo.ErrHasChildren)
	assert.ErrorIs(t, c.Geo.DeleteCity(ctx, city.ID), geo.ErrHasChildren)
	assert.ErrorIs(t, c.Geo.DeleteCountry(ctx, country.ID), geo.ErrHasChildren)
}

func TestIntegration_TopicPages(t *testing.T) {
	pool := mustTestPool(t)
	ctx := context.Background()
	c := NewContainer(pool)
	a := newIntegrationAssigner(t, c)

	create := func(name string, active bool) *topicpages.Page {
		page := &topicpages.Page{Name: name, IsActive: active}
		var created *topicpages.Page
		_, err := a.Save(ctx, EntityTopicPage, slug.Input{Name: name}, func(ctx context.Context, s string) error {
			page.Slug = s
			var err error
			created, err = c.TopicPages.Create(ctx, page)
			return err
		})
		require.NoError(t, err)
		return created
	}

	first := create("Festive Edit", true)
	second := create("Festive Edit", false)
	assert.Equal(t, "festive-edit", first.Slug)
	assert.Equal(t, "festive-edit-1", second.Slug)

	active, total, err := c.TopicPages.List(ctx, true, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	require.NoError(t, c.TopicPages.Delete(ctx, second.ID))
	assert.ErrorIs(t, c.TopicPages.Delete(ctx, second.ID), topicpages.ErrPageNotFound)
	_, err = c.TopicPages.GetBySlug(ctx, "festive-edit-1")
	assert.ErrorIs(t, err, topicpages.ErrPageNotFound)
}

func TestIntegration_ProductSearchIsLiteral(t *testing.T) {
	pool := mustTestPool(t)
	ctx := context.Background()
	c := NewContainer(pool)

	for _, p := range []*products.Product{
		{Name: "Pure Silk", Slug: "pure-silk", IsActive: true},
		{Name: "Linen_Blend", Slug: "linen-blend", IsActive: true},
		{Name: "100% Cotton", Slug: "100-cotton", IsActive: true},
	} {
		_, err := c.Products.CreateProduct(ctx, p)
		require.NoError(t, err)
	}

	got, total, err := c.Products.ListProducts(ctx, products.ListFilter{Search: "_", ActiveOnly: true}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "linen-blend", got[0].Slug)

	got, _, err = c.Products.ListProducts(ctx, products.ListFilter{Search: "%", ActiveOnly: true}, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100-cotton", got[0].Slug)
}
