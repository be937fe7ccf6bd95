package main

import (
	"fmt"
	"net/http"
	"testing"

	"vastra/internal/domain/products"
	"vastra/internal/domain/seo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ta *testApp) createProduct(t *testing.T, name string) products.Product {
	t.Helper()

	rr := ta.do(t, http.MethodPost, "/v1/admin/products", map[string]any{"name": name}, true)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var p products.Product
	decodeData(t, rr, &p)
	return p
}

func TestCreateSeoSlugDerivesFromTitle(t *testing.T) {
	ta := newTestApplication(t)
	p := ta.createProduct(t, "Silk Saree")

	want := []string{"best-silk-sarees-2026", "best-silk-sarees-2026-1"}
	for _, w := range want {
		rr := ta.do(t, http.MethodPost, "/v1/admin/seo", map[string]any{
			"title":      "  Best Silk Sarees 2026 ",
			"product_id": p.ID,
			"keywords":   []string{"silk", "saree"},
		}, true)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var e seo.Entry
		decodeData(t, rr, &e)
		assert.Equal(t, w, e.Slug)
		assert.Equal(t, "Best Silk Sarees 2026", e.Title)
		assert.Equal(t, "/v1/seo/"+w, rr.Header().Get("Location"))
	}

	rr := ta.do(t, http.MethodGet, "/v1/seo/best-silk-sarees-2026-1", nil, false)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ta.do(t, http.MethodGet, "/v1/products/silk-saree/seo", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []seo.Entry
	decodeData(t, rr, &entries)
	assert.Len(t, entries, 2)
}

func TestCreateSeoUnknownProduct(t *testing.T) {
	ta := newTestApplication(t)

	rr := ta.do(t, http.MethodPost, "/v1/admin/seo", map[string]any{"title": "Cotton Guide", "product_id": 404}, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
	assert.Empty(t, ta.seo.rows)

	rr = ta.do(t, http.MethodPost, "/v1/admin/seo", map[string]any{"description": "no title"}, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateSeoSlugFollowsTitle(t *testing.T) {
	ta := newTestApplication(t)

	rr := ta.do(t, http.MethodPost, "/v1/admin/seo", map[string]any{"title": "Linen Care"}, true)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var e seo.Entry
	decodeData(t, rr, &e)
	path := fmt.Sprintf("/v1/admin/seo/%d", e.ID)

	rr = ta.do(t, http.MethodPatch, path, map[string]any{"description": "Washing tips"}, true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeData(t, rr, &e)
	assert.Equal(t, "linen-care", e.Slug)

	rr = ta.do(t, http.MethodPatch, path, map[string]any{"title": "Linen Care Guide"}, true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeData(t, rr, &e)
	assert.Equal(t, "linen-care-guide", e.Slug)

	rr = ta.do(t, http.MethodPatch, path, map[string]any{"product_id": 77}, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ta.do(t, http.MethodPatch, "/v1/admin/seo/999", map[string]any{"title": "Nothing"}, true)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteSeo(t *testing.T) {
	ta := newTestApplication(t)

	rr := ta.do(t, http.MethodPost, "/v1/admin/seo", map[string]any{"title": "Velvet"}, true)
	require.Equal(t, http.StatusCreated, rr.Code)
	var e seo.Entry
	decodeData(t, rr, &e)

	rr = ta.do(t, http.MethodDelete, fmt.Sprintf("/v1/admin/seo/%d", e.ID), nil, true)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ta.do(t, http.MethodGet, "/v1/seo/velvet", nil, false)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ta.do(t, http.MethodDelete, fmt.Sprintf("/v1/admin/seo/%d", e.ID), nil, true)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
