package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vastra/internal/domain/products"
	"vastra/internal/domain/seo"
	"vastra/internal/domain/storage"
	"vastra/internal/domain/taxonomies"
	"vastra/internal/params"
	"vastra/internal/slug"

	"github.com/go-chi/chi/v5"
)

const (
	defaultSimilarLimit = 8
	maxSimilarLimit     = 30
)

type createProductPayload struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Slug        string   `json:"slug" validate:"max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	CategoryID  *int64   `json:"category_id" validate:"omitempty,gt=0"`
	ColorID     *int64   `json:"color_id" validate:"omitempty,gt=0"`
	ContentID   *int64   `json:"content_id" validate:"omitempty,gt=0"`
	DesignID    *int64   `json:"design_id" validate:"omitempty,gt=0"`
	GroupcodeID *int64   `json:"groupcode_id" validate:"omitempty,gt=0"`
	GSM         *float64 `json:"gsm" validate:"omitempty,gt=0"`
	WidthCM     *float64 `json:"width_cm" validate:"omitempty,gt=0"`
	PriceCents  int64    `json:"price_cents" validate:"gte=0"`
	ImageURLs   []string `json:"image_urls" validate:"max=10,dive,imageurl"`
	IsActive    *bool    `json:"is_active"`
}

// updateProductPayload only touches the fields that are present.
type updateProductPayload struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=200"`
	Slug        *string   `json:"slug" validate:"omitempty,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	CategoryID  *int64    `json:"category_id" validate:"omitempty,gt=0"`
	ColorID     *int64    `json:"color_id" validate:"omitempty,gt=0"`
	ContentID   *int64    `json:"content_id" validate:"omitempty,gt=0"`
	DesignID    *int64    `json:"design_id" validate:"omitempty,gt=0"`
	GroupcodeID *int64    `json:"groupcode_id" validate:"omitempty,gt=0"`
	GSM         *float64  `json:"gsm" validate:"omitempty,gt=0"`
	WidthCM     *float64  `json:"width_cm" validate:"omitempty,gt=0"`
	PriceCents  *int64    `json:"price_cents" validate:"omitempty,gte=0"`
	ImageURLs   *[]string `json:"image_urls" validate:"omitempty,max=10,dive,imageurl"`
	IsActive    *bool     `json:"is_active"`
}

// productError answers product store errors that are not slug related.
func (app *application) productError(w http.ResponseWriter, r *http.Request) func(error) bool {
	return func(err error) bool {
		switch {
		case errors.Is(err, products.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, products.ErrInvalidTaxonomy), errors.Is(err, taxonomies.ErrTaxonomyNotFound):
			app.badRequestResponse(w, r, err)
		default:
			return false
		}
		return true
	}
}

// checkProductTaxonomies verifies that every referenced taxonomy row exists
// and is of the kind its column expects.
func (app *application) checkProductTaxonomies(ctx context.Context, p *products.Product) error {
	refs := []struct {
		kind taxonomies.Kind
		id   *int64
	}{
		{taxonomies.KindCategory, p.CategoryID},
		{taxonomies.KindColor, p.ColorID},
		{taxonomies.KindContent, p.ContentID},
		{taxonomies.KindDesign, p.DesignID},
		{taxonomies.KindGroupcode, p.GroupcodeID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		if _, err := app.store.Taxonomies.GetByID(ctx, ref.kind, *ref.id); err != nil {
			if errors.Is(err, taxonomies.ErrTaxonomyNotFound) {
				return fmt.Errorf("%s %d: %w", ref.kind, *ref.id, err)
			}
			return err
		}
	}
	return nil
}

//	@Summary		List active products
//	@Tags			Products
//	@Produce		json
//	@Param			category	query	string	false	"Category slug"
//	@Param			q	query	string	false	"Name search"
//	@Param			page	query	int	false	"Page number"
//	@Param			limit	query	int	false	"Items per page"
//	@Success		200	{object}	listResponse[products.Product]
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	p := params.ParsePagination(q)
	filter := products.ListFilter{
		CategorySlug: strings.TrimSpace(q.Get("category")),
		Search:       strings.TrimSpace(q.Get("q")),
		ActiveOnly:   true,
	}

	items, total, err := app.store.Products.ListProducts(ctx, filter, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[products.Product]{Items: items, Pagination: p})
}

// activeProductBySlug loads a product visible to the public catalogue.
func (app *application) activeProductBySlug(ctx context.Context, s string) (*products.Product, error) {
	p, err := app.store.Products.GetProductBySlug(ctx, s)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, products.ErrProductNotFound
	}
	return p, nil
}

//	@Summary		Get a product by slug
//	@Tags			Products
//	@Produce		json
//	@Param			slug	path	string	true	"Product slug"
//	@Success		200	{object}	products.Product
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/products/{slug} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := app.activeProductBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if !app.productError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, p)
}

//	@Summary		List similar products
//	@Description	Active products whose gsm and price are within 15% of the given product.
//	@Tags			Products
//	@Produce		json
//	@Param			slug	path	string	true	"Product slug"
//	@Param			limit	query	int	false	"Max results (default 8, max 30)"
//	@Success		200	{array}	products.Product
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/products/{slug}/similar [get]
func (app *application) listSimilarProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	limit := defaultSimilarLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			app.badRequestResponse(w, r, fmt.Errorf("invalid limit: %q", raw))
			return
		}
		limit = min(n, maxSimilarLimit)
	}

	p, err := app.activeProductBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if !app.productError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	similar, err := app.store.Products.ListSimilar(ctx, p, limit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, similar)
}

//	@Summary		List SEO entries of a product
//	@Tags			Products
//	@Produce		json
//	@Param			slug	path	string	true	"Product slug"
//	@Success		200	{array}	seo.Entry
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/products/{slug}/seo [get]
func (app *application) listProductSeoHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := app.activeProductBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if !app.productError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	entries, err := app.store.Seo.ListByProduct(ctx, p.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*seo.Entry{}
	}

	app.jsonResponse(w, http.StatusOK, entries)
}

//	@Summary		Create a product
//	@Description	The slug is derived from the name unless one is supplied, and suffixed until unique.
//	@Tags			Products
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	createProductPayload	true	"Product details"
//	@Success		201	{object}	products.Product
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var payload createProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := &products.Product{
		Name:        strings.TrimSpace(payload.Name),
		Description: payload.Description,
		CategoryID:  payload.CategoryID,
		ColorID:     payload.ColorID,
		ContentID:   payload.ContentID,
		DesignID:    payload.DesignID,
		GroupcodeID: payload.GroupcodeID,
		GSM:         payload.GSM,
		WidthCM:     payload.WidthCM,
		PriceCents:  payload.PriceCents,
		ImageURLs:   payload.ImageURLs,
		IsActive:    payload.IsActive == nil || *payload.IsActive,
	}
	if err := app.checkProductTaxonomies(ctx, p); err != nil {
		app.slugSaveError(w, r, err, app.productError(w, r))
		return
	}

	var created *products.Product
	_, err := app.slugs.Save(ctx, storage.EntityProduct, slug.Input{
		Name: p.Name,
		Slug: payload.Slug,
	}, func(ctx context.Context, s string) error {
		p.Slug = s
		out, err := app.store.Products.CreateProduct(ctx, p)
		if err != nil {
			return err
		}
		created = out
		return nil
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.productError(w, r))
		return
	}

	app.logger.Infow("product created", "product_id", created.ID, "slug", created.Slug, "by", subjectFromContext(r))
	w.Header().Set("Location", "/v1/products/"+created.Slug)
	app.jsonResponse(w, http.StatusCreated, created)
}

//	@Summary		Update a product
//	@Tags			Products
//	@Accept			json
//	@Produce		json
//	@Param			productID	path	int64	true	"Product ID"
//	@Param			payload	body	updateProductPayload	true	"Fields to update"
//	@Success		200	{object}	products.Product
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/products/{productID} [patch]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	existing, err := app.store.Products.GetProductByID(ctx, id)
	if err != nil {
		if !app.productError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}
	oldImages := existing.ImageURLs

	p := *existing
	nameChanged := false
	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		nameChanged = name != existing.Name
		p.Name = name
	}
	if payload.Description != nil {
		p.Description = payload.Description
	}
	if payload.CategoryID != nil {
		p.CategoryID = payload.CategoryID
	}
	if payload.ColorID != nil {
		p.ColorID = payload.ColorID
	}
	if payload.ContentID != nil {
		p.ContentID = payload.ContentID
	}
	if payload.DesignID != nil {
		p.DesignID = payload.DesignID
	}
	if payload.GroupcodeID != nil {
		p.GroupcodeID = payload.GroupcodeID
	}
	if payload.GSM != nil {
		p.GSM = payload.GSM
	}
	if payload.WidthCM != nil {
		p.WidthCM = payload.WidthCM
	}
	if payload.PriceCents != nil {
		p.PriceCents = *payload.PriceCents
	}
	if payload.ImageURLs != nil {
		p.ImageURLs = *payload.ImageURLs
	}
	if payload.IsActive != nil {
		p.IsActive = *payload.IsActive
	}
	if err := app.checkProductTaxonomies(ctx, &p); err != nil {
		app.slugSaveError(w, r, err, app.productError(w, r))
		return
	}

	in := slug.Input{
		ID:          &p.ID,
		Name:        p.Name,
		CurrentSlug: existing.Slug,
		NameChanged: nameChanged,
	}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}

	var updated *products.Product
	_, err = app.slugs.Save(ctx, storage.EntityProduct, in, func(ctx context.Context, s string) error {
		p.Slug = s
		out, err := app.store.Products.UpdateProduct(ctx, &p)
		if err != nil {
			return err
		}
		updated = out
		return nil
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.productError(w, r))
		return
	}

	app.cleanupPhotos(removedURLs(oldImages, updated.ImageURLs))
	app.jsonResponse(w, http.StatusOK, updated)
}

//	@Summary		Delete a product
//	@Description	Deletes the product and its SEO entries. Hosted images are removed in the background.
//	@Tags			Products
//	@Produce		json
//	@Param			productID	path	int64	true	"Product ID"
//	@Success		204	"No Content"
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/products/{productID} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	existing, err := app.store.Products.GetProductByID(ctx, id)
	if err != nil {
		if !app.productError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.store.Products.DeleteProduct(ctx, id); err != nil {
		if !app.productError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	app.logger.Infow("product deleted", "product_id", id, "by", subjectFromContext(r))
	app.cleanupPhotos(existing.ImageURLs)
	w.WriteHeader(http.StatusNoContent)
}
