package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vastra/internal/domain/storage"
	"vastra/internal/domain/taxonomies"
	"vastra/internal/params"
	"vastra/internal/slug"

	"github.com/go-chi/chi/v5"
)

type createTaxonomyPayload struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Slug        string  `json:"slug" validate:"max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"image_url" validate:"omitempty,imageurl"`
	IsActive    *bool   `json:"is_active"`
}

type updateTaxonomyPayload struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Slug        *string `json:"slug" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"image_url" validate:"omitempty,imageurl"`
	IsActive    *bool   `json:"is_active"`
}

func (app *application) taxonomyError(w http.ResponseWriter, r *http.Request) func(error) bool {
	return func(err error) bool {
		switch {
		case errors.Is(err, taxonomies.ErrTaxonomyNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, taxonomies.ErrInvalidKind):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, taxonomies.ErrInUse):
			app.conflictResponse(w, r, err)
		default:
			return false
		}
		return true
	}
}

func kindParam(r *http.Request) (taxonomies.Kind, error) {
	kind := taxonomies.Kind(strings.ToLower(chi.URLParam(r, "kind")))
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", taxonomies.ErrInvalidKind, kind)
	}
	return kind, nil
}

//	@Summary		List active taxonomies of a kind
//	@Tags			Taxonomies
//	@Produce		json
//	@Param			kind	path	string	true	"Taxonomy kind"
//	@Param			page	query	int	false	"Page number"
//	@Param			limit	query	int	false	"Items per page"
//	@Success		200	{object}	listResponse[taxonomies.Taxonomy]
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/taxonomies/{kind} [get]
func (app *application) listTaxonomiesHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())
	items, total, err := app.store.Taxonomies.List(ctx, kind, true, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[taxonomies.Taxonomy]{Items: items, Pagination: p})
}

//	@Summary		Get a taxonomy by slug
//	@Tags			Taxonomies
//	@Produce		json
//	@Param			kind	path	string	true	"Taxonomy kind"
//	@Param			slug	path	string	true	"Taxonomy slug"
//	@Success		200	{object}	taxonomies.Taxonomy
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/taxonomies/{kind}/{slug} [get]
func (app *application) getTaxonomyHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	t, err := app.store.Taxonomies.GetBySlug(ctx, kind, chi.URLParam(r, "slug"))
	if err == nil && !t.IsActive {
		err = taxonomies.ErrTaxonomyNotFound
	}
	if err != nil {
		if !app.taxonomyError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, t)
}

//	@Summary		Create a taxonomy
//	@Description	Names and slugs are unique per kind.
//	@Tags			Taxonomies
//	@Accept			json
//	@Produce		json
//	@Param			kind	path	string	true	"Taxonomy kind"
//	@Param			payload	body	createTaxonomyPayload	true	"Taxonomy details"
//	@Success		201	{object}	taxonomies.Taxonomy
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/taxonomies/{kind} [post]
func (app *application) createTaxonomyHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload createTaxonomyPayload
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

	t := &taxonomies.Taxonomy{
		Kind:        kind,
		Name:        strings.TrimSpace(payload.Name),
		Description: payload.Description,
		ImageURL:    payload.ImageURL,
		IsActive:    payload.IsActive == nil || *payload.IsActive,
	}

	var created *taxonomies.Taxonomy
	_, err = app.slugs.Save(ctx, storage.EntityTaxonomy, slug.Input{
		Name: t.Name,
		Slug: payload.Slug,
		Refs: slug.Scope{"kind": string(kind)},
	}, func(ctx context.Context, s string) error {
		t.Slug = s
		out, err := app.store.Taxonomies.Create(ctx, t)
		if err != nil {
			return err
		}
		created = out
		return nil
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.taxonomyError(w, r))
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/taxonomies/%s/%s", kind, created.Slug))
	app.jsonResponse(w, http.StatusCreated, created)
}

//	@Summary		Update a taxonomy
//	@Tags			Taxonomies
//	@Accept			json
//	@Produce		json
//	@Param			kind	path	string	true	"Taxonomy kind"
//	@Param			taxonomyID	path	int64	true	"Taxonomy ID"
//	@Param			payload	body	updateTaxonomyPayload	true	"Fields to update"
//	@Success		200	{object}	taxonomies.Taxonomy
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/taxonomies/{kind}/{taxonomyID} [patch]
func (app *application) updateTaxonomyHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	id, err := idParam(r, "taxonomyID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateTaxonomyPayload
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

	existing, err := app.store.Taxonomies.GetByID(ctx, kind, id)
	if err != nil {
		if !app.taxonomyError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	t := *existing
	nameChanged := false
	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		nameChanged = name != existing.Name
		t.Name = name
	}
	if payload.Description != nil {
		t.Description = payload.Description
	}
	if payload.ImageURL != nil {
		t.ImageURL = payload.ImageURL
	}
	if payload.IsActive != nil {
		t.IsActive = *payload.IsActive
	}

	in := slug.Input{
		ID:          &t.ID,
		Name:        t.Name,
		CurrentSlug: existing.Slug,
		NameChanged: nameChanged,
		Refs:        slug.Scope{"kind": string(kind)},
	}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}

	var updated *taxonomies.Taxonomy
	_, err = app.slugs.Save(ctx, storage.EntityTaxonomy, in, func(ctx context.Context, s string) error {
		t.Slug = s
		out, err := app.store.Taxonomies.Update(ctx, &t)
		if err != nil {
			return err
		}
		updated = out
		return nil
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.taxonomyError(w, r))
		return
	}

	if existing.ImageURL != nil && (updated.ImageURL == nil || *updated.ImageURL != *existing.ImageURL) {
		app.cleanupPhotos([]string{*existing.ImageURL})
	}
	app.jsonResponse(w, http.StatusOK, updated)
}

//	@Summary		Delete a taxonomy
//	@Description	Fails with 409 while products reference the taxonomy.
//	@Tags			Taxonomies
//	@Produce		json
//	@Param			kind	path	string	true	"Taxonomy kind"
//	@Param			taxonomyID	path	int64	true	"Taxonomy ID"
//	@Success		204	"No Content"
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/taxonomies/{kind}/{taxonomyID} [delete]
func (app *application) deleteTaxonomyHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	id, err := idParam(r, "taxonomyID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := app.store.Taxonomies.Delete(ctx, kind, id); err != nil {
		if !app.taxonomyError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
