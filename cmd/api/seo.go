package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"vastra/internal/domain/seo"
	"vastra/internal/domain/storage"
	"vastra/internal/slug"

	"github.com/go-chi/chi/v5"
)

type createSeoPayload struct {
	ProductID    *int64   `json:"product_id" validate:"omitempty,gt=0"`
	Title        string   `json:"title" validate:"required,max=200"`
	Slug         string   `json:"slug" validate:"max=200"`
	Description  *string  `json:"description" validate:"omitempty,max=1000"`
	Keywords     []string `json:"keywords" validate:"max=30,dive,min=1,max=80"`
	CanonicalURL *string  `json:"canonical_url" validate:"omitempty,url"`
}

type updateSeoPayload struct {
	ProductID    *int64    `json:"product_id" validate:"omitempty,gt=0"`
	Title        *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Slug         *string   `json:"slug" validate:"omitempty,max=200"`
	Description  *string   `json:"description" validate:"omitempty,max=1000"`
	Keywords     *[]string `json:"keywords" validate:"omitempty,max=30,dive,min=1,max=80"`
	CanonicalURL *string   `json:"canonical_url" validate:"omitempty,url"`
}

func (app *application) seoError(w http.ResponseWriter, r *http.Request) func(error) bool {
	return func(err error) bool {
		switch {
		case errors.Is(err, seo.ErrEntryNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, seo.ErrProductNotFound):
			app.badRequestResponse(w, r, err)
		default:
			return false
		}
		return true
	}
}

//	@Summary		Get an SEO entry by slug
//	@Tags			SEO
//	@Produce		json
//	@Param			slug	path	string	true	"SEO slug"
//	@Success		200	{object}	seo.Entry
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/seo/{slug} [get]
func (app *application) getSeoHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	e, err := app.store.Seo.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if !app.seoError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, e)
}

//	@Summary		Create an SEO entry
//	@Description	The slug is derived from the title unless one is supplied.
//	@Tags			SEO
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	createSeoPayload	true	"SEO details"
//	@Success		201	{object}	seo.Entry
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/seo [post]
func (app *application) createSeoHandler(w http.ResponseWriter, r *http.Request) {
	var payload createSeoPayload
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

	e := &seo.Entry{
		ProductID:    payload.ProductID,
		Title:        strings.TrimSpace(payload.Title),
		Description:  payload.Description,
		Keywords:     payload.Keywords,
		CanonicalURL: payload.CanonicalURL,
	}

	var created *seo.Entry
	_, err := app.slugs.Save(ctx, storage.EntitySeo, slug.Input{
		Name: e.Title,
		Slug: payload.Slug,
	}, func(ctx context.Context, s string) error {
		e.Slug = s
		out, err := app.store.Seo.Create(ctx, e)
		if err != nil {
			return err
		}
		created = out
		return nil
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.seoError(w, r))
		return
	}

	w.Header().Set("Location", "/v1/seo/"+created.Slug)
	app.jsonResponse(w, http.StatusCreated, created)
}

//	@Summary		Update an SEO entry
//	@Tags			SEO
//	@Accept			json
//	@Produce		json
//	@Param			seoID	path	int64	true	"SEO entry ID"
//	@Param			payload	body	updateSeoPayload	true	"Fields to update"
//	@Success		200	{object}	seo.Entry
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/seo/{seoID} [patch]
func (app *application) updateSeoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "seoID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateSeoPayload
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

	existing, err := app.store.Seo.GetByID(ctx, id)
	if err != nil {
		if !app.seoError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	e := *existing
	titleChanged := false
	if payload.Title != nil {
		title := strings.TrimSpace(*payload.Title)
		titleChanged = title != existing.Title
		e.Title = title
	}
	if payload.ProductID != nil {
		e.ProductID = payload.ProductID
	}
	if payload.Description != nil {
		e.Description = payload.Description
	}
	if payload.Keywords != nil {
		e.Keywords = *payload.Keywords
	}
	if payload.CanonicalURL != nil {
		e.CanonicalURL = payload.CanonicalURL
	}

	in := slug.Input{
		ID:          &e.ID,
		Name:        e.Title,
		CurrentSlug: existing.Slug,
		NameChanged: titleChanged,
	}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}

	var updated *seo.Entry
	_, err = app.slugs.Save(ctx, storage.EntitySeo, in, func(ctx context.Context, s string) error {
		e.Slug = s
		out, err := app.store.Seo.Update(ctx, &e)
		if err != nil {
			return err
		}
		updated = out
		return nil
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.seoError(w, r))
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}

//	@Summary		Delete an SEO entry
//	@Tags			SEO
//	@Produce		json
//	@Param			seoID	path	int64	true	"SEO entry ID"
//	@Success		204	"No Content"
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/seo/{seoID} [delete]
func (app *application) deleteSeoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "seoID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := app.store.Seo.Delete(ctx, id); err != nil {
		if !app.seoError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
