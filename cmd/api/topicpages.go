package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"vastra/internal/domain/storage"
	"vastra/internal/domain/topicpages"
	"vastra/internal/params"
	"vastra/internal/slug"

	"github.com/go-chi/chi/v5"
)

type createTopicPagePayload struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Slug     string  `json:"slug" validate:"max=200"`
	Title    *string `json:"title" validate:"omitempty,max=200"`
	Body     *string `json:"body" validate:"omitempty,max=20000"`
	ImageURL *string `json:"image_url" validate:"omitempty,imageurl"`
	IsActive *bool   `json:"is_active"`
}

type updateTopicPagePayload struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	Slug     *string `json:"slug" validate:"omitempty,max=200"`
	Title    *string `json:"title" validate:"omitempty,max=200"`
	Body     *string `json:"body" validate:"omitempty,max=20000"`
	ImageURL *string `json:"image_url" validate:"omitempty,imageurl"`
	IsActive *bool   `json:"is_active"`
}

func (app *application) topicPageError(w http.ResponseWriter, r *http.Request) func(error) bool {
	return func(err error) bool {
		if errors.Is(err, topicpages.ErrPageNotFound) {
			app.notFoundResponse(w, r, err)
			return true
		}
		return false
	}
}

//	@Summary		List active topic pages
//	@Tags			TopicPages
//	@Produce		json
//	@Param			page	query	int	false	"Page number"
//	@Param			limit	query	int	false	"Items per page"
//	@Success		200	{object}	listResponse[topicpages.Page]
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/topic-pages [get]
func (app *application) listTopicPagesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())
	pages, total, err := app.store.TopicPages.List(ctx, true, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[topicpages.Page]{Items: pages, Pagination: p})
}

//	@Summary		Get a topic page by slug
//	@Tags			TopicPages
//	@Produce		json
//	@Param			slug	path	string	true	"Topic page slug"
//	@Success		200	{object}	topicpages.Page
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/topic-pages/{slug} [get]
func (app *application) getTopicPageHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, err := app.store.TopicPages.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err == nil && !page.IsActive {
		err = topicpages.ErrPageNotFound
	}
	if err != nil {
		if !app.topicPageError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, page)
}

//	@Summary		Create a topic page
//	@Tags			TopicPages
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	createTopicPagePayload	true	"Topic page details"
//	@Success		201	{object}	topicpages.Page
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/topic-pages [post]
func (app *application) createTopicPageHandler(w http.ResponseWriter, r *http.Request) {
	var payload createTopicPagePayload
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

	page := &topicpages.Page{
		Name:     strings.TrimSpace(payload.Name),
		Title:    payload.Title,
		Body:     payload.Body,
		ImageURL: payload.ImageURL,
		IsActive: payload.IsActive == nil || *payload.IsActive,
	}

	var created *topicpages.Page
	_, err := app.slugs.Save(ctx, storage.EntityTopicPage, slug.Input{
		Name: page.Name,
		Slug: payload.Slug,
	}, func(ctx context.Context, s string) error {
		page.Slug = s
		out, err := app.store.TopicPages.Create(ctx, page)
		if err != nil {
			return err
		}
		created = out
		return nil
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.topicPageError(w, r))
		return
	}

	w.Header().Set("Location", "/v1/topic-pages/"+created.Slug)
	app.jsonResponse(w, http.StatusCreated, created)
}

//	@Summary		Update a topic page
//	@Tags			TopicPages
//	@Accept			json
//	@Produce		json
//	@Param			pageID	path	int64	true	"Topic page ID"
//	@Param			payload	body	updateTopicPagePayload	true	"Fields to update"
//	@Success		200	{object}	topicpages.Page
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/topic-pages/{pageID} [patch]
func (app *application) updateTopicPageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "pageID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateTopicPagePayload
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

	existing, err := app.store.TopicPages.GetByID(ctx, id)
	if err != nil {
		if !app.topicPageError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	page := *existing
	nameChanged := false
	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		nameChanged = name != existing.Name
		page.Name = name
	}
	if payload.Title != nil {
		page.Title = payload.Title
	}
	if payload.Body != nil {
		page.Body = payload.Body
	}
	if payload.ImageURL != nil {
		page.ImageURL = payload.ImageURL
	}
	if payload.IsActive != nil {
		page.IsActive = *payload.IsActive
	}

	in := slug.Input{
		ID:          &page.ID,
		Name:        page.Name,
		CurrentSlug: existing.Slug,
		NameChanged: nameChanged,
	}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}

	var updated *topicpages.Page
	_, err = app.slugs.Save(ctx, storage.EntityTopicPage, in, func(ctx context.Context, s string) error {
		page.Slug = s
		out, err := app.store.TopicPages.Update(ctx, &page)
		if err != nil {
			return err
		}
		updated = out
		return nil
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.topicPageError(w, r))
		return
	}

	if existing.ImageURL != nil && (updated.ImageURL == nil || *updated.ImageURL != *existing.ImageURL) {
		app.cleanupPhotos([]string{*existing.ImageURL})
	}
	app.jsonResponse(w, http.StatusOK, updated)
}

//	@Summary		Delete a topic page
//	@Tags			TopicPages
//	@Produce		json
//	@Param			pageID	path	int64	true	"Topic page ID"
//	@Success		204	"No Content"
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/topic-pages/{pageID} [delete]
func (app *application) deleteTopicPageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "pageID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	existing, err := app.store.TopicPages.GetByID(ctx, id)
	if err == nil {
		err = app.store.TopicPages.Delete(ctx, id)
	}
	if err != nil {
		if !app.topicPageError(w, r)(err) {
			app.internalServerError(w, r, err)
		}
		return
	}

	if existing.ImageURL != nil {
		app.cleanupPhotos([]string{*existing.ImageURL})
	}
	w.WriteHeader(http.StatusNoContent)
}
