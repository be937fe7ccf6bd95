package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vastra/internal/domain/geo"
	"vastra/internal/domain/storage"
	"vastra/internal/params"
	"vastra/internal/slug"

	"github.com/go-chi/chi/v5"
)

func (app *application) mountGeo(r chi.Router) {
	r.Get("/countries", app.listCountriesHandler)
	r.Get("/countries/{slug}", app.getCountryHandler)
	r.Get("/states", app.listStatesHandler)
	r.Get("/states/{slug}", app.getStateHandler)
	r.Get("/cities", app.listCitiesHandler)
	r.Get("/cities/{slug}", app.getCityHandler)
	r.Get("/areas", app.listAreasHandler)
	r.Get("/areas/{slug}", app.getAreaHandler)
	r.Get("/locations", app.listLocationsHandler)
	r.Get("/locations/{slug}", app.getLocationHandler)
}

func (app *application) mountGeoAdmin(r chi.Router) {
	r.Post("/countries", app.createCountryHandler)
	r.Patch("/countries/{countryID}", app.updateCountryHandler)
	r.Delete("/countries/{countryID}", app.deleteCountryHandler)

	r.Post("/states", app.createStateHandler)
	r.Patch("/states/{stateID}", app.updateStateHandler)
	r.Delete("/states/{stateID}", app.deleteStateHandler)

	r.Post("/cities", app.createCityHandler)
	r.Patch("/cities/{cityID}", app.updateCityHandler)
	r.Delete("/cities/{cityID}", app.deleteCityHandler)

	r.Post("/areas", app.createAreaHandler)
	r.Patch("/areas/{areaID}", app.updateAreaHandler)
	r.Delete("/areas/{areaID}", app.deleteAreaHandler)

	r.Post("/locations", app.createLocationHandler)
	r.Patch("/locations/{locationID}", app.updateLocationHandler)
	r.Delete("/locations/{locationID}", app.deleteLocationHandler)
}

func (app *application) geoError(w http.ResponseWriter, r *http.Request) func(error) bool {
	return func(err error) bool {
		switch {
		case errors.Is(err, geo.ErrCountryNotFound),
			errors.Is(err, geo.ErrStateNotFound),
			errors.Is(err, geo.ErrCityNotFound),
			errors.Is(err, geo.ErrAreaNotFound),
			errors.Is(err, geo.ErrLocationNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, geo.ErrInvalidParent):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, geo.ErrHasChildren):
			app.conflictResponse(w, r, err)
		default:
			return false
		}
		return true
	}
}

func (app *application) geoResponse(w http.ResponseWriter, r *http.Request, err error) {
	if !app.geoError(w, r)(err) {
		app.internalServerError(w, r, err)
	}
}

// requiredID reads a mandatory positive id from the query string.
func requiredID(q url.Values, key string) (int64, error) {
	id, err := params.OptionalID(q, key)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	return *id, nil
}

// decodePayload reads and validates a JSON body into dst.
func decodePayload(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := readJSON(w, r, dst); err != nil {
		return err
	}
	return Validate.Struct(dst)
}

// ------------------------------------
// Countries
// ------------------------------------

type countryPayload struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=120"`
	Slug    *string `json:"slug" validate:"omitempty,max=120"`
	ISOCode *string `json:"iso_code" validate:"omitempty,len=2,alpha"`
}

//	@Summary		List countries
//	@Tags			Geo
//	@Produce		json
//	@Param			page	query	int	false	"Page number"
//	@Param			limit	query	int	false	"Items per page"
//	@Success		200	{object}	listResponse[geo.Country]
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/countries [get]
func (app *application) listCountriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())
	items, total, err := app.store.Geo.ListCountries(ctx, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[geo.Country]{Items: items, Pagination: p})
}

//	@Summary		Get a country by slug
//	@Tags			Geo
//	@Produce		json
//	@Param			slug	path	string	true	"Country slug"
//	@Success		200	{object}	geo.Country
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/countries/{slug} [get]
func (app *application) getCountryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := app.store.Geo.GetCountryBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		app.geoResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, c)
}

//	@Summary		Create a country
//	@Tags			Geo
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	countryPayload	true	"Country details"
//	@Success		201	{object}	geo.Country
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/countries [post]
func (app *application) createCountryHandler(w http.ResponseWriter, r *http.Request) {
	var payload countryPayload
	if err := decodePayload(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Name == nil {
		app.badRequestResponse(w, r, errors.New("name is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c := &geo.Country{Name: strings.TrimSpace(*payload.Name), ISOCode: upper(payload.ISOCode)}
	in := slug.Input{Name: c.Name}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}

	var created *geo.Country
	_, err := app.slugs.Save(ctx, storage.EntityCountry, in, func(ctx context.Context, s string) error {
		c.Slug = s
		out, err := app.store.Geo.CreateCountry(ctx, c)
		created = out
		return err
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.geoError(w, r))
		return
	}

	app.jsonResponse(w, http.StatusCreated, created)
}

//	@Summary		Update a country
//	@Tags			Geo
//	@Accept			json
//	@Produce		json
//	@Param			countryID	path	int64	true	"Country ID"
//	@Param			payload	body	countryPayload	true	"Fields to update"
//	@Success		200	{object}	geo.Country
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/countries/{countryID} [patch]
func (app *application) updateCountryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "countryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload countryPayload
	if err := decodePayload(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	existing, err := app.store.Geo.GetCountryByID(ctx, id)
	if err != nil {
		app.geoResponse(w, r, err)
		return
	}

	c := *existing
	in := slug.Input{ID: &c.ID, CurrentSlug: existing.Slug}
	if payload.Name != nil {
		c.Name = strings.TrimSpace(*payload.Name)
		in.NameChanged = c.Name != existing.Name
	}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}
	if payload.ISOCode != nil {
		c.ISOCode = upper(payload.ISOCode)
	}
	in.Name = c.Name

	var updated *geo.Country
	_, err = app.slugs.Save(ctx, storage.EntityCountry, in, func(ctx context.Context, s string) error {
		c.Slug = s
		out, err := app.store.Geo.UpdateCountry(ctx, &c)
		updated = out
		return err
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.geoError(w, r))
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}

//	@Summary		Delete a country
//	@Description	Fails with 409 while child records reference it.
//	@Tags			Geo
//	@Produce		json
//	@Param			countryID	path	int64	true	"Country ID"
//	@Success		204	"No Content"
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/countries/{countryID} [delete]
func (app *application) deleteCountryHandler(w http.ResponseWriter, r *http.Request) {
	app.deleteGeo(w, r, "countryID", app.store.Geo.DeleteCountry)
}

// ------------------------------------
// States
// ------------------------------------

type statePayload struct {
	CountryID *int64  `json:"country_id" validate:"omitempty,gt=0"`
	Name      *string `json:"name" validate:"omitempty,min=1,max=120"`
	Slug      *string `json:"slug" validate:"omitempty,max=120"`
}

//	@Summary		List states
//	@Tags			Geo
//	@Produce		json
//	@Param			country_id	query	int64	false	"Filter by country"
//	@Param			page	query	int	false	"Page number"
//	@Param			limit	query	int	false	"Items per page"
//	@Success		200	{object}	listResponse[geo.State]
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/states [get]
func (app *application) listStatesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	countryID, err := params.OptionalID(q, "country_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := params.ParsePagination(q)
	items, total, err := app.store.Geo.ListStates(ctx, countryID, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[geo.State]{Items: items, Pagination: p})
}

//	@Summary		Get a state by slug
//	@Tags			Geo
//	@Produce		json
//	@Param			slug	path	string	true	"State slug"
//	@Success		200	{object}	geo.State
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/states/{slug} [get]
func (app *application) getStateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := app.store.Geo.GetStateBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		app.geoResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, s)
}

//	@Summary		Create a state
//	@Tags			Geo
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	statePayload	true	"State details"
//	@Success		201	{object}	geo.State
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/states [post]
func (app *application) createStateHandler(w http.ResponseWriter, r *http.Request) {
	var payload statePayload
	if err := decodePayload(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Name == nil || payload.CountryID == nil {
		app.badRequestResponse(w, r, errors.New("name and country_id are required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	st := &geo.State{CountryID: *payload.CountryID, Name: strings.TrimSpace(*payload.Name)}
	in := slug.Input{Name: st.Name}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}

	var created *geo.State
	_, err := app.slugs.Save(ctx, storage.EntityState, in, func(ctx context.Context, s string) error {
		st.Slug = s
		out, err := app.store.Geo.CreateState(ctx, st)
		created = out
		return err
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.geoError(w, r))
		return
	}

	app.jsonResponse(w, http.StatusCreated, created)
}

//	@Summary		Update a state
//	@Tags			Geo
//	@Accept			json
//	@Produce		json
//	@Param			stateID	path	int64	true	"State ID"
//	@Param			payload	body	statePayload	true	"Fields to update"
//	@Success		200	{object}	geo.State
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/states/{stateID} [patch]
func (app *application) updateStateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "stateID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload statePayload
	if err := decodePayload(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	existing, err := app.store.Geo.GetStateByID(ctx, id)
	if err != nil {
		app.geoResponse(w, r, err)
		return
	}

	st := *existing
	in := slug.Input{ID: &st.ID, CurrentSlug: existing.Slug}
	if payload.Name != nil {
		st.Name = strings.TrimSpace(*payload.Name)
		in.NameChanged = st.Name != existing.Name
	}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}
	if payload.CountryID != nil {
		st.CountryID = *payload.CountryID
	}
	in.Name = st.Name

	var updated *geo.State
	_, err = app.slugs.Save(ctx, storage.EntityState, in, func(ctx context.Context, s string) error {
		st.Slug = s
		out, err := app.store.Geo.UpdateState(ctx, &st)
		updated = out
		return err
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.geoError(w, r))
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}

//	@Summary		Delete a state
//	@Description	Fails with 409 while child records reference it.
//	@Tags			Geo
//	@Produce		json
//	@Param			stateID	path	int64	true	"State ID"
//	@Success		204	"No Content"
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/states/{stateID} [delete]
func (app *application) deleteStateHandler(w http.ResponseWriter, r *http.Request) {
	app.deleteGeo(w, r, "stateID", app.store.Geo.DeleteState)
}

// ------------------------------------
// Cities
// ------------------------------------

type cityPayload struct {
	StateID *int64  `json:"state_id" validate:"omitempty,gt=0"`
	Name    *string `json:"name" validate:"omitempty,min=1,max=120"`
	Slug    *string `json:"slug" validate:"omitempty,max=120"`
}

//	@Summary		List cities
//	@Tags			Geo
//	@Produce		json
//	@Param			state_id	query	int64	false	"Filter by state"
//	@Param			page	query	int	false	"Page number"
//	@Param			limit	query	int	false	"Items per page"
//	@Success		200	{object}	listResponse[geo.City]
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/cities [get]
func (app *application) listCitiesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stateID, err := params.OptionalID(q, "state_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := params.ParsePagination(q)
	items, total, err := app.store.Geo.ListCities(ctx, stateID, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[geo.City]{Items: items, Pagination: p})
}

//	@Summary		Get a city by slug
//	@Tags			Geo
//	@Produce		json
//	@Param			slug	path	string	true	"City slug"
//	@Param			state_id	query	int64	true	"State ID"
//	@Success		200	{object}	geo.City
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/cities/{slug} [get]
func (app *application) getCityHandler(w http.ResponseWriter, r *http.Request) {
	stateID, err := requiredID(r.URL.Query(), "state_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := app.store.Geo.GetCityBySlug(ctx, stateID, chi.URLParam(r, "slug"))
	if err != nil {
		app.geoResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, c)
}

//	@Summary		Create a city
//	@Tags			Geo
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	cityPayload	true	"City details"
//	@Success		201	{object}	geo.City
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/cities [post]
func (app *application) createCityHandler(w http.ResponseWriter, r *http.Request) {
	var payload cityPayload
	if err := decodePayload(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Name == nil || payload.StateID == nil {
		app.badRequestResponse(w, r, errors.New("name and state_id are required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c := &geo.City{StateID: *payload.StateID, Name: strings.TrimSpace(*payload.Name)}
	in := slug.Input{Name: c.Name, Refs: slug.Scope{"state_id": c.StateID}}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}

	var created *geo.City
	_, err := app.slugs.Save(ctx, storage.EntityCity, in, func(ctx context.Context, s string) error {
		c.Slug = s
		out, err := app.store.Geo.CreateCity(ctx, c)
		created = out
		return err
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.geoError(w, r))
		return
	}

	app.jsonResponse(w, http.StatusCreated, created)
}

//	@Summary		Update a city
//	@Tags			Geo
//	@Accept			json
//	@Produce		json
//	@Param			cityID	path	int64	true	"City ID"
//	@Param			payload	body	cityPayload	true	"Fields to update"
//	@Success		200	{object}	geo.City
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/cities/{cityID} [patch]
func (app *application) updateCityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "cityID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload cityPayload
	if err := decodePayload(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	existing, err := app.store.Geo.GetCityByID(ctx, id)
	if err != nil {
		app.geoResponse(w, r, err)
		return
	}

	c := *existing
	in := slug.Input{ID: &c.ID, CurrentSlug: existing.Slug}
	if payload.Name != nil {
		c.Name = strings.TrimSpace(*payload.Name)
		in.NameChanged = c.Name != existing.Name
	}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}
	if payload.StateID != nil {
		c.StateID = *payload.StateID
	}
	in.Name = c.Name
	in.Refs = slug.Scope{"state_id": c.StateID}

	var updated *geo.City
	_, err = app.slugs.Save(ctx, storage.EntityCity, in, func(ctx context.Context, s string) error {
		c.Slug = s
		out, err := app.store.Geo.UpdateCity(ctx, &c)
		updated = out
		return err
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.geoError(w, r))
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}

//	@Summary		Delete a city
//	@Description	Fails with 409 while child records reference it.
//	@Tags			Geo
//	@Produce		json
//	@Param			cityID	path	int64	true	"City ID"
//	@Success		204	"No Content"
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/cities/{cityID} [delete]
func (app *application) deleteCityHandler(w http.ResponseWriter, r *http.Request) {
	app.deleteGeo(w, r, "cityID", app.store.Geo.DeleteCity)
}

// ------------------------------------
// Areas
// ------------------------------------

type areaPayload struct {
	CityID  *int64  `json:"city_id" validate:"omitempty,gt=0"`
	Name    *string `json:"name" validate:"omitempty,min=1,max=120"`
	Slug    *string `json:"slug" validate:"omitempty,max=120"`
	Pincode *string `json:"pincode" validate:"omitempty,numeric,len=6"`
}

//	@Summary		List areas
//	@Tags			Geo
//	@Produce		json
//	@Param			city_id	query	int64	false	"Filter by city"
//	@Param			page	query	int	false	"Page number"
//	@Param			limit	query	int	false	"Items per page"
//	@Success		200	{object}	listResponse[geo.Area]
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/areas [get]
func (app *application) listAreasHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cityID, err := params.OptionalID(q, "city_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := params.ParsePagination(q)
	items, total, err := app.store.Geo.ListAreas(ctx, cityID, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[geo.Area]{Items: items, Pagination: p})
}

//	@Summary		Get a area by slug
//	@Tags			Geo
//	@Produce		json
//	@Param			slug	path	string	true	"Area slug"
//	@Param			city_id	query	int64	true	"City ID"
//	@Success		200	{object}	geo.Area
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/areas/{slug} [get]
func (app *application) getAreaHandler(w http.ResponseWriter, r *http.Request) {
	cityID, err := requiredID(r.URL.Query(), "city_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	a, err := app.store.Geo.GetAreaBySlug(ctx, cityID, chi.URLParam(r, "slug"))
	if err != nil {
		app.geoResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, a)
}

//	@Summary		Create a area
//	@Tags			Geo
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	areaPayload	true	"Area details"
//	@Success		201	{object}	geo.Area
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/areas [post]
func (app *application) createAreaHandler(w http.ResponseWriter, r *http.Request) {
	var payload areaPayload
	if err := decodePayload(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Name == nil || payload.CityID == nil {
		app.badRequestResponse(w, r, errors.New("name and city_id are required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	a := &geo.Area{CityID: *payload.CityID, Name: strings.TrimSpace(*payload.Name), Pincode: payload.Pincode}
	in := slug.Input{Name: a.Name, Refs: slug.Scope{"city_id": a.CityID}}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}

	var created *geo.Area
	_, err := app.slugs.Save(ctx, storage.EntityArea, in, func(ctx context.Context, s string) error {
		a.Slug = s
		out, err := app.store.Geo.CreateArea(ctx, a)
		created = out
		return err
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.geoError(w, r))
		return
	}

	app.jsonResponse(w, http.StatusCreated, created)
}

//	@Summary		Update a area
//	@Tags			Geo
//	@Accept			json
//	@Produce		json
//	@Param			areaID	path	int64	true	"Area ID"
//	@Param			payload	body	areaPayload	true	"Fields to update"
//	@Success		200	{object}	geo.Area
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/areas/{areaID} [patch]
func (app *application) updateAreaHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "areaID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload areaPayload
	if err := decodePayload(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	existing, err := app.store.Geo.GetAreaByID(ctx, id)
	if err != nil {
		app.geoResponse(w, r, err)
		return
	}

	a := *existing
	in := slug.Input{ID: &a.ID, CurrentSlug: existing.Slug}
	if payload.Name != nil {
		a.Name = strings.TrimSpace(*payload.Name)
		in.NameChanged = a.Name != existing.Name
	}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}
	if payload.CityID != nil {
		a.CityID = *payload.CityID
	}
	if payload.Pincode != nil {
		a.Pincode = payload.Pincode
	}
	in.Name = a.Name
	in.Refs = slug.Scope{"city_id": a.CityID}

	var updated *geo.Area
	_, err = app.slugs.Save(ctx, storage.EntityArea, in, func(ctx context.Context, s string) error {
		a.Slug = s
		out, err := app.store.Geo.UpdateArea(ctx, &a)
		updated = out
		return err
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.geoError(w, r))
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}

//	@Summary		Delete a area
//	@Description	Fails with 409 while child records reference it.
//	@Tags			Geo
//	@Produce		json
//	@Param			areaID	path	int64	true	"Area ID"
//	@Success		204	"No Content"
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/areas/{areaID} [delete]
func (app *application) deleteAreaHandler(w http.ResponseWriter, r *http.Request) {
	app.deleteGeo(w, r, "areaID", app.store.Geo.DeleteArea)
}

// ------------------------------------
// Locations
// ------------------------------------

type locationPayload struct {
	CityID    *int64   `json:"city_id" validate:"omitempty,gt=0"`
	AreaID    *int64   `json:"area_id" validate:"omitempty,gt=0"`
	Name      *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Slug      *string  `json:"slug" validate:"omitempty,max=200"`
	Address   *string  `json:"address" validate:"omitempty,max=500"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// checkLocationArea rejects an area that belongs to a different city.
func (app *application) checkLocationArea(ctx context.Context, l *geo.Location) error {
	if l.AreaID == nil {
		return nil
	}
	a, err := app.store.Geo.GetAreaByID(ctx, *l.AreaID)
	if errors.Is(err, geo.ErrAreaNotFound) {
		return fmt.Errorf("area %d: %w", *l.AreaID, geo.ErrInvalidParent)
	}
	if err != nil {
		return err
	}
	if a.CityID != l.CityID {
		return fmt.Errorf("area %d is not in city %d: %w", a.ID, l.CityID, geo.ErrInvalidParent)
	}
	return nil
}

//	@Summary		List locations
//	@Tags			Geo
//	@Produce		json
//	@Param			city_id	query	int64	false	"Filter by city"
//	@Param			area_id	query	int64	false	"Filter by area"
//	@Param			page	query	int	false	"Page number"
//	@Param			limit	query	int	false	"Items per page"
//	@Success		200	{object}	listResponse[geo.Location]
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/locations [get]
func (app *application) listLocationsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cityID, err := params.OptionalID(q, "city_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	areaID, err := params.OptionalID(q, "area_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := params.ParsePagination(q)
	items, total, err := app.store.Geo.ListLocations(ctx, cityID, areaID, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, listResponse[geo.Location]{Items: items, Pagination: p})
}

//	@Summary		Get a location by slug
//	@Tags			Geo
//	@Produce		json
//	@Param			slug	path	string	true	"Location slug"
//	@Param			city_id	query	int64	true	"City ID"
//	@Success		200	{object}	geo.Location
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Router			/locations/{slug} [get]
func (app *application) getLocationHandler(w http.ResponseWriter, r *http.Request) {
	cityID, err := requiredID(r.URL.Query(), "city_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	l, err := app.store.Geo.GetLocationBySlug(ctx, cityID, chi.URLParam(r, "slug"))
	if err != nil {
		app.geoResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, l)
}

//	@Summary		Create a location
//	@Tags			Geo
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	locationPayload	true	"Location details"
//	@Success		201	{object}	geo.Location
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/locations [post]
func (app *application) createLocationHandler(w http.ResponseWriter, r *http.Request) {
	var payload locationPayload
	if err := decodePayload(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Name == nil || payload.CityID == nil {
		app.badRequestResponse(w, r, errors.New("name and city_id are required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	l := &geo.Location{
		CityID:    *payload.CityID,
		AreaID:    payload.AreaID,
		Name:      strings.TrimSpace(*payload.Name),
		Address:   payload.Address,
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
	}
	if err := app.checkLocationArea(ctx, l); err != nil {
		app.geoResponse(w, r, err)
		return
	}

	in := slug.Input{Name: l.Name, Refs: slug.Scope{"city_id": l.CityID}}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}

	var created *geo.Location
	_, err := app.slugs.Save(ctx, storage.EntityLocation, in, func(ctx context.Context, s string) error {
		l.Slug = s
		out, err := app.store.Geo.CreateLocation(ctx, l)
		created = out
		return err
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.geoError(w, r))
		return
	}

	app.jsonResponse(w, http.StatusCreated, created)
}

//	@Summary		Update a location
//	@Tags			Geo
//	@Accept			json
//	@Produce		json
//	@Param			locationID	path	int64	true	"Location ID"
//	@Param			payload	body	locationPayload	true	"Fields to update"
//	@Success		200	{object}	geo.Location
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Conflict"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/locations/{locationID} [patch]
func (app *application) updateLocationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "locationID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload locationPayload
	if err := decodePayload(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	existing, err := app.store.Geo.GetLocationByID(ctx, id)
	if err != nil {
		app.geoResponse(w, r, err)
		return
	}

	l := *existing
	in := slug.Input{ID: &l.ID, CurrentSlug: existing.Slug}
	if payload.Name != nil {
		l.Name = strings.TrimSpace(*payload.Name)
		in.NameChanged = l.Name != existing.Name
	}
	if payload.Slug != nil {
		in.Slug = *payload.Slug
	}
	if payload.CityID != nil {
		l.CityID = *payload.CityID
	}
	if payload.AreaID != nil {
		l.AreaID = payload.AreaID
	}
	if payload.Address != nil {
		l.Address = payload.Address
	}
	if payload.Latitude != nil {
		l.Latitude = payload.Latitude
	}
	if payload.Longitude != nil {
		l.Longitude = payload.Longitude
	}
	if err := app.checkLocationArea(ctx, &l); err != nil {
		app.geoResponse(w, r, err)
		return
	}
	in.Name = l.Name
	in.Refs = slug.Scope{"city_id": l.CityID}

	var updated *geo.Location
	_, err = app.slugs.Save(ctx, storage.EntityLocation, in, func(ctx context.Context, s string) error {
		l.Slug = s
		out, err := app.store.Geo.UpdateLocation(ctx, &l)
		updated = out
		return err
	})
	if err != nil {
		app.slugSaveError(w, r, err, app.geoError(w, r))
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}

//	@Summary		Delete a location
//	@Tags			Geo
//	@Produce		json
//	@Param			locationID	path	int64	true	"Location ID"
//	@Success		204	"No Content"
//	@Failure		400	{object}	error	"Invalid request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/admin/locations/{locationID} [delete]
func (app *application) deleteLocationHandler(w http.ResponseWriter, r *http.Request) {
	app.deleteGeo(w, r, "locationID", app.store.Geo.DeleteLocation)
}

func (app *application) deleteGeo(w http.ResponseWriter, r *http.Request, key string, del func(context.Context, int64) error) {
	id, err := idParam(r, key)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := del(ctx, id); err != nil {
		app.geoResponse(w, r, err)
		return
	}

	app.logger.Infow("geo record deleted", key, id, "by", subjectFromContext(r))
	w.WriteHeader(http.StatusNoContent)
}

func upper(s *string) *string {
	if s == nil {
		return nil
	}
	u := strings.ToUpper(strings.TrimSpace(*s))
	return &u
}
