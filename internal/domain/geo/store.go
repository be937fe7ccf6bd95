package geo

import (
	"context"
	"errors"
	"fmt"

	"vastra/internal/db"
	"vastra/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var (
	ErrCountryNotFound  = errors.New("country not found")
	ErrStateNotFound    = errors.New("state not found")
	ErrCityNotFound     = errors.New("city not found")
	ErrAreaNotFound     = errors.New("area not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrHasChildren      = errors.New("cannot delete: record is still referenced")
	ErrInvalidParent    = errors.New("referenced parent does not exist")
)

// Store is the data access abstraction for the geo hierarchy.
type Store interface {
	// Countries
	CreateCountry(ctx context.Context, c *Country) (*Country, error)
	GetCountryByID(ctx context.Context, id int64) (*Country, error)
	GetCountryBySlug(ctx context.Context, slug string) (*Country, error)
	ListCountries(ctx context.Context, limit, offset int) ([]*Country, int, error)
	UpdateCountry(ctx context.Context, c *Country) (*Country, error)
	DeleteCountry(ctx context.Context, id int64) error

	// States
	CreateState(ctx context.Context, s *State) (*State, error)
	GetStateByID(ctx context.Context, id int64) (*State, error)
	GetStateBySlug(ctx context.Context, slug string) (*State, error)
	ListStates(ctx context.Context, countryID *int64, limit, offset int) ([]*State, int, error)
	UpdateState(ctx context.Context, s *State) (*State, error)
	DeleteState(ctx context.Context, id int64) error

	// Cities
	CreateCity(ctx context.Context, c *City) (*City, error)
	GetCityByID(ctx context.Context, id int64) (*City, error)
	GetCityBySlug(ctx context.Context, stateID int64, slug string) (*City, error)
	ListCities(ctx context.Context, stateID *int64, limit, offset int) ([]*City, int, error)
	UpdateCity(ctx context.Context, c *City) (*City, error)
	DeleteCity(ctx context.Context, id int64) error

	// Areas
	CreateArea(ctx context.Context, a *Area) (*Area, error)
	GetAreaByID(ctx context.Context, id int64) (*Area, error)
	GetAreaBySlug(ctx context.Context, cityID int64, slug string) (*Area, error)
	ListAreas(ctx context.Context, cityID *int64, limit, offset int) ([]*Area, int, error)
	UpdateArea(ctx context.Context, a *Area) (*Area, error)
	DeleteArea(ctx context.Context, id int64) error

	// Locations
	CreateLocation(ctx context.Context, l *Location) (*Location, error)
	GetLocationByID(ctx context.Context, id int64) (*Location, error)
	GetLocationBySlug(ctx context.Context, cityID int64, slug string) (*Location, error)
	ListLocations(ctx context.Context, cityID, areaID *int64, limit, offset int) ([]*Location, int, error)
	UpdateLocation(ctx context.Context, l *Location) (*Location, error)
	DeleteLocation(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{db: q}
}

// writeErr maps constraint violations raised by INSERT/UPDATE statements.
func writeErr(op, entity, name string, err error) error {
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrInvalidParent)
	}
	return fmt.Errorf("%s: %w", op, db.ClassifyUniqueViolation(err, entity, name))
}

func (r *Repository) hasRows(ctx context.Context, query string, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, query, id).Scan(&exists)
	return exists, err
}

// deleteGuarded refuses to delete when guard finds referencing rows.
func (r *Repository) deleteGuarded(ctx context.Context, guard, del string, id int64, notFound error) error {
	if guard != "" {
		referenced, err := r.hasRows(ctx, guard, id)
		if err != nil {
			return fmt.Errorf("check references: %w", err)
		}
		if referenced {
			return ErrHasChildren
		}
	}

	tag, err := r.db.Exec(ctx, del, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrHasChildren
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

func one[T any](row pgx.Row, scan dbx.ScanFunc[T], notFound error) (*T, error) {
	item, err := scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}
	return item, nil
}

// ------------------------------------
// Countries
// ------------------------------------
const countryColumns = `id, name, slug, iso_code, created_at, updated_at`

func scanCountry(row pgx.Row, extra ...any) (*Country, error) {
	c := &Country{}
	dest := append([]any{&c.ID, &c.Name, &c.Slug, &c.ISOCode, &c.CreatedAt, &c.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) CreateCountry(ctx context.Context, c *Country) (*Country, error) {
	query := `
		INSERT INTO countries (name, slug, iso_code)
		VALUES ($1, $2, $3)
		RETURNING ` + countryColumns
	created, err := scanCountry(r.db.QueryRow(ctx, query, c.Name, c.Slug, c.ISOCode))
	if err != nil {
		return nil, writeErr("create country", "country", c.Name, err)
	}
	return created, nil
}

func (r *Repository) GetCountryByID(ctx context.Context, id int64) (*Country, error) {
	query := `SELECT ` + countryColumns + ` FROM countries WHERE id = $1`
	return one(r.db.QueryRow(ctx, query, id), scanCountry, ErrCountryNotFound)
}

func (r *Repository) GetCountryBySlug(ctx context.Context, slug string) (*Country, error) {
	query := `SELECT ` + countryColumns + ` FROM countries WHERE slug = $1`
	return one(r.db.QueryRow(ctx, query, slug), scanCountry, ErrCountryNotFound)
}

func (r *Repository) ListCountries(ctx context.Context, limit, offset int) ([]*Country, int, error) {
	query := `
		SELECT ` + countryColumns + `, COUNT(*) OVER()
		FROM countries
		ORDER BY name
		LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list countries: %w", err)
	}
	return dbx.CollectWithTotal(rows, scanCountry)
}

func (r *Repository) UpdateCountry(ctx context.Context, c *Country) (*Country, error) {
	query := `
		UPDATE countries
		SET name = $1, slug = $2, iso_code = $3, updated_at = now()
		WHERE id = $4
		RETURNING ` + countryColumns
	updated, err := scanCountry(r.db.QueryRow(ctx, query, c.Name, c.Slug, c.ISOCode, c.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCountryNotFound
	}
	if err != nil {
		return nil, writeErr("update country", "country", c.Name, err)
	}
	return updated, nil
}

func (r *Repository) DeleteCountry(ctx context.Context, id int64) error {
	return r.deleteGuarded(ctx,
		`SELECT EXISTS(SELECT 1 FROM states WHERE country_id = $1)`,
		`DELETE FROM countries WHERE id = $1`,
		id, ErrCountryNotFound)
}

// ------------------------------------
// States
// ------------------------------------
const stateColumns = `id, country_id, name, slug, created_at, updated_at`

func scanState(row pgx.Row, extra ...any) (*State, error) {
	s := &State{}
	dest := append([]any{&s.ID, &s.CountryID, &s.Name, &s.Slug, &s.CreatedAt, &s.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) CreateState(ctx context.Context, s *State) (*State, error) {
	query := `
		INSERT INTO states (country_id, name, slug)
		VALUES ($1, $2, $3)
		RETURNING ` + stateColumns
	created, err := scanState(r.db.QueryRow(ctx, query, s.CountryID, s.Name, s.Slug))
	if err != nil {
		return nil, writeErr("create state", "state", s.Name, err)
	}
	return created, nil
}

func (r *Repository) GetStateByID(ctx context.Context, id int64) (*State, error) {
	query := `SELECT ` + stateColumns + ` FROM states WHERE id = $1`
	return one(r.db.QueryRow(ctx, query, id), scanState, ErrStateNotFound)
}

func (r *Repository) GetStateBySlug(ctx context.Context, slug string) (*State, error) {
	query := `SELECT ` + stateColumns + ` FROM states WHERE slug = $1`
	return one(r.db.QueryRow(ctx, query, slug), scanState, ErrStateNotFound)
}

func (r *Repository) ListStates(ctx context.Context, countryID *int64, limit, offset int) ([]*State, int, error) {
	query := `
		SELECT ` + stateColumns + `, COUNT(*) OVER()
		FROM states
		WHERE ($1::bigint IS NULL OR country_id = $1)
		ORDER BY name
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, countryID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list states: %w", err)
	}
	return dbx.CollectWithTotal(rows, scanState)
}

func (r *Repository) UpdateState(ctx context.Context, s *State) (*State, error) {
	query := `
		UPDATE states
		SET country_id = $1, name = $2, slug = $3, updated_at = now()
		WHERE id = $4
		RETURNING ` + stateColumns
	updated, err := scanState(r.db.QueryRow(ctx, query, s.CountryID, s.Name, s.Slug, s.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, writeErr("update state", "state", s.Name, err)
	}
	return updated, nil
}

func (r *Repository) DeleteState(ctx context.Context, id int64) error {
	return r.deleteGuarded(ctx,
		`SELECT EXISTS(SELECT 1 FROM cities WHERE state_id = $1)`,
		`DELETE FROM states WHERE id = $1`,
		id, ErrStateNotFound)
}

// ------------------------------------
// Cities
// ------------------------------------
const cityColumns = `id, state_id, name, slug, created_at, updated_at`

func scanCity(row pgx.Row, extra ...any) (*City, error) {
	c := &City{}
	dest := append([]any{&c.ID, &c.StateID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) CreateCity(ctx context.Context, c *City) (*City, error) {
	query := `
		INSERT INTO cities (state_id, name, slug)
		VALUES ($1, $2, $3)
		RETURNING ` + cityColumns
	created, err := scanCity(r.db.QueryRow(ctx, query, c.StateID, c.Name, c.Slug))
	if err != nil {
		return nil, writeErr("create city", "city", c.Name, err)
	}
	return created, nil
}

func (r *Repository) GetCityByID(ctx context.Context, id int64) (*City, error) {
	query := `SELECT ` + cityColumns + ` FROM cities WHERE id = $1`
	return one(r.db.QueryRow(ctx, query, id), scanCity, ErrCityNotFound)
}

func (r *Repository) GetCityBySlug(ctx context.Context, stateID int64, slug string) (*City, error) {
	query := `SELECT ` + cityColumns + ` FROM cities WHERE state_id = $1 AND slug = $2`
	return one(r.db.QueryRow(ctx, query, stateID, slug), scanCity, ErrCityNotFound)
}

func (r *Repository) ListCities(ctx context.Context, stateID *int64, limit, offset int) ([]*City, int, error) {
	query := `
		SELECT ` + cityColumns + `, COUNT(*) OVER()
		FROM cities
		WHERE ($1::bigint IS NULL OR state_id = $1)
		ORDER BY name, id
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, stateID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list cities: %w", err)
	}
	return dbx.CollectWithTotal(rows, scanCity)
}

func (r *Repository) UpdateCity(ctx context.Context, c *City) (*City, error) {
	query := `
		UPDATE cities
		SET state_id = $1, name = $2, slug = $3, updated_at = now()
		WHERE id = $4
		RETURNING ` + cityColumns
	updated, err := scanCity(r.db.QueryRow(ctx, query, c.StateID, c.Name, c.Slug, c.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCityNotFound
	}
	if err != nil {
		return nil, writeErr("update city", "city", c.Name, err)
	}
	return updated, nil
}

func (r *Repository) DeleteCity(ctx context.Context, id int64) error {
	return r.deleteGuarded(ctx,
		`SELECT EXISTS(SELECT 1 FROM areas WHERE city_id = $1)
		     OR EXISTS(SELECT 1 FROM locations WHERE city_id = $1)`,
		`DELETE FROM cities WHERE id = $1`,
		id, ErrCityNotFound)
}

// ------------------------------------
// Areas
// ------------------------------------
const areaColumns = `id, city_id, name, slug, pincode, created_at, updated_at`

func scanArea(row pgx.Row, extra ...any) (*Area, error) {
	a := &Area{}
	dest := append([]any{&a.ID, &a.CityID, &a.Name, &a.Slug, &a.Pincode, &a.CreatedAt, &a.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Repository) CreateArea(ctx context.Context, a *Area) (*Area, error) {
	query := `
		INSERT INTO areas (city_id, name, slug, pincode)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + areaColumns
	created, err := scanArea(r.db.QueryRow(ctx, query, a.CityID, a.Name, a.Slug, a.Pincode))
	if err != nil {
		return nil, writeErr("create area", "area", a.Name, err)
	}
	return created, nil
}

func (r *Repository) GetAreaByID(ctx context.Context, id int64) (*Area, error) {
	query := `SELECT ` + areaColumns + ` FROM areas WHERE id = $1`
	return one(r.db.QueryRow(ctx, query, id), scanArea, ErrAreaNotFound)
}

func (r *Repository) GetAreaBySlug(ctx context.Context, cityID int64, slug string) (*Area, error) {
	query := `SELECT ` + areaColumns + ` FROM areas WHERE city_id = $1 AND slug = $2`
	return one(r.db.QueryRow(ctx, query, cityID, slug), scanArea, ErrAreaNotFound)
}

func (r *Repository) ListAreas(ctx context.Context, cityID *int64, limit, offset int) ([]*Area, int, error) {
	query := `
		SELECT ` + areaColumns + `, COUNT(*) OVER()
		FROM areas
		WHERE ($1::bigint IS NULL OR city_id = $1)
		ORDER BY name
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, cityID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list areas: %w", err)
	}
	return dbx.CollectWithTotal(rows, scanArea)
}

func (r *Repository) UpdateArea(ctx context.Context, a *Area) (*Area, error) {
	query := `
		UPDATE areas
		SET city_id = $1, name = $2, slug = $3, pincode = $4, updated_at = now()
		WHERE id = $5
		RETURNING ` + areaColumns
	updated, err := scanArea(r.db.QueryRow(ctx, query, a.CityID, a.Name, a.Slug, a.Pincode, a.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAreaNotFound
	}
	if err != nil {
		return nil, writeErr("update area", "area", a.Name, err)
	}
	return updated, nil
}

func (r *Repository) DeleteArea(ctx context.Context, id int64) error {
	return r.deleteGuarded(ctx,
		`SELECT EXISTS(SELECT 1 FROM locations WHERE area_id = $1)`,
		`DELETE FROM areas WHERE id = $1`,
		id, ErrAreaNotFound)
}

// ------------------------------------
// Locations
// ------------------------------------
const locationColumns = `id, city_id, area_id, name, slug, address, latitude, longitude, created_at, updated_at`

func scanLocation(row pgx.Row, extra ...any) (*Location, error) {
	l := &Location{}
	dest := append([]any{
		&l.ID, &l.CityID, &l.AreaID, &l.Name, &l.Slug, &l.Address,
		&l.Latitude, &l.Longitude, &l.CreatedAt, &l.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *Repository) CreateLocation(ctx context.Context, l *Location) (*Location, error) {
	query := `
		INSERT INTO locations (city_id, area_id, name, slug, address, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + locationColumns
	created, err := scanLocation(r.db.QueryRow(ctx, query,
		l.CityID, l.AreaID, l.Name, l.Slug, l.Address, l.Latitude, l.Longitude))
	if err != nil {
		return nil, writeErr("create location", "location", l.Name, err)
	}
	return created, nil
}

func (r *Repository) GetLocationByID(ctx context.Context, id int64) (*Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	return one(r.db.QueryRow(ctx, query, id), scanLocation, ErrLocationNotFound)
}

func (r *Repository) GetLocationBySlug(ctx context.Context, cityID int64, slug string) (*Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE city_id = $1 AND slug = $2`
	return one(r.db.QueryRow(ctx, query, cityID, slug), scanLocation, ErrLocationNotFound)
}

func (r *Repository) ListLocations(ctx context.Context, cityID, areaID *int64, limit, offset int) ([]*Location, int, error) {
	query := `
		SELECT ` + locationColumns + `, COUNT(*) OVER()
		FROM locations
		WHERE ($1::bigint IS NULL OR city_id = $1)
		  AND ($2::bigint IS NULL OR area_id = $2)
		ORDER BY name, id
		LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(ctx, query, cityID, areaID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list locations: %w", err)
	}
	return dbx.CollectWithTotal(rows, scanLocation)
}

func (r *Repository) UpdateLocation(ctx context.Context, l *Location) (*Location, error) {
	query := `
		UPDATE locations
		SET city_id = $1, area_id = $2, name = $3, slug = $4, address = $5,
		    latitude = $6, longitude = $7, updated_at = now()
		WHERE id = $8
		RETURNING ` + locationColumns
	updated, err := scanLocation(r.db.QueryRow(ctx, query,
		l.CityID, l.AreaID, l.Name, l.Slug, l.Address, l.Latitude, l.Longitude, l.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, writeErr("update location", "location", l.Name, err)
	}
	return updated, nil
}

func (r *Repository) DeleteLocation(ctx context.Context, id int64) error {
	return r.deleteGuarded(ctx, "", `DELETE FROM locations WHERE id = $1`, id, ErrLocationNotFound)
}
