package db

import (
	"errors"
	"strings"

	"vastra/internal/slug"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ClassifyUniqueViolation maps unique violations on slug and name indexes to
// the errors the slug assigner understands. Any other error is returned as is.
//
// Index naming convention: <table>_slug_key and <table>_name_key.
func ClassifyUniqueViolation(err error, entity, name string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}

	switch {
	case strings.HasSuffix(pgErr.ConstraintName, "_slug_key"):
		return errors.Join(slug.ErrDuplicateKey, err)
	case strings.HasSuffix(pgErr.ConstraintName, "_name_key"):
		return &slug.ValidationError{Entity: entity, Field: "name", Value: name}
	}
	return err
}

// IsForeignKeyViolation reports whether err is a Postgres foreign_key_violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
