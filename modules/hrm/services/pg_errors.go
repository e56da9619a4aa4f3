package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func mapPgErrorToServiceError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "record not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return newServiceError(http.StatusConflict, "HRM_CONFLICT", "record already exists", err)
	case "23503": // foreign_key_violation
		return newServiceError(http.StatusUnprocessableEntity, "HRM_REFERENCE_NOT_FOUND", "referenced record not found", err)
	default:
		return newServiceError(http.StatusInternalServerError, "HRM_INTERNAL", fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
