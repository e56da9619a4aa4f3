package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func mapPgErrorToServiceError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return newServiceError(http.StatusNotFound, "ORG_NOT_FOUND", "node not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		switch pgErr.ConstraintName {
		case "org_node_employees_node_id_employee_id_key":
			return newServiceError(http.StatusConflict, "ORG_DUPLICATE_LINK", "employee already associated", err)
		case "org_node_cost_centers_node_id_cost_center_id_key":
			return newServiceError(http.StatusConflict, "ORG_DUPLICATE_LINK", "cost center already associated", err)
		default:
			return newServiceError(http.StatusConflict, "ORG_CONFLICT", "unique constraint violated", err)
		}
	case "23503": // foreign_key_violation
		return newServiceError(http.StatusUnprocessableEntity, "ORG_REFERENCE_NOT_FOUND", "referenced record not found", err)
	default:
		return newServiceError(http.StatusInternalServerError, "ORG_INTERNAL", fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
