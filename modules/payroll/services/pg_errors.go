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
		return newServiceError(http.StatusNotFound, "PAYROLL_NOT_FOUND", "record not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		switch pgErr.ConstraintName {
		case "payroll_lines_natural_key":
			return newServiceError(http.StatusConflict, "PAYROLL_DUPLICATE_LINE", "payroll line already imported for this employee, rubric and period", err)
		case "rubrics_code_key":
			return newServiceError(http.StatusConflict, "PAYROLL_DUPLICATE_RUBRIC", "rubric code already registered", err)
		default:
			return newServiceError(http.StatusConflict, "PAYROLL_CONFLICT", "unique constraint violated", err)
		}
	case "23503": // foreign_key_violation
		return newServiceError(http.StatusUnprocessableEntity, "PAYROLL_REFERENCE_NOT_FOUND", "referenced record not found", err)
	default:
		return newServiceError(http.StatusInternalServerError, "PAYROLL_INTERNAL", fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
