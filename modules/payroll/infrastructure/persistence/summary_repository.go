package persistence

import (
	"context"
	"time"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/composables"
)

type ImportSummaryRepository struct{}

func NewImportSummaryRepository() *ImportSummaryRepository {
	return &ImportSummaryRepository{}
}

const summaryColumns = `
	id, employee_count, total_charges, total_gross, total_deductions,
	total_net, period_start, period_end, imported_at, alive`

func scanSummary(row interface{ Scan(...any) error }) (services.ImportSummary, error) {
	var s services.ImportSummary
	err := row.Scan(
		&s.ID, &s.EmployeeCount, &s.TotalCharges, &s.TotalGross, &s.TotalDeductions,
		&s.TotalNet, &s.PeriodStart, &s.PeriodEnd, &s.ImportedAt, &s.Alive,
	)
	return s, err
}

func (r *ImportSummaryRepository) Insert(ctx context.Context, s services.ImportSummary) (services.ImportSummary, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.ImportSummary{}, err
	}
	return scanSummary(tx.QueryRow(ctx, `
INSERT INTO payroll_import_summaries (
	employee_count, total_charges, total_gross, total_deductions,
	total_net, period_start, period_end, imported_at, alive
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING`+summaryColumns,
		s.EmployeeCount, s.TotalCharges, s.TotalGross, s.TotalDeductions,
		s.TotalNet, s.PeriodStart, s.PeriodEnd, s.ImportedAt, s.Alive,
	))
}

func (r *ImportSummaryRepository) List(ctx context.Context) ([]services.ImportSummary, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT`+summaryColumns+` FROM payroll_import_summaries WHERE alive ORDER BY period_start DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.ImportSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (r *ImportSummaryRepository) ListByStartBetween(ctx context.Context, from, to time.Time) ([]services.ImportSummary, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT`+summaryColumns+`
FROM payroll_import_summaries
WHERE period_start BETWEEN $1 AND $2 AND alive
ORDER BY period_start DESC, id DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.ImportSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (r *ImportSummaryRepository) ListLatest(ctx context.Context) ([]services.ImportSummary, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT`+summaryColumns+` FROM payroll_import_summaries WHERE alive ORDER BY imported_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.ImportSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (r *ImportSummaryRepository) GetByPeriod(ctx context.Context, periodStart, periodEnd time.Time) (services.ImportSummary, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.ImportSummary{}, err
	}
	return scanSummary(tx.QueryRow(ctx, `
SELECT`+summaryColumns+`
FROM payroll_import_summaries
WHERE period_start = $1 AND period_end = $2 AND alive
ORDER BY id DESC
LIMIT 1`, periodStart, periodEnd))
}
