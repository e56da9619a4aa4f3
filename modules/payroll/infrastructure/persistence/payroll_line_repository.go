package persistence

import (
	"context"
	"time"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/composables"
)

type PayrollLineRepository struct{}

func NewPayrollLineRepository() *PayrollLineRepository {
	return &PayrollLineRepository{}
}

const payrollLineColumns = `
	id, employee_id, rubric_id, employee_name, position, cost_center,
	business_line, period_start, period_end, quantity, base, value,
	alive, created_at`

func scanPayrollLine(row interface{ Scan(...any) error }) (services.PayrollLine, error) {
	var l services.PayrollLine
	err := row.Scan(
		&l.ID, &l.EmployeeID, &l.RubricID, &l.EmployeeName, &l.Position, &l.CostCenter,
		&l.BusinessLine, &l.PeriodStart, &l.PeriodEnd, &l.Quantity, &l.Base, &l.Value,
		&l.Alive, &l.CreatedAt,
	)
	return l, err
}

func (r *PayrollLineRepository) GetByID(ctx context.Context, id int64) (services.PayrollLine, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.PayrollLine{}, err
	}
	return scanPayrollLine(tx.QueryRow(ctx, `SELECT`+payrollLineColumns+` FROM payroll_lines WHERE id = $1`, id))
}

func (r *PayrollLineRepository) ExistsByNaturalKey(ctx context.Context, employeeID, rubricID int64, periodStart, periodEnd time.Time) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	err = tx.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM payroll_lines
	WHERE employee_id = $1 AND rubric_id = $2 AND period_start = $3 AND period_end = $4
)`, employeeID, rubricID, periodStart, periodEnd).Scan(&exists)
	return exists, err
}

func (r *PayrollLineRepository) InsertBatch(ctx context.Context, lines []services.PayrollLine) ([]services.PayrollLine, error) {
	if len(lines) == 0 {
		return []services.PayrollLine{}, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]services.PayrollLine, 0, len(lines))
	for _, l := range lines {
		created, err := scanPayrollLine(tx.QueryRow(ctx, `
INSERT INTO payroll_lines (
	employee_id, rubric_id, employee_name, position, cost_center,
	business_line, period_start, period_end, quantity, base, value, alive
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING`+payrollLineColumns,
			l.EmployeeID, l.RubricID, l.EmployeeName, l.Position, l.CostCenter,
			l.BusinessLine, l.PeriodStart, l.PeriodEnd, l.Quantity, l.Base, l.Value, l.Alive,
		))
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (r *PayrollLineRepository) ListByEmployee(ctx context.Context, employeeID int64, periodStart, periodEnd *time.Time) ([]services.PayrollLine, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT`+payrollLineColumns+`
FROM payroll_lines
WHERE employee_id = $1 AND alive
  AND ($2::date IS NULL OR period_start >= $2)
  AND ($3::date IS NULL OR period_end <= $3)
ORDER BY period_start, rubric_id, id`, employeeID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayrollLines(rows)
}

func (r *PayrollLineRepository) ListByCostCenter(ctx context.Context, costCenter string, periodStart, periodEnd *time.Time) ([]services.PayrollLine, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT`+payrollLineColumns+`
FROM payroll_lines
WHERE cost_center = $1 AND alive
  AND ($2::date IS NULL OR period_start >= $2)
  AND ($3::date IS NULL OR period_end <= $3)
ORDER BY period_start, employee_id, rubric_id, id`, costCenter, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayrollLines(rows)
}

func collectPayrollLines(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]services.PayrollLine, error) {
	var out []services.PayrollLine
	for rows.Next() {
		line, err := scanPayrollLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

func (r *PayrollLineRepository) SoftDelete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE payroll_lines SET alive = false WHERE id = $1 AND alive`, id)
	return err
}
