package persistence

import (
	"context"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/composables"
)

type EmployeeRepository struct{}

func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{}
}

const employeeColumns = `
	id, name, external_id, position_id, cost_center_id, business_line_id,
	admission_date, sex, salary_type, role, irrf_dependents,
	family_salary_dependents, contract_type, alive, created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (services.Employee, error) {
	var e services.Employee
	err := row.Scan(
		&e.ID, &e.Name, &e.ExternalID, &e.PositionID, &e.CostCenterID, &e.BusinessLineID,
		&e.AdmissionDate, &e.Sex, &e.SalaryType, &e.Role, &e.IRRFDependents,
		&e.FamilySalaryDeps, &e.ContractType, &e.Alive, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (services.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Employee{}, err
	}
	return scanEmployee(tx.QueryRow(ctx, `SELECT`+employeeColumns+` FROM employees WHERE id = $1`, id))
}

func (r *EmployeeRepository) GetByExternalID(ctx context.Context, externalID string) (services.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Employee{}, err
	}
	return scanEmployee(tx.QueryRow(ctx,
		`SELECT`+employeeColumns+` FROM employees WHERE external_id = $1 AND alive`, externalID))
}

func (r *EmployeeRepository) SnapshotByExternalID(ctx context.Context, externalID string) (services.EmployeeSnapshot, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.EmployeeSnapshot{}, err
	}
	var snap services.EmployeeSnapshot
	if err := tx.QueryRow(ctx, `
SELECT e.id, e.name,
       COALESCE(p.description, ''),
       COALESCE(c.description, ''),
       COALESCE(b.description, '')
FROM employees e
LEFT JOIN positions p ON p.id = e.position_id
LEFT JOIN cost_centers c ON c.id = e.cost_center_id
LEFT JOIN business_lines b ON b.id = e.business_line_id
WHERE e.external_id = $1 AND e.alive
`, externalID).Scan(&snap.ID, &snap.Name, &snap.Position, &snap.CostCenter, &snap.BusinessLine); err != nil {
		return services.EmployeeSnapshot{}, err
	}
	return snap, nil
}

func (r *EmployeeRepository) List(ctx context.Context) ([]services.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT`+employeeColumns+` FROM employees WHERE alive ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EmployeeRepository) Insert(ctx context.Context, e services.Employee) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(ctx, `
INSERT INTO employees (
	name, external_id, position_id, cost_center_id, business_line_id,
	admission_date, sex, salary_type, role, irrf_dependents,
	family_salary_dependents, contract_type
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING id
`,
		e.Name, e.ExternalID, e.PositionID, e.CostCenterID, e.BusinessLineID,
		e.AdmissionDate, e.Sex, e.SalaryType, e.Role, e.IRRFDependents,
		e.FamilySalaryDeps, e.ContractType,
	).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *EmployeeRepository) Update(ctx context.Context, e services.Employee) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
UPDATE employees
SET name = $2, external_id = $3, position_id = $4, cost_center_id = $5,
    business_line_id = $6, admission_date = $7, sex = $8, salary_type = $9,
    role = $10, irrf_dependents = $11, family_salary_dependents = $12,
    contract_type = $13, updated_at = now()
WHERE id = $1 AND alive
`,
		e.ID, e.Name, e.ExternalID, e.PositionID, e.CostCenterID,
		e.BusinessLineID, e.AdmissionDate, e.Sex, e.SalaryType,
		e.Role, e.IRRFDependents, e.FamilySalaryDeps, e.ContractType,
	)
	return err
}

func (r *EmployeeRepository) SoftDelete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE employees SET alive = false, updated_at = now() WHERE id = $1 AND alive`, id)
	return err
}
