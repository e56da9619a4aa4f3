package persistence

import (
	"context"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/composables"
)

type RubricRepository struct{}

func NewRubricRepository() *RubricRepository {
	return &RubricRepository{}
}

const rubricColumns = `id, code, description, kind, percentage, alive, created_at, updated_at`

func scanRubric(row interface{ Scan(...any) error }) (services.Rubric, error) {
	var r services.Rubric
	err := row.Scan(&r.ID, &r.Code, &r.Description, &r.Kind, &r.Percentage, &r.Alive, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (r *RubricRepository) GetByID(ctx context.Context, id int64) (services.Rubric, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Rubric{}, err
	}
	return scanRubric(tx.QueryRow(ctx, `SELECT `+rubricColumns+` FROM rubrics WHERE id = $1`, id))
}

func (r *RubricRepository) GetByCode(ctx context.Context, code string) (services.Rubric, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Rubric{}, err
	}
	return scanRubric(tx.QueryRow(ctx, `SELECT `+rubricColumns+` FROM rubrics WHERE code = $1 AND alive`, code))
}

func (r *RubricRepository) List(ctx context.Context) ([]services.Rubric, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT `+rubricColumns+` FROM rubrics WHERE alive ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.Rubric
	for rows.Next() {
		rubric, err := scanRubric(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rubric)
	}
	return out, rows.Err()
}

func (r *RubricRepository) UpsertByCode(ctx context.Context, rubric services.Rubric) (services.Rubric, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Rubric{}, err
	}
	// DO NOTHING keeps the first writer's row under concurrent imports;
	// the reselect returns whichever row won.
	if _, err := tx.Exec(ctx, `
INSERT INTO rubrics (code, description, kind, percentage, alive)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (code) DO NOTHING`,
		rubric.Code, rubric.Description, rubric.Kind, rubric.Percentage, rubric.Alive,
	); err != nil {
		return services.Rubric{}, err
	}
	return scanRubric(tx.QueryRow(ctx, `SELECT `+rubricColumns+` FROM rubrics WHERE code = $1`, rubric.Code))
}

func (r *RubricRepository) Update(ctx context.Context, rubric services.Rubric) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
UPDATE rubrics
SET code = $2, description = $3, kind = $4, percentage = $5, updated_at = now()
WHERE id = $1 AND alive`,
		rubric.ID, rubric.Code, rubric.Description, rubric.Kind, rubric.Percentage)
	return err
}

func (r *RubricRepository) SoftDelete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE rubrics SET alive = false, updated_at = now() WHERE id = $1 AND alive`, id)
	return err
}
