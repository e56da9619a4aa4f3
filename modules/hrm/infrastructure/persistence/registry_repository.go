package persistence

import (
	"context"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/composables"
)

type PositionRepository struct{}

func NewPositionRepository() *PositionRepository {
	return &PositionRepository{}
}

func (r *PositionRepository) GetByID(ctx context.Context, id int64) (services.Position, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Position{}, err
	}
	var p services.Position
	if err := tx.QueryRow(ctx,
		`SELECT id, code, description, alive, created_at, updated_at FROM positions WHERE id = $1`, id,
	).Scan(&p.ID, &p.Code, &p.Description, &p.Alive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return services.Position{}, err
	}
	return p, nil
}

func (r *PositionRepository) List(ctx context.Context) ([]services.Position, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx,
		`SELECT id, code, description, alive, created_at, updated_at FROM positions WHERE alive ORDER BY description, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.Position
	for rows.Next() {
		var p services.Position
		if err := rows.Scan(&p.ID, &p.Code, &p.Description, &p.Alive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PositionRepository) Insert(ctx context.Context, p services.Position) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO positions (code, description) VALUES ($1, $2) RETURNING id`,
		p.Code, p.Description,
	).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PositionRepository) Update(ctx context.Context, p services.Position) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE positions SET code = $2, description = $3, updated_at = now() WHERE id = $1 AND alive`,
		p.ID, p.Code, p.Description)
	return err
}

func (r *PositionRepository) SoftDelete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE positions SET alive = false, updated_at = now() WHERE id = $1 AND alive`, id)
	return err
}

type CostCenterRepository struct{}

func NewCostCenterRepository() *CostCenterRepository {
	return &CostCenterRepository{}
}

func (r *CostCenterRepository) GetByID(ctx context.Context, id int64) (services.CostCenter, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.CostCenter{}, err
	}
	var c services.CostCenter
	if err := tx.QueryRow(ctx,
		`SELECT id, code, description, business_line_id, alive, created_at, updated_at FROM cost_centers WHERE id = $1`, id,
	).Scan(&c.ID, &c.Code, &c.Description, &c.BusinessLineID, &c.Alive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return services.CostCenter{}, err
	}
	return c, nil
}

func (r *CostCenterRepository) List(ctx context.Context) ([]services.CostCenter, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx,
		`SELECT id, code, description, business_line_id, alive, created_at, updated_at FROM cost_centers WHERE alive ORDER BY description, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.CostCenter
	for rows.Next() {
		var c services.CostCenter
		if err := rows.Scan(&c.ID, &c.Code, &c.Description, &c.BusinessLineID, &c.Alive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CostCenterRepository) ListByBusinessLine(ctx context.Context, businessLineID int64) ([]services.CostCenter, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx,
		`SELECT id, code, description, business_line_id, alive, created_at, updated_at FROM cost_centers WHERE business_line_id = $1 AND alive ORDER BY description, id`,
		businessLineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.CostCenter
	for rows.Next() {
		var c services.CostCenter
		if err := rows.Scan(&c.ID, &c.Code, &c.Description, &c.BusinessLineID, &c.Alive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CostCenterRepository) Insert(ctx context.Context, c services.CostCenter) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO cost_centers (code, description, business_line_id) VALUES ($1, $2, $3) RETURNING id`,
		c.Code, c.Description, c.BusinessLineID,
	).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *CostCenterRepository) Update(ctx context.Context, c services.CostCenter) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE cost_centers SET code = $2, description = $3, business_line_id = $4, updated_at = now() WHERE id = $1 AND alive`,
		c.ID, c.Code, c.Description, c.BusinessLineID)
	return err
}

func (r *CostCenterRepository) SoftDelete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE cost_centers SET alive = false, updated_at = now() WHERE id = $1 AND alive`, id)
	return err
}

type BusinessLineRepository struct{}

func NewBusinessLineRepository() *BusinessLineRepository {
	return &BusinessLineRepository{}
}

func (r *BusinessLineRepository) GetByID(ctx context.Context, id int64) (services.BusinessLine, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.BusinessLine{}, err
	}
	var b services.BusinessLine
	if err := tx.QueryRow(ctx,
		`SELECT id, code, description, alive, created_at, updated_at FROM business_lines WHERE id = $1`, id,
	).Scan(&b.ID, &b.Code, &b.Description, &b.Alive, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return services.BusinessLine{}, err
	}
	return b, nil
}

func (r *BusinessLineRepository) List(ctx context.Context) ([]services.BusinessLine, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx,
		`SELECT id, code, description, alive, created_at, updated_at FROM business_lines WHERE alive ORDER BY description, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.BusinessLine
	for rows.Next() {
		var b services.BusinessLine
		if err := rows.Scan(&b.ID, &b.Code, &b.Description, &b.Alive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BusinessLineRepository) Insert(ctx context.Context, b services.BusinessLine) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO business_lines (code, description) VALUES ($1, $2) RETURNING id`,
		b.Code, b.Description,
	).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *BusinessLineRepository) Update(ctx context.Context, b services.BusinessLine) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE business_lines SET code = $2, description = $3, updated_at = now() WHERE id = $1 AND alive`,
		b.ID, b.Code, b.Description)
	return err
}

func (r *BusinessLineRepository) SoftDelete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE business_lines SET alive = false, updated_at = now() WHERE id = $1 AND alive`, id)
	return err
}
