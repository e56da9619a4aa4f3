package persistence

import (
	"context"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/org/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/composables"
)

func (r *OrgRepository) EmployeeLinkExists(ctx context.Context, nodeID, employeeID int64) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM org_node_employees WHERE node_id = $1 AND employee_id = $2)`,
		nodeID, employeeID,
	).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *OrgRepository) InsertEmployeeLink(ctx context.Context, nodeID, employeeID int64, createdBy string) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(ctx, `
INSERT INTO org_node_employees (node_id, employee_id, created_by)
VALUES ($1, $2, $3)
RETURNING id
`, nodeID, employeeID, createdBy).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *OrgRepository) DeleteEmployeeLink(ctx context.Context, nodeID, employeeID int64) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx,
		`DELETE FROM org_node_employees WHERE node_id = $1 AND employee_id = $2`, nodeID, employeeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListEmployeeLinks joins the employee registry so dead employees drop
// out of the listing.
func (r *OrgRepository) ListEmployeeLinks(ctx context.Context, nodeID int64) ([]services.EmployeeLink, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT l.id, l.node_id, l.employee_id, e.name, l.created_at, l.created_by
FROM org_node_employees l
JOIN employees e ON e.id = l.employee_id AND e.alive
WHERE l.node_id = $1
ORDER BY e.name, l.id
`, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.EmployeeLink
	for rows.Next() {
		var l services.EmployeeLink
		if err := rows.Scan(&l.ID, &l.NodeID, &l.EmployeeID, &l.Employee, &l.CreatedAt, &l.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *OrgRepository) EmployeeAlive(ctx context.Context, employeeID int64) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var alive bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM employees WHERE id = $1 AND alive)`, employeeID,
	).Scan(&alive); err != nil {
		return false, err
	}
	return alive, nil
}

func (r *OrgRepository) CostCenterLinkExists(ctx context.Context, nodeID, costCenterID int64) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM org_node_cost_centers WHERE node_id = $1 AND cost_center_id = $2)`,
		nodeID, costCenterID,
	).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *OrgRepository) InsertCostCenterLink(ctx context.Context, nodeID, costCenterID int64, createdBy string) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(ctx, `
INSERT INTO org_node_cost_centers (node_id, cost_center_id, created_by)
VALUES ($1, $2, $3)
RETURNING id
`, nodeID, costCenterID, createdBy).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *OrgRepository) DeleteCostCenterLink(ctx context.Context, nodeID, costCenterID int64) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx,
		`DELETE FROM org_node_cost_centers WHERE node_id = $1 AND cost_center_id = $2`, nodeID, costCenterID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrgRepository) ListCostCenterLinks(ctx context.Context, nodeID int64) ([]services.CostCenterLink, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT l.id, l.node_id, l.cost_center_id, c.description, l.created_at, l.created_by
FROM org_node_cost_centers l
JOIN cost_centers c ON c.id = l.cost_center_id AND c.alive
WHERE l.node_id = $1
ORDER BY c.description, l.id
`, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.CostCenterLink
	for rows.Next() {
		var l services.CostCenterLink
		if err := rows.Scan(&l.ID, &l.NodeID, &l.CostCenterID, &l.CostCenter, &l.CreatedAt, &l.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *OrgRepository) CostCenterAlive(ctx context.Context, costCenterID int64) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var alive bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM cost_centers WHERE id = $1 AND alive)`, costCenterID,
	).Scan(&alive); err != nil {
		return false, err
	}
	return alive, nil
}
