package persistence

import (
	"context"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/org/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/composables"
)

type OrgRepository struct{}

func NewOrgRepository() *OrgRepository {
	return &OrgRepository{}
}

const nodeColumns = `
	id, name, description, depth, parent_id, position, alive, hierarchy_active,
	created_at, updated_at, created_by, updated_by`

func (r *OrgRepository) GetNode(ctx context.Context, id int64) (services.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return services.Node{}, err
	}
	var n services.Node
	if err := tx.QueryRow(ctx, `
SELECT`+nodeColumns+`
FROM org_nodes
WHERE id = $1
`, id).Scan(
		&n.ID, &n.Name, &n.Description, &n.Depth, &n.ParentID, &n.Position,
		&n.Alive, &n.HierarchyActive, &n.CreatedAt, &n.UpdatedAt, &n.CreatedBy, &n.UpdatedBy,
	); err != nil {
		return services.Node{}, err
	}
	return n, nil
}

func (r *OrgRepository) InsertNode(ctx context.Context, in services.NodeInsert) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(ctx, `
INSERT INTO org_nodes (name, description, depth, parent_id, position, created_by, updated_by)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING id
`, in.Name, in.Description, in.Depth, in.ParentID, in.Position, in.CreatedBy).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *OrgRepository) UpdateNodeFields(ctx context.Context, id int64, name, description string, position int, updatedBy string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
UPDATE org_nodes
SET name = $2, description = $3, position = $4, updated_by = $5, updated_at = now()
WHERE id = $1 AND alive
`, id, name, description, position, updatedBy)
	return err
}

func (r *OrgRepository) SetParent(ctx context.Context, id int64, parentID *int64, depth, position int, updatedBy string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
UPDATE org_nodes
SET parent_id = $2, depth = $3, position = $4, updated_by = $5, updated_at = now()
WHERE id = $1 AND alive
`, id, parentID, depth, position, updatedBy)
	return err
}

func (r *OrgRepository) SetDepth(ctx context.Context, id int64, depth int) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE org_nodes SET depth = $2, updated_at = now() WHERE id = $1 AND alive`, id, depth)
	return err
}

func (r *OrgRepository) SoftDeleteNode(ctx context.Context, id int64, deletedBy string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
UPDATE org_nodes
SET alive = false, hierarchy_active = false, updated_by = $2, updated_at = now()
WHERE id = $1 AND alive
`, id, deletedBy)
	return err
}

func (r *OrgRepository) ListNodes(ctx context.Context) ([]services.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT`+nodeColumns+`
FROM org_nodes
WHERE alive
ORDER BY depth, position, id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.Node
	for rows.Next() {
		var n services.Node
		if err := rows.Scan(
			&n.ID, &n.Name, &n.Description, &n.Depth, &n.ParentID, &n.Position,
			&n.Alive, &n.HierarchyActive, &n.CreatedAt, &n.UpdatedAt, &n.CreatedBy, &n.UpdatedBy,
		); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *OrgRepository) ListRoots(ctx context.Context) ([]services.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT`+nodeColumns+`
FROM org_nodes
WHERE parent_id IS NULL AND alive
ORDER BY position, id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.Node
	for rows.Next() {
		var n services.Node
		if err := rows.Scan(
			&n.ID, &n.Name, &n.Description, &n.Depth, &n.ParentID, &n.Position,
			&n.Alive, &n.HierarchyActive, &n.CreatedAt, &n.UpdatedAt, &n.CreatedBy, &n.UpdatedBy,
		); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *OrgRepository) ListChildren(ctx context.Context, parentID int64) ([]services.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT`+nodeColumns+`
FROM org_nodes
WHERE parent_id = $1 AND alive
ORDER BY position, id
`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.Node
	for rows.Next() {
		var n services.Node
		if err := rows.Scan(
			&n.ID, &n.Name, &n.Description, &n.Depth, &n.ParentID, &n.Position,
			&n.Alive, &n.HierarchyActive, &n.CreatedAt, &n.UpdatedAt, &n.CreatedBy, &n.UpdatedBy,
		); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *OrgRepository) HasAliveChildren(ctx context.Context, id int64) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM org_nodes WHERE parent_id = $1 AND alive)`, id,
	).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *OrgRepository) ListActiveNodes(ctx context.Context) ([]services.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT`+nodeColumns+`
FROM org_nodes
WHERE alive AND hierarchy_active
ORDER BY depth, position, id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []services.Node
	for rows.Next() {
		var n services.Node
		if err := rows.Scan(
			&n.ID, &n.Name, &n.Description, &n.Depth, &n.ParentID, &n.Position,
			&n.Alive, &n.HierarchyActive, &n.CreatedAt, &n.UpdatedAt, &n.CreatedBy, &n.UpdatedBy,
		); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *OrgRepository) DeactivateAll(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, `UPDATE org_nodes SET hierarchy_active = false, updated_at = now() WHERE hierarchy_active`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *OrgRepository) SetHierarchyActive(ctx context.Context, id int64, active bool) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE org_nodes SET hierarchy_active = $2, updated_at = now() WHERE id = $1 AND alive`, id, active)
	return err
}

func (r *OrgRepository) DeleteLinksForNode(ctx context.Context, nodeID int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM org_node_employees WHERE node_id = $1`, nodeID); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `DELETE FROM org_node_cost_centers WHERE node_id = $1`, nodeID)
	return err
}
