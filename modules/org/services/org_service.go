package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/org/domain/events"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/composables"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/eventbus"
)

// NodeStore is the persistence surface the hierarchy engine runs on.
// Every method expects a transaction (or pool) in the context.
type NodeStore interface {
	GetNode(ctx context.Context, id int64) (Node, error)
	InsertNode(ctx context.Context, in NodeInsert) (int64, error)
	UpdateNodeFields(ctx context.Context, id int64, name, description string, position int, updatedBy string) error
	SetParent(ctx context.Context, id int64, parentID *int64, depth, position int, updatedBy string) error
	SetDepth(ctx context.Context, id int64, depth int) error
	SoftDeleteNode(ctx context.Context, id int64, deletedBy string) error

	ListNodes(ctx context.Context) ([]Node, error)
	ListRoots(ctx context.Context) ([]Node, error)
	ListChildren(ctx context.Context, parentID int64) ([]Node, error)
	HasAliveChildren(ctx context.Context, id int64) (bool, error)
	ListActiveNodes(ctx context.Context) ([]Node, error)

	DeactivateAll(ctx context.Context) (int64, error)
	SetHierarchyActive(ctx context.Context, id int64, active bool) error

	DeleteLinksForNode(ctx context.Context, nodeID int64) error

	EmployeeLinkExists(ctx context.Context, nodeID, employeeID int64) (bool, error)
	InsertEmployeeLink(ctx context.Context, nodeID, employeeID int64, createdBy string) (int64, error)
	DeleteEmployeeLink(ctx context.Context, nodeID, employeeID int64) (bool, error)
	ListEmployeeLinks(ctx context.Context, nodeID int64) ([]EmployeeLink, error)
	EmployeeAlive(ctx context.Context, employeeID int64) (bool, error)

	CostCenterLinkExists(ctx context.Context, nodeID, costCenterID int64) (bool, error)
	InsertCostCenterLink(ctx context.Context, nodeID, costCenterID int64, createdBy string) (int64, error)
	DeleteCostCenterLink(ctx context.Context, nodeID, costCenterID int64) (bool, error)
	ListCostCenterLinks(ctx context.Context, nodeID int64) ([]CostCenterLink, error)
	CostCenterAlive(ctx context.Context, costCenterID int64) (bool, error)
}

type Node struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Depth           int        `json:"depth"`
	ParentID        *int64     `json:"parent_id"`
	Position        int        `json:"position"`
	Alive           bool       `json:"-"`
	HierarchyActive bool       `json:"hierarchy_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CreatedBy       string     `json:"created_by"`
	UpdatedBy       string     `json:"updated_by"`
}

type NodeInsert struct {
	Name        string
	Description string
	Depth       int
	ParentID    *int64
	Position    int
	CreatedBy   string
}

type EmployeeLink struct {
	ID         int64     `json:"id"`
	NodeID     int64     `json:"node_id"`
	EmployeeID int64     `json:"employee_id"`
	Employee   string    `json:"employee"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `json:"created_by"`
}

type CostCenterLink struct {
	ID           int64     `json:"id"`
	NodeID       int64     `json:"node_id"`
	CostCenterID int64     `json:"cost_center_id"`
	CostCenter   string    `json:"cost_center"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    string    `json:"created_by"`
}

// TreeNode is the in-memory forest shape returned by ActiveTree.
type TreeNode struct {
	Node
	Children []*TreeNode `json:"children"`
}

type OrgService struct {
	store     NodeStore
	publisher eventbus.EventBus
}

func NewOrgService(store NodeStore, publisher eventbus.EventBus) *OrgService {
	return &OrgService{store: store, publisher: publisher}
}

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

type CreateNodeInput struct {
	Name        string
	Description string
	ParentID    *int64
	Position    int
	Actor       string
}

func (s *OrgService) Create(ctx context.Context, in CreateNodeInput) (*Node, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, newServiceError(http.StatusBadRequest, "ORG_INVALID_BODY", "name is required", nil)
	}

	node, err := inTx(ctx, func(txCtx context.Context) (Node, error) {
		depth := 0
		if in.ParentID != nil {
			parent, err := s.aliveNode(txCtx, *in.ParentID)
			if err != nil {
				return Node{}, err
			}
			depth = parent.Depth + 1
		}
		id, err := s.store.InsertNode(txCtx, NodeInsert{
			Name:        in.Name,
			Description: in.Description,
			Depth:       depth,
			ParentID:    in.ParentID,
			Position:    in.Position,
			CreatedBy:   in.Actor,
		})
		if err != nil {
			return Node{}, mapPgError(err)
		}
		n, err := s.store.GetNode(txCtx, id)
		if err != nil {
			return Node{}, mapPgError(err)
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.NodeCreatedEvent{
		NodeID:    node.ID,
		ParentID:  node.ParentID,
		Name:      node.Name,
		Depth:     node.Depth,
		CreatedAt: node.CreatedAt,
	})
	return &node, nil
}

type UpdateNodeInput struct {
	ID          int64
	Name        string
	Description string
	Position    int
	// ParentID carries the requested parent. When it differs from the
	// stored parent the update routes through Move.
	ParentID    *int64
	ParentSet   bool
	Actor       string
}

func (s *OrgService) Update(ctx context.Context, in UpdateNodeInput) (*Node, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, newServiceError(http.StatusBadRequest, "ORG_INVALID_BODY", "name is required", nil)
	}

	node, err := inTx(ctx, func(txCtx context.Context) (Node, error) {
		current, err := s.aliveNode(txCtx, in.ID)
		if err != nil {
			return Node{}, err
		}
		if err := s.store.UpdateNodeFields(txCtx, in.ID, in.Name, in.Description, in.Position, in.Actor); err != nil {
			return Node{}, mapPgError(err)
		}
		if in.ParentSet && !sameParent(current.ParentID, in.ParentID) {
			if err := s.moveLocked(txCtx, current, in.ParentID, &in.Position, in.Actor); err != nil {
				return Node{}, err
			}
		}
		n, err := s.store.GetNode(txCtx, in.ID)
		if err != nil {
			return Node{}, mapPgError(err)
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.NodeUpdatedEvent{NodeID: node.ID, Name: node.Name, UpdatedAt: node.UpdatedAt})
	return &node, nil
}

// Delete soft-deletes a childless node, removing its associations first.
func (s *OrgService) Delete(ctx context.Context, id int64, actor string) error {
	_, err := inTx(ctx, func(txCtx context.Context) (struct{}, error) {
		node, err := s.aliveNode(txCtx, id)
		if err != nil {
			return struct{}{}, err
		}
		hasChildren, err := s.store.HasAliveChildren(txCtx, node.ID)
		if err != nil {
			return struct{}{}, mapPgError(err)
		}
		if hasChildren {
			return struct{}{}, newServiceError(http.StatusConflict, "ORG_HAS_CHILDREN", "node has alive children", nil)
		}
		if err := s.store.DeleteLinksForNode(txCtx, node.ID); err != nil {
			return struct{}{}, mapPgError(err)
		}
		if err := s.store.SoftDeleteNode(txCtx, node.ID, actor); err != nil {
			return struct{}{}, mapPgError(err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	s.publish(events.NodeDeletedEvent{NodeID: id, Cascade: false, Deleted: []int64{id}})
	return nil
}

// DeleteCascade soft-deletes the node and its entire alive subtree,
// children before parents, dropping each node's associations as it goes.
func (s *OrgService) DeleteCascade(ctx context.Context, id int64, actor string) error {
	deleted, err := inTx(ctx, func(txCtx context.Context) ([]int64, error) {
		node, err := s.aliveNode(txCtx, id)
		if err != nil {
			return nil, err
		}

		// Post-order over an explicit stack: push parents, pop into a
		// reversed list so leaves come first.
		order := make([]int64, 0, 8)
		stack := []int64{node.ID}
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			order = append(order, current)
			children, err := s.store.ListChildren(txCtx, current)
			if err != nil {
				return nil, mapPgError(err)
			}
			for _, child := range children {
				stack = append(stack, child.ID)
			}
		}

		for i := len(order) - 1; i >= 0; i-- {
			if err := s.store.DeleteLinksForNode(txCtx, order[i]); err != nil {
				return nil, mapPgError(err)
			}
			if err := s.store.SoftDeleteNode(txCtx, order[i], actor); err != nil {
				return nil, mapPgError(err)
			}
		}
		return order, nil
	})
	if err != nil {
		return err
	}

	s.publish(events.NodeDeletedEvent{NodeID: id, Cascade: true, Deleted: deleted})
	return nil
}

// Move reparents a node. The cycle check walks upward from the new
// parent before anything is mutated; depth is then recomputed for the
// node and every alive descendant.
func (s *OrgService) Move(ctx context.Context, id int64, newParentID *int64, newPosition *int, actor string) (*Node, error) {
	var oldParent *int64
	node, err := inTx(ctx, func(txCtx context.Context) (Node, error) {
		current, err := s.aliveNode(txCtx, id)
		if err != nil {
			return Node{}, err
		}
		oldParent = current.ParentID
		if err := s.moveLocked(txCtx, current, newParentID, newPosition, actor); err != nil {
			return Node{}, err
		}
		n, err := s.store.GetNode(txCtx, id)
		if err != nil {
			return Node{}, mapPgError(err)
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.NodeMovedEvent{
		NodeID:      node.ID,
		OldParentID: oldParent,
		NewParentID: node.ParentID,
		NewDepth:    node.Depth,
	})
	return &node, nil
}

func (s *OrgService) moveLocked(ctx context.Context, node Node, newParentID *int64, newPosition *int, actor string) error {
	depth := 0
	if newParentID != nil {
		if *newParentID == node.ID {
			return newServiceError(http.StatusUnprocessableEntity, "ORG_CYCLE", "node cannot be its own parent", nil)
		}
		parent, err := s.aliveNode(ctx, *newParentID)
		if err != nil {
			return err
		}
		// Walk upward from the new parent. Hitting the moved node means
		// the new parent sits inside the moved node's subtree.
		ancestor := parent
		for {
			if ancestor.ID == node.ID {
				return newServiceError(http.StatusUnprocessableEntity, "ORG_CYCLE", "move would create a cycle", nil)
			}
			if ancestor.ParentID == nil {
				break
			}
			next, err := s.store.GetNode(ctx, *ancestor.ParentID)
			if err != nil {
				return mapPgError(err)
			}
			ancestor = next
		}
		depth = parent.Depth + 1
	}

	position := node.Position
	if newPosition != nil {
		position = *newPosition
	}
	if err := s.store.SetParent(ctx, node.ID, newParentID, depth, position, actor); err != nil {
		return mapPgError(err)
	}

	// Depth recomputation over the alive subtree, each node visited once.
	type pending struct {
		id    int64
		depth int
	}
	queue := []pending{{id: node.ID, depth: depth}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		children, err := s.store.ListChildren(ctx, current.id)
		if err != nil {
			return mapPgError(err)
		}
		for _, child := range children {
			if err := s.store.SetDepth(ctx, child.ID, current.depth+1); err != nil {
				return mapPgError(err)
			}
			queue = append(queue, pending{id: child.ID, depth: current.depth + 1})
		}
	}
	return nil
}

// Activate marks a root node and its entire alive subtree as the active
// hierarchy, clearing the flag everywhere else first.
func (s *OrgService) Activate(ctx context.Context, id int64) error {
	marked, err := inTx(ctx, func(txCtx context.Context) ([]int64, error) {
		node, err := s.aliveNode(txCtx, id)
		if err != nil {
			return nil, err
		}
		if node.ParentID != nil {
			return nil, newServiceError(http.StatusConflict, "ORG_NOT_ROOT", "only a root node can be activated", nil)
		}
		if _, err := s.store.DeactivateAll(txCtx); err != nil {
			return nil, mapPgError(err)
		}

		var marked []int64
		queue := []int64{node.ID}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			if err := s.store.SetHierarchyActive(txCtx, current, true); err != nil {
				return nil, mapPgError(err)
			}
			marked = append(marked, current)
			children, err := s.store.ListChildren(txCtx, current)
			if err != nil {
				return nil, mapPgError(err)
			}
			for _, child := range children {
				queue = append(queue, child.ID)
			}
		}
		return marked, nil
	})
	if err != nil {
		return err
	}

	s.publish(events.HierarchyActivatedEvent{RootID: id, Nodes: marked})
	return nil
}

// Deactivate clears the active flag system-wide. Idempotent.
func (s *OrgService) Deactivate(ctx context.Context) error {
	cleared, err := inTx(ctx, func(txCtx context.Context) (int64, error) {
		n, err := s.store.DeactivateAll(txCtx)
		if err != nil {
			return 0, mapPgError(err)
		}
		return n, nil
	})
	if err != nil {
		return err
	}

	s.publish(events.HierarchyDeactivatedEvent{Cleared: cleared})
	return nil
}

// ActiveTree fetches every alive active node and assembles the forest in
// memory. A node whose parent is absent from the fetched set becomes a
// synthetic root.
func (s *OrgService) ActiveTree(ctx context.Context) ([]*TreeNode, error) {
	nodes, err := inTx(ctx, func(txCtx context.Context) ([]Node, error) {
		rows, err := s.store.ListActiveNodes(txCtx)
		if err != nil {
			return nil, mapPgError(err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return assembleForest(nodes), nil
}

func assembleForest(nodes []Node) []*TreeNode {
	byID := make(map[int64]*TreeNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = &TreeNode{Node: n}
	}

	var roots []*TreeNode
	for _, n := range nodes {
		tn := byID[n.ID]
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok {
				parent.Children = append(parent.Children, tn)
				continue
			}
		}
		roots = append(roots, tn)
	}

	var sortChildren func(list []*TreeNode)
	sortChildren = func(list []*TreeNode) {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Position != list[j].Position {
				return list[i].Position < list[j].Position
			}
			return list[i].ID < list[j].ID
		})
		for _, tn := range list {
			sortChildren(tn.Children)
		}
	}
	sortChildren(roots)
	return roots
}

// ActiveRoot returns the root of the currently active hierarchy with
// its whole subtree attached.
func (s *OrgService) ActiveRoot(ctx context.Context) (*TreeNode, error) {
	roots, err := s.ActiveTree(ctx)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, newServiceError(http.StatusNotFound, "ORG_NO_ACTIVE", "no active hierarchy", nil)
	}
	return roots[0], nil
}

// List returns every alive node, parents before children.
func (s *OrgService) List(ctx context.Context) ([]Node, error) {
	return inTx(ctx, func(txCtx context.Context) ([]Node, error) {
		nodes, err := s.store.ListNodes(txCtx)
		if err != nil {
			return nil, mapPgError(err)
		}
		return nodes, nil
	})
}

// ChildrenOf lists the children of parentID, or the alive roots when
// parentID is nil.
func (s *OrgService) ChildrenOf(ctx context.Context, parentID *int64) ([]Node, error) {
	return inTx(ctx, func(txCtx context.Context) ([]Node, error) {
		if parentID == nil {
			roots, err := s.store.ListRoots(txCtx)
			if err != nil {
				return nil, mapPgError(err)
			}
			return roots, nil
		}
		if _, err := s.aliveNode(txCtx, *parentID); err != nil {
			return nil, err
		}
		children, err := s.store.ListChildren(txCtx, *parentID)
		if err != nil {
			return nil, mapPgError(err)
		}
		return children, nil
	})
}

func (s *OrgService) Children(ctx context.Context, id int64) ([]Node, error) {
	return inTx(ctx, func(txCtx context.Context) ([]Node, error) {
		if _, err := s.aliveNode(txCtx, id); err != nil {
			return nil, err
		}
		children, err := s.store.ListChildren(txCtx, id)
		if err != nil {
			return nil, mapPgError(err)
		}
		return children, nil
	})
}

func (s *OrgService) Get(ctx context.Context, id int64) (*Node, error) {
	node, err := inTx(ctx, func(txCtx context.Context) (Node, error) {
		return s.aliveNode(txCtx, id)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (s *OrgService) aliveNode(ctx context.Context, id int64) (Node, error) {
	node, err := s.store.GetNode(ctx, id)
	if err != nil {
		return Node{}, mapPgError(err)
	}
	if !node.Alive {
		return Node{}, newServiceError(http.StatusNotFound, "ORG_NOT_FOUND", "node not found", nil)
	}
	return node, nil
}

func (s *OrgService) publish(event any) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func mapPgError(err error) error {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return mapPgErrorToServiceError(err)
}

// transact is swapped out by unit tests running against in-memory stores.
var transact = composables.InTx

func inTx[T any](ctx context.Context, fn func(txCtx context.Context) (T, error)) (T, error) {
	var out T
	err := transact(ctx, func(txCtx context.Context) error {
		var err error
		out, err = fn(txCtx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
