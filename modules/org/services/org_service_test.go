package services

import (
	"context"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memStore is an in-memory NodeStore used to exercise the engine
// without a database.
type memStore struct {
	nextID        int64
	nodes         map[int64]*Node
	employeeLinks map[[2]int64]int64
	costLinks     map[[2]int64]int64
	employees     map[int64]bool
	costCenters   map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{
		nodes:         map[int64]*Node{},
		employeeLinks: map[[2]int64]int64{},
		costLinks:     map[[2]int64]int64{},
		employees:     map[int64]bool{},
		costCenters:   map[int64]bool{},
	}
}

func (m *memStore) GetNode(_ context.Context, id int64) (Node, error) {
	n, ok := m.nodes[id]
	if !ok {
		return Node{}, newServiceError(http.StatusNotFound, "ORG_NOT_FOUND", "node not found", nil)
	}
	return *n, nil
}

func (m *memStore) InsertNode(_ context.Context, in NodeInsert) (int64, error) {
	m.nextID++
	m.nodes[m.nextID] = &Node{
		ID:          m.nextID,
		Name:        in.Name,
		Description: in.Description,
		Depth:       in.Depth,
		ParentID:    in.ParentID,
		Position:    in.Position,
		Alive:       true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		CreatedBy:   in.CreatedBy,
		UpdatedBy:   in.CreatedBy,
	}
	return m.nextID, nil
}

func (m *memStore) UpdateNodeFields(_ context.Context, id int64, name, description string, position int, updatedBy string) error {
	n := m.nodes[id]
	n.Name, n.Description, n.Position, n.UpdatedBy = name, description, position, updatedBy
	return nil
}

func (m *memStore) SetParent(_ context.Context, id int64, parentID *int64, depth, position int, updatedBy string) error {
	n := m.nodes[id]
	n.ParentID, n.Depth, n.Position, n.UpdatedBy = parentID, depth, position, updatedBy
	return nil
}

func (m *memStore) SetDepth(_ context.Context, id int64, depth int) error {
	m.nodes[id].Depth = depth
	return nil
}

func (m *memStore) SoftDeleteNode(_ context.Context, id int64, deletedBy string) error {
	n := m.nodes[id]
	n.Alive = false
	n.HierarchyActive = false
	n.UpdatedBy = deletedBy
	return nil
}

func (m *memStore) ListNodes(_ context.Context) ([]Node, error) {
	var out []Node
	for _, n := range m.nodes {
		if n.Alive {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListRoots(_ context.Context) ([]Node, error) {
	var out []Node
	for _, n := range m.nodes {
		if n.Alive && n.ParentID == nil {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListChildren(_ context.Context, parentID int64) ([]Node, error) {
	var out []Node
	for _, n := range m.nodes {
		if n.Alive && n.ParentID != nil && *n.ParentID == parentID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) HasAliveChildren(ctx context.Context, id int64) (bool, error) {
	children, _ := m.ListChildren(ctx, id)
	return len(children) > 0, nil
}

func (m *memStore) ListActiveNodes(_ context.Context) ([]Node, error) {
	var out []Node
	for _, n := range m.nodes {
		if n.Alive && n.HierarchyActive {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) DeactivateAll(_ context.Context) (int64, error) {
	var cleared int64
	for _, n := range m.nodes {
		if n.HierarchyActive {
			n.HierarchyActive = false
			cleared++
		}
	}
	return cleared, nil
}

func (m *memStore) SetHierarchyActive(_ context.Context, id int64, active bool) error {
	m.nodes[id].HierarchyActive = active
	return nil
}

func (m *memStore) DeleteLinksForNode(_ context.Context, nodeID int64) error {
	for key := range m.employeeLinks {
		if key[0] == nodeID {
			delete(m.employeeLinks, key)
		}
	}
	for key := range m.costLinks {
		if key[0] == nodeID {
			delete(m.costLinks, key)
		}
	}
	return nil
}

func (m *memStore) EmployeeLinkExists(_ context.Context, nodeID, employeeID int64) (bool, error) {
	_, ok := m.employeeLinks[[2]int64{nodeID, employeeID}]
	return ok, nil
}

func (m *memStore) InsertEmployeeLink(_ context.Context, nodeID, employeeID int64, _ string) (int64, error) {
	m.nextID++
	m.employeeLinks[[2]int64{nodeID, employeeID}] = m.nextID
	return m.nextID, nil
}

func (m *memStore) DeleteEmployeeLink(_ context.Context, nodeID, employeeID int64) (bool, error) {
	key := [2]int64{nodeID, employeeID}
	_, ok := m.employeeLinks[key]
	delete(m.employeeLinks, key)
	return ok, nil
}

func (m *memStore) ListEmployeeLinks(_ context.Context, nodeID int64) ([]EmployeeLink, error) {
	var out []EmployeeLink
	for key, id := range m.employeeLinks {
		if key[0] == nodeID && m.employees[key[1]] {
			out = append(out, EmployeeLink{ID: id, NodeID: key[0], EmployeeID: key[1]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) EmployeeAlive(_ context.Context, employeeID int64) (bool, error) {
	return m.employees[employeeID], nil
}

func (m *memStore) CostCenterLinkExists(_ context.Context, nodeID, costCenterID int64) (bool, error) {
	_, ok := m.costLinks[[2]int64{nodeID, costCenterID}]
	return ok, nil
}

func (m *memStore) InsertCostCenterLink(_ context.Context, nodeID, costCenterID int64, _ string) (int64, error) {
	m.nextID++
	m.costLinks[[2]int64{nodeID, costCenterID}] = m.nextID
	return m.nextID, nil
}

func (m *memStore) DeleteCostCenterLink(_ context.Context, nodeID, costCenterID int64) (bool, error) {
	key := [2]int64{nodeID, costCenterID}
	_, ok := m.costLinks[key]
	delete(m.costLinks, key)
	return ok, nil
}

func (m *memStore) ListCostCenterLinks(_ context.Context, nodeID int64) ([]CostCenterLink, error) {
	var out []CostCenterLink
	for key, id := range m.costLinks {
		if key[0] == nodeID && m.costCenters[key[1]] {
			out = append(out, CostCenterLink{ID: id, NodeID: key[0], CostCenterID: key[1]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CostCenterAlive(_ context.Context, costCenterID int64) (bool, error) {
	return m.costCenters[costCenterID], nil
}

func newTestService(t *testing.T) (*OrgService, *memStore) {
	t.Helper()
	store := newMemStore()
	prev := transact
	transact = func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}
	t.Cleanup(func() { transact = prev })
	return NewOrgService(store, nil), store
}

func mustCreate(t *testing.T, svc *OrgService, name string, parentID *int64) *Node {
	t.Helper()
	node, err := svc.Create(context.Background(), CreateNodeInput{Name: name, ParentID: parentID, Actor: "test"})
	require.NoError(t, err)
	return node
}

// requireTreeInvariants checks depth consistency and acyclicity over
// every alive node.
func requireTreeInvariants(t *testing.T, store *memStore) {
	t.Helper()
	for id, n := range store.nodes {
		if !n.Alive {
			continue
		}
		if n.ParentID == nil {
			require.Equal(t, 0, n.Depth, "root node %d must have depth 0", id)
		} else {
			parent := store.nodes[*n.ParentID]
			require.Equal(t, parent.Depth+1, n.Depth, "node %d depth must be parent depth+1", id)
		}

		seen := map[int64]bool{}
		current := n
		for current.ParentID != nil {
			require.False(t, seen[current.ID], "cycle reachable from node %d", id)
			seen[current.ID] = true
			current = store.nodes[*current.ParentID]
		}
	}
}

func TestCreate_DerivesDepthFromParent(t *testing.T) {
	svc, store := newTestService(t)

	root := mustCreate(t, svc, "Diretoria", nil)
	require.Equal(t, 0, root.Depth)

	child := mustCreate(t, svc, "Engenharia", &root.ID)
	require.Equal(t, 1, child.Depth)

	grandchild := mustCreate(t, svc, "Plataforma", &child.ID)
	require.Equal(t, 2, grandchild.Depth)

	requireTreeInvariants(t, store)
}

func TestCreate_RequiresName(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreateNodeInput{Name: "   "})
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusBadRequest, svcErr.Status)
}

func TestCreate_DeadParentRejected(t *testing.T) {
	svc, _ := newTestService(t)
	root := mustCreate(t, svc, "Diretoria", nil)
	require.NoError(t, svc.Delete(context.Background(), root.ID, "test"))

	_, err := svc.Create(context.Background(), CreateNodeInput{Name: "Filho", ParentID: &root.ID})
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusNotFound, svcErr.Status)
}

func TestMove_RecomputesSubtreeDepths(t *testing.T) {
	svc, store := newTestService(t)

	rootA := mustCreate(t, svc, "A", nil)
	rootB := mustCreate(t, svc, "B", nil)
	child := mustCreate(t, svc, "A1", &rootA.ID)
	grandchild := mustCreate(t, svc, "A11", &child.ID)

	moved, err := svc.Move(context.Background(), child.ID, &rootB.ID, nil, "test")
	require.NoError(t, err)
	require.Equal(t, 1, moved.Depth)
	require.Equal(t, 2, store.nodes[grandchild.ID].Depth)
	requireTreeInvariants(t, store)
}

func TestMove_ToRootSetsDepthZero(t *testing.T) {
	svc, store := newTestService(t)

	root := mustCreate(t, svc, "A", nil)
	child := mustCreate(t, svc, "A1", &root.ID)
	grandchild := mustCreate(t, svc, "A11", &child.ID)

	moved, err := svc.Move(context.Background(), child.ID, nil, nil, "test")
	require.NoError(t, err)
	require.Nil(t, moved.ParentID)
	require.Equal(t, 0, moved.Depth)
	require.Equal(t, 1, store.nodes[grandchild.ID].Depth)
	requireTreeInvariants(t, store)
}

func TestMove_IntoOwnSubtreeRejected(t *testing.T) {
	svc, store := newTestService(t)

	root := mustCreate(t, svc, "A", nil)
	child := mustCreate(t, svc, "A1", &root.ID)
	grandchild := mustCreate(t, svc, "A11", &child.ID)

	_, err := svc.Move(context.Background(), child.ID, &grandchild.ID, nil, "test")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusUnprocessableEntity, svcErr.Status)
	require.Equal(t, "ORG_CYCLE", svcErr.Code)

	// Tree unchanged.
	require.Equal(t, root.ID, *store.nodes[child.ID].ParentID)
	require.Equal(t, 1, store.nodes[child.ID].Depth)
	requireTreeInvariants(t, store)
}

func TestMove_SelfParentRejected(t *testing.T) {
	svc, _ := newTestService(t)
	root := mustCreate(t, svc, "A", nil)

	_, err := svc.Move(context.Background(), root.ID, &root.ID, nil, "test")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, "ORG_CYCLE", svcErr.Code)
}

func TestDelete_WithAliveChildrenConflicts(t *testing.T) {
	svc, store := newTestService(t)

	root := mustCreate(t, svc, "A", nil)
	child := mustCreate(t, svc, "A1", &root.ID)

	err := svc.Delete(context.Background(), root.ID, "test")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusConflict, svcErr.Status)
	require.Equal(t, "ORG_HAS_CHILDREN", svcErr.Code)

	require.True(t, store.nodes[root.ID].Alive)
	require.True(t, store.nodes[child.ID].Alive)
}

func TestDelete_ChildlessRemovesLinksAndNode(t *testing.T) {
	svc, store := newTestService(t)
	store.employees[7] = true

	node := mustCreate(t, svc, "A", nil)
	_, err := svc.AssociateEmployee(context.Background(), node.ID, 7, "test")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), node.ID, "test"))
	require.False(t, store.nodes[node.ID].Alive)
	require.Empty(t, store.employeeLinks)
}

func TestDeleteCascade_LeavesNoAliveSubtree(t *testing.T) {
	svc, store := newTestService(t)
	store.employees[7] = true

	root := mustCreate(t, svc, "A", nil)
	child := mustCreate(t, svc, "A1", &root.ID)
	grandchild1 := mustCreate(t, svc, "A11", &child.ID)
	grandchild2 := mustCreate(t, svc, "A12", &child.ID)
	other := mustCreate(t, svc, "B", nil)

	_, err := svc.AssociateEmployee(context.Background(), grandchild1.ID, 7, "test")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCascade(context.Background(), root.ID, "test"))

	for _, id := range []int64{root.ID, child.ID, grandchild1.ID, grandchild2.ID} {
		require.False(t, store.nodes[id].Alive, "node %d should be soft-deleted", id)
	}
	require.True(t, store.nodes[other.ID].Alive)
	require.Empty(t, store.employeeLinks)
}

func TestActivate_MarksExactlyTheSubtree(t *testing.T) {
	svc, store := newTestService(t)

	rootA := mustCreate(t, svc, "A", nil)
	childA := mustCreate(t, svc, "A1", &rootA.ID)
	grandA := mustCreate(t, svc, "A11", &childA.ID)
	rootB := mustCreate(t, svc, "B", nil)
	childB := mustCreate(t, svc, "B1", &rootB.ID)

	require.NoError(t, svc.Activate(context.Background(), rootA.ID))
	for _, id := range []int64{rootA.ID, childA.ID, grandA.ID} {
		require.True(t, store.nodes[id].HierarchyActive)
	}
	require.False(t, store.nodes[rootB.ID].HierarchyActive)
	require.False(t, store.nodes[childB.ID].HierarchyActive)

	// Activating another root flips the whole active set.
	require.NoError(t, svc.Activate(context.Background(), rootB.ID))
	for _, id := range []int64{rootA.ID, childA.ID, grandA.ID} {
		require.False(t, store.nodes[id].HierarchyActive)
	}
	require.True(t, store.nodes[rootB.ID].HierarchyActive)
	require.True(t, store.nodes[childB.ID].HierarchyActive)
}

func TestActivate_NonRootRejected(t *testing.T) {
	svc, _ := newTestService(t)
	root := mustCreate(t, svc, "A", nil)
	child := mustCreate(t, svc, "A1", &root.ID)

	err := svc.Activate(context.Background(), child.ID)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusConflict, svcErr.Status)
	require.Equal(t, "ORG_NOT_ROOT", svcErr.Code)
}

func TestDeactivate_IsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	root := mustCreate(t, svc, "A", nil)
	require.NoError(t, svc.Activate(context.Background(), root.ID))

	require.NoError(t, svc.Deactivate(context.Background()))
	require.NoError(t, svc.Deactivate(context.Background()))
	require.False(t, store.nodes[root.ID].HierarchyActive)
}

func TestActiveTree_AssemblesForestWithSyntheticRoots(t *testing.T) {
	svc, store := newTestService(t)

	root := mustCreate(t, svc, "A", nil)
	child := mustCreate(t, svc, "A1", &root.ID)
	grand := mustCreate(t, svc, "A11", &child.ID)
	require.NoError(t, svc.Activate(context.Background(), root.ID))

	tree, err := svc.ActiveTree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Equal(t, root.ID, tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	require.Equal(t, child.ID, tree[0].Children[0].ID)
	require.Equal(t, grand.ID, tree[0].Children[0].Children[0].ID)

	// Drop the root from the active set: the child becomes a synthetic
	// root of the returned forest.
	store.nodes[root.ID].HierarchyActive = false
	tree, err = svc.ActiveTree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Equal(t, child.ID, tree[0].ID)
	require.Len(t, tree[0].Children, 1)
}

func TestUpdate_ParentChangeRoutesThroughMove(t *testing.T) {
	svc, store := newTestService(t)

	rootA := mustCreate(t, svc, "A", nil)
	rootB := mustCreate(t, svc, "B", nil)
	child := mustCreate(t, svc, "A1", &rootA.ID)
	grand := mustCreate(t, svc, "A11", &child.ID)

	newParent := rootB.ID
	updated, err := svc.Update(context.Background(), UpdateNodeInput{
		ID:        child.ID,
		Name:      "B1",
		ParentID:  &newParent,
		ParentSet: true,
		Actor:     "test",
	})
	require.NoError(t, err)
	require.Equal(t, "B1", updated.Name)
	require.Equal(t, rootB.ID, *updated.ParentID)
	require.Equal(t, 1, updated.Depth)
	require.Equal(t, 2, store.nodes[grand.ID].Depth)
	requireTreeInvariants(t, store)
}

func TestAssociateEmployee_DuplicateConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	node := mustCreate(t, svc, "A", nil)
	store := svc.store.(*memStore)
	store.employees[42] = true

	_, err := svc.AssociateEmployee(ctx, node.ID, 42, "test")
	require.NoError(t, err)

	_, err = svc.AssociateEmployee(ctx, node.ID, 42, "test")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusConflict, svcErr.Status)
	require.Equal(t, "ORG_DUPLICATE_LINK", svcErr.Code)

	// Dissociate then re-associate succeeds.
	require.NoError(t, svc.DissociateEmployee(ctx, node.ID, 42))
	_, err = svc.AssociateEmployee(ctx, node.ID, 42, "test")
	require.NoError(t, err)
}

func TestAssociateEmployee_DeadEmployeeRejected(t *testing.T) {
	svc, _ := newTestService(t)
	node := mustCreate(t, svc, "A", nil)

	_, err := svc.AssociateEmployee(context.Background(), node.ID, 99, "test")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusNotFound, svcErr.Status)
}

func TestListEmployees_FiltersDeadFarSide(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	store.employees[1] = true
	store.employees[2] = true

	node := mustCreate(t, svc, "A", nil)
	_, err := svc.AssociateEmployee(ctx, node.ID, 1, "test")
	require.NoError(t, err)
	_, err = svc.AssociateEmployee(ctx, node.ID, 2, "test")
	require.NoError(t, err)

	store.employees[2] = false
	links, err := svc.ListEmployees(ctx, node.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, int64(1), links[0].EmployeeID)
}

func TestAssociateCostCenter_DuplicateConflicts(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	store.costCenters[5] = true

	node := mustCreate(t, svc, "A", nil)
	_, err := svc.AssociateCostCenter(ctx, node.ID, 5, "test")
	require.NoError(t, err)

	_, err = svc.AssociateCostCenter(ctx, node.ID, 5, "test")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, "ORG_DUPLICATE_LINK", svcErr.Code)
}

func TestDepthInvariant_AfterArbitraryOps(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	root := mustCreate(t, svc, "root", nil)
	var nodes []*Node
	parent := root
	for i := 0; i < 5; i++ {
		n := mustCreate(t, svc, "chain", &parent.ID)
		nodes = append(nodes, n)
		parent = n
	}

	// Flatten: move every chain node directly under the root.
	for _, n := range nodes[1:] {
		_, err := svc.Move(ctx, n.ID, &root.ID, nil, "test")
		require.NoError(t, err)
	}
	requireTreeInvariants(t, store)

	// Rebuild a chain in reverse order.
	for i := len(nodes) - 1; i > 0; i-- {
		_, err := svc.Move(ctx, nodes[i-1].ID, &nodes[i].ID, nil, "test")
		require.NoError(t, err)
	}
	requireTreeInvariants(t, store)
}

func TestList_ReturnsAliveNodesOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	root := mustCreate(t, svc, "Diretoria", nil)
	child := mustCreate(t, svc, "Engenharia", &root.ID)
	gone := mustCreate(t, svc, "Extinta", &root.ID)
	require.NoError(t, svc.Delete(ctx, gone.ID, "test"))

	nodes, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Equal(t, root.ID, nodes[0].ID)
	require.Equal(t, child.ID, nodes[1].ID)
}

func TestChildrenOf_NilParentListsRoots(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rootA := mustCreate(t, svc, "A", nil)
	rootB := mustCreate(t, svc, "B", nil)
	mustCreate(t, svc, "A1", &rootA.ID)

	roots, err := svc.ChildrenOf(ctx, nil)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	require.Equal(t, rootA.ID, roots[0].ID)
	require.Equal(t, rootB.ID, roots[1].ID)

	children, err := svc.ChildrenOf(ctx, &rootA.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, "A1", children[0].Name)
}

func TestChildrenOf_DeadParentRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	root := mustCreate(t, svc, "Diretoria", nil)
	require.NoError(t, svc.Delete(ctx, root.ID, "test"))

	_, err := svc.ChildrenOf(ctx, &root.ID)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusNotFound, svcErr.Status)
}

func TestActiveRoot_ReturnsSubtreeOrNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ActiveRoot(ctx)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusNotFound, svcErr.Status)

	root := mustCreate(t, svc, "Diretoria", nil)
	child := mustCreate(t, svc, "Engenharia", &root.ID)
	require.NoError(t, svc.Activate(ctx, root.ID))

	active, err := svc.ActiveRoot(ctx)
	require.NoError(t, err)
	require.Equal(t, root.ID, active.ID)
	require.Len(t, active.Children, 1)
	require.Equal(t, child.ID, active.Children[0].ID)
}
