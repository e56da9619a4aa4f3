package services

import (
	"context"
	"net/http"
)

// Association management. Duplicate pairs are rejected before insert so
// the caller sees a state conflict instead of a raw constraint error.

func (s *OrgService) AssociateEmployee(ctx context.Context, nodeID, employeeID int64, actor string) (*EmployeeLink, error) {
	link, err := inTx(ctx, func(txCtx context.Context) (EmployeeLink, error) {
		if _, err := s.aliveNode(txCtx, nodeID); err != nil {
			return EmployeeLink{}, err
		}
		alive, err := s.store.EmployeeAlive(txCtx, employeeID)
		if err != nil {
			return EmployeeLink{}, mapPgError(err)
		}
		if !alive {
			return EmployeeLink{}, newServiceError(http.StatusNotFound, "ORG_EMPLOYEE_NOT_FOUND", "employee not found", nil)
		}
		exists, err := s.store.EmployeeLinkExists(txCtx, nodeID, employeeID)
		if err != nil {
			return EmployeeLink{}, mapPgError(err)
		}
		if exists {
			return EmployeeLink{}, newServiceError(http.StatusConflict, "ORG_DUPLICATE_LINK", "employee already associated", nil)
		}
		id, err := s.store.InsertEmployeeLink(txCtx, nodeID, employeeID, actor)
		if err != nil {
			return EmployeeLink{}, mapPgError(err)
		}
		return EmployeeLink{ID: id, NodeID: nodeID, EmployeeID: employeeID, CreatedBy: actor}, nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *OrgService) DissociateEmployee(ctx context.Context, nodeID, employeeID int64) error {
	_, err := inTx(ctx, func(txCtx context.Context) (struct{}, error) {
		if _, err := s.aliveNode(txCtx, nodeID); err != nil {
			return struct{}{}, err
		}
		removed, err := s.store.DeleteEmployeeLink(txCtx, nodeID, employeeID)
		if err != nil {
			return struct{}{}, mapPgError(err)
		}
		if !removed {
			return struct{}{}, newServiceError(http.StatusNotFound, "ORG_LINK_NOT_FOUND", "association not found", nil)
		}
		return struct{}{}, nil
	})
	return err
}

// ListEmployees returns the node's employee associations, filtering out
// employees no longer alive.
func (s *OrgService) ListEmployees(ctx context.Context, nodeID int64) ([]EmployeeLink, error) {
	return inTx(ctx, func(txCtx context.Context) ([]EmployeeLink, error) {
		if _, err := s.aliveNode(txCtx, nodeID); err != nil {
			return nil, err
		}
		links, err := s.store.ListEmployeeLinks(txCtx, nodeID)
		if err != nil {
			return nil, mapPgError(err)
		}
		return links, nil
	})
}

func (s *OrgService) AssociateCostCenter(ctx context.Context, nodeID, costCenterID int64, actor string) (*CostCenterLink, error) {
	link, err := inTx(ctx, func(txCtx context.Context) (CostCenterLink, error) {
		if _, err := s.aliveNode(txCtx, nodeID); err != nil {
			return CostCenterLink{}, err
		}
		alive, err := s.store.CostCenterAlive(txCtx, costCenterID)
		if err != nil {
			return CostCenterLink{}, mapPgError(err)
		}
		if !alive {
			return CostCenterLink{}, newServiceError(http.StatusNotFound, "ORG_COST_CENTER_NOT_FOUND", "cost center not found", nil)
		}
		exists, err := s.store.CostCenterLinkExists(txCtx, nodeID, costCenterID)
		if err != nil {
			return CostCenterLink{}, mapPgError(err)
		}
		if exists {
			return CostCenterLink{}, newServiceError(http.StatusConflict, "ORG_DUPLICATE_LINK", "cost center already associated", nil)
		}
		id, err := s.store.InsertCostCenterLink(txCtx, nodeID, costCenterID, actor)
		if err != nil {
			return CostCenterLink{}, mapPgError(err)
		}
		return CostCenterLink{ID: id, NodeID: nodeID, CostCenterID: costCenterID, CreatedBy: actor}, nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *OrgService) DissociateCostCenter(ctx context.Context, nodeID, costCenterID int64) error {
	_, err := inTx(ctx, func(txCtx context.Context) (struct{}, error) {
		if _, err := s.aliveNode(txCtx, nodeID); err != nil {
			return struct{}{}, err
		}
		removed, err := s.store.DeleteCostCenterLink(txCtx, nodeID, costCenterID)
		if err != nil {
			return struct{}{}, mapPgError(err)
		}
		if !removed {
			return struct{}{}, newServiceError(http.StatusNotFound, "ORG_LINK_NOT_FOUND", "association not found", nil)
		}
		return struct{}{}, nil
	})
	return err
}

func (s *OrgService) ListCostCenters(ctx context.Context, nodeID int64) ([]CostCenterLink, error) {
	return inTx(ctx, func(txCtx context.Context) ([]CostCenterLink, error) {
		if _, err := s.aliveNode(txCtx, nodeID); err != nil {
			return nil, err
		}
		links, err := s.store.ListCostCenterLinks(txCtx, nodeID)
		if err != nil {
			return nil, mapPgError(err)
		}
		return links, nil
	})
}
