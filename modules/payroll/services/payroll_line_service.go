package services

import (
	"context"
	"net/http"
	"time"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/eventbus"
)

// PayrollLineFilter narrows a listing to one employee or one cost
// center, optionally bounded by a competency period.
type PayrollLineFilter struct {
	EmployeeID  *int64
	CostCenter  *string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

type PayrollLineDeletedEvent struct{ ID int64 }

type PayrollLineService struct {
	repo      PayrollLineRepository
	publisher eventbus.EventBus
}

func NewPayrollLineService(repo PayrollLineRepository, publisher eventbus.EventBus) *PayrollLineService {
	return &PayrollLineService{repo: repo, publisher: publisher}
}

func (s *PayrollLineService) GetByID(ctx context.Context, id int64) (*PayrollLine, error) {
	line, err := inTx(ctx, func(txCtx context.Context) (PayrollLine, error) {
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	if !line.Alive {
		return nil, newServiceError(http.StatusNotFound, "PAYROLL_NOT_FOUND", "payroll line not found", nil)
	}
	return &line, nil
}

func (s *PayrollLineService) List(ctx context.Context, filter PayrollLineFilter) ([]PayrollLine, error) {
	if filter.EmployeeID == nil && filter.CostCenter == nil {
		return nil, newServiceError(http.StatusBadRequest, "PAYROLL_INVALID_FILTER", "an employee or cost center filter is required", nil)
	}
	out, err := inTx(ctx, func(txCtx context.Context) ([]PayrollLine, error) {
		if filter.EmployeeID != nil {
			return s.repo.ListByEmployee(txCtx, *filter.EmployeeID, filter.PeriodStart, filter.PeriodEnd)
		}
		return s.repo.ListByCostCenter(txCtx, *filter.CostCenter, filter.PeriodStart, filter.PeriodEnd)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

func (s *PayrollLineService) Delete(ctx context.Context, id int64) error {
	_, err := inTx(ctx, func(txCtx context.Context) (struct{}, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return struct{}{}, mapPgError(err)
		}
		if !current.Alive {
			return struct{}{}, newServiceError(http.StatusNotFound, "PAYROLL_NOT_FOUND", "payroll line not found", nil)
		}
		return struct{}{}, mapPgError(s.repo.SoftDelete(txCtx, id))
	})
	if err != nil {
		return err
	}

	if s.publisher != nil {
		s.publisher.Publish(PayrollLineDeletedEvent{ID: id})
	}
	return nil
}
