package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/composables"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/constants"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/eventbus"
)

type EmployeeRepository interface {
	GetByID(ctx context.Context, id int64) (Employee, error)
	GetByExternalID(ctx context.Context, externalID string) (Employee, error)
	// SnapshotByExternalID resolves the alive employee together with the
	// current position/cost-center/business-line descriptions.
	SnapshotByExternalID(ctx context.Context, externalID string) (EmployeeSnapshot, error)
	List(ctx context.Context) ([]Employee, error)
	Insert(ctx context.Context, e Employee) (int64, error)
	Update(ctx context.Context, e Employee) error
	SoftDelete(ctx context.Context, id int64) error
}

type Employee struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	ExternalID        string     `json:"external_id"`
	PositionID        *int64     `json:"position_id"`
	CostCenterID      *int64     `json:"cost_center_id"`
	BusinessLineID    *int64     `json:"business_line_id"`
	AdmissionDate     *time.Time `json:"admission_date"`
	Sex               string     `json:"sex"`
	SalaryType        string     `json:"salary_type"`
	Role              string     `json:"role"`
	IRRFDependents    int        `json:"irrf_dependents"`
	FamilySalaryDeps  int        `json:"family_salary_dependents"`
	ContractType      string     `json:"contract_type"`
	Alive             bool       `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// EmployeeSnapshot is the denormalized shape the payroll import copies
// onto each created line.
type EmployeeSnapshot struct {
	ID           int64
	Name         string
	Position     string
	CostCenter   string
	BusinessLine string
}

type EmployeeDTO struct {
	Name             string  `json:"name" validate:"required,max=100"`
	ExternalID       string  `json:"external_id" validate:"required,max=20"`
	PositionID       *int64  `json:"position_id"`
	CostCenterID     *int64  `json:"cost_center_id"`
	BusinessLineID   *int64  `json:"business_line_id"`
	AdmissionDate    *string `json:"admission_date"`
	Sex              string  `json:"sex" validate:"omitempty,oneof=M F"`
	SalaryType       string  `json:"salary_type" validate:"max=20"`
	Role             string  `json:"role" validate:"max=100"`
	IRRFDependents   int     `json:"irrf_dependents" validate:"gte=0"`
	FamilySalaryDeps int     `json:"family_salary_dependents" validate:"gte=0"`
	ContractType     string  `json:"contract_type" validate:"max=30"`
}

func (d *EmployeeDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.ExternalID = strings.TrimSpace(d.ExternalID)
	d.Sex = strings.ToUpper(strings.TrimSpace(d.Sex))
	d.SalaryType = strings.TrimSpace(d.SalaryType)
	d.Role = strings.TrimSpace(d.Role)
	d.ContractType = strings.TrimSpace(d.ContractType)
}

func (d *EmployeeDTO) toEmployee() (Employee, error) {
	e := Employee{
		Name:             d.Name,
		ExternalID:       d.ExternalID,
		PositionID:       d.PositionID,
		CostCenterID:     d.CostCenterID,
		BusinessLineID:   d.BusinessLineID,
		Sex:              d.Sex,
		SalaryType:       d.SalaryType,
		Role:             d.Role,
		IRRFDependents:   d.IRRFDependents,
		FamilySalaryDeps: d.FamilySalaryDeps,
		ContractType:     d.ContractType,
		Alive:            true,
	}
	if d.AdmissionDate != nil && strings.TrimSpace(*d.AdmissionDate) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*d.AdmissionDate))
		if err != nil {
			return Employee{}, newServiceError(http.StatusBadRequest, "HRM_INVALID_BODY", "admission_date must be yyyy-mm-dd", err)
		}
		e.AdmissionDate = &parsed
	}
	return e, nil
}

type EmployeeCreatedEvent struct{ Employee Employee }
type EmployeeUpdatedEvent struct{ Employee Employee }
type EmployeeDeletedEvent struct{ ID int64 }

type EmployeeService struct {
	repo      EmployeeRepository
	publisher eventbus.EventBus
}

func NewEmployeeService(repo EmployeeRepository, publisher eventbus.EventBus) *EmployeeService {
	return &EmployeeService{repo: repo, publisher: publisher}
}

func (s *EmployeeService) Create(ctx context.Context, dto EmployeeDTO) (*Employee, error) {
	dto.Normalize()
	if err := constants.Validate.Struct(dto); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "HRM_INVALID_BODY", err.Error(), err)
	}
	e, err := dto.toEmployee()
	if err != nil {
		return nil, err
	}

	created, err := inTx(ctx, func(txCtx context.Context) (Employee, error) {
		id, err := s.repo.Insert(txCtx, e)
		if err != nil {
			return Employee{}, mapPgError(err)
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return nil, mapPgError(err)
	}

	s.publish(EmployeeCreatedEvent{Employee: created})
	return &created, nil
}

func (s *EmployeeService) Update(ctx context.Context, id int64, dto EmployeeDTO) (*Employee, error) {
	dto.Normalize()
	if err := constants.Validate.Struct(dto); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "HRM_INVALID_BODY", err.Error(), err)
	}
	e, err := dto.toEmployee()
	if err != nil {
		return nil, err
	}
	e.ID = id

	updated, err := inTx(ctx, func(txCtx context.Context) (Employee, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return Employee{}, mapPgError(err)
		}
		if !current.Alive {
			return Employee{}, newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "employee not found", nil)
		}
		if err := s.repo.Update(txCtx, e); err != nil {
			return Employee{}, mapPgError(err)
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return nil, mapPgError(err)
	}

	s.publish(EmployeeUpdatedEvent{Employee: updated})
	return &updated, nil
}

func (s *EmployeeService) GetByID(ctx context.Context, id int64) (*Employee, error) {
	e, err := inTx(ctx, func(txCtx context.Context) (Employee, error) {
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	if !e.Alive {
		return nil, newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "employee not found", nil)
	}
	return &e, nil
}

func (s *EmployeeService) List(ctx context.Context) ([]Employee, error) {
	out, err := inTx(ctx, func(txCtx context.Context) ([]Employee, error) {
		return s.repo.List(txCtx)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

// SnapshotByExternalID is the lookup the payroll import uses to resolve
// the employee block headers of a feed.
func (s *EmployeeService) SnapshotByExternalID(ctx context.Context, externalID string) (*EmployeeSnapshot, error) {
	snap, err := s.repo.SnapshotByExternalID(ctx, externalID)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &snap, nil
}

func (s *EmployeeService) Delete(ctx context.Context, id int64) error {
	_, err := inTx(ctx, func(txCtx context.Context) (struct{}, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return struct{}{}, mapPgError(err)
		}
		if !current.Alive {
			return struct{}{}, newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "employee not found", nil)
		}
		if err := s.repo.SoftDelete(txCtx, id); err != nil {
			return struct{}{}, mapPgError(err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return mapPgError(err)
	}

	s.publish(EmployeeDeletedEvent{ID: id})
	return nil
}

func (s *EmployeeService) publish(event any) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
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

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return mapPgErrorToServiceError(err)
}

// transact is swapped out by unit tests running against in-memory repos.
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
