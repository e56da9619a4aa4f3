package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/constants"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/eventbus"
)

// The position, cost-center and business-line registries share the same
// small surface: code plus description, soft delete, alive listings.

type Position struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Alive       bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CostCenter struct {
	ID             int64     `json:"id"`
	Code           string    `json:"code"`
	Description    string    `json:"description"`
	BusinessLineID *int64    `json:"business_line_id"`
	Alive          bool      `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type BusinessLine struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Alive       bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RegistryDTO struct {
	Code           string `json:"code" validate:"required,max=20"`
	Description    string `json:"description" validate:"required,max=100"`
	BusinessLineID *int64 `json:"business_line_id"`
}

func (d *RegistryDTO) Normalize() {
	d.Code = strings.TrimSpace(d.Code)
	d.Description = strings.TrimSpace(d.Description)
}

type PositionRepository interface {
	GetByID(ctx context.Context, id int64) (Position, error)
	List(ctx context.Context) ([]Position, error)
	Insert(ctx context.Context, p Position) (int64, error)
	Update(ctx context.Context, p Position) error
	SoftDelete(ctx context.Context, id int64) error
}

type CostCenterRepository interface {
	GetByID(ctx context.Context, id int64) (CostCenter, error)
	List(ctx context.Context) ([]CostCenter, error)
	ListByBusinessLine(ctx context.Context, businessLineID int64) ([]CostCenter, error)
	Insert(ctx context.Context, c CostCenter) (int64, error)
	Update(ctx context.Context, c CostCenter) error
	SoftDelete(ctx context.Context, id int64) error
}

type BusinessLineRepository interface {
	GetByID(ctx context.Context, id int64) (BusinessLine, error)
	List(ctx context.Context) ([]BusinessLine, error)
	Insert(ctx context.Context, b BusinessLine) (int64, error)
	Update(ctx context.Context, b BusinessLine) error
	SoftDelete(ctx context.Context, id int64) error
}

type PositionService struct {
	repo      PositionRepository
	publisher eventbus.EventBus
}

func NewPositionService(repo PositionRepository, publisher eventbus.EventBus) *PositionService {
	return &PositionService{repo: repo, publisher: publisher}
}

func (s *PositionService) Create(ctx context.Context, dto RegistryDTO) (*Position, error) {
	dto.Normalize()
	if err := constants.Validate.Struct(dto); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "HRM_INVALID_BODY", err.Error(), err)
	}
	created, err := inTx(ctx, func(txCtx context.Context) (Position, error) {
		id, err := s.repo.Insert(txCtx, Position{Code: dto.Code, Description: dto.Description, Alive: true})
		if err != nil {
			return Position{}, mapPgError(err)
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return &created, nil
}

func (s *PositionService) Update(ctx context.Context, id int64, dto RegistryDTO) (*Position, error) {
	dto.Normalize()
	if err := constants.Validate.Struct(dto); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "HRM_INVALID_BODY", err.Error(), err)
	}
	updated, err := inTx(ctx, func(txCtx context.Context) (Position, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return Position{}, mapPgError(err)
		}
		if !current.Alive {
			return Position{}, newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "position not found", nil)
		}
		if err := s.repo.Update(txCtx, Position{ID: id, Code: dto.Code, Description: dto.Description}); err != nil {
			return Position{}, mapPgError(err)
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return &updated, nil
}

func (s *PositionService) Get(ctx context.Context, id int64) (*Position, error) {
	out, err := inTx(ctx, func(txCtx context.Context) (Position, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return Position{}, mapPgError(err)
		}
		if !current.Alive {
			return Position{}, newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "position not found", nil)
		}
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PositionService) List(ctx context.Context) ([]Position, error) {
	out, err := inTx(ctx, func(txCtx context.Context) ([]Position, error) {
		return s.repo.List(txCtx)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

func (s *PositionService) Delete(ctx context.Context, id int64) error {
	_, err := inTx(ctx, func(txCtx context.Context) (struct{}, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return struct{}{}, mapPgError(err)
		}
		if !current.Alive {
			return struct{}{}, newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "position not found", nil)
		}
		return struct{}{}, mapPgError(s.repo.SoftDelete(txCtx, id))
	})
	return err
}

type CostCenterService struct {
	repo      CostCenterRepository
	publisher eventbus.EventBus
}

func NewCostCenterService(repo CostCenterRepository, publisher eventbus.EventBus) *CostCenterService {
	return &CostCenterService{repo: repo, publisher: publisher}
}

func (s *CostCenterService) Create(ctx context.Context, dto RegistryDTO) (*CostCenter, error) {
	dto.Normalize()
	if err := constants.Validate.Struct(dto); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "HRM_INVALID_BODY", err.Error(), err)
	}
	created, err := inTx(ctx, func(txCtx context.Context) (CostCenter, error) {
		id, err := s.repo.Insert(txCtx, CostCenter{
			Code:           dto.Code,
			Description:    dto.Description,
			BusinessLineID: dto.BusinessLineID,
			Alive:          true,
		})
		if err != nil {
			return CostCenter{}, mapPgError(err)
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return &created, nil
}

func (s *CostCenterService) Update(ctx context.Context, id int64, dto RegistryDTO) (*CostCenter, error) {
	dto.Normalize()
	if err := constants.Validate.Struct(dto); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "HRM_INVALID_BODY", err.Error(), err)
	}
	updated, err := inTx(ctx, func(txCtx context.Context) (CostCenter, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return CostCenter{}, mapPgError(err)
		}
		if !current.Alive {
			return CostCenter{}, newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "cost center not found", nil)
		}
		if err := s.repo.Update(txCtx, CostCenter{
			ID:             id,
			Code:           dto.Code,
			Description:    dto.Description,
			BusinessLineID: dto.BusinessLineID,
		}); err != nil {
			return CostCenter{}, mapPgError(err)
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return &updated, nil
}

func (s *CostCenterService) Get(ctx context.Context, id int64) (*CostCenter, error) {
	out, err := inTx(ctx, func(txCtx context.Context) (CostCenter, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return CostCenter{}, mapPgError(err)
		}
		if !current.Alive {
			return CostCenter{}, newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "cost center not found", nil)
		}
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CostCenterService) List(ctx context.Context) ([]CostCenter, error) {
	out, err := inTx(ctx, func(txCtx context.Context) ([]CostCenter, error) {
		return s.repo.List(txCtx)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

func (s *CostCenterService) ListByBusinessLine(ctx context.Context, businessLineID int64) ([]CostCenter, error) {
	out, err := inTx(ctx, func(txCtx context.Context) ([]CostCenter, error) {
		return s.repo.ListByBusinessLine(txCtx, businessLineID)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

func (s *CostCenterService) Delete(ctx context.Context, id int64) error {
	_, err := inTx(ctx, func(txCtx context.Context) (struct{}, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return struct{}{}, mapPgError(err)
		}
		if !current.Alive {
			return struct{}{}, newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "cost center not found", nil)
		}
		return struct{}{}, mapPgError(s.repo.SoftDelete(txCtx, id))
	})
	return err
}

type BusinessLineService struct {
	repo      BusinessLineRepository
	publisher eventbus.EventBus
}

func NewBusinessLineService(repo BusinessLineRepository, publisher eventbus.EventBus) *BusinessLineService {
	return &BusinessLineService{repo: repo, publisher: publisher}
}

func (s *BusinessLineService) Create(ctx context.Context, dto RegistryDTO) (*BusinessLine, error) {
	dto.Normalize()
	if err := constants.Validate.Struct(dto); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "HRM_INVALID_BODY", err.Error(), err)
	}
	created, err := inTx(ctx, func(txCtx context.Context) (BusinessLine, error) {
		id, err := s.repo.Insert(txCtx, BusinessLine{Code: dto.Code, Description: dto.Description, Alive: true})
		if err != nil {
			return BusinessLine{}, mapPgError(err)
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return &created, nil
}

func (s *BusinessLineService) Update(ctx context.Context, id int64, dto RegistryDTO) (*BusinessLine, error) {
	dto.Normalize()
	if err := constants.Validate.Struct(dto); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "HRM_INVALID_BODY", err.Error(), err)
	}
	updated, err := inTx(ctx, func(txCtx context.Context) (BusinessLine, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return BusinessLine{}, mapPgError(err)
		}
		if !current.Alive {
			return BusinessLine{}, newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "business line not found", nil)
		}
		if err := s.repo.Update(txCtx, BusinessLine{ID: id, Code: dto.Code, Description: dto.Description}); err != nil {
			return BusinessLine{}, mapPgError(err)
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return &updated, nil
}

func (s *BusinessLineService) Get(ctx context.Context, id int64) (*BusinessLine, error) {
	out, err := inTx(ctx, func(txCtx context.Context) (BusinessLine, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return BusinessLine{}, mapPgError(err)
		}
		if !current.Alive {
			return BusinessLine{}, newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "business line not found", nil)
		}
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *BusinessLineService) List(ctx context.Context) ([]BusinessLine, error) {
	out, err := inTx(ctx, func(txCtx context.Context) ([]BusinessLine, error) {
		return s.repo.List(txCtx)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

func (s *BusinessLineService) Delete(ctx context.Context, id int64) error {
	_, err := inTx(ctx, func(txCtx context.Context) (struct{}, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return struct{}{}, mapPgError(err)
		}
		if !current.Alive {
			return struct{}{}, newServiceError(http.StatusNotFound, "HRM_NOT_FOUND", "business line not found", nil)
		}
		return struct{}{}, mapPgError(s.repo.SoftDelete(txCtx, id))
	})
	return err
}
