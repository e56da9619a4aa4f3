package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/feed"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/composables"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/constants"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/eventbus"
)

type Rubric struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	Percentage  *float64  `json:"percentage"`
	Alive       bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RubricRepository interface {
	GetByID(ctx context.Context, id int64) (Rubric, error)
	GetByCode(ctx context.Context, code string) (Rubric, error)
	List(ctx context.Context) ([]Rubric, error)
	// UpsertByCode inserts the rubric unless the code already exists and
	// returns the stored row either way. Concurrent imports racing on the
	// same code both end up with the first writer's row.
	UpsertByCode(ctx context.Context, r Rubric) (Rubric, error)
	Update(ctx context.Context, r Rubric) error
	SoftDelete(ctx context.Context, id int64) error
}

type RubricDTO struct {
	Code        string   `json:"code" validate:"required,max=20"`
	Description string   `json:"description" validate:"required,max=100"`
	Kind        string   `json:"kind" validate:"required,oneof=PROVENTO DESCONTO INFORMATIVO"`
	Percentage  *float64 `json:"percentage" validate:"omitempty,gte=0,lte=100"`
}

func (d *RubricDTO) Normalize() {
	d.Code = strings.TrimSpace(d.Code)
	d.Description = strings.TrimSpace(d.Description)
	d.Kind = strings.ToUpper(strings.TrimSpace(d.Kind))
}

type RubricCreatedEvent struct{ Rubric Rubric }
type RubricUpdatedEvent struct{ Rubric Rubric }
type RubricDeletedEvent struct{ ID int64 }

type RubricService struct {
	repo      RubricRepository
	publisher eventbus.EventBus
}

func NewRubricService(repo RubricRepository, publisher eventbus.EventBus) *RubricService {
	return &RubricService{repo: repo, publisher: publisher}
}

func (s *RubricService) Create(ctx context.Context, dto RubricDTO) (*Rubric, error) {
	dto.Normalize()
	if err := constants.Validate.Struct(dto); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "PAYROLL_INVALID_BODY", err.Error(), err)
	}

	created, err := inTx(ctx, func(txCtx context.Context) (Rubric, error) {
		if _, err := s.repo.GetByCode(txCtx, dto.Code); err == nil {
			return Rubric{}, newServiceError(http.StatusConflict, "PAYROLL_DUPLICATE_RUBRIC", "rubric code already registered", nil)
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return Rubric{}, mapPgError(err)
		}
		return s.repo.UpsertByCode(txCtx, Rubric{
			Code:        dto.Code,
			Description: dto.Description,
			Kind:        dto.Kind,
			Percentage:  dto.Percentage,
			Alive:       true,
		})
	})
	if err != nil {
		return nil, mapPgError(err)
	}

	s.publish(RubricCreatedEvent{Rubric: created})
	return &created, nil
}

func (s *RubricService) Update(ctx context.Context, id int64, dto RubricDTO) (*Rubric, error) {
	dto.Normalize()
	if err := constants.Validate.Struct(dto); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "PAYROLL_INVALID_BODY", err.Error(), err)
	}

	updated, err := inTx(ctx, func(txCtx context.Context) (Rubric, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return Rubric{}, mapPgError(err)
		}
		if !current.Alive {
			return Rubric{}, newServiceError(http.StatusNotFound, "PAYROLL_NOT_FOUND", "rubric not found", nil)
		}
		if err := s.repo.Update(txCtx, Rubric{
			ID:          id,
			Code:        dto.Code,
			Description: dto.Description,
			Kind:        dto.Kind,
			Percentage:  dto.Percentage,
		}); err != nil {
			return Rubric{}, mapPgError(err)
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return nil, mapPgError(err)
	}

	s.publish(RubricUpdatedEvent{Rubric: updated})
	return &updated, nil
}

func (s *RubricService) GetByID(ctx context.Context, id int64) (*Rubric, error) {
	r, err := inTx(ctx, func(txCtx context.Context) (Rubric, error) {
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	if !r.Alive {
		return nil, newServiceError(http.StatusNotFound, "PAYROLL_NOT_FOUND", "rubric not found", nil)
	}
	return &r, nil
}

func (s *RubricService) List(ctx context.Context) ([]Rubric, error) {
	out, err := inTx(ctx, func(txCtx context.Context) ([]Rubric, error) {
		return s.repo.List(txCtx)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

func (s *RubricService) Delete(ctx context.Context, id int64) error {
	_, err := inTx(ctx, func(txCtx context.Context) (struct{}, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return struct{}{}, mapPgError(err)
		}
		if !current.Alive {
			return struct{}{}, newServiceError(http.StatusNotFound, "PAYROLL_NOT_FOUND", "rubric not found", nil)
		}
		return struct{}{}, mapPgError(s.repo.SoftDelete(txCtx, id))
	})
	if err != nil {
		return err
	}

	s.publish(RubricDeletedEvent{ID: id})
	return nil
}

// LookupOrCreate resolves a rubric by code, registering it with the
// sign-inferred kind when unseen. A code's stored kind is never
// re-evaluated on later sightings, whatever sign they carry.
func (s *RubricService) LookupOrCreate(ctx context.Context, slot feed.Slot) (Rubric, bool, error) {
	existing, err := s.repo.GetByCode(ctx, slot.Code)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Rubric{}, false, mapPgError(err)
	}

	pct := 100.0
	created, err := s.repo.UpsertByCode(ctx, Rubric{
		Code:        slot.Code,
		Description: slot.Description,
		Kind:        string(slot.Kind),
		Percentage:  &pct,
		Alive:       true,
	})
	if err != nil {
		return Rubric{}, false, mapPgError(err)
	}
	s.publish(RubricCreatedEvent{Rubric: created})
	return created, true, nil
}

func (s *RubricService) publish(event any) {
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
