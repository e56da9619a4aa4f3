package services

import (
	"context"
	"time"
)

type ImportSummaryService struct {
	repo ImportSummaryRepository
}

func NewImportSummaryService(repo ImportSummaryRepository) *ImportSummaryService {
	return &ImportSummaryService{repo: repo}
}

func (s *ImportSummaryService) List(ctx context.Context) ([]ImportSummary, error) {
	out, err := inTx(ctx, func(txCtx context.Context) ([]ImportSummary, error) {
		return s.repo.List(txCtx)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

// ListByStartBetween returns summaries whose competency start falls
// inside the given window.
func (s *ImportSummaryService) ListByStartBetween(ctx context.Context, from, to time.Time) ([]ImportSummary, error) {
	out, err := inTx(ctx, func(txCtx context.Context) ([]ImportSummary, error) {
		return s.repo.ListByStartBetween(txCtx, from, to)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

// ListLatest orders by import time, most recent run first.
func (s *ImportSummaryService) ListLatest(ctx context.Context) ([]ImportSummary, error) {
	out, err := inTx(ctx, func(txCtx context.Context) ([]ImportSummary, error) {
		return s.repo.ListLatest(txCtx)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

func (s *ImportSummaryService) GetByPeriod(ctx context.Context, periodStart, periodEnd time.Time) (*ImportSummary, error) {
	summary, err := inTx(ctx, func(txCtx context.Context) (ImportSummary, error) {
		return s.repo.GetByPeriod(txCtx, periodStart, periodEnd)
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return &summary, nil
}
