package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/feed"
)

func newTestRubricService(t *testing.T) (*RubricService, *memRubricRepo) {
	t.Helper()
	overrideTransact(t)
	repo := newMemRubricRepo()
	return NewRubricService(repo, nil), repo
}

func requirePayrollError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, status, svcErr.Status)
	require.Equal(t, code, svcErr.Code)
}

func TestRubricCreate_RejectsDuplicateCode(t *testing.T) {
	svc, _ := newTestRubricService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, RubricDTO{Code: "0010", Description: "Salário Base", Kind: "PROVENTO"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, RubricDTO{Code: "0010", Description: "Outra", Kind: "DESCONTO"})
	requirePayrollError(t, err, http.StatusConflict, "PAYROLL_DUPLICATE_RUBRIC")
}

func TestRubricCreate_ValidatesKind(t *testing.T) {
	svc, _ := newTestRubricService(t)

	_, err := svc.Create(context.Background(), RubricDTO{Code: "0010", Description: "Salário Base", Kind: "OUTRO"})
	requirePayrollError(t, err, http.StatusBadRequest, "PAYROLL_INVALID_BODY")
}

func TestRubricLookupOrCreate_ReusesStoredKind(t *testing.T) {
	svc, _ := newTestRubricService(t)
	ctx := context.Background()

	first, created, err := svc.LookupOrCreate(ctx, feed.Slot{Code: "0500", Description: "Ajuste", Kind: feed.KindEarning})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "PROVENTO", first.Kind)

	// a later sighting with a different sign does not reclassify
	again, created, err := svc.LookupOrCreate(ctx, feed.Slot{Code: "0500", Description: "Ajuste", Kind: feed.KindDeduction})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, "PROVENTO", again.Kind)
}

func TestRubricDelete_DeadReturnsNotFound(t *testing.T) {
	svc, repo := newTestRubricService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, RubricDTO{Code: "0010", Description: "Salário Base", Kind: "PROVENTO"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.False(t, repo.rubrics["0010"].Alive)

	err = svc.Delete(ctx, created.ID)
	requirePayrollError(t, err, http.StatusNotFound, "PAYROLL_NOT_FOUND")
}
