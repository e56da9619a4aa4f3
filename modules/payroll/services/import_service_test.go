package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	hrmservices "github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/services"
)

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

func overrideTransact(t *testing.T) {
	t.Helper()
	prev := transact
	transact = func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}
	t.Cleanup(func() { transact = prev })
}

type memRubricRepo struct {
	nextID  int64
	rubrics map[string]*Rubric
}

func newMemRubricRepo() *memRubricRepo {
	return &memRubricRepo{rubrics: map[string]*Rubric{}}
}

func (m *memRubricRepo) GetByID(_ context.Context, id int64) (Rubric, error) {
	for _, r := range m.rubrics {
		if r.ID == id {
			return *r, nil
		}
	}
	return Rubric{}, pgx.ErrNoRows
}

func (m *memRubricRepo) GetByCode(_ context.Context, code string) (Rubric, error) {
	r, ok := m.rubrics[code]
	if !ok || !r.Alive {
		return Rubric{}, pgx.ErrNoRows
	}
	return *r, nil
}

func (m *memRubricRepo) List(_ context.Context) ([]Rubric, error) {
	var out []Rubric
	for _, r := range m.rubrics {
		if r.Alive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRubricRepo) UpsertByCode(_ context.Context, r Rubric) (Rubric, error) {
	if existing, ok := m.rubrics[r.Code]; ok {
		return *existing, nil
	}
	m.nextID++
	r.ID = m.nextID
	m.rubrics[r.Code] = &r
	return r, nil
}

func (m *memRubricRepo) Update(_ context.Context, r Rubric) error {
	for _, existing := range m.rubrics {
		if existing.ID == r.ID {
			r.Alive = existing.Alive
			delete(m.rubrics, existing.Code)
			m.rubrics[r.Code] = &r
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memRubricRepo) SoftDelete(_ context.Context, id int64) error {
	for _, r := range m.rubrics {
		if r.ID == id {
			r.Alive = false
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memLineRepo struct {
	nextID int64
	lines  []PayrollLine
}

func (m *memLineRepo) GetByID(_ context.Context, id int64) (PayrollLine, error) {
	for _, l := range m.lines {
		if l.ID == id {
			return l, nil
		}
	}
	return PayrollLine{}, pgx.ErrNoRows
}

func (m *memLineRepo) ExistsByNaturalKey(_ context.Context, employeeID, rubricID int64, periodStart, periodEnd time.Time) (bool, error) {
	for _, l := range m.lines {
		if l.EmployeeID == employeeID && l.RubricID == rubricID &&
			l.PeriodStart.Equal(periodStart) && l.PeriodEnd.Equal(periodEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLineRepo) InsertBatch(_ context.Context, lines []PayrollLine) ([]PayrollLine, error) {
	out := make([]PayrollLine, 0, len(lines))
	for _, l := range lines {
		m.nextID++
		l.ID = m.nextID
		l.CreatedAt = time.Now()
		m.lines = append(m.lines, l)
		out = append(out, l)
	}
	return out, nil
}

func (m *memLineRepo) ListByEmployee(_ context.Context, employeeID int64, _, _ *time.Time) ([]PayrollLine, error) {
	var out []PayrollLine
	for _, l := range m.lines {
		if l.EmployeeID == employeeID && l.Alive {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLineRepo) ListByCostCenter(_ context.Context, costCenter string, _, _ *time.Time) ([]PayrollLine, error) {
	var out []PayrollLine
	for _, l := range m.lines {
		if l.CostCenter == costCenter && l.Alive {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLineRepo) SoftDelete(_ context.Context, id int64) error {
	for i := range m.lines {
		if m.lines[i].ID == id {
			m.lines[i].Alive = false
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memSummaryRepo struct {
	nextID    int64
	summaries []ImportSummary
}

func (m *memSummaryRepo) Insert(_ context.Context, s ImportSummary) (ImportSummary, error) {
	m.nextID++
	s.ID = m.nextID
	m.summaries = append(m.summaries, s)
	return s, nil
}

func (m *memSummaryRepo) List(_ context.Context) ([]ImportSummary, error) {
	return append([]ImportSummary(nil), m.summaries...), nil
}

func (m *memSummaryRepo) ListByStartBetween(_ context.Context, from, to time.Time) ([]ImportSummary, error) {
	var out []ImportSummary
	for _, s := range m.summaries {
		if !s.PeriodStart.Before(from) && !s.PeriodStart.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSummaryRepo) ListLatest(_ context.Context) ([]ImportSummary, error) {
	out := append([]ImportSummary(nil), m.summaries...)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (m *memSummaryRepo) GetByPeriod(_ context.Context, periodStart, periodEnd time.Time) (ImportSummary, error) {
	for i := len(m.summaries) - 1; i >= 0; i-- {
		s := m.summaries[i]
		if s.PeriodStart.Equal(periodStart) && s.PeriodEnd.Equal(periodEnd) {
			return s, nil
		}
	}
	return ImportSummary{}, pgx.ErrNoRows
}

type memDirectory struct {
	employees map[string]hrmservices.EmployeeSnapshot
}

func (m *memDirectory) SnapshotByExternalID(_ context.Context, externalID string) (*hrmservices.EmployeeSnapshot, error) {
	snap, ok := m.employees[externalID]
	if !ok {
		return nil, &hrmservices.ServiceError{Status: http.StatusNotFound, Code: "HRM_NOT_FOUND", Message: "employee not found"}
	}
	return &snap, nil
}

type importFixture struct {
	svc       *ImportService
	rubrics   *memRubricRepo
	lines     *memLineRepo
	summaries *memSummaryRepo
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	overrideTransact(t)

	directory := &memDirectory{employees: map[string]hrmservices.EmployeeSnapshot{
		"12345": {ID: 1, Name: "MARIA SOUZA", Position: "Analista", CostCenter: "TI", BusinessLine: "Educação"},
		"67890": {ID: 2, Name: "JOÃO LIMA", Position: "Gerente", CostCenter: "RH", BusinessLine: "Educação"},
	}}
	rubrics := newMemRubricRepo()
	lines := &memLineRepo{}
	summaries := &memSummaryRepo{}
	svc := NewImportService(
		directory,
		NewRubricService(rubrics, nil),
		lines,
		summaries,
		nil,
		nil,
	)
	return &importFixture{svc: svc, rubrics: rubrics, lines: lines, summaries: summaries}
}

// feed builders mirroring the provider's column layout

func entryLine(rubric, quantity, base, value string) string {
	return fmt.Sprintf("%-31s %10s %10s %11s", rubric, quantity, base, value)
}

func employeeHeaderLine(externalID string) string {
	return fmt.Sprintf("%50s%-5s  %-39sAdmissão: 01/01/2020", "", externalID, "EMPREGADO")
}

var trailerLines = []string{
	"Total de Empregados          :           2",
	"Total de Encargos            :   10.000,00",
	"Total de Pagamentos          :  150.000,00",
	"Total de Descontos           :   30.000,00",
	"Total Líquido                :  120.000,00",
}

func buildFeed(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// encodeFeed converts the UTF-8 fixture text to the single-byte encoding
// the provider actually ships.
func encodeFeed(t *testing.T, s string) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, charmap.Windows1252.NewEncoder())
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return bytes.NewReader(buf.Bytes())
}

func fullFeed() string {
	all := []string{
		"Folha Mensal                  Competência: 01/10/2023 a 31/10/2023",
		employeeHeaderLine("12345"),
		entryLine("0010 Salário Base", "30,00", "0,00", "5.000,00+"),
		entryLine("0301 INSS", "11,00", "5.000,00", "550,00-"),
	}
	all = append(all, trailerLines...)
	return buildFeed(all...)
}

func TestImportFeed_CreatesLinesRubricsAndSummary(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	result, err := f.svc.ImportFeed(ctx, encodeFeed(t, fullFeed()))
	require.NoError(t, err)

	require.Equal(t, 2, result.LinesCreated)
	require.Equal(t, 0, result.LinesSkipped)
	require.Equal(t, 2, result.RubricsCreated)
	require.Equal(t, 1, result.EmployeesMatched)
	require.True(t, result.SummaryWritten)
	require.Equal(t, time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC), *result.PeriodStart)

	salario, err := f.rubrics.GetByCode(ctx, "0010")
	require.NoError(t, err)
	require.Equal(t, "Salário Base", salario.Description)
	require.Equal(t, "PROVENTO", salario.Kind)

	inss, err := f.rubrics.GetByCode(ctx, "0301")
	require.NoError(t, err)
	require.Equal(t, "DESCONTO", inss.Kind)

	require.Len(t, f.lines.lines, 2)
	line := f.lines.lines[0]
	require.Equal(t, int64(1), line.EmployeeID)
	require.Equal(t, "MARIA SOUZA", line.EmployeeName)
	require.Equal(t, "Analista", line.Position)
	require.Equal(t, "TI", line.CostCenter)
	require.Equal(t, "Educação", line.BusinessLine)
	requireDecimal(t, "5000.00", line.Value)
	requireDecimal(t, "30.00", line.Quantity)

	require.Len(t, f.summaries.summaries, 1)
	summary := f.summaries.summaries[0]
	require.Equal(t, 2, summary.EmployeeCount)
	requireDecimal(t, "10000.00", summary.TotalCharges)
	requireDecimal(t, "150000.00", summary.TotalGross)
	requireDecimal(t, "30000.00", summary.TotalDeductions)
	requireDecimal(t, "120000.00", summary.TotalNet)
	require.Equal(t, time.Date(2023, 10, 31, 0, 0, 0, 0, time.UTC), summary.PeriodEnd)
}

func TestImportFeed_ReimportIsIdempotent(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	first, err := f.svc.ImportFeed(ctx, encodeFeed(t, fullFeed()))
	require.NoError(t, err)
	require.Equal(t, 2, first.LinesCreated)

	second, err := f.svc.ImportFeed(ctx, encodeFeed(t, fullFeed()))
	require.NoError(t, err)
	require.Equal(t, 0, second.LinesCreated)
	require.Equal(t, 2, second.LinesSkipped)
	require.Equal(t, 0, second.RubricsCreated)
	require.Len(t, f.lines.lines, 2)

	// the summary is recorded per run, with identical figures
	require.Len(t, f.summaries.summaries, 2)
	require.Equal(t, f.summaries.summaries[0].EmployeeCount, f.summaries.summaries[1].EmployeeCount)
	require.True(t, f.summaries.summaries[0].TotalNet.Equal(f.summaries.summaries[1].TotalNet))
}

func TestImportFeed_MissingTrailerFieldSkipsSummary(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	all := []string{
		"Folha Mensal                  Competência: 01/10/2023 a 31/10/2023",
		employeeHeaderLine("12345"),
		entryLine("0010 Salário Base", "30,00", "0,00", "5.000,00+"),
	}
	all = append(all, trailerLines[:4]...) // no Total Líquido

	result, err := f.svc.ImportFeed(ctx, encodeFeed(t, buildFeed(all...)))
	require.NoError(t, err)
	require.Equal(t, 1, result.LinesCreated)
	require.False(t, result.SummaryWritten)
	require.Empty(t, f.summaries.summaries)
}

func TestImportFeed_UnresolvedEmployeeBlockSkipped(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	feed := buildFeed(
		"Folha Mensal                  Competência: 01/10/2023 a 31/10/2023",
		employeeHeaderLine("99999"),
		entryLine("0010 Salário Base", "30,00", "0,00", "5.000,00+"),
		employeeHeaderLine("67890"),
		entryLine("0010 Salário Base", "30,00", "0,00", "7.000,00+"),
	)

	result, err := f.svc.ImportFeed(ctx, encodeFeed(t, feed))
	require.NoError(t, err)
	require.Equal(t, 1, result.LinesCreated)
	require.Equal(t, []string{"99999"}, result.UnresolvedEmployees)
	require.Equal(t, 1, result.EmployeesMatched)

	require.Len(t, f.lines.lines, 1)
	require.Equal(t, int64(2), f.lines.lines[0].EmployeeID)
}

func TestImportFeed_EntriesBeforePeriodSkipped(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	feed := buildFeed(
		employeeHeaderLine("12345"),
		entryLine("0010 Salário Base", "30,00", "0,00", "5.000,00+"),
	)

	result, err := f.svc.ImportFeed(ctx, encodeFeed(t, feed))
	require.NoError(t, err)
	require.Equal(t, 0, result.LinesCreated)
	require.Empty(t, f.lines.lines)
}

func TestImportFeed_FirstSignWinsForRubricKind(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	feed := buildFeed(
		"Folha Mensal                  Competência: 01/10/2023 a 31/10/2023",
		employeeHeaderLine("12345"),
		entryLine("0500 Ajuste", "1,00", "0,00", "100,00+"),
		employeeHeaderLine("67890"),
		entryLine("0500 Ajuste", "1,00", "0,00", "100,00-"),
	)

	result, err := f.svc.ImportFeed(ctx, encodeFeed(t, feed))
	require.NoError(t, err)
	require.Equal(t, 2, result.LinesCreated)
	require.Equal(t, 1, result.RubricsCreated)

	rubric, err := f.rubrics.GetByCode(ctx, "0500")
	require.NoError(t, err)
	require.Equal(t, "PROVENTO", rubric.Kind)
}

type failingDirectory struct {
	err error
}

func (d *failingDirectory) SnapshotByExternalID(context.Context, string) (*hrmservices.EmployeeSnapshot, error) {
	return nil, d.err
}

func TestImportFeed_DirectoryFailureAborts(t *testing.T) {
	overrideTransact(t)
	ctx := context.Background()

	boom := errors.New("connection refused")
	rubrics := newMemRubricRepo()
	lines := &memLineRepo{}
	summaries := &memSummaryRepo{}
	svc := NewImportService(
		&failingDirectory{err: boom},
		NewRubricService(rubrics, nil),
		lines,
		summaries,
		nil,
		nil,
	)

	_, err := svc.ImportFeed(ctx, encodeFeed(t, fullFeed()))
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "import aborted")
	require.Empty(t, lines.lines)
	require.Empty(t, summaries.summaries)
}

func TestImportFeed_ReadErrorAborts(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	boom := errors.New("connection reset")
	reader := io.MultiReader(
		strings.NewReader(buildFeed("Folha Mensal                  Competencia: 01/10/2023 a 31/10/2023")),
		iotest.ErrReader(boom),
	)

	_, err := f.svc.ImportFeed(ctx, reader)
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "feed read failed")
	require.Empty(t, f.lines.lines)
	require.Empty(t, f.summaries.summaries)
}
