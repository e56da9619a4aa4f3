package services

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"

	hrmservices "github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/feed"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/eventbus"
)

// EmployeeDirectory resolves feed block headers to employees. Satisfied
// by the HR module's EmployeeService.
type EmployeeDirectory interface {
	SnapshotByExternalID(ctx context.Context, externalID string) (*hrmservices.EmployeeSnapshot, error)
}

// isEmployeeNotFound tells a missing directory entry apart from an
// infrastructure failure. Only the former may be skipped.
func isEmployeeNotFound(err error) bool {
	var svcErr *hrmservices.ServiceError
	return errors.As(err, &svcErr) && svcErr.Status == http.StatusNotFound
}

type PayrollLine struct {
	ID           int64           `json:"id"`
	EmployeeID   int64           `json:"employee_id"`
	RubricID     int64           `json:"rubric_id"`
	EmployeeName string          `json:"employee_name"`
	Position     string          `json:"position"`
	CostCenter   string          `json:"cost_center"`
	BusinessLine string          `json:"business_line"`
	PeriodStart  time.Time       `json:"period_start"`
	PeriodEnd    time.Time       `json:"period_end"`
	Quantity     decimal.Decimal `json:"quantity"`
	Base         decimal.Decimal `json:"base"`
	Value        decimal.Decimal `json:"value"`
	Alive        bool            `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
}

type ImportSummary struct {
	ID              int64           `json:"id"`
	EmployeeCount   int             `json:"employee_count"`
	TotalCharges    decimal.Decimal `json:"total_charges"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNet        decimal.Decimal `json:"total_net"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	ImportedAt      time.Time       `json:"imported_at"`
	Alive           bool            `json:"-"`
}

type PayrollLineRepository interface {
	GetByID(ctx context.Context, id int64) (PayrollLine, error)
	ExistsByNaturalKey(ctx context.Context, employeeID, rubricID int64, periodStart, periodEnd time.Time) (bool, error)
	InsertBatch(ctx context.Context, lines []PayrollLine) ([]PayrollLine, error)
	ListByEmployee(ctx context.Context, employeeID int64, periodStart, periodEnd *time.Time) ([]PayrollLine, error)
	ListByCostCenter(ctx context.Context, costCenter string, periodStart, periodEnd *time.Time) ([]PayrollLine, error)
	SoftDelete(ctx context.Context, id int64) error
}

type ImportSummaryRepository interface {
	Insert(ctx context.Context, s ImportSummary) (ImportSummary, error)
	List(ctx context.Context) ([]ImportSummary, error)
	ListByStartBetween(ctx context.Context, from, to time.Time) ([]ImportSummary, error)
	ListLatest(ctx context.Context) ([]ImportSummary, error)
	GetByPeriod(ctx context.Context, periodStart, periodEnd time.Time) (ImportSummary, error)
}

// ImportResult is what the caller gets back from one feed run.
type ImportResult struct {
	LinesCreated        int           `json:"lines_created"`
	LinesSkipped        int           `json:"lines_skipped"`
	RubricsCreated      int           `json:"rubrics_created"`
	EmployeesMatched    int           `json:"employees_matched"`
	UnresolvedEmployees []string      `json:"unresolved_employees"`
	SummaryWritten      bool          `json:"summary_written"`
	PeriodStart         *time.Time    `json:"period_start"`
	PeriodEnd           *time.Time    `json:"period_end"`
	Created             []PayrollLine `json:"created"`
}

type FeedImportedEvent struct{ Result *ImportResult }

// ImportService drives the feed parser over a whole file and persists
// the resulting payroll lines in one batch at the end of the stream.
type ImportService struct {
	employees EmployeeDirectory
	rubrics   *RubricService
	lines     PayrollLineRepository
	summaries ImportSummaryRepository
	publisher eventbus.EventBus
	logger    *logrus.Logger
}

func NewImportService(
	employees EmployeeDirectory,
	rubrics *RubricService,
	lines PayrollLineRepository,
	summaries ImportSummaryRepository,
	publisher eventbus.EventBus,
	logger *logrus.Logger,
) *ImportService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ImportService{
		employees: employees,
		rubrics:   rubrics,
		lines:     lines,
		summaries: summaries,
		publisher: publisher,
		logger:    logger,
	}
}

type naturalKey struct {
	employeeID int64
	rubricID   int64
	start      time.Time
	end        time.Time
}

// ImportFeed consumes the whole stream, which is declared Windows-1252
// by the upstream exporter. Per-line structural issues are logged and
// skipped; only a stream read failure aborts the run.
func (s *ImportService) ImportFeed(ctx context.Context, r io.Reader) (*ImportResult, error) {
	result := &ImportResult{
		UnresolvedEmployees: []string{},
		Created:             []PayrollLine{},
	}

	var (
		periodStart *time.Time
		periodEnd   *time.Time
		current     *hrmservices.EmployeeSnapshot
		totals      feed.Totals
		pending     []PayrollLine
	)
	rubricCache := map[string]Rubric{}
	seen := map[naturalKey]struct{}{}

	sc := bufio.NewScanner(charmap.Windows1252.NewDecoder().Reader(r))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := sc.Text()
		totals.Probe(line)

		switch v := feed.Classify(line).(type) {
		case feed.Competency:
			periodStart, periodEnd = &v.Start, &v.End
			result.PeriodStart, result.PeriodEnd = periodStart, periodEnd
			s.logger.WithFields(logrus.Fields{
				"period_start": v.Start.Format("2006-01-02"),
				"period_end":   v.End.Format("2006-01-02"),
			}).Info("competency period identified")

		case feed.EmployeeHeader:
			snap, err := s.employees.SnapshotByExternalID(ctx, v.ExternalID)
			if err != nil {
				if !isEmployeeNotFound(err) {
					return nil, errors.Wrapf(err, "employee lookup %s: import aborted after %d pending lines", v.ExternalID, len(pending))
				}
				s.logger.WithFields(logrus.Fields{
					"external_id": v.ExternalID,
					"label":       v.Label,
				}).Warn("employee not found, block will be skipped")
				current = nil
				result.UnresolvedEmployees = append(result.UnresolvedEmployees, v.ExternalID)
				continue
			}
			current = snap
			result.EmployeesMatched++

		case feed.Entry:
			if current == nil {
				s.logger.Debug("entry line outside a resolved employee block, skipping")
				continue
			}
			if periodStart == nil || periodEnd == nil {
				s.logger.Debug("entry line before any competency header, skipping")
				continue
			}
			for _, slot := range v.Slots {
				rubric, err := s.resolveRubric(ctx, rubricCache, slot, result)
				if err != nil {
					return nil, errors.Wrapf(err, "rubric %s: import aborted after %d pending lines", slot.Code, len(pending))
				}

				key := naturalKey{employeeID: current.ID, rubricID: rubric.ID, start: *periodStart, end: *periodEnd}
				if _, dup := seen[key]; dup {
					result.LinesSkipped++
					continue
				}
				exists, err := s.lines.ExistsByNaturalKey(ctx, current.ID, rubric.ID, *periodStart, *periodEnd)
				if err != nil {
					return nil, errors.Wrapf(err, "dedup check: import aborted after %d pending lines", len(pending))
				}
				seen[key] = struct{}{}
				if exists {
					result.LinesSkipped++
					continue
				}

				pending = append(pending, PayrollLine{
					EmployeeID:   current.ID,
					RubricID:     rubric.ID,
					EmployeeName: current.Name,
					Position:     current.Position,
					CostCenter:   current.CostCenter,
					BusinessLine: current.BusinessLine,
					PeriodStart:  *periodStart,
					PeriodEnd:    *periodEnd,
					Quantity:     slot.Quantity,
					Base:         slot.Base,
					Value:        slot.Value,
					Alive:        true,
				})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "feed read failed after %d pending lines", len(pending))
	}

	created, err := inTx(ctx, func(txCtx context.Context) ([]PayrollLine, error) {
		out, err := s.lines.InsertBatch(txCtx, pending)
		if err != nil {
			return nil, mapPgError(err)
		}
		if totals.Complete() && periodStart != nil && periodEnd != nil {
			summary := ImportSummary{
				EmployeeCount:   *totals.Employees,
				TotalCharges:    *totals.Charges,
				TotalGross:      *totals.Gross,
				TotalDeductions: *totals.Deductions,
				TotalNet:        *totals.Net,
				PeriodStart:     *periodStart,
				PeriodEnd:       *periodEnd,
				ImportedAt:      time.Now(),
				Alive:           true,
			}
			if _, err := s.summaries.Insert(txCtx, summary); err != nil {
				return nil, mapPgError(err)
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "import commit failed with %d pending lines", len(pending))
	}

	result.Created = created
	result.LinesCreated = len(created)
	result.SummaryWritten = totals.Complete() && periodStart != nil && periodEnd != nil
	if !result.SummaryWritten {
		s.logger.Warn("trailer totals incomplete, no summary written")
	}

	s.logger.WithFields(logrus.Fields{
		"lines_created":   result.LinesCreated,
		"lines_skipped":   result.LinesSkipped,
		"rubrics_created": result.RubricsCreated,
	}).Info("feed import finished")

	if s.publisher != nil {
		s.publisher.Publish(FeedImportedEvent{Result: result})
	}
	return result, nil
}

func (s *ImportService) resolveRubric(ctx context.Context, cache map[string]Rubric, slot feed.Slot, result *ImportResult) (Rubric, error) {
	if cached, ok := cache[slot.Code]; ok {
		return cached, nil
	}
	rubric, created, err := s.rubrics.LookupOrCreate(ctx, slot)
	if err != nil {
		return Rubric{}, err
	}
	if created {
		result.RubricsCreated++
		s.logger.WithFields(logrus.Fields{
			"code": rubric.Code,
			"kind": rubric.Kind,
		}).Info("new rubric registered")
	}
	cache[slot.Code] = rubric
	return rubric, nil
}
