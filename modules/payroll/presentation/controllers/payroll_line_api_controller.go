package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	hrmservices "github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/application"
)

type PayrollLineAPIController struct {
	app         application.Application
	lines       *services.PayrollLineService
	costCenters *hrmservices.CostCenterService
	apiPrefix   string
}

func NewPayrollLineAPIController(app application.Application) application.Controller {
	return &PayrollLineAPIController{
		app:         app,
		lines:       app.Service(services.PayrollLineService{}).(*services.PayrollLineService),
		costCenters: app.Service(hrmservices.CostCenterService{}).(*hrmservices.CostCenterService),
		apiPrefix:   "/folha-pagamento",
	}
}

func (c *PayrollLineAPIController) Key() string {
	return c.apiPrefix
}

func (c *PayrollLineAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("", c.List).Methods(http.MethodGet)
	api.HandleFunc("/funcionario/{id}", c.ListByEmployee).Methods(http.MethodGet)
	api.HandleFunc("/centro-custo/{id}", c.ListByCostCenter).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

// List filters by funcionario_id or centro_custo, optionally bounded by
// inicio/fim (yyyy-mm-dd).
func (c *PayrollLineAPIController) List(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	q := r.URL.Query()

	var filter services.PayrollLineFilter
	if raw := strings.TrimSpace(q.Get("funcionario_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeAPIError(w, http.StatusBadRequest, requestID, "PAYROLL_INVALID_FILTER", "funcionario_id must be a positive integer")
			return
		}
		filter.EmployeeID = &id
	}
	if raw := strings.TrimSpace(q.Get("centro_custo")); raw != "" {
		filter.CostCenter = &raw
	}
	var ok bool
	if filter.PeriodStart, ok = queryDate(w, q.Get("inicio"), "inicio", requestID); !ok {
		return
	}
	if filter.PeriodEnd, ok = queryDate(w, q.Get("fim"), "fim", requestID); !ok {
		return
	}

	lines, err := c.lines.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if lines == nil {
		lines = []services.PayrollLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}

// ListByEmployee is the path-style variant of List; inicio and fim are
// required.
func (c *PayrollLineAPIController) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	start, end, ok := requiredPeriod(w, r, requestID)
	if !ok {
		return
	}

	lines, err := c.lines.List(r.Context(), services.PayrollLineFilter{
		EmployeeID:  &id,
		PeriodStart: start,
		PeriodEnd:   end,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if lines == nil {
		lines = []services.PayrollLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}

// ListByCostCenter resolves the cost-center id through the registry and
// filters lines on its description snapshot.
func (c *PayrollLineAPIController) ListByCostCenter(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	start, end, ok := requiredPeriod(w, r, requestID)
	if !ok {
		return
	}

	costCenter, err := c.costCenters.Get(r.Context(), id)
	if err != nil {
		var svcErr *hrmservices.ServiceError
		if errors.As(err, &svcErr) {
			writeAPIError(w, svcErr.Status, requestID, "PAYROLL_REFERENCE_NOT_FOUND", "cost center not found")
			return
		}
		writeAPIError(w, http.StatusInternalServerError, requestID, "PAYROLL_INTERNAL", err.Error())
		return
	}

	lines, err := c.lines.List(r.Context(), services.PayrollLineFilter{
		CostCenter:  &costCenter.Description,
		PeriodStart: start,
		PeriodEnd:   end,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if lines == nil {
		lines = []services.PayrollLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}

func requiredPeriod(w http.ResponseWriter, r *http.Request, requestID string) (*time.Time, *time.Time, bool) {
	q := r.URL.Query()
	start, ok := queryDate(w, q.Get("inicio"), "inicio", requestID)
	if !ok {
		return nil, nil, false
	}
	end, ok := queryDate(w, q.Get("fim"), "fim", requestID)
	if !ok {
		return nil, nil, false
	}
	if start == nil || end == nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "PAYROLL_INVALID_FILTER", "inicio and fim are required")
		return nil, nil, false
	}
	return start, end, true
}

func (c *PayrollLineAPIController) Get(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	line, err := c.lines.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (c *PayrollLineAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if err := c.lines.Delete(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryDate(w http.ResponseWriter, raw, name, requestID string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "PAYROLL_INVALID_FILTER", name+" must be yyyy-mm-dd")
		return nil, false
	}
	return &parsed, true
}
