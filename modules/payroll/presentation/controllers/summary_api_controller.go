package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/application"
)

type SummaryAPIController struct {
	app       application.Application
	summaries *services.ImportSummaryService
	apiPrefix string
}

func NewSummaryAPIController(app application.Application) application.Controller {
	return &SummaryAPIController{
		app:       app,
		summaries: app.Service(services.ImportSummaryService{}).(*services.ImportSummaryService),
		apiPrefix: "/resumo-folha-pagamento",
	}
}

func (c *SummaryAPIController) Key() string {
	return c.apiPrefix
}

func (c *SummaryAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("", c.List).Methods(http.MethodGet)
	api.HandleFunc("/periodo", c.ListByPeriodRange).Methods(http.MethodGet)
	api.HandleFunc("/competencia", c.GetByPeriod).Methods(http.MethodGet)
	api.HandleFunc("/latest", c.ListLatest).Methods(http.MethodGet)
}

func (c *SummaryAPIController) List(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	summaries, err := c.summaries.List(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if summaries == nil {
		summaries = []services.ImportSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// ListByPeriodRange filters summaries whose competency start falls
// between inicio and fim (yyyy-mm-dd, both required).
func (c *SummaryAPIController) ListByPeriodRange(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	q := r.URL.Query()

	from, ok := queryDate(w, q.Get("inicio"), "inicio", requestID)
	if !ok {
		return
	}
	to, ok := queryDate(w, q.Get("fim"), "fim", requestID)
	if !ok {
		return
	}
	if from == nil || to == nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "PAYROLL_INVALID_FILTER", "inicio and fim are required")
		return
	}

	summaries, err := c.summaries.ListByStartBetween(r.Context(), *from, *to)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if summaries == nil {
		summaries = []services.ImportSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (c *SummaryAPIController) ListLatest(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	summaries, err := c.summaries.ListLatest(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if summaries == nil {
		summaries = []services.ImportSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetByPeriod expects inicio and fim query params (yyyy-mm-dd).
func (c *SummaryAPIController) GetByPeriod(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	q := r.URL.Query()

	start, ok := queryDate(w, q.Get("inicio"), "inicio", requestID)
	if !ok {
		return
	}
	end, ok := queryDate(w, q.Get("fim"), "fim", requestID)
	if !ok {
		return
	}
	if start == nil || end == nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "PAYROLL_INVALID_FILTER", "inicio and fim are required")
		return
	}

	summary, err := c.summaries.GetByPeriod(r.Context(), *start, *end)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
