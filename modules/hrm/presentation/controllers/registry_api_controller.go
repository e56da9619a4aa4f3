package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/application"
)

// PositionAPIController, CostCenterAPIController and BusinessLineAPIController
// expose the three supporting registries with the same CRUD surface.
type PositionAPIController struct {
	app       application.Application
	positions *services.PositionService
	apiPrefix string
}

func NewPositionAPIController(app application.Application) application.Controller {
	return &PositionAPIController{
		app:       app,
		positions: app.Service(services.PositionService{}).(*services.PositionService),
		apiPrefix: "/cargos",
	}
}

func (c *PositionAPIController) Key() string {
	return c.apiPrefix
}

func (c *PositionAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("", c.Create).Methods(http.MethodPost)
	api.HandleFunc("", c.List).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Update).Methods(http.MethodPut)
	api.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

func (c *PositionAPIController) Get(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	position, err := c.positions.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, position)
}

func (c *PositionAPIController) Create(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	var dto services.RegistryDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "invalid json body")
		return
	}

	position, err := c.positions.Create(r.Context(), dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, position)
}

func (c *PositionAPIController) List(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	positions, err := c.positions.List(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if positions == nil {
		positions = []services.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

func (c *PositionAPIController) Update(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var dto services.RegistryDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "invalid json body")
		return
	}

	position, err := c.positions.Update(r.Context(), id, dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, position)
}

func (c *PositionAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if err := c.positions.Delete(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type CostCenterAPIController struct {
	app         application.Application
	costCenters *services.CostCenterService
	apiPrefix   string
}

func NewCostCenterAPIController(app application.Application) application.Controller {
	return &CostCenterAPIController{
		app:         app,
		costCenters: app.Service(services.CostCenterService{}).(*services.CostCenterService),
		apiPrefix:   "/centros-custo",
	}
}

func (c *CostCenterAPIController) Key() string {
	return c.apiPrefix
}

func (c *CostCenterAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("", c.Create).Methods(http.MethodPost)
	api.HandleFunc("", c.List).Methods(http.MethodGet)
	api.HandleFunc("/linha-negocio/{id}", c.ListByBusinessLine).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Update).Methods(http.MethodPut)
	api.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

func (c *CostCenterAPIController) Get(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	costCenter, err := c.costCenters.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, costCenter)
}

func (c *CostCenterAPIController) ListByBusinessLine(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	costCenters, err := c.costCenters.ListByBusinessLine(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if costCenters == nil {
		costCenters = []services.CostCenter{}
	}
	writeJSON(w, http.StatusOK, costCenters)
}

func (c *CostCenterAPIController) Create(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	var dto services.RegistryDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "invalid json body")
		return
	}

	costCenter, err := c.costCenters.Create(r.Context(), dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, costCenter)
}

func (c *CostCenterAPIController) List(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	costCenters, err := c.costCenters.List(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if costCenters == nil {
		costCenters = []services.CostCenter{}
	}
	writeJSON(w, http.StatusOK, costCenters)
}

func (c *CostCenterAPIController) Update(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var dto services.RegistryDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "invalid json body")
		return
	}

	costCenter, err := c.costCenters.Update(r.Context(), id, dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, costCenter)
}

func (c *CostCenterAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if err := c.costCenters.Delete(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type BusinessLineAPIController struct {
	app           application.Application
	businessLines *services.BusinessLineService
	apiPrefix     string
}

func NewBusinessLineAPIController(app application.Application) application.Controller {
	return &BusinessLineAPIController{
		app:           app,
		businessLines: app.Service(services.BusinessLineService{}).(*services.BusinessLineService),
		apiPrefix:     "/linhas-negocio",
	}
}

func (c *BusinessLineAPIController) Key() string {
	return c.apiPrefix
}

func (c *BusinessLineAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("", c.Create).Methods(http.MethodPost)
	api.HandleFunc("", c.List).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Update).Methods(http.MethodPut)
	api.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

func (c *BusinessLineAPIController) Get(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	line, err := c.businessLines.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (c *BusinessLineAPIController) Create(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	var dto services.RegistryDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "invalid json body")
		return
	}

	line, err := c.businessLines.Create(r.Context(), dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (c *BusinessLineAPIController) List(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	lines, err := c.businessLines.List(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if lines == nil {
		lines = []services.BusinessLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}

func (c *BusinessLineAPIController) Update(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var dto services.RegistryDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "invalid json body")
		return
	}

	line, err := c.businessLines.Update(r.Context(), id, dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (c *BusinessLineAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if err := c.businessLines.Delete(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
