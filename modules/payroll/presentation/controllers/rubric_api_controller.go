package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/application"
)

type RubricAPIController struct {
	app       application.Application
	rubrics   *services.RubricService
	apiPrefix string
}

func NewRubricAPIController(app application.Application) application.Controller {
	return &RubricAPIController{
		app:       app,
		rubrics:   app.Service(services.RubricService{}).(*services.RubricService),
		apiPrefix: "/rubricas",
	}
}

func (c *RubricAPIController) Key() string {
	return c.apiPrefix
}

func (c *RubricAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("", c.Create).Methods(http.MethodPost)
	api.HandleFunc("", c.List).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Update).Methods(http.MethodPut)
	api.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

func (c *RubricAPIController) Create(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	var dto services.RubricDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "PAYROLL_INVALID_BODY", "invalid json body")
		return
	}

	rubric, err := c.rubrics.Create(r.Context(), dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, rubric)
}

func (c *RubricAPIController) Get(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	rubric, err := c.rubrics.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, rubric)
}

func (c *RubricAPIController) List(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	rubrics, err := c.rubrics.List(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if rubrics == nil {
		rubrics = []services.Rubric{}
	}
	writeJSON(w, http.StatusOK, rubrics)
}

func (c *RubricAPIController) Update(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var dto services.RubricDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "PAYROLL_INVALID_BODY", "invalid json body")
		return
	}

	rubric, err := c.rubrics.Update(r.Context(), id, dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, rubric)
}

func (c *RubricAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if err := c.rubrics.Delete(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
