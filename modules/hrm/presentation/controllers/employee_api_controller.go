package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/application"
)

type EmployeeAPIController struct {
	app       application.Application
	employees *services.EmployeeService
	apiPrefix string
}

func NewEmployeeAPIController(app application.Application) application.Controller {
	return &EmployeeAPIController{
		app:       app,
		employees: app.Service(services.EmployeeService{}).(*services.EmployeeService),
		apiPrefix: "/funcionarios",
	}
}

func (c *EmployeeAPIController) Key() string {
	return c.apiPrefix
}

func (c *EmployeeAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("", c.Create).Methods(http.MethodPost)
	api.HandleFunc("", c.List).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Update).Methods(http.MethodPut)
	api.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

func (c *EmployeeAPIController) Create(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	var dto services.EmployeeDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "invalid json body")
		return
	}

	employee, err := c.employees.Create(r.Context(), dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (c *EmployeeAPIController) Get(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	employee, err := c.employees.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (c *EmployeeAPIController) List(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	employees, err := c.employees.List(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if employees == nil {
		employees = []services.Employee{}
	}
	writeJSON(w, http.StatusOK, employees)
}

func (c *EmployeeAPIController) Update(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var dto services.EmployeeDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "HRM_INVALID_BODY", "invalid json body")
		return
	}

	employee, err := c.employees.Update(r.Context(), id, dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (c *EmployeeAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if err := c.employees.Delete(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
