package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/application"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/composables"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/configuration"
)

type ImportAPIController struct {
	app       application.Application
	imports   *services.ImportService
	apiPrefix string
}

func NewImportAPIController(app application.Application) application.Controller {
	return &ImportAPIController{
		app:       app,
		imports:   app.Service(services.ImportService{}).(*services.ImportService),
		apiPrefix: "/importacao",
	}
}

func (c *ImportAPIController) Key() string {
	return c.apiPrefix
}

func (c *ImportAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/folha-adp", c.ImportFeed).Methods(http.MethodPost)
}

// ImportFeed accepts the provider export as a multipart upload under the
// "arquivo" field and runs one import over it.
func (c *ImportAPIController) ImportFeed(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	conf := configuration.Use()

	r.Body = http.MaxBytesReader(w, r.Body, conf.MaxUploadSize)
	if err := r.ParseMultipartForm(conf.MaxUploadSize); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "PAYROLL_INVALID_UPLOAD", "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("arquivo")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "PAYROLL_INVALID_UPLOAD", "missing arquivo field")
		return
	}
	defer func() { _ = file.Close() }()

	composables.UseLogger(r.Context()).
		WithField("filename", header.Filename).
		WithField("size", header.Size).
		Info("payroll feed import started")

	result, err := c.imports.ImportFeed(r.Context(), file)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
