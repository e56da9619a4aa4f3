package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/org/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/application"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/configuration"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/httpapi"
)

type OrgAPIController struct {
	app       application.Application
	org       *services.OrgService
	apiPrefix string
}

func NewOrgAPIController(app application.Application) application.Controller {
	return &OrgAPIController{
		app:       app,
		org:       app.Service(services.OrgService{}).(*services.OrgService),
		apiPrefix: "/organograma",
	}
}

func (c *OrgAPIController) Key() string {
	return c.apiPrefix
}

func (c *OrgAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("", c.CreateNode).Methods(http.MethodPost)
	api.HandleFunc("", c.ListNodes).Methods(http.MethodGet)
	api.HandleFunc("/arvore", c.GetActiveTree).Methods(http.MethodGet)
	api.HandleFunc("/filhos", c.GetChildrenOf).Methods(http.MethodGet)
	api.HandleFunc("/ativo", c.GetActiveRoot).Methods(http.MethodGet)
	api.HandleFunc("/desativar", c.Deactivate).Methods(http.MethodPut)
	api.HandleFunc("/{id}", c.GetNode).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.UpdateNode).Methods(http.MethodPut)
	api.HandleFunc("/{id}", c.DeleteNode).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/cascata", c.DeleteCascade).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/mover", c.MoveNode).Methods(http.MethodPut)
	api.HandleFunc("/{id}/ativar", c.Activate).Methods(http.MethodPut)
	api.HandleFunc("/{id}/filhos", c.GetChildren).Methods(http.MethodGet)

	api.HandleFunc("/{id}/funcionarios", c.ListEmployees).Methods(http.MethodGet)
	api.HandleFunc("/{id}/funcionarios/{funcionarioId}", c.AssociateEmployee).Methods(http.MethodPost)
	api.HandleFunc("/{id}/funcionarios/{funcionarioId}", c.DissociateEmployee).Methods(http.MethodDelete)

	api.HandleFunc("/{id}/centros-custo", c.ListCostCenters).Methods(http.MethodGet)
	api.HandleFunc("/{id}/centros-custo/{centroCustoId}", c.AssociateCostCenter).Methods(http.MethodPost)
	api.HandleFunc("/{id}/centros-custo/{centroCustoId}", c.DissociateCostCenter).Methods(http.MethodDelete)
}

type nodeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id"`
	Position    int    `json:"position"`
}

func (c *OrgAPIController) CreateNode(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	var req nodeRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "invalid json body")
		return
	}

	node, err := c.org.Create(r.Context(), services.CreateNodeInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		Position:    req.Position,
		Actor:       requestActor(r),
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

func (c *OrgAPIController) GetNode(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}
	node, err := c.org.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (c *OrgAPIController) UpdateNode(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}

	// parent_id distinguishes absent from explicit null so an update can
	// also reparent.
	var raw struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		ParentID    json.RawMessage `json:"parent_id"`
		Position    int             `json:"position"`
	}
	if err := decodeJSON(r.Body, &raw); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "invalid json body")
		return
	}

	in := services.UpdateNodeInput{
		ID:          id,
		Name:        raw.Name,
		Description: raw.Description,
		Position:    raw.Position,
		Actor:       requestActor(r),
	}
	if len(raw.ParentID) > 0 {
		in.ParentSet = true
		if string(raw.ParentID) != "null" {
			var parentID int64
			if err := json.Unmarshal(raw.ParentID, &parentID); err != nil {
				writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "parent_id is invalid")
				return
			}
			in.ParentID = &parentID
		}
	}

	node, err := c.org.Update(r.Context(), in)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (c *OrgAPIController) DeleteNode(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}
	if err := c.org.Delete(r.Context(), id, requestActor(r)); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrgAPIController) DeleteCascade(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}
	if err := c.org.DeleteCascade(r.Context(), id, requestActor(r)); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveNodeRequest struct {
	ParentID *int64 `json:"parent_id"`
	Position *int   `json:"position"`
}

func (c *OrgAPIController) MoveNode(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}
	var req moveNodeRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_BODY", "invalid json body")
		return
	}
	node, err := c.org.Move(r.Context(), id, req.ParentID, req.Position, requestActor(r))
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (c *OrgAPIController) Activate(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}
	if err := c.org.Activate(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrgAPIController) Deactivate(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	if err := c.org.Deactivate(r.Context()); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrgAPIController) GetActiveTree(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	tree, err := c.org.ActiveTree(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if tree == nil {
		tree = []*services.TreeNode{}
	}
	writeJSON(w, http.StatusOK, tree)
}

func (c *OrgAPIController) ListNodes(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	nodes, err := c.org.List(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if nodes == nil {
		nodes = []services.Node{}
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (c *OrgAPIController) GetActiveRoot(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	root, err := c.org.ActiveRoot(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, root)
}

// GetChildrenOf lists children of the parentId query parameter, or the
// root nodes when it is absent.
func (c *OrgAPIController) GetChildrenOf(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)

	var parentID *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("parentId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_ID", "parentId must be a positive integer")
			return
		}
		parentID = &id
	}

	children, err := c.org.ChildrenOf(r.Context(), parentID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if children == nil {
		children = []services.Node{}
	}
	writeJSON(w, http.StatusOK, children)
}

func (c *OrgAPIController) GetChildren(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}
	children, err := c.org.Children(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if children == nil {
		children = []services.Node{}
	}
	writeJSON(w, http.StatusOK, children)
}

func (c *OrgAPIController) AssociateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	nodeID, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}
	employeeID, ok := pathID(w, r, requestID, "funcionarioId")
	if !ok {
		return
	}
	link, err := c.org.AssociateEmployee(r.Context(), nodeID, employeeID, requestActor(r))
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (c *OrgAPIController) DissociateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	nodeID, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}
	employeeID, ok := pathID(w, r, requestID, "funcionarioId")
	if !ok {
		return
	}
	if err := c.org.DissociateEmployee(r.Context(), nodeID, employeeID); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrgAPIController) ListEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	nodeID, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}
	links, err := c.org.ListEmployees(r.Context(), nodeID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if links == nil {
		links = []services.EmployeeLink{}
	}
	writeJSON(w, http.StatusOK, links)
}

func (c *OrgAPIController) AssociateCostCenter(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	nodeID, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}
	costCenterID, ok := pathID(w, r, requestID, "centroCustoId")
	if !ok {
		return
	}
	link, err := c.org.AssociateCostCenter(r.Context(), nodeID, costCenterID, requestActor(r))
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (c *OrgAPIController) DissociateCostCenter(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	nodeID, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}
	costCenterID, ok := pathID(w, r, requestID, "centroCustoId")
	if !ok {
		return
	}
	if err := c.org.DissociateCostCenter(r.Context(), nodeID, costCenterID); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrgAPIController) ListCostCenters(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	nodeID, ok := pathID(w, r, requestID, "id")
	if !ok {
		return
	}
	links, err := c.org.ListCostCenters(r.Context(), nodeID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	if links == nil {
		links = []services.CostCenterLink{}
	}
	writeJSON(w, http.StatusOK, links)
}

func pathID(w http.ResponseWriter, r *http.Request, requestID, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		writeAPIError(w, http.StatusBadRequest, requestID, "ORG_INVALID_ID", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func requestActor(r *http.Request) string {
	actor := strings.TrimSpace(r.Header.Get("X-User-Login"))
	if actor == "" {
		return "system"
	}
	return actor
}

func ensureRequestID(r *http.Request) string {
	conf := configuration.Use()
	v := strings.TrimSpace(r.Header.Get(conf.RequestIDHeader))
	if v != "" {
		return v
	}
	v = uuid.NewString()
	r.Header.Set(conf.RequestIDHeader, v)
	return v
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeServiceError(w http.ResponseWriter, requestID string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		writeAPIError(w, svcErr.Status, requestID, svcErr.Code, svcErr.Message)
		return
	}
	writeAPIError(w, http.StatusInternalServerError, requestID, "ORG_INTERNAL", err.Error())
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	meta := map[string]string{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	_ = httpapi.WriteError(w, status, code, message, meta)
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
