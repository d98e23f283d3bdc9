package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/orgchart-api/internal/dto"
	"github.com/orgchart-api/internal/hierarchy"
	"github.com/orgchart-api/internal/service"
)

type DepartmentHandler struct {
	responder
	deptService service.DepartmentService
	empService  service.EmployeeService
}

func NewDepartmentHandler(
	deptService service.DepartmentService,
	empService service.EmployeeService,
	logger *slog.Logger,
) *DepartmentHandler {
	return &DepartmentHandler{
		responder:   newResponder(logger),
		deptService: deptService,
		empService:  empService,
	}
}

func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	departments, err := h.deptService.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := make([]dto.DepartmentResponse, len(departments))
	for i := range departments {
		resp[i] = toDepartmentResponse(&departments[i])
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDepartmentRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	dept, err := h.deptService.Create(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toDepartmentResponse(dept))
}

func (h *DepartmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid department id", err.Error())
		return
	}

	dept, err := h.deptService.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toDepartmentResponse(dept))
}

func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid department id", err.Error())
		return
	}

	var req dto.UpdateDepartmentRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	dept, err := h.deptService.Update(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toDepartmentResponse(dept))
}

// Delete removes a department. Children move up to its parent; employees
// must be moved with reassign_to_department_id or the request fails.
func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid department id", err.Error())
		return
	}

	var query dto.DeleteDepartmentQuery
	if raw := r.URL.Query().Get("reassign_to_department_id"); raw != "" {
		target, err := parseID(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid reassign_to_department_id", err.Error())
			return
		}
		query.ReassignToDepartmentID = &target
	}
	if !h.validateQuery(w, &query) {
		return
	}

	if err := h.deptService.Delete(r.Context(), id, &query); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Tree returns the subtree rooted at ?parentId= as flat rows with levels
func (h *DepartmentHandler) Tree(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("parentId")
	if raw == "" {
		h.respondError(w, http.StatusBadRequest, "parentId is required", "")
		return
	}
	parentID, err := parseID(raw)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid parentId", err.Error())
		return
	}

	rows, err := h.deptService.Tree(r.Context(), parentID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := make([]dto.DepartmentTreeRowResponse, len(rows))
	for i, row := range rows {
		resp[i] = dto.DepartmentTreeRowResponse{
			ID:       row.ID,
			Name:     row.Name,
			ParentID: row.ParentID,
			Level:    row.Level,
		}
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// Hierarchy returns the whole department forest
func (h *DepartmentHandler) Hierarchy(w http.ResponseWriter, r *http.Request) {
	includeEmployees, ok := h.boolQuery(w, r, "include_employees", true)
	if !ok {
		return
	}

	forest, err := h.deptService.Hierarchy(r.Context(), includeEmployees)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toNodeResponses(forest))
}

func (h *DepartmentHandler) Descendants(w http.ResponseWriter, r *http.Request) {
	h.idList(w, r, h.deptService.Descendants)
}

func (h *DepartmentHandler) Path(w http.ResponseWriter, r *http.Request) {
	h.idList(w, r, h.deptService.Path)
}

// Employees lists the employees of a department, by default with its whole subtree
func (h *DepartmentHandler) Employees(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid department id", err.Error())
		return
	}

	recursive, ok := h.boolQuery(w, r, "recursive", true)
	if !ok {
		return
	}
	query := dto.DepartmentEmployeesQuery{
		Recursive: recursive,
		Strategy:  dto.StrategyQuery,
	}
	if s := r.URL.Query().Get("strategy"); s != "" {
		query.Strategy = s
	}
	if !h.validateQuery(w, &query) {
		return
	}

	emps, err := h.empService.GetByDepartment(r.Context(), id, &query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toEmployeeResponses(emps))
}

// idList serves the endpoints that answer with an ordered list of department ids
func (h *DepartmentHandler) idList(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, id int64) ([]int64, error)) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid department id", err.Error())
		return
	}

	ids, err := fetch(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	h.respondJSON(w, http.StatusOK, ids)
}

func (h *DepartmentHandler) boolQuery(w http.ResponseWriter, r *http.Request, name string, def bool) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid "+name, err.Error())
		return false, false
	}
	return v, true
}

func toNodeResponses(nodes []*hierarchy.Node) []dto.DepartmentNodeResponse {
	resp := make([]dto.DepartmentNodeResponse, len(nodes))
	for i, node := range nodes {
		employees := node.Employees
		if employees == nil {
			employees = []int64{}
		}
		resp[i] = dto.DepartmentNodeResponse{
			ID:        node.ID,
			Name:      node.Name,
			ParentID:  node.ParentID,
			Children:  toNodeResponses(node.Children),
			Employees: employees,
		}
	}
	return resp
}
