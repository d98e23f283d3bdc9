package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/orgchart-api/internal/dto"
	"github.com/orgchart-api/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 100
)

type EmployeeHandler struct {
	responder
	empService service.EmployeeService
}

func NewEmployeeHandler(empService service.EmployeeService, logger *slog.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		responder:  newResponder(logger),
		empService: empService,
	}
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	query := dto.EmployeeListQuery{Page: defaultPage, PageSize: defaultPageSize}
	for name, dst := range map[string]*int{"page": &query.Page, "pageSize": &query.PageSize} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid "+name, err.Error())
			return
		}
		*dst = v
	}
	if !h.validateQuery(w, &query) {
		return
	}

	emps, err := h.empService.List(r.Context(), &query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toEmployeeResponses(emps))
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.EmployeeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	emp, err := h.empService.Create(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toEmployeeResponse(emp))
}

func (h *EmployeeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid employee id", err.Error())
		return
	}

	emp, err := h.empService.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toEmployeeResponse(emp))
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid employee id", err.Error())
		return
	}

	var req dto.EmployeeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	emp, err := h.empService.Update(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toEmployeeResponse(emp))
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid employee id", err.Error())
		return
	}

	if err := h.empService.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ByDepartments returns the employees of an explicit set of departments
func (h *EmployeeHandler) ByDepartments(w http.ResponseWriter, r *http.Request) {
	var ids dto.DepartmentIDsRequest
	if !h.decodeList(w, r, &ids) {
		return
	}

	emps, err := h.empService.GetByDepartmentIDs(r.Context(), ids)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toEmployeeResponses(emps))
}
