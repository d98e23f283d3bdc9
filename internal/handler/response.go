package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/gorilla/mux"

	"github.com/orgchart-api/internal/domain"
	"github.com/orgchart-api/internal/dto"
	"github.com/orgchart-api/internal/middleware"
)

var (
	errInvalidID    = errors.New("id must be a positive integer")
	errTrailingData = errors.New("unexpected data after JSON body")
)

// responder holds what every handler needs to decode, validate and reply
type responder struct {
	validator *validator.Validate
	logger    *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return responder{
		validator: v,
		logger:    logger,
	}
}

// decodeStrict decodes exactly one JSON value with no unknown fields
func decodeStrict(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// decodeBody decodes the JSON body into dst and validates it
func (h *responder) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeStrict(r.Body, dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return false
	}

	return true
}

func (h *responder) decodeList(w http.ResponseWriter, r *http.Request, ids *dto.DepartmentIDsRequest) bool {
	if err := decodeStrict(r.Body, ids); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}

	if err := h.validator.Var([]int64(*ids), "dive,min=1"); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return false
	}

	return true
}

func (h *responder) validateQuery(w http.ResponseWriter, query any) bool {
	if err := h.validator.Struct(query); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return false
	}
	return true
}

func pathID(r *http.Request) (int64, error) {
	return parseID(mux.Vars(r)["id"])
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id < 1 {
		return 0, errInvalidID
	}
	return id, nil
}

func (h *responder) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrDepartmentNotFound):
		h.respondError(w, http.StatusNotFound, "department not found", "")
	case errors.Is(err, domain.ErrEmployeeNotFound):
		h.respondError(w, http.StatusNotFound, "employee not found", "")
	case errors.Is(err, domain.ErrDuplicateDepartmentName):
		h.respondError(w, http.StatusConflict, "department with this name already exists", "")
	case errors.Is(err, domain.ErrDuplicateEmployeeNumber):
		h.respondError(w, http.StatusConflict, "employee with this employee number already exists", "")
	case errors.Is(err, domain.ErrSelfReference):
		h.respondError(w, http.StatusBadRequest, "department cannot be its own parent", "")
	case errors.Is(err, domain.ErrCyclicReference):
		h.respondError(w, http.StatusConflict, "moving department would create a cycle", "")
	case errors.Is(err, domain.ErrDepartmentHasEmployees):
		h.respondError(w, http.StatusConflict, "department still has employees", "pass reassign_to_department_id to move them")
	case errors.Is(err, domain.ErrReassignTargetNotFound):
		h.respondError(w, http.StatusNotFound, "target department for reassignment not found", "")
	case errors.Is(err, domain.ErrBlankField):
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
	case errors.Is(err, domain.ErrCannotReassignToSelf):
		h.respondError(w, http.StatusBadRequest, "cannot reassign to the same department being deleted", "")
	default:
		h.logger.Error("internal error",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.Any("error", err),
		)
		h.respondError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func (h *responder) respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *responder) respondError(w http.ResponseWriter, status int, errMsg, details string) {
	w.WriteHeader(status)
	resp := dto.ErrorResponse{Error: errMsg}
	if details != "" {
		resp.Message = details
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode error response", slog.Any("error", err))
	}
}

func toDepartmentResponse(dept *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:        dept.ID,
		Name:      dept.Name,
		ParentID:  dept.ParentID,
		CreatedAt: dept.CreatedAt,
	}
}

func toEmployeeResponse(emp *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:             emp.ID,
		Name:           emp.Name,
		DepartmentID:   emp.DepartmentID,
		Position:       emp.Position,
		HireDate:       emp.HireDate.Format(dto.DateLayout),
		EmployeeNumber: emp.EmployeeNumber,
		CreatedAt:      emp.CreatedAt,
	}
}

func toEmployeeResponses(emps []domain.Employee) []dto.EmployeeResponse {
	resp := make([]dto.EmployeeResponse, len(emps))
	for i := range emps {
		resp[i] = toEmployeeResponse(&emps[i])
	}
	return resp
}
