package dto

import (
	"time"
)

// DateLayout is the wire format of hire_date
const DateLayout = "2006-01-02"

// CreateDepartmentRequest - request to create a department
type CreateDepartmentRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=200"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,min=1"`
}

// UpdateDepartmentRequest - full replacement of a department.
// A null parent_id moves the department to the root level.
type UpdateDepartmentRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=200"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,min=1"`
}

// EmployeeRequest - body of employee create and update
type EmployeeRequest struct {
	Name           string `json:"name" validate:"required,notblank,max=200"`
	DepartmentID   int64  `json:"department_id" validate:"required,min=1"`
	Position       string `json:"position" validate:"required,notblank,max=200"`
	HireDate       string `json:"hire_date" validate:"required,datetime=2006-01-02"`
	EmployeeNumber string `json:"employee_number" validate:"required,notblank,max=50"`
}

// DepartmentIDsRequest - body of POST /employees/by-departments
type DepartmentIDsRequest []int64

// DepartmentResponse - department payload
type DepartmentResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
}

// DepartmentNodeResponse - one node of the department forest
type DepartmentNodeResponse struct {
	ID        int64                    `json:"id"`
	Name      string                   `json:"name"`
	ParentID  *int64                   `json:"parent_id"`
	Children  []DepartmentNodeResponse `json:"children"`
	Employees []int64                  `json:"employees"`
}

// DepartmentTreeRowResponse - one row of GET /departments/tree
type DepartmentTreeRowResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	Level    int    `json:"level"`
}

// EmployeeResponse - employee payload
type EmployeeResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	DepartmentID   int64     `json:"department_id"`
	Position       string    `json:"position"`
	HireDate       string    `json:"hire_date"`
	EmployeeNumber string    `json:"employee_number"`
	CreatedAt      time.Time `json:"created_at"`
}

// ErrorResponse - standard error payload
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// DeleteDepartmentQuery - query parameters of department deletion
type DeleteDepartmentQuery struct {
	ReassignToDepartmentID *int64 `validate:"omitempty,min=1"`
}

// EmployeeListQuery - paging window of GET /employees
type EmployeeListQuery struct {
	Page     int `validate:"min=1"`
	PageSize int `validate:"min=1,max=1000"`
}

// Employee lookup strategies for a department subtree
const (
	StrategyQuery     = "query"
	StrategyCollector = "collector"
)

// DepartmentEmployeesQuery - query parameters of GET /departments/{id}/employees
type DepartmentEmployeesQuery struct {
	Recursive bool
	Strategy  string `validate:"oneof=query collector"`
}
