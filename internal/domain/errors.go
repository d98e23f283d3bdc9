package domain

import "errors"

// Business errors
var (
	ErrDepartmentNotFound      = errors.New("department not found")
	ErrEmployeeNotFound        = errors.New("employee not found")
	ErrDuplicateDepartmentName = errors.New("department with this name already exists in the same parent")
	ErrDuplicateEmployeeNumber = errors.New("employee with this employee number already exists")
	ErrSelfReference           = errors.New("department cannot be its own parent")
	ErrCyclicReference         = errors.New("moving department would create a cycle")
	ErrDepartmentHasEmployees  = errors.New("department still has employees")
	ErrReassignTargetNotFound  = errors.New("target department for reassignment not found")
	ErrCannotReassignToSelf    = errors.New("cannot reassign employees to the same department being deleted")
	ErrBlankField              = errors.New("field must not be blank")
)
