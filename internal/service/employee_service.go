package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orgchart-api/internal/domain"
	"github.com/orgchart-api/internal/dto"
	"github.com/orgchart-api/internal/hierarchy"
	"github.com/orgchart-api/internal/repository"
)

// EmployeeService defines the employee business logic
type EmployeeService interface {
	List(ctx context.Context, query *dto.EmployeeListQuery) ([]domain.Employee, error)
	Create(ctx context.Context, req *dto.EmployeeRequest) (*domain.Employee, error)
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	Update(ctx context.Context, id int64, req *dto.EmployeeRequest) (*domain.Employee, error)
	Delete(ctx context.Context, id int64) error
	GetByDepartmentIDs(ctx context.Context, departmentIDs []int64) ([]domain.Employee, error)
	GetByDepartment(ctx context.Context, departmentID int64, query *dto.DepartmentEmployeesQuery) ([]domain.Employee, error)
}

type employeeService struct {
	empRepo  repository.EmployeeRepository
	deptRepo repository.DepartmentRepository
}

// NewEmployeeService creates a new service instance
func NewEmployeeService(empRepo repository.EmployeeRepository, deptRepo repository.DepartmentRepository) EmployeeService {
	return &employeeService{
		empRepo:  empRepo,
		deptRepo: deptRepo,
	}
}

func (s *employeeService) List(ctx context.Context, query *dto.EmployeeListQuery) ([]domain.Employee, error) {
	offset := (query.Page - 1) * query.PageSize
	return s.empRepo.List(ctx, offset, query.PageSize)
}

func (s *employeeService) Create(ctx context.Context, req *dto.EmployeeRequest) (*domain.Employee, error) {
	emp := &domain.Employee{}
	if err := s.apply(ctx, emp, req); err != nil {
		return nil, err
	}

	if err := s.empRepo.Create(ctx, emp); err != nil {
		return nil, err
	}

	return emp, nil
}

func (s *employeeService) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	return s.empRepo.GetByID(ctx, id)
}

func (s *employeeService) Update(ctx context.Context, id int64, req *dto.EmployeeRequest) (*domain.Employee, error) {
	emp, err := s.empRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.apply(ctx, emp, req); err != nil {
		return nil, err
	}

	if err := s.empRepo.Update(ctx, emp); err != nil {
		return nil, err
	}

	return emp, nil
}

func (s *employeeService) Delete(ctx context.Context, id int64) error {
	return s.empRepo.Delete(ctx, id)
}

func (s *employeeService) GetByDepartmentIDs(ctx context.Context, departmentIDs []int64) ([]domain.Employee, error) {
	return s.empRepo.GetByDepartmentIDs(ctx, departmentIDs)
}

// GetByDepartment lists the employees of a department, optionally including
// its whole subtree. The subtree is resolved either by the recursive query or
// by collecting descendant ids in process and querying by set membership.
func (s *employeeService) GetByDepartment(ctx context.Context, departmentID int64, query *dto.DepartmentEmployeesQuery) ([]domain.Employee, error) {
	if _, err := s.deptRepo.GetByID(ctx, departmentID); err != nil {
		return nil, err
	}

	if !query.Recursive {
		return s.empRepo.GetByDepartmentID(ctx, departmentID)
	}

	switch query.Strategy {
	case dto.StrategyCollector:
		departments, err := s.deptRepo.List(ctx)
		if err != nil {
			return nil, err
		}
		return s.empRepo.GetByDepartmentIDs(ctx, hierarchy.Descendants(departments, departmentID))
	default:
		return s.empRepo.GetBySubtree(ctx, departmentID)
	}
}

// apply validates references and copies the request onto emp
func (s *employeeService) apply(ctx context.Context, emp *domain.Employee, req *dto.EmployeeRequest) error {
	name := strings.TrimSpace(req.Name)
	position := strings.TrimSpace(req.Position)
	number := strings.TrimSpace(req.EmployeeNumber)
	for field, value := range map[string]string{"name": name, "position": position, "employee_number": number} {
		if value == "" {
			return fmt.Errorf("%s: %w", field, domain.ErrBlankField)
		}
	}

	if _, err := s.deptRepo.GetByID(ctx, req.DepartmentID); err != nil {
		return err
	}

	var excludeID *int64
	if emp.ID != 0 {
		excludeID = &emp.ID
	}
	exists, err := s.empRepo.ExistsByEmployeeNumber(ctx, number, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateEmployeeNumber
	}

	hireDate, err := time.Parse(dto.DateLayout, req.HireDate)
	if err != nil {
		return fmt.Errorf("parse hire_date: %w", err)
	}

	emp.Name = name
	emp.DepartmentID = req.DepartmentID
	emp.Position = position
	emp.HireDate = hireDate
	emp.EmployeeNumber = number
	return nil
}
