package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/orgchart-api/internal/domain"
	"github.com/orgchart-api/internal/dto"
	"github.com/orgchart-api/internal/hierarchy"
	"github.com/orgchart-api/internal/repository"
)

// DepartmentService defines the department business logic
type DepartmentService interface {
	List(ctx context.Context) ([]domain.Department, error)
	Create(ctx context.Context, req *dto.CreateDepartmentRequest) (*domain.Department, error)
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	Update(ctx context.Context, id int64, req *dto.UpdateDepartmentRequest) (*domain.Department, error)
	Delete(ctx context.Context, id int64, query *dto.DeleteDepartmentQuery) error
	Tree(ctx context.Context, parentID int64) ([]domain.DepartmentTreeRow, error)
	Hierarchy(ctx context.Context, includeEmployees bool) ([]*hierarchy.Node, error)
	Descendants(ctx context.Context, id int64) ([]int64, error)
	Path(ctx context.Context, id int64) ([]int64, error)
}

type departmentService struct {
	deptRepo repository.DepartmentRepository
	empRepo  repository.EmployeeRepository
}

// NewDepartmentService creates a new service instance
func NewDepartmentService(deptRepo repository.DepartmentRepository, empRepo repository.EmployeeRepository) DepartmentService {
	return &departmentService{
		deptRepo: deptRepo,
		empRepo:  empRepo,
	}
}

func (s *departmentService) List(ctx context.Context) ([]domain.Department, error) {
	return s.deptRepo.List(ctx)
}

func (s *departmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest) (*domain.Department, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name: %w", domain.ErrBlankField)
	}

	if req.ParentID != nil {
		if _, err := s.deptRepo.GetByID(ctx, *req.ParentID); err != nil {
			return nil, err
		}
	}

	// names are unique among siblings
	exists, err := s.deptRepo.ExistsByNameAndParent(ctx, name, req.ParentID, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateDepartmentName
	}

	dept := &domain.Department{
		Name:     name,
		ParentID: req.ParentID,
	}

	if err := s.deptRepo.Create(ctx, dept); err != nil {
		return nil, err
	}

	return dept, nil
}

func (s *departmentService) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	return s.deptRepo.GetByID(ctx, id)
}

func (s *departmentService) Update(ctx context.Context, id int64, req *dto.UpdateDepartmentRequest) (*domain.Department, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name: %w", domain.ErrBlankField)
	}

	dept, err := s.deptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		newParentID := *req.ParentID

		if newParentID == id {
			return nil, domain.ErrSelfReference
		}

		if _, err := s.deptRepo.GetByID(ctx, newParentID); err != nil {
			return nil, err
		}

		// moving under one of its own descendants would close a cycle
		isDescendant, err := s.deptRepo.IsDescendant(ctx, id, newParentID)
		if err != nil {
			return nil, err
		}
		if isDescendant {
			return nil, domain.ErrCyclicReference
		}
	}

	exists, err := s.deptRepo.ExistsByNameAndParent(ctx, name, req.ParentID, &id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateDepartmentName
	}

	dept.Name = name
	dept.ParentID = req.ParentID

	if err := s.deptRepo.Update(ctx, dept); err != nil {
		return nil, err
	}

	return dept, nil
}

func (s *departmentService) Delete(ctx context.Context, id int64, query *dto.DeleteDepartmentQuery) error {
	if _, err := s.deptRepo.GetByID(ctx, id); err != nil {
		return err
	}

	if query.ReassignToDepartmentID != nil {
		targetID := *query.ReassignToDepartmentID

		if targetID == id {
			return domain.ErrCannotReassignToSelf
		}

		if _, err := s.deptRepo.GetByID(ctx, targetID); err != nil {
			if errors.Is(err, domain.ErrDepartmentNotFound) {
				return domain.ErrReassignTargetNotFound
			}
			return err
		}
	}

	return s.deptRepo.Delete(ctx, id, query.ReassignToDepartmentID)
}

// Tree runs the recursive subtree query in the data store
func (s *departmentService) Tree(ctx context.Context, parentID int64) ([]domain.DepartmentTreeRow, error) {
	rows, err := s.deptRepo.Subtree(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrDepartmentNotFound
	}
	return rows, nil
}

// Hierarchy rebuilds the whole forest from the flat department list
func (s *departmentService) Hierarchy(ctx context.Context, includeEmployees bool) ([]*hierarchy.Node, error) {
	departments, err := s.deptRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	forest := hierarchy.Build(departments)

	if includeEmployees {
		assignments, err := s.empRepo.ListAssignments(ctx)
		if err != nil {
			return nil, err
		}
		hierarchy.AttachEmployees(forest, assignments)
	}

	return forest, nil
}

// Descendants collects id and every department below it from the flat list
func (s *departmentService) Descendants(ctx context.Context, id int64) ([]int64, error) {
	departments, err := s.deptRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if !containsDepartment(departments, id) {
		return nil, domain.ErrDepartmentNotFound
	}

	return hierarchy.Descendants(departments, id), nil
}

func (s *departmentService) Path(ctx context.Context, id int64) ([]int64, error) {
	departments, err := s.deptRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	path := hierarchy.Path(departments, id)
	if path == nil {
		return nil, domain.ErrDepartmentNotFound
	}
	return path, nil
}

func containsDepartment(departments []domain.Department, id int64) bool {
	for _, dept := range departments {
		if dept.ID == id {
			return true
		}
	}
	return false
}
