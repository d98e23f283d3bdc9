package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/orgchart-api/internal/domain"
)

// EmployeeRepository defines storage operations for employees
type EmployeeRepository interface {
	List(ctx context.Context, offset, limit int) ([]domain.Employee, error)
	Create(ctx context.Context, emp *domain.Employee) error
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	Update(ctx context.Context, emp *domain.Employee) error
	Delete(ctx context.Context, id int64) error
	GetByDepartmentID(ctx context.Context, departmentID int64) ([]domain.Employee, error)
	GetByDepartmentIDs(ctx context.Context, departmentIDs []int64) ([]domain.Employee, error)
	GetBySubtree(ctx context.Context, departmentID int64) ([]domain.Employee, error)
	ListAssignments(ctx context.Context) ([]domain.Employee, error)
	ExistsByEmployeeNumber(ctx context.Context, number string, excludeID *int64) (bool, error)
}

type employeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository creates a new repository instance
func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) List(ctx context.Context, offset, limit int) ([]domain.Employee, error) {
	var employees []domain.Employee
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&employees).Error
	return employees, err
}

func (r *employeeRepository) Create(ctx context.Context, emp *domain.Employee) error {
	err := r.db.WithContext(ctx).Create(emp).Error
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEmployeeNumber
	}
	if isForeignKeyViolation(err) {
		return domain.ErrDepartmentNotFound
	}
	return err
}

func (r *employeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	var emp domain.Employee
	err := r.db.WithContext(ctx).First(&emp, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepository) Update(ctx context.Context, emp *domain.Employee) error {
	err := r.db.WithContext(ctx).Save(emp).Error
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEmployeeNumber
	}
	if isForeignKeyViolation(err) {
		return domain.ErrDepartmentNotFound
	}
	return err
}

func (r *employeeRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&domain.Employee{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

// GetByDepartmentID returns the employees assigned directly to departmentID
func (r *employeeRepository) GetByDepartmentID(ctx context.Context, departmentID int64) ([]domain.Employee, error) {
	var employees []domain.Employee
	err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("name ASC, id ASC").
		Find(&employees).Error
	return employees, err
}

// GetByDepartmentIDs is the set-membership lookup: employees of any listed department
func (r *employeeRepository) GetByDepartmentIDs(ctx context.Context, departmentIDs []int64) ([]domain.Employee, error) {
	employees := []domain.Employee{}
	if len(departmentIDs) == 0 {
		return employees, nil
	}

	err := r.db.WithContext(ctx).
		Where("department_id IN ?", departmentIDs).
		Order("department_id ASC, id ASC").
		Find(&employees).Error
	return employees, err
}

// GetBySubtree returns the employees of departmentID and of every department below it
func (r *employeeRepository) GetBySubtree(ctx context.Context, departmentID int64) ([]domain.Employee, error) {
	query := `
		WITH RECURSIVE subdepartments AS (
			SELECT id FROM departments WHERE id = ?

			UNION

			SELECT d.id
			FROM departments d
			INNER JOIN subdepartments sd ON d.parent_id = sd.id
		)
		SELECT e.id, e.name, e.department_id, e.position, e.hire_date, e.employee_number, e.created_at
		FROM employees e
		INNER JOIN subdepartments sd ON e.department_id = sd.id
		ORDER BY e.department_id, e.name, e.id
	`

	employees := []domain.Employee{}
	if err := r.db.WithContext(ctx).Raw(query, departmentID).Scan(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

// ListAssignments loads only id and department_id of every employee
func (r *employeeRepository) ListAssignments(ctx context.Context) ([]domain.Employee, error) {
	var employees []domain.Employee
	err := r.db.WithContext(ctx).
		Select("id", "department_id").
		Order("department_id ASC, id ASC").
		Find(&employees).Error
	return employees, err
}

func (r *employeeRepository) ExistsByEmployeeNumber(ctx context.Context, number string, excludeID *int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Employee{}).Where("employee_number = ?", number)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}
