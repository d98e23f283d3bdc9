package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/orgchart-api/internal/domain"
)

// DepartmentRepository defines storage operations for departments
type DepartmentRepository interface {
	List(ctx context.Context) ([]domain.Department, error)
	Create(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	Update(ctx context.Context, dept *domain.Department) error
	Delete(ctx context.Context, id int64, reassignTo *int64) error
	ExistsByNameAndParent(ctx context.Context, name string, parentID *int64, excludeID *int64) (bool, error)
	IsDescendant(ctx context.Context, ancestorID, descendantID int64) (bool, error)
	GetAllDescendantIDs(ctx context.Context, id int64) ([]int64, error)
	Subtree(ctx context.Context, parentID int64) ([]domain.DepartmentTreeRow, error)
}

type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository creates a new repository instance
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	var departments []domain.Department
	err := r.db.WithContext(ctx).Order("id ASC").Find(&departments).Error
	return departments, err
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	var dept domain.Department
	err := r.db.WithContext(ctx).First(&dept, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	return r.db.WithContext(ctx).
		Model(dept).
		Select("name", "parent_id").
		Updates(dept).Error
}

// Delete removes a department in one transaction. Employees move to
// reassignTo when it is set; direct children are re-parented to the
// deleted department's own parent so the forest stays connected.
func (r *departmentRepository) Delete(ctx context.Context, id int64, reassignTo *int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dept domain.Department
		if err := tx.First(&dept, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrDepartmentNotFound
			}
			return err
		}

		// children join their grandparent's siblings and must not clash by name
		var childNames []string
		if err := tx.Model(&domain.Department{}).
			Where("parent_id = ?", id).
			Pluck("name", &childNames).Error; err != nil {
			return fmt.Errorf("load children: %w", err)
		}
		if len(childNames) > 0 {
			siblings := tx.Model(&domain.Department{}).
				Where("id != ?", id).
				Where("name IN ?", childNames)
			if dept.ParentID != nil {
				siblings = siblings.Where("parent_id = ?", *dept.ParentID)
			} else {
				siblings = siblings.Where("parent_id IS NULL")
			}
			var clashes int64
			if err := siblings.Count(&clashes).Error; err != nil {
				return fmt.Errorf("check sibling names: %w", err)
			}
			if clashes > 0 {
				return domain.ErrDuplicateDepartmentName
			}
		}

		if reassignTo != nil {
			if err := tx.Model(&domain.Employee{}).
				Where("department_id = ?", id).
				Update("department_id", *reassignTo).Error; err != nil {
				return fmt.Errorf("reassign employees: %w", err)
			}
		}

		var remaining int64
		if err := tx.Model(&domain.Employee{}).Where("department_id = ?", id).Count(&remaining).Error; err != nil {
			return fmt.Errorf("count employees: %w", err)
		}
		if remaining > 0 {
			return domain.ErrDepartmentHasEmployees
		}

		if err := tx.Model(&domain.Department{}).
			Where("parent_id = ?", id).
			Update("parent_id", dept.ParentID).Error; err != nil {
			return fmt.Errorf("re-parent children: %w", err)
		}

		result := tx.Delete(&domain.Department{}, id)
		if result.Error != nil {
			if isForeignKeyViolation(result.Error) {
				return domain.ErrDepartmentHasEmployees
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrDepartmentNotFound
		}
		return nil
	})
}

func (r *departmentRepository) ExistsByNameAndParent(ctx context.Context, name string, parentID *int64, excludeID *int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Department{}).Where("name = ?", name)

	if parentID != nil {
		query = query.Where("parent_id = ?", *parentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}

	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	err := query.Count(&count).Error
	return count > 0, err
}

func (r *departmentRepository) IsDescendant(ctx context.Context, ancestorID, descendantID int64) (bool, error) {
	descendants, err := r.GetAllDescendantIDs(ctx, ancestorID)
	if err != nil {
		return false, err
	}
	return slices.Contains(descendants, descendantID), nil
}

// GetAllDescendantIDs returns every department below id, excluding id itself
func (r *departmentRepository) GetAllDescendantIDs(ctx context.Context, id int64) ([]int64, error) {
	query := `
		WITH RECURSIVE descendants AS (
			SELECT id FROM departments WHERE parent_id = ?
			UNION
			SELECT d.id FROM departments d
			INNER JOIN descendants ds ON d.parent_id = ds.id
		)
		SELECT id FROM descendants
	`

	rows, err := r.db.WithContext(ctx).Raw(query, id).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var descendantID int64
		if err := rows.Scan(&descendantID); err != nil {
			return nil, err
		}
		result = append(result, descendantID)
	}

	return result, rows.Err()
}

// Subtree returns parentID and all its descendants with their generation
// level, ordered by level then id. An unknown parentID yields no rows.
// No chain in a forest is as long as the table, so the level bound only
// stops the recursion on rows that loop back on themselves.
func (r *departmentRepository) Subtree(ctx context.Context, parentID int64) ([]domain.DepartmentTreeRow, error) {
	query := `
		WITH RECURSIVE department_tree AS (
			SELECT id, name, parent_id, 0 AS level
			FROM departments
			WHERE id = ?

			UNION ALL

			SELECT d.id, d.name, d.parent_id, dt.level + 1
			FROM departments d
			INNER JOIN department_tree dt ON d.parent_id = dt.id
			WHERE dt.level < (SELECT COUNT(*) FROM departments)
		)
		SELECT id, name, parent_id, level
		FROM department_tree
		ORDER BY level, id
	`

	var rows []domain.DepartmentTreeRow
	if err := r.db.WithContext(ctx).Raw(query, parentID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
