package domain

import (
	"time"
)

// Department represents one unit of the organization chart.
// ParentID == nil marks a root.
type Department struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null"`
	ParentID  *int64    `json:"parent_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the gorm table name
func (Department) TableName() string {
	return "departments"
}

// Employee represents a person assigned to a department
type Employee struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name           string    `json:"name" gorm:"type:varchar(200);not null"`
	DepartmentID   int64     `json:"department_id" gorm:"not null;index"`
	Position       string    `json:"position" gorm:"type:varchar(200);not null"`
	HireDate       time.Time `json:"hire_date" gorm:"type:date;not null"`
	EmployeeNumber string    `json:"employee_number" gorm:"type:varchar(50);not null;uniqueIndex"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the gorm table name
func (Employee) TableName() string {
	return "employees"
}

// DepartmentTreeRow is one row of a recursive subtree query.
// Level is 0 for the queried department and grows by one per generation.
type DepartmentTreeRow struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	Level    int    `json:"level"`
}
