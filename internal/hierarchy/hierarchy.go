// Package hierarchy rebuilds the department tree from a flat adjacency list.
//
// It is the in-process counterpart of the recursive subtree query in the
// repository package: both answer "which departments sit under X", one in the
// data store and one over a list that was already fetched.
package hierarchy

import (
	"github.com/orgchart-api/internal/domain"
)

// Node is a department with its resolved children and employee ids.
// Nodes are derived on every request and never persisted.
type Node struct {
	domain.Department
	Children  []*Node `json:"children"`
	Employees []int64 `json:"employees"`
}

// Build turns a flat department list into a forest.
//
// A department whose parent_id does not resolve to a department in the list
// is placed among the roots. Cycles are not detected: nodes on a cycle are
// linked to each other but never reach a root.
func Build(departments []domain.Department) []*Node {
	nodes := make(map[int64]*Node, len(departments))
	order := make([]*Node, 0, len(departments))

	for _, dept := range departments {
		if _, ok := nodes[dept.ID]; ok {
			continue
		}
		node := &Node{
			Department: dept,
			Children:   []*Node{},
			Employees:  []int64{},
		}
		nodes[dept.ID] = node
		order = append(order, node)
	}

	roots := make([]*Node, 0)
	for _, node := range order {
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*node.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return roots
}

// Descendants returns target followed by every department below it,
// depth-first, parent before children.
func Descendants(departments []domain.Department, target int64) []int64 {
	children := make(map[int64][]int64)
	for _, dept := range departments {
		if dept.ParentID != nil {
			children[*dept.ParentID] = append(children[*dept.ParentID], dept.ID)
		}
	}

	visited := make(map[int64]bool)
	var collect func(id int64) []int64
	collect = func(id int64) []int64 {
		visited[id] = true
		result := []int64{id}
		for _, childID := range children[id] {
			if visited[childID] {
				continue
			}
			result = append(result, collect(childID)...)
		}
		return result
	}

	return collect(target)
}

// Path returns the ancestor chain from the topmost reachable ancestor down to
// target, both inclusive. It returns nil when target is not in the list.
func Path(departments []domain.Department, target int64) []int64 {
	byID := make(map[int64]domain.Department, len(departments))
	for _, dept := range departments {
		if _, ok := byID[dept.ID]; !ok {
			byID[dept.ID] = dept
		}
	}

	if _, ok := byID[target]; !ok {
		return nil
	}

	var reversed []int64
	visited := make(map[int64]bool)
	for id := target; ; {
		dept, ok := byID[id]
		if !ok || visited[id] {
			break
		}
		visited[id] = true
		reversed = append(reversed, id)
		if dept.ParentID == nil {
			break
		}
		id = *dept.ParentID
	}

	path := make([]int64, len(reversed))
	for i, id := range reversed {
		path[len(reversed)-1-i] = id
	}
	return path
}

// AttachEmployees fills Node.Employees with the ids of employees assigned to
// each department of the forest. Employees of unknown departments are skipped.
func AttachEmployees(forest []*Node, employees []domain.Employee) {
	byDept := make(map[int64][]int64)
	for _, emp := range employees {
		byDept[emp.DepartmentID] = append(byDept[emp.DepartmentID], emp.ID)
	}

	Walk(forest, func(node *Node) {
		if ids, ok := byDept[node.ID]; ok {
			node.Employees = ids
		}
	})
}

// Walk visits every node of the forest depth-first, parent before children.
func Walk(forest []*Node, fn func(*Node)) {
	for _, node := range forest {
		fn(node)
		Walk(node.Children, fn)
	}
}
