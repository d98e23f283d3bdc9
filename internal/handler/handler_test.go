package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgchart-api/internal/database/dbtest"
	"github.com/orgchart-api/internal/dto"
	"github.com/orgchart-api/internal/handler"
	"github.com/orgchart-api/internal/middleware"
	"github.com/orgchart-api/internal/repository"
	"github.com/orgchart-api/internal/service"
)

type testServer struct {
	server *httptest.Server
	api    string
}

func setupTestServer(t *testing.T) *testServer {
	logger := slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	db := dbtest.Open(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	deptRepo := repository.NewDepartmentRepository(db)
	empRepo := repository.NewEmployeeRepository(db)
	deptService := service.NewDepartmentService(deptRepo, empRepo)
	empService := service.NewEmployeeService(empRepo, deptRepo)

	router := handler.NewRouter(
		handler.RouterConfig{BasePath: "/api", AllowedOrigins: []string{"*"}, MetricsPath: "/metrics"},
		handler.NewDepartmentHandler(deptService, empService, logger),
		handler.NewEmployeeHandler(empService, logger),
		sqlDB,
		logger,
	)

	ts := &testServer{server: httptest.NewServer(router.Setup())}
	ts.api = ts.server.URL + "/api"
	t.Cleanup(ts.server.Close)
	return ts
}

func postJSON(url string, body any) (*http.Response, error) {
	data, _ := json.Marshal(body)
	return http.Post(url, "application/json", bytes.NewBuffer(data))
}

func putJSON(url string, body any) (*http.Response, error) {
	data, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return http.DefaultClient.Do(req)
}

func deleteRequest(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func expectStatus(t *testing.T, resp *http.Response, err error, status int) {
	t.Helper()
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, status, resp.StatusCode)
}

func (ts *testServer) mustDept(t *testing.T, name string, parentID *int64) int64 {
	t.Helper()
	resp, err := postJSON(ts.api+"/departments", map[string]any{"name": name, "parent_id": parentID})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.DepartmentResponse](t, resp).ID
}

func (ts *testServer) mustEmp(t *testing.T, name string, departmentID int64, number string) int64 {
	t.Helper()
	resp, err := postJSON(ts.api+"/employees", map[string]any{
		"name":            name,
		"department_id":   departmentID,
		"position":        "Engineer",
		"hire_date":       "2023-03-01",
		"employee_number": number,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.EmployeeResponse](t, resp).ID
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.mustDept(t, "Warmup", nil)

	resp, err := http.Get(ts.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "orgchart_http_requests_total")
}

func TestCreateDepartment(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := postJSON(ts.api+"/departments", map[string]any{"name": "IT Department"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	dept := decode[dto.DepartmentResponse](t, resp)
	assert.Equal(t, "IT Department", dept.Name)
	assert.Nil(t, dept.ParentID)

	child := ts.mustDept(t, "Backend", &dept.ID)

	resp, err = http.Get(fmt.Sprintf("%s/departments/%d", ts.api, child))
	require.NoError(t, err)
	got := decode[dto.DepartmentResponse](t, resp)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, dept.ID, *got.ParentID)
}

func TestCreateDepartment_Errors(t *testing.T) {
	ts := setupTestServer(t)
	ts.mustDept(t, "Sales", nil)

	resp, err := postJSON(ts.api+"/departments", map[string]any{"name": ""})
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = http.Post(ts.api+"/departments", "application/json", bytes.NewBufferString("{"))
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = postJSON(ts.api+"/departments", map[string]any{"name": "Child", "parent_id": 999})
	expectStatus(t, resp, err, http.StatusNotFound)

	resp, err = postJSON(ts.api+"/departments", map[string]any{"name": "Sales"})
	expectStatus(t, resp, err, http.StatusConflict)
}

func TestGetDepartment_BadID(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.api + "/departments/abc")
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = http.Get(ts.api + "/departments/0")
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = http.Get(ts.api + "/departments/42")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "department not found", decode[dto.ErrorResponse](t, resp).Error)
}

func TestListDepartments_EmptyIsArray(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.api + "/departments")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(body))
}

func TestTree(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)
	b := ts.mustDept(t, "B", &a)
	ts.mustDept(t, "C", &b)

	resp, err := http.Get(fmt.Sprintf("%s/departments/tree?parentId=%d", ts.api, a))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows := decode[[]dto.DepartmentTreeRowResponse](t, resp)
	require.Len(t, rows, 3)
	for i, name := range []string{"A", "B", "C"} {
		assert.Equal(t, name, rows[i].Name)
		assert.Equal(t, i, rows[i].Level)
	}
	assert.Nil(t, rows[0].ParentID)
}

func TestTree_BadRequests(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.api + "/departments/tree")
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = http.Get(ts.api + "/departments/tree?parentId=x")
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = http.Get(ts.api + "/departments/tree?parentId=77")
	expectStatus(t, resp, err, http.StatusNotFound)
}

func TestHierarchy(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)
	b := ts.mustDept(t, "B", &a)
	ts.mustDept(t, "Z", nil)
	e := ts.mustEmp(t, "Kim", b, "E-1")

	resp, err := http.Get(ts.api + "/departments/hierarchy")
	require.NoError(t, err)
	forest := decode[[]dto.DepartmentNodeResponse](t, resp)

	require.Len(t, forest, 2)
	assert.Equal(t, "A", forest[0].Name)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, []int64{e}, forest[0].Children[0].Employees)
	assert.Empty(t, forest[1].Children)

	resp, err = http.Get(ts.api + "/departments/hierarchy?include_employees=false")
	require.NoError(t, err)
	forest = decode[[]dto.DepartmentNodeResponse](t, resp)
	assert.Empty(t, forest[0].Children[0].Employees)

	resp, err = http.Get(ts.api + "/departments/hierarchy?include_employees=maybe")
	expectStatus(t, resp, err, http.StatusBadRequest)
}

func TestDescendantsAndPath(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)
	b := ts.mustDept(t, "B", &a)
	c := ts.mustDept(t, "C", &b)
	d := ts.mustDept(t, "D", &a)

	resp, err := http.Get(fmt.Sprintf("%s/departments/%d/descendants", ts.api, a))
	require.NoError(t, err)
	assert.Equal(t, []int64{a, b, c, d}, decode[[]int64](t, resp))

	resp, err = http.Get(fmt.Sprintf("%s/departments/%d/path", ts.api, c))
	require.NoError(t, err)
	assert.Equal(t, []int64{a, b, c}, decode[[]int64](t, resp))

	resp, err = http.Get(ts.api + "/departments/404/path")
	expectStatus(t, resp, err, http.StatusNotFound)
}

func TestUpdateDepartment(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)
	b := ts.mustDept(t, "B", &a)

	resp, err := putJSON(fmt.Sprintf("%s/departments/%d", ts.api, a), map[string]any{"name": "A", "parent_id": a})
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = putJSON(fmt.Sprintf("%s/departments/%d", ts.api, a), map[string]any{"name": "A", "parent_id": b})
	expectStatus(t, resp, err, http.StatusConflict)

	resp, err = putJSON(fmt.Sprintf("%s/departments/%d", ts.api, b), map[string]any{"name": "B2", "parent_id": nil})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[dto.DepartmentResponse](t, resp)
	assert.Equal(t, "B2", updated.Name)
	assert.Nil(t, updated.ParentID)
}

func TestDeleteDepartment(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)
	b := ts.mustDept(t, "B", &a)
	c := ts.mustDept(t, "C", &b)
	e := ts.mustEmp(t, "Kim", b, "E-1")

	resp, err := deleteRequest(fmt.Sprintf("%s/departments/%d", ts.api, b))
	expectStatus(t, resp, err, http.StatusConflict)

	resp, err = deleteRequest(fmt.Sprintf("%s/departments/%d?reassign_to_department_id=%d", ts.api, b, b))
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = deleteRequest(fmt.Sprintf("%s/departments/%d?reassign_to_department_id=abc", ts.api, b))
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = deleteRequest(fmt.Sprintf("%s/departments/%d?reassign_to_department_id=%d", ts.api, b, a))
	expectStatus(t, resp, err, http.StatusNoContent)

	resp, err = http.Get(fmt.Sprintf("%s/departments/%d", ts.api, c))
	require.NoError(t, err)
	moved := decode[dto.DepartmentResponse](t, resp)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, a, *moved.ParentID)

	resp, err = http.Get(fmt.Sprintf("%s/employees/%d", ts.api, e))
	require.NoError(t, err)
	assert.Equal(t, a, decode[dto.EmployeeResponse](t, resp).DepartmentID)

	resp, err = deleteRequest(fmt.Sprintf("%s/departments/%d", ts.api, b))
	expectStatus(t, resp, err, http.StatusNotFound)
}

func TestEmployeeLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)
	id := ts.mustEmp(t, "Kim", a, "E-1")

	resp, err := http.Get(fmt.Sprintf("%s/employees/%d", ts.api, id))
	require.NoError(t, err)
	emp := decode[dto.EmployeeResponse](t, resp)
	assert.Equal(t, "2023-03-01", emp.HireDate)
	assert.Equal(t, "E-1", emp.EmployeeNumber)

	resp, err = putJSON(fmt.Sprintf("%s/employees/%d", ts.api, id), map[string]any{
		"name": "Kim Minjun", "department_id": a, "position": "Lead",
		"hire_date": "2021-07-15", "employee_number": "E-1",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lead", decode[dto.EmployeeResponse](t, resp).Position)

	resp, err = deleteRequest(fmt.Sprintf("%s/employees/%d", ts.api, id))
	expectStatus(t, resp, err, http.StatusNoContent)

	resp, err = http.Get(fmt.Sprintf("%s/employees/%d", ts.api, id))
	expectStatus(t, resp, err, http.StatusNotFound)
}

func TestCreateEmployee_Errors(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)
	ts.mustEmp(t, "Kim", a, "E-1")

	body := func(dept int64, date, number string) map[string]any {
		return map[string]any{
			"name": "Lee", "department_id": dept, "position": "Dev",
			"hire_date": date, "employee_number": number,
		}
	}

	resp, err := postJSON(ts.api+"/employees", body(a, "2023-13-01", "E-2"))
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = postJSON(ts.api+"/employees", body(999, "2023-01-01", "E-2"))
	expectStatus(t, resp, err, http.StatusNotFound)

	resp, err = postJSON(ts.api+"/employees", body(a, "2023-01-01", "E-1"))
	expectStatus(t, resp, err, http.StatusConflict)
}

func TestListEmployees_Paging(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)
	for i := 1; i <= 5; i++ {
		ts.mustEmp(t, "Emp", a, fmt.Sprintf("E-%d", i))
	}

	resp, err := http.Get(ts.api + "/employees?page=3&pageSize=2")
	require.NoError(t, err)
	page := decode[[]dto.EmployeeResponse](t, resp)
	require.Len(t, page, 1)
	assert.Equal(t, "E-5", page[0].EmployeeNumber)

	resp, err = http.Get(ts.api + "/employees?page=0")
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = http.Get(ts.api + "/employees?pageSize=abc")
	expectStatus(t, resp, err, http.StatusBadRequest)
}

func TestDepartmentEmployees(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)
	b := ts.mustDept(t, "B", &a)
	ts.mustEmp(t, "Ahn", a, "E-1")
	ts.mustEmp(t, "Baek", b, "E-2")

	url := fmt.Sprintf("%s/departments/%d/employees", ts.api, a)

	resp, err := http.Get(url)
	require.NoError(t, err)
	assert.Len(t, decode[[]dto.EmployeeResponse](t, resp), 2)

	resp, err = http.Get(url + "?strategy=collector")
	require.NoError(t, err)
	assert.Len(t, decode[[]dto.EmployeeResponse](t, resp), 2)

	resp, err = http.Get(url + "?recursive=false")
	require.NoError(t, err)
	assert.Len(t, decode[[]dto.EmployeeResponse](t, resp), 1)

	resp, err = http.Get(url + "?strategy=magic")
	expectStatus(t, resp, err, http.StatusBadRequest)
}

func TestEmployeesByDepartments(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)
	b := ts.mustDept(t, "B", nil)
	c := ts.mustDept(t, "C", nil)
	ts.mustEmp(t, "Ahn", a, "E-1")
	ts.mustEmp(t, "Baek", b, "E-2")
	ts.mustEmp(t, "Cho", c, "E-3")

	resp, err := postJSON(ts.api+"/employees/by-departments", []int64{a, c})
	require.NoError(t, err)
	emps := decode[[]dto.EmployeeResponse](t, resp)
	require.Len(t, emps, 2)
	assert.Equal(t, a, emps[0].DepartmentID)
	assert.Equal(t, c, emps[1].DepartmentID)

	resp, err = postJSON(ts.api+"/employees/by-departments", []int64{})
	require.NoError(t, err)
	assert.Empty(t, decode[[]dto.EmployeeResponse](t, resp))

	resp, err = postJSON(ts.api+"/employees/by-departments", []int64{-1})
	expectStatus(t, resp, err, http.StatusBadRequest)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.api + "/nowhere")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", decode[dto.ErrorResponse](t, resp).Error)

	req, err := http.NewRequest(http.MethodPatch, ts.api+"/departments/1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	expectStatus(t, resp, err, http.StatusMethodNotAllowed)
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.api+"/departments", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestBlankValuesRejected(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)

	resp, err := postJSON(ts.api+"/departments", map[string]any{"name": "   "})
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = putJSON(fmt.Sprintf("%s/departments/%d", ts.api, a), map[string]any{"name": " \t "})
	expectStatus(t, resp, err, http.StatusBadRequest)

	for _, field := range []string{"name", "position", "employee_number"} {
		body := map[string]any{
			"name": "Lee", "department_id": a, "position": "Dev",
			"hire_date": "2023-01-01", "employee_number": "E-9",
		}
		body[field] = "  "
		resp, err = postJSON(ts.api+"/employees", body)
		expectStatus(t, resp, err, http.StatusBadRequest)
	}

	resp, err = http.Get(ts.api + "/departments")
	require.NoError(t, err)
	assert.Len(t, decode[[]dto.DepartmentResponse](t, resp), 1)
}

func TestStrictBodies(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)

	resp, err := putJSON(fmt.Sprintf("%s/departments/%d", ts.api, a), map[string]any{"name": "A", "parentId": 5})
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = http.Post(ts.api+"/departments", "application/json", bytes.NewBufferString(`{"name":"B"} {"name":"C"}`))
	expectStatus(t, resp, err, http.StatusBadRequest)

	resp, err = http.Post(ts.api+"/employees/by-departments", "application/json", bytes.NewBufferString(`[1] [2]`))
	expectStatus(t, resp, err, http.StatusBadRequest)
}

func TestDeleteDepartment_SiblingNameClash(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.mustDept(t, "A", nil)
	ts.mustDept(t, "B", &a)
	x := ts.mustDept(t, "X", &a)
	ts.mustDept(t, "B", &x)

	resp, err := deleteRequest(fmt.Sprintf("%s/departments/%d", ts.api, x))
	expectStatus(t, resp, err, http.StatusConflict)

	resp, err = http.Get(fmt.Sprintf("%s/departments/%d", ts.api, x))
	expectStatus(t, resp, err, http.StatusOK)
}
