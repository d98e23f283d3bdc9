// Package client is a typed HTTP client for the orgchart API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orgchart-api/internal/dto"
	"github.com/orgchart-api/internal/middleware"
)

// ErrRequestFailed is returned for every response outside the 2xx range
var ErrRequestFailed = errors.New("request failed")

// RequestError carries the failed operation and the server's answer
type RequestError struct {
	Op      string
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: request failed with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: request failed with status %d: %s", e.Op, e.Status, e.Message)
}

func (e *RequestError) Unwrap() error {
	return ErrRequestFailed
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client with a 30s timeout
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New returns a client for the API mounted at baseURL, e.g. http://localhost:8080/api
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, reqBody, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.RequestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := &RequestError{Op: op, Status: resp.StatusCode}
		var apiErr dto.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil {
			reqErr.Message = apiErr.Error
		}
		return reqErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func departmentPath(id int64, suffix string) string {
	return "/departments/" + strconv.FormatInt(id, 10) + suffix
}

func employeePath(id int64) string {
	return "/employees/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListDepartments(ctx context.Context) ([]dto.DepartmentResponse, error) {
	var out []dto.DepartmentResponse
	err := c.do(ctx, "list departments", http.MethodGet, "/departments", nil, nil, &out)
	return out, err
}

func (c *Client) CreateDepartment(ctx context.Context, req dto.CreateDepartmentRequest) (*dto.DepartmentResponse, error) {
	var out dto.DepartmentResponse
	if err := c.do(ctx, "create department", http.MethodPost, "/departments", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDepartment(ctx context.Context, id int64) (*dto.DepartmentResponse, error) {
	var out dto.DepartmentResponse
	if err := c.do(ctx, "get department", http.MethodGet, departmentPath(id, ""), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDepartment(ctx context.Context, id int64, req dto.UpdateDepartmentRequest) (*dto.DepartmentResponse, error) {
	var out dto.DepartmentResponse
	if err := c.do(ctx, "update department", http.MethodPut, departmentPath(id, ""), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDepartment removes a department, moving its employees to reassignTo when set
func (c *Client) DeleteDepartment(ctx context.Context, id int64, reassignTo *int64) error {
	var query url.Values
	if reassignTo != nil {
		query = url.Values{"reassign_to_department_id": {strconv.FormatInt(*reassignTo, 10)}}
	}
	return c.do(ctx, "delete department", http.MethodDelete, departmentPath(id, ""), query, nil, nil)
}

// DepartmentTree runs the server-side subtree query rooted at parentID
func (c *Client) DepartmentTree(ctx context.Context, parentID int64) ([]dto.DepartmentTreeRowResponse, error) {
	var out []dto.DepartmentTreeRowResponse
	query := url.Values{"parentId": {strconv.FormatInt(parentID, 10)}}
	err := c.do(ctx, "department tree", http.MethodGet, "/departments/tree", query, nil, &out)
	return out, err
}

func (c *Client) Hierarchy(ctx context.Context, includeEmployees bool) ([]dto.DepartmentNodeResponse, error) {
	var out []dto.DepartmentNodeResponse
	query := url.Values{"include_employees": {strconv.FormatBool(includeEmployees)}}
	err := c.do(ctx, "department hierarchy", http.MethodGet, "/departments/hierarchy", query, nil, &out)
	return out, err
}

func (c *Client) Descendants(ctx context.Context, id int64) ([]int64, error) {
	var out []int64
	err := c.do(ctx, "department descendants", http.MethodGet, departmentPath(id, "/descendants"), nil, nil, &out)
	return out, err
}

func (c *Client) Path(ctx context.Context, id int64) ([]int64, error) {
	var out []int64
	err := c.do(ctx, "department path", http.MethodGet, departmentPath(id, "/path"), nil, nil, &out)
	return out, err
}

func (c *Client) DepartmentEmployees(ctx context.Context, id int64, recursive bool, strategy string) ([]dto.EmployeeResponse, error) {
	var out []dto.EmployeeResponse
	query := url.Values{"recursive": {strconv.FormatBool(recursive)}}
	if strategy != "" {
		query.Set("strategy", strategy)
	}
	err := c.do(ctx, "department employees", http.MethodGet, departmentPath(id, "/employees"), query, nil, &out)
	return out, err
}

func (c *Client) ListEmployees(ctx context.Context, page, pageSize int) ([]dto.EmployeeResponse, error) {
	var out []dto.EmployeeResponse
	query := url.Values{
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	err := c.do(ctx, "list employees", http.MethodGet, "/employees", query, nil, &out)
	return out, err
}

func (c *Client) CreateEmployee(ctx context.Context, req dto.EmployeeRequest) (*dto.EmployeeResponse, error) {
	var out dto.EmployeeResponse
	if err := c.do(ctx, "create employee", http.MethodPost, "/employees", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetEmployee(ctx context.Context, id int64) (*dto.EmployeeResponse, error) {
	var out dto.EmployeeResponse
	if err := c.do(ctx, "get employee", http.MethodGet, employeePath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEmployee(ctx context.Context, id int64, req dto.EmployeeRequest) (*dto.EmployeeResponse, error) {
	var out dto.EmployeeResponse
	if err := c.do(ctx, "update employee", http.MethodPut, employeePath(id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEmployee(ctx context.Context, id int64) error {
	return c.do(ctx, "delete employee", http.MethodDelete, employeePath(id), nil, nil, nil)
}

// EmployeesByDepartments fetches the employees of an explicit set of departments
func (c *Client) EmployeesByDepartments(ctx context.Context, departmentIDs []int64) ([]dto.EmployeeResponse, error) {
	if departmentIDs == nil {
		departmentIDs = []int64{}
	}
	var out []dto.EmployeeResponse
	err := c.do(ctx, "employees by departments", http.MethodPost, "/employees/by-departments", nil, departmentIDs, &out)
	return out, err
}
