package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/orgchart-api/internal/middleware"
)

// Pinger reports database liveness for /health
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig controls where routes are mounted
type RouterConfig struct {
	BasePath       string
	AllowedOrigins []string
	// MetricsPath empty disables the Prometheus endpoint
	MetricsPath string
}

// Router wires the API routes
type Router struct {
	mux         *mux.Router
	cfg         RouterConfig
	db          Pinger
	logger      *slog.Logger
	deptHandler *DepartmentHandler
	empHandler  *EmployeeHandler
}

func NewRouter(
	cfg RouterConfig,
	deptHandler *DepartmentHandler,
	empHandler *EmployeeHandler,
	db Pinger,
	logger *slog.Logger,
) *Router {
	return &Router{
		mux:         mux.NewRouter(),
		cfg:         cfg,
		db:          db,
		logger:      logger,
		deptHandler: deptHandler,
		empHandler:  empHandler,
	}
}

// Setup registers all routes and wraps them with middleware
func (r *Router) Setup() http.Handler {
	r.mux.Use(middleware.Metrics)

	api := r.mux
	if r.cfg.BasePath != "" && r.cfg.BasePath != "/" {
		api = r.mux.PathPrefix(r.cfg.BasePath).Subrouter()
	}

	// static segments go before /departments/{id}
	api.HandleFunc("/departments", r.deptHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/departments", r.deptHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/departments/tree", r.deptHandler.Tree).Methods(http.MethodGet)
	api.HandleFunc("/departments/hierarchy", r.deptHandler.Hierarchy).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}", r.deptHandler.GetByID).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}", r.deptHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/departments/{id}", r.deptHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/departments/{id}/descendants", r.deptHandler.Descendants).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}/path", r.deptHandler.Path).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}/employees", r.deptHandler.Employees).Methods(http.MethodGet)

	api.HandleFunc("/employees", r.empHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/employees", r.empHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/employees/by-departments", r.empHandler.ByDepartments).Methods(http.MethodPost)
	api.HandleFunc("/employees/{id}", r.empHandler.GetByID).Methods(http.MethodGet)
	api.HandleFunc("/employees/{id}", r.empHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/employees/{id}", r.empHandler.Delete).Methods(http.MethodDelete)

	r.mux.HandleFunc("/health", r.health).Methods(http.MethodGet)
	if r.cfg.MetricsPath != "" {
		r.mux.Handle(r.cfg.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)
	}

	r.mux.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.deptHandler.respondError(w, http.StatusNotFound, "not found", "")
	})
	r.mux.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.deptHandler.respondError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	})

	handler := middleware.ContentType(r.mux)
	handler = middleware.Logger(r.logger)(handler)
	handler = middleware.Recoverer(r.logger)(handler)
	handler = middleware.RequestID(handler)

	c := cors.New(cors.Options{
		AllowedOrigins: r.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})

	return c.Handler(handler)
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		r.logger.Warn("health check failed", slog.Any("error", err))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
