package api

import (
	"fmt"
	"net/url"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/helpdesk-roster/rosterweb/docs"
	"github.com/helpdesk-roster/rosterweb/internal/api/handler"
	"github.com/helpdesk-roster/rosterweb/internal/api/middleware"
	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
	"github.com/helpdesk-roster/rosterweb/internal/core/session"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/config"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/tokenstore"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Log      zerolog.Logger
	Verifier middleware.Verifier

	// ClientFor builds a backend client bound to a request-scoped token store.
	ClientFor     handler.ClientFor
	Schedules     ports.ScheduleService
	Dashboards    ports.DashboardService
	Performance   ports.PerformanceService
	Registrations ports.RegistrationService
	Drafts        ports.DraftService
	Health        map[string]handler.Pinger

	// Metrics replaces the default Prometheus registry when set.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	cfg := d.Config
	backend, err := url.Parse(cfg.API.BackendOrigin)
	if err != nil || backend.Host == "" {
		return nil, fmt.Errorf("router: invalid backend origin %q", cfg.API.BackendOrigin)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	cookies := tokenstore.CookieOptions{Name: cfg.Auth.CookieName, Secure: cfg.IsProduction()}
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, cookies)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Metrics != nil {
		registerer, gatherer = d.Metrics, d.Metrics
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "rosterweb_gateway",
		Registerer: registerer,
	}))
	e.Use(middleware.Guard(middleware.GuardConfig{
		Verifier:         d.Verifier,
		CookieName:       cfg.Auth.CookieName,
		LoginPath:        cfg.Auth.LoginPath,
		UnauthorizedPath: cfg.Auth.UnauthorizedPath,
		Mock:             cfg.MockAuth(),
		DevRole:          cfg.Auth.DevRole,
		Log:              d.Log,
	}))

	// --- Backend passthrough ---
	e.Group("/api",
		middleware.BearerFromCookie(cfg.Auth.CookieName),
		echomiddleware.ProxyWithConfig(echomiddleware.ProxyConfig{
			Balancer: echomiddleware.NewRoundRobinBalancer([]*echomiddleware.ProxyTarget{{URL: backend}}),
		}),
	)

	// --- Session ---
	sessionHandler := handler.NewSessionHandler(d.ClientFor, d.Dashboards, cookies,
		session.Options{Mock: cfg.MockAuth(), DevRole: cfg.Auth.DevRole}, d.Log)

	sess := e.Group("/session", middleware.ForwardToken(cfg.Auth.CookieName))
	sess.POST("/login", sessionHandler.Login)
	sess.POST("/register", sessionHandler.Register)
	sess.POST("/logout", sessionHandler.Logout)
	sess.GET("/me", sessionHandler.Me)
	sess.PUT("/me", sessionHandler.UpdateMe)

	// --- Staff registration ---
	registrationHandler := handler.NewRegistrationHandler(d.Registrations, d.Drafts, d.Log)
	e.POST("/register", registrationHandler.Submit)
	e.POST("/register/drafts", registrationHandler.CreateDraft)
	e.GET("/register/drafts/:id", registrationHandler.GetDraft)
	e.PUT("/register/drafts/:id", registrationHandler.UpdateDraft)
	e.DELETE("/register/drafts/:id", registrationHandler.DeleteDraft)

	// --- Role-gated pages ---
	pageHandler := handler.NewPageHandler(d.Dashboards, d.Performance)
	scheduleHandler := handler.NewScheduleHandler(d.Schedules)

	admin := e.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/dashboard", pageHandler.AdminDashboard)
	admin.GET("/performance", pageHandler.Performance)
	admin.GET("/performance/slow-operations", pageHandler.SlowOperations)
	admin.POST("/performance/log-summary", pageHandler.LogSummary)
	admin.POST("/schedule/generate", scheduleHandler.Generate)
	admin.POST("/schedule/save", scheduleHandler.Save)
	admin.POST("/schedule/clear", scheduleHandler.Clear)
	admin.POST("/schedule/publish", scheduleHandler.Publish)
	admin.GET("/schedule/staff-availability", scheduleHandler.Availability)
	admin.POST("/schedule/staff-availability/batch", scheduleHandler.BatchAvailability)
	admin.GET("/schedule/summary", scheduleHandler.Summary)
	admin.GET("/schedule/export/pdf", scheduleHandler.ExportPDF)

	assist := e.Group("/assist", middleware.RequireRole(domain.RoleAssistant))
	assist.GET("/dashboard", pageHandler.StudentDashboard)
	assist.GET("/schedule", pageHandler.StudentSchedule)

	student := e.Group("/student", middleware.RequireRole(domain.RoleAssistant))
	student.GET("/dashboard", pageHandler.StudentDashboard)
	student.GET("/schedule", pageHandler.StudentSchedule)
	student.GET("/courses", pageHandler.Courses)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}
