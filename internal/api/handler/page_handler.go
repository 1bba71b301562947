package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
)

// PageHandler serves the data behind the role-gated dashboard pages.
type PageHandler struct {
	dashboards  ports.DashboardService
	performance ports.PerformanceService
}

func NewPageHandler(dashboards ports.DashboardService, performance ports.PerformanceService) *PageHandler {
	return &PageHandler{dashboards: dashboards, performance: performance}
}

type pageResponse struct {
	Role string `json:"role"`
	Data any    `json:"data"`
}

func (h *PageHandler) page(c echo.Context, data any) error {
	role, err := ctxRole(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageResponse{Role: role, Data: data})
}

// AdminDashboard
//
// @Summary      Admin dashboard
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /admin/dashboard [get]
// @Security     BearerAuth
func (h *PageHandler) AdminDashboard(c echo.Context) error {
	data, err := h.dashboards.AdminDashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return h.page(c, data)
}

// Performance polls the backend performance endpoints once.
//
// @Summary      Performance snapshot
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /admin/performance [get]
// @Security     BearerAuth
func (h *PageHandler) Performance(c echo.Context) error {
	snap, err := h.performance.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	return h.page(c, snap)
}

// SlowOperations
//
// @Summary      Slow operations
// @Tags         pages
// @Produce      json
// @Param        limit  query     int  false  "Maximum entries"
// @Success      200    {object}  pageResponse
// @Router       /admin/performance/slow-operations [get]
// @Security     BearerAuth
func (h *PageHandler) SlowOperations(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return domain.NewValidationError(map[string]string{"limit": "limit must be a positive number"})
		}
		limit = n
	}
	data, err := h.performance.SlowOperations(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return h.page(c, data)
}

// LogSummary
//
// @Summary      Log summary
// @Tags         pages
// @Accept       json
// @Produce      json
// @Param        body  body      domain.LogSummaryRequest  false  "Window and level"
// @Success      200   {object}  pageResponse
// @Router       /admin/performance/log-summary [post]
// @Security     BearerAuth
func (h *PageHandler) LogSummary(c echo.Context) error {
	var req domain.LogSummaryRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	data, err := h.performance.LogSummary(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return h.page(c, data)
}

// StudentDashboard backs both the assistant and student dashboards.
//
// @Summary      Assistant dashboard
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /assist/dashboard [get]
// @Security     BearerAuth
func (h *PageHandler) StudentDashboard(c echo.Context) error {
	data, err := h.dashboards.StudentDashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return h.page(c, data)
}

// StudentSchedule
//
// @Summary      Assistant schedule
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /assist/schedule [get]
// @Security     BearerAuth
func (h *PageHandler) StudentSchedule(c echo.Context) error {
	sched, err := h.dashboards.StudentSchedule(c.Request().Context())
	if err != nil {
		return err
	}
	return h.page(c, sched)
}

// Courses
//
// @Summary      Course catalogue
// @Tags         pages
// @Produce      json
// @Success      200  {object}  pageResponse
// @Router       /student/courses [get]
// @Security     BearerAuth
func (h *PageHandler) Courses(c echo.Context) error {
	courses, err := h.dashboards.Courses(c.Request().Context())
	if err != nil {
		return err
	}
	if courses == nil {
		courses = []domain.Course{}
	}
	return h.page(c, courses)
}
