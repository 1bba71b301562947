package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
)

// ScheduleHandler exposes the admin schedule operations.
type ScheduleHandler struct {
	svc ports.ScheduleService
}

func NewScheduleHandler(svc ports.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

type generateRequest struct {
	StartDate string         `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string         `json:"end_date"   validate:"required,datetime=2006-01-02"`
	Options   map[string]any `json:"options"`
}

type batchAvailabilityRequest struct {
	Queries []domain.AvailabilityQuery `json:"queries"`
}

// Generate builds a roster for a date range.
//
// @Summary      Generate schedule
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        body  body      generateRequest  true  "Date range"
// @Success      200   {object}  domain.Schedule
// @Failure      400   {object}  map[string]string
// @Router       /admin/schedule/generate [post]
// @Security     BearerAuth
func (h *ScheduleHandler) Generate(c echo.Context) error {
	var req generateRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	start, _ := time.Parse(domain.DateLayout, req.StartDate)
	end, _ := time.Parse(domain.DateLayout, req.EndDate)

	sched, err := h.svc.Generate(c.Request().Context(), domain.GenerateScheduleRequest{
		StartDate: start,
		EndDate:   end,
		Options:   req.Options,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sched)
}

// Save replaces the assignments of a schedule.
//
// @Summary      Save schedule
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        body  body      domain.SaveScheduleRequest  true  "Assignments"
// @Success      200   {object}  domain.Schedule
// @Failure      400   {object}  map[string]string
// @Router       /admin/schedule/save [post]
// @Security     BearerAuth
func (h *ScheduleHandler) Save(c echo.Context) error {
	var req domain.SaveScheduleRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	sched, err := h.svc.Save(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sched)
}

// Clear removes assignments in a range.
//
// @Summary      Clear schedule
// @Tags         schedule
// @Accept       json
// @Param        body  body  domain.ClearScheduleRequest  false  "Range"
// @Success      204
// @Router       /admin/schedule/clear [post]
// @Security     BearerAuth
func (h *ScheduleHandler) Clear(c echo.Context) error {
	var req domain.ClearScheduleRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := h.svc.Clear(c.Request().Context(), req); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Publish makes a schedule visible to assistants.
//
// @Summary      Publish schedule
// @Tags         schedule
// @Accept       json
// @Param        body  body  domain.PublishScheduleRequest  true  "Schedule"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Router       /admin/schedule/publish [post]
// @Security     BearerAuth
func (h *ScheduleHandler) Publish(c echo.Context) error {
	var req domain.PublishScheduleRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := h.svc.Publish(c.Request().Context(), req); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Availability lists staff availability for one slot.
//
// @Summary      Staff availability
// @Tags         schedule
// @Produce      json
// @Param        day         query     string  true  "Day"
// @Param        start_time  query     string  true  "Start time"
// @Param        end_time    query     string  true  "End time"
// @Success      200         {array}   domain.StaffAvailability
// @Router       /admin/schedule/staff-availability [get]
// @Security     BearerAuth
func (h *ScheduleHandler) Availability(c echo.Context) error {
	staff, err := h.svc.StaffAvailability(c.Request().Context(), domain.AvailabilityQuery{
		Day:       c.QueryParam("day"),
		StartTime: c.QueryParam("start_time"),
		EndTime:   c.QueryParam("end_time"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, staff)
}

// BatchAvailability answers several availability queries in one call.
//
// @Summary      Batch staff availability
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        body  body      batchAvailabilityRequest  true  "Queries"
// @Success      200   {array}   domain.AvailabilityResult
// @Failure      400   {object}  map[string]string
// @Router       /admin/schedule/staff-availability/batch [post]
// @Security     BearerAuth
func (h *ScheduleHandler) BatchAvailability(c echo.Context) error {
	var req batchAvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	results, err := h.svc.BatchCheckAvailability(c.Request().Context(), req.Queries)
	if err != nil {
		return err
	}
	if results == nil {
		results = []domain.AvailabilityResult{}
	}
	return c.JSON(http.StatusOK, results)
}

// Summary returns coverage figures for a schedule.
//
// @Summary      Schedule summary
// @Tags         schedule
// @Produce      json
// @Param        schedule_id  query     string  false  "Schedule"
// @Success      200          {object}  domain.ScheduleSummary
// @Router       /admin/schedule/summary [get]
// @Security     BearerAuth
func (h *ScheduleHandler) Summary(c echo.Context) error {
	sum, err := h.svc.Summary(c.Request().Context(), c.QueryParam("schedule_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sum)
}

// ExportPDF downloads the schedule as a PDF.
//
// @Summary      Export schedule
// @Tags         schedule
// @Produce      application/pdf
// @Param        schedule_id  query  string  false  "Schedule"
// @Success      200
// @Router       /admin/schedule/export/pdf [get]
// @Security     BearerAuth
func (h *ScheduleHandler) ExportPDF(c echo.Context) error {
	blob, err := h.svc.ExportPDF(c.Request().Context(), c.QueryParam("schedule_id"))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="schedule.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", blob)
}
