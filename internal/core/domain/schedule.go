package domain

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

const (
	// MaxScheduleSpanDays bounds a single generation request.
	MaxScheduleSpanDays = 366
	// MaxAvailabilityQueries bounds a batch availability check.
	MaxAvailabilityQueries = 500
)

// GenerateScheduleRequest asks the backend to build a roster for a date range.
type GenerateScheduleRequest struct {
	StartDate time.Time      `json:"-"`
	EndDate   time.Time      `json:"-"`
	Options   map[string]any `json:"options,omitempty"`
}

// MarshalJSON renders the dates in DateLayout.
func (r GenerateScheduleRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StartDate string         `json:"start_date"`
		EndDate   string         `json:"end_date"`
		Options   map[string]any `json:"options,omitempty"`
	}{r.StartDate.Format(DateLayout), r.EndDate.Format(DateLayout), r.Options})
}

// Assignment places one staff member in one time slot.
type Assignment struct {
	Day      string `json:"day"       validate:"required"`
	TimeSlot string `json:"time_slot" validate:"required"`
	StaffID  string `json:"staff_id"  validate:"required"`
	Name     string `json:"name,omitempty"`
}

// SaveScheduleRequest replaces the assignments of a schedule.
type SaveScheduleRequest struct {
	ScheduleID  string       `json:"schedule_id,omitempty"`
	Assignments []Assignment `json:"assignments" validate:"dive"`
}

// ClearScheduleRequest removes assignments in a range; empty dates clear all.
type ClearScheduleRequest struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// PublishScheduleRequest makes a schedule visible to assistants.
type PublishScheduleRequest struct {
	ScheduleID string `json:"schedule_id" validate:"required"`
}

// AvailabilityQuery asks whether staff are free for one slot.
type AvailabilityQuery struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// StaffAvailability is one staff member's availability for a query.
type StaffAvailability struct {
	StaffID   string `json:"staff_id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// AvailabilityResult pairs a batch query with its answer.
type AvailabilityResult struct {
	Query AvailabilityQuery   `json:"query"`
	Staff []StaffAvailability `json:"staff"`
}

// Schedule is the generated or stored roster.
type Schedule struct {
	ID          string       `json:"id,omitempty"`
	StartDate   string       `json:"start_date,omitempty"`
	EndDate     string       `json:"end_date,omitempty"`
	Published   bool         `json:"is_published,omitempty"`
	Assignments []Assignment `json:"assignments,omitempty"`
}

// ScheduleSummary aggregates coverage for the admin dashboard.
type ScheduleSummary struct {
	TotalShifts    int            `json:"total_shifts"`
	AssignedShifts int            `json:"assigned_shifts"`
	HoursByStaff   map[string]int `json:"hours_by_staff,omitempty"`
}

// Course is an entry of the course catalogue.
type Course struct {
	ID   string `json:"id,omitempty"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// LogSummaryRequest asks the backend to aggregate its logs.
type LogSummaryRequest struct {
	Hours int    `json:"hours,omitempty" validate:"omitempty,gt=0"`
	Level string `json:"level,omitempty" validate:"omitempty,oneof=debug info warning error critical"`
}

// PerformanceSnapshot is one poll of the backend performance endpoints.
type PerformanceSnapshot struct {
	Metrics        json.RawMessage `json:"metrics"`
	Health         json.RawMessage `json:"health"`
	SlowOperations json.RawMessage `json:"slow_operations"`
	FetchedAt      time.Time       `json:"fetched_at"`
}
