// Package models defines the canonical data model for the timesheet anomaly
// review pipeline. JSON field names follow the data contract consumed by the
// review console, which is camelCase throughout.
package models

import "time"

// TimeEntry is one recorded work interval, normalized from the external
// time-tracking source. Entries are immutable once collected; downstream
// stages only read them.
type TimeEntry struct {
	ID          string    `json:"id"         validate:"required"`
	EmployeeID  string    `json:"employeeId" validate:"required"`
	ProjectID   string    `json:"projectId,omitempty"`
	TaskID      string    `json:"taskId,omitempty"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Duration    string    `json:"duration,omitempty"` // informational, as reported by the source
	Billable    bool      `json:"billable"`
	Tags        []string  `json:"tags,omitempty"`
}

// Hours returns the entry length in hours. Entries with missing timestamps
// report zero; the detector skips them during grouping.
func (e TimeEntry) Hours() float64 {
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return 0
	}

	return e.EndTime.Sub(e.StartTime).Hours()
}

// Overlaps reports whether two entries share any part of their interval.
func (e TimeEntry) Overlaps(other TimeEntry) bool {
	return !e.StartTime.After(other.EndTime) && !other.StartTime.After(e.EndTime)
}

// EmployeeStatus represents the roster state of an employee.
type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

// Employee is a roster record supplied by the collector, read-only to
// downstream stages.
type Employee struct {
	ID     string         `json:"id"    validate:"required"`
	Name   string         `json:"name"  validate:"required"`
	Email  string         `json:"email"`
	Status EmployeeStatus `json:"status"`
}

func (e Employee) Active() bool {
	return e.Status == EmployeeActive
}
