// Package collector fetches raw timesheet data from the external source and
// normalizes it into the canonical model. Source failures are recovered here
// into failure Results; the orchestrator decides whether they abort the run.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chronosentry/chronosentry/pkg/clockify"
	"github.com/chronosentry/chronosentry/pkg/models"
)

type Collector struct {
	client clockify.Client
	logger *slog.Logger
}

func New(client clockify.Client, logger *slog.Logger) *Collector {
	return &Collector{
		client: client,
		logger: logger.With("module", "collector"),
	}
}

// CollectTimesheets fetches and normalizes time entries for the period.
// Entries with missing optional fields (projectId, description) are kept as
// is: those gaps are exactly what the policy checks downstream need to see.
func (c *Collector) CollectTimesheets(ctx context.Context, startDate, endDate, workspaceID string) models.Result[[]models.TimeEntry] {
	raw, err := c.client.FetchTimeEntries(ctx, workspaceID, startDate, endDate)
	if err != nil {
		c.logger.ErrorContext(ctx, "Time entry fetch failed", "workspace_id", workspaceID, "error", err)

		return models.Fail[[]models.TimeEntry](fmt.Sprintf("Failed to collect timesheet data: %v", err))
	}

	entries := make([]models.TimeEntry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, c.normalize(r))
	}

	c.logger.InfoContext(ctx, "Collected time entries",
		"workspace_id", workspaceID,
		"start_date", startDate,
		"end_date", endDate,
		"count", len(entries),
	)

	return models.OK(entries, fmt.Sprintf(
		"Successfully collected %d time entries for period %s to %s", len(entries), startDate, endDate))
}

// EmployeeData fetches the employee roster for the workspace.
func (c *Collector) EmployeeData(ctx context.Context, workspaceID string) models.Result[[]models.Employee] {
	raw, err := c.client.FetchUsers(ctx, workspaceID)
	if err != nil {
		c.logger.ErrorContext(ctx, "Employee fetch failed", "workspace_id", workspaceID, "error", err)

		return models.Fail[[]models.Employee](fmt.Sprintf("Failed to retrieve employee data: %v", err))
	}

	employees := make([]models.Employee, 0, len(raw))
	for _, u := range raw {
		employees = append(employees, models.Employee{
			ID:     u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Status: models.EmployeeStatus(u.Status),
		})
	}

	return models.OK(employees, fmt.Sprintf("Successfully retrieved data for %d employees", len(employees)))
}

// normalize maps source field names onto the canonical shape. Timestamps
// that fail to parse are left zero; the detector skips such entries instead
// of aborting the run.
func (c *Collector) normalize(raw clockify.RawTimeEntry) models.TimeEntry {
	entry := models.TimeEntry{
		ID:          raw.ID,
		EmployeeID:  raw.UserID,
		ProjectID:   raw.ProjectID,
		TaskID:      raw.TaskID,
		Description: raw.Description,
		Duration:    raw.TimeInterval.Duration,
		Billable:    raw.Billable,
		Tags:        raw.Tags,
	}

	start, err := time.Parse(time.RFC3339, raw.TimeInterval.Start)
	if err != nil {
		c.logger.Warn("Unparseable start time, entry will be skipped by detection",
			"entry_id", raw.ID, "start", raw.TimeInterval.Start)
	} else {
		entry.StartTime = start
	}

	end, err := time.Parse(time.RFC3339, raw.TimeInterval.End)
	if err != nil {
		c.logger.Warn("Unparseable end time, entry will be skipped by detection",
			"entry_id", raw.ID, "end", raw.TimeInterval.End)
	} else {
		entry.EndTime = end
	}

	return entry
}
