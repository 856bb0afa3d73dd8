package detector

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronosentry/chronosentry/pkg/models"
)

// Friday, so the lookback window ends on a work day.
var testNow = time.Date(2025, 7, 18, 12, 0, 0, 0, time.UTC)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()

	config := DefaultConfig()
	config.Now = func() time.Time { return testNow }

	return New(config, slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func entry(id, employeeID, projectID, description string, start, end time.Time) models.TimeEntry {
	return models.TimeEntry{
		ID:          id,
		EmployeeID:  employeeID,
		ProjectID:   projectID,
		Description: description,
		StartTime:   start,
		EndTime:     end,
		Billable:    true,
	}
}

func at(day int, hour, minute int) time.Time {
	return time.Date(2025, 7, day, hour, minute, 0, 0, time.UTC)
}

func byType(anomalies []models.Anomaly, anomalyType models.AnomalyType) []models.Anomaly {
	var filtered []models.Anomaly

	for _, a := range anomalies {
		if a.Type == anomalyType {
			filtered = append(filtered, a)
		}
	}

	return filtered
}

func TestDetectAnomalies_Deterministic(t *testing.T) {
	d := newTestDetector(t)

	entries := []models.TimeEntry{
		entry("e1", "emp-1", "proj-1", "work", at(14, 9, 0), at(14, 17, 0)),
		entry("e2", "emp-1", "", "", at(15, 9, 0), at(15, 23, 0)),
		entry("e3", "emp-2", "proj-1", "work", at(15, 9, 0), at(15, 12, 0)),
		entry("e4", "emp-2", "proj-1", "more work", at(15, 11, 0), at(15, 14, 0)),
	}
	employees := []models.Employee{
		{ID: "emp-1", Name: "A", Status: models.EmployeeActive},
		{ID: "emp-2", Name: "B", Status: models.EmployeeActive},
	}

	first := d.DetectAnomalies(context.Background(), entries, employees)
	second := d.DetectAnomalies(context.Background(), entries, employees)

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, first.Data, second.Data)
}

func TestDetectMissingEntries_SkipsWeekends(t *testing.T) {
	d := newTestDetector(t)

	result := d.DetectAnomalies(context.Background(), nil, []models.Employee{
		{ID: "emp-1", Name: "A", Status: models.EmployeeActive},
	})
	require.True(t, result.Success)

	missing := byType(result.Data, models.AnomalyMissingEntry)
	require.NotEmpty(t, missing)

	// 14 calendar days ending 2025-07-18 contain 10 work days.
	assert.Len(t, missing, 10)

	for _, anomaly := range missing {
		date, err := time.Parse("2006-01-02", anomaly.Date)
		require.NoError(t, err)
		assert.NotEqual(t, time.Saturday, date.Weekday())
		assert.NotEqual(t, time.Sunday, date.Weekday())
		assert.Equal(t, models.SeverityMedium, anomaly.Severity)
		assert.Equal(t, "missing-emp-1-"+anomaly.Date, anomaly.ID)
	}
}

func TestDetectMissingEntries_IgnoresInactiveEmployees(t *testing.T) {
	d := newTestDetector(t)

	result := d.DetectAnomalies(context.Background(), nil, []models.Employee{
		{ID: "emp-gone", Name: "Former", Status: models.EmployeeInactive},
	})
	require.True(t, result.Success)
	assert.Empty(t, byType(result.Data, models.AnomalyMissingEntry))
}

func TestDetectOvertime_StrictThreshold(t *testing.T) {
	d := newTestDetector(t)

	// Exactly 12 hours: not flagged.
	exactly := []models.TimeEntry{
		entry("e1", "emp-1", "proj-1", "shift", at(14, 8, 0), at(14, 20, 0)),
	}
	result := d.DetectAnomalies(context.Background(), exactly, nil)
	require.True(t, result.Success)
	assert.Empty(t, byType(result.Data, models.AnomalyOvertime))

	// 12 hours and 36 seconds (+0.01h): flagged.
	over := []models.TimeEntry{
		entry("e1", "emp-1", "proj-1", "shift", at(14, 8, 0), at(14, 20, 0).Add(36*time.Second)),
	}
	result = d.DetectAnomalies(context.Background(), over, nil)
	require.True(t, result.Success)

	overtime := byType(result.Data, models.AnomalyOvertime)
	require.Len(t, overtime, 1)
	assert.Equal(t, "overtime-emp-1-2025-07-14", overtime[0].ID)
	assert.Equal(t, models.SeverityHigh, overtime[0].Severity)
	assert.Equal(t, []string{"e1"}, overtime[0].RelatedEntries)
}

func TestDetectOvertime_SumsAcrossEntries(t *testing.T) {
	d := newTestDetector(t)

	entries := []models.TimeEntry{
		entry("e1", "emp-1", "proj-1", "am", at(14, 6, 0), at(14, 13, 0)),
		entry("e2", "emp-1", "proj-2", "pm", at(14, 14, 0), at(14, 21, 0)),
	}

	result := d.DetectAnomalies(context.Background(), entries, nil)
	require.True(t, result.Success)

	overtime := byType(result.Data, models.AnomalyOvertime)
	require.Len(t, overtime, 1)
	assert.Equal(t, []string{"e1", "e2"}, overtime[0].RelatedEntries)
	assert.Contains(t, overtime[0].Description, "14.0 hours")
}

func TestDetectDuplicates_OneAnomalyPerGroup(t *testing.T) {
	d := newTestDetector(t)

	// Three mutually overlapping entries in one (employee, project, date)
	// group must yield exactly one duplicate anomaly.
	entries := []models.TimeEntry{
		entry("e1", "emp-1", "proj-1", "a", at(14, 9, 0), at(14, 12, 0)),
		entry("e2", "emp-1", "proj-1", "b", at(14, 10, 0), at(14, 13, 0)),
		entry("e3", "emp-1", "proj-1", "c", at(14, 11, 0), at(14, 14, 0)),
	}

	result := d.DetectAnomalies(context.Background(), entries, nil)
	require.True(t, result.Success)

	duplicates := byType(result.Data, models.AnomalyDuplicate)
	require.Len(t, duplicates, 1)
	assert.Equal(t, "duplicate-emp-1-2025-07-14-e1-e2", duplicates[0].ID)
	assert.Equal(t, []string{"e1", "e2"}, duplicates[0].RelatedEntries)
	assert.Equal(t, models.SeverityLow, duplicates[0].Severity)
}

func TestDetectDuplicates_DifferentProjectsDoNotOverlap(t *testing.T) {
	d := newTestDetector(t)

	entries := []models.TimeEntry{
		entry("e1", "emp-1", "proj-1", "a", at(14, 9, 0), at(14, 12, 0)),
		entry("e2", "emp-1", "proj-2", "b", at(14, 10, 0), at(14, 13, 0)),
	}

	result := d.DetectAnomalies(context.Background(), entries, nil)
	require.True(t, result.Success)
	assert.Empty(t, byType(result.Data, models.AnomalyDuplicate))
}

func TestDetectPolicyViolations_BothChecksPerEntry(t *testing.T) {
	d := newTestDetector(t)

	entries := []models.TimeEntry{
		entry("e1", "emp-1", "", "", at(14, 9, 0), at(14, 17, 0)),
	}

	result := d.DetectAnomalies(context.Background(), entries, nil)
	require.True(t, result.Success)

	violations := byType(result.Data, models.AnomalyPolicyViolation)
	require.Len(t, violations, 2)

	assert.Equal(t, "policy-emp-1-2025-07-14-e1", violations[0].ID)
	assert.Equal(t, models.SeverityMedium, violations[0].Severity)
	assert.Contains(t, violations[0].Description, "project code")

	assert.Equal(t, "policy-desc-emp-1-2025-07-14-e1", violations[1].ID)
	assert.Equal(t, models.SeverityLow, violations[1].Severity)
	assert.Contains(t, violations[1].Description, "description")
}

func TestDetectPolicyViolations_Disabled(t *testing.T) {
	config := DefaultConfig()
	config.Now = func() time.Time { return testNow }
	config.RequireProjectCode = false
	config.RequireDescription = false

	d := New(config, slog.New(slog.NewTextHandler(os.Stdout, nil)))

	entries := []models.TimeEntry{
		entry("e1", "emp-1", "", "", at(14, 9, 0), at(14, 17, 0)),
	}

	result := d.DetectAnomalies(context.Background(), entries, nil)
	require.True(t, result.Success)
	assert.Empty(t, byType(result.Data, models.AnomalyPolicyViolation))
}

func TestDetectSuspiciousPatterns_IdenticalDailyTotals(t *testing.T) {
	d := newTestDetector(t)

	// Five work days, exactly 8 hours each.
	var entries []models.TimeEntry
	for i, day := range []int{7, 8, 9, 10, 11} {
		entries = append(entries, entry(
			"e"+string(rune('1'+i)), "emp-1", "proj-1", "work",
			at(day, 9, 0), at(day, 17, 0),
		))
	}

	result := d.DetectAnomalies(context.Background(), entries, nil)
	require.True(t, result.Success)

	patterns := byType(result.Data, models.AnomalySuspiciousPattern)
	require.Len(t, patterns, 1)
	assert.Equal(t, "pattern-emp-1-2025-07-07", patterns[0].ID)
	assert.Len(t, patterns[0].RelatedEntries, 5)
	assert.Contains(t, patterns[0].Description, "Exactly 8 hours")
}

func TestDetectSuspiciousPatterns_RequiresFiveDays(t *testing.T) {
	d := newTestDetector(t)

	var entries []models.TimeEntry
	for i, day := range []int{7, 8, 9, 10} {
		entries = append(entries, entry(
			"e"+string(rune('1'+i)), "emp-1", "proj-1", "work",
			at(day, 9, 0), at(day, 17, 0),
		))
	}

	result := d.DetectAnomalies(context.Background(), entries, nil)
	require.True(t, result.Success)
	assert.Empty(t, byType(result.Data, models.AnomalySuspiciousPattern))
}

func TestDetectSuspiciousPatterns_VaryingTotals(t *testing.T) {
	d := newTestDetector(t)

	var entries []models.TimeEntry
	for i, day := range []int{7, 8, 9, 10, 11} {
		end := at(day, 17, 0)
		if i == 4 {
			end = at(day, 17, 30)
		}

		entries = append(entries, entry(
			"e"+string(rune('1'+i)), "emp-1", "proj-1", "work",
			at(day, 9, 0), end,
		))
	}

	result := d.DetectAnomalies(context.Background(), entries, nil)
	require.True(t, result.Success)
	assert.Empty(t, byType(result.Data, models.AnomalySuspiciousPattern))
}

func TestDetectAnomalies_SkipsEntriesWithoutTimestamps(t *testing.T) {
	d := newTestDetector(t)

	entries := []models.TimeEntry{
		{ID: "broken", EmployeeID: "emp-1", ProjectID: "proj-1", Description: "bad clock"},
		entry("e1", "emp-1", "proj-1", "work", at(14, 9, 0), at(14, 17, 0)),
	}

	result := d.DetectAnomalies(context.Background(), entries, nil)
	require.True(t, result.Success)

	for _, anomaly := range result.Data {
		assert.NotContains(t, anomaly.RelatedEntries, "broken")
	}
}
