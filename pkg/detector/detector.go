// Package detector scans normalized time entries for deviations from
// company policy. Five independent passes share a read-only grouping of
// entries by (employee, calendar date) and run concurrently, each appending
// to its own result slot; slots are concatenated in pass order so detection
// output is deterministic for identical input.
package detector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/chronosentry/chronosentry/pkg/models"
)

const (
	defaultMaxHoursPerDay = 12
	defaultLookbackDays   = 14
	minPatternDays        = 5

	dateLayout = "2006-01-02"
)

// Config holds the company policy knobs detection runs against.
type Config struct {
	// MaxHoursPerDay is the overtime threshold; totals strictly above it
	// are flagged.
	MaxHoursPerDay float64
	// RequireProjectCode flags entries without a project id.
	RequireProjectCode bool
	// RequireDescription flags entries without a description.
	RequireDescription bool
	// LookbackDays is the missing-entry window in calendar days ending at
	// "today". Weekend dates inside the window are never flagged.
	LookbackDays int
	// Now supplies the clock for the lookback window; nil means time.Now.
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		MaxHoursPerDay:     defaultMaxHoursPerDay,
		RequireProjectCode: true,
		RequireDescription: true,
		LookbackDays:       defaultLookbackDays,
	}
}

type Detector struct {
	config Config
	logger *slog.Logger
}

func New(config Config, logger *slog.Logger) *Detector {
	if config.MaxHoursPerDay <= 0 {
		config.MaxHoursPerDay = defaultMaxHoursPerDay
	}

	if config.LookbackDays <= 0 {
		config.LookbackDays = defaultLookbackDays
	}

	if config.Now == nil {
		config.Now = time.Now
	}

	return &Detector{
		config: config,
		logger: logger.With("module", "detector"),
	}
}

// dayGroup collects one employee's entries for one calendar date.
type dayGroup struct {
	employeeID string
	date       string
	entries    []models.TimeEntry
}

// DetectAnomalies runs all five detection passes over the entries and
// roster. Passes are independent; their outputs are concatenated with no
// cross-pass deduplication, so one entry may appear in several anomalies of
// different types.
func (d *Detector) DetectAnomalies(ctx context.Context, entries []models.TimeEntry, employees []models.Employee) models.Result[[]models.Anomaly] {
	groups := d.groupByEmployeeAndDate(entries)

	var (
		wg     sync.WaitGroup
		passes [5][]models.Anomaly
	)

	wg.Add(5)

	go func() { defer wg.Done(); passes[0] = d.detectMissingEntries(groups, employees) }()
	go func() { defer wg.Done(); passes[1] = d.detectOvertime(groups) }()
	go func() { defer wg.Done(); passes[2] = d.detectDuplicates(entries) }()
	go func() { defer wg.Done(); passes[3] = d.detectPolicyViolations(entries) }()
	go func() { defer wg.Done(); passes[4] = d.detectSuspiciousPatterns(groups) }()

	wg.Wait()

	anomalies := make([]models.Anomaly, 0)
	for _, pass := range passes {
		anomalies = append(anomalies, pass...)
	}

	d.logger.InfoContext(ctx, "Detection finished",
		"entries", len(entries),
		"employees", len(employees),
		"anomalies", len(anomalies),
	)

	return models.OK(anomalies, fmt.Sprintf("Detected %d anomalies in timesheet data", len(anomalies)))
}

// groupByEmployeeAndDate buckets entries under "{employeeId}-{date}" keys.
// Entries with missing timestamps are skipped here and never produce
// anomalies; partial data must not block detection for the rest of the set.
func (d *Detector) groupByEmployeeAndDate(entries []models.TimeEntry) map[string]*dayGroup {
	grouped := make(map[string]*dayGroup)

	for _, entry := range entries {
		if entry.StartTime.IsZero() || entry.EndTime.IsZero() {
			d.logger.Debug("Skipping entry without parseable timestamps", "entry_id", entry.ID)

			continue
		}

		date := entry.StartTime.UTC().Format(dateLayout)
		key := entry.EmployeeID + "-" + date

		group, ok := grouped[key]
		if !ok {
			group = &dayGroup{employeeID: entry.EmployeeID, date: date}
			grouped[key] = group
		}

		group.entries = append(group.entries, entry)
	}

	return grouped
}

// detectMissingEntries flags (active employee, work day) pairs with no
// entries inside the lookback window. Weekends are excluded regardless of
// whether the employee worked them; that exclusion is deliberate.
func (d *Detector) detectMissingEntries(groups map[string]*dayGroup, employees []models.Employee) []models.Anomaly {
	var anomalies []models.Anomaly

	workDays := d.workDays()

	for _, employee := range employees {
		if !employee.Active() {
			continue
		}

		for _, date := range workDays {
			if _, ok := groups[employee.ID+"-"+date]; ok {
				continue
			}

			anomalies = append(anomalies, models.Anomaly{
				ID:              "missing-" + employee.ID + "-" + date,
				EmployeeID:      employee.ID,
				Date:            date,
				Type:            models.AnomalyMissingEntry,
				Description:     fmt.Sprintf("No time entry for %s, but entries exist for surrounding days.", date),
				Severity:        models.SeverityMedium,
				RelatedEntries:  []string{},
				DetectionMethod: "gap-analysis",
			})
		}
	}

	return anomalies
}

// workDays lists the Mon-Fri dates of the lookback window, newest first.
func (d *Detector) workDays() []string {
	var days []string

	today := d.config.Now().UTC()

	for i := 0; i < d.config.LookbackDays; i++ {
		day := today.AddDate(0, 0, -i)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		days = append(days, day.Format(dateLayout))
	}

	return days
}

func (d *Detector) detectOvertime(groups map[string]*dayGroup) []models.Anomaly {
	var anomalies []models.Anomaly

	for _, key := range sortedKeys(groups) {
		group := groups[key]

		var totalHours float64
		for _, entry := range group.entries {
			totalHours += entry.Hours()
		}

		if totalHours <= d.config.MaxHoursPerDay {
			continue
		}

		related := make([]string, 0, len(group.entries))
		for _, entry := range group.entries {
			related = append(related, entry.ID)
		}

		anomalies = append(anomalies, models.Anomaly{
			ID:         "overtime-" + group.employeeID + "-" + group.date,
			EmployeeID: group.employeeID,
			Date:       group.date,
			Type:       models.AnomalyOvertime,
			Description: fmt.Sprintf(
				"Logged %.1f hours on %s, exceeding company policy of maximum %g hours per day.",
				totalHours, group.date, d.config.MaxHoursPerDay),
			Severity:        models.SeverityHigh,
			RelatedEntries:  related,
			DetectionMethod: "threshold-analysis",
		})
	}

	return anomalies
}

// detectDuplicates finds overlapping intervals within each
// (employee, project, date) group. At most one anomaly is emitted per group
// even when more overlapping pairs exist; that under-reporting is a known
// trade-off of the review queue and must not be widened silently.
func (d *Detector) detectDuplicates(entries []models.TimeEntry) []models.Anomaly {
	byProject := make(map[string][]models.TimeEntry)

	for _, entry := range entries {
		if entry.StartTime.IsZero() || entry.EndTime.IsZero() {
			continue
		}

		key := entry.EmployeeID + "-" + entry.ProjectID + "-" + entry.StartTime.UTC().Format(dateLayout)
		byProject[key] = append(byProject[key], entry)
	}

	var anomalies []models.Anomaly

	for _, key := range sortedKeys(byProject) {
		group := byProject[key]
		if len(group) < 2 {
			continue
		}

		if anomaly, found := firstOverlap(group); found {
			anomalies = append(anomalies, anomaly)
		}
	}

	return anomalies
}

func firstOverlap(group []models.TimeEntry) (models.Anomaly, bool) {
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			first, second := group[i], group[j]
			if !first.Overlaps(second) {
				continue
			}

			date := first.StartTime.UTC().Format(dateLayout)

			return models.Anomaly{
				ID:              "duplicate-" + first.EmployeeID + "-" + date + "-" + first.ID + "-" + second.ID,
				EmployeeID:      first.EmployeeID,
				Date:            date,
				Type:            models.AnomalyDuplicate,
				Description:     fmt.Sprintf("Two overlapping time entries for the same project on %s.", date),
				Severity:        models.SeverityLow,
				RelatedEntries:  []string{first.ID, second.ID},
				DetectionMethod: "overlap-detection",
			}, true
		}
	}

	return models.Anomaly{}, false
}

// detectPolicyViolations checks each entry against the required-field
// policies. The two checks are independent; an entry missing both a project
// code and a description produces two anomalies.
func (d *Detector) detectPolicyViolations(entries []models.TimeEntry) []models.Anomaly {
	var anomalies []models.Anomaly

	for _, entry := range entries {
		if entry.StartTime.IsZero() {
			continue
		}

		date := entry.StartTime.UTC().Format(dateLayout)

		if entry.ProjectID == "" && d.config.RequireProjectCode {
			anomalies = append(anomalies, models.Anomaly{
				ID:              "policy-" + entry.EmployeeID + "-" + date + "-" + entry.ID,
				EmployeeID:      entry.EmployeeID,
				Date:            date,
				Type:            models.AnomalyPolicyViolation,
				Description:     "Time entry lacks required project code for billable work.",
				Severity:        models.SeverityMedium,
				RelatedEntries:  []string{entry.ID},
				DetectionMethod: "policy-check",
			})
		}

		if entry.Description == "" && d.config.RequireDescription {
			anomalies = append(anomalies, models.Anomaly{
				ID:              "policy-desc-" + entry.EmployeeID + "-" + date + "-" + entry.ID,
				EmployeeID:      entry.EmployeeID,
				Date:            date,
				Type:            models.AnomalyPolicyViolation,
				Description:     "Time entry lacks required description.",
				Severity:        models.SeverityLow,
				RelatedEntries:  []string{entry.ID},
				DetectionMethod: "policy-check",
			})
		}
	}

	return anomalies
}

// detectSuspiciousPatterns flags employees whose per-day totals (rounded to
// two decimals) are identical and nonzero across at least five grouped days.
func (d *Detector) detectSuspiciousPatterns(groups map[string]*dayGroup) []models.Anomaly {
	byEmployee := make(map[string][]*dayGroup)

	// Sorted key order keeps each employee's day list ordered by date.
	for _, key := range sortedKeys(groups) {
		group := groups[key]
		byEmployee[group.employeeID] = append(byEmployee[group.employeeID], group)
	}

	var anomalies []models.Anomaly

	for _, employeeID := range sortedKeys(byEmployee) {
		days := byEmployee[employeeID]
		if len(days) < minPatternDays {
			continue
		}

		sameHours := true
		firstTotal := roundHours(days[0])

		for _, day := range days[1:] {
			if roundHours(day) != firstTotal {
				sameHours = false

				break
			}
		}

		if !sameHours || firstTotal <= 0 {
			continue
		}

		var related []string
		for _, day := range days {
			for _, entry := range day.entries {
				related = append(related, entry.ID)
			}
		}

		anomalies = append(anomalies, models.Anomaly{
			ID:         "pattern-" + employeeID + "-" + days[0].date,
			EmployeeID: employeeID,
			Date:       days[0].date,
			Type:       models.AnomalySuspiciousPattern,
			Description: fmt.Sprintf(
				"Exactly %g hours logged every day for %d days, which is unusual for this role.",
				firstTotal, len(days)),
			Severity:        models.SeverityLow,
			RelatedEntries:  related,
			DetectionMethod: "pattern-analysis",
		})
	}

	return anomalies
}

func roundHours(day *dayGroup) float64 {
	var total float64
	for _, entry := range day.entries {
		total += entry.Hours()
	}

	return math.Round(total*100) / 100
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
