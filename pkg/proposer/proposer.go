// Package proposer turns invalid validation results into human-readable
// correction suggestions, personalized from the employee's entry history
// where one exists. Proposals never mutate the anomalies or results they
// were derived from; they await supervisor approval in pending state.
package proposer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/chronosentry/chronosentry/pkg/models"
)

const (
	defaultScheduleSuggestion = "Add standard 8-hour workday (9:00 AM - 5:00 PM) based on company default schedule."
	overtimeSuggestion        = "Flag for supervisor review. Consider splitting hours across multiple days if work spanned midnight."
	duplicateSuggestion       = "Merge overlapping entries into a single continuous time entry."
	descriptionSuggestion     = "Add a descriptive comment based on the project and task associated with this time entry."
	genericPolicySuggestion   = "Review and correct the policy violation according to company guidelines."
	patternSuggestion         = "Request verification from employee about time accuracy."
	fallbackSuggestion        = "Review manually and take appropriate action."
)

type Proposer struct {
	employees []models.Employee
	history   []models.TimeEntry
	logger    *slog.Logger
}

// New builds a proposer over the run's roster and full historical entry
// list. History is read-only; the proposer never writes entries back.
func New(employees []models.Employee, history []models.TimeEntry, logger *slog.Logger) *Proposer {
	return &Proposer{
		employees: employees,
		history:   history,
		logger:    logger.With("module", "proposer"),
	}
}

// GenerateProposals produces one pending proposal per invalid validation
// result. Valid results are skipped entirely. Note that anomalies routed to
// human review ("flag") still receive a proposal; flagging controls review
// routing, not suggestion synthesis.
func (p *Proposer) GenerateProposals(ctx context.Context, results []models.ValidationResult) models.Result[[]models.CorrectionProposal] {
	proposals := make([]models.CorrectionProposal, 0)

	for _, result := range results {
		if result.IsValid {
			continue
		}

		proposals = append(proposals, p.propose(result))
	}

	p.logger.InfoContext(ctx, "Proposal generation finished",
		"results", len(results),
		"proposals", len(proposals),
	)

	return models.OK(proposals, fmt.Sprintf("Generated %d correction proposals", len(proposals)))
}

func (p *Proposer) propose(result models.ValidationResult) models.CorrectionProposal {
	anomaly := result.Anomaly

	var suggested string

	switch anomaly.Type {
	case models.AnomalyMissingEntry:
		suggested = p.missingEntrySuggestion(anomaly)
	case models.AnomalyOvertime:
		suggested = overtimeSuggestion
	case models.AnomalyDuplicate:
		suggested = duplicateSuggestion
	case models.AnomalyPolicyViolation:
		suggested = p.policyViolationSuggestion(anomaly)
	case models.AnomalySuspiciousPattern:
		suggested = patternSuggestion
	default:
		suggested = fallbackSuggestion
	}

	return models.CorrectionProposal{
		AnomalyID:           anomaly.ID,
		EmployeeID:          anomaly.EmployeeID,
		Date:                anomaly.Date,
		Description:         anomaly.Description,
		SuggestedAction:     suggested,
		Severity:            result.Severity,
		RequiresHumanReview: result.RequiresHumanReview,
		Status:              models.ProposalPending,
	}
}

func (p *Proposer) missingEntrySuggestion(anomaly models.Anomaly) string {
	schedule, ok := p.typicalSchedule(anomaly.EmployeeID)
	if !ok {
		return defaultScheduleSuggestion
	}

	return fmt.Sprintf(
		"Add standard %g-hour workday (%s - %s) based on employee's typical schedule.",
		schedule.hours, schedule.startTime, schedule.endTime)
}

func (p *Proposer) policyViolationSuggestion(anomaly models.Anomaly) string {
	switch {
	case strings.Contains(anomaly.Description, "project code"):
		code, ok := p.mostCommonProjectCode(anomaly.EmployeeID)
		if !ok {
			return "Add appropriate project code after consulting with employee."
		}

		return fmt.Sprintf("Add project code '%s' based on employee's other entries that week.", code)
	case strings.Contains(anomaly.Description, "description"):
		return descriptionSuggestion
	default:
		return genericPolicySuggestion
	}
}

type workSchedule struct {
	startTime string
	endTime   string
	hours     float64
}

// typicalSchedule averages the employee's historical start and end clock
// times (minutes since midnight, averaged then re-split into hh:mm) and the
// average duration rounded to one decimal. Entries without parseable
// timestamps are excluded from the averages.
func (p *Proposer) typicalSchedule(employeeID string) (workSchedule, bool) {
	var (
		totalStartMinutes int
		totalEndMinutes   int
		totalHours        float64
		count             int
	)

	for _, entry := range p.history {
		if entry.EmployeeID != employeeID || entry.StartTime.IsZero() || entry.EndTime.IsZero() {
			continue
		}

		start := entry.StartTime.UTC()
		end := entry.EndTime.UTC()

		totalStartMinutes += start.Hour()*60 + start.Minute()
		totalEndMinutes += end.Hour()*60 + end.Minute()
		totalHours += entry.Hours()
		count++
	}

	if count == 0 {
		return workSchedule{}, false
	}

	avgStart := int(math.Round(float64(totalStartMinutes) / float64(count)))
	avgEnd := int(math.Round(float64(totalEndMinutes) / float64(count)))

	return workSchedule{
		startTime: fmt.Sprintf("%02d:%02d", avgStart/60, avgStart%60),
		endTime:   fmt.Sprintf("%02d:%02d", avgEnd/60, avgEnd%60),
		hours:     math.Round(totalHours/float64(count)*10) / 10,
	}, true
}

// mostCommonProjectCode returns the employee's most frequent historical
// project id; ties go to the code encountered first in history order.
func (p *Proposer) mostCommonProjectCode(employeeID string) (string, bool) {
	counts := make(map[string]int)

	var order []string

	for _, entry := range p.history {
		if entry.EmployeeID != employeeID || entry.ProjectID == "" {
			continue
		}

		if _, seen := counts[entry.ProjectID]; !seen {
			order = append(order, entry.ProjectID)
		}

		counts[entry.ProjectID]++
	}

	var (
		best      string
		bestCount int
	)

	for _, code := range order {
		if counts[code] > bestCount {
			best = code
			bestCount = counts[code]
		}
	}

	return best, best != ""
}
