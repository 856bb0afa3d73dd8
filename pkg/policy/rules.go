package policy

import "github.com/chronosentry/chronosentry/pkg/models"

// DefaultRules is the built-in company rule table. Descriptions tested by
// conditions are the ones the detector generates.
func DefaultRules() []models.PolicyRule {
	return []models.PolicyRule{
		{
			ID:          "missing-entry-rule",
			Name:        "Missing Time Entry",
			Description: "Employees must log time for all working days",
			Condition:   models.RuleCondition{AnomalyType: models.AnomalyMissingEntry},
			Severity:    models.SeverityMedium,
			Action:      models.ActionAutoCorrect,
		},
		{
			ID:          "overtime-rule",
			Name:        "Overtime Limit",
			Description: "Employees cannot log more than 12 hours per day",
			Condition:   models.RuleCondition{AnomalyType: models.AnomalyOvertime},
			Severity:    models.SeverityHigh,
			Action:      models.ActionFlag,
		},
		{
			ID:          "duplicate-entry-rule",
			Name:        "Duplicate Entries",
			Description: "Employees cannot have overlapping time entries",
			Condition:   models.RuleCondition{AnomalyType: models.AnomalyDuplicate},
			Severity:    models.SeverityLow,
			Action:      models.ActionAutoCorrect,
		},
		{
			ID:          "project-code-rule",
			Name:        "Project Code Required",
			Description: "All time entries must have a project code",
			Condition: models.RuleCondition{
				AnomalyType:         models.AnomalyPolicyViolation,
				DescriptionContains: "project code",
			},
			Severity: models.SeverityMedium,
			Action:   models.ActionAutoCorrect,
		},
		{
			ID:          "suspicious-pattern-rule",
			Name:        "Suspicious Time Patterns",
			Description: "Unusual time entry patterns require verification",
			Condition:   models.RuleCondition{AnomalyType: models.AnomalySuspiciousPattern},
			Severity:    models.SeverityLow,
			Action:      models.ActionFlag,
		},
	}
}
