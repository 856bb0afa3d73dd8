// Package policy classifies detected anomalies against a declarative rule
// table. Rules are data (type match plus optional description substring), so
// a table can be supplied externally without touching the matching logic.
package policy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chronosentry/chronosentry/pkg/models"
)

type Enforcer struct {
	rules  []models.PolicyRule
	logger *slog.Logger
}

// New builds an enforcer over the given rule table. The list order is a
// priority list: among matching rules of equal severity weight, the earliest
// one decides the recommended action. Nil rules selects the default table.
func New(rules []models.PolicyRule, logger *slog.Logger) *Enforcer {
	if rules == nil {
		rules = DefaultRules()
	}

	return &Enforcer{
		rules:  rules,
		logger: logger.With("module", "policy"),
	}
}

// ValidateAnomalies evaluates every rule against every anomaly, producing
// one order-preserving result per anomaly. An anomaly matched by no rule is
// valid ("no policy cares about this") and passes through quietly with the
// default low severity.
func (e *Enforcer) ValidateAnomalies(ctx context.Context, anomalies []models.Anomaly) models.Result[[]models.ValidationResult] {
	results := make([]models.ValidationResult, 0, len(anomalies))

	for _, anomaly := range anomalies {
		results = append(results, e.validate(anomaly))
	}

	e.logger.InfoContext(ctx, "Policy validation finished", "anomalies", len(anomalies))

	return models.OK(results, fmt.Sprintf("Validated %d anomalies against policy rules", len(anomalies)))
}

func (e *Enforcer) validate(anomaly models.Anomaly) models.ValidationResult {
	var applicable []models.PolicyRule

	for _, rule := range e.rules {
		if rule.Condition.Matches(anomaly) {
			applicable = append(applicable, rule)
		}
	}

	result := models.ValidationResult{
		AnomalyID:         anomaly.ID,
		Anomaly:           anomaly,
		IsValid:           len(applicable) == 0,
		ApplicableRules:   applicable,
		RecommendedAction: models.ActionNone,
		Severity:          models.SeverityLow,
	}

	// Strict > keeps the first rule on severity ties; list order is the
	// tie-break.
	var top *models.PolicyRule

	for i := range applicable {
		if top == nil || applicable[i].Severity.Weight() > top.Severity.Weight() {
			top = &applicable[i]
		}
	}

	if top != nil {
		result.RecommendedAction = top.Action
		result.RequiresHumanReview = top.Action == models.ActionFlag
		result.Severity = top.Severity
	}

	return result
}

// ApplicablePolicies answers which rules would apply to an anomaly of the
// given type, without a concrete anomaly instance. Rules that also test the
// description cannot match a bare type and are not reported.
func (e *Enforcer) ApplicablePolicies(anomalyType models.AnomalyType) models.Result[[]models.PolicyRule] {
	probe := models.Anomaly{Type: anomalyType}

	var policies []models.PolicyRule

	for _, rule := range e.rules {
		if rule.Condition.Matches(probe) {
			policies = append(policies, rule)
		}
	}

	return models.OK(policies, fmt.Sprintf(
		"Found %d applicable policies for anomaly type: %s", len(policies), anomalyType))
}
