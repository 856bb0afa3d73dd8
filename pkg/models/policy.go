package models

import "strings"

// RuleAction is what the enforcer recommends for a matched anomaly.
type RuleAction string

const (
	ActionFlag        RuleAction = "flag"
	ActionAutoCorrect RuleAction = "auto-correct"
	ActionReject      RuleAction = "reject"
	ActionNone        RuleAction = "none"
)

// RuleCondition is a declarative predicate over an anomaly. Conditions are
// data, not code, so rule tables can be supplied externally (JSON) without
// changing the matching algorithm.
type RuleCondition struct {
	AnomalyType AnomalyType `json:"anomalyType" validate:"required,oneof=missing-entry overtime duplicate policy-violation suspicious-pattern"`
	// DescriptionContains, when set, additionally requires the anomaly
	// description to contain this substring.
	DescriptionContains string `json:"descriptionContains,omitempty"`
}

// Matches evaluates the condition against an anomaly.
func (c RuleCondition) Matches(anomaly Anomaly) bool {
	if anomaly.Type != c.AnomalyType {
		return false
	}

	if c.DescriptionContains != "" && !strings.Contains(anomaly.Description, c.DescriptionContains) {
		return false
	}

	return true
}

// PolicyRule is a named, stateless classification rule. Rules are evaluated
// independently; more than one may match the same anomaly. The position of a
// rule in the configured list is its priority for tie-breaking.
type PolicyRule struct {
	ID          string        `json:"id"        validate:"required"`
	Name        string        `json:"name"      validate:"required"`
	Description string        `json:"description"`
	Condition   RuleCondition `json:"condition" validate:"required"`
	Severity    Severity      `json:"severity"  validate:"required,oneof=low medium high"`
	Action      RuleAction    `json:"action"    validate:"required,oneof=flag auto-correct reject"`
}

// ValidationResult pairs one anomaly with the policy verdict. An anomaly no
// rule cares about is reported as valid, yet still carries the default "low"
// severity; product owners have flagged that combination as a question, so
// it is preserved as-is rather than resolved here.
type ValidationResult struct {
	AnomalyID           string       `json:"anomalyId"`
	Anomaly             Anomaly      `json:"anomaly"`
	IsValid             bool         `json:"isValid"`
	ApplicableRules     []PolicyRule `json:"applicableRules"`
	RecommendedAction   RuleAction   `json:"recommendedAction"`
	RequiresHumanReview bool         `json:"requiresHumanReview"`
	Severity            Severity     `json:"severity"`
}
