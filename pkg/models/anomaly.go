package models

// AnomalyType is the closed set of deviations the detector can emit.
type AnomalyType string

const (
	AnomalyMissingEntry      AnomalyType = "missing-entry"
	AnomalyOvertime          AnomalyType = "overtime"
	AnomalyDuplicate         AnomalyType = "duplicate"
	AnomalyPolicyViolation   AnomalyType = "policy-violation"
	AnomalySuspiciousPattern AnomalyType = "suspicious-pattern"
)

// AnomalyTypes lists every valid anomaly type, in detection pass order.
func AnomalyTypes() []AnomalyType {
	return []AnomalyType{
		AnomalyMissingEntry,
		AnomalyOvertime,
		AnomalyDuplicate,
		AnomalyPolicyViolation,
		AnomalySuspiciousPattern,
	}
}

// Severity classifies how serious an anomaly or rule match is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Weight returns the numeric ranking used to pick the governing policy rule:
// high=3, medium=2, low=1, anything else 0.
func (s Severity) Weight() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Anomaly is a detected deviation from expected timesheet behavior. The ID is
// composed deterministically from the detection context so re-running
// detection on identical input yields identical ids.
type Anomaly struct {
	ID              string      `json:"id"         validate:"required"`
	EmployeeID      string      `json:"employeeId" validate:"required"`
	Date            string      `json:"date"       validate:"required"` // ISO 8601 YYYY-MM-DD
	Type            AnomalyType `json:"type"       validate:"required,oneof=missing-entry overtime duplicate policy-violation suspicious-pattern"`
	Description     string      `json:"description"`
	Severity        Severity    `json:"severity"   validate:"required,oneof=low medium high"`
	RelatedEntries  []string    `json:"relatedEntries"`
	DetectionMethod string      `json:"detectionMethod"` // diagnostic only
}
