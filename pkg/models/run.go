package models

import "time"

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunIdle      RunStatus = "idle"
	RunRunning   RunStatus = "running"
	RunPaused    RunStatus = "paused"
	RunCompleted RunStatus = "completed"
	RunError     RunStatus = "error"
)

// Stage names, in execution order. CurrentStep holds one of these while the
// corresponding stage is in flight.
const (
	StepTimesheetCollection = "timesheet-collection"
	StepAnomalyDetection    = "anomaly-detection"
	StepPolicyValidation    = "policy-validation"
	StepCorrectionProposal  = "correction-proposal"
)

// RunResults is the results bag holding each stage's raw output envelope.
// Entries stay nil until their stage has produced a result, which lets a
// consumer tell "not reached" apart from "failed".
type RunResults struct {
	TimesheetCollection *Result[[]TimeEntry]          `json:"timesheetCollection"`
	AnomalyDetection    *Result[[]Anomaly]            `json:"anomalyDetection"`
	PolicyValidation    *Result[[]ValidationResult]   `json:"policyValidation"`
	CorrectionProposals *Result[[]CorrectionProposal] `json:"correctionProposals"`
}

// Run is the single mutable record owned by the orchestrator. Exactly one
// live run exists per orchestrator instance; starting a new run overwrites
// the previous record.
type Run struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspaceId"`
	Status      RunStatus  `json:"status"`
	CurrentStep string     `json:"currentStep"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	Results     RunResults `json:"results"`
	Error       string     `json:"error,omitempty"`
}

// NewRun returns a fresh idle run record.
func NewRun(id, workspaceID string) *Run {
	return &Run{
		ID:          id,
		WorkspaceID: workspaceID,
		Status:      RunIdle,
	}
}
