// Package web exposes the run-control HTTP surface consumed by the review
// console. Response bodies are the pipeline's Result envelopes; request
// validation errors use RFC 7807 problem documents.
package web

// StartRunRequest is the request body for starting a pipeline run.
type StartRunRequest struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
	StartDate   string `json:"startDate"   validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"endDate"     validate:"required,datetime=2006-01-02"`
}

// ApplyCorrectionRequest is the request body for recording a supervisor
// verdict on a correction proposal.
type ApplyCorrectionRequest struct {
	Approved bool `json:"approved"`
}
