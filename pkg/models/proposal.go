package models

// ProposalStatus tracks supervisor review of a correction proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

// CorrectionProposal is a generated remediation suggestion awaiting human
// approval. One proposal exists per invalid validation result; valid results
// produce none. Only the orchestrator's ApplyCorrection mutates Status.
type CorrectionProposal struct {
	AnomalyID           string         `json:"anomalyId"  validate:"required"`
	EmployeeID          string         `json:"employeeId" validate:"required"`
	Date                string         `json:"date"`
	Description         string         `json:"description"`
	SuggestedAction     string         `json:"suggestedAction"`
	Severity            Severity       `json:"severity"`
	RequiresHumanReview bool           `json:"requiresHumanReview"`
	Status              ProposalStatus `json:"status"`
}
