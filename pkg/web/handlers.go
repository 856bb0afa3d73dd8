package web

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/chronosentry/chronosentry/pkg/models"
	"github.com/chronosentry/chronosentry/pkg/policy"
	"github.com/chronosentry/chronosentry/pkg/workflow"
)

type APIHandlers struct {
	orchestrator *workflow.Orchestrator
	enforcer     *policy.Enforcer
	validator    *validator.Validate
}

func NewAPIHandlers(orchestrator *workflow.Orchestrator, enforcer *policy.Enforcer, validate *validator.Validate) *APIHandlers {
	return &APIHandlers{
		orchestrator: orchestrator,
		enforcer:     enforcer,
		validator:    validate,
	}
}

// StartRun kicks off a full pipeline run and returns the final run record.
// The run executes synchronously; the console polls GET /runs/current for
// progress from another connection.
func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	var req StartRunRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.orchestrator.StartWorkflow(c.Context(), req.StartDate, req.EndDate, req.WorkspaceID)
	if !result.Success {
		// The run record carries the failure detail; surface it with the
		// envelope rather than a problem document.
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}

	return c.JSON(result)
}

// CurrentRun returns the live run record verbatim.
func (h *APIHandlers) CurrentRun(c fiber.Ctx) error {
	return c.JSON(h.orchestrator.WorkflowState())
}

// PauseRun is valid only while a run is in flight.
func (h *APIHandlers) PauseRun(c fiber.Ctx) error {
	result := h.orchestrator.PauseWorkflow()
	if !result.Success {
		return conflict(c, result.Message)
	}

	return c.JSON(result)
}

// ResumeRun is valid only while a run is paused.
func (h *APIHandlers) ResumeRun(c fiber.Ctx) error {
	result := h.orchestrator.ResumeWorkflow()
	if !result.Success {
		return conflict(c, result.Message)
	}

	return c.JSON(result)
}

// ApplyCorrection records the supervisor verdict for one proposal.
func (h *APIHandlers) ApplyCorrection(c fiber.Ctx) error {
	anomalyID := c.Params("anomalyId")
	if anomalyID == "" {
		return badRequest(c, "Missing anomaly id")
	}

	var req ApplyCorrectionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	result := h.orchestrator.ApplyCorrection(c.Context(), anomalyID, req.Approved)
	if !result.Success {
		return notFound(c, result.Message)
	}

	return c.JSON(result)
}

// ApplicablePolicies lists the rules that would apply to an anomaly of the
// given type, for console documentation panes.
func (h *APIHandlers) ApplicablePolicies(c fiber.Ctx) error {
	anomalyType := models.AnomalyType(c.Params("type"))

	valid := false

	for _, t := range models.AnomalyTypes() {
		if t == anomalyType {
			valid = true

			break
		}
	}

	if !valid {
		types := make([]string, 0, len(models.AnomalyTypes()))
		for _, t := range models.AnomalyTypes() {
			types = append(types, string(t))
		}

		return badRequest(c, "Unknown anomaly type, expected one of: "+strings.Join(types, ", "))
	}

	return c.JSON(h.enforcer.ApplicablePolicies(anomalyType))
}

// HealthCheck reports liveness.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
