// Package workflow sequences the four pipeline stages and owns the run
// state machine exposed to the review console.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chronosentry/chronosentry/pkg/collector"
	"github.com/chronosentry/chronosentry/pkg/detector"
	"github.com/chronosentry/chronosentry/pkg/eventbus"
	"github.com/chronosentry/chronosentry/pkg/events"
	"github.com/chronosentry/chronosentry/pkg/models"
	"github.com/chronosentry/chronosentry/pkg/otelhelper"
	"github.com/chronosentry/chronosentry/pkg/policy"
	"github.com/chronosentry/chronosentry/pkg/proposer"
)

// Orchestrator runs Collector -> Detector -> Enforcer -> Proposer strictly
// in order over a single mutable run record. One live run exists per
// instance; StartWorkflow overwrites the previous run's state. Overlapping
// runs are not serialized, only the record itself is guarded.
type Orchestrator struct {
	collector *collector.Collector
	detector  *detector.Detector
	enforcer  *policy.Enforcer
	logger    *slog.Logger

	eventBus eventbus.EventBus // optional
	tracer   trace.Tracer      // optional

	mu  sync.Mutex
	run *models.Run
}

func NewOrchestrator(c *collector.Collector, d *detector.Detector, e *policy.Enforcer, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		collector: c,
		detector:  d,
		enforcer:  e,
		logger:    logger.With("module", "orchestrator"),
		run:       models.NewRun("", ""),
	}
}

// SetEventBus enables run lifecycle event publishing.
func (o *Orchestrator) SetEventBus(bus eventbus.EventBus) {
	o.eventBus = bus
}

// SetTracer enables one tracing span per pipeline stage.
func (o *Orchestrator) SetTracer(tracer trace.Tracer) {
	o.tracer = tracer
}

// StartWorkflow resets the run record and executes the four stages in
// order. Any stage failure aborts the remaining stages, records the
// originating message prefixed with the stage name, and transitions the run
// to error. Cancellation is cooperative: the context is checked between
// stages only, an in-flight stage always runs to completion. Pausing does
// not stop dispatched stages either; it is a status flag for the console.
func (o *Orchestrator) StartWorkflow(ctx context.Context, startDate, endDate, workspaceID string) models.Result[*models.Run] {
	runID := "run-" + uuid.New().String()[:8]
	now := time.Now()

	o.mu.Lock()
	o.run = &models.Run{
		ID:          runID,
		WorkspaceID: workspaceID,
		Status:      models.RunRunning,
		CurrentStep: models.StepTimesheetCollection,
		StartTime:   &now,
	}
	o.mu.Unlock()

	logger := o.logger.With("run_id", runID, "workspace_id", workspaceID)
	logger.InfoContext(ctx, "Starting workflow", "start_date", startDate, "end_date", endDate)

	o.publish(ctx, runID, events.RunStarted{
		BaseEvent: o.baseEvent(events.RunStartedEvent, runID, workspaceID),
		StartDate: startDate,
		EndDate:   endDate,
	})

	// Step 1: collect timesheet data and the employee roster.
	stageCtx, endSpan := o.stageSpan(ctx, models.StepTimesheetCollection, runID)
	entriesResult := o.collector.CollectTimesheets(stageCtx, startDate, endDate, workspaceID)

	o.mu.Lock()
	o.run.Results.TimesheetCollection = &entriesResult
	o.mu.Unlock()

	if !entriesResult.Success {
		endSpan(errors.New(entriesResult.Message))

		return o.fail(ctx, logger, fmt.Sprintf("Timesheet collection failed: %s", entriesResult.Message))
	}

	employeesResult := o.collector.EmployeeData(stageCtx, workspaceID)
	if !employeesResult.Success {
		endSpan(errors.New(employeesResult.Message))

		return o.fail(ctx, logger, fmt.Sprintf("Employee data collection failed: %s", employeesResult.Message))
	}

	endSpan(nil)
	o.stageDone(ctx, runID, workspaceID, models.StepTimesheetCollection, entriesResult.Message)

	if msg, cancelled := cancelledBetweenStages(ctx); cancelled {
		return o.fail(ctx, logger, msg)
	}

	// Step 2: detect anomalies.
	o.setStep(models.StepAnomalyDetection)

	stageCtx, endSpan = o.stageSpan(ctx, models.StepAnomalyDetection, runID)
	anomalyResult := o.detector.DetectAnomalies(stageCtx, entriesResult.Data, employeesResult.Data)

	o.mu.Lock()
	o.run.Results.AnomalyDetection = &anomalyResult
	o.mu.Unlock()

	if !anomalyResult.Success {
		endSpan(errors.New(anomalyResult.Message))

		return o.fail(ctx, logger, fmt.Sprintf("Anomaly detection failed: %s", anomalyResult.Message))
	}

	endSpan(nil)
	o.stageDone(ctx, runID, workspaceID, models.StepAnomalyDetection, anomalyResult.Message)

	if msg, cancelled := cancelledBetweenStages(ctx); cancelled {
		return o.fail(ctx, logger, msg)
	}

	// Step 3: validate against policy rules.
	o.setStep(models.StepPolicyValidation)

	stageCtx, endSpan = o.stageSpan(ctx, models.StepPolicyValidation, runID)
	validationResult := o.enforcer.ValidateAnomalies(stageCtx, anomalyResult.Data)

	o.mu.Lock()
	o.run.Results.PolicyValidation = &validationResult
	o.mu.Unlock()

	if !validationResult.Success {
		endSpan(errors.New(validationResult.Message))

		return o.fail(ctx, logger, fmt.Sprintf("Policy validation failed: %s", validationResult.Message))
	}

	endSpan(nil)
	o.stageDone(ctx, runID, workspaceID, models.StepPolicyValidation, validationResult.Message)

	if msg, cancelled := cancelledBetweenStages(ctx); cancelled {
		return o.fail(ctx, logger, msg)
	}

	// Step 4: generate correction proposals, personalized from history.
	o.setStep(models.StepCorrectionProposal)

	stageCtx, endSpan = o.stageSpan(ctx, models.StepCorrectionProposal, runID)
	prop := proposer.New(employeesResult.Data, entriesResult.Data, o.logger)
	proposalResult := prop.GenerateProposals(stageCtx, validationResult.Data)

	o.mu.Lock()
	o.run.Results.CorrectionProposals = &proposalResult
	o.mu.Unlock()

	if !proposalResult.Success {
		endSpan(errors.New(proposalResult.Message))

		return o.fail(ctx, logger, fmt.Sprintf("Correction proposal generation failed: %s", proposalResult.Message))
	}

	endSpan(nil)
	o.stageDone(ctx, runID, workspaceID, models.StepCorrectionProposal, proposalResult.Message)

	end := time.Now()

	o.mu.Lock()
	o.run.Status = models.RunCompleted
	o.run.EndTime = &end
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	logger.InfoContext(ctx, "Workflow completed",
		"anomalies", len(anomalyResult.Data),
		"proposals", len(proposalResult.Data),
	)

	o.publish(ctx, runID, events.RunCompleted{
		BaseEvent: o.baseEvent(events.RunCompletedEvent, runID, workspaceID),
		Anomalies: len(anomalyResult.Data),
		Proposals: len(proposalResult.Data),
		Duration:  end.Sub(now),
	})

	return models.OK(snapshot, "Workflow completed successfully")
}

// PauseWorkflow flips a running workflow to paused. It does not preempt an
// in-flight stage; there is no preemption point mid-stage.
func (o *Orchestrator) PauseWorkflow() models.Result[models.RunStatus] {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.run.Status != models.RunRunning {
		return models.Fail[models.RunStatus](fmt.Sprintf("Cannot pause workflow in %s state", o.run.Status))
	}

	o.run.Status = models.RunPaused

	return models.OK(models.RunPaused, "Workflow paused")
}

// ResumeWorkflow flips a paused workflow back to running.
func (o *Orchestrator) ResumeWorkflow() models.Result[models.RunStatus] {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.run.Status != models.RunPaused {
		return models.Fail[models.RunStatus](fmt.Sprintf("Cannot resume workflow in %s state", o.run.Status))
	}

	o.run.Status = models.RunRunning

	return models.OK(models.RunRunning, "Workflow resumed")
}

// WorkflowState returns the current run record.
func (o *Orchestrator) WorkflowState() models.Result[*models.Run] {
	o.mu.Lock()
	defer o.mu.Unlock()

	return models.OK(o.snapshotLocked(), fmt.Sprintf("Current workflow state: %s", o.run.Status))
}

// ApplyCorrection records the supervisor's verdict on the proposal derived
// from the given anomaly. It only records the decision locally; pushing the
// correction back to the time-tracking source is an external follow-up.
func (o *Orchestrator) ApplyCorrection(ctx context.Context, anomalyID string, approved bool) models.Result[models.CorrectionProposal] {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.run.Results.CorrectionProposals == nil {
		return models.Fail[models.CorrectionProposal](fmt.Sprintf("Correction proposal not found: %s", anomalyID))
	}

	proposals := o.run.Results.CorrectionProposals.Data

	for i := range proposals {
		if proposals[i].AnomalyID != anomalyID {
			continue
		}

		if approved {
			proposals[i].Status = models.ProposalApproved
		} else {
			proposals[i].Status = models.ProposalRejected
		}

		o.publish(ctx, o.run.ID, events.CorrectionApplied{
			BaseEvent: o.baseEvent(events.CorrectionAppliedEvent, o.run.ID, o.run.WorkspaceID),
			AnomalyID: anomalyID,
			Approved:  approved,
		})

		verdict := "rejected"
		if approved {
			verdict = "applied"
		}

		return models.OK(proposals[i], fmt.Sprintf("Correction %s: %s", verdict, proposals[i].SuggestedAction))
	}

	return models.Fail[models.CorrectionProposal](fmt.Sprintf("Correction proposal not found: %s", anomalyID))
}

func (o *Orchestrator) setStep(step string) {
	o.mu.Lock()
	o.run.CurrentStep = step
	o.mu.Unlock()
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, message string) models.Result[*models.Run] {
	end := time.Now()

	o.mu.Lock()
	o.run.Status = models.RunError
	o.run.Error = message
	o.run.EndTime = &end
	step := o.run.CurrentStep
	runID := o.run.ID
	workspaceID := o.run.WorkspaceID
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	logger.ErrorContext(ctx, "Workflow failed", "step", step, "error", message)

	o.publish(ctx, runID, events.RunFailed{
		BaseEvent: o.baseEvent(events.RunFailedEvent, runID, workspaceID),
		Step:      step,
		Error:     message,
	})

	return models.Result[*models.Run]{Success: false, Data: snapshot, Message: fmt.Sprintf("Workflow failed: %s", message)}
}

// snapshotLocked copies the run record so callers never hold a reference
// into the mutating state. Caller must hold o.mu.
func (o *Orchestrator) snapshotLocked() *models.Run {
	snapshot := *o.run

	return &snapshot
}

func (o *Orchestrator) stageDone(ctx context.Context, runID, workspaceID, step, message string) {
	o.publish(ctx, runID, events.StageCompleted{
		BaseEvent: o.baseEvent(events.StageCompletedEvent, runID, workspaceID),
		Step:      step,
		Message:   message,
	})
}

func (o *Orchestrator) baseEvent(eventType events.EventType, runID, workspaceID string) events.BaseEvent {
	return events.BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now(),
		RunID:       runID,
		WorkspaceID: workspaceID,
	}
}

func (o *Orchestrator) publish(ctx context.Context, key string, event eventbus.Event) {
	if o.eventBus == nil {
		return
	}

	if err := o.eventBus.Publish(ctx, key, event); err != nil {
		o.logger.WarnContext(ctx, "Failed to publish run event", "event_type", event.GetType(), "error", err)
	}
}

func (o *Orchestrator) stageSpan(ctx context.Context, step, runID string) (context.Context, func(err error)) {
	if o.tracer == nil {
		return ctx, func(error) {}
	}

	spanCtx, span := otelhelper.StartSpan(ctx, o.tracer, step,
		attribute.String(otelhelper.RunIDKey, runID),
		attribute.String(otelhelper.StepKey, step),
	)

	return spanCtx, func(err error) {
		if err != nil {
			otelhelper.SetError(span, err)
		}

		span.End()
	}
}

func cancelledBetweenStages(ctx context.Context) (string, bool) {
	if err := ctx.Err(); err != nil {
		return fmt.Sprintf("Workflow cancelled: %v", err), true
	}

	return "", false
}
