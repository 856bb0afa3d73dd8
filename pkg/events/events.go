// Package events defines the run lifecycle notifications consumed by the
// review console's activity feed.
package events

import "time"

type EventType string

// Topic carries every run lifecycle event.
const Topic = "chronosentry.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent        EventType = "run.started"
	StageCompletedEvent    EventType = "run.stage.completed"
	RunCompletedEvent      EventType = "run.completed"
	RunFailedEvent         EventType = "run.failed"
	CorrectionAppliedEvent EventType = "correction.applied"
)

type BaseEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	RunID       string    `json:"runId"`
	WorkspaceID string    `json:"workspaceId,omitempty"`
}

type RunStarted struct {
	BaseEvent

	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type StageCompleted struct {
	BaseEvent

	Step    string `json:"step"`
	Message string `json:"message"`
}

func (e StageCompleted) GetType() EventType {
	return StageCompletedEvent
}

type RunCompleted struct {
	BaseEvent

	Anomalies int           `json:"anomalies"`
	Proposals int           `json:"proposals"`
	Duration  time.Duration `json:"duration"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type RunFailed struct {
	BaseEvent

	Step  string `json:"step"`
	Error string `json:"error"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

type CorrectionApplied struct {
	BaseEvent

	AnomalyID string `json:"anomalyId"`
	Approved  bool   `json:"approved"`
}

func (e CorrectionApplied) GetType() EventType {
	return CorrectionAppliedEvent
}
