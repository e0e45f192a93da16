// Package events defines the run lifecycle notifications published on the
// event bus.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/cihooks/postbuild/pkg/models"
)

type EventType string

// Topic is the Kafka topic carrying run lifecycle events.
const Topic = "postbuild.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent  EventType = "run.started"
	RunFinishedEvent EventType = "run.finished"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	JobName     string         `json:"job_name"`
	BuildNumber int            `json:"build_number"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, jobName string, buildNumber int) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		JobName:     jobName,
		BuildNumber: buildNumber,
		Metadata:    make(map[string]any),
	}
}

// RunStarted is published when post-build processing begins for a finished
// build.
type RunStarted struct {
	BaseEvent

	RunID       string        `json:"run_id"`
	BuildResult models.Result `json:"build_result,omitempty"`
}

func (r RunStarted) GetType() EventType {
	return RunStartedEvent
}

// RunFinished is published after the outcome policy has been applied.
type RunFinished struct {
	BaseEvent

	RunID       string        `json:"run_id"`
	Succeeded   bool          `json:"succeeded"`
	FinalResult models.Result `json:"final_result,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
}

func (r RunFinished) GetType() EventType {
	return RunFinishedEvent
}
