// Package telemetry keeps an append-only log of notable application
// events for the admin view. It records facts; it computes nothing.
package telemetry

import "time"

type EventType string

const (
	EventTaskCreated     EventType = "task_created"
	EventTaskUpdated     EventType = "task_updated"
	EventTagsSuggested   EventType = "tags_suggested"
	EventSuggestionError EventType = "suggestion_error"
	EventLogin           EventType = "login"
)

type EventMetadata map[string]any

type Event struct {
	ID        int           `json:"id"`
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Metadata  EventMetadata `json:"metadata,omitempty"`
}
