package domain

import (
	"encoding/json"
	"time"
)

// EventID is a unique identifier for an event.
type EventID string

// String returns the string representation of the EventID.
func (id EventID) String() string {
	return string(id)
}

// EventSeverity represents the severity level of an event.
type EventSeverity string

const (
	EventSeverityInfo    EventSeverity = "info"
	EventSeverityWarning EventSeverity = "warning"
	EventSeverityError   EventSeverity = "error"
	EventSeveritySuccess EventSeverity = "success"
)

// EventCategory represents the category of an event for filtering.
type EventCategory string

const (
	EventCategoryInfo       EventCategory = "info"
	EventCategoryDownload   EventCategory = "download"
	EventCategoryCapability EventCategory = "capability"
	EventCategoryDisk       EventCategory = "disk"
	EventCategorySystem     EventCategory = "system"
)

// Event represents a system event for the activity log.
type Event struct {
	ID        EventID         `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Severity  EventSeverity   `json:"severity"`
	Category  EventCategory   `json:"category"`
	Message   string          `json:"message"`
	Source    string          `json:"source,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// EventMetadata is a helper type for building event metadata.
type EventMetadata map[string]interface{}

// ToJSON converts metadata to JSON for storage.
func (m EventMetadata) ToJSON() json.RawMessage {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return data
}

// EventFilter specifies criteria for querying events.
type EventFilter struct {
	Severity *EventSeverity `json:"severity,omitempty"`
	Category *EventCategory `json:"category,omitempty"`
	Since    *time.Time     `json:"since,omitempty"`
}

// EventEmitter is the interface for components that emit events.
type EventEmitter interface {
	// EmitInfo records an info-level event.
	EmitInfo(category EventCategory, source, message string, metadata EventMetadata)

	// EmitWarning records a warning-level event.
	EmitWarning(category EventCategory, source, message string, metadata EventMetadata)

	// EmitError records an error-level event.
	EmitError(category EventCategory, source, message string, metadata EventMetadata)

	// EmitSuccess records a success-level event.
	EmitSuccess(category EventCategory, source, message string, metadata EventMetadata)
}

// EventQuery represents a query for events with pagination.
type EventQuery struct {
	Filter EventFilter `json:"filter"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// EventQueryResult contains the result of an event query.
type EventQueryResult struct {
	Events  []Event `json:"events"`
	Total   int     `json:"total"`
	HasMore bool    `json:"has_more"`
}

// NopEmitter discards every event.
type NopEmitter struct{}

func (NopEmitter) EmitInfo(EventCategory, string, string, EventMetadata)    {}
func (NopEmitter) EmitWarning(EventCategory, string, string, EventMetadata) {}
func (NopEmitter) EmitError(EventCategory, string, string, EventMetadata)   {}
func (NopEmitter) EmitSuccess(EventCategory, string, string, EventMetadata) {}
