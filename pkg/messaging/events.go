package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisFailed    = "analysis.failed"
)

// ExchangeAnalysisEvents carries analysis lifecycle events
const ExchangeAnalysisEvents = "analysis.events"

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// AnalysisCompletedEvent is published when the analysis service returned a report
type AnalysisCompletedEvent struct {
	SubmissionID   string  `json:"submission_id"`
	PDFURL         string  `json:"pdf_url"`
	OverallScore   float64 `json:"overall_score"`
	Band           string  `json:"band"`
	SourceCount    int     `json:"source_count"`
	IsAIGenerated  bool    `json:"is_ai_generated"`
	TotalWordCount int     `json:"total_word_count"`
}

// AnalysisFailedEvent is published when a submission ended in the error state
type AnalysisFailedEvent struct {
	SubmissionID string `json:"submission_id"`
	PDFURL       string `json:"pdf_url,omitempty"`
	Message      string `json:"message"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.NewString()
}
