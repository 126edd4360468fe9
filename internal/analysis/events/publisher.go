package events

import (
	"context"

	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/internal/report"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
	"github.com/plagscan/plagscan-dashboard/pkg/messaging"
)

// EventPublisher is the transport the analysis events go through
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// AnalysisEventPublisher publishes analysis lifecycle events
type AnalysisEventPublisher struct {
	publisher EventPublisher
	logger    *logger.Logger
}

// NewAnalysisEventPublisher creates a new analysis event publisher
func NewAnalysisEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*AnalysisEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeAnalysisEvents, "dashboard-server", log)
	if err != nil {
		return nil, err
	}

	return NewWithPublisher(publisher, log), nil
}

// NewWithPublisher wraps an existing publisher
func NewWithPublisher(p EventPublisher, log *logger.Logger) *AnalysisEventPublisher {
	return &AnalysisEventPublisher{
		publisher: p,
		logger:    log,
	}
}

// PublishCompleted publishes an analysis completed event
func (p *AnalysisEventPublisher) PublishCompleted(ctx context.Context, submissionID, pdfURL string, result *domain.Result) {
	data := messaging.AnalysisCompletedEvent{
		SubmissionID:   submissionID,
		PDFURL:         pdfURL,
		OverallScore:   result.OverallScore(),
		Band:           string(report.BandFor(result.OverallScore())),
		SourceCount:    len(result.Sources()),
		IsAIGenerated:  result.IsAIGenerated(),
		TotalWordCount: result.WordCount(),
	}

	if err := p.publisher.Publish(ctx, messaging.EventAnalysisCompleted, data); err != nil {
		p.logger.Error().Err(err).Str("submission_id", submissionID).Msg("failed to publish analysis completed event")
	}
}

// PublishFailed publishes an analysis failed event
func (p *AnalysisEventPublisher) PublishFailed(ctx context.Context, submissionID, pdfURL, message string) {
	data := messaging.AnalysisFailedEvent{
		SubmissionID: submissionID,
		PDFURL:       pdfURL,
		Message:      message,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAnalysisFailed, data); err != nil {
		p.logger.Error().Err(err).Str("submission_id", submissionID).Msg("failed to publish analysis failed event")
	}
}
