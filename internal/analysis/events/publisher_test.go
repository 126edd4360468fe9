package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/events"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
	"github.com/plagscan/plagscan-dashboard/pkg/messaging"
	"github.com/plagscan/plagscan-dashboard/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishCompleted(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := events.NewWithPublisher(mock, logger.Nop())

	result := &domain.Result{
		PlagiarismOverallScore: testutil.PtrFloat(0.45),
		TotalWordCount:         testutil.PtrInt(800),
		PlagiarismResults:      []domain.SourceMatch{{ReferenceID: "1"}, {ReferenceID: "2"}},
		AIDetectionResults:     &domain.AIDetection{OverallIsAIGenerated: testutil.PtrBool(true)},
	}

	p.PublishCompleted(context.Background(), "sub-1", "https://example.com/a.pdf", result)

	published := mock.Events()
	require.Len(t, published, 1)
	assert.Equal(t, messaging.EventAnalysisCompleted, published[0].Type)
	assert.Equal(t, messaging.AnalysisCompletedEvent{
		SubmissionID:   "sub-1",
		PDFURL:         "https://example.com/a.pdf",
		OverallScore:   0.45,
		Band:           "Medium",
		SourceCount:    2,
		IsAIGenerated:  true,
		TotalWordCount: 800,
	}, published[0].Payload)
}

func TestPublishFailed(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := events.NewWithPublisher(mock, logger.Nop())

	p.PublishFailed(context.Background(), "sub-2", "", "Error: Server responded with status: 500")

	published := mock.Events()
	require.Len(t, published, 1)
	assert.Equal(t, messaging.EventAnalysisFailed, published[0].Type)
	assert.Equal(t, messaging.AnalysisFailedEvent{
		SubmissionID: "sub-2",
		Message:      "Error: Server responded with status: 500",
	}, published[0].Payload)
}

func TestPublish_TransportErrorIsSwallowed(t *testing.T) {
	mock := testutil.NewMockPublisher()
	mock.Err = errors.New("channel closed")
	p := events.NewWithPublisher(mock, logger.Nop())

	assert.NotPanics(t, func() {
		p.PublishCompleted(context.Background(), "sub-3", "", &domain.Result{})
	})
	mock.AssertEventPublished(t, messaging.EventAnalysisCompleted)
}
