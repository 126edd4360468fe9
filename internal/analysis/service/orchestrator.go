package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/internal/report/repository"
	uploadclient "github.com/plagscan/plagscan-dashboard/internal/upload/client"
	apperrors "github.com/plagscan/plagscan-dashboard/pkg/errors"
	"github.com/plagscan/plagscan-dashboard/pkg/httputil"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
)

// Uploader sends a local document to the upload gateway and returns its filePath
type Uploader interface {
	Upload(ctx context.Context, name string, content io.Reader) (string, error)
}

// Analyzer calls the external analysis service
type Analyzer interface {
	CheckPlagiarism(ctx context.Context, req domain.CheckRequest) (*domain.Result, error)
}

// EventPublisher announces how a submission ended
type EventPublisher interface {
	PublishCompleted(ctx context.Context, submissionID, pdfURL string, result *domain.Result)
	PublishFailed(ctx context.Context, submissionID, pdfURL, message string)
}

// Dependencies are the collaborators of an Orchestrator. Handoff and Events
// are optional.
type Dependencies struct {
	Uploader      Uploader
	Analyzer      Analyzer
	Handoff       repository.HandoffStore
	Events        EventPublisher
	PublicBaseURL string
}

// LocalFile is a document picked on the client side, not yet uploaded
type LocalFile struct {
	Name    string
	Content io.Reader
}

// Submission is one press of the "check" button. A local file wins over an
// already uploaded FilePath, which wins over PDFURL.
type Submission struct {
	File     *LocalFile
	FilePath string
	PDFURL   string
	Config   domain.Configuration
}

func (s Submission) hasInput() bool {
	return s.File != nil || s.FilePath != "" || strings.TrimSpace(s.PDFURL) != ""
}

func (s Submission) input() domain.FormInput {
	in := domain.FormInput{
		FilePath: s.FilePath,
		PDFURL:   s.PDFURL,
		Config:   s.Config,
	}
	if s.File != nil {
		in.FileName = s.File.Name
	}
	return in
}

// Orchestrator drives the request lifecycle of one form instance:
// Idle -> Loading -> Results | Error. Only one submission may be in flight.
type Orchestrator struct {
	id   string
	deps Dependencies
	log  *logger.Logger

	mu    sync.RWMutex
	state domain.Lifecycle
}

// NewOrchestrator creates an orchestrator in the Idle state
func NewOrchestrator(id string, deps Dependencies, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		id:   id,
		deps: deps,
		log:  log.WithSubmissionID(id),
		state: domain.Lifecycle{
			ID:        id,
			State:     domain.StateIdle,
			Input:     domain.FormInput{Config: domain.DefaultConfiguration()},
			UpdatedAt: time.Now().UTC(),
		},
	}
}

// ID returns the orchestrator id
func (o *Orchestrator) ID() string { return o.id }

// State returns a snapshot of the current lifecycle
func (o *Orchestrator) State() domain.Lifecycle {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Submit validates the submission and runs it to completion
func (o *Orchestrator) Submit(ctx context.Context, sub Submission) (domain.Lifecycle, error) {
	if lc, err := o.Begin(sub); err != nil {
		return lc, err
	}
	return o.Run(ctx, sub), nil
}

// Begin validates the submission and moves to Loading. Without any input,
// or with out-of-range thresholds, the orchestrator stays Idle with a
// message and no request is issued.
func (o *Orchestrator) Begin(sub Submission) (domain.Lifecycle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.State == domain.StateLoading {
		return o.state, domain.ErrSubmissionInFlight
	}

	if !sub.hasInput() {
		o.set(domain.StateIdle, nil, domain.NoInputMessage, sub.input())
		return o.state, domain.ErrNoInput
	}

	if err := httputil.Validate(sub.Config.Thresholds); err != nil {
		o.set(domain.StateIdle, nil, thresholdMessage(err), sub.input())
		return o.state, err
	}

	o.set(domain.StateLoading, nil, "", sub.input())
	return o.state, nil
}

// Run performs the upload (if any) and the single analysis request. It must
// follow a successful Begin.
func (o *Orchestrator) Run(ctx context.Context, sub Submission) domain.Lifecycle {
	input := sub.input()
	filePath := sub.FilePath

	if sub.File != nil {
		path, err := o.deps.Uploader.Upload(ctx, sub.File.Name, sub.File.Content)
		if err != nil {
			o.log.Error().Err(err).Str("file_name", sub.File.Name).Msg("upload failed, analysis skipped")
			return o.fail(ctx, "", uploadMessage(err), input)
		}
		filePath = path
		input.FilePath = path
	}

	pdfURL := domain.DocumentReference{FilePath: filePath, PDFURL: sub.PDFURL}.Resolve(o.deps.PublicBaseURL)

	result, err := o.deps.Analyzer.CheckPlagiarism(ctx, domain.NewCheckRequest(pdfURL, sub.Config))
	if err != nil {
		return o.fail(ctx, pdfURL, "Error: "+err.Error(), input)
	}

	o.mu.Lock()
	o.set(domain.StateResults, result, "", input)
	lc := o.state
	o.mu.Unlock()

	o.log.Info().
		Str("pdf_url", pdfURL).
		Float64("overall_score", result.OverallScore()).
		Msg("analysis finished")

	if o.deps.Handoff != nil {
		if err := o.deps.Handoff.Save(ctx, repository.ReportDataKey, result); err != nil {
			o.log.Warn().Err(err).Msg("failed to store report handoff")
		}
	}
	if o.deps.Events != nil {
		o.deps.Events.PublishCompleted(ctx, o.id, pdfURL, result)
	}

	return lc
}

func (o *Orchestrator) fail(ctx context.Context, pdfURL, message string, input domain.FormInput) domain.Lifecycle {
	o.mu.Lock()
	o.set(domain.StateError, nil, message, input)
	lc := o.state
	o.mu.Unlock()

	o.log.Warn().Str("message", message).Msg("analysis failed")

	if o.deps.Events != nil {
		o.deps.Events.PublishFailed(ctx, o.id, pdfURL, message)
	}
	return lc
}

// set must be called with o.mu held
func (o *Orchestrator) set(state domain.State, result *domain.Result, message string, input domain.FormInput) {
	o.state = domain.Lifecycle{
		ID:        o.id,
		State:     state,
		Result:    result,
		Message:   message,
		Input:     input,
		UpdatedAt: time.Now().UTC(),
	}
}

func uploadMessage(err error) string {
	var statusErr *uploadclient.StatusError
	if errors.As(err, &statusErr) {
		return "Error: Failed to save file: " + statusErr.Error()
	}
	return "Error: " + err.Error()
}

func thresholdMessage(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || len(appErr.Details) == 0 {
		return "Invalid thresholds"
	}

	fields := make([]string, 0, len(appErr.Details))
	for field := range appErr.Details {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s %s", strings.ToLower(field), appErr.Details[field]))
	}
	return "Invalid thresholds: " + strings.Join(parts, ", ")
}
