package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/pkg/errors"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
)

// Service runs submissions in the background on behalf of HTTP callers
type Service struct {
	deps  Dependencies
	store *SubmissionStore
	log   *logger.Logger
}

// NewService creates a new analysis service
func NewService(deps Dependencies, store *SubmissionStore, log *logger.Logger) *Service {
	return &Service{
		deps:  deps,
		store: store,
		log:   log.WithComponent("analysis"),
	}
}

// Start validates sub and, when it has input, runs it asynchronously. The run
// is detached from ctx cancellation so a dropped client connection does not
// abandon the analysis.
func (s *Service) Start(ctx context.Context, sub Submission) (domain.Lifecycle, error) {
	o := NewOrchestrator(uuid.NewString(), s.deps, s.log)

	lc, err := o.Begin(sub)
	if err != nil {
		return lc, err
	}
	s.store.Put(o)

	runCtx := context.WithoutCancel(ctx)
	go o.Run(runCtx, sub)

	return lc, nil
}

// Get returns the lifecycle of a submission
func (s *Service) Get(id string) (domain.Lifecycle, error) {
	o := s.store.Get(id)
	if o == nil {
		return domain.Lifecycle{}, errors.NotFound("submission")
	}
	return o.State(), nil
}
