package share

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/internal/report/repository"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
)

const snapshotPrefix = "share:"

// SnapshotKey returns the handoff key a shared snapshot is stored under
func SnapshotKey(id string) string {
	return snapshotPrefix + id
}

// Service freezes the current report into a snapshot and hands out links to it
type Service struct {
	store   repository.HandoffStore
	manager *Manager
	logger  *logger.Logger
}

// NewService creates a new share service
func NewService(store repository.HandoffStore, manager *Manager, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		manager: manager,
		logger:  log.WithComponent("share"),
	}
}

// Share copies the report currently stored under ReportDataKey into a new
// snapshot and returns a signed token for it. Later analyses overwrite
// ReportDataKey but never the snapshot.
func (s *Service) Share(ctx context.Context) (*Token, error) {
	result, err := s.store.Load(ctx, repository.ReportDataKey)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	if err := s.store.Save(ctx, SnapshotKey(id), result); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	token, err := s.manager.Issue(id)
	if err != nil {
		return nil, fmt.Errorf("failed to sign share token: %w", err)
	}

	s.logger.Info().Str("snapshot_id", id).Time("expires_at", token.ExpiresAt).Msg("report shared")
	return token, nil
}

// Open resolves a share token to its snapshot
func (s *Service) Open(ctx context.Context, token string) (*domain.Result, error) {
	claims, err := s.manager.Parse(token)
	if err != nil {
		return nil, err
	}
	return s.store.Load(ctx, SnapshotKey(claims.SnapshotID))
}
