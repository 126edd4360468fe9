package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/plagscan/plagscan-dashboard/internal/upload/domain"
	"github.com/plagscan/plagscan-dashboard/internal/upload/storage"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
	"golang.org/x/crypto/blake2b"
)

// maxNameAttempts bounds retries when a generated name is already taken
const maxNameAttempts = 3

// Service stores uploaded documents and hands back their public path
type Service struct {
	store            storage.Store
	namer            *storage.Namer
	publicPrefix     string
	advisoryMaxBytes int64
	log              *logger.Logger
}

// NewService creates a new upload service
func NewService(store storage.Store, namer *storage.Namer, publicPrefix string, advisoryMaxBytes int64, log *logger.Logger) *Service {
	return &Service{
		store:            store,
		namer:            namer,
		publicPrefix:     normalizePrefix(publicPrefix),
		advisoryMaxBytes: advisoryMaxBytes,
		log:              log.WithComponent("upload"),
	}
}

// Save writes content verbatim under a fresh timestamped name
func (s *Service) Save(ctx context.Context, originalName string, content io.Reader) (*domain.StoredFile, error) {
	h := newChecksum()
	tee := io.TeeReader(content, h)

	var (
		name string
		size int64
		err  error
	)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name = s.namer.Next(originalName)
		size, err = s.store.Save(ctx, name, tee)
		if !errors.Is(err, domain.ErrExists) {
			break
		}
		s.log.Warn().Str("name", name).Msg("stored name taken, retrying with next timestamp")
	}
	if err != nil {
		s.log.Error().Err(err).Str("original_name", originalName).Msg("failed to store upload")
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	file := &domain.StoredFile{
		Name:     name,
		FilePath: s.PathFor(name),
		Size:     size,
		Checksum: hex.EncodeToString(h.Sum(nil)),
	}

	event := s.log.Info()
	if s.advisoryMaxBytes > 0 && size > s.advisoryMaxBytes {
		event = s.log.Warn()
	}
	event.
		Int64("advisory_max_bytes", s.advisoryMaxBytes).
		Str("name", file.Name).
		Int64("size", file.Size).
		Str("blake2b", file.Checksum).
		Str("backend", s.store.Backend()).
		Msg("upload stored")

	return file, nil
}

// Open returns a stored file by name
func (s *Service) Open(ctx context.Context, name string) (*storage.Object, error) {
	return s.store.Open(ctx, name)
}

// PathFor returns the root-relative public path of a stored name
func (s *Service) PathFor(name string) string {
	return s.publicPrefix + "/" + name
}

// Limits reports the advisory limits shown to clients
func (s *Service) Limits() domain.Limits {
	return domain.Limits{
		AdvisoryMaxBytes: s.advisoryMaxBytes,
		Backend:          s.store.Backend(),
	}
}

func newChecksum() hash.Hash {
	// blake2b.New256 only fails for an oversized key
	h, _ := blake2b.New256(nil)
	return h
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}
