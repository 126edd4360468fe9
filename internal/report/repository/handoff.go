package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
)

// ReportDataKey is the single key the dashboard hands results over under
const ReportDataKey = "reportData"

// ErrNoReportData is returned when nothing is stored under a key
var ErrNoReportData = errors.New("no report data available")

// HandoffStore keeps JSON-serialized results by key. Writes are
// last-write-wins; there is no versioning or expiry.
type HandoffStore interface {
	Save(ctx context.Context, key string, result *domain.Result) error
	Load(ctx context.Context, key string) (*domain.Result, error)
}

// MemoryHandoffStore is a process-local HandoffStore
type MemoryHandoffStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryHandoffStore creates an empty in-memory store
func NewMemoryHandoffStore() *MemoryHandoffStore {
	return &MemoryHandoffStore{data: make(map[string][]byte)}
}

// Save implements HandoffStore
func (s *MemoryHandoffStore) Save(ctx context.Context, key string, result *domain.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode report data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = payload
	return nil
}

// Load implements HandoffStore
func (s *MemoryHandoffStore) Load(ctx context.Context, key string) (*domain.Result, error) {
	s.mu.RLock()
	payload, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNoReportData
	}
	return decode(payload)
}

func decode(payload []byte) (*domain.Result, error) {
	var result domain.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode report data: %w", err)
	}
	return &result, nil
}
