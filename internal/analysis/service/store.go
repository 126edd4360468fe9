package service

import (
	"sync"
	"time"

	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
)

// SubmissionStore keeps server-side orchestrators queryable by id.
// Finished submissions are dropped after a TTL; running ones are kept.
type SubmissionStore struct {
	mu    sync.RWMutex
	items map[string]*Orchestrator
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

const defaultSubmissionTTL = time.Hour

// NewSubmissionStore creates a store and starts its cleanup loop
func NewSubmissionStore(ttl time.Duration) *SubmissionStore {
	if ttl <= 0 {
		ttl = defaultSubmissionTTL
	}
	s := &SubmissionStore{
		items: make(map[string]*Orchestrator),
		ttl:   ttl,
		done:  make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Put stores an orchestrator under its id
func (s *SubmissionStore) Put(o *Orchestrator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[o.ID()] = o
}

// Get returns the orchestrator for id, or nil
func (s *SubmissionStore) Get(id string) *Orchestrator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[id]
}

// Len returns the number of stored submissions
func (s *SubmissionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close stops the cleanup loop
func (s *SubmissionStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *SubmissionStore) cleanupLoop() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup(time.Now())
		}
	}
}

func (s *SubmissionStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	for id, o := range s.items {
		lc := o.State()
		if lc.State != domain.StateLoading && lc.UpdatedAt.Before(cutoff) {
			delete(s.items, id)
		}
	}
}
