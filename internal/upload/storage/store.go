package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/plagscan/plagscan-dashboard/internal/upload/domain"
)

// Store persists uploaded bytes under a flat name. Save must refuse to
// overwrite an existing name and report domain.ErrExists instead.
type Store interface {
	Save(ctx context.Context, name string, content io.Reader) (int64, error)
	Open(ctx context.Context, name string) (*Object, error)
	Backend() string
}

// Object is an opened stored file. Callers must close Body.
type Object struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
	Body        io.ReadSeekCloser
}

// Namer produces "<millis>-<base name>" names. The timestamp never repeats
// within a process: a second call in the same millisecond is bumped by one.
type Namer struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewNamer creates a namer backed by the wall clock
func NewNamer() *Namer {
	return &Namer{now: time.Now}
}

// NewNamerWithClock creates a namer with a custom clock
func NewNamerWithClock(now func() time.Time) *Namer {
	return &Namer{now: now}
}

// Next returns a fresh stored name for original
func (n *Namer) Next(original string) string {
	n.mu.Lock()
	ts := n.now().UnixMilli()
	if ts <= n.last {
		ts = n.last + 1
	}
	n.last = ts
	n.mu.Unlock()

	return fmt.Sprintf("%d-%s", ts, BaseName(original))
}

// BaseName strips any directory part a client put into the filename
func BaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return "file"
	}
	return base
}

// checkName rejects names that are not a single path element
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return domain.ErrInvalidName
	}
	return nil
}
