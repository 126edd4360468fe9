package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/plagscan/plagscan-dashboard/internal/upload/domain"
	"github.com/plagscan/plagscan-dashboard/internal/upload/storage"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func fixedNamer(ms int64) *storage.Namer {
	return storage.NewNamerWithClock(func() time.Time { return time.UnixMilli(ms) })
}

func TestSave_ReturnsPublicPathAndChecksum(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(storage.NewDiskStore(dir), fixedNamer(1700000000000), "/uploads", 10<<20, logger.Nop())

	content := []byte("%PDF-1.7 test document")
	file, err := svc.Save(context.Background(), "paper.pdf", bytes.NewReader(content))
	require.NoError(t, err)

	sum := blake2b.Sum256(content)
	assert.Equal(t, "1700000000000-paper.pdf", file.Name)
	assert.Equal(t, "/uploads/1700000000000-paper.pdf", file.FilePath)
	assert.Equal(t, int64(len(content)), file.Size)
	assert.Equal(t, hex.EncodeToString(sum[:]), file.Checksum)

	data, err := os.ReadFile(filepath.Join(dir, file.Name))
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestSave_SameNameTwiceGivesDistinctPaths(t *testing.T) {
	svc := NewService(storage.NewDiskStore(t.TempDir()), fixedNamer(1700000000000), "uploads/", 0, logger.Nop())

	a, err := svc.Save(context.Background(), "paper.pdf", strings.NewReader("one"))
	require.NoError(t, err)
	b, err := svc.Save(context.Background(), "paper.pdf", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, a.FilePath, b.FilePath)
	assert.Equal(t, "/uploads/1700000000001-paper.pdf", b.FilePath)
}

func TestSave_RetriesWhenNameTaken(t *testing.T) {
	dir := t.TempDir()
	// a file from an earlier process already occupies the first name
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1700000000000-paper.pdf"), []byte("old"), 0o644))

	svc := NewService(storage.NewDiskStore(dir), fixedNamer(1700000000000), "/uploads", 0, logger.Nop())
	file, err := svc.Save(context.Background(), "paper.pdf", strings.NewReader("new"))
	require.NoError(t, err)
	assert.Equal(t, "1700000000001-paper.pdf", file.Name)

	old, err := os.ReadFile(filepath.Join(dir, "1700000000000-paper.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestSave_OversizedFileIsStillAccepted(t *testing.T) {
	svc := NewService(storage.NewDiskStore(t.TempDir()), storage.NewNamer(), "/uploads", 4, logger.Nop())

	file, err := svc.Save(context.Background(), "big.pdf", strings.NewReader("more than four bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(20), file.Size)
}

type brokenStore struct{}

func (brokenStore) Save(context.Context, string, io.Reader) (int64, error) {
	return 0, errors.New("disk full")
}

func (brokenStore) Open(context.Context, string) (*storage.Object, error) {
	return nil, domain.ErrNotFound
}

func (brokenStore) Backend() string { return "broken" }

func TestSave_StoreFailure(t *testing.T) {
	svc := NewService(brokenStore{}, storage.NewNamer(), "/uploads", 0, logger.Nop())

	_, err := svc.Save(context.Background(), "paper.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, "/uploads/x.pdf", NewService(brokenStore{}, storage.NewNamer(), "/uploads/", 0, logger.Nop()).PathFor("x.pdf"))
	assert.Equal(t, "/files/x.pdf", NewService(brokenStore{}, storage.NewNamer(), "files", 0, logger.Nop()).PathFor("x.pdf"))
	assert.Equal(t, "/x.pdf", NewService(brokenStore{}, storage.NewNamer(), "", 0, logger.Nop()).PathFor("x.pdf"))
}

func TestLimits(t *testing.T) {
	svc := NewService(storage.NewDiskStore(t.TempDir()), storage.NewNamer(), "/uploads", 10<<20, logger.Nop())
	assert.Equal(t, domain.Limits{AdvisoryMaxBytes: 10 << 20, Backend: "disk"}, svc.Limits())
}
