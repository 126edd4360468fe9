package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	uploadclient "github.com/plagscan/plagscan-dashboard/internal/upload/client"
	uploaddomain "github.com/plagscan/plagscan-dashboard/internal/upload/domain"
	apperrors "github.com/plagscan/plagscan-dashboard/pkg/errors"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
	"github.com/plagscan/plagscan-dashboard/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_StartRunsInBackground(t *testing.T) {
	f := newFixture()
	store := NewSubmissionStore(time.Hour)
	defer store.Close()
	svc := NewService(f.deps, store, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	lc, err := svc.Start(ctx, Submission{PDFURL: "https://example.com/a.pdf", Config: domain.DefaultConfiguration()})
	require.NoError(t, err)
	// the caller going away must not abandon the run
	cancel()

	assert.Equal(t, domain.StateLoading, lc.State)
	assert.NotEmpty(t, lc.ID)

	testutil.RequireEventually(t, func() bool {
		got, err := svc.Get(lc.ID)
		return err == nil && got.State == domain.StateResults
	}, 2*time.Second, 10*time.Millisecond, "submission never reached results")

	got, err := svc.Get(lc.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.42, got.Result.OverallScore())
}

func TestService_StartWithoutInput(t *testing.T) {
	f := newFixture()
	store := NewSubmissionStore(time.Hour)
	defer store.Close()
	svc := NewService(f.deps, store, logger.Nop())

	lc, err := svc.Start(context.Background(), Submission{Config: domain.DefaultConfiguration()})
	assert.ErrorIs(t, err, domain.ErrNoInput)
	assert.Equal(t, domain.StateIdle, lc.State)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, f.calls.all())
}

func TestService_GetUnknown(t *testing.T) {
	store := NewSubmissionStore(time.Hour)
	defer store.Close()
	svc := NewService(newFixture().deps, store, logger.Nop())

	_, err := svc.Get("missing")
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
}

func TestSubmissionStore_CleanupKeepsRunning(t *testing.T) {
	f := newFixture()
	store := NewSubmissionStore(time.Minute)
	defer store.Close()

	finished := NewOrchestrator("finished", f.deps, logger.Nop())
	_, err := finished.Submit(context.Background(), Submission{PDFURL: "https://example.com/a.pdf", Config: domain.DefaultConfiguration()})
	require.NoError(t, err)

	running := NewOrchestrator("running", f.deps, logger.Nop())
	_, err = running.Begin(Submission{PDFURL: "https://example.com/b.pdf", Config: domain.DefaultConfiguration()})
	require.NoError(t, err)

	store.Put(finished)
	store.Put(running)

	store.cleanup(time.Now())
	assert.Equal(t, 2, store.Len())

	store.cleanup(time.Now().Add(2 * time.Minute))
	assert.Nil(t, store.Get("finished"))
	assert.NotNil(t, store.Get("running"))
}

type fakeSaver struct {
	err error
}

func (f fakeSaver) Save(ctx context.Context, name string, content io.Reader) (*uploaddomain.StoredFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &uploaddomain.StoredFile{Name: "1-" + name, FilePath: "/uploads/1-" + name}, nil
}

func TestLocalUploader(t *testing.T) {
	path, err := NewLocalUploader(fakeSaver{}).Upload(context.Background(), "a.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1-a.pdf", path)

	_, err = NewLocalUploader(fakeSaver{err: errors.New("disk full")}).Upload(context.Background(), "a.pdf", strings.NewReader("x"))
	var statusErr *uploadclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "Failed to save file: Internal Server Error", "Failed to save file: "+err.Error())
}
