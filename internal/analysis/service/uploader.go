package service

import (
	"context"
	"io"
	"net/http"

	uploadclient "github.com/plagscan/plagscan-dashboard/internal/upload/client"
	"github.com/plagscan/plagscan-dashboard/internal/upload/domain"
)

// FileSaver is the in-process side of the upload gateway
type FileSaver interface {
	Save(ctx context.Context, originalName string, content io.Reader) (*domain.StoredFile, error)
}

// LocalUploader stores files through the gateway's service without an HTTP
// round trip. Failures surface the status the gateway would have answered.
type LocalUploader struct {
	saver FileSaver
}

// NewLocalUploader creates a new in-process uploader
func NewLocalUploader(saver FileSaver) *LocalUploader {
	return &LocalUploader{saver: saver}
}

// Upload implements Uploader
func (u *LocalUploader) Upload(ctx context.Context, name string, content io.Reader) (string, error) {
	file, err := u.saver.Save(ctx, name, content)
	if err != nil {
		return "", &uploadclient.StatusError{StatusCode: http.StatusInternalServerError}
	}
	return file.FilePath, nil
}
