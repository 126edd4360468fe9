package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/plagscan/plagscan-dashboard/internal/upload/domain"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
)

const uploadPath = "/api/upload"

// StatusError is returned when the gateway answers with a non-2xx status.
// Its message is the HTTP status text, e.g. "Internal Server Error".
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return http.StatusText(e.StatusCode)
}

// GatewayClient posts documents to the upload gateway
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewGatewayClient creates a new upload gateway client
func NewGatewayClient(baseURL string, log *logger.Logger) *GatewayClient {
	return &GatewayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     log,
	}
}

// Upload sends content as multipart field "file" and returns the stored filePath
func (c *GatewayClient) Upload(ctx context.Context, name string, content io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile(domain.FormField, name)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to call upload gateway")
		return "", fmt.Errorf("failed to call upload gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error().Int("status", resp.StatusCode).Str("name", name).Msg("upload rejected")
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	var out domain.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}

	c.logger.Debug().Str("file_path", out.FilePath).Msg("document uploaded")
	return out.FilePath, nil
}
