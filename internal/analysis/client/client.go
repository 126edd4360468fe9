package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
)

const checkPlagiarismPath = "/api/check-plagiarism"

// StatusError is returned when the analysis service answers with a non-2xx status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Server responded with status: %d", e.StatusCode)
}

// AnalysisClient calls the external analysis service
type AnalysisClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewAnalysisClient creates a new analysis service client. The client sets no
// timeout: an analysis runs to completion or failure.
func NewAnalysisClient(baseURL string, log *logger.Logger) *AnalysisClient {
	return &AnalysisClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     log,
	}
}

// WithHTTPClient swaps the underlying HTTP client
func (c *AnalysisClient) WithHTTPClient(hc *http.Client) *AnalysisClient {
	c.httpClient = hc
	return c
}

// CheckPlagiarism issues exactly one analysis request
func (c *AnalysisClient) CheckPlagiarism(ctx context.Context, req domain.CheckRequest) (*domain.Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+checkPlagiarismPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info().
		Str("pdf_url", req.PDFURL).
		Bool("check_online_sources", req.CheckOnlineSources).
		Int("num_papers", req.NumPapers).
		Msg("requesting plagiarism analysis")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to call analysis service")
		return nil, fmt.Errorf("failed to call analysis service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error().Int("status", resp.StatusCode).Msg("analysis request failed")
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var result domain.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Info().
		Float64("overall_score", result.OverallScore()).
		Int("sources", len(result.Sources())).
		Msg("plagiarism analysis completed")

	return &result, nil
}
