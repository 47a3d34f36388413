package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/grounder-ai/grounder/internal/config"
	"github.com/grounder-ai/grounder/internal/models"
	"github.com/grounder-ai/grounder/pkg/logger"
)

// Client creates model responses. It is satisfied by HTTPClient and by test
// stubs.
type Client interface {
	CreateResponse(ctx context.Context, req *models.ResponsesRequest) (*models.ResponsesResponse, error)
}

// HTTPClient talks to an OpenAI-compatible Responses API endpoint
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a new Responses API client from config
func NewHTTPClient(cfg *config.LLMConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}
}

// CreateResponse sends the request to POST <base_url>/responses
func (c *HTTPClient) CreateResponse(ctx context.Context, req *models.ResponsesRequest) (*models.ResponsesResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/responses"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug("model response",
		zap.Int("status", resp.StatusCode),
		zap.String("body", string(body)),
	)

	if resp.StatusCode >= 400 {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("model API error: %s (status %d)", errResp.Error.Message, resp.StatusCode)
		}
		return nil, fmt.Errorf("model API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var modelResp models.ResponsesResponse
	if err := json.Unmarshal(body, &modelResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &modelResp, nil
}
