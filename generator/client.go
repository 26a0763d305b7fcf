package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/santiagomed/infragenie/core"
	"github.com/santiagomed/infragenie/logger"
)

// maxResponseBytes caps how much of a response body is read.
var maxResponseBytes int64 = 16 << 20

// Client turns a request into a generated Terraform file set.
type Client interface {
	Generate(ctx context.Context, req core.GenerationRequest) (*core.GenerationResult, error)
}

// HTTPClient posts requests to the generation endpoint.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	logger     logger.Logger
}

// NewHTTPClient creates a client for endpoint. Timeouts are left to the
// caller's context.
func NewHTTPClient(endpoint string, l logger.Logger) (*HTTPClient, error) {
	if endpoint == "" {
		return nil, errors.New("generation endpoint is required")
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &HTTPClient{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		logger:     l,
	}, nil
}

func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

func (c *HTTPClient) Generate(ctx context.Context, req core.GenerationRequest) (*core.GenerationResult, error) {
	if _, err := core.NewGenerationRequest(req.CloudProvider, req.Prompt, req.AIProvider); err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	log := c.logger.WithField("request_id", requestID)
	log.Info(fmt.Sprintf("Sending generation request to %s (cloud=%s, provider=%s)", c.endpoint, req.CloudProvider, req.AIProvider))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Error(fmt.Sprintf("Generation request failed: %v", err))
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("error reading response body: %w", err)}
	}
	if int64(len(body)) > maxResponseBytes {
		log.Error(fmt.Sprintf("Generation response exceeds %d bytes", maxResponseBytes))
		return nil, &DecodeError{Err: fmt.Errorf("response body exceeds %d bytes", maxResponseBytes)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn(fmt.Sprintf("Generation endpoint returned %s", resp.Status))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	result, err := core.DecodeResult(body)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to decode generation response: %v", err))
		return nil, &DecodeError{Err: err}
	}

	log.Info(fmt.Sprintf("Received %d files in %v", result.Infrastructure.Len(), time.Since(start)))
	return result, nil
}
