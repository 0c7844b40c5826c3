package graphql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
)

// ClientConfig configures the upstream GraphQL client
type ClientConfig struct {
	Headers          map[string]string
	Endpoint         string
	UserAgent        string
	Timeout          time.Duration
	RetryWaitMin     time.Duration
	RetryWaitMax     time.Duration
	OpenDuration     time.Duration
	RetryMax         int
	FailureThreshold int
}

// DefaultClientConfig returns the settings used when nothing is configured
func DefaultClientConfig(endpoint string) ClientConfig {
	return ClientConfig{
		Endpoint:         endpoint,
		UserAgent:        "Feedsync/1.0",
		Timeout:          10 * time.Second,
		RetryMax:         3,
		RetryWaitMin:     200 * time.Millisecond,
		RetryWaitMax:     2 * time.Second,
		FailureThreshold: 5,
		OpenDuration:     30 * time.Second,
	}
}

// Client posts GraphQL documents to one endpoint
type Client struct {
	http    *retryablehttp.Client
	breaker *circuitBreaker
	logger  *slog.Logger
	cfg     ClientConfig
}

type request struct {
	Variables     map[string]any `json:"variables,omitempty"`
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// NewClient creates a client with retries and a per-operation circuit breaker
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "graphql")

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = logger
	retryClient.CheckRetry = checkRetry
	// hand the last response back instead of a generic "giving up" error
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		http:    retryClient,
		breaker: newCircuitBreaker(cfg.FailureThreshold, cfg.OpenDuration, logger),
		logger:  logger,
		cfg:     cfg,
	}
}

// checkRetry retries connection errors and 5xx/429 responses. Mutations go
// through the same policy; the upstream treats vote writes as idempotent
// set operations.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Do sends doc with vars and decodes the response data into out.
// GraphQL errors are returned as *ResponseError.
func (c *Client) Do(ctx context.Context, doc Document, vars map[string]any, out any) error {
	if err := c.breaker.canAttempt(doc.Name); err != nil {
		return err
	}

	err := c.do(ctx, doc, vars, out)
	switch {
	case err == nil:
		c.breaker.recordSuccess(doc.Name)
	case isUpstreamFailure(err):
		c.breaker.recordFailure(doc.Name, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, doc Document, vars map[string]any, out any) error {
	body, err := json.Marshal(request{
		Query:         doc.Query,
		OperationName: doc.Name,
		Variables:     vars,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", doc.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Limit error body to 1KB to prevent unbounded reads
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Operation: doc.Name, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var gqlResp response
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("graphql operation completed",
		"operation", doc.Name,
		"mutation", doc.IsMutation(),
		"duration", time.Since(start),
		"errors", len(gqlResp.Errors))

	if len(gqlResp.Errors) > 0 {
		return &ResponseError{Operation: doc.Name, Errors: gqlResp.Errors}
	}
	if len(gqlResp.Data) == 0 || bytes.Equal(gqlResp.Data, []byte("null")) {
		return ErrNoData
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", doc.Name, err)
	}
	return nil
}

// StatusError is returned for responses other than 200 OK
type StatusError struct {
	Operation  string
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d: %s", ErrUnexpectedStatus, e.Operation, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// isUpstreamFailure reports whether err says the upstream is unhealthy, as
// opposed to rejecting this particular request
func isUpstreamFailure(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
