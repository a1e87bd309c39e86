// Package backend implements the HTTP client for the storefront's private
// REST API. Every response follows the {message, data} envelope; non-2xx
// responses are mapped to error envelopes carrying the backend's message.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quintor/shopdesk/internal/config"
	"github.com/quintor/shopdesk/internal/observability"
	"github.com/quintor/shopdesk/model"
)

// Credential header names expected by the storefront API.
const (
	headerAccessID     = "X-Access-Id"
	headerAccessSecret = "X-Access-Secret"
)

// envelope is the storefront's standard response wrapper.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Issues  []issue         `json:"issues"`
}

// issue is a single backend validation complaint. Some endpoints return
// bare strings, others {message} objects; both decode here.
type issue struct {
	Message string
}

func (i *issue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		i.Message = s
		return nil
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	i.Message = obj.Message
	return nil
}

// Client calls the storefront private API. It attaches the two static
// access-credential headers read once at construction; there are no
// retries and no response caching.
type Client struct {
	baseURL      string
	accessID     string
	accessSecret string
	httpClient   *http.Client
	metrics      *observability.Metrics
}

// SetMetrics attaches a metrics sink for request counters and timings.
func (c *Client) SetMetrics(m *observability.Metrics) {
	c.metrics = m
}

// NewClient builds a Client from configuration. Missing credentials are
// logged but not fatal; requests are still attempted and will fail
// backend-side authorization.
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	accessID := os.Getenv(cfg.AccessIDEnv)
	accessSecret := os.Getenv(cfg.AccessSecretEnv)
	if accessID == "" || accessSecret == "" {
		logger.Warn("backend credentials not configured; requests will likely be rejected",
			zap.String("access_id_env", cfg.AccessIDEnv),
			zap.String("access_secret_env", cfg.AccessSecretEnv),
		)
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		accessID:     accessID,
		accessSecret: accessSecret,
		httpClient:   newHTTPClient(cfg.Timeout),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Invoke builds and executes one HTTP request for the given operation.
// The returned InvocationResult carries the unwrapped envelope data.
func (c *Client) Invoke(ctx context.Context, op model.OperationDefinition, input model.InvocationInput) (model.InvocationResult, error) {
	reqURL := c.buildURL(op, input)

	var body io.Reader
	if input.Body != nil {
		b, err := json.Marshal(input.Body)
		if err != nil {
			return model.InvocationResult{}, fmt.Errorf("backend: marshal body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, reqURL, body)
	if err != nil {
		return model.InvocationResult{}, fmt.Errorf("backend: build request: %w", err)
	}
	c.setHeaders(ctx, req, op.Method)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordBackendRequest(op.Method, 0, time.Since(start))
		}
		if ctx.Err() != nil {
			return model.InvocationResult{}, model.NewBackendTimeoutError()
		}
		if isConnectionError(err) {
			return model.InvocationResult{}, model.NewBackendUnavailableError()
		}
		return model.InvocationResult{}, fmt.Errorf("backend: request failed: %w", err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordBackendRequest(op.Method, resp.StatusCode, time.Since(start))
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20)) // 10MB limit
	if err != nil {
		return model.InvocationResult{}, fmt.Errorf("backend: read response: %w", err)
	}

	var env envelope
	if len(respBody) > 0 {
		// A non-JSON body is tolerated; the envelope stays zero.
		_ = json.Unmarshal(respBody, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.InvocationResult{}, errorFromResponse(resp.StatusCode, env)
	}

	result := model.InvocationResult{
		StatusCode: resp.StatusCode,
		Message:    env.Message,
	}
	if len(env.Data) > 0 {
		var data any
		if err := json.Unmarshal(env.Data, &data); err == nil {
			result.Data = data
		}
	}
	return result, nil
}

// buildURL substitutes path parameters into the operation path template and
// appends query parameters.
func (c *Client) buildURL(op model.OperationDefinition, input model.InvocationInput) string {
	path := op.Path
	for name, value := range input.PathParams {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}

	result := c.baseURL + path

	if len(input.QueryParams) > 0 {
		params := url.Values{}
		for k, v := range input.QueryParams {
			params.Set(k, v)
		}
		result += "?" + params.Encode()
	}
	return result
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, method string) {
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(headerAccessID, sanitizeHeader(c.accessID))
	req.Header.Set(headerAccessSecret, sanitizeHeader(c.accessSecret))
	if cid := model.CorrelationIDFrom(ctx); cid != "" {
		req.Header.Set("X-Correlation-Id", sanitizeHeader(cid))
	}
}

// errorFromResponse maps a non-2xx backend response to an error envelope.
// The backend's message or issues list takes precedence; a bare status is
// the fallback.
func errorFromResponse(status int, env envelope) *model.ErrorEnvelope {
	msg := env.Message
	if len(env.Issues) > 0 {
		parts := make([]string, 0, len(env.Issues))
		for _, is := range env.Issues {
			if is.Message != "" {
				parts = append(parts, is.Message)
			}
		}
		if len(parts) > 0 {
			msg = strings.Join(parts, "; ")
		}
	}

	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		// Backend-side rejections of the request are client errors,
		// not gateway failures.
		if msg == "" {
			msg = "the backend rejected the request"
		}
		return model.NewBadRequestError(msg)
	case http.StatusNotFound:
		if msg == "" {
			msg = "resource not found"
		}
		return model.NewNotFoundError(msg)
	case http.StatusConflict:
		if msg == "" {
			msg = "resource conflict"
		}
		return model.NewConflictError(msg)
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return model.NewBackendUnavailableError()
	case http.StatusGatewayTimeout:
		return model.NewBackendTimeoutError()
	default:
		return model.NewBackendError(msg, status)
	}
}

// HealthCheck probes the backend base URL. Only connectivity matters
// here; any HTTP status counts as reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// sanitizeHeader strips newlines and carriage returns to prevent header
// injection.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
