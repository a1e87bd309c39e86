// Package integration provides a reusable harness for end-to-end testing
// of the shopdesk server. It starts the full HTTP router backed by a mock
// storefront API and a mock exchange-rate provider, loading the shipped
// definition files so the tests exercise the real YAML.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/quintor/shopdesk/internal/backend"
	"github.com/quintor/shopdesk/internal/command"
	"github.com/quintor/shopdesk/internal/config"
	"github.com/quintor/shopdesk/internal/definition"
	"github.com/quintor/shopdesk/internal/forms"
	"github.com/quintor/shopdesk/internal/metadata"
	"github.com/quintor/shopdesk/internal/observability"
	"github.com/quintor/shopdesk/internal/rates"
	"github.com/quintor/shopdesk/internal/search"
	"github.com/quintor/shopdesk/internal/transport"
	"github.com/quintor/shopdesk/model"
)

// TestHarness encapsulates a fully wired shopdesk instance with mock
// external services.
type TestHarness struct {
	t      *testing.T
	server *httptest.Server

	Registry   *definition.Registry
	Storefront *MockStorefront
	Rates      *MockRates
}

// HarnessOption configures the test harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	definitionDirs []string
	handlerTimeout time.Duration
	sessionTTL     time.Duration
}

// WithDefinitions overrides the definition directories to load. The
// default is the repository's shipped definitions directory.
func WithDefinitions(dirs ...string) HarnessOption {
	return func(c *harnessConfig) { c.definitionDirs = dirs }
}

// WithHandlerTimeout sets the per-request handler timeout.
func WithHandlerTimeout(d time.Duration) HarnessOption {
	return func(c *harnessConfig) { c.handlerTimeout = d }
}

// WithSessionTTL sets the form session time-to-live.
func WithSessionTTL(d time.Duration) HarnessOption {
	return func(c *harnessConfig) { c.sessionTTL = d }
}

// NewTestHarness creates and starts a full shopdesk test instance. The
// server and mocks are cleaned up when the test completes.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		handlerTimeout: 10 * time.Second,
		sessionTTL:     30 * time.Minute,
	}
	for _, opt := range opts {
		opt(hc)
	}
	if len(hc.definitionDirs) == 0 {
		hc.definitionDirs = []string{shippedDefinitionsDir()}
	}

	h := &TestHarness{
		t:          t,
		Storefront: newMockStorefront(t),
		Rates:      newMockRates(t),
	}

	t.Setenv("SHOPDESK_TEST_ACCESS_ID", "test-access-id")
	t.Setenv("SHOPDESK_TEST_ACCESS_SECRET", "test-access-secret")
	t.Setenv("SHOPDESK_TEST_RATES_KEY", "test-rates-key")

	cfg := config.Defaults()
	cfg.Server.HandlerTimeout = hc.handlerTimeout
	cfg.Server.CORS.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.Backend = config.BackendConfig{
		BaseURL:         h.Storefront.URL(),
		Timeout:         5 * time.Second,
		AccessIDEnv:     "SHOPDESK_TEST_ACCESS_ID",
		AccessSecretEnv: "SHOPDESK_TEST_ACCESS_SECRET",
	}
	cfg.Rates = config.RatesConfig{
		BaseURL:   h.Rates.URL(),
		APIKeyEnv: "SHOPDESK_TEST_RATES_KEY",
		Timeout:   5 * time.Second,
	}
	cfg.Observability.Metrics.Enabled = false

	logger := zap.NewNop()

	defs, err := definition.Load(hc.definitionDirs)
	if err != nil {
		t.Fatalf("load definitions: %v", err)
	}
	if verrs := definition.NewValidator().Validate(defs); len(verrs) > 0 {
		for _, ve := range verrs {
			t.Errorf("definition validation: %v", ve)
		}
		t.Fatalf("%d definition validation errors", len(verrs))
	}
	h.Registry = definition.NewRegistry(defs)

	backendClient := backend.NewClient(cfg.Backend, logger)
	rateClient := rates.NewClient(cfg.Rates, logger)

	lookupProvider := search.NewLookupProvider(h.Registry, backendClient,
		cfg.Lookup.Cache.TTL, cfg.Lookup.Cache.MaxEntries)

	formEngine := forms.NewEngine(h.Registry, backendClient, lookupProvider,
		forms.WithSessionTTL(hc.sessionTTL),
		forms.WithCalculator("currency-rate", rateClient),
	)

	router := transport.NewRouter(transport.Dependencies{
		Config:     cfg,
		Logger:     logger,
		Navigation: metadata.NewNavigationProvider(h.Registry),
		Pages:      metadata.NewPageProvider(h.Registry, backendClient, metadata.NewActionProvider()),
		Details:    metadata.NewDetailProvider(h.Registry, backendClient),
		Forms:      formEngine,
		Commands:   command.NewExecutor(h.Registry, backendClient),
		Lookups:    lookupProvider,
		Readiness: observability.ReadinessChecks{
			DefinitionsLoaded: func() bool { return len(h.Registry.AllDomains()) > 0 },
			Backend:           backendClient,
		},
	})

	h.server = httptest.NewServer(router)
	t.Cleanup(h.server.Close)
	return h
}

// BaseURL returns the test server's base URL.
func (h *TestHarness) BaseURL() string {
	return h.server.URL
}

// --- HTTP client helpers ---

// GET performs a GET request against the test server.
func (h *TestHarness) GET(path string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodGet, path, nil, nil)
}

// GETWithHeaders performs a GET request with additional headers.
func (h *TestHarness) GETWithHeaders(path string, headers map[string]string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodGet, path, nil, headers)
}

// POST performs a POST request with a JSON body.
func (h *TestHarness) POST(path string, body any) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodPost, path, body, nil)
}

// PUT performs a PUT request with a JSON body.
func (h *TestHarness) PUT(path string, body any) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodPut, path, body, nil)
}

// OPTIONS performs a preflight request with the given origin.
func (h *TestHarness) OPTIONS(path, origin string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodOptions, path, nil, map[string]string{"Origin": origin})
}

func (h *TestHarness) doRequest(method, path string, body any, headers map[string]string) *http.Response {
	h.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(context.Background(), method, h.server.URL+path, bodyReader)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// ParseJSON reads the response body and unmarshals it into the target.
func (h *TestHarness) ParseJSON(resp *http.Response, target any) {
	h.t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		h.t.Fatalf("unmarshal response body: %v\nbody: %s", err, string(data))
	}
}

// AssertStatus checks that the response has the expected status code.
func (h *TestHarness) AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Errorf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
}

// AssertJSON checks the status and parses the body into target.
func (h *TestHarness) AssertJSON(t *testing.T, resp *http.Response, expected int, target any) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
	h.ParseJSON(resp, target)
}

// AssertErrorCode checks the status and the error envelope code.
func (h *TestHarness) AssertErrorCode(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	var body struct {
		Error *model.ErrorEnvelope `json:"error"`
	}
	h.AssertJSON(t, resp, status, &body)
	if body.Error == nil {
		t.Fatal("response carries no error envelope")
	}
	if body.Error.Code != code {
		t.Errorf("error code = %q, want %q", body.Error.Code, code)
	}
}

// --- Fixtures ---

// Envelope wraps data in the storefront's standard response shape.
func Envelope(message string, data any) map[string]any {
	return map[string]any{"message": message, "data": data}
}

// ListFixture returns a {count, items} collection payload.
func ListFixture(count int, items ...map[string]any) map[string]any {
	list := make([]any, len(items))
	for i, item := range items {
		list[i] = item
	}
	return map[string]any{"count": float64(count), "items": list}
}

// ProductFixture returns a typical product for mock responses.
func ProductFixture(id, title, status string) map[string]any {
	return map[string]any{
		"id":           id,
		"title":        title,
		"description":  "A test product",
		"handle":       strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		"thumbnail":    "https://cdn.example.test/" + id + ".jpg",
		"status":       status,
		"price":        49.95,
		"currencyCode": "EUR",
		"collectionId": nil,
		"createdAt":    "2026-03-14T09:30:00Z",
		"updatedAt":    nil,
	}
}

// CurrencyFixture returns a typical currency for mock responses.
func CurrencyFixture(code, name, symbol string, rateToEuro float64) map[string]any {
	return map[string]any{
		"code":       code,
		"name":       name,
		"symbol":     symbol,
		"rateToEuro": rateToEuro,
	}
}

// OrderFixture returns a typical order for mock responses. Unpaid orders
// carry no payment object, matching the storefront.
func OrderFixture(id string, displayID int, status string) map[string]any {
	order := map[string]any{
		"id":           id,
		"displayId":    float64(displayID),
		"email":        "customer@example.test",
		"status":       status,
		"total":        129.50,
		"currencyCode": "EUR",
		"items": []any{
			map[string]any{"id": "li-1", "title": "Chair", "quantity": 2, "unitPrice": 64.75},
		},
		"createdAt": "2026-03-14T09:30:00Z",
	}
	if status == "completed" {
		order["payment"] = map[string]any{
			"id":       "pay-" + id,
			"provider": "stripe",
			"amount":   129.50,
			"status":   "captured",
		}
	}
	return order
}

// FormatJSON converts a value to indented JSON for test output.
func FormatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// shippedDefinitionsDir returns the absolute path of the repository's
// definitions directory.
func shippedDefinitionsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "definitions")
}
