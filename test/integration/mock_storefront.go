package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// MockStorefront is a configurable HTTP test server that simulates the
// storefront's private REST API. It allows configuring per-operation
// responses and records every received request for later assertion.
type MockStorefront struct {
	t      *testing.T
	server *httptest.Server

	mu           sync.RWMutex
	operations   map[string]*operationConfig
	receivedByOp map[string][]*RecordedRequest
}

// RecordedRequest captures one request received by the mock storefront.
type RecordedRequest struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Headers     http.Header
	Body        map[string]any
	ReceivedAt  time.Time
}

type operationConfig struct {
	mu        sync.Mutex
	responses []*mockResponse
	current   int
}

type mockResponse struct {
	status    int
	body      any
	delay     time.Duration
	connError bool
}

// OperationMock is a builder for configuring responses for one operation.
type OperationMock struct {
	backend *MockStorefront
	opID    string
}

// operationRoute maps an operation ID to its HTTP method and path pattern.
type operationRoute struct {
	method      string
	pathPattern string
}

// storefrontRoutes covers every private endpoint the shipped definition
// files reference.
func storefrontRoutes() map[string]operationRoute {
	return map[string]operationRoute{
		"listProducts":  {method: "GET", pathPattern: "/private/products"},
		"getProduct":    {method: "GET", pathPattern: "/private/products/{id}"},
		"createProduct": {method: "POST", pathPattern: "/private/products"},
		"updateProduct": {method: "PUT", pathPattern: "/private/products/{id}"},
		"deleteProduct": {method: "DELETE", pathPattern: "/private/products/{id}"},

		"listCollections":  {method: "GET", pathPattern: "/private/collections"},
		"getCollection":    {method: "GET", pathPattern: "/private/collections/{id}"},
		"createCollection": {method: "POST", pathPattern: "/private/collections"},
		"updateCollection": {method: "PUT", pathPattern: "/private/collections/{id}"},
		"deleteCollection": {method: "DELETE", pathPattern: "/private/collections/{id}"},

		"listCountries": {method: "GET", pathPattern: "/private/countries"},
		"getCountry":    {method: "GET", pathPattern: "/private/countries/{id}"},
		"createCountry": {method: "POST", pathPattern: "/private/countries"},
		"updateCountry": {method: "PUT", pathPattern: "/private/countries/{id}"},
		"deleteCountry": {method: "DELETE", pathPattern: "/private/countries/{id}"},

		"listCurrencies": {method: "GET", pathPattern: "/private/currencies"},
		"getCurrency":    {method: "GET", pathPattern: "/private/currencies/{code}"},
		"createCurrency": {method: "POST", pathPattern: "/private/currencies"},
		"updateCurrency": {method: "PUT", pathPattern: "/private/currencies/{code}"},
		"deleteCurrency": {method: "DELETE", pathPattern: "/private/currencies/{code}"},

		"listOrders":  {method: "GET", pathPattern: "/private/orders"},
		"getOrder":    {method: "GET", pathPattern: "/private/orders/{id}"},
		"cancelOrder": {method: "POST", pathPattern: "/private/orders/{id}/cancel"},

		"listCarts":  {method: "GET", pathPattern: "/private/carts"},
		"getCart":    {method: "GET", pathPattern: "/private/carts/{id}"},
		"deleteCart": {method: "DELETE", pathPattern: "/private/carts/{id}"},

		"listUsers":  {method: "GET", pathPattern: "/private/users"},
		"getUser":    {method: "GET", pathPattern: "/private/users/{id}"},
		"createUser": {method: "POST", pathPattern: "/private/users"},
		"updateUser": {method: "PUT", pathPattern: "/private/users/{id}"},
		"deleteUser": {method: "DELETE", pathPattern: "/private/users/{id}"},
	}
}

func newMockStorefront(t *testing.T) *MockStorefront {
	t.Helper()

	mb := &MockStorefront{
		t:            t,
		operations:   make(map[string]*operationConfig),
		receivedByOp: make(map[string][]*RecordedRequest),
	}

	mux := http.NewServeMux()
	for opID, route := range storefrontRoutes() {
		mux.HandleFunc(route.method+" "+route.pathPattern, mb.handleOperation(opID))
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"message": fmt.Sprintf("mock: no operation registered for %s %s", r.Method, r.URL.Path),
		})
	})

	mb.server = httptest.NewServer(mux)
	t.Cleanup(mb.server.Close)
	return mb
}

// URL returns the base URL of the mock storefront server.
func (mb *MockStorefront) URL() string {
	return mb.server.URL
}

// Close shuts the mock server down to simulate an unreachable backend.
func (mb *MockStorefront) Close() {
	mb.server.Close()
}

// OnOperation returns a builder for configuring responses for the named
// operation.
func (mb *MockStorefront) OnOperation(operationID string) *OperationMock {
	if _, ok := storefrontRoutes()[operationID]; !ok {
		mb.t.Fatalf("mock: unknown operation %q", operationID)
	}
	return &OperationMock{backend: mb, opID: operationID}
}

// RespondWith configures the operation to reply with the given status and
// a {message, data} envelope around body.
func (om *OperationMock) RespondWith(status int, body any) *OperationMock {
	om.backend.addResponse(om.opID, &mockResponse{
		status: status,
		body:   Envelope("ok", body),
	})
	return om
}

// RespondWithEnvelope configures a fully explicit response body.
func (om *OperationMock) RespondWithEnvelope(status int, envelope map[string]any) *OperationMock {
	om.backend.addResponse(om.opID, &mockResponse{status: status, body: envelope})
	return om
}

// RespondWithError configures an error response with the given message.
func (om *OperationMock) RespondWithError(status int, message string) *OperationMock {
	om.backend.addResponse(om.opID, &mockResponse{
		status: status,
		body:   map[string]any{"message": message},
	})
	return om
}

// RespondWithDelay configures a delayed response to simulate a slow
// backend.
func (om *OperationMock) RespondWithDelay(delay time.Duration, status int, body any) *OperationMock {
	om.backend.addResponse(om.opID, &mockResponse{
		status: status,
		body:   Envelope("ok", body),
		delay:  delay,
	})
	return om
}

// RespondWithConnectionError configures the operation to drop the
// connection without a response.
func (om *OperationMock) RespondWithConnectionError() *OperationMock {
	om.backend.addResponse(om.opID, &mockResponse{connError: true})
	return om
}

func (mb *MockStorefront) addResponse(opID string, resp *mockResponse) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	cfg, ok := mb.operations[opID]
	if !ok {
		cfg = &operationConfig{}
		mb.operations[opID] = cfg
	}
	cfg.responses = append(cfg.responses, resp)
}

func (mb *MockStorefront) handleOperation(opID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &RecordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			QueryParams: make(map[string]string),
			Headers:     r.Header.Clone(),
			ReceivedAt:  time.Now(),
		}
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				rec.QueryParams[key] = values[0]
			}
		}
		if r.Body != nil {
			body, _ := io.ReadAll(r.Body)
			if len(body) > 0 {
				var parsed map[string]any
				if err := json.Unmarshal(body, &parsed); err == nil {
					rec.Body = parsed
				}
			}
		}

		mb.mu.Lock()
		mb.receivedByOp[opID] = append(mb.receivedByOp[opID], rec)
		mb.mu.Unlock()

		resp := mb.getNextResponse(opID)
		if resp == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(Envelope("ok", nil))
			return
		}

		if resp.connError {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, _ := hj.Hijack(); conn != nil {
					conn.Close()
				}
			}
			return
		}

		if resp.delay > 0 {
			time.Sleep(resp.delay)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		if resp.body != nil {
			json.NewEncoder(w).Encode(resp.body)
		}
	}
}

func (mb *MockStorefront) getNextResponse(opID string) *mockResponse {
	mb.mu.RLock()
	cfg, ok := mb.operations[opID]
	mb.mu.RUnlock()
	if !ok || cfg == nil {
		return nil
	}

	cfg.mu.Lock()
	defer cfg.mu.Unlock()

	if len(cfg.responses) == 0 {
		return nil
	}

	idx := cfg.current
	if idx >= len(cfg.responses) {
		// Repeat the last response for subsequent calls.
		idx = len(cfg.responses) - 1
	} else {
		cfg.current++
	}
	return cfg.responses[idx]
}

// AssertCalled verifies that the operation was invoked the expected
// number of times.
func (mb *MockStorefront) AssertCalled(t *testing.T, operationID string, expectedCount int) {
	t.Helper()
	mb.mu.RLock()
	actual := len(mb.receivedByOp[operationID])
	mb.mu.RUnlock()
	if actual != expectedCount {
		t.Errorf("operation %q called %d times, want %d", operationID, actual, expectedCount)
	}
}

// AssertNotCalled verifies that the operation was never invoked.
func (mb *MockStorefront) AssertNotCalled(t *testing.T, operationID string) {
	t.Helper()
	mb.AssertCalled(t, operationID, 0)
}

// LastRequest returns the most recent request for the given operation, or
// nil when none was recorded.
func (mb *MockStorefront) LastRequest(operationID string) *RecordedRequest {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	reqs := mb.receivedByOp[operationID]
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}

// Reset clears all recorded requests and configured responses.
func (mb *MockStorefront) Reset() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.operations = make(map[string]*operationConfig)
	mb.receivedByOp = make(map[string][]*RecordedRequest)
}
