package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// MockRates simulates the exchange-rate provider's /latest endpoint. It
// quotes foreign units per EUR, mirroring the real provider.
type MockRates struct {
	server *httptest.Server

	mu      sync.RWMutex
	perEuro map[string]float64
	keys    []string
}

func newMockRates(t *testing.T) *MockRates {
	t.Helper()

	mr := &MockRates{
		perEuro: map[string]float64{
			"USD": 1.0902,
			"GBP": 0.8532,
			"CHF": 0.9412,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /latest", func(w http.ResponseWriter, r *http.Request) {
		mr.mu.Lock()
		mr.keys = append(mr.keys, r.URL.Query().Get("access_key"))
		mr.mu.Unlock()

		rates := make(map[string]float64)
		mr.mu.RLock()
		for _, code := range strings.Split(r.URL.Query().Get("symbols"), ",") {
			if rate, ok := mr.perEuro[code]; ok {
				rates[code] = rate
			}
		}
		mr.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"base":    "EUR",
			"rates":   rates,
		})
	})

	mr.server = httptest.NewServer(mux)
	t.Cleanup(mr.server.Close)
	return mr
}

// URL returns the base URL of the mock rate provider.
func (mr *MockRates) URL() string {
	return mr.server.URL
}

// SetRate quotes a currency at the given foreign units per EUR.
func (mr *MockRates) SetRate(code string, perEuro float64) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.perEuro[code] = perEuro
}

// RemoveRate drops a quote so lookups for the code fail.
func (mr *MockRates) RemoveRate(code string) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	delete(mr.perEuro, code)
}

// AccessKeys returns the access keys presented on each request.
func (mr *MockRates) AccessKeys() []string {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	keys := make([]string, len(mr.keys))
	copy(keys, mr.keys)
	return keys
}
