package search

import (
	"context"
	"testing"
	"time"

	"github.com/quintor/shopdesk/internal/definition"
	"github.com/quintor/shopdesk/model"
)

type stubInvoker struct {
	calls  int
	result model.InvocationResult
	err    error
}

func (s *stubInvoker) Invoke(ctx context.Context, op model.OperationDefinition, input model.InvocationInput) (model.InvocationResult, error) {
	s.calls++
	if s.err != nil {
		return model.InvocationResult{}, s.err
	}
	return s.result, nil
}

func lookupRegistry(lookups ...model.LookupDefinition) *definition.Registry {
	return definition.NewRegistry([]model.DomainDefinition{
		{Domain: "currencies", Lookups: lookups},
	})
}

func currencyOptions() model.LookupDefinition {
	return model.LookupDefinition{
		ID:         "currency-options",
		Operation:  model.OperationDefinition{Method: "GET", Path: "/private/currencies"},
		ItemsPath:  "items",
		LabelField: "name",
		ValueField: "code",
	}
}

func currencyItems() model.InvocationResult {
	return model.InvocationResult{
		StatusCode: 200,
		Data: map[string]any{
			"count": float64(2),
			"items": []any{
				map[string]any{"code": "EUR", "name": "Euro"},
				map[string]any{"code": "USD", "name": "US Dollar"},
			},
		},
	}
}

func TestGetLookup_fetchesAndCaches(t *testing.T) {
	inv := &stubInvoker{result: currencyItems()}
	lp := NewLookupProvider(lookupRegistry(currencyOptions()), inv, time.Minute, 100)

	resp, err := lp.GetLookup(context.Background(), "currency-options", "")
	if err != nil {
		t.Fatalf("GetLookup() error = %v", err)
	}
	if len(resp.Data.Options) != 2 {
		t.Fatalf("options = %d, want 2", len(resp.Data.Options))
	}
	if resp.Data.Options[0].Label != "Euro" || resp.Data.Options[0].Value != "EUR" {
		t.Errorf("first option = %+v, want Euro/EUR", resp.Data.Options[0])
	}
	if cached, _ := resp.Meta["cached"].(bool); cached {
		t.Error("first call reported cached = true")
	}

	resp, err = lp.GetLookup(context.Background(), "currency-options", "")
	if err != nil {
		t.Fatalf("GetLookup() second call error = %v", err)
	}
	if cached, _ := resp.Meta["cached"].(bool); !cached {
		t.Error("second call reported cached = false")
	}
	if inv.calls != 1 {
		t.Errorf("backend calls = %d, want 1", inv.calls)
	}
}

func TestGetLookup_queryFiltersCaseInsensitive(t *testing.T) {
	inv := &stubInvoker{result: currencyItems()}
	lp := NewLookupProvider(lookupRegistry(currencyOptions()), inv, time.Minute, 100)

	resp, err := lp.GetLookup(context.Background(), "currency-options", "dOlLaR")
	if err != nil {
		t.Fatalf("GetLookup() error = %v", err)
	}
	if len(resp.Data.Options) != 1 {
		t.Fatalf("options = %d, want 1", len(resp.Data.Options))
	}
	if resp.Data.Options[0].Value != "USD" {
		t.Errorf("filtered option = %+v, want USD", resp.Data.Options[0])
	}
}

func TestGetLookup_queryDoesNotPoisonCache(t *testing.T) {
	inv := &stubInvoker{result: currencyItems()}
	lp := NewLookupProvider(lookupRegistry(currencyOptions()), inv, time.Minute, 100)

	if _, err := lp.GetLookup(context.Background(), "currency-options", "euro"); err != nil {
		t.Fatalf("GetLookup() error = %v", err)
	}
	resp, err := lp.GetLookup(context.Background(), "currency-options", "")
	if err != nil {
		t.Fatalf("GetLookup() error = %v", err)
	}
	if len(resp.Data.Options) != 2 {
		t.Errorf("unfiltered options after filtered fetch = %d, want 2", len(resp.Data.Options))
	}
}

func TestGetLookup_unknownLookup(t *testing.T) {
	lp := NewLookupProvider(lookupRegistry(), &stubInvoker{}, time.Minute, 100)

	_, err := lp.GetLookup(context.Background(), "nope", "")
	env, ok := err.(*model.ErrorEnvelope)
	if !ok {
		t.Fatalf("error = %T, want *model.ErrorEnvelope", err)
	}
	if env.Code != model.ErrNotFound {
		t.Errorf("Code = %q, want %q", env.Code, model.ErrNotFound)
	}
}

func TestGetLookup_backendErrorNotCached(t *testing.T) {
	inv := &stubInvoker{err: model.NewBackendUnavailableError()}
	lp := NewLookupProvider(lookupRegistry(currencyOptions()), inv, time.Minute, 100)

	if _, err := lp.GetLookup(context.Background(), "currency-options", ""); err == nil {
		t.Fatal("GetLookup() error = nil, want backend error")
	}
	if lp.CacheLen() != 0 {
		t.Errorf("CacheLen() = %d after failure, want 0", lp.CacheLen())
	}

	inv.err = nil
	inv.result = currencyItems()
	resp, err := lp.GetLookup(context.Background(), "currency-options", "")
	if err != nil {
		t.Fatalf("GetLookup() after recovery error = %v", err)
	}
	if len(resp.Data.Options) != 2 {
		t.Errorf("options = %d after recovery, want 2", len(resp.Data.Options))
	}
}

func TestGetLookup_definitionTTLOverride(t *testing.T) {
	def := currencyOptions()
	def.Cache = &model.LookupCacheRule{TTL: "1ns"}

	inv := &stubInvoker{result: currencyItems()}
	lp := NewLookupProvider(lookupRegistry(def), inv, time.Hour, 100)

	if _, err := lp.GetLookup(context.Background(), "currency-options", ""); err != nil {
		t.Fatalf("GetLookup() error = %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := lp.GetLookup(context.Background(), "currency-options", ""); err != nil {
		t.Fatalf("GetLookup() error = %v", err)
	}
	if inv.calls != 2 {
		t.Errorf("backend calls = %d, want 2 with expired entry", inv.calls)
	}
}

func TestInvalidate(t *testing.T) {
	inv := &stubInvoker{result: currencyItems()}
	lp := NewLookupProvider(lookupRegistry(currencyOptions()), inv, time.Minute, 100)

	if _, err := lp.GetLookup(context.Background(), "currency-options", ""); err != nil {
		t.Fatalf("GetLookup() error = %v", err)
	}
	lp.Invalidate("currency-options")
	if _, err := lp.GetLookup(context.Background(), "currency-options", ""); err != nil {
		t.Fatalf("GetLookup() error = %v", err)
	}
	if inv.calls != 2 {
		t.Errorf("backend calls = %d, want 2 after Invalidate", inv.calls)
	}
}

func TestExtractLookupItems(t *testing.T) {
	items := []any{map[string]any{"id": "1"}}

	tests := []struct {
		name      string
		data      any
		itemsPath string
		wantLen   int
	}{
		{"bare array", items, "", 1},
		{"items key fallback", map[string]any{"items": items}, "", 1},
		{"data key fallback", map[string]any{"data": items}, "", 1},
		{"explicit nested path", map[string]any{"result": map[string]any{"rows": items}}, "result.rows", 1},
		{"path miss", map[string]any{"result": items}, "missing.rows", 0},
		{"scalar payload", "nope", "", 0},
		{"nil payload", nil, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractLookupItems(tt.data, tt.itemsPath)
			if len(got) != tt.wantLen {
				t.Errorf("extractLookupItems() len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestMapLookupResults_skipsEmptyAndStringifies(t *testing.T) {
	def := model.LookupDefinition{LabelField: "name", ValueField: "id"}
	data := []any{
		map[string]any{"name": "First", "id": float64(1)},
		map[string]any{"name": "", "id": nil},
		map[string]any{"other": "x"},
	}

	got := mapLookupResults(data, def)
	if len(got) != 1 {
		t.Fatalf("options = %d, want 1", len(got))
	}
	if got[0].Value != "1" {
		t.Errorf("Value = %q, want stringified 1", got[0].Value)
	}
}
