// Package search implements the lookup provider that resolves option
// lists for dropdowns, combo boxes, and form dependencies.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/quintor/shopdesk/internal/definition"
	"github.com/quintor/shopdesk/internal/observability"
	"github.com/quintor/shopdesk/model"
)

// LookupProvider resolves LookupDefinitions to option lists with caching.
type LookupProvider struct {
	registry   *definition.Registry
	invoker    model.Invoker
	defaultTTL time.Duration
	maxEntries int
	metrics    *observability.Metrics

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// SetMetrics attaches a metrics sink for cache hit/miss counters.
func (lp *LookupProvider) SetMetrics(m *observability.Metrics) {
	lp.metrics = m
}

type cacheEntry struct {
	options   []model.OptionDescriptor
	expiresAt time.Time
}

// NewLookupProvider creates a new LookupProvider.
func NewLookupProvider(
	registry *definition.Registry,
	invoker model.Invoker,
	defaultTTL time.Duration,
	maxEntries int,
) *LookupProvider {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &LookupProvider{
		registry:   registry,
		invoker:    invoker,
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		cache:      make(map[string]cacheEntry),
	}
}

// GetLookup resolves a lookup definition to an option list, filtered by
// the optional query.
func (lp *LookupProvider) GetLookup(ctx context.Context, lookupID, query string) (model.LookupResponse, error) {
	def, ok := lp.registry.GetLookup(lookupID)
	if !ok {
		return model.LookupResponse{}, model.NewNotFoundError(
			fmt.Sprintf("lookup %q not found", lookupID),
		)
	}

	cacheKey := "lookup:" + def.ID

	if options, hit := lp.getFromCache(cacheKey); hit {
		if lp.metrics != nil {
			lp.metrics.RecordLookupCacheHit(def.ID)
		}
		return model.LookupResponse{
			Data: model.LookupPayload{Options: filterOptions(options, query)},
			Meta: map[string]any{"cached": true},
		}, nil
	}
	if lp.metrics != nil {
		lp.metrics.RecordLookupCacheMiss(def.ID)
	}

	options, err := lp.fetchFromBackend(ctx, def)
	if err != nil {
		return model.LookupResponse{}, err
	}

	ttl := lp.defaultTTL
	if def.Cache != nil && def.Cache.TTL != "" {
		if parsed, parseErr := time.ParseDuration(def.Cache.TTL); parseErr == nil {
			ttl = parsed
		}
	}
	lp.putInCache(cacheKey, options, ttl)

	return model.LookupResponse{
		Data: model.LookupPayload{Options: filterOptions(options, query)},
		Meta: map[string]any{"cached": false},
	}, nil
}

// getFromCache returns cached options if the entry exists and hasn't
// expired.
func (lp *LookupProvider) getFromCache(key string) ([]model.OptionDescriptor, bool) {
	lp.mu.RLock()
	defer lp.mu.RUnlock()

	entry, exists := lp.cache[key]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.options, true
}

// putInCache stores options in the cache with TTL.
func (lp *LookupProvider) putInCache(key string, options []model.OptionDescriptor, ttl time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if len(lp.cache) >= lp.maxEntries {
		lp.evictExpired()
	}

	lp.cache[key] = cacheEntry{
		options:   options,
		expiresAt: time.Now().Add(ttl),
	}
}

// evictExpired removes expired entries. Must be called with mu held.
func (lp *LookupProvider) evictExpired() {
	now := time.Now()
	for k, v := range lp.cache {
		if now.After(v.expiresAt) {
			delete(lp.cache, k)
		}
	}
}

// Invalidate removes the cache entry for a lookup.
func (lp *LookupProvider) Invalidate(lookupID string) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	delete(lp.cache, "lookup:"+lookupID)
}

// CacheLen returns the number of entries in the cache. For testing.
func (lp *LookupProvider) CacheLen() int {
	lp.mu.RLock()
	defer lp.mu.RUnlock()
	return len(lp.cache)
}

// fetchFromBackend invokes the lookup operation and maps results.
func (lp *LookupProvider) fetchFromBackend(ctx context.Context, def model.LookupDefinition) ([]model.OptionDescriptor, error) {
	result, err := lp.invoker.Invoke(ctx, def.Operation, model.InvocationInput{})
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", def.ID, err)
	}

	return mapLookupResults(result.Data, def), nil
}

// mapLookupResults transforms the backend payload into OptionDescriptors.
func mapLookupResults(data any, def model.LookupDefinition) []model.OptionDescriptor {
	items := extractLookupItems(data, def.ItemsPath)
	if items == nil {
		return nil
	}

	options := make([]model.OptionDescriptor, 0, len(items))
	for _, item := range items {
		label := getString(item, def.LabelField)
		value := getString(item, def.ValueField)
		if label == "" && value == "" {
			continue
		}
		options = append(options, model.OptionDescriptor{
			Label: label,
			Value: value,
		})
	}
	return options
}

// extractLookupItems extracts a slice of maps from the payload, following
// itemsPath when configured and falling back to common container keys.
func extractLookupItems(data any, itemsPath string) []map[string]any {
	if itemsPath != "" {
		if m, ok := data.(map[string]any); ok {
			data = navigatePath(m, itemsPath)
		}
	}
	if arr, ok := data.([]any); ok {
		return toMapSlice(arr)
	}
	if m, ok := data.(map[string]any); ok {
		for _, key := range []string{"items", "data"} {
			if arr, ok := m[key].([]any); ok {
				return toMapSlice(arr)
			}
		}
	}
	return nil
}

// navigatePath navigates a dot-separated path through nested maps.
func navigatePath(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	var current any = data
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

func toMapSlice(arr []any) []map[string]any {
	result := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			result = append(result, m)
		}
	}
	return result
}

// getString fetches a string field from an item, stringifying scalars.
func getString(item map[string]any, field string) string {
	v, ok := item[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// filterOptions filters options by query (case-insensitive match on label).
func filterOptions(options []model.OptionDescriptor, query string) []model.OptionDescriptor {
	if query == "" {
		return options
	}

	q := strings.ToLower(query)
	var filtered []model.OptionDescriptor
	for _, opt := range options {
		if strings.Contains(strings.ToLower(opt.Label), q) {
			filtered = append(filtered, opt)
		}
	}
	return filtered
}
