package forms

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Named value transforms referenced by field definitions. Input transforms
// run on values entering the form (backend loads, connection fan-out,
// calculation results); output transforms run on submission.
var transforms = map[string]func(any) any{
	"trim":      func(v any) any { return mapString(v, strings.TrimSpace) },
	"uppercase": func(v any) any { return mapString(v, strings.ToUpper) },
	"lowercase": func(v any) any { return mapString(v, strings.ToLower) },
	"round2":    func(v any) any { return mapNumber(v, func(f float64) float64 { return math.Round(f*100) / 100 }) },
	"round6":    func(v any) any { return mapNumber(v, func(f float64) float64 { return math.Round(f*1e6) / 1e6 }) },
}

func mapString(v any, fn func(string) string) any {
	if s, ok := v.(string); ok {
		return fn(s)
	}
	return v
}

func mapNumber(v any, fn func(float64) float64) any {
	if f, ok := toFloat(v); ok {
		return fn(f)
	}
	return v
}

// applyTransform applies the named transform, or returns the value
// unchanged when the name is empty or unknown.
func applyTransform(name string, v any) any {
	if fn, ok := transforms[name]; ok {
		return fn(v)
	}
	return v
}

// zeroForKind is the last-resort value for a field with no row value and
// no configured default.
func zeroForKind(kind string) any {
	switch kind {
	case "number":
		return float64(0)
	case "checkbox":
		return false
	default:
		return ""
	}
}

// parseFieldValue coerces a raw incoming value to the field kind's
// canonical representation. Numeric text that is empty or unparseable
// becomes NaN rather than 0, so validation can reject it instead of
// silently committing a zero.
func parseFieldValue(kind string, raw any) any {
	switch kind {
	case "number":
		if f, ok := toFloat(raw); ok {
			return f
		}
		if s, ok := raw.(string); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return math.NaN()
			}
			return f
		}
		return math.NaN()
	case "checkbox":
		if b, ok := raw.(bool); ok {
			return b
		}
		if s, ok := raw.(string); ok {
			return s == "true"
		}
		return false
	default:
		if raw == nil {
			return ""
		}
		if s, ok := raw.(string); ok {
			return s
		}
		return fmt.Sprint(raw)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// isNaN reports whether v is the numeric not-a-number sentinel.
func isNaN(v any) bool {
	f, ok := v.(float64)
	return ok && math.IsNaN(f)
}

// valuesEqual compares two field values. Numbers compare by value across
// integer and float representations; NaN never equals anything, matching
// the sentinel's "still invalid" semantics.
func valuesEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return a == b
}

// matchesSource compares a row cell against the live source value: exact
// equality, or case-insensitive equality when both sides are strings.
func matchesSource(rowValue, sourceValue any) bool {
	rs, rok := rowValue.(string)
	ss, sok := sourceValue.(string)
	if rok && sok {
		return strings.EqualFold(rs, ss)
	}
	return valuesEqual(rowValue, sourceValue)
}
