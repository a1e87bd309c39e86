package command

import (
	"fmt"
	"strconv"
	"strings"
)

// ExpressionResolver resolves source expressions against the available
// sources: user input and route parameters.
type ExpressionResolver struct {
	Input       map[string]any
	RouteParams map[string]string
}

// Resolve evaluates a source expression string and returns the resolved
// value. Supported expressions:
//   - input.field_name     value from the command input body
//   - input.address.city   nested field access
//   - route.param_name     value from the triggering page's route params
//   - 'literal'            single-quoted literal string
//   - 123 / 99.99          numeric literal
func (r *ExpressionResolver) Resolve(expr string) (any, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}

	if len(expr) >= 2 && expr[0] == '\'' && expr[len(expr)-1] == '\'' {
		return expr[1 : len(expr)-1], nil
	}

	if isNumericLiteral(expr) {
		return parseNumeric(expr)
	}

	dotIdx := strings.IndexByte(expr, '.')
	if dotIdx < 0 {
		return nil, fmt.Errorf("invalid expression %q: missing source prefix", expr)
	}

	prefix := expr[:dotIdx]
	path := expr[dotIdx+1:]
	if path == "" {
		return nil, fmt.Errorf("invalid expression %q: empty path after prefix", expr)
	}

	switch prefix {
	case "input":
		return r.resolveInput(path)
	case "route":
		return r.resolveRoute(path)
	default:
		return nil, fmt.Errorf("unknown expression prefix %q in %q", prefix, expr)
	}
}

func (r *ExpressionResolver) resolveInput(path string) (any, error) {
	if r.Input == nil {
		return nil, fmt.Errorf("input source is nil, cannot resolve %q", "input."+path)
	}
	val := navigatePath(r.Input, path)
	if val == nil {
		return nil, fmt.Errorf("input field %q not found", path)
	}
	return val, nil
}

func (r *ExpressionResolver) resolveRoute(param string) (any, error) {
	if r.RouteParams == nil {
		return nil, fmt.Errorf("route params is nil, cannot resolve %q", "route."+param)
	}
	val, ok := r.RouteParams[param]
	if !ok {
		return nil, fmt.Errorf("route param %q not found", param)
	}
	return val, nil
}

// navigatePath navigates a dot-separated path through nested maps.
func navigatePath(data map[string]any, path string) any {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// isNumericLiteral returns true if the string looks like a number.
func isNumericLiteral(s string) bool {
	if len(s) == 0 {
		return false
	}
	start := 0
	if s[0] == '-' || s[0] == '+' {
		start = 1
		if start >= len(s) {
			return false
		}
	}
	hasDot := false
	for i := start; i < len(s); i++ {
		if s[i] == '.' {
			if hasDot {
				return false
			}
			hasDot = true
		} else if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseNumeric parses a numeric string literal.
func parseNumeric(s string) (any, error) {
	if strings.ContainsRune(s, '.') {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric literal %q: %w", s, err)
		}
		return v, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid numeric literal %q: %w", s, err)
	}
	return v, nil
}
