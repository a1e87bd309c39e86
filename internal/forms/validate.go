package forms

import (
	"fmt"
	"regexp"

	"github.com/quintor/shopdesk/model"
)

// validateField applies the field's validation rules to its current value
// and returns the first failure, or the empty string.
func validateField(def model.FieldDefinition, value any) string {
	if def.Required && isEmptyValue(def.Kind, value) {
		return messageOr(def, fmt.Sprintf("%s is required", def.Label))
	}

	if def.Kind == "number" && isNaN(value) {
		// A NaN that survives the required check still blocks rules that
		// need a real number.
		if def.Required || def.Validation != nil {
			return messageOr(def, fmt.Sprintf("%s must be a number", def.Label))
		}
		return ""
	}

	v := def.Validation
	if v == nil {
		return ""
	}

	if s, ok := value.(string); ok {
		if v.MinLength != nil && len(s) < *v.MinLength {
			return messageOr(def, fmt.Sprintf("%s must be at least %d characters", def.Label, *v.MinLength))
		}
		if v.MaxLength != nil && len(s) > *v.MaxLength {
			return messageOr(def, fmt.Sprintf("%s must be at most %d characters", def.Label, *v.MaxLength))
		}
		if v.Pattern != "" {
			re, err := regexp.Compile(v.Pattern)
			if err == nil && !re.MatchString(s) {
				return messageOr(def, fmt.Sprintf("%s has an invalid format", def.Label))
			}
		}
	}

	if f, ok := toFloat(value); ok && !isNaN(value) {
		if v.Min != nil && f < *v.Min {
			return messageOr(def, fmt.Sprintf("%s must be at least %v", def.Label, *v.Min))
		}
		if v.Max != nil && f > *v.Max {
			return messageOr(def, fmt.Sprintf("%s must be at most %v", def.Label, *v.Max))
		}
	}

	return ""
}

func messageOr(def model.FieldDefinition, fallback string) string {
	if def.Validation != nil && def.Validation.Message != "" {
		return def.Validation.Message
	}
	return fallback
}

// isEmptyValue reports whether a value counts as absent for the required
// rule. For numbers the NaN sentinel is empty; zero is a legitimate value.
func isEmptyValue(kind string, value any) bool {
	if value == nil {
		return true
	}
	switch kind {
	case "number":
		return isNaN(value)
	case "checkbox":
		// A checkbox is never "empty"; required means must-be-checked.
		b, _ := value.(bool)
		return !b
	default:
		s, ok := value.(string)
		return ok && s == ""
	}
}
