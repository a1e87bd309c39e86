package command

import (
	"fmt"

	"github.com/quintor/shopdesk/model"
)

// InputMapper resolves an InputMapping definition into a concrete
// InvocationInput by evaluating source expressions.
type InputMapper struct{}

// NewInputMapper creates a new InputMapper.
func NewInputMapper() *InputMapper {
	return &InputMapper{}
}

// MapInput resolves the mapping definition against the command input and
// returns a ready-to-invoke InvocationInput.
func (m *InputMapper) MapInput(mapping model.InputMapping, input model.CommandInput) (model.InvocationInput, error) {
	resolver := &ExpressionResolver{
		Input:       input.Input,
		RouteParams: input.RouteParams,
	}

	result := model.InvocationInput{}

	if len(mapping.PathParams) > 0 {
		result.PathParams = make(map[string]string, len(mapping.PathParams))
		for param, expr := range mapping.PathParams {
			val, err := resolver.Resolve(expr)
			if err != nil {
				return model.InvocationInput{}, fmt.Errorf("path_params[%s]: %w", param, err)
			}
			result.PathParams[param] = fmt.Sprint(val)
		}
	}

	if len(mapping.QueryParams) > 0 {
		result.QueryParams = make(map[string]string, len(mapping.QueryParams))
		for param, expr := range mapping.QueryParams {
			val, err := resolver.Resolve(expr)
			if err != nil {
				return model.InvocationInput{}, fmt.Errorf("query_params[%s]: %w", param, err)
			}
			result.QueryParams[param] = fmt.Sprint(val)
		}
	}

	if len(mapping.BodyFields) > 0 {
		body := make(map[string]any, len(mapping.BodyFields))
		for field, expr := range mapping.BodyFields {
			val, err := resolver.Resolve(expr)
			if err != nil {
				return model.InvocationInput{}, fmt.Errorf("body_fields[%s]: %w", field, err)
			}
			body[field] = val
		}
		result.Body = body
	}

	return result, nil
}
