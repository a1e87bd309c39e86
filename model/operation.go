package model

import "context"

// OperationDefinition binds a definition element to one backend REST
// endpoint. Path templates use {name} placeholders substituted from
// path params at invocation time.
type OperationDefinition struct {
	Method string `yaml:"method" json:"method"`
	Path   string `yaml:"path"   json:"path"`
}

// InvocationInput carries the request parameters for a backend invocation.
type InvocationInput struct {
	PathParams  map[string]string
	QueryParams map[string]string
	Body        any
}

// InvocationResult is the outcome of a backend invocation. Data is the
// unwrapped payload of the storefront's {message, data} envelope.
type InvocationResult struct {
	StatusCode int
	Message    string
	Data       any
}

// Invoker executes backend operations. Implemented by the backend HTTP
// client and by test doubles.
type Invoker interface {
	Invoke(ctx context.Context, op OperationDefinition, input InvocationInput) (InvocationResult, error)
}

// CommandInput is the frontend's input to a command execution: the
// request body fields plus any route parameters of the page the command
// was triggered from.
type CommandInput struct {
	Input       map[string]any    `json:"input,omitempty"`
	RouteParams map[string]string `json:"route_params,omitempty"`
}
