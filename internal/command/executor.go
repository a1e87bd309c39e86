// Package command maps UI-triggered commands (delete product, cancel
// order) onto backend operations and renders the outcome for the
// frontend.
package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quintor/shopdesk/internal/definition"
	"github.com/quintor/shopdesk/internal/observability"
	"github.com/quintor/shopdesk/model"
)

// Executor resolves and runs command definitions.
type Executor struct {
	registry *definition.Registry
	invoker  model.Invoker
	mapper   *InputMapper
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// ExecutorOption configures optional dependencies.
type ExecutorOption func(*Executor)

// WithLogger sets the executor logger.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor creates an Executor.
func NewExecutor(registry *definition.Registry, invoker model.Invoker, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: registry,
		invoker:  invoker,
		mapper:   NewInputMapper(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute resolves a command definition, maps its input, and invokes the
// backend operation.
func (e *Executor) Execute(ctx context.Context, commandID string, input model.CommandInput) (model.CommandResponse, error) {
	start := time.Now()

	cmdDef, ok := e.registry.GetCommand(commandID)
	if !ok {
		return model.CommandResponse{}, model.NewNotFoundError(
			fmt.Sprintf("command %q not found", commandID),
		)
	}

	e.logger.Debug("command input",
		zap.String("command_id", commandID),
		zap.Any("input", observability.RedactBody(input.Input, nil)),
	)

	invInput, err := e.mapper.MapInput(cmdDef.Input, input)
	if err != nil {
		return model.CommandResponse{}, model.NewBadRequestError(
			fmt.Sprintf("input mapping error: %v", err),
		)
	}

	result, err := e.invoker.Invoke(ctx, cmdDef.Operation, invInput)
	if e.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		e.metrics.CommandsTotal.WithLabelValues(commandID, outcome).Inc()
	}
	if err != nil {
		e.logger.Warn("command failed",
			zap.String("command_id", commandID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return model.CommandResponse{}, err
	}

	e.logger.Info("command executed",
		zap.String("command_id", commandID),
		zap.Int("status", result.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	resp := model.CommandResponse{
		Success: true,
		Message: renderSuccessMessage(cmdDef.SuccessMessage, input),
	}
	if m, ok := result.Data.(map[string]any); ok {
		resp.Result = m
	}
	return resp, nil
}

// renderSuccessMessage interpolates {field} placeholders with values from
// the command input.
func renderSuccessMessage(template string, input model.CommandInput) string {
	if template == "" {
		return "Done"
	}
	out := template
	for name, v := range input.Input {
		out = strings.ReplaceAll(out, "{"+name+"}", fmt.Sprint(v))
	}
	for name, v := range input.RouteParams {
		out = strings.ReplaceAll(out, "{"+name+"}", v)
	}
	return out
}
