package forms

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quintor/shopdesk/model"
)

// propagate runs one connection cycle for a changed source value. A
// cycle already in flight for the session makes this a no-op: changes
// that land mid-cycle are dropped, not queued.
func (e *Engine) propagate(ctx context.Context, s *Session, conn model.ConnectionDefinition, sourceValue any) {
	if !s.tryBeginPropagation() {
		e.logger.Debug("propagation skipped, cycle in flight",
			zap.String("session_id", s.ID),
			zap.String("source", conn.Source),
		)
		return
	}
	defer s.endPropagation()

	if e.metrics != nil {
		e.metrics.PropagationCycles.WithLabelValues(s.FormID).Inc()
	}

	row, matched := matchRow(conn, sourceValue)
	if matched {
		e.fanOut(s, conn, row)
		e.runCalculations(ctx, s, conn, row)
		return
	}
	if conn.ClearsOnNoMatch() {
		e.clearTargets(s, conn)
	}
}

// matchRow finds the first lookup row whose source column matches the
// value. Strings compare case-insensitively; everything else compares
// by numeric or exact equality.
func matchRow(conn model.ConnectionDefinition, sourceValue any) (map[string]any, bool) {
	for _, row := range conn.Rows {
		if rv, ok := row[conn.Source]; ok && matchesSource(rv, sourceValue) {
			return row, true
		}
	}
	return nil, false
}

// fanOut writes the matched row's values into the connection's target
// fields. Values absent from the row fall back to the field default.
// A target is only written when its value actually changes, so an
// untouched field keeps manual edits through repeated matches of the
// same row.
func (e *Engine) fanOut(s *Session, conn model.ConnectionDefinition, row map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, target := range conn.Targets {
		if target == conn.Source {
			continue
		}
		f, ok := s.fieldByName(target)
		if !ok {
			continue
		}

		var next any
		if rv, present := row[target]; present && rv != nil {
			next = applyTransform(f.InputTransform, parseFieldValue(f.Kind, rv))
		} else {
			next = defaultFor(f)
		}

		if !valuesEqual(s.values[target], next) {
			s.values[target] = next
			delete(s.fieldErrors, target)
		}
	}
}

// runCalculations executes the connection's calculations in declaration
// order. Each takes its trigger from the matched row, runs its named
// calculator, and lands either the result or the configured default
// plus an error notice.
func (e *Engine) runCalculations(ctx context.Context, s *Session, conn model.ConnectionDefinition, row map[string]any) {
	for _, calc := range conn.Calculations {
		f, ok := s.fieldByName(calc.Field)
		if !ok {
			continue
		}

		trigger, present := row[calc.Trigger]
		if !present || trigger == nil {
			// Nothing to calculate from: back to the default, idle.
			s.mu.Lock()
			s.values[calc.Field] = defaultFor(f)
			s.calcStatus[calc.Field] = model.CalcIdle
			s.mu.Unlock()
			continue
		}

		calculator, registered := e.calculators[calc.Calculator]
		if !registered {
			e.finishCalculation(s, f, calc, nil, false)
			e.logger.Error("calculator not registered",
				zap.String("calculator", calc.Calculator),
				zap.String("field", calc.Field),
			)
			continue
		}

		s.mu.Lock()
		s.calcStatus[calc.Field] = model.CalcPending
		s.mu.Unlock()

		start := time.Now()
		calcCtx, cancel := context.WithTimeout(ctx, e.calcTimeout)
		result, err := calculator.Calculate(calcCtx, trigger)
		cancel()

		// A quote the calculator could not produce counts as a failure
		// whether it errored or came back empty.
		success := err == nil && result != nil

		if e.metrics != nil {
			outcome := "success"
			if !success {
				outcome = "error"
			}
			e.metrics.CalculationsTotal.WithLabelValues(calc.Calculator, outcome).Inc()
			e.metrics.CalculationDuration.WithLabelValues(calc.Calculator).Observe(time.Since(start).Seconds())
		}

		if !success {
			e.logger.Warn("calculation failed",
				zap.String("calculator", calc.Calculator),
				zap.String("field", calc.Field),
				zap.Error(err),
			)
			e.finishCalculation(s, f, calc, nil, false)
			continue
		}
		e.finishCalculation(s, f, calc, result, true)
	}
}

// finishCalculation records the outcome of one calculation: on success
// the computed value and a success status; on failure the configured
// default (falling back to the field default) plus an error notice.
func (e *Engine) finishCalculation(s *Session, f model.FieldDefinition, calc model.CalculationDefinition, result any, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if success {
		s.values[calc.Field] = applyTransform(f.InputTransform, parseFieldValue(f.Kind, result))
		s.calcStatus[calc.Field] = model.CalcSuccess
		return
	}

	if calc.Default != nil {
		s.values[calc.Field] = parseFieldValue(f.Kind, calc.Default)
	} else {
		s.values[calc.Field] = defaultFor(f)
	}
	s.calcStatus[calc.Field] = model.CalcError

	msg := calc.ErrorMessage
	if msg == "" {
		msg = "calculation failed, default value applied"
	}
	s.addNotice(model.NoticeWarning, msg)
}

// clearTargets resets targets and calculated fields to their defaults
// when no row matched and clearing is enabled. The source field itself
// keeps the value the user typed.
func (e *Engine) clearTargets(s *Session, conn model.ConnectionDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reset := func(name string) {
		if name == conn.Source {
			return
		}
		f, ok := s.fieldByName(name)
		if !ok {
			return
		}
		next := defaultFor(f)
		if !valuesEqual(s.values[name], next) {
			s.values[name] = next
			delete(s.fieldErrors, name)
		}
	}

	for _, target := range conn.Targets {
		reset(target)
	}
	for _, calc := range conn.Calculations {
		reset(calc.Field)
		s.calcStatus[calc.Field] = model.CalcIdle
	}
}
