// Package forms implements the generic form engine: configuration-driven
// create/edit sessions with dependency loading, cross-field connection
// propagation, asynchronous calculations, validation, and submission.
package forms

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quintor/shopdesk/internal/definition"
	"github.com/quintor/shopdesk/internal/observability"
	"github.com/quintor/shopdesk/internal/search"
	"github.com/quintor/shopdesk/model"
)

// Calculator computes one asynchronous field value from a trigger value
// taken from a matched connection row.
type Calculator interface {
	Calculate(ctx context.Context, trigger any) (any, error)
}

// Engine drives all form sessions. It is safe for concurrent use.
type Engine struct {
	registry    *definition.Registry
	invoker     model.Invoker
	lookups     *search.LookupProvider
	calculators map[string]Calculator
	logger      *zap.Logger
	metrics     *observability.Metrics

	sessionTTL  time.Duration
	maxSessions int
	calcTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCalculator registers a named calculator for field calculations.
func WithCalculator(name string, c Calculator) EngineOption {
	return func(e *Engine) { e.calculators[name] = c }
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithSessionTTL overrides the idle session lifetime.
func WithSessionTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) { e.sessionTTL = ttl }
}

// WithMaxSessions caps the number of live sessions.
func WithMaxSessions(n int) EngineOption {
	return func(e *Engine) { e.maxSessions = n }
}

// WithCalculationTimeout bounds each calculator invocation.
func WithCalculationTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.calcTimeout = d }
}

// NewEngine creates a form engine.
func NewEngine(registry *definition.Registry, invoker model.Invoker, lookups *search.LookupProvider, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:    registry,
		invoker:     invoker,
		lookups:     lookups,
		calculators: make(map[string]Calculator),
		logger:      zap.NewNop(),
		sessionTTL:  30 * time.Minute,
		maxSessions: 10000,
		calcTimeout: 10 * time.Second,
		sessions:    make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open creates a form session. A non-empty entityID other than the
// literal "new" selects edit mode: the entity is fetched and the form
// populated; otherwise the form starts from configured defaults.
func (e *Engine) Open(ctx context.Context, formID, entityID string) (model.FormDescriptor, error) {
	def, ok := e.registry.GetForm(formID)
	if !ok {
		return model.FormDescriptor{}, model.NewNotFoundError(
			fmt.Sprintf("form %q not found", formID),
		)
	}

	mode := ModeCreate
	if entityID != "" && entityID != "new" {
		mode = ModeEdit
	}
	if mode == ModeEdit && def.Load == nil {
		return model.FormDescriptor{}, model.NewBadRequestError(
			fmt.Sprintf("form %q does not support editing", formID),
		)
	}

	s := newSession(uuid.NewString(), def, mode, entityID)

	// Seed every field with its configured default before any load.
	for _, sec := range def.Sections {
		for _, f := range sec.Fields {
			s.values[f.Name] = defaultFor(f)
		}
	}

	// Dependencies load concurrently; a failure flags the session but
	// does not cancel the remaining fetches or block viewing.
	e.loadDependencies(ctx, s)

	if mode == ModeEdit {
		if err := e.loadEntity(ctx, s); err != nil {
			// The session was never shown, so there is nothing stale to
			// preserve: surface a blocking error.
			return model.FormDescriptor{}, blockingLoadError(def, err)
		}
	}

	e.storeSession(s)
	if e.metrics != nil {
		e.metrics.FormSessionsOpened.WithLabelValues(formID, mode).Inc()
	}
	return e.describe(s), nil
}

// Get returns the current descriptor for a session.
func (e *Engine) Get(sessionID string) (model.FormDescriptor, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return model.FormDescriptor{}, err
	}
	return e.describe(s), nil
}

// Refresh refetches the backing entity of an edit session. A session the
// user has already dirtied keeps its stale view rather than being
// replaced by an error or silently overwritten.
func (e *Engine) Refresh(ctx context.Context, sessionID string) (model.FormDescriptor, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return model.FormDescriptor{}, err
	}
	if s.Mode != ModeEdit {
		return e.describe(s), nil
	}

	s.mu.Lock()
	dirty := s.dirty
	s.mu.Unlock()
	if dirty {
		return e.describe(s), nil
	}

	if err := e.loadEntity(ctx, s); err != nil {
		return model.FormDescriptor{}, blockingLoadError(s.def, err)
	}
	return e.describe(s), nil
}

// SetField records a field value. When the field is a connection source
// and the value genuinely changed, the connection's propagation cycle
// runs before the updated descriptor is returned.
func (e *Engine) SetField(ctx context.Context, sessionID, field string, raw any) (model.FormDescriptor, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return model.FormDescriptor{}, err
	}

	fd, ok := s.fieldByName(field)
	if !ok {
		return model.FormDescriptor{}, model.NewBadRequestError(
			fmt.Sprintf("form %q has no field %q", s.FormID, field),
		)
	}

	value := applyTransform(fd.InputTransform, parseFieldValue(fd.Kind, raw))

	s.mu.Lock()
	changed := !valuesEqual(s.values[field], value)
	s.values[field] = value
	s.dirty = true
	// Writes defer validation: the stale error is cleared and nothing
	// re-validates until the next submit.
	delete(s.fieldErrors, field)
	s.touch()
	s.mu.Unlock()

	if changed {
		for _, conn := range s.def.Connections {
			if conn.Source == field {
				e.propagate(ctx, s, conn, value)
			}
		}
	}

	return e.describe(s), nil
}

// Submit validates the session, applies output transforms, and invokes
// the create or update operation.
func (e *Engine) Submit(ctx context.Context, sessionID string) (model.SubmitResult, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return model.SubmitResult{}, err
	}

	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return model.SubmitResult{}, model.NewConflictError("submission already in progress")
	}
	if s.depErr != "" {
		s.mu.Unlock()
		return model.SubmitResult{}, model.NewDependencyFailedError(s.depErr)
	}
	s.saving = true
	s.mu.Unlock()

	// The saving flag clears on every path out of here.
	defer func() {
		s.mu.Lock()
		s.saving = false
		s.mu.Unlock()
	}()

	if details := e.validateAll(s); len(details) > 0 {
		if e.metrics != nil {
			e.metrics.FormSubmitsTotal.WithLabelValues(s.FormID, "invalid").Inc()
		}
		return model.SubmitResult{}, model.NewValidationError(details)
	}

	payload := e.buildPayload(s)

	op := s.def.Create
	input := model.InvocationInput{Body: payload}
	if s.Mode == ModeEdit {
		op = s.def.Update
		input.PathParams = map[string]string{idParam(s.def): s.EntityID}
	}
	if op == nil {
		return model.SubmitResult{}, model.NewBadRequestError(
			fmt.Sprintf("form %q has no %s operation", s.FormID, s.Mode),
		)
	}

	result, err := e.invoker.Invoke(ctx, *op, input)
	if err != nil {
		if e.metrics != nil {
			e.metrics.FormSubmitsTotal.WithLabelValues(s.FormID, "error").Inc()
		}
		s.mu.Lock()
		s.addNotice(model.NoticeError, err.Error())
		s.mu.Unlock()
		return model.SubmitResult{}, err
	}

	if e.metrics != nil {
		e.metrics.FormSubmitsTotal.WithLabelValues(s.FormID, "success").Inc()
	}

	message := renderMessage(s.def.SuccessMessage, s)
	e.dropSession(s.ID)

	res := model.SubmitResult{
		Success: true,
		Message: message,
		Route:   s.def.SuccessRoute,
	}
	if m, ok := result.Data.(map[string]any); ok {
		res.Result = m
	}
	return res, nil
}

// Sweep evicts sessions idle longer than the session TTL. Run
// periodically from a background goroutine.
func (e *Engine) Sweep(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	evicted := 0
	for id, s := range e.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastAccess)
		s.mu.Unlock()
		if idle > e.sessionTTL {
			delete(e.sessions, id)
			evicted++
		}
	}
	if e.metrics != nil {
		e.metrics.FormSessionsActive.Set(float64(len(e.sessions)))
	}
	return evicted
}

// SessionCount returns the number of live sessions. For testing.
func (e *Engine) SessionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// --- session store ---

func (e *Engine) storeSession(s *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sessions) >= e.maxSessions {
		// Oldest-idle eviction keeps the store bounded under load.
		var oldestID string
		var oldest time.Time
		for id, sess := range e.sessions {
			sess.mu.Lock()
			at := sess.lastAccess
			sess.mu.Unlock()
			if oldestID == "" || at.Before(oldest) {
				oldestID, oldest = id, at
			}
		}
		if oldestID != "" {
			delete(e.sessions, oldestID)
		}
	}
	e.sessions[s.ID] = s
	if e.metrics != nil {
		e.metrics.FormSessionsActive.Set(float64(len(e.sessions)))
	}
}

func (e *Engine) session(sessionID string) (*Session, error) {
	e.mu.RLock()
	s, ok := e.sessions[sessionID]
	e.mu.RUnlock()
	if !ok {
		return nil, model.NewSessionNotFoundError(sessionID)
	}
	return s, nil
}

func (e *Engine) dropSession(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, sessionID)
	if e.metrics != nil {
		e.metrics.FormSessionsActive.Set(float64(len(e.sessions)))
	}
}

// --- loading ---

// loadDependencies resolves every declared dependency concurrently. The
// group carries no cancellation: a failed fetch flags the session while
// the rest run to completion.
func (e *Engine) loadDependencies(ctx context.Context, s *Session) {
	if len(s.def.Dependencies) == 0 {
		return
	}

	var g errgroup.Group
	for _, dep := range s.def.Dependencies {
		g.Go(func() error {
			resp, err := e.lookups.GetLookup(ctx, dep.LookupID, "")
			if err != nil {
				return fmt.Errorf("dependency %q: %w", dep.Key, err)
			}
			s.mu.Lock()
			s.deps[dep.Key] = resp.Data.Options
			s.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.mu.Lock()
		s.depErr = err.Error()
		s.mu.Unlock()
		e.logger.Warn("form dependency load failed",
			zap.String("form_id", s.FormID),
			zap.Error(err),
		)
	}
}

// loadEntity fetches the backing entity and populates known fields,
// applying the form's field map and each field's input transform.
func (e *Engine) loadEntity(ctx context.Context, s *Session) error {
	input := model.InvocationInput{
		PathParams: map[string]string{idParam(s.def): s.EntityID},
	}
	result, err := e.invoker.Invoke(ctx, *s.def.Load, input)
	if err != nil {
		return err
	}

	data, ok := result.Data.(map[string]any)
	if !ok {
		return nil
	}
	data = model.NormalizeEntity(data)

	if len(s.def.FieldMap) > 0 {
		renamed := make(map[string]any, len(data))
		for k, v := range data {
			if name, mapped := s.def.FieldMap[k]; mapped {
				renamed[name] = v
			} else {
				renamed[k] = v
			}
		}
		data = renamed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sec := range s.def.Sections {
		for _, f := range sec.Fields {
			if v, present := data[f.Name]; present && v != nil {
				s.values[f.Name] = applyTransform(f.InputTransform, parseFieldValue(f.Kind, v))
			}
		}
	}
	s.touch()
	return nil
}

// --- submission helpers ---

func (e *Engine) validateAll(s *Session) []model.FieldError {
	s.mu.Lock()
	defer s.mu.Unlock()

	var details []model.FieldError
	for _, sec := range s.def.Sections {
		for _, f := range sec.Fields {
			if msg := validateField(f, s.values[f.Name]); msg != "" {
				s.fieldErrors[f.Name] = msg
				details = append(details, model.FieldError{
					Field:   f.Name,
					Code:    "invalid",
					Message: msg,
				})
			}
		}
	}
	return details
}

// buildPayload assembles the submission body, applying output transforms
// and the inverted field map. NaN sentinels are omitted; they only occur
// on optional unvalidated numbers at this point.
func (e *Engine) buildPayload(s *Session) map[string]any {
	inverse := make(map[string]string, len(s.def.FieldMap))
	for apiName, formName := range s.def.FieldMap {
		inverse[formName] = apiName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload := make(map[string]any)
	for _, sec := range s.def.Sections {
		for _, f := range sec.Fields {
			v := s.values[f.Name]
			if isNaN(v) {
				continue
			}
			v = applyTransform(f.OutputTransform, v)
			name := f.Name
			if apiName, ok := inverse[name]; ok {
				name = apiName
			}
			payload[name] = v
		}
	}
	return payload
}

// --- descriptors ---

func (e *Engine) describe(s *Session) model.FormDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	desc := model.FormDescriptor{
		ID:             s.FormID,
		SessionID:      s.ID,
		Title:          s.def.Title,
		Mode:           s.Mode,
		SubmitEndpoint: fmt.Sprintf("/ui/forms/%s/sessions/%s/submit", s.FormID, s.ID),
		SuccessRoute:   s.def.SuccessRoute,
		DependencyError: s.depErr,
		Notices:        s.drainNotices(),
	}

	immutable := make(map[string]bool, len(s.def.ImmutableOnEdit))
	for _, name := range s.def.ImmutableOnEdit {
		immutable[name] = true
	}

	for _, sec := range s.def.Sections {
		sd := model.SectionDescriptor{ID: sec.ID, Title: sec.Title}
		for _, f := range sec.Fields {
			fd := model.FieldDescriptor{
				Name:        f.Name,
				Label:       f.Label,
				Kind:        f.Kind,
				Value:       s.values[f.Name],
				Required:    f.Required,
				Placeholder: f.Placeholder,
				HelpText:    f.HelpText,
				Error:       s.fieldErrors[f.Name],
			}
			if isNaN(fd.Value) {
				// NaN does not serialize to JSON; the client renders the
				// sentinel as an empty input.
				fd.Value = nil
			}
			if f.Validation != nil {
				fd.Validation = &model.ValidationDescriptor{
					MinLength: f.Validation.MinLength,
					MaxLength: f.Validation.MaxLength,
					Min:       f.Validation.Min,
					Max:       f.Validation.Max,
					Pattern:   f.Validation.Pattern,
					Message:   f.Validation.Message,
				}
			}
			if status, tracked := s.calcStatus[f.Name]; tracked {
				fd.CalcStatus = status
			}

			switch {
			case f.DependencyKey != "":
				opts, resolved := s.deps[f.DependencyKey]
				fd.Options = opts
				// A field whose backing dependency never resolved stays
				// disabled rather than offering an empty select.
				fd.Disabled = !resolved
			case len(f.Options) > 0:
				for _, opt := range f.Options {
					fd.Options = append(fd.Options, model.OptionDescriptor{
						Label: opt.Label,
						Value: opt.Value,
					})
				}
			}

			if s.Mode == ModeEdit && immutable[f.Name] {
				fd.Disabled = true
			}

			sd.Fields = append(sd.Fields, fd)
		}
		desc.Sections = append(desc.Sections, sd)
	}

	return desc
}

// --- helpers ---

func idParam(def model.FormDefinition) string {
	if def.IDParam != "" {
		return def.IDParam
	}
	return "id"
}

// blockingLoadError turns an entity load failure into the error shown in
// place of the form, e.g. "Country not found".
func blockingLoadError(def model.FormDefinition, err error) error {
	if ee, ok := err.(*model.ErrorEnvelope); ok && ee.Code == model.ErrNotFound {
		return model.NewNotFoundError(fmt.Sprintf("%s not found", titleCase(def.Entity)))
	}
	return err
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// renderMessage interpolates {field} placeholders in a success message
// template with the session's current values.
func renderMessage(template string, s *Session) string {
	if template == "" {
		return "Saved"
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := template
	for name, v := range s.values {
		placeholder := "{" + name + "}"
		if strings.Contains(out, placeholder) {
			out = strings.ReplaceAll(out, placeholder, fmt.Sprint(v))
		}
	}
	return out
}
