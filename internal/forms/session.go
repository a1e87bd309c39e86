package forms

import (
	"sync"
	"time"

	"github.com/quintor/shopdesk/model"
)

// Form modes.
const (
	ModeCreate = "create"
	ModeEdit   = "edit"
)

// Session holds the live state of one open form: field values,
// calculation statuses, validation errors, and queued notices. All access
// goes through mu; the propagation guard serializes connection cycles.
type Session struct {
	ID       string
	FormID   string
	Mode     string
	EntityID string

	def model.FormDefinition

	mu          sync.Mutex
	values      map[string]any
	calcStatus  map[string]model.CalculationStatus
	fieldErrors map[string]string
	notices     []model.Notice
	deps        map[string][]model.OptionDescriptor
	depErr      string
	dirty       bool
	saving      bool
	lastAccess  time.Time

	// guard enforces at most one propagation cycle at a time. A source
	// change arriving mid-cycle is dropped, not queued, so cycles can
	// never interleave or feed back into themselves.
	guard chan struct{}
}

func newSession(id string, def model.FormDefinition, mode, entityID string) *Session {
	s := &Session{
		ID:          id,
		FormID:      def.ID,
		Mode:        mode,
		EntityID:    entityID,
		def:         def,
		values:      make(map[string]any),
		calcStatus:  make(map[string]model.CalculationStatus),
		fieldErrors: make(map[string]string),
		deps:        make(map[string][]model.OptionDescriptor),
		lastAccess:  time.Now(),
		guard:       make(chan struct{}, 1),
	}
	for _, calc := range allCalculations(def) {
		s.calcStatus[calc.Field] = model.CalcIdle
	}
	return s
}

// tryBeginPropagation acquires the propagation guard without blocking.
func (s *Session) tryBeginPropagation() bool {
	select {
	case s.guard <- struct{}{}:
		return true
	default:
		return false
	}
}

// endPropagation releases the propagation guard.
func (s *Session) endPropagation() {
	<-s.guard
}

// touch records access time for TTL eviction. Caller holds mu.
func (s *Session) touch() {
	s.lastAccess = time.Now()
}

// addNotice queues a user-facing notification. Caller holds mu.
func (s *Session) addNotice(level, message string) {
	s.notices = append(s.notices, model.Notice{Level: level, Message: message})
}

// drainNotices returns queued notices and clears the queue. Caller holds mu.
func (s *Session) drainNotices() []model.Notice {
	n := s.notices
	s.notices = nil
	return n
}

// fieldByName finds a field definition in the form. The validator
// guarantees uniqueness.
func (s *Session) fieldByName(name string) (model.FieldDefinition, bool) {
	for _, sec := range s.def.Sections {
		for _, f := range sec.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return model.FieldDefinition{}, false
}

// allCalculations flattens every calculation declared across a form's
// connections.
func allCalculations(def model.FormDefinition) []model.CalculationDefinition {
	var calcs []model.CalculationDefinition
	for _, conn := range def.Connections {
		calcs = append(calcs, conn.Calculations...)
	}
	return calcs
}

// defaultFor resolves a field's configured default, falling back to the
// kind's zero value. Defaults enter the form like any other value, so
// the field's input transform applies.
func defaultFor(f model.FieldDefinition) any {
	v := zeroForKind(f.Kind)
	if f.Default != nil {
		v = parseFieldValue(f.Kind, f.Default)
	}
	return applyTransform(f.InputTransform, v)
}
