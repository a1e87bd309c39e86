package definition

import (
	"fmt"
	"regexp"

	"github.com/quintor/shopdesk/model"
)

// ValidationError describes one problem found in a definition file.
type ValidationError struct {
	Source  string // originating file
	Ref     string // element reference, e.g. "form create-currency"
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Ref, e.Message)
}

// Validator checks loaded definitions for internal consistency before they
// are served. All errors are collected rather than failing fast so a
// broken definitions directory is reported in one pass.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

var knownFieldKinds = map[string]bool{
	"text":     true,
	"number":   true,
	"textarea": true,
	"checkbox": true,
	"select":   true,
	"combo":    true,
}

// Validate checks all definitions and returns every problem found.
func (v *Validator) Validate(defs []model.DomainDefinition) []ValidationError {
	var errs []ValidationError

	seenDomains := make(map[string]string)
	seenIDs := make(map[string]string)

	// Lookups resolve through the shared registry, so a form may depend on
	// a lookup declared in another domain's file.
	lookupIDs := make(map[string]bool)
	for _, def := range defs {
		for _, l := range def.Lookups {
			lookupIDs[l.ID] = true
		}
	}

	claim := func(src, kind, id string) {
		key := kind + ":" + id
		if prev, dup := seenIDs[key]; dup {
			errs = append(errs, ValidationError{
				Source:  src,
				Ref:     fmt.Sprintf("%s %s", kind, id),
				Message: fmt.Sprintf("duplicate ID, already declared in %s", prev),
			})
			return
		}
		seenIDs[key] = src
	}

	for _, def := range defs {
		src := def.SourceFile

		if def.Domain == "" {
			errs = append(errs, ValidationError{Source: src, Ref: "domain", Message: "domain name is required"})
		} else if prev, dup := seenDomains[def.Domain]; dup {
			errs = append(errs, ValidationError{
				Source:  src,
				Ref:     "domain " + def.Domain,
				Message: fmt.Sprintf("duplicate domain, already declared in %s", prev),
			})
		} else {
			seenDomains[def.Domain] = src
		}

		for _, l := range def.Lookups {
			claim(src, "lookup", l.ID)
			errs = append(errs, v.validateLookup(src, l)...)
		}
		for _, p := range def.Pages {
			claim(src, "page", p.ID)
			errs = append(errs, v.validatePage(src, p)...)
		}
		for _, f := range def.Forms {
			claim(src, "form", f.ID)
			errs = append(errs, v.validateForm(src, f, lookupIDs)...)
		}
		for _, d := range def.Details {
			claim(src, "detail", d.ID)
			errs = append(errs, v.validateDetail(src, d)...)
		}
		for _, c := range def.Commands {
			claim(src, "command", c.ID)
			errs = append(errs, v.validateCommand(src, c)...)
		}
	}

	return errs
}

func (v *Validator) validateLookup(src string, l model.LookupDefinition) []ValidationError {
	var errs []ValidationError
	ref := "lookup " + l.ID

	if l.Operation.Method == "" || l.Operation.Path == "" {
		errs = append(errs, ValidationError{Source: src, Ref: ref, Message: "operation method and path are required"})
	}
	if l.LabelField == "" || l.ValueField == "" {
		errs = append(errs, ValidationError{Source: src, Ref: ref, Message: "label_field and value_field are required"})
	}
	return errs
}

func (v *Validator) validatePage(src string, p model.PageDefinition) []ValidationError {
	var errs []ValidationError
	ref := "page " + p.ID

	if p.DataSource.Operation.Method == "" || p.DataSource.Operation.Path == "" {
		errs = append(errs, ValidationError{Source: src, Ref: ref, Message: "data_source operation method and path are required"})
	}
	if len(p.Columns) == 0 {
		errs = append(errs, ValidationError{Source: src, Ref: ref, Message: "at least one column is required"})
	}
	for _, a := range append(append([]model.ActionDefinition{}, p.RowActions...), p.Actions...) {
		switch a.Type {
		case "navigate":
			if a.NavigateTo == "" {
				errs = append(errs, ValidationError{Source: src, Ref: ref, Message: fmt.Sprintf("action %q: navigate_to is required", a.ID)})
			}
		case "command":
			if a.CommandID == "" {
				errs = append(errs, ValidationError{Source: src, Ref: ref, Message: fmt.Sprintf("action %q: command_id is required", a.ID)})
			}
		default:
			errs = append(errs, ValidationError{Source: src, Ref: ref, Message: fmt.Sprintf("action %q: unknown type %q", a.ID, a.Type)})
		}
	}
	return errs
}

func (v *Validator) validateForm(src string, f model.FormDefinition, lookupIDs map[string]bool) []ValidationError {
	var errs []ValidationError
	ref := "form " + f.ID

	if f.Create == nil && f.Update == nil {
		errs = append(errs, ValidationError{Source: src, Ref: ref, Message: "at least one of create or update operations is required"})
	}
	if f.Update != nil && f.Load == nil {
		errs = append(errs, ValidationError{Source: src, Ref: ref, Message: "update forms require a load operation"})
	}

	// Field names must be unique per form; every reference below checks
	// against this set.
	fields := make(map[string]model.FieldDefinition)
	for _, sec := range f.Sections {
		for _, fd := range sec.Fields {
			if fd.Name == "" {
				errs = append(errs, ValidationError{Source: src, Ref: ref, Message: "field with empty name"})
				continue
			}
			if _, dup := fields[fd.Name]; dup {
				errs = append(errs, ValidationError{Source: src, Ref: ref, Message: fmt.Sprintf("duplicate field name %q", fd.Name)})
				continue
			}
			fields[fd.Name] = fd

			if !knownFieldKinds[fd.Kind] {
				errs = append(errs, ValidationError{Source: src, Ref: ref, Message: fmt.Sprintf("field %q: unknown kind %q", fd.Name, fd.Kind)})
			}
			if fd.Validation != nil && fd.Validation.Pattern != "" {
				if _, err := regexp.Compile(fd.Validation.Pattern); err != nil {
					errs = append(errs, ValidationError{Source: src, Ref: ref, Message: fmt.Sprintf("field %q: invalid pattern: %v", fd.Name, err)})
				}
			}
		}
	}

	depKeys := make(map[string]bool)
	for _, dep := range f.Dependencies {
		if depKeys[dep.Key] {
			errs = append(errs, ValidationError{Source: src, Ref: ref, Message: fmt.Sprintf("duplicate dependency key %q", dep.Key)})
		}
		depKeys[dep.Key] = true
		if !lookupIDs[dep.LookupID] {
			errs = append(errs, ValidationError{Source: src, Ref: ref, Message: fmt.Sprintf("dependency %q references unknown lookup %q", dep.Key, dep.LookupID)})
		}
	}
	for name, fd := range fields {
		if fd.DependencyKey != "" && !depKeys[fd.DependencyKey] {
			errs = append(errs, ValidationError{Source: src, Ref: ref, Message: fmt.Sprintf("field %q references undeclared dependency %q", name, fd.DependencyKey)})
		}
	}

	for i, conn := range f.Connections {
		connRef := fmt.Sprintf("%s connection[%d]", ref, i)
		if _, ok := fields[conn.Source]; !ok {
			errs = append(errs, ValidationError{Source: src, Ref: connRef, Message: fmt.Sprintf("source %q is not a form field", conn.Source)})
		}
		for _, t := range conn.Targets {
			if _, ok := fields[t]; !ok {
				errs = append(errs, ValidationError{Source: src, Ref: connRef, Message: fmt.Sprintf("target %q is not a form field", t)})
			}
		}
		if len(conn.Rows) == 0 {
			errs = append(errs, ValidationError{Source: src, Ref: connRef, Message: "lookup rows must not be empty"})
		}
		for _, calc := range conn.Calculations {
			if _, ok := fields[calc.Field]; !ok {
				errs = append(errs, ValidationError{Source: src, Ref: connRef, Message: fmt.Sprintf("calculation field %q is not a form field", calc.Field)})
			}
			if calc.Calculator == "" {
				errs = append(errs, ValidationError{Source: src, Ref: connRef, Message: fmt.Sprintf("calculation for %q: calculator name is required", calc.Field)})
			}
			if calc.Trigger == "" {
				errs = append(errs, ValidationError{Source: src, Ref: connRef, Message: fmt.Sprintf("calculation for %q: trigger is required", calc.Field)})
			}
		}
	}

	for _, name := range f.ImmutableOnEdit {
		if _, ok := fields[name]; !ok {
			errs = append(errs, ValidationError{Source: src, Ref: ref, Message: fmt.Sprintf("immutable_on_edit names unknown field %q", name)})
		}
	}

	return errs
}

func (v *Validator) validateDetail(src string, d model.DetailDefinition) []ValidationError {
	var errs []ValidationError
	ref := "detail " + d.ID

	if d.Load.Method == "" || d.Load.Path == "" {
		errs = append(errs, ValidationError{Source: src, Ref: ref, Message: "load operation method and path are required"})
	}
	if d.BackRoute == "" {
		errs = append(errs, ValidationError{Source: src, Ref: ref, Message: "back_route is required"})
	}
	for _, sec := range d.Sections {
		for _, fd := range sec.Fields {
			if fd.Path == "" {
				errs = append(errs, ValidationError{Source: src, Ref: ref, Message: fmt.Sprintf("section %q: field with empty path", sec.ID)})
			}
		}
	}
	return errs
}

func (v *Validator) validateCommand(src string, c model.CommandDefinition) []ValidationError {
	var errs []ValidationError
	ref := "command " + c.ID

	if c.Operation.Method == "" || c.Operation.Path == "" {
		errs = append(errs, ValidationError{Source: src, Ref: ref, Message: "operation method and path are required"})
	}
	return errs
}
