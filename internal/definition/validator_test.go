package definition

import (
	"strings"
	"testing"

	"github.com/quintor/shopdesk/model"
)

func validDomain() model.DomainDefinition {
	return model.DomainDefinition{
		Domain:     "currencies",
		SourceFile: "currencies.yaml",
		Pages: []model.PageDefinition{
			{
				ID: "currencies-list",
				DataSource: model.DataSourceDefinition{
					Operation: model.OperationDefinition{Method: "GET", Path: "/private/currencies"},
				},
				Columns: []model.ColumnDefinition{{Field: "code", Label: "Code", Type: "text"}},
				RowActions: []model.ActionDefinition{
					{ID: "edit", Type: "navigate", NavigateTo: "/currencies/{code}"},
					{ID: "delete", Type: "command", CommandID: "delete-currency"},
				},
			},
		},
		Forms: []model.FormDefinition{
			{
				ID:     "currency-form",
				Load:   &model.OperationDefinition{Method: "GET", Path: "/private/currencies/{code}"},
				Create: &model.OperationDefinition{Method: "POST", Path: "/private/currencies"},
				Update: &model.OperationDefinition{Method: "PUT", Path: "/private/currencies/{code}"},
				Dependencies: []model.DependencyDefinition{
					{Key: "currencies", LookupID: "currency-options"},
				},
				Connections: []model.ConnectionDefinition{
					{
						Source:  "code",
						Targets: []string{"name"},
						Rows:    []map[string]any{{"code": "EUR", "name": "Euro"}},
						Calculations: []model.CalculationDefinition{
							{Field: "rate", Trigger: "code", Calculator: "currency-rate"},
						},
					},
				},
				ImmutableOnEdit: []string{"code"},
				Sections: []model.SectionDefinition{
					{
						ID: "main",
						Fields: []model.FieldDefinition{
							{Name: "code", Label: "Code", Kind: "text"},
							{Name: "name", Label: "Name", Kind: "text"},
							{Name: "rate", Label: "Rate", Kind: "number"},
							{Name: "pick", Label: "Pick", Kind: "select", DependencyKey: "currencies"},
						},
					},
				},
			},
		},
		Details: []model.DetailDefinition{
			{
				ID:        "currency-detail",
				Load:      model.OperationDefinition{Method: "GET", Path: "/private/currencies/{code}"},
				BackRoute: "/currencies",
				Sections: []model.DetailSectionDefinition{
					{ID: "main", Fields: []model.DetailFieldDefinition{{Path: "code", Label: "Code"}}},
				},
			},
		},
		Commands: []model.CommandDefinition{
			{ID: "delete-currency", Operation: model.OperationDefinition{Method: "DELETE", Path: "/private/currencies/{code}"}},
		},
		Lookups: []model.LookupDefinition{
			{
				ID:         "currency-options",
				Operation:  model.OperationDefinition{Method: "GET", Path: "/private/currencies"},
				LabelField: "name",
				ValueField: "code",
			},
		},
	}
}

func hasError(errs []ValidationError, fragment string) bool {
	for _, e := range errs {
		if strings.Contains(e.Error(), fragment) {
			return true
		}
	}
	return false
}

func TestValidate_cleanDefinitions(t *testing.T) {
	errs := NewValidator().Validate([]model.DomainDefinition{validDomain()})
	if len(errs) != 0 {
		t.Fatalf("Validate() = %v, want no errors", errs)
	}
}

func TestValidate_duplicateDomain(t *testing.T) {
	a := validDomain()
	b := validDomain()
	b.SourceFile = "copy.yaml"
	// Strip child IDs so only the domain clash is reported.
	b.Pages, b.Forms, b.Details, b.Commands, b.Lookups = nil, nil, nil, nil, nil

	errs := NewValidator().Validate([]model.DomainDefinition{a, b})
	if !hasError(errs, "duplicate domain") {
		t.Errorf("Validate() = %v, want duplicate domain error", errs)
	}
}

func TestValidate_duplicateIDsAcrossFiles(t *testing.T) {
	a := validDomain()
	b := validDomain()
	b.Domain = "currencies-copy"
	b.SourceFile = "copy.yaml"

	errs := NewValidator().Validate([]model.DomainDefinition{a, b})
	if !hasError(errs, "duplicate ID") {
		t.Errorf("Validate() = %v, want duplicate ID errors", errs)
	}
}

func TestValidate_formProblems(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*model.DomainDefinition)
		fragment string
	}{
		{
			"no operations",
			func(d *model.DomainDefinition) {
				d.Forms[0].Create = nil
				d.Forms[0].Update = nil
				d.Forms[0].Load = nil
			},
			"at least one of create or update",
		},
		{
			"update without load",
			func(d *model.DomainDefinition) { d.Forms[0].Load = nil },
			"require a load operation",
		},
		{
			"duplicate field name",
			func(d *model.DomainDefinition) {
				sec := &d.Forms[0].Sections[0]
				sec.Fields = append(sec.Fields, model.FieldDefinition{Name: "code", Label: "Again", Kind: "text"})
			},
			"duplicate field name",
		},
		{
			"unknown field kind",
			func(d *model.DomainDefinition) { d.Forms[0].Sections[0].Fields[0].Kind = "slider" },
			"unknown kind",
		},
		{
			"invalid pattern",
			func(d *model.DomainDefinition) {
				d.Forms[0].Sections[0].Fields[0].Validation = &model.ValidationDefinition{Pattern: "(["}
			},
			"invalid pattern",
		},
		{
			"unknown dependency lookup",
			func(d *model.DomainDefinition) { d.Forms[0].Dependencies[0].LookupID = "missing" },
			"unknown lookup",
		},
		{
			"field references undeclared dependency",
			func(d *model.DomainDefinition) { d.Forms[0].Sections[0].Fields[3].DependencyKey = "nope" },
			"undeclared dependency",
		},
		{
			"connection source not a field",
			func(d *model.DomainDefinition) { d.Forms[0].Connections[0].Source = "ghost" },
			"not a form field",
		},
		{
			"connection target not a field",
			func(d *model.DomainDefinition) { d.Forms[0].Connections[0].Targets = []string{"ghost"} },
			"not a form field",
		},
		{
			"empty connection rows",
			func(d *model.DomainDefinition) { d.Forms[0].Connections[0].Rows = nil },
			"rows must not be empty",
		},
		{
			"calculation without calculator",
			func(d *model.DomainDefinition) { d.Forms[0].Connections[0].Calculations[0].Calculator = "" },
			"calculator name is required",
		},
		{
			"immutable names unknown field",
			func(d *model.DomainDefinition) { d.Forms[0].ImmutableOnEdit = []string{"ghost"} },
			"unknown field",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDomain()
			tt.mutate(&def)
			errs := NewValidator().Validate([]model.DomainDefinition{def})
			if !hasError(errs, tt.fragment) {
				t.Errorf("Validate() = %v, want error containing %q", errs, tt.fragment)
			}
		})
	}
}

func TestValidate_crossDomainLookupReference(t *testing.T) {
	currencies := validDomain()
	countries := model.DomainDefinition{
		Domain:     "countries",
		SourceFile: "countries.yaml",
		Forms: []model.FormDefinition{
			{
				ID:     "country-form",
				Create: &model.OperationDefinition{Method: "POST", Path: "/private/countries"},
				Dependencies: []model.DependencyDefinition{
					{Key: "currencies", LookupID: "currency-options"},
				},
				Sections: []model.SectionDefinition{
					{ID: "main", Fields: []model.FieldDefinition{
						{Name: "currency_code", Label: "Currency", Kind: "select", DependencyKey: "currencies"},
					}},
				},
			},
		},
	}

	errs := NewValidator().Validate([]model.DomainDefinition{currencies, countries})
	if len(errs) != 0 {
		t.Errorf("Validate() = %v, a lookup in another domain should resolve", errs)
	}
}

func TestValidate_pageProblems(t *testing.T) {
	def := validDomain()
	def.Pages[0].Columns = nil
	def.Pages[0].RowActions = append(def.Pages[0].RowActions, model.ActionDefinition{ID: "odd", Type: "mystery"})

	errs := NewValidator().Validate([]model.DomainDefinition{def})
	if !hasError(errs, "at least one column") {
		t.Errorf("want column error, got %v", errs)
	}
	if !hasError(errs, "unknown type") {
		t.Errorf("want action type error, got %v", errs)
	}
}

func TestValidate_detailAndCommandProblems(t *testing.T) {
	def := validDomain()
	def.Details[0].BackRoute = ""
	def.Commands[0].Operation.Path = ""

	errs := NewValidator().Validate([]model.DomainDefinition{def})
	if !hasError(errs, "back_route is required") {
		t.Errorf("want back_route error, got %v", errs)
	}
	if !hasError(errs, "operation method and path are required") {
		t.Errorf("want command operation error, got %v", errs)
	}
}
