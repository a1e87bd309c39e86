package model

// DomainDefinition is the root structure of a definition file. Each file
// declares one entity domain's list pages, forms, detail pages, commands,
// and lookups.
type DomainDefinition struct {
	Domain     string               `yaml:"domain"     json:"domain"`
	Version    string               `yaml:"version"    json:"version"`
	Navigation NavigationDefinition `yaml:"navigation" json:"navigation"`
	Pages      []PageDefinition     `yaml:"pages"      json:"pages,omitempty"`
	Forms      []FormDefinition     `yaml:"forms"      json:"forms,omitempty"`
	Details    []DetailDefinition   `yaml:"details"    json:"details,omitempty"`
	Commands   []CommandDefinition  `yaml:"commands"   json:"commands,omitempty"`
	Lookups    []LookupDefinition   `yaml:"lookups"    json:"lookups,omitempty"`

	// Checksum is computed at load time and not part of the YAML.
	Checksum string `yaml:"-" json:"-"`
	// SourceFile records the originating file path.
	SourceFile string `yaml:"-" json:"-"`
}

// NavigationDefinition describes a domain's menu entry.
type NavigationDefinition struct {
	Label    string                      `yaml:"label"    json:"label"`
	Icon     string                      `yaml:"icon"     json:"icon"`
	Order    int                         `yaml:"order"    json:"order"`
	Children []NavigationChildDefinition `yaml:"children" json:"children"`
}

// NavigationChildDefinition describes a child navigation item in the menu.
type NavigationChildDefinition struct {
	Label  string `yaml:"label"   json:"label"`
	Icon   string `yaml:"icon"    json:"icon,omitempty"`
	Route  string `yaml:"route"   json:"route"`
	PageID string `yaml:"page_id" json:"page_id"`
	Order  int    `yaml:"order"   json:"order"`
}

// PageDefinition describes a list page backed by a paginated collection
// endpoint.
type PageDefinition struct {
	ID         string              `yaml:"id"          json:"id"`
	Title      string              `yaml:"title"       json:"title"`
	Route      string              `yaml:"route"       json:"route"`
	DataSource DataSourceDefinition `yaml:"data_source" json:"data_source"`
	PageSize   int                 `yaml:"page_size"   json:"page_size,omitempty"`
	Columns    []ColumnDefinition  `yaml:"columns"     json:"columns"`
	Filters    []FilterDefinition  `yaml:"filters"     json:"filters,omitempty"`
	RowActions []ActionDefinition  `yaml:"row_actions" json:"row_actions,omitempty"`
	Actions    []ActionDefinition  `yaml:"actions"     json:"actions,omitempty"`
}

// DataSourceDefinition describes how to fetch and unwrap collection data.
type DataSourceDefinition struct {
	Operation OperationDefinition `yaml:"operation"  json:"operation"`
	ItemsPath string              `yaml:"items_path" json:"items_path"`
	TotalPath string              `yaml:"total_path" json:"total_path,omitempty"`
	FieldMap  map[string]string   `yaml:"field_map"  json:"field_map,omitempty"`
}

// ColumnDefinition describes a table column.
type ColumnDefinition struct {
	Field     string            `yaml:"field"      json:"field"`
	Label     string            `yaml:"label"      json:"label"`
	Type      string            `yaml:"type"       json:"type"`
	Format    string            `yaml:"format"     json:"format,omitempty"`
	Link      *LinkDefinition   `yaml:"link"       json:"link,omitempty"`
	StatusMap map[string]string `yaml:"status_map" json:"status_map,omitempty"`
}

// LinkDefinition describes a clickable link within a table cell.
type LinkDefinition struct {
	Route  string            `yaml:"route"  json:"route"`
	Params map[string]string `yaml:"params" json:"params,omitempty"`
}

// FilterDefinition describes a filter control above a table. Filter values
// are forwarded to the data source as query parameters.
type FilterDefinition struct {
	Field   string         `yaml:"field"   json:"field"`
	Label   string         `yaml:"label"   json:"label"`
	Type    string         `yaml:"type"    json:"type"`
	Options []StaticOption `yaml:"options" json:"options,omitempty"`
}

// StaticOption is a label/value pair for dropdowns and filters.
type StaticOption struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// ActionDefinition describes a UI action (button, row menu item).
type ActionDefinition struct {
	ID           string                  `yaml:"id"           json:"id"`
	Label        string                  `yaml:"label"        json:"label"`
	Icon         string                  `yaml:"icon"         json:"icon,omitempty"`
	Style        string                  `yaml:"style"        json:"style,omitempty"`
	Type         string                  `yaml:"type"         json:"type"`
	CommandID    string                  `yaml:"command_id"   json:"command_id,omitempty"`
	NavigateTo   string                  `yaml:"navigate_to"  json:"navigate_to,omitempty"`
	Confirmation *ConfirmationDefinition `yaml:"confirmation" json:"confirmation,omitempty"`
}

// ConfirmationDefinition describes a confirmation dialog shown before a
// destructive action runs.
type ConfirmationDefinition struct {
	Title   string `yaml:"title"   json:"title"`
	Message string `yaml:"message" json:"message"`
	Confirm string `yaml:"confirm" json:"confirm"`
	Cancel  string `yaml:"cancel"  json:"cancel,omitempty"`
	Style   string `yaml:"style"   json:"style,omitempty"`
}

// FormDefinition describes a create/edit form for one entity.
type FormDefinition struct {
	ID             string                 `yaml:"id"              json:"id"`
	Title          string                 `yaml:"title"           json:"title"`
	Entity         string                 `yaml:"entity"          json:"entity"`
	Load           *OperationDefinition   `yaml:"load"            json:"load,omitempty"`
	Create         *OperationDefinition   `yaml:"create"          json:"create,omitempty"`
	Update         *OperationDefinition   `yaml:"update"          json:"update,omitempty"`
	IDParam        string                 `yaml:"id_param"        json:"id_param,omitempty"`
	SuccessRoute   string                 `yaml:"success_route"   json:"success_route,omitempty"`
	SuccessMessage string                 `yaml:"success_message" json:"success_message,omitempty"`
	ImmutableOnEdit []string              `yaml:"immutable_on_edit" json:"immutable_on_edit,omitempty"`
	FieldMap       map[string]string      `yaml:"field_map"       json:"field_map,omitempty"`
	Dependencies   []DependencyDefinition `yaml:"dependencies"    json:"dependencies,omitempty"`
	Connections    []ConnectionDefinition `yaml:"connections"     json:"connections,omitempty"`
	Sections       []SectionDefinition    `yaml:"sections"        json:"sections"`
}

// DependencyDefinition names an async option source a form needs before it
// is usable. The lookup is resolved once per session open.
type DependencyDefinition struct {
	Key      string `yaml:"key"       json:"key"`
	LookupID string `yaml:"lookup_id" json:"lookup_id"`
}

// SectionDefinition describes a titled group of fields within a form.
type SectionDefinition struct {
	ID     string            `yaml:"id"     json:"id"`
	Title  string            `yaml:"title"  json:"title"`
	Fields []FieldDefinition `yaml:"fields" json:"fields"`
}

// FieldDefinition describes a single form field. Name must be unique per
// form; the definition validator enforces it.
type FieldDefinition struct {
	Name            string                `yaml:"name"             json:"name"`
	Label           string                `yaml:"label"            json:"label"`
	Kind            string                `yaml:"kind"             json:"kind"`
	Default         any                   `yaml:"default"          json:"default,omitempty"`
	DependencyKey   string                `yaml:"dependency_key"   json:"dependency_key,omitempty"`
	InputTransform  string                `yaml:"input_transform"  json:"input_transform,omitempty"`
	OutputTransform string                `yaml:"output_transform" json:"output_transform,omitempty"`
	Required        bool                  `yaml:"required"         json:"required,omitempty"`
	Validation      *ValidationDefinition `yaml:"validation"       json:"validation,omitempty"`
	Placeholder     string                `yaml:"placeholder"      json:"placeholder,omitempty"`
	HelpText        string                `yaml:"help_text"        json:"help_text,omitempty"`
	Options         []StaticOption        `yaml:"options"          json:"options,omitempty"`
}

// ValidationDefinition describes validation rules for a field.
type ValidationDefinition struct {
	MinLength *int     `yaml:"min_length" json:"min_length,omitempty"`
	MaxLength *int     `yaml:"max_length" json:"max_length,omitempty"`
	Min       *float64 `yaml:"min"        json:"min,omitempty"`
	Max       *float64 `yaml:"max"        json:"max,omitempty"`
	Pattern   string   `yaml:"pattern"    json:"pattern,omitempty"`
	Message   string   `yaml:"message"    json:"message,omitempty"`
}

// ConnectionDefinition synchronizes related fields from a fixed lookup
// table when a source field changes.
type ConnectionDefinition struct {
	Source         string                  `yaml:"source"            json:"source"`
	Targets        []string                `yaml:"targets"           json:"targets"`
	Rows           []map[string]any        `yaml:"rows"              json:"rows"`
	ClearOnNoMatch *bool                   `yaml:"clear_on_no_match" json:"clear_on_no_match,omitempty"`
	Calculations   []CalculationDefinition `yaml:"calculations"      json:"calculations,omitempty"`
}

// ClearsOnNoMatch reports whether an unmatched source value resets target
// fields. Omitting the flag means yes; only an explicit false disables it.
func (c ConnectionDefinition) ClearsOnNoMatch() bool {
	return c.ClearOnNoMatch == nil || *c.ClearOnNoMatch
}

// CalculationDefinition attaches an asynchronous enrichment to a
// connection: when the connection matches, the named calculator is invoked
// with the matched row's trigger value and its result written to Field.
type CalculationDefinition struct {
	Field        string `yaml:"field"         json:"field"`
	Trigger      string `yaml:"trigger"       json:"trigger"`
	Calculator   string `yaml:"calculator"    json:"calculator"`
	Default      any    `yaml:"default"       json:"default,omitempty"`
	ErrorMessage string `yaml:"error_message" json:"error_message,omitempty"`
}

// DetailDefinition describes a read-only detail page for one entity.
type DetailDefinition struct {
	ID        string                    `yaml:"id"         json:"id"`
	Title     string                    `yaml:"title"      json:"title"`
	Entity    string                    `yaml:"entity"     json:"entity"`
	Load      OperationDefinition       `yaml:"load"       json:"load"`
	IDParam   string                    `yaml:"id_param"   json:"id_param,omitempty"`
	BackRoute string                    `yaml:"back_route" json:"back_route"`
	EditRoute string                    `yaml:"edit_route" json:"edit_route,omitempty"`
	Sections  []DetailSectionDefinition `yaml:"sections"   json:"sections"`
}

// DetailSectionDefinition is a titled group of read-only fields.
type DetailSectionDefinition struct {
	ID          string                  `yaml:"id"           json:"id"`
	Title       string                  `yaml:"title"        json:"title"`
	VisibleWhen *ConditionDefinition    `yaml:"visible_when" json:"visible_when,omitempty"`
	Fields      []DetailFieldDefinition `yaml:"fields"       json:"fields"`
}

// DetailFieldDefinition describes one labeled value on a detail page.
// Path supports dotted access into nested objects.
type DetailFieldDefinition struct {
	Path        string               `yaml:"path"         json:"path"`
	Label       string               `yaml:"label"        json:"label"`
	Format      string               `yaml:"format"       json:"format,omitempty"`
	StatusMap   map[string]string    `yaml:"status_map"   json:"status_map,omitempty"`
	VisibleWhen *ConditionDefinition `yaml:"visible_when" json:"visible_when,omitempty"`
}

// ConditionDefinition is a predicate evaluated against the loaded entity.
// Operators: eq, ne, present, absent.
type ConditionDefinition struct {
	Path     string `yaml:"path"     json:"path"`
	Operator string `yaml:"operator" json:"operator"`
	Value    any    `yaml:"value"    json:"value,omitempty"`
}

// CommandDefinition describes a mutating operation triggered by a row or
// page action (delete product, cancel order).
type CommandDefinition struct {
	ID             string              `yaml:"id"              json:"id"`
	Operation      OperationDefinition `yaml:"operation"       json:"operation"`
	Input          InputMapping        `yaml:"input"           json:"input"`
	SuccessMessage string              `yaml:"success_message" json:"success_message,omitempty"`
}

// InputMapping describes how to map command input to a backend request.
// Values are source expressions (input.x, route.y, quoted literals).
type InputMapping struct {
	PathParams  map[string]string `yaml:"path_params"  json:"path_params,omitempty"`
	QueryParams map[string]string `yaml:"query_params" json:"query_params,omitempty"`
	BodyFields  map[string]string `yaml:"body_fields"  json:"body_fields,omitempty"`
}

// LookupDefinition describes an option-list provider for dropdowns and
// form dependencies.
type LookupDefinition struct {
	ID         string              `yaml:"id"          json:"id"`
	Operation  OperationDefinition `yaml:"operation"   json:"operation"`
	ItemsPath  string              `yaml:"items_path"  json:"items_path,omitempty"`
	LabelField string              `yaml:"label_field" json:"label_field"`
	ValueField string              `yaml:"value_field" json:"value_field"`
	Cache      *LookupCacheRule    `yaml:"cache"       json:"cache,omitempty"`
}

// LookupCacheRule overrides the default lookup cache TTL.
type LookupCacheRule struct {
	TTL string `yaml:"ttl" json:"ttl"`
}
