package model

// NavigationTree is the top-level navigation structure returned to the
// frontend.
type NavigationTree struct {
	Items []NavigationNode `json:"items"`
}

// NavigationNode is a single node in the navigation tree.
type NavigationNode struct {
	ID       string           `json:"id"`
	Label    string           `json:"label"`
	Icon     string           `json:"icon"`
	Route    string           `json:"route,omitempty"`
	Children []NavigationNode `json:"children"`
}

// PageDescriptor is the resolved list page sent to the frontend.
type PageDescriptor struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Route        string             `json:"route"`
	DataEndpoint string             `json:"data_endpoint"`
	PageSize     int                `json:"page_size"`
	Columns      []ColumnDescriptor `json:"columns"`
	Filters      []FilterDescriptor `json:"filters,omitempty"`
	RowActions   []ActionDescriptor `json:"row_actions,omitempty"`
	Actions      []ActionDescriptor `json:"actions,omitempty"`
}

// ColumnDescriptor describes a visible table column.
type ColumnDescriptor struct {
	Field     string            `json:"field"`
	Label     string            `json:"label"`
	Type      string            `json:"type"`
	Format    string            `json:"format,omitempty"`
	Link      *LinkDescriptor   `json:"link,omitempty"`
	StatusMap map[string]string `json:"status_map,omitempty"`
}

// LinkDescriptor describes a clickable link.
type LinkDescriptor struct {
	Route  string            `json:"route"`
	Params map[string]string `json:"params,omitempty"`
}

// FilterDescriptor describes a resolved filter control.
type FilterDescriptor struct {
	Field   string             `json:"field"`
	Label   string             `json:"label"`
	Type    string             `json:"type"`
	Options []OptionDescriptor `json:"options,omitempty"`
}

// OptionDescriptor is a resolved option for dropdowns and filters.
type OptionDescriptor struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ActionDescriptor is a resolved action sent to the frontend.
type ActionDescriptor struct {
	ID           string                  `json:"id"`
	Label        string                  `json:"label"`
	Icon         string                  `json:"icon,omitempty"`
	Style        string                  `json:"style,omitempty"`
	Type         string                  `json:"type"`
	CommandID    string                  `json:"command_id,omitempty"`
	NavigateTo   string                  `json:"navigate_to,omitempty"`
	Confirmation *ConfirmationDescriptor `json:"confirmation,omitempty"`
}

// ConfirmationDescriptor describes a confirmation dialog.
type ConfirmationDescriptor struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Confirm string `json:"confirm"`
	Cancel  string `json:"cancel,omitempty"`
	Style   string `json:"style,omitempty"`
}

// DataResponse is the standardized data response for list pages.
type DataResponse struct {
	Data DataPayload    `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

// DataPayload contains the items and pagination for a data response.
// TotalPages and HasNext are derived from the server-supplied count.
type DataPayload struct {
	Items      []map[string]any `json:"items"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
	HasNext    bool             `json:"has_next"`
}

// CalculationStatus is the lifecycle state of an async field calculation.
type CalculationStatus string

// Calculation statuses.
const (
	CalcIdle    CalculationStatus = "idle"
	CalcPending CalculationStatus = "pending"
	CalcSuccess CalculationStatus = "success"
	CalcError   CalculationStatus = "error"
)

// Notice is a user-facing notification queued on a form session, the
// server-side equivalent of a toast.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Notice levels.
const (
	NoticeSuccess = "success"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// FormDescriptor is the resolved form sent to the frontend when a session
// opens or changes.
type FormDescriptor struct {
	ID             string              `json:"id"`
	SessionID      string              `json:"session_id"`
	Title          string              `json:"title"`
	Mode           string              `json:"mode"`
	Sections       []SectionDescriptor `json:"sections"`
	SubmitEndpoint string              `json:"submit_endpoint"`
	SuccessRoute   string              `json:"success_route,omitempty"`
	DependencyError string             `json:"dependency_error,omitempty"`
	Notices        []Notice            `json:"notices,omitempty"`
}

// SectionDescriptor is a resolved form section.
type SectionDescriptor struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Fields []FieldDescriptor `json:"fields"`
}

// FieldDescriptor is a resolved field with its live session value.
type FieldDescriptor struct {
	Name        string                `json:"name"`
	Label       string                `json:"label"`
	Kind        string                `json:"kind"`
	Value       any                   `json:"value,omitempty"`
	Disabled    bool                  `json:"disabled"`
	Required    bool                  `json:"required"`
	Validation  *ValidationDescriptor `json:"validation,omitempty"`
	Options     []OptionDescriptor    `json:"options,omitempty"`
	Placeholder string                `json:"placeholder,omitempty"`
	HelpText    string                `json:"help_text,omitempty"`
	Error       string                `json:"error,omitempty"`
	CalcStatus  CalculationStatus     `json:"calc_status,omitempty"`
}

// ValidationDescriptor describes client-side validation rules.
type ValidationDescriptor struct {
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// SubmitResult is returned by a successful form submission.
type SubmitResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Route   string         `json:"route,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
	Errors  []FieldError   `json:"errors,omitempty"`
}

// DetailDescriptor is the resolved read-only detail view.
type DetailDescriptor struct {
	ID        string                    `json:"id"`
	Title     string                    `json:"title"`
	BackRoute string                    `json:"back_route"`
	EditRoute string                    `json:"edit_route,omitempty"`
	Sections  []DetailSectionDescriptor `json:"sections"`
}

// DetailSectionDescriptor is a resolved detail section.
type DetailSectionDescriptor struct {
	ID     string                  `json:"id"`
	Title  string                  `json:"title"`
	Fields []DetailFieldDescriptor `json:"fields"`
}

// DetailFieldDescriptor is one resolved labeled value.
type DetailFieldDescriptor struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// CommandResponse is the response from executing a command.
type CommandResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
	Errors  []FieldError   `json:"errors,omitempty"`
}

// LookupResponse is the response from a lookup endpoint.
type LookupResponse struct {
	Data LookupPayload  `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

// LookupPayload contains the lookup options.
type LookupPayload struct {
	Options []OptionDescriptor `json:"options"`
}
