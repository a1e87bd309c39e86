package metadata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quintor/shopdesk/internal/definition"
	"github.com/quintor/shopdesk/model"
)

// DetailProvider resolves read-only detail pages: it fetches the entity
// and renders each configured path into a labeled, formatted value.
type DetailProvider struct {
	registry *definition.Registry
	invoker  model.Invoker
}

// NewDetailProvider creates a DetailProvider.
func NewDetailProvider(registry *definition.Registry, invoker model.Invoker) *DetailProvider {
	return &DetailProvider{registry: registry, invoker: invoker}
}

// GetDetail resolves a detail page for one entity. A missing entity ID is
// a configuration error and is rejected before any backend call.
func (p *DetailProvider) GetDetail(ctx context.Context, detailID, entityID string) (model.DetailDescriptor, error) {
	detailDef, ok := p.registry.GetDetail(detailID)
	if !ok {
		return model.DetailDescriptor{}, model.NewNotFoundError(
			fmt.Sprintf("detail %q not found", detailID),
		)
	}
	if entityID == "" {
		return model.DetailDescriptor{}, model.NewBadRequestError(
			fmt.Sprintf("detail %q requires an entity id", detailID),
		)
	}

	param := detailDef.IDParam
	if param == "" {
		param = "id"
	}
	input := model.InvocationInput{PathParams: map[string]string{param: entityID}}

	result, err := p.invoker.Invoke(ctx, detailDef.Load, input)
	if err != nil {
		if ee, ok := err.(*model.ErrorEnvelope); ok && ee.Code == model.ErrNotFound {
			return model.DetailDescriptor{}, model.NewNotFoundError(
				fmt.Sprintf("%s not found", titleOf(detailDef.Entity)),
			)
		}
		return model.DetailDescriptor{}, err
	}

	entity, _ := result.Data.(map[string]any)
	entity = model.NormalizeEntity(entity)

	desc := model.DetailDescriptor{
		ID:        detailDef.ID,
		Title:     detailDef.Title,
		BackRoute: detailDef.BackRoute,
		EditRoute: renderRoute(detailDef.EditRoute, entityID),
	}

	for _, sec := range detailDef.Sections {
		if sec.VisibleWhen != nil && !evaluateCondition(*sec.VisibleWhen, entity) {
			continue
		}
		sd := model.DetailSectionDescriptor{ID: sec.ID, Title: sec.Title}
		for _, field := range sec.Fields {
			if field.VisibleWhen != nil && !evaluateCondition(*field.VisibleWhen, entity) {
				continue
			}
			sd.Fields = append(sd.Fields, model.DetailFieldDescriptor{
				Label: field.Label,
				Value: formatValue(extractPath(entity, field.Path), field),
			})
		}
		desc.Sections = append(desc.Sections, sd)
	}

	return desc, nil
}

// renderRoute substitutes the {id} placeholder in an edit route.
func renderRoute(route, entityID string) string {
	if route == "" {
		return ""
	}
	return strings.ReplaceAll(route, "{id}", entityID)
}

// evaluateCondition checks a visibility predicate against the entity.
func evaluateCondition(cond model.ConditionDefinition, entity map[string]any) bool {
	value := extractPath(entity, cond.Path)
	switch cond.Operator {
	case "eq":
		return value != nil && fmt.Sprint(value) == fmt.Sprint(cond.Value)
	case "ne":
		return value == nil || fmt.Sprint(value) != fmt.Sprint(cond.Value)
	case "present":
		return isPresent(value)
	case "absent":
		return !isPresent(value)
	default:
		return true
	}
}

func isPresent(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	default:
		return true
	}
}

// formatValue renders a raw value according to the field's format and
// status map. Unformattable input falls through unchanged.
func formatValue(v any, field model.DetailFieldDefinition) any {
	if v == nil {
		return nil
	}

	if len(field.StatusMap) > 0 {
		if label, ok := field.StatusMap[fmt.Sprint(v)]; ok {
			return label
		}
	}

	switch field.Format {
	case "date":
		if t, ok := parseTime(v); ok {
			return t.Format("2006-01-02")
		}
	case "datetime":
		if t, ok := parseTime(v); ok {
			return t.Format("2006-01-02 15:04")
		}
	case "money":
		if f, ok := toFloat64(v); ok {
			return fmt.Sprintf("%.2f", f)
		}
	case "boolean":
		if b, ok := v.(bool); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
	}
	return v
}

func parseTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func titleOf(entity string) string {
	if entity == "" {
		return "Resource"
	}
	return strings.ToUpper(entity[:1]) + entity[1:]
}
