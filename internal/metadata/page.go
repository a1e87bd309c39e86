package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/quintor/shopdesk/internal/definition"
	"github.com/quintor/shopdesk/model"
)

const defaultPageSize = 25

// DataParams carries the pagination and filter parameters of a page data
// request.
type DataParams struct {
	Page     int
	PageSize int
	Query    string
	Filters  map[string]string
}

// PageProvider resolves PageDefinitions into PageDescriptors and fetches
// list data from the backend.
type PageProvider struct {
	registry *definition.Registry
	invoker  model.Invoker
	actions  *ActionProvider
}

// NewPageProvider creates a PageProvider.
func NewPageProvider(registry *definition.Registry, invoker model.Invoker, actions *ActionProvider) *PageProvider {
	return &PageProvider{
		registry: registry,
		invoker:  invoker,
		actions:  actions,
	}
}

// GetPage resolves a PageDescriptor from its definition.
func (p *PageProvider) GetPage(ctx context.Context, pageID string) (model.PageDescriptor, error) {
	pageDef, ok := p.registry.GetPage(pageID)
	if !ok {
		return model.PageDescriptor{}, model.NewNotFoundError(
			fmt.Sprintf("page %q not found", pageID),
		)
	}

	desc := model.PageDescriptor{
		ID:           pageDef.ID,
		Title:        pageDef.Title,
		Route:        pageDef.Route,
		DataEndpoint: fmt.Sprintf("/ui/pages/%s/data", pageDef.ID),
		PageSize:     pageDef.PageSize,
	}
	if desc.PageSize <= 0 {
		desc.PageSize = defaultPageSize
	}

	for _, col := range pageDef.Columns {
		cd := model.ColumnDescriptor{
			Field:     col.Field,
			Label:     col.Label,
			Type:      col.Type,
			Format:    col.Format,
			StatusMap: col.StatusMap,
		}
		if col.Link != nil {
			cd.Link = &model.LinkDescriptor{
				Route:  col.Link.Route,
				Params: col.Link.Params,
			}
		}
		desc.Columns = append(desc.Columns, cd)
	}

	for _, f := range pageDef.Filters {
		fd := model.FilterDescriptor{
			Field: f.Field,
			Label: f.Label,
			Type:  f.Type,
		}
		for _, opt := range f.Options {
			fd.Options = append(fd.Options, model.OptionDescriptor{
				Label: opt.Label,
				Value: opt.Value,
			})
		}
		desc.Filters = append(desc.Filters, fd)
	}

	desc.RowActions = p.actions.ResolveActions(pageDef.RowActions)
	desc.Actions = p.actions.ResolveActions(pageDef.Actions)

	return desc, nil
}

// GetPageData fetches one page of list data by invoking the page's data
// source operation, then unwraps and paginates the response.
func (p *PageProvider) GetPageData(ctx context.Context, pageID string, params DataParams) (model.DataResponse, error) {
	pageDef, ok := p.registry.GetPage(pageID)
	if !ok {
		return model.DataResponse{}, model.NewNotFoundError(
			fmt.Sprintf("page %q not found", pageID),
		)
	}

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = pageDef.PageSize
	}
	if params.PageSize <= 0 {
		params.PageSize = defaultPageSize
	}

	ds := pageDef.DataSource
	result, err := p.invoker.Invoke(ctx, ds.Operation, buildDataInput(params))
	if err != nil {
		return model.DataResponse{}, err
	}

	return mapDataResponse(result, ds, params), nil
}

// buildDataInput translates DataParams into backend query parameters.
// Filter values ride along verbatim.
func buildDataInput(params DataParams) model.InvocationInput {
	query := map[string]string{
		"page":     fmt.Sprintf("%d", params.Page),
		"pageSize": fmt.Sprintf("%d", params.PageSize),
	}
	if params.Query != "" {
		query["q"] = params.Query
	}
	for k, v := range params.Filters {
		if v != "" {
			query[k] = v
		}
	}
	return model.InvocationInput{QueryParams: query}
}

// mapDataResponse unwraps the backend body via the data source's item and
// total paths and derives the pagination summary from the server count.
func mapDataResponse(result model.InvocationResult, ds model.DataSourceDefinition, params DataParams) model.DataResponse {
	payload := model.DataPayload{
		Items:    []map[string]any{},
		Page:     params.Page,
		PageSize: params.PageSize,
	}

	body, ok := result.Data.(map[string]any)
	if !ok {
		return model.DataResponse{Data: payload}
	}

	items := toMapSlice(extractPath(body, ds.ItemsPath))
	if len(ds.FieldMap) > 0 {
		items = applyFieldMap(items, ds.FieldMap)
	}
	for i, item := range items {
		items[i] = model.NormalizeEntity(item)
	}
	payload.Items = items

	total := len(items)
	if ds.TotalPath != "" {
		if v, ok := toInt(extractPath(body, ds.TotalPath)); ok {
			total = v
		}
	}
	payload.TotalCount = total

	payload.TotalPages = total / params.PageSize
	if total%params.PageSize != 0 {
		payload.TotalPages++
	}
	payload.HasNext = params.Page < payload.TotalPages

	return model.DataResponse{Data: payload}
}

// extractPath navigates a dot-separated path in a map.
func extractPath(data map[string]any, path string) any {
	if path == "" || data == nil {
		return nil
	}
	var current any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

func toMapSlice(v any) []map[string]any {
	slice, ok := v.([]any)
	if !ok {
		return []map[string]any{}
	}
	result := make([]map[string]any, 0, len(slice))
	for _, item := range slice {
		if m, ok := item.(map[string]any); ok {
			result = append(result, m)
		}
	}
	return result
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// applyFieldMap renames item fields according to the data source map.
func applyFieldMap(items []map[string]any, fieldMap map[string]string) []map[string]any {
	result := make([]map[string]any, len(items))
	for i, item := range items {
		mapped := make(map[string]any, len(item))
		for k, v := range item {
			if newName, ok := fieldMap[k]; ok {
				mapped[newName] = v
			} else {
				mapped[k] = v
			}
		}
		result[i] = mapped
	}
	return result
}
