package metadata

import "github.com/quintor/shopdesk/model"

// ActionProvider resolves ActionDefinition lists into ActionDescriptor
// lists for pages and table rows.
type ActionProvider struct{}

// NewActionProvider creates a new ActionProvider.
func NewActionProvider() *ActionProvider {
	return &ActionProvider{}
}

// ResolveActions maps action definitions to descriptors. The result is
// never nil so the frontend always receives an array.
func (p *ActionProvider) ResolveActions(actions []model.ActionDefinition) []model.ActionDescriptor {
	result := make([]model.ActionDescriptor, 0, len(actions))
	for _, action := range actions {
		desc := model.ActionDescriptor{
			ID:         action.ID,
			Label:      action.Label,
			Icon:       action.Icon,
			Style:      action.Style,
			Type:       action.Type,
			CommandID:  action.CommandID,
			NavigateTo: action.NavigateTo,
		}
		if action.Confirmation != nil {
			desc.Confirmation = &model.ConfirmationDescriptor{
				Title:   action.Confirmation.Title,
				Message: action.Confirmation.Message,
				Confirm: action.Confirmation.Confirm,
				Cancel:  action.Confirmation.Cancel,
				Style:   action.Confirmation.Style,
			}
		}
		result = append(result, desc)
	}
	return result
}
