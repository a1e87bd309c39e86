package metadata

import (
	"sort"

	"github.com/quintor/shopdesk/internal/definition"
	"github.com/quintor/shopdesk/model"
)

// NavigationProvider builds the navigation tree from loaded domain
// definitions.
type NavigationProvider struct {
	registry *definition.Registry
}

// NewNavigationProvider creates a NavigationProvider backed by the given
// registry.
func NewNavigationProvider(registry *definition.Registry) *NavigationProvider {
	return &NavigationProvider{registry: registry}
}

// GetNavigation builds the full navigation tree. Domains come back from
// the registry already ordered; children are sorted by their own order
// field.
func (p *NavigationProvider) GetNavigation() model.NavigationTree {
	domains := p.registry.AllDomains()

	nodes := make([]model.NavigationNode, 0, len(domains))
	for _, domain := range domains {
		nav := domain.Navigation

		node := model.NavigationNode{
			ID:    domain.Domain,
			Label: nav.Label,
			Icon:  nav.Icon,
		}

		children := make([]model.NavigationChildDefinition, len(nav.Children))
		copy(children, nav.Children)
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].Order < children[j].Order
		})

		node.Children = make([]model.NavigationNode, 0, len(children))
		for _, child := range children {
			node.Children = append(node.Children, model.NavigationNode{
				ID:    child.PageID,
				Label: child.Label,
				Icon:  child.Icon,
				Route: child.Route,
			})
		}

		nodes = append(nodes, node)
	}

	return model.NavigationTree{Items: nodes}
}
