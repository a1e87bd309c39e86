package metadata

import (
	"testing"

	"github.com/quintor/shopdesk/internal/definition"
	"github.com/quintor/shopdesk/model"
)

func TestGetNavigation_orderedTree(t *testing.T) {
	registry := definition.NewRegistry([]model.DomainDefinition{
		{
			Domain: "users",
			Navigation: model.NavigationDefinition{
				Label: "Users",
				Order: 70,
				Children: []model.NavigationChildDefinition{
					{Label: "All Users", Route: "/users", PageID: "users-list", Order: 1},
				},
			},
		},
		{
			Domain: "products",
			Navigation: model.NavigationDefinition{
				Label: "Products",
				Icon:  "package",
				Order: 10,
				Children: []model.NavigationChildDefinition{
					{Label: "Archived", Route: "/products/archived", PageID: "products-archived", Order: 2},
					{Label: "All Products", Route: "/products", PageID: "products-list", Order: 1},
				},
			},
		},
	})

	tree := NewNavigationProvider(registry).GetNavigation()
	if len(tree.Items) != 2 {
		t.Fatalf("Items = %d, want 2", len(tree.Items))
	}
	if tree.Items[0].ID != "products" || tree.Items[1].ID != "users" {
		t.Errorf("domain order = [%s, %s], want products first", tree.Items[0].ID, tree.Items[1].ID)
	}

	products := tree.Items[0]
	if products.Icon != "package" {
		t.Errorf("Icon = %q", products.Icon)
	}
	if len(products.Children) != 2 {
		t.Fatalf("Children = %d", len(products.Children))
	}
	if products.Children[0].ID != "products-list" {
		t.Errorf("child order = %q first, want products-list", products.Children[0].ID)
	}
	if products.Children[0].Route != "/products" {
		t.Errorf("child route = %q", products.Children[0].Route)
	}
}

func TestGetNavigation_emptyRegistry(t *testing.T) {
	registry := definition.NewRegistry(nil)
	tree := NewNavigationProvider(registry).GetNavigation()
	if tree.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
	if len(tree.Items) != 0 {
		t.Errorf("Items = %d, want 0", len(tree.Items))
	}
}
