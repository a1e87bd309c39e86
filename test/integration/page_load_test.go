package integration

import (
	"net/http"
	"testing"

	"github.com/quintor/shopdesk/model"
)

func TestNavigation_shippedDefinitions(t *testing.T) {
	h := NewTestHarness(t)

	var tree model.NavigationTree
	h.AssertJSON(t, h.GET("/ui/navigation"), http.StatusOK, &tree)

	wantOrder := []string{"Products", "Collections", "Countries", "Currencies", "Orders", "Carts", "Users"}
	if len(tree.Items) != len(wantOrder) {
		t.Fatalf("navigation items = %d, want %d\n%s", len(tree.Items), len(wantOrder), FormatJSON(tree))
	}
	for i, label := range wantOrder {
		if tree.Items[i].Label != label {
			t.Errorf("items[%d] = %q, want %q", i, tree.Items[i].Label, label)
		}
	}
	if len(tree.Items[0].Children) == 0 || tree.Items[0].Children[0].Route != "/products" {
		t.Errorf("products children = %s", FormatJSON(tree.Items[0].Children))
	}
}

func TestGetPage_productsList(t *testing.T) {
	h := NewTestHarness(t)

	var page model.PageDescriptor
	h.AssertJSON(t, h.GET("/ui/pages/products-list"), http.StatusOK, &page)

	if page.DataEndpoint != "/ui/pages/products-list/data" {
		t.Errorf("DataEndpoint = %q", page.DataEndpoint)
	}
	if page.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", page.PageSize)
	}
	if len(page.Columns) != 5 {
		t.Errorf("Columns = %d, want 5", len(page.Columns))
	}
	if page.Columns[4].StatusMap["published"] != "success" {
		t.Errorf("status column = %s", FormatJSON(page.Columns[4]))
	}

	var deleteAction *model.ActionDescriptor
	for i := range page.RowActions {
		if page.RowActions[i].ID == "delete-product" {
			deleteAction = &page.RowActions[i]
		}
	}
	if deleteAction == nil {
		t.Fatalf("no delete-product row action\n%s", FormatJSON(page.RowActions))
	}
	if deleteAction.Confirmation == nil || deleteAction.Confirmation.Confirm != "Delete" {
		t.Errorf("confirmation = %s", FormatJSON(deleteAction.Confirmation))
	}
}

func TestGetPageData_mapsAndPaginates(t *testing.T) {
	h := NewTestHarness(t)

	h.Storefront.OnOperation("listProducts").RespondWith(http.StatusOK, ListFixture(27,
		ProductFixture("prd-1", "Oak Chair", "published"),
		ProductFixture("prd-2", "Pine Desk", "draft"),
	))

	var data model.DataResponse
	h.AssertJSON(t, h.GET("/ui/pages/products-list/data?page=2&page_size=2"), http.StatusOK, &data)

	if data.Data.TotalCount != 27 {
		t.Errorf("TotalCount = %d, want 27", data.Data.TotalCount)
	}
	if data.Data.TotalPages != 14 {
		t.Errorf("TotalPages = %d, want 14", data.Data.TotalPages)
	}
	if !data.Data.HasNext {
		t.Error("HasNext = false on page 2 of 14")
	}
	if len(data.Data.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(data.Data.Items))
	}

	// The camelCase backend field is renamed for the UI.
	first := data.Data.Items[0]
	if first["currency_code"] != "EUR" {
		t.Errorf("currency_code = %v", first["currency_code"])
	}
	if _, ok := first["currencyCode"]; ok {
		t.Error("raw currencyCode key survived the field map")
	}

	req := h.Storefront.LastRequest("listProducts")
	if req == nil {
		t.Fatal("storefront never queried")
	}
	if req.QueryParams["page"] != "2" || req.QueryParams["pageSize"] != "2" {
		t.Errorf("forwarded pagination = %v", req.QueryParams)
	}
	if got := req.Headers.Get("X-Access-Id"); got != "test-access-id" {
		t.Errorf("X-Access-Id = %q", got)
	}
}

func TestGetPageData_forwardsFiltersAndSearch(t *testing.T) {
	h := NewTestHarness(t)

	h.Storefront.OnOperation("listOrders").RespondWith(http.StatusOK, ListFixture(1,
		OrderFixture("ord-1", 1001, "pending"),
	))

	h.AssertStatus(t, h.GET("/ui/pages/orders-list/data?q=chair&filter[status]=pending"), http.StatusOK)

	req := h.Storefront.LastRequest("listOrders")
	if req == nil {
		t.Fatal("storefront never queried")
	}
	if req.QueryParams["q"] != "chair" {
		t.Errorf("q = %q, want chair", req.QueryParams["q"])
	}
	if req.QueryParams["status"] != "pending" {
		t.Errorf("status = %q, want pending", req.QueryParams["status"])
	}
}

func TestGetDetail_orderWithPayment(t *testing.T) {
	h := NewTestHarness(t)

	h.Storefront.OnOperation("getOrder").RespondWith(http.StatusOK, OrderFixture("ord-9", 1009, "completed"))

	var detail model.DetailDescriptor
	h.AssertJSON(t, h.GET("/ui/details/order-detail/ord-9"), http.StatusOK, &detail)

	if len(detail.Sections) != 2 {
		t.Fatalf("sections = %d, want summary and payment\n%s", len(detail.Sections), FormatJSON(detail))
	}
	if detail.Sections[1].ID != "payment" {
		t.Errorf("second section = %q, want payment", detail.Sections[1].ID)
	}
}

func TestGetDetail_unpaidOrderHidesPayment(t *testing.T) {
	h := NewTestHarness(t)

	h.Storefront.OnOperation("getOrder").RespondWith(http.StatusOK, OrderFixture("ord-3", 1003, "pending"))

	var detail model.DetailDescriptor
	h.AssertJSON(t, h.GET("/ui/details/order-detail/ord-3"), http.StatusOK, &detail)

	for _, s := range detail.Sections {
		if s.ID == "payment" {
			t.Errorf("payment section rendered for an unpaid order\n%s", FormatJSON(detail))
		}
	}
}

func TestGetDetail_entityNotFound(t *testing.T) {
	h := NewTestHarness(t)

	h.Storefront.OnOperation("getProduct").RespondWithError(http.StatusNotFound, "Product not found")

	h.AssertErrorCode(t, h.GET("/ui/details/product-detail/ghost"), http.StatusNotFound, model.ErrNotFound)
}

func TestLookup_currencyOptions(t *testing.T) {
	h := NewTestHarness(t)

	h.Storefront.OnOperation("listCurrencies").RespondWith(http.StatusOK, ListFixture(2,
		CurrencyFixture("EUR", "Euro", "€", 1),
		CurrencyFixture("USD", "US Dollar", "$", 0.917263),
	))

	var resp model.LookupResponse
	h.AssertJSON(t, h.GET("/ui/lookups/currency-options?q=dollar"), http.StatusOK, &resp)

	if len(resp.Data.Options) != 1 || resp.Data.Options[0].Value != "USD" {
		t.Errorf("options = %s", FormatJSON(resp.Data.Options))
	}

	// Second read is served from cache.
	h.AssertJSON(t, h.GET("/ui/lookups/currency-options"), http.StatusOK, &resp)
	if cached, _ := resp.Meta["cached"].(bool); !cached {
		t.Error("second lookup not served from cache")
	}
	h.Storefront.AssertCalled(t, "listCurrencies", 1)
}
