package integration

import (
	"net/http"
	"testing"

	"github.com/quintor/shopdesk/model"
)

func TestCancelOrder(t *testing.T) {
	h := NewTestHarness(t)

	h.Storefront.OnOperation("cancelOrder").RespondWith(http.StatusOK,
		OrderFixture("ord-42", 1042, "canceled"))

	var resp model.CommandResponse
	h.AssertJSON(t, h.POST("/ui/commands/cancel-order", model.CommandInput{
		Input:       map[string]any{"reason": "customer request"},
		RouteParams: map[string]string{"id": "ord-42"},
	}), http.StatusOK, &resp)

	if !resp.Success || resp.Message != "Order canceled" {
		t.Errorf("response = %s", FormatJSON(resp))
	}

	req := h.Storefront.LastRequest("cancelOrder")
	if req == nil {
		t.Fatal("cancelOrder never invoked")
	}
	if req.Path != "/private/orders/ord-42/cancel" {
		t.Errorf("path = %q", req.Path)
	}
	if req.Body["reason"] != "customer request" {
		t.Errorf("body = %v", req.Body)
	}
}

func TestDeleteProduct(t *testing.T) {
	h := NewTestHarness(t)

	var resp model.CommandResponse
	h.AssertJSON(t, h.POST("/ui/commands/delete-product", model.CommandInput{
		RouteParams: map[string]string{"id": "prd-7"},
	}), http.StatusOK, &resp)

	if resp.Message != "Product deleted" {
		t.Errorf("Message = %q", resp.Message)
	}
	req := h.Storefront.LastRequest("deleteProduct")
	if req == nil {
		t.Fatal("deleteProduct never invoked")
	}
	if req.Path != "/private/products/prd-7" {
		t.Errorf("path = %q", req.Path)
	}
}

func TestCommand_missingRouteParamIsBadRequest(t *testing.T) {
	h := NewTestHarness(t)

	resp := h.POST("/ui/commands/delete-product", model.CommandInput{})
	h.AssertErrorCode(t, resp, http.StatusBadRequest, model.ErrBadRequest)
	h.Storefront.AssertNotCalled(t, "deleteProduct")
}

func TestCommand_unknown(t *testing.T) {
	h := NewTestHarness(t)

	resp := h.POST("/ui/commands/launch-rockets", model.CommandInput{})
	h.AssertErrorCode(t, resp, http.StatusNotFound, model.ErrNotFound)
}

func TestCommand_backendConflictPassesThrough(t *testing.T) {
	h := NewTestHarness(t)

	h.Storefront.OnOperation("deleteCurrency").RespondWithError(http.StatusConflict,
		"Currency is still referenced by countries")

	resp := h.POST("/ui/commands/delete-currency", model.CommandInput{
		RouteParams: map[string]string{"code": "EUR"},
	})
	h.AssertErrorCode(t, resp, http.StatusConflict, model.ErrConflict)
}
