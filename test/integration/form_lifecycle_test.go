package integration

import (
	"net/http"
	"testing"

	"github.com/quintor/shopdesk/model"
)

func openForm(t *testing.T, h *TestHarness, formID, entityID string) model.FormDescriptor {
	t.Helper()
	var form model.FormDescriptor
	h.AssertJSON(t, h.POST("/ui/forms/"+formID+"/sessions", map[string]string{"entity_id": entityID}),
		http.StatusCreated, &form)
	if form.SessionID == "" {
		t.Fatal("no session ID in form descriptor")
	}
	return form
}

func setField(t *testing.T, h *TestHarness, formID, sessionID, field string, value any) model.FormDescriptor {
	t.Helper()
	var form model.FormDescriptor
	h.AssertJSON(t, h.PUT("/ui/forms/"+formID+"/sessions/"+sessionID+"/fields/"+field,
		map[string]any{"value": value}), http.StatusOK, &form)
	return form
}

func findField(t *testing.T, form model.FormDescriptor, name string) model.FieldDescriptor {
	t.Helper()
	for _, s := range form.Sections {
		for _, f := range s.Fields {
			if f.Name == name {
				return f
			}
		}
	}
	t.Fatalf("field %q not in descriptor\n%s", name, FormatJSON(form))
	return model.FieldDescriptor{}
}

func TestCurrencyForm_createWithConnectionAndLiveRate(t *testing.T) {
	h := NewTestHarness(t)
	h.Rates.SetRate("USD", 1.0902)

	form := openForm(t, h, "currency-form", "new")
	if form.Mode != "create" {
		t.Fatalf("Mode = %q, want create", form.Mode)
	}

	// Typing the code uppercases it, fills name and symbol from the
	// connection table, and fetches the live exchange rate.
	form = setField(t, h, "currency-form", form.SessionID, "code", "usd")

	if got := findField(t, form, "code").Value; got != "USD" {
		t.Errorf("code = %v, want USD", got)
	}
	if got := findField(t, form, "name").Value; got != "US Dollar" {
		t.Errorf("name = %v, want US Dollar", got)
	}
	if got := findField(t, form, "symbol").Value; got != "$" {
		t.Errorf("symbol = %v, want $", got)
	}

	rate := findField(t, form, "rate_to_euro")
	if rate.CalcStatus != model.CalcSuccess {
		t.Fatalf("rate calc status = %q\n%s", rate.CalcStatus, FormatJSON(rate))
	}
	if got, _ := rate.Value.(float64); got != 0.917263 {
		t.Errorf("rate_to_euro = %v, want 0.917263", rate.Value)
	}

	h.Storefront.OnOperation("createCurrency").RespondWith(http.StatusCreated,
		CurrencyFixture("USD", "US Dollar", "$", 0.917263))

	var result model.SubmitResult
	h.AssertJSON(t, h.POST("/ui/forms/currency-form/sessions/"+form.SessionID+"/submit", nil),
		http.StatusOK, &result)

	if !result.Success {
		t.Fatalf("submit failed: %s", FormatJSON(result))
	}
	if result.Message != "Currency US Dollar saved" {
		t.Errorf("Message = %q", result.Message)
	}
	if result.Route != "/currencies" {
		t.Errorf("Route = %q, want /currencies", result.Route)
	}

	req := h.Storefront.LastRequest("createCurrency")
	if req == nil {
		t.Fatal("createCurrency never invoked")
	}
	// The UI field name is translated back to the backend's camelCase.
	if req.Body["rateToEuro"] != 0.917263 {
		t.Errorf("body rateToEuro = %v", req.Body["rateToEuro"])
	}
	if _, ok := req.Body["rate_to_euro"]; ok {
		t.Error("UI field name leaked into the backend body")
	}
}

func TestCurrencyForm_unquotedRateFallsBackToDefault(t *testing.T) {
	h := NewTestHarness(t)
	h.Rates.RemoveRate("JPY")

	form := openForm(t, h, "currency-form", "new")
	form = setField(t, h, "currency-form", form.SessionID, "code", "JPY")

	// The connection still fans out; only the calculation fails.
	if got := findField(t, form, "name").Value; got != "Japanese Yen" {
		t.Errorf("name = %v, want Japanese Yen", got)
	}

	rate := findField(t, form, "rate_to_euro")
	if rate.CalcStatus != model.CalcError {
		t.Errorf("calc status = %q, want error", rate.CalcStatus)
	}
	if got, _ := rate.Value.(float64); got != 0 {
		t.Errorf("rate_to_euro = %v, want default 0", rate.Value)
	}

	var warned bool
	for _, n := range form.Notices {
		if n.Level == model.NoticeWarning && n.Message == "No exchange rate found, default applied" {
			warned = true
		}
	}
	if !warned {
		t.Errorf("no warning notice: %s", FormatJSON(form.Notices))
	}
}

func TestCurrencyForm_unknownCodeClearsTargets(t *testing.T) {
	h := NewTestHarness(t)

	form := openForm(t, h, "currency-form", "new")
	form = setField(t, h, "currency-form", form.SessionID, "code", "USD")
	form = setField(t, h, "currency-form", form.SessionID, "code", "XXX")

	if got := findField(t, form, "name").Value; got != nil && got != "" {
		t.Errorf("name = %v, want cleared", got)
	}
	if got := findField(t, form, "code").Value; got != "XXX" {
		t.Errorf("code = %v, the source keeps its value", got)
	}
}

func TestCurrencyForm_editLocksCode(t *testing.T) {
	h := NewTestHarness(t)

	h.Storefront.OnOperation("getCurrency").RespondWith(http.StatusOK,
		CurrencyFixture("GBP", "British Pound", "£", 1.172058))

	form := openForm(t, h, "currency-form", "GBP")
	if form.Mode != "edit" {
		t.Fatalf("Mode = %q, want edit", form.Mode)
	}

	code := findField(t, form, "code")
	if !code.Disabled {
		t.Error("code field editable in edit mode")
	}
	if code.Value != "GBP" {
		t.Errorf("code = %v", code.Value)
	}
	// The backend's rateToEuro lands in the renamed UI field.
	if got, _ := findField(t, form, "rate_to_euro").Value.(float64); got != 1.172058 {
		t.Errorf("rate_to_euro = %v", findField(t, form, "rate_to_euro").Value)
	}

	h.Storefront.OnOperation("updateCurrency").RespondWith(http.StatusOK,
		CurrencyFixture("GBP", "Pound Sterling", "£", 1.172058))

	form = setField(t, h, "currency-form", form.SessionID, "name", "Pound Sterling")

	var result model.SubmitResult
	h.AssertJSON(t, h.POST("/ui/forms/currency-form/sessions/"+form.SessionID+"/submit", nil),
		http.StatusOK, &result)
	if !result.Success {
		t.Fatalf("submit failed: %s", FormatJSON(result))
	}

	req := h.Storefront.LastRequest("updateCurrency")
	if req == nil {
		t.Fatal("updateCurrency never invoked")
	}
	if req.Path != "/private/currencies/GBP" {
		t.Errorf("update path = %q", req.Path)
	}
}

func TestCurrencyForm_validationFailure(t *testing.T) {
	h := NewTestHarness(t)

	form := openForm(t, h, "currency-form", "new")

	// Required fields empty: submission is rejected client-side, the
	// storefront is never asked.
	resp := h.POST("/ui/forms/currency-form/sessions/"+form.SessionID+"/submit", nil)
	h.AssertErrorCode(t, resp, http.StatusUnprocessableEntity, model.ErrValidationError)
	h.Storefront.AssertNotCalled(t, "createCurrency")

	// The session survives a failed submit.
	h.AssertStatus(t, h.GET("/ui/forms/currency-form/sessions/"+form.SessionID), http.StatusOK)
}

func TestProductForm_dependenciesResolveOptions(t *testing.T) {
	h := NewTestHarness(t)

	h.Storefront.OnOperation("listCollections").RespondWith(http.StatusOK, ListFixture(1,
		map[string]any{"id": "col-1", "title": "Chairs", "handle": "chairs"},
	))
	h.Storefront.OnOperation("listCurrencies").RespondWith(http.StatusOK, ListFixture(2,
		CurrencyFixture("EUR", "Euro", "€", 1),
		CurrencyFixture("USD", "US Dollar", "$", 0.917263),
	))

	form := openForm(t, h, "product-form", "new")
	if form.DependencyError != "" {
		t.Fatalf("DependencyError = %q", form.DependencyError)
	}

	collection := findField(t, form, "collection_id")
	if len(collection.Options) != 1 || collection.Options[0].Label != "Chairs" {
		t.Errorf("collection options = %s", FormatJSON(collection.Options))
	}
	currency := findField(t, form, "currency_code")
	if len(currency.Options) != 2 {
		t.Errorf("currency options = %s", FormatJSON(currency.Options))
	}
}

func TestProductForm_backendRejectionKeepsSession(t *testing.T) {
	h := NewTestHarness(t)

	form := openForm(t, h, "product-form", "new")
	form = setField(t, h, "product-form", form.SessionID, "title", "  Oak Chair  ")
	if got := findField(t, form, "title").Value; got != "Oak Chair" {
		t.Errorf("title = %q, want trimmed", got)
	}
	setField(t, h, "product-form", form.SessionID, "handle", "OAK-chair")
	setField(t, h, "product-form", form.SessionID, "price", 49.95)

	h.Storefront.OnOperation("createProduct").RespondWithError(http.StatusConflict, "Handle already in use")

	resp := h.POST("/ui/forms/product-form/sessions/"+form.SessionID+"/submit", nil)
	h.AssertErrorCode(t, resp, http.StatusConflict, model.ErrConflict)

	// Handle was lowercased by its input transform before submission.
	req := h.Storefront.LastRequest("createProduct")
	if req == nil {
		t.Fatal("createProduct never invoked")
	}
	if req.Body["handle"] != "oak-chair" {
		t.Errorf("handle = %v, want oak-chair", req.Body["handle"])
	}

	h.AssertStatus(t, h.GET("/ui/forms/product-form/sessions/"+form.SessionID), http.StatusOK)
}

func TestForm_unknownFormAndSession(t *testing.T) {
	h := NewTestHarness(t)

	h.AssertErrorCode(t, h.POST("/ui/forms/nope/sessions", map[string]string{"entity_id": "new"}),
		http.StatusNotFound, model.ErrNotFound)
	h.AssertErrorCode(t, h.GET("/ui/forms/currency-form/sessions/ghost"),
		http.StatusNotFound, model.ErrSessionNotFound)
}
