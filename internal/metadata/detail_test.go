package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/quintor/shopdesk/internal/definition"
	"github.com/quintor/shopdesk/model"
)

func orderDetailDomain() model.DomainDefinition {
	return model.DomainDefinition{
		Domain: "orders",
		Details: []model.DetailDefinition{
			{
				ID:        "order-detail",
				Title:     "Order",
				Entity:    "order",
				Load:      model.OperationDefinition{Method: "GET", Path: "/private/orders/{id}"},
				BackRoute: "/orders",
				EditRoute: "/orders/{id}/edit",
				Sections: []model.DetailSectionDefinition{
					{
						ID:    "summary",
						Title: "Summary",
						Fields: []model.DetailFieldDefinition{
							{Path: "number", Label: "Order Number"},
							{Path: "status", Label: "Status", StatusMap: map[string]string{"paid": "Paid"}},
							{Path: "total", Label: "Total", Format: "money"},
							{Path: "createdAt", Label: "Placed", Format: "datetime"},
							{Path: "gift", Label: "Gift", Format: "boolean"},
						},
					},
					{
						ID:          "payment",
						Title:       "Payment",
						VisibleWhen: &model.ConditionDefinition{Path: "payment", Operator: "present"},
						Fields: []model.DetailFieldDefinition{
							{Path: "payment.method", Label: "Method"},
							{
								Path: "payment.paidAt", Label: "Paid At", Format: "date",
								VisibleWhen: &model.ConditionDefinition{Path: "payment.paidAt", Operator: "present"},
							},
						},
					},
				},
			},
		},
	}
}

func newDetailProvider(invoker model.Invoker) *DetailProvider {
	registry := definition.NewRegistry([]model.DomainDefinition{orderDetailDomain()})
	return NewDetailProvider(registry, invoker)
}

func paidOrder() map[string]any {
	return map[string]any{
		"number":    "ORD-42",
		"status":    "paid",
		"total":     129.5,
		"createdAt": "2026-03-14T09:30:00Z",
		"gift":      true,
		"payment": map[string]any{
			"method": "card",
			"paidAt": "2026-03-14T09:31:00Z",
		},
	}
}

func detailField(t *testing.T, desc model.DetailDescriptor, sectionID, label string) model.DetailFieldDescriptor {
	t.Helper()
	for _, sec := range desc.Sections {
		if sec.ID != sectionID {
			continue
		}
		for _, f := range sec.Fields {
			if f.Label == label {
				return f
			}
		}
	}
	t.Fatalf("field %q not found in section %q", label, sectionID)
	return model.DetailFieldDescriptor{}
}

func TestGetDetail_rendersFormattedFields(t *testing.T) {
	p := newDetailProvider(&stubInvoker{fn: func(ctx context.Context, op model.OperationDefinition, input model.InvocationInput) (model.InvocationResult, error) {
		if input.PathParams["id"] != "ord-42" {
			t.Errorf("path param id = %q", input.PathParams["id"])
		}
		return model.InvocationResult{StatusCode: 200, Data: paidOrder()}, nil
	}})

	desc, err := p.GetDetail(context.Background(), "order-detail", "ord-42")
	if err != nil {
		t.Fatalf("GetDetail() error = %v", err)
	}

	if desc.BackRoute != "/orders" {
		t.Errorf("BackRoute = %q", desc.BackRoute)
	}
	if desc.EditRoute != "/orders/ord-42/edit" {
		t.Errorf("EditRoute = %q", desc.EditRoute)
	}

	if got := detailField(t, desc, "summary", "Status").Value; got != "Paid" {
		t.Errorf("status = %v, want the mapped label", got)
	}
	if got := detailField(t, desc, "summary", "Total").Value; got != "129.50" {
		t.Errorf("total = %v, want money format", got)
	}
	if got := detailField(t, desc, "summary", "Placed").Value; got != "2026-03-14 09:30" {
		t.Errorf("placed = %v", got)
	}
	if got := detailField(t, desc, "summary", "Gift").Value; got != "Yes" {
		t.Errorf("gift = %v", got)
	}
	if got := detailField(t, desc, "payment", "Method").Value; got != "card" {
		t.Errorf("payment method = %v, dotted paths should resolve", got)
	}
	if got := detailField(t, desc, "payment", "Paid At").Value; got != "2026-03-14" {
		t.Errorf("paid at = %v, want date format", got)
	}
}

func TestGetDetail_hidesSectionWhenConditionFails(t *testing.T) {
	order := paidOrder()
	delete(order, "payment")
	p := newDetailProvider(&stubInvoker{fn: func(ctx context.Context, op model.OperationDefinition, input model.InvocationInput) (model.InvocationResult, error) {
		return model.InvocationResult{StatusCode: 200, Data: order}, nil
	}})

	desc, err := p.GetDetail(context.Background(), "order-detail", "ord-42")
	if err != nil {
		t.Fatalf("GetDetail() error = %v", err)
	}
	for _, sec := range desc.Sections {
		if sec.ID == "payment" {
			t.Error("payment section should be hidden without a payment object")
		}
	}
}

func TestGetDetail_missingEntityIDRejectedWithoutFetch(t *testing.T) {
	called := false
	p := newDetailProvider(&stubInvoker{fn: func(ctx context.Context, op model.OperationDefinition, input model.InvocationInput) (model.InvocationResult, error) {
		called = true
		return model.InvocationResult{}, nil
	}})

	_, err := p.GetDetail(context.Background(), "order-detail", "")
	var ee *model.ErrorEnvelope
	if !errors.As(err, &ee) || ee.Code != model.ErrBadRequest {
		t.Fatalf("err = %v, want BAD_REQUEST", err)
	}
	if called {
		t.Error("backend must not be called without an entity id")
	}
}

func TestGetDetail_entityNotFound(t *testing.T) {
	p := newDetailProvider(&stubInvoker{fn: func(ctx context.Context, op model.OperationDefinition, input model.InvocationInput) (model.InvocationResult, error) {
		return model.InvocationResult{}, model.NewNotFoundError("resource not found")
	}})

	_, err := p.GetDetail(context.Background(), "order-detail", "ghost")
	var ee *model.ErrorEnvelope
	if !errors.As(err, &ee) || ee.Code != model.ErrNotFound {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if ee.Message != "Order not found" {
		t.Errorf("message = %q, want %q", ee.Message, "Order not found")
	}
}

func TestGetDetail_unknownDetail(t *testing.T) {
	p := newDetailProvider(&stubInvoker{})
	_, err := p.GetDetail(context.Background(), "missing", "x")
	var ee *model.ErrorEnvelope
	if !errors.As(err, &ee) || ee.Code != model.ErrNotFound {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestEvaluateCondition(t *testing.T) {
	entity := map[string]any{
		"status": "paid",
		"note":   "",
		"nested": map[string]any{"flag": true},
	}
	tests := []struct {
		name string
		cond model.ConditionDefinition
		want bool
	}{
		{"eq match", model.ConditionDefinition{Path: "status", Operator: "eq", Value: "paid"}, true},
		{"eq mismatch", model.ConditionDefinition{Path: "status", Operator: "eq", Value: "open"}, false},
		{"ne", model.ConditionDefinition{Path: "status", Operator: "ne", Value: "open"}, true},
		{"present empty string", model.ConditionDefinition{Path: "note", Operator: "present"}, false},
		{"present nested", model.ConditionDefinition{Path: "nested.flag", Operator: "present"}, true},
		{"absent missing key", model.ConditionDefinition{Path: "ghost", Operator: "absent"}, true},
		{"unknown operator defaults visible", model.ConditionDefinition{Path: "status", Operator: "wat"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evaluateCondition(tt.cond, entity); got != tt.want {
				t.Errorf("evaluateCondition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveActions_neverNil(t *testing.T) {
	got := NewActionProvider().ResolveActions(nil)
	if got == nil {
		t.Error("ResolveActions(nil) should return an empty slice")
	}
}
