package model

import "time"

// Entities mirror the storefront's private REST resources. They are
// view-models: fetched, displayed, optionally edited, and discarded on
// navigation. Nullable backend fields are pointers and are normalized at
// the decode boundary, never deep in rendering code.

// Product is a sellable item.
type Product struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Handle       string     `json:"handle"`
	Thumbnail    string     `json:"thumbnail"`
	Status       string     `json:"status"`
	Price        float64    `json:"price"`
	CurrencyCode string     `json:"currencyCode"`
	CollectionID *string    `json:"collectionId"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt"`
}

// Collection groups products.
type Collection struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Handle    string    `json:"handle"`
	CreatedAt time.Time `json:"createdAt"`
}

// Country is a shipping destination.
type Country struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ISO2         string `json:"iso2"`
	ISO3         string `json:"iso3"`
	CurrencyCode string `json:"currencyCode"`
}

// Currency is an accepted settlement currency. RateToEuro stores euros per
// one foreign unit, rounded to six decimals.
type Currency struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Symbol     string  `json:"symbol"`
	RateToEuro float64 `json:"rateToEuro"`
}

// Order is a placed order.
type Order struct {
	ID           string     `json:"id"`
	DisplayID    int        `json:"displayId"`
	Email        string     `json:"email"`
	Status       string     `json:"status"`
	Total        float64    `json:"total"`
	CurrencyCode string     `json:"currencyCode"`
	Items        []LineItem `json:"items"`
	Payment      *Payment   `json:"payment"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// LineItem is one order or cart line.
type LineItem struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Payment records how an order was paid. Absent on unpaid orders.
type Payment struct {
	ID       string  `json:"id"`
	Provider string  `json:"provider"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
}

// Cart is an in-progress checkout.
type Cart struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Items       []LineItem `json:"items"`
	Total       float64    `json:"total"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// User is a backoffice operator account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeEntity defensively defaults nullable backend fields in a raw
// decoded entity so the render path never sees absent keys. A missing
// payment object becomes an explicit null, missing item lists become empty
// slices.
func NormalizeEntity(raw map[string]any) map[string]any {
	if raw == nil {
		return map[string]any{}
	}
	if _, ok := raw["payment"]; !ok {
		// Only orders carry payments, but an explicit null is harmless
		// elsewhere and keeps dotted-path access total.
		if _, isOrder := raw["displayId"]; isOrder {
			raw["payment"] = nil
		}
	}
	if v, ok := raw["items"]; ok && v == nil {
		raw["items"] = []any{}
	}
	return raw
}
