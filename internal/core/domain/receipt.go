package domain

import (
	"strings"
	"time"
)

// RawRecord is the opaque backend payload kept alongside a normalized receipt.
// It is read as a fallback source during normalization and never mutated.
type RawRecord map[string]any

// Receipt is the canonical, backend-shape-independent representation of a
// receipt. Optional fields are pointers so "absent" stays distinguishable
// from a legitimate zero value.
type Receipt struct {
	ID          string     `json:"id"`
	Vendor      *string    `json:"vendor,omitempty"`
	Amount      *float64   `json:"amount,omitempty"`
	Currency    string     `json:"currency"`
	Category    *string    `json:"category,omitempty"`
	ExpenseDate *time.Time `json:"expense_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Deleted     bool       `json:"deleted"`
	Items       []Item     `json:"items,omitempty"`
	Raw         RawRecord  `json:"data,omitempty"`
}

// Item is a single receipt line item. TotalPrice is derivable from
// Quantity*UnitPrice but stored explicitly so a manual override survives.
type Item struct {
	Name       string   `json:"name"`
	Quantity   int      `json:"quantity"`
	UnitPrice  *float64 `json:"unit_price,omitempty"`
	TotalPrice *float64 `json:"total_price,omitempty"`
	Category   string   `json:"category,omitempty"`
}

// Valid reports whether the receipt belongs in a default list view: it must
// carry no extraction error and have either a vendor or an amount. Invalid
// records stay server-side and remain inspectable through detail views.
func (r Receipt) Valid() bool {
	if r.ExtractionError() != "" {
		return false
	}
	if r.Vendor != nil && strings.TrimSpace(*r.Vendor) != "" {
		return true
	}
	return r.Amount != nil
}

// ExtractionError returns the OCR/processing error text the backend embedded
// in the raw payload, or "" when extraction succeeded.
func (r Receipt) ExtractionError() string {
	if r.Raw == nil {
		return ""
	}
	if msg, ok := r.Raw["error"].(string); ok {
		return strings.TrimSpace(msg)
	}
	return ""
}

// rawChain walks nested raw maps, returning the first string found at any of
// the given dotted fallback positions. Used by the detail-view accessors for
// fields not yet promoted to first-class attributes.
func (r Receipt) rawString(paths ...[]string) string {
	for _, path := range paths {
		var cur any = map[string]any(r.Raw)
		ok := true
		for _, key := range path {
			m, isMap := cur.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			cur, ok = m[key]
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		if s, isStr := cur.(string); isStr && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func (r Receipt) rawNumber(paths ...[]string) (float64, bool) {
	for _, path := range paths {
		var cur any = map[string]any(r.Raw)
		ok := true
		for _, key := range path {
			m, isMap := cur.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			cur, ok = m[key]
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		if f, isNum := cur.(float64); isNum {
			return f, true
		}
		if n, isInt := cur.(int); isInt {
			return float64(n), true
		}
	}
	return 0, false
}

// PaymentMethod resolves the payment method nested under provider-specific
// structures in the raw payload.
func (r Receipt) PaymentMethod() string {
	return r.rawString(
		[]string{"payment_method"},
		[]string{"transaction", "summary", "payment_method"},
	)
}

// Subtotal reads the pre-tax total when the extraction carried one.
func (r Receipt) Subtotal() (float64, bool) {
	return r.rawNumber(
		[]string{"subtotal"},
		[]string{"transaction", "summary", "subtotal"},
	)
}

// Tax reads the tax component when the extraction carried one.
func (r Receipt) Tax() (float64, bool) {
	return r.rawNumber(
		[]string{"tax"},
		[]string{"transaction", "summary", "tax"},
	)
}

// SetQuantity updates the quantity and rederives TotalPrice when a unit price
// is known, overriding any prior explicit total.
func (it *Item) SetQuantity(quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	it.Quantity = quantity
	it.recalcTotal()
}

// SetUnitPrice updates the unit price and rederives TotalPrice.
func (it *Item) SetUnitPrice(unitPrice float64) {
	it.UnitPrice = &unitPrice
	it.recalcTotal()
}

func (it *Item) recalcTotal() {
	if it.UnitPrice == nil {
		return
	}
	total := float64(it.Quantity) * *it.UnitPrice
	it.TotalPrice = &total
}
