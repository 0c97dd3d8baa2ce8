// Package normalize reconciles the backend's heterogeneous receipt payloads
// into the canonical record shape. A payload can be a plain stored record, an
// OCR extraction wrapped under a "parsed" key, or the normalizer's own output
// fed back in; all three collapse to the same canonical record.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
)

const FallbackCurrency = "IDR"

// Normalizer maps raw records onto domain.Receipt. It is pure: no clock, no
// randomness, no I/O, and identical input always yields identical output.
type Normalizer struct {
	defaultCurrency string
}

func New(defaultCurrency string) *Normalizer {
	cur := strings.ToUpper(strings.TrimSpace(defaultCurrency))
	if len(cur) != 3 {
		cur = FallbackCurrency
	}
	return &Normalizer{defaultCurrency: cur}
}

// accessor returns an optional value extracted from a raw payload. Accessors
// are composed into per-field precedence chains: first present-and-well-typed
// value wins, evaluated left to right.
type accessor[T any] func(raw map[string]any) (T, bool)

func first[T any](raw map[string]any, chain ...accessor[T]) (T, bool) {
	for _, get := range chain {
		if v, ok := get(raw); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func stringAt(path ...string) accessor[string] {
	return func(raw map[string]any) (string, bool) {
		v, ok := lookup(raw, path...)
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	}
}

func numberAt(path ...string) accessor[float64] {
	return func(raw map[string]any) (float64, bool) {
		v, ok := lookup(raw, path...)
		if !ok {
			return 0, false
		}
		return asNumber(v)
	}
}

func sliceAt(path ...string) accessor[[]any] {
	return func(raw map[string]any) ([]any, bool) {
		v, ok := lookup(raw, path...)
		if !ok {
			return nil, false
		}
		s, ok := v.([]any)
		return s, ok
	}
}

func lookup(raw map[string]any, path ...string) (any, bool) {
	var cur any = raw
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Record produces one canonical receipt from one raw payload. It never
// panics on missing or mistyped fields; anything unusable resolves to the
// field's absent state rather than a zero.
func (n *Normalizer) Record(raw map[string]any) domain.Receipt {
	if raw == nil {
		raw = map[string]any{}
	}

	rec := domain.Receipt{
		Currency: n.currency(raw),
		Items:    n.items(raw),
		Raw:      n.preserved(raw),
	}

	// Backend ids arrive as strings or JSON numbers depending on the route.
	if id, ok := first(raw, stringAt("id")); ok {
		rec.ID = id
	} else if n, ok := first(raw, numberAt("id")); ok {
		rec.ID = strconv.FormatFloat(n, 'f', -1, 64)
	}
	if vendor, ok := first(raw,
		stringAt("data", "vendor"),
		stringAt("parsed", "vendor", "name"),
		stringAt("vendor"),
	); ok {
		rec.Vendor = &vendor
	}
	if amount, ok := first(raw,
		numberAt("data", "amount"),
		numberAt("parsed", "transaction", "summary", "total_amount"),
		numberAt("amount"),
	); ok && amount >= 0 {
		rec.Amount = &amount
	}
	if category, ok := first(raw, stringAt("category")); ok {
		rec.Category = &category
	}
	if date, ok := first(raw, stringAt("expense_date")); ok {
		if t, ok := parseTime(date); ok {
			rec.ExpenseDate = &t
		}
	}
	if created, ok := first(raw, stringAt("created_at")); ok {
		if t, ok := parseTime(created); ok {
			rec.CreatedAt = t
		}
	}
	if deleted, ok := raw["deleted"].(bool); ok {
		rec.Deleted = deleted
	}

	return rec
}

func (n *Normalizer) currency(raw map[string]any) string {
	cur, ok := first(raw,
		stringAt("data", "currency"),
		stringAt("parsed", "transaction", "summary", "currency"),
		stringAt("currency"),
	)
	if !ok {
		return n.defaultCurrency
	}
	cur = strings.ToUpper(strings.TrimSpace(cur))
	if len(cur) != 3 {
		return n.defaultCurrency
	}
	return cur
}

// items resolves the line-item sequence. The trailing top-level step is the
// canonical position, which makes re-normalizing canonical output an
// identity; backend payloads only ever populate the first two.
func (n *Normalizer) items(raw map[string]any) []domain.Item {
	entries, ok := first(raw,
		sliceAt("data", "items"),
		sliceAt("parsed", "transaction", "items"),
		sliceAt("items"),
	)
	if !ok {
		return nil
	}
	items := make([]domain.Item, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, normalizeItem(m))
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

func normalizeItem(m map[string]any) domain.Item {
	item := domain.Item{Quantity: 1}
	if name, ok := m["name"].(string); ok {
		item.Name = name
	}
	if q, ok := asNumber(m["quantity"]); ok && q >= 1 {
		item.Quantity = int(q)
	}
	if price, ok := asNumber(m["unit_price"]); ok {
		item.UnitPrice = &price
	}
	if total, ok := asNumber(m["total_price"]); ok {
		item.TotalPrice = &total
	} else if item.UnitPrice != nil {
		// Derive, but only when both inputs exist; a silent 0 would be
		// indistinguishable from real data downstream.
		total := float64(item.Quantity) * *item.UnitPrice
		item.TotalPrice = &total
	}
	if category, ok := m["category"].(string); ok {
		item.Category = category
	}
	return item
}

// preserved picks the opaque payload to carry on the record: the stored data
// map when present, else the parsed OCR structure (the backend persists the
// parsed structure as the record's data, so the two converge on refetch).
func (n *Normalizer) preserved(raw map[string]any) domain.RawRecord {
	if data, ok := raw["data"].(map[string]any); ok {
		return domain.RawRecord(data)
	}
	if parsed, ok := raw["parsed"].(map[string]any); ok {
		return domain.RawRecord(parsed)
	}
	return nil
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
