package domain

import "testing"

func strPtr(s string) *string   { return &s }
func numPtr(f float64) *float64 { return &f }

func TestReceiptValid(t *testing.T) {
	if (Receipt{}).Valid() {
		t.Fatal("expected empty receipt to be invalid")
	}
	if !(Receipt{Vendor: strPtr("Warung")}).Valid() {
		t.Fatal("expected vendor-only receipt to be valid")
	}
	if (Receipt{Vendor: strPtr("   ")}).Valid() {
		t.Fatal("expected whitespace vendor to count as absent")
	}
	if !(Receipt{Amount: numPtr(0)}).Valid() {
		t.Fatal("expected explicit zero amount to count as present")
	}
	rec := Receipt{
		Vendor: strPtr("Warung"),
		Amount: numPtr(100),
		Raw:    RawRecord{"error": "blurry image"},
	}
	if rec.Valid() {
		t.Fatal("expected extraction error to make receipt invalid")
	}
}

func TestExtractionError(t *testing.T) {
	rec := Receipt{Raw: RawRecord{"error": "  no text found  "}}
	if got := rec.ExtractionError(); got != "no text found" {
		t.Fatalf("expected trimmed error text, got %q", got)
	}
	rec = Receipt{Raw: RawRecord{"error": 42}}
	if got := rec.ExtractionError(); got != "" {
		t.Fatalf("expected mistyped error to read as absent, got %q", got)
	}
	if got := (Receipt{}).ExtractionError(); got != "" {
		t.Fatalf("expected missing raw to read as absent, got %q", got)
	}
}

func TestPaymentMethodFallback(t *testing.T) {
	rec := Receipt{Raw: RawRecord{
		"transaction": map[string]any{"summary": map[string]any{"payment_method": "qris"}},
	}}
	if got := rec.PaymentMethod(); got != "qris" {
		t.Fatalf("expected nested payment method, got %q", got)
	}
	rec = Receipt{Raw: RawRecord{"payment_method": "cash"}}
	if got := rec.PaymentMethod(); got != "cash" {
		t.Fatalf("expected top-level payment method, got %q", got)
	}
}

func TestSubtotalAndTaxFromRaw(t *testing.T) {
	rec := Receipt{Raw: RawRecord{
		"transaction": map[string]any{"summary": map[string]any{"subtotal": 9000.0, "tax": 1000.0}},
	}}
	if subtotal, ok := rec.Subtotal(); !ok || subtotal != 9000 {
		t.Fatalf("expected subtotal 9000, got %v %v", subtotal, ok)
	}
	if tax, ok := rec.Tax(); !ok || tax != 1000 {
		t.Fatalf("expected tax 1000, got %v %v", tax, ok)
	}
	if _, ok := (Receipt{}).Subtotal(); ok {
		t.Fatal("expected absent subtotal without raw payload")
	}
}

func TestItemSettersRecalculateTotal(t *testing.T) {
	item := Item{Name: "Teh Botol", Quantity: 1}
	item.SetUnitPrice(5000)
	if item.TotalPrice == nil || *item.TotalPrice != 5000 {
		t.Fatalf("expected total 5000, got %v", item.TotalPrice)
	}
	item.SetQuantity(3)
	if *item.TotalPrice != 15000 {
		t.Fatalf("expected total rederived to 15000, got %v", *item.TotalPrice)
	}

	// Without a unit price the explicit total must survive a quantity change.
	manual := Item{Name: "Nasi", Quantity: 1, TotalPrice: numPtr(25000)}
	manual.SetQuantity(2)
	if *manual.TotalPrice != 25000 {
		t.Fatalf("expected explicit total to survive, got %v", *manual.TotalPrice)
	}

	item.SetQuantity(0)
	if item.Quantity != 1 {
		t.Fatalf("expected quantity clamped to 1, got %d", item.Quantity)
	}
}
