package domain

import "time"

// ReceiptPatch carries only the fields a user actually touched. Every field
// is a pointer: nil means "leave the server value alone" and is omitted from
// the PATCH body, while a pointer to a zero value (amount 0, empty items) is
// a deliberate write. This is what keeps "set amount to 0" distinguishable
// from "don't change amount".
type ReceiptPatch struct {
	Vendor      *string    `json:"vendor,omitempty"`
	Amount      *float64   `json:"amount,omitempty"`
	Currency    *string    `json:"currency,omitempty"`
	Category    *string    `json:"category,omitempty"`
	ExpenseDate *time.Time `json:"expense_date,omitempty"`
	Items       *[]Item    `json:"items,omitempty"`
}

// IsEmpty reports whether the patch would be a no-op request.
func (p ReceiptPatch) IsEmpty() bool {
	return p.Vendor == nil && p.Amount == nil && p.Currency == nil &&
		p.Category == nil && p.ExpenseDate == nil && p.Items == nil
}

func (p *ReceiptPatch) SetVendor(vendor string) *ReceiptPatch {
	p.Vendor = &vendor
	return p
}

func (p *ReceiptPatch) SetAmount(amount float64) *ReceiptPatch {
	p.Amount = &amount
	return p
}

func (p *ReceiptPatch) SetCurrency(currency string) *ReceiptPatch {
	p.Currency = &currency
	return p
}

func (p *ReceiptPatch) SetCategory(category string) *ReceiptPatch {
	p.Category = &category
	return p
}

func (p *ReceiptPatch) SetExpenseDate(date time.Time) *ReceiptPatch {
	p.ExpenseDate = &date
	return p
}

func (p *ReceiptPatch) SetItems(items []Item) *ReceiptPatch {
	p.Items = &items
	return p
}
