package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
	"github.com/ilhamije/receipt-scanner/internal/core/normalize"
)

func TestDetailFetchNormalizes(t *testing.T) {
	api := &fakeAPI{
		getFn: func(id string) (map[string]any, error) {
			return map[string]any{
				"id":     id,
				"vendor": "Warung",
				"data":   map[string]any{"payment_method": "cash"},
			}, nil
		},
	}
	fetcher := NewDetailFetcher(api, normalize.New("IDR"))

	rec, err := fetcher.Fetch(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if rec.ID != "r-1" || rec.Vendor == nil || *rec.Vendor != "Warung" {
		t.Fatalf("expected normalized record, got %+v", rec)
	}
	if rec.PaymentMethod() != "cash" {
		t.Fatalf("expected payment method from raw payload, got %q", rec.PaymentMethod())
	}
}

// Detail views surface failed extractions; the validity predicate only gates
// list rendering.
func TestDetailFetchReturnsInvalidRecords(t *testing.T) {
	api := &fakeAPI{
		getFn: func(id string) (map[string]any, error) {
			return map[string]any{"id": id, "data": map[string]any{"error": "blurry image"}}, nil
		},
	}
	fetcher := NewDetailFetcher(api, normalize.New("IDR"))

	rec, err := fetcher.Fetch(context.Background(), "r-2")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if rec.Valid() {
		t.Fatal("expected invalid record")
	}
	if rec.ExtractionError() != "blurry image" {
		t.Fatalf("expected extraction error surfaced, got %q", rec.ExtractionError())
	}
}

func TestDetailFetchPropagatesNotFound(t *testing.T) {
	api := &fakeAPI{
		getFn: func(string) (map[string]any, error) {
			return nil, domain.WrapError(domain.ErrNotFound, "get receipt", errors.New("404"))
		},
	}
	fetcher := NewDetailFetcher(api, normalize.New("IDR"))

	if _, err := fetcher.Fetch(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
