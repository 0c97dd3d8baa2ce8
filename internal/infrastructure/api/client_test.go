package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
)

func numPtr(f float64) *float64 { return &f }

func TestListSendsFilterQuery(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/receipts/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}, "total": 0})
	}))
	defer server.Close()

	client := New(server.URL, Options{})
	filter := domain.Filter{
		Vendor:         "warung",
		Category:       "food",
		Year:           2026,
		Month:          3,
		MinAmount:      numPtr(0),
		IncludeDeleted: true,
	}
	if _, err := client.List(context.Background(), filter, 10, 20); err != nil {
		t.Fatalf("list: %v", err)
	}

	expect := map[string]string{
		"limit":           "10",
		"offset":          "20",
		"vendor":          "warung",
		"category":        "food",
		"year":            "2026",
		"month":           "3",
		"min_amount":      "0",
		"include_deleted": "true",
	}
	for key, want := range expect {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Fatalf("expected %s=%q, got %v", key, want, got)
		}
	}
	if _, ok := gotQuery["max_amount"]; ok {
		t.Fatal("expected absent max_amount omitted from query")
	}
}

func TestListDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"results":[{"id":"r-1"},{"id":"r-2"}],"total":25}`)
	}))
	defer server.Close()

	page, err := New(server.URL, Options{}).List(context.Background(), domain.Filter{}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Results) != 2 || page.Total != 25 {
		t.Fatalf("expected 2 results total=25, got %d total=%d", len(page.Results), page.Total)
	}
}

func TestListDecodesBareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `[{"id":"r-1"},{"id":"r-2"},{"id":"r-3"}]`)
	}))
	defer server.Close()

	page, err := New(server.URL, Options{}).List(context.Background(), domain.Filter{}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Results) != 3 || page.Total != 3 {
		t.Fatalf("expected total inferred from bare array, got %d total=%d", len(page.Results), page.Total)
	}
}

func TestListToleratesMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"unexpected":"shape"}`)
	}))
	defer server.Close()

	page, err := New(server.URL, Options{}).List(context.Background(), domain.Filter{}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Results) != 0 || page.Total != 0 {
		t.Fatalf("expected empty page for malformed payload, got %+v", page)
	}
}

func TestGetMapsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such receipt", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(server.URL, Options{}).Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateBodyOmitsUntouchedFields(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if r.URL.Path != "/receipts/r-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		io.WriteString(w, `{"id":"r-1","amount":0}`)
	}))
	defer server.Close()

	var patch domain.ReceiptPatch
	patch.SetAmount(0)
	if _, err := New(server.URL, Options{}).Update(context.Background(), "r-1", patch); err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(body) != 1 {
		t.Fatalf("expected only the touched field on the wire, got %v", body)
	}
	if body["amount"] != 0.0 {
		t.Fatalf("expected explicit zero amount, got %v", body["amount"])
	}
}

func TestUploadSendsMultipartFileField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/receipts/" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "receipt.png" {
			t.Errorf("expected filename receipt.png, got %s", header.Filename)
		}
		payload, _ := io.ReadAll(file)
		if string(payload) != "pngbytes" {
			t.Errorf("unexpected payload %q", payload)
		}
		io.WriteString(w, `{"id":"r-new"}`)
	}))
	defer server.Close()

	record, err := New(server.URL, Options{}).Upload(context.Background(), "receipt.png", strings.NewReader("pngbytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if record["id"] != "r-new" {
		t.Fatalf("expected created record, got %v", record)
	}
}

func TestDelete(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := New(server.URL, Options{}).Delete(context.Background(), "r-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/receipts/r-1" {
		t.Fatalf("expected DELETE /receipts/r-1, got %s %s", gotMethod, gotPath)
	}
}

func TestErrorCarriesStatusAndBodyExcerpt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"amount must be a number"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	var patch domain.ReceiptPatch
	patch.SetVendor("x")
	_, err := New(server.URL, Options{}).Update(context.Background(), "r-1", patch)
	if err == nil {
		t.Fatal("expected error")
	}

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", statusErr.StatusCode)
	}
	if !strings.Contains(statusErr.Error(), "amount must be a number") {
		t.Fatalf("expected body excerpt in message, got %q", statusErr.Error())
	}
}

func TestServerErrorWrapsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "oops", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, Options{}).List(context.Background(), domain.Filter{}, 10, 0)
	if !errors.Is(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary classification for 502, got %v", err)
	}
}
