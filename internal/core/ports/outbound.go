package ports

import (
	"context"
	"io"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
)

// RawPage is one backend page before normalization. Total falls back to
// len(Results) when the backend answered with a bare array.
type RawPage struct {
	Results []map[string]any
	Total   int
}

// ReceiptAPI is the remote source of truth for receipts.
type ReceiptAPI interface {
	List(ctx context.Context, filter domain.Filter, limit, offset int) (RawPage, error)
	Get(ctx context.Context, id string) (map[string]any, error)
	Upload(ctx context.Context, filename string, file io.Reader) (map[string]any, error)
	Update(ctx context.Context, id string, patch domain.ReceiptPatch) (map[string]any, error)
	Delete(ctx context.Context, id string) error
}

// SavedFilterStore persists the scalar filter fields across sessions.
type SavedFilterStore interface {
	Save(ctx context.Context, state domain.SavedFilter) error
	Load(ctx context.Context) (domain.SavedFilter, error)
	Close() error
}

// EventPublisher announces successful mutations to local consumers.
type EventPublisher interface {
	PublishReceiptEvent(ctx context.Context, event domain.ReceiptEvent) error
	Close()
}

// AttachmentInspector performs the local upload preflight.
type AttachmentInspector interface {
	Inspect(filename string, data []byte) (domain.Attachment, error)
}
