package ports

import (
	"context"
	"io"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
)

// ReceiptMutator sequences create/update/delete calls against the backend.
type ReceiptMutator interface {
	Upload(ctx context.Context, filename string, file io.Reader) (domain.Receipt, error)
	Update(ctx context.Context, id string, patch domain.ReceiptPatch) (domain.Receipt, error)
	Delete(ctx context.Context, id string) error
}

// ReceiptDetailReader fetches one receipt richer than its list-row projection.
type ReceiptDetailReader interface {
	Fetch(ctx context.Context, id string) (domain.Receipt, error)
}
