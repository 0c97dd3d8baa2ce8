package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
	"github.com/ilhamije/receipt-scanner/internal/core/normalize"
	"github.com/ilhamije/receipt-scanner/internal/core/ports"
	"github.com/ilhamije/receipt-scanner/internal/observability/metrics"
)

// MutationCoordinator wraps upload, edit, and delete with the sequencing
// needed to keep the list store truthful: every successful mutation triggers
// a refetch, failed mutations leave the list untouched, and a second
// mutation for a record with one still outstanding fails fast.
type MutationCoordinator struct {
	api        ports.ReceiptAPI
	list       *ListStore
	normalizer *normalize.Normalizer
	inspector  ports.AttachmentInspector
	events     ports.EventPublisher
	logger     *slog.Logger
	metrics    *metrics.ClientMetrics
	now        func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

var _ ports.ReceiptMutator = (*MutationCoordinator)(nil)

// NewMutationCoordinator wires the coordinator. inspector, events, and
// clientMetrics may be nil.
func NewMutationCoordinator(
	api ports.ReceiptAPI,
	list *ListStore,
	normalizer *normalize.Normalizer,
	inspector ports.AttachmentInspector,
	events ports.EventPublisher,
	logger *slog.Logger,
	clientMetrics *metrics.ClientMetrics,
) *MutationCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if normalizer == nil {
		normalizer = normalize.New(normalize.FallbackCurrency)
	}
	return &MutationCoordinator{
		api:        api,
		list:       list,
		normalizer: normalizer,
		inspector:  inspector,
		events:     events,
		logger:     logger,
		metrics:    clientMetrics,
		now:        time.Now,
		inflight:   make(map[string]struct{}),
	}
}

// Upload sends the file to the backend for extraction. On success it returns
// the normalized preview record (shown to the user before any list refresh)
// and resets the list to the first page, where the new record lands. On
// failure the list is left untouched.
func (c *MutationCoordinator) Upload(ctx context.Context, filename string, file io.Reader) (domain.Receipt, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("read upload: %w", err)
	}
	if c.inspector != nil {
		attachment, err := c.inspector.Inspect(filename, data)
		if err != nil {
			c.metrics.MutationCompleted("upload", err)
			return domain.Receipt{}, err
		}
		c.logger.Debug("mutation.upload.preflight",
			"filename", attachment.Filename,
			"content_type", attachment.ContentType,
			"size", attachment.Size,
			"pages", attachment.Pages,
		)
	}

	raw, err := c.api.Upload(ctx, filename, bytes.NewReader(data))
	c.metrics.MutationCompleted("upload", err)
	if err != nil {
		c.logger.Error("mutation.upload.failed", "filename", filename, "error", err)
		return domain.Receipt{}, err
	}

	preview := c.normalizer.Record(raw)
	c.publish(ctx, domain.EventReceiptUploaded, preview.ID)

	if err := c.list.ResetToFirstPage(ctx); err != nil {
		// The upload itself succeeded; the view just lags until the next
		// refetch. Callers still get the preview record.
		c.logger.Warn("mutation.upload.refresh_failed", "error", err)
	}
	return preview, nil
}

// Update patches only the fields the user actually changed. Absent fields
// are omitted from the request body so they never overwrite server-held
// data; explicit zeros travel because the patch uses pointers.
func (c *MutationCoordinator) Update(ctx context.Context, id string, patch domain.ReceiptPatch) (domain.Receipt, error) {
	if id == "" {
		return domain.Receipt{}, domain.WrapError(domain.ErrInvalidInput, "update receipt", errors.New("empty id"))
	}
	if patch.IsEmpty() {
		return domain.Receipt{}, domain.WrapError(domain.ErrInvalidInput, "update receipt", errors.New("empty patch"))
	}
	release, err := c.acquire(id)
	if err != nil {
		return domain.Receipt{}, err
	}
	defer release()

	raw, err := c.api.Update(ctx, id, patch)
	c.metrics.MutationCompleted("update", err)
	if err != nil {
		c.logger.Error("mutation.update.failed", "id", id, "error", err)
		return domain.Receipt{}, err
	}

	updated := c.normalizer.Record(raw)
	c.publish(ctx, domain.EventReceiptUpdated, id)

	if err := c.list.Refetch(ctx); err != nil {
		c.logger.Warn("mutation.update.refresh_failed", "id", id, "error", err)
	}
	return updated, nil
}

// Delete soft-deletes the record server-side and refreshes the current page.
func (c *MutationCoordinator) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete receipt", errors.New("empty id"))
	}
	release, err := c.acquire(id)
	if err != nil {
		return err
	}
	defer release()

	err = c.api.Delete(ctx, id)
	c.metrics.MutationCompleted("delete", err)
	if err != nil {
		c.logger.Error("mutation.delete.failed", "id", id, "error", err)
		return err
	}

	c.publish(ctx, domain.EventReceiptDeleted, id)

	if err := c.list.Refetch(ctx); err != nil {
		c.logger.Warn("mutation.delete.refresh_failed", "id", id, "error", err)
	}
	return nil
}

// acquire marks the record id as having a mutation outstanding. The guard is
// advisory: the UI contract is to disable the triggering control while a
// call is in flight, and this catches callers that don't.
func (c *MutationCoordinator) acquire(id string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[id]; busy {
		return nil, domain.WrapError(domain.ErrMutationInFlight, "mutate receipt", fmt.Errorf("id=%s", id))
	}
	c.inflight[id] = struct{}{}
	return func() {
		c.mu.Lock()
		delete(c.inflight, id)
		c.mu.Unlock()
	}, nil
}

func (c *MutationCoordinator) publish(ctx context.Context, kind domain.EventKind, receiptID string) {
	if c.events == nil {
		return
	}
	event := domain.ReceiptEvent{
		ID:        uuid.NewString(),
		ReceiptID: receiptID,
		Kind:      kind,
		At:        c.now().UTC(),
	}
	if err := c.events.PublishReceiptEvent(ctx, event); err != nil {
		c.logger.Warn("mutation.event.publish_failed", "kind", kind, "receipt_id", receiptID, "error", err)
	}
}
