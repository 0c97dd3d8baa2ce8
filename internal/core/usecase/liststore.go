package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
	"github.com/ilhamije/receipt-scanner/internal/core/normalize"
	"github.com/ilhamije/receipt-scanner/internal/core/ports"
	"github.com/ilhamije/receipt-scanner/internal/observability/metrics"
)

type ListStatus string

const (
	StatusIdle    ListStatus = "idle"
	StatusLoading ListStatus = "loading"
	StatusError   ListStatus = "error"
)

// Snapshot is a copied, race-free view of the list store state.
type Snapshot struct {
	Records  []domain.Receipt
	Total    int
	Page     int
	PageSize int
	Status   ListStatus
	Err      error
}

// VisibleRecords applies the validity predicate: records carrying an
// extraction error or lacking both vendor and amount never reach default
// list views.
func (s Snapshot) VisibleRecords() []domain.Receipt {
	visible := make([]domain.Receipt, 0, len(s.Records))
	for _, rec := range s.Records {
		if rec.Valid() {
			visible = append(visible, rec)
		}
	}
	return visible
}

func (s Snapshot) HasPrev() bool { return s.Page > 0 }

func (s Snapshot) HasNext() bool {
	return (s.Page+1)*s.PageSize < s.Total
}

// ListStore owns the single authoritative view of "records matching the
// current filter at the current page". It is the only writer of that state;
// everything else reads snapshots or invokes its operations.
type ListStore struct {
	api        ports.ReceiptAPI
	normalizer *normalize.Normalizer
	saved      ports.SavedFilterStore
	logger     *slog.Logger
	metrics    *metrics.ClientMetrics
	pageSize   int

	mu      sync.Mutex
	seq     uint64
	filter  domain.Filter
	page    int
	records []domain.Receipt
	total   int
	status  ListStatus
	err     error
}

// NewListStore wires the store. saved and clientMetrics may be nil; logger
// falls back to slog.Default.
func NewListStore(
	api ports.ReceiptAPI,
	normalizer *normalize.Normalizer,
	saved ports.SavedFilterStore,
	logger *slog.Logger,
	clientMetrics *metrics.ClientMetrics,
	pageSize int,
) *ListStore {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &ListStore{
		api:        api,
		normalizer: normalizer,
		saved:      saved,
		logger:     logger,
		metrics:    clientMetrics,
		pageSize:   pageSize,
		status:     StatusIdle,
	}
}

// RestoreSavedFilter overlays the persisted vendor-search/category scalars
// onto the current filter without fetching. Call it once at startup, before
// the first fetch.
func (s *ListStore) RestoreSavedFilter(ctx context.Context) error {
	if s.saved == nil {
		return nil
	}
	state, err := s.saved.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.filter = state.Apply(s.filter)
	s.mu.Unlock()
	return nil
}

// SetFilter replaces the filter spec, resets pagination to the first page,
// persists the scalar filter state, and fetches.
func (s *ListStore) SetFilter(ctx context.Context, filter domain.Filter) error {
	if err := filter.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.filter = filter
	s.page = 0
	s.mu.Unlock()

	if s.saved != nil {
		if err := s.saved.Save(ctx, filter.Remembered()); err != nil {
			// Persistence is convenience, not correctness.
			s.logger.Warn("list.saved_filter.persist_failed", "error", err)
		}
	}
	return s.fetch(ctx)
}

// SetPage moves to page n. Pages beyond the current total still fetch and
// yield an empty page; total may have changed server-side since the last
// render, so the store never clamps client-side.
func (s *ListStore) SetPage(ctx context.Context, n int) error {
	if n < 0 {
		return domain.WrapError(domain.ErrInvalidInput, "set page", errPageNegative)
	}
	s.mu.Lock()
	s.page = n
	s.mu.Unlock()
	return s.fetch(ctx)
}

// Refetch re-runs the current filter/page against the backend.
func (s *ListStore) Refetch(ctx context.Context) error {
	return s.fetch(ctx)
}

// ResetToFirstPage jumps back to page 0 under the current filter and
// fetches. Used after uploads, which prepend server-side.
func (s *ListStore) ResetToFirstPage(ctx context.Context) error {
	s.mu.Lock()
	s.page = 0
	s.mu.Unlock()
	return s.fetch(ctx)
}

func (s *ListStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]domain.Receipt, len(s.records))
	copy(records, s.records)
	return Snapshot{
		Records:  records,
		Total:    s.total,
		Page:     s.page,
		PageSize: s.pageSize,
		Status:   s.status,
		Err:      s.err,
	}
}

func (s *ListStore) Filter() domain.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// fetch issues one backend request tagged with a monotonically increasing
// sequence number. The network call runs outside the lock; results apply
// only while the sequence is still the most recently issued one, so a slow
// response for an old filter or page can never overwrite a newer view.
func (s *ListStore) fetch(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.status = StatusLoading
	filter := s.filter
	offset := s.page * s.pageSize
	s.mu.Unlock()

	page, err := s.api.List(ctx, filter, s.pageSize, offset)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		s.metrics.StaleResponseDropped()
		s.logger.Debug("list.fetch.stale_dropped", "seq", seq, "latest", s.seq)
		return nil
	}

	s.metrics.FetchCompleted(err)
	if err != nil {
		s.records = nil
		s.total = 0
		s.status = StatusError
		s.err = err
		s.logger.Error("list.fetch.failed", "seq", seq, "offset", offset, "error", err)
		return err
	}

	records := make([]domain.Receipt, 0, len(page.Results))
	for _, raw := range page.Results {
		records = append(records, s.normalizer.Record(raw))
	}
	s.records = records
	s.total = page.Total
	s.status = StatusIdle
	s.err = nil
	s.logger.Debug("list.fetch.done", "seq", seq, "records", len(records), "total", page.Total)
	return nil
}

var errPageNegative = errors.New("page must be non-negative")
