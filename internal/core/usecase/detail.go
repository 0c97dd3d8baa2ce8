package usecase

import (
	"context"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
	"github.com/ilhamije/receipt-scanner/internal/core/normalize"
	"github.com/ilhamije/receipt-scanner/internal/core/ports"
)

// DetailFetcher loads one receipt richer than its list-row projection.
// Unlike list views it returns records that fail the validity predicate:
// detail surfaces are exactly where an extraction error gets inspected.
type DetailFetcher struct {
	api        ports.ReceiptAPI
	normalizer *normalize.Normalizer
}

var _ ports.ReceiptDetailReader = (*DetailFetcher)(nil)

func NewDetailFetcher(api ports.ReceiptAPI, normalizer *normalize.Normalizer) *DetailFetcher {
	if normalizer == nil {
		normalizer = normalize.New(normalize.FallbackCurrency)
	}
	return &DetailFetcher{api: api, normalizer: normalizer}
}

func (d *DetailFetcher) Fetch(ctx context.Context, id string) (domain.Receipt, error) {
	raw, err := d.api.Get(ctx, id)
	if err != nil {
		return domain.Receipt{}, err
	}
	return d.normalizer.Record(raw), nil
}
