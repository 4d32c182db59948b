package stock

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/isv-promotor/stockreview/internal/suppliers"
)

// Loader fetches the record set and the supplier table side by side and
// normalizes the result.
type Loader struct {
	records   Source
	suppliers suppliers.Source
	logger    *slog.Logger
	now       func() time.Time
}

// NewLoader builds a loader. supplierSource may be nil.
func NewLoader(records Source, supplierSource suppliers.Source, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{records: records, suppliers: supplierSource, logger: logger, now: time.Now}
}

// WithNow overrides the clock used for LoadedAt.
func (l *Loader) WithNow(now func() time.Time) *Loader {
	if now != nil {
		l.now = now
	}
	return l
}

// Load runs both fetches. A supplier failure only degrades name resolution.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	var (
		raws  []RawProduct
		table suppliers.Table
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetched, err := l.records.Fetch(gctx)
		if err != nil {
			return err
		}
		raws = fetched
		return nil
	})
	if l.suppliers != nil {
		g.Go(func() error {
			loaded, err := l.suppliers.Load(gctx)
			if err != nil {
				l.logger.Warn("stock: supplier table unavailable, showing raw codes",
					slog.Int("parsed", len(loaded)), slog.Any("error", err))
			}
			table = loaded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	products := Normalize(raws, table, l.logger)
	snap := &Snapshot{
		Products:  products,
		Suppliers: SupplierNames(products),
		LoadedAt:  l.now(),
	}
	if len(products) > 0 {
		snap.DataStamp = products[0].DataStamp
	}
	return snap, nil
}
