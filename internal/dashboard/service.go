// Package dashboard assembles filtered transaction collections from the
// source boundary and serves cached aggregate snapshots to the HTTP layer.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/scout-analytics/scout/internal/aggregate"
	"github.com/scout-analytics/scout/internal/filter"
	"github.com/scout-analytics/scout/internal/insights"
	"github.com/scout-analytics/scout/internal/shared"
)

// Paging of the source boundary. A fetch stops at the first short page or
// after MaxPages regardless, bounding worst-case memory.
const (
	PageSize = 1000
	MaxPages = 10
)

// Quality tags whether a snapshot was computed from live source data or is
// the zero-valued fallback after a source failure. Fallback is always
// explicit, never silently indistinguishable from real data.
type Quality string

const (
	// QualityLive marks a snapshot computed from source records.
	QualityLive Quality = "live"
	// QualityFallback marks a zero-valued snapshot after a source failure.
	QualityFallback Quality = "fallback"
)

// Source is the transaction source boundary. FetchPage returns one page of
// records matching the selection and reports whether more pages may follow.
type Source interface {
	FetchPage(ctx context.Context, sel filter.Selection, offset, limit int) ([]aggregate.Transaction, bool, error)
}

// Lister exposes the flat paginated transaction listing.
type Lister interface {
	ListTransactions(ctx context.Context, sel filter.Selection, offset, limit int) ([]aggregate.Transaction, int, error)
}

// SnapshotObserver receives snapshot build timings.
type SnapshotObserver interface {
	ObserveSnapshotBuild(quality string, elapsed time.Duration)
}

// Snapshot is the full derived dashboard state for one filter selection.
// ID is unique per build so clients can tell a recomputation apart from a
// cache hit with the same fingerprint.
type Snapshot struct {
	ID          string             `json:"id"`
	Fingerprint string             `json:"fingerprint"`
	Quality     Quality            `json:"quality"`
	GeneratedAt time.Time          `json:"generated_at"`
	Result      aggregate.Result   `json:"result"`
	Insights    []insights.Insight `json:"insights"`
}

// TransactionPage is one page of the flat listing.
type TransactionPage struct {
	Transactions []aggregate.Transaction `json:"transactions"`
	Pagination   shared.Pagination       `json:"pagination"`
}

// Service coordinates fetching, aggregation, and snapshot caching.
type Service struct {
	source   Source
	lister   Lister
	cache    *Cache
	logger   *slog.Logger
	group    singleflight.Group
	now      func() time.Time
	observer SnapshotObserver
}

// NewService wires the source boundary with the cache helper.
func NewService(source Source, lister Lister, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source: source,
		lister: lister,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// WithObserver attaches a metrics sink for snapshot build timings.
func (s *Service) WithObserver(obs SnapshotObserver) {
	s.observer = obs
}

// GetSnapshot returns the aggregate snapshot for the selection, serving from
// cache when possible. Concurrent requests for the same fingerprint share one
// computation; a cancelled request abandons its wait without poisoning the
// shared result. On source failure the zero-valued fallback snapshot is
// returned together with a recoverable ErrSourceUnavailable.
func (s *Service) GetSnapshot(ctx context.Context, sel filter.Selection) (Snapshot, error) {
	fp := sel.Fingerprint()
	resultCh := s.group.DoChan(fp, func() (interface{}, error) {
		return s.loadSnapshot(context.WithoutCancel(ctx), sel, fp)
	})
	select {
	case <-ctx.Done():
		return s.fallback(sel, fp), fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, ctx.Err())
	case res := <-resultCh:
		if res.Err != nil {
			return s.fallback(sel, fp), res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

// Warm computes and caches the snapshot for the selection, used by the
// background warmup job.
func (s *Service) Warm(ctx context.Context, sel filter.Selection) error {
	_, err := s.GetSnapshot(ctx, sel)
	return err
}

// Refresh invalidates all cached snapshots after a data load.
func (s *Service) Refresh(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// ListTransactions serves the flat paginated listing without aggregation.
func (s *Service) ListTransactions(ctx context.Context, sel filter.Selection, page, perPage int) (TransactionPage, error) {
	if s.lister == nil {
		return TransactionPage{}, fmt.Errorf("dashboard: lister not configured")
	}
	if perPage <= 0 || perPage > PageSize {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}
	txs, total, err := s.lister.ListTransactions(ctx, sel, (page-1)*perPage, perPage)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, err)
	}
	return TransactionPage{
		Transactions: txs,
		Pagination:   shared.NewPagination(page, perPage, total),
	}, nil
}

func (s *Service) loadSnapshot(ctx context.Context, sel filter.Selection, fp string) (Snapshot, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "snapshot", fp)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	loader := func(ctx context.Context) (interface{}, error) {
		start := time.Now()
		txs, err := s.collect(ctx, sel)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, err)
		}
		snap := s.assemble(txs, sel, fp, QualityLive)
		if s.observer != nil {
			s.observer.ObserveSnapshotBuild(string(QualityLive), time.Since(start))
		}
		return snap, nil
	}
	if err := s.cache.FetchJSON(ctx, key, &snap, loader); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// collect pages through the source until a short page, the hasMore signal
// drops, or the safety cap is reached.
func (s *Service) collect(ctx context.Context, sel filter.Selection) ([]aggregate.Transaction, error) {
	if s.source == nil {
		return nil, fmt.Errorf("dashboard: source not configured")
	}
	var all []aggregate.Transaction
	for page := 0; page < MaxPages; page++ {
		records, hasMore, err := s.source.FetchPage(ctx, sel, page*PageSize, PageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		all = append(all, records...)
		if !hasMore || len(records) < PageSize {
			return all, nil
		}
	}
	s.logger.Warn("page safety cap reached, truncating collection",
		slog.Int("max_pages", MaxPages),
		slog.Int("records", len(all)))
	return all, nil
}

func (s *Service) assemble(txs []aggregate.Transaction, sel filter.Selection, fp string, quality Quality) Snapshot {
	result := aggregate.Compute(txs, sel)
	return Snapshot{
		ID:          uuid.NewString(),
		Fingerprint: fp,
		Quality:     quality,
		GeneratedAt: s.now(),
		Result:      result,
		Insights:    insights.Derive(result),
	}
}

func (s *Service) fallback(sel filter.Selection, fp string) Snapshot {
	start := time.Now()
	snap := s.assemble(nil, sel, fp, QualityFallback)
	if s.observer != nil {
		s.observer.ObserveSnapshotBuild(string(QualityFallback), time.Since(start))
	}
	return snap
}
