// Package dashboardhttp exposes the dashboard snapshot API.
package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/scout-analytics/scout/internal/aggregate"
	"github.com/scout-analytics/scout/internal/dashboard"
	"github.com/scout-analytics/scout/internal/dashboard/export"
	"github.com/scout-analytics/scout/internal/filter"
	"github.com/scout-analytics/scout/internal/platform/httpx"
	"github.com/scout-analytics/scout/internal/shared"
)

const requestTimeout = 5 * time.Second

const dateLayout = "2006-01-02"

// SnapshotService defines the dashboard data contract used by the handler.
type SnapshotService interface {
	GetSnapshot(ctx context.Context, sel filter.Selection) (dashboard.Snapshot, error)
	ListTransactions(ctx context.Context, sel filter.Selection, page, perPage int) (dashboard.TransactionPage, error)
}

// Handler coordinates HTTP requests for the retail analytics dashboard.
type Handler struct {
	logger   *slog.Logger
	service  SnapshotService
	validate *validator.Validate
	csvPool  sync.Pool
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service SnapshotService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// filterQuery mirrors the accepted query parameters before they become a
// filter.Selection.
type filterQuery struct {
	From string `validate:"omitempty,datetime=2006-01-02"`
	To   string `validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sel, err := h.parseSelection(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snap, err := h.service.GetSnapshot(ctx, sel)
	if err != nil {
		if !errors.Is(err, shared.ErrSourceUnavailable) {
			h.logError("load snapshot", err)
			httpx.RespondError(w, err)
			return
		}
		// Recoverable: serve the zero-valued snapshot, visibly tagged.
		h.logger.Warn("serving fallback snapshot", slog.Any("error", err))
	}
	w.Header().Set("X-Data-Quality", string(snap.Quality))
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	sel, err := h.parseSelection(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snap, err := h.service.GetSnapshot(ctx, sel)
	if err != nil {
		// Exporting zeroed fallback data would be indistinguishable from a
		// real empty window, so the export refuses instead.
		h.logError("load snapshot for export", err)
		httpx.RespondError(w, err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	sections := []func() error{
		func() error { return export.WriteKPICSV(buf, snap.Result.KPI) },
		func() error { return export.WriteBreakdownCSV(buf, "Category", snap.Result.ByCategory) },
		func() error { return export.WriteBreakdownCSV(buf, "Brand", snap.Result.ByBrand) },
		func() error { return export.WriteBreakdownCSV(buf, "Store", snap.Result.ByStore) },
		func() error { return export.WriteBreakdownCSV(buf, "Region", snap.Result.ByRegion) },
		func() error { return export.WriteDailyCSV(buf, snap.Result.Daily) },
	}
	for i, write := range sections {
		if i > 0 {
			buf.WriteString("\n")
		}
		if err := write(); err != nil {
			h.logError("write csv", err)
			httpx.RespondError(w, err)
			return
		}
	}

	filename := fmt.Sprintf("scout-dashboard-%s.csv", snap.Fingerprint)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	sel, err := h.parseSelection(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 50)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	listing, err := h.service.ListTransactions(ctx, sel, page, perPage)
	if err != nil {
		h.logError("list transactions", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

// parseSelection builds the filter selection from query parameters. Repeated
// params populate the multi-select sets; absent params leave dimensions
// unrestricted.
func (h *Handler) parseSelection(r *http.Request) (filter.Selection, error) {
	q := r.URL.Query()
	fq := filterQuery{
		From: strings.TrimSpace(q.Get("from")),
		To:   strings.TrimSpace(q.Get("to")),
	}
	if err := h.validate.Struct(fq); err != nil {
		return filter.Selection{}, fmt.Errorf("%w: date must be YYYY-MM-DD", shared.ErrInvalidFilter)
	}

	var sel filter.Selection
	var from, to *time.Time
	if fq.From != "" {
		t, _ := time.ParseInLocation(dateLayout, fq.From, aggregate.BusinessZone)
		from = &t
	}
	if fq.To != "" {
		t, _ := time.ParseInLocation(dateLayout, fq.To, aggregate.BusinessZone)
		end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}
	sel.SetDateRange(from, to)

	for _, value := range q["barangay"] {
		sel.Toggle(filter.DimensionBarangay, value)
	}
	for _, value := range q["category"] {
		sel.Toggle(filter.DimensionCategory, value)
	}
	for _, value := range q["brand"] {
		sel.Toggle(filter.DimensionBrand, value)
	}
	for _, value := range q["store"] {
		sel.Toggle(filter.DimensionStore, value)
	}
	return sel, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}
