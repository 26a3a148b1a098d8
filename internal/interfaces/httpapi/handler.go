package httpapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/clause-watch/internal/domain/clause"
	"github.com/riskibarqy/clause-watch/internal/domain/league"
	"github.com/riskibarqy/clause-watch/internal/domain/roster"
	"github.com/riskibarqy/clause-watch/internal/domain/snapshot"
	"github.com/riskibarqy/clause-watch/internal/platform/logging"
	"github.com/riskibarqy/clause-watch/internal/platform/refreshkey"
	"github.com/riskibarqy/clause-watch/internal/usecase"
)

// Dashboard is the read side the handlers render. *usecase.DashboardService implements it.
type Dashboard interface {
	Keys() refreshkey.Keys
	League(ctx context.Context) (league.League, usecase.Meta, error)
	Owners(ctx context.Context) ([]league.Owner, usecase.Meta, error)
	Players(ctx context.Context, filter roster.Filter) ([]roster.Entry, usecase.Meta, error)
	Upcoming(ctx context.Context, query usecase.UpcomingQuery) ([]roster.Entry, usecase.Meta, error)
	Unlocked(ctx context.Context, filter roster.Filter) ([]roster.Entry, usecase.Meta, error)
	OpenedToday(ctx context.Context, filter roster.Filter) ([]roster.Entry, usecase.Meta, error)
	Executed(ctx context.Context) ([]usecase.ExecutedCount, usecase.Meta, error)
	Transactions(ctx context.Context) ([]clause.Transaction, usecase.Meta, error)
	Summary(ctx context.Context, topN int) (usecase.Summary, usecase.Meta, error)
	ForceRefresh(ctx context.Context) (snapshot.Snapshot, usecase.Meta, error)
}

var _ Dashboard = (*usecase.DashboardService)(nil)

type Handler struct {
	dashboard Dashboard
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(dashboard Dashboard, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		dashboard: dashboard,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeague")
	defer span.End()

	item, meta, err := h.dashboard.League(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get league failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeView(ctx, w, leagueToDTO(item), meta)
}

func (h *Handler) ListOwners(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListOwners")
	defer span.End()

	owners, meta, err := h.dashboard.Owners(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list owners failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]ownerDTO, 0, len(owners))
	for _, owner := range owners {
		items = append(items, ownerToDTO(owner))
	}
	writeView(ctx, w, items, meta)
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	h.listEntries(w, r, "httpapi.Handler.ListPlayers", h.dashboard.Players)
}

func (h *Handler) ListUnlockedClauses(w http.ResponseWriter, r *http.Request) {
	h.listEntries(w, r, "httpapi.Handler.ListUnlockedClauses", h.dashboard.Unlocked)
}

func (h *Handler) ListClausesOpenedToday(w http.ResponseWriter, r *http.Request) {
	h.listEntries(w, r, "httpapi.Handler.ListClausesOpenedToday", h.dashboard.OpenedToday)
}

func (h *Handler) listEntries(
	w http.ResponseWriter,
	r *http.Request,
	spanName string,
	view func(context.Context, roster.Filter) ([]roster.Entry, usecase.Meta, error),
) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	req, err := parseRosterFilter(r.URL.Query())
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, meta, err := view(ctx, req.toFilter())
	if err != nil {
		h.logger.ErrorContext(ctx, "roster view failed", "view", spanName, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeView(ctx, w, entriesToDTO(entries), meta)
}

func (h *Handler) ListUpcomingClauses(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUpcomingClauses")
	defer span.End()

	req, err := parseUpcoming(r.URL.Query())
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, meta, err := h.dashboard.Upcoming(ctx, usecase.UpcomingQuery{
		MaxHours:   req.MaxHours,
		FutureOnly: req.FutureOnly,
		Filter:     req.toFilter(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "list upcoming clauses failed", "max_hours", req.MaxHours, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeView(ctx, w, entriesToDTO(entries), meta)
}

func (h *Handler) ListExecutedClauses(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListExecutedClauses")
	defer span.End()

	rows, meta, err := h.dashboard.Executed(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list executed clauses failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]executedCountDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, executedToDTO(row))
	}
	writeView(ctx, w, items, meta)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTransactions")
	defer span.End()

	transactions, meta, err := h.dashboard.Transactions(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list transactions failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]transactionDTO, 0, len(transactions))
	for _, item := range transactions {
		items = append(items, transactionToDTO(item))
	}
	writeView(ctx, w, items, meta)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSummary")
	defer span.End()

	req, err := parseSummary(r.URL.Query())
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	summary, meta, err := h.dashboard.Summary(ctx, req.Top)
	if err != nil {
		h.logger.ErrorContext(ctx, "get summary failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeView(ctx, w, summaryToDTO(summary), meta)
}

func (h *Handler) GetRefreshKeys(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRefreshKeys")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, refreshKeysToDTO(h.dashboard.Keys()))
}

func (h *Handler) ForceRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ForceRefresh")
	defer span.End()

	snap, meta, err := h.dashboard.ForceRefresh(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "forced refresh failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "forced refresh completed", "refresh_key", snap.RefreshKey)
	writeView(ctx, w, refreshResultDTO{
		RefreshKey:   snap.RefreshKey,
		Players:      len(snap.Roster),
		Owners:       len(snap.Owners),
		Transactions: len(snap.Transactions),
		FailedOwners: len(snap.FailedOwners),
	}, meta)
}
