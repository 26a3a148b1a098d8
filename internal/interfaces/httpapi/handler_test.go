package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/clause-watch/internal/domain/clause"
	"github.com/riskibarqy/clause-watch/internal/domain/league"
	"github.com/riskibarqy/clause-watch/internal/domain/ownership"
	"github.com/riskibarqy/clause-watch/internal/domain/player"
	"github.com/riskibarqy/clause-watch/internal/domain/roster"
	"github.com/riskibarqy/clause-watch/internal/domain/snapshot"
	"github.com/riskibarqy/clause-watch/internal/platform/logging"
	"github.com/riskibarqy/clause-watch/internal/platform/refreshkey"
	"github.com/riskibarqy/clause-watch/internal/usecase"
)

type fakeDashboard struct {
	meta      usecase.Meta
	entries   []roster.Entry
	err       error
	upcoming  usecase.UpcomingQuery
	filter    roster.Filter
	summaryN  int
	refreshed int
}

func (f *fakeDashboard) Keys() refreshkey.Keys {
	return refreshkey.Keys{
		Cycle:      "cycle:2025-09-13T02:05+02:00",
		CycleStart: time.Date(2025, 9, 13, 0, 5, 0, 0, time.UTC),
		Daily:      "day:2025-09-13",
	}
}

func (f *fakeDashboard) League(context.Context) (league.League, usecase.Meta, error) {
	return league.League{ID: 1234, Name: "Liga"}, f.meta, f.err
}

func (f *fakeDashboard) Owners(context.Context) ([]league.Owner, usecase.Meta, error) {
	return []league.Owner{{ID: 1, Name: "Ana", Rank: 1}}, f.meta, f.err
}

func (f *fakeDashboard) Players(_ context.Context, filter roster.Filter) ([]roster.Entry, usecase.Meta, error) {
	f.filter = filter
	return f.entries, f.meta, f.err
}

func (f *fakeDashboard) Upcoming(_ context.Context, query usecase.UpcomingQuery) ([]roster.Entry, usecase.Meta, error) {
	f.upcoming = query
	return f.entries, f.meta, f.err
}

func (f *fakeDashboard) Unlocked(_ context.Context, filter roster.Filter) ([]roster.Entry, usecase.Meta, error) {
	f.filter = filter
	return f.entries, f.meta, f.err
}

func (f *fakeDashboard) OpenedToday(_ context.Context, filter roster.Filter) ([]roster.Entry, usecase.Meta, error) {
	f.filter = filter
	return f.entries, f.meta, f.err
}

func (f *fakeDashboard) Executed(context.Context) ([]usecase.ExecutedCount, usecase.Meta, error) {
	return []usecase.ExecutedCount{{OwnerID: 1, OwnerName: "Ana", Count: 1, Displayed: 1, Remaining: 2}}, f.meta, f.err
}

func (f *fakeDashboard) Transactions(context.Context) ([]clause.Transaction, usecase.Meta, error) {
	return []clause.Transaction{{PlayerID: 10, From: &clause.Party{ID: 1, Name: "Ana"}}}, f.meta, f.err
}

func (f *fakeDashboard) Summary(_ context.Context, topN int) (usecase.Summary, usecase.Meta, error) {
	f.summaryN = topN
	return usecase.Summary{TotalPlayers: len(f.entries)}, f.meta, f.err
}

func (f *fakeDashboard) ForceRefresh(context.Context) (snapshot.Snapshot, usecase.Meta, error) {
	f.refreshed++
	return snapshot.Snapshot{RefreshKey: f.meta.RefreshKey, Roster: f.entries}, f.meta, f.err
}

type routeRecorder struct {
	mu     sync.Mutex
	routes map[string]int
}

func (r *routeRecorder) ObserveHTTP(route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.routes == nil {
		r.routes = make(map[string]int)
	}
	r.routes[fmt.Sprintf("%s %d", route, status)]++
}

const testInternalToken = "internal-secret"

func sampleEntries() []roster.Entry {
	unlock := time.Date(2025, 9, 14, 10, 0, 0, 0, time.UTC)
	hours := 22.0
	name := "Ana"
	pos := player.PositionForward
	return []roster.Entry{
		{
			Player:         player.Player{ID: 10, Name: "Isco", Position: &pos, MarketValue: 9_000_000},
			Ownership:      &ownership.Ownership{PlayerID: 10, OwnerID: 1, ClauseValue: 12_000_000, ClauseUnlockAt: &unlock},
			OwnerName:      &name,
			HoursRemaining: &hours,
		},
		{Player: player.Player{ID: 11, Name: "Free Agent"}},
	}
}

func newTestRouter(dashboard Dashboard, recorder RequestRecorder) http.Handler {
	return NewRouter(NewHandler(dashboard, logging.NewNop()), logging.NewNop(), RouterConfig{
		CORSAllowedOrigins: []string{"*"},
		InternalJobToken:   testInternalToken,
		Recorder:           recorder,
	})
}

func serve(t *testing.T, router http.Handler, req *http.Request) (int, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v (%s)", err, rec.Body.String())
	}
	return rec.Code, body
}

func TestHandler_Upcoming_ParsesQueryAndRendersMeta(t *testing.T) {
	t.Parallel()

	dashboard := &fakeDashboard{
		entries: sampleEntries()[:1],
		meta: usecase.Meta{
			RefreshKey:   "cycle:2025-09-13T02:05+02:00",
			FetchedAt:    time.Date(2025, 9, 13, 12, 0, 0, 0, time.UTC),
			FailedOwners: []snapshot.OwnerFailure{{OwnerID: 2, OwnerName: "Luis", Reason: "dependency unavailable"}},
		},
	}
	recorder := &routeRecorder{}
	router := newTestRouter(dashboard, recorder)

	req := httptest.NewRequest(http.MethodGet, "/v1/clauses/upcoming?max_hours=24&future_only=true&position=fwd&owner_id=1", nil)
	code, body := serve(t, router, req)

	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, body)
	}
	if dashboard.upcoming.MaxHours != 24 || !dashboard.upcoming.FutureOnly {
		t.Fatalf("unexpected upcoming query: %+v", dashboard.upcoming)
	}
	if dashboard.upcoming.Filter.Position != player.PositionForward || dashboard.upcoming.Filter.OwnerID != 1 {
		t.Fatalf("unexpected filter: %+v", dashboard.upcoming.Filter)
	}

	data, _ := body["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("expected one entry, got %v", body["data"])
	}
	first, _ := data[0].(map[string]any)
	if first["clause_unlock_at"] != "2025-09-14T10:00:00Z" || first["hours_remaining"] != 22.0 {
		t.Fatalf("unexpected entry payload: %v", first)
	}

	meta, _ := body["meta"].(map[string]any)
	if meta["partial"] != true || meta["refresh_key"] != "cycle:2025-09-13T02:05+02:00" {
		t.Fatalf("unexpected meta: %v", meta)
	}
	if recorder.routes["/v1/clauses/upcoming 200"] != 1 {
		t.Fatalf("expected route to be instrumented, got %v", recorder.routes)
	}
}

func TestHandler_Upcoming_DefaultsToFortyEightHours(t *testing.T) {
	t.Parallel()

	dashboard := &fakeDashboard{}
	router := newTestRouter(dashboard, nil)

	code, _ := serve(t, router, httptest.NewRequest(http.MethodGet, "/v1/clauses/upcoming", nil))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if dashboard.upcoming.MaxHours != 48 || dashboard.upcoming.FutureOnly {
		t.Fatalf("unexpected default query: %+v", dashboard.upcoming)
	}
}

func TestHandler_RejectsInvalidQueries(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeDashboard{}, nil)
	targets := []string{
		"/v1/clauses/upcoming?max_hours=-1",
		"/v1/clauses/upcoming?max_hours=soon",
		"/v1/clauses/upcoming?future_only=maybe",
		"/v1/players?position=striker",
		"/v1/players?team_id=abc",
		"/v1/clauses/unlocked?owner_id=-3",
		"/v1/summary?top=1000",
	}

	for _, target := range targets {
		code, body := serve(t, router, httptest.NewRequest(http.MethodGet, target, nil))
		if code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, code)
		}
		errorObj, _ := body["error"].(map[string]any)
		if errorObj["status"] != "INVALID_ARGUMENT" {
			t.Fatalf("%s: unexpected error body: %v", target, body)
		}
	}
}

func TestHandler_MapsDashboardErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		code int
	}{
		{name: "provider down", err: fmt.Errorf("%w: provider status=503", usecase.ErrDependencyUnavailable), code: http.StatusServiceUnavailable},
		{name: "no snapshot", err: fmt.Errorf("%w: %w", usecase.ErrNoSnapshot, usecase.ErrUnauthorized), code: http.StatusServiceUnavailable},
		{name: "bad credentials", err: fmt.Errorf("%w: login rejected", usecase.ErrUnauthorized), code: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&fakeDashboard{err: tc.err}, nil)
			code, _ := serve(t, router, httptest.NewRequest(http.MethodGet, "/v1/league", nil))
			if code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, code)
			}
		})
	}
}

func TestHandler_StaleSnapshotAddsWarning(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeDashboard{meta: usecase.Meta{RefreshKey: "cycle:old", Stale: true}}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/owners", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Warning") == "" {
		t.Fatalf("expected Warning header on stale response")
	}
}

func TestHandler_ForceRefresh_RequiresInternalToken(t *testing.T) {
	t.Parallel()

	dashboard := &fakeDashboard{entries: sampleEntries(), meta: usecase.Meta{RefreshKey: "cycle:now"}}
	router := newTestRouter(dashboard, nil)

	code, _ := serve(t, router, httptest.NewRequest(http.MethodPost, "/v1/internal/refresh", nil))
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/refresh", nil)
	req.Header.Set("X-Internal-Job-Token", testInternalToken)
	code, body := serve(t, router, req)
	if code != http.StatusOK || dashboard.refreshed != 1 {
		t.Fatalf("expected one forced refresh, got code=%d refreshed=%d", code, dashboard.refreshed)
	}
	data, _ := body["data"].(map[string]any)
	if data["players"] != 2.0 {
		t.Fatalf("unexpected refresh result: %v", data)
	}
}

func TestHandler_RefreshKeysAndHealth(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeDashboard{}, nil)

	code, body := serve(t, router, httptest.NewRequest(http.MethodGet, "/v1/refresh-keys", nil))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	data, _ := body["data"].(map[string]any)
	if data["daily"] != "day:2025-09-13" || data["cycle_start"] != "2025-09-13T00:05:00Z" {
		t.Fatalf("unexpected refresh keys: %v", data)
	}

	code, _ = serve(t, router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", code)
	}
}
