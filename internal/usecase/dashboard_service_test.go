package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/clause-watch/internal/domain/clause"
	"github.com/riskibarqy/clause-watch/internal/domain/league"
	"github.com/riskibarqy/clause-watch/internal/domain/ownership"
	"github.com/riskibarqy/clause-watch/internal/domain/player"
	"github.com/riskibarqy/clause-watch/internal/domain/roster"
	"github.com/riskibarqy/clause-watch/internal/domain/snapshot"
	snapshotmock "github.com/riskibarqy/clause-watch/internal/mocks/domain/snapshot"
	"github.com/riskibarqy/clause-watch/internal/platform/refreshkey"
)

type stubRefresher struct {
	calls atomic.Int32
	delay time.Duration
	snap  snapshot.Snapshot
	err   error
}

func (s *stubRefresher) Refresh(_ context.Context, key string) (snapshot.Snapshot, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return snapshot.Snapshot{}, s.err
	}
	snap := s.snap
	snap.RefreshKey = key
	return snap, nil
}

var dashboardNow = time.Date(2025, 9, 13, 12, 0, 0, 0, time.UTC)

func newTestDashboard(refresher snapshotRefresher, repo snapshot.Repository, serveStale bool) *DashboardService {
	service := NewDashboardService(refresher, repo, DashboardConfig{
		Schedule:   refreshkey.MustParse("*@02:05", time.UTC, 2*time.Hour),
		Window:     DefaultWindowPolicy(),
		CacheTTL:   time.Hour,
		ServeStale: serveStale,
	}, nil)
	service.now = func() time.Time { return dashboardNow }
	return service
}

func sampleSnapshot() snapshot.Snapshot {
	soon := dashboardNow.Add(3 * time.Hour)
	later := dashboardNow.Add(30 * time.Hour)
	past := dashboardNow.Add(-4 * time.Hour)
	teamID := int64(7)
	name := "Ana"
	return snapshot.Snapshot{
		FetchedAt: dashboardNow,
		Owners:    []league.Owner{{ID: 1, Name: "Ana", Rank: 2}, {ID: 2, Name: "Luis", Rank: 1}},
		Roster: []roster.Entry{
			{Player: player.Player{ID: 10, MarketValue: 100, TeamID: &teamID}, Ownership: &ownership.Ownership{PlayerID: 10, OwnerID: 1, ClauseUnlockAt: &later}, OwnerName: &name},
			{Player: player.Player{ID: 11, MarketValue: 300}, Ownership: &ownership.Ownership{PlayerID: 11, OwnerID: 1, ClauseUnlockAt: &soon}, OwnerName: &name},
			{Player: player.Player{ID: 12, MarketValue: 200}, Ownership: &ownership.Ownership{PlayerID: 12, OwnerID: 1, ClauseUnlockAt: &past}, OwnerName: &name},
			{Player: player.Player{ID: 13, MarketValue: 900}},
		},
		Transactions: []clause.Transaction{
			{PlayerID: 12, From: &clause.Party{ID: 2}, EntryDate: timePtr(dashboardNow.Add(-24 * time.Hour))},
		},
	}
}

func TestDashboardService_Load_CachesByRefreshKey(t *testing.T) {
	t.Parallel()

	repo := snapshotmock.NewRepository(t)
	refresher := &stubRefresher{snap: sampleSnapshot()}
	service := newTestDashboard(refresher, repo, false)
	key := "cycle:2025-09-13T02:05Z"

	repo.On("Get", mock.Anything, key).Return(snapshot.Snapshot{}, false, nil).Twice()
	repo.On("Put", mock.Anything, key, mock.Anything, time.Hour).Return(nil).Once()
	repo.On("Put", mock.Anything, lastGoodKey, mock.Anything, time.Duration(0)).Return(nil).Once()

	snap, meta, err := service.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.RefreshKey != key || meta.RefreshKey != key || meta.Stale {
		t.Fatalf("unexpected snapshot meta: %+v", meta)
	}
	if refresher.calls.Load() != 1 {
		t.Fatalf("expected one refresh, got %d", refresher.calls.Load())
	}
}

func TestDashboardService_Load_DeduplicatesConcurrentLoads(t *testing.T) {
	t.Parallel()

	refresher := &stubRefresher{snap: sampleSnapshot(), delay: 30 * time.Millisecond}
	service := newTestDashboard(refresher, nil, false)

	const callers = 10
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if _, _, err := service.Load(context.Background()); err != nil {
				t.Errorf("load: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := refresher.calls.Load(); got != 1 {
		t.Fatalf("expected one refresh for concurrent loads, got %d", got)
	}
}

type gatedRefresher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	ctxErr  atomic.Value
}

func newGatedRefresher() *gatedRefresher {
	return &gatedRefresher{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedRefresher) Refresh(ctx context.Context, key string) (snapshot.Snapshot, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	<-g.release
	if err := ctx.Err(); err != nil {
		g.ctxErr.Store(err.Error())
		return snapshot.Snapshot{}, err
	}
	snap := sampleSnapshot()
	snap.RefreshKey = key
	return snap, nil
}

func TestDashboardService_Load_FirstCallerCancelDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	refresher := newGatedRefresher()
	service := newTestDashboard(refresher, nil, true)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := service.Load(firstCtx)
		firstErr <- err
	}()
	<-refresher.started

	type loadResult struct {
		snap snapshot.Snapshot
		err  error
	}
	second := make(chan loadResult, 1)
	go func() {
		snap, _, err := service.Load(context.Background())
		second <- loadResult{snap: snap, err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the cancelled caller to stop with context.Canceled, got %v", err)
	}
	close(refresher.release)

	got := <-second
	if got.err != nil {
		t.Fatalf("second caller must not inherit the first caller's cancel: %v", got.err)
	}
	if got.snap.RefreshKey != "cycle:2025-09-13T02:05Z" {
		t.Fatalf("unexpected snapshot: %+v", got.snap.RefreshKey)
	}
	if err := refresher.ctxErr.Load(); err != nil {
		t.Fatalf("shared refresh ran under a cancelled context: %v", err)
	}
	if calls := refresher.calls.Load(); calls != 1 {
		t.Fatalf("expected one shared refresh, got %d", calls)
	}
}

func TestDashboardService_ForceRefresh_SurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	refresher := newGatedRefresher()
	service := newTestDashboard(refresher, nil, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := service.ForceRefresh(ctx)
		done <- err
	}()
	<-refresher.started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled for the caller, got %v", err)
	}

	close(refresher.release)
	snap, _, err := service.ForceRefresh(context.Background())
	if err != nil {
		t.Fatalf("force refresh: %v", err)
	}
	if snap.RefreshKey == "" {
		t.Fatalf("expected a refreshed snapshot")
	}
	if err := refresher.ctxErr.Load(); err != nil {
		t.Fatalf("detached refresh saw a cancelled context: %v", err)
	}
}

func TestDashboardService_Load_ServesStaleSnapshot(t *testing.T) {
	t.Parallel()

	repo := snapshotmock.NewRepository(t)
	refresher := &stubRefresher{err: fmt.Errorf("%w: provider status=503", ErrDependencyUnavailable)}
	service := newTestDashboard(refresher, repo, true)

	previous := sampleSnapshot()
	previous.RefreshKey = "cycle:2025-09-12T02:05Z"

	repo.On("Get", mock.Anything, "cycle:2025-09-13T02:05Z").Return(snapshot.Snapshot{}, false, nil)
	repo.On("Get", mock.Anything, lastGoodKey).Return(previous, true, nil).Once()

	snap, meta, err := service.Load(context.Background())
	if err != nil {
		t.Fatalf("expected stale snapshot, got error %v", err)
	}
	if !meta.Stale || snap.RefreshKey != previous.RefreshKey {
		t.Fatalf("expected stale meta for previous snapshot, got %+v", meta)
	}
}

func TestDashboardService_Load_SurfacesErrorWithoutStale(t *testing.T) {
	t.Parallel()

	refresher := &stubRefresher{err: fmt.Errorf("%w: bad credentials", ErrUnauthorized)}
	service := newTestDashboard(refresher, nil, false)

	_, _, err := service.Load(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDashboardService_Views(t *testing.T) {
	t.Parallel()

	service := newTestDashboard(&stubRefresher{snap: sampleSnapshot()}, nil, false)
	ctx := context.Background()

	upcoming, _, err := service.Upcoming(ctx, UpcomingQuery{MaxHours: 48, FutureOnly: true})
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if got := playerIDs(upcoming); !equalIDs(got, []int64{11, 10}) {
		t.Fatalf("unexpected upcoming order: %v", got)
	}

	unlocked, _, err := service.Unlocked(ctx, roster.Filter{})
	if err != nil {
		t.Fatalf("unlocked: %v", err)
	}
	if got := playerIDs(unlocked); !equalIDs(got, []int64{12}) {
		t.Fatalf("unexpected unlocked selection: %v", got)
	}

	filtered, _, err := service.Players(ctx, roster.Filter{TeamID: 7})
	if err != nil {
		t.Fatalf("players: %v", err)
	}
	if got := playerIDs(filtered); !equalIDs(got, []int64{10}) {
		t.Fatalf("unexpected team filter selection: %v", got)
	}

	owners, _, err := service.Owners(ctx)
	if err != nil {
		t.Fatalf("owners: %v", err)
	}
	if owners[0].ID != 2 {
		t.Fatalf("expected owners sorted by rank, got %+v", owners)
	}

	executed, _, err := service.Executed(ctx)
	if err != nil {
		t.Fatalf("executed: %v", err)
	}
	if len(executed) != 2 || executed[0].OwnerID != 2 || executed[0].Count != 1 {
		t.Fatalf("unexpected executed counts: %+v", executed)
	}

	if _, _, err := service.Upcoming(ctx, UpcomingQuery{MaxHours: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative threshold, got %v", err)
	}
}
