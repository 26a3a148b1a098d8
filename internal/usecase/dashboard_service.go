package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/riskibarqy/clause-watch/internal/domain/clause"
	"github.com/riskibarqy/clause-watch/internal/domain/league"
	"github.com/riskibarqy/clause-watch/internal/domain/roster"
	"github.com/riskibarqy/clause-watch/internal/domain/snapshot"
	"github.com/riskibarqy/clause-watch/internal/platform/logging"
	"github.com/riskibarqy/clause-watch/internal/platform/refreshkey"
)

const (
	lastGoodKey           = "last-good"
	defaultRefreshTimeout = 2 * time.Minute
)

type snapshotRefresher interface {
	Refresh(ctx context.Context, refreshKey string) (snapshot.Snapshot, error)
}

type DashboardConfig struct {
	Schedule       refreshkey.Schedule
	Window         WindowPolicy
	CacheTTL       time.Duration
	ServeStale     bool
	// RefreshTimeout bounds a shared refresh, which outlives the request
	// that started it.
	RefreshTimeout time.Duration
}

// Meta describes the snapshot a view was derived from.
type Meta struct {
	RefreshKey   string
	FetchedAt    time.Time
	Stale        bool
	FailedOwners []snapshot.OwnerFailure
	Report       snapshot.Report
}

type UpcomingQuery struct {
	MaxHours   float64
	FutureOnly bool
	Filter     roster.Filter
}

// DashboardService serves read-only views over the snapshot of the current refresh cycle.
type DashboardService struct {
	refresher snapshotRefresher
	repo      snapshot.Repository
	cfg       DashboardConfig
	logger    *logging.Logger
	flight    singleflight.Group
	now       func() time.Time
}

func NewDashboardService(refresher snapshotRefresher, repo snapshot.Repository, cfg DashboardConfig, logger *logging.Logger) *DashboardService {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.Window = cfg.Window.normalized()
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = defaultRefreshTimeout
	}
	return &DashboardService{
		refresher: refresher,
		repo:      repo,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Keys returns the refresh keys in effect now.
func (s *DashboardService) Keys() refreshkey.Keys {
	return s.cfg.Schedule.Keys(s.now())
}

// Load returns the snapshot of the current cycle, refreshing at most once per key.
func (s *DashboardService) Load(ctx context.Context) (snapshot.Snapshot, Meta, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Load")
	defer span.End()

	key := s.cfg.Schedule.CycleKey(s.now())
	if snap, ok := s.cached(ctx, key); ok {
		return snap, metaOf(snap, false), nil
	}

	snap, shared, err := s.share(ctx, key, func(runCtx context.Context) (snapshot.Snapshot, error) {
		if snap, ok := s.cached(runCtx, key); ok {
			return snap, nil
		}
		return s.refreshAndStore(runCtx, key)
	})
	if err != nil {
		return s.fallback(ctx, key, err)
	}
	if shared {
		s.logger.DebugContext(ctx, "shared in-flight snapshot load", "refresh_key", key)
	}
	return snap, metaOf(snap, false), nil
}

// ForceRefresh starts a new cycle for the current key regardless of the cache.
func (s *DashboardService) ForceRefresh(ctx context.Context) (snapshot.Snapshot, Meta, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.ForceRefresh")
	defer span.End()

	key := s.cfg.Schedule.CycleKey(s.now())
	snap, _, err := s.share(ctx, "force:"+key, func(runCtx context.Context) (snapshot.Snapshot, error) {
		return s.refreshAndStore(runCtx, key)
	})
	if err != nil {
		return snapshot.Snapshot{}, Meta{}, err
	}
	return snap, metaOf(snap, false), nil
}

// share runs fn once per flight key. The run is detached from the caller that
// started it and bounded by RefreshTimeout; every caller, the first included,
// stops waiting when its own ctx ends without cancelling the others.
func (s *DashboardService) share(
	ctx context.Context,
	flightKey string,
	fn func(context.Context) (snapshot.Snapshot, error),
) (snapshot.Snapshot, bool, error) {
	results := s.flight.DoChan(flightKey, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RefreshTimeout)
		defer cancel()
		return fn(runCtx)
	})

	select {
	case <-ctx.Done():
		return snapshot.Snapshot{}, false, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return snapshot.Snapshot{}, res.Shared, res.Err
		}
		snap, ok := res.Val.(snapshot.Snapshot)
		if !ok {
			return snapshot.Snapshot{}, res.Shared, fmt.Errorf("unexpected snapshot type %T", res.Val)
		}
		return snap, res.Shared, nil
	}
}

func (s *DashboardService) cached(ctx context.Context, key string) (snapshot.Snapshot, bool) {
	if s.repo == nil {
		return snapshot.Snapshot{}, false
	}
	snap, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "snapshot cache read failed", "refresh_key", key, "error", err)
		return snapshot.Snapshot{}, false
	}
	return snap, ok
}

func (s *DashboardService) refreshAndStore(ctx context.Context, key string) (snapshot.Snapshot, error) {
	snap, err := s.refresher.Refresh(ctx, key)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	if s.repo != nil {
		if err := s.repo.Put(ctx, key, snap, s.cfg.CacheTTL); err != nil {
			s.logger.WarnContext(ctx, "snapshot cache write failed", "refresh_key", key, "error", err)
		}
		if err := s.repo.Put(ctx, lastGoodKey, snap, 0); err != nil {
			s.logger.WarnContext(ctx, "last good snapshot write failed", "refresh_key", key, "error", err)
		}
	}
	s.logger.InfoContext(ctx, "snapshot refreshed",
		"refresh_key", key,
		"players", len(snap.Roster),
		"owners", len(snap.Owners),
		"transactions", len(snap.Transactions),
		"failed_owners", len(snap.FailedOwners),
	)
	return snap, nil
}

func (s *DashboardService) fallback(ctx context.Context, key string, cause error) (snapshot.Snapshot, Meta, error) {
	if !s.cfg.ServeStale || errors.Is(cause, context.Canceled) {
		return snapshot.Snapshot{}, Meta{}, cause
	}
	snap, ok := s.cached(ctx, lastGoodKey)
	if !ok {
		return snapshot.Snapshot{}, Meta{}, fmt.Errorf("%w: %w", ErrNoSnapshot, cause)
	}
	s.logger.WarnContext(ctx, "serving stale snapshot after refresh failure",
		"refresh_key", key,
		"stale_key", snap.RefreshKey,
		"error", cause,
	)
	return snap, metaOf(snap, true), nil
}

func metaOf(snap snapshot.Snapshot, stale bool) Meta {
	return Meta{
		RefreshKey:   snap.RefreshKey,
		FetchedAt:    snap.FetchedAt,
		Stale:        stale,
		FailedOwners: snap.FailedOwners,
		Report:       snap.Report,
	}
}

func (s *DashboardService) League(ctx context.Context) (league.League, Meta, error) {
	snap, meta, err := s.Load(ctx)
	if err != nil {
		return league.League{}, Meta{}, err
	}
	return snap.League, meta, nil
}

// Owners returns the standings ordered by rank.
func (s *DashboardService) Owners(ctx context.Context) ([]league.Owner, Meta, error) {
	snap, meta, err := s.Load(ctx)
	if err != nil {
		return nil, Meta{}, err
	}
	out := append([]league.Owner(nil), snap.Owners...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, meta, nil
}

func (s *DashboardService) Players(ctx context.Context, filter roster.Filter) ([]roster.Entry, Meta, error) {
	snap, meta, err := s.Load(ctx)
	if err != nil {
		return nil, Meta{}, err
	}
	entries := ApplyHoursRemaining(snap.Roster, s.now())
	return roster.Select(entries, filter), meta, nil
}

// Upcoming returns owned players whose clause unlocks within MaxHours, soonest first.
func (s *DashboardService) Upcoming(ctx context.Context, query UpcomingQuery) ([]roster.Entry, Meta, error) {
	if query.MaxHours < 0 {
		return nil, Meta{}, fmt.Errorf("%w: max hours must be >= 0", ErrInvalidInput)
	}
	snap, meta, err := s.Load(ctx)
	if err != nil {
		return nil, Meta{}, err
	}
	entries := ApplyHoursRemaining(snap.Roster, s.now())
	entries = FilterByMaxHours(entries, HoursFilter{MaxHours: query.MaxHours, FutureOnly: query.FutureOnly})
	entries = roster.Select(entries, query.Filter)
	SortByHoursRemaining(entries)
	return entries, meta, nil
}

func (s *DashboardService) Unlocked(ctx context.Context, filter roster.Filter) ([]roster.Entry, Meta, error) {
	snap, meta, err := s.Load(ctx)
	if err != nil {
		return nil, Meta{}, err
	}
	now := s.now()
	entries := UnlockedAlready(ApplyHoursRemaining(snap.Roster, now), now)
	entries = roster.Select(entries, filter)
	SortByHoursRemaining(entries)
	return entries, meta, nil
}

func (s *DashboardService) OpenedToday(ctx context.Context, filter roster.Filter) ([]roster.Entry, Meta, error) {
	snap, meta, err := s.Load(ctx)
	if err != nil {
		return nil, Meta{}, err
	}
	now := s.now()
	entries := OpenedToday(ApplyHoursRemaining(snap.Roster, now), now, s.cfg.Schedule.Location())
	entries = roster.Select(entries, filter)
	SortByHoursRemaining(entries)
	return entries, meta, nil
}

// Executed returns trailing-window clause counts, most affected owners first.
func (s *DashboardService) Executed(ctx context.Context) ([]ExecutedCount, Meta, error) {
	snap, meta, err := s.Load(ctx)
	if err != nil {
		return nil, Meta{}, err
	}
	rows := ExecutedCounts(snap.Owners, snap.Transactions, s.now(), s.cfg.Window)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].OwnerName < rows[j].OwnerName
	})
	return rows, meta, nil
}

// Transactions returns the clause feed, newest first.
func (s *DashboardService) Transactions(ctx context.Context) ([]clause.Transaction, Meta, error) {
	snap, meta, err := s.Load(ctx)
	if err != nil {
		return nil, Meta{}, err
	}
	out := append([]clause.Transaction(nil), snap.Transactions...)
	sort.SliceStable(out, func(i, j int) bool {
		left, right := out[i].EntryDate, out[j].EntryDate
		switch {
		case left == nil:
			return false
		case right == nil:
			return true
		}
		return left.After(*right)
	})
	return out, meta, nil
}

func (s *DashboardService) Summary(ctx context.Context, topN int) (Summary, Meta, error) {
	snap, meta, err := s.Load(ctx)
	if err != nil {
		return Summary{}, Meta{}, err
	}
	return Summarize(snap.Roster, topN), meta, nil
}

// SortByHoursRemaining orders entries soonest first; entries without a value go last.
func SortByHoursRemaining(entries []roster.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		left, right := entries[i].HoursRemaining, entries[j].HoursRemaining
		switch {
		case left == nil:
			return false
		case right == nil:
			return true
		}
		return *left < *right
	})
}
