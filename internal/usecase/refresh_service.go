package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/clause-watch/internal/domain/clause"
	"github.com/riskibarqy/clause-watch/internal/domain/league"
	"github.com/riskibarqy/clause-watch/internal/domain/ownership"
	"github.com/riskibarqy/clause-watch/internal/domain/player"
	"github.com/riskibarqy/clause-watch/internal/domain/snapshot"
	"github.com/riskibarqy/clause-watch/internal/domain/user"
	"github.com/riskibarqy/clause-watch/internal/platform/id"
	"github.com/riskibarqy/clause-watch/internal/platform/logging"
)

const (
	defaultBoardLimit   = 8
	defaultOwnerWorkers = 4
	defaultOwnerTimeout = 30 * time.Second
)

type RefreshConfig struct {
	Credentials  user.Credentials
	LeagueID     string
	UserID       string
	BoardLimit   int
	OwnerWorkers int
	OwnerTimeout time.Duration
}

// RefreshRecorder receives refresh cycle measurements.
type RefreshRecorder interface {
	ObserveRefresh(outcome string, duration time.Duration)
	ObserveOwnerFetch(outcome string)
	ObserveSkipped(kind string, count int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRefresh(string, time.Duration) {}
func (nopRecorder) ObserveOwnerFetch(string)             {}
func (nopRecorder) ObserveSkipped(string, int)           {}

type RefreshSources struct {
	Auth    user.Authenticator
	League  league.Source
	Catalog player.Catalog
	Owners  ownership.Source
	Board   clause.Board
}

// RefreshService runs one fetch-normalize-join cycle and builds a snapshot.
type RefreshService struct {
	sources  RefreshSources
	cfg      RefreshConfig
	recorder RefreshRecorder
	logger   *logging.Logger
	runIDs   id.Generator
	now      func() time.Time
}

func NewRefreshService(sources RefreshSources, cfg RefreshConfig, recorder RefreshRecorder, logger *logging.Logger) *RefreshService {
	if cfg.BoardLimit <= 0 {
		cfg.BoardLimit = defaultBoardLimit
	}
	if cfg.OwnerWorkers <= 0 {
		cfg.OwnerWorkers = defaultOwnerWorkers
	}
	if cfg.OwnerTimeout <= 0 {
		cfg.OwnerTimeout = defaultOwnerTimeout
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RefreshService{
		sources:  sources,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger,
		runIDs:   id.NewRunIDGenerator(id.DefaultRunIDBytes, time.Now),
		now:      time.Now,
	}
}

type globalFetch struct {
	standings league.Standings
	catalog   player.Page
	feed      clause.Feed
}

type ownerResult struct {
	owner    league.Owner
	holdings ownership.Holdings
	err      error
}

// Refresh builds a snapshot for refreshKey. Failures of the login or of any
// league-wide fetch abort the cycle, as does a session rejected on any owner
// fetch; other per-owner failures are recorded on the snapshot.
func (s *RefreshService) Refresh(ctx context.Context, refreshKey string) (snapshot.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.Refresh")
	defer span.End()

	runID, err := s.runIDs.NewID()
	if err != nil {
		runID = "unavailable"
	}
	logger := s.logger.With("refresh_key", refreshKey, "refresh_run_id", runID)

	started := s.now()
	snap, err := s.refresh(ctx, logger, refreshKey)
	outcome := "success"
	switch {
	case err != nil:
		outcome = "failed"
	case snap.IsPartial():
		outcome = "partial"
	}
	elapsed := s.now().Sub(started)
	s.recorder.ObserveRefresh(outcome, elapsed)
	if err != nil {
		logger.ErrorContext(ctx, "refresh failed", "duration_ms", elapsed.Milliseconds(), "error", err)
	} else {
		logger.InfoContext(ctx, "refresh completed",
			"outcome", outcome,
			"players", len(snap.Roster),
			"owners", len(snap.Owners),
			"duration_ms", elapsed.Milliseconds(),
		)
	}
	return snap, err
}

func (s *RefreshService) refresh(ctx context.Context, logger *logging.Logger, refreshKey string) (snapshot.Snapshot, error) {
	token, err := s.sources.Auth.Login(ctx, s.cfg.Credentials)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("authenticate: %w", err)
	}
	session := user.Session{
		Token:    token,
		LeagueID: strings.TrimSpace(s.cfg.LeagueID),
		UserID:   strings.TrimSpace(s.cfg.UserID),
	}

	global, err := s.fetchGlobal(ctx, session)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	results, err := s.fetchOwners(ctx, logger, session, global.standings.Owners)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	report := snapshot.Report{
		SkippedOwners:       global.standings.Skipped,
		SkippedPlayers:      global.catalog.Skipped,
		SkippedTransactions: global.feed.Skipped,
	}
	ownerships := make([]ownership.Ownership, 0, len(global.catalog.Players))
	failures := make([]snapshot.OwnerFailure, 0)
	for _, item := range results {
		if item.err != nil {
			failures = append(failures, snapshot.OwnerFailure{
				OwnerID:   item.owner.ID,
				OwnerName: item.owner.Name,
				Reason:    item.err.Error(),
			})
			continue
		}
		report.SkippedOwnerships += item.holdings.Skipped
		ownerships = append(ownerships, item.holdings.Items...)
	}

	roster, joinReport := JoinRoster(global.catalog.Players, ownerships, global.standings.Owners)
	report.OrphanOwnerships = joinReport.Orphans
	report.DuplicateOwnerships = joinReport.Duplicates

	s.recordReport(ctx, logger, report)
	if len(failures) > 0 {
		logger.WarnContext(ctx, "refresh completed with failed owners", "failed_owners", len(failures))
	}

	return snapshot.Snapshot{
		RefreshKey:   refreshKey,
		FetchedAt:    s.now().UTC(),
		League:       global.standings.League,
		Owners:       global.standings.Owners,
		Roster:       roster,
		Transactions: global.feed.Transactions,
		FailedOwners: failures,
		Report:       report,
	}, nil
}

func (s *RefreshService) fetchGlobal(ctx context.Context, session user.Session) (globalFetch, error) {
	var out globalFetch

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		standings, err := s.sources.League.FetchLeague(ctx, session)
		if err != nil {
			return fmt.Errorf("fetch league: %w", err)
		}
		out.standings = standings
		return nil
	})
	p.Go(func(ctx context.Context) error {
		page, err := s.sources.Catalog.FetchCatalog(ctx)
		if err != nil {
			return fmt.Errorf("fetch catalog: %w", err)
		}
		out.catalog = page
		return nil
	})
	p.Go(func(ctx context.Context) error {
		feed, err := s.sources.Board.FetchClauseBoard(ctx, session, s.cfg.BoardLimit)
		if err != nil {
			return fmt.Errorf("fetch clause board: %w", err)
		}
		out.feed = feed
		return nil
	})

	if err := p.Wait(); err != nil {
		return globalFetch{}, err
	}
	return out, nil
}

func (s *RefreshService) fetchOwners(ctx context.Context, logger *logging.Logger, session user.Session, owners []league.Owner) ([]ownerResult, error) {
	if len(owners) == 0 {
		return nil, nil
	}

	workerPool, err := ants.NewPool(min(s.cfg.OwnerWorkers, len(owners)))
	if err != nil {
		return nil, fmt.Errorf("create owner worker pool: %w", err)
	}
	defer workerPool.Release()

	results := make([]ownerResult, len(owners))
	var workers sync.WaitGroup
	for i, owner := range owners {
		i, owner := i, owner
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()
			results[i] = s.fetchOwner(ctx, logger, session, owner)
		}); err != nil {
			workers.Done()
			results[i] = ownerResult{owner: owner, err: fmt.Errorf("submit owner fetch: %w", err)}
		}
	}
	workers.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].owner.ID < results[j].owner.ID })

	// A rejected session fails every owner alike, so it aborts the cycle
	// instead of producing a snapshot with the whole league unowned.
	for _, item := range results {
		if errors.Is(item.err, ErrUnauthorized) {
			return nil, fmt.Errorf("fetch owner players owner_id=%d: %w", item.owner.ID, item.err)
		}
	}
	return results, nil
}

func (s *RefreshService) fetchOwner(ctx context.Context, logger *logging.Logger, session user.Session, owner league.Owner) ownerResult {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OwnerTimeout)
	defer cancel()

	holdings, err := s.sources.Owners.FetchOwnerPlayers(ctx, session, owner.ID)
	if err != nil {
		kind := ErrorKind(err)
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: owner fetch timed out after %s", ErrDependencyUnavailable, s.cfg.OwnerTimeout)
		}
		s.recorder.ObserveOwnerFetch(kind)
		logger.WarnContext(ctx, "owner fetch failed", "owner_id", owner.ID, "owner_name", owner.Name, "kind", kind, "error", err)
		return ownerResult{owner: owner, err: err}
	}

	s.recorder.ObserveOwnerFetch(ErrorKind(nil))
	if holdings.LoansIn > 0 {
		logger.DebugContext(ctx, "excluded incoming loans", "owner_id", owner.ID, "count", holdings.LoansIn)
	}
	return ownerResult{owner: owner, holdings: holdings}
}

func (s *RefreshService) recordReport(ctx context.Context, logger *logging.Logger, report snapshot.Report) {
	s.recorder.ObserveSkipped("owner", report.SkippedOwners)
	s.recorder.ObserveSkipped("player", report.SkippedPlayers)
	s.recorder.ObserveSkipped("ownership", report.SkippedOwnerships)
	s.recorder.ObserveSkipped("transaction", report.SkippedTransactions)
	s.recorder.ObserveSkipped("orphan_ownership", len(report.OrphanOwnerships))
	s.recorder.ObserveSkipped("duplicate_ownership", len(report.DuplicateOwnerships))

	if len(report.OrphanOwnerships) > 0 || len(report.DuplicateOwnerships) > 0 {
		logger.WarnContext(ctx, "join absorbed inconsistent ownerships",
			"orphans", report.OrphanOwnerships,
			"duplicates", report.DuplicateOwnerships,
		)
	}
}
