package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/clause-watch/external/biwenger"
	"github.com/riskibarqy/clause-watch/internal/config"
	"github.com/riskibarqy/clause-watch/internal/domain/snapshot"
	"github.com/riskibarqy/clause-watch/internal/domain/user"
	"github.com/riskibarqy/clause-watch/internal/infrastructure/repository/memory"
	redisrepo "github.com/riskibarqy/clause-watch/internal/infrastructure/repository/redis"
	"github.com/riskibarqy/clause-watch/internal/interfaces/httpapi"
	"github.com/riskibarqy/clause-watch/internal/observability"
	"github.com/riskibarqy/clause-watch/internal/platform/cache"
	"github.com/riskibarqy/clause-watch/internal/platform/logging"
	"github.com/riskibarqy/clause-watch/internal/platform/refreshkey"
	"github.com/riskibarqy/clause-watch/internal/platform/resilience"
	"github.com/riskibarqy/clause-watch/internal/usecase"
)

const redisPingTimeout = 3 * time.Second

// Runtime is the wired object graph shared by the API server and the CLI.
type Runtime struct {
	Config    config.Config
	Logger    *logging.Logger
	Refresh   *usecase.RefreshService
	Dashboard *usecase.DashboardService
	Metrics   *observability.Metrics
	Registry  *prometheus.Registry

	closers []func() error
}

// Build wires the Biwenger client, snapshot cache and services from cfg.
func Build(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}

	schedule, err := refreshkey.Parse(cfg.RefreshSchedule, cfg.LeagueLocation, refreshkey.DefaultDaySkew)
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule: %w", err)
	}

	rt := &Runtime{Config: cfg, Logger: logger}

	if cfg.MetricsEnabled {
		rt.Registry = prometheus.NewRegistry()
		rt.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rt.Metrics = observability.NewMetrics(rt.Registry)
	}

	client := biwenger.NewClient(biwenger.ClientConfig{
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		BaseURL:    cfg.BiwengerBaseURL,
		CatalogURL: cfg.BiwengerCatalogURL,
		Timeout:    cfg.BiwengerTimeout,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.BiwengerCircuitEnabled,
			FailureThreshold: cfg.BiwengerCircuitFailureCount,
			OpenTimeout:      cfg.BiwengerCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.BiwengerCircuitHalfOpenMaxReq,
		},
	})

	repo, err := rt.newSnapshotRepository(ctx)
	if err != nil {
		return nil, err
	}

	var recorder usecase.RefreshRecorder
	if rt.Metrics != nil {
		recorder = rt.Metrics
	}

	rt.Refresh = usecase.NewRefreshService(usecase.RefreshSources{
		Auth:    client,
		League:  client,
		Catalog: client,
		Owners:  client,
		Board:   client,
	}, usecase.RefreshConfig{
		Credentials:  user.Credentials{Email: cfg.BiwengerEmail, Password: cfg.BiwengerPassword},
		LeagueID:     cfg.BiwengerLeagueID,
		UserID:       cfg.BiwengerUserID,
		BoardLimit:   cfg.BoardLimit,
		OwnerWorkers: cfg.OwnerFetchWorkers,
		OwnerTimeout: cfg.OwnerFetchTimeout,
	}, recorder, logger)

	rt.Dashboard = usecase.NewDashboardService(rt.Refresh, repo, usecase.DashboardConfig{
		Schedule: schedule,
		Window: usecase.WindowPolicy{
			Length: cfg.ClauseWindow,
			Skew:   cfg.ClauseWindowSkew,
			Cap:    cfg.ClauseCap,
		},
		CacheTTL:       cfg.CacheTTL,
		ServeStale:     cfg.ServeStale,
		RefreshTimeout: cfg.RefreshTimeout,
	}, logger)

	return rt, nil
}

func (rt *Runtime) newSnapshotRepository(ctx context.Context) (snapshot.Repository, error) {
	cfg := rt.Config
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis addr=%s: %w", cfg.RedisAddr, err)
		}
		rt.closers = append(rt.closers, client.Close)
		rt.Logger.Info("snapshot cache ready", "backend", config.CacheBackendRedis, "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return redisrepo.NewSnapshotRepository(client, ""), nil
	default:
		rt.Logger.Info("snapshot cache ready", "backend", config.CacheBackendMemory)
		return memory.NewSnapshotRepository(cache.NewStore(cfg.CacheTTL)), nil
	}
}

// Close releases backing connections.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// NewHTTPServer builds the API server on top of a wired runtime.
func NewHTTPServer(rt *Runtime) (*http.Server, error) {
	cfg := rt.Config

	routerCfg := httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	}
	if rt.Metrics != nil {
		routerCfg.MetricsHandler = observability.NewMetricsHandler(rt.Registry)
		routerCfg.Recorder = rt.Metrics
	}

	handler := httpapi.NewHandler(rt.Dashboard, rt.Logger)
	router := httpapi.NewRouter(handler, rt.Logger, routerCfg)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
