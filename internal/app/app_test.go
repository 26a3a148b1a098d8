package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/clause-watch/internal/config"
	"github.com/riskibarqy/clause-watch/internal/platform/logging"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:             config.EnvDev,
		ServiceName:        "clause-watch",
		HTTPAddr:           ":0",
		ReadTimeout:        time.Second,
		WriteTimeout:       time.Second,
		CORSAllowedOrigins: []string{"*"},
		BiwengerEmail:      "ana@example.com",
		BiwengerPassword:   "secret",
		BiwengerLeagueID:   "1234",
		BiwengerUserID:     "77",
		LeagueLocation:     time.UTC,
		RefreshSchedule:    "*@02:05",
		ClauseWindow:       7 * 24 * time.Hour,
		ClauseWindowSkew:   2 * time.Hour,
		ClauseCap:          3,
		CacheBackend:       config.CacheBackendMemory,
		CacheTTL:           time.Hour,
		MetricsEnabled:     true,
	}
}

func TestBuild_MemoryBackendServesMetrics(t *testing.T) {
	t.Parallel()

	rt, err := Build(context.Background(), testConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.Close()

	if rt.Dashboard == nil || rt.Refresh == nil || rt.Metrics == nil {
		t.Fatalf("expected wired runtime, got %+v", rt)
	}

	srv, err := NewHTTPServer(rt)
	if err != nil {
		t.Fatalf("build server: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics 200, got %d", rec.Code)
	}
}

func TestBuild_RejectsInvalidSchedule(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RefreshSchedule = "someday@02:05"
	if _, err := Build(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected schedule error")
	}
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.HTTPAddr = ""
	cfg.MetricsEnabled = false
	rt, err := Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	if _, err := NewHTTPServer(rt); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
