package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("BIWENGER_EMAIL", "ana@example.com")
	t.Setenv("BIWENGER_PASSWORD", "secret")
	t.Setenv("BIWENGER_LEAGUE_ID", "1234")
	t.Setenv("BIWENGER_USER_ID", "77")
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("CACHE_BACKEND", "")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.BoardLimit != 8 || cfg.OwnerFetchWorkers != 4 || cfg.ClauseCap != 3 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg)
	}
	if cfg.OwnerFetchTimeout != 30*time.Second || cfg.RefreshTimeout != 2*time.Minute {
		t.Fatalf("unexpected timeouts: owner=%s refresh=%s", cfg.OwnerFetchTimeout, cfg.RefreshTimeout)
	}
	if cfg.ClauseWindow != 7*24*time.Hour || cfg.ClauseWindowSkew != 2*time.Hour {
		t.Fatalf("unexpected window defaults: window=%s skew=%s", cfg.ClauseWindow, cfg.ClauseWindowSkew)
	}
	if cfg.LeagueLocation == nil || cfg.LeagueLocation.String() != "Europe/Madrid" {
		t.Fatalf("unexpected league location: %v", cfg.LeagueLocation)
	}
	if cfg.CacheBackend != CacheBackendMemory {
		t.Fatalf("unexpected cache backend: %s", cfg.CacheBackend)
	}
	if cfg.BiwengerCatalogURL != "https://cf.biwenger.com/api/v2/competitions/la-liga/data?lang=es&score=2" {
		t.Fatalf("unexpected catalog url: %s", cfg.BiwengerCatalogURL)
	}
	if !cfg.ServeStale || !cfg.BiwengerCircuitEnabled {
		t.Fatalf("expected stale serving and circuit breaker on by default")
	}
}

func TestLoad_AppEnvValidation(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_RequiresCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("BIWENGER_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without BIWENGER_PASSWORD")
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non numeric league", key: "BIWENGER_LEAGUE_ID", value: "abc"},
		{name: "zero user", key: "BIWENGER_USER_ID", value: "0"},
		{name: "negative cap", key: "CLAUSE_CAP", value: "-1"},
		{name: "zero window", key: "CLAUSE_WINDOW", value: "0s"},
		{name: "negative skew", key: "CLAUSE_WINDOW_SKEW", value: "-1h"},
		{name: "unknown timezone", key: "LEAGUE_TIMEZONE", value: "Mars/Olympus"},
		{name: "bad schedule", key: "REFRESH_SCHEDULE", value: "sun@25:00"},
		{name: "zero workers", key: "OWNER_FETCH_WORKERS", value: "0"},
		{name: "zero refresh timeout", key: "REFRESH_TIMEOUT", value: "0s"},
		{name: "unknown backend", key: "CACHE_BACKEND", value: "memcached"},
		{name: "bad circuit threshold", key: "BIWENGER_CIRCUIT_FAILURE_COUNT", value: "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestLoad_RedisRequiresAddr(t *testing.T) {
	setRequired(t)
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when CACHE_BACKEND=redis without REDIS_ADDR")
	}

	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 {
		t.Fatalf("unexpected redis config: addr=%s db=%d", cfg.RedisAddr, cfg.RedisDB)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setRequired(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestParseUptraceDSNFromOTLPHeaders(t *testing.T) {
	got := parseUptraceDSNFromOTLPHeaders(`foo=bar, uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)
	if got != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected dsn: %q", got)
	}
	if parseUptraceDSNFromOTLPHeaders("foo=bar") != "" {
		t.Fatalf("expected empty dsn without uptrace header")
	}
}
