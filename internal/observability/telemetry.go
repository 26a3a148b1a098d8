package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/grafana/pyroscope-go"
	"github.com/uptrace/uptrace-go/uptrace"

	"github.com/riskibarqy/clause-watch/internal/config"
	"github.com/riskibarqy/clause-watch/internal/platform/logging"
)

const debugShutdownTimeout = 5 * time.Second

// Telemetry owns the process-wide exporters: OpenTelemetry via Uptrace,
// continuous profiling via Pyroscope and the local pprof listener.
// Each part is optional and a zero Telemetry shuts down cleanly.
type Telemetry struct {
	logger        *logging.Logger
	traceShutdown func(context.Context) error
	profiler      *pyroscope.Profiler
	debugServer   *http.Server
}

// StartTelemetry enables whatever cfg turns on. On error, anything already
// started is stopped before returning.
func StartTelemetry(cfg config.Config, logger *logging.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	t := &Telemetry{logger: logger.With("component", "telemetry")}

	t.startTracing(cfg)
	if err := t.startProfiling(cfg); err != nil {
		_ = t.Shutdown(context.Background())
		return nil, crerr.Wrap(err, "start pyroscope")
	}
	t.startDebugServer(cfg)

	return t, nil
}

func (t *Telemetry) startTracing(cfg config.Config) {
	switch {
	case !cfg.UptraceEnabled:
		t.logger.Info("tracing disabled", "reason", "UPTRACE_ENABLED=false")
		return
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		t.logger.Info("tracing disabled", "reason", "UPTRACE_DSN empty")
		return
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
	)
	t.traceShutdown = uptrace.Shutdown
	t.logger.Info("tracing enabled", "exporter", "uptrace", "service_version", cfg.ServiceVersion)
}

// Refreshes are dominated by network waits and JSON decoding, so the
// profile set is CPU, allocations and goroutines.
func (t *Telemetry) startProfiling(cfg config.Config) error {
	if !cfg.PyroscopeEnabled {
		t.logger.Info("profiling disabled", "reason", "PYROSCOPE_ENABLED=false")
		return nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              profileTags(cfg),
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return err
	}

	t.profiler = profiler
	t.logger.Info("profiling enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)
	return nil
}

func profileTags(cfg config.Config) map[string]string {
	tags := map[string]string{"env": cfg.AppEnv, "service": cfg.ServiceName}
	if league := strings.TrimSpace(cfg.BiwengerLeagueID); league != "" {
		tags["league"] = league
	}
	return tags
}

func (t *Telemetry) startDebugServer(cfg config.Config) {
	if !cfg.PprofEnabled {
		t.logger.Info("pprof disabled", "reason", "PPROF_ENABLED=false")
		return
	}

	t.debugServer = &http.Server{
		Addr:              cfg.PprofAddr,
		Handler:           DebugHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv := t.debugServer
	go func() {
		t.logger.Info("pprof server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !crerr.Is(err, http.ErrServerClosed) {
			t.logger.Error("pprof server failed", "error", err)
		}
	}()
}

// DebugHandler serves /debug/pprof/* and /debug/vars.
func DebugHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/debug/", http.StripPrefix("/debug", chimiddleware.Profiler()))
	return mux
}

// Shutdown stops every started part and reports all failures together.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var err error
	if t.debugServer != nil {
		debugCtx, cancel := context.WithTimeout(ctx, debugShutdownTimeout)
		err = crerr.CombineErrors(err, crerr.Wrap(t.debugServer.Shutdown(debugCtx), "stop pprof server"))
		cancel()
		t.debugServer = nil
	}
	if t.profiler != nil {
		err = crerr.CombineErrors(err, crerr.Wrap(t.profiler.Stop(), "stop pyroscope"))
		t.profiler = nil
	}
	if t.traceShutdown != nil {
		err = crerr.CombineErrors(err, crerr.Wrap(t.traceShutdown(ctx), "shutdown tracing"))
		t.traceShutdown = nil
	}
	return err
}
