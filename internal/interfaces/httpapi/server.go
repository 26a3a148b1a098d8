package httpapi

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/riskibarqy/clause-watch/internal/platform/logging"
)

type RouterConfig struct {
	CORSAllowedOrigins []string
	InternalJobToken   string
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
	Recorder       RequestRecorder
}

func NewRouter(handler *Handler, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.MetricsHandler)
	registerDashboardRoutes(mux, handler, cfg.Recorder)
	registerInternalRoutes(mux, handler, cfg.Recorder, cfg.InternalJobToken)

	var root http.Handler = recoverPanic(logger, mux)
	root = CORS(cfg.CORSAllowedOrigins, root)
	root = RequestLogging(logger, root)
	root = chimiddleware.RealIP(root)
	root = chimiddleware.RequestID(root)
	return RequestTracing(root)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
