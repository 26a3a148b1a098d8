package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
}

func registerDashboardRoutes(mux *http.ServeMux, handler *Handler, recorder RequestRecorder) {
	routes := []struct {
		path string
		fn   http.HandlerFunc
	}{
		{"/v1/league", handler.GetLeague},
		{"/v1/owners", handler.ListOwners},
		{"/v1/players", handler.ListPlayers},
		{"/v1/clauses/upcoming", handler.ListUpcomingClauses},
		{"/v1/clauses/unlocked", handler.ListUnlockedClauses},
		{"/v1/clauses/opened-today", handler.ListClausesOpenedToday},
		{"/v1/clauses/executed", handler.ListExecutedClauses},
		{"/v1/transactions", handler.ListTransactions},
		{"/v1/summary", handler.GetSummary},
		{"/v1/refresh-keys", handler.GetRefreshKeys},
	}
	for _, route := range routes {
		mux.Handle("GET "+route.path, Instrument(recorder, route.path, route.fn))
	}
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, recorder RequestRecorder, internalJobToken string) {
	const path = "/v1/internal/refresh"
	mux.Handle("POST "+path, Instrument(recorder, path, RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ForceRefresh))))
}
