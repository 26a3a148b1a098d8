package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/clause-watch/internal/domain/snapshot"
	"github.com/riskibarqy/clause-watch/internal/usecase"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body %q: %v", rec.Body.String(), err)
	}
	if got, _ := body["apiVersion"].(string); got != apiVersion {
		t.Fatalf("expected apiVersion=%s, got %v", apiVersion, body["apiVersion"])
	}
	return body
}

func TestWriteView_CarriesSnapshotMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	writeView(context.Background(), rec, []string{"Isco"}, usecase.Meta{
		RefreshKey:   "cycle:2025-09-13T02:05+02:00",
		FetchedAt:    time.Date(2025, 9, 13, 0, 6, 0, 0, time.UTC),
		FailedOwners: []snapshot.OwnerFailure{{OwnerID: 2, OwnerName: "Luis", Reason: "timeout"}},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Warning"); got != "" {
		t.Fatalf("fresh snapshot must not carry a warning, got %q", got)
	}
	if rec.Header().Get("Content-Length") == "" {
		t.Fatalf("expected content length from the buffered body")
	}

	body := decodeEnvelope(t, rec)
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
	meta, ok := body["meta"].(map[string]any)
	if !ok {
		t.Fatalf("expected meta object, got %v", body["meta"])
	}
	if meta["fetched_at"] != "2025-09-13T00:06:00Z" {
		t.Fatalf("unexpected fetched_at: %v", meta["fetched_at"])
	}
	if meta["partial"] != true {
		t.Fatalf("expected partial=true with a failed owner, got %v", meta["partial"])
	}
}

func TestWriteError_MapsSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		status string
		reason string
	}{
		{"invalid input", fmt.Errorf("%w: bad max_hours", usecase.ErrInvalidInput), http.StatusBadRequest, "INVALID_ARGUMENT", "invalidInput"},
		{"unauthorized", fmt.Errorf("login: %w", usecase.ErrUnauthorized), http.StatusUnauthorized, "UNAUTHENTICATED", "unauthorized"},
		{"provider down", fmt.Errorf("fetch league: %w", usecase.ErrDependencyUnavailable), http.StatusServiceUnavailable, "UNAVAILABLE", "dependencyUnavailable"},
		{"no snapshot wins over unauthorized", fmt.Errorf("%w: %w", usecase.ErrNoSnapshot, usecase.ErrUnauthorized), http.StatusServiceUnavailable, "UNAVAILABLE", "snapshotUnavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL", "internalError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(context.Background(), rec, tt.err)

			if rec.Code != tt.code {
				t.Fatalf("expected status %d, got %d", tt.code, rec.Code)
			}
			body := decodeEnvelope(t, rec)
			errorObj, ok := body["error"].(map[string]any)
			if !ok {
				t.Fatalf("expected error object in response")
			}
			if errorObj["status"] != tt.status {
				t.Fatalf("expected status %s, got %v", tt.status, errorObj["status"])
			}
			items, _ := errorObj["errors"].([]any)
			if len(items) != 1 {
				t.Fatalf("expected one error item, got %v", errorObj["errors"])
			}
			if item, _ := items[0].(map[string]any); item["reason"] != tt.reason || item["domain"] != errorDomain {
				t.Fatalf("unexpected error item: %v", item)
			}
		})
	}
}

func TestWriteError_HidesInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, errors.New("redis: connection refused at 10.0.0.3"))

	body := decodeEnvelope(t, rec)
	errorObj, _ := body["error"].(map[string]any)
	if errorObj["message"] != internalError {
		t.Fatalf("expected generic message, got %v", errorObj["message"])
	}
}

func TestWriteView_StaleSnapshotSetsWarning(t *testing.T) {
	rec := httptest.NewRecorder()
	writeView(context.Background(), rec, []string{}, usecase.Meta{RefreshKey: "cycle:previous", Stale: true})

	if got := rec.Header().Get("Warning"); got != staleWarning {
		t.Fatalf("expected stale warning header, got %q", got)
	}
	meta, _ := decodeEnvelope(t, rec)["meta"].(map[string]any)
	if meta["stale"] != true || meta["refresh_key"] != "cycle:previous" {
		t.Fatalf("unexpected meta: %v", meta)
	}
}
