package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/clause-watch/internal/platform/logging"
	"github.com/riskibarqy/clause-watch/internal/usecase"
)

const (
	apiVersion    = "2.0"
	errorDomain   = "clause-watch"
	staleWarning  = `110 - "served from the last good snapshot"`
	internalError = "internal server error"
)

// envelope follows the Google JSON style guide: data or error, never both.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Meta       *metaDTO   `json:"meta,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorRule struct {
	target     error
	httpStatus int
	reason     string
	status     string
}

// errorRules are checked in order. ErrNoSnapshot comes first because a failed
// cold start can wrap a provider error (for example a rejected login) as well.
var errorRules = []errorRule{
	{usecase.ErrNoSnapshot, http.StatusServiceUnavailable, "snapshotUnavailable", "UNAVAILABLE"},
	{usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
	{usecase.ErrNotFound, http.StatusNotFound, "notFound", "NOT_FOUND"},
	{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"},
	{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"},
}

var internalRule = errorRule{httpStatus: http.StatusInternalServerError, reason: "internalError", status: "INTERNAL"}

func mapError(err error) errorRule {
	for _, rule := range errorRules {
		if errors.Is(err, rule.target) {
			return rule
		}
	}
	return internalRule
}

// writeJSON encodes into a pooled buffer first so an encoding failure can
// still become a clean 500 instead of a truncated body.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payload); err != nil {
		logging.Default().ErrorContext(ctx, "encode response failed", "error", err)
		http.Error(w, internalError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, _ = w.Write(buf.B)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, envelope{APIVersion: apiVersion, Data: data})
}

// writeView wraps a dashboard view together with the snapshot it came from.
func writeView(ctx context.Context, w http.ResponseWriter, data any, meta usecase.Meta) {
	dto := metaToDTO(meta)
	if meta.Stale {
		w.Header().Set("Warning", staleWarning)
	}
	writeJSON(ctx, w, http.StatusOK, envelope{APIVersion: apiVersion, Data: data, Meta: &dto})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	rule := mapError(err)
	message := err.Error()
	if rule.httpStatus == http.StatusInternalServerError {
		message = internalError
	}
	writeFailure(ctx, w, rule, message)
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeFailure(ctx, w, internalRule, internalError)
}

func writeFailure(ctx context.Context, w http.ResponseWriter, rule errorRule, message string) {
	writeJSON(ctx, w, rule.httpStatus, envelope{
		APIVersion: apiVersion,
		Error: &errorBody{
			Code:    rule.httpStatus,
			Message: message,
			Status:  rule.status,
			Errors:  []errorItem{{Domain: errorDomain, Reason: rule.reason, Message: message}},
		},
	})
}
