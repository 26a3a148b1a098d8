package biwenger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"

	"github.com/riskibarqy/clause-watch/internal/domain/user"
	"github.com/riskibarqy/clause-watch/internal/platform/logging"
	"github.com/riskibarqy/clause-watch/internal/platform/resilience"
	"github.com/riskibarqy/clause-watch/internal/usecase"
)

const (
	defaultBaseURL    = "https://biwenger.as.com/api/v2"
	defaultCatalogURL = "https://cf.biwenger.com/api/v2/competitions/la-liga/data?lang=es&score=2"
	defaultTimeout    = 20 * time.Second
	maxResponseBytes  = 16 << 20

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"
	browserAccept    = "application/json, text/javascript, */*; q=0.01"
	browserLanguage  = "es-ES,es;q=0.9"
	siteOrigin       = "https://biwenger.as.com"
)

var errBiwengerTransient = crerr.New("biwenger transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	CatalogURL     string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the Biwenger web API. It implements the league, catalog,
// ownership, board and authenticator ports.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	catalogURL     string
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	catalogURL := strings.TrimSpace(cfg.CatalogURL)
	if catalogURL == "" {
		catalogURL = defaultCatalogURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		catalogURL:     catalogURL,
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type request struct {
	method  string
	url     string
	session *user.Session
	body    []byte
	// secret is scrubbed from any error text.
	secret string
}

func (c *Client) doJSON(ctx context.Context, req request, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "biwenger circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: biwenger is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	call := func(callCtx context.Context) (any, error) {
		raw, reqErr := c.executeRequest(callCtx, req)
		if c.circuitEnabled {
			if isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	}

	var (
		out any
		err error
	)
	if req.method == http.MethodGet {
		out, err = c.sharedGet(ctx, req, call)
	} else {
		out, err = call(ctx)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return classify(err, req)
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("%w: unexpected response payload type %T", usecase.ErrDependencyUnavailable, out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode biwenger payload: %v", usecase.ErrDependencyUnavailable, err)
	}
	return nil
}

// sharedGet collapses identical in-flight GETs. The request runs detached from
// the caller that started it, bounded by the client timeout, so one caller
// giving up does not fail the others waiting on the same response.
func (c *Client) sharedGet(ctx context.Context, req request, call func(context.Context) (any, error)) (any, error) {
	results := c.flight.DoChan(flightKey(req), func() (any, error) {
		return call(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		return res.Val, res.Err
	}
}

func (c *Client) executeRequest(ctx context.Context, req request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	setBrowserHeaders(httpReq.Header)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.session != nil {
		setSessionHeaders(httpReq.Header, *req.session)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		reqErr := crerr.Mark(crerr.Wrap(err, "send request"), errBiwengerTransient)
		c.logger.WarnContext(ctx, "biwenger request failed", "method", req.method, "url", redactURL(req.url), "error", reqErr)
		return nil, reqErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "read response body"), errBiwengerTransient)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &statusError{code: resp.StatusCode, body: abbreviateBody(raw)}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		statusErr := crerr.Mark(&statusError{code: resp.StatusCode, body: abbreviateBody(raw)}, errBiwengerTransient)
		c.logger.WarnContext(ctx, "biwenger request failed", "method", req.method, "url", redactURL(req.url), "status", resp.StatusCode)
		return nil, statusErr
	default:
		return nil, &statusError{code: resp.StatusCode, body: abbreviateBody(raw)}
	}
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider status=%d body=%s", e.code, e.body)
}

// classify maps transport errors onto usecase sentinels.
func classify(err error, req request) error {
	if err == nil {
		return nil
	}
	message := sanitize(err.Error(), req.secret, req.session)
	var statusErr *statusError
	if crerr.As(err, &statusErr) && (statusErr.code == http.StatusUnauthorized || statusErr.code == http.StatusForbidden) {
		return fmt.Errorf("%w: %s", usecase.ErrUnauthorized, message)
	}
	return fmt.Errorf("%w: %s", usecase.ErrDependencyUnavailable, message)
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return crerr.Is(err, errBiwengerTransient)
}

func setBrowserHeaders(h http.Header) {
	h.Set("User-Agent", browserUserAgent)
	h.Set("Accept", browserAccept)
	h.Set("Accept-Language", browserLanguage)
	h.Set("Referer", siteOrigin+"/")
	h.Set("Origin", siteOrigin)
}

func setSessionHeaders(h http.Header, session user.Session) {
	if session.Token != "" {
		h.Set("Authorization", "Bearer "+session.Token)
	}
	if session.LeagueID != "" {
		h.Set("X-League", session.LeagueID)
	}
	if session.UserID != "" {
		h.Set("X-User", session.UserID)
	}
}

func flightKey(req request) string {
	if req.session == nil {
		return req.method + " " + req.url
	}
	return req.method + " " + req.url + "|" + req.session.LeagueID + "|" + req.session.UserID
}

func sanitize(value, secret string, session *user.Session) string {
	value = strings.TrimSpace(value)
	if secret != "" {
		value = strings.ReplaceAll(value, secret, "REDACTED")
	}
	if session != nil && session.Token != "" {
		value = strings.ReplaceAll(value, session.Token, "REDACTED")
	}
	return value
}

func redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.User = nil
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
