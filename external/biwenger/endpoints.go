package biwenger

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/clause-watch/internal/domain/clause"
	"github.com/riskibarqy/clause-watch/internal/domain/league"
	"github.com/riskibarqy/clause-watch/internal/domain/ownership"
	"github.com/riskibarqy/clause-watch/internal/domain/player"
	"github.com/riskibarqy/clause-watch/internal/domain/user"
	"github.com/riskibarqy/clause-watch/internal/normalizer"
	"github.com/riskibarqy/clause-watch/internal/usecase"
)

const (
	leagueQuery     = "include=all,-lastAccess&fields=*,standings,tournaments,group,settings(description)"
	ownerFieldQuery = "fields=players(*,fitness,team,owner)"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (c *Client) Login(ctx context.Context, credentials user.Credentials) (string, error) {
	if err := credentials.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	body, err := sonic.Marshal(loginRequest{
		Email:    strings.TrimSpace(credentials.Email),
		Password: credentials.Password,
	})
	if err != nil {
		return "", fmt.Errorf("encode login request: %w", err)
	}

	var resp loginResponse
	err = c.doJSON(ctx, request{
		method: http.MethodPost,
		url:    c.baseURL + "/auth/login",
		body:   body,
		secret: credentials.Password,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	token := strings.TrimSpace(resp.Token)
	if token == "" {
		return "", fmt.Errorf("%w: login response carried no token", usecase.ErrUnauthorized)
	}
	return token, nil
}

func (c *Client) FetchLeague(ctx context.Context, session user.Session) (league.Standings, error) {
	var envelope normalizer.LeagueEnvelope
	err := c.doJSON(ctx, request{
		method:  http.MethodGet,
		url:     c.baseURL + "/league?" + leagueQuery,
		session: &session,
	}, &envelope)
	if err != nil {
		return league.Standings{}, fmt.Errorf("fetch league league_id=%s: %w", session.LeagueID, err)
	}

	item, ok := normalizer.NormalizeLeague(envelope.Data)
	if !ok {
		return league.Standings{}, fmt.Errorf("%w: league payload carried no id", usecase.ErrDependencyUnavailable)
	}
	owners, stats := normalizer.NormalizeOwners(envelope.Data.Standings)
	if stats.Skipped > 0 {
		c.logger.WarnContext(ctx, "skipped malformed or id-less standings rows", "league_id", item.ID, "skipped", stats.Skipped)
	}

	return league.Standings{
		League:  item,
		Owners:  owners,
		Skipped: stats.Skipped,
	}, nil
}

func (c *Client) FetchCatalog(ctx context.Context) (player.Page, error) {
	var envelope normalizer.CatalogEnvelope
	err := c.doJSON(ctx, request{
		method: http.MethodGet,
		url:    c.catalogURL,
	}, &envelope)
	if err != nil {
		return player.Page{}, fmt.Errorf("fetch catalog: %w", err)
	}

	players, stats := normalizer.NormalizeCatalog(envelope.Data)
	if stats.Skipped > 0 {
		c.logger.WarnContext(ctx, "skipped malformed or id-less catalog players", "skipped", stats.Skipped)
	}
	return player.Page{Players: players, Skipped: stats.Skipped}, nil
}

func (c *Client) FetchOwnerPlayers(ctx context.Context, session user.Session, ownerID int64) (ownership.Holdings, error) {
	if ownerID <= 0 {
		return ownership.Holdings{}, fmt.Errorf("%w: owner id must be greater than zero", usecase.ErrInvalidInput)
	}

	var envelope normalizer.UserEnvelope
	err := c.doJSON(ctx, request{
		method:  http.MethodGet,
		url:     c.baseURL + "/user/" + strconv.FormatInt(ownerID, 10) + "?" + ownerFieldQuery,
		session: &session,
	}, &envelope)
	if err != nil {
		return ownership.Holdings{}, fmt.Errorf("fetch owner players owner_id=%d: %w", ownerID, err)
	}

	items, stats := normalizer.NormalizeOwnerships(ownerID, envelope.Data.Players)
	return ownership.Holdings{
		OwnerID: ownerID,
		Items:   items,
		Skipped: stats.Skipped,
		LoansIn: stats.LoansIn,
	}, nil
}

func (c *Client) FetchClauseBoard(ctx context.Context, session user.Session, limit int) (clause.Feed, error) {
	if limit <= 0 {
		return clause.Feed{}, fmt.Errorf("%w: board limit must be greater than zero", usecase.ErrInvalidInput)
	}

	values := url.Values{}
	values.Set("type", "clauses")
	values.Set("limit", strconv.Itoa(limit))

	var envelope normalizer.BoardEnvelope
	err := c.doJSON(ctx, request{
		method:  http.MethodGet,
		url:     c.baseURL + "/league/" + url.PathEscape(session.LeagueID) + "/board?" + values.Encode(),
		session: &session,
	}, &envelope)
	if err != nil {
		return clause.Feed{}, fmt.Errorf("fetch clause board league_id=%s: %w", session.LeagueID, err)
	}

	transactions, stats := normalizer.NormalizeBoard(envelope.Data)
	if stats.Skipped > 0 {
		c.logger.WarnContext(ctx, "skipped malformed board items or items without player", "league_id", session.LeagueID, "skipped", stats.Skipped)
	}
	return clause.Feed{Transactions: transactions, Skipped: stats.Skipped}, nil
}
