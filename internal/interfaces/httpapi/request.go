package httpapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/riskibarqy/clause-watch/internal/domain/player"
	"github.com/riskibarqy/clause-watch/internal/domain/roster"
	"github.com/riskibarqy/clause-watch/internal/usecase"
)

const defaultUpcomingHours = 48

type rosterFilterRequest struct {
	OwnerID   int64  `validate:"gte=0"`
	OwnerName string `validate:"omitempty,max=100"`
	Position  string `validate:"omitempty,oneof=GK DEF MID FWD"`
	TeamID    int64  `validate:"gte=0"`
}

type upcomingRequest struct {
	rosterFilterRequest
	MaxHours   float64 `validate:"gte=0,lte=8760"`
	FutureOnly bool
}

type summaryRequest struct {
	Top int `validate:"gte=0,lte=100"`
}

func (r rosterFilterRequest) toFilter() roster.Filter {
	return roster.Filter{
		OwnerID:   r.OwnerID,
		OwnerName: r.OwnerName,
		Position:  player.Position(r.Position),
		TeamID:    r.TeamID,
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func parseRosterFilter(q url.Values) (rosterFilterRequest, error) {
	ownerID, err := parseInt64Query(q, "owner_id")
	if err != nil {
		return rosterFilterRequest{}, err
	}
	teamID, err := parseInt64Query(q, "team_id")
	if err != nil {
		return rosterFilterRequest{}, err
	}
	return rosterFilterRequest{
		OwnerID:   ownerID,
		OwnerName: strings.TrimSpace(q.Get("owner")),
		Position:  strings.ToUpper(strings.TrimSpace(q.Get("position"))),
		TeamID:    teamID,
	}, nil
}

func parseUpcoming(q url.Values) (upcomingRequest, error) {
	filter, err := parseRosterFilter(q)
	if err != nil {
		return upcomingRequest{}, err
	}
	out := upcomingRequest{rosterFilterRequest: filter, MaxHours: defaultUpcomingHours}
	if raw := strings.TrimSpace(q.Get("max_hours")); raw != "" {
		out.MaxHours, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return upcomingRequest{}, fmt.Errorf("%w: max_hours must be a number", usecase.ErrInvalidInput)
		}
	}
	if raw := strings.TrimSpace(q.Get("future_only")); raw != "" {
		out.FutureOnly, err = strconv.ParseBool(raw)
		if err != nil {
			return upcomingRequest{}, fmt.Errorf("%w: future_only must be a boolean", usecase.ErrInvalidInput)
		}
	}
	return out, nil
}

func parseSummary(q url.Values) (summaryRequest, error) {
	top, err := parseInt64Query(q, "top")
	if err != nil {
		return summaryRequest{}, err
	}
	return summaryRequest{Top: int(top)}, nil
}

func parseInt64Query(q url.Values, key string) (int64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	out, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, key)
	}
	return out, nil
}
