package httpapi

import (
	"time"

	"github.com/riskibarqy/clause-watch/internal/domain/clause"
	"github.com/riskibarqy/clause-watch/internal/domain/league"
	"github.com/riskibarqy/clause-watch/internal/domain/roster"
	"github.com/riskibarqy/clause-watch/internal/platform/refreshkey"
	"github.com/riskibarqy/clause-watch/internal/usecase"
)

type metaDTO struct {
	RefreshKey   string            `json:"refresh_key"`
	FetchedAt    string            `json:"fetched_at"`
	Stale        bool              `json:"stale"`
	Partial      bool              `json:"partial"`
	FailedOwners []failedOwnerDTO  `json:"failed_owners,omitempty"`
	Report       snapshotReportDTO `json:"report"`
}

type failedOwnerDTO struct {
	OwnerID   int64  `json:"owner_id"`
	OwnerName string `json:"owner_name"`
	Reason    string `json:"reason"`
}

type snapshotReportDTO struct {
	SkippedOwners       int     `json:"skipped_owners"`
	SkippedPlayers      int     `json:"skipped_players"`
	SkippedOwnerships   int     `json:"skipped_ownerships"`
	SkippedTransactions int     `json:"skipped_transactions"`
	OrphanOwnerships    []int64 `json:"orphan_ownerships,omitempty"`
	DuplicateOwnerships []int64 `json:"duplicate_ownerships,omitempty"`
}

type leagueDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type,omitempty"`
	Mode        string  `json:"mode,omitempty"`
	Competition string  `json:"competition,omitempty"`
	IconURL     *string `json:"icon_url"`
	CoverURL    *string `json:"cover_url"`
	CreatedAt   *string `json:"created_at"`
	Description string  `json:"description,omitempty"`
}

type ownerDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	AvatarURL      string `json:"avatar_url"`
	Rank           int    `json:"rank"`
	Points         int64  `json:"points"`
	TeamValue      int64  `json:"team_value"`
	TeamValueDelta int64  `json:"team_value_delta"`
	TeamSize       int    `json:"team_size"`
	Role           string `json:"role,omitempty"`
}

type rosterEntryDTO struct {
	PlayerID         int64    `json:"player_id"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug,omitempty"`
	Position         *string  `json:"position"`
	TeamID           *int64   `json:"team_id"`
	TeamName         *string  `json:"team_name"`
	Points           int64    `json:"points"`
	MarketValue      int64    `json:"market_value"`
	MarketValueDelta int64    `json:"market_value_delta"`
	ImageURL         string   `json:"image_url"`
	OwnerID          *int64   `json:"owner_id"`
	OwnerName        *string  `json:"owner_name"`
	OwnerAvatarURL   *string  `json:"owner_avatar_url"`
	ClauseValue      *int64   `json:"clause_value"`
	ClauseUnlockAt   *string  `json:"clause_unlock_at"`
	HoursRemaining   *float64 `json:"hours_remaining"`
	PurchasePrice    *int64   `json:"purchase_price"`
	PurchasedAt      *string  `json:"purchased_at"`
	LoanedTo         *string  `json:"loaned_to"`
}

type partyDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	IconURL string `json:"icon_url,omitempty"`
}

type transactionDTO struct {
	PlayerID   int64     `json:"player_id"`
	From       *partyDTO `json:"from"`
	To         *partyDTO `json:"to"`
	Amount     *int64    `json:"amount"`
	Type       string    `json:"type"`
	EntryType  string    `json:"entry_type"`
	EntryTitle string    `json:"entry_title,omitempty"`
	EntryDate  *string   `json:"entry_date"`
	Fixed      bool      `json:"fixed"`
	AuthorID   *int64    `json:"author_id"`
}

type executedCountDTO struct {
	OwnerID   int64  `json:"owner_id"`
	OwnerName string `json:"owner_name"`
	Count     int    `json:"count"`
	Displayed int    `json:"displayed"`
	Remaining int    `json:"remaining"`
}

type ownerValueDTO struct {
	OwnerID    int64  `json:"owner_id"`
	OwnerName  string `json:"owner_name"`
	TotalValue int64  `json:"total_value"`
	Players    int    `json:"players"`
}

type teamValueDTO struct {
	TeamID     int64  `json:"team_id"`
	TeamName   string `json:"team_name"`
	TotalValue int64  `json:"total_value"`
	Players    int    `json:"players"`
}

type summaryDTO struct {
	ValueByOwner   []ownerValueDTO  `json:"value_by_owner"`
	ValueByTeam    []teamValueDTO   `json:"value_by_team"`
	TopPlayers     []rosterEntryDTO `json:"top_players"`
	MostExpensive  *rosterEntryDTO  `json:"most_expensive"`
	LeastExpensive *rosterEntryDTO  `json:"least_expensive"`
	TotalPlayers   int              `json:"total_players"`
	TotalOwners    int              `json:"total_owners"`
	CatalogPlayers int              `json:"catalog_players"`
}

type refreshKeysDTO struct {
	Cycle      string `json:"cycle"`
	CycleStart string `json:"cycle_start"`
	Daily      string `json:"daily"`
}

type refreshResultDTO struct {
	RefreshKey   string `json:"refresh_key"`
	Players      int    `json:"players"`
	Owners       int    `json:"owners"`
	Transactions int    `json:"transactions"`
	FailedOwners int    `json:"failed_owners"`
}

func metaToDTO(meta usecase.Meta) metaDTO {
	out := metaDTO{
		RefreshKey: meta.RefreshKey,
		FetchedAt:  formatTime(meta.FetchedAt),
		Stale:      meta.Stale,
		Partial:    len(meta.FailedOwners) > 0,
		Report: snapshotReportDTO{
			SkippedOwners:       meta.Report.SkippedOwners,
			SkippedPlayers:      meta.Report.SkippedPlayers,
			SkippedOwnerships:   meta.Report.SkippedOwnerships,
			SkippedTransactions: meta.Report.SkippedTransactions,
			OrphanOwnerships:    meta.Report.OrphanOwnerships,
			DuplicateOwnerships: meta.Report.DuplicateOwnerships,
		},
	}
	for _, failure := range meta.FailedOwners {
		out.FailedOwners = append(out.FailedOwners, failedOwnerDTO{
			OwnerID:   failure.OwnerID,
			OwnerName: failure.OwnerName,
			Reason:    failure.Reason,
		})
	}
	return out
}

func leagueToDTO(v league.League) leagueDTO {
	return leagueDTO{
		ID:          v.ID,
		Name:        v.Name,
		Type:        v.Type,
		Mode:        v.Mode,
		Competition: v.Competition,
		IconURL:     v.IconURL,
		CoverURL:    v.CoverURL,
		CreatedAt:   formatOptionalTime(v.CreatedAt),
		Description: v.Description,
	}
}

func ownerToDTO(v league.Owner) ownerDTO {
	return ownerDTO{
		ID:             v.ID,
		Name:           v.Name,
		AvatarURL:      v.AvatarURL,
		Rank:           v.Rank,
		Points:         v.Points,
		TeamValue:      v.TeamValue,
		TeamValueDelta: v.TeamValueDelta,
		TeamSize:       v.TeamSize,
		Role:           v.Role,
	}
}

func entryToDTO(v roster.Entry) rosterEntryDTO {
	p := v.Player
	out := rosterEntryDTO{
		PlayerID:         p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		TeamID:           p.TeamID,
		Points:           p.Points,
		MarketValue:      p.MarketValue,
		MarketValueDelta: p.MarketValueDelta,
		ImageURL:         p.ImageURL,
		OwnerName:        v.OwnerName,
		OwnerAvatarURL:   v.OwnerAvatarURL,
		HoursRemaining:   v.HoursRemaining,
	}
	if p.Position != nil {
		pos := string(*p.Position)
		out.Position = &pos
	}
	if p.Team != nil {
		name := p.Team.Name
		out.TeamName = &name
	}
	if o := v.Ownership; o != nil {
		ownerID, clauseValue, price := o.OwnerID, o.ClauseValue, o.PurchasePrice
		out.OwnerID = &ownerID
		out.ClauseValue = &clauseValue
		out.PurchasePrice = &price
		out.ClauseUnlockAt = formatOptionalTime(o.ClauseUnlockAt)
		out.PurchasedAt = formatOptionalTime(o.PurchasedAt)
		out.LoanedTo = o.LoanedTo
	}
	return out
}

func entriesToDTO(items []roster.Entry) []rosterEntryDTO {
	out := make([]rosterEntryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, entryToDTO(item))
	}
	return out
}

func partyToDTO(v *clause.Party) *partyDTO {
	if v == nil {
		return nil
	}
	return &partyDTO{ID: v.ID, Name: v.Name, IconURL: v.IconURL}
}

func transactionToDTO(v clause.Transaction) transactionDTO {
	return transactionDTO{
		PlayerID:   v.PlayerID,
		From:       partyToDTO(v.From),
		To:         partyToDTO(v.To),
		Amount:     v.Amount,
		Type:       v.Type,
		EntryType:  v.EntryType,
		EntryTitle: v.EntryTitle,
		EntryDate:  formatOptionalTime(v.EntryDate),
		Fixed:      v.EntryFixed,
		AuthorID:   v.EntryAuthorID,
	}
}

func executedToDTO(v usecase.ExecutedCount) executedCountDTO {
	return executedCountDTO{
		OwnerID:   v.OwnerID,
		OwnerName: v.OwnerName,
		Count:     v.Count,
		Displayed: v.Displayed,
		Remaining: v.Remaining,
	}
}

func summaryToDTO(v usecase.Summary) summaryDTO {
	out := summaryDTO{
		ValueByOwner:   make([]ownerValueDTO, 0, len(v.ValueByOwner)),
		ValueByTeam:    make([]teamValueDTO, 0, len(v.ValueByTeam)),
		TopPlayers:     entriesToDTO(v.TopPlayers),
		TotalPlayers:   v.TotalPlayers,
		TotalOwners:    v.TotalOwners,
		CatalogPlayers: v.CatalogPlayers,
	}
	for _, item := range v.ValueByOwner {
		out.ValueByOwner = append(out.ValueByOwner, ownerValueDTO(item))
	}
	for _, item := range v.ValueByTeam {
		out.ValueByTeam = append(out.ValueByTeam, teamValueDTO(item))
	}
	if v.MostExpensive != nil {
		dto := entryToDTO(*v.MostExpensive)
		out.MostExpensive = &dto
	}
	if v.LeastExpensive != nil {
		dto := entryToDTO(*v.LeastExpensive)
		out.LeastExpensive = &dto
	}
	return out
}

func refreshKeysToDTO(v refreshkey.Keys) refreshKeysDTO {
	return refreshKeysDTO{
		Cycle:      v.Cycle,
		CycleStart: formatTime(v.CycleStart),
		Daily:      v.Daily,
	}
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func formatOptionalTime(v *time.Time) *string {
	if v == nil {
		return nil
	}
	out := formatTime(*v)
	return &out
}
