package usecase

import (
	"sort"

	"github.com/riskibarqy/clause-watch/internal/domain/roster"
)

const DefaultTopPlayers = 10

type OwnerValue struct {
	OwnerID    int64
	OwnerName  string
	TotalValue int64
	Players    int
}

type TeamValue struct {
	TeamID     int64
	TeamName   string
	TotalValue int64
	Players    int
}

// Summary aggregates market value over owned players.
type Summary struct {
	ValueByOwner   []OwnerValue
	ValueByTeam    []TeamValue
	TopPlayers     []roster.Entry
	MostExpensive  *roster.Entry
	LeastExpensive *roster.Entry
	TotalPlayers   int
	TotalOwners    int
	CatalogPlayers int
}

// Summarize builds the summary view. Free agents only count towards CatalogPlayers.
func Summarize(entries []roster.Entry, topN int) Summary {
	if topN <= 0 {
		topN = DefaultTopPlayers
	}

	owned := make([]roster.Entry, 0, len(entries))
	for _, item := range entries {
		if item.IsOwned() {
			owned = append(owned, item)
		}
	}

	out := Summary{
		TotalPlayers:   len(owned),
		CatalogPlayers: len(entries),
	}

	byOwner := make(map[int64]*OwnerValue)
	byTeam := make(map[int64]*TeamValue)
	for _, item := range owned {
		ownerID, _ := item.OwnerID()
		ov, ok := byOwner[ownerID]
		if !ok {
			ov = &OwnerValue{OwnerID: ownerID}
			if item.OwnerName != nil {
				ov.OwnerName = *item.OwnerName
			}
			byOwner[ownerID] = ov
		}
		ov.TotalValue += item.Player.MarketValue
		ov.Players++

		var teamID int64
		if item.Player.TeamID != nil {
			teamID = *item.Player.TeamID
		}
		tv, ok := byTeam[teamID]
		if !ok {
			tv = &TeamValue{TeamID: teamID}
			if item.Player.Team != nil {
				tv.TeamName = item.Player.Team.Name
			}
			byTeam[teamID] = tv
		}
		tv.TotalValue += item.Player.MarketValue
		tv.Players++
	}

	for _, ov := range byOwner {
		out.ValueByOwner = append(out.ValueByOwner, *ov)
	}
	sort.Slice(out.ValueByOwner, func(i, j int) bool {
		if out.ValueByOwner[i].TotalValue != out.ValueByOwner[j].TotalValue {
			return out.ValueByOwner[i].TotalValue > out.ValueByOwner[j].TotalValue
		}
		return out.ValueByOwner[i].OwnerID < out.ValueByOwner[j].OwnerID
	})
	for _, tv := range byTeam {
		out.ValueByTeam = append(out.ValueByTeam, *tv)
	}
	sort.Slice(out.ValueByTeam, func(i, j int) bool {
		if out.ValueByTeam[i].TotalValue != out.ValueByTeam[j].TotalValue {
			return out.ValueByTeam[i].TotalValue > out.ValueByTeam[j].TotalValue
		}
		return out.ValueByTeam[i].TeamID < out.ValueByTeam[j].TeamID
	})
	out.TotalOwners = len(byOwner)

	ranked := append([]roster.Entry(nil), owned...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Player.MarketValue != ranked[j].Player.MarketValue {
			return ranked[i].Player.MarketValue > ranked[j].Player.MarketValue
		}
		return ranked[i].Player.ID < ranked[j].Player.ID
	})
	if len(ranked) > 0 {
		most := ranked[0]
		least := ranked[len(ranked)-1]
		out.MostExpensive = &most
		out.LeastExpensive = &least
	}
	out.TopPlayers = ranked[:min(topN, len(ranked))]
	return out
}
