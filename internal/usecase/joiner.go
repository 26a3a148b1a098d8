package usecase

import (
	"sort"

	"github.com/riskibarqy/clause-watch/internal/domain/league"
	"github.com/riskibarqy/clause-watch/internal/domain/ownership"
	"github.com/riskibarqy/clause-watch/internal/domain/player"
	"github.com/riskibarqy/clause-watch/internal/domain/roster"
)

// JoinReport lists the player ids absorbed while joining.
type JoinReport struct {
	Orphans    []int64
	Duplicates []int64
}

// JoinRoster left-joins the catalog with ownerships and owner identity.
// The result has exactly one entry per catalog player, in catalog order.
func JoinRoster(catalog []player.Player, ownerships []ownership.Ownership, owners []league.Owner) ([]roster.Entry, JoinReport) {
	var report JoinReport

	inCatalog := make(map[int64]struct{}, len(catalog))
	for _, item := range catalog {
		inCatalog[item.ID] = struct{}{}
	}

	byPlayer := make(map[int64]ownership.Ownership, len(ownerships))
	for _, item := range ownerships {
		if _, ok := inCatalog[item.PlayerID]; !ok {
			report.Orphans = append(report.Orphans, item.PlayerID)
			continue
		}
		current, seen := byPlayer[item.PlayerID]
		if !seen {
			byPlayer[item.PlayerID] = item
			continue
		}
		report.Duplicates = append(report.Duplicates, item.PlayerID)
		if ownershipWins(item, current) {
			byPlayer[item.PlayerID] = item
		}
	}

	ownerByID := league.OwnersByID(owners)
	entries := make([]roster.Entry, 0, len(catalog))
	for _, item := range catalog {
		entry := roster.Entry{Player: item}
		if held, ok := byPlayer[item.ID]; ok {
			held := held
			entry.Ownership = &held
			if owner, ok := ownerByID[held.OwnerID]; ok {
				name := owner.Name
				avatar := owner.AvatarURL
				entry.OwnerName = &name
				entry.OwnerAvatarURL = &avatar
			}
		}
		entries = append(entries, entry)
	}

	sort.Slice(report.Orphans, func(i, j int) bool { return report.Orphans[i] < report.Orphans[j] })
	sort.Slice(report.Duplicates, func(i, j int) bool { return report.Duplicates[i] < report.Duplicates[j] })
	return entries, report
}

// ownershipWins resolves two rows for the same player: the latest purchase wins,
// ties go to the lowest owner id. A known purchase date beats an unknown one.
func ownershipWins(candidate, current ownership.Ownership) bool {
	switch {
	case candidate.PurchasedAt != nil && current.PurchasedAt == nil:
		return true
	case candidate.PurchasedAt == nil && current.PurchasedAt != nil:
		return false
	case candidate.PurchasedAt != nil && current.PurchasedAt != nil && !candidate.PurchasedAt.Equal(*current.PurchasedAt):
		return candidate.PurchasedAt.After(*current.PurchasedAt)
	}
	return candidate.OwnerID < current.OwnerID
}
