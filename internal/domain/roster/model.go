package roster

import (
	"github.com/riskibarqy/clause-watch/internal/domain/ownership"
	"github.com/riskibarqy/clause-watch/internal/domain/player"
)

// Entry is the unified player-ownership row: one per catalog player.
// Ownership and owner identity are nil for unowned players.
type Entry struct {
	Player         player.Player
	Ownership      *ownership.Ownership
	OwnerName      *string
	OwnerAvatarURL *string
	HoursRemaining *float64
}

func (e Entry) IsOwned() bool {
	return e.Ownership != nil
}

// OwnerID returns the owning member id when the player is owned.
func (e Entry) OwnerID() (int64, bool) {
	if e.Ownership == nil {
		return 0, false
	}
	return e.Ownership.OwnerID, true
}

// Filter is a pure selection over already-derived fields. Zero values match everything.
type Filter struct {
	OwnerID   int64
	OwnerName string
	Position  player.Position
	TeamID    int64
}

func (f Filter) Match(e Entry) bool {
	if f.OwnerID > 0 {
		id, ok := e.OwnerID()
		if !ok || id != f.OwnerID {
			return false
		}
	}
	if f.OwnerName != "" {
		if e.OwnerName == nil || *e.OwnerName != f.OwnerName {
			return false
		}
	}
	if f.Position != "" {
		if e.Player.Position == nil || *e.Player.Position != f.Position {
			return false
		}
	}
	if f.TeamID > 0 {
		if e.Player.TeamID == nil || *e.Player.TeamID != f.TeamID {
			return false
		}
	}
	return true
}

// Select returns the entries matching the filter, preserving input order.
func Select(entries []Entry, filter Filter) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, item := range entries {
		if filter.Match(item) {
			out = append(out, item)
		}
	}
	return out
}
