package usecase

import (
	"time"

	"github.com/riskibarqy/clause-watch/internal/domain/clause"
	"github.com/riskibarqy/clause-watch/internal/domain/league"
	"github.com/riskibarqy/clause-watch/internal/domain/roster"
)

const (
	DefaultClauseWindow     = 7 * 24 * time.Hour
	DefaultClauseWindowSkew = 2 * time.Hour
	DefaultClauseCap        = 3
)

// HoursRemaining is the fractional number of hours from now until unlock.
// Already-unlocked clauses yield negative values; a nil unlock yields nil.
func HoursRemaining(unlock *time.Time, now time.Time) *float64 {
	if unlock == nil {
		return nil
	}
	hours := unlock.Sub(now).Hours()
	return &hours
}

// ApplyHoursRemaining returns a copy of entries with HoursRemaining derived against now.
func ApplyHoursRemaining(entries []roster.Entry, now time.Time) []roster.Entry {
	out := make([]roster.Entry, len(entries))
	for i, item := range entries {
		item.HoursRemaining = nil
		if item.Ownership != nil {
			item.HoursRemaining = HoursRemaining(item.Ownership.ClauseUnlockAt, now)
		}
		out[i] = item
	}
	return out
}

// HoursFilter selects entries by hours remaining. MaxHours is an inclusive upper bound.
type HoursFilter struct {
	MaxHours   float64
	FutureOnly bool
}

// FilterByMaxHours keeps entries whose HoursRemaining is set and at most MaxHours.
// Negative values pass unless FutureOnly is set.
func FilterByMaxHours(entries []roster.Entry, filter HoursFilter) []roster.Entry {
	out := make([]roster.Entry, 0, len(entries))
	for _, item := range entries {
		if item.HoursRemaining == nil {
			continue
		}
		hours := *item.HoursRemaining
		if hours > filter.MaxHours {
			continue
		}
		if filter.FutureOnly && hours < 0 {
			continue
		}
		out = append(out, item)
	}
	return out
}

// OpenedToday keeps entries whose clause unlock falls on the same calendar date
// as now in loc. It does not look at HoursRemaining.
func OpenedToday(entries []roster.Entry, now time.Time, loc *time.Location) []roster.Entry {
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc)
	out := make([]roster.Entry, 0)
	for _, item := range entries {
		if item.Ownership == nil || item.Ownership.ClauseUnlockAt == nil {
			continue
		}
		if sameDate(item.Ownership.ClauseUnlockAt.In(loc), today) {
			out = append(out, item)
		}
	}
	return out
}

// UnlockedAlready keeps entries whose clause unlock is strictly before now.
func UnlockedAlready(entries []roster.Entry, now time.Time) []roster.Entry {
	out := make([]roster.Entry, 0)
	for _, item := range entries {
		if item.Ownership == nil || item.Ownership.ClauseUnlockAt == nil {
			continue
		}
		if item.Ownership.ClauseUnlockAt.Before(now) {
			out = append(out, item)
		}
	}
	return out
}

// WindowPolicy configures the trailing-window clause count.
type WindowPolicy struct {
	Length time.Duration
	Skew   time.Duration
	Cap    int
}

func DefaultWindowPolicy() WindowPolicy {
	return WindowPolicy{
		Length: DefaultClauseWindow,
		Skew:   DefaultClauseWindowSkew,
		Cap:    DefaultClauseCap,
	}
}

func (p WindowPolicy) normalized() WindowPolicy {
	defaults := DefaultWindowPolicy()
	if p.Length <= 0 {
		p.Length = defaults.Length
	}
	if p.Skew < 0 {
		p.Skew = 0
	}
	if p.Cap <= 0 {
		p.Cap = defaults.Cap
	}
	return p
}

// Bounds returns the inclusive [start, end] window for now.
func (p WindowPolicy) Bounds(now time.Time) (time.Time, time.Time) {
	p = p.normalized()
	end := now.Add(-p.Skew)
	return end.Add(-p.Length), end
}

// ExecutedCount is one owner's clause executions suffered inside the window.
type ExecutedCount struct {
	OwnerID   int64
	OwnerName string
	Count     int
	Displayed int
	Remaining int
}

// ExecutedCounts counts transactions per source owner inside the trailing window.
// Every owner appears, including owners with no transactions.
func ExecutedCounts(owners []league.Owner, transactions []clause.Transaction, now time.Time, policy WindowPolicy) []ExecutedCount {
	policy = policy.normalized()
	start, end := policy.Bounds(now)

	counts := make(map[int64]int, len(owners))
	for _, item := range transactions {
		ownerID, ok := item.SourceOwnerID()
		if !ok || item.EntryDate == nil {
			continue
		}
		if item.EntryDate.Before(start) || item.EntryDate.After(end) {
			continue
		}
		counts[ownerID]++
	}

	out := make([]ExecutedCount, 0, len(owners))
	for _, owner := range owners {
		count := counts[owner.ID]
		displayed := min(count, policy.Cap)
		out = append(out, ExecutedCount{
			OwnerID:   owner.ID,
			OwnerName: owner.Name,
			Count:     count,
			Displayed: displayed,
			Remaining: max(policy.Cap-displayed, 0),
		})
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
