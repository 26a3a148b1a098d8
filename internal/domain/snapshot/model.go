package snapshot

import (
	"time"

	"github.com/riskibarqy/clause-watch/internal/domain/clause"
	"github.com/riskibarqy/clause-watch/internal/domain/league"
	"github.com/riskibarqy/clause-watch/internal/domain/roster"
)

// OwnerFailure marks an owner whose players could not be fetched this cycle.
// Their players appear unowned in the roster; the marker keeps that explicit.
type OwnerFailure struct {
	OwnerID   int64
	OwnerName string
	Reason    string
}

// Report counts records absorbed by normalization and joining.
type Report struct {
	SkippedOwners       int
	SkippedPlayers      int
	SkippedOwnerships   int
	SkippedTransactions int
	OrphanOwnerships    []int64
	DuplicateOwnerships []int64
}

// Snapshot is the immutable outcome of one refresh cycle.
type Snapshot struct {
	RefreshKey   string
	FetchedAt    time.Time
	League       league.League
	Owners       []league.Owner
	Roster       []roster.Entry
	Transactions []clause.Transaction
	FailedOwners []OwnerFailure
	Report       Report
}

func (s Snapshot) IsPartial() bool {
	return len(s.FailedOwners) > 0
}
