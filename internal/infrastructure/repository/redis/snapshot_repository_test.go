package redis

import (
	"reflect"
	"testing"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/clause-watch/internal/domain/clause"
	"github.com/riskibarqy/clause-watch/internal/domain/league"
	"github.com/riskibarqy/clause-watch/internal/domain/ownership"
	"github.com/riskibarqy/clause-watch/internal/domain/player"
	"github.com/riskibarqy/clause-watch/internal/domain/roster"
	"github.com/riskibarqy/clause-watch/internal/domain/snapshot"
)

func TestSnapshotCodec_PreservesNullableFields(t *testing.T) {
	t.Parallel()

	unlock := time.Date(2025, 9, 14, 10, 0, 0, 0, time.UTC)
	teamID := int64(7)
	pos := player.PositionForward
	owner := "Ana"
	hours := 22.0
	amount := int64(9000000)

	want := snapshot.Snapshot{
		RefreshKey: "cycle:2025-09-13T02:05Z",
		FetchedAt:  time.Date(2025, 9, 13, 12, 0, 0, 0, time.UTC),
		League:     league.League{ID: 1234, Name: "Liga"},
		Owners:     []league.Owner{{ID: 1, Name: owner, AvatarURL: "https://cdn.biwenger.com/img/user.svg"}},
		Roster: []roster.Entry{
			{
				Player:         player.Player{ID: 10, TeamID: &teamID, Team: &player.Team{ID: 7, Name: "Betis"}, Position: &pos},
				Ownership:      &ownership.Ownership{PlayerID: 10, OwnerID: 1, ClauseValue: 50000, ClauseUnlockAt: &unlock},
				OwnerName:      &owner,
				HoursRemaining: &hours,
			},
			{Player: player.Player{ID: 11}},
		},
		Transactions: []clause.Transaction{{PlayerID: 10, From: &clause.Party{ID: 2, Name: "Luis"}, Amount: &amount}},
		FailedOwners: []snapshot.OwnerFailure{{OwnerID: 3, OwnerName: "Eva", Reason: "timeout"}},
		Report:       snapshot.Report{SkippedPlayers: 1, OrphanOwnerships: []int64{999}},
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := encodeSnapshot(buf, want); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeSnapshot(buf.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !got.FetchedAt.Equal(want.FetchedAt) || !got.Roster[0].Ownership.ClauseUnlockAt.Equal(unlock) {
		t.Fatalf("timestamps changed: fetched=%s unlock=%s", got.FetchedAt, got.Roster[0].Ownership.ClauseUnlockAt)
	}
	got.FetchedAt = want.FetchedAt
	got.Roster[0].Ownership.ClauseUnlockAt = &unlock

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot changed across codec:\n got=%+v\nwant=%+v", got, want)
	}
}
