package league

import (
	"context"

	"github.com/riskibarqy/clause-watch/internal/domain/user"
)

// Standings is the league metadata plus one owner per standings row.
// Skipped counts rows dropped for a missing id.
type Standings struct {
	League  League
	Owners  []Owner
	Skipped int
}

// Source fetches league metadata and standings for an authenticated session.
type Source interface {
	FetchLeague(ctx context.Context, session user.Session) (Standings, error)
}
