package ownership

import (
	"context"

	"github.com/riskibarqy/clause-watch/internal/domain/user"
)

// Holdings are the ownership rows of one member.
type Holdings struct {
	OwnerID int64
	Items   []Ownership
	Skipped int
	LoansIn int
}

// Source fetches the ownership rows of one league member.
type Source interface {
	FetchOwnerPlayers(ctx context.Context, session user.Session, ownerID int64) (Holdings, error)
}
