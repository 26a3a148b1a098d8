package clause

import (
	"context"

	"github.com/riskibarqy/clause-watch/internal/domain/user"
)

// Feed is the flattened clause board.
type Feed struct {
	Transactions []Transaction
	Skipped      int
}

// Board fetches clause executions from the league activity feed.
// limit bounds the number of feed entries scanned, not the transactions returned.
type Board interface {
	FetchClauseBoard(ctx context.Context, session user.Session, limit int) (Feed, error)
}
