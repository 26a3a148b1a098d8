package ownership

import "time"

// LoanDirection tags a loan from the holder's point of view.
type LoanDirection string

const (
	LoanIn  LoanDirection = "in"
	LoanOut LoanDirection = "out"
)

// Ownership relates a catalog player to the league member that legally owns it.
// A player borrowed through an incoming loan never yields an Ownership for the borrower.
type Ownership struct {
	PlayerID       int64
	OwnerID        int64
	ClauseValue    int64
	ClauseUnlockAt *time.Time
	PurchasePrice  int64
	PurchasedAt    *time.Time
	LoanedTo       *string
	LoanRounds     *int
}

// HasActiveLock reports whether a clause unlock instant is set.
func (o Ownership) HasActiveLock() bool {
	return o.ClauseUnlockAt != nil
}

// IsLoanedOut reports whether the player is currently lent to another member.
func (o Ownership) IsLoanedOut() bool {
	return o.LoanedTo != nil
}
