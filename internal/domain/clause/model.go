package clause

import "time"

// Party is one side of a clause execution.
type Party struct {
	ID      int64
	Name    string
	IconURL string
}

// Transaction is one buy-out execution extracted from a board entry.
// A single board entry may produce several transactions.
type Transaction struct {
	PlayerID      int64
	From          *Party
	To            *Party
	Amount        *int64
	Type          string
	EntryType     string
	EntryTitle    string
	EntryDate     *time.Time
	EntryFixed    bool
	EntryAuthorID *int64
}

// SourceOwnerID returns the id of the member who lost the player, if known.
func (t Transaction) SourceOwnerID() (int64, bool) {
	if t.From == nil || t.From.ID <= 0 {
		return 0, false
	}
	return t.From.ID, true
}
