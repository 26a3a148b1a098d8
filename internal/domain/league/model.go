package league

import (
	"fmt"
	"time"
)

// League is the immutable league snapshot fetched once per refresh cycle.
type League struct {
	ID          int64
	Name        string
	Type        string
	Mode        string
	Competition string
	IconURL     *string
	CoverURL    *string
	CreatedAt   *time.Time
	Description string
}

// Owner is a league participant built from one standings row.
type Owner struct {
	ID             int64
	Name           string
	AvatarURL      string
	Points         int64
	TeamValue      int64
	TeamValueDelta int64
	TeamSize       int
	Role           string
	Rank           int
}

func (l League) Validate() error {
	if l.ID <= 0 {
		return fmt.Errorf("league id is required")
	}
	return nil
}

// OwnersByID indexes owners by id. Later rows win on duplicate ids.
func OwnersByID(owners []Owner) map[int64]Owner {
	out := make(map[int64]Owner, len(owners))
	for _, item := range owners {
		out[item.ID] = item
	}
	return out
}
