package normalizer

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/riskibarqy/clause-watch/internal/domain/clause"
	"github.com/riskibarqy/clause-watch/internal/domain/league"
	"github.com/riskibarqy/clause-watch/internal/domain/ownership"
	"github.com/riskibarqy/clause-watch/internal/domain/player"
)

const (
	AssetBaseURL         = "https://cdn.biwenger.com/"
	DefaultAvatarURL     = "https://cdn.biwenger.com/img/user.svg"
	playerImageURLFormat = "https://cdn.biwenger.com/cdn-cgi/image/f=avif/i/p/%d.png"
)

// Stats counts records absorbed while normalizing one payload.
type Stats struct {
	Skipped int
	LoansIn int
}

func (s Stats) Add(other Stats) Stats {
	return Stats{
		Skipped: s.Skipped + other.Skipped,
		LoansIn: s.LoansIn + other.LoansIn,
	}
}

// NormalizeLeague maps the league payload. ok is false when the league id is missing.
func NormalizeLeague(raw RawLeague) (league.League, bool) {
	id := raw.ID.Int64()
	if id <= 0 {
		return league.League{}, false
	}

	description := ""
	if raw.Settings != nil {
		description = strings.TrimSpace(raw.Settings.Description)
	}

	return league.League{
		ID:          id,
		Name:        strings.TrimSpace(raw.Name),
		Type:        strings.TrimSpace(raw.Type),
		Mode:        strings.TrimSpace(raw.Mode),
		Competition: strings.TrimSpace(raw.Competition),
		IconURL:     ResolveAssetURL(raw.Icon),
		CoverURL:    ResolveAssetURL(raw.Cover),
		CreatedAt:   EpochTime(raw.Created),
		Description: description,
	}, true
}

// NormalizeOwners maps standings rows into owners, skipping malformed rows
// and rows without an id.
func NormalizeOwners(rows Records[RawStanding]) ([]league.Owner, Stats) {
	out := make([]league.Owner, 0, rows.Len())
	stats := Stats{Skipped: rows.Malformed}
	for _, row := range rows.Items {
		id := row.ID.Int64()
		if id <= 0 {
			stats.Skipped++
			continue
		}
		out = append(out, league.Owner{
			ID:             id,
			Name:           strings.TrimSpace(row.Name),
			AvatarURL:      ResolveAvatarURL(row.Icon),
			Points:         row.Points.Int64(),
			TeamValue:      row.TeamValue.Int64(),
			TeamValueDelta: row.TeamValueInc.Int64(),
			TeamSize:       int(row.TeamSize.Int64()),
			Role:           strings.TrimSpace(row.Role),
			Rank:           int(row.Position.Int64()),
		})
	}
	return out, stats
}

// NormalizeCatalog maps the public catalog. Teams are left-joined so free agents
// and players of unknown teams are kept with a nil Team.
func NormalizeCatalog(raw RawCatalog) ([]player.Player, Stats) {
	teams := make(map[int64]player.Team, raw.Teams.Len())
	for _, item := range raw.Teams.Items {
		id := item.ID.Int64()
		if id <= 0 {
			continue
		}
		teams[id] = player.Team{
			ID:   id,
			Name: strings.TrimSpace(item.Name),
			Slug: strings.TrimSpace(item.Slug),
		}
	}

	out := make([]player.Player, 0, raw.Players.Len())
	stats := Stats{Skipped: raw.Players.Malformed}
	for _, item := range raw.Players.Items {
		row, ok := NormalizePlayer(item, teams)
		if !ok {
			stats.Skipped++
			continue
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, stats
}

// NormalizePlayer maps one catalog player. ok is false when the id is missing.
func NormalizePlayer(raw RawPlayer, teams map[int64]player.Team) (player.Player, bool) {
	id := raw.ID.Int64()
	if id <= 0 {
		return player.Player{}, false
	}

	out := player.Player{
		ID:               id,
		Slug:             strings.TrimSpace(raw.Slug),
		Name:             strings.TrimSpace(raw.Name),
		Position:         player.PositionFromCode(int(raw.Position.Int64())),
		Points:           raw.Points.Int64(),
		MarketValue:      raw.Price.Int64(),
		MarketValueDelta: raw.PriceIncrement.Int64(),
		ImageURL:         PlayerImageURL(id),
	}
	if teamID := raw.TeamID.Int64(); teamID > 0 {
		out.TeamID = &teamID
		if team, ok := teams[teamID]; ok {
			out.Team = &team
		}
	}
	return out, true
}

// NormalizeOwnerships maps the players of one owner. Players held through an
// incoming loan are excluded: the lender remains the legal owner.
func NormalizeOwnerships(ownerID int64, rows Records[RawOwnedPlayer]) ([]ownership.Ownership, Stats) {
	out := make([]ownership.Ownership, 0, rows.Len())
	stats := Stats{Skipped: rows.Malformed}
	for _, row := range rows.Items {
		item, ok, loanIn := NormalizeOwnership(ownerID, row)
		switch {
		case loanIn:
			stats.LoansIn++
		case !ok:
			stats.Skipped++
		default:
			out = append(out, item)
		}
	}
	return out, stats
}

// NormalizeOwnership maps one owned player. loanIn is true when the row was
// dropped because the owner only borrowed the player.
func NormalizeOwnership(ownerID int64, raw RawOwnedPlayer) (item ownership.Ownership, ok bool, loanIn bool) {
	playerID := raw.ID.Int64()
	if playerID <= 0 || ownerID <= 0 {
		return ownership.Ownership{}, false, false
	}

	info := RawOwnerInfo{}
	if raw.Owner != nil {
		info = *raw.Owner
	}
	if info.Loan != nil && loanDirection(info.Loan.Type) == ownership.LoanIn {
		return ownership.Ownership{}, false, true
	}

	item = ownership.Ownership{
		PlayerID:       playerID,
		OwnerID:        ownerID,
		ClauseValue:    nonNegative(info.Clause.Int64()),
		ClauseUnlockAt: EpochTime(info.ClauseLockedUntil),
		PurchasePrice:  nonNegative(info.Price.Int64()),
		PurchasedAt:    EpochTime(info.Date),
	}
	if info.Loan != nil {
		if info.Loan.User != nil {
			name := strings.TrimSpace(info.Loan.User.Name)
			item.LoanedTo = &name
		}
		if info.Loan.Rounds.Valid {
			rounds := int(info.Loan.Rounds.Value)
			item.LoanRounds = &rounds
		}
	}
	return item, true, false
}

// NormalizeBoard flattens board entries into one transaction per content item.
// Malformed entries and content items count as skipped.
func NormalizeBoard(entries Records[RawBoardEntry]) ([]clause.Transaction, Stats) {
	out := make([]clause.Transaction, 0, entries.Len())
	stats := Stats{Skipped: entries.Malformed}
	for _, entry := range entries.Items {
		var authorID *int64
		if entry.Author != nil {
			authorID = positivePtr(entry.Author.ID)
		}
		stats.Skipped += entry.Content.Malformed
		for _, content := range entry.Content.Items {
			playerID := content.Player.Int64()
			if playerID <= 0 {
				stats.Skipped++
				continue
			}
			out = append(out, clause.Transaction{
				PlayerID:      playerID,
				From:          normalizeParty(content.From),
				To:            normalizeParty(content.To),
				Amount:        content.Amount.Ptr(),
				Type:          strings.TrimSpace(content.Type),
				EntryType:     strings.TrimSpace(entry.Type),
				EntryTitle:    strings.TrimSpace(entry.Title),
				EntryDate:     EpochTime(entry.Date),
				EntryFixed:    bool(entry.Fixed),
				EntryAuthorID: authorID,
			})
		}
	}
	return out, stats
}

// ParseAmount strips every non-digit character and parses the remainder.
// A leading minus sign is kept. ok is false when no digit remains.
func ParseAmount(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	negative := strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "−")

	var value int64
	digits := 0
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			continue
		}
		digits++
		d := int64(r - '0')
		if value > (math.MaxInt64-d)/10 {
			return 0, false
		}
		value = value*10 + d
	}
	if digits == 0 {
		return 0, false
	}
	if negative {
		value = -value
	}
	return value, true
}

// EpochTime converts an epoch to a UTC instant, nil when absent or invalid.
func EpochTime(e Epoch) *time.Time {
	if !e.Valid || e.Seconds <= 0 {
		return nil
	}
	t := time.Unix(e.Seconds, 0).UTC()
	return &t
}

// ResolveAssetURL passes absolute URLs through and prefixes path fragments with
// the asset host. Absent values stay nil.
func ResolveAssetURL(raw *string) *string {
	if raw == nil {
		return nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil
	}
	if hasURLScheme(value) {
		return &value
	}
	resolved := AssetBaseURL + strings.TrimLeft(value, "/")
	return &resolved
}

// ResolveAvatarURL is ResolveAssetURL with the default avatar as fallback.
func ResolveAvatarURL(raw *string) string {
	if resolved := ResolveAssetURL(raw); resolved != nil {
		return *resolved
	}
	return DefaultAvatarURL
}

// PlayerImageURL always builds the image-service URL for the player id.
func PlayerImageURL(playerID int64) string {
	return fmt.Sprintf(playerImageURLFormat, playerID)
}

func hasURLScheme(value string) bool {
	idx := strings.Index(value, "://")
	if idx <= 0 {
		return false
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	if parsed.Scheme == "" || !unicode.IsLetter(rune(parsed.Scheme[0])) {
		return false
	}
	return true
}

func loanDirection(raw string) ownership.LoanDirection {
	return ownership.LoanDirection(strings.ToLower(strings.TrimSpace(raw)))
}

func normalizeParty(ref *Ref) *clause.Party {
	if ref == nil {
		return nil
	}
	id := ref.ID.Int64()
	name := strings.TrimSpace(ref.Name)
	if id <= 0 && name == "" {
		return nil
	}
	party := &clause.Party{ID: id, Name: name}
	if ref.Icon != nil {
		party.IconURL = strings.TrimSpace(*ref.Icon)
	}
	return party
}

func positivePtr(n Number) *int64 {
	if !n.Valid || n.Value <= 0 {
		return nil
	}
	v := n.Value
	return &v
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
