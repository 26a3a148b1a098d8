package normalizer

import (
	"bytes"
	"math"
	"sort"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
)

var nullLiteral = []byte("null")

// Number is a provider numeric field. It accepts JSON numbers, numeric strings
// with formatting characters ("12.500 €") and null.
type Number struct {
	Value int64
	Valid bool
}

func NewNumber(v int64) Number {
	return Number{Value: v, Valid: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullLiteral) {
		return nil
	}

	if trimmed[0] == '"' {
		var text string
		if err := sonic.Unmarshal(trimmed, &text); err != nil {
			return nil
		}
		if v, ok := ParseAmount(text); ok {
			*n = NewNumber(v)
		}
		return nil
	}

	if v, ok := parseNumericLiteral(string(trimmed)); ok {
		*n = NewNumber(v)
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return nullLiteral, nil
	}
	return strconv.AppendInt(nil, n.Value, 10), nil
}

// Int64 returns the value, or zero when absent.
func (n Number) Int64() int64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// Ptr returns nil when absent.
func (n Number) Ptr() *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Epoch is a provider timestamp in epoch seconds. Zero, negative and
// unparseable values are treated as absent.
type Epoch struct {
	Seconds int64
	Valid   bool
}

func NewEpoch(seconds int64) Epoch {
	if seconds <= 0 {
		return Epoch{}
	}
	return Epoch{Seconds: seconds, Valid: true}
}

func (e *Epoch) UnmarshalJSON(data []byte) error {
	*e = Epoch{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullLiteral) {
		return nil
	}

	literal := string(trimmed)
	if trimmed[0] == '"' {
		var text string
		if err := sonic.Unmarshal(trimmed, &text); err != nil {
			return nil
		}
		literal = strings.TrimSpace(text)
	}
	if v, ok := parseNumericLiteral(literal); ok {
		*e = NewEpoch(v)
	}
	return nil
}

func (e Epoch) MarshalJSON() ([]byte, error) {
	if !e.Valid {
		return nullLiteral, nil
	}
	return strconv.AppendInt(nil, e.Seconds, 10), nil
}

// Flag accepts booleans, 0/1 numbers and "true"/"false" strings.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = false
	trimmed := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	switch strings.ToLower(trimmed) {
	case "true":
		*f = true
	case "", "null", "false":
	default:
		if v, ok := parseNumericLiteral(trimmed); ok && v != 0 {
			*f = true
		}
	}
	return nil
}

// Ref is a reference to a league member. The provider sends either a bare id
// or an object with id, name and icon.
type Ref struct {
	ID   Number  `json:"id"`
	Name string  `json:"name"`
	Icon *string `json:"icon,omitempty"`
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	*r = Ref{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullLiteral) {
		return nil
	}
	if trimmed[0] != '{' {
		return r.ID.UnmarshalJSON(trimmed)
	}

	type alias Ref
	var decoded alias
	if err := sonic.Unmarshal(trimmed, &decoded); err != nil {
		return err
	}
	*r = Ref(decoded)
	return nil
}

// Records is a provider collection decoded one record at a time. The provider
// sends either a JSON array or an object keyed by id. A record that fails to
// decode is dropped and counted in Malformed, so the rest of the batch survives.
type Records[T any] struct {
	Items     []T
	Malformed int
}

func NewRecords[T any](items ...T) Records[T] {
	return Records[T]{Items: items}
}

func (r *Records[T]) UnmarshalJSON(data []byte) error {
	*r = Records[T]{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullLiteral) {
		return nil
	}

	var raws []sonic.NoCopyRawMessage
	switch trimmed[0] {
	case '[':
		if err := sonic.Unmarshal(trimmed, &raws); err != nil {
			return err
		}
	case '{':
		var keyed map[string]sonic.NoCopyRawMessage
		if err := sonic.Unmarshal(trimmed, &keyed); err != nil {
			return err
		}
		keys := make([]string, 0, len(keyed))
		for key := range keyed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		raws = make([]sonic.NoCopyRawMessage, 0, len(keys))
		for _, key := range keys {
			raws = append(raws, keyed[key])
		}
	default:
		r.Malformed = 1
		return nil
	}

	r.Items = make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := sonic.Unmarshal(raw, &item); err != nil {
			r.Malformed++
			continue
		}
		r.Items = append(r.Items, item)
	}
	return nil
}

func (r Records[T]) MarshalJSON() ([]byte, error) {
	if r.Items == nil {
		return []byte("[]"), nil
	}
	return sonic.Marshal(r.Items)
}

func (r Records[T]) Len() int {
	return len(r.Items)
}

// LeagueEnvelope is the body of GET /league.
type LeagueEnvelope struct {
	Data RawLeague `json:"data"`
}

type RawLeague struct {
	ID          Number               `json:"id"`
	Name        string               `json:"name"`
	Type        string               `json:"type"`
	Mode        string               `json:"mode"`
	Competition string               `json:"competition"`
	Icon        *string              `json:"icon,omitempty"`
	Cover       *string              `json:"cover,omitempty"`
	Created     Epoch                `json:"created"`
	Settings    *RawSettings         `json:"settings,omitempty"`
	Standings   Records[RawStanding] `json:"standings"`
}

type RawSettings struct {
	Description string `json:"description"`
}

type RawStanding struct {
	ID           Number  `json:"id"`
	Name         string  `json:"name"`
	Icon         *string `json:"icon,omitempty"`
	Points       Number  `json:"points"`
	TeamValue    Number  `json:"teamValue"`
	TeamValueInc Number  `json:"teamValueInc"`
	TeamSize     Number  `json:"teamSize"`
	Role         string  `json:"role"`
	Position     Number  `json:"position"`
}

// CatalogEnvelope is the body of the public competition data endpoint.
type CatalogEnvelope struct {
	Data RawCatalog `json:"data"`
}

type RawCatalog struct {
	Players Records[RawPlayer] `json:"players"`
	Teams   Records[RawTeam]   `json:"teams"`
}

type RawPlayer struct {
	ID             Number `json:"id"`
	Slug           string `json:"slug"`
	Name           string `json:"name"`
	TeamID         Number `json:"teamID"`
	Position       Number `json:"position"`
	Points         Number `json:"points"`
	Price          Number `json:"price"`
	PriceIncrement Number `json:"priceIncrement"`
}

type RawTeam struct {
	ID   Number `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// UserEnvelope is the body of GET /user/{id}?fields=players(...).
type UserEnvelope struct {
	Data RawUser `json:"data"`
}

type RawUser struct {
	ID      Number                  `json:"id"`
	Name    string                  `json:"name"`
	Players Records[RawOwnedPlayer] `json:"players"`
}

type RawOwnedPlayer struct {
	ID    Number        `json:"id"`
	Owner *RawOwnerInfo `json:"owner,omitempty"`
}

type RawOwnerInfo struct {
	Clause            Number   `json:"clause"`
	ClauseLockedUntil Epoch    `json:"clauseLockedUntil"`
	Price             Number   `json:"price"`
	Date              Epoch    `json:"date"`
	Loan              *RawLoan `json:"loan,omitempty"`
}

type RawLoan struct {
	Type   string `json:"type"`
	User   *Ref   `json:"user,omitempty"`
	Rounds Number `json:"rounds"`
}

// BoardEnvelope is the body of GET /league/{id}/board?type=clauses.
type BoardEnvelope struct {
	Data Records[RawBoardEntry] `json:"data"`
}

type RawBoardEntry struct {
	Type    string                   `json:"type"`
	Title   string                   `json:"title"`
	Date    Epoch                    `json:"date"`
	Fixed   Flag                     `json:"fixed"`
	Author  *Ref                     `json:"author,omitempty"`
	Content Records[RawBoardContent] `json:"content"`
}

type RawBoardContent struct {
	Player Number `json:"player"`
	From   *Ref   `json:"from,omitempty"`
	To     *Ref   `json:"to,omitempty"`
	Amount Number `json:"amount"`
	Type   string `json:"type"`
}

func parseNumericLiteral(literal string) (int64, bool) {
	literal = strings.TrimSpace(literal)
	if literal == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(math.Round(f)), true
}
