package player

import (
	"fmt"
	"strings"
)

// Position represents football position categories used by the competition catalog.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

var positionByCode = map[int]Position{
	1: PositionGoalkeeper,
	2: PositionDefender,
	3: PositionMidfielder,
	4: PositionForward,
}

// PositionFromCode maps the provider's numeric position code. Unknown codes yield nil.
func PositionFromCode(code int) *Position {
	pos, ok := positionByCode[code]
	if !ok {
		return nil
	}
	return &pos
}

// ParsePosition accepts the short codes used in filters ("GK", "def", ...).
func ParsePosition(raw string) (Position, error) {
	pos := Position(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := AllPositions[pos]; !ok {
		return "", fmt.Errorf("invalid player position: %s", raw)
	}
	return pos, nil
}

func (p Position) Label() string {
	switch p {
	case PositionGoalkeeper:
		return "Goalkeeper"
	case PositionDefender:
		return "Defender"
	case PositionMidfielder:
		return "Midfielder"
	case PositionForward:
		return "Forward"
	default:
		return ""
	}
}

// Team is a competition club referenced by catalog players.
type Team struct {
	ID   int64
	Name string
	Slug string
}

// Player is a competition-wide catalog entry, independent of any league.
type Player struct {
	ID               int64
	Slug             string
	Name             string
	TeamID           *int64
	Team             *Team
	Position         *Position
	Points           int64
	MarketValue      int64
	MarketValueDelta int64
	ImageURL         string
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id is required")
	}
	if p.Position != nil {
		if _, ok := AllPositions[*p.Position]; !ok {
			return fmt.Errorf("invalid player position: %s", *p.Position)
		}
	}
	return nil
}
