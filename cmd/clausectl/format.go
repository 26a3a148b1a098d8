package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/riskibarqy/clause-watch/internal/domain/player"
)

const instantLayout = "Mon 02 Jan 15:04"

// formatMoney renders euros with dot thousands separators, e.g. 12.500.000 €.
func formatMoney(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	return sign + string(out) + " €"
}

func formatHours(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1fh", *v)
}

func formatInstant(v *time.Time, loc *time.Location) string {
	if v == nil || v.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.UTC
	}
	return v.In(loc).Format(instantLayout)
}

func positionLabel(p *player.Position) string {
	if p == nil {
		return "-"
	}
	return string(*p)
}

func teamLabel(p player.Player) string {
	if p.Team != nil && p.Team.Name != "" {
		return p.Team.Name
	}
	return "-"
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
