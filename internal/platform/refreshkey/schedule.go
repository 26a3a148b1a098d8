// Package refreshkey derives cache keys from a weekly refresh table.
//
// A cycle key changes at every scheduled slot; a daily key changes once per
// league day. Both are pure functions of the instant passed in.
package refreshkey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSchedule = "*@02:05"
	DefaultDaySkew  = 2 * time.Hour

	anyDay = -1
)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// Slot is one weekday + wall-clock time. Weekday -1 matches every day.
type Slot struct {
	Weekday int
	Hour    int
	Minute  int
}

func (s Slot) String() string {
	day := "*"
	if s.Weekday != anyDay {
		day = strings.ToLower(time.Weekday(s.Weekday).String()[:3])
	}
	return fmt.Sprintf("%s@%02d:%02d", day, s.Hour, s.Minute)
}

func (s Slot) matches(day time.Weekday) bool {
	return s.Weekday == anyDay || time.Weekday(s.Weekday) == day
}

type Schedule struct {
	slots   []Slot
	loc     *time.Location
	daySkew time.Duration
}

// Keys is the pair of refresh keys in effect at an instant.
type Keys struct {
	Cycle      string
	CycleStart time.Time
	Daily      string
}

// Parse reads a comma separated table such as "*@02:05,sat@18:00".
func Parse(table string, loc *time.Location, daySkew time.Duration) (Schedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	if daySkew < 0 {
		return Schedule{}, fmt.Errorf("day skew must be >= 0")
	}

	slots := make([]Slot, 0, 4)
	for _, part := range strings.Split(table, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		slot, err := parseSlot(part)
		if err != nil {
			return Schedule{}, fmt.Errorf("parse slot %q: %w", part, err)
		}
		slots = append(slots, slot)
	}
	if len(slots) == 0 {
		return Schedule{}, fmt.Errorf("schedule must contain at least one slot")
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Hour != slots[j].Hour {
			return slots[i].Hour < slots[j].Hour
		}
		return slots[i].Minute < slots[j].Minute
	})

	return Schedule{slots: slots, loc: loc, daySkew: daySkew}, nil
}

func MustParse(table string, loc *time.Location, daySkew time.Duration) Schedule {
	s, err := Parse(table, loc, daySkew)
	if err != nil {
		panic(err)
	}
	return s
}

func parseSlot(raw string) (Slot, error) {
	dayPart, clockPart, ok := strings.Cut(raw, "@")
	if !ok {
		return Slot{}, fmt.Errorf("expected <day>@<HH:MM>")
	}

	slot := Slot{Weekday: anyDay}
	dayPart = strings.ToLower(strings.TrimSpace(dayPart))
	if dayPart != "*" {
		day, ok := weekdays[dayPart]
		if !ok {
			return Slot{}, fmt.Errorf("unknown weekday %q", dayPart)
		}
		slot.Weekday = int(day)
	}

	hourText, minuteText, ok := strings.Cut(strings.TrimSpace(clockPart), ":")
	if !ok {
		return Slot{}, fmt.Errorf("expected HH:MM")
	}
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 0 || hour > 23 {
		return Slot{}, fmt.Errorf("invalid hour %q", hourText)
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil || minute < 0 || minute > 59 {
		return Slot{}, fmt.Errorf("invalid minute %q", minuteText)
	}
	slot.Hour = hour
	slot.Minute = minute
	return slot, nil
}

func (s Schedule) Location() *time.Location {
	if s.loc == nil {
		return time.UTC
	}
	return s.loc
}

func (s Schedule) Slots() []Slot {
	return append([]Slot(nil), s.slots...)
}

// LastSlot returns the most recent scheduled instant at or before now.
func (s Schedule) LastSlot(now time.Time) time.Time {
	loc := s.Location()
	local := now.In(loc)

	var best time.Time
	for back := 0; back <= 7; back++ {
		day := time.Date(local.Year(), local.Month(), local.Day()-back, 0, 0, 0, 0, loc)
		for _, slot := range s.slots {
			if !slot.matches(day.Weekday()) {
				continue
			}
			candidate := time.Date(day.Year(), day.Month(), day.Day(), slot.Hour, slot.Minute, 0, 0, loc)
			if candidate.After(now) {
				continue
			}
			if candidate.After(best) {
				best = candidate
			}
		}
		if !best.IsZero() {
			return best
		}
	}
	return best
}

// CycleKey identifies the refresh cycle in effect at now.
func (s Schedule) CycleKey(now time.Time) string {
	slot := s.LastSlot(now)
	if slot.IsZero() {
		return "cycle:" + s.DailyKey(now)
	}
	return "cycle:" + slot.Format("2006-01-02T15:04Z07:00")
}

// DailyKey identifies the league day, which starts daySkew after midnight.
func (s Schedule) DailyKey(now time.Time) string {
	return "day:" + now.Add(-s.daySkew).In(s.Location()).Format("2006-01-02")
}

func (s Schedule) Keys(now time.Time) Keys {
	return Keys{
		Cycle:      s.CycleKey(now),
		CycleStart: s.LastSlot(now),
		Daily:      s.DailyKey(now),
	}
}
