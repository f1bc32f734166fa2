package gamification

import "time"

// State is a student's full gamification state.
type State struct {
	Student           string    `json:"student"`
	XP                int64     `json:"xp"`
	Streak            int       `json:"streak"`
	Badges            []string  `json:"badges"`
	LastActivity      time.Time `json:"last_activity"`
	DailyInteractions int       `json:"daily_interactions"`
}

// Summary is the read view returned to callers.
type Summary struct {
	XP     int64    `json:"xp"`
	Streak int      `json:"streak"`
	Badges []string `json:"badges"`
}

// Summary drops the bookkeeping fields.
func (s State) Summary() Summary {
	badges := s.Badges
	if badges == nil {
		badges = []string{}
	}
	return Summary{XP: s.XP, Streak: s.Streak, Badges: badges}
}

// Input is one activity event.
type Input struct {
	Now     time.Time
	XPDelta int64
	Badges  []string
}

// Transition applies one activity to prev and returns the next state.
//
// A nil prev is a first activity. A prev with a zero LastActivity is a
// record whose stored timestamp could not be read; its XP and badges carry
// over but the streak and daily counter restart as if it were a first
// activity. Calendar days are taken in loc.
func Transition(prev *State, in Input, loc *time.Location) State {
	if prev == nil {
		return State{
			XP:                in.XPDelta,
			Streak:            1,
			Badges:            mergeBadges(nil, in.Badges),
			LastActivity:      in.Now,
			DailyInteractions: 1,
		}
	}

	next := State{
		Student:      prev.Student,
		XP:           prev.XP + in.XPDelta,
		Badges:       mergeBadges(prev.Badges, in.Badges),
		LastActivity: in.Now,
	}

	if prev.LastActivity.IsZero() {
		next.Streak, next.DailyInteractions = 1, 1
		return next
	}

	switch DaysBetween(prev.LastActivity, in.Now, loc) {
	case 0:
		next.Streak = prev.Streak
		next.DailyInteractions = prev.DailyInteractions + 1
	case 1:
		next.Streak = prev.Streak + 1
		next.DailyInteractions = 1
	default:
		// Gap of two or more days, or a last activity in the future.
		next.Streak = 1
		next.DailyInteractions = 1
	}
	return next
}

// DaysBetween returns the number of calendar days from a to b in loc. It
// counts date changes, not 24h periods, so DST shifts don't matter.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	return civilDay(b, loc) - civilDay(a, loc)
}

func civilDay(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// mergeBadges appends the badges in add that aren't already present,
// keeping first-seen order. Empty names are ignored.
func mergeBadges(have []string, add []string) []string {
	out := make([]string, 0, len(have)+len(add))
	seen := make(map[string]bool, len(have)+len(add))
	for _, list := range [][]string{have, add} {
		for _, b := range list {
			if b == "" || seen[b] {
				continue
			}
			seen[b] = true
			out = append(out, b)
		}
	}
	return out
}
