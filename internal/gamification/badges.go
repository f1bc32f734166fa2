package gamification

import "fmt"

// Badge describes an awardable badge.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Milestone is a badge the engine awards on its own when Reached is true
// after an update. prev is nil on a student's first activity.
type Milestone struct {
	Badge
	Reached func(prev *State, next State) bool
}

const BadgeFirstQuestion = "first_question"

var streakMilestones = []int{3, 7, 14, 30}
var xpMilestones = []int64{100, 500, 1000}

// DefaultMilestones returns the built-in milestone badges.
func DefaultMilestones() []Milestone {
	ms := []Milestone{{
		Badge: Badge{ID: BadgeFirstQuestion, Name: "First Steps", Description: "Asked a first question", Icon: "🌱"},
		Reached: func(prev *State, next State) bool {
			return prev == nil && next.XP > 0
		},
	}}
	for _, n := range streakMilestones {
		n := n
		ms = append(ms, Milestone{
			Badge:   Badge{ID: fmt.Sprintf("streak_%d", n), Name: streakName(n), Description: fmt.Sprintf("%d-day streak", n), Icon: "🔥"},
			Reached: func(_ *State, next State) bool { return next.Streak >= n },
		})
	}
	for _, n := range xpMilestones {
		n := n
		ms = append(ms, Milestone{
			Badge:   Badge{ID: fmt.Sprintf("xp_%d", n), Name: xpName(n), Description: fmt.Sprintf("Earned %d XP", n), Icon: "⭐"},
			Reached: func(_ *State, next State) bool { return next.XP >= n },
		})
	}
	return ms
}

func streakName(n int) string {
	switch n {
	case 3:
		return "Getting Started"
	case 7:
		return "Week Warrior"
	case 14:
		return "Dedicated"
	case 30:
		return "Monthly Master"
	default:
		return fmt.Sprintf("%d-Day Streak", n)
	}
}

func xpName(n int64) string {
	switch n {
	case 100:
		return "Curious Mind"
	case 500:
		return "Scholar"
	case 1000:
		return "Rising Star"
	default:
		return fmt.Sprintf("%d XP", n)
	}
}

// Lookup returns the catalog entry for id. Badges awarded by callers that
// aren't in the catalog get a generic entry named after the id.
func Lookup(id string) Badge {
	for _, m := range DefaultMilestones() {
		if m.ID == id {
			return m.Badge
		}
	}
	return Badge{ID: id, Name: id, Icon: "✦"}
}

// NextStreakMilestone returns the next streak length that awards a badge,
// or 0 when every streak milestone has been passed.
func NextStreakMilestone(current int) int {
	for _, n := range streakMilestones {
		if n > current {
			return n
		}
	}
	return 0
}
