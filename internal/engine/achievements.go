package engine

import "github.com/tatianab/cyber-clicker/internal/models"

// Achievement is unlocked exactly while its predicate holds.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Unlocked    func(models.GameState) bool
}

var achievements = []Achievement{
	{
		ID:          "first-packet",
		Name:        "First Packet",
		Description: "Collect your first data packet.",
		Unlocked:    func(s models.GameState) bool { return s.Currency >= 1 },
	},
	{
		ID:          "script-kiddie",
		Name:        "Script Kiddie",
		Description: "Hold 100 data packets.",
		Unlocked:    func(s models.GameState) bool { return s.Currency >= 100 },
	},
	{
		ID:          "packet-hoarder",
		Name:        "Packet Hoarder",
		Description: "Hold 1,000 data packets.",
		Unlocked:    func(s models.GameState) bool { return s.Currency >= 1000 },
	},
	{
		ID:          "automation",
		Name:        "Automation",
		Description: "Earn packets without clicking.",
		Unlocked:    func(s models.GameState) bool { return s.AutoRate > 0 },
	},
	{
		ID:          "power-user",
		Name:        "Power User",
		Description: "Reach a click power of 10.",
		Unlocked:    func(s models.GameState) bool { return s.ClickPower >= 10 },
	},
	{
		ID:          "junior-analyst",
		Name:        "Junior Analyst",
		Description: "Reach level 5.",
		Unlocked:    func(s models.GameState) bool { return s.Level >= 5 },
	},
	{
		ID:          "defense-in-depth",
		Name:        "Defense in Depth",
		Description: "Own three different kinds of upgrade.",
		Unlocked: func(s models.GameState) bool {
			kinds := 0
			for _, u := range s.Upgrades {
				if u.OwnedCount > 0 {
					kinds++
				}
			}
			return kinds >= 3
		},
	},
}

// Achievements returns every defined achievement in display order.
func Achievements() []Achievement {
	out := make([]Achievement, len(achievements))
	copy(out, achievements)
	return out
}

// DeriveAchievements returns the achievements currently unlocked by st.
func DeriveAchievements(st models.GameState) []Achievement {
	var out []Achievement
	for _, a := range achievements {
		if a.Unlocked(st) {
			out = append(out, a)
		}
	}
	return out
}

// NewlyUnlocked returns achievements that hold for after but not for before.
func NewlyUnlocked(before, after models.GameState) []Achievement {
	var out []Achievement
	for _, a := range achievements {
		if a.Unlocked(after) && !a.Unlocked(before) {
			out = append(out, a)
		}
	}
	return out
}
