package game

import "math"

// Awareness is the XP/level progression state. Level runs 1..MaxLevel; XP
// stays within [0, Requirement(level)) except pinned at the cap on max level.
type Awareness struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
}

// NewAwareness returns fresh progression state.
func NewAwareness() Awareness {
	return Awareness{Level: 1, XP: 0}
}

// LevelUp records one level threshold crossing.
type LevelUp struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// AddXP applies a raw XP grant: scale by the level's multiplier (floored),
// accumulate, then resolve however many level-ups the total crosses, carrying
// the excess into each new level. At max level XP is clamped and no overflow
// carries. Returns the adjusted grant and the level-ups in order.
func (a *Awareness) AddXP(raw int, b Balance) (int, []LevelUp) {
	if raw <= 0 {
		return 0, nil
	}

	adjusted := int(math.Floor(float64(raw) * b.Multiplier(a.Level)))
	a.XP += adjusted

	var ups []LevelUp
	for a.Level < b.MaxLevel && a.XP >= b.Requirement(a.Level) {
		a.XP -= b.Requirement(a.Level)
		ups = append(ups, LevelUp{From: a.Level, To: a.Level + 1})
		a.Level++
	}

	if a.Level >= b.MaxLevel {
		if pin := b.Requirement(b.MaxLevel); a.XP > pin {
			a.XP = pin
		}
	}
	return adjusted, ups
}

// AtMax reports whether progression is complete.
func (a Awareness) AtMax(b Balance) bool {
	return a.Level >= b.MaxLevel
}
