package game

// Balance holds the tunable progression and selection numbers. Scenes may
// override it in content; zero values fall back to DefaultBalance.
type Balance struct {
	MaxLevel int `json:"max_level"`

	// XPRequirements is indexed by level: the XP needed to advance from
	// that level to the next. Index 0 is unused.
	XPRequirements []int `json:"xp_requirements"`

	// XPMultipliers scales raw XP grants per level. Levels without an
	// entry use 1.0.
	XPMultipliers map[int]float64 `json:"xp_multipliers,omitempty"`

	FindXP  int `json:"find_xp"`  // for clicking the changed entity
	TrainXP int `json:"train_xp"` // observant-riding bonus on an unmissed day

	MaxPerKind     int `json:"max_per_kind"`     // entity cap per population
	ForcedAddFloor int `json:"forced_add_floor"` // below this many props, always add

	// AddProbability weights add vs. mutate for set dressing. A pointer so
	// content can express an explicit 0 (mutate-only); nil means default.
	AddProbability *float64 `json:"add_probability,omitempty"`
}

func floatPtr(v float64) *float64 { return &v }

// DefaultBalance returns the shipped progression curve.
func DefaultBalance() Balance {
	return Balance{
		MaxLevel:       10,
		XPRequirements: []int{0, 100, 150, 200, 250, 300, 350, 400, 450, 500},
		XPMultipliers: map[int]float64{
			1: 1.0,
			2: 1.0,
			3: 1.1,
			4: 1.1,
			5: 1.2,
			6: 1.2,
			7: 1.3,
			8: 1.3,
			9: 1.5,
		},
		FindXP:         50,
		TrainXP:        10,
		MaxPerKind:     8,
		ForcedAddFloor: 4,
		AddProbability: floatPtr(0.8),
	}
}

// Requirement returns the XP needed to advance from the given level, or 0
// when the level is beyond the table (so the cap pins XP at zero).
func (b Balance) Requirement(level int) int {
	if level < 1 || level >= len(b.XPRequirements) {
		return 0
	}
	return b.XPRequirements[level]
}

// AddChance returns the effective set-dressing add probability.
func (b Balance) AddChance() float64 {
	if b.AddProbability == nil {
		return *DefaultBalance().AddProbability
	}
	return *b.AddProbability
}

// Multiplier returns the per-level XP multiplier, defaulting to 1.0.
func (b Balance) Multiplier(level int) float64 {
	if m, ok := b.XPMultipliers[level]; ok {
		return m
	}
	return 1.0
}

// normalize fills missing balance fields from the defaults, field by field,
// so a partial override (or a corrupt save) never produces a dead curve.
func (b Balance) normalize() Balance {
	def := DefaultBalance()
	if b.MaxLevel <= 0 {
		b.MaxLevel = def.MaxLevel
	}
	if len(b.XPRequirements) == 0 {
		b.XPRequirements = def.XPRequirements
	}
	if b.FindXP <= 0 {
		b.FindXP = def.FindXP
	}
	if b.TrainXP <= 0 {
		b.TrainXP = def.TrainXP
	}
	if b.MaxPerKind <= 0 {
		b.MaxPerKind = def.MaxPerKind
	}
	if b.ForcedAddFloor <= 0 {
		b.ForcedAddFloor = def.ForcedAddFloor
	}
	if b.AddProbability == nil || *b.AddProbability < 0 || *b.AddProbability > 1 {
		b.AddProbability = def.AddProbability
	}
	return b
}
