package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle phase of a session.
type State string

const (
	StateRiding    State = "riding"
	StateCompleted State = "completed" // max awareness reached
	StateGameOver  State = "game_over" // wrong click in hard fail mode
)

// FailMode controls wrong-click severity.
type FailMode string

const (
	// FailModeRetry shows a message and lets the player keep looking.
	FailModeRetry FailMode = "retry"
	// FailModeHard ends the session on the first wrong click.
	FailModeHard FailMode = "hard"
)

// Stats accumulates the numbers shown in the end-of-session summary.
type Stats struct {
	DaysRidden    int `json:"days_ridden"`
	ChangesFound  int `json:"changes_found"`
	ChangesMissed int `json:"changes_missed"`
}

// Session is the complete state of one playthrough: the platform roster, the
// pending change, awareness progression and the day counter. It is the single
// owned context object; everything is JSON-serializable for persistence.
type Session struct {
	ID        uuid.UUID      `json:"id"`
	Scene     string         `json:"scene"`
	Day       int            `json:"day"`
	State     State          `json:"state"`
	FailMode  FailMode       `json:"fail_mode"`
	CanClick  bool           `json:"can_click"`
	Registry  *Registry      `json:"registry"`
	Pending   *PendingChange `json:"pending_change,omitempty"`
	Awareness Awareness      `json:"awareness"`
	Balance   Balance        `json:"balance"`
	History   []ChangeRecord `json:"history,omitempty"`

	// Catalogs say which types (and pools) each population can grow with.
	CommuterTypes    TypeCatalog `json:"commuter_types"`
	SetDressingTypes TypeCatalog `json:"set_dressing_types"`

	Stats     Stats     `json:"stats"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// transitioning guards re-entrant TakeTrain calls while a day change
	// is being resolved. Not persisted.
	transitioning bool

	rng *rand.Rand
}

// SessionConfig seeds a new session from scene content.
type SessionConfig struct {
	Scene            string
	FailMode         FailMode
	Balance          Balance
	CommuterTypes    TypeCatalog
	SetDressingTypes TypeCatalog
	OpeningCommuters []string // types in slot order
	OpeningProps     []string
}

// NewSession creates a session on day 1 with the opening roster in place.
// The first opening commuter must have at least two variations so the
// scripted day-4 change always materializes; a roster that cannot satisfy
// that is a content error, not a playable state.
func NewSession(cfg SessionConfig) (*Session, error) {
	b := cfg.Balance.normalize()

	s := &Session{
		ID:               uuid.New(),
		Scene:            cfg.Scene,
		Day:              1,
		State:            StateRiding,
		FailMode:         cfg.FailMode,
		Registry:         NewRegistry(b.MaxPerKind),
		Awareness:        NewAwareness(),
		Balance:          b,
		CommuterTypes:    cfg.CommuterTypes,
		SetDressingTypes: cfg.SetDressingTypes,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if s.FailMode == "" {
		s.FailMode = FailModeRetry
	}

	for _, t := range cfg.OpeningCommuters {
		if _, err := s.Registry.AddEntity(KindCommuter, t, cfg.CommuterTypes[t]); err != nil {
			return nil, fmt.Errorf("seeding commuter %q: %w", t, err)
		}
	}
	for _, t := range cfg.OpeningProps {
		if _, err := s.Registry.AddEntity(KindSetDressing, t, cfg.SetDressingTypes[t]); err != nil {
			return nil, fmt.Errorf("seeding prop %q: %w", t, err)
		}
	}

	first := s.Registry.FirstCommuter()
	if first == nil {
		return nil, fmt.Errorf("opening roster has no commuters")
	}
	if !first.CanMutate() {
		return nil, fmt.Errorf("first commuter type %q needs at least two variations for the scripted change", first.Type)
	}

	return s, nil
}

// SetRand injects the random source, primarily for reproducible tests.
func (s *Session) SetRand(rng *rand.Rand) {
	s.rng = rng
}

func (s *Session) random() *rand.Rand {
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s.rng
}

// Normalize repairs a session restored from persistence. Missing or corrupt
// fields fall back to defaults individually; the rest of the save is kept.
func (s *Session) Normalize() {
	s.Balance = s.Balance.normalize()
	if s.Day < 1 {
		s.Day = 1
	}
	if s.State == "" {
		s.State = StateRiding
	}
	if s.FailMode == "" {
		s.FailMode = FailModeRetry
	}
	if s.Registry == nil {
		s.Registry = NewRegistry(s.Balance.MaxPerKind)
	}
	if s.Registry.MaxPerKind <= 0 {
		s.Registry.MaxPerKind = s.Balance.MaxPerKind
	}
	if s.Awareness.Level < 1 || s.Awareness.Level > s.Balance.MaxLevel {
		s.Awareness = NewAwareness()
	}
	if s.Awareness.XP < 0 {
		s.Awareness.XP = 0
	}
	switch {
	case s.Awareness.AtMax(s.Balance):
		if pin := s.Balance.Requirement(s.Balance.MaxLevel); s.Awareness.XP > pin {
			s.Awareness.XP = pin
		}
	case s.Awareness.XP >= s.Balance.Requirement(s.Awareness.Level):
		// XP at or past the level requirement cannot come from real play;
		// keeping it would cascade unearned level-ups on the next grant.
		s.Awareness = NewAwareness()
	}
	if s.Pending == nil {
		s.CanClick = false
	}
}
