package scene

import (
	"fmt"

	"github.com/platform-eight/commute-engine/pkg/game"
)

// Position is a fixed layout slot for renderers. The engine never reads
// coordinates; it only hands out slot indexes.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scene is the static content for one platform: which entity types exist,
// their variation pools, the opening roster and the layout tables. Loaded
// once per session from a JSON file under the data directory.
type Scene struct {
	Name        string `json:"name"`
	FileName    string `json:"file_name"`
	Description string `json:"description,omitempty"`

	// Type catalogs: entity type -> ordered variation pool.
	CommuterTypes    map[string][]string `json:"commuter_types"`
	SetDressingTypes map[string][]string `json:"set_dressing_types"`

	// Opening roster, types in slot order.
	OpeningCommuters []string `json:"opening_commuters"`
	OpeningProps     []string `json:"opening_props"`

	// Layout tables indexed by entity slot.
	CommuterSlots []Position `json:"commuter_slots,omitempty"`
	PropSlots     []Position `json:"prop_slots,omitempty"`

	// Balance overrides; missing fields fall back to engine defaults.
	Balance *game.Balance `json:"balance,omitempty"`
}

// Validate checks the content invariants at load time, before any session is
// seeded from the scene. In particular the first opening commuter must carry
// at least two variations, so the scripted tutorial change always exists.
func (s *Scene) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scene has no name")
	}
	if len(s.OpeningCommuters) == 0 {
		return fmt.Errorf("scene %q has no opening commuters", s.Name)
	}

	for _, t := range s.OpeningCommuters {
		pool, ok := s.CommuterTypes[t]
		if !ok || len(pool) == 0 {
			return fmt.Errorf("scene %q: opening commuter type %q has no variation pool", s.Name, t)
		}
	}
	for _, t := range s.OpeningProps {
		pool, ok := s.SetDressingTypes[t]
		if !ok || len(pool) == 0 {
			return fmt.Errorf("scene %q: opening prop type %q has no variation pool", s.Name, t)
		}
	}

	first := s.OpeningCommuters[0]
	if len(s.CommuterTypes[first]) < 2 {
		return fmt.Errorf("scene %q: first commuter type %q needs at least two variations for the scripted change", s.Name, first)
	}

	for t, pool := range s.CommuterTypes {
		if len(pool) == 0 {
			return fmt.Errorf("scene %q: commuter type %q has an empty pool", s.Name, t)
		}
	}
	for t, pool := range s.SetDressingTypes {
		if len(pool) == 0 {
			return fmt.Errorf("scene %q: set-dressing type %q has an empty pool", s.Name, t)
		}
	}
	return nil
}

// SessionConfig builds the engine seed for this scene.
func (s *Scene) SessionConfig(failMode game.FailMode) game.SessionConfig {
	cfg := game.SessionConfig{
		Scene:            s.FileName,
		FailMode:         failMode,
		CommuterTypes:    game.TypeCatalog(s.CommuterTypes),
		SetDressingTypes: game.TypeCatalog(s.SetDressingTypes),
		OpeningCommuters: s.OpeningCommuters,
		OpeningProps:     s.OpeningProps,
	}
	if s.Balance != nil {
		cfg.Balance = *s.Balance
	}
	return cfg
}
