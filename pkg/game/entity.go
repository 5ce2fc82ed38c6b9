package game

// Kind distinguishes the two changeable populations on the platform.
type Kind string

const (
	KindCommuter    Kind = "commuter"
	KindSetDressing Kind = "set_dressing"
)

// Entity is one changeable scene actor: a commuter or a set-dressing prop.
// Entities are created by the registry and never destroyed during a session.
type Entity struct {
	ID               string   `json:"id"`
	Kind             Kind     `json:"kind"`
	Type             string   `json:"type"`              // selects which variation pool applies
	CurrentVariation string   `json:"current_variation"` // never empty once the entity exists
	VariationPool    []string `json:"variation_pool"`
	Slot             int      `json:"slot"` // insertion index, used by renderers for position lookup
}

// CanMutate reports whether the entity can be the subject of a mutate change.
// Single-variation entities can only enter the scene as "add" changes.
func (e *Entity) CanMutate() bool {
	return len(e.VariationPool) > 1
}
