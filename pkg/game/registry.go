package game

import "fmt"

// Registry owns the two entity populations. All entity mutation goes through
// it so the invariants (capacity, pool membership) hold in one place.
type Registry struct {
	Commuters   []*Entity `json:"commuters"`
	SetDressing []*Entity `json:"set_dressing"`
	MaxPerKind  int       `json:"max_per_kind"`
}

// NewRegistry creates an empty registry with the given per-kind capacity.
func NewRegistry(maxPerKind int) *Registry {
	return &Registry{
		Commuters:   make([]*Entity, 0, maxPerKind),
		SetDressing: make([]*Entity, 0, maxPerKind),
		MaxPerKind:  maxPerKind,
	}
}

func (r *Registry) population(kind Kind) []*Entity {
	if kind == KindCommuter {
		return r.Commuters
	}
	return r.SetDressing
}

// Count returns the population size for a kind.
func (r *Registry) Count(kind Kind) int {
	return len(r.population(kind))
}

// AddEntity creates a new entity of the given type. The initial variation is
// the first element of the pool, and the slot is the insertion index.
// Returns ErrCapacityExceeded when the population is at MaxPerKind.
func (r *Registry) AddEntity(kind Kind, entityType string, pool []string) (*Entity, error) {
	pop := r.population(kind)
	if len(pop) >= r.MaxPerKind {
		return nil, fmt.Errorf("%w: %s", ErrCapacityExceeded, kind)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: type %q has no variations", ErrInvalidVariation, entityType)
	}

	e := &Entity{
		ID:               fmt.Sprintf("%s-%d", kind, len(pop)+1),
		Kind:             kind,
		Type:             entityType,
		CurrentVariation: pool[0],
		VariationPool:    append([]string(nil), pool...),
		Slot:             len(pop),
	}

	if kind == KindCommuter {
		r.Commuters = append(r.Commuters, e)
	} else {
		r.SetDressing = append(r.SetDressing, e)
	}
	return e, nil
}

// Find returns the entity with the given ID, or nil.
func (r *Registry) Find(id string) *Entity {
	for _, e := range r.Commuters {
		if e.ID == id {
			return e
		}
	}
	for _, e := range r.SetDressing {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// FirstCommuter returns the first-created commuter, the subject of the
// scripted first change. Nil when the platform is empty.
func (r *Registry) FirstCommuter() *Entity {
	if len(r.Commuters) == 0 {
		return nil
	}
	return r.Commuters[0]
}

// EligibleForMutation returns the entities of a kind whose pool holds more
// than one variation.
func (r *Registry) EligibleForMutation(kind Kind) []*Entity {
	var eligible []*Entity
	for _, e := range r.population(kind) {
		if e.CanMutate() {
			eligible = append(eligible, e)
		}
	}
	return eligible
}

// ApplyVariation sets an entity's current variation. On error the entity
// state is unchanged.
func (r *Registry) ApplyVariation(id, variation string) error {
	e := r.Find(id)
	if e == nil {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	for _, v := range e.VariationPool {
		if v == variation {
			e.CurrentVariation = variation
			return nil
		}
	}
	return fmt.Errorf("%w: %q for %s", ErrInvalidVariation, variation, id)
}
