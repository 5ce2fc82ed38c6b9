package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// TypeCatalog maps an entity type to its known variation pool. Catalogs come
// from scene content and say which types can be introduced as new entities.
type TypeCatalog map[string][]string

// addableTypes returns the catalog types with at least one known variation,
// in stable order.
func (c TypeCatalog) addableTypes() []string {
	types := make([]string, 0, len(c))
	for t, pool := range c {
		if len(pool) > 0 {
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types
}

// ChangeTarget is the per-population capability the change selector works
// against: list mutation candidates and apply a chosen variation. Both entity
// kinds share the selection logic through it.
type ChangeTarget interface {
	Candidates() []*Entity
	Apply(entityID, variation string) error
}

// registryTarget adapts one registry population to ChangeTarget.
type registryTarget struct {
	reg  *Registry
	kind Kind
}

func (t registryTarget) Candidates() []*Entity {
	return t.reg.EligibleForMutation(t.kind)
}

func (t registryTarget) Apply(entityID, variation string) error {
	return t.reg.ApplyVariation(entityID, variation)
}

// mutateRandom picks a uniformly random mutation candidate and a uniformly
// random variation different from its current one, applies it, and returns
// the resulting change. ErrNoEligibleTarget when nothing can mutate.
func mutateRandom(rng *rand.Rand, target ChangeTarget) (*PendingChange, error) {
	candidates := target.Candidates()
	if len(candidates) == 0 {
		return nil, ErrNoEligibleTarget
	}

	e := candidates[rng.Intn(len(candidates))]
	to, err := pickDifferentVariation(rng, e.VariationPool, e.CurrentVariation)
	if err != nil {
		return nil, err
	}

	from := e.CurrentVariation
	if err := target.Apply(e.ID, to); err != nil {
		return nil, err
	}
	return &PendingChange{
		TargetID: e.ID,
		Action:   ActionMutate,
		From:     from,
		To:       to,
	}, nil
}

// scriptedFirstChange produces the deterministic day-4 tutorial change: the
// first-ever-created commuter mutates to the first non-current variation in
// its pool. Roster validation at session start guarantees a second variation
// exists, so an error here is a programming bug, not a playable state.
func scriptedFirstChange(reg *Registry) (*PendingChange, error) {
	e := reg.FirstCommuter()
	if e == nil {
		return nil, fmt.Errorf("%w: no commuters on the platform", ErrNoEligibleTarget)
	}

	for _, v := range e.VariationPool {
		if v != e.CurrentVariation {
			from := e.CurrentVariation
			if err := reg.ApplyVariation(e.ID, v); err != nil {
				return nil, err
			}
			return &PendingChange{
				TargetID: e.ID,
				Action:   ActionMutate,
				From:     from,
				To:       v,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: first commuter has a single variation", ErrNoEligibleTarget)
}

// selectCommuterChange picks a random commuter change for days past the
// scripted one. Selection is filtered to mutation-eligible commuters so a
// single-variation pick never wastes the day.
func selectCommuterChange(rng *rand.Rand, reg *Registry) (*PendingChange, error) {
	return mutateRandom(rng, registryTarget{reg: reg, kind: KindCommuter})
}

// selectSetDressingChange makes the day's set-dressing change: add a new prop
// with probability addProbability (forced while the platform is sparse),
// otherwise mutate an existing one. A failed mutate falls back to add; when
// add is also impossible the day has no change.
func selectSetDressingChange(rng *rand.Rand, reg *Registry, catalog TypeCatalog, addProbability float64, forcedAddFloor int) (*PendingChange, error) {
	atCap := reg.Count(KindSetDressing) >= reg.MaxPerKind
	forced := reg.Count(KindSetDressing) < forcedAddFloor

	if !atCap && (forced || rng.Float64() < addProbability) {
		return addRandomProp(rng, reg, catalog)
	}

	ch, err := mutateRandom(rng, registryTarget{reg: reg, kind: KindSetDressing})
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, ErrNoEligibleTarget) {
		return nil, err
	}
	if atCap {
		return nil, ErrNoEligibleTarget
	}
	return addRandomProp(rng, reg, catalog)
}

// addRandomProp introduces a new set-dressing entity of a uniformly random
// catalog type. The new entity itself is the pending change.
func addRandomProp(rng *rand.Rand, reg *Registry, catalog TypeCatalog) (*PendingChange, error) {
	types := catalog.addableTypes()
	if len(types) == 0 {
		return nil, ErrNoEligibleTarget
	}

	t := types[rng.Intn(len(types))]
	e, err := reg.AddEntity(KindSetDressing, t, catalog[t])
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			return nil, ErrNoEligibleTarget
		}
		return nil, err
	}
	return &PendingChange{
		TargetID: e.ID,
		Action:   ActionAdd,
		To:       e.CurrentVariation,
	}, nil
}
