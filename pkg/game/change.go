package game

import "math/rand"

// Action is the kind of daily change.
type Action string

const (
	// ActionMutate alters the current variation of an existing entity.
	ActionMutate Action = "mutate"
	// ActionAdd introduces a brand-new entity; its appearance is the change.
	ActionAdd Action = "add"
)

// PendingChange is the single active daily puzzle: the one entity difference
// the player must find. At most one exists at a time, and its fields are
// fixed once created.
type PendingChange struct {
	TargetID string `json:"target_id"`
	Action   Action `json:"action"`
	From     string `json:"from,omitempty"` // mutate only; From != To always
	To       string `json:"to,omitempty"`
	Found    bool   `json:"found"`
}

// ChangeRecord is a resolved change kept for the session summary.
type ChangeRecord struct {
	Day    int           `json:"day"`
	Change PendingChange `json:"change"`
}

// pickDifferentVariation returns a uniformly random pool entry other than
// current. ErrNoEligibleTarget when the pool holds no alternative.
func pickDifferentVariation(rng *rand.Rand, pool []string, current string) (string, error) {
	alts := make([]string, 0, len(pool))
	for _, v := range pool {
		if v != current {
			alts = append(alts, v)
		}
	}
	if len(alts) == 0 {
		return "", ErrNoEligibleTarget
	}
	return alts[rng.Intn(len(alts))], nil
}
