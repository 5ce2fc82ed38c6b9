package game

// Outcome classifies a player click against the pending change.
type Outcome string

const (
	// OutcomeNoPendingChange means no change is live. Clicking is normally
	// gated off in this state; the verifier is defensive anyway.
	OutcomeNoPendingChange Outcome = "no_pending_change"
	// OutcomeWrongEntity means the clicked entity is not the changed one.
	OutcomeWrongEntity Outcome = "wrong_entity"
	// OutcomeAlreadyFound is an ignorable duplicate click.
	OutcomeAlreadyFound Outcome = "already_found"
	// OutcomeCorrect is returned exactly once per change.
	OutcomeCorrect Outcome = "correct"
)

// verifyClick matches a clicked entity against the pending change. This is
// the only code path that sets Found.
func verifyClick(pc *PendingChange, entityID string) Outcome {
	switch {
	case pc == nil:
		return OutcomeNoPendingChange
	case pc.Found:
		return OutcomeAlreadyFound
	case entityID != pc.TargetID:
		return OutcomeWrongEntity
	default:
		pc.Found = true
		return OutcomeCorrect
	}
}
