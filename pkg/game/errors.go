package game

import "errors"

var (
	// ErrCapacityExceeded is returned by AddEntity when a population is at
	// its configured maximum. Selectors treat it as a skip, never a crash.
	ErrCapacityExceeded = errors.New("entity population at capacity")

	// ErrUnknownEntity is returned when an entity ID is not in the registry.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrInvalidVariation is returned when a variation is not in the
	// target entity's pool. The entity is left unchanged.
	ErrInvalidVariation = errors.New("variation not in entity pool")

	// ErrNoEligibleTarget is returned when a selector cannot find a valid
	// change candidate. The day simply has no change.
	ErrNoEligibleTarget = errors.New("no eligible change target")

	// ErrSessionOver is returned for actions on a completed or failed session.
	ErrSessionOver = errors.New("session is over")
)
