package game

import (
	"context"
	"time"
)

// Phase is one step in the level-up presentation sequence. The order is
// fixed: the bar fills, the new level is announced, the new commuter is
// revealed, then the caller is notified (completion checks hang off Notify).
type Phase string

const (
	PhaseFillBar  Phase = "fill_bar"
	PhaseAnnounce Phase = "announce"
	PhaseReveal   Phase = "reveal"
	PhaseNotify   Phase = "notify"
)

var phaseOrder = []Phase{PhaseFillBar, PhaseAnnounce, PhaseReveal, PhaseNotify}

// SequenceDelays separates the phases in time. Zero delays run the whole
// sequence synchronously, which is how tests drive it.
type SequenceDelays struct {
	FillBar  time.Duration
	Announce time.Duration
	Reveal   time.Duration
}

// DefaultSequenceDelays matches the pacing of the original presentation.
func DefaultSequenceDelays() SequenceDelays {
	return SequenceDelays{
		FillBar:  800 * time.Millisecond,
		Announce: 1 * time.Second,
		Reveal:   2 * time.Second,
	}
}

func (d SequenceDelays) after(p Phase) time.Duration {
	switch p {
	case PhaseFillBar:
		return d.FillBar
	case PhaseAnnounce:
		return d.Announce
	case PhaseReveal:
		return d.Reveal
	default:
		return 0
	}
}

// Sequencer plays level-up events through the phase order, strictly one
// event at a time so two level-ups never animate simultaneously. The context
// is the cancellation token: a superseded sequence (game reset, session
// deleted) stops between phases and never emits stale updates.
type Sequencer struct {
	Delays SequenceDelays
}

// Run emits each phase of each level-up in order, waiting the configured
// delay between phases. Returns the context error when cancelled mid-run.
func (q *Sequencer) Run(ctx context.Context, ups []LevelUp, emit func(Phase, LevelUp)) error {
	for _, up := range ups {
		for _, p := range phaseOrder {
			if err := ctx.Err(); err != nil {
				return err
			}
			emit(p, up)

			d := q.Delays.after(p)
			if d <= 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
			}
		}
	}
	return nil
}
