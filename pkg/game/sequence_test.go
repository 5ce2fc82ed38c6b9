package game

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSequencer_PhaseOrder(t *testing.T) {
	var seq Sequencer // zero delays: fully synchronous

	ups := []LevelUp{{From: 1, To: 2}, {From: 2, To: 3}}
	type step struct {
		phase Phase
		up    LevelUp
	}
	var steps []step

	err := seq.Run(context.Background(), ups, func(p Phase, up LevelUp) {
		steps = append(steps, step{p, up})
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []step{
		{PhaseFillBar, ups[0]}, {PhaseAnnounce, ups[0]}, {PhaseReveal, ups[0]}, {PhaseNotify, ups[0]},
		{PhaseFillBar, ups[1]}, {PhaseAnnounce, ups[1]}, {PhaseReveal, ups[1]}, {PhaseNotify, ups[1]},
	}
	if len(steps) != len(want) {
		t.Fatalf("Expected %d steps, got %d", len(want), len(steps))
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("Step %d: expected %v %v, got %v %v",
				i, want[i].phase, want[i].up, steps[i].phase, steps[i].up)
		}
	}
}

func TestSequencer_NoInterleaving(t *testing.T) {
	var seq Sequencer

	ups := []LevelUp{{From: 1, To: 2}, {From: 2, To: 3}, {From: 3, To: 4}}
	current := -1
	err := seq.Run(context.Background(), ups, func(p Phase, up LevelUp) {
		if p == PhaseFillBar {
			current++
		}
		if up != ups[current] {
			t.Fatalf("Phase %s of %v emitted while event %v is in flight", p, up, ups[current])
		}
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestSequencer_Cancellation(t *testing.T) {
	seq := Sequencer{Delays: SequenceDelays{FillBar: 50 * time.Millisecond}}

	ctx, cancel := context.WithCancel(context.Background())
	var emitted []Phase
	done := make(chan error, 1)
	go func() {
		done <- seq.Run(ctx, []LevelUp{{From: 1, To: 2}}, func(p Phase, up LevelUp) {
			emitted = append(emitted, p)
			if p == PhaseFillBar {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Sequencer did not stop after cancellation")
	}

	// Cancelled during the fill-bar delay: no later phase may fire.
	if len(emitted) != 1 || emitted[0] != PhaseFillBar {
		t.Errorf("Stale phases emitted after cancellation: %v", emitted)
	}
}
