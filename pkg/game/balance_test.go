package game

import "testing"

func TestBalance_NormalizeFillsMissingFields(t *testing.T) {
	b := Balance{}.normalize()
	def := DefaultBalance()

	if b.MaxLevel != def.MaxLevel || b.FindXP != def.FindXP || b.TrainXP != def.TrainXP {
		t.Errorf("Defaults not applied: max_level=%d find_xp=%d train_xp=%d", b.MaxLevel, b.FindXP, b.TrainXP)
	}
	if b.AddChance() != def.AddChance() {
		t.Errorf("Expected default add probability %v, got %v", def.AddChance(), b.AddChance())
	}
}

func TestBalance_NormalizeKeepsExplicitZeroAddProbability(t *testing.T) {
	// A mutate-only schedule is legitimate content; zero must not be
	// mistaken for unset.
	b := Balance{AddProbability: floatPtr(0)}.normalize()
	if b.AddChance() != 0 {
		t.Errorf("Explicit zero add probability replaced with %v", b.AddChance())
	}

	b = Balance{AddProbability: floatPtr(0.3)}.normalize()
	if b.AddChance() != 0.3 {
		t.Errorf("Override add probability replaced with %v", b.AddChance())
	}
}

func TestBalance_NormalizeRejectsOutOfRangeAddProbability(t *testing.T) {
	def := DefaultBalance()
	for _, p := range []float64{-0.1, 1.5} {
		b := Balance{AddProbability: floatPtr(p)}.normalize()
		if b.AddChance() != def.AddChance() {
			t.Errorf("Probability %v: expected default %v, got %v", p, def.AddChance(), b.AddChance())
		}
	}
}
