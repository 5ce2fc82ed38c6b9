package scene

import (
	"strings"
	"testing"
)

func validScene() *Scene {
	return &Scene{
		Name:     "Terrace Line",
		FileName: "terrace_line.json",
		CommuterTypes: map[string][]string{
			"commuter1": {"red_coat", "blue_coat"},
			"commuter2": {"hat"},
		},
		SetDressingTypes: map[string][]string{
			"bench": {"wood", "metal"},
		},
		OpeningCommuters: []string{"commuter1", "commuter2"},
		OpeningProps:     []string{"bench"},
	}
}

func TestScene_Validate(t *testing.T) {
	if err := validScene().Validate(); err != nil {
		t.Fatalf("Valid scene rejected: %v", err)
	}
}

func TestScene_Validate_NoCommuters(t *testing.T) {
	s := validScene()
	s.OpeningCommuters = nil
	if err := s.Validate(); err == nil {
		t.Fatal("Expected error for a scene without opening commuters")
	}
}

func TestScene_Validate_FirstCommuterSingleVariation(t *testing.T) {
	s := validScene()
	// A first commuter without a second variation would make the scripted
	// day-4 change impossible; that is a content error, not a runtime skip.
	s.OpeningCommuters = []string{"commuter2", "commuter1"}
	err := s.Validate()
	if err == nil {
		t.Fatal("Expected error for single-variation first commuter")
	}
	if !strings.Contains(err.Error(), "at least two variations") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestScene_Validate_UnknownOpeningType(t *testing.T) {
	s := validScene()
	s.OpeningProps = []string{"fountain"}
	if err := s.Validate(); err == nil {
		t.Fatal("Expected error for an opening prop without a pool")
	}
}

func TestScene_Validate_EmptyPool(t *testing.T) {
	s := validScene()
	s.SetDressingTypes["poster"] = []string{}
	if err := s.Validate(); err == nil {
		t.Fatal("Expected error for an empty variation pool")
	}
}

func TestScene_SessionConfig(t *testing.T) {
	s := validScene()
	cfg := s.SessionConfig("hard")

	if cfg.Scene != "terrace_line.json" {
		t.Errorf("Expected scene file name, got %q", cfg.Scene)
	}
	if string(cfg.FailMode) != "hard" {
		t.Errorf("Fail mode not carried, got %q", cfg.FailMode)
	}
	if len(cfg.OpeningCommuters) != 2 || len(cfg.OpeningProps) != 1 {
		t.Errorf("Opening roster not carried: %v / %v", cfg.OpeningCommuters, cfg.OpeningProps)
	}
	if cfg.Balance.MaxLevel != 0 {
		t.Errorf("Scene without balance override should leave it zero, got %d", cfg.Balance.MaxLevel)
	}
}
