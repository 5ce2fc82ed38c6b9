package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/platform-eight/commute-engine/pkg/game"
	"github.com/platform-eight/commute-engine/pkg/scene"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <scene.json> [...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &SceneValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid.\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type SceneValidator struct {
	errors []string
}

func (v *SceneValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("scene file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidToken(nameWithoutExt) {
		return fmt.Errorf("scene filename '%s' must be lowercase snake_case (e.g., terrace_line.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var sc scene.Scene
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&sc); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	if err := sc.Validate(); err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}

	v.validateScene(&sc)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *SceneValidator) validateScene(sc *scene.Scene) {
	for t, pool := range sc.CommuterTypes {
		v.validateTokenFormat("commuter type", t)
		for _, variation := range pool {
			v.validateTokenFormat("variation", variation)
		}
		v.validatePoolUnique("commuter type "+t, pool)
	}
	for t, pool := range sc.SetDressingTypes {
		v.validateTokenFormat("set-dressing type", t)
		for _, variation := range pool {
			v.validateTokenFormat("variation", variation)
		}
		v.validatePoolUnique("set-dressing type "+t, pool)
	}

	balance := game.DefaultBalance()
	if sc.Balance != nil {
		if p := sc.Balance.AddProbability; p != nil && (*p < 0 || *p > 1) {
			v.addError(fmt.Sprintf("balance add_probability %v is outside [0, 1]", *p))
		}
		if sc.Balance.MaxPerKind > 0 {
			balance.MaxPerKind = sc.Balance.MaxPerKind
		}
	}

	if len(sc.OpeningCommuters) > balance.MaxPerKind {
		v.addError(fmt.Sprintf("opening roster has %d commuters, capacity is %d", len(sc.OpeningCommuters), balance.MaxPerKind))
	}
	if len(sc.OpeningProps) > balance.MaxPerKind {
		v.addError(fmt.Sprintf("opening roster has %d props, capacity is %d", len(sc.OpeningProps), balance.MaxPerKind))
	}

	if len(sc.CommuterSlots) > 0 && len(sc.CommuterSlots) < balance.MaxPerKind {
		v.addError(fmt.Sprintf("commuter_slots has %d entries, need %d for a full platform", len(sc.CommuterSlots), balance.MaxPerKind))
	}
	if len(sc.PropSlots) > 0 && len(sc.PropSlots) < balance.MaxPerKind {
		v.addError(fmt.Sprintf("prop_slots has %d entries, need %d for a full platform", len(sc.PropSlots), balance.MaxPerKind))
	}
}

func (v *SceneValidator) validatePoolUnique(context string, pool []string) {
	seen := make(map[string]bool, len(pool))
	for _, variation := range pool {
		if seen[variation] {
			v.addError(fmt.Sprintf("%s repeats variation '%s'", context, variation))
		}
		seen[variation] = true
	}
}

func (v *SceneValidator) validateTokenFormat(fieldName, token string) {
	if token == "" {
		return
	}
	if !isValidToken(token) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, token))
	}
}

func (v *SceneValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validTokenRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidToken(token string) bool {
	return validTokenRegex.MatchString(token)
}
