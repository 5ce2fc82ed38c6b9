package runner

import (
	"time"

	"github.com/google/uuid"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name     string     `json:"name"`
	Scene    string     `json:"scene,omitempty"`     // Used for regular tests
	FailMode string     `json:"fail_mode,omitempty"` // Optional: retry or hard
	Steps    []TestStep `json:"steps,omitempty"`     // Used for regular tests
	Cases    []string   `json:"cases,omitempty"`     // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single test interaction and its expected outcomes.
// Actions: "train" rides to the next day, "click <entity-id>" calls out a
// change on that entity.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Action       string       `json:"action"`
	Expectations Expectations `json:"expectations"`
}

// Expectations defines what to check after a test step executes.
// All fields are optional; only set fields are verified.
type Expectations struct {
	// Session properties - aligned with pkg/game/session.go
	Day           *int    `json:"day,omitempty"`
	State         *string `json:"state,omitempty"`
	CanClick      *bool   `json:"can_click,omitempty"`
	Level         *int    `json:"level,omitempty"`
	XP            *int    `json:"xp,omitempty"`
	ChangesFound  *int    `json:"changes_found,omitempty"`
	ChangesMissed *int    `json:"changes_missed,omitempty"`
	CommuterCount *int    `json:"commuter_count,omitempty"`

	// Action result properties
	Outcome       *string `json:"outcome,omitempty"`        // click steps
	XPAwarded     *int    `json:"xp_awarded,omitempty"`     // click steps
	ChangeLive    *bool   `json:"change_live,omitempty"`    // train steps
	MissedChange  *bool   `json:"missed_change,omitempty"`  // train steps
	PendingTarget *string `json:"pending_target,omitempty"` // train steps; requires a live change
}

// isEmpty reports whether no expectation field is set. An all-empty block
// means the step verifies nothing, which is always a case-file mistake.
func (e Expectations) isEmpty() bool {
	return e == Expectations{}
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the session used for this test
}
