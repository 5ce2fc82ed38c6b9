package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/platform-eight/commute-engine/pkg/game"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running commute-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	SceneOverride     string // If set, overrides the scene for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		ErrorHandlingMode: ErrorHandlingContinue,
		Logger:            func(format string, args ...interface{}) {},
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	// If this is not a sequence, return it as-is
	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	// This is a sequence - load all referenced cases
	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	sceneFile := suite.Scene
	if r.SceneOverride != "" {
		sceneFile = r.SceneOverride
	}

	session, err := r.createSession(ctx, sceneFile, suite.FailMode)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = session.ID

	defer func() {
		// Clean up the session regardless of outcome.
		if err := r.deleteSession(context.Background(), session.ID); err != nil {
			r.Logger("    warning: failed to delete session %s: %v", session.ID, err)
		}
	}()

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, session.ID, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] FAIL %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] PASS %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) runStep(ctx context.Context, sessionID uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	if step.Expectations.isEmpty() {
		result.Error = fmt.Errorf("step %q has no expectations; every step must assert something", step.Name)
		result.Duration = time.Since(start)
		return result
	}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	action := strings.TrimSpace(step.Action)
	var (
		session     *game.Session
		clickResult *game.ClickResult
		trainResult *game.TrainResult
		err         error
	)

	switch {
	case action == "train":
		trainResult, session, err = r.takeTrain(stepCtx, sessionID)
	case strings.HasPrefix(action, "click "):
		entityID := strings.TrimSpace(strings.TrimPrefix(action, "click "))
		clickResult, session, err = r.click(stepCtx, sessionID, entityID)
	default:
		err = fmt.Errorf("unknown action %q (supported: train, click <entity-id>)", action)
	}

	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	if err := checkExpectations(step.Expectations, session, clickResult, trainResult); err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

func checkExpectations(exp Expectations, s *game.Session, click *game.ClickResult, train *game.TrainResult) error {
	var errs []string
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if exp.Day != nil && s.Day != *exp.Day {
		fail("expected day %d, got %d", *exp.Day, s.Day)
	}
	if exp.State != nil && string(s.State) != *exp.State {
		fail("expected state %q, got %q", *exp.State, s.State)
	}
	if exp.CanClick != nil && s.CanClick != *exp.CanClick {
		fail("expected can_click %v, got %v", *exp.CanClick, s.CanClick)
	}
	if exp.Level != nil && s.Awareness.Level != *exp.Level {
		fail("expected level %d, got %d", *exp.Level, s.Awareness.Level)
	}
	if exp.XP != nil && s.Awareness.XP != *exp.XP {
		fail("expected xp %d, got %d", *exp.XP, s.Awareness.XP)
	}
	if exp.ChangesFound != nil && s.Stats.ChangesFound != *exp.ChangesFound {
		fail("expected changes_found %d, got %d", *exp.ChangesFound, s.Stats.ChangesFound)
	}
	if exp.ChangesMissed != nil && s.Stats.ChangesMissed != *exp.ChangesMissed {
		fail("expected changes_missed %d, got %d", *exp.ChangesMissed, s.Stats.ChangesMissed)
	}
	if exp.CommuterCount != nil && len(s.Registry.Commuters) != *exp.CommuterCount {
		fail("expected %d commuters, got %d", *exp.CommuterCount, len(s.Registry.Commuters))
	}

	if exp.Outcome != nil {
		if click == nil {
			fail("outcome expectation requires a click step")
		} else if string(click.Outcome) != *exp.Outcome {
			fail("expected outcome %q, got %q", *exp.Outcome, click.Outcome)
		}
	}
	if exp.XPAwarded != nil {
		if click == nil {
			fail("xp_awarded expectation requires a click step")
		} else if click.XPAwarded != *exp.XPAwarded {
			fail("expected xp_awarded %d, got %d", *exp.XPAwarded, click.XPAwarded)
		}
	}
	if exp.ChangeLive != nil {
		if train == nil {
			fail("change_live expectation requires a train step")
		} else if train.ChangeLive != *exp.ChangeLive {
			fail("expected change_live %v, got %v", *exp.ChangeLive, train.ChangeLive)
		}
	}
	if exp.MissedChange != nil {
		if train == nil {
			fail("missed_change expectation requires a train step")
		} else if (train.Missed != nil) != *exp.MissedChange {
			fail("expected missed_change %v, got %v", *exp.MissedChange, train.Missed != nil)
		}
	}
	if exp.PendingTarget != nil {
		if s.Pending == nil {
			fail("expected pending change on %q, but no change is live", *exp.PendingTarget)
		} else if s.Pending.TargetID != *exp.PendingTarget {
			fail("expected pending target %q, got %q", *exp.PendingTarget, s.Pending.TargetID)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("expectation failures:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// API helpers

type errorResponse struct {
	Error string `json:"error"`
}

type clickResponse struct {
	Result  *game.ClickResult `json:"result"`
	Session *game.Session     `json:"session"`
}

type trainResponse struct {
	Result  *game.TrainResult `json:"result"`
	Session *game.Session     `json:"session"`
}

func (r *Runner) createSession(ctx context.Context, sceneFile string, failMode string) (*game.Session, error) {
	reqBody := map[string]string{"scene": sceneFile}
	if failMode != "" {
		reqBody["fail_mode"] = failMode
	}

	body, err := r.doJSON(ctx, http.MethodPost, "/v1/sessions", reqBody, http.StatusCreated)
	if err != nil {
		return nil, err
	}

	var s game.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &s, nil
}

func (r *Runner) deleteSession(ctx context.Context, sessionID uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/v1/sessions/%s", r.BaseURL, sessionID), nil)
	if err != nil {
		return err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete returned status %d", resp.StatusCode)
	}
	return nil
}

func (r *Runner) click(ctx context.Context, sessionID uuid.UUID, entityID string) (*game.ClickResult, *game.Session, error) {
	body, err := r.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("/v1/sessions/%s/click", sessionID),
		map[string]string{"entity_id": entityID},
		http.StatusOK)
	if err != nil {
		return nil, nil, err
	}

	var resp clickResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to parse click response: %w", err)
	}
	return resp.Result, resp.Session, nil
}

func (r *Runner) takeTrain(ctx context.Context, sessionID uuid.UUID) (*game.TrainResult, *game.Session, error) {
	body, err := r.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("/v1/sessions/%s/train", sessionID),
		nil,
		http.StatusOK)
	if err != nil {
		return nil, nil, err
	}

	var resp trainResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to parse train response: %w", err)
	}
	return resp.Result, resp.Session, nil
}

func (r *Runner) doJSON(ctx context.Context, method, path string, reqBody interface{}, wantStatus int) ([]byte, error) {
	var payload io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		payload = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
