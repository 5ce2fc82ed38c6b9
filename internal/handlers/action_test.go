package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-eight/commute-engine/internal/storage"
	"github.com/platform-eight/commute-engine/pkg/game"
)

func createTestSession(t *testing.T, handler *SessionHandler, body string) *game.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, "create failed: %s", rr.Body.String())

	var s game.Session
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
	return &s
}

func takeTrain(t *testing.T, handler *SessionHandler, id uuid.UUID) *TrainResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id.String()+"/train", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, "train failed: %s", rr.Body.String())

	var resp TrainResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return &resp
}

func clickEntity(t *testing.T, handler *SessionHandler, id uuid.UUID, entityID string) (*httptest.ResponseRecorder, *ClickResponse) {
	t.Helper()
	body := `{"entity_id":"` + entityID + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id.String()+"/click", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		return rr, nil
	}
	var resp ClickResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return rr, &resp
}

func TestSessionHandler_Train(t *testing.T) {
	handler, _, rec := setupSessionHandler(t)
	s := createTestSession(t, handler, `{"scene":"terrace_line.json"}`)

	// Days 2 and 3 are quiet observation days.
	for _, wantDay := range []int{2, 3} {
		resp := takeTrain(t, handler, s.ID)
		assert.Equal(t, wantDay, resp.Result.Day)
		assert.False(t, resp.Result.ChangeLive)
		assert.False(t, resp.Session.CanClick)
		assert.Nil(t, resp.Result.Missed)
	}

	// Day 4 brings the first change.
	resp := takeTrain(t, handler, s.ID)
	assert.Equal(t, 4, resp.Result.Day)
	assert.True(t, resp.Result.ChangeLive)
	assert.True(t, resp.Session.CanClick)
	require.NotNil(t, resp.Session.Pending)
	assert.Equal(t, "commuter-1", resp.Session.Pending.TargetID)

	assert.True(t, rec.has("day.advanced"))
	assert.False(t, rec.has("change.missed"))
}

func TestSessionHandler_ClickCorrect(t *testing.T) {
	handler, _, rec := setupSessionHandler(t)
	s := createTestSession(t, handler, `{"scene":"terrace_line.json"}`)

	for i := 0; i < 3; i++ {
		takeTrain(t, handler, s.ID)
	}

	rr, resp := clickEntity(t, handler, s.ID, "commuter-1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, game.OutcomeCorrect, resp.Result.Outcome)
	assert.Equal(t, 50, resp.Result.XPAwarded)
	assert.Equal(t, 50, resp.Session.Awareness.XP)
	assert.Equal(t, 1, resp.Session.Stats.ChangesFound)

	assert.True(t, rec.has("change.found"))
	assert.True(t, rec.has("xp.changed"))

	// A second click on the same change is already found, no double XP.
	rr, resp = clickEntity(t, handler, s.ID, "commuter-1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, game.OutcomeAlreadyFound, resp.Result.Outcome)
	assert.Equal(t, 0, resp.Result.XPAwarded)
	assert.Equal(t, 50, resp.Session.Awareness.XP)
}

func TestSessionHandler_ClickWrongRetry(t *testing.T) {
	handler, _, _ := setupSessionHandler(t)
	s := createTestSession(t, handler, `{"scene":"terrace_line.json"}`)

	for i := 0; i < 3; i++ {
		takeTrain(t, handler, s.ID)
	}

	rr, resp := clickEntity(t, handler, s.ID, "set_dressing-1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, game.OutcomeWrongEntity, resp.Result.Outcome)
	assert.Equal(t, game.StateRiding, resp.Result.State)

	// The change is still live; the right click still lands.
	rr, resp = clickEntity(t, handler, s.ID, "commuter-1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, game.OutcomeCorrect, resp.Result.Outcome)
}

func TestSessionHandler_ClickWrongHard(t *testing.T) {
	handler, _, rec := setupSessionHandler(t)
	s := createTestSession(t, handler, `{"scene":"terrace_line.json","fail_mode":"hard"}`)

	for i := 0; i < 3; i++ {
		takeTrain(t, handler, s.ID)
	}

	rr, resp := clickEntity(t, handler, s.ID, "set_dressing-1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, game.OutcomeWrongEntity, resp.Result.Outcome)
	assert.Equal(t, game.StateGameOver, resp.Result.State)
	assert.True(t, rec.has("session.game_over"))

	// The session is over; both actions now conflict.
	rr, _ = clickEntity(t, handler, s.ID, "commuter-1")
	assert.Equal(t, http.StatusConflict, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/train", nil)
	trainRR := httptest.NewRecorder()
	handler.ServeHTTP(trainRR, req)
	assert.Equal(t, http.StatusConflict, trainRR.Code)
}

func TestSessionHandler_ClickBeforeAnyChange(t *testing.T) {
	handler, _, rec := setupSessionHandler(t)
	s := createTestSession(t, handler, `{"scene":"terrace_line.json"}`)

	rr, resp := clickEntity(t, handler, s.ID, "commuter-1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, game.OutcomeNoPendingChange, resp.Result.Outcome)
	assert.Equal(t, 0, resp.Result.XPAwarded)
	assert.False(t, rec.has("change.found"))
}

func TestSessionHandler_MissedChange(t *testing.T) {
	handler, _, rec := setupSessionHandler(t)
	s := createTestSession(t, handler, `{"scene":"terrace_line.json"}`)

	for i := 0; i < 3; i++ {
		takeTrain(t, handler, s.ID)
	}

	// Ride past the day-4 change without finding it.
	resp := takeTrain(t, handler, s.ID)
	require.NotNil(t, resp.Result.Missed)
	assert.Equal(t, "commuter-1", resp.Result.Missed.TargetID)
	assert.Equal(t, 1, resp.Session.Stats.ChangesMissed)
	assert.Equal(t, 0, resp.Result.TrainXP)
	assert.True(t, rec.has("change.missed"))
}

func TestSessionHandler_ClickValidation(t *testing.T) {
	tests := []struct {
		name           string
		sessionID      string
		body           string
		expectedStatus int
	}{
		{
			name:           "missing entity_id",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			body:           `{broken`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "session not found",
			sessionID:      uuid.New().String(),
			body:           `{"entity_id":"commuter-1"}`,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, _ := setupSessionHandler(t)
			sessionID := tt.sessionID
			if sessionID == "" {
				s := createTestSession(t, handler, `{"scene":"terrace_line.json"}`)
				sessionID = s.ID.String()
			}

			req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+sessionID+"/click", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code, "body: %s", rr.Body.String())
		})
	}
}

func TestSessionHandler_TrainNotFound(t *testing.T) {
	handler, _, _ := setupSessionHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+uuid.New().String()+"/train", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSequenceRunner_EmitsAllPhases(t *testing.T) {
	handler := &SessionHandler{
		logger:  testLogger(),
		storage: storage.NewMockStorage(),
		effects: &effectsRecorder{},
		seqs:    newSequenceRunner(game.SequenceDelays{}),
	}
	rec := handler.effects.(*effectsRecorder)

	s := &game.Session{ID: uuid.New()}
	ups := []game.LevelUp{{From: 1, To: 2}, {From: 2, To: 3}}
	handler.runLevelUpSequence(s, ups)

	deadline := time.After(2 * time.Second)
	for {
		if len(rec.types()) >= 8 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("Expected 8 level-up phase events, got %d", len(rec.types()))
		case <-time.After(10 * time.Millisecond):
		}
	}

	wantPhases := []game.Phase{
		game.PhaseFillBar, game.PhaseAnnounce, game.PhaseReveal, game.PhaseNotify,
		game.PhaseFillBar, game.PhaseAnnounce, game.PhaseReveal, game.PhaseNotify,
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.events, 8)
	for i, e := range rec.events {
		assert.Equal(t, "level.up", e.Type)
		assert.Equal(t, wantPhases[i], e.Phase)
	}
}

func TestSequenceRunner_CancelStopsSequence(t *testing.T) {
	rec := &effectsRecorder{}
	handler := &SessionHandler{
		logger:  testLogger(),
		storage: storage.NewMockStorage(),
		effects: rec,
		seqs:    newSequenceRunner(game.SequenceDelays{FillBar: time.Hour}),
	}

	s := &game.Session{ID: uuid.New()}
	handler.runLevelUpSequence(s, []game.LevelUp{{From: 1, To: 2}})

	// Wait for the first phase, then cancel mid-delay.
	deadline := time.After(2 * time.Second)
	for len(rec.types()) == 0 {
		select {
		case <-deadline:
			t.Fatal("Sequence never started")
		case <-time.After(10 * time.Millisecond):
		}
	}
	handler.seqs.cancel(s.ID)

	time.Sleep(50 * time.Millisecond)
	events := rec.types()
	require.Len(t, events, 1)
	assert.Equal(t, "level.up", events[0])
}
