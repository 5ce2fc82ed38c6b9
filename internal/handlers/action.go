package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/platform-eight/commute-engine/pkg/game"
)

// ClickRequest defines the request body for click verification
type ClickRequest struct {
	EntityID string `json:"entity_id"`
}

// ClickResponse pairs the verification result with the updated session
type ClickResponse struct {
	Result  *game.ClickResult `json:"result"`
	Session *game.Session     `json:"session"`
}

// TrainResponse pairs the day transition summary with the updated session
type TrainResponse struct {
	Result  *game.TrainResult `json:"result"`
	Session *game.Session     `json:"session"`
}

func (h *SessionHandler) handleClick(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	s, ok := h.loadSession(w, r, sessionID)
	if !ok {
		return
	}

	var req ClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in click request", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.EntityID == "" {
		h.writeError(w, http.StatusBadRequest, "entity_id field is required")
		return
	}

	res, err := s.Click(req.EntityID)
	if err != nil {
		if errors.Is(err, game.ErrSessionOver) {
			h.writeError(w, http.StatusConflict, "Session is over")
			return
		}
		h.logger.Error("Click verification failed", "error", err, "id", sessionID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to verify click")
		return
	}

	if !h.saveSession(w, r, s) {
		return
	}

	h.publishClickEffects(r.Context(), s, res, req.EntityID)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ClickResponse{Result: res, Session: s}); err != nil {
		h.logger.Error("Failed to encode click response", "error", err)
	}
}

func (h *SessionHandler) handleTrain(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	s, ok := h.loadSession(w, r, sessionID)
	if !ok {
		return
	}

	res, err := s.TakeTrain()
	if err != nil {
		if errors.Is(err, game.ErrSessionOver) {
			h.writeError(w, http.StatusConflict, "Session is over")
			return
		}
		h.logger.Error("Day transition failed", "error", err, "id", sessionID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to take the train")
		return
	}
	if res == nil {
		h.writeError(w, http.StatusConflict, "Day transition already in progress")
		return
	}

	if !h.saveSession(w, r, s) {
		return
	}

	h.publishTrainEffects(r.Context(), s, res)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(TrainResponse{Result: res, Session: s}); err != nil {
		h.logger.Error("Failed to encode train response", "error", err)
	}
}

func (h *SessionHandler) loadSession(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) (*game.Session, bool) {
	if sessionID == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, "Session ID is required")
		return nil, false
	}

	s, err := h.storage.LoadSession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", sessionID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to load session")
		return nil, false
	}
	if s == nil {
		h.logger.Warn("Session not found", "id", sessionID.String())
		h.writeError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	s.Normalize()
	return s, true
}

func (h *SessionHandler) saveSession(w http.ResponseWriter, r *http.Request, s *game.Session) bool {
	if err := h.storage.SaveSession(r.Context(), s.ID, s); err != nil {
		h.logger.Error("Failed to save session", "error", err, "id", s.ID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to save session")
		return false
	}
	return true
}

func (h *SessionHandler) publishClickEffects(ctx context.Context, s *game.Session, res *game.ClickResult, entityID string) {
	if h.effects == nil {
		return
	}

	switch res.Outcome {
	case game.OutcomeCorrect:
		if err := h.effects.PublishChangeFound(ctx, s.ID, entityID); err != nil {
			h.logger.Warn("Failed to publish change.found", "error", err)
		}
		if err := h.effects.PublishXPChanged(ctx, s.ID, res.XPAwarded, s.Awareness); err != nil {
			h.logger.Warn("Failed to publish xp.changed", "error", err)
		}
		h.runLevelUpSequence(s, res.LevelUps)
		if res.State == game.StateCompleted {
			if err := h.effects.PublishSessionCompleted(ctx, s.ID, s.Stats); err != nil {
				h.logger.Warn("Failed to publish session.completed", "error", err)
			}
		}

	case game.OutcomeWrongEntity:
		if res.State == game.StateGameOver {
			if err := h.effects.PublishSessionGameOver(ctx, s.ID, s.Stats); err != nil {
				h.logger.Warn("Failed to publish session.game_over", "error", err)
			}
		}
	}
}

func (h *SessionHandler) publishTrainEffects(ctx context.Context, s *game.Session, res *game.TrainResult) {
	if h.effects == nil {
		return
	}

	if res.Missed != nil {
		if err := h.effects.PublishChangeMissed(ctx, s.ID, res.Missed.TargetID); err != nil {
			h.logger.Warn("Failed to publish change.missed", "error", err)
		}
	}
	if res.TrainXP > 0 {
		if err := h.effects.PublishXPChanged(ctx, s.ID, res.TrainXP, s.Awareness); err != nil {
			h.logger.Warn("Failed to publish xp.changed", "error", err)
		}
	}
	h.runLevelUpSequence(s, res.LevelUps)
	if err := h.effects.PublishDayAdvanced(ctx, s.ID, res.Day, res.ChangeLive); err != nil {
		h.logger.Warn("Failed to publish day.advanced", "error", err)
	}
	if res.State == game.StateCompleted {
		if err := h.effects.PublishSessionCompleted(ctx, s.ID, s.Stats); err != nil {
			h.logger.Warn("Failed to publish session.completed", "error", err)
		}
	}
}

// runLevelUpSequence plays the level-up presentation phases asynchronously.
// The request does not wait on it; each phase lands on the event stream.
func (h *SessionHandler) runLevelUpSequence(s *game.Session, ups []game.LevelUp) {
	if len(ups) == 0 {
		return
	}
	sessionID := s.ID
	h.seqs.run(sessionID, ups, func(p game.Phase, up game.LevelUp) {
		if err := h.effects.PublishLevelUp(context.Background(), sessionID, p, up); err != nil {
			h.logger.Warn("Failed to publish level.up", "error", err, "phase", p)
		}
	})
}

// sequenceRunner owns the in-flight level-up sequences, one per session.
// Starting a new sequence supersedes (cancels) the previous one, and deleting
// a session cancels outright, so stale phases never reach the event stream.
type sequenceRunner struct {
	mu      sync.Mutex
	seq     game.Sequencer
	running map[uuid.UUID]*seqHandle
}

type seqHandle struct {
	cancel context.CancelFunc
}

func newSequenceRunner(delays game.SequenceDelays) *sequenceRunner {
	return &sequenceRunner{
		seq:     game.Sequencer{Delays: delays},
		running: make(map[uuid.UUID]*seqHandle),
	}
}

func (r *sequenceRunner) run(sessionID uuid.UUID, ups []game.LevelUp, emit func(game.Phase, game.LevelUp)) {
	ctx, cancel := context.WithCancel(context.Background())
	handle := &seqHandle{cancel: cancel}

	r.mu.Lock()
	if prev, ok := r.running[sessionID]; ok {
		prev.cancel()
	}
	r.running[sessionID] = handle
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			// Only clear our own registration; a newer sequence may have
			// replaced it already.
			if r.running[sessionID] == handle {
				delete(r.running, sessionID)
			}
			r.mu.Unlock()
			cancel()
		}()
		_ = r.seq.Run(ctx, ups, emit)
	}()
}

func (r *sequenceRunner) cancel(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.running[sessionID]; ok {
		h.cancel()
		delete(r.running, sessionID)
	}
}
