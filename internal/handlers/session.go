package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/platform-eight/commute-engine/internal/storage"
	"github.com/platform-eight/commute-engine/pkg/game"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Effects is the slice of the event broadcaster the handlers publish to.
// Publishing is fire-and-forget; failures are logged, never surfaced.
type Effects interface {
	PublishChangeFound(ctx context.Context, sessionID uuid.UUID, entityID string) error
	PublishChangeMissed(ctx context.Context, sessionID uuid.UUID, entityID string) error
	PublishXPChanged(ctx context.Context, sessionID uuid.UUID, delta int, a game.Awareness) error
	PublishLevelUp(ctx context.Context, sessionID uuid.UUID, phase game.Phase, up game.LevelUp) error
	PublishDayAdvanced(ctx context.Context, sessionID uuid.UUID, day int, changeLive bool) error
	PublishSessionCompleted(ctx context.Context, sessionID uuid.UUID, stats game.Stats) error
	PublishSessionGameOver(ctx context.Context, sessionID uuid.UUID, stats game.Stats) error
}

type SessionHandler struct {
	storage  storage.Storage
	logger   *slog.Logger
	effects  Effects
	failMode game.FailMode
	seqs     *sequenceRunner
}

func NewSessionHandler(logger *slog.Logger, storage storage.Storage, effects Effects, failMode game.FailMode) *SessionHandler {
	return &SessionHandler{
		storage:  storage,
		logger:   logger,
		effects:  effects,
		failMode: failMode,
		seqs:     newSequenceRunner(game.DefaultSequenceDelays()),
	}
}

// ServeHTTP handles HTTP requests for session operations
// Routes:
// POST /v1/sessions              - Create new session
// GET /v1/sessions/{id}          - Read session by ID
// DELETE /v1/sessions/{id}       - Delete session by ID
// POST /v1/sessions/{id}/click   - Verify a clicked entity
// POST /v1/sessions/{id}/train   - Take the train to the next day
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	var (
		sessionID uuid.UUID
		action    string
		err       error
	)

	if path != "" {
		parts := strings.SplitN(path, "/", 2)
		sessionID, err = uuid.Parse(parts[0])
		if err != nil {
			h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
			h.writeError(w, http.StatusBadRequest, "Invalid session ID format")
			return
		}
		if len(parts) == 2 {
			action = parts[1]
		}
	}

	switch {
	case action == "click" && r.Method == http.MethodPost:
		h.handleClick(w, r, sessionID)

	case action == "train" && r.Method == http.MethodPost:
		h.handleTrain(w, r, sessionID)

	case action != "":
		h.logger.Warn("Unknown session action", "action", action)
		h.writeError(w, http.StatusNotFound, "Unknown action. Supported actions: click, train")

	case r.Method == http.MethodPost:
		h.handleCreate(w, r)

	case r.Method == http.MethodGet:
		if sessionID == uuid.Nil {
			h.writeError(w, http.StatusBadRequest, "Session ID is required for GET requests")
			return
		}
		h.handleRead(w, r, sessionID)

	case r.Method == http.MethodDelete:
		if sessionID == uuid.Nil {
			h.writeError(w, http.StatusBadRequest, "Session ID is required for DELETE requests")
			return
		}
		h.handleDelete(w, r, sessionID)

	default:
		h.logger.Warn("Method not allowed for session endpoint", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, DELETE")
	}
}

func (h *SessionHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}

// CreateSessionRequest defines the request body for creating a new session
type CreateSessionRequest struct {
	Scene    string `json:"scene"`               // Required: scene filename
	FailMode string `json:"fail_mode,omitempty"` // Optional: "retry" or "hard"
}

// ensureJSONExtension adds .json extension if not present
func ensureJSONExtension(s string) string {
	if s == "" {
		return ""
	}
	if !strings.HasSuffix(s, ".json") {
		return s + ".json"
	}
	return s
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new session")

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	req.Scene = ensureJSONExtension(strings.ToLower(strings.TrimSpace(req.Scene)))
	if req.Scene == "" {
		h.logger.Warn("Missing required field: scene")
		h.writeError(w, http.StatusBadRequest, "scene field is required")
		return
	}

	failMode := h.failMode
	switch strings.ToLower(req.FailMode) {
	case "":
	case "retry":
		failMode = game.FailModeRetry
	case "hard":
		failMode = game.FailModeHard
	default:
		h.writeError(w, http.StatusBadRequest, "Invalid fail_mode: supported values are retry and hard")
		return
	}

	sc, err := h.storage.GetScene(r.Context(), req.Scene)
	if err != nil {
		h.logger.Warn("Failed to load scene", "scene", req.Scene, "error", err)
		h.writeError(w, http.StatusBadRequest, "Failed to load scene: "+err.Error())
		return
	}

	if err := sc.Validate(); err != nil {
		h.logger.Error("Scene content failed validation", "scene", req.Scene, "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid scene content: "+err.Error())
		return
	}

	s, err := game.NewSession(sc.SessionConfig(failMode))
	if err != nil {
		h.logger.Error("Failed to create session", "scene", req.Scene, "error", err)
		h.writeError(w, http.StatusBadRequest, "Failed to create session: "+err.Error())
		return
	}

	if err := h.storage.SaveSession(r.Context(), s.ID, s); err != nil {
		h.logger.Error("Failed to save new session", "error", err, "id", s.ID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.Debug("Session created successfully", "id", s.ID.String(), "scene", req.Scene)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(s); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	s, err := h.storage.LoadSession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", sessionID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}

	if s == nil {
		h.logger.Warn("Session not found", "id", sessionID.String())
		h.writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	s.Normalize()

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(s); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	// Stop any level-up sequence still animating for this session.
	h.seqs.cancel(sessionID)

	if err := h.storage.DeleteSession(r.Context(), sessionID); err != nil {
		h.logger.Error("Failed to delete session", "error", err, "id", sessionID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	h.logger.Debug("Session deleted successfully", "id", sessionID.String())
	w.WriteHeader(http.StatusNoContent)
}
