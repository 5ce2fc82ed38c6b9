package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/platform-eight/commute-engine/internal/storage"
)

type SceneHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

func NewSceneHandler(log *slog.Logger, storage storage.Storage) *SceneHandler {
	return &SceneHandler{
		log:     log,
		storage: storage,
	}
}

// ServeHTTP handles HTTP requests for scene content
// Routes:
// GET /v1/scenes            - List available scenes (name -> filename)
// GET /v1/scenes/{filename} - Read a single scene definition
func (h *SceneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filename := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scenes"), "/")
	if filename == "" {
		h.handleList(w, r)
		return
	}
	h.handleGet(w, r, filename)
}

func (h *SceneHandler) handleList(w http.ResponseWriter, r *http.Request) {
	scenes, err := h.storage.ListScenes(r.Context())
	if err != nil {
		h.log.Error("Failed to list scenes", "error", err)
		http.Error(w, "Failed to list scenes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(scenes); err != nil {
		h.log.Error("Failed to encode scene list", "error", err)
	}
}

func (h *SceneHandler) handleGet(w http.ResponseWriter, r *http.Request, filename string) {
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	sc, err := h.storage.GetScene(r.Context(), filename)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "Scene not found", http.StatusNotFound)
			return
		}
		h.log.Error("Failed to get scene", "error", err, "filename", filename)
		http.Error(w, "Failed to retrieve scene", http.StatusInternalServerError)
		return
	}

	data, err := json.Marshal(sc)
	if err != nil {
		h.log.Error("Failed to marshal scene", "error", err, "filename", filename)
		http.Error(w, "Failed to process scene", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
