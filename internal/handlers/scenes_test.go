package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/platform-eight/commute-engine/internal/storage"
	"github.com/platform-eight/commute-engine/pkg/scene"
)

func TestSceneHandler_List(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	mockStorage.AddScene("terrace_line.json", testScene())
	mockStorage.AddScene("night_market.json", &scene.Scene{
		Name:             "Night Market",
		FileName:         "night_market.json",
		CommuterTypes:    map[string][]string{"vendor": {"apron", "jacket"}},
		OpeningCommuters: []string{"vendor"},
	})
	handler := NewSceneHandler(testLogger(), mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/v1/scenes", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var scenes map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&scenes); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(scenes) != 2 {
		t.Errorf("Expected 2 scenes, got %d", len(scenes))
	}
	if scenes["Terrace Line"] != "terrace_line.json" {
		t.Errorf("Expected terrace_line.json for Terrace Line, got %q", scenes["Terrace Line"])
	}
	if scenes["Night Market"] != "night_market.json" {
		t.Errorf("Expected night_market.json for Night Market, got %q", scenes["Night Market"])
	}
}

func TestSceneHandler_Get(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	mockStorage.AddScene("terrace_line.json", testScene())
	handler := NewSceneHandler(testLogger(), mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/v1/scenes/terrace_line.json", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var sc scene.Scene
	if err := json.NewDecoder(rr.Body).Decode(&sc); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if sc.Name != "Terrace Line" {
		t.Errorf("Expected scene name 'Terrace Line', got %q", sc.Name)
	}
	if len(sc.CommuterTypes) == 0 {
		t.Error("Expected commuter types in scene")
	}
}

func TestSceneHandler_GetErrors(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	mockStorage.AddScene("terrace_line.json", testScene())
	handler := NewSceneHandler(testLogger(), mockStorage)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{
			name:           "unknown scene",
			method:         http.MethodGet,
			path:           "/v1/scenes/missing.json",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "path traversal",
			method:         http.MethodGet,
			path:           "/v1/scenes/..%2Fsecrets.json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "method not allowed",
			method:         http.MethodPost,
			path:           "/v1/scenes",
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Response body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}
