package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"tabletrack/internal/production"
)

type createPressRunRequest struct {
	BatchID        *json.Number `json:"batch_id"`
	ReceivedWeight *json.Number `json:"received_weight"`
	TabletWeight   *json.Number `json:"tablet_weight"`
}

// PressResource serves /api/press and /api/press/{id}/complete.
func PressResource(w http.ResponseWriter, r *http.Request) {
	if !available(w, r) {
		return
	}

	segments := resourcePath(r, "/api/press")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listPressRuns(w, r)
		case http.MethodPost:
			createPressRun(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	}

	runID, ok := parseID(segments[0])
	if !ok || len(segments) != 2 || segments[1] != "complete" {
		NotFound(w, r)
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, http.MethodPatch)
		return
	}
	completePressRun(w, r, runID)
}

func listPressRuns(w http.ResponseWriter, r *http.Request) {
	var batchID uint
	if raw := strings.TrimSpace(r.URL.Query().Get("batch_id")); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "batch_id must be a positive integer")
			return
		}
		batchID = id
	}
	runs, err := service.ListPressRuns(r.Context(), batchID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func createPressRun(w http.ResponseWriter, r *http.Request) {
	var payload createPressRunRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	created, err := service.CreatePressRun(r.Context(), positiveID(payload.BatchID), numberValue(payload.ReceivedWeight), numberValue(payload.TabletWeight))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func completePressRun(w http.ResponseWriter, r *http.Request, runID uint) {
	var payload production.CompletionInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	updated, err := service.CompletePressRun(r.Context(), runID, payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updatedResponse{Updated: updated})
}
