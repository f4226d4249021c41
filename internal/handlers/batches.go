package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"tabletrack/internal/production"
)

// Numeric fields also accept numbers sent as JSON strings.
type createBatchRequest struct {
	SkuID         *json.Number `json:"sku_id"`
	PlannedWeight *json.Number `json:"planned_weight"`
}

type batchItemsRequest struct {
	Items []production.BatchItemUpdate `json:"items"`
}

// BatchResource serves /api/batches and the per-batch detail, status and items routes.
func BatchResource(w http.ResponseWriter, r *http.Request) {
	if !available(w, r) {
		return
	}

	segments := resourcePath(r, "/api/batches")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listBatches(w, r)
		case http.MethodPost:
			createBatch(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	}

	batchID, ok := parseID(segments[0])
	if !ok || len(segments) > 2 {
		NotFound(w, r)
		return
	}

	if len(segments) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		showBatch(w, r, batchID)
		return
	}

	switch segments[1] {
	case "status":
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, http.MethodPatch)
			return
		}
		updateBatchStatus(w, r, batchID)
	case "items":
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, http.MethodPatch)
			return
		}
		updateBatchItems(w, r, batchID)
	default:
		NotFound(w, r)
	}
}

func listBatches(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	batches, err := service.ListBatches(r.Context(), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

func createBatch(w http.ResponseWriter, r *http.Request) {
	var payload createBatchRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	var planned float64
	if weight := numberValue(payload.PlannedWeight); weight != nil {
		planned = *weight
	}
	created, err := service.CreateBatch(r.Context(), positiveID(payload.SkuID), planned)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func showBatch(w http.ResponseWriter, r *http.Request, batchID uint) {
	detail, err := service.BatchDetail(r.Context(), batchID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func updateBatchStatus(w http.ResponseWriter, r *http.Request, batchID uint) {
	var payload production.StatusUpdate
	if !decodeJSON(w, r, &payload) {
		return
	}
	updated, err := service.UpdateStatus(r.Context(), batchID, payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updatedResponse{Updated: updated})
}

func updateBatchItems(w http.ResponseWriter, r *http.Request, batchID uint) {
	var payload batchItemsRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	updated, err := service.UpdateBatchItems(r.Context(), batchID, payload.Items)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updatedResponse{Updated: updated})
}
