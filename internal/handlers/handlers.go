package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	applog "tabletrack/internal/log"
	"tabletrack/internal/production"
)

// MaxBodyBytes bounds every JSON request body.
const MaxBodyBytes = 1 << 20

var service *production.Service

// Configure installs the production service used by the HTTP handlers.
func Configure(svc *production.Service) {
	service = svc
}

type createdResponse struct {
	ID uint `json:"id"`
}

type updatedResponse struct {
	Updated int `json:"updated"`
}

func available(w http.ResponseWriter, r *http.Request) bool {
	if service != nil {
		return true
	}
	applog.Debug(r.Context(), "api request without production service", "path", r.URL.Path)
	writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
	return false
}

// resourcePath returns the path below prefix split into segments.
func resourcePath(r *http.Request, prefix string) []string {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func parseID(value string) (uint, bool) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// positiveID converts an optional JSON integer into an id, 0 when absent or not positive.
func positiveID(value *json.Number) uint {
	if value == nil {
		return 0
	}
	id, err := value.Int64()
	if err != nil || id <= 0 {
		return 0
	}
	return uint(id)
}

// numberValue converts an optional JSON number, nil when absent.
func numberValue(value *json.Number) *float64 {
	if value == nil {
		return nil
	}
	f, err := value.Float64()
	if err != nil {
		return nil
	}
	return &f
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			// An empty body reads as an empty object.
			return true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			applog.Debug(r.Context(), "request body too large", "path", r.URL.Path, "limit", tooLarge.Limit)
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		applog.Debug(r.Context(), "invalid request payload", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		applog.Debug(r.Context(), "trailing data after request payload", "path", r.URL.Path)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

// writeServiceError maps the production error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case production.IsValidation(err):
		applog.Debug(ctx, "request rejected", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case production.IsNotFound(err):
		applog.Debug(ctx, "resource not found", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusNotFound, err.Error())
	default:
		applog.Error(ctx, "production operation failed", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// NotFound answers unknown routes with a JSON error.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, http.StatusNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
