package handlers

import (
	"net/http"

	applog "tabletrack/internal/log"
	"tabletrack/internal/production"
)

// SkuResource serves /api/skus, /api/skus/{id} and /api/skus/{id}/recipes.
func SkuResource(w http.ResponseWriter, r *http.Request) {
	if !available(w, r) {
		return
	}

	segments := resourcePath(r, "/api/skus")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listSkus(w, r)
		case http.MethodPost:
			createSku(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	}

	skuID, ok := parseID(segments[0])
	if !ok || len(segments) > 2 {
		NotFound(w, r)
		return
	}

	if len(segments) == 2 {
		if segments[1] != "recipes" {
			NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		createRecipe(w, r, skuID)
		return
	}

	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	showSku(w, r, skuID)
}

func listSkus(w http.ResponseWriter, r *http.Request) {
	skus, err := service.ListSkus(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, skus)
}

func createSku(w http.ResponseWriter, r *http.Request) {
	var payload production.SkuInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	id, err := service.CreateSku(r.Context(), payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	applog.Debug(r.Context(), "sku created", "skuID", id)
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func showSku(w http.ResponseWriter, r *http.Request, skuID uint) {
	detail, err := service.GetSku(r.Context(), skuID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func createRecipe(w http.ResponseWriter, r *http.Request, skuID uint) {
	var payload production.RecipeInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	id, err := service.CreateRecipe(r.Context(), skuID, payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	applog.Debug(r.Context(), "recipe created", "skuID", skuID, "recipeID", id)
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}
