package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "saponaria/internal/log"
	"saponaria/models"
)

const ingredientsAPIPrefix = "/app/api/ingredients"

type ingredientResponse struct {
	ID              uint               `json:"id"`
	Name            string             `json:"name"`
	INCIName        string             `json:"inci_name"`
	Kind            string             `json:"kind"`
	SAPNaOH         *float64           `json:"sap_naoh,omitempty"`
	SAPKOH          *float64           `json:"sap_koh,omitempty"`
	Iodine          *float64           `json:"iodine,omitempty"`
	FattyAcids      map[string]float64 `json:"fatty_acids,omitempty"`
	MaxUsagePercent float64            `json:"max_usage_percent"`
	Notes           string             `json:"notes"`
	OwnerID         uint               `json:"owner_id"`
	Public          bool               `json:"public"`
	OtherNames      []string           `json:"other_names"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	CanEdit         bool               `json:"can_edit"`
	CanDelete       bool               `json:"can_delete"`
	CanCopy         bool               `json:"can_copy"`
}

type ingredientRequest struct {
	Name            string             `json:"name"`
	INCIName        string             `json:"inci_name"`
	Kind            string             `json:"kind"`
	SAPNaOH         *float64           `json:"sap_naoh"`
	SAPKOH          *float64           `json:"sap_koh"`
	Iodine          *float64           `json:"iodine"`
	FattyAcids      map[string]float64 `json:"fatty_acids"`
	MaxUsagePercent float64            `json:"max_usage_percent"`
	Notes           string             `json:"notes"`
	Public          bool               `json:"public"`
	OtherNames      []string           `json:"other_names"`
}

// IngredientResource handles REST-style interactions with the ingredient
// catalog. Users see their own and public entries and may only change
// their own.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "ingredient request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "ingredient request missing authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, ingredientsAPIPrefix)
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r, userID)
		case http.MethodPost:
			createIngredient(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	identifier := segments[0]
	idValue, err := strconv.ParseUint(identifier, 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid ingredient identifier", "identifier", identifier, "error", err)
		http.NotFound(w, r)
		return
	}
	ingredientID := uint(idValue)

	if len(segments) > 1 && segments[1] == "copy" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		copyIngredient(w, r, ingredientID, userID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showIngredient(w, r, ingredientID, userID)
	case http.MethodPut:
		updateIngredient(w, r, ingredientID, userID)
	case http.MethodDelete:
		deleteIngredient(w, r, ingredientID, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listIngredients(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	var results []models.Ingredient
	query := database.WithContext(ctx).
		Preload("OtherNames").
		Order("name asc").
		Where("owner_id = ? OR public = ?", userID, true)
	if kind := strings.TrimSpace(r.URL.Query().Get("kind")); kind != "" {
		query = query.Where("kind = ?", models.NormalizeKind(kind))
	}
	if err := query.Find(&results).Error; err != nil {
		applog.Error(ctx, "failed to list ingredients", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredients")
		return
	}

	responses := make([]ingredientResponse, 0, len(results))
	for _, ingredient := range results {
		responses = append(responses, projectIngredient(ingredient, userID))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showIngredient(w http.ResponseWriter, r *http.Request, ingredientID, userID uint) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).Preload("OtherNames").First(&ingredient, ingredientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "ingredient not found", "id", ingredientID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}

	if ingredient.OwnerID != userID && !ingredient.Public {
		applog.Debug(ctx, "ingredient access denied", "id", ingredientID, "owner", ingredient.OwnerID, "user", userID)
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, projectIngredient(ingredient, userID))
}

func createIngredient(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	payload, ok := decodeIngredientRequest(w, r)
	if !ok {
		return
	}

	ingredient := models.Ingredient{OwnerID: userID}
	applyIngredientRequest(&ingredient, payload)

	if err := database.WithContext(ctx).Create(&ingredient).Error; err != nil {
		applog.Error(ctx, "failed to create ingredient", "error", err)
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("create failed: %v", err))
		return
	}
	if err := replaceIngredientAliases(ctx, &ingredient, payload.OtherNames); err != nil {
		applog.Error(ctx, "failed to store ingredient aliases", "error", err, "id", ingredient.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to store other names")
		return
	}
	if err := database.WithContext(ctx).Preload("OtherNames").First(&ingredient, ingredient.ID).Error; err != nil {
		applog.Error(ctx, "failed to reload created ingredient", "error", err, "id", ingredient.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load created record")
		return
	}

	writeJSON(w, http.StatusCreated, projectIngredient(ingredient, userID))
}

func updateIngredient(w http.ResponseWriter, r *http.Request, ingredientID, userID uint) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).Preload("OtherNames").Where("id = ? AND owner_id = ?", ingredientID, userID).First(&ingredient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "update denied: ingredient not found or not owned", "id", ingredientID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient for update", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}

	payload, ok := decodeIngredientRequest(w, r)
	if !ok {
		return
	}
	applyIngredientRequest(&ingredient, payload)

	if err := database.WithContext(ctx).Omit("OtherNames", "Owner").Save(&ingredient).Error; err != nil {
		applog.Error(ctx, "failed to update ingredient", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("update failed: %v", err))
		return
	}

	if err := replaceIngredientAliases(ctx, &ingredient, payload.OtherNames); err != nil {
		applog.Error(ctx, "failed to update ingredient other names", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update other names")
		return
	}

	if err := database.WithContext(ctx).Preload("OtherNames").First(&ingredient, ingredientID).Error; err != nil {
		applog.Error(ctx, "failed to reload ingredient after update", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load updated record")
		return
	}

	writeJSON(w, http.StatusOK, projectIngredient(ingredient, userID))
}

func deleteIngredient(w http.ResponseWriter, r *http.Request, ingredientID, userID uint) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).Where("id = ? AND owner_id = ?", ingredientID, userID).First(&ingredient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "delete denied: ingredient not found or not owned", "id", ingredientID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient for delete", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}

	if err := database.WithContext(ctx).Delete(&ingredient).Error; err != nil {
		applog.Error(ctx, "failed to soft delete ingredient", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete ingredient")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// copyIngredient clones a visible ingredient into a private entry owned by
// the current user.
func copyIngredient(w http.ResponseWriter, r *http.Request, ingredientID, userID uint) {
	ctx := r.Context()
	var source models.Ingredient
	if err := database.WithContext(ctx).Preload("OtherNames").First(&source, ingredientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "copy failed: ingredient not found", "id", ingredientID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient for copy", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}

	if source.OwnerID != userID && !source.Public {
		applog.Debug(ctx, "copy denied: ingredient not accessible", "id", ingredientID, "owner", source.OwnerID, "user", userID)
		http.NotFound(w, r)
		return
	}

	clone := source
	clone.Model = gorm.Model{}
	clone.OtherNames = nil
	clone.Owner = nil
	clone.OwnerID = userID
	clone.Public = false
	clone.Name = nextAvailableName(ctx, source.Name)

	if err := database.WithContext(ctx).Create(&clone).Error; err != nil {
		applog.Error(ctx, "failed to create ingredient copy", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to copy ingredient")
		return
	}

	aliases := make([]string, 0, len(source.OtherNames))
	for _, alias := range source.OtherNames {
		aliases = append(aliases, alias.Name)
	}
	if err := replaceIngredientAliases(ctx, &clone, aliases); err != nil {
		applog.Error(ctx, "failed to copy ingredient other names", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to copy ingredient")
		return
	}

	if err := database.WithContext(ctx).Preload("OtherNames").First(&clone, clone.ID).Error; err != nil {
		applog.Error(ctx, "failed to reload copied ingredient", "error", err, "id", clone.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load copied ingredient")
		return
	}

	writeJSON(w, http.StatusCreated, projectIngredient(clone, userID))
}

func decodeIngredientRequest(w http.ResponseWriter, r *http.Request) (ingredientRequest, bool) {
	var payload ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid ingredient payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return payload, false
	}
	if strings.TrimSpace(payload.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return payload, false
	}
	if payload.MaxUsagePercent < 0 || payload.MaxUsagePercent > 100 {
		writeJSONError(w, http.StatusBadRequest, "max_usage_percent must be between 0 and 100")
		return payload, false
	}
	return payload, true
}

func applyIngredientRequest(ingredient *models.Ingredient, payload ingredientRequest) {
	ingredient.Name = strings.TrimSpace(payload.Name)
	ingredient.INCIName = strings.TrimSpace(payload.INCIName)
	ingredient.Kind = models.NormalizeKind(payload.Kind)
	ingredient.SAPNaOH = payload.SAPNaOH
	ingredient.SAPKOH = payload.SAPKOH
	ingredient.Iodine = payload.Iodine
	ingredient.FattyAcids = payload.FattyAcids
	ingredient.MaxUsagePercent = payload.MaxUsagePercent
	ingredient.Notes = strings.TrimSpace(payload.Notes)
	ingredient.Public = payload.Public
}

func replaceIngredientAliases(ctx context.Context, ingredient *models.Ingredient, names []string) error {
	sanitized := make([]models.IngredientAlias, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		sanitized = append(sanitized, models.IngredientAlias{Name: trimmed})
	}

	assoc := database.WithContext(ctx).Model(ingredient).Association("OtherNames")
	if len(sanitized) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(sanitized)
}

func projectIngredient(ingredient models.Ingredient, userID uint) ingredientResponse {
	names := make([]string, 0, len(ingredient.OtherNames))
	for _, entry := range ingredient.OtherNames {
		trimmed := strings.TrimSpace(entry.Name)
		if trimmed == "" {
			continue
		}
		names = append(names, trimmed)
	}

	canEdit := ingredient.OwnerID == userID
	return ingredientResponse{
		ID:              ingredient.ID,
		Name:            ingredient.Name,
		INCIName:        ingredient.INCIName,
		Kind:            ingredient.Kind,
		SAPNaOH:         ingredient.SAPNaOH,
		SAPKOH:          ingredient.SAPKOH,
		Iodine:          ingredient.Iodine,
		FattyAcids:      ingredient.FattyAcids,
		MaxUsagePercent: ingredient.MaxUsagePercent,
		Notes:           ingredient.Notes,
		OwnerID:         ingredient.OwnerID,
		Public:          ingredient.Public,
		OtherNames:      names,
		CreatedAt:       ingredient.CreatedAt,
		UpdatedAt:       ingredient.UpdatedAt,
		CanEdit:         canEdit,
		CanDelete:       canEdit,
		CanCopy:         canEdit || ingredient.Public,
	}
}

func nextAvailableName(ctx context.Context, base string) string {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "Unnamed Ingredient"
	}

	candidate := fmt.Sprintf("%s (Copy)", trimmed)
	suffix := 2

	for {
		var count int64
		if err := database.WithContext(ctx).Unscoped().Model(&models.Ingredient{}).Where("name = ?", candidate).Count(&count).Error; err != nil {
			applog.Error(ctx, "failed to check ingredient name availability", "error", err, "candidate", candidate)
			return fmt.Sprintf("%s (Copy %d)", trimmed, time.Now().Unix())
		}
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s (Copy %d)", trimmed, suffix)
		suffix++
	}
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
