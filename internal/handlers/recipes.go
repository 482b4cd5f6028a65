package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	applog "saponaria/internal/log"
	"saponaria/internal/store"
	"saponaria/internal/views/pages"
	"saponaria/models"
)

const recipesAPIPrefix = "/app/api/recipes"

type recipeResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Notes          string    `json:"notes"`
	Version        int       `json:"version"`
	ParentRecipeID *uint     `json:"parent_recipe_id,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RecipeResource lists saved recipes, saves the current draft as a new
// recipe version and loads a recipe back into the draft.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	if drafts == nil {
		applog.Debug(r.Context(), "recipe request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "recipe request missing authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, recipesAPIPrefix), "/")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listRecipes(w, r, userID, "")
		case http.MethodPost:
			saveRecipe(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	idValue, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid recipe identifier", "identifier", segments[0], "error", err)
		http.NotFound(w, r)
		return
	}
	recipeID := uint(idValue)

	switch {
	case len(segments) == 1 && r.Method == http.MethodGet:
		showRecipe(w, r, userID, recipeID)
	case len(segments) == 2 && segments[1] == "load":
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		loadRecipe(w, r, userID, recipeID)
	case len(segments) > 2 || (len(segments) == 2 && segments[1] != "load"):
		http.NotFound(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listRecipes(w http.ResponseWriter, r *http.Request, userID uint, message string) {
	ctx := r.Context()
	recipes, err := drafts.ListRecipes(ctx, userID)
	if err != nil {
		applog.Error(ctx, "failed to list recipes", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipes")
		return
	}
	if isHTMX(r) {
		renderComponent(w, r, pages.RecipeList(recipes, message))
		return
	}
	responses := make([]recipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		responses = append(responses, projectRecipe(recipe))
	}
	writeJSON(w, http.StatusOK, responses)
}

func saveRecipe(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	in, err := readFields(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	ws, err := drafts.LoadDraft(ctx, userID)
	if err != nil {
		applog.Error(ctx, "failed to load draft for recipe", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "failed to load workspace")
		return
	}
	recipe, err := drafts.SaveRecipe(ctx, userID, in.trimmed("name"), in.trimmed("notes"), ws)
	if err != nil {
		applog.Error(ctx, "failed to save recipe", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "unable to save recipe")
		return
	}
	applog.Debug(ctx, "recipe saved", "userID", userID, "recipeID", recipe.ID, "version", recipe.Version)

	if isHTMX(r) {
		listRecipes(w, r, userID, fmt.Sprintf("Saved \"%s\" as version %d.", recipe.Name, recipe.Version))
		return
	}
	writeJSON(w, http.StatusCreated, projectRecipe(*recipe))
}

func showRecipe(w http.ResponseWriter, r *http.Request, userID, recipeID uint) {
	ws, err := drafts.LoadRecipe(r.Context(), userID, recipeID)
	if err != nil {
		respondRecipeError(w, r, err, recipeID)
		return
	}
	writeJSON(w, http.StatusOK, ws.Snapshot())
}

// loadRecipe replaces the user's draft with a saved recipe.
func loadRecipe(w http.ResponseWriter, r *http.Request, userID, recipeID uint) {
	ctx := r.Context()
	ws, err := drafts.LoadRecipe(ctx, userID, recipeID)
	if err != nil {
		respondRecipeError(w, r, err, recipeID)
		return
	}
	if err := replaceDraft(ctx, r, userID, ws); err != nil {
		respondWorkspaceError(w, r, err)
		return
	}
	applog.Debug(ctx, "recipe loaded into draft", "userID", userID, "recipeID", recipeID)

	if isHTMX(r) {
		snapshot := buildWorkspaceSnapshot(r)
		renderComponent(w, r, pages.WorkspacePartial("workbench", snapshot))
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

func respondRecipeError(w http.ResponseWriter, r *http.Request, err error, recipeID uint) {
	if errors.Is(err, store.ErrRecipeNotFound) {
		applog.Debug(r.Context(), "recipe not found", "id", recipeID)
		http.NotFound(w, r)
		return
	}
	applog.Error(r.Context(), "failed to load recipe", "error", err, "id", recipeID)
	writeJSONError(w, http.StatusInternalServerError, "unable to load recipe")
}

func projectRecipe(recipe models.Recipe) recipeResponse {
	return recipeResponse{
		ID:             recipe.ID,
		Name:           recipe.Name,
		Notes:          recipe.Notes,
		Version:        recipe.Version,
		ParentRecipeID: recipe.ParentRecipeID,
		UpdatedAt:      recipe.UpdatedAt,
	}
}
