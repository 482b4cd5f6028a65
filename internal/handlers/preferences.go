package handlers

import (
	"net/http"
	"strings"

	applog "saponaria/internal/log"
	"saponaria/internal/units"
	"saponaria/models"
)

type preferencesResponse struct {
	Unit string `json:"unit"`
}

// UpdatePreferences persists the display unit new drafts start in.
func UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		applog.Debug(r.Context(), "preferences update with unsupported method", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, err := loadCurrentUser(r)
	if err != nil {
		applog.Error(r.Context(), "unable to load current user for preferences", "error", err)
		http.Error(w, "unable to load account", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		applog.Error(r.Context(), "failed to parse preferences form", "error", err)
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	unitValue := strings.TrimSpace(r.FormValue("unit"))
	unit, ok := units.Parse(unitValue)
	if !ok {
		applog.Debug(r.Context(), "received invalid unit selection", "value", unitValue)
		http.Error(w, "invalid unit selection", http.StatusBadRequest)
		return
	}
	normalized := models.NormalizeUnit(string(unit))

	applog.Debug(r.Context(), "updating user preferences", "userID", user.ID, "unit", normalized)
	if err := database.WithContext(r.Context()).Model(user).Update("unit", normalized).Error; err != nil {
		applog.Error(r.Context(), "failed to persist user preferences", "error", err)
		http.Error(w, "failed to save preferences", http.StatusInternalServerError)
		return
	}

	setSessionUnit(r, normalized)
	writeJSON(w, http.StatusOK, preferencesResponse{Unit: normalized})
}
