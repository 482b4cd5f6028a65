package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/a-h/templ"
	"gorm.io/gorm"

	applog "saponaria/internal/log"
	"saponaria/internal/views/pages"
	"saponaria/models"
)

const minPasswordLength = 8

// validateSignup returns the message to show for an unacceptable
// registration, or an empty string.
func validateSignup(c credentials) string {
	switch {
	case !validEmail(c.Email):
		return "Please provide a valid email address."
	case len(c.Password) < minPasswordLength:
		return "Password must be at least 8 characters long."
	case c.Password != c.Confirm:
		return "Passwords do not match."
	case c.Unit != "" && !models.ValidUnit(c.Unit):
		return "Choose grams, kilograms, ounces or pounds."
	}
	return ""
}

func validEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}

// Signup displays the account creation form and registers new accounts in
// their preferred display unit.
func Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	applog.Debug(ctx, "handling signup request", "method", r.Method, "htmx", isHTMX(r))

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ActiveSession(r) {
			redirectToApp(w, r)
			return
		}
		renderSignup(w, r, http.StatusOK, "", credentials{})
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			applog.Debug(ctx, "registration dependencies unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
			http.Error(w, "registration not available", http.StatusServiceUnavailable)
			return
		}
		creds, err := readCredentials(r)
		if err != nil {
			applog.Debug(ctx, "failed to read signup submission", "error", err)
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}

		if message := validateSignup(creds); message != "" {
			applog.Debug(ctx, "signup rejected", "email", strings.ToLower(creds.Email), "reason", message)
			renderSignup(w, r, http.StatusUnprocessableEntity, message, creds)
			return
		}

		_, err = findUserByEmail(r, creds.Email)
		switch {
		case err == nil:
			renderSignup(w, r, http.StatusConflict, "An account with that email already exists.", creds)
			return
		case !errors.Is(err, gorm.ErrRecordNotFound):
			applog.Error(ctx, "failed to check existing user", "error", err)
			renderSignup(w, r, http.StatusInternalServerError, "We couldn't create your account right now. Please try again.", creds)
			return
		}

		user, err := createUser(r, creds.Email, creds.Name, creds.Password, creds.Unit)
		if err != nil {
			applog.Error(ctx, "failed to create user", "error", err)
			renderSignup(w, r, http.StatusInternalServerError, "We couldn't create your account right now. Please try again.", creds)
			return
		}
		if err := establishSession(r, user); err != nil {
			applog.Error(ctx, "failed to establish session after signup", "error", err)
			renderSignup(w, r, http.StatusInternalServerError, "We couldn't sign you in after creating your account. Please try again.", creds)
			return
		}

		applog.Debug(ctx, "signup completed", "userID", user.ID, "unit", user.Unit)
		if isJSONRequest(r) {
			writeJSON(w, http.StatusCreated, authResponse{Redirect: "/app"})
			return
		}
		redirectToApp(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func renderSignup(w http.ResponseWriter, r *http.Request, status int, message string, c credentials) {
	if isJSONRequest(r) {
		writeJSON(w, status, authResponse{Error: message})
		return
	}

	var component templ.Component
	if isHTMX(r) {
		component = pages.SignupPartial(message, c.Name, c.Email, c.Unit)
	} else {
		component = pages.Signup(message, c.Name, c.Email, c.Unit)
	}
	renderComponent(w, r, component)
}
