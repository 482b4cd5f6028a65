package handlers

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"

	applog "saponaria/internal/log"
	"saponaria/internal/views/pages"
)

// credentials are the account fields posted by the sign-in and signup
// forms, or by a JSON client.
type credentials struct {
	Name     string
	Email    string
	Password string
	Confirm  string
	Unit     string
}

func readCredentials(r *http.Request) (credentials, error) {
	in, err := readFields(r)
	if err != nil {
		return credentials{}, err
	}
	return credentials{
		Name:     in.trimmed("name"),
		Email:    in.trimmed("email"),
		Password: in.get("password"),
		Confirm:  in.get("confirm_password"),
		Unit:     in.trimmed("unit"),
	}, nil
}

type authResponse struct {
	Redirect string `json:"redirect,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Login renders the sign-in view and processes sign-in submissions. JSON
// submissions get a JSON answer instead of a page.
func Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	applog.Debug(ctx, "handling login request", "method", r.Method, "htmx", isHTMX(r))

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ActiveSession(r) {
			redirectToApp(w, r)
			return
		}
		message := ""
		if sessionManager != nil {
			message = sessionManager.PopString(ctx, sessionLoginMessageKey)
		}
		renderLogin(w, r, http.StatusOK, message, "")
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			applog.Debug(ctx, "authentication dependencies unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
			http.Error(w, "authentication not available", http.StatusServiceUnavailable)
			return
		}
		creds, err := readCredentials(r)
		if err != nil {
			applog.Debug(ctx, "failed to read login submission", "error", err)
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}
		if creds.Email == "" || creds.Password == "" {
			renderLogin(w, r, http.StatusUnprocessableEntity, "Email and password are required.", creds.Email)
			return
		}

		if !authenticate(w, r, creds.Email, creds.Password) {
			applog.Debug(ctx, "authentication failed", "email", strings.ToLower(creds.Email))
			message := sessionManager.PopString(ctx, sessionLoginMessageKey)
			if message == "" {
				message = "We were unable to sign you in. Please try again."
			}
			renderLogin(w, r, http.StatusUnauthorized, message, creds.Email)
			return
		}

		applog.Debug(ctx, "authentication succeeded", "email", strings.ToLower(creds.Email))
		if isJSONRequest(r) {
			writeJSON(w, http.StatusOK, authResponse{Redirect: "/app"})
			return
		}
		redirectToApp(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// renderLogin answers with the form and message. HTML answers keep status
// 200 so HTMX swaps the form in; JSON clients receive status.
func renderLogin(w http.ResponseWriter, r *http.Request, status int, message, email string) {
	if isJSONRequest(r) {
		writeJSON(w, status, authResponse{Error: message})
		return
	}

	var component templ.Component
	if isHTMX(r) {
		component = pages.LoginPartial(message, email)
	} else {
		component = pages.Login(message, email)
	}
	renderComponent(w, r, component)
}
