package handlers

import (
	"encoding/json"
	"net/http"

	applog "saponaria/internal/log"
	"saponaria/internal/workspace"
)

// Edit cursors and the undo record are per session and never part of the
// stored draft.
const sessionTransientKey = "workspace:transient"

func loadTransient(r *http.Request) workspace.Transient {
	var t workspace.Transient
	if sessionManager == nil {
		return t
	}
	data := sessionManager.GetBytes(r.Context(), sessionTransientKey)
	if len(data) == 0 {
		return t
	}
	if err := json.Unmarshal(data, &t); err != nil {
		applog.Debug(r.Context(), "discarding unreadable workspace transient state", "error", err)
		return workspace.Transient{}
	}
	return t
}

func saveTransient(r *http.Request, t workspace.Transient) {
	if sessionManager == nil {
		return
	}
	if len(t.Cursors) == 0 && t.Removed == nil {
		sessionManager.Remove(r.Context(), sessionTransientKey)
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		applog.Error(r.Context(), "failed to encode workspace transient state", "error", err)
		return
	}
	sessionManager.Put(r.Context(), sessionTransientKey, data)
}
