package handlers

import (
	"net/http"

	applog "saponaria/internal/log"
)

// Home sends visitors to the workbench or the sign-in page. Unknown paths
// under the root are not found.
func Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if ActiveSession(r) {
		applog.Debug(r.Context(), "home visited with active session")
		redirectToApp(w, r)
		return
	}
	redirectToLogin(w, r)
}
