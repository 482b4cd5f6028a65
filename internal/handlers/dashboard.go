package handlers

import (
	"net/http"
	"strings"

	templpkg "github.com/a-h/templ"

	applog "saponaria/internal/log"
	"saponaria/internal/views/pages"
	"saponaria/internal/workspace"
	"saponaria/models"
)

// Dashboard renders the signed-in workspace. The path below /app selects
// the section; HTMX requests receive only the section content.
func Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	section := workspaceSectionFromPath(r.URL.Path)
	snapshot := buildWorkspaceSnapshot(r)

	var component templpkg.Component
	if isHTMX(r) {
		component = pages.WorkspacePartial(section, snapshot)
	} else {
		component = pages.Workspace(section, snapshot)
	}
	renderComponent(w, r, component)
}

func workspaceSectionFromPath(path string) string {
	trimmed := strings.Trim(strings.TrimPrefix(path, "/app"), "/")
	if trimmed == "" {
		return pages.DefaultWorkspaceSection()
	}
	return pages.NormalizeWorkspaceSection(strings.Split(trimmed, "/")[0])
}

// buildWorkspaceSnapshot gathers the draft, recipes and catalog for the
// current user. Failures degrade to empty collections.
func buildWorkspaceSnapshot(r *http.Request) pages.WorkspaceSnapshot {
	snapshot := pages.EmptyWorkspaceSnapshot()
	userID, ok := currentUserID(r)
	if !ok || drafts == nil {
		return snapshot
	}
	ctx := r.Context()

	ws, err := drafts.LoadDraft(ctx, userID)
	if err != nil {
		applog.Error(ctx, "failed to load draft for workspace", "error", err, "userID", userID)
		ws = workspace.New()
	}
	ws.ApplyTransient(loadTransient(r))

	recipes, err := drafts.ListRecipes(ctx, userID)
	if err != nil {
		applog.Error(ctx, "failed to list recipes for workspace", "error", err, "userID", userID)
	}

	var ingredients []models.Ingredient
	catalog, err := drafts.LoadCatalog(ctx, userID, ws.View().Lye.Type)
	if err != nil {
		applog.Error(ctx, "failed to load catalog for workspace", "error", err, "userID", userID)
	} else {
		ingredients = catalog.Ingredients()
	}

	name := ""
	if sessionManager != nil {
		name = sessionManager.GetString(ctx, sessionUserNameKey)
	}
	return pages.NewWorkspaceSnapshot(ws.View(), recipes, ingredients, name, userID)
}

func renderComponent(w http.ResponseWriter, r *http.Request, component templpkg.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render workspace fragment", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
