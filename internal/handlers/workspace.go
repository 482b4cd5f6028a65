package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	applog "saponaria/internal/log"
	"saponaria/internal/mold"
	"saponaria/internal/reconcile"
	"saponaria/internal/store"
	"saponaria/internal/units"
	"saponaria/internal/views/pages"
	"saponaria/internal/workspace"
)

const workspaceAPIPrefix = "/app/api/workspace"

type calculationResponse struct {
	Outcome   string         `json:"outcome"`
	Error     string         `json:"error,omitempty"`
	Workspace workspace.View `json:"workspace"`
}

// WorkspaceResource serves the signed-in user's draft and its editing
// actions under /app/api/workspace.
func WorkspaceResource(w http.ResponseWriter, r *http.Request) {
	if drafts == nil {
		applog.Debug(r.Context(), "workspace request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "workspace request missing authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, workspaceAPIPrefix), "/")
	segments := strings.Split(path, "/")

	switch segments[0] {
	case "":
		switch r.Method {
		case http.MethodGet:
			showWorkspace(w, r, userID)
		case http.MethodDelete:
			resetWorkspace(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "rows":
		routeRows(w, r, userID, segments[1:])
	case "undo":
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		withWorkspace(w, r, userID, http.StatusOK, func(ws *workspace.Workspace, _ fields) error {
			_, err := ws.UndoRemove()
			return err
		})
	case "edit":
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		withWorkspace(w, r, userID, http.StatusOK, editRow)
	case "unit":
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		withWorkspace(w, r, userID, http.StatusOK, switchUnit)
	case "target":
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		withWorkspace(w, r, userID, http.StatusOK, updateTarget)
	case "settings":
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		withWorkspace(w, r, userID, http.StatusOK, updateSettings)
	case "calculate":
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		calculateWorkspace(w, r, userID)
	case "notice":
		if len(segments) != 2 || segments[1] != "dismiss" {
			http.NotFound(w, r)
			return
		}
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		dismissNotice(w, r, userID)
	case "snapshot":
		switch r.Method {
		case http.MethodGet:
			exportSnapshot(w, r, userID)
		case http.MethodPut:
			restoreSnapshot(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		http.NotFound(w, r)
	}
}

func routeRows(w http.ResponseWriter, r *http.Request, userID uint, segments []string) {
	if len(segments) == 0 || segments[0] == "" {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		withWorkspace(w, r, userID, http.StatusCreated, addRow)
		return
	}
	if len(segments) != 2 {
		http.NotFound(w, r)
		return
	}
	set, err := workspace.ParseSet(segments[0])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	id := segments[1]

	switch r.Method {
	case http.MethodPatch:
		withWorkspace(w, r, userID, http.StatusOK, func(ws *workspace.Workspace, in fields) error {
			return ws.RenameRow(set, id, in.trimmed("name"), in.id("ingredient_id"))
		})
	case http.MethodDelete:
		withWorkspace(w, r, userID, http.StatusOK, func(ws *workspace.Workspace, _ fields) error {
			return ws.RemoveRow(set, id)
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// withWorkspace loads the draft with the session's editing state, applies
// mutate and stores both again before responding with the new view.
func withWorkspace(w http.ResponseWriter, r *http.Request, userID uint, status int, mutate func(*workspace.Workspace, fields) error) {
	ctx := r.Context()
	in, err := readFields(r)
	if err != nil {
		applog.Debug(ctx, "invalid workspace payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	ws, err := drafts.LoadDraft(ctx, userID)
	if err != nil {
		applog.Error(ctx, "failed to load draft", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "failed to load workspace")
		return
	}
	ws.ApplyTransient(loadTransient(r))

	if err := mutate(ws, in); err != nil {
		respondWorkspaceError(w, r, err)
		return
	}
	if err := drafts.SaveDraft(ctx, userID, ws); err != nil {
		respondWorkspaceError(w, r, err)
		return
	}
	saveTransient(r, ws.Transient())

	applog.Debug(ctx, "workspace updated", "userID", userID, "path", r.URL.Path, "updatedAt", ws.UpdatedAt())
	respondWorkspace(w, r, status, ws)
}

func respondWorkspace(w http.ResponseWriter, r *http.Request, status int, ws *workspace.Workspace) {
	if isHTMX(r) {
		renderComponent(w, r, pages.Workbench(ws.View()))
		return
	}
	writeJSON(w, status, ws.View())
}

func respondWorkspaceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workspace.ErrRowNotFound):
		writeJSONError(w, http.StatusNotFound, "row not found")
	case errors.Is(err, workspace.ErrUnknownSet), errors.Is(err, workspace.ErrUnknownField), errors.Is(err, workspace.ErrInvalidSnapshot), errors.Is(err, errInvalidUnit):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, workspace.ErrNothingToUndo):
		writeJSONError(w, http.StatusConflict, "nothing to undo")
	case errors.Is(err, store.ErrStaleSnapshot):
		writeJSONError(w, http.StatusConflict, "workspace changed elsewhere; reload and retry")
	default:
		applog.Error(r.Context(), "workspace operation failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "workspace operation failed")
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

var errInvalidUnit = errors.New("invalid unit")

func showWorkspace(w http.ResponseWriter, r *http.Request, userID uint) {
	ws, err := drafts.LoadDraft(r.Context(), userID)
	if err != nil {
		applog.Error(r.Context(), "failed to load draft", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "failed to load workspace")
		return
	}
	ws.ApplyTransient(loadTransient(r))
	respondWorkspace(w, r, http.StatusOK, ws)
}

func resetWorkspace(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	if err := drafts.DeleteDraft(ctx, userID); err != nil {
		applog.Error(ctx, "failed to delete draft", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "failed to reset workspace")
		return
	}
	saveTransient(r, workspace.Transient{})
	showWorkspace(w, r, userID)
}

func addRow(ws *workspace.Workspace, in fields) error {
	set, err := workspace.ParseSet(in.get("set"))
	if err != nil {
		return err
	}
	_, err = ws.AddRow(set, workspace.Row{
		Name:         in.trimmed("name"),
		IngredientID: in.id("ingredient_id"),
		Kind:         in.trimmed("kind"),
		Weight:       in.get("weight"),
		Percent:      in.get("percent"),
	})
	return err
}

func editRow(ws *workspace.Workspace, in fields) error {
	set, err := workspace.ParseSet(in.get("set"))
	if err != nil {
		return err
	}
	return ws.Edit(set, in.get("id"), reconcile.Field(in.trimmed("field")), in.get("value"))
}

func switchUnit(ws *workspace.Workspace, in fields) error {
	unit, ok := units.Parse(in.get("unit"))
	if !ok {
		return errInvalidUnit
	}
	ws.SwitchUnit(unit)
	return nil
}

// updateTarget replaces the target settings. Fields absent from the
// request keep their current values.
func updateTarget(ws *workspace.Workspace, in fields) error {
	t := ws.Target()
	if in.has("explicit") {
		t.Explicit = in.get("explicit")
	}
	if in.has("fill_percent") {
		t.FillPercent = in.get("fill_percent")
	}
	if in.has("correction_factor") {
		t.CorrectionFactor = in.get("correction_factor")
	}
	if in.has("mold_enabled") {
		t.MoldEnabled = in.flag("mold_enabled")
	}
	if in.has("correction_enabled") {
		t.CorrectionEnabled = in.flag("correction_enabled")
	}
	if in.has("shape") {
		t.Mold.Shape = mold.ParseShape(in.get("shape"))
	}
	if in.has("dimension_unit") {
		t.Mold.Unit = mold.DimensionUnit(strings.ToLower(in.trimmed("dimension_unit")))
	}
	for key, dst := range map[string]*float64{
		"length":    &t.Mold.Length,
		"width":     &t.Mold.Width,
		"height":    &t.Mold.Height,
		"diameter":  &t.Mold.Diameter,
		"volume_ml": &t.Mold.VolumeML,
		"density":   &t.Mold.Density,
	} {
		if in.has(key) {
			*dst = in.number(key)
		}
	}
	ws.SetTarget(t)
	return nil
}

// updateSettings applies whichever lye, water and additive values the
// request carries.
func updateSettings(ws *workspace.Workspace, in fields) error {
	view := ws.View()

	if in.has("lye_type") || in.has("superfat") || in.has("purity") {
		lye := view.Lye
		if in.has("lye_type") {
			lye.Type = strings.ToUpper(in.trimmed("lye_type"))
		}
		if in.has("superfat") {
			lye.Superfat = in.get("superfat")
		}
		if in.has("purity") {
			lye.Purity = in.get("purity")
		}
		ws.SetLye(lye)
	}

	if in.has("water_method") || in.has("water_value") {
		water := view.Water
		if in.has("water_method") {
			water.Method = in.trimmed("water_method")
		}
		if in.has("water_value") {
			water.Value = in.get("water_value")
		}
		ws.SetWater(water)
	}

	if name := in.trimmed("additive_name"); name != "" {
		ws.SetAdditive(name, in.get("additive_percent"))
	}
	return nil
}

func calculateWorkspace(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	if calculator == nil {
		applog.Debug(ctx, "calculation requested without a configured service")
		writeJSONError(w, http.StatusServiceUnavailable, "calculation service is not configured")
		return
	}

	current, err := drafts.LoadDraft(ctx, userID)
	if err != nil {
		applog.Error(ctx, "failed to load draft for calculation", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "failed to load workspace")
		return
	}
	catalog, err := drafts.LoadCatalog(ctx, userID, current.View().Lye.Type)
	if err != nil {
		applog.Error(ctx, "failed to load catalog for calculation", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "failed to load ingredient catalog")
		return
	}

	ws, outcome, calcErr := drafts.Calculate(ctx, userID, calculator, catalog)
	if ws == nil {
		applog.Error(ctx, "calculation round trip failed", "error", calcErr, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "calculation failed")
		return
	}
	ws.ApplyTransient(loadTransient(r))
	applog.Debug(ctx, "calculation completed", "userID", userID, "outcome", outcome.String())

	if isHTMX(r) {
		renderComponent(w, r, pages.Workbench(ws.View()))
		return
	}
	resp := calculationResponse{Outcome: outcome.String(), Workspace: ws.View()}
	if calcErr != nil {
		resp.Error = calcErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func dismissNotice(w http.ResponseWriter, r *http.Request, userID uint) {
	if err := drafts.DismissNotice(r.Context(), userID); err != nil {
		applog.Error(r.Context(), "failed to dismiss notice", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "failed to dismiss notice")
		return
	}
	showWorkspace(w, r, userID)
}

func exportSnapshot(w http.ResponseWriter, r *http.Request, userID uint) {
	ws, err := drafts.LoadDraft(r.Context(), userID)
	if err != nil {
		applog.Error(r.Context(), "failed to load draft for export", "error", err, "userID", userID)
		writeJSONError(w, http.StatusInternalServerError, "failed to load workspace")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="saponaria-draft.json"`)
	writeJSON(w, http.StatusOK, ws.Snapshot())
}

// restoreSnapshot replaces the draft with an uploaded snapshot. The restored
// workspace is stamped now so it supersedes the stored draft.
func restoreSnapshot(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "unable to read snapshot")
		return
	}
	var snapshot workspace.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid snapshot")
		return
	}
	ws, err := workspace.Restore(snapshot)
	if err != nil {
		respondWorkspaceError(w, r, err)
		return
	}
	if err := replaceDraft(ctx, r, userID, ws); err != nil {
		respondWorkspaceError(w, r, err)
		return
	}
	respondWorkspace(w, r, http.StatusOK, ws)
}

// replaceDraft stores ws as the user's draft and clears the session's
// editing state, which referred to the previous rows.
func replaceDraft(ctx context.Context, r *http.Request, userID uint, ws *workspace.Workspace) error {
	ws.Touch()
	if err := drafts.ReplaceDraft(ctx, userID, ws); err != nil {
		return err
	}
	saveTransient(r, workspace.Transient{})
	return nil
}
