package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"saponaria/internal/importer"
	applog "saponaria/internal/log"
	"saponaria/internal/views/pages"
	"saponaria/internal/workspace"
)

// ToolsImportRecipe reads a pasted or uploaded recipe into the draft. Rows
// are linked to catalog ingredients by name or alias. Unless replace is
// unset the draft is replaced.
func ToolsImportRecipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if drafts == nil {
		renderComponent(w, r, pages.ToolsPanel("", "Importing is unavailable right now."))
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	ctx := r.Context()

	if err := r.ParseMultipartForm(importer.MaxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		applog.Error(ctx, "failed to parse recipe import form", "error", err)
		renderComponent(w, r, pages.ToolsPanel("", "Upload is too large or invalid. Please retry with a smaller file."))
		return
	}

	text := strings.TrimSpace(r.FormValue("recipe_text"))
	data, mime, err := readRecipeUpload(r)
	if err != nil {
		applog.Error(ctx, "recipe upload read failed", "error", err)
		renderComponent(w, r, pages.ToolsPanel("", "Unable to read the uploaded file. Please try again."))
		return
	}
	if len(data) > 0 {
		extracted, err := importer.TextFromUpload(data, mime)
		if err != nil {
			applog.Error(ctx, "failed to extract recipe text", "error", err, "mime", mime)
			renderComponent(w, r, pages.ToolsPanel("", "We couldn't read that document. Try a PDF or plain text file."))
			return
		}
		if text != "" {
			text += "\n\n"
		}
		text += extracted
	}
	if strings.TrimSpace(text) == "" {
		renderComponent(w, r, pages.ToolsPanel("", "Paste a recipe or upload a document before importing."))
		return
	}

	recipe := importer.ParseRecipe(text)
	if len(recipe.Lines) == 0 {
		renderComponent(w, r, pages.ToolsPanel("", "No ingredient lines were recognised. Use one ingredient per line, for example \"Olive Oil 500 g\"."))
		return
	}

	catalog, err := drafts.LoadCatalog(ctx, userID, "")
	if err != nil {
		applog.Error(ctx, "failed to load catalog for import", "error", err)
	}
	match := catalog.Matcher().Match

	replace := true
	if values := r.Form["replace"]; len(values) > 0 {
		replace = values[len(values)-1] != "false"
	}
	var ws *workspace.Workspace
	if replace {
		ws = workspace.New()
		ws.SwitchUnit(recipe.Unit)
	} else {
		ws, err = drafts.LoadDraft(ctx, userID)
		if err != nil {
			applog.Error(ctx, "failed to load draft for import", "error", err)
			renderComponent(w, r, pages.ToolsPanel("", "We couldn't open your draft. Please try again."))
			return
		}
		ws.ApplyTransient(loadTransient(r))
	}

	added, err := recipe.ApplyTo(ws, match)
	if err != nil {
		applog.Error(ctx, "failed to apply imported recipe", "error", err)
		renderComponent(w, r, pages.ToolsPanel("", "We couldn't import that recipe. Please review it and retry."))
		return
	}

	if replace {
		err = replaceDraft(ctx, r, userID, ws)
	} else {
		err = drafts.SaveDraft(ctx, userID, ws)
		if err == nil {
			saveTransient(r, ws.Transient())
		}
	}
	if err != nil {
		applog.Error(ctx, "failed to store imported recipe", "error", err)
		renderComponent(w, r, pages.ToolsPanel("", "We couldn't save the imported recipe. Please try again."))
		return
	}

	applog.Debug(ctx, "recipe imported", "userID", userID, "rows", added, "skipped", len(recipe.Skipped), "replace", replace)
	renderComponent(w, r, pages.ToolsPanel(importMessage(recipe, added), ""))
}

func importMessage(recipe importer.Recipe, added int) string {
	message := fmt.Sprintf("Imported %d lines", added)
	if recipe.Name != "" {
		message = fmt.Sprintf("%s from \"%s\"", message, recipe.Name)
	}
	message += "."
	if n := len(recipe.Skipped); n > 0 {
		message = fmt.Sprintf("%s Skipped %d unreadable lines.", message, n)
	}
	return message
}

func readRecipeUpload(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("recipe_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", nil
		}
		return nil, "", err
	}
	defer file.Close()

	if header.Size > importer.MaxUploadSize {
		return nil, "", fmt.Errorf("file exceeds %d bytes", importer.MaxUploadSize)
	}

	buf := bytes.NewBuffer(make([]byte, 0, header.Size))
	if _, err := io.Copy(buf, file); err != nil {
		return nil, "", err
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = importer.MimeTypeFromName(header.Filename)
	}
	return buf.Bytes(), mime, nil
}
