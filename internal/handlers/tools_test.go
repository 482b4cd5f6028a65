package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"saponaria/models"
)

func postImport(t *testing.T, c *workspaceClient, fields map[string]string, file string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != "" {
		part, err := writer.CreateFormFile("recipe_file", "recipe.txt")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte(file))
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/app/tools/import", &body).WithContext(c.ctx)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	ToolsImportRecipe(w, req)
	return w
}

func TestToolsImportRecipeReplacesDraft(t *testing.T) {
	c, db, user := newWorkspaceClient(t)
	olive := models.Ingredient{Name: "Olive Oil", OwnerID: user.ID}
	if err := db.Create(&olive).Error; err != nil {
		t.Fatalf("failed to create ingredient: %v", err)
	}
	c.addRow("oils", "Leftover", "10", "")

	text := "# Lavender Bar\nOils:\nOlive Oil 700 g\nCoconut Oil 300 g\nFragrance:\nLavender 3%\nAdditives:\nSodium Lactate 1%\nstir well"
	w := postImport(t, c, map[string]string{"recipe_text": text}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "Imported 4 lines from &#34;Lavender Bar&#34;. Skipped 1 unreadable lines.") {
		t.Fatalf("unexpected import message: %s", body)
	}

	view := c.view(c.do(WorkspaceResource, http.MethodGet, "/app/api/workspace", nil), http.StatusOK)
	if len(view.Oils.Rows) != 2 {
		t.Fatalf("expected imported oils to replace the draft, got %+v", view.Oils.Rows)
	}
	if view.Oils.Rows[0].IngredientID != olive.ID {
		t.Fatalf("expected olive oil linked to catalog entry %d, got %+v", olive.ID, view.Oils.Rows[0])
	}
	if len(view.Fragrances.Rows) != 1 || view.Fragrances.Rows[0].Percent != "3" {
		t.Fatalf("expected fragrance row, got %+v", view.Fragrances.Rows)
	}
	if len(view.Additives) != 1 || view.Additives[0].Name != "Sodium Lactate" {
		t.Fatalf("expected additive percentage, got %+v", view.Additives)
	}
}

func TestToolsImportRecipeMergesUpload(t *testing.T) {
	c, _, _ := newWorkspaceClient(t)
	c.addRow("oils", "Olive", "500", "")

	w := postImport(t, c, map[string]string{"replace": "false"}, "Shea Butter 0.1 kg\n")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	view := c.view(c.do(WorkspaceResource, http.MethodGet, "/app/api/workspace", nil), http.StatusOK)
	if len(view.Oils.Rows) != 2 {
		t.Fatalf("expected upload merged into draft, got %+v", view.Oils.Rows)
	}
	if got := view.Oils.Rows[1]; got.Name != "Shea Butter" || got.Weight != "100.00" {
		t.Fatalf("expected kilograms rescaled into grams, got %+v", got)
	}
}

func TestToolsImportRecipeRejectsEmptyInput(t *testing.T) {
	c, _, _ := newWorkspaceClient(t)

	w := postImport(t, c, map[string]string{"recipe_text": "   "}, "")
	if !strings.Contains(w.Body.String(), "Paste a recipe or upload a document") {
		t.Fatalf("expected prompt for input, got %s", w.Body.String())
	}

	w = postImport(t, c, map[string]string{"recipe_text": "just some prose"}, "")
	if !strings.Contains(w.Body.String(), "No ingredient lines were recognised") {
		t.Fatalf("expected unrecognised message, got %s", w.Body.String())
	}

	w = c.do(ToolsImportRecipe, http.MethodGet, "/app/tools/import", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
