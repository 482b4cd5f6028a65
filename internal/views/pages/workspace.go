// Package pages renders the full pages and HTMX partials of the workbench.
package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"saponaria/internal/views/components"
	"saponaria/internal/views/layout"
	"saponaria/models"
)

// Workspace renders a signed-in page with navigation.
func Workspace(section string, snapshot WorkspaceSnapshot) templ.Component {
	section = NormalizeWorkspaceSection(section)
	sidebar := components.Sidebar(components.SidebarData{
		Active:   section,
		UserName: snapshot.UserName,
		Features: components.DefaultLinks(),
	})
	return layout.Layout(sectionTitle(section)+" · Saponaria", sidebar, WorkspacePartial(section, snapshot), true)
}

// WorkspacePartial renders only the section content for HTMX navigation.
func WorkspacePartial(section string, snapshot WorkspaceSnapshot) templ.Component {
	section = NormalizeWorkspaceSection(section)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		m.Printf(`<div class="module" data-module-key="%s"><h1>%s</h1>`, section, sectionTitle(section))
		switch section {
		case "recipes":
			m.Render(RecipeList(snapshot.Recipes, ""))
		case "ingredients":
			m.Render(IngredientTable(snapshot.Ingredients, snapshot.UserID))
		case "tools":
			m.Render(ToolsPanel("", ""))
		default:
			m.Render(Workbench(snapshot.View))
		}
		m.Raw(`</div>`)
		return m.Err()
	})
}

// RecipeList renders saved recipes with a form to save the current draft.
func RecipeList(recipes []models.Recipe, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		m.Raw(`<section id="recipes">`)
		m.Render(components.Message(message, ""))
		m.Raw(`<form hx-post="/app/api/recipes" hx-target="#recipes" hx-swap="outerHTML">`)
		m.Raw(`<input name="name" placeholder="Recipe name"><input name="notes" placeholder="Notes"><button type="submit">Save current draft</button></form>`)
		if len(recipes) == 0 {
			m.Raw(`<p class="empty">No saved recipes yet.</p></section>`)
			return m.Err()
		}
		m.Raw(`<table><thead><tr><th>Name</th><th>Version</th><th>Notes</th><th></th></tr></thead><tbody>`)
		for _, recipe := range recipes {
			m.Printf(`<tr data-recipe-id="%d"><td>%s</td><td>v%d</td><td>%s</td>`, recipe.ID, recipe.Name, recipe.Version, DefaultDash(recipe.Notes))
			m.Printf(`<td><button type="button" hx-post="/app/api/recipes/%d/load" hx-target="#main">Open</button></td></tr>`, recipe.ID)
		}
		m.Raw(`</tbody></table></section>`)
		return m.Err()
	})
}

// IngredientTable renders the catalog visible to userID.
func IngredientTable(ingredients []models.Ingredient, userID uint) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		m.Raw(`<section id="ingredients"><table><thead><tr><th>Name</th><th>Kind</th><th>SAP NaOH</th><th>SAP KOH</th><th>Iodine</th><th>Max %</th><th>Owner</th></tr></thead><tbody>`)
		for _, ingredient := range ingredients {
			owner := "Shared"
			if ingredient.OwnerID == userID {
				owner = "You"
			}
			m.Printf(`<tr data-ingredient-id="%d"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				ingredient.ID, ingredient.Name, ingredient.Kind,
				optionalValue(ingredient.SAPNaOH, 3), optionalValue(ingredient.SAPKOH, 3), optionalValue(ingredient.Iodine, 0),
				DefaultDash(formatPositive(ingredient.MaxUsagePercent)), owner)
		}
		m.Raw(`</tbody></table></section>`)
		return m.Err()
	})
}

// ToolsPanel renders the recipe import form and its outcome.
func ToolsPanel(message, errorMessage string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		m.Raw(`<section id="tools-panel">`)
		m.Render(components.Message(message, errorMessage))
		m.Raw(`<form hx-post="/app/tools/import" hx-target="#tools-panel" hx-swap="outerHTML" hx-encoding="multipart/form-data">`)
		m.Raw(`<label>Recipe text <textarea name="recipe_text" rows="10" placeholder="Olive Oil 500 g&#10;Coconut Oil 30%&#10;Fragrance:&#10;Lavender 3%"></textarea></label>`)
		m.Raw(`<label>Or upload a PDF or text file <input type="file" name="recipe_file" accept=".pdf,.txt,text/plain,application/pdf"></label>`)
		m.Raw(`<input type="hidden" name="replace" value="false"><label><input type="checkbox" name="replace" value="true" checked> Replace current draft</label>`)
		m.Raw(`<button type="submit">Import</button></form></section>`)
		return m.Err()
	})
}

func optionalValue(v *float64, places int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", places, *v)
}

func formatPositive(v float64) string {
	if v <= 0 {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}
