package pages

import (
	"sort"

	"saponaria/internal/units"
	"saponaria/internal/workspace"
	"saponaria/models"
)

// WorkspaceSnapshot aggregates everything the signed-in pages render.
type WorkspaceSnapshot struct {
	View        workspace.View
	Recipes     []models.Recipe
	Ingredients []models.Ingredient
	UserName    string
	UserID      uint
}

// NewWorkspaceSnapshot sorts recipes and ingredients by name for display.
func NewWorkspaceSnapshot(view workspace.View, recipes []models.Recipe, ingredients []models.Ingredient, userName string, userID uint) WorkspaceSnapshot {
	sort.SliceStable(recipes, func(i, j int) bool {
		return recipes[i].Name < recipes[j].Name
	})
	sort.SliceStable(ingredients, func(i, j int) bool {
		return ingredients[i].Name < ingredients[j].Name
	})
	return WorkspaceSnapshot{
		View:        view,
		Recipes:     recipes,
		Ingredients: ingredients,
		UserName:    userName,
		UserID:      userID,
	}
}

// EmptyWorkspaceSnapshot renders an empty workbench in grams.
func EmptyWorkspaceSnapshot() WorkspaceSnapshot {
	return WorkspaceSnapshot{View: workspace.New().View()}
}

// UnitOptions lists the selectable display units.
func UnitOptions() []units.Unit {
	return units.Supported()
}

// IngredientsOfKind returns catalog entries of one kind.
func (s WorkspaceSnapshot) IngredientsOfKind(kind string) []models.Ingredient {
	out := make([]models.Ingredient, 0, len(s.Ingredients))
	for _, ingredient := range s.Ingredients {
		if ingredient.Kind == kind {
			out = append(out, ingredient)
		}
	}
	return out
}
