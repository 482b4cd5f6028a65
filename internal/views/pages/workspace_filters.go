package pages

import (
	"net/http"
	"strings"

	"saponaria/models"
)

// IngredientFilters capture the client-driven state for catalog lookups.
type IngredientFilters struct {
	Query string
	Kind  string
}

// IngredientFiltersFromRequest extracts filter inputs from an HTTP request.
func IngredientFiltersFromRequest(r *http.Request) IngredientFilters {
	filters := IngredientFilters{}
	if err := r.ParseForm(); err != nil {
		return filters
	}
	filters.Query = strings.TrimSpace(r.FormValue("q"))
	if kind := strings.TrimSpace(r.FormValue("kind")); kind != "" {
		filters.Kind = models.NormalizeKind(kind)
	}
	return filters
}

// FilterIngredients applies the provided filters to a list of ingredients.
func FilterIngredients(all []models.Ingredient, filters IngredientFilters) []models.Ingredient {
	if filters.Query == "" && filters.Kind == "" {
		return all
	}
	query := strings.ToLower(filters.Query)
	filtered := make([]models.Ingredient, 0, len(all))
	for _, ingredient := range all {
		if filters.Kind != "" && ingredient.Kind != filters.Kind {
			continue
		}
		if query == "" || matchesQuery(ingredient, query) {
			filtered = append(filtered, ingredient)
		}
	}
	return filtered
}

func matchesQuery(ingredient models.Ingredient, query string) bool {
	for _, name := range ingredient.Names() {
		if containsFold(name, query) {
			return true
		}
	}
	return containsFold(ingredient.INCIName, query)
}

func containsFold(value, query string) bool {
	return strings.Contains(strings.ToLower(value), query)
}
