package store

import (
	"context"
	"fmt"

	"saponaria/internal/importer"
	"saponaria/internal/workspace"
	"saponaria/models"
)

// Catalog is an in-memory view of the ingredients a user can see.
type Catalog struct {
	lye         string
	ingredients map[uint]models.Ingredient
	order       []uint
}

// LoadCatalog reads the user's own and public ingredients. lye selects which
// SAP value is forwarded for calculation.
func (s *Store) LoadCatalog(ctx context.Context, userID uint, lye string) (*Catalog, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	var rows []models.Ingredient
	err = db.Preload("OtherNames").
		Where("owner_id = ? OR public = ?", userID, true).
		Order("name asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: load catalog: %w", err)
	}

	c := &Catalog{lye: lye, ingredients: make(map[uint]models.Ingredient, len(rows))}
	for _, ing := range rows {
		c.ingredients[ing.ID] = ing
		c.order = append(c.order, ing.ID)
	}
	return c, nil
}

// Chemistry implements workspace.Catalog.
func (c *Catalog) Chemistry(id uint) (workspace.Chemistry, bool) {
	if c == nil {
		return workspace.Chemistry{}, false
	}
	ing, ok := c.ingredients[id]
	if !ok {
		return workspace.Chemistry{}, false
	}
	return workspace.Chemistry{
		SAPValue:         ing.SAPFor(c.lye),
		IodineValue:      ing.Iodine,
		FattyAcidProfile: ing.FattyAcids,
	}, true
}

// Ingredients lists the catalog sorted by name.
func (c *Catalog) Ingredients() []models.Ingredient {
	if c == nil {
		return nil
	}
	out := make([]models.Ingredient, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.ingredients[id])
	}
	return out
}

// Matcher links imported names to catalog entries.
func (c *Catalog) Matcher() *importer.Matcher {
	candidates := make([]importer.Candidate, 0, len(c.Ingredients()))
	for _, ing := range c.Ingredients() {
		candidates = append(candidates, importer.Candidate{ID: ing.ID, Names: ing.Names()})
	}
	return importer.NewMatcher(candidates)
}
