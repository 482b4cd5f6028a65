package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"saponaria/internal/workspace"
	"saponaria/models"
)

// ErrRecipeNotFound is returned for unknown or foreign recipes.
var ErrRecipeNotFound = errors.New("store: recipe not found")

// SaveRecipe stores the workspace under name. Saving over an existing latest
// recipe with the same name creates a new version.
func (s *Store) SaveRecipe(ctx context.Context, ownerID uint, name, notes string, ws *workspace.Workspace) (*models.Recipe, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := ws.EncodeSnapshot()
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		OwnerID:  ownerID,
		Name:     strings.TrimSpace(name),
		Notes:    strings.TrimSpace(notes),
		Version:  1,
		IsLatest: true,
		Snapshot: string(snapshot),
	}
	if recipe.Name == "" {
		recipe.Name = "Untitled Recipe"
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var previous models.Recipe
		if err := tx.Where("owner_id = ? AND name = ? AND is_latest = ?", ownerID, recipe.Name, true).
			Limit(1).Find(&previous).Error; err != nil {
			return err
		}
		if previous.ID != 0 {
			recipe.Version = previous.Version + 1
			recipe.ParentRecipeID = &previous.ID
			if err := tx.Model(&previous).Update("is_latest", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&recipe).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store: save recipe: %w", err)
	}
	return &recipe, nil
}

// ListRecipes returns the latest version of each of the owner's recipes.
func (s *Store) ListRecipes(ctx context.Context, ownerID uint) ([]models.Recipe, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	var recipes []models.Recipe
	if err := db.Where("owner_id = ? AND is_latest = ?", ownerID, true).Order("name asc").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("store: list recipes: %w", err)
	}
	return recipes, nil
}

// LoadRecipe restores a saved recipe as a workspace.
func (s *Store) LoadRecipe(ctx context.Context, ownerID, id uint) (*workspace.Workspace, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	var recipe models.Recipe
	if err := db.Where("id = ? AND owner_id = ?", id, ownerID).Limit(1).Find(&recipe).Error; err != nil {
		return nil, fmt.Errorf("store: load recipe: %w", err)
	}
	if recipe.ID == 0 {
		return nil, ErrRecipeNotFound
	}
	return workspace.DecodeSnapshot([]byte(recipe.Snapshot))
}
