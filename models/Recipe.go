package models

import (
	"gorm.io/gorm"
)

// Recipe is a named, versioned copy of a workspace snapshot.
type Recipe struct {
	gorm.Model
	OwnerID        uint   `gorm:"index;not null" json:"owner_id"`
	Name           string `gorm:"not null" json:"name"`
	Notes          string `gorm:"type:text" json:"notes"`
	Version        int    `gorm:"not null;default:1" json:"version"`
	IsLatest       bool   `gorm:"not null;default:true" json:"is_latest"`
	ParentRecipeID *uint  `json:"parent_recipe_id"`
	Snapshot       string `gorm:"type:text;not null" json:"-"`
}
