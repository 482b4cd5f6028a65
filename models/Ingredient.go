package models

import (
	"strings"

	"gorm.io/gorm"
)

// Ingredient kinds.
const (
	KindOil       = "oil"
	KindFragrance = "fragrance"
	KindAdditive  = "additive"
)

// Ingredient is a catalog entry rows can be linked to. Chemistry values are
// optional and forwarded to the calculation service when present.
type Ingredient struct {
	gorm.Model
	Name       string            `gorm:"uniqueIndex;not null" json:"name"`
	INCIName   string            `json:"inci_name"`
	Kind       string            `gorm:"type:varchar(16);not null;default:oil" json:"kind"`
	OtherNames []IngredientAlias `gorm:"foreignKey:IngredientID" json:"other_names"`
	SAPNaOH    *float64          `json:"sap_naoh,omitempty"`
	SAPKOH     *float64          `json:"sap_koh,omitempty"`
	Iodine     *float64          `json:"iodine,omitempty"`
	// FattyAcids maps acid name to percent of the profile.
	FattyAcids      map[string]float64 `gorm:"serializer:json" json:"fatty_acids,omitempty"`
	MaxUsagePercent float64            `json:"max_usage_percent"`
	Notes           string             `gorm:"type:text" json:"notes"`
	OwnerID         uint               `gorm:"not null;default:0" json:"owner_id"`
	Owner           *User              `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Public          bool               `gorm:"not null;default:false" json:"public"`
}

// IngredientAlias holds an alternative name for an Ingredient.
type IngredientAlias struct {
	gorm.Model
	Name         string `gorm:"not null" json:"name"`
	IngredientID uint
}

// NormalizeKind maps a label onto a known kind, defaulting to oil.
func NormalizeKind(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case KindFragrance, "essential oil", "fragrance oil", "eo", "fo":
		return KindFragrance
	case KindAdditive:
		return KindAdditive
	default:
		return KindOil
	}
}

// Names lists the primary name followed by every alias.
func (i Ingredient) Names() []string {
	names := make([]string, 0, len(i.OtherNames)+1)
	names = append(names, i.Name)
	for _, alias := range i.OtherNames {
		if strings.TrimSpace(alias.Name) != "" {
			names = append(names, alias.Name)
		}
	}
	return names
}

// SAPFor returns the saponification value for the given lye type.
func (i Ingredient) SAPFor(lye string) *float64 {
	if strings.EqualFold(strings.TrimSpace(lye), "KOH") {
		return i.SAPKOH
	}
	return i.SAPNaOH
}
