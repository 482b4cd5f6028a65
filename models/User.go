package models

import (
	"strings"

	"gorm.io/gorm"

	"saponaria/internal/units"
)

// DefaultUnit is the display unit for new accounts.
const DefaultUnit = string(units.Gram)

// User represents an application account that can authenticate with the platform.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
	Unit         string `gorm:"type:varchar(8);default:g"`
}

// ValidUnit reports whether value names a supported display unit.
func ValidUnit(value string) bool {
	_, ok := units.Parse(value)
	return ok
}

// NormalizeUnit returns a supported display unit, defaulting to grams.
func NormalizeUnit(value string) string {
	if u, ok := units.Parse(strings.TrimSpace(value)); ok {
		return string(u)
	}
	return DefaultUnit
}
