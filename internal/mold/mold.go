// Package mold derives batch capacity from mold geometry.
package mold

import (
	"math"
	"strings"
)

// Shape identifies the mold geometry.
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeCylinder  Shape = "cylinder"
	ShapeCustom    Shape = "custom"
)

// DimensionUnit is the unit mold dimensions are entered in.
type DimensionUnit string

const (
	Centimeter DimensionUnit = "cm"
	Inch       DimensionUnit = "in"
)

const (
	cubicCentimetersPerCubicInch = 16.387064
	defaultDensity               = 1.0 // g/ml
	minCorrection                = 0.5
	maxCorrection                = 1.0
)

// Config describes a mold and how full it should be poured.
type Config struct {
	Shape    Shape         `json:"shape"`
	Unit     DimensionUnit `json:"unit"`
	Length   float64       `json:"length"`
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Diameter float64       `json:"diameter"`
	// VolumeML is used directly for custom molds.
	VolumeML float64 `json:"volume_ml"`
	// Density converts volume to grams; zero means 1 g/ml.
	Density float64 `json:"density"`
}

// ParseShape resolves a shape label. Unknown values become custom.
func ParseShape(label string) Shape {
	switch Shape(strings.ToLower(strings.TrimSpace(label))) {
	case ShapeRectangle, "rect", "loaf":
		return ShapeRectangle
	case ShapeCylinder, "round", "tube":
		return ShapeCylinder
	default:
		return ShapeCustom
	}
}

// Volume returns the mold volume in millilitres.
func (c Config) Volume() float64 {
	var cubic float64
	switch c.Shape {
	case ShapeRectangle:
		cubic = positive(c.Length) * positive(c.Width) * positive(c.Height)
	case ShapeCylinder:
		r := positive(c.Diameter) / 2
		cubic = math.Pi * r * r * positive(c.Height)
	default:
		return positive(c.VolumeML)
	}
	if c.Unit == Inch {
		cubic *= cubicCentimetersPerCubicInch
	}
	return cubic
}

// CapacityGrams returns the mold capacity in grams.
func (c Config) CapacityGrams() float64 {
	density := c.Density
	if density <= 0 || math.IsNaN(density) || math.IsInf(density, 0) {
		density = defaultDensity
	}
	return c.Volume() * density
}

// ClampCorrection bounds a shape correction factor to [0.5, 1]. Zero or
// invalid input means no correction.
func ClampCorrection(factor float64) float64 {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return maxCorrection
	}
	return math.Min(maxCorrection, math.Max(minCorrection, factor))
}

// ClampFill bounds a fill percentage to [0, 100]. Unset (zero or invalid)
// means a full mold.
func ClampFill(fill float64) float64 {
	if fill <= 0 || math.IsNaN(fill) || math.IsInf(fill, 0) {
		return 100
	}
	return math.Min(100, fill)
}

func positive(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
