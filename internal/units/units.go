// Package units converts between display weight units and the canonical base
// unit (grams) and parses user-entered numeric text.
package units

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit identifies a display weight unit.
type Unit string

const (
	Gram     Unit = "g"
	Kilogram Unit = "kg"
	Ounce    Unit = "oz"
	Pound    Unit = "lb"
)

// Base is the canonical unit every conversion normalises through.
const Base = Gram

// grams per one display unit
var factorTable = map[Unit]float64{
	Gram:     1,
	Kilogram: 1000,
	Ounce:    28.349523125,
	Pound:    453.59237,
}

// Decimal places a display weight keeps so that it converts back to grams
// within 0.01.
var placesTable = map[Unit]int{
	Gram:     2,
	Kilogram: 5,
	Ounce:    4,
	Pound:    5,
}

var aliases = map[string]Unit{
	"g":      Gram,
	"gram":   Gram,
	"grams":  Gram,
	"kg":     Kilogram,
	"oz":     Ounce,
	"ounce":  Ounce,
	"ounces": Ounce,
	"lb":     Pound,
	"lbs":    Pound,
	"pound":  Pound,
	"pounds": Pound,
}

// Parse resolves a unit label. Unknown labels report false.
func Parse(label string) (Unit, bool) {
	u, ok := aliases[strings.ToLower(strings.TrimSpace(label))]
	return u, ok
}

// Normalize resolves a unit label, falling back to grams.
func Normalize(label string) Unit {
	if u, ok := Parse(label); ok {
		return u
	}
	return Gram
}

// Supported lists the units in display order.
func Supported() []Unit {
	return []Unit{Gram, Kilogram, Ounce, Pound}
}

// Factor returns the number of grams in one unit.
func (u Unit) Factor() float64 {
	if f, ok := factorTable[u]; ok {
		return f
	}
	return 1
}

// Places returns how many decimal places a weight in u is written with.
func (u Unit) Places() int {
	if p, ok := placesTable[u]; ok {
		return p
	}
	return 2
}

// Format renders a weight already expressed in u. Coarse units keep extra
// places, trailing zeros past the second decimal are dropped.
func (u Unit) Format(v float64) string {
	s := Format(v, u.Places())
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}
	for len(s) > dot+3 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s
}

// Converter converts values between a display unit and grams.
type Converter struct {
	unit Unit
}

// NewConverter returns a converter for the display unit.
func NewConverter(u Unit) Converter {
	if _, ok := factorTable[u]; !ok {
		u = Gram
	}
	return Converter{unit: u}
}

// Unit reports the converter's display unit.
func (c Converter) Unit() Unit {
	if c.unit == "" {
		return Gram
	}
	return c.unit
}

// ToBase converts a display value to grams. Negative and non-finite input
// becomes 0.
func (c Converter) ToBase(display float64) float64 {
	if !finite(display) || display < 0 {
		return 0
	}
	return display * c.Unit().Factor()
}

// FromBase converts grams to the display unit. Negative input becomes 0.
func (c Converter) FromBase(base float64) float64 {
	if !finite(base) || base < 0 {
		return 0
	}
	return base / c.Unit().Factor()
}

// Rescale converts a display value from one unit to another.
func Rescale(value float64, from, to Unit) float64 {
	return NewConverter(to).FromBase(NewConverter(from).ToBase(value))
}

// ParseNumber parses locale-formatted numeric text such as "1,234.5".
// Malformed or non-finite input yields 0.
func ParseNumber(raw string) float64 {
	v, _ := ParseOptional(raw)
	return v
}

// ParseOptional parses numeric text and reports whether a value was present.
// Blank input is not set; garbage is set but coerced to 0.
func ParseOptional(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, false
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.Join(strings.Fields(cleaned), "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || !finite(v) {
		return 0, true
	}
	return v, true
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	if !finite(v) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(int32(places)).Float64()
	return f
}

// Format renders v with a fixed number of decimal places.
func Format(v float64, places int) string {
	if !finite(v) {
		v = 0
	}
	return decimal.NewFromFloat(v).StringFixed(int32(places))
}

// Display renders a gram value as a number in the display unit.
func (c Converter) Display(base float64) string {
	return c.Unit().Format(c.FromBase(base))
}

// FormatWeight renders a gram value in the converter's display unit.
func (c Converter) FormatWeight(base float64) string {
	return c.Display(base) + " " + string(c.Unit())
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
