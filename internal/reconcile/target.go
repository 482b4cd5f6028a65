package reconcile

import (
	"saponaria/internal/mold"
	"saponaria/internal/units"
)

// Source describes where a resolved target came from.
type Source string

const (
	SourceNone     Source = "none"
	SourceCapacity Source = "capacity"
	SourceExplicit Source = "explicit"
	SourceInferred Source = "inferred"
)

// CapacityConfig is the mold-derived capacity snapshot.
type CapacityConfig struct {
	// Capacity is the raw mold capacity in base units.
	Capacity float64 `json:"capacity"`
	// FillPercent is how full the mold is poured; unset means 100.
	FillPercent       float64 `json:"fill_percent"`
	CorrectionEnabled bool    `json:"correction_enabled"`
	CorrectionFactor  float64 `json:"correction_factor"`
}

// Effective applies the shape correction to the raw capacity.
func (c CapacityConfig) Effective() float64 {
	capacity := coerce(c.Capacity)
	if c.CorrectionEnabled {
		capacity *= mold.ClampCorrection(c.CorrectionFactor)
	}
	return capacity
}

// Resolved is the effective capacity scaled by the fill percentage.
func (c CapacityConfig) Resolved() float64 {
	effective := c.Effective()
	if effective <= 0 {
		return 0
	}
	return effective * mold.ClampFill(c.FillPercent) / 100
}

// Target is the reference total a row set is expressed against.
type Target struct {
	Value  float64 `json:"value"`
	Source Source  `json:"source"`
}

// ResolveTarget picks the active target in base units. Mold capacity wins
// over an explicit target; with neither, the target is inferred from rows
// that carry both a weight and a percent.
func ResolveTarget(explicit float64, capacity CapacityConfig, entries []Entry) Target {
	if v := capacity.Resolved(); v > 0 {
		return Target{Value: v, Source: SourceCapacity}
	}
	if v := coerce(explicit); v > 0 {
		return Target{Value: v, Source: SourceExplicit}
	}
	if v := InferTarget(entries); v > 0 {
		return Target{Value: v, Source: SourceInferred}
	}
	return Target{Source: SourceNone}
}

// InferTarget averages weight/(percent/100) over entries with both fields
// positive. It returns 0 when no entry qualifies.
func InferTarget(entries []Entry) float64 {
	sum := 0.0
	n := 0
	for _, e := range entries {
		e = e.sanitized()
		if e.Weight > 0 && e.Percent > 0 {
			sum += e.Weight / (e.Percent / 100)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// EchoTarget returns the display text to write into an explicit-target field.
// It only fills a field that is currently blank, so echoing never feeds back
// into a target the user typed.
func EchoTarget(current string, target Target, conv units.Converter) (string, bool) {
	if _, set := units.ParseOptional(current); set {
		return current, false
	}
	if target.Value <= 0 {
		return current, false
	}
	return conv.Display(target.Value), true
}
