package reconcile

import (
	"fmt"

	"saponaria/internal/units"
)

// Status is the input to the warning projector.
type Status struct {
	TotalWeight  float64 `json:"total_weight"`
	TotalPercent float64 `json:"total_percent"`
	Target       float64 `json:"target"`
	Capped       bool    `json:"capped"`
}

// WarningCode identifies a warning kind.
type WarningCode string

const (
	WarningCapped      WarningCode = "capped"
	WarningOverTarget  WarningCode = "over_target"
	WarningOverPercent WarningCode = "over_percent"
)

// Warning is a user-facing status message. Excess is in base units for
// over-target warnings and percentage points for over-percent warnings.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
	Excess  float64     `json:"excess,omitempty"`
}

// Project derives warnings from a reconciliation status. An empty result
// means any previously shown warnings should be cleared.
func Project(s Status, conv units.Converter) []Warning {
	warnings := []Warning{}
	if s.Capped {
		warnings = append(warnings, Warning{
			Code:    WarningCapped,
			Message: "Total hit the capacity cap and was adjusted.",
		})
	}
	if s.Target > 0 && s.TotalWeight > s.Target+Epsilon {
		excess := s.TotalWeight - s.Target
		warnings = append(warnings, Warning{
			Code:    WarningOverTarget,
			Message: fmt.Sprintf("Weights exceed target by %s.", conv.FormatWeight(excess)),
			Excess:  excess,
		})
	}
	if s.TotalPercent > 100+Epsilon {
		excess := s.TotalPercent - 100
		warnings = append(warnings, Warning{
			Code:    WarningOverPercent,
			Message: fmt.Sprintf("Percentages exceed 100%% by %s%%.", units.Format(excess, 2)),
			Excess:  excess,
		})
	}
	return warnings
}
