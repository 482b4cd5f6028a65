// Package reconcile keeps the weight and percent fields of a row set
// consistent with a target capacity.
//
// All weights handled by this package are in base units (grams). The package
// holds no state: the edit cursor is passed explicitly on every call.
package reconcile

import "math"

// Epsilon is the tolerance, in base units and percentage points, used when
// comparing totals against targets and caps.
const Epsilon = 0.01

// Field names the editable quantity on an entry.
type Field string

const (
	FieldWeight  Field = "weight"
	FieldPercent Field = "percent"
)

// Valid reports whether f names a known field.
func (f Field) Valid() bool {
	return f == FieldWeight || f == FieldPercent
}

// Entry is one oil or fragrance line. A field that was never entered is not
// set, which is distinct from an explicit zero.
type Entry struct {
	ID         string  `json:"id"`
	Weight     float64 `json:"weight"`
	Percent    float64 `json:"percent"`
	WeightSet  bool    `json:"weight_set"`
	PercentSet bool    `json:"percent_set"`
}

// WithWeight returns e with the weight set.
func (e Entry) WithWeight(v float64) Entry {
	e.Weight = v
	e.WeightSet = true
	return e
}

// WithPercent returns e with the percent set.
func (e Entry) WithPercent(v float64) Entry {
	e.Percent = v
	e.PercentSet = true
	return e
}

func (e Entry) sanitized() Entry {
	e.Weight = coerce(e.Weight)
	e.Percent = coerce(e.Percent)
	if !e.WeightSet {
		e.Weight = 0
	}
	if !e.PercentSet {
		e.Percent = 0
	}
	return e
}

// Cursor records the entry and field the user edited most recently. A nil
// cursor means no live edit.
type Cursor struct {
	EntryID string `json:"entry_id"`
	Field   Field  `json:"field"`
}

func (c *Cursor) is(id string, field Field) bool {
	return c != nil && c.EntryID != "" && c.EntryID == id && c.Field == field
}

// Totals are always derived from the entries, never stored.
type Totals struct {
	Weight  float64 `json:"total_weight"`
	Percent float64 `json:"total_percent"`
}

// SumWeights adds every positive weight.
func SumWeights(entries []Entry) float64 {
	total := 0.0
	for _, e := range entries {
		if w := e.sanitized().Weight; w > 0 {
			total += w
		}
	}
	return total
}

func indexOf(entries []Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
