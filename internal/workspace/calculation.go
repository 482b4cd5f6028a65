package workspace

import (
	"context"
	"strings"

	"saponaria/internal/calc"
	"saponaria/internal/reconcile"
	"saponaria/internal/units"
)

// UnavailableNotice is shown when the calculation service fails.
const UnavailableNotice = "Calculation service unavailable. Showing the last successful results."

// Chemistry is catalog data attached to an oil row.
type Chemistry struct {
	SAPValue         *float64
	IodineValue      *float64
	FattyAcidProfile map[string]float64
}

// Catalog resolves chemistry for linked ingredients.
type Catalog interface {
	Chemistry(ingredientID uint) (Chemistry, bool)
}

// Outcome describes what CompleteCalculation did with a response.
type Outcome int

const (
	OutcomeStale Outcome = iota
	OutcomeApplied
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeFailed:
		return "failed"
	default:
		return "stale"
	}
}

// BeginCalculation issues a new sequence number and builds the request.
// Any response for an earlier number is dropped on completion.
func (w *Workspace) BeginCalculation(catalog Catalog) (uint64, calc.Request) {
	seq := w.seq.Next()
	return seq, w.CalculationRequest(catalog)
}

// CalculationRequest builds the calculation payload from the current rows.
// A nil catalog sends oils without chemistry overrides.
func (w *Workspace) CalculationRequest(catalog Catalog) calc.Request {
	conv := units.NewConverter(w.unit)
	req := calc.Request{
		Oils:                make([]calc.Oil, 0, len(w.oils)),
		Fragrances:          make([]calc.Fragrance, 0, len(w.fragrances)),
		AdditivePercentages: make(map[string]float64, len(w.additives)),
		LyeSelection:        w.lyeSelection(),
		WaterMethod:         calc.ParseWaterMethod(w.water.Method),
	}

	// Reconciled base weights avoid the rounding of display values.
	states := w.states()
	oils := entriesByID(states[SetOils].result.Entries)
	fragrances := entriesByID(states[SetFragrances].result.Entries)

	for _, r := range w.oils {
		oil := calc.Oil{Name: r.Name, WeightBase: conv.ToBase(units.ParseNumber(r.Weight))}
		if e, ok := oils[r.ID]; ok {
			oil.WeightBase = e.Weight
		}
		if catalog != nil && r.IngredientID != 0 {
			if chem, ok := catalog.Chemistry(r.IngredientID); ok {
				oil.SAPValue = chem.SAPValue
				oil.IodineValue = chem.IodineValue
				oil.FattyAcidProfile = chem.FattyAcidProfile
			}
		}
		req.Oils = append(req.Oils, oil)
	}
	for _, r := range w.fragrances {
		f := calc.Fragrance{
			Name:       r.Name,
			WeightBase: conv.ToBase(units.ParseNumber(r.Weight)),
			Percent:    units.ParseNumber(r.Percent),
		}
		if e, ok := fragrances[r.ID]; ok {
			f.WeightBase, f.Percent = e.Weight, e.Percent
		}
		req.Fragrances = append(req.Fragrances, f)
	}
	for name, raw := range w.additives {
		req.AdditivePercentages[name] = units.ParseNumber(raw)
	}
	req.WaterParams = map[string]float64{string(req.WaterMethod): units.ParseNumber(w.water.Value)}
	return req
}

// CompleteCalculation applies a response for seq. Responses for superseded
// requests are dropped. A failure keeps the previous results and raises the
// unavailable notice.
func (w *Workspace) CompleteCalculation(seq uint64, resp calc.Response, err error) Outcome {
	if !w.seq.IsCurrent(seq) {
		return OutcomeStale
	}
	if err != nil {
		w.notice = UnavailableNotice
		return OutcomeFailed
	}
	result := resp
	w.result = &result
	w.notice = ""
	return OutcomeApplied
}

// Calculate runs a full round trip against backend.
func (w *Workspace) Calculate(ctx context.Context, backend calc.Backend, catalog Catalog) (Outcome, error) {
	seq, req := w.BeginCalculation(catalog)
	resp, err := backend.Calculate(ctx, req)
	return w.CompleteCalculation(seq, resp, err), err
}

// Result returns the last applied calculation result, or nil.
func (w *Workspace) Result() *calc.Response { return w.result }

// Notice returns the pending notice, if any.
func (w *Workspace) Notice() string { return w.notice }

// DismissNotice clears the pending notice.
func (w *Workspace) DismissNotice() { w.notice = "" }

func entriesByID(entries []reconcile.Entry) map[string]reconcile.Entry {
	out := make(map[string]reconcile.Entry, len(entries))
	for _, e := range entries {
		out[e.ID] = e
	}
	return out
}

func (w *Workspace) lyeSelection() calc.LyeSelection {
	sel := calc.LyeSelection{Type: "NaOH", Superfat: 5, Purity: 100}
	switch strings.ToUpper(strings.TrimSpace(w.lye.Type)) {
	case "KOH":
		sel.Type = "KOH"
	case "DUAL", "MIXED":
		sel.Type = "dual"
	}
	if v, ok := units.ParseOptional(w.lye.Superfat); ok {
		sel.Superfat = v
	}
	if v, ok := units.ParseOptional(w.lye.Purity); ok && v > 0 {
		sel.Purity = v
	}
	return sel
}
