package workspace

import (
	"sort"

	"saponaria/internal/calc"
	"saponaria/internal/reconcile"
	"saponaria/internal/units"
)

// SetView is the rendered state of one row set.
type SetView struct {
	Set          Set                 `json:"set"`
	Rows         []Row               `json:"rows"`
	TotalWeight  string              `json:"total_weight"`
	TotalPercent string              `json:"total_percent"`
	Target       string              `json:"target"`
	TargetSource reconcile.Source    `json:"target_source"`
	Capped       bool                `json:"capped"`
	Warnings     []reconcile.Warning `json:"warnings"`
}

// Additive is one named additive percentage.
type Additive struct {
	Name    string `json:"name"`
	Percent string `json:"percent"`
}

// View is everything a client needs to render the workspace.
type View struct {
	Unit       units.Unit     `json:"unit"`
	Oils       SetView        `json:"oils"`
	Fragrances SetView        `json:"fragrances"`
	Settings   TargetSettings `json:"target_settings"`
	Capacity   string         `json:"capacity,omitempty"`
	Lye        LyeSettings    `json:"lye"`
	Water      WaterSettings  `json:"water"`
	Additives  []Additive     `json:"additives"`
	Result     *calc.Response `json:"result,omitempty"`
	Notice     string         `json:"notice,omitempty"`
	CanUndo    bool           `json:"can_undo"`
	UpdatedAt  int64          `json:"updated_at"`
}

// View renders the current state. Totals come from the last reconciliation;
// a freshly restored workspace is evaluated without changing its rows.
func (w *Workspace) View() View {
	last := w.states()
	conv := units.NewConverter(w.unit)

	additives := make([]Additive, 0, len(w.additives))
	for name, raw := range w.additives {
		additives = append(additives, Additive{Name: name, Percent: raw})
	}
	sort.Slice(additives, func(i, j int) bool { return additives[i].Name < additives[j].Name })

	v := View{
		Unit:       w.unit,
		Oils:       w.setView(SetOils, last[SetOils], conv),
		Fragrances: w.setView(SetFragrances, last[SetFragrances], conv),
		Settings:   w.target,
		Lye:        w.lye,
		Water:      w.water,
		Additives:  additives,
		Result:     w.result,
		Notice:     w.notice,
		CanUndo:    w.removed != nil,
		UpdatedAt:  w.updatedAt,
	}
	if c := w.capacityConfig().Resolved(); c > 0 {
		v.Capacity = conv.FormatWeight(c)
	}
	return v
}

func (w *Workspace) setView(set Set, st setState, conv units.Converter) SetView {
	sv := SetView{
		Set:          set,
		Rows:         w.Rows(set),
		TotalWeight:  conv.Display(st.result.Totals.Weight),
		TotalPercent: units.Format(st.result.Totals.Percent, 2),
		TargetSource: st.target.Source,
		Capped:       st.result.Capped,
		Warnings:     reconcile.Project(st.result.Status(), conv),
	}
	if st.target.Value > 0 {
		sv.Target = conv.Display(st.target.Value)
	}
	return sv
}

func (w *Workspace) states() map[Set]setState {
	if w.last != nil {
		return w.last
	}
	return w.evaluate()
}

// evaluate reconciles a copy of the workspace so the rows stay untouched.
func (w *Workspace) evaluate() map[Set]setState {
	clone := *w
	clone.oils = w.Rows(SetOils)
	clone.fragrances = w.Rows(SetFragrances)
	clone.recompute(false)
	return clone.last
}
