package pages

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/a-h/templ"

	"saponaria/internal/calc"
	"saponaria/internal/reconcile"
	"saponaria/internal/units"
	"saponaria/internal/views/components"
	"saponaria/internal/workspace"
)

const workspaceAPI = "/app/api/workspace"

// Workbench renders the editable formulation. Every control posts to the
// workspace API and swaps the whole workbench with the response.
func Workbench(view workspace.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		m.Printf(`<section id="workbench" class="workbench" data-updated-at="%d">`, view.UpdatedAt)
		m.Render(components.Notice(view.Notice, workspaceAPI+"/notice/dismiss"))
		m.Render(unitSelector(view.Unit))
		m.Render(targetForm(view))
		m.Render(rowTable(view.Oils, view.Unit, "Oils"))
		m.Render(rowTable(view.Fragrances, view.Unit, "Fragrance &amp; additives"))
		m.Render(additiveList(view.Additives))
		m.Raw(`<div class="workbench-actions">`)
		if view.CanUndo {
			m.Printf(`<button type="button" hx-post="%s/undo" hx-target="#workbench" hx-swap="outerHTML">Undo remove</button>`, workspaceAPI)
		}
		m.Printf(`<button type="button" hx-post="%s/calculate" hx-target="#workbench" hx-swap="outerHTML">Calculate</button>`, workspaceAPI)
		m.Raw(`</div>`)
		m.Render(resultCards(view.Result, view.Unit))
		m.Raw(`</section>`)
		return m.Err()
	})
}

func unitSelector(current units.Unit) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		m.Printf(`<form class="unit-selector" hx-post="%s/unit" hx-trigger="change" hx-target="#workbench" hx-swap="outerHTML"><label>Unit <select name="unit">`, workspaceAPI)
		for _, u := range UnitOptions() {
			selected := ""
			if u == current {
				selected = " selected"
			}
			m.Printf(`<option value="%s"%s>%s</option>`, string(u), components.Trusted(selected), string(u))
		}
		m.Raw(`</select></label></form>`)
		return m.Err()
	})
}

func targetForm(view workspace.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		s := view.Settings
		m.Printf(`<form class="target-form" hx-post="%s/target" hx-trigger="change" hx-target="#workbench" hx-swap="outerHTML">`, workspaceAPI)
		m.Printf(`<label>Batch oils (%s) <input type="text" inputmode="decimal" name="explicit" value="%s"></label>`, string(view.Unit), s.Explicit)
		m.Printf(`<fieldset><legend>Mold</legend><input type="hidden" name="mold_enabled" value="false"><label><input type="checkbox" name="mold_enabled" value="true"%s> Use mold capacity</label>`, checked(s.MoldEnabled))
		m.Printf(`<select name="shape">%s%s%s</select>`,
			option("rectangle", "Rectangle", string(s.Mold.Shape)),
			option("cylinder", "Cylinder", string(s.Mold.Shape)),
			option("custom", "Custom volume", string(s.Mold.Shape)))
		m.Printf(`<select name="dimension_unit">%s%s</select>`,
			option("cm", "cm", string(s.Mold.Unit)),
			option("in", "in", string(s.Mold.Unit)))
		m.Printf(`<input name="length" placeholder="L" value="%s"><input name="width" placeholder="W" value="%s"><input name="height" placeholder="H" value="%s">`,
			number(s.Mold.Length), number(s.Mold.Width), number(s.Mold.Height))
		m.Printf(`<input name="diameter" placeholder="D" value="%s"><input name="volume_ml" placeholder="ml" value="%s">`,
			number(s.Mold.Diameter), number(s.Mold.VolumeML))
		m.Printf(`<label>Fill %% <input name="fill_percent" value="%s"></label>`, s.FillPercent)
		m.Printf(`<input type="hidden" name="correction_enabled" value="false"><label><input type="checkbox" name="correction_enabled" value="true"%s> Shape correction</label>`, checked(s.CorrectionEnabled))
		m.Printf(`<input name="correction_factor" value="%s"></fieldset>`, s.CorrectionFactor)
		if view.Capacity != "" {
			m.Printf(`<p class="capacity">Capacity %s</p>`, view.Capacity)
		}
		m.Raw(`</form>`)
		return m.Err()
	})
}

func rowTable(set workspace.SetView, unit units.Unit, title string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		name := string(set.Set)
		m.Printf(`<section class="row-set" data-set="%s"><h2>`, name)
		m.Raw(title)
		m.Raw(`</h2><table><thead><tr><th>Name</th>`)
		m.Printf(`<th>Weight (%s)</th><th>%%</th><th></th></tr></thead><tbody>`, string(unit))
		for _, row := range set.Rows {
			m.Printf(`<tr data-row-id="%s"><td>%s</td>`, row.ID, DefaultDash(row.Name))
			m.Render(editCell(set.Set, row.ID, reconcile.FieldWeight, row.Weight))
			m.Render(editCell(set.Set, row.ID, reconcile.FieldPercent, row.Percent))
			m.Printf(`<td><button type="button" hx-delete="%s/rows/%s/%s" hx-target="#workbench" hx-swap="outerHTML">Remove</button></td></tr>`,
				workspaceAPI, name, row.ID)
		}
		m.Raw(`</tbody><tfoot><tr><th>Total</th>`)
		m.Printf(`<td>%s</td><td>%s</td><td></td></tr></tfoot></table>`, set.TotalWeight, set.TotalPercent)
		if set.Target != "" {
			m.Printf(`<p class="target" data-source="%s">Target %s %s</p>`, string(set.TargetSource), set.Target, string(unit))
		}
		m.Render(components.Warnings(name+"-warnings", set.Warnings))
		m.Printf(`<form hx-post="%s/rows" hx-target="#workbench" hx-swap="outerHTML"><input type="hidden" name="set" value="%s">`, workspaceAPI, name)
		m.Raw(`<input name="name" placeholder="Ingredient"><input name="weight" placeholder="Weight"><input name="percent" placeholder="%"><button type="submit">Add</button></form></section>`)
		return m.Err()
	})
}

func editCell(set workspace.Set, id string, field reconcile.Field, value string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		vals := fmt.Sprintf(`{"set":%q,"id":%q,"field":%q}`, string(set), id, string(field))
		m.Printf(`<td><input type="text" inputmode="decimal" name="value" value="%s" hx-post="%s/edit" hx-trigger="input changed delay:300ms" hx-vals="%s" hx-target="#workbench" hx-swap="outerHTML"></td>`,
			value, workspaceAPI, vals)
		return m.Err()
	})
}

func additiveList(additives []workspace.Additive) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		m.Printf(`<form class="additives" hx-post="%s/settings" hx-target="#workbench" hx-swap="outerHTML"><h3>Additives (%% of oils)</h3><ul>`, workspaceAPI)
		for _, additive := range additives {
			m.Printf(`<li>%s: %s%%</li>`, additive.Name, additive.Percent)
		}
		m.Raw(`</ul><input name="additive_name" placeholder="Sodium lactate"><input name="additive_percent" placeholder="%"><button type="submit">Set</button></form>`)
		return m.Err()
	})
}

func resultCards(result *calc.Response, unit units.Unit) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if result == nil {
			return nil
		}
		m := components.NewMarkup(ctx, w)
		conv := units.NewConverter(unit)
		m.Raw(`<section class="results">`)
		m.Render(components.StatCard("Oils", conv.FormatWeight(result.TotalOilsBase), "", ""))
		m.Render(components.StatCard("Lye", conv.FormatWeight(result.LyeAdjustedBase), "", ""))
		m.Render(components.StatCard("Water", conv.FormatWeight(result.WaterBase), "", ""))
		m.Render(components.StatCard("Lye concentration", units.Format(result.LyeConcentrationPct, 2)+"%", "", ""))
		m.Render(components.StatCard("Water : lye", units.Format(result.WaterToLyeRatio, 2)+" : 1", "", ""))
		for _, name := range sortedKeys(result.AdditiveOutputs) {
			m.Render(components.StatCard(name, conv.FormatWeight(result.AdditiveOutputs[name]), "", ""))
		}
		m.Raw(`</section>`)
		return m.Err()
	})
}

func checked(on bool) components.Trusted {
	if on {
		return " checked"
	}
	return ""
}

func option(value, label, current string) components.Trusted {
	selected := ""
	if value == current {
		selected = " selected"
	}
	return components.Trusted(fmt.Sprintf(`<option value="%s"%s>%s</option>`,
		templ.EscapeString(value), selected, templ.EscapeString(label)))
}

func sortedKeys(values map[string]float64) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func number(v float64) string {
	if v == 0 {
		return ""
	}
	return units.Format(v, 2)
}
