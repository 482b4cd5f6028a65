// Package importer turns pasted or uploaded recipe text into workspace rows.
package importer

import (
	"regexp"
	"strings"

	"saponaria/internal/units"
	"saponaria/internal/workspace"
)

// Section is the part of a recipe a line belongs to.
type Section string

const (
	SectionOils       Section = "oils"
	SectionFragrances Section = "fragrances"
	SectionAdditives  Section = "additives"
)

var headings = map[string]Section{
	"oils":           SectionOils,
	"oil":            SectionOils,
	"base oils":      SectionOils,
	"fats":           SectionOils,
	"oils and fats":  SectionOils,
	"fragrance":      SectionFragrances,
	"fragrances":     SectionFragrances,
	"essential oils": SectionFragrances,
	"scent":          SectionFragrances,
	"additives":      SectionAdditives,
	"additive":       SectionAdditives,
	"extras":         SectionAdditives,
}

// Line is one parsed ingredient line.
type Line struct {
	Section   Section
	Name      string
	Amount    string
	Value     float64
	Unit      units.Unit
	IsPercent bool
}

// Recipe is the parsed result of a document.
type Recipe struct {
	Name    string
	Unit    units.Unit
	Lines   []Line
	Skipped []string
}

const unitPattern = `%|(?i:kg|grams|gram|g|ounces|ounce|oz|pounds|pound|lbs|lb)`

var (
	trailingAmount = regexp.MustCompile(`^(.+?)[\s:=,\-]+([0-9][0-9.,]*)\s*(` + unitPattern + `)?\.?$`)
	leadingAmount  = regexp.MustCompile(`^([0-9][0-9.,]*)\s*(` + unitPattern + `)?\s+(?:of\s+)?(.+)$`)
	bullet         = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s+`)
)

// ParseRecipe reads one ingredient per line. Lines before any heading are
// oils. Weights without a unit are grams; lines that cannot be read are
// reported in Skipped.
func ParseRecipe(text string) Recipe {
	recipe := Recipe{}
	section := SectionOils

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(bullet.ReplaceAllString(strings.TrimSpace(raw), ""))
		if line == "" {
			continue
		}
		if title, ok := recipeTitle(line); ok {
			if recipe.Name == "" {
				recipe.Name = title
			}
			continue
		}
		if next, ok := heading(line); ok {
			section = next
			continue
		}
		parsed, ok := parseLine(line)
		if !ok {
			recipe.Skipped = append(recipe.Skipped, line)
			continue
		}
		parsed.Section = section
		if !parsed.IsPercent && recipe.Unit == "" {
			recipe.Unit = parsed.Unit
		}
		recipe.Lines = append(recipe.Lines, parsed)
	}
	if recipe.Unit == "" {
		recipe.Unit = units.Gram
	}
	return recipe
}

func recipeTitle(line string) (string, bool) {
	if strings.HasPrefix(line, "#") {
		return strings.TrimSpace(strings.TrimLeft(line, "#")), true
	}
	lower := strings.ToLower(line)
	for _, prefix := range []string{"recipe:", "name:", "title:"} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}

func heading(line string) (Section, bool) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(line, ":")))
	section, ok := headings[key]
	return section, ok
}

func parseLine(line string) (Line, bool) {
	var name, amount, unit string
	if m := trailingAmount.FindStringSubmatch(line); m != nil {
		name, amount, unit = m[1], m[2], m[3]
	} else if m := leadingAmount.FindStringSubmatch(line); m != nil {
		amount, unit, name = m[1], m[2], m[3]
	} else {
		return Line{}, false
	}

	name = strings.TrimSpace(strings.Trim(name, ":-=, "))
	if name == "" {
		return Line{}, false
	}
	value, set := units.ParseOptional(amount)
	if !set || value <= 0 {
		return Line{}, false
	}

	out := Line{Name: name, Amount: strings.TrimRight(amount, ".,"), Value: value, Unit: units.Gram}
	switch {
	case unit == "%":
		out.IsPercent = true
	case unit == "":
	default:
		u, ok := units.Parse(strings.ToLower(unit))
		if !ok {
			return Line{}, false
		}
		out.Unit = u
	}
	return out, true
}

// Snapshot converts the recipe into a workspace snapshot in the recipe unit.
func (r Recipe) Snapshot() workspace.Snapshot {
	w := workspace.New()
	w.SwitchUnit(r.Unit)
	r.ApplyTo(w, nil)
	return w.Snapshot()
}

// ApplyTo appends the recipe rows to w, rescaling weights into the
// workspace unit. match links rows to catalog ingredients and may be nil.
func (r Recipe) ApplyTo(w *workspace.Workspace, match func(name string) uint) (int, error) {
	added := 0
	for _, line := range r.Lines {
		if line.Section == SectionAdditives && line.IsPercent {
			w.SetAdditive(line.Name, line.Amount)
			added++
			continue
		}

		row := workspace.Row{Name: line.Name}
		if match != nil {
			row.IngredientID = match(line.Name)
		}
		if line.IsPercent {
			row.Percent = line.Amount
		} else if line.Unit == w.Unit() {
			row.Weight = line.Amount
		} else {
			row.Weight = w.Unit().Format(units.Rescale(line.Value, line.Unit, w.Unit()))
		}

		set := workspace.SetOils
		switch line.Section {
		case SectionFragrances:
			set = workspace.SetFragrances
			row.Kind = "fragrance"
		case SectionAdditives:
			set = workspace.SetFragrances
			row.Kind = "additive"
		}
		if _, err := w.AddRow(set, row); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
