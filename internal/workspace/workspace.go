// Package workspace maps the raw text fields of a formulation onto the
// reconciliation engine and back. Row values are kept exactly as entered and
// only rewritten when reconciliation changes them.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"saponaria/internal/calc"
	"saponaria/internal/mold"
	"saponaria/internal/reconcile"
	"saponaria/internal/units"
)

// Set names one of the two independent row sets.
type Set string

const (
	SetOils       Set = "oils"
	SetFragrances Set = "fragrances"
)

// ParseSet resolves a set label.
func ParseSet(label string) (Set, error) {
	switch Set(strings.ToLower(strings.TrimSpace(label))) {
	case SetOils, "oil":
		return SetOils, nil
	case SetFragrances, "fragrance":
		return SetFragrances, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSet, label)
	}
}

var (
	ErrUnknownSet      = errors.New("workspace: unknown row set")
	ErrRowNotFound     = errors.New("workspace: row not found")
	ErrUnknownField    = errors.New("workspace: unknown field")
	ErrNothingToUndo   = errors.New("workspace: nothing to undo")
	ErrInvalidSnapshot = errors.New("workspace: invalid snapshot")
)

// Row is one line item as the user typed it.
type Row struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IngredientID uint   `json:"ingredient_id,omitempty"`
	Kind         string `json:"kind,omitempty"`
	Weight       string `json:"weight"`
	Percent      string `json:"percent"`
}

// TargetSettings holds the raw target and mold inputs.
type TargetSettings struct {
	Explicit          string      `json:"explicit"`
	MoldEnabled       bool        `json:"mold_enabled"`
	Mold              mold.Config `json:"mold"`
	FillPercent       string      `json:"fill_percent"`
	CorrectionEnabled bool        `json:"correction_enabled"`
	CorrectionFactor  string      `json:"correction_factor"`
}

// LyeSettings holds the raw lye inputs.
type LyeSettings struct {
	Type     string `json:"type"`
	Superfat string `json:"superfat"`
	Purity   string `json:"purity"`
}

// WaterSettings holds the raw water inputs.
type WaterSettings struct {
	Method string `json:"method"`
	Value  string `json:"value"`
}

// Removal is the one-level undo record for a removed row.
type Removal struct {
	Set   Set    `json:"set"`
	Index int    `json:"index"`
	Row   string `json:"row"`
}

// Transient is per-session editing state that is never part of a snapshot.
type Transient struct {
	Cursors map[Set]*reconcile.Cursor `json:"cursors,omitempty"`
	Removed *Removal                  `json:"removed,omitempty"`
}

type setState struct {
	target reconcile.Target
	result reconcile.Result
}

// Workspace is one formulation being edited.
type Workspace struct {
	unit       units.Unit
	oils       []Row
	fragrances []Row
	target     TargetSettings
	lye        LyeSettings
	water      WaterSettings
	additives  map[string]string
	updatedAt  int64
	// storedAt is the updated_at of the stored draft this workspace was
	// read from or last written as.
	storedAt int64

	cursors map[Set]*reconcile.Cursor
	removed *Removal

	seq    *calc.Sequencer
	result *calc.Response
	notice string

	last map[Set]setState
	now  func() time.Time
}

// New returns an empty workspace in grams.
func New() *Workspace {
	return &Workspace{
		unit:      units.Gram,
		additives: map[string]string{},
		cursors:   map[Set]*reconcile.Cursor{},
		seq:       calc.NewSequencer(0),
		now:       time.Now,
	}
}

// SetClock replaces the clock used for updated_at stamps.
func (w *Workspace) SetClock(now func() time.Time) {
	if now != nil {
		w.now = now
	}
}

// Unit reports the display unit.
func (w *Workspace) Unit() units.Unit { return w.unit }

// Rows returns a copy of a set's rows.
func (w *Workspace) Rows(set Set) []Row {
	rows := *w.rows(set)
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}

// Transient returns the session-scoped editing state.
func (w *Workspace) Transient() Transient {
	t := Transient{Cursors: map[Set]*reconcile.Cursor{}, Removed: w.removed}
	for set, c := range w.cursors {
		if c != nil {
			copied := *c
			t.Cursors[set] = &copied
		}
	}
	return t
}

// ApplyTransient restores session-scoped editing state. Cursors that point at
// rows which no longer exist are dropped.
func (w *Workspace) ApplyTransient(t Transient) {
	w.cursors = map[Set]*reconcile.Cursor{}
	for set, c := range t.Cursors {
		if c == nil || !c.Field.Valid() {
			continue
		}
		if _, ok := w.find(set, c.EntryID); ok {
			copied := *c
			w.cursors[set] = &copied
		}
	}
	w.removed = t.Removed
}

// Cursor returns the edit cursor for a set, or nil.
func (w *Workspace) Cursor(set Set) *reconcile.Cursor {
	return w.cursors[set]
}

// AddRow appends a row, assigning an ID when missing.
func (w *Workspace) AddRow(set Set, row Row) (Row, error) {
	rows := w.rows(set)
	if rows == nil {
		return Row{}, ErrUnknownSet
	}
	if strings.TrimSpace(row.ID) == "" {
		row.ID = uuid.NewString()
	}
	if _, exists := w.find(set, row.ID); exists {
		row.ID = uuid.NewString()
	}
	row.Name = strings.TrimSpace(row.Name)
	*rows = append(*rows, row)
	w.recompute(false)
	w.touch()
	return row, nil
}

// RenameRow updates a row's label and catalog link.
func (w *Workspace) RenameRow(set Set, id, name string, ingredientID uint) error {
	idx, ok := w.find(set, id)
	if !ok {
		return ErrRowNotFound
	}
	rows := w.rows(set)
	(*rows)[idx].Name = strings.TrimSpace(name)
	(*rows)[idx].IngredientID = ingredientID
	w.touch()
	return nil
}

// RemoveRow deletes a row and keeps it for a single undo.
func (w *Workspace) RemoveRow(set Set, id string) error {
	idx, ok := w.find(set, id)
	if !ok {
		return ErrRowNotFound
	}
	rows := w.rows(set)
	encoded, err := json.Marshal((*rows)[idx])
	if err != nil {
		return fmt.Errorf("workspace: encode removed row: %w", err)
	}
	w.removed = &Removal{Set: set, Index: idx, Row: string(encoded)}
	*rows = append((*rows)[:idx], (*rows)[idx+1:]...)

	if c := w.cursors[set]; c != nil && c.EntryID == id {
		delete(w.cursors, set)
	}
	w.recompute(false)
	w.touch()
	return nil
}

// UndoRemove restores the last removed row at its original position.
func (w *Workspace) UndoRemove() (Row, error) {
	if w.removed == nil {
		return Row{}, ErrNothingToUndo
	}
	var row Row
	if err := json.Unmarshal([]byte(w.removed.Row), &row); err != nil {
		w.removed = nil
		return Row{}, fmt.Errorf("workspace: decode removed row: %w", err)
	}
	rows := w.rows(w.removed.Set)
	if rows == nil {
		w.removed = nil
		return Row{}, ErrUnknownSet
	}
	if _, exists := w.find(w.removed.Set, row.ID); exists || row.ID == "" {
		row.ID = uuid.NewString()
	}

	idx := w.removed.Index
	if idx < 0 {
		idx = 0
	}
	if idx > len(*rows) {
		idx = len(*rows)
	}
	*rows = append(*rows, Row{})
	copy((*rows)[idx+1:], (*rows)[idx:])
	(*rows)[idx] = row

	w.removed = nil
	w.recompute(false)
	w.touch()
	return row, nil
}

// CanUndo reports whether a removed row is waiting to be restored.
func (w *Workspace) CanUndo() bool { return w.removed != nil }

// Edit stores raw input for a row's weight or percent, records the edit
// cursor and reconciles the set.
func (w *Workspace) Edit(set Set, id string, field reconcile.Field, raw string) error {
	if !field.Valid() {
		return ErrUnknownField
	}
	idx, ok := w.find(set, id)
	if !ok {
		return ErrRowNotFound
	}
	rows := w.rows(set)
	switch field {
	case reconcile.FieldWeight:
		(*rows)[idx].Weight = raw
	case reconcile.FieldPercent:
		(*rows)[idx].Percent = raw
	}
	w.cursors[set] = &reconcile.Cursor{EntryID: id, Field: field}
	w.recompute(true)
	w.touch()
	return nil
}

// EditWeight is Edit on the weight field.
func (w *Workspace) EditWeight(set Set, id, raw string) error {
	return w.Edit(set, id, reconcile.FieldWeight, raw)
}

// EditPercent is Edit on the percent field.
func (w *Workspace) EditPercent(set Set, id, raw string) error {
	return w.Edit(set, id, reconcile.FieldPercent, raw)
}

// SwitchUnit rescales every weight and the explicit target to a new display
// unit. Percents are unit independent and left untouched.
func (w *Workspace) SwitchUnit(u units.Unit) {
	if u == w.unit {
		return
	}
	from := w.unit
	rescale := func(raw string) string {
		v, set := units.ParseOptional(raw)
		if !set {
			return raw
		}
		return u.Format(units.Rescale(v, from, u))
	}
	for _, rows := range []*[]Row{&w.oils, &w.fragrances} {
		for i := range *rows {
			(*rows)[i].Weight = rescale((*rows)[i].Weight)
		}
	}
	w.target.Explicit = rescale(w.target.Explicit)
	w.unit = u
	// Reconciling here would re-derive percents from rounded display
	// weights, so the next view evaluates without writing back.
	w.last = nil
	w.touch()
}

// SetTarget replaces the target and mold configuration.
func (w *Workspace) SetTarget(t TargetSettings) {
	t.Mold.Shape = mold.ParseShape(string(t.Mold.Shape))
	if t.Mold.Unit != mold.Inch {
		t.Mold.Unit = mold.Centimeter
	}
	w.target = t
	w.recompute(false)
	w.touch()
}

// SetMold replaces only the mold geometry and enables it.
func (w *Workspace) SetMold(cfg mold.Config) {
	t := w.target
	t.Mold = cfg
	t.MoldEnabled = cfg.Volume() > 0
	w.SetTarget(t)
}

// Target returns the raw target settings.
func (w *Workspace) Target() TargetSettings { return w.target }

// SetLye replaces the lye settings.
func (w *Workspace) SetLye(l LyeSettings) {
	w.lye = l
	w.touch()
}

// SetWater replaces the water settings.
func (w *Workspace) SetWater(s WaterSettings) {
	s.Method = string(calc.ParseWaterMethod(strings.TrimSpace(s.Method)))
	w.water = s
	w.touch()
}

// SetAdditive sets or, with a blank value, clears an additive percentage.
func (w *Workspace) SetAdditive(name, raw string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if strings.TrimSpace(raw) == "" {
		delete(w.additives, name)
	} else {
		w.additives[name] = raw
	}
	w.touch()
}

// Recompute reconciles both sets without a live edit, so no capping occurs.
func (w *Workspace) Recompute() {
	w.recompute(false)
}

func (w *Workspace) capacityConfig() reconcile.CapacityConfig {
	if !w.target.MoldEnabled {
		return reconcile.CapacityConfig{}
	}
	return reconcile.CapacityConfig{
		Capacity:          w.target.Mold.CapacityGrams(),
		FillPercent:       units.ParseNumber(w.target.FillPercent),
		CorrectionEnabled: w.target.CorrectionEnabled,
		CorrectionFactor:  units.ParseNumber(w.target.CorrectionFactor),
	}
}

func (w *Workspace) recompute(live bool) {
	conv := units.NewConverter(w.unit)
	last := map[Set]setState{}

	cursor := func(set Set) *reconcile.Cursor {
		if !live {
			return nil
		}
		return w.cursors[set]
	}

	oilEntries := toEntries(w.oils, conv)
	capacity := w.capacityConfig()
	explicit := conv.ToBase(units.ParseNumber(w.target.Explicit))
	oilTarget := reconcile.ResolveTarget(explicit, capacity, oilEntries)
	oilResult := reconcile.Run(oilEntries, oilTarget.Value, cursor(SetOils), reconcile.Options{Capacity: capacity.Resolved()})
	w.oils = writeBack(w.oils, oilEntries, oilResult.Entries, conv)
	if echo, ok := reconcile.EchoTarget(w.target.Explicit, oilTarget, conv); ok {
		w.target.Explicit = echo
	}
	last[SetOils] = setState{target: oilTarget, result: oilResult}

	// Fragrance load is expressed against the oil total.
	fragEntries := toEntries(w.fragrances, conv)
	fragTarget := reconcile.ResolveTarget(oilResult.Totals.Weight, reconcile.CapacityConfig{}, fragEntries)
	fragResult := reconcile.Run(fragEntries, fragTarget.Value, cursor(SetFragrances), reconcile.Options{})
	w.fragrances = writeBack(w.fragrances, fragEntries, fragResult.Entries, conv)
	last[SetFragrances] = setState{target: fragTarget, result: fragResult}

	w.last = last
}

// Touch marks the workspace as modified now, for example after it replaced
// the stored draft.
func (w *Workspace) Touch() { w.touch() }

func (w *Workspace) touch() {
	now := w.now().UnixMilli()
	if now <= w.updatedAt {
		now = w.updatedAt + 1
	}
	w.updatedAt = now
}

func (w *Workspace) rows(set Set) *[]Row {
	switch set {
	case SetOils:
		return &w.oils
	case SetFragrances:
		return &w.fragrances
	default:
		return nil
	}
}

func (w *Workspace) find(set Set, id string) (int, bool) {
	rows := w.rows(set)
	if rows == nil || id == "" {
		return -1, false
	}
	for i, r := range *rows {
		if r.ID == id {
			return i, true
		}
	}
	return -1, false
}

func toEntries(rows []Row, conv units.Converter) []reconcile.Entry {
	entries := make([]reconcile.Entry, len(rows))
	for i, r := range rows {
		weight, weightSet := units.ParseOptional(r.Weight)
		percent, percentSet := units.ParseOptional(r.Percent)
		entries[i] = reconcile.Entry{
			ID:         r.ID,
			Weight:     conv.ToBase(weight),
			Percent:    percent,
			WeightSet:  weightSet,
			PercentSet: percentSet,
		}
	}
	return entries
}

// writeBack copies reconciled values into rows, touching only the fields
// the engine changed so untouched input is preserved verbatim.
func writeBack(rows []Row, before, after []reconcile.Entry, conv units.Converter) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	for i := range out {
		if i >= len(before) || i >= len(after) {
			break
		}
		b, a := before[i], after[i]
		if changed(b.Weight, a.Weight, b.WeightSet, a.WeightSet) {
			out[i].Weight = ""
			if a.WeightSet {
				out[i].Weight = conv.Display(a.Weight)
			}
		}
		if changed(b.Percent, a.Percent, b.PercentSet, a.PercentSet) {
			out[i].Percent = ""
			if a.PercentSet {
				out[i].Percent = units.Format(a.Percent, 2)
			}
		}
	}
	return out
}

func changed(before, after float64, beforeSet, afterSet bool) bool {
	if beforeSet != afterSet {
		return true
	}
	if !afterSet {
		return false
	}
	if math.IsNaN(before) || math.IsInf(before, 0) || before < 0 {
		before = 0
	}
	return math.Abs(before-after) > 1e-9
}
