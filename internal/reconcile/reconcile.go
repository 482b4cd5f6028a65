package reconcile

import (
	"math"

	"saponaria/internal/units"
)

// maxCorrections bounds how many capacity corrections a single edit may
// trigger. The rerun after a correction never caps again.
const maxCorrections = 1

// Pass is the output of one reconciliation sweep.
type Pass struct {
	Entries []Entry `json:"entries"`
	Totals  Totals  `json:"totals"`
	Target  float64 `json:"target"`
}

// Options tunes a full Run.
type Options struct {
	// Capacity is a hard cap in base units. Zero disables enforcement,
	// which is always the case for fragrance rows.
	Capacity float64
}

// Result is the outcome of Run.
type Result struct {
	Entries       []Entry `json:"entries"`
	Totals        Totals  `json:"totals"`
	Target        float64 `json:"target"`
	Capped        bool    `json:"capped"`
	CappedEntryID string  `json:"capped_entry_id,omitempty"`
}

// Status projects the fields the warning projector needs.
func (r Result) Status() Status {
	return Status{
		TotalWeight:  r.Totals.Weight,
		TotalPercent: r.Totals.Percent,
		Target:       r.Target,
		Capped:       r.Capped,
	}
}

// Reconcile recomputes each entry's companion field against target.
//
// The cursor's entry treats the edited field as authoritative. Every other
// entry treats its own weight as authoritative when set and falls back to its
// percent. When there is no target but weights exist, percents are
// renormalised against the observed weight total. The input slice is not
// modified.
func Reconcile(entries []Entry, target float64, cursor *Cursor) Pass {
	target = coerce(target)
	out := make([]Entry, len(entries))
	var totals Totals

	for i, e := range entries {
		e = e.sanitized()
		switch {
		case cursor.is(e.ID, FieldPercent):
			if target > 0 {
				e.Weight = 0
				if e.Percent > 0 {
					e.Weight = units.Round(target*e.Percent/100, 2)
				}
				e.WeightSet = e.PercentSet
			}
		case e.Weight > 0:
			if target > 0 {
				e = e.WithPercent(units.Round(e.Weight/target*100, 2))
			}
		case e.Percent > 0 && target > 0:
			e = e.WithWeight(units.Round(target*e.Percent/100, 2))
		}

		if e.Weight > 0 {
			totals.Weight += e.Weight
		}
		totals.Percent += e.Percent
		out[i] = e
	}

	if target <= 0 && totals.Weight > 0 {
		totals.Percent = 0
		for i := range out {
			out[i].Percent = units.Round(out[i].Weight/totals.Weight*100, 2)
			if out[i].Weight > 0 {
				out[i].PercentSet = true
			}
			totals.Percent += out[i].Percent
		}
	}

	totals.Weight = units.Round(totals.Weight, 2)
	totals.Percent = units.Round(totals.Percent, 2)

	return Pass{Entries: out, Totals: totals, Target: target}
}

// EnforceCapacity trims the cursor's entry so the set fits within capacity.
// It reports whether a correction was applied. Without a cursor nothing is
// corrected: only live edits trigger capping.
func EnforceCapacity(entries []Entry, capacity float64, cursor *Cursor) ([]Entry, bool) {
	capacity = coerce(capacity)
	if capacity <= 0 || cursor == nil {
		return entries, false
	}
	total := SumWeights(entries)
	if total <= capacity+Epsilon {
		return entries, false
	}
	idx := indexOf(entries, cursor.EntryID)
	if idx < 0 {
		return entries, false
	}

	others := total - entries[idx].sanitized().Weight
	allowed := math.Max(0, capacity-others)
	allowed = math.Floor(allowed*100+1e-6) / 100

	out := make([]Entry, len(entries))
	copy(out, entries)
	out[idx] = out[idx].WithWeight(allowed).WithPercent(units.Round(allowed/capacity*100, 2))
	return out, true
}

// Run reconciles entries, enforces the hard capacity and, when a correction
// was applied, reconciles once more. The corrected entry's weight is
// authoritative on the rerun.
func Run(entries []Entry, target float64, cursor *Cursor, opts Options) Result {
	pass := Reconcile(entries, target, cursor)
	result := Result{Entries: pass.Entries, Totals: pass.Totals, Target: pass.Target}

	for i := 0; i < maxCorrections; i++ {
		adjusted, capped := EnforceCapacity(pass.Entries, opts.Capacity, cursor)
		if !capped {
			break
		}
		rerun := &Cursor{EntryID: cursor.EntryID, Field: FieldWeight}
		pass = Reconcile(adjusted, target, rerun)
		result = Result{
			Entries:       pass.Entries,
			Totals:        pass.Totals,
			Target:        pass.Target,
			Capped:        true,
			CappedEntryID: cursor.EntryID,
		}
	}
	return result
}
