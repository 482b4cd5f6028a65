package workspace

import (
	"saponaria/internal/reconcile"
	"saponaria/internal/units"
)

// SetResult is the outcome of reconciling a detached row set.
type SetResult struct {
	Rows   []Row
	Target reconcile.Target
	Result reconcile.Result
	// Echo is the text for a blank explicit-target field, if any.
	Echo string
}

// ReconcileRows runs the engine over rows typed in unit without a
// workspace. explicit is the raw target field; capacity is in base units
// and only caps when cursor is set.
func ReconcileRows(unit units.Unit, explicit string, capacity reconcile.CapacityConfig, rows []Row, cursor *reconcile.Cursor) SetResult {
	conv := units.NewConverter(unit)
	entries := toEntries(rows, conv)
	target := reconcile.ResolveTarget(conv.ToBase(units.ParseNumber(explicit)), capacity, entries)
	result := reconcile.Run(entries, target.Value, cursor, reconcile.Options{Capacity: capacity.Resolved()})
	out := SetResult{
		Rows:   writeBack(rows, entries, result.Entries, conv),
		Target: target,
		Result: result,
	}
	if echo, ok := reconcile.EchoTarget(explicit, target, conv); ok {
		out.Echo = echo
	}
	return out
}
