package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	applog "saponaria/internal/log"
	"saponaria/internal/mold"
	"saponaria/internal/reconcile"
	"saponaria/internal/units"
	"saponaria/internal/workspace"
)

type reconcileRequest struct {
	Unit              string            `json:"unit"`
	Target            string            `json:"target"`
	Capacity          string            `json:"capacity"`
	Mold              *mold.Config      `json:"mold"`
	FillPercent       string            `json:"fill_percent"`
	CorrectionEnabled bool              `json:"correction_enabled"`
	CorrectionFactor  string            `json:"correction_factor"`
	Rows              []workspace.Row   `json:"rows"`
	Cursor            *reconcile.Cursor `json:"cursor"`
}

type reconcileResponse struct {
	Rows         []workspace.Row     `json:"rows"`
	TotalWeight  string              `json:"total_weight"`
	TotalPercent string              `json:"total_percent"`
	Target       string              `json:"target"`
	TargetSource reconcile.Source    `json:"target_source"`
	Capped       bool                `json:"capped"`
	Warnings     []reconcile.Warning `json:"warnings"`
	EchoTarget   string              `json:"echo_target,omitempty"`
}

// Reconcile runs the quantity engine over a single row set supplied by the
// caller. Nothing is stored. Capacity, when given, is in the request unit;
// a mold configuration takes precedence over it.
func Reconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req reconcileRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		applog.Debug(r.Context(), "invalid reconcile payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	unit := units.Gram
	if req.Unit != "" {
		parsed, ok := units.Parse(req.Unit)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "unknown unit")
			return
		}
		unit = parsed
	}
	if req.Cursor != nil && !req.Cursor.Field.Valid() {
		writeJSONError(w, http.StatusBadRequest, "unknown cursor field")
		return
	}

	conv := units.NewConverter(unit)
	capacity := reconcile.CapacityConfig{
		Capacity:          conv.ToBase(units.ParseNumber(req.Capacity)),
		FillPercent:       units.ParseNumber(req.FillPercent),
		CorrectionEnabled: req.CorrectionEnabled,
		CorrectionFactor:  units.ParseNumber(req.CorrectionFactor),
	}
	if req.Mold != nil {
		capacity.Capacity = req.Mold.CapacityGrams()
	}

	res := workspace.ReconcileRows(unit, req.Target, capacity, req.Rows, req.Cursor)
	resp := reconcileResponse{
		Rows:         res.Rows,
		TotalWeight:  conv.Display(res.Result.Totals.Weight),
		TotalPercent: units.Format(res.Result.Totals.Percent, 2),
		TargetSource: res.Target.Source,
		Capped:       res.Result.Capped,
		Warnings:     reconcile.Project(res.Result.Status(), conv),
		EchoTarget:   res.Echo,
	}
	if resp.Rows == nil {
		resp.Rows = []workspace.Row{}
	}
	if res.Target.Value > 0 {
		resp.Target = conv.Display(res.Target.Value)
	}

	applog.Debug(r.Context(), "stateless reconcile", "rows", len(req.Rows), "capped", resp.Capped, "source", string(resp.TargetSource))
	writeJSON(w, http.StatusOK, resp)
}
