package workspace

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"saponaria/internal/calc"
	"saponaria/internal/units"
)

// SnapshotVersion is the current snapshot schema version.
const SnapshotVersion = 1

// Snapshot is the persisted form of a workspace. Field values are the raw
// strings the user entered.
type Snapshot struct {
	Version    int               `json:"version"`
	Unit       units.Unit        `json:"unit"`
	Oils       []Row             `json:"oils"`
	Fragrances []Row             `json:"fragrances"`
	Target     TargetSettings    `json:"target"`
	Lye        LyeSettings       `json:"lye"`
	Water      WaterSettings     `json:"water"`
	Additives  map[string]string `json:"additives"`
	// UpdatedAt is unix milliseconds and only ever increases.
	UpdatedAt int64 `json:"updated_at"`
}

// Snapshot captures the persisted state.
func (w *Workspace) Snapshot() Snapshot {
	additives := make(map[string]string, len(w.additives))
	for k, v := range w.additives {
		additives[k] = v
	}
	return Snapshot{
		Version:    SnapshotVersion,
		Unit:       w.unit,
		Oils:       w.Rows(SetOils),
		Fragrances: w.Rows(SetFragrances),
		Target:     w.target,
		Lye:        w.lye,
		Water:      w.water,
		Additives:  additives,
		UpdatedAt:  w.updatedAt,
	}
}

// Restore builds a workspace from a snapshot without reconciling it, so that
// a restored workspace snapshots back to the same values.
func Restore(s Snapshot) (*Workspace, error) {
	if s.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, s.Version)
	}
	unit := units.Gram
	if s.Unit != "" {
		parsed, ok := units.Parse(string(s.Unit))
		if !ok {
			return nil, fmt.Errorf("%w: unknown unit %q", ErrInvalidSnapshot, s.Unit)
		}
		unit = parsed
	}

	w := New()
	w.unit = unit
	w.oils = restoreRows(s.Oils)
	w.fragrances = restoreRows(s.Fragrances)
	w.target = s.Target
	w.lye = s.Lye
	w.water = s.Water
	for k, v := range s.Additives {
		w.additives[k] = v
	}
	w.updatedAt = s.UpdatedAt
	return w, nil
}

// DecodeSnapshot parses snapshot JSON. Empty input yields an empty workspace.
func DecodeSnapshot(data []byte) (*Workspace, error) {
	if len(data) == 0 {
		return New(), nil
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return Restore(s)
}

// EncodeSnapshot renders the workspace snapshot as JSON.
func (w *Workspace) EncodeSnapshot() ([]byte, error) {
	data, err := json.Marshal(w.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("workspace: encode snapshot: %w", err)
	}
	return data, nil
}

// UpdatedAt reports the last modification stamp in unix milliseconds.
func (w *Workspace) UpdatedAt() int64 { return w.updatedAt }

// StoredAt reports the stored draft stamp the workspace is based on, or zero
// when it was never stored.
func (w *Workspace) StoredAt() int64 { return w.storedAt }

// MarkStored records that the stored draft carries stamp. updated_at never
// falls behind it.
func (w *Workspace) MarkStored(stamp int64) {
	w.storedAt = stamp
	if stamp > w.updatedAt {
		w.updatedAt = stamp
	}
}

// CalculationState is the persisted calculation round-trip state.
type CalculationState struct {
	Seq    uint64
	Result *calc.Response
	Notice string
}

// CalculationState returns the calculation state for persistence.
func (w *Workspace) CalculationState() CalculationState {
	return CalculationState{Seq: w.seq.Latest(), Result: w.result, Notice: w.notice}
}

// ApplyCalculationState restores persisted calculation state.
func (w *Workspace) ApplyCalculationState(s CalculationState) {
	w.seq = calc.NewSequencer(s.Seq)
	w.result = s.Result
	w.notice = s.Notice
}

func restoreRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.ID]; r.ID == "" || dup {
			r.ID = uuid.NewString()
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
