// Package store persists workspaces, catalog lookups and saved recipes.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"saponaria/internal/calc"
	applog "saponaria/internal/log"
	"saponaria/internal/units"
	"saponaria/internal/workspace"
	"saponaria/models"
)

var (
	// ErrStaleSnapshot is returned when a save would move updated_at backwards.
	ErrStaleSnapshot = errors.New("store: snapshot is older than the stored draft")
	ErrNoDatabase    = errors.New("store: database is not configured")
)

// Store wraps the gorm handle.
type Store struct {
	db *gorm.DB
}

// New returns a store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) handle(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrNoDatabase
	}
	return s.db.WithContext(ctx), nil
}

// LoadDraft returns the user's workspace with its calculation state. A user
// without a draft gets an empty workspace in their preferred unit.
func (s *Store) LoadDraft(ctx context.Context, userID uint) (*workspace.Workspace, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	var draft models.Draft
	err = db.Where("user_id = ?", userID).Limit(1).Find(&draft).Error
	if err != nil {
		return nil, fmt.Errorf("store: load draft: %w", err)
	}
	var ws *workspace.Workspace
	if draft.Snapshot == "" {
		ws = workspace.New()
		ws.SwitchUnit(s.preferredUnit(ctx, userID))
	} else {
		ws, err = workspace.DecodeSnapshot([]byte(draft.Snapshot))
		if err != nil {
			return nil, fmt.Errorf("store: decode draft %d: %w", draft.ID, err)
		}
	}

	state := workspace.CalculationState{Seq: draft.CalcSeq, Notice: draft.Notice}
	if draft.Result != "" {
		var result calc.Response
		if err := json.Unmarshal([]byte(draft.Result), &result); err != nil {
			applog.Warn(ctx, "discarding undecodable calculation result", "draft", draft.ID, "error", err)
		} else {
			state.Result = &result
		}
	}
	ws.ApplyCalculationState(state)
	ws.MarkStored(draft.UpdatedMillis)
	return ws, nil
}

// SaveDraft stores the workspace snapshot over the draft it was loaded from.
// If the stored draft changed since, nothing is written and ErrStaleSnapshot
// is returned. Calculation state is written only by Calculate and
// DismissNotice.
func (s *Store) SaveDraft(ctx context.Context, userID uint, ws *workspace.Workspace) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	if ws.UpdatedAt() < ws.StoredAt() {
		return ErrStaleSnapshot
	}
	snapshot, err := ws.EncodeSnapshot()
	if err != nil {
		return err
	}

	if err := s.ensureDraft(db, userID); err != nil {
		return err
	}
	if err := swapDraft(db, userID, ws.StoredAt(), ws.UpdatedAt(), snapshot); err != nil {
		return err
	}
	ws.MarkStored(ws.UpdatedAt())
	return nil
}

// ReplaceDraft overwrites the user's draft with ws whatever it holds, for
// loads that supersede the draft on purpose. The stored stamp still only
// moves forward; ws is restamped when it would not.
func (s *Store) ReplaceDraft(ctx context.Context, userID uint, ws *workspace.Workspace) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	if err := s.ensureDraft(db, userID); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var current models.Draft
		if err := tx.Where("user_id = ?", userID).First(&current).Error; err != nil {
			return fmt.Errorf("store: replace draft: %w", err)
		}
		stamp := ws.UpdatedAt()
		if stamp <= current.UpdatedMillis {
			stamp = current.UpdatedMillis + 1
		}
		ws.MarkStored(stamp)
		snapshot, err := ws.EncodeSnapshot()
		if err != nil {
			return err
		}
		return swapDraft(tx, userID, current.UpdatedMillis, stamp, snapshot)
	})
}

// swapDraft writes snapshot only while the stored stamp is still expected.
func swapDraft(db *gorm.DB, userID uint, expected, stamp int64, snapshot []byte) error {
	res := db.Model(&models.Draft{}).
		Where("user_id = ? AND updated_millis = ?", userID, expected).
		Updates(map[string]any{"snapshot": string(snapshot), "updated_millis": stamp})
	if res.Error != nil {
		return fmt.Errorf("store: save draft: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleSnapshot
	}
	return nil
}

// DeleteDraft removes the user's draft.
func (s *Store) DeleteDraft(ctx context.Context, userID uint) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.Draft{}).Error; err != nil {
		return fmt.Errorf("store: delete draft: %w", err)
	}
	return nil
}

// NextCalcSeq atomically increments and returns the user's calculation
// sequence number.
func (s *Store) NextCalcSeq(ctx context.Context, userID uint) (uint64, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.ensureDraft(db, userID); err != nil {
		return 0, err
	}

	var seq uint64
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Draft{}).Where("user_id = ?", userID).
			UpdateColumn("calc_seq", gorm.Expr("calc_seq + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.Draft{}).Select("calc_seq").Where("user_id = ?", userID).Scan(&seq).Error
	})
	if err != nil {
		return 0, fmt.Errorf("store: next calculation sequence: %w", err)
	}
	return seq, nil
}

// Calculate runs a calculation round trip for the user's draft. The draft is
// reloaded after the backend answers so a newer request issued meanwhile
// wins. The backend error, if any, is returned alongside the outcome.
func (s *Store) Calculate(ctx context.Context, userID uint, backend calc.Backend, catalog workspace.Catalog) (*workspace.Workspace, workspace.Outcome, error) {
	seq, err := s.NextCalcSeq(ctx, userID)
	if err != nil {
		return nil, workspace.OutcomeStale, err
	}
	ws, err := s.LoadDraft(ctx, userID)
	if err != nil {
		return nil, workspace.OutcomeStale, err
	}

	req := ws.CalculationRequest(catalog)
	resp, calcErr := backend.Calculate(ctx, req)
	if calcErr != nil {
		applog.Warn(ctx, "calculation request failed", "user_id", userID, "seq", seq, "error", calcErr)
	}

	latest, err := s.LoadDraft(ctx, userID)
	if err != nil {
		return nil, workspace.OutcomeStale, err
	}
	outcome := latest.CompleteCalculation(seq, resp, calcErr)
	if outcome == workspace.OutcomeStale {
		applog.Debug(ctx, "dropping stale calculation response", "user_id", userID, "seq", seq)
		return latest, outcome, calcErr
	}

	if err := s.saveCalculation(ctx, userID, seq, latest.CalculationState()); err != nil {
		if errors.Is(err, errSuperseded) {
			return latest, workspace.OutcomeStale, calcErr
		}
		return nil, outcome, err
	}
	return latest, outcome, calcErr
}

var errSuperseded = errors.New("store: calculation superseded")

func (s *Store) saveCalculation(ctx context.Context, userID uint, seq uint64, state workspace.CalculationState) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	result := ""
	if state.Result != nil {
		encoded, err := json.Marshal(state.Result)
		if err != nil {
			return fmt.Errorf("store: encode calculation result: %w", err)
		}
		result = string(encoded)
	}
	res := db.Model(&models.Draft{}).
		Where("user_id = ? AND calc_seq = ?", userID, seq).
		Updates(map[string]any{"result": result, "notice": state.Notice})
	if res.Error != nil {
		return fmt.Errorf("store: save calculation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errSuperseded
	}
	return nil
}

// DismissNotice clears the user's pending notice.
func (s *Store) DismissNotice(ctx context.Context, userID uint) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	if err := db.Model(&models.Draft{}).Where("user_id = ?", userID).Update("notice", "").Error; err != nil {
		return fmt.Errorf("store: dismiss notice: %w", err)
	}
	return nil
}

func (s *Store) ensureDraft(db *gorm.DB, userID uint) error {
	draft := models.Draft{UserID: userID}
	if err := db.Where(models.Draft{UserID: userID}).FirstOrCreate(&draft).Error; err != nil {
		return fmt.Errorf("store: ensure draft: %w", err)
	}
	return nil
}

func (s *Store) preferredUnit(ctx context.Context, userID uint) units.Unit {
	db, err := s.handle(ctx)
	if err != nil {
		return units.Gram
	}
	var user models.User
	if err := db.Select("unit").Where("id = ?", userID).Limit(1).Find(&user).Error; err != nil {
		return units.Gram
	}
	return units.Normalize(user.Unit)
}
