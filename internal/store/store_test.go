package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"saponaria/internal/calc"
	"saponaria/internal/db"
	"saponaria/internal/workspace"
	"saponaria/models"
)

var dsnCounter atomic.Int64

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:store-test-%d?mode=memory&cache=shared", dsnCounter.Add(1))
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return New(database), database
}

func createUser(t *testing.T, database *gorm.DB, unit string) models.User {
	t.Helper()
	user := models.User{Email: fmt.Sprintf("user-%d@example.com", dsnCounter.Add(1)), PasswordHash: "x", Unit: unit}
	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

type stubBackend struct {
	resp   calc.Response
	err    error
	during func()
}

func (b *stubBackend) Calculate(_ context.Context, _ calc.Request) (calc.Response, error) {
	if b.during != nil {
		b.during()
	}
	return b.resp, b.err
}

func TestLoadDraftUsesPreferredUnit(t *testing.T) {
	t.Parallel()

	s, database := newTestStore(t)
	user := createUser(t, database, "oz")

	ws, err := s.LoadDraft(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("LoadDraft error = %v", err)
	}
	if ws.Unit() != "oz" {
		t.Fatalf("unit = %q, want oz", ws.Unit())
	}
}

func TestSaveDraftRoundTripAndRejectsOlderSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, database := newTestStore(t)
	user := createUser(t, database, "g")

	ws := workspace.New()
	ws.SetClock(func() time.Time { return time.UnixMilli(2_000) })
	if _, err := ws.AddRow(workspace.SetOils, workspace.Row{Name: "Olive", Weight: "1,000"}); err != nil {
		t.Fatalf("AddRow error = %v", err)
	}
	if err := s.SaveDraft(ctx, user.ID, ws); err != nil {
		t.Fatalf("SaveDraft error = %v", err)
	}

	loaded, err := s.LoadDraft(ctx, user.ID)
	if err != nil {
		t.Fatalf("LoadDraft error = %v", err)
	}
	want, _ := ws.EncodeSnapshot()
	got, _ := loaded.EncodeSnapshot()
	if string(want) != string(got) {
		t.Fatalf("snapshot mismatch\nwant %s\ngot  %s", want, got)
	}

	older := workspace.New()
	older.SetClock(func() time.Time { return time.UnixMilli(1_000) })
	older.SetAdditive("salt", "1")
	if err := s.SaveDraft(ctx, user.ID, older); !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("SaveDraft(older) error = %v, want ErrStaleSnapshot", err)
	}
}

func TestSaveDraftRejectsConcurrentEdit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, database := newTestStore(t)
	user := createUser(t, database, "g")

	base := workspace.New()
	base.SetClock(func() time.Time { return time.UnixMilli(1_000) })
	row, err := base.AddRow(workspace.SetOils, workspace.Row{Name: "Olive", Weight: "500"})
	if err != nil {
		t.Fatalf("AddRow error = %v", err)
	}
	if err := s.SaveDraft(ctx, user.ID, base); err != nil {
		t.Fatalf("SaveDraft(base) error = %v", err)
	}

	first, err := s.LoadDraft(ctx, user.ID)
	if err != nil {
		t.Fatalf("LoadDraft error = %v", err)
	}
	second, err := s.LoadDraft(ctx, user.ID)
	if err != nil {
		t.Fatalf("LoadDraft error = %v", err)
	}
	first.SetClock(func() time.Time { return time.UnixMilli(2_000) })
	second.SetClock(func() time.Time { return time.UnixMilli(2_001) })

	if _, err := first.AddRow(workspace.SetOils, workspace.Row{Name: "Coconut", Weight: "300"}); err != nil {
		t.Fatalf("AddRow error = %v", err)
	}
	if err := s.SaveDraft(ctx, user.ID, first); err != nil {
		t.Fatalf("SaveDraft(first) error = %v", err)
	}

	if err := second.EditWeight(workspace.SetOils, row.ID, "600"); err != nil {
		t.Fatalf("EditWeight error = %v", err)
	}
	if err := s.SaveDraft(ctx, user.ID, second); !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("SaveDraft(second) error = %v, want ErrStaleSnapshot", err)
	}

	stored, err := s.LoadDraft(ctx, user.ID)
	if err != nil {
		t.Fatalf("LoadDraft error = %v", err)
	}
	if rows := stored.Rows(workspace.SetOils); len(rows) != 2 || rows[0].Weight != "500" {
		t.Fatalf("first save should survive, got %+v", rows)
	}

	// The winner keeps saving from its own copy.
	first.SetTarget(workspace.TargetSettings{Explicit: "800"})
	if err := s.SaveDraft(ctx, user.ID, first); err != nil {
		t.Fatalf("SaveDraft(first) again error = %v", err)
	}
}

func TestReplaceDraftSupersedesAndStaysMonotonic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, database := newTestStore(t)
	user := createUser(t, database, "g")

	current := workspace.New()
	current.SetClock(func() time.Time { return time.UnixMilli(5_000) })
	current.SetAdditive("salt", "1")
	if err := s.SaveDraft(ctx, user.ID, current); err != nil {
		t.Fatalf("SaveDraft error = %v", err)
	}

	replacement := workspace.New()
	replacement.SetClock(func() time.Time { return time.UnixMilli(1_000) })
	replacement.SetAdditive("sugar", "2")
	if err := s.ReplaceDraft(ctx, user.ID, replacement); err != nil {
		t.Fatalf("ReplaceDraft error = %v", err)
	}
	if replacement.UpdatedAt() != 5_001 {
		t.Fatalf("UpdatedAt = %d, want 5001", replacement.UpdatedAt())
	}

	stored, err := s.LoadDraft(ctx, user.ID)
	if err != nil {
		t.Fatalf("LoadDraft error = %v", err)
	}
	if stored.UpdatedAt() != 5_001 || stored.Snapshot().Additives["sugar"] != "2" {
		t.Fatalf("unexpected stored draft %+v", stored.Snapshot())
	}

	// The replaced copy is stale now.
	current.SetAdditive("salt", "3")
	if err := s.SaveDraft(ctx, user.ID, current); !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("SaveDraft(current) error = %v, want ErrStaleSnapshot", err)
	}
}

func TestCalculatePersistsResultAndNotice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, database := newTestStore(t)
	user := createUser(t, database, "g")

	backend := &stubBackend{resp: calc.Response{TotalOilsBase: 1000, LyeAdjustedBase: 135.3}}
	ws, outcome, err := s.Calculate(ctx, user.ID, backend, nil)
	if err != nil {
		t.Fatalf("Calculate error = %v", err)
	}
	if outcome != workspace.OutcomeApplied || ws.Result() == nil {
		t.Fatalf("outcome = %s, result = %v", outcome, ws.Result())
	}

	backend.err = errors.New("calc: request timed out")
	_, outcome, err = s.Calculate(ctx, user.ID, backend, nil)
	if err == nil || outcome != workspace.OutcomeFailed {
		t.Fatalf("outcome = %s, err = %v", outcome, err)
	}

	reloaded, err := s.LoadDraft(ctx, user.ID)
	if err != nil {
		t.Fatalf("LoadDraft error = %v", err)
	}
	if reloaded.Result() == nil || reloaded.Result().LyeAdjustedBase != 135.3 {
		t.Fatalf("previous result should survive a failure, got %+v", reloaded.Result())
	}
	if reloaded.Notice() != workspace.UnavailableNotice {
		t.Fatalf("notice = %q", reloaded.Notice())
	}

	if err := s.DismissNotice(ctx, user.ID); err != nil {
		t.Fatalf("DismissNotice error = %v", err)
	}
	reloaded, _ = s.LoadDraft(ctx, user.ID)
	if reloaded.Notice() != "" {
		t.Fatalf("notice should be cleared, got %q", reloaded.Notice())
	}
}

func TestCalculateDropsSupersededResponse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, database := newTestStore(t)
	user := createUser(t, database, "g")

	backend := &stubBackend{resp: calc.Response{TotalOilsBase: 1}}
	backend.during = func() {
		// A newer request is issued while this one is in flight.
		if _, err := s.NextCalcSeq(ctx, user.ID); err != nil {
			t.Errorf("NextCalcSeq error = %v", err)
		}
	}

	ws, outcome, err := s.Calculate(ctx, user.ID, backend, nil)
	if err != nil {
		t.Fatalf("Calculate error = %v", err)
	}
	if outcome != workspace.OutcomeStale {
		t.Fatalf("outcome = %s, want stale", outcome)
	}
	if ws.Result() != nil {
		t.Fatalf("stale response must not be applied, got %+v", ws.Result())
	}
}

func TestNextCalcSeqIncrements(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, database := newTestStore(t)
	user := createUser(t, database, "g")

	for want := uint64(1); want <= 3; want++ {
		got, err := s.NextCalcSeq(ctx, user.ID)
		if err != nil {
			t.Fatalf("NextCalcSeq error = %v", err)
		}
		if got != want {
			t.Fatalf("NextCalcSeq = %d, want %d", got, want)
		}
	}
}

func TestCatalogChemistryFollowsLyeType(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, database := newTestStore(t)
	owner := createUser(t, database, "g")
	other := createUser(t, database, "g")

	naoh, koh := 0.1353, 0.1899
	olive := models.Ingredient{Name: "Olive Oil", SAPNaOH: &naoh, SAPKOH: &koh, OwnerID: owner.ID,
		FattyAcids: map[string]float64{"oleic": 69}, OtherNames: []models.IngredientAlias{{Name: "Olea Europaea"}}}
	private := models.Ingredient{Name: "Secret Blend", OwnerID: other.ID}
	for _, ing := range []*models.Ingredient{&olive, &private} {
		if err := database.Create(ing).Error; err != nil {
			t.Fatalf("create ingredient: %v", err)
		}
	}

	catalog, err := s.LoadCatalog(ctx, owner.ID, "KOH")
	if err != nil {
		t.Fatalf("LoadCatalog error = %v", err)
	}
	if len(catalog.Ingredients()) != 1 {
		t.Fatalf("expected only visible ingredients, got %d", len(catalog.Ingredients()))
	}
	chem, ok := catalog.Chemistry(olive.ID)
	if !ok || chem.SAPValue == nil || *chem.SAPValue != koh {
		t.Fatalf("unexpected chemistry %+v", chem)
	}
	if chem.FattyAcidProfile["oleic"] != 69 {
		t.Fatalf("fatty acids = %v", chem.FattyAcidProfile)
	}
	if got := catalog.Matcher().Match("olea europaea"); got != olive.ID {
		t.Fatalf("Match = %d, want %d", got, olive.ID)
	}
}

func TestSaveRecipeVersions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, database := newTestStore(t)
	user := createUser(t, database, "g")

	ws := workspace.New()
	if _, err := ws.AddRow(workspace.SetOils, workspace.Row{Name: "Olive", Weight: "500"}); err != nil {
		t.Fatalf("AddRow error = %v", err)
	}

	first, err := s.SaveRecipe(ctx, user.ID, "Castile", "", ws)
	if err != nil {
		t.Fatalf("SaveRecipe error = %v", err)
	}
	second, err := s.SaveRecipe(ctx, user.ID, " Castile ", "more olive", ws)
	if err != nil {
		t.Fatalf("SaveRecipe error = %v", err)
	}
	if second.Version != 2 || second.ParentRecipeID == nil || *second.ParentRecipeID != first.ID {
		t.Fatalf("unexpected second version %+v", second)
	}

	recipes, err := s.ListRecipes(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListRecipes error = %v", err)
	}
	if len(recipes) != 1 || recipes[0].ID != second.ID {
		t.Fatalf("expected only the latest version, got %+v", recipes)
	}

	loaded, err := s.LoadRecipe(ctx, user.ID, second.ID)
	if err != nil {
		t.Fatalf("LoadRecipe error = %v", err)
	}
	if rows := loaded.Rows(workspace.SetOils); len(rows) != 1 || rows[0].Weight != "500" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if _, err := s.LoadRecipe(ctx, user.ID+100, second.ID); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("LoadRecipe(foreign) error = %v", err)
	}
}

func TestNilStoreReportsMissingDatabase(t *testing.T) {
	t.Parallel()

	var s *Store
	if _, err := s.LoadDraft(context.Background(), 1); !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("LoadDraft error = %v, want ErrNoDatabase", err)
	}
}
