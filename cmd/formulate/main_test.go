package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appdb "saponaria/internal/db"
	"saponaria/internal/workspace"
	"saponaria/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	root := newRootCmd()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const oilSnapshot = `{
  "version": 1,
  "unit": "g",
  "oils": [
    {"id": "olive", "name": "Olive Oil", "weight": "", "percent": "60"},
    {"id": "coconut", "name": "Coconut Oil 76", "weight": "400", "percent": ""}
  ],
  "target": {"explicit": "1000"}
}`

func TestRootHelp(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("execute root help: %v", err)
	}
	for _, name := range []string{"reconcile", "import", "catalog"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected help to list %q, got %s", name, out)
		}
	}
}

func TestReconcileCommandPrintsTotals(t *testing.T) {
	path := writeFile(t, "draft.json", oilSnapshot)

	out, err := execute(t, "reconcile", path)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !strings.Contains(out, "Olive Oil") || !strings.Contains(out, "600.00 g") {
		t.Fatalf("expected derived olive weight, got %s", out)
	}
	if !strings.Contains(out, "1000.00 g") {
		t.Fatalf("expected total weight, got %s", out)
	}
	if strings.Contains(out, "warning") {
		t.Fatalf("expected no warnings, got %s", out)
	}
}

func TestReconcileCommandJSON(t *testing.T) {
	path := writeFile(t, "draft.json", oilSnapshot)

	out, err := execute(t, "reconcile", "--json", path)
	if err != nil {
		t.Fatalf("reconcile --json: %v", err)
	}
	var snap workspace.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(snap.Oils) != 2 {
		t.Fatalf("expected two oils, got %d", len(snap.Oils))
	}
	if snap.Oils[0].Weight != "600.00" {
		t.Fatalf("expected olive weight 600.00, got %q", snap.Oils[0].Weight)
	}
	if snap.Oils[1].Percent != "40.00" {
		t.Fatalf("expected coconut percent 40.00, got %q", snap.Oils[1].Percent)
	}
}

func TestReconcileCommandErrors(t *testing.T) {
	if _, err := execute(t, "reconcile", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
	path := writeFile(t, "future.json", `{"version": 99}`)
	if _, err := execute(t, "reconcile", path); err == nil {
		t.Fatal("expected error for unsupported snapshot version")
	}
	if _, err := execute(t, "reconcile"); err == nil {
		t.Fatal("expected error without a snapshot argument")
	}
}

func TestImportCommandWritesSnapshot(t *testing.T) {
	path := writeFile(t, "lavender.txt", "Oils:\nOlive Oil 500 g\nCastor Oil 100 g\nFragrance:\nLavender 3%\n")

	out, err := execute(t, "import", path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var snap workspace.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if snap.Unit != "g" {
		t.Fatalf("expected grams, got %q", snap.Unit)
	}
	if len(snap.Oils) != 2 || snap.Oils[0].Name != "Olive Oil" || snap.Oils[0].Weight != "500" {
		t.Fatalf("unexpected oils: %+v", snap.Oils)
	}
	if len(snap.Fragrances) != 1 || snap.Fragrances[0].Percent != "3" {
		t.Fatalf("unexpected fragrances: %+v", snap.Fragrances)
	}
}

func TestImportCommandUnitOverrideAndOutputFile(t *testing.T) {
	path := writeFile(t, "recipe.txt", "Olive Oil 500 g\n")
	outPath := filepath.Join(t.TempDir(), "snapshot.json")

	if _, err := execute(t, "import", "--unit", "kg", "-o", outPath, path); err != nil {
		t.Fatalf("import: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var snap workspace.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if snap.Unit != "kg" || len(snap.Oils) != 1 || snap.Oils[0].Weight != "0.50" {
		t.Fatalf("expected 0.50 kg olive oil, got %+v", snap)
	}

	if _, err := execute(t, "import", "--unit", "stone", path); err == nil {
		t.Fatal("expected error for unknown unit")
	}
}

func TestImportCommandRejectsEmptyRecipe(t *testing.T) {
	path := writeFile(t, "empty.txt", "\n\n")
	if _, err := execute(t, "import", path); err == nil {
		t.Fatal("expected error for recipe without ingredient lines")
	}
}

var dsnCounter atomic.Int64

func withCatalogDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:formulate-test-%d?mode=memory&cache=shared", dsnCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := appdb.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	original := openCatalogDatabase
	openCatalogDatabase = func() (*gorm.DB, error) { return db, nil }
	t.Cleanup(func() {
		openCatalogDatabase = original
		sqlDB.Close()
	})
	return db
}

const catalogSheet = `Name,INCI Name,Kind,SAP NaOH,SAP KOH,Iodine,Max Usage %,Other Names,Oleic,Notes
Olive Oil,Olea Europaea Fruit Oil,oil,0.1353,0.1899,85,,"Pomace Olive Oil; Olive Oil Pure [1]",69,Slow trace
Lavender Essential Oil,Lavandula Angustifolia Oil,essential oil,N/A,N/A,N/A,3%,Lavender,,
`

func TestCatalogCommandImportsAndUpdates(t *testing.T) {
	db := withCatalogDatabase(t)
	if err := db.Create(&models.User{Email: "maker@example.com", PasswordHash: "x", Unit: "g"}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	path := writeFile(t, "catalog.csv", catalogSheet)

	out, err := execute(t, "catalog", path)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if !strings.Contains(out, "Imported 2 ingredients from catalog.csv") {
		t.Fatalf("unexpected output: %s", out)
	}

	var olive models.Ingredient
	if err := db.Preload("OtherNames").Where("name = ?", "Olive Oil").First(&olive).Error; err != nil {
		t.Fatalf("load olive: %v", err)
	}
	if olive.SAPNaOH == nil || *olive.SAPNaOH != 0.1353 {
		t.Fatalf("unexpected SAP NaOH: %v", olive.SAPNaOH)
	}
	if olive.FattyAcids["oleic"] != 69 {
		t.Fatalf("expected oleic 69, got %v", olive.FattyAcids)
	}
	if len(olive.OtherNames) != 2 || olive.OtherNames[1].Name != "Olive Oil Pure" {
		t.Fatalf("unexpected aliases: %+v", olive.OtherNames)
	}
	if olive.OwnerID == 0 || !olive.Public {
		t.Fatalf("expected public ingredient owned by the first user, got owner %d public %v", olive.OwnerID, olive.Public)
	}

	var lavender models.Ingredient
	if err := db.Where("name = ?", "Lavender Essential Oil").First(&lavender).Error; err != nil {
		t.Fatalf("load lavender: %v", err)
	}
	if lavender.Kind != models.KindFragrance || lavender.MaxUsagePercent != 3 || lavender.SAPNaOH != nil {
		t.Fatalf("unexpected lavender: %+v", lavender)
	}

	updated := strings.Replace(catalogSheet, "0.1353", "0.135", 1)
	path = writeFile(t, "catalog.csv", updated)
	if _, err := execute(t, "catalog", path); err != nil {
		t.Fatalf("catalog rerun: %v", err)
	}

	var count int64
	db.Model(&models.Ingredient{}).Count(&count)
	if count != 2 {
		t.Fatalf("expected rerun to update in place, got %d ingredients", count)
	}
	olive = models.Ingredient{}
	if err := db.Preload("OtherNames").Where("name = ?", "Olive Oil").First(&olive).Error; err != nil {
		t.Fatalf("reload olive: %v", err)
	}
	if *olive.SAPNaOH != 0.135 {
		t.Fatalf("expected updated SAP NaOH, got %v", *olive.SAPNaOH)
	}
	if len(olive.OtherNames) != 2 {
		t.Fatalf("expected aliases to be replaced, got %+v", olive.OtherNames)
	}
}

func TestCatalogCommandRejectsEmptySheet(t *testing.T) {
	withCatalogDatabase(t)
	path := writeFile(t, "empty.csv", "")
	if _, err := execute(t, "catalog", path); err == nil {
		t.Fatal("expected error for empty csv")
	}
}

func TestBuildOtherNamesDeduplicates(t *testing.T) {
	t.Parallel()

	names := buildOtherNames("Shea; shea, Karite [2], ")
	if len(names) != 2 {
		t.Fatalf("expected two aliases, got %+v", names)
	}
	if names[0].Name != "Shea" || names[1].Name != "Karite" {
		t.Fatalf("unexpected aliases: %+v", names)
	}
	if buildOtherNames("N/A") != nil {
		t.Fatal("expected N/A to yield no aliases")
	}
}
