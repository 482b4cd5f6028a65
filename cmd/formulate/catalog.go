package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"saponaria/internal/config"
	appdb "saponaria/internal/db"
	"saponaria/models"
)

// catalogOwnerEnv names the account imported ingredients are attributed to.
const catalogOwnerEnv = "SAPONARIA_CATALOG_OWNER_EMAIL"

var (
	bracketPattern  = regexp.MustCompile(`\[[^\]]*\]`)
	numberPattern   = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
)

// fattyAcidColumns are the profile columns a catalog sheet may carry.
var fattyAcidColumns = []string{
	"lauric", "myristic", "palmitic", "stearic", "ricinoleic",
	"oleic", "linoleic", "linolenic", "caprylic", "capric",
}

var openCatalogDatabase = func() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	database, err := appdb.Initialize(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := appdb.AutoMigrate(database); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return database, nil
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog <ingredients.csv>",
		Short: "Create or update catalog ingredients from a CSV sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("locate csv: %w", err)
			}
			defer file.Close()

			records, err := readCSV(file)
			if err != nil {
				return fmt.Errorf("read csv: %w", err)
			}

			database, err := openCatalogDatabase()
			if err != nil {
				return err
			}

			imported, err := importCatalog(cmd.Context(), database, records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d ingredients from %s\n", imported, filepath.Base(args[0]))
			return nil
		},
	}
}

func importCatalog(ctx context.Context, database *gorm.DB, records []map[string]string) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ownerID, err := resolveCatalogOwner(ctx, database)
	if err != nil {
		return 0, fmt.Errorf("resolve owner: %w", err)
	}

	imported := 0
	for idx, record := range records {
		ingredient := buildIngredient(record)
		if ingredient.Name == "" {
			continue
		}
		ingredient.OwnerID = ownerID

		err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing models.Ingredient
			err := tx.Where("lower(name) = ?", strings.ToLower(ingredient.Name)).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&ingredient).Error; err != nil {
					return fmt.Errorf("create ingredient %q: %w", ingredient.Name, err)
				}
				return nil
			case err != nil:
				return fmt.Errorf("find ingredient %q: %w", ingredient.Name, err)
			}

			existing.INCIName = ingredient.INCIName
			existing.Kind = ingredient.Kind
			existing.SAPNaOH = ingredient.SAPNaOH
			existing.SAPKOH = ingredient.SAPKOH
			existing.Iodine = ingredient.Iodine
			existing.MaxUsagePercent = ingredient.MaxUsagePercent
			existing.Notes = ingredient.Notes
			fields := []string{"INCIName", "Kind", "SAPNaOH", "SAPKOH", "Iodine", "MaxUsagePercent", "Notes"}
			if len(ingredient.FattyAcids) > 0 {
				existing.FattyAcids = ingredient.FattyAcids
				fields = append(fields, "FattyAcids")
			}
			if err := tx.Model(&existing).Select(fields).Updates(&existing).Error; err != nil {
				return fmt.Errorf("update ingredient %q: %w", existing.Name, err)
			}

			if err := tx.Where("ingredient_id = ?", existing.ID).Delete(&models.IngredientAlias{}).Error; err != nil {
				return fmt.Errorf("clear other names for %q: %w", existing.Name, err)
			}
			for _, alias := range ingredient.OtherNames {
				alias.IngredientID = existing.ID
				if err := tx.Create(&alias).Error; err != nil {
					return fmt.Errorf("add other name %q for %q: %w", alias.Name, existing.Name, err)
				}
			}
			return nil
		})
		if err != nil {
			return imported, fmt.Errorf("record %d (%s): %w", idx+1, ingredient.Name, err)
		}
		imported++
	}
	return imported, nil
}

// resolveCatalogOwner picks the configured owner, then the first account.
// An empty database attributes the catalog to no one.
func resolveCatalogOwner(ctx context.Context, database *gorm.DB) (uint, error) {
	if database == nil {
		return 0, fmt.Errorf("database handle is nil")
	}

	if email := strings.ToLower(strings.TrimSpace(os.Getenv(catalogOwnerEnv))); email != "" {
		var user models.User
		if err := database.WithContext(ctx).Where("lower(email) = ?", email).First(&user).Error; err != nil {
			return 0, fmt.Errorf("find owner by email %q: %w", email, err)
		}
		return user.ID, nil
	}

	var user models.User
	err := database.WithContext(ctx).Order("id asc").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find default owner: %w", err)
	}
	return user.ID, nil
}

func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := make([]string, len(rows[0]))
	for idx, key := range rows[0] {
		header[idx] = strings.ToLower(strings.TrimSpace(key))
	}
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[key] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}
	return records, nil
}

func buildIngredient(row map[string]string) models.Ingredient {
	ingredient := models.Ingredient{
		Name:            normalizeText(row["name"]),
		INCIName:        normalizeText(row["inci name"]),
		Kind:            models.NormalizeKind(row["kind"]),
		SAPNaOH:         parseOptionalNumber(row["sap naoh"]),
		SAPKOH:          parseOptionalNumber(row["sap koh"]),
		Iodine:          parseOptionalNumber(row["iodine"]),
		MaxUsagePercent: parseFirstNumber(row["max usage %"]),
		Notes:           normalizeText(row["notes"]),
		OtherNames:      buildOtherNames(row["other names"]),
		Public:          true,
	}

	for _, acid := range fattyAcidColumns {
		if value := parseOptionalNumber(row[acid]); value != nil {
			if ingredient.FattyAcids == nil {
				ingredient.FattyAcids = map[string]float64{}
			}
			ingredient.FattyAcids[acid] = *value
		}
	}
	return ingredient
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	return strings.TrimSpace(cleanWhitespace.ReplaceAllString(value, " "))
}

func parseFirstNumber(value string) float64 {
	if parsed := parseOptionalNumber(value); parsed != nil {
		return *parsed
	}
	return 0
}

func parseOptionalNumber(value string) *float64 {
	match := numberPattern.FindString(normalizeValue(value))
	if match == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func buildOtherNames(value string) []models.IngredientAlias {
	value = normalizeValue(value)
	if value == "" {
		return nil
	}

	parts := strings.Split(strings.ReplaceAll(value, ";", ","), ",")
	names := make([]models.IngredientAlias, 0, len(parts))
	seen := map[string]struct{}{}
	for _, part := range parts {
		clean := strings.TrimSpace(bracketPattern.ReplaceAllString(part, ""))
		if clean == "" {
			continue
		}
		key := strings.ToLower(clean)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, models.IngredientAlias{Name: clean})
	}
	return names
}
