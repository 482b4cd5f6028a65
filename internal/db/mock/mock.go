package mock

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"saponaria/internal/db"
	applog "saponaria/internal/log"
	"saponaria/models"
)

// DemoEmail and DemoPassword sign in to the seeded account.
const (
	DemoEmail    = "maker@saponaria.app"
	DemoPassword = "lather"
)

// New returns an in-memory sqlite database seeded with a small oil and
// fragrance catalog.
func New(ctx context.Context) (*gorm.DB, error) {
	return open(ctx, "file:saponaria-mock?mode=memory&cache=shared")
}

func open(ctx context.Context, dsn string) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	var users int64
	if err := database.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return nil, err
	}
	if users == 0 {
		if err := seed(ctx, database); err != nil {
			return nil, err
		}
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func ptr(v float64) *float64 { return &v }

// Catalog returns the seeded ingredients.
func Catalog() []models.Ingredient {
	return []models.Ingredient{
		{
			Name:     "Olive Oil",
			INCIName: "Olea Europaea Fruit Oil",
			Kind:     models.KindOil,
			SAPNaOH:  ptr(0.1353),
			SAPKOH:   ptr(0.1899),
			Iodine:   ptr(85),
			FattyAcids: map[string]float64{
				"oleic": 69, "palmitic": 14, "linoleic": 12, "stearic": 3, "linolenic": 1,
			},
			OtherNames: []models.IngredientAlias{{Name: "Pomace Olive Oil"}},
			Public:     true,
		},
		{
			Name:     "Coconut Oil 76",
			INCIName: "Cocos Nucifera Oil",
			Kind:     models.KindOil,
			SAPNaOH:  ptr(0.1829),
			SAPKOH:   ptr(0.2567),
			Iodine:   ptr(10),
			FattyAcids: map[string]float64{
				"lauric": 48, "myristic": 19, "palmitic": 9, "caprylic": 8, "capric": 7, "oleic": 8, "stearic": 3, "linoleic": 2,
			},
			OtherNames: []models.IngredientAlias{{Name: "Coconut Oil"}},
			Public:     true,
		},
		{
			Name:     "Shea Butter",
			INCIName: "Butyrospermum Parkii Butter",
			Kind:     models.KindOil,
			SAPNaOH:  ptr(0.1281),
			SAPKOH:   ptr(0.1797),
			Iodine:   ptr(59),
			FattyAcids: map[string]float64{
				"oleic": 48, "stearic": 40, "linoleic": 6, "palmitic": 5,
			},
			Public: true,
		},
		{
			Name:     "Castor Oil",
			INCIName: "Ricinus Communis Seed Oil",
			Kind:     models.KindOil,
			SAPNaOH:  ptr(0.1286),
			SAPKOH:   ptr(0.1804),
			Iodine:   ptr(86),
			FattyAcids: map[string]float64{
				"ricinoleic": 90, "oleic": 4, "linoleic": 4,
			},
			Public: true,
		},
		{
			Name:            "Lavender Essential Oil",
			INCIName:        "Lavandula Angustifolia Oil",
			Kind:            models.KindFragrance,
			MaxUsagePercent: 3,
			OtherNames:      []models.IngredientAlias{{Name: "Lavender"}},
			Public:          true,
		},
		{
			Name:            "Sodium Lactate",
			Kind:            models.KindAdditive,
			MaxUsagePercent: 3,
			Public:          true,
		},
	}
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         "Rowan Maker",
		Email:        DemoEmail,
		PasswordHash: string(password),
		Unit:         models.DefaultUnit,
	}
	if err := database.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	ingredients := Catalog()
	for i := range ingredients {
		ingredients[i].OwnerID = user.ID
		if err := database.WithContext(ctx).Create(&ingredients[i]).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded", "ingredients", len(ingredients))
	return nil
}
