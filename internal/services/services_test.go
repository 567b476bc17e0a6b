package services

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appdb "github.com/kaino/kaino-api/internal/db"
	"github.com/kaino/kaino-api/internal/models"
)

// testDB opens a named in-memory sqlite database. The name is keyed on the
// test so parallel tests never share state, and cache=shared keeps the
// database alive across the pooled connections gorm opens.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := appdb.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreate[T any](t *testing.T, db *gorm.DB, v *T) *T {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
	return v
}

func newSchool(t *testing.T, db *gorm.DB, name string) *models.School {
	t.Helper()
	return mustCreate(t, db, &models.School{
		Name:  name,
		Email: name + "@example.com",
	})
}

func newPlan(t *testing.T, db *gorm.DB, name string, price string) *models.Plan {
	t.Helper()
	p, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("price %q: %v", price, err)
	}
	return mustCreate(t, db, &models.Plan{Name: name, Price: p})
}
