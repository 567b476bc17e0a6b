package policy

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kaino/kaino-api/gate"
	"github.com/kaino/kaino-api/internal/models"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:policy_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Permission{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSeedsCodesUnique(t *testing.T) {
	seen := map[gate.Code]string{}
	for _, s := range Seeds() {
		if prev, ok := seen[s.Code]; ok {
			t.Errorf("code %d used by both %s and %s", s.Code, prev, s.Name)
		}
		seen[s.Code] = s.Name
	}
}

func TestDBGrantResolver(t *testing.T) {
	db := openDB(t)
	perm := models.Permission{Code: CodeLessonEdit, Name: "LESSON_EDIT"}
	if err := db.Create(&perm).Error; err != nil {
		t.Fatalf("perm: %v", err)
	}
	u := models.User{Email: "r@example.com", Password: "x", Role: gate.RoleTeacher, Permissions: []models.Permission{perm}}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("user: %v", err)
	}

	r := NewDBGrantResolver(db)
	role, grants, err := r.Resolve(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if role != gate.RoleTeacher {
		t.Errorf("role = %s, want teacher", role)
	}
	if !grants.Has(CodeLessonEdit) {
		t.Error("granted code missing")
	}
	if grants.Has(CodeInvoiceManage) {
		t.Error("ungranted code present")
	}

	if _, _, err := r.Resolve(context.Background(), 9999); !errors.Is(err, gate.ErrUnknownSubject) {
		t.Errorf("unknown user err = %v, want ErrUnknownSubject", err)
	}
}

func TestAuthGateInvalidation(t *testing.T) {
	db := openDB(t)
	perm := models.Permission{Code: CodeInvoiceView, Name: "INVOICE_VIEW"}
	if err := db.Create(&perm).Error; err != nil {
		t.Fatalf("perm: %v", err)
	}
	u := models.User{Email: "f@example.com", Password: "x", Role: gate.RoleFinance}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("user: %v", err)
	}

	ag := NewAuthGate(db, time.Minute)
	req := gate.Require(CodeInvoiceView, gate.RoleFinance)

	// first resolve caches the empty grant set
	if _, _, err := ag.Resolver.Resolve(context.Background(), u.ID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := db.Model(&u).Association("Permissions").Replace([]models.Permission{perm}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	role, grants, _ := ag.Resolver.Resolve(context.Background(), u.ID)
	if gate.Authorize(role, grants, req) == nil {
		t.Fatal("stale cache already sees the new grant")
	}

	ag.InvalidateUser(u.ID)
	role, grants, err := ag.Resolver.Resolve(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Resolve after invalidate: %v", err)
	}
	if err := gate.Authorize(role, grants, req); err != nil {
		t.Errorf("fresh resolve still denied: %v", err)
	}
}
