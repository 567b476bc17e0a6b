package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kaino/kaino-api/internal/models"
)

func TestSubscribeKeepsSingleRow(t *testing.T) {
	db := testDB(t)
	svc := NewSubscriptionService(db)
	school := newSchool(t, db, "subschool")
	basic := newPlan(t, db, "BASIC", "100")
	premium := newPlan(t, db, "PREMIUM", "500")

	ctx := context.Background()
	sub, err := svc.Subscribe(ctx, school.ID, basic.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if sub.Status != models.SubscriptionUnpaid {
		t.Errorf("status = %s, want unpaid", sub.Status)
	}

	// switching plans overwrites, never adds a second row
	sub, err = svc.Subscribe(ctx, school.ID, premium.ID)
	if err != nil {
		t.Fatalf("second Subscribe: %v", err)
	}
	if sub.PlanID != premium.ID {
		t.Errorf("plan = %d, want %d", sub.PlanID, premium.ID)
	}
	var rows int64
	db.Model(&models.Subscription{}).Where("school_id = ?", school.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("subscription rows = %d, want 1", rows)
	}
}

func TestSubscribeUnknownSchoolOrPlan(t *testing.T) {
	db := testDB(t)
	svc := NewSubscriptionService(db)
	school := newSchool(t, db, "lonely")
	plan := newPlan(t, db, "BASIC", "100")

	ctx := context.Background()
	if _, err := svc.Subscribe(ctx, 999, plan.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown school err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Subscribe(ctx, school.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown plan err = %v, want ErrNotFound", err)
	}
}

func TestMarkPaidUpsertsToPaid(t *testing.T) {
	db := testDB(t)
	svc := NewSubscriptionService(db)
	school := newSchool(t, db, "payer")
	plan := newPlan(t, db, "STANDARD", "250")

	ctx := context.Background()
	if _, err := svc.Subscribe(ctx, school.ID, plan.ID); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	end := time.Now().AddDate(0, 1, 0)
	if err := svc.MarkPaid(ctx, school.ID, plan.ID, end, time.Now()); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	sub, err := svc.Current(ctx, school.ID)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if sub.Status != models.SubscriptionPaid {
		t.Errorf("status = %s, want paid", sub.Status)
	}
	if sub.EndDate == nil || !sub.EndDate.Equal(end) {
		t.Errorf("end_date = %v, want %v", sub.EndDate, end)
	}
	if sub.Plan.Name != "STANDARD" {
		t.Errorf("preloaded plan = %q, want STANDARD", sub.Plan.Name)
	}
}

func TestMarkPaidWithoutPriorRow(t *testing.T) {
	db := testDB(t)
	svc := NewSubscriptionService(db)
	school := newSchool(t, db, "directpay")
	plan := newPlan(t, db, "BASIC", "100")

	ctx := context.Background()
	if err := svc.MarkPaid(ctx, school.ID, plan.ID, time.Now().AddDate(0, 1, 0), time.Now()); err != nil {
		t.Fatalf("MarkPaid without prior Subscribe: %v", err)
	}
	sub, err := svc.Current(ctx, school.ID)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if sub.Status != models.SubscriptionPaid {
		t.Errorf("status = %s, want paid", sub.Status)
	}
}

func TestCancelSubscription(t *testing.T) {
	db := testDB(t)
	svc := NewSubscriptionService(db)
	school := newSchool(t, db, "quitter")
	plan := newPlan(t, db, "BASIC", "100")

	ctx := context.Background()
	if _, err := svc.Subscribe(ctx, school.ID, plan.ID); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := svc.Cancel(ctx, school.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	sub, err := svc.Current(ctx, school.ID)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if sub.IsActive {
		t.Error("subscription still active after cancel")
	}

	if err := svc.Cancel(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Cancel unknown school err = %v, want ErrNotFound", err)
	}
}

func TestMarkOverdue(t *testing.T) {
	db := testDB(t)
	svc := NewSubscriptionService(db)
	plan := newPlan(t, db, "BASIC", "100")
	expired := newSchool(t, db, "expired")
	current := newSchool(t, db, "current")

	ctx := context.Background()
	now := time.Now()
	if err := svc.MarkPaid(ctx, expired.ID, plan.ID, now.AddDate(0, 0, -1), now.AddDate(0, -1, 0)); err != nil {
		t.Fatalf("MarkPaid expired: %v", err)
	}
	if err := svc.MarkPaid(ctx, current.ID, plan.ID, now.AddDate(0, 1, 0), now); err != nil {
		t.Fatalf("MarkPaid current: %v", err)
	}

	n, err := svc.MarkOverdue(ctx, now)
	if err != nil {
		t.Fatalf("MarkOverdue: %v", err)
	}
	if n != 1 {
		t.Errorf("MarkOverdue changed %d rows, want 1", n)
	}
	sub, _ := svc.Current(ctx, expired.ID)
	if sub.Status != models.SubscriptionOverdue {
		t.Errorf("expired school status = %s, want overdue", sub.Status)
	}
	sub, _ = svc.Current(ctx, current.ID)
	if sub.Status != models.SubscriptionPaid {
		t.Errorf("current school status = %s, want paid", sub.Status)
	}
}
