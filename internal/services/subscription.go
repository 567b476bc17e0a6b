package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kaino/kaino-api/internal/models"
)

// SubscriptionService owns the subscription state machine. One row per
// school, always: every write is an upsert keyed on the unique school_id
// index, so "current plan" is deterministic by construction.
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Subscribe creates or overwrites the school's subscription with the given
// plan: status Unpaid, active, start date now. Payment confirmation arrives
// later through the webhook reconciler.
func (s *SubscriptionService) Subscribe(ctx context.Context, schoolID, planID uint) (*models.Subscription, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.School{}).Where("id = ?", schoolID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("school %d: %w", schoolID, ErrNotFound)
	}
	if err := db.Model(&models.Plan{}).Where("id = ?", planID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("plan %d: %w", planID, ErrNotFound)
	}

	sub := models.Subscription{
		SchoolID:  schoolID,
		PlanID:    planID,
		Status:    models.SubscriptionUnpaid,
		IsActive:  true,
		StartDate: time.Now(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "school_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"plan_id", "status", "is_active", "start_date", "updated_at"}),
	}).Create(&sub).Error
	if err != nil {
		return nil, err
	}
	return s.Current(ctx, schoolID)
}

// MarkPaid transitions the school's subscription to Paid. Invoked by the
// webhook reconciler once the gateway confirms payment.
func (s *SubscriptionService) MarkPaid(ctx context.Context, schoolID, planID uint, endDate, paidAt time.Time) error {
	return s.MarkPaidIn(s.db.WithContext(ctx), schoolID, planID, endDate, paidAt)
}

// MarkPaidIn is MarkPaid running on a caller-provided handle so the
// reconciler can compose it into one transaction with the invoice update.
func (s *SubscriptionService) MarkPaidIn(tx *gorm.DB, schoolID, planID uint, endDate, paidAt time.Time) error {
	sub := models.Subscription{
		SchoolID:  schoolID,
		PlanID:    planID,
		Status:    models.SubscriptionPaid,
		IsActive:  true,
		StartDate: paidAt,
		EndDate:   &endDate,
		UpdatedAt: paidAt,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "school_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"plan_id", "status", "is_active", "end_date", "updated_at"}),
	}).Create(&sub).Error
}

// Cancel flips is_active off. The row and its status survive.
func (s *SubscriptionService) Cancel(ctx context.Context, schoolID uint) error {
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("school_id = ?", schoolID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subscription for school %d: %w", schoolID, ErrNotFound)
	}
	return nil
}

// Current returns the school's single subscription row with its plan.
func (s *SubscriptionService) Current(ctx context.Context, schoolID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Preload("Plan").Where("school_id = ?", schoolID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("subscription for school %d: %w", schoolID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// MarkOverdue flips Paid subscriptions whose end date has passed to
// Overdue. Returns the number of rows changed.
func (s *SubscriptionService) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", models.SubscriptionPaid, asOf).
		Update("status", models.SubscriptionOverdue)
	return res.RowsAffected, res.Error
}
