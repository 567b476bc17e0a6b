package models

import "time"

// SubscriptionStatus values keep the numbering of the billing backend this
// data was migrated from.
type SubscriptionStatus uint8

const (
	SubscriptionPaid    SubscriptionStatus = 1
	SubscriptionUnpaid  SubscriptionStatus = 2
	SubscriptionDue     SubscriptionStatus = 3
	SubscriptionOverdue SubscriptionStatus = 4
)

func (s SubscriptionStatus) String() string {
	switch s {
	case SubscriptionPaid:
		return "paid"
	case SubscriptionUnpaid:
		return "unpaid"
	case SubscriptionDue:
		return "due"
	case SubscriptionOverdue:
		return "overdue"
	}
	return "unknown"
}

// Subscription: at most one row per school. The unique index on school_id
// is the invariant that makes "current plan" deterministic; all writes go
// through upserts keyed on it. Cancellation only clears is_active, the row
// is never deleted.
type Subscription struct {
	ID       uint               `gorm:"primaryKey" json:"id"`
	SchoolID uint               `gorm:"not null;uniqueIndex" json:"school_id"`
	School   School             `gorm:"foreignKey:SchoolID;constraint:OnDelete:CASCADE" json:"-"`
	PlanID   uint               `gorm:"not null" json:"plan_id"`
	Plan     Plan               `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Status   SubscriptionStatus `gorm:"not null;default:2" json:"status"`
	IsActive bool               `gorm:"not null;default:true" json:"is_active"`

	StartDate time.Time  `gorm:"not null" json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
