package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a purchasable subscription tier.
type Plan struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	Name     string          `gorm:"unique;not null;size:124" json:"name"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Benefits []Benefit       `gorm:"many2many:plan_benefits" json:"benefits,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Benefit struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"-"`
}
