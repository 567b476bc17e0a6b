package models

import (
	"time"

	"github.com/kaino/kaino-api/gate"
)

// User & permission models
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"unique;not null;index" json:"email"`
	Password  string     `gorm:"not null" json:"-"` // bcrypt hash
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Role      gate.Role  `gorm:"not null;default:3" json:"role"` // exactly one role per user
	Gender    uint8      `json:"gender,omitempty"`               // 1 male, 2 female
	DOB       *time.Time `json:"dob,omitempty"`
	MobileNo  string     `gorm:"size:15" json:"mobile_no,omitempty"`
	Address   string     `gorm:"size:512" json:"address,omitempty"`
	ZipCode   string     `gorm:"size:10" json:"zip_code,omitempty"`

	Permissions []Permission `gorm:"many2many:user_permissions" json:"permissions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Permission is a named capability with a numeric code. Codes are granted
// to users individually; the gate checks them together with the role class.
type Permission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        gate.Code `gorm:"unique;not null" json:"code"`
	Name        string    `gorm:"unique;not null" json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"-"`
}

// GrantedCodes collects the user's permission codes for the gate.
func (u *User) GrantedCodes() gate.GrantSet {
	s := make(gate.GrantSet, len(u.Permissions))
	for _, p := range u.Permissions {
		s[p.Code] = struct{}{}
	}
	return s
}
