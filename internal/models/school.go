package models

import "time"

// School is the tenant: it owns users via membership and holds at most one
// subscription row (enforced by the unique index on subscriptions.school_id).
type School struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"unique;not null" json:"name"`
	Email           string     `gorm:"unique;not null" json:"email"`
	Phone           string     `gorm:"size:20" json:"phone,omitempty"`
	WebsiteURL      string     `json:"website_url,omitempty"`
	Motto           string     `json:"motto,omitempty"`
	TermSystem      string     `gorm:"size:124" json:"term_system,omitempty"`
	PrincipalName   string     `gorm:"size:124" json:"principal_name,omitempty"`
	YearEstablished *time.Time `json:"year_established,omitempty"`
	TotalStudents   int        `json:"total_students"`
	TotalTeachers   int        `json:"total_teachers"`
	Address         string     `json:"address,omitempty"`
	Region          string     `json:"region,omitempty"`
	City            string     `gorm:"size:124" json:"city,omitempty"`
	Country         string     `gorm:"size:124" json:"country,omitempty"`
	Description     string     `gorm:"size:512" json:"description,omitempty"`

	Users []User `gorm:"many2many:school_users" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Term is one academic term in a school's calendar.
type Term struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	SchoolID      uint       `gorm:"not null;index" json:"school_id"`
	School        School     `gorm:"foreignKey:SchoolID;constraint:OnDelete:CASCADE" json:"-"`
	TermName      string     `gorm:"not null" json:"term_name"`
	AcademicTerm  string     `gorm:"size:124" json:"academic_term"`
	AcademicYear  string     `gorm:"size:10" json:"academic_year"`
	Country       string     `gorm:"size:150" json:"country,omitempty"`
	TermStartDate time.Time  `json:"term_start_date"`
	MidTermBreak  *time.Time `json:"mid_term_break,omitempty"`
	TermEndDate   time.Time  `json:"term_end_date"`
	Weeks         int        `json:"weeks"`
	Months        int        `json:"months"`
	ExamStartDate *time.Time `json:"exam_start_date,omitempty"`
	ExamEndDate   *time.Time `json:"exam_end_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Lesson is a scheduled lesson for one class. IsCovered drives the
// class-coverage dashboard.
type Lesson struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SchoolID     uint      `gorm:"not null;index" json:"school_id"`
	TermID       *uint     `json:"term_id,omitempty"`
	Term         *Term     `gorm:"foreignKey:TermID" json:"-"`
	Name         string    `gorm:"size:124;not null" json:"name"`
	ClassName    string    `gorm:"size:50;not null;index" json:"class_name"`
	LearningArea string    `gorm:"size:100" json:"learning_area,omitempty"`
	Week         string    `gorm:"size:10" json:"week,omitempty"`
	Country      string    `gorm:"size:124" json:"country,omitempty"`
	IsCovered    bool      `gorm:"not null;default:false" json:"is_covered"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
