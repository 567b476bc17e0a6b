package models

import "time"

type Attendance uint8

const (
	AttendancePresent Attendance = 1
	AttendanceAbsent  Attendance = 2
	AttendanceExcuse  Attendance = 3
)

func (a Attendance) String() string {
	switch a {
	case AttendancePresent:
		return "present"
	case AttendanceAbsent:
		return "absent"
	case AttendanceExcuse:
		return "excuse"
	}
	return "unknown"
}

// RollCall is one attendance record for one student on one date. The
// composite unique index keeps percentage denominators well-defined:
// re-submitting a roll call for the same day updates the existing row.
type RollCall struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	StudentID  uint       `gorm:"not null;uniqueIndex:idx_rollcall_student_date" json:"student_id"`
	Student    User       `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	SchoolID   uint       `gorm:"not null;index" json:"school_id"`
	ClassName  string     `gorm:"size:50;index" json:"class_name"`
	Date       time.Time  `gorm:"type:date;not null;uniqueIndex:idx_rollcall_student_date" json:"date"`
	Attendance Attendance `gorm:"not null" json:"attendance"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
