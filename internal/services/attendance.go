package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/kaino/kaino-api/internal/models"
)

// AttendanceService aggregates roll call and lesson coverage data.
type AttendanceService struct {
	db *gorm.DB
}

func NewAttendanceService(db *gorm.DB) *AttendanceService {
	return &AttendanceService{db: db}
}

// MarkInput is one roll call entry.
type MarkInput struct {
	StudentID  uint
	SchoolID   uint
	ClassName  string
	Date       time.Time
	Attendance models.Attendance
}

// Mark records one student's attendance for a date. A second call for the
// same student and date overwrites the earlier status instead of adding a
// row.
func (s *AttendanceService) Mark(ctx context.Context, in MarkInput) error {
	if in.Attendance < models.AttendancePresent || in.Attendance > models.AttendanceExcuse {
		return fmt.Errorf("%w: unknown attendance status %d", ErrValidation, in.Attendance)
	}
	// the civil date in the client's own zone, so an evening mark from
	// UTC+2 does not land on the previous UTC day
	y, m, d := in.Date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	var existing models.RollCall
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND date = ?", in.StudentID, day).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rc := models.RollCall{
			StudentID:  in.StudentID,
			SchoolID:   in.SchoolID,
			ClassName:  in.ClassName,
			Date:       day,
			Attendance: in.Attendance,
		}
		return s.db.WithContext(ctx).Create(&rc).Error
	}
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&existing).Update("attendance", in.Attendance).Error
}

// Summary is attendance counts over a window, school wide or narrowed to
// one student.
type Summary struct {
	SchoolID   uint    `json:"school_id"`
	StudentID  uint    `json:"student_id,omitempty"`
	Present    int64   `json:"present"`
	Absent     int64   `json:"absent"`
	Excused    int64   `json:"excused"`
	Percentage float64 `json:"percentage"`
}

// SummaryFilter selects the roll calls a Summary is computed over.
// StudentID zero means every student in the school.
type SummaryFilter struct {
	SchoolID  uint
	StudentID uint
	From, To  time.Time
}

// Percentage computes present/(present+absent)*100 rounded half up to a
// whole number. Excused days are outside the denominator, and an empty
// window is 0, not a division error.
func Percentage(present, absent int64) float64 {
	total := present + absent
	if total == 0 {
		return 0
	}
	return math.Round(float64(present) / float64(total) * 100)
}

// MonthlySummary aggregates roll calls for the month containing the given
// date. A nonzero studentID narrows the summary to that student.
func (s *AttendanceService) MonthlySummary(ctx context.Context, schoolID, studentID uint, month time.Time) (*Summary, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	return s.Summarize(ctx, SummaryFilter{
		SchoolID:  schoolID,
		StudentID: studentID,
		From:      start,
		To:        start.AddDate(0, 1, 0),
	})
}

// Summarize counts roll calls by status within the filter window.
func (s *AttendanceService) Summarize(ctx context.Context, f SummaryFilter) (*Summary, error) {
	type row struct {
		Attendance models.Attendance
		N          int64
	}
	q := s.db.WithContext(ctx).Model(&models.RollCall{}).
		Select("attendance, COUNT(*) as n").
		Where("school_id = ? AND date >= ? AND date < ?", f.SchoolID, f.From, f.To)
	if f.StudentID != 0 {
		q = q.Where("student_id = ?", f.StudentID)
	}
	var rows []row
	if err := q.Group("attendance").Scan(&rows).Error; err != nil {
		return nil, err
	}
	sum := Summary{SchoolID: f.SchoolID, StudentID: f.StudentID}
	for _, r := range rows {
		switch r.Attendance {
		case models.AttendancePresent:
			sum.Present = r.N
		case models.AttendanceAbsent:
			sum.Absent = r.N
		case models.AttendanceExcuse:
			sum.Excused = r.N
		}
	}
	sum.Percentage = Percentage(sum.Present, sum.Absent)
	return &sum, nil
}

// ClassCoverage is lesson completion for one class.
type ClassCoverage struct {
	ClassName string  `json:"class_name"`
	Total     int64   `json:"total"`
	Covered   int64   `json:"covered"`
	Percent   float64 `json:"percent"`
}

// Coverage reports covered-lesson percentages grouped by class name.
func (s *AttendanceService) Coverage(ctx context.Context, schoolID uint) ([]ClassCoverage, error) {
	var rows []ClassCoverage
	err := s.db.WithContext(ctx).Model(&models.Lesson{}).
		Select("class_name, COUNT(*) as total, SUM(CASE WHEN is_covered THEN 1 ELSE 0 END) as covered").
		Where("school_id = ?", schoolID).
		Group("class_name").
		Order("class_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Total > 0 {
			rows[i].Percent = math.Round(float64(rows[i].Covered) / float64(rows[i].Total) * 100)
		}
	}
	return rows, nil
}

// ClassAbsences is the absentee count for one class.
type ClassAbsences struct {
	ClassName string `json:"class_name"`
	Absent    int64  `json:"absent"`
}

// ResolveInterval maps a named interval onto a half-open date window
// ending at now. weekly covers the trailing seven days, monthly the
// current calendar month, day the current day.
func ResolveInterval(interval string, now time.Time) (time.Time, time.Time, error) {
	dayStart := now.Truncate(24 * time.Hour)
	switch interval {
	case "", "weekly":
		return dayStart.AddDate(0, 0, -6), dayStart.Add(24 * time.Hour), nil
	case "monthly":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0), nil
	case "day":
		return dayStart, dayStart.Add(24 * time.Hour), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown interval %q", ErrValidation, interval)
	}
}

// AbsenteesByClass counts absent roll calls per class within the window.
func (s *AttendanceService) AbsenteesByClass(ctx context.Context, schoolID uint, from, to time.Time) ([]ClassAbsences, error) {
	var rows []ClassAbsences
	err := s.db.WithContext(ctx).Model(&models.RollCall{}).
		Select("class_name, COUNT(*) as absent").
		Where("school_id = ? AND attendance = ? AND date >= ? AND date < ?",
			schoolID, models.AttendanceAbsent, from, to).
		Group("class_name").
		Order("class_name").
		Scan(&rows).Error
	return rows, err
}

// Bucket is one slice of a breakdown chart.
type Bucket struct {
	Label   string `json:"label"`
	Present int64  `json:"present"`
	Absent  int64  `json:"absent"`
}

// WeeklyBreakdown buckets the last seven days by weekday, oldest first.
func (s *AttendanceService) WeeklyBreakdown(ctx context.Context, studentID uint, now time.Time) ([]Bucket, error) {
	end := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	start := end.AddDate(0, 0, -7)
	var calls []models.RollCall
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND date >= ? AND date < ?", studentID, start, end).
		Order("date").
		Find(&calls).Error
	if err != nil {
		return nil, err
	}
	buckets := make([]Bucket, 7)
	for i := range buckets {
		day := start.AddDate(0, 0, i)
		buckets[i].Label = day.Weekday().String()[:3]
	}
	for _, c := range calls {
		i := int(c.Date.Sub(start).Hours() / 24)
		if i < 0 || i >= len(buckets) {
			continue
		}
		switch c.Attendance {
		case models.AttendancePresent:
			buckets[i].Present++
		case models.AttendanceAbsent:
			buckets[i].Absent++
		}
	}
	return buckets, nil
}

// DailyBreakdown buckets today's roll calls into 4 hour slices by record
// creation time.
func (s *AttendanceService) DailyBreakdown(ctx context.Context, studentID uint, now time.Time) ([]Bucket, error) {
	start := now.Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)
	var calls []models.RollCall
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND created_at >= ? AND created_at < ?", studentID, start, end).
		Find(&calls).Error
	if err != nil {
		return nil, err
	}
	buckets := make([]Bucket, 6)
	for i := range buckets {
		buckets[i].Label = fmt.Sprintf("%02d:00", i*4)
	}
	for _, c := range calls {
		i := c.CreatedAt.Sub(start).Hours() / 4
		if i < 0 || int(i) >= len(buckets) {
			continue
		}
		switch c.Attendance {
		case models.AttendancePresent:
			buckets[int(i)].Present++
		case models.AttendanceAbsent:
			buckets[int(i)].Absent++
		}
	}
	return buckets, nil
}

// MonthlyBreakdown buckets a calendar year by month.
func (s *AttendanceService) MonthlyBreakdown(ctx context.Context, studentID uint, year int) ([]Bucket, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	var calls []models.RollCall
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND date >= ? AND date < ?", studentID, start, end).
		Find(&calls).Error
	if err != nil {
		return nil, err
	}
	buckets := make([]Bucket, 12)
	for i := range buckets {
		buckets[i].Label = time.Month(i + 1).String()[:3]
	}
	for _, c := range calls {
		i := int(c.Date.Month()) - 1
		switch c.Attendance {
		case models.AttendancePresent:
			buckets[i].Present++
		case models.AttendanceAbsent:
			buckets[i].Absent++
		}
	}
	return buckets, nil
}
