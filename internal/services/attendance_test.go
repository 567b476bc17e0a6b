package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kaino/kaino-api/internal/models"
)

func TestPercentageRounding(t *testing.T) {
	cases := []struct {
		present, absent int64
		want            float64
	}{
		{18, 2, 90},
		{0, 0, 0},
		{1, 2, 33}, // 33.33 rounds down
		{1, 1, 50},
		{5, 3, 63}, // 62.5 rounds half up
		{20, 0, 100},
		{0, 5, 0},
	}
	for _, c := range cases {
		if got := Percentage(c.present, c.absent); got != c.want {
			t.Errorf("Percentage(%d, %d) = %v, want %v", c.present, c.absent, got, c.want)
		}
	}
}

func TestMonthlySummary(t *testing.T) {
	db := testDB(t)
	svc := NewAttendanceService(db)
	school := newSchool(t, db, "attschool")
	student := mustCreate(t, db, &models.User{
		FirstName: "Ama",
		Email:     "ama@example.com",
		Password:  "x",
	})

	ctx := context.Background()
	month := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	mark := func(day int, a models.Attendance) {
		t.Helper()
		err := svc.Mark(ctx, MarkInput{
			StudentID:  student.ID,
			SchoolID:   school.ID,
			ClassName:  "P4",
			Date:       month.AddDate(0, 0, day-1),
			Attendance: a,
		})
		if err != nil {
			t.Fatalf("Mark day %d: %v", day, err)
		}
	}
	for day := 1; day <= 18; day++ {
		mark(day, models.AttendancePresent)
	}
	mark(19, models.AttendanceAbsent)
	mark(20, models.AttendanceAbsent)
	mark(21, models.AttendanceExcuse)
	// outside the window, must not count
	err := svc.Mark(ctx, MarkInput{
		StudentID: student.ID, SchoolID: school.ID, ClassName: "P4",
		Date: month.AddDate(0, 1, 2), Attendance: models.AttendanceAbsent,
	})
	if err != nil {
		t.Fatalf("Mark next month: %v", err)
	}

	sum, err := svc.MonthlySummary(ctx, school.ID, student.ID, month)
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	if sum.Present != 18 || sum.Absent != 2 || sum.Excused != 1 {
		t.Errorf("counts = %d/%d/%d, want 18/2/1", sum.Present, sum.Absent, sum.Excused)
	}
	if sum.Percentage != 90 {
		t.Errorf("percentage = %v, want 90", sum.Percentage)
	}

	// school wide, no student filter: the next-month absence is still out
	// of the window, so only the extra student's marks would widen it.
	wide, err := svc.MonthlySummary(ctx, school.ID, 0, month)
	if err != nil {
		t.Fatalf("MonthlySummary school wide: %v", err)
	}
	if wide.Present != 18 || wide.Absent != 2 {
		t.Errorf("school-wide counts = %d/%d, want 18/2", wide.Present, wide.Absent)
	}
}

func TestMonthlySummaryEmpty(t *testing.T) {
	db := testDB(t)
	svc := NewAttendanceService(db)
	sum, err := svc.MonthlySummary(context.Background(), 7, 42, time.Now())
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	if sum.Percentage != 0 {
		t.Errorf("percentage with no records = %v, want 0", sum.Percentage)
	}
}

func TestAbsenteesByClass(t *testing.T) {
	db := testDB(t)
	svc := NewAttendanceService(db)
	school := newSchool(t, db, "pieschool")

	ctx := context.Background()
	now := time.Date(2026, time.June, 15, 9, 0, 0, 0, time.UTC)
	var nextID uint = 100
	mark := func(class string, daysAgo int, a models.Attendance) {
		t.Helper()
		nextID++
		err := svc.Mark(ctx, MarkInput{
			StudentID: nextID, SchoolID: school.ID, ClassName: class,
			Date: now.AddDate(0, 0, -daysAgo), Attendance: a,
		})
		if err != nil {
			t.Fatalf("Mark: %v", err)
		}
	}
	mark("P4", 1, models.AttendanceAbsent)
	mark("P4", 2, models.AttendanceAbsent)
	mark("P5", 3, models.AttendanceAbsent)
	mark("P5", 0, models.AttendancePresent) // present rows never count
	mark("P6", 20, models.AttendanceAbsent) // outside the weekly window

	from, to, err := ResolveInterval("weekly", now)
	if err != nil {
		t.Fatalf("ResolveInterval: %v", err)
	}
	rows, err := svc.AbsenteesByClass(ctx, school.ID, from, to)
	if err != nil {
		t.Fatalf("AbsenteesByClass: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("classes = %d, want 2: %+v", len(rows), rows)
	}
	if rows[0].ClassName != "P4" || rows[0].Absent != 2 {
		t.Errorf("P4 = %+v, want 2 absences", rows[0])
	}
	if rows[1].ClassName != "P5" || rows[1].Absent != 1 {
		t.Errorf("P5 = %+v, want 1 absence", rows[1])
	}
}

func TestResolveIntervalRejectsUnknown(t *testing.T) {
	if _, _, err := ResolveInterval("fortnightly", time.Now()); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestMarkOverwritesSameDay(t *testing.T) {
	db := testDB(t)
	svc := NewAttendanceService(db)
	school := newSchool(t, db, "redoschool")
	student := mustCreate(t, db, &models.User{FirstName: "Kofi", Email: "kofi@example.com", Password: "x"})

	ctx := context.Background()
	day := time.Date(2026, time.April, 7, 0, 0, 0, 0, time.UTC)
	in := MarkInput{StudentID: student.ID, SchoolID: school.ID, ClassName: "P5", Date: day, Attendance: models.AttendanceAbsent}
	if err := svc.Mark(ctx, in); err != nil {
		t.Fatalf("first Mark: %v", err)
	}
	in.Attendance = models.AttendancePresent
	if err := svc.Mark(ctx, in); err != nil {
		t.Fatalf("second Mark: %v", err)
	}

	var rows []models.RollCall
	db.Where("student_id = ?", student.ID).Find(&rows)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Attendance != models.AttendancePresent {
		t.Errorf("attendance = %s, want present", rows[0].Attendance)
	}
}

func TestMarkUsesCivilDate(t *testing.T) {
	db := testDB(t)
	svc := NewAttendanceService(db)
	school := newSchool(t, db, "tzschool")
	student := mustCreate(t, db, &models.User{FirstName: "Abena", Email: "abena@example.com", Password: "x"})

	ctx := context.Background()
	loc := time.FixedZone("UTC+2", 2*3600)
	in := MarkInput{
		StudentID: student.ID, SchoolID: school.ID, ClassName: "P2",
		Date:       time.Date(2026, time.June, 3, 23, 0, 0, 0, loc),
		Attendance: models.AttendanceAbsent,
	}
	if err := svc.Mark(ctx, in); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	var rc models.RollCall
	if err := db.Where("student_id = ?", student.ID).First(&rc).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if y, m, d := rc.Date.Date(); y != 2026 || m != time.June || d != 3 {
		t.Errorf("stored date = %v, want 2026-06-03", rc.Date)
	}

	// the same civil day marked from UTC updates the existing row
	in.Date = time.Date(2026, time.June, 3, 8, 0, 0, 0, time.UTC)
	in.Attendance = models.AttendancePresent
	if err := svc.Mark(ctx, in); err != nil {
		t.Fatalf("second Mark: %v", err)
	}
	var rows []models.RollCall
	db.Where("student_id = ?", student.ID).Find(&rows)
	if len(rows) != 1 || rows[0].Attendance != models.AttendancePresent {
		t.Errorf("rows = %+v, want one present row", rows)
	}
}

func TestMarkRejectsUnknownStatus(t *testing.T) {
	db := testDB(t)
	svc := NewAttendanceService(db)
	err := svc.Mark(context.Background(), MarkInput{StudentID: 1, Date: time.Now(), Attendance: 9})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCoverage(t *testing.T) {
	db := testDB(t)
	svc := NewAttendanceService(db)
	school := newSchool(t, db, "covschool")

	mk := func(class string, covered bool) {
		mustCreate(t, db, &models.Lesson{
			SchoolID:  school.ID,
			Name:      "Lesson",
			ClassName: class,
			IsCovered: covered,
		})
	}
	mk("P4", true)
	mk("P4", true)
	mk("P4", false)
	mk("P5", false)

	rows, err := svc.Coverage(context.Background(), school.ID)
	if err != nil {
		t.Fatalf("Coverage: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("classes = %d, want 2", len(rows))
	}
	p4 := rows[0]
	if p4.ClassName != "P4" || p4.Total != 3 || p4.Covered != 2 || p4.Percent != 67 {
		t.Errorf("P4 = %+v, want total 3 covered 2 percent 67", p4)
	}
	p5 := rows[1]
	if p5.ClassName != "P5" || p5.Percent != 0 {
		t.Errorf("P5 = %+v, want percent 0", p5)
	}
}

func TestWeeklyBreakdown(t *testing.T) {
	db := testDB(t)
	svc := NewAttendanceService(db)
	school := newSchool(t, db, "weekschool")
	student := mustCreate(t, db, &models.User{FirstName: "Esi", Email: "esi@example.com", Password: "x"})

	ctx := context.Background()
	now := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		a := models.AttendancePresent
		if i == 2 {
			a = models.AttendanceAbsent
		}
		err := svc.Mark(ctx, MarkInput{
			StudentID: student.ID, SchoolID: school.ID, ClassName: "P6",
			Date: now.AddDate(0, 0, -i), Attendance: a,
		})
		if err != nil {
			t.Fatalf("Mark: %v", err)
		}
	}

	buckets, err := svc.WeeklyBreakdown(ctx, student.ID, now)
	if err != nil {
		t.Fatalf("WeeklyBreakdown: %v", err)
	}
	if len(buckets) != 7 {
		t.Fatalf("buckets = %d, want 7", len(buckets))
	}
	var present, absent int64
	for _, b := range buckets {
		present += b.Present
		absent += b.Absent
	}
	if present != 6 || absent != 1 {
		t.Errorf("totals = %d present %d absent, want 6 and 1", present, absent)
	}
}

func TestMonthlyBreakdown(t *testing.T) {
	db := testDB(t)
	svc := NewAttendanceService(db)
	school := newSchool(t, db, "yearschool")
	student := mustCreate(t, db, &models.User{FirstName: "Yaw", Email: "yaw@example.com", Password: "x"})

	ctx := context.Background()
	for m := time.January; m <= time.March; m++ {
		err := svc.Mark(ctx, MarkInput{
			StudentID: student.ID, SchoolID: school.ID, ClassName: "P1",
			Date:       time.Date(2026, m, 10, 0, 0, 0, 0, time.UTC),
			Attendance: models.AttendancePresent,
		})
		if err != nil {
			t.Fatalf("Mark %s: %v", m, err)
		}
	}

	buckets, err := svc.MonthlyBreakdown(ctx, student.ID, 2026)
	if err != nil {
		t.Fatalf("MonthlyBreakdown: %v", err)
	}
	if len(buckets) != 12 {
		t.Fatalf("buckets = %d, want 12", len(buckets))
	}
	if buckets[0].Present != 1 || buckets[1].Present != 1 || buckets[2].Present != 1 {
		t.Errorf("Jan..Mar present = %d/%d/%d, want 1/1/1",
			buckets[0].Present, buckets[1].Present, buckets[2].Present)
	}
	if buckets[11].Present != 0 {
		t.Errorf("Dec present = %d, want 0", buckets[11].Present)
	}
}
