package handlers

import (
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/kaino/kaino-api/httpx"
	"github.com/kaino/kaino-api/internal/models"
	"github.com/kaino/kaino-api/internal/services"
)

type FinanceHandler struct {
	DB   *gorm.DB
	Svc  *services.InvoiceService
	Subs *services.SubscriptionService
}

func NewFinanceHandler(db *gorm.DB, svc *services.InvoiceService, subs *services.SubscriptionService) *FinanceHandler {
	return &FinanceHandler{DB: db, Svc: svc, Subs: subs}
}

// Overview: GET /finance. Sweeps expired subscriptions to overdue, then
// reports counts by status plus the share of paid versus unpaid over the
// trailing 30 days.
func (h *FinanceHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Subs.MarkOverdue(r.Context(), time.Now()); err != nil {
		writeServiceError(w, err)
		return
	}
	count := func(dbq *gorm.DB) int64 {
		var n int64
		dbq.Count(&n)
		return n
	}
	totals := map[string]int64{
		"schools":  count(h.DB.Model(&models.School{})),
		"invoices": count(h.DB.Model(&models.Invoice{})),
		"paid":     count(h.DB.Model(&models.Invoice{}).Where("status = ?", models.InvoicePaid)),
		"unpaid":   count(h.DB.Model(&models.Invoice{}).Where("status = ?", models.InvoiceUnpaid)),
		"overdue":  count(h.DB.Model(&models.Invoice{}).Where("status = ?", models.InvoiceOverdue)),
		"overdue_subscriptions": count(h.DB.Model(&models.Subscription{}).
			Where("status = ?", models.SubscriptionOverdue)),
	}

	since := time.Now().AddDate(0, 0, -30)
	recentPaid := count(h.DB.Model(&models.Invoice{}).Where("status = ? AND updated_at >= ?", models.InvoicePaid, since))
	recentUnpaid := count(h.DB.Model(&models.Invoice{}).Where("status = ? AND updated_at >= ?", models.InvoiceUnpaid, since))

	httpx.JSON(w, http.StatusOK, map[string]any{
		"counts": totals,
		"last_30_days": map[string]any{
			"paid":           recentPaid,
			"unpaid":         recentUnpaid,
			"paid_percent":   services.Percentage(recentPaid, recentUnpaid),
			"unpaid_percent": services.Percentage(recentUnpaid, recentPaid),
		},
	})
}

// Summary: GET /finance/summary. Aggregate item amounts by status class.
func (h *FinanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := h.Svc.TotalAmount(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	paid, err := h.Svc.PaidAmount(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	unpaid, err := h.Svc.UnpaidAmount(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	overdue, err := h.Svc.OverdueAmount(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"total":   total,
		"paid":    paid,
		"unpaid":  unpaid,
		"overdue": overdue,
	})
}

type AttendanceHandler struct {
	Svc *services.AttendanceService
}

func NewAttendanceHandler(svc *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{Svc: svc}
}

type rollCallReq struct {
	StudentID  uint      `json:"student_id" validate:"required"`
	SchoolID   uint      `json:"school_id" validate:"required"`
	ClassName  string    `json:"class_name" validate:"required"`
	Date       time.Time `json:"date" validate:"required"`
	Attendance uint8     `json:"attendance" validate:"required"`
}

// Mark: POST /attendance
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req rollCallReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	err := h.Svc.Mark(r.Context(), services.MarkInput{
		StudentID:  req.StudentID,
		SchoolID:   req.SchoolID,
		ClassName:  req.ClassName,
		Date:       req.Date,
		Attendance: models.Attendance(req.Attendance),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func queryUint(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(r.URL.Query().Get(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// Summary: GET /attendance/summary?school_id=&month=YYYY-MM. An optional
// student_id narrows the counts to one student.
func (h *AttendanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := queryUint(r, "school_id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"school_id": "required"})
		return
	}
	studentID, _ := queryUint(r, "student_id")
	month := time.Now()
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := time.Parse("2006-01", v)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"month": "want YYYY-MM"})
			return
		}
		month = m
	}
	sum, err := h.Svc.MonthlySummary(r.Context(), schoolID, studentID, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

// Coverage: GET /attendance/coverage?school_id=
func (h *AttendanceHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := queryUint(r, "school_id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"school_id": "required"})
		return
	}
	rows, err := h.Svc.Coverage(r.Context(), schoolID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"classes": rows})
}

// Pie: GET /attendance/pie?school_id=&interval=weekly|monthly|day.
// Absentee counts per class within the resolved window.
func (h *AttendanceHandler) Pie(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := queryUint(r, "school_id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"school_id": "required"})
		return
	}
	from, to, err := services.ResolveInterval(r.URL.Query().Get("interval"), time.Now())
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"interval": "want weekly, monthly or day"})
		return
	}
	rows, err := h.Svc.AbsenteesByClass(r.Context(), schoolID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"classes": rows})
}

// Graph: GET /attendance/graph?student_id=&interval=weekly|day|monthly.
// One student's present/absent series bucketed over time.
func (h *AttendanceHandler) Graph(w http.ResponseWriter, r *http.Request) {
	studentID, ok := queryUint(r, "student_id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"student_id": "required"})
		return
	}
	now := time.Now()
	var (
		buckets []services.Bucket
		err     error
	)
	switch r.URL.Query().Get("interval") {
	case "", "weekly":
		buckets, err = h.Svc.WeeklyBreakdown(r.Context(), studentID, now)
	case "day":
		buckets, err = h.Svc.DailyBreakdown(r.Context(), studentID, now)
	case "monthly":
		buckets, err = h.Svc.MonthlyBreakdown(r.Context(), studentID, now.Year())
	default:
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"interval": "want weekly, day or monthly"})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"buckets": buckets})
}
