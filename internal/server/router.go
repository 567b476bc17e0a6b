package server

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/kaino/kaino-api/auth"
	"github.com/kaino/kaino-api/gate"
	"github.com/kaino/kaino-api/httpx"
	"github.com/kaino/kaino-api/internal/config"
	"github.com/kaino/kaino-api/internal/handlers"
	"github.com/kaino/kaino-api/internal/models"
	"github.com/kaino/kaino-api/internal/policy"
	"github.com/kaino/kaino-api/internal/services"
)

// Deps carries the wired services the router mounts. The reconciler is
// started by the caller; the router only exposes its webhook entry point.
type Deps struct {
	DB         *gorm.DB
	Cfg        config.Config
	Gate       *policy.AuthGate
	Invoices   *services.InvoiceService
	Subs       *services.SubscriptionService
	Attendance *services.AttendanceService
	Reconciler *services.Reconciler
}

// NewDeps wires the default service graph on top of a DB handle.
func NewDeps(db *gorm.DB, cfg config.Config, plans services.PlanFetcher) Deps {
	invoices := services.NewInvoiceService(db)
	subs := services.NewSubscriptionService(db)
	return Deps{
		DB:         db,
		Cfg:        cfg,
		Gate:       policy.NewAuthGate(db, 5*time.Minute),
		Invoices:   invoices,
		Subs:       subs,
		Attendance: services.NewAttendanceService(db),
		Reconciler: services.NewReconciler(db, invoices, subs, plans),
	}
}

// New constructs the root http.Handler with all routes and middlewares
// applied.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()
	db := d.DB

	// RequireAuth checks the user still exists before trusting the cookie.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	// guarded wraps a handler in session auth plus one permission check.
	guarded := func(req gate.Requirement, h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(d.Gate.Require(req)(h)))
	}
	// loggedIn only needs a valid session.
	loggedIn := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	ah := handlers.NewAuthHandler(db)
	mux.HandleFunc("POST /register", ah.Register)
	mux.HandleFunc("POST /login", ah.Login)
	mux.HandleFunc("POST /logout", ah.Logout)

	sh := handlers.NewSchoolHandler(db)
	mux.Handle("POST /schools", guarded(policy.SchoolManage, sh.Create))
	mux.Handle("GET /schools", guarded(policy.SchoolView, sh.List))
	mux.Handle("GET /schools/{id}", guarded(policy.SchoolView, sh.Get))
	mux.Handle("PATCH /schools/{id}", guarded(policy.SchoolManage, sh.Update))
	mux.Handle("DELETE /schools/{id}", guarded(policy.SchoolManage, sh.Delete))

	th := handlers.NewTermHandler(db)
	mux.Handle("POST /terms", guarded(policy.TermManage, th.Create))
	mux.Handle("GET /terms", guarded(policy.SchoolView, th.List))
	mux.Handle("DELETE /terms/{id}", guarded(policy.TermManage, th.Delete))

	lh := handlers.NewLessonHandler(db)
	mux.Handle("POST /lessons", guarded(policy.LessonEdit, lh.Create))
	mux.Handle("GET /lessons", guarded(policy.LessonView, lh.List))
	mux.Handle("PATCH /lessons/{id}", guarded(policy.LessonEdit, lh.Update))
	mux.Handle("DELETE /lessons/{id}", guarded(policy.LessonEdit, lh.Delete))

	uh := handlers.NewUserHandler(db, d.Gate)
	mux.Handle("GET /users", guarded(policy.UserManage, uh.List))
	mux.Handle("POST /users/{id}/permissions", guarded(policy.PermissionGrant, uh.GrantPermissions))

	ph := handlers.NewPlanHandler(db)
	mux.Handle("POST /plans", guarded(policy.PlanManage, ph.Create))
	mux.Handle("POST /benefits", guarded(policy.PlanManage, ph.CreateBenefit))
	mux.Handle("GET /plans", loggedIn(ph.List))

	subh := handlers.NewSubscriptionHandler(d.Subs)
	mux.Handle("POST /subscriptions", guarded(policy.Subscribe, subh.Subscribe))
	mux.Handle("GET /subscriptions/{schoolID}", guarded(policy.Subscribe, subh.Current))
	mux.Handle("DELETE /subscriptions/{schoolID}", guarded(policy.Subscribe, subh.Cancel))

	ih := handlers.NewInvoiceHandler(d.Invoices)
	mux.Handle("POST /invoices", guarded(policy.InvoiceManage, ih.Create))
	mux.Handle("GET /invoices", guarded(policy.InvoiceView, ih.List))
	mux.Handle("GET /invoices/{number}", guarded(policy.InvoiceView, ih.Get))
	mux.Handle("PATCH /invoices/{number}", guarded(policy.InvoiceManage, ih.Update))
	mux.Handle("DELETE /invoices/{number}", guarded(policy.InvoiceManage, ih.Delete))

	// webhook authenticates with its signature header, not a session
	wh := handlers.NewWebhookHandler(d.Cfg.GatewayWebhookSecret, d.Reconciler)
	mux.HandleFunc("POST /webhook", wh.Handle)

	fh := handlers.NewFinanceHandler(db, d.Invoices, d.Subs)
	mux.Handle("GET /finance", guarded(policy.FinanceView, fh.Overview))
	mux.Handle("GET /finance/summary", guarded(policy.FinanceView, fh.Summary))

	atth := handlers.NewAttendanceHandler(d.Attendance)
	mux.Handle("POST /attendance", guarded(policy.AttendanceMark, atth.Mark))
	mux.Handle("GET /attendance/summary", guarded(policy.AttendanceView, atth.Summary))
	mux.Handle("GET /attendance/coverage", guarded(policy.AttendanceView, atth.Coverage))
	mux.Handle("GET /attendance/pie", guarded(policy.AttendanceView, atth.Pie))
	mux.Handle("GET /attendance/graph", guarded(policy.AttendanceView, atth.Graph))

	return mux
}
