package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kaino/kaino-api/internal/gateway"
	"github.com/kaino/kaino-api/internal/models"
)

// PlanFetcher looks up a payment plan on the gateway. Satisfied by
// *gateway.Client; tests substitute a stub.
type PlanFetcher interface {
	Plan(ctx context.Context, id int64) (*gateway.PlanInfo, error)
}

// Reconciler turns recorded webhook events into invoice and subscription
// state. Recording and processing are separate steps: the HTTP handler only
// records and enqueues, so a slow gateway lookup never delays the 200
// acknowledgement.
type Reconciler struct {
	db       *gorm.DB
	invoices *InvoiceService
	subs     *SubscriptionService
	plans    PlanFetcher

	queue    chan uuid.UUID
	wg       sync.WaitGroup
	stopOnce sync.Once
	maxTries int
	backoff  time.Duration
}

func NewReconciler(db *gorm.DB, invoices *InvoiceService, subs *SubscriptionService, plans PlanFetcher) *Reconciler {
	return &Reconciler{
		db:       db,
		invoices: invoices,
		subs:     subs,
		plans:    plans,
		queue:    make(chan uuid.UUID, 256),
		maxTries: 3,
		backoff:  2 * time.Second,
	}
}

// Record persists a webhook notification. Duplicate transaction IDs are
// detected against the unique index and reported without error: the caller
// acknowledges the delivery either way, and a duplicate is never enqueued.
func (r *Reconciler) Record(ctx context.Context, ev *gateway.Event, body []byte) (*models.WebhookEvent, bool, error) {
	rec := &models.WebhookEvent{
		ID:            uuid.New(),
		Provider:      "flutterwave",
		TransactionID: ev.Data.TransactionID(),
		TxRef:         ev.Data.TxRef,
		Status:        models.WebhookReceived,
		Payload:       datatypes.JSON(body),
		ReceivedAt:    time.Now(),
	}
	err := r.db.WithContext(ctx).Create(rec).Error
	if err != nil {
		if isDuplicateKey(err) {
			var existing models.WebhookEvent
			ferr := r.db.WithContext(ctx).Where("transaction_id = ?", rec.TransactionID).First(&existing).Error
			if ferr != nil {
				return nil, true, ferr
			}
			return &existing, true, nil
		}
		return nil, false, err
	}
	return rec, false, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite and postgres drivers word their constraint errors differently
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// Enqueue hands an event to the worker. Drops to synchronous logging only
// if the queue is somehow full; the event stays recorded and can be retried.
func (r *Reconciler) Enqueue(id uuid.UUID) {
	select {
	case r.queue <- id:
	default:
		log.Printf("[RECONCILER] queue full, event %s left for retry", id)
	}
}

// Start launches the worker goroutine. It drains the queue until Stop.
func (r *Reconciler) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case id, ok := <-r.queue:
				if !ok {
					return
				}
				if err := r.ProcessWithRetry(ctx, id); err != nil {
					log.Printf("[RECONCILER] event %s failed permanently: %v", id, err)
				}
			}
		}
	}()
}

// Stop closes the queue and waits for the worker to drain it.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.queue) })
	r.wg.Wait()
}

// ProcessWithRetry retries transient failures with a fixed backoff, then
// marks the event failed.
func (r *Reconciler) ProcessWithRetry(ctx context.Context, id uuid.UUID) error {
	var err error
	for try := 0; try < r.maxTries; try++ {
		if try > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.backoff):
			}
		}
		if err = r.Process(ctx, id); err == nil {
			return nil
		}
	}
	r.markFailed(ctx, id, err)
	return err
}

func (r *Reconciler) markFailed(ctx context.Context, id uuid.UUID, cause error) {
	updates := map[string]any{"status": models.WebhookFailed, "error": cause.Error()}
	if err := r.db.WithContext(ctx).Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		log.Printf("[RECONCILER] could not mark event %s failed: %v", id, err)
	}
}

// errEventSkipped marks an event that can never succeed, such as a
// reference to an invoice or plan that does not exist. It aborts the
// transaction so any invoice update rolls back before the skip is
// recorded.
var errEventSkipped = errors.New("event skipped")

// Process applies one recorded event. Invoice update and subscription
// renewal happen in a single transaction with the event status flip, so a
// crash never leaves an invoice paid with the event still pending. An event
// referencing an unknown invoice or plan rolls the transaction back and is
// marked skipped, not failed: it will never succeed on retry, and it must
// not leave partial state behind.
func (r *Reconciler) Process(ctx context.Context, id uuid.UUID) error {
	var rec models.WebhookEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return err
	}
	if rec.Status == models.WebhookProcessed || rec.Status == models.WebhookSkipped {
		return nil
	}

	ev, err := gateway.ParseEvent(rec.Payload)
	if err != nil {
		return r.skip(ctx, &rec, err)
	}
	invoiceNumber, schoolID, err := gateway.SplitTxRef(ev.Data.TxRef)
	if err != nil {
		return r.skip(ctx, &rec, err)
	}

	status := models.InvoiceUnpaid
	if ev.Data.Successful() {
		status = models.InvoicePaid
	}

	txErr := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.invoices.MarkStatusByNumber(tx, invoiceNumber, status); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: invoice %s: %v", errEventSkipped, invoiceNumber, err)
			}
			return err
		}
		if ev.Data.Successful() && ev.Data.PaymentPlan != 0 && r.plans != nil {
			if err := r.renewSubscription(ctx, tx, ev, schoolID); err != nil {
				return err
			}
		}
		now := time.Now()
		return tx.Model(&rec).Updates(map[string]any{
			"status":       models.WebhookProcessed,
			"try_count":    gorm.Expr("try_count + 1"),
			"processed_at": &now,
			"error":        "",
		}).Error
	})
	if errors.Is(txErr, errEventSkipped) {
		return r.skip(ctx, &rec, txErr)
	}
	return txErr
}

// renewSubscription maps the gateway payment plan to a local plan by name
// and flips the school's subscription to paid until the next due date.
func (r *Reconciler) renewSubscription(ctx context.Context, tx *gorm.DB, ev *gateway.Event, schoolID uint) error {
	info, err := r.plans.Plan(ctx, ev.Data.PaymentPlan)
	if err != nil {
		return err
	}
	var plan models.Plan
	err = tx.Where("name = ?", info.Name).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: no local plan named %q", errEventSkipped, info.Name)
	}
	if err != nil {
		return err
	}
	endDate := ev.Data.NextDue()
	if endDate.IsZero() {
		endDate = time.Now().AddDate(0, 1, 0)
	}
	return r.subs.MarkPaidIn(tx, schoolID, plan.ID, endDate, time.Now())
}

func (r *Reconciler) skip(ctx context.Context, rec *models.WebhookEvent, cause error) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(rec).Updates(map[string]any{
		"status":       models.WebhookSkipped,
		"try_count":    gorm.Expr("try_count + 1"),
		"processed_at": &now,
		"error":        cause.Error(),
	}).Error
}
