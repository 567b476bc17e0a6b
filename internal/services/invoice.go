package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kaino/kaino-api/internal/models"
)

// InvoiceService is the line-item engine. Amounts are always computed
// server-side from the referenced plan's price; a client-supplied amount or
// price is never persisted.
type InvoiceService struct {
	db *gorm.DB
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db}
}

// ItemInput is one requested line. Price is looked up from the plan.
type ItemInput struct {
	PlanID       uint
	CategoryName string
	Quantity     int
	Discount     int // percent, 0..100
}

// InvoiceInput carries the header fields shared by create and update.
type InvoiceInput struct {
	SchoolID      uint
	InvoiceNumber string // generated when empty
	InvoiceFrom   string
	InvoiceTo     string
	PONumber      int
	DueDate       time.Time
	IsDraft       bool
	Items         []ItemInput
}

// GenerateInvoiceNumber builds "IN" + 12 digits from a random UUID.
func GenerateInvoiceNumber() string {
	id := uuid.New()
	n := new(big.Int).SetBytes(id[:])
	mod := new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil)
	return fmt.Sprintf("IN%012d", n.Mod(n, mod))
}

// LineAmount computes one line:
// discount_amount = price*quantity*discount/100, amount = price*quantity - discount_amount.
// The result is rounded to 2 decimal places.
func LineAmount(price decimal.Decimal, quantity, discount int) decimal.Decimal {
	gross := price.Mul(decimal.NewFromInt(int64(quantity)))
	discountAmount := gross.Mul(decimal.NewFromInt(int64(discount))).Div(decimal.NewFromInt(100))
	return gross.Sub(discountAmount).Round(2)
}

// buildItems resolves plans for authoritative prices and computes amounts.
func (s *InvoiceService) buildItems(tx *gorm.DB, invoiceID uint, inputs []ItemInput) ([]models.Item, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one item required", ErrValidation)
	}
	planIDs := make([]uint, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		if in.Discount < 0 || in.Discount > 100 {
			return nil, fmt.Errorf("%w: discount must be within 0..100", ErrValidation)
		}
		planIDs = append(planIDs, in.PlanID)
	}
	var plans []models.Plan
	if err := tx.Where("id IN ?", planIDs).Find(&plans).Error; err != nil {
		return nil, err
	}
	planByID := make(map[uint]models.Plan, len(plans))
	for _, p := range plans {
		planByID[p.ID] = p
	}
	items := make([]models.Item, 0, len(inputs))
	for _, in := range inputs {
		plan, ok := planByID[in.PlanID]
		if !ok {
			return nil, fmt.Errorf("plan %d: %w", in.PlanID, ErrNotFound)
		}
		items = append(items, models.Item{
			InvoiceID:    invoiceID,
			PlanID:       plan.ID,
			CategoryName: in.CategoryName,
			Quantity:     in.Quantity,
			Price:        plan.Price,
			Discount:     in.Discount,
			Amount:       LineAmount(plan.Price, in.Quantity, in.Discount),
		})
	}
	return items, nil
}

// Create inserts an invoice with its computed items. The call is
// get-or-create keyed on invoice_number: a collision aborts with
// ErrDuplicateInvoiceNumber and no partial write.
func (s *InvoiceService) Create(ctx context.Context, in InvoiceInput) (*models.Invoice, error) {
	number := in.InvoiceNumber
	if number == "" {
		number = GenerateInvoiceNumber()
	}
	status := models.InvoiceUnpaid
	if in.IsDraft {
		status = models.InvoiceDraft
	}
	var created models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Invoice{}).Where("invoice_number = ?", number).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("invoice %s: %w", number, ErrDuplicateInvoiceNumber)
		}
		created = models.Invoice{
			SchoolID:      in.SchoolID,
			InvoiceNumber: number,
			Status:        status,
			InvoiceFrom:   in.InvoiceFrom,
			InvoiceTo:     in.InvoiceTo,
			PONumber:      in.PONumber,
			StartDate:     time.Now(),
			DueDate:       in.DueDate,
		}
		if err := tx.Create(&created).Error; err != nil {
			// unique constraint backstop for concurrent creates
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("invoice %s: %w", number, ErrDuplicateInvoiceNumber)
			}
			return err
		}
		items, err := s.buildItems(tx, created.ID, in.Items)
		if err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		created.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update upserts the header fields, then replaces ALL items with the new
// set in the same transaction: delete-all plus bulk insert, so no reader
// ever observes an invoice with zero items.
func (s *InvoiceService) Update(ctx context.Context, invoiceNumber string, in InvoiceInput) (*models.Invoice, error) {
	var updated models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		err := tx.Where("invoice_number = ?", invoiceNumber).First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("invoice %s: %w", invoiceNumber, ErrNotFound)
		}
		if err != nil {
			return err
		}
		inv.InvoiceFrom = in.InvoiceFrom
		inv.InvoiceTo = in.InvoiceTo
		inv.PONumber = in.PONumber
		if !in.DueDate.IsZero() {
			inv.DueDate = in.DueDate
		}
		if in.IsDraft {
			inv.Status = models.InvoiceDraft
		}
		if err := tx.Save(&inv).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		items, err := s.buildItems(tx, inv.ID, in.Items)
		if err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		inv.Items = items
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Get returns one invoice with items by number.
func (s *InvoiceService) Get(ctx context.Context, invoiceNumber string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).Preload("Items").Where("invoice_number = ?", invoiceNumber).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invoice %s: %w", invoiceNumber, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// List returns invoices newest first, optionally filtered by status.
func (s *InvoiceService) List(ctx context.Context, status models.InvoiceStatus, limit, offset int) ([]models.Invoice, int64, error) {
	dbq := s.db.WithContext(ctx).Model(&models.Invoice{})
	if status != 0 {
		dbq = dbq.Where("status = ?", status)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var invs []models.Invoice
	if err := dbq.Preload("Items").Order("id desc").Limit(limit).Offset(offset).Find(&invs).Error; err != nil {
		return nil, 0, err
	}
	return invs, total, nil
}

// Delete removes an invoice; items go with it (cascade).
func (s *InvoiceService) Delete(ctx context.Context, invoiceNumber string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		err := tx.Where("invoice_number = ?", invoiceNumber).First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("invoice %s: %w", invoiceNumber, ErrNotFound)
		}
		if err != nil {
			return err
		}
		// explicit item delete keeps sqlite tests honest where FK
		// cascades are off by default
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		return tx.Delete(&inv).Error
	})
}

// MarkStatusByNumber sets the status of one invoice on the given handle.
// Used by the webhook reconciler inside its transaction.
func (s *InvoiceService) MarkStatusByNumber(tx *gorm.DB, invoiceNumber string, status models.InvoiceStatus) error {
	res := tx.Model(&models.Invoice{}).Where("invoice_number = ?", invoiceNumber).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("invoice %s: %w", invoiceNumber, ErrNotFound)
	}
	return nil
}

// SumByStatus totals item amounts across invoices in the given statuses.
// A null sum (no matching rows) is zero, not an error.
func (s *InvoiceService) SumByStatus(ctx context.Context, statuses ...models.InvoiceStatus) (decimal.Decimal, error) {
	dbq := s.db.WithContext(ctx).Model(&models.Item{}).
		Joins("JOIN invoices ON invoices.id = items.invoice_id").
		Select("COALESCE(SUM(items.amount), 0)")
	if len(statuses) > 0 {
		dbq = dbq.Where("invoices.status IN ?", statuses)
	}
	var raw string
	if err := dbq.Row().Scan(&raw); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

// TotalAmount sums all item amounts regardless of invoice status.
func (s *InvoiceService) TotalAmount(ctx context.Context) (decimal.Decimal, error) {
	return s.SumByStatus(ctx)
}

// PaidAmount sums item amounts on paid invoices.
func (s *InvoiceService) PaidAmount(ctx context.Context) (decimal.Decimal, error) {
	return s.SumByStatus(ctx, models.InvoicePaid)
}

// UnpaidAmount sums item amounts on unpaid and due invoices.
func (s *InvoiceService) UnpaidAmount(ctx context.Context) (decimal.Decimal, error) {
	return s.SumByStatus(ctx, models.InvoiceUnpaid, models.InvoiceDue)
}

// OverdueAmount sums item amounts on overdue invoices.
func (s *InvoiceService) OverdueAmount(ctx context.Context) (decimal.Decimal, error) {
	return s.SumByStatus(ctx, models.InvoiceOverdue)
}
