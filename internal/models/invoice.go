package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus uint8

const (
	InvoicePaid      InvoiceStatus = 1
	InvoiceUnpaid    InvoiceStatus = 2
	InvoiceDue       InvoiceStatus = 3
	InvoiceOverdue   InvoiceStatus = 4
	InvoiceCancelled InvoiceStatus = 5
	InvoiceRecurring InvoiceStatus = 6
	InvoiceDraft     InvoiceStatus = 7
)

func (s InvoiceStatus) String() string {
	switch s {
	case InvoicePaid:
		return "paid"
	case InvoiceUnpaid:
		return "unpaid"
	case InvoiceDue:
		return "due"
	case InvoiceOverdue:
		return "overdue"
	case InvoiceCancelled:
		return "cancelled"
	case InvoiceRecurring:
		return "recurring"
	case InvoiceDraft:
		return "draft"
	}
	return "unknown"
}

// ParseInvoiceStatus maps the string form used in query filters back to the
// stored value. Returns 0 for unknown input.
func ParseInvoiceStatus(s string) InvoiceStatus {
	for st := InvoicePaid; st <= InvoiceDraft; st++ {
		if st.String() == s {
			return st
		}
	}
	return 0
}

// Invoice is a billable document for a school. The unique constraint on
// invoice_number is the concurrency guard against duplicate creation races.
type Invoice struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	SchoolID      uint          `gorm:"not null;index" json:"school_id"`
	School        School        `gorm:"foreignKey:SchoolID;constraint:OnDelete:CASCADE" json:"-"`
	InvoiceNumber string        `gorm:"uniqueIndex;not null;size:20" json:"invoice_number"`
	Status        InvoiceStatus `gorm:"not null;default:2" json:"status"`
	InvoiceFrom   string        `gorm:"size:500" json:"invoice_from"`
	InvoiceTo     string        `gorm:"size:500" json:"invoice_to"`
	PONumber      int           `json:"po_number"`
	StartDate     time.Time     `json:"start_date"`
	DueDate       time.Time     `json:"due_date"`

	Items []Item `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is one billable line. Price is resolved from the referenced plan on
// the server, never taken from the client, and Amount is always recomputed:
// amount = price*quantity - price*quantity*discount/100.
type Item struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	InvoiceID    uint            `gorm:"not null;index" json:"invoice_id"`
	PlanID       uint            `gorm:"not null" json:"plan_id"`
	Plan         Plan            `gorm:"foreignKey:PlanID" json:"-"`
	CategoryName string          `gorm:"size:500" json:"category_name"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Discount     int             `gorm:"not null;default:0" json:"discount"` // percent, 0..100
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt    time.Time       `json:"-"`
}
