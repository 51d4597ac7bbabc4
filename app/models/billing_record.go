package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// statusTolerance is the equality band for monetary comparisons: amounts
// within one cent of each other count as equal.
var statusTolerance = decimal.New(1, -2)

// BillingRecord is the billed/paid/balance ledger entry for one enrollment.
type BillingRecord struct {
	ID               string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	EnrollmentID     string          `json:"enrollment_id" gorm:"not null;index;type:uuid"`
	BilledAmount     decimal.Decimal `json:"billed_amount" gorm:"not null;type:numeric"`
	AmountPaid       decimal.Decimal `json:"amount_paid" gorm:"type:numeric;default:0"`
	RemainingBalance decimal.Decimal `json:"remaining_balance" gorm:"type:numeric;default:0"`
	Status           PaymentStatus   `json:"status" gorm:"not null;default:'unpaid';type:varchar(20)"`
	DueDate          *time.Time      `json:"due_date,omitempty" gorm:"-"`
	CreatedAt        time.Time       `json:"created_at" gorm:"default:now()"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"default:now()"`

	Enrollment *Enrollment `json:"enrollment,omitempty" gorm:"foreignKey:EnrollmentID;references:ID"`
}

// DeriveStatus is the single source of truth for payment status. A record
// is paid when the paid amount is within the cent tolerance of the billed
// amount or exceeds it, partial when some but not all of it is covered,
// and unpaid otherwise. It never returns StatusOverdue; overdue is a
// display label applied by DisplayStatus.
func DeriveStatus(paid, billed decimal.Decimal) PaymentStatus {
	if paid.Sub(billed).Abs().LessThan(statusTolerance) || paid.GreaterThanOrEqual(billed) {
		return StatusPaid
	}
	if paid.IsPositive() {
		return StatusPartial
	}
	return StatusUnpaid
}

// DerivedStatus recomputes the record's status from its amounts, ignoring
// the persisted status column.
func (b *BillingRecord) DerivedStatus() PaymentStatus {
	return DeriveStatus(b.AmountPaid, b.BilledAmount)
}

// DisplayStatus returns the status to report to callers: the derived
// status, overridden to overdue when the record is not fully paid and its
// due date has passed. The override is read-time only and is never
// persisted.
func (b *BillingRecord) DisplayStatus(now time.Time) PaymentStatus {
	status := b.DerivedStatus()
	if status != StatusPaid && b.DueDate != nil && b.DueDate.Before(now) {
		return StatusOverdue
	}
	return status
}

// Outstanding returns the unpaid remainder, floored at zero.
func (b *BillingRecord) Outstanding() decimal.Decimal {
	rem := b.BilledAmount.Sub(b.AmountPaid)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}
