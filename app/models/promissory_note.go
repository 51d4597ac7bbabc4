package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PromissoryNote is an immutable snapshot taken when a guardian commits to
// settling an outstanding balance by an extended date. The balance
// snapshot is stored encrypted; BalanceSnapshot is only populated on reads
// that could decrypt it.
type PromissoryNote struct {
	ID              string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Reference       string          `json:"reference" gorm:"uniqueIndex;not null"`
	StudentID       string          `json:"student_id" gorm:"not null;index;type:uuid"`
	ExtendedDueDate CustomTime      `json:"extended_due_date" gorm:"not null;type:date"`
	BalanceSnapshot decimal.Decimal `json:"balance_snapshot" gorm:"-"`
	Body            string          `json:"body" gorm:"not null"`
	CreatedAt       time.Time       `json:"created_at" gorm:"default:now()"`

	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID;references:ID"`
}

// BalanceLine is one (year, period) slice of a student's outstanding
// balance.
type BalanceLine struct {
	AcademicYearLabel string          `json:"academic_year"`
	PeriodLabel       string          `json:"period"`
	Amount            decimal.Decimal `json:"amount"`
}

// NoticeCandidate is a billing record selected for promissory notice
// generation: overdue, not fully paid, with an outstanding aggregate
// balance for the year.
type NoticeCandidate struct {
	BillingRecordID  string          `json:"billing_record_id"`
	StudentID        string          `json:"student_id"`
	StudentName      string          `json:"student_name"`
	BilledAmount     decimal.Decimal `json:"billed_amount"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	YearOutstanding  decimal.Decimal `json:"year_outstanding"`
	Status           PaymentStatus   `json:"status"`
	DueDate          time.Time       `json:"due_date"`
}
