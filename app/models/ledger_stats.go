package models

import "github.com/shopspring/decimal"

// LedgerStats summarizes the billing ledger for the admin dashboard.
type LedgerStats struct {
	TotalStudents     int             `json:"total_students"`
	ActiveEnrollments int             `json:"active_enrollments"`
	BillingRecords    int             `json:"billing_records"`
	OverdueRecords    int             `json:"overdue_records"`
	TotalBilled       decimal.Decimal `json:"total_billed"`
	TotalCollected    decimal.Decimal `json:"total_collected"`
	TotalOutstanding  decimal.Decimal `json:"total_outstanding"`
	CollectionRate    float64         `json:"collection_rate"`
}
