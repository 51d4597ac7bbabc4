package models

// PaymentStatus defines the payment state of a billing record.
// Persisted values are a cache only; DeriveStatus recomputes the
// authoritative value from the amounts on every read path.
type PaymentStatus string

const (
	StatusUnpaid  PaymentStatus = "unpaid"
	StatusPartial PaymentStatus = "partial"
	StatusPaid    PaymentStatus = "paid"
	// StatusOverdue is a read-time label only. It is never written to
	// the store; see BillingRecord.DisplayStatus.
	StatusOverdue PaymentStatus = "overdue"
)

// EnrollmentStatus defines the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentActive      EnrollmentStatus = "active"
	EnrollmentDeactivated EnrollmentStatus = "deactivated"
)

// PeriodKind identifies which part of the academic year a period covers.
type PeriodKind string

const (
	PeriodFirst       PeriodKind = "first"
	PeriodSecond      PeriodKind = "second"
	PeriodSummer      PeriodKind = "summer"
	PeriodUnspecified PeriodKind = "unspecified"
)
