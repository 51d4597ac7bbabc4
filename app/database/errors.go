package database

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNoBillingRecords is returned by ApplyPayment when the student has
	// no active enrollment for the year, so there is nothing to allocate
	// the payment to.
	ErrNoBillingRecords = errors.New("no billing records for student and year")

	// ErrDuplicateEnrollment is returned when a write would leave more
	// than one active enrollment for the same (student, year, period).
	ErrDuplicateEnrollment = errors.New("active enrollment already exists")

	// ErrUnknownPeriod is returned when a period label cannot be mapped
	// to a period kind.
	ErrUnknownPeriod = errors.New("unknown period label")
)

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
