package database

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// gracePeriod is the offset added to today when a billing save refreshes
// a due date.
const gracePeriod = 2 // months

// AmountCipher decrypts balance snapshots stored by the promissory note
// workflow. Implementations live outside this package; readers treat
// decryption as fallible and skip values that cannot be recovered.
type AmountCipher interface {
	EncryptAmount(amount decimal.Decimal, studentID string) (string, error)
	DecryptAmount(value string, studentID string) (decimal.Decimal, error)
}

// Ledger bundles the handles shared by the billing operations: the
// relational store, the structured logger and the snapshot cipher.
type Ledger struct {
	db     *sql.DB
	log    *zap.Logger
	cipher AmountCipher
}

// NewLedger builds a Ledger. A nil logger is replaced with a no-op one.
func NewLedger(db *sql.DB, log *zap.Logger, cipher AmountCipher) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{db: db, log: log, cipher: cipher}
}

// runDualPath executes an operation by first attempting its server-side
// procedure implementation and, on any error, falling back to the
// equivalent direct-transaction implementation. The procedure failure is
// logged as a warning and never surfaces to the caller; both paths have
// an identical observable contract.
func (l *Ledger) runDualPath(op string, procedure, direct func() error) error {
	if err := procedure(); err != nil {
		l.log.Warn("procedure path failed, falling back to direct query",
			zap.String("operation", op),
			zap.Error(err))
		return direct()
	}
	return nil
}

// graceDueDate returns the due date applied to a freshly (re)saved unpaid
// billing amount.
func graceDueDate(now time.Time) time.Time {
	return now.AddDate(0, gracePeriod, 0)
}
