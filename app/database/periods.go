package database

import (
	"database/sql"
	"fmt"

	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// defaultMarkerAmount is the placeholder magnitude written to the legacy
// marker column of a freshly created period. Its position, not its value,
// is what identifies the period to the legacy importer.
const defaultMarkerAmount = "1"

// ResolvePeriod returns the id of a period row for the given label,
// creating one when none exists. Idempotent: concurrent callers requesting
// the same label converge on the same or an equivalent row.
func (l *Ledger) ResolvePeriod(label string) (string, error) {
	kind, ok := models.ParsePeriodLabel(label)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, label)
	}

	var id string
	err := l.runDualPath("resolve_period",
		func() error {
			return l.db.QueryRow(`SELECT sp_resolve_period($1)`, string(kind)).Scan(&id)
		},
		func() error {
			var err error
			id, err = l.resolvePeriodKind(kind)
			return err
		},
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (l *Ledger) resolvePeriodKind(kind models.PeriodKind) (string, error) {
	var id string
	err := l.db.QueryRow(
		`SELECT id FROM periods WHERE kind = $1 ORDER BY created_at ASC LIMIT 1`,
		string(kind),
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up period: %w", err)
	}

	first, second, summer := "0", "0", "0"
	nominal := "0"
	switch kind {
	case models.PeriodFirst:
		first, nominal = defaultMarkerAmount, defaultMarkerAmount
	case models.PeriodSecond:
		second, nominal = defaultMarkerAmount, defaultMarkerAmount
	case models.PeriodSummer:
		summer, nominal = defaultMarkerAmount, defaultMarkerAmount
	}

	err = l.db.QueryRow(
		`INSERT INTO periods (kind, nominal_amount, first_marker, second_marker, summer_marker)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		string(kind), nominal, first, second, summer,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create period: %w", err)
	}

	l.log.Info("created period", zap.String("kind", string(kind)), zap.String("id", id))
	return id, nil
}

// PeriodLabel returns the display label of a period. Rows predating the
// kind column are classified by their legacy marker shape; an ambiguous
// shape yields the empty label, which callers must treat as
// "unclassified", never as an error.
func (l *Ledger) PeriodLabel(periodID string) (string, error) {
	var (
		kind                  string
		first, second, summer decimal.Decimal
	)
	err := l.db.QueryRow(
		`SELECT kind, first_marker, second_marker, summer_marker FROM periods WHERE id = $1`,
		periodID,
	).Scan(&kind, &first, &second, &summer)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up period: %w", err)
	}

	if label := models.PeriodKindLabel(models.PeriodKind(kind)); label != "" {
		return label, nil
	}

	shaped, ok := models.ClassifyMarkers(first, second, summer)
	if !ok {
		return "", nil
	}
	return models.PeriodKindLabel(shaped), nil
}
