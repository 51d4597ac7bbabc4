package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period represents one billing period of an academic year.
//
// The kind column is authoritative. The three marker columns are kept only
// to import rows written by the legacy system, which encoded the period's
// identity by which single marker held a positive amount; ClassifyMarkers
// is the compatibility shim that recovers the kind from that shape.
type Period struct {
	ID            string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Kind          PeriodKind      `json:"kind" gorm:"not null;index;type:varchar(20)"`
	NominalAmount decimal.Decimal `json:"nominal_amount" gorm:"type:numeric"`
	FirstMarker   decimal.Decimal `json:"first_marker" gorm:"type:numeric;default:0"`
	SecondMarker  decimal.Decimal `json:"second_marker" gorm:"type:numeric;default:0"`
	SummerMarker  decimal.Decimal `json:"summer_marker" gorm:"type:numeric;default:0"`
	CreatedAt     time.Time       `json:"created_at" gorm:"default:now()"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"default:now()"`
}

// Label returns the display label for the period.
func (p *Period) Label() string {
	return PeriodKindLabel(p.Kind)
}

// PeriodKindLabel maps a kind to its display label. Unknown kinds map to
// the empty string, which callers must treat as "unclassified".
func PeriodKindLabel(kind PeriodKind) string {
	switch kind {
	case PeriodFirst:
		return "First"
	case PeriodSecond:
		return "Second"
	case PeriodSummer:
		return "Summer"
	case PeriodUnspecified:
		return "None"
	}
	return ""
}

// ParsePeriodLabel maps a display label back to a kind. The empty label and
// "None" both resolve to the unspecified sentinel.
func ParsePeriodLabel(label string) (PeriodKind, bool) {
	switch label {
	case "First":
		return PeriodFirst, true
	case "Second":
		return PeriodSecond, true
	case "Summer":
		return PeriodSummer, true
	case "None", "":
		return PeriodUnspecified, true
	}
	return PeriodUnspecified, false
}

// ClassifyMarkers recovers a period kind from the legacy marker shape.
// Exactly one positive marker identifies the period by position. All three
// zero is the valid "unspecified period" sentinel. Any other shape is
// ambiguous: the second return value is false and callers must treat the
// row as unclassified, never as an error.
func ClassifyMarkers(first, second, summer decimal.Decimal) (PeriodKind, bool) {
	positive := 0
	kind := PeriodUnspecified
	if first.IsPositive() {
		positive++
		kind = PeriodFirst
	}
	if second.IsPositive() {
		positive++
		kind = PeriodSecond
	}
	if summer.IsPositive() {
		positive++
		kind = PeriodSummer
	}
	switch positive {
	case 0:
		return PeriodUnspecified, true
	case 1:
		return kind, true
	}
	return PeriodUnspecified, false
}
