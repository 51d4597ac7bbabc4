package models

import "github.com/shopspring/decimal"

// AllocationShare is the outcome of distributing a cumulative paid amount
// over one billing record.
type AllocationShare struct {
	Paid      decimal.Decimal
	Remaining decimal.Decimal
	Status    PaymentStatus
}

// AllocateProportional distributes a single cumulative paid amount across
// billing records weighted by each record's billed amount. The cumulative
// amount is capped at the total billed first, so paid never exceeds
// billed in aggregate. When the total billed is zero the amount is split
// equally instead; a zero-billed record otherwise receives nothing.
//
// The weights are frozen at the moment of allocation, which makes the
// function idempotent: allocating the same cumulative amount twice yields
// identical shares.
func AllocateProportional(billed []decimal.Decimal, cumulative decimal.Decimal) []AllocationShare {
	if len(billed) == 0 {
		return nil
	}

	total := decimal.Zero
	for _, b := range billed {
		total = total.Add(b)
	}
	if cumulative.GreaterThan(total) {
		cumulative = total
	}
	if cumulative.IsNegative() {
		cumulative = decimal.Zero
	}

	shares := make([]AllocationShare, len(billed))
	for i, b := range billed {
		var paid decimal.Decimal
		if total.IsZero() {
			paid = cumulative.Div(decimal.NewFromInt(int64(len(billed))))
		} else {
			paid = b.Div(total).Mul(cumulative)
		}

		remaining := b.Sub(paid)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}

		shares[i] = AllocationShare{
			Paid:      paid,
			Remaining: remaining,
			Status:    DeriveStatus(paid, b),
		}
	}
	return shares
}
