package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateProportional_TwoRecords(t *testing.T) {
	billed := []decimal.Decimal{d("3000"), d("2000")}

	shares := AllocateProportional(billed, d("4000"))
	require.Len(t, shares, 2)

	assert.True(t, shares[0].Paid.Equal(d("2400")), "got %s", shares[0].Paid)
	assert.True(t, shares[1].Paid.Equal(d("1600")), "got %s", shares[1].Paid)
	assert.True(t, shares[0].Remaining.Equal(d("600")))
	assert.True(t, shares[1].Remaining.Equal(d("400")))
	assert.Equal(t, StatusPartial, shares[0].Status)
	assert.Equal(t, StatusPartial, shares[1].Status)
}

func TestAllocateProportional_CapsAtTotalBilled(t *testing.T) {
	billed := []decimal.Decimal{d("3000"), d("2000")}

	shares := AllocateProportional(billed, d("9000"))
	require.Len(t, shares, 2)

	assert.True(t, shares[0].Paid.Equal(d("3000")))
	assert.True(t, shares[1].Paid.Equal(d("2000")))
	assert.Equal(t, StatusPaid, shares[0].Status)
	assert.Equal(t, StatusPaid, shares[1].Status)
	assert.True(t, shares[0].Remaining.IsZero())
	assert.True(t, shares[1].Remaining.IsZero())
}

func TestAllocateProportional_ZeroTotalSplitsEqually(t *testing.T) {
	billed := []decimal.Decimal{decimal.Zero, decimal.Zero, decimal.Zero}

	shares := AllocateProportional(billed, d("900"))
	require.Len(t, shares, 3)
	for _, s := range shares {
		// Cap at total billed (zero) applies before the split.
		assert.True(t, s.Paid.IsZero())
	}
}

func TestAllocateProportional_ZeroBilledRecordGetsNothing(t *testing.T) {
	billed := []decimal.Decimal{d("1000"), decimal.Zero}

	shares := AllocateProportional(billed, d("500"))
	require.Len(t, shares, 2)
	assert.True(t, shares[0].Paid.Equal(d("500")))
	assert.True(t, shares[1].Paid.IsZero())
}

func TestAllocateProportional_Idempotent(t *testing.T) {
	billed := []decimal.Decimal{d("1234.56"), d("789.10"), d("42")}

	first := AllocateProportional(billed, d("1500"))
	second := AllocateProportional(billed, d("1500"))

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.True(t, first[i].Paid.Equal(second[i].Paid))
		assert.True(t, first[i].Remaining.Equal(second[i].Remaining))
		assert.Equal(t, first[i].Status, second[i].Status)
	}
}

func TestAllocateProportional_SumInvariant(t *testing.T) {
	tolerance := d("0.01")
	cases := []struct {
		billed []decimal.Decimal
		paid   string
	}{
		{[]decimal.Decimal{d("3000"), d("2000")}, "4000"},
		{[]decimal.Decimal{d("3000"), d("2000")}, "5000"},
		{[]decimal.Decimal{d("100"), d("200"), d("300")}, "33.33"},
		{[]decimal.Decimal{d("0.03"), d("0.07")}, "0.05"},
		{[]decimal.Decimal{d("999999.99")}, "123456.78"},
	}

	for _, tc := range cases {
		shares := AllocateProportional(tc.billed, d(tc.paid))

		total := decimal.Zero
		sumPaid := decimal.Zero
		for i, s := range shares {
			total = total.Add(tc.billed[i])
			sumPaid = sumPaid.Add(s.Paid)
		}

		expect := d(tc.paid)
		if expect.GreaterThan(total) {
			expect = total
		}
		assert.True(t, sumPaid.Sub(expect).Abs().LessThan(tolerance),
			"billed=%v paid=%s: allocated %s, want %s", tc.billed, tc.paid, sumPaid, expect)
	}
}

func TestAllocateProportional_NoRecords(t *testing.T) {
	assert.Nil(t, AllocateProportional(nil, d("100")))
}
