package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sijujiampugi-arch/SpendWise/money"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateSplitsConcreteScenario(t *testing.T) {
	splits, err := CalculateSplits(dec("300"), "a@x", []SplitInput{
		{Email: "a@x", Percentage: dec("60")},
		{Email: "b@x", Percentage: dec("40")},
	})
	require.NoError(t, err)
	require.Len(t, splits, 2)

	assert.Equal(t, "a@x", splits[0].ParticipantEmail)
	assert.True(t, splits[0].Amount.Equal(dec("180.00")))
	assert.True(t, splits[0].HasPaid)

	assert.Equal(t, "b@x", splits[1].ParticipantEmail)
	assert.True(t, splits[1].Amount.Equal(dec("120.00")))
	assert.False(t, splits[1].HasPaid)
}

func TestCalculateSplitsRejectsBadSum(t *testing.T) {
	_, err := CalculateSplits(dec("100"), "a@x", []SplitInput{
		{Email: "a@x", Percentage: dec("50")},
		{Email: "b@x", Percentage: dec("49")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSplit)

	var splitErr *InvalidSplitError
	require.True(t, errors.As(err, &splitErr))
	assert.True(t, splitErr.Sum.Equal(dec("99")), "sum was %s", splitErr.Sum)
}

func TestCalculateSplitsValidation(t *testing.T) {
	tests := []struct {
		name   string
		total  string
		payer  string
		inputs []SplitInput
		err    error
	}{
		{
			name:   "zero total",
			total:  "0",
			payer:  "a@x",
			inputs: []SplitInput{{Email: "a@x", Percentage: dec("100")}},
			err:    ErrInvalidAmount,
		},
		{
			name:   "bad payer",
			total:  "10",
			payer:  "nobody",
			inputs: []SplitInput{{Email: "a@x", Percentage: dec("100")}},
			err:    ErrInvalidSplit,
		},
		{
			name:  "no splits",
			total: "10",
			payer: "a@x",
			err:   ErrInvalidSplit,
		},
		{
			name:   "bad participant email",
			total:  "10",
			payer:  "a@x",
			inputs: []SplitInput{{Email: "b", Percentage: dec("100")}},
			err:    ErrInvalidSplit,
		},
		{
			name:   "zero percentage",
			total:  "10",
			payer:  "a@x",
			inputs: []SplitInput{{Email: "a@x", Percentage: dec("100")}, {Email: "b@x", Percentage: dec("0")}},
			err:    ErrInvalidSplit,
		},
		{
			name:   "over 100 percent",
			total:  "10",
			payer:  "a@x",
			inputs: []SplitInput{{Email: "a@x", Percentage: dec("100.5")}},
			err:    ErrInvalidSplit,
		},
		{
			name:   "duplicate participant",
			total:  "10",
			payer:  "a@x",
			inputs: []SplitInput{{Email: "a@x", Percentage: dec("50")}, {Email: "A@x", Percentage: dec("50")}},
			err:    ErrInvalidSplit,
		},
		{
			name:   "sum outside epsilon",
			total:  "10",
			payer:  "a@x",
			inputs: []SplitInput{{Email: "a@x", Percentage: dec("50")}, {Email: "b@x", Percentage: dec("50.02")}},
			err:    ErrInvalidSplit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateSplits(dec(tt.total), tt.payer, tt.inputs)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCalculateSplitsAcceptsSumWithinEpsilon(t *testing.T) {
	splits, err := CalculateSplits(dec("100"), "a@x", []SplitInput{
		{Email: "a@x", Percentage: dec("33.33")},
		{Email: "b@x", Percentage: dec("33.33")},
		{Email: "c@x", Percentage: dec("33.33")},
	})
	require.NoError(t, err)
	assert.Len(t, splits, 3)
}

func TestCalculateSplitsSumStaysWithinOneCentPerParticipant(t *testing.T) {
	cases := []struct {
		total string
		pcts  []string
	}{
		{"100", []string{"33.34", "33.33", "33.33"}},
		{"0.05", []string{"50", "50"}},
		{"19.99", []string{"12.5", "12.5", "25", "50"}},
		{"1234.57", []string{"14.29", "14.29", "14.28", "14.28", "14.29", "14.29", "14.28"}},
		{"7", []string{"100"}},
	}

	emails := []string{"a@x", "b@x", "c@x", "d@x", "e@x", "f@x", "g@x"}
	for _, c := range cases {
		inputs := make([]SplitInput, len(c.pcts))
		for i, p := range c.pcts {
			inputs[i] = SplitInput{Email: emails[i], Percentage: dec(p)}
		}
		splits, err := CalculateSplits(dec(c.total), "a@x", inputs)
		require.NoError(t, err, c.total)

		sum := decimal.Zero
		for _, s := range splits {
			sum = sum.Add(s.Amount)
		}
		tolerance := money.Epsilon.Mul(decimal.NewFromInt(int64(len(splits))))
		assert.True(t, sum.Sub(dec(c.total)).Abs().LessThanOrEqual(tolerance), "total %s summed to %s", c.total, sum)
	}
}

func TestNewEntry(t *testing.T) {
	creator := uuid.New()
	date := time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC)

	entry, err := NewEntry(creator, dec("300"), " Grocery ", "weekly shop", date, "A@X", []SplitInput{
		{Email: "a@x", Percentage: dec("60")},
		{Email: "b@x", Percentage: dec("40")},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, entry.Status)
	assert.Equal(t, "Grocery", entry.Category)
	assert.Equal(t, "a@x", entry.PaidBy)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), entry.Date)

	split, ok := entry.Participant("B@x")
	require.True(t, ok)
	assert.True(t, split.Amount.Equal(dec("120")))

	_, err = NewEntry(creator, dec("300"), "", "x", date, "a@x", nil)
	assert.ErrorIs(t, err, ErrEmptyCategory)
}
