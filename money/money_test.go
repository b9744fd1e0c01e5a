package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCentsRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("150.755")
	assert.Equal(t, int64(15076), Cents(d))
	assert.True(t, FromCents(15076).Equal(decimal.RequireFromString("150.76")))
	assert.Equal(t, int64(-1), Cents(decimal.RequireFromString("-0.005")))
}

func TestPercent(t *testing.T) {
	total := decimal.NewFromInt(300)
	assert.True(t, Percent(total, decimal.NewFromInt(60)).Equal(decimal.NewFromInt(180)))
	assert.True(t, Percent(decimal.NewFromInt(100), decimal.RequireFromString("33.333")).Equal(decimal.RequireFromString("33.33")))
}
