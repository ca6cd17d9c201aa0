package utils

import (
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFormatter() *Formatter {
	return NewFormatter("en-US", "$")
}

func TestFormatter_FormatPrice(t *testing.T) {
	f := newTestFormatter()

	assert.Equal(t, "$0.00", f.FormatPrice(decimal.Zero))
	assert.Equal(t, "$12.50", f.FormatPrice(decimal.RequireFromString("12.5")))
	assert.Equal(t, "$1,234.56", f.FormatPrice(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "$59.97", f.FormatPrice(decimal.RequireFromString("59.97")))
}

func TestFormatter_FormatPrice_Monotonic(t *testing.T) {
	f := newTestFormatter()
	prices := []string{"0", "0.99", "1", "9.99", "10", "99.5", "100", "1234.56", "10000"}

	parse := func(s string) float64 {
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		v, err := strconv.ParseFloat(s, 64)
		require.NoError(t, err)
		return v
	}

	prev := -1.0
	for _, p := range prices {
		got := parse(f.FormatPrice(decimal.RequireFromString(p)))
		assert.Greater(t, got, prev, "price %s", p)
		prev = got
	}
}

func TestFormatter_FormatDate(t *testing.T) {
	f := newTestFormatter()

	assert.Equal(t, "March 1, 2025", f.FormatDate("2025-03-01"))
	assert.Equal(t, "December 31, 2024", f.FormatDate("2024-12-31"))
	assert.Equal(t, "not a date", f.FormatDate("not a date"))
}

func TestFormatter_FormatTime(t *testing.T) {
	f := newTestFormatter()

	assert.Equal(t, "6:30 PM", f.FormatTime("18:30"))
	assert.Equal(t, "9:05 AM", f.FormatTime("09:05"))
	assert.Equal(t, "12:00 PM", f.FormatTime("12:00:00"))
	assert.Equal(t, "soon", f.FormatTime("soon"))
}

func TestNewFormatter_BadLocaleFallsBack(t *testing.T) {
	f := NewFormatter("!!", "$")
	assert.Equal(t, "$1,000.00", f.FormatPrice(decimal.NewFromInt(1000)))
}
