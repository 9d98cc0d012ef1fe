package cli

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFormatCurrencyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("round-trips through parse", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatCurrency(amount)
			cleaned := strings.NewReplacer("$", "", ",", "").Replace(formatted)
			parsed, err := strconv.ParseFloat(cleaned, 64)
			if err != nil {
				return false
			}
			return math.Abs(parsed-amount) < 0.005+math.Abs(amount)*1e-12
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("always two decimal places", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatCurrency(amount)
			dot := strings.LastIndex(formatted, ".")
			return dot >= 0 && len(formatted)-dot-1 == 2
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("groups digits in threes", prop.ForAll(
		func(amount int64) bool {
			formatted := FormatCurrency(float64(amount))
			intPart := formatted[:strings.LastIndex(formatted, ".")]
			intPart = strings.TrimPrefix(intPart, "-")
			intPart = strings.TrimPrefix(intPart, "$")
			for i, group := range strings.Split(intPart, ",") {
				if i == 0 {
					if len(group) < 1 || len(group) > 3 {
						return false
					}
				} else if len(group) != 3 {
					return false
				}
			}
			return true
		},
		gen.Int64Range(-1e12, 1e12),
	))

	properties.TestingRun(t)
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "$0.00"},
		{1234.5, "$1,234.50"},
		{1234567.89, "$1,234,567.89"},
		{-9876.54, "-$9,876.54"},
		{999, "$999.00"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.amount); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{6.32, "+6.32%"},
		{-3.1, "-3.10%"},
		{0, "0.00%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.value); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatPnL(t *testing.T) {
	if got := FormatPnL(632); got != "+$632.00" {
		t.Errorf("FormatPnL(632) = %q", got)
	}
	if got := FormatPnL(-45.5); got != "-$45.50" {
		t.Errorf("FormatPnL(-45.5) = %q", got)
	}
}

func TestFormatShares(t *testing.T) {
	if got := FormatShares(158); got != "158" {
		t.Errorf("FormatShares(158) = %q", got)
	}
	if got := FormatShares(12500); got != "12,500" {
		t.Errorf("FormatShares(12500) = %q", got)
	}
}
