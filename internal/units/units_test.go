package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConverterClampsInput(t *testing.T) {
	t.Parallel()

	c := NewConverter(Ounce)
	assert.Equal(t, 0.0, c.ToBase(-4))
	assert.Equal(t, 0.0, c.ToBase(math.NaN()))
	assert.Equal(t, 0.0, c.ToBase(math.Inf(1)))
	assert.Equal(t, 0.0, c.FromBase(-1))
	assert.InDelta(t, 28.3495, c.ToBase(1), 0.0001)
	assert.InDelta(t, 1.0, c.FromBase(28.349523125), 1e-9)
}

func TestUnknownUnitFallsBackToGrams(t *testing.T) {
	t.Parallel()

	c := NewConverter(Unit("stone"))
	assert.Equal(t, Gram, c.Unit())
	assert.Equal(t, 12.5, c.ToBase(12.5))
	assert.Equal(t, Gram, Normalize("bogus"))
	assert.Equal(t, Pound, Normalize(" LBS "))
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want float64
	}{
		{"1,234.5", 1234.5},
		{"  42 ", 42},
		{"12,5", 125},
		{"abc", 0},
		{"", 0},
		{"NaN", 0},
		{"-Inf", 0},
		{"1 000", 1000},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseNumber(tt.raw))
		})
	}
}

func TestParseOptionalDistinguishesBlankFromZero(t *testing.T) {
	t.Parallel()

	_, set := ParseOptional("   ")
	assert.False(t, set)

	v, set := ParseOptional("0")
	assert.True(t, set)
	assert.Equal(t, 0.0, v)

	v, set = ParseOptional("garbage")
	assert.True(t, set)
	assert.Equal(t, 0.0, v)
}

func TestUnitSwitchRoundTrip(t *testing.T) {
	t.Parallel()

	for _, grams := range []float64{0.01, 1, 28.35, 453.6, 1234.56, 99999.99} {
		oz := Rescale(grams, Gram, Ounce)
		back := Rescale(oz, Ounce, Gram)
		assert.InDelta(t, grams, back, 0.01)

	}
}

func TestDisplayedWeightsConvertBackToGrams(t *testing.T) {
	t.Parallel()

	for _, u := range []Unit{Kilogram, Ounce, Pound} {
		for _, grams := range []float64{0.01, 1, 28.35, 453.6, 1005.4, 1234.56, 99999.99} {
			shown := ParseNumber(u.Format(Rescale(grams, Gram, u)))
			assert.InDelta(t, grams, Rescale(shown, u, Gram), 0.01, "%v g via %s", grams, u)
		}
	}
}

func TestUnitFormatPrecision(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, Gram.Places())
	assert.Equal(t, 4, Ounce.Places())
	assert.Equal(t, 5, Kilogram.Places())
	assert.Equal(t, 5, Pound.Places())

	assert.Equal(t, "1234.50", Gram.Format(1234.5))
	assert.Equal(t, "1.2345", Kilogram.Format(1.2345))
	assert.Equal(t, "1.50", Kilogram.Format(1.5))
	assert.Equal(t, "1.0054", Kilogram.Format(1.0054))
	assert.Equal(t, "17.637", Ounce.Format(Rescale(500, Gram, Ounce)))
	assert.Equal(t, "1.0054", NewConverter(Kilogram).Display(1005.4))
}

func TestRoundAndFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2.35, Round(2.345, 2))
	assert.Equal(t, -2.35, Round(-2.345, 2))
	assert.Equal(t, 0.0, Round(math.NaN(), 2))
	assert.Equal(t, "700.00", Format(700, 2))
	assert.Equal(t, "33.33", Format(100.0/3, 2))
	assert.Equal(t, "1.00 oz", NewConverter(Ounce).FormatWeight(28.349523125))
}
