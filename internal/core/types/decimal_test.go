package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGramsToKilos(t *testing.T) {
	cases := []struct {
		name         string
		gramsPerKilo string
		outputKg     string
		want         string
	}{
		{"typical dosage", "50", "10", "0.5"},
		{"rounds to storage scale", "33", "7", "0.23"}, // 231 g -> 0.231 kg
		{"fractional output", "12.5", "4.8", "0.06"},   // 60 g
		{"zero ratio", "0", "10", "0"},
		{"heavy dosage", "250", "100", "25"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GramsToKilos(MustQuantity(tc.gramsPerKilo), MustQuantity(tc.outputKg))
			require.True(t, got.Equal(MustQuantity(tc.want)),
				"got %s, want %s", got, tc.want)
		})
	}
}

func TestQuantityFromFloat(t *testing.T) {
	require.True(t, QuantityFromFloat(10.555).Equal(MustQuantity("10.56")))
	require.True(t, QuantityFromFloat(0.004).Equal(MustQuantity("0")))
	require.True(t, QuantityFromFloat(-3.125).Equal(MustQuantity("-3.13")))
}

func TestRoundQty(t *testing.T) {
	require.True(t, RoundQty(MustQuantity("1.005")).Equal(MustQuantity("1.01")))
	require.True(t, RoundQty(MustQuantity("1.004")).Equal(MustQuantity("1")))
}

func TestNewQuantityRejectsGarbage(t *testing.T) {
	_, err := NewQuantity("12,5")
	require.Error(t, err)

	q, err := NewQuantity("12.5")
	require.NoError(t, err)
	require.True(t, q.Equal(MustQuantity("12.5")))
}

func TestMustQuantityPanics(t *testing.T) {
	require.Panics(t, func() { MustQuantity("not a number") })
}
