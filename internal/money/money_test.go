package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestVESToUSD(t *testing.T) {
	usd, err := VESToUSD(dec("2000"), dec("40"))
	require.NoError(t, err)
	assert.True(t, usd.Equal(dec("50")), "got %s", usd)
}

func TestVESToUSDRedondea(t *testing.T) {
	// 1000 / 36.5 = 27.397… → 27.40
	usd, err := VESToUSD(dec("1000"), dec("36.5"))
	require.NoError(t, err)
	assert.True(t, usd.Equal(dec("27.40")), "got %s", usd)
}

func TestVESToUSDTasaInvalida(t *testing.T) {
	_, err := VESToUSD(dec("100"), decimal.Zero)
	assert.ErrorIs(t, err, ErrTasaInvalida)

	_, err = VESToUSD(dec("100"), dec("-1"))
	assert.ErrorIs(t, err, ErrTasaInvalida)
}

func TestVESToUSDMontoInvalido(t *testing.T) {
	_, err := VESToUSD(decimal.Zero, dec("40"))
	assert.ErrorIs(t, err, ErrMontoInvalido)
}

func TestUSDToVES(t *testing.T) {
	ves := USDToVES(dec("50"), dec("40"))
	assert.True(t, ves.Equal(dec("2000")), "got %s", ves)
}

// Ida y vuelta VES → USD → VES: el error queda dentro de la tolerancia
// escalada por la tasa (el redondeo a centavos de dólar vale hasta 0.005×tasa VES).
func TestConversionIdaYVuelta(t *testing.T) {
	casos := []struct{ ves, tasa string }{
		{"2000", "40"},
		{"1000", "36.5"},
		{"12345.67", "38.123"},
		{"0.50", "40"},
	}
	for _, c := range casos {
		ves, tasa := dec(c.ves), dec(c.tasa)
		usd, err := VESToUSD(ves, tasa)
		require.NoError(t, err)
		back := USDToVES(usd, tasa)
		maxErr := tasa.Mul(dec("0.005"))
		assert.True(t, back.Sub(ves).Abs().LessThanOrEqual(maxErr),
			"ves=%s tasa=%s back=%s", c.ves, c.tasa, back)
	}
}

func TestDentroDeTolerancia(t *testing.T) {
	assert.True(t, DentroDeTolerancia(decimal.Zero))
	assert.True(t, DentroDeTolerancia(dec("0.01")))
	assert.True(t, DentroDeTolerancia(dec("-0.01")))
	assert.False(t, DentroDeTolerancia(dec("0.011")))
	assert.False(t, DentroDeTolerancia(dec("-0.02")))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$50.00", FormatUSD(dec("50")))
	assert.Equal(t, "Bs. 2000.00", FormatVES(dec("2000")))
}
