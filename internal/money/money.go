// Package money centraliza la conversión USD ↔ VES y el redondeo monetario.
// Todo cálculo de montos de pago debe pasar por aquí para garantizar un
// redondeo consistente (2 decimales) en ambas monedas.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Tolerancia es el margen absoluto en USD para considerar dos montos iguales.
// Absorbe el redondeo de las conversiones VES → USD → VES.
var Tolerancia = decimal.New(1, -2) // 0.01

var (
	ErrTasaInvalida  = errors.New("la tasa de cambio debe ser mayor que cero")
	ErrMontoInvalido = errors.New("el monto debe ser mayor que cero")
)

// VESToUSD convierte un monto en bolívares a dólares usando la tasa del día
// (VES por 1 USD), redondeado a 2 decimales.
func VESToUSD(ves, tasa decimal.Decimal) (decimal.Decimal, error) {
	if tasa.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrTasaInvalida
	}
	if ves.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrMontoInvalido
	}
	return ves.Div(tasa).Round(2), nil
}

// USDToVES convierte dólares a bolívares, redondeado a 2 decimales.
// Solo para visualización — el monto canónico siempre queda en USD.
func USDToVES(usd, tasa decimal.Decimal) decimal.Decimal {
	return usd.Mul(tasa).Round(2)
}

// DentroDeTolerancia indica si un saldo restante puede considerarse cero.
func DentroDeTolerancia(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Tolerancia)
}

// FormatUSD formatea un monto en dólares para tickets y reportes.
func FormatUSD(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// FormatVES formatea un monto en bolívares.
func FormatVES(d decimal.Decimal) string {
	return "Bs. " + d.StringFixed(2)
}
