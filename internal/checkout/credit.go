package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClienteInfo es el snapshot de un cliente al asociarse al checkout.
// El saldo es el conocido en ese momento; la validación definitiva de crédito
// ocurre al registrar la venta.
type ClienteInfo struct {
	ID            uuid.UUID
	Nombre        string
	LimiteCredito decimal.Decimal // USD, ≥ 0
	Saldo         decimal.Decimal // USD, deuda pendiente, ≥ 0
}

// CreditoDisponible devuelve límite − saldo SIN recortar a cero: un valor
// negativo indica sobregiro y bloquea cualquier crédito adicional.
func (c ClienteInfo) CreditoDisponible() decimal.Decimal {
	return c.LimiteCredito.Sub(c.Saldo)
}

// PuedeExtenderCredito indica si el cliente soporta monto adicional a crédito.
func PuedeExtenderCredito(cliente ClienteInfo, monto decimal.Decimal) bool {
	return monto.LessThanOrEqual(cliente.CreditoDisponible())
}
