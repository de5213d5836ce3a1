package dto

import "github.com/shopspring/decimal"

// ─── Requests ────────────────────────────────────────────────────────────────

type IniciarCheckoutRequest struct {
	SesionCajaID string `json:"sesion_caja_id" validate:"required,uuid"`
}

type AgregarItemRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"min=0"` // 0 = default 1
}

type ActualizarCantidadRequest struct {
	Cantidad int `json:"cantidad"` // ≤ 0 elimina la línea
}

type AsignarClienteRequest struct {
	// ClienteID nil desasocia el cliente del checkout.
	ClienteID *string `json:"cliente_id" validate:"omitempty,uuid"`
}

type AsignarDescuentoRequest struct {
	Descuento decimal.Decimal `json:"descuento" validate:"min=0"`
}

// AgregarPagoRequest captura un pago crudo. El monto viene en VES para
// EFECTIVO/TRANSFERENCIA/PAGO_MOVIL/TARJETA y en USD para DIVISAS; para
// CREDITO se ignora.
type AgregarPagoRequest struct {
	Metodo      string          `json:"metodo" validate:"required"`
	Monto       decimal.Decimal `json:"monto"`
	Referencia  string          `json:"referencia"`
	Banco       string          `json:"banco"`
	TipoTarjeta string          `json:"tipo_tarjeta"`
	SubTipo     string          `json:"sub_tipo"`
	Plataforma  string          `json:"plataforma"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type LineaResponse struct {
	ProductoID  string          `json:"producto_id"`
	Codigo      string          `json:"codigo"`
	Nombre      string          `json:"nombre"`
	PrecioVenta decimal.Decimal `json:"precio_venta"`
	Cantidad    int             `json:"cantidad"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type PagoResponse struct {
	Metodo     string          `json:"metodo"`
	MontoUSD   decimal.Decimal `json:"monto_usd"`
	MontoVES   decimal.Decimal `json:"monto_ves"`
	Referencia string          `json:"referencia,omitempty"`
	Tasa       decimal.Decimal `json:"tasa"`
}

// PagosResponse es el estado de la conciliación de pagos.
type PagosResponse struct {
	Total          decimal.Decimal `json:"total"`
	Tasa           decimal.Decimal `json:"tasa"`
	Pagos          []PagoResponse  `json:"pagos"`
	TotalPagado    decimal.Decimal `json:"total_pagado"`
	Restante       decimal.Decimal `json:"restante"`
	Estado         string          `json:"estado"` // ABIERTA | SATISFECHA
	PuedeFinalizar bool            `json:"puede_finalizar"`
}

type CheckoutResponse struct {
	ID        string           `json:"id"`
	Lineas    []LineaResponse  `json:"lineas"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	Descuento decimal.Decimal  `json:"descuento"`
	Total     decimal.Decimal  `json:"total"`
	Cliente   *ClienteResponse `json:"cliente,omitempty"`
	Pagos     *PagosResponse   `json:"pagos,omitempty"`
}
