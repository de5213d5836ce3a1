package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter se bindea del query string de GET /v1/ventas.
type VentaFilter struct {
	Fecha  string `form:"fecha"`                     // YYYY-MM-DD; vacío = hoy
	Estado string `form:"estado,default=completada"` // completada | anulada | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
}

// PagoVentaRequest es una entrada de pago ya conciliada: el monto canónico
// está en USD y los campos VES/tasa son el snapshot de la conversión.
type PagoVentaRequest struct {
	Metodo     string          `json:"metodo" validate:"required,oneof=EFECTIVO TRANSFERENCIA PAGO_MOVIL TARJETA DIVISAS CREDITO"`
	MontoUSD   decimal.Decimal `json:"monto_usd" validate:"required"`
	MontoVES   decimal.Decimal `json:"monto_ves"`
	Referencia string          `json:"referencia"`
	TasaCambio decimal.Decimal `json:"tasa_cambio"`
}

// RegistrarVentaRequest es la forma que espera la operación de creación de
// venta. La arma el adaptador de checkout (BuildVentaRequest) pero el endpoint
// también acepta el shape directo de terminales externas.
type RegistrarVentaRequest struct {
	SesionCajaID string             `json:"sesion_caja_id" validate:"required,uuid"`
	VendedorID   string             `json:"vendedor_id"    validate:"required,uuid"`
	MetodoPago   string             `json:"metodo_pago"    validate:"required"`
	Items        []ItemVentaRequest `json:"items"          validate:"required,min=1,dive"`
	Pagos        []PagoVentaRequest `json:"pagos"          validate:"required,min=1,dive"`
	Descuento    decimal.Decimal    `json:"descuento"      validate:"min=0"`
	ClienteID    *string            `json:"cliente_id"     validate:"omitempty,uuid"`
}

type AnularVentaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type PagoVentaResponse struct {
	Metodo     string          `json:"metodo"`
	MontoUSD   decimal.Decimal `json:"monto_usd"`
	MontoVES   decimal.Decimal `json:"monto_ves"`
	Referencia string          `json:"referencia,omitempty"`
	TasaCambio decimal.Decimal `json:"tasa_cambio"`
}

type VentaResponse struct {
	ID           string              `json:"id"`
	NumeroTicket int                 `json:"numero_ticket"`
	MetodoPago   string              `json:"metodo_pago"`
	Items        []ItemVentaResponse `json:"items"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	Descuento    decimal.Decimal     `json:"descuento"`
	TotalUSD     decimal.Decimal     `json:"total_usd"`
	PagadoUSD    decimal.Decimal     `json:"pagado_usd"`
	SaldoUSD     decimal.Decimal     `json:"saldo_usd"`
	Pagos        []PagoVentaResponse `json:"pagos"`
	Cliente      *string             `json:"cliente,omitempty"`
	Estado       string              `json:"estado"`
	CreatedAt    string              `json:"created_at"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
