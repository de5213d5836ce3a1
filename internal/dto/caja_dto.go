package dto

import "github.com/shopspring/decimal"

type AbrirCajaRequest struct {
	PuntoDeVenta int             `json:"punto_de_venta" validate:"min=1"`
	MontoInicial decimal.Decimal `json:"monto_inicial"  validate:"min=0"`
}

// MovimientoManualRequest registra un ingreso o egreso de efectivo fuera de
// ventas (cambio, retiro a bóveda, etc.).
type MovimientoManualRequest struct {
	SesionCajaID string          `json:"sesion_caja_id" validate:"required,uuid"`
	Tipo         string          `json:"tipo"           validate:"required,oneof=ingreso_manual egreso_manual"`
	Monto        decimal.Decimal `json:"monto"          validate:"required"`
	Descripcion  string          `json:"descripcion"    validate:"required"`
}

// CerrarCajaRequest es el conteo ciego declarado por el cajero.
type CerrarCajaRequest struct {
	SesionCajaID   string          `json:"sesion_caja_id"  validate:"required,uuid"`
	MontoDeclarado decimal.Decimal `json:"monto_declarado" validate:"min=0"`
	Observaciones  *string         `json:"observaciones"`
}

// DiferenciaResponse clasifica el cierre: cuadrada | sobrante | faltante.
type DiferenciaResponse struct {
	Monto         decimal.Decimal `json:"monto"`
	Clasificacion string          `json:"clasificacion"`
}

type CierreCajaResponse struct {
	SesionCajaID   string             `json:"sesion_caja_id"`
	MontoEsperado  decimal.Decimal    `json:"monto_esperado"`
	MontoDeclarado decimal.Decimal    `json:"monto_declarado"`
	Diferencia     DiferenciaResponse `json:"diferencia"`
	Estado         string             `json:"estado"`
}

type MovimientoCajaResponse struct {
	Tipo        string          `json:"tipo"`
	MetodoPago  *string         `json:"metodo_pago,omitempty"`
	Monto       decimal.Decimal `json:"monto"`
	Descripcion string          `json:"descripcion"`
	CreatedAt   string          `json:"created_at"`
}

type ReporteCajaResponse struct {
	SesionCajaID   string                   `json:"sesion_caja_id"`
	PuntoDeVenta   int                      `json:"punto_de_venta"`
	MontoInicial   decimal.Decimal          `json:"monto_inicial"`
	MontoEsperado  decimal.Decimal          `json:"monto_esperado"`
	MontoDeclarado *decimal.Decimal         `json:"monto_declarado,omitempty"`
	Diferencia     *DiferenciaResponse      `json:"diferencia,omitempty"`
	Movimientos    []MovimientoCajaResponse `json:"movimientos"`
	Estado         string                   `json:"estado"`
	Observaciones  *string                  `json:"observaciones,omitempty"`
	OpenedAt       string                   `json:"opened_at"`
	ClosedAt       *string                  `json:"closed_at,omitempty"`
}
