package dto

import "github.com/shopspring/decimal"

type CrearProductoRequest struct {
	Codigo      string          `json:"codigo"       validate:"required"`
	Nombre      string          `json:"nombre"       validate:"required,min=2"`
	Descripcion *string         `json:"descripcion"`
	Categoria   string          `json:"categoria"`
	PrecioCosto decimal.Decimal `json:"precio_costo" validate:"min=0"`
	PrecioVenta decimal.Decimal `json:"precio_venta" validate:"required"`
	Stock       int             `json:"stock"        validate:"min=0"`
	StockMinimo int             `json:"stock_minimo" validate:"min=0"`
}

type ActualizarProductoRequest struct {
	Nombre      string           `json:"nombre"`
	Descripcion *string          `json:"descripcion"`
	Categoria   *string          `json:"categoria"`
	PrecioCosto *decimal.Decimal `json:"precio_costo"`
	PrecioVenta *decimal.Decimal `json:"precio_venta"`
	StockMinimo *int             `json:"stock_minimo"`
}

type AjustarStockRequest struct {
	Cantidad int    `json:"cantidad" validate:"required"` // positivo entrada, negativo salida
	Motivo   string `json:"motivo"   validate:"required"`
}

type ProductoFilter struct {
	Busqueda string `form:"q"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ProductoResponse struct {
	ID          string          `json:"id"`
	Codigo      string          `json:"codigo"`
	Nombre      string          `json:"nombre"`
	Descripcion *string         `json:"descripcion,omitempty"`
	Categoria   string          `json:"categoria"`
	PrecioCosto decimal.Decimal `json:"precio_costo"`
	PrecioVenta decimal.Decimal `json:"precio_venta"`
	// MargenPct = (venta − costo) / costo × 100
	MargenPct   decimal.Decimal `json:"margen_pct"`
	Stock       int             `json:"stock"`
	StockMinimo int             `json:"stock_minimo"`
	Activo      bool            `json:"activo"`
}

type ProductoListResponse struct {
	Data  []ProductoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// ConsultaPrecioResponse responde el verificador público de precios.
// Incluye el precio en bolívares a la tasa del día.
type ConsultaPrecioResponse struct {
	Nombre      string          `json:"nombre"`
	PrecioVenta decimal.Decimal `json:"precio_venta"`
	PrecioVES   decimal.Decimal `json:"precio_ves"`
	Stock       int             `json:"stock"`
	Categoria   string          `json:"categoria"`
}
