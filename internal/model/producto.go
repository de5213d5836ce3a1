package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto es un artículo del catálogo. Los precios se expresan en USD; la
// vista en bolívares se deriva con la tasa del día al momento de consultar.
type Producto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo      string    `gorm:"uniqueIndex;not null"`
	Nombre      string    `gorm:"index;not null"`
	Descripcion *string
	Categoria   string          `gorm:"not null;default:'general'"`
	PrecioCosto decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PrecioVenta decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// MargenPct se deriva de (PrecioVenta - PrecioCosto) / PrecioCosto * 100
	MargenPct   decimal.Decimal `gorm:"type:decimal(5,2)"`
	Stock       int             `gorm:"not null;default:0"`
	StockMinimo int             `gorm:"not null;default:5"`
	Activo      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MovimientoStock registra cada cambio de stock. Inmutable: las anulaciones
// crean asientos inversos, nunca se edita uno existente.
type MovimientoStock struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo          string    `gorm:"not null"` // "venta" | "ajuste_manual" | "restore_anulacion"
	Cantidad      int       `gorm:"not null"` // positivo = entrada, negativo = salida
	StockAnterior int       `gorm:"not null"`
	StockNuevo    int       `gorm:"not null"`
	Motivo        string
	ReferenciaID  *uuid.UUID `gorm:"type:uuid"` // venta_id si aplica
	CreatedAt     time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName evita la pluralización por defecto de GORM (movimiento_stocks).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
