package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Venta es una venta registrada. Estado: "completada" | "anulada".
// MetodoPago es la etiqueta consolidada del conjunto de pagos: el método único
// o "MIXTO" cuando hay más de uno.
type Venta struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NumeroTicket int             `gorm:"uniqueIndex;not null"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	VendedorID   uuid.UUID       `gorm:"type:uuid;not null"`
	ClienteID    *uuid.UUID      `gorm:"type:uuid;index"`
	MetodoPago   string          `gorm:"type:varchar(20);not null"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descuento    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalUSD     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PagadoUSD    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado       string          `gorm:"type:varchar(20);not null;default:'completada'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items    []VentaItem `gorm:"foreignKey:VentaID"`
	Pagos    []VentaPago `gorm:"foreignKey:VentaID"`
	Cliente  *Cliente    `gorm:"foreignKey:ClienteID"`
	Vendedor *Usuario    `gorm:"foreignKey:VendedorID"`
}

type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// VentaPago es una entrada de pago aceptada. MontoUSD es el monto canónico;
// MontoVES y TasaCambio quedan como snapshot de la conversión del día.
type VentaPago struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	Metodo     string          `gorm:"type:varchar(20);not null"`
	MontoUSD   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoVES   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Referencia string
	TasaCambio decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt  time.Time
}
