package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SesionCaja es el ciclo de vida de una caja registradora.
// Estado: "abierta" | "cerrada"
// MontoEsperado lo calcula el servidor al cerrar: MontoInicial + Σ movimientos
// en efectivo. La diferencia declarado − esperado se clasifica como
// "cuadrada" | "sobrante" | "faltante".
type SesionCaja struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PuntoDeVenta   int              `gorm:"not null;index"`
	UsuarioID      uuid.UUID        `gorm:"type:uuid;not null"`
	MontoInicial   decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MontoEsperado  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MontoDeclarado *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Diferencia     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Clasificacion  *string          `gorm:"type:varchar(20)"`
	Estado         string           `gorm:"type:varchar(20);not null;default:'abierta'"`
	Observaciones  *string
	OpenedAt       time.Time
	ClosedAt       *time.Time

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

func (SesionCaja) TableName() string { return "sesiones_caja" }

// MovimientoCaja es un asiento inmutable del libro de caja.
// Tipo: "venta" | "ingreso_manual" | "egreso_manual" | "anulacion"
// Los movimientos nunca se editan ni borran — las anulaciones crean inversos.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo         string          `gorm:"type:varchar(20);not null"`
	MetodoPago   *string         `gorm:"type:varchar(20)"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"` // USD
	Descripcion  string          `gorm:"not null"`
	ReferenciaID *uuid.UUID      `gorm:"type:uuid"` // venta de origen si aplica
	CreatedAt    time.Time
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }
