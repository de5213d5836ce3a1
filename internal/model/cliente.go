package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cliente es un comprador con línea de crédito. Saldo es la deuda pendiente en
// USD; crece con cada pago CREDITO y baja con abonos o anulaciones.
type Cliente struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre        string    `gorm:"index;not null"`
	Documento     string    `gorm:"uniqueIndex;not null"` // cédula o RIF
	Telefono      *string
	Email         *string
	LimiteCredito decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Saldo         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Activo        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Cliente) TableName() string { return "clientes" }
