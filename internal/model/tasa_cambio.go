package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TasaCambio es la tasa VES por 1 USD vigente para un día calendario.
// A lo sumo una fila autoritativa por fecha (índice único).
// Fuente: "manual" | "proveedor"
type TasaCambio struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Fecha     string          `gorm:"type:date;uniqueIndex;not null"` // YYYY-MM-DD
	Tasa      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Fuente    string          `gorm:"type:varchar(20);not null;default:'manual'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TasaCambio) TableName() string { return "tasas_cambio" }
