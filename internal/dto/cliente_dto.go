package dto

import "github.com/shopspring/decimal"

type CrearClienteRequest struct {
	Nombre        string          `json:"nombre"         validate:"required,min=2"`
	Documento     string          `json:"documento"      validate:"required"`
	Telefono      *string         `json:"telefono"`
	Email         *string         `json:"email"          validate:"omitempty,email"`
	LimiteCredito decimal.Decimal `json:"limite_credito" validate:"min=0"`
}

type ActualizarClienteRequest struct {
	Nombre        string           `json:"nombre"`
	Telefono      *string          `json:"telefono"`
	Email         *string          `json:"email" validate:"omitempty,email"`
	LimiteCredito *decimal.Decimal `json:"limite_credito"`
}

type ClienteResponse struct {
	ID            string          `json:"id"`
	Nombre        string          `json:"nombre"`
	Documento     string          `json:"documento"`
	Telefono      *string         `json:"telefono,omitempty"`
	Email         *string         `json:"email,omitempty"`
	LimiteCredito decimal.Decimal `json:"limite_credito"`
	Saldo         decimal.Decimal `json:"saldo"`
	Activo        bool            `json:"activo"`
}

// CreditoResponse es la vista de crédito que consume el checkout.
// El disponible NO se recorta a cero: negativo = sobregiro.
type CreditoResponse struct {
	ClienteID     string          `json:"cliente_id"`
	LimiteCredito decimal.Decimal `json:"limite_credito"`
	Saldo         decimal.Decimal `json:"saldo"`
	Disponible    decimal.Decimal `json:"disponible"`
}
