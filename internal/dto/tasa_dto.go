package dto

import "github.com/shopspring/decimal"

// RegistrarTasaRequest fija manualmente la tasa del día (VES por 1 USD).
type RegistrarTasaRequest struct {
	Tasa decimal.Decimal `json:"tasa" validate:"required"`
}

type TasaResponse struct {
	Tasa   decimal.Decimal `json:"tasa"`
	Fecha  string          `json:"fecha"` // YYYY-MM-DD
	Fuente string          `json:"fuente"`
}
