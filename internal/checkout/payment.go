package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"venpos/internal/money"
)

// Metodo identifica el método de un pago individual.
type Metodo string

const (
	MetodoEfectivo      Metodo = "EFECTIVO"
	MetodoTransferencia Metodo = "TRANSFERENCIA"
	MetodoPagoMovil     Metodo = "PAGO_MOVIL"
	MetodoTarjeta       Metodo = "TARJETA"
	MetodoDivisas       Metodo = "DIVISAS"
	MetodoCredito       Metodo = "CREDITO"

	// MetodoMixto es la etiqueta de una venta con más de un pago; nunca es el
	// método de una entrada individual.
	MetodoMixto Metodo = "MIXTO"
)

// esVES indica si el monto se captura en bolívares y se convierte a USD.
func (m Metodo) esVES() bool {
	switch m {
	case MetodoEfectivo, MetodoTransferencia, MetodoPagoMovil, MetodoTarjeta:
		return true
	}
	return false
}

// Valido reconoce los métodos aceptados para una entrada de pago.
func (m Metodo) Valido() bool {
	switch m {
	case MetodoEfectivo, MetodoTransferencia, MetodoPagoMovil,
		MetodoTarjeta, MetodoDivisas, MetodoCredito:
		return true
	}
	return false
}

// PagoInput es la captura cruda de un pago antes de validar.
// Monto viene en VES para los métodos locales y en USD para DIVISAS;
// para CREDITO se ignora (siempre cubre el restante exacto).
type PagoInput struct {
	Metodo      Metodo
	Monto       decimal.Decimal
	Referencia  string
	Banco       string
	TipoTarjeta string // "debito" | "credito"
	SubTipo     string // DIVISAS: "efectivo" | "digital"
	Plataforma  string // DIVISAS digital: Zelle, Binance, etc.
}

// Pago es una entrada aceptada dentro de la sesión. El monto canónico siempre
// está en USD; MontoVES y Tasa quedan como snapshot de la conversión.
type Pago struct {
	Metodo     Metodo
	MontoUSD   decimal.Decimal
	MontoVES   decimal.Decimal // cero cuando no aplica
	Referencia string
	Tasa       decimal.Decimal
}

// validarCampos revisa los campos obligatorios por método y arma la
// referencia compuesta. No toca montos.
func validarCampos(in PagoInput) (referencia string, err error) {
	switch in.Metodo {
	case MetodoEfectivo:
		return "", nil

	case MetodoTransferencia, MetodoPagoMovil:
		if in.Referencia == "" {
			return "", ErrReferenciaRequerida
		}
		if in.Banco == "" {
			return "", ErrBancoRequerido
		}
		return fmt.Sprintf("%s - %s", in.Referencia, in.Banco), nil

	case MetodoTarjeta:
		if in.TipoTarjeta != "debito" && in.TipoTarjeta != "credito" {
			return "", ErrTipoTarjetaInvalido
		}
		if in.Referencia == "" {
			return "", ErrReferenciaRequerida
		}
		if in.Banco == "" {
			return "", ErrBancoRequerido
		}
		return fmt.Sprintf("%s - %s - %s", in.TipoTarjeta, in.Referencia, in.Banco), nil

	case MetodoDivisas:
		switch in.SubTipo {
		case "efectivo":
			return "EFECTIVO", nil
		case "digital":
			if in.Plataforma == "" {
				return "", ErrPlataformaRequerida
			}
			return in.Plataforma, nil
		default:
			return "", ErrSubTipoInvalido
		}

	case MetodoCredito:
		return "", nil
	}
	return "", ErrMetodoInvalido
}

// construirPago valida campos y convierte el monto a USD con la tasa dada.
// No conoce el saldo restante — eso lo controla la sesión.
func construirPago(in PagoInput, tasa decimal.Decimal) (Pago, error) {
	referencia, err := validarCampos(in)
	if err != nil {
		return Pago{}, err
	}

	switch {
	case in.Metodo.esVES():
		usd, err := money.VESToUSD(in.Monto, tasa)
		if err != nil {
			return Pago{}, err
		}
		return Pago{
			Metodo:     in.Metodo,
			MontoUSD:   usd,
			MontoVES:   in.Monto,
			Referencia: referencia,
			Tasa:       tasa,
		}, nil

	case in.Metodo == MetodoDivisas:
		if in.Monto.LessThanOrEqual(decimal.Zero) {
			return Pago{}, money.ErrMontoInvalido
		}
		return Pago{
			Metodo:     in.Metodo,
			MontoUSD:   in.Monto.Round(2),
			MontoVES:   money.USDToVES(in.Monto, tasa),
			Referencia: referencia,
			Tasa:       tasa,
		}, nil
	}

	// CREDITO: el monto lo fija la sesión (restante exacto).
	return Pago{Metodo: MetodoCredito, Referencia: referencia, Tasa: tasa}, nil
}
