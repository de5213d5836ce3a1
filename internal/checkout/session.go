package checkout

import (
	"github.com/shopspring/decimal"

	"venpos/internal/money"
)

// EstadoSesion es el estado derivado de la conciliación.
type EstadoSesion string

const (
	SesionAbierta    EstadoSesion = "ABIERTA"    // restante > tolerancia
	SesionSatisfecha EstadoSesion = "SATISFECHA" // |restante| ≤ 0.01 USD
)

// PaymentSession concilia un conjunto de pagos heterogéneos contra el total de
// la venta. Se siembra con el total del carrito y la tasa del día; cada alta
// de pago se valida individualmente y contra el saldo restante.
type PaymentSession struct {
	total   decimal.Decimal
	tasa    decimal.Decimal
	cliente *ClienteInfo
	pagos   []Pago
}

// NewPaymentSession abre una sesión sobre un total en USD. El cliente puede
// ser nil; solo es obligatorio para pagos CREDITO.
func NewPaymentSession(total, tasa decimal.Decimal, cliente *ClienteInfo) *PaymentSession {
	return &PaymentSession{total: total, tasa: tasa, cliente: cliente}
}

func (s *PaymentSession) Total() decimal.Decimal { return s.total }

func (s *PaymentSession) Tasa() decimal.Decimal { return s.tasa }

// SetCliente actualiza el cliente asociado (el carrito puede asociarlo después
// de abierta la sesión).
func (s *PaymentSession) SetCliente(cliente *ClienteInfo) { s.cliente = cliente }

func (s *PaymentSession) Cliente() *ClienteInfo { return s.cliente }

// Pagos devuelve las entradas aceptadas en orden de alta. Las entradas nunca
// se fusionan: la sesión puede contener varias del mismo método.
func (s *PaymentSession) Pagos() []Pago {
	out := make([]Pago, len(s.pagos))
	copy(out, s.pagos)
	return out
}

// TotalPagado suma los montos USD aceptados.
func (s *PaymentSession) TotalPagado() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.pagos {
		total = total.Add(p.MontoUSD)
	}
	return total
}

// Restante es total − pagado. Nunca es negativo más allá de la tolerancia
// porque cada alta se valida contra él.
func (s *PaymentSession) Restante() decimal.Decimal {
	return s.total.Sub(s.TotalPagado())
}

func (s *PaymentSession) Estado() EstadoSesion {
	if money.DentroDeTolerancia(s.Restante()) {
		return SesionSatisfecha
	}
	return SesionAbierta
}

// AddPago valida y agrega una entrada. Ante cualquier error el estado queda
// intacto. El chequeo contra el restante es estricto (sin tolerancia): el
// sobrepago se bloquea al momento del alta.
func (s *PaymentSession) AddPago(in PagoInput) (Pago, error) {
	if !in.Metodo.Valido() {
		return Pago{}, ErrMetodoInvalido
	}

	restante := s.Restante()

	if in.Metodo == MetodoCredito {
		if s.cliente == nil {
			return Pago{}, ErrClienteRequerido
		}
		if restante.LessThanOrEqual(decimal.Zero) {
			return Pago{}, ErrNadaPendiente
		}
		if !PuedeExtenderCredito(*s.cliente, restante) {
			return Pago{}, ErrCreditoInsuficiente
		}
		pago, err := construirPago(in, s.tasa)
		if err != nil {
			return Pago{}, err
		}
		// Un pago a crédito siempre cierra la brecha exacta.
		pago.MontoUSD = restante
		s.pagos = append(s.pagos, pago)
		return pago, nil
	}

	pago, err := construirPago(in, s.tasa)
	if err != nil {
		return Pago{}, err
	}
	if pago.MontoUSD.GreaterThan(restante) {
		return Pago{}, ErrExcedeRestante
	}
	s.pagos = append(s.pagos, pago)
	return pago, nil
}

// RemovePago elimina la entrada en la posición dada.
func (s *PaymentSession) RemovePago(i int) error {
	if i < 0 || i >= len(s.pagos) {
		return ErrIndicePago
	}
	s.pagos = append(s.pagos[:i], s.pagos[i+1:]...)
	return nil
}

// tieneCredito indica si alguna entrada es CREDITO.
func (s *PaymentSession) tieneCredito() bool {
	for _, p := range s.pagos {
		if p.Metodo == MetodoCredito {
			return true
		}
	}
	return false
}

// PuedeFinalizar: al menos un pago, restante dentro de la tolerancia de 0.01
// USD y, si hay crédito, un cliente seleccionado.
func (s *PaymentSession) PuedeFinalizar() bool {
	if len(s.pagos) == 0 {
		return false
	}
	if !money.DentroDeTolerancia(s.Restante()) {
		return false
	}
	if s.tieneCredito() && s.cliente == nil {
		return false
	}
	return true
}

// ValidarFinalizacion devuelve el motivo concreto cuando la sesión todavía no
// puede cerrarse.
func (s *PaymentSession) ValidarFinalizacion() error {
	switch {
	case len(s.pagos) == 0:
		return ErrSinPagos
	case !money.DentroDeTolerancia(s.Restante()):
		return ErrPagoIncompleto
	case s.tieneCredito() && s.cliente == nil:
		return ErrClienteRequerido
	}
	return nil
}

// MetodoConsolidado es la etiqueta del conjunto: MIXTO cuando hay más de una
// entrada, el método único en caso contrario.
func (s *PaymentSession) MetodoConsolidado() Metodo {
	if len(s.pagos) > 1 {
		return MetodoMixto
	}
	if len(s.pagos) == 1 {
		return s.pagos[0].Metodo
	}
	return ""
}
