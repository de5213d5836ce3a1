package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venpos/internal/money"
)

func sesion(total, tasa string, cliente *ClienteInfo) *PaymentSession {
	return NewPaymentSession(dec(total), dec(tasa), cliente)
}

// Escenario: total 100 USD, tasa 40 VES/USD. 2000 VES efectivo = 50 USD,
// luego 50 USD en divisas cierra la venta.
func TestConciliacionEfectivoMasDivisas(t *testing.T) {
	s := sesion("100.00", "40.00", nil)

	pago, err := s.AddPago(PagoInput{Metodo: MetodoEfectivo, Monto: dec("2000")})
	require.NoError(t, err)
	assert.True(t, pago.MontoUSD.Equal(dec("50.00")), "got %s", pago.MontoUSD)
	assert.True(t, s.Restante().Equal(dec("50.00")))
	assert.Equal(t, SesionAbierta, s.Estado())
	assert.False(t, s.PuedeFinalizar())

	_, err = s.AddPago(PagoInput{Metodo: MetodoDivisas, Monto: dec("50"), SubTipo: "efectivo"})
	require.NoError(t, err)
	assert.True(t, s.Restante().IsZero())
	assert.Equal(t, SesionSatisfecha, s.Estado())
	assert.True(t, s.PuedeFinalizar())
}

func TestAddPagoRechazaSobrepago(t *testing.T) {
	s := sesion("100.00", "40.00", nil)

	// 4004 VES = 100.10 USD > 100 — chequeo estricto, sin tolerancia
	_, err := s.AddPago(PagoInput{Metodo: MetodoEfectivo, Monto: dec("4004")})
	assert.ErrorIs(t, err, ErrExcedeRestante)
	assert.Empty(t, s.Pagos())
	assert.True(t, s.Restante().Equal(dec("100.00")))
}

func TestTransferenciaRequiereReferenciaYBanco(t *testing.T) {
	s := sesion("100.00", "40.00", nil)

	_, err := s.AddPago(PagoInput{Metodo: MetodoTransferencia, Monto: dec("1000")})
	assert.ErrorIs(t, err, ErrReferenciaRequerida)

	_, err = s.AddPago(PagoInput{Metodo: MetodoTransferencia, Monto: dec("1000"), Referencia: "00441234"})
	assert.ErrorIs(t, err, ErrBancoRequerido)

	pago, err := s.AddPago(PagoInput{
		Metodo: MetodoTransferencia, Monto: dec("1000"),
		Referencia: "00441234", Banco: "Banesco",
	})
	require.NoError(t, err)
	assert.Equal(t, "00441234 - Banesco", pago.Referencia)
	assert.True(t, pago.MontoUSD.Equal(dec("25.00")))
}

func TestTarjetaComponeReferencia(t *testing.T) {
	s := sesion("100.00", "40.00", nil)

	_, err := s.AddPago(PagoInput{
		Metodo: MetodoTarjeta, Monto: dec("400"),
		Referencia: "9912", Banco: "Mercantil",
	})
	assert.ErrorIs(t, err, ErrTipoTarjetaInvalido)

	pago, err := s.AddPago(PagoInput{
		Metodo: MetodoTarjeta, Monto: dec("400"),
		Referencia: "9912", Banco: "Mercantil", TipoTarjeta: "debito",
	})
	require.NoError(t, err)
	assert.Equal(t, "debito - 9912 - Mercantil", pago.Referencia)
}

func TestDivisasDigitalRequierePlataforma(t *testing.T) {
	s := sesion("100.00", "40.00", nil)

	_, err := s.AddPago(PagoInput{Metodo: MetodoDivisas, Monto: dec("20")})
	assert.ErrorIs(t, err, ErrSubTipoInvalido)

	_, err = s.AddPago(PagoInput{Metodo: MetodoDivisas, Monto: dec("20"), SubTipo: "digital"})
	assert.ErrorIs(t, err, ErrPlataformaRequerida)

	pago, err := s.AddPago(PagoInput{
		Metodo: MetodoDivisas, Monto: dec("20"), SubTipo: "digital", Plataforma: "Zelle",
	})
	require.NoError(t, err)
	assert.Equal(t, "Zelle", pago.Referencia)
	// MontoVES derivado solo para visualización
	assert.True(t, pago.MontoVES.Equal(dec("800.00")))
}

func TestDivisasEfectivoReferencia(t *testing.T) {
	s := sesion("100.00", "40.00", nil)
	pago, err := s.AddPago(PagoInput{Metodo: MetodoDivisas, Monto: dec("20"), SubTipo: "efectivo"})
	require.NoError(t, err)
	assert.Equal(t, "EFECTIVO", pago.Referencia)
}

func TestTasaInvalidaRechazaMetodosVES(t *testing.T) {
	s := sesion("100.00", "0", nil)
	_, err := s.AddPago(PagoInput{Metodo: MetodoEfectivo, Monto: dec("1000")})
	assert.ErrorIs(t, err, money.ErrTasaInvalida)
}

func TestMontoInvalido(t *testing.T) {
	s := sesion("100.00", "40.00", nil)
	_, err := s.AddPago(PagoInput{Metodo: MetodoEfectivo, Monto: decimal.Zero})
	assert.ErrorIs(t, err, money.ErrMontoInvalido)

	_, err = s.AddPago(PagoInput{Metodo: MetodoDivisas, Monto: dec("-5"), SubTipo: "efectivo"})
	assert.ErrorIs(t, err, money.ErrMontoInvalido)
}

func TestCreditoCubreRestanteExacto(t *testing.T) {
	cliente := &ClienteInfo{
		ID: uuid.New(), Nombre: "Pedro Rondón",
		LimiteCredito: dec("200"), Saldo: dec("50"),
	}
	s := sesion("100.00", "40.00", cliente)

	_, err := s.AddPago(PagoInput{Metodo: MetodoEfectivo, Monto: dec("1600")}) // 40 USD
	require.NoError(t, err)

	pago, err := s.AddPago(PagoInput{Metodo: MetodoCredito})
	require.NoError(t, err)
	assert.True(t, pago.MontoUSD.Equal(dec("60.00")), "got %s", pago.MontoUSD)
	assert.True(t, s.PuedeFinalizar())
}

// Escenario: límite 200, saldo 180 → disponible 20 < restante 100 → rechazo.
func TestCreditoInsuficiente(t *testing.T) {
	cliente := &ClienteInfo{
		ID: uuid.New(), Nombre: "Pedro Rondón",
		LimiteCredito: dec("200"), Saldo: dec("180"),
	}
	s := sesion("100.00", "40.00", cliente)

	_, err := s.AddPago(PagoInput{Metodo: MetodoCredito})
	assert.ErrorIs(t, err, ErrCreditoInsuficiente)
	assert.Empty(t, s.Pagos())
}

func TestCreditoSinCliente(t *testing.T) {
	s := sesion("100.00", "40.00", nil)
	_, err := s.AddPago(PagoInput{Metodo: MetodoCredito})
	assert.ErrorIs(t, err, ErrClienteRequerido)
}

// Disponible negativo (sobregiro) bloquea cualquier crédito adicional.
func TestCreditoDisponibleNegativoBloquea(t *testing.T) {
	cliente := &ClienteInfo{
		ID: uuid.New(), Nombre: "Sobregirado",
		LimiteCredito: dec("100"), Saldo: dec("150"),
	}
	assert.True(t, cliente.CreditoDisponible().Equal(dec("-50")))

	s := sesion("10.00", "40.00", cliente)
	_, err := s.AddPago(PagoInput{Metodo: MetodoCredito})
	assert.ErrorIs(t, err, ErrCreditoInsuficiente)
}

func TestRemovePagoRecalculaRestante(t *testing.T) {
	s := sesion("100.00", "40.00", nil)
	_, err := s.AddPago(PagoInput{Metodo: MetodoEfectivo, Monto: dec("2000")})
	require.NoError(t, err)
	require.True(t, s.Restante().Equal(dec("50.00")))

	require.NoError(t, s.RemovePago(0))
	assert.True(t, s.Restante().Equal(dec("100.00")))

	assert.ErrorIs(t, s.RemovePago(0), ErrIndicePago)
	assert.ErrorIs(t, s.RemovePago(-1), ErrIndicePago)
}

func TestEntradasDelMismoMetodoNoSeFusionan(t *testing.T) {
	s := sesion("100.00", "40.00", nil)
	_, err := s.AddPago(PagoInput{Metodo: MetodoEfectivo, Monto: dec("1000")})
	require.NoError(t, err)
	_, err = s.AddPago(PagoInput{Metodo: MetodoEfectivo, Monto: dec("1000")})
	require.NoError(t, err)
	assert.Len(t, s.Pagos(), 2)
}

func TestPuedeFinalizarSinPagos(t *testing.T) {
	s := sesion("0.00", "40.00", nil)
	// Restante 0 pero sin entradas → no finalizable
	assert.False(t, s.PuedeFinalizar())
	assert.ErrorIs(t, s.ValidarFinalizacion(), ErrSinPagos)
}

func TestFinalizableDentroDeTolerancia(t *testing.T) {
	s := sesion("100.00", "40.00", nil)
	// 3999.60 VES = 99.99 USD → restante 0.01, dentro de la tolerancia
	_, err := s.AddPago(PagoInput{Metodo: MetodoEfectivo, Monto: dec("3999.60")})
	require.NoError(t, err)
	assert.True(t, s.Restante().Equal(dec("0.01")))
	assert.Equal(t, SesionSatisfecha, s.Estado())
	assert.True(t, s.PuedeFinalizar())
}

func TestMetodoConsolidado(t *testing.T) {
	s := sesion("100.00", "40.00", nil)
	_, err := s.AddPago(PagoInput{Metodo: MetodoEfectivo, Monto: dec("2000")})
	require.NoError(t, err)
	assert.Equal(t, MetodoEfectivo, s.MetodoConsolidado())

	_, err = s.AddPago(PagoInput{Metodo: MetodoDivisas, Monto: dec("50"), SubTipo: "efectivo"})
	require.NoError(t, err)
	assert.Equal(t, MetodoMixto, s.MetodoConsolidado())
}
