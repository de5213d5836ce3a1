package service_test

import (
	"context"
	"testing"
	"time"

	"venpos/internal/checkout"
	"venpos/internal/dto"
	"venpos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTasa entrega una tasa fija sin tocar cache ni proveedor.
type stubTasa struct {
	tasa decimal.Decimal
	err  error
}

func (s *stubTasa) TasaDelDia(_ context.Context) (*dto.TasaResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.TasaResponse{Tasa: s.tasa, Fecha: time.Now().Format("2006-01-02"), Fuente: "manual"}, nil
}

func (s *stubTasa) RegistrarManual(_ context.Context, tasa decimal.Decimal) (*dto.TasaResponse, error) {
	s.tasa = tasa
	return &dto.TasaResponse{Tasa: tasa, Fuente: "manual"}, nil
}

func (s *stubTasa) Historial(_ context.Context, _ int) ([]dto.TasaResponse, error) {
	return nil, nil
}

func (s *stubTasa) Refrescar(_ context.Context) error { return nil }

var _ service.TasaCambioService = (*stubTasa)(nil)

type checkoutEnv struct {
	*ventaEnv
	svc service.CheckoutService
}

func newCheckoutEnv(t *testing.T) *checkoutEnv {
	t.Helper()
	base := newVentaEnv(t)
	tasa := &stubTasa{tasa: decimal.NewFromInt(40)}
	svc := service.NewCheckoutService(base.productoRepo, base.clienteRepo, tasa, base.svc, base.caja, time.Hour)
	return &checkoutEnv{ventaEnv: base, svc: svc}
}

func (env *checkoutEnv) iniciar(t *testing.T) uuid.UUID {
	t.Helper()
	resp, err := env.svc.Iniciar(context.Background(), env.vendedorID, dto.IniciarCheckoutRequest{
		SesionCajaID: env.sesionID.String(),
	})
	require.NoError(t, err)
	id, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	return id
}

func (env *checkoutEnv) agregarItem(t *testing.T, id uuid.UUID, productoID uuid.UUID, cantidad int) *dto.CheckoutResponse {
	t.Helper()
	resp, err := env.svc.AgregarItem(context.Background(), id, dto.AgregarItemRequest{
		ProductoID: productoID.String(),
		Cantidad:   cantidad,
	})
	require.NoError(t, err)
	return resp
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCheckout_IniciarSinCajaAbierta(t *testing.T) {
	env := newCheckoutEnv(t)
	_, err := env.caja.Cerrar(context.Background(), dto.CerrarCajaRequest{
		SesionCajaID:   env.sesionID.String(),
		MontoDeclarado: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)

	_, err = env.svc.Iniciar(context.Background(), env.vendedorID, dto.IniciarCheckoutRequest{
		SesionCajaID: env.sesionID.String(),
	})
	assert.ErrorIs(t, err, service.ErrSesionCerrada)
}

func TestCheckout_FlujoCompleto(t *testing.T) {
	env := newCheckoutEnv(t)
	harina := env.productoRepo.seed("Harina", 2.50, 10)
	aceite := env.productoRepo.seed("Aceite", 5.00, 4)
	id := env.iniciar(t)

	env.agregarItem(t, id, harina.ID, 2) // 5.00
	resp := env.agregarItem(t, id, aceite.ID, 1)
	assert.Equal(t, "10", resp.Total.String())
	assert.Len(t, resp.Lineas, 2)

	pagos, err := env.svc.IniciarPagos(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "40", pagos.Tasa.String())

	// 240 Bs en efectivo = 6.00 USD, luego 4.00 USD en divisas
	pagos, err = env.svc.AgregarPago(context.Background(), id, dto.AgregarPagoRequest{
		Metodo: "EFECTIVO",
		Monto:  decimal.NewFromInt(240),
	})
	require.NoError(t, err)
	assert.Equal(t, "4", pagos.Restante.String())
	assert.Equal(t, string(checkout.SesionAbierta), pagos.Estado)
	assert.False(t, pagos.PuedeFinalizar)

	pagos, err = env.svc.AgregarPago(context.Background(), id, dto.AgregarPagoRequest{
		Metodo:  "DIVISAS",
		Monto:   decimal.NewFromInt(4),
		SubTipo: "efectivo",
	})
	require.NoError(t, err)
	assert.Equal(t, string(checkout.SesionSatisfecha), pagos.Estado)
	assert.True(t, pagos.PuedeFinalizar)

	venta, err := env.svc.Finalizar(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "MIXTO", venta.MetodoPago)
	assert.Equal(t, "10", venta.TotalUSD.String())

	// La sesión se destruye tras finalizar y el stock quedó descontado
	_, err = env.svc.Obtener(context.Background(), id)
	assert.ErrorIs(t, err, service.ErrCheckoutNoEncontrado)
	prod, _ := env.productoRepo.FindByID(context.Background(), harina.ID)
	assert.Equal(t, 8, prod.Stock)
}

func TestCheckout_MutacionDescartaPagos(t *testing.T) {
	env := newCheckoutEnv(t)
	harina := env.productoRepo.seed("Harina", 2.50, 10)
	id := env.iniciar(t)
	env.agregarItem(t, id, harina.ID, 2)

	_, err := env.svc.IniciarPagos(context.Background(), id)
	require.NoError(t, err)
	_, err = env.svc.AgregarPago(context.Background(), id, dto.AgregarPagoRequest{
		Metodo: "EFECTIVO",
		Monto:  decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	// Cambiar el carrito invalida la conciliación en curso
	resp := env.agregarItem(t, id, harina.ID, 1)
	assert.Nil(t, resp.Pagos)

	_, err = env.svc.AgregarPago(context.Background(), id, dto.AgregarPagoRequest{
		Metodo: "EFECTIVO",
		Monto:  decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, service.ErrPagosNoIniciados)
}

func TestCheckout_FinalizarIncompleto(t *testing.T) {
	env := newCheckoutEnv(t)
	harina := env.productoRepo.seed("Harina", 2.50, 10)
	id := env.iniciar(t)
	env.agregarItem(t, id, harina.ID, 4) // 10.00

	_, err := env.svc.IniciarPagos(context.Background(), id)
	require.NoError(t, err)
	_, err = env.svc.AgregarPago(context.Background(), id, dto.AgregarPagoRequest{
		Metodo: "EFECTIVO",
		Monto:  decimal.NewFromInt(200), // 5.00 USD
	})
	require.NoError(t, err)

	_, err = env.svc.Finalizar(context.Background(), id)
	assert.ErrorIs(t, err, checkout.ErrPagoIncompleto)

	// La sesión sobrevive al rechazo para corregir y reintentar
	resp, err := env.svc.Obtener(context.Background(), id)
	require.NoError(t, err)
	assert.NotNil(t, resp.Pagos)
}

func TestCheckout_SobrepagoRechazado(t *testing.T) {
	env := newCheckoutEnv(t)
	harina := env.productoRepo.seed("Harina", 2.50, 10)
	id := env.iniciar(t)
	env.agregarItem(t, id, harina.ID, 4) // 10.00

	_, err := env.svc.IniciarPagos(context.Background(), id)
	require.NoError(t, err)

	// 480 Bs = 12.00 USD contra 10.00 pendientes
	_, err = env.svc.AgregarPago(context.Background(), id, dto.AgregarPagoRequest{
		Metodo: "EFECTIVO",
		Monto:  decimal.NewFromInt(480),
	})
	assert.ErrorIs(t, err, checkout.ErrExcedeRestante)
}

func TestCheckout_CreditoRequiereCliente(t *testing.T) {
	env := newCheckoutEnv(t)
	harina := env.productoRepo.seed("Harina", 2.50, 10)
	id := env.iniciar(t)
	env.agregarItem(t, id, harina.ID, 4)

	_, err := env.svc.IniciarPagos(context.Background(), id)
	require.NoError(t, err)

	_, err = env.svc.AgregarPago(context.Background(), id, dto.AgregarPagoRequest{Metodo: "CREDITO"})
	assert.ErrorIs(t, err, checkout.ErrClienteRequerido)
}

func TestCheckout_ClienteDuranteConciliacion(t *testing.T) {
	env := newCheckoutEnv(t)
	harina := env.productoRepo.seed("Harina", 2.50, 10)
	cliente := env.clienteRepo.seed("Maria", 50, 0)
	id := env.iniciar(t)
	env.agregarItem(t, id, harina.ID, 4) // 10.00

	_, err := env.svc.IniciarPagos(context.Background(), id)
	require.NoError(t, err)
	_, err = env.svc.AgregarPago(context.Background(), id, dto.AgregarPagoRequest{
		Metodo: "EFECTIVO",
		Monto:  decimal.NewFromInt(160), // 4.00 USD
	})
	require.NoError(t, err)

	// Asociar el cliente no descarta los pagos ya aceptados
	clienteID := cliente.ID.String()
	resp, err := env.svc.AsignarCliente(context.Background(), id, dto.AsignarClienteRequest{ClienteID: &clienteID})
	require.NoError(t, err)
	require.NotNil(t, resp.Pagos)
	assert.Len(t, resp.Pagos.Pagos, 1)

	// CREDITO absorbe el restante exacto
	pagos, err := env.svc.AgregarPago(context.Background(), id, dto.AgregarPagoRequest{Metodo: "CREDITO"})
	require.NoError(t, err)
	assert.True(t, pagos.PuedeFinalizar)

	venta, err := env.svc.Finalizar(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "MIXTO", venta.MetodoPago)

	fresco, _ := env.clienteRepo.FindByID(context.Background(), cliente.ID)
	assert.Equal(t, "6", fresco.Saldo.String())
}

func TestCheckout_PagosSinItems(t *testing.T) {
	env := newCheckoutEnv(t)
	id := env.iniciar(t)

	_, err := env.svc.IniciarPagos(context.Background(), id)
	assert.ErrorIs(t, err, service.ErrCarritoVacio)
}

func TestCheckout_SinTasaNoAceptaPagos(t *testing.T) {
	base := newVentaEnv(t)
	tasa := &stubTasa{err: service.ErrSinTasa}
	svc := service.NewCheckoutService(base.productoRepo, base.clienteRepo, tasa, base.svc, base.caja, time.Hour)
	harina := base.productoRepo.seed("Harina", 2.50, 10)

	resp, err := svc.Iniciar(context.Background(), base.vendedorID, dto.IniciarCheckoutRequest{
		SesionCajaID: base.sesionID.String(),
	})
	require.NoError(t, err)
	id, _ := uuid.Parse(resp.ID)
	_, err = svc.AgregarItem(context.Background(), id, dto.AgregarItemRequest{
		ProductoID: harina.ID.String(),
		Cantidad:   1,
	})
	require.NoError(t, err)

	_, err = svc.IniciarPagos(context.Background(), id)
	assert.ErrorIs(t, err, service.ErrSinTasa)
}

func TestCheckout_Cancelar(t *testing.T) {
	env := newCheckoutEnv(t)
	id := env.iniciar(t)

	require.NoError(t, env.svc.Cancelar(context.Background(), id))
	assert.ErrorIs(t, env.svc.Cancelar(context.Background(), id), service.ErrCheckoutNoEncontrado)
}
