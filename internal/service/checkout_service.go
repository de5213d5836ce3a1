package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"venpos/internal/checkout"
	"venpos/internal/dto"
	"venpos/internal/repository"
)

var (
	ErrCheckoutNoEncontrado = errors.New("checkout no encontrado o expirado")
	ErrPagosNoIniciados     = errors.New("la etapa de pagos no está iniciada")
	ErrCarritoVacio         = errors.New("el carrito está vacío")
)

// CheckoutService mantiene las sesiones de cobro en curso de cada terminal.
// El estado vive en memoria del proceso: un checkout abandonado se purga por
// inactividad y nada queda persistido hasta Finalizar, que delega el registro
// atómico en VentaService.
type CheckoutService interface {
	Iniciar(ctx context.Context, vendedorID uuid.UUID, req dto.IniciarCheckoutRequest) (*dto.CheckoutResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.CheckoutResponse, error)
	AgregarItem(ctx context.Context, id uuid.UUID, req dto.AgregarItemRequest) (*dto.CheckoutResponse, error)
	ActualizarCantidad(ctx context.Context, id, productoID uuid.UUID, cantidad int) (*dto.CheckoutResponse, error)
	EliminarItem(ctx context.Context, id, productoID uuid.UUID) (*dto.CheckoutResponse, error)
	AsignarCliente(ctx context.Context, id uuid.UUID, req dto.AsignarClienteRequest) (*dto.CheckoutResponse, error)
	AsignarDescuento(ctx context.Context, id uuid.UUID, req dto.AsignarDescuentoRequest) (*dto.CheckoutResponse, error)
	IniciarPagos(ctx context.Context, id uuid.UUID) (*dto.PagosResponse, error)
	AgregarPago(ctx context.Context, id uuid.UUID, req dto.AgregarPagoRequest) (*dto.PagosResponse, error)
	EliminarPago(ctx context.Context, id uuid.UUID, indice int) (*dto.PagosResponse, error)
	Finalizar(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	Cancelar(ctx context.Context, id uuid.UUID) error
	// StartPurge lanza la goroutine que elimina checkouts inactivos.
	StartPurge(ctx context.Context)
}

// checkoutSession es el estado de un cobro en curso. El mutex serializa las
// mutaciones de la misma terminal; sesiones distintas no comparten nada.
type checkoutSession struct {
	mu           sync.Mutex
	sesionCajaID uuid.UUID
	vendedorID   uuid.UUID
	cart         *checkout.Cart
	pagos        *checkout.PaymentSession
	lastTouch    time.Time
}

type checkoutService struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*checkoutSession

	productoRepo repository.ProductoRepository
	clienteRepo  repository.ClienteRepository
	tasa         TasaCambioService
	ventas       VentaService
	caja         CajaService
	idleTTL      time.Duration
}

func NewCheckoutService(
	productoRepo repository.ProductoRepository,
	clienteRepo repository.ClienteRepository,
	tasa TasaCambioService,
	ventas VentaService,
	caja CajaService,
	idleTTL time.Duration,
) CheckoutService {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	return &checkoutService{
		sessions:     make(map[uuid.UUID]*checkoutSession),
		productoRepo: productoRepo,
		clienteRepo:  clienteRepo,
		tasa:         tasa,
		ventas:       ventas,
		caja:         caja,
		idleTTL:      idleTTL,
	}
}

func (s *checkoutService) Iniciar(ctx context.Context, vendedorID uuid.UUID, req dto.IniciarCheckoutRequest) (*dto.CheckoutResponse, error) {
	sesionCajaID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, errors.New("sesion_caja_id inválido")
	}
	if err := s.caja.ValidarSesionAbierta(ctx, sesionCajaID); err != nil {
		return nil, err
	}

	id := uuid.New()
	ses := &checkoutSession{
		sesionCajaID: sesionCajaID,
		vendedorID:   vendedorID,
		cart:         checkout.NewCart(),
		lastTouch:    time.Now(),
	}
	s.mu.Lock()
	s.sessions[id] = ses
	s.mu.Unlock()

	return buildCheckoutResponse(id, ses), nil
}

func (s *checkoutService) Obtener(_ context.Context, id uuid.UUID) (*dto.CheckoutResponse, error) {
	ses, err := s.find(id)
	if err != nil {
		return nil, err
	}
	ses.mu.Lock()
	defer ses.mu.Unlock()
	return buildCheckoutResponse(id, ses), nil
}

func (s *checkoutService) AgregarItem(ctx context.Context, id uuid.UUID, req dto.AgregarItemRequest) (*dto.CheckoutResponse, error) {
	ses, err := s.find(id)
	if err != nil {
		return nil, err
	}
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, errors.New("producto_id inválido")
	}
	p, err := s.productoRepo.FindByID(ctx, productoID)
	if err != nil || !p.Activo {
		return nil, errors.New("producto no encontrado")
	}
	cantidad := req.Cantidad
	if cantidad == 0 {
		cantidad = 1
	}

	ses.mu.Lock()
	defer ses.mu.Unlock()
	if err := ses.cart.AddItem(checkout.ProductoSnapshot{
		ID:          p.ID,
		Codigo:      p.Codigo,
		Nombre:      p.Nombre,
		PrecioVenta: p.PrecioVenta,
		Stock:       p.Stock,
	}, cantidad); err != nil {
		return nil, err
	}
	ses.invalidatePagos()
	ses.touch()
	return buildCheckoutResponse(id, ses), nil
}

func (s *checkoutService) ActualizarCantidad(_ context.Context, id, productoID uuid.UUID, cantidad int) (*dto.CheckoutResponse, error) {
	ses, err := s.find(id)
	if err != nil {
		return nil, err
	}
	ses.mu.Lock()
	defer ses.mu.Unlock()
	if err := ses.cart.UpdateQuantity(productoID, cantidad); err != nil {
		return nil, err
	}
	ses.invalidatePagos()
	ses.touch()
	return buildCheckoutResponse(id, ses), nil
}

func (s *checkoutService) EliminarItem(_ context.Context, id, productoID uuid.UUID) (*dto.CheckoutResponse, error) {
	ses, err := s.find(id)
	if err != nil {
		return nil, err
	}
	ses.mu.Lock()
	defer ses.mu.Unlock()
	ses.cart.RemoveItem(productoID)
	ses.invalidatePagos()
	ses.touch()
	return buildCheckoutResponse(id, ses), nil
}

// AsignarCliente no descarta la etapa de pagos: el cliente puede elegirse a
// mitad de la conciliación para habilitar un pago a crédito.
func (s *checkoutService) AsignarCliente(ctx context.Context, id uuid.UUID, req dto.AsignarClienteRequest) (*dto.CheckoutResponse, error) {
	ses, err := s.find(id)
	if err != nil {
		return nil, err
	}

	var info *checkout.ClienteInfo
	if req.ClienteID != nil {
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, errors.New("cliente_id inválido")
		}
		c, err := s.clienteRepo.FindByID(ctx, cid)
		if err != nil || !c.Activo {
			return nil, errors.New("cliente no encontrado")
		}
		info = &checkout.ClienteInfo{
			ID:            c.ID,
			Nombre:        c.Nombre,
			LimiteCredito: c.LimiteCredito,
			Saldo:         c.Saldo,
		}
	}

	ses.mu.Lock()
	defer ses.mu.Unlock()
	ses.cart.SetCliente(info)
	if ses.pagos != nil {
		ses.pagos.SetCliente(info)
	}
	ses.touch()
	return buildCheckoutResponse(id, ses), nil
}

func (s *checkoutService) AsignarDescuento(_ context.Context, id uuid.UUID, req dto.AsignarDescuentoRequest) (*dto.CheckoutResponse, error) {
	if req.Descuento.IsNegative() {
		return nil, errors.New("el descuento no puede ser negativo")
	}
	ses, err := s.find(id)
	if err != nil {
		return nil, err
	}
	ses.mu.Lock()
	defer ses.mu.Unlock()
	ses.cart.SetDescuento(req.Descuento)
	ses.invalidatePagos()
	ses.touch()
	return buildCheckoutResponse(id, ses), nil
}

func (s *checkoutService) IniciarPagos(ctx context.Context, id uuid.UUID) (*dto.PagosResponse, error) {
	ses, err := s.find(id)
	if err != nil {
		return nil, err
	}

	tasaResp, err := s.tasa.TasaDelDia(ctx)
	if err != nil {
		return nil, err
	}

	ses.mu.Lock()
	defer ses.mu.Unlock()
	if ses.cart.Vacio() {
		return nil, ErrCarritoVacio
	}
	ses.pagos = checkout.NewPaymentSession(ses.cart.Total(), tasaResp.Tasa, ses.cart.Cliente())
	ses.touch()
	return buildPagosResponse(ses.pagos), nil
}

func (s *checkoutService) AgregarPago(_ context.Context, id uuid.UUID, req dto.AgregarPagoRequest) (*dto.PagosResponse, error) {
	ses, err := s.find(id)
	if err != nil {
		return nil, err
	}
	ses.mu.Lock()
	defer ses.mu.Unlock()
	if ses.pagos == nil {
		return nil, ErrPagosNoIniciados
	}
	if _, err := ses.pagos.AddPago(checkout.PagoInput{
		Metodo:      checkout.Metodo(req.Metodo),
		Monto:       req.Monto,
		Referencia:  req.Referencia,
		Banco:       req.Banco,
		TipoTarjeta: req.TipoTarjeta,
		SubTipo:     req.SubTipo,
		Plataforma:  req.Plataforma,
	}); err != nil {
		return nil, err
	}
	ses.touch()
	return buildPagosResponse(ses.pagos), nil
}

func (s *checkoutService) EliminarPago(_ context.Context, id uuid.UUID, indice int) (*dto.PagosResponse, error) {
	ses, err := s.find(id)
	if err != nil {
		return nil, err
	}
	ses.mu.Lock()
	defer ses.mu.Unlock()
	if ses.pagos == nil {
		return nil, ErrPagosNoIniciados
	}
	if err := ses.pagos.RemovePago(indice); err != nil {
		return nil, err
	}
	ses.touch()
	return buildPagosResponse(ses.pagos), nil
}

// Finalizar valida la conciliación y delega el registro en VentaService. Si el
// servidor rechaza la venta, la sesión queda intacta para corregir y
// reintentar; solo el éxito la destruye.
func (s *checkoutService) Finalizar(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	ses, err := s.find(id)
	if err != nil {
		return nil, err
	}
	ses.mu.Lock()
	defer ses.mu.Unlock()
	if ses.pagos == nil {
		return nil, ErrPagosNoIniciados
	}
	if err := ses.pagos.ValidarFinalizacion(); err != nil {
		return nil, err
	}

	req := checkout.BuildVentaRequest(ses.cart, ses.pagos, ses.sesionCajaID, ses.vendedorID)
	resp, err := s.ventas.RegistrarVenta(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return resp, nil
}

func (s *checkoutService) Cancelar(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrCheckoutNoEncontrado
	}
	delete(s.sessions, id)
	return nil
}

func (s *checkoutService) find(id uuid.UUID) (*checkoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ses, ok := s.sessions[id]
	if !ok {
		return nil, ErrCheckoutNoEncontrado
	}
	return ses, nil
}

// invalidatePagos descarta la conciliación abierta: cualquier mutación del
// carrito cambia el total y los pagos aceptados dejan de ser válidos.
// Debe llamarse con ses.mu tomado.
func (ses *checkoutSession) invalidatePagos() { ses.pagos = nil }

func (ses *checkoutSession) touch() { ses.lastTouch = time.Now() }

// ── Purga de sesiones inactivas ───────────────────────────────────────────────

const checkoutPurgeInterval = 5 * time.Minute

func (s *checkoutService) StartPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(checkoutPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.purgeIdle()
			}
		}
	}()
}

func (s *checkoutService) purgeIdle() {
	cutoff := time.Now().Add(-s.idleTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, ses := range s.sessions {
		if ses.lastTouch.Before(cutoff) {
			delete(s.sessions, id)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().Int("purged", purged).Int("remaining", len(s.sessions)).Msg("checkouts inactivos purgados")
	}
}

// ── Builders ──────────────────────────────────────────────────────────────────

func buildCheckoutResponse(id uuid.UUID, ses *checkoutSession) *dto.CheckoutResponse {
	lineas := ses.cart.Lineas()
	lineasResp := make([]dto.LineaResponse, 0, len(lineas))
	for _, l := range lineas {
		lineasResp = append(lineasResp, dto.LineaResponse{
			ProductoID:  l.Producto.ID.String(),
			Codigo:      l.Producto.Codigo,
			Nombre:      l.Producto.Nombre,
			PrecioVenta: l.Producto.PrecioVenta,
			Cantidad:    l.Cantidad,
			Subtotal:    l.Subtotal,
		})
	}

	resp := &dto.CheckoutResponse{
		ID:        id.String(),
		Lineas:    lineasResp,
		Subtotal:  ses.cart.Subtotal(),
		Descuento: ses.cart.Descuento(),
		Total:     ses.cart.Total(),
	}
	if cliente := ses.cart.Cliente(); cliente != nil {
		resp.Cliente = &dto.ClienteResponse{
			ID:            cliente.ID.String(),
			Nombre:        cliente.Nombre,
			LimiteCredito: cliente.LimiteCredito,
			Saldo:         cliente.Saldo,
		}
	}
	if ses.pagos != nil {
		resp.Pagos = buildPagosResponse(ses.pagos)
	}
	return resp
}

func buildPagosResponse(ps *checkout.PaymentSession) *dto.PagosResponse {
	pagos := ps.Pagos()
	pagosResp := make([]dto.PagoResponse, 0, len(pagos))
	for _, p := range pagos {
		pagosResp = append(pagosResp, dto.PagoResponse{
			Metodo:     string(p.Metodo),
			MontoUSD:   p.MontoUSD,
			MontoVES:   p.MontoVES,
			Referencia: p.Referencia,
			Tasa:       p.Tasa,
		})
	}
	return &dto.PagosResponse{
		Total:          ps.Total(),
		Tasa:           ps.Tasa(),
		Pagos:          pagosResp,
		TotalPagado:    ps.TotalPagado(),
		Restante:       ps.Restante(),
		Estado:         string(ps.Estado()),
		PuedeFinalizar: ps.PuedeFinalizar(),
	}
}
