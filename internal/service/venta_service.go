package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"venpos/internal/checkout"
	"venpos/internal/dto"
	"venpos/internal/model"
	"venpos/internal/money"
	"venpos/internal/repository"
	"venpos/internal/worker"
)

var (
	ErrPagosNoConciliados = errors.New("los pagos no cubren el total de la venta")
	ErrStockVenta         = errors.New("stock insuficiente para completar la venta")
)

type VentaService interface {
	RegistrarVenta(ctx context.Context, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	AnularVenta(ctx context.Context, id uuid.UUID, motivo string) error
	Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	ListVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
}

type ventaService struct {
	repo         repository.VentaRepository
	productoRepo repository.ProductoRepository
	clienteRepo  repository.ClienteRepository
	cajaRepo     repository.CajaRepository
	caja         CajaService
	dispatcher   *worker.Dispatcher
}

func NewVentaService(
	repo repository.VentaRepository,
	productoRepo repository.ProductoRepository,
	clienteRepo repository.ClienteRepository,
	cajaRepo repository.CajaRepository,
	caja CajaService,
	dispatcher *worker.Dispatcher,
) VentaService {
	return &ventaService{
		repo:         repo,
		productoRepo: productoRepo,
		clienteRepo:  clienteRepo,
		cajaRepo:     cajaRepo,
		caja:         caja,
		dispatcher:   dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// Registro atómico de una venta conciliada:
//  1. Validar sesión de caja abierta
//  2. Resolver productos y recalcular totales con precios del servidor
//  3. Validar que Σ pagos cuadre con el total (tolerancia monetaria)
//  4. BEGIN TX: nextval ticket, crear venta+items+pagos, descontar stock con
//     revalidación, asentar movimientos de caja, cargar crédito al cliente
//  5. COMMIT
//  6. (async) encolar generación de ticket PDF

func (s *ventaService) RegistrarVenta(ctx context.Context, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, fmt.Errorf("sesion_caja_id inválido: %w", err)
	}
	vendedorID, err := uuid.Parse(req.VendedorID)
	if err != nil {
		return nil, fmt.Errorf("vendedor_id inválido: %w", err)
	}

	// 1. Sesión de caja abierta
	if err := s.caja.ValidarSesionAbierta(ctx, sesionID); err != nil {
		return nil, err
	}

	// 2. Resolver productos con precios autoritativos del servidor
	type resolvedItem struct {
		productoID uuid.UUID
		nombre     string
		precio     decimal.Decimal
		cantidad   int
		subtotal   decimal.Decimal
	}
	var resolved []resolvedItem
	subtotal := decimal.Zero

	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("producto_id inválido: %w", err)
		}
		p, err := s.productoRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("producto %s no encontrado", item.ProductoID)
		}
		if !p.Activo {
			return nil, fmt.Errorf("producto %s está inactivo y no puede venderse", p.Nombre)
		}
		if p.Stock < item.Cantidad {
			return nil, fmt.Errorf("%w: %s (disponible %d, solicitado %d)", ErrStockVenta, p.Nombre, p.Stock, item.Cantidad)
		}
		lineSubtotal := p.PrecioVenta.Mul(decimal.NewFromInt(int64(item.Cantidad)))
		subtotal = subtotal.Add(lineSubtotal)
		resolved = append(resolved, resolvedItem{
			productoID: pid,
			nombre:     p.Nombre,
			precio:     p.PrecioVenta,
			cantidad:   item.Cantidad,
			subtotal:   lineSubtotal,
		})
	}

	if req.Descuento.IsNegative() {
		return nil, errors.New("el descuento no puede ser negativo")
	}
	total := subtotal.Sub(req.Descuento)
	if total.IsNegative() {
		total = decimal.Zero
	}

	// 3. Conciliación: Σ pagos debe cuadrar con el total
	pagado := decimal.Zero
	montoCredito := decimal.Zero
	for _, pago := range req.Pagos {
		if pago.MontoUSD.LessThanOrEqual(decimal.Zero) {
			return nil, errors.New("todo pago debe tener monto positivo")
		}
		pagado = pagado.Add(pago.MontoUSD)
		if pago.Metodo == string(checkout.MetodoCredito) {
			montoCredito = montoCredito.Add(pago.MontoUSD)
		}
	}
	if !money.DentroDeTolerancia(total.Sub(pagado)) {
		return nil, ErrPagosNoConciliados
	}

	// Venta fiada exige cliente identificado
	var clienteID *uuid.UUID
	if req.ClienteID != nil {
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, fmt.Errorf("cliente_id inválido: %w", err)
		}
		clienteID = &cid
	}
	if montoCredito.IsPositive() && clienteID == nil {
		return nil, checkout.ErrClienteRequerido
	}

	metodoPago := req.MetodoPago
	if metodoPago == "" {
		metodoPago = consolidarMetodo(req.Pagos)
	}

	// 4. Transacción ACID
	var venta model.Venta
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ticketNum, err := s.repo.NextTicketNumber(ctx, tx)
		if err != nil {
			return err
		}

		venta = model.Venta{
			NumeroTicket: ticketNum,
			SesionCajaID: sesionID,
			VendedorID:   vendedorID,
			ClienteID:    clienteID,
			MetodoPago:   metodoPago,
			Subtotal:     subtotal,
			Descuento:    req.Descuento,
			TotalUSD:     total,
			PagadoUSD:    pagado,
			Estado:       "completada",
		}
		for _, r := range resolved {
			venta.Items = append(venta.Items, model.VentaItem{
				ProductoID:     r.productoID,
				Cantidad:       r.cantidad,
				PrecioUnitario: r.precio,
				Subtotal:       r.subtotal,
			})
		}
		for _, pago := range req.Pagos {
			venta.Pagos = append(venta.Pagos, model.VentaPago{
				Metodo:     pago.Metodo,
				MontoUSD:   pago.MontoUSD,
				MontoVES:   pago.MontoVES,
				Referencia: pago.Referencia,
				TasaCambio: pago.TasaCambio,
			})
		}
		if err := s.repo.Create(ctx, tx, &venta); err != nil {
			return err
		}

		// Descontar stock con revalidación dentro de la tx
		for _, r := range resolved {
			prod, err := s.productoRepo.FindByIDTx(tx, r.productoID)
			if err != nil {
				return err
			}
			if prod.Stock < r.cantidad {
				return fmt.Errorf("%w: %s", ErrStockVenta, r.nombre)
			}
			if err := s.productoRepo.UpdateStockTx(tx, r.productoID, -r.cantidad); err != nil {
				return fmt.Errorf("error descontando stock de %s: %w", r.nombre, err)
			}
			ventaRef := venta.ID
			mov := &model.MovimientoStock{
				ProductoID:    r.productoID,
				Tipo:          "venta",
				Cantidad:      -r.cantidad,
				StockAnterior: prod.Stock,
				StockNuevo:    prod.Stock - r.cantidad,
				Motivo:        fmt.Sprintf("Venta #%d", ticketNum),
				ReferenciaID:  &ventaRef,
			}
			if err := s.productoRepo.CreateMovimientoTx(tx, mov); err != nil {
				return err
			}
		}

		// Movimiento de caja por cada pago
		for _, pago := range venta.Pagos {
			metodo := pago.Metodo
			mov := &model.MovimientoCaja{
				SesionCajaID: sesionID,
				Tipo:         "venta",
				MetodoPago:   &metodo,
				Monto:        pago.MontoUSD,
				Descripcion:  fmt.Sprintf("Venta #%d", ticketNum),
				ReferenciaID: &venta.ID,
			}
			if err := s.cajaRepo.CreateMovimientoTx(tx, mov); err != nil {
				return err
			}
		}

		// Crédito: revalidar disponible con datos frescos y cargar el saldo
		if montoCredito.IsPositive() {
			cliente, err := s.clienteRepo.FindByIDTx(tx, *clienteID)
			if err != nil {
				return errors.New("cliente no encontrado")
			}
			disponible := cliente.LimiteCredito.Sub(cliente.Saldo)
			if disponible.LessThan(montoCredito) {
				return checkout.ErrCreditoInsuficiente
			}
			if err := s.clienteRepo.AjustarSaldoTx(tx, *clienteID, montoCredito); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// 5. Ticket PDF + email asíncronos (best-effort)
	if s.dispatcher != nil {
		payload := worker.TicketJobPayload{VentaID: venta.ID.String()}
		if clienteID != nil {
			if cliente, err := s.clienteRepo.FindByID(ctx, *clienteID); err == nil {
				payload.ClienteEmail = cliente.Email
			}
		}
		_ = s.dispatcher.EnqueueTicket(ctx, payload)
	}

	resp := ventaToResponse(&venta)
	for i, r := range resolved {
		resp.Items[i].Producto = r.nombre
	}
	return resp, nil
}

// ── AnularVenta ───────────────────────────────────────────────────────────────
// Reversa completa: stock restaurado, movimientos de caja inversos y descargo
// del crédito fiado. La venta queda en estado "anulada"; nada se borra.

func (s *ventaService) AnularVenta(ctx context.Context, id uuid.UUID, motivo string) error {
	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return errors.New("venta no encontrada")
	}
	if venta.Estado == "anulada" {
		return errors.New("la venta ya está anulada")
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, item := range venta.Items {
			prod, err := s.productoRepo.FindByIDTx(tx, item.ProductoID)
			stockAntes := 0
			if err == nil && prod != nil {
				stockAntes = prod.Stock
			}
			if err := s.productoRepo.UpdateStockTx(tx, item.ProductoID, item.Cantidad); err != nil {
				return err
			}
			ventaRef := venta.ID
			mov := &model.MovimientoStock{
				ProductoID:    item.ProductoID,
				Tipo:          "restore_anulacion",
				Cantidad:      item.Cantidad,
				StockAnterior: stockAntes,
				StockNuevo:    stockAntes + item.Cantidad,
				Motivo:        fmt.Sprintf("Anulación venta #%d — %s", venta.NumeroTicket, motivo),
				ReferenciaID:  &ventaRef,
			}
			if err := s.productoRepo.CreateMovimientoTx(tx, mov); err != nil {
				return err
			}
		}

		montoCredito := decimal.Zero
		for _, pago := range venta.Pagos {
			metodo := pago.Metodo
			mov := &model.MovimientoCaja{
				SesionCajaID: venta.SesionCajaID,
				Tipo:         "anulacion",
				MetodoPago:   &metodo,
				Monto:        pago.MontoUSD.Neg(),
				Descripcion:  fmt.Sprintf("Anulación venta #%d — %s", venta.NumeroTicket, motivo),
				ReferenciaID: &venta.ID,
			}
			if err := s.cajaRepo.CreateMovimientoTx(tx, mov); err != nil {
				return err
			}
			if pago.Metodo == string(checkout.MetodoCredito) {
				montoCredito = montoCredito.Add(pago.MontoUSD)
			}
		}

		if montoCredito.IsPositive() && venta.ClienteID != nil {
			if err := s.clienteRepo.AjustarSaldoTx(tx, *venta.ClienteID, montoCredito.Neg()); err != nil {
				return err
			}
		}

		return s.repo.UpdateEstadoTx(tx, id, "anulada")
	})
}

func (s *ventaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("venta no encontrada")
	}
	return ventaToResponse(venta), nil
}

// ListVentas returns a paginated list of sales, filtered by date and estado.
// Default filter: today's completed sales.
func (s *ventaService) ListVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Estado == "" {
		filter.Estado = "completada"
	}
	ventas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		data = append(data, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// consolidarMetodo deriva la etiqueta del conjunto de pagos: el método único
// o "MIXTO" cuando hay más de uno.
func consolidarMetodo(pagos []dto.PagoVentaRequest) string {
	if len(pagos) == 0 {
		return ""
	}
	if len(pagos) > 1 {
		return string(checkout.MetodoMixto)
	}
	return pagos[0].Metodo
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, item := range v.Items {
		nombre := ""
		if item.Producto != nil {
			nombre = item.Producto.Nombre
		}
		items = append(items, dto.ItemVentaResponse{
			Producto:       nombre,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       item.Subtotal,
		})
	}
	pagos := make([]dto.PagoVentaResponse, 0, len(v.Pagos))
	for _, p := range v.Pagos {
		pagos = append(pagos, dto.PagoVentaResponse{
			Metodo:     p.Metodo,
			MontoUSD:   p.MontoUSD,
			MontoVES:   p.MontoVES,
			Referencia: p.Referencia,
			TasaCambio: p.TasaCambio,
		})
	}
	var cliente *string
	if v.Cliente != nil {
		cliente = &v.Cliente.Nombre
	}
	return &dto.VentaResponse{
		ID:           v.ID.String(),
		NumeroTicket: v.NumeroTicket,
		MetodoPago:   v.MetodoPago,
		Items:        items,
		Subtotal:     v.Subtotal,
		Descuento:    v.Descuento,
		TotalUSD:     v.TotalUSD,
		PagadoUSD:    v.PagadoUSD,
		SaldoUSD:     v.TotalUSD.Sub(v.PagadoUSD),
		Pagos:        pagos,
		Cliente:      cliente,
		Estado:       v.Estado,
		CreatedAt:    v.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
