package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"venpos/internal/dto"
	"venpos/internal/model"
	"venpos/internal/money"
	"venpos/internal/repository"
)

// precioCacheTTL acota cuánto puede vivir un precio servido por el verificador
// público sin releer la base.
const precioCacheTTL = 60 * time.Second

type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	AjustarStock(ctx context.Context, id uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error)
	// ConsultarPrecio es el verificador público: por código de barras, con el
	// precio derivado en bolívares a la tasa del día.
	ConsultarPrecio(ctx context.Context, codigo string) (*dto.ConsultaPrecioResponse, error)
}

type productoService struct {
	repo repository.ProductoRepository
	tasa TasaCambioService
	rdb  *redis.Client
}

func NewProductoService(repo repository.ProductoRepository, tasa TasaCambioService, rdb *redis.Client) ProductoService {
	return &productoService{repo: repo, tasa: tasa, rdb: rdb}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	if req.PrecioVenta.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("el precio de venta debe ser mayor que cero")
	}
	p := &model.Producto{
		Codigo:      req.Codigo,
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Categoria:   req.Categoria,
		PrecioCosto: req.PrecioCosto,
		PrecioVenta: req.PrecioVenta,
		MargenPct:   calcularMargen(req.PrecioCosto, req.PrecioVenta),
		Stock:       req.Stock,
		StockMinimo: req.StockMinimo,
		Activo:      true,
	}
	if p.Categoria == "" {
		p.Categoria = "general"
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductoResponse, len(productos))
	for i := range productos {
		data[i] = productoToResponse(&productos[i])
	}
	return &dto.ProductoListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}
	if req.Nombre != "" {
		p.Nombre = req.Nombre
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.Categoria != nil {
		p.Categoria = *req.Categoria
	}
	if req.PrecioCosto != nil {
		p.PrecioCosto = *req.PrecioCosto
	}
	if req.PrecioVenta != nil {
		if req.PrecioVenta.LessThanOrEqual(decimal.Zero) {
			return nil, errors.New("el precio de venta debe ser mayor que cero")
		}
		p.PrecioVenta = *req.PrecioVenta
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}
	p.MargenPct = calcularMargen(p.PrecioCosto, p.PrecioVenta)

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidarPrecio(ctx, p.Codigo)
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return errors.New("producto no encontrado")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidarPrecio(ctx, p.Codigo)
	return nil
}

func (s *productoService) AjustarStock(ctx context.Context, id uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}
	nuevo := p.Stock + req.Cantidad
	if nuevo < 0 {
		return nil, fmt.Errorf("el ajuste dejaría el stock en %d", nuevo)
	}
	if err := s.repo.AjustarStock(ctx, id, req.Cantidad); err != nil {
		return nil, err
	}
	mov := &model.MovimientoStock{
		ProductoID:    id,
		Tipo:          "ajuste_manual",
		Cantidad:      req.Cantidad,
		StockAnterior: p.Stock,
		StockNuevo:    nuevo,
		Motivo:        req.Motivo,
	}
	if err := s.repo.CreateMovimiento(ctx, mov); err != nil {
		return nil, err
	}
	p.Stock = nuevo
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) ConsultarPrecio(ctx context.Context, codigo string) (*dto.ConsultaPrecioResponse, error) {
	cacheKey := "precio:" + codigo

	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var cached dto.ConsultaPrecioResponse
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		}
	}

	p, err := s.repo.FindByCodigo(ctx, codigo)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}

	precioVES := decimal.Zero
	if tasa, err := s.tasa.TasaDelDia(ctx); err == nil {
		precioVES = money.USDToVES(p.PrecioVenta, tasa.Tasa)
	}

	resp := &dto.ConsultaPrecioResponse{
		Nombre:      p.Nombre,
		PrecioVenta: p.PrecioVenta,
		PrecioVES:   precioVES,
		Stock:       p.Stock,
		Categoria:   p.Categoria,
	}
	if s.rdb != nil {
		if data, err := json.Marshal(resp); err == nil {
			_ = s.rdb.Set(ctx, cacheKey, data, precioCacheTTL).Err()
		}
	}
	return resp, nil
}

func (s *productoService) invalidarPrecio(ctx context.Context, codigo string) {
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, "precio:"+codigo).Err()
	}
}

func calcularMargen(costo, venta decimal.Decimal) decimal.Decimal {
	if costo.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return venta.Sub(costo).Div(costo).Mul(decimal.NewFromInt(100)).Round(2)
}

func productoToResponse(p *model.Producto) dto.ProductoResponse {
	return dto.ProductoResponse{
		ID:          p.ID.String(),
		Codigo:      p.Codigo,
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Categoria:   p.Categoria,
		PrecioCosto: p.PrecioCosto,
		PrecioVenta: p.PrecioVenta,
		MargenPct:   p.MargenPct,
		Stock:       p.Stock,
		StockMinimo: p.StockMinimo,
		Activo:      p.Activo,
	}
}
