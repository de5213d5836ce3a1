package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"venpos/internal/dto"
	"venpos/internal/infra"
	"venpos/internal/model"
	"venpos/internal/repository"
)

// ErrSinTasa se devuelve cuando no hay tasa disponible para hoy por ninguna
// vía (cache, base, proveedor). Sin tasa no se pueden aceptar pagos en VES.
var ErrSinTasa = errors.New("no hay tasa de cambio registrada para hoy")

// TasaCambioService resuelve la tasa VES/USD del día.
// Orden de resolución: cache Redis → base de datos → proveedor externo.
// Una tasa fijada manualmente por un supervisor pisa la del proveedor.
type TasaCambioService interface {
	TasaDelDia(ctx context.Context) (*dto.TasaResponse, error)
	RegistrarManual(ctx context.Context, tasa decimal.Decimal) (*dto.TasaResponse, error)
	Historial(ctx context.Context, limit int) ([]dto.TasaResponse, error)
	// Refrescar trae la tasa del proveedor y la persiste, salvo que la fecha
	// ya tenga una tasa manual.
	Refrescar(ctx context.Context) error
}

type tasaService struct {
	repo     repository.TasaRepository
	provider *infra.TasaProvider
	rdb      *redis.Client
	cacheTTL time.Duration
}

func NewTasaCambioService(repo repository.TasaRepository, provider *infra.TasaProvider, rdb *redis.Client, cacheTTL time.Duration) TasaCambioService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &tasaService{repo: repo, provider: provider, rdb: rdb, cacheTTL: cacheTTL}
}

func hoy() string { return time.Now().Format("2006-01-02") }

func cacheKeyTasa(fecha string) string { return "tasa:" + fecha }

func (s *tasaService) TasaDelDia(ctx context.Context) (*dto.TasaResponse, error) {
	fecha := hoy()

	// 1. Cache
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, cacheKeyTasa(fecha)).Result(); err == nil {
			if tasa, derr := decimal.NewFromString(raw); derr == nil {
				return &dto.TasaResponse{Tasa: tasa, Fecha: fecha, Fuente: "cache"}, nil
			}
		}
	}

	// 2. Base de datos
	if t, err := s.repo.FindByFecha(ctx, fecha); err == nil {
		s.cachear(ctx, fecha, t.Tasa)
		return &dto.TasaResponse{Tasa: t.Tasa, Fecha: fecha, Fuente: t.Fuente}, nil
	}

	// 3. Proveedor externo (circuit breaker por dentro)
	if err := s.Refrescar(ctx); err != nil {
		return nil, ErrSinTasa
	}
	t, err := s.repo.FindByFecha(ctx, fecha)
	if err != nil {
		return nil, ErrSinTasa
	}
	return &dto.TasaResponse{Tasa: t.Tasa, Fecha: fecha, Fuente: t.Fuente}, nil
}

func (s *tasaService) RegistrarManual(ctx context.Context, tasa decimal.Decimal) (*dto.TasaResponse, error) {
	if tasa.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("la tasa debe ser mayor que cero")
	}
	fecha := hoy()
	t := &model.TasaCambio{Fecha: fecha, Tasa: tasa, Fuente: "manual"}
	if err := s.repo.Upsert(ctx, t); err != nil {
		return nil, err
	}
	s.cachear(ctx, fecha, tasa)
	return &dto.TasaResponse{Tasa: tasa, Fecha: fecha, Fuente: "manual"}, nil
}

func (s *tasaService) Historial(ctx context.Context, limit int) ([]dto.TasaResponse, error) {
	if limit < 1 {
		limit = 30
	}
	tasas, err := s.repo.Historial(ctx, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.TasaResponse, len(tasas))
	for i, t := range tasas {
		resp[i] = dto.TasaResponse{Tasa: t.Tasa, Fecha: t.Fecha, Fuente: t.Fuente}
	}
	return resp, nil
}

func (s *tasaService) Refrescar(ctx context.Context) error {
	if s.provider == nil {
		return errors.New("no hay proveedor de tasa configurado")
	}
	fecha := hoy()

	// La tasa manual del día es autoritativa — no se pisa con el proveedor.
	if existing, err := s.repo.FindByFecha(ctx, fecha); err == nil && existing.Fuente == "manual" {
		return nil
	}

	tasa, err := s.provider.FetchTasa(ctx)
	if err != nil {
		return err
	}
	t := &model.TasaCambio{Fecha: fecha, Tasa: tasa, Fuente: "proveedor"}
	if err := s.repo.Upsert(ctx, t); err != nil {
		return err
	}
	s.cachear(ctx, fecha, tasa)
	log.Info().Str("fecha", fecha).Str("tasa", tasa.String()).Msg("tasa del proveedor registrada")
	return nil
}

func (s *tasaService) cachear(ctx context.Context, fecha string, tasa decimal.Decimal) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Set(ctx, cacheKeyTasa(fecha), tasa.String(), s.cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("no se pudo cachear la tasa")
	}
}
