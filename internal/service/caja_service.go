package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"venpos/internal/dto"
	"venpos/internal/model"
	"venpos/internal/money"
	"venpos/internal/repository"
)

var ErrSesionCerrada = errors.New("no hay sesion de caja abierta")

type CajaService interface {
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.ReporteCajaResponse, error)
	RegistrarMovimiento(ctx context.Context, req dto.MovimientoManualRequest) error
	Cerrar(ctx context.Context, req dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error)
	Reporte(ctx context.Context, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error)
	SesionActiva(ctx context.Context, puntoDeVenta int) (*dto.ReporteCajaResponse, error)
	// ValidarSesionAbierta la usa VentaService antes de registrar una venta.
	ValidarSesionAbierta(ctx context.Context, sesionID uuid.UUID) error
}

type cajaService struct {
	repo repository.CajaRepository
}

func NewCajaService(repo repository.CajaRepository) CajaService {
	return &cajaService{repo: repo}
}

func (s *cajaService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.ReporteCajaResponse, error) {
	// Guard: una sola sesión abierta por punto de venta
	if existing, err := s.repo.FindSesionAbiertaPorPDV(ctx, req.PuntoDeVenta); err == nil && existing != nil {
		return nil, errors.New("ya existe una caja abierta en este punto de venta")
	}
	if req.MontoInicial.IsNegative() {
		return nil, errors.New("el monto inicial no puede ser negativo")
	}

	sesion := &model.SesionCaja{
		PuntoDeVenta: req.PuntoDeVenta,
		UsuarioID:    usuarioID,
		MontoInicial: req.MontoInicial,
		Estado:       "abierta",
		OpenedAt:     time.Now(),
	}
	if err := s.repo.CreateSesion(ctx, sesion); err != nil {
		return nil, err
	}
	return s.buildReporte(ctx, sesion)
}

// RegistrarMovimiento asienta un ingreso o egreso manual de efectivo.
// Los movimientos son inmutables — no hay Update ni Delete.
func (s *cajaService) RegistrarMovimiento(ctx context.Context, req dto.MovimientoManualRequest) error {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return fmt.Errorf("sesion_caja_id inválido: %w", err)
	}
	if err := s.ValidarSesionAbierta(ctx, sesionID); err != nil {
		return err
	}
	if req.Monto.LessThanOrEqual(decimal.Zero) {
		return errors.New("el monto del movimiento debe ser mayor que cero")
	}

	monto := req.Monto
	if req.Tipo == "egreso_manual" {
		monto = req.Monto.Neg()
	}
	metodo := "EFECTIVO"
	mov := &model.MovimientoCaja{
		SesionCajaID: sesionID,
		Tipo:         req.Tipo,
		MetodoPago:   &metodo,
		Monto:        monto,
		Descripcion:  req.Descripcion,
	}
	return s.repo.CreateMovimiento(ctx, mov)
}

// Cerrar arquea la sesión con conteo ciego: el cajero declara sin ver el
// esperado; la diferencia declarado − esperado se clasifica como
// cuadrada | sobrante | faltante.
func (s *cajaService) Cerrar(ctx context.Context, req dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, fmt.Errorf("sesion_caja_id inválido: %w", err)
	}
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return nil, errors.New("sesión de caja no encontrada")
	}
	if sesion.Estado != "abierta" {
		return nil, errors.New("la sesión ya está cerrada")
	}

	sumEfectivo, err := s.repo.SumEfectivo(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	esperado := sesion.MontoInicial.Add(sumEfectivo)
	diferencia := req.MontoDeclarado.Sub(esperado)
	clasificacion := ClasificarDiferencia(diferencia)

	now := time.Now()
	declarado := req.MontoDeclarado
	sesion.MontoEsperado = &esperado
	sesion.MontoDeclarado = &declarado
	sesion.Diferencia = &diferencia
	sesion.Clasificacion = &clasificacion
	sesion.Observaciones = req.Observaciones
	sesion.Estado = "cerrada"
	sesion.ClosedAt = &now

	if err := s.repo.UpdateSesion(ctx, sesion); err != nil {
		return nil, err
	}

	return &dto.CierreCajaResponse{
		SesionCajaID:   sesionID.String(),
		MontoEsperado:  esperado,
		MontoDeclarado: declarado,
		Diferencia: dto.DiferenciaResponse{
			Monto:         diferencia,
			Clasificacion: clasificacion,
		},
		Estado: "cerrada",
	}, nil
}

func (s *cajaService) Reporte(ctx context.Context, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return nil, errors.New("sesión de caja no encontrada")
	}
	return s.buildReporte(ctx, sesion)
}

func (s *cajaService) SesionActiva(ctx context.Context, puntoDeVenta int) (*dto.ReporteCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbiertaPorPDV(ctx, puntoDeVenta)
	if err != nil {
		return nil, ErrSesionCerrada
	}
	return s.buildReporte(ctx, sesion)
}

func (s *cajaService) ValidarSesionAbierta(ctx context.Context, sesionID uuid.UUID) error {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return errors.New("sesión de caja no encontrada")
	}
	if sesion.Estado != "abierta" {
		return ErrSesionCerrada
	}
	return nil
}

// ClasificarDiferencia devuelve "cuadrada" | "sobrante" | "faltante".
// Una diferencia dentro de la tolerancia monetaria cuenta como cuadrada.
func ClasificarDiferencia(diferencia decimal.Decimal) string {
	switch {
	case money.DentroDeTolerancia(diferencia):
		return "cuadrada"
	case diferencia.IsPositive():
		return "sobrante"
	default:
		return "faltante"
	}
}

func (s *cajaService) buildReporte(ctx context.Context, sesion *model.SesionCaja) (*dto.ReporteCajaResponse, error) {
	sumEfectivo, err := s.repo.SumEfectivo(ctx, sesion.ID)
	if err != nil {
		return nil, err
	}
	movs, err := s.repo.ListMovimientos(ctx, sesion.ID)
	if err != nil {
		return nil, err
	}

	movimientos := make([]dto.MovimientoCajaResponse, len(movs))
	for i, m := range movs {
		movimientos[i] = dto.MovimientoCajaResponse{
			Tipo:        m.Tipo,
			MetodoPago:  m.MetodoPago,
			Monto:       m.Monto,
			Descripcion: m.Descripcion,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		}
	}

	reporte := &dto.ReporteCajaResponse{
		SesionCajaID:  sesion.ID.String(),
		PuntoDeVenta:  sesion.PuntoDeVenta,
		MontoInicial:  sesion.MontoInicial,
		MontoEsperado: sesion.MontoInicial.Add(sumEfectivo),
		Movimientos:   movimientos,
		Estado:        sesion.Estado,
		Observaciones: sesion.Observaciones,
		OpenedAt:      sesion.OpenedAt.Format(time.RFC3339),
	}
	if sesion.MontoDeclarado != nil {
		reporte.MontoDeclarado = sesion.MontoDeclarado
	}
	if sesion.Diferencia != nil && sesion.Clasificacion != nil {
		reporte.Diferencia = &dto.DiferenciaResponse{
			Monto:         *sesion.Diferencia,
			Clasificacion: *sesion.Clasificacion,
		}
	}
	if sesion.ClosedAt != nil {
		t := sesion.ClosedAt.Format(time.RFC3339)
		reporte.ClosedAt = &t
	}
	return reporte, nil
}
