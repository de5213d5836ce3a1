package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"venpos/internal/infra"
	"venpos/internal/model"
	"venpos/internal/repository"
	"venpos/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── In-memory TasaRepository ─────────────────────────────────────────────────

type memTasaRepo struct {
	porFecha map[string]*model.TasaCambio
}

func newMemTasaRepo() *memTasaRepo {
	return &memTasaRepo{porFecha: make(map[string]*model.TasaCambio)}
}

func (r *memTasaRepo) FindByFecha(_ context.Context, fecha string) (*model.TasaCambio, error) {
	t, ok := r.porFecha[fecha]
	if !ok {
		return nil, errors.New("not found")
	}
	copia := *t
	return &copia, nil
}

func (r *memTasaRepo) Upsert(_ context.Context, t *model.TasaCambio) error {
	copia := *t
	r.porFecha[t.Fecha] = &copia
	return nil
}

func (r *memTasaRepo) Historial(_ context.Context, limit int) ([]model.TasaCambio, error) {
	var result []model.TasaCambio
	for _, t := range r.porFecha {
		result = append(result, *t)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

var _ repository.TasaRepository = (*memTasaRepo)(nil)

func proveedorFalso(t *testing.T, tasa string) *infra.TasaProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"promedio": ` + tasa + `, "fechaActualizacion": "2026-08-31T08:00:00Z"}`))
	}))
	t.Cleanup(srv.Close)
	return infra.NewTasaProvider(srv.URL, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestTasaDelDia_DesdeBase(t *testing.T) {
	repo := newMemTasaRepo()
	hoy := time.Now().Format("2006-01-02")
	require.NoError(t, repo.Upsert(context.Background(), &model.TasaCambio{
		Fecha:  hoy,
		Tasa:   decimal.NewFromFloat(36.5),
		Fuente: "manual",
	}))
	svc := service.NewTasaCambioService(repo, nil, nil, 0)

	resp, err := svc.TasaDelDia(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "36.5", resp.Tasa.String())
	assert.Equal(t, hoy, resp.Fecha)
	assert.Equal(t, "manual", resp.Fuente)
}

func TestTasaDelDia_SinNingunaFuente(t *testing.T) {
	svc := service.NewTasaCambioService(newMemTasaRepo(), nil, nil, 0)

	_, err := svc.TasaDelDia(context.Background())
	assert.ErrorIs(t, err, service.ErrSinTasa)
}

func TestTasaDelDia_CaeAlProveedor(t *testing.T) {
	repo := newMemTasaRepo()
	svc := service.NewTasaCambioService(repo, proveedorFalso(t, "40.1234"), nil, 0)

	resp, err := svc.TasaDelDia(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "40.1234", resp.Tasa.String())
	assert.Equal(t, "proveedor", resp.Fuente)

	// La tasa quedó persistida para el resto del día
	guardada, err := repo.FindByFecha(context.Background(), resp.Fecha)
	require.NoError(t, err)
	assert.Equal(t, "proveedor", guardada.Fuente)
}

func TestRegistrarManual(t *testing.T) {
	repo := newMemTasaRepo()
	svc := service.NewTasaCambioService(repo, nil, nil, 0)

	resp, err := svc.RegistrarManual(context.Background(), decimal.NewFromFloat(37.2))
	require.NoError(t, err)
	assert.Equal(t, "manual", resp.Fuente)

	_, err = svc.RegistrarManual(context.Background(), decimal.Zero)
	assert.ErrorContains(t, err, "mayor que cero")
}

func TestRefrescar_RespetaTasaManual(t *testing.T) {
	repo := newMemTasaRepo()
	svc := service.NewTasaCambioService(repo, proveedorFalso(t, "40"), nil, 0)

	_, err := svc.RegistrarManual(context.Background(), decimal.NewFromFloat(36.5))
	require.NoError(t, err)

	// El proveedor publica 40 pero la manual del día manda
	require.NoError(t, svc.Refrescar(context.Background()))

	resp, err := svc.TasaDelDia(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "36.5", resp.Tasa.String())
	assert.Equal(t, "manual", resp.Fuente)
}

func TestRefrescar_ProveedorCaido(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	provider := infra.NewTasaProvider(srv.URL, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	svc := service.NewTasaCambioService(newMemTasaRepo(), provider, nil, 0)

	err := svc.Refrescar(context.Background())
	assert.Error(t, err)

	_, err = svc.TasaDelDia(context.Background())
	assert.ErrorIs(t, err, service.ErrSinTasa)
}

func TestRefrescar_TasaNoPositiva(t *testing.T) {
	svc := service.NewTasaCambioService(newMemTasaRepo(), proveedorFalso(t, "0"), nil, 0)

	err := svc.Refrescar(context.Background())
	assert.ErrorContains(t, err, "non-positive")
}
