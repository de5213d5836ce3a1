//go:build integration

package e2e

// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - Login → abrir caja → checkout completo (carrito, pagos VES/USD, finalizar)
//   - Venta directa por /v1/ventas con conciliación estricta
//   - Anulación con reversa de stock
//   - Cierre de caja con arqueo ciego

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"venpos/internal/config"
	"venpos/internal/infra"
	"venpos/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
	engine *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("venpos_test"),
		tcPostgres.WithUsername("venpos"),
		tcPostgres.WithPassword("venpos"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                8000,
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTExpirationHours:  8,
		JWTRefreshHours:     24,
		DatabaseURL:         pgURL,
		RedisURL:            rdURL,
		TasaProviderURL:     "http://localhost:9999", // sin proveedor: la tasa se fija manual
		TasaCacheTTLMinutes: 30,
		CheckoutIdleMinutes: 60,
		WorkerPoolSize:      1,
		PDFStoragePath:      t.TempDir(),
		NombreNegocio:       "VenPOS Test",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed admin
	hash, err := bcrypt.GenerateFromPassword([]byte("venpos2026"), 12)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`INSERT INTO usuarios (username, nombre, password_hash, rol, activo)
		VALUES ('admin', 'Admin E2E', ?, 'administrador', true)
		ON CONFLICT DO NOTHING`, string(hash)).Error)

	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	provider := infra.NewTasaProvider(cfg.TasaProviderURL, cb)

	r := router.New(cfg, db, rdb, provider)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin", "password": "venpos2026"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	env := &testEnv{server: srv, token: loginBody.AccessToken, engine: r}

	// Tasa del día fijada manualmente: 40 Bs/USD
	tasaResp := do(t, srv, "PUT", "/v1/tasa", jsonBody(t, map[string]any{"tasa": 40}), env.token)
	require.Equal(t, http.StatusOK, tasaResp.StatusCode)
	tasaResp.Body.Close()

	return env
}

func (env *testEnv) crearProducto(t *testing.T, codigo, nombre string, precio float64, stock int) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/productos",
		jsonBody(t, map[string]any{
			"codigo":       codigo,
			"nombre":       nombre,
			"precio_costo": precio / 2,
			"precio_venta": precio,
			"stock":        stock,
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var prod struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &prod)
	return prod.ID
}

func (env *testEnv) abrirCaja(t *testing.T, pdv int, inicial float64) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/caja/abrir",
		jsonBody(t, map[string]any{"punto_de_venta": pdv, "monto_inicial": inicial}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var caja struct {
		SesionCajaID string `json:"sesion_caja_id"`
	}
	decodeJSON(t, resp, &caja)
	return caja.SesionCajaID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_CheckoutCompleto(t *testing.T) {
	env := setupTestEnv(t)
	prodID := env.crearProducto(t, "7890001", "Harina PAN", 2.50, 20)
	sesionID := env.abrirCaja(t, 1, 100)

	// Abrir checkout
	coResp := do(t, env.server, "POST", "/v1/checkout",
		jsonBody(t, map[string]any{"sesion_caja_id": sesionID}), env.token)
	require.Equal(t, http.StatusCreated, coResp.StatusCode)
	var co struct {
		ID string `json:"id"`
	}
	decodeJSON(t, coResp, &co)

	// Agregar 4 unidades → total 10.00 USD
	itemResp := do(t, env.server, "POST", "/v1/checkout/"+co.ID+"/items",
		jsonBody(t, map[string]any{"producto_id": prodID, "cantidad": 4}), env.token)
	require.Equal(t, http.StatusOK, itemResp.StatusCode)
	var carrito struct {
		Total json.Number `json:"total"`
	}
	decodeJSON(t, itemResp, &carrito)
	assert.Equal(t, "10", carrito.Total.String())

	// Abrir pagos con la tasa del día
	pagosResp := do(t, env.server, "POST", "/v1/checkout/"+co.ID+"/pagos", nil, env.token)
	require.Equal(t, http.StatusOK, pagosResp.StatusCode)
	var pagos struct {
		Tasa json.Number `json:"tasa"`
	}
	decodeJSON(t, pagosResp, &pagos)
	assert.Equal(t, "40", pagos.Tasa.String())

	// 240 Bs en efectivo (6 USD) + 4 USD en divisas
	p1 := do(t, env.server, "POST", "/v1/checkout/"+co.ID+"/pagos/entradas",
		jsonBody(t, map[string]any{"metodo": "EFECTIVO", "monto": 240}), env.token)
	require.Equal(t, http.StatusOK, p1.StatusCode)
	p1.Body.Close()

	p2 := do(t, env.server, "POST", "/v1/checkout/"+co.ID+"/pagos/entradas",
		jsonBody(t, map[string]any{"metodo": "DIVISAS", "monto": 4, "sub_tipo": "efectivo"}), env.token)
	require.Equal(t, http.StatusOK, p2.StatusCode)
	var estado struct {
		PuedeFinalizar bool `json:"puede_finalizar"`
	}
	decodeJSON(t, p2, &estado)
	assert.True(t, estado.PuedeFinalizar)

	// Finalizar registra la venta y destruye el checkout
	finResp := do(t, env.server, "POST", "/v1/checkout/"+co.ID+"/finalizar", nil, env.token)
	require.Equal(t, http.StatusCreated, finResp.StatusCode)
	var venta struct {
		NumeroTicket int    `json:"numero_ticket"`
		MetodoPago   string `json:"metodo_pago"`
		Estado       string `json:"estado"`
	}
	decodeJSON(t, finResp, &venta)
	assert.Equal(t, 1, venta.NumeroTicket)
	assert.Equal(t, "MIXTO", venta.MetodoPago)
	assert.Equal(t, "completada", venta.Estado)

	goneResp := do(t, env.server, "GET", "/v1/checkout/"+co.ID, nil, env.token)
	assert.Equal(t, http.StatusNotFound, goneResp.StatusCode)
	goneResp.Body.Close()

	// Stock descontado
	prodResp := do(t, env.server, "GET", "/v1/productos/"+prodID, nil, env.token)
	require.Equal(t, http.StatusOK, prodResp.StatusCode)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, prodResp, &prod)
	assert.Equal(t, 16, prod.Stock)
}

func TestE2E_VentaDirecta_Conciliacion(t *testing.T) {
	env := setupTestEnv(t)
	prodID := env.crearProducto(t, "7890002", "Aceite", 5.00, 10)
	sesionID := env.abrirCaja(t, 1, 50)

	// Pago corto: 8 contra 10 → rechazada con 409
	corto := do(t, env.server, "POST", "/v1/ventas",
		jsonBody(t, map[string]any{
			"sesion_caja_id": sesionID,
			"vendedor_id":    "00000000-0000-0000-0000-000000000001",
			"metodo_pago":    "DIVISAS",
			"items":          []map[string]any{{"producto_id": prodID, "cantidad": 2}},
			"pagos":          []map[string]any{{"metodo": "DIVISAS", "monto_usd": 8}},
		}), env.token)
	assert.Equal(t, http.StatusConflict, corto.StatusCode)
	corto.Body.Close()

	// Conciliada exacta
	ok := do(t, env.server, "POST", "/v1/ventas",
		jsonBody(t, map[string]any{
			"sesion_caja_id": sesionID,
			"vendedor_id":    "00000000-0000-0000-0000-000000000001",
			"metodo_pago":    "DIVISAS",
			"items":          []map[string]any{{"producto_id": prodID, "cantidad": 2}},
			"pagos":          []map[string]any{{"metodo": "DIVISAS", "monto_usd": 10}},
		}), env.token)
	require.Equal(t, http.StatusCreated, ok.StatusCode)
	var venta struct {
		Estado string `json:"estado"`
	}
	decodeJSON(t, ok, &venta)
	assert.Equal(t, "completada", venta.Estado)
}

func TestE2E_AnularVentaRestauraStock(t *testing.T) {
	env := setupTestEnv(t)
	prodID := env.crearProducto(t, "7890003", "Leche", 2.00, 10)
	sesionID := env.abrirCaja(t, 1, 50)

	ventaResp := do(t, env.server, "POST", "/v1/ventas",
		jsonBody(t, map[string]any{
			"sesion_caja_id": sesionID,
			"vendedor_id":    "00000000-0000-0000-0000-000000000001",
			"metodo_pago":    "DIVISAS",
			"items":          []map[string]any{{"producto_id": prodID, "cantidad": 3}},
			"pagos":          []map[string]any{{"metodo": "DIVISAS", "monto_usd": 6}},
		}), env.token)
	require.Equal(t, http.StatusCreated, ventaResp.StatusCode)
	var venta struct {
		ID string `json:"id"`
	}
	decodeJSON(t, ventaResp, &venta)

	anularResp := do(t, env.server, "POST", "/v1/ventas/"+venta.ID+"/anular",
		jsonBody(t, map[string]any{"motivo": "Error de carga en test"}), env.token)
	assert.Equal(t, http.StatusNoContent, anularResp.StatusCode)
	anularResp.Body.Close()

	prodResp := do(t, env.server, "GET", "/v1/productos/"+prodID, nil, env.token)
	require.Equal(t, http.StatusOK, prodResp.StatusCode)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, prodResp, &prod)
	assert.Equal(t, 10, prod.Stock)
}

func TestE2E_CierreDeCajaConArqueo(t *testing.T) {
	env := setupTestEnv(t)
	prodID := env.crearProducto(t, "7890004", "Café", 5.00, 10)
	sesionID := env.abrirCaja(t, 1, 100)

	// Venta en efectivo: 10 USD entran a caja
	ventaResp := do(t, env.server, "POST", "/v1/ventas",
		jsonBody(t, map[string]any{
			"sesion_caja_id": sesionID,
			"vendedor_id":    "00000000-0000-0000-0000-000000000001",
			"metodo_pago":    "EFECTIVO",
			"items":          []map[string]any{{"producto_id": prodID, "cantidad": 2}},
			"pagos": []map[string]any{{
				"metodo": "EFECTIVO", "monto_usd": 10, "monto_ves": 400, "tasa_cambio": 40,
			}},
		}), env.token)
	require.Equal(t, http.StatusCreated, ventaResp.StatusCode)
	ventaResp.Body.Close()

	// Conteo ciego declara 90 contra 110 esperados → faltante de 20
	cierreResp := do(t, env.server, "POST", "/v1/caja/cerrar",
		jsonBody(t, map[string]any{"sesion_caja_id": sesionID, "monto_declarado": 90}), env.token)
	require.Equal(t, http.StatusOK, cierreResp.StatusCode)
	var cierre struct {
		MontoEsperado json.Number `json:"monto_esperado"`
		Diferencia    struct {
			Monto         json.Number `json:"monto"`
			Clasificacion string      `json:"clasificacion"`
		} `json:"diferencia"`
	}
	decodeJSON(t, cierreResp, &cierre)
	assert.Equal(t, "110", cierre.MontoEsperado.String())
	assert.Equal(t, "-20", cierre.Diferencia.Monto.String())
	assert.Equal(t, "faltante", cierre.Diferencia.Clasificacion)

	// Con la caja cerrada no se aceptan más ventas
	tarde := do(t, env.server, "POST", "/v1/ventas",
		jsonBody(t, map[string]any{
			"sesion_caja_id": sesionID,
			"vendedor_id":    "00000000-0000-0000-0000-000000000001",
			"metodo_pago":    "DIVISAS",
			"items":          []map[string]any{{"producto_id": prodID, "cantidad": 1}},
			"pagos":          []map[string]any{{"metodo": "DIVISAS", "monto_usd": 5}},
		}), env.token)
	assert.Equal(t, http.StatusBadRequest, tarde.StatusCode)
	tarde.Body.Close()
}
