package router

import (
	"context"
	"time"

	"venpos/internal/config"
	"venpos/internal/handler"
	"venpos/internal/infra"
	"venpos/internal/middleware"
	"venpos/internal/repository"
	"venpos/internal/service"
	"venpos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, tasaProvider *infra.TasaProvider) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	tasaRepo := repository.NewTasaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	authSvc := service.NewAuthService(usuarioRepo, cfg)
	tasaSvc := service.NewTasaCambioService(tasaRepo, tasaProvider, rdb, time.Duration(cfg.TasaCacheTTLMinutes)*time.Minute)
	productoSvc := service.NewProductoService(productoRepo, tasaSvc, rdb)
	clienteSvc := service.NewClienteService(clienteRepo)
	cajaSvc := service.NewCajaService(cajaRepo)
	ventaSvc := service.NewVentaService(ventaRepo, productoRepo, clienteRepo, cajaRepo, cajaSvc, dispatcher)
	checkoutSvc := service.NewCheckoutService(productoRepo, clienteRepo, tasaSvc, ventaSvc, cajaSvc,
		time.Duration(cfg.CheckoutIdleMinutes)*time.Minute)
	checkoutSvc.StartPurge(context.Background())

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productosH := handler.NewProductoHandler(productoSvc)
	clientesH := handler.NewClienteHandler(clienteSvc)
	checkoutH := handler.NewCheckoutHandler(checkoutSvc)
	ventasH := handler.NewVentaHandler(ventaSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	tasaH := handler.NewTasaHandler(tasaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, tasaProvider))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Verificador de precios — sin auth
	r.GET("/v1/precios/:codigo", productosH.ConsultarPrecio)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	todos := middleware.RequireRole("cajero", "supervisor", "administrador")
	supervisores := middleware.RequireRole("supervisor", "administrador")

	v1 := r.Group("/v1", jwtMW)
	{
		// Checkout — flujo de cobro de la terminal
		co := v1.Group("/checkout", todos)
		{
			co.POST("", checkoutH.Iniciar)
			co.GET("/:id", checkoutH.Obtener)
			co.DELETE("/:id", checkoutH.Cancelar)
			co.POST("/:id/items", checkoutH.AgregarItem)
			co.PUT("/:id/items/:productoId", checkoutH.ActualizarCantidad)
			co.DELETE("/:id/items/:productoId", checkoutH.EliminarItem)
			co.PUT("/:id/cliente", checkoutH.AsignarCliente)
			co.PUT("/:id/descuento", checkoutH.AsignarDescuento)
			co.POST("/:id/pagos", checkoutH.IniciarPagos)
			co.POST("/:id/pagos/entradas", checkoutH.AgregarPago)
			co.DELETE("/:id/pagos/entradas/:indice", checkoutH.EliminarPago)
			co.POST("/:id/finalizar", checkoutH.Finalizar)
		}

		// Ventas
		v1.POST("/ventas", todos, ventasH.Registrar)
		v1.GET("/ventas", todos, ventasH.Listar)
		v1.GET("/ventas/:id", todos, ventasH.Obtener)
		v1.POST("/ventas/:id/anular", supervisores, ventasH.Anular)

		// Catálogo
		v1.GET("/productos", todos, productosH.Listar)
		v1.GET("/productos/:id", todos, productosH.Obtener)
		v1.POST("/productos/:id/stock", supervisores, productosH.AjustarStock)
		prods := v1.Group("/productos", middleware.RequireRole("administrador"))
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Desactivar)
		}

		// Clientes y crédito
		clientes := v1.Group("/clientes", todos)
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.Obtener)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.GET("/:id/credito", clientesH.Credito)
		}

		// Caja registradora
		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", todos, cajaH.Abrir)
			caja.POST("/cerrar", todos, cajaH.Cerrar)
			caja.POST("/movimiento", todos, cajaH.RegistrarMovimiento)
			caja.GET("/activa", todos, cajaH.Activa)
			caja.GET("/:id/reporte", todos, cajaH.Reporte)
		}

		// Tasa de cambio
		v1.GET("/tasa", todos, tasaH.Obtener)
		v1.GET("/tasa/historial", supervisores, tasaH.Historial)
		v1.PUT("/tasa", supervisores, tasaH.RegistrarManual)

		// Usuarios — administrador
		usuarios := v1.Group("/usuarios", middleware.RequireRole("administrador"))
		{
			usuarios.POST("", authH.CrearUsuario)
			usuarios.GET("", authH.ListarUsuarios)
			usuarios.PUT("/:id", authH.ActualizarUsuario)
			usuarios.DELETE("/:id", authH.DesactivarUsuario)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
