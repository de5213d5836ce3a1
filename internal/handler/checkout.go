package handler

import (
	"net/http"
	"strconv"

	"venpos/internal/apierror"
	"venpos/internal/dto"
	"venpos/internal/middleware"
	"venpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CheckoutHandler expone el flujo de cobro de la terminal: carrito,
// conciliación de pagos y cierre. El estado vive en el servidor; la terminal
// solo envía mutaciones y renderiza la respuesta.
type CheckoutHandler struct{ svc service.CheckoutService }

func NewCheckoutHandler(svc service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

// Iniciar godoc
// @Summary Abre un checkout sobre una sesión de caja
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.IniciarCheckoutRequest true "Sesión de caja"
// @Success 201 {object} dto.CheckoutResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/checkout [post]
func (h *CheckoutHandler) Iniciar(c *gin.Context) {
	var req dto.IniciarCheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	vendedorID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token inválido"))
		return
	}
	resp, err := h.svc.Iniciar(c.Request.Context(), vendedorID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CheckoutHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) AgregarItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.AgregarItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarItem(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) ActualizarCantidad(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	productoID, err := uuid.Parse(c.Param("productoId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de producto inválido"))
		return
	}
	var req dto.ActualizarCantidadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarCantidad(c.Request.Context(), id, productoID, req.Cantidad)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) EliminarItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	productoID, err := uuid.Parse(c.Param("productoId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de producto inválido"))
		return
	}
	resp, err := h.svc.EliminarItem(c.Request.Context(), id, productoID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) AsignarCliente(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.AsignarClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AsignarCliente(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) AsignarDescuento(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.AsignarDescuentoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AsignarDescuento(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// IniciarPagos godoc
// @Summary Congela el total y abre la conciliación de pagos
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del checkout"
// @Success 200 {object} dto.PagosResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/checkout/{id}/pagos [post]
func (h *CheckoutHandler) IniciarPagos(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.IniciarPagos(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) AgregarPago(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.AgregarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarPago(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) EliminarPago(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	indice, err := strconv.Atoi(c.Param("indice"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Índice inválido"))
		return
	}
	resp, err := h.svc.EliminarPago(c.Request.Context(), id, indice)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Finalizar godoc
// @Summary Valida la conciliación y registra la venta
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del checkout"
// @Success 201 {object} dto.VentaResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/checkout/{id}/finalizar [post]
func (h *CheckoutHandler) Finalizar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Finalizar(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CheckoutHandler) Cancelar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Cancelar(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
