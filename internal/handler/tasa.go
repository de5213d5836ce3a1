package handler

import (
	"net/http"
	"strconv"

	"venpos/internal/apierror"
	"venpos/internal/dto"
	"venpos/internal/service"

	"github.com/gin-gonic/gin"
)

type TasaHandler struct{ svc service.TasaCambioService }

func NewTasaHandler(svc service.TasaCambioService) *TasaHandler { return &TasaHandler{svc: svc} }

// Obtener godoc
// @Summary Tasa VES/USD vigente del día
// @Tags tasa
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.TasaResponse
// @Failure 503 {object} apierror.APIError
// @Router /v1/tasa [get]
func (h *TasaHandler) Obtener(c *gin.Context) {
	resp, err := h.svc.TasaDelDia(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarManual godoc
// @Summary Fija manualmente la tasa del día (solo supervisor)
// @Tags tasa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarTasaRequest true "Tasa VES por 1 USD"
// @Success 200 {object} dto.TasaResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/tasa [put]
func (h *TasaHandler) RegistrarManual(c *gin.Context) {
	var req dto.RegistrarTasaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarManual(c.Request.Context(), req.Tasa)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TasaHandler) Historial(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	resp, err := h.svc.Historial(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
