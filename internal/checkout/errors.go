package checkout

import "errors"

// Errores de validación locales: se muestran al usuario tal cual y nunca
// mutan el estado del carrito ni de la sesión de pagos.
var (
	ErrCantidadInvalida    = errors.New("la cantidad debe ser mayor que cero")
	ErrStockInsuficiente   = errors.New("stock insuficiente para la cantidad solicitada")
	ErrLineaNoEncontrada   = errors.New("el producto no está en el carrito")
	ErrMetodoInvalido      = errors.New("método de pago no reconocido")
	ErrReferenciaRequerida = errors.New("la referencia es obligatoria para este método de pago")
	ErrBancoRequerido      = errors.New("el banco es obligatorio para este método de pago")
	ErrTipoTarjetaInvalido = errors.New("el tipo de tarjeta debe ser débito o crédito")
	ErrSubTipoInvalido     = errors.New("el subtipo de divisas debe ser efectivo o digital")
	ErrPlataformaRequerida = errors.New("la plataforma es obligatoria para divisas digitales")
	ErrExcedeRestante      = errors.New("el monto excede el saldo restante por pagar")
	ErrClienteRequerido    = errors.New("debe seleccionar un cliente para pagar a crédito")
	ErrCreditoInsuficiente = errors.New("el crédito disponible del cliente es insuficiente")
	ErrNadaPendiente       = errors.New("no hay saldo pendiente por pagar")
	ErrIndicePago          = errors.New("índice de pago fuera de rango")
	ErrSinPagos            = errors.New("la venta requiere al menos un pago")
	ErrPagoIncompleto      = errors.New("el saldo restante debe ser cero para finalizar")
)
