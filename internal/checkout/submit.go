package checkout

import (
	"github.com/google/uuid"

	"venpos/internal/dto"
)

// BuildVentaRequest empaqueta carrito + pagos + cliente en la forma que espera
// la operación de registro de venta. Mapeo puro: la persistencia, el descuento
// de stock y la actualización de saldos ocurren del lado del servicio de
// ventas, que revalida todo con datos frescos.
func BuildVentaRequest(cart *Cart, ses *PaymentSession, sesionCajaID, vendedorID uuid.UUID) dto.RegistrarVentaRequest {
	lineas := cart.Lineas()
	items := make([]dto.ItemVentaRequest, 0, len(lineas))
	for _, l := range lineas {
		items = append(items, dto.ItemVentaRequest{
			ProductoID: l.Producto.ID.String(),
			Cantidad:   l.Cantidad,
		})
	}

	pagos := ses.Pagos()
	pagosReq := make([]dto.PagoVentaRequest, 0, len(pagos))
	for _, p := range pagos {
		pagosReq = append(pagosReq, dto.PagoVentaRequest{
			Metodo:     string(p.Metodo),
			MontoUSD:   p.MontoUSD,
			MontoVES:   p.MontoVES,
			Referencia: p.Referencia,
			TasaCambio: p.Tasa,
		})
	}

	req := dto.RegistrarVentaRequest{
		SesionCajaID: sesionCajaID.String(),
		VendedorID:   vendedorID.String(),
		MetodoPago:   string(ses.MetodoConsolidado()),
		Items:        items,
		Pagos:        pagosReq,
		Descuento:    cart.Descuento(),
	}
	if cliente := cart.Cliente(); cliente != nil {
		id := cliente.ID.String()
		req.ClienteID = &id
	}
	return req
}
