// Package checkout implementa el núcleo del flujo de cobro: carrito,
// conciliación de pagos multi-moneda y evaluación de crédito de clientes.
//
// Todo el estado vive en valores explícitos (Cart, PaymentSession) que
// pertenecen a la sesión de checkout activa — no hay estado global. Las
// validaciones contra stock y crédito son consultivas: trabajan sobre el
// snapshot conocido al armar el carrito y la palabra final la tiene el
// registro de la venta en el servidor.
package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductoSnapshot es la vista de un producto al momento de agregarse al
// carrito. El stock es el conocido en ese instante y puede quedar desfasado.
type ProductoSnapshot struct {
	ID          uuid.UUID
	Codigo      string
	Nombre      string
	PrecioVenta decimal.Decimal // USD
	Stock       int
}

// Linea es un renglón del carrito.
type Linea struct {
	Producto ProductoSnapshot
	Cantidad int
	Subtotal decimal.Decimal // Cantidad × PrecioVenta
}

// Cart acumula las líneas de una venta en curso. Una instancia por sesión de
// checkout; se vacía al registrar la venta o al abandonar.
type Cart struct {
	lineas    map[uuid.UUID]*Linea
	orden     []uuid.UUID
	cliente   *ClienteInfo
	descuento decimal.Decimal // USD, descuento plano sobre el subtotal
}

func NewCart() *Cart {
	return &Cart{lineas: make(map[uuid.UUID]*Linea)}
}

// AddItem agrega cantidad unidades del producto. Si ya está en el carrito la
// cantidad se acumula. Rechaza sin modificar estado cuando la cantidad
// resultante supera el stock conocido del producto.
func (c *Cart) AddItem(p ProductoSnapshot, cantidad int) error {
	if cantidad < 1 {
		return ErrCantidadInvalida
	}
	nueva := cantidad
	if linea, ok := c.lineas[p.ID]; ok {
		nueva += linea.Cantidad
	}
	if nueva > p.Stock {
		return ErrStockInsuficiente
	}
	linea, ok := c.lineas[p.ID]
	if !ok {
		linea = &Linea{Producto: p}
		c.lineas[p.ID] = linea
		c.orden = append(c.orden, p.ID)
	}
	linea.Cantidad = nueva
	linea.Subtotal = p.PrecioVenta.Mul(decimal.NewFromInt(int64(nueva)))
	return nil
}

// UpdateQuantity reemplaza la cantidad de una línea. Cantidad ≤ 0 equivale a
// RemoveItem. Rechaza sin modificar estado cuando supera el stock conocido.
func (c *Cart) UpdateQuantity(productoID uuid.UUID, cantidad int) error {
	linea, ok := c.lineas[productoID]
	if !ok {
		return ErrLineaNoEncontrada
	}
	if cantidad <= 0 {
		c.RemoveItem(productoID)
		return nil
	}
	if cantidad > linea.Producto.Stock {
		return ErrStockInsuficiente
	}
	linea.Cantidad = cantidad
	linea.Subtotal = linea.Producto.PrecioVenta.Mul(decimal.NewFromInt(int64(cantidad)))
	return nil
}

// RemoveItem quita la línea sin error aunque no exista.
func (c *Cart) RemoveItem(productoID uuid.UUID) {
	if _, ok := c.lineas[productoID]; !ok {
		return
	}
	delete(c.lineas, productoID)
	for i, id := range c.orden {
		if id == productoID {
			c.orden = append(c.orden[:i], c.orden[i+1:]...)
			break
		}
	}
}

// Clear vacía las líneas y descarta cliente y descuento. Se usa tras registrar
// la venta o al abandonar el checkout.
func (c *Cart) Clear() {
	c.lineas = make(map[uuid.UUID]*Linea)
	c.orden = nil
	c.cliente = nil
	c.descuento = decimal.Zero
}

// SetCliente asocia (o desasocia, con nil) el cliente de la venta.
func (c *Cart) SetCliente(cliente *ClienteInfo) { c.cliente = cliente }

func (c *Cart) Cliente() *ClienteInfo { return c.cliente }

// SetDescuento fija el descuento plano en USD. La validación de no-negatividad
// es responsabilidad de la capa que recibe la entrada del usuario.
func (c *Cart) SetDescuento(monto decimal.Decimal) { c.descuento = monto }

func (c *Cart) Descuento() decimal.Decimal { return c.descuento }

// Lineas devuelve las líneas en orden de inserción.
func (c *Cart) Lineas() []Linea {
	out := make([]Linea, 0, len(c.orden))
	for _, id := range c.orden {
		out = append(out, *c.lineas[id])
	}
	return out
}

func (c *Cart) Vacio() bool { return len(c.lineas) == 0 }

// Subtotal es la suma de los subtotales de línea.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, linea := range c.lineas {
		total = total.Add(linea.Subtotal)
	}
	return total
}

// Total es max(0, subtotal − descuento).
func (c *Cart) Total() decimal.Decimal {
	total := c.Subtotal().Sub(c.descuento)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
