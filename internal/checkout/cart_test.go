package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func producto(precio string, stock int) ProductoSnapshot {
	return ProductoSnapshot{
		ID:          uuid.New(),
		Codigo:      "P-001",
		Nombre:      "Harina de maíz 1kg",
		PrecioVenta: dec(precio),
		Stock:       stock,
	}
}

func TestAddItemAcumulaSubtotal(t *testing.T) {
	c := NewCart()
	p := producto("10.00", 5)

	require.NoError(t, c.AddItem(p, 3))
	assert.True(t, c.Subtotal().Equal(dec("30.00")), "got %s", c.Subtotal())

	// Acumula sobre la línea existente, no crea otra.
	require.NoError(t, c.AddItem(p, 2))
	require.Len(t, c.Lineas(), 1)
	assert.Equal(t, 5, c.Lineas()[0].Cantidad)
}

func TestAddItemRechazaSobreStock(t *testing.T) {
	c := NewCart()
	p := producto("10.00", 5)

	require.NoError(t, c.AddItem(p, 3))
	// 3 + 3 > 5 → rechazado sin cambio de estado
	err := c.AddItem(p, 3)
	assert.ErrorIs(t, err, ErrStockInsuficiente)
	assert.Equal(t, 3, c.Lineas()[0].Cantidad)
	assert.True(t, c.Subtotal().Equal(dec("30.00")))
}

func TestUpdateQuantityRechazaSobreStock(t *testing.T) {
	c := NewCart()
	p := producto("10.00", 5)
	require.NoError(t, c.AddItem(p, 3))

	err := c.UpdateQuantity(p.ID, 6)
	assert.ErrorIs(t, err, ErrStockInsuficiente)
	assert.Equal(t, 3, c.Lineas()[0].Cantidad)
}

func TestUpdateQuantityCeroElimina(t *testing.T) {
	c := NewCart()
	p := producto("10.00", 5)
	require.NoError(t, c.AddItem(p, 3))

	require.NoError(t, c.UpdateQuantity(p.ID, 0))
	assert.True(t, c.Vacio())
}

func TestUpdateQuantityLineaInexistente(t *testing.T) {
	c := NewCart()
	err := c.UpdateQuantity(uuid.New(), 2)
	assert.ErrorIs(t, err, ErrLineaNoEncontrada)
}

func TestRemoveItemEsIdempotente(t *testing.T) {
	c := NewCart()
	p := producto("10.00", 5)
	require.NoError(t, c.AddItem(p, 1))

	c.RemoveItem(p.ID)
	c.RemoveItem(p.ID) // sin error la segunda vez
	assert.True(t, c.Vacio())
}

func TestTotalNuncaNegativo(t *testing.T) {
	c := NewCart()
	p := producto("10.00", 5)
	require.NoError(t, c.AddItem(p, 2)) // subtotal 20

	c.SetDescuento(dec("5"))
	assert.True(t, c.Total().Equal(dec("15")))

	// Descuento mayor al subtotal → total 0, nunca negativo
	c.SetDescuento(dec("50"))
	assert.True(t, c.Total().Equal(decimal.Zero), "got %s", c.Total())
}

func TestClearDescartaClienteYDescuento(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.AddItem(producto("10.00", 5), 1))
	c.SetCliente(&ClienteInfo{ID: uuid.New(), Nombre: "María Pérez"})
	c.SetDescuento(dec("2"))

	c.Clear()
	assert.True(t, c.Vacio())
	assert.Nil(t, c.Cliente())
	assert.True(t, c.Descuento().IsZero())
}

func TestLineasConservanOrdenDeInsercion(t *testing.T) {
	c := NewCart()
	p1 := producto("1.00", 10)
	p2 := producto("2.00", 10)
	p3 := producto("3.00", 10)
	require.NoError(t, c.AddItem(p1, 1))
	require.NoError(t, c.AddItem(p2, 1))
	require.NoError(t, c.AddItem(p3, 1))

	c.RemoveItem(p2.ID)
	lineas := c.Lineas()
	require.Len(t, lineas, 2)
	assert.Equal(t, p1.ID, lineas[0].Producto.ID)
	assert.Equal(t, p3.ID, lineas[1].Producto.ID)
}
