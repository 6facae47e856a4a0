package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func publishedProduct(price string, stock int) *Product {
	return &Product{
		ID:        uuid.New(),
		Name:      "Tee",
		Slug:      "tee",
		Price:     dec(price),
		Stock:     stock,
		Available: true,
		Status:    ProductPublished,
		Sizes:     []string{"S", "M"},
		Images:    []string{"https://cdn.example.com/tee.jpg"},
	}
}

func TestProduct_UnitPrice(t *testing.T) {
	p := &Product{Price: dec("200")}
	require.True(t, dec("200").Equal(p.UnitPrice()))

	p.DiscountPct = dec("15")
	require.True(t, dec("170").Equal(p.UnitPrice()))

	p.SalePrice = decimal.NewNullDecimal(dec("150"))
	require.True(t, dec("150").Equal(p.UnitPrice()))

	// a sale price above the list price is ignored
	p.SalePrice = decimal.NewNullDecimal(dec("250"))
	require.True(t, dec("170").Equal(p.UnitPrice()))
}

func TestMergeCartItems(t *testing.T) {
	id := uuid.New()
	client := dec("1")
	got := MergeCartItems([]CartItem{
		{ProductID: id, Quantity: 1, Size: "M", Price: &client},
		{ProductID: id, Quantity: 2, Size: "M"},
		{ProductID: id, Quantity: 1, Size: "S"},
		{ProductID: id, Quantity: 0, Size: "L"},
		{ProductID: uuid.Nil, Quantity: 4},
	})
	require.Len(t, got, 2)
	require.Equal(t, 3, got[0].Quantity)
	require.Nil(t, got[0].Price)
	require.Equal(t, "S", got[1].Size)
}

func TestPriceCart_IgnoresClientPrice(t *testing.T) {
	p := publishedProduct("250", 10)
	cheap := dec("0.01")
	cart, err := PriceCart([]CartItem{
		{ProductID: p.ID, Quantity: 2, Size: "M", Price: &cheap},
		{ProductID: p.ID, Quantity: 2, Size: "S"},
	}, map[uuid.UUID]*Product{p.ID: p})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	require.Equal(t, 4, cart.ItemCount)
	require.True(t, dec("1000").Equal(cart.Subtotal), cart.Subtotal.String())
	require.Equal(t, "https://cdn.example.com/tee.jpg", cart.Lines[0].Image)
}

func TestPriceCart_Rejections(t *testing.T) {
	p := publishedProduct("100", 3)
	products := map[uuid.UUID]*Product{p.ID: p}

	_, err := PriceCart([]CartItem{{ProductID: uuid.New(), Quantity: 1}}, products)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = PriceCart([]CartItem{{ProductID: p.ID, Quantity: 1, Size: "XL"}}, products)
	require.ErrorIs(t, err, ErrValidation)

	_, err = PriceCart([]CartItem{{ProductID: p.ID, Quantity: 1, Size: "M", Color: "red"}}, products)
	require.ErrorIs(t, err, ErrValidation)

	// stock is checked across lines of the same product
	_, err = PriceCart([]CartItem{{ProductID: p.ID, Quantity: 2, Size: "M"}, {ProductID: p.ID, Quantity: 2, Size: "S"}}, products)
	require.ErrorIs(t, err, ErrOutOfStock)

	p.Status = ProductDraft
	_, err = PriceCart([]CartItem{{ProductID: p.ID, Quantity: 1, Size: "M"}}, products)
	require.ErrorIs(t, err, ErrProductInactive)
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "summer-linen-shirt", Slugify("  Summer Linen   Shirt! "))
	require.Equal(t, "café-au-lait", Slugify("Café au lait"))
	require.Equal(t, "", Slugify("---"))
}

func TestNewPage(t *testing.T) {
	pg := NewPage[int](nil, 41, 2, 20)
	require.Equal(t, 3, pg.Pages)
	require.NotNil(t, pg.Items)
	require.Equal(t, 1, NewPage([]int{}, 0, 1, 20).Pages)
}
