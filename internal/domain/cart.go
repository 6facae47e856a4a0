package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is what the client holds. Price is display-only and never read
// when pricing a cart.
type CartItem struct {
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Size      string           `json:"size,omitempty"`
	Color     string           `json:"color,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

func (it CartItem) key() string {
	return it.ProductID.String() + "|" + it.Size + "|" + it.Color
}

type CartLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Slug      string          `json:"slug"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Cart struct {
	Lines     []CartLine      `json:"lines"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// MergeCartItems sums quantities of identical product/size/color lines and
// drops non-positive quantities, keeping first-seen order.
func MergeCartItems(items []CartItem) []CartItem {
	idx := map[string]int{}
	out := make([]CartItem, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 || it.ProductID == uuid.Nil {
			continue
		}
		it.Price = nil
		if i, ok := idx[it.key()]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		idx[it.key()] = len(out)
		out = append(out, it)
	}
	return out
}

// PriceCart builds cart lines from server side product data. products must
// contain every referenced product.
func PriceCart(items []CartItem, products map[uuid.UUID]*Product) (Cart, error) {
	cart := Cart{Lines: []CartLine{}, Subtotal: decimal.Zero}
	wanted := map[uuid.UUID]int{}
	for _, it := range MergeCartItems(items) {
		p, ok := products[it.ProductID]
		if !ok || p == nil {
			return Cart{}, NotFound("product " + it.ProductID.String() + " not found")
		}
		if !p.Purchasable() {
			return Cart{}, &Error{Kind: ErrProductInactive, Msg: p.Name + " is not available"}
		}
		if !p.AllowsSize(it.Size) {
			return Cart{}, Invalid("size " + it.Size + " is not offered for " + p.Name)
		}
		if !p.AllowsColor(it.Color) {
			return Cart{}, Invalid("color " + it.Color + " is not offered for " + p.Name)
		}
		wanted[p.ID] += it.Quantity
		if wanted[p.ID] > p.Stock {
			return Cart{}, &Error{Kind: ErrOutOfStock, Msg: "not enough stock for " + p.Name}
		}
		unit := p.UnitPrice()
		line := CartLine{
			ProductID: p.ID,
			Slug:      p.Slug,
			Name:      p.Name,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
			UnitPrice: unit,
			LineTotal: unit.Mul(decimal.NewFromInt(int64(it.Quantity))),
		}
		if len(p.Images) > 0 {
			line.Image = p.Images[0]
		}
		cart.Lines = append(cart.Lines, line)
		cart.ItemCount += it.Quantity
		cart.Subtotal = cart.Subtotal.Add(line.LineTotal)
	}
	cart.Subtotal = Round2(cart.Subtotal)
	return cart, nil
}
