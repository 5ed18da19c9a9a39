// Package cart implements the shopping cart as a small value type plus a
// pluggable persistence layer. Callers only see Cart; where the lines live
// (session cookie today, anything else tomorrow) is the Persister's business.
package cart

import (
	"errors"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/shopspring/decimal"
)

var ErrItemNotInCart = errors.New("cart: item not in cart")

type Cart struct {
	Items []models.CartItem
}

// Add merges the product into the cart: a repeated product id bumps the
// existing line's quantity instead of creating a second line.
func (c *Cart) Add(item models.CartItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

func (c *Cart) Remove(productID int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// SetQuantity updates one line. Quantities never drop below 1; removing a
// line is an explicit Remove, not a decrement to zero.
func (c *Cart) SetQuantity(productID, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotInCart
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total sums price x quantity over all lines. Prices are decimal strings;
// unparseable ones count as zero rather than poisoning the whole total.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// LineTotal is the display total for a single cart line.
func LineTotal(item models.CartItem) decimal.Decimal {
	price, err := decimal.NewFromString(item.Price)
	if err != nil {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}
