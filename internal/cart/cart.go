// Package cart holds shopping cart state and the pricing engine.
package cart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxQuantity caps a single cart line and a gift selection.
const MaxQuantity = 999

// LineItem is one (product, package option) pair in the cart.
type LineItem struct {
	ProductID       int64  `json:"productId"`
	PackageOptionID string `json:"packageOptionId"`
	Quantity        int    `json:"quantity"`
}

// GiftItem is a product selected into a gift box.
type GiftItem struct {
	ProductID       int64           `json:"productId"`
	PackageOptionID string          `json:"packageOptionId"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	Name            string          `json:"name"`
}

// GiftLineItem is a composed gift box as it sits in the cart.
type GiftLineItem struct {
	ID               string          `json:"id"`
	GiftPackageID    int64           `json:"giftPackageId"`
	Name             string          `json:"name,omitempty"`
	BasePrice        decimal.Decimal `json:"basePrice"`
	Items            []GiftItem      `json:"items"`
	RecipientName    string          `json:"recipientName,omitempty"`
	RecipientMessage string          `json:"recipientMessage,omitempty"`
	Quantity         int             `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
}

// Cart is the shopper's cart. The (product, option) pair is unique across Items.
type Cart struct {
	Items []LineItem     `json:"items"`
	Gifts []GiftLineItem `json:"gifts"`
}

// Add adds quantity to a line, creating it when absent. Non-positive quantities are ignored
// and the line saturates at MaxQuantity.
func (c *Cart) Add(productID int64, optionID string, quantity int) {
	if quantity <= 0 {
		return
	}
	quantity = min(quantity, MaxQuantity)
	if i := c.index(productID, optionID); i >= 0 {
		c.Items[i].Quantity = min(c.Items[i].Quantity+quantity, MaxQuantity)
		return
	}
	c.Items = append(c.Items, LineItem{
		ProductID:       productID,
		PackageOptionID: optionID,
		Quantity:        quantity,
	})
}

// Update sets a line's quantity, clamped to [0, MaxQuantity]. Zero removes the line.
func (c *Cart) Update(productID int64, optionID string, quantity int) {
	quantity = max(0, min(quantity, MaxQuantity))
	i := c.index(productID, optionID)
	switch {
	case i < 0 && quantity == 0:
		return
	case i < 0:
		c.Items = append(c.Items, LineItem{ProductID: productID, PackageOptionID: optionID, Quantity: quantity})
	case quantity == 0:
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	default:
		c.Items[i].Quantity = quantity
	}
}

func (c *Cart) Remove(productID int64, optionID string) {
	c.Update(productID, optionID, 0)
}

func (c *Cart) AddGift(gift GiftLineItem) {
	c.Gifts = append(c.Gifts, gift)
}

// RemoveGift drops the gift with the given id and reports whether it existed.
func (c *Cart) RemoveGift(id string) bool {
	for i, gift := range c.Gifts {
		if gift.ID == id {
			c.Gifts = append(c.Gifts[:i], c.Gifts[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
	c.Gifts = nil
}

func (c *Cart) IsEmpty() bool {
	return c == nil || (len(c.Items) == 0 && len(c.Gifts) == 0)
}

// Count returns the number of units across lines and gifts.
func (c *Cart) Count() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	for _, gift := range c.Gifts {
		total += gift.Quantity
	}
	return total
}

func (c *Cart) index(productID int64, optionID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.PackageOptionID == optionID {
			return i
		}
	}
	return -1
}

// ParseQuantity converts loosely typed form input to a quantity. Anything non-numeric is 0;
// values beyond the int range saturate instead of wrapping. Callers compare the result
// against MaxQuantity.
func ParseQuantity(value any) int {
	switch v := value.(type) {
	case int:
		return clampQuantity(v)
	case int64:
		return clampQuantity(int(v))
	case float64:
		switch {
		case math.IsNaN(v), v <= 0:
			return 0
		case v >= math.MaxInt:
			return math.MaxInt
		}
		return clampQuantity(int(v))
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return clampQuantity(int(i))
		}
		if f, err := v.Float64(); err == nil {
			return ParseQuantity(f)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return clampQuantity(i)
		}
	}
	return 0
}

func clampQuantity(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
