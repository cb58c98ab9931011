// Package gift builds gift boxes from catalog products.
package gift

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kmetijamarosa/storefront/internal/cart"
	"github.com/kmetijamarosa/storefront/internal/catalog"
)

var (
	ErrNoOptions      = errors.New("no-options")
	ErrLimitReached   = errors.New("limit-reached")
	ErrEmptySelection = errors.New("empty-selection")
	ErrOptionNotFound = errors.New("package option not found")
)

var maxProductsByPackage = map[int64]int{
	1: 1,
	2: 3,
	3: 5,
}

// MaxProducts returns how many distinct selections a gift package holds. Unknown packages hold none.
func MaxProducts(giftPackageID int64) int {
	return maxProductsByPackage[giftPackageID]
}

// Selection is one product placed in the box.
type Selection struct {
	Product  *catalog.Product
	Option   catalog.PackageOption
	Quantity int
}

// LineTotal is the option price times quantity.
func (s Selection) LineTotal() decimal.Decimal {
	return s.Option.Price.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// Composer holds the in-progress box for one gift package.
type Composer struct {
	pkg   catalog.GiftPackage
	items []Selection
}

func NewComposer(pkg catalog.GiftPackage) *Composer {
	return &Composer{pkg: pkg}
}

func (c *Composer) Package() catalog.GiftPackage {
	return c.pkg
}

func (c *Composer) MaxProducts() int {
	return MaxProducts(c.pkg.ID)
}

// Items returns a copy of the current selections.
func (c *Composer) Items() []Selection {
	return append([]Selection(nil), c.items...)
}

// AddProduct places the product's first package option in the box, or bumps the
// quantity when that pair is already selected. A full box rejects both.
func (c *Composer) AddProduct(product *catalog.Product) error {
	if !product.Purchasable() {
		return ErrNoOptions
	}
	_, err := c.add(product, product.PackageOptions[0])
	return err
}

// AddProductOption is AddProduct with an explicit option and returns the index of the
// selection it touched. An empty option id means the first option; any other id must
// belong to the product.
func (c *Composer) AddProductOption(product *catalog.Product, optionID string) (int, error) {
	if !product.Purchasable() {
		return -1, ErrNoOptions
	}
	option := product.PackageOptions[0]
	if optionID != "" {
		var ok bool
		if option, ok = product.Option(optionID); !ok {
			return -1, fmt.Errorf("%w: %q for product %d", ErrOptionNotFound, optionID, product.ID)
		}
	}
	return c.add(product, option)
}

func (c *Composer) add(product *catalog.Product, option catalog.PackageOption) (int, error) {
	if len(c.items) >= c.MaxProducts() {
		return -1, ErrLimitReached
	}
	for i := range c.items {
		if c.items[i].Product.ID == product.ID && c.items[i].Option.UniqueID == option.UniqueID {
			c.items[i].Quantity = min(c.items[i].Quantity+1, cart.MaxQuantity)
			return i, nil
		}
	}
	c.items = append(c.items, Selection{Product: product, Option: option, Quantity: 1})
	return len(c.items) - 1, nil
}

func (c *Composer) RemoveProduct(index int) {
	if !c.valid(index) {
		return
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
}

// UpdateQuantity sets a selection's quantity, capped at cart.MaxQuantity. Values below 1 are ignored.
func (c *Composer) UpdateQuantity(index, quantity int) {
	if !c.valid(index) || quantity < 1 {
		return
	}
	c.items[index].Quantity = min(quantity, cart.MaxQuantity)
}

// ChangePackageOption swaps a selection's option. Ids that do not belong to the product are ignored.
func (c *Composer) ChangePackageOption(index int, optionID string) {
	if !c.valid(index) {
		return
	}
	option, ok := c.items[index].Product.Option(optionID)
	if !ok {
		return
	}
	c.items[index].Option = option
}

// TotalPrice is the package base price plus every selection's line total.
func (c *Composer) TotalPrice() decimal.Decimal {
	total := c.pkg.BasePrice
	for _, item := range c.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// BuildGiftLineItem materializes the selection for the cart. Callers reject empty selections.
func (c *Composer) BuildGiftLineItem(recipientName, recipientMessage string) cart.GiftLineItem {
	items := make([]cart.GiftItem, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, cart.GiftItem{
			ProductID:       item.Product.ID,
			PackageOptionID: item.Option.UniqueID,
			Quantity:        item.Quantity,
			Price:           item.Option.Price,
			Name:            item.Product.Name,
		})
	}
	return cart.GiftLineItem{
		ID:               uuid.NewString(),
		GiftPackageID:    c.pkg.ID,
		Name:             c.pkg.Name,
		BasePrice:        c.pkg.BasePrice,
		Items:            items,
		RecipientName:    recipientName,
		RecipientMessage: recipientMessage,
		Quantity:         1,
		Price:            c.TotalPrice(),
	}
}

func (c *Composer) valid(index int) bool {
	return index >= 0 && index < len(c.items)
}
