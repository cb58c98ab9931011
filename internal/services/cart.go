package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kmetijamarosa/storefront/internal/cart"
	"github.com/kmetijamarosa/storefront/internal/catalog"
	"github.com/kmetijamarosa/storefront/internal/logging"
)

var (
	ErrProductUnavailable = errors.New("product is not available")
	ErrOptionNotFound     = errors.New("package option not found")
	ErrInvalidQuantity    = fmt.Errorf("quantity must be between 1 and %d", cart.MaxQuantity)
)

// CartService edits session carts and prices them against the live catalog.
type CartService struct {
	products cart.ProductLookup
	engine   *cart.Engine
	logger   *slog.Logger
}

func NewCartService(products cart.ProductLookup, engine *cart.Engine, logger *slog.Logger) *CartService {
	return &CartService{
		products: products,
		engine:   engine,
		logger:   logging.OrDiscard(logger),
	}
}

// AddItem checks the product and option against the catalog before adding to c.
// An empty optionID selects the product's first package option.
func (s *CartService) AddItem(ctx context.Context, c *cart.Cart, productID int64, optionID string, quantity int) error {
	if quantity < 1 || quantity > cart.MaxQuantity {
		return ErrInvalidQuantity
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if !product.IsActive || !product.Purchasable() {
		return ErrProductUnavailable
	}

	option := product.PackageOptions[0]
	if optionID != "" {
		found, ok := product.Option(optionID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrOptionNotFound, optionID)
		}
		option = found
	}

	c.Add(product.ID, option.UniqueID, quantity)
	logging.FromContext(ctx, s.logger).Debug("cart item added", "product_id", product.ID, "package_option_id", option.UniqueID, "quantity", quantity)
	return nil
}

// UpdateItem sets a line's quantity; zero removes it.
func (s *CartService) UpdateItem(c *cart.Cart, productID int64, optionID string, quantity int) error {
	if quantity < 0 || quantity > cart.MaxQuantity {
		return ErrInvalidQuantity
	}
	c.Update(productID, optionID, quantity)
	return nil
}

func (s *CartService) RemoveItem(c *cart.Cart, productID int64, optionID string) {
	c.Remove(productID, optionID)
}

func (s *CartService) RemoveGift(c *cart.Cart, giftID string) bool {
	return c.RemoveGift(giftID)
}

func (s *CartService) Clear(c *cart.Cart) {
	c.Clear()
}

// Quote prices c and prunes lines whose product or option disappeared from the catalog.
func (s *CartService) Quote(ctx context.Context, c *cart.Cart) (*cart.Quote, error) {
	quote, err := s.engine.Quote(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to quote cart: %w", err)
	}
	if quote.Dropped > 0 && c != nil {
		pruneCart(c, quote.Items)
	}
	return quote, nil
}

func pruneCart(c *cart.Cart, resolved []cart.DisplayItem) {
	keep := make(map[[2]string]bool, len(resolved))
	for _, item := range resolved {
		keep[lineKey(item.ProductID, item.Option.UniqueID)] = true
	}
	items := c.Items[:0]
	for _, item := range c.Items {
		if keep[lineKey(item.ProductID, item.PackageOptionID)] {
			items = append(items, item)
		}
	}
	c.Items = items
}

func lineKey(productID int64, optionID string) [2]string {
	return [2]string{fmt.Sprint(productID), optionID}
}

// IsCatalogMiss reports whether err means the referenced product cannot be sold.
func IsCatalogMiss(err error) bool {
	return errors.Is(err, catalog.ErrProductNotFound) || errors.Is(err, ErrProductUnavailable) || errors.Is(err, ErrOptionNotFound)
}
