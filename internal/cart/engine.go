package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/kmetijamarosa/storefront/internal/catalog"
	"github.com/kmetijamarosa/storefront/internal/logging"
	"github.com/kmetijamarosa/storefront/internal/metrics"
)

const maxConcurrentLookups = 8

// ProductLookup fetches current product rows. Missing products return catalog.ErrProductNotFound.
type ProductLookup interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

// ShippingPolicy is a flat rate waived at or above a subtotal threshold.
type ShippingPolicy struct {
	FlatRate      decimal.Decimal
	FreeThreshold decimal.Decimal
}

// DefaultShippingPolicy is 3.90 EUR flat with free shipping from 30.00 EUR.
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FlatRate:      decimal.RequireFromString("3.90"),
		FreeThreshold: decimal.RequireFromString("30.00"),
	}
}

// Cost returns the shipping charge for a subtotal.
func (p ShippingPolicy) Cost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.FlatRate
}

// DisplayItem is a cart line resolved against the catalog.
type DisplayItem struct {
	ProductID int64                 `json:"productId"`
	Name      string                `json:"name"`
	ImageURL  string                `json:"imageUrl,omitempty"`
	Category  string                `json:"category,omitempty"`
	Option    catalog.PackageOption `json:"packageOption"`
	Quantity  int                   `json:"quantity"`
	LineTotal decimal.Decimal       `json:"lineTotal"`
}

// Quote is a fully priced cart.
type Quote struct {
	Items    []DisplayItem   `json:"items"`
	Gifts    []GiftLineItem  `json:"gifts"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	Dropped  int             `json:"dropped"`
}

// AmountMinorUnits returns the total in cents.
func (q *Quote) AmountMinorUnits() int64 {
	return q.Total.Shift(2).Round(0).IntPart()
}

type Engine struct {
	products ProductLookup
	shipping ShippingPolicy
	metrics  *metrics.Storefront
	logger   *slog.Logger
}

func NewEngine(products ProductLookup, shipping ShippingPolicy, m *metrics.Storefront, logger *slog.Logger) *Engine {
	return &Engine{
		products: products,
		shipping: shipping,
		metrics:  m,
		logger:   logging.OrDiscard(logger),
	}
}

func (e *Engine) ShippingPolicy() ShippingPolicy {
	return e.shipping
}

// LoadProducts fetches the distinct products referenced by items concurrently.
// Products that no longer exist are left out of the map; any other store error aborts.
func (e *Engine) LoadProducts(ctx context.Context, items []LineItem) (map[int64]*catalog.Product, error) {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	results := make([]*catalog.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, id := range ids {
		g.Go(func() error {
			product, err := e.products.GetProduct(gctx, id)
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to load product %d: %w", id, err)
			}
			results[i] = product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	productsByID := make(map[int64]*catalog.Product, len(ids))
	for _, product := range results {
		if product != nil {
			productsByID[product.ID] = product
		}
	}
	return productsByID, nil
}

// ResolveCartDetails pairs each line with its product and option. Lines whose product or
// option is gone are logged and skipped.
func (e *Engine) ResolveCartDetails(ctx context.Context, items []LineItem, productsByID map[int64]*catalog.Product) []DisplayItem {
	logger := logging.FromContext(ctx, e.logger)

	resolved := make([]DisplayItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		product, ok := productsByID[item.ProductID]
		if !ok || product == nil {
			logger.Warn("cart line references missing product", "product_id", item.ProductID)
			e.metrics.IncDroppedLine("missing_product")
			continue
		}
		option, ok := product.Option(item.PackageOptionID)
		if !ok {
			logger.Warn("cart line references missing package option", "product_id", item.ProductID, "package_option_id", item.PackageOptionID)
			e.metrics.IncDroppedLine("missing_option")
			continue
		}

		resolved = append(resolved, DisplayItem{
			ProductID: product.ID,
			Name:      product.Name,
			ImageURL:  product.ImageURL,
			Category:  product.Category,
			Option:    option,
			Quantity:  item.Quantity,
			LineTotal: option.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return resolved
}

// Subtotal sums resolved lines and gifts.
func Subtotal(items []DisplayItem, gifts []GiftLineItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Option.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	for _, gift := range gifts {
		subtotal = subtotal.Add(gift.Price.Mul(decimal.NewFromInt(int64(gift.Quantity))))
	}
	return subtotal
}

// Total is subtotal plus shipping. Tax is left to the payment provider.
func Total(subtotal, shipping decimal.Decimal) decimal.Decimal {
	return subtotal.Add(shipping)
}

// Quote prices the cart against current catalog data.
func (e *Engine) Quote(ctx context.Context, c *Cart) (*Quote, error) {
	if c == nil {
		c = &Cart{}
	}

	productsByID, err := e.LoadProducts(ctx, c.Items)
	if err != nil {
		return nil, err
	}

	items := e.ResolveCartDetails(ctx, c.Items, productsByID)
	gifts := c.Gifts
	if gifts == nil {
		gifts = []GiftLineItem{}
	}

	subtotal := Subtotal(items, gifts)
	shipping := e.shipping.Cost(subtotal)
	e.metrics.IncCartQuote()

	dropped := 0
	for _, item := range c.Items {
		if item.Quantity > 0 {
			dropped++
		}
	}
	dropped -= len(items)

	return &Quote{
		Items:    items,
		Gifts:    gifts,
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    Total(subtotal, shipping),
		Dropped:  dropped,
	}, nil
}
