package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/kmetijamarosa/storefront/internal/cart"
	"github.com/kmetijamarosa/storefront/internal/catalog"
	"github.com/kmetijamarosa/storefront/internal/gift"
	"github.com/kmetijamarosa/storefront/internal/logging"
)

// GiftRequest is a gift box as submitted by the builder.
type GiftRequest struct {
	GiftPackageID    int64                `json:"giftPackageId" validate:"required,gt=0"`
	Items            []GiftSelectionInput `json:"items" validate:"max=20,dive"`
	RecipientName    string               `json:"recipientName" validate:"max=100"`
	RecipientMessage string               `json:"recipientMessage" validate:"max=500"`
}

type GiftSelectionInput struct {
	ProductID       int64  `json:"productId" validate:"gt=0"`
	PackageOptionID string `json:"packageOptionId" validate:"max=64"`
	Quantity        int    `json:"quantity" validate:"gte=0,lte=99"`
}

type GiftPreviewItem struct {
	ProductID int64                 `json:"productId"`
	Name      string                `json:"name"`
	Option    catalog.PackageOption `json:"packageOption"`
	Quantity  int                   `json:"quantity"`
	LineTotal decimal.Decimal       `json:"lineTotal"`
}

type GiftPreview struct {
	Package     catalog.GiftPackage `json:"package"`
	MaxProducts int                 `json:"maxProducts"`
	Items       []GiftPreviewItem   `json:"items"`
	Total       decimal.Decimal     `json:"total"`
}

// GiftService composes gift boxes against the live catalog.
type GiftService struct {
	packages GiftPackageReader
	engine   *cart.Engine
	logger   *slog.Logger
}

func NewGiftService(packages GiftPackageReader, engine *cart.Engine, logger *slog.Logger) *GiftService {
	return &GiftService{
		packages: packages,
		engine:   engine,
		logger:   logging.OrDiscard(logger),
	}
}

// Preview composes req without storing it.
func (s *GiftService) Preview(ctx context.Context, req GiftRequest) (*GiftPreview, error) {
	composer, err := s.compose(ctx, req)
	if err != nil {
		return nil, err
	}

	selections := composer.Items()
	preview := &GiftPreview{
		Package:     composer.Package(),
		MaxProducts: composer.MaxProducts(),
		Items:       make([]GiftPreviewItem, 0, len(selections)),
		Total:       composer.TotalPrice(),
	}
	for _, sel := range selections {
		preview.Items = append(preview.Items, GiftPreviewItem{
			ProductID: sel.Product.ID,
			Name:      sel.Product.Name,
			Option:    sel.Option,
			Quantity:  sel.Quantity,
			LineTotal: sel.LineTotal(),
		})
	}
	return preview, nil
}

// AddToCart composes req and appends the finished box to c. Empty boxes are rejected.
func (s *GiftService) AddToCart(ctx context.Context, c *cart.Cart, req GiftRequest) (*cart.GiftLineItem, error) {
	composer, err := s.compose(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(composer.Items()) == 0 {
		return nil, gift.ErrEmptySelection
	}

	item := composer.BuildGiftLineItem(req.RecipientName, req.RecipientMessage)
	c.AddGift(item)
	logging.FromContext(ctx, s.logger).Info("gift added to cart", "gift_id", item.ID, "gift_package_id", item.GiftPackageID, "price", item.Price.StringFixed(2))
	return &item, nil
}

func (s *GiftService) compose(ctx context.Context, req GiftRequest) (*gift.Composer, error) {
	pkg, err := s.packages.Get(ctx, req.GiftPackageID)
	if err != nil {
		return nil, err
	}

	lines := make([]cart.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, cart.LineItem{ProductID: item.ProductID, PackageOptionID: item.PackageOptionID, Quantity: item.Quantity})
	}
	productsByID, err := s.engine.LoadProducts(ctx, lines)
	if err != nil {
		return nil, err
	}

	composer := gift.NewComposer(pkg)
	for _, item := range req.Items {
		product, ok := productsByID[item.ProductID]
		if !ok || !product.IsActive {
			return nil, fmt.Errorf("%w: %d", catalog.ErrProductNotFound, item.ProductID)
		}
		index, err := composer.AddProductOption(product, item.PackageOptionID)
		if err != nil {
			return nil, err
		}
		if item.Quantity > 1 {
			composer.UpdateQuantity(index, item.Quantity)
		}
	}
	return composer, nil
}

// GiftErrorCode maps composer failures to the codes the builder UI shows.
func GiftErrorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, gift.ErrNoOptions):
		return "no-options", true
	case errors.Is(err, gift.ErrLimitReached):
		return "limit-reached", true
	case errors.Is(err, gift.ErrEmptySelection):
		return "empty-selection", true
	}
	return "", false
}
