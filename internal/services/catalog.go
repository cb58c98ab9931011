package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kmetijamarosa/storefront/internal/catalog"
	"github.com/kmetijamarosa/storefront/internal/db"
	"github.com/kmetijamarosa/storefront/internal/gift"
	"github.com/kmetijamarosa/storefront/internal/i18n"
	"github.com/kmetijamarosa/storefront/internal/images"
	"github.com/kmetijamarosa/storefront/internal/logging"
)

type ProductReader interface {
	List(ctx context.Context, filter db.ProductFilter) ([]*catalog.Product, error)
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

type GiftPackageReader interface {
	List(ctx context.Context) ([]catalog.GiftPackage, error)
	Get(ctx context.Context, id int64) (catalog.GiftPackage, error)
}

type RecipeReader interface {
	List(ctx context.Context) ([]*catalog.Recipe, error)
	Get(ctx context.Context, id int64) (*catalog.Recipe, error)
}

type GalleryProcessor interface {
	ProcessProductImages(ctx context.Context, productID int64, mainImage string, additional []string) images.Gallery
}

// ProductView is a product as the storefront renders it: translated, with loadable image URLs.
type ProductView struct {
	ID               int64                  `json:"id"`
	Name             string                 `json:"name"`
	Description      string                 `json:"description"`
	ImageURL         string                 `json:"imageUrl"`
	AdditionalImages []string               `json:"additionalImages"`
	Category         string                 `json:"category,omitempty"`
	StockQuantity    *int                   `json:"stockQuantity,omitempty"`
	PackageOptions   catalog.PackageOptions `json:"packageOptions"`
	CheapestOption   *catalog.PackageOption `json:"cheapestOption,omitempty"`
	Gallery          *images.Gallery        `json:"gallery,omitempty"`
	Locale           string                 `json:"locale"`
}

type GiftPackageView struct {
	catalog.GiftPackage
	ImageURL    string `json:"image_url"`
	MaxProducts int    `json:"max_products"`
}

type RecipeView struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary,omitempty"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	ImageURL    string   `json:"imageUrl"`
	ProductIDs  []int64  `json:"productIds,omitempty"`
}

type CatalogService struct {
	products     ProductReader
	giftPackages GiftPackageReader
	recipes      RecipeReader
	translations *i18n.Table
	resolver     *images.Resolver
	gallery      GalleryProcessor
	logger       *slog.Logger
}

func NewCatalogService(products ProductReader, giftPackages GiftPackageReader, recipes RecipeReader, translations *i18n.Table, resolver *images.Resolver, gallery GalleryProcessor, logger *slog.Logger) *CatalogService {
	if translations == nil {
		translations = i18n.Default()
	}
	return &CatalogService{
		products:     products,
		giftPackages: giftPackages,
		recipes:      recipes,
		translations: translations,
		resolver:     resolver,
		gallery:      gallery,
		logger:       logging.OrDiscard(logger),
	}
}

// ListProducts returns active products, optionally limited to one category.
func (s *CatalogService) ListProducts(ctx context.Context, category, locale string) ([]ProductView, error) {
	products, err := s.products.List(ctx, db.ProductFilter{Category: category, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	locale = i18n.NormalizeLocale(locale)
	views := make([]ProductView, 0, len(products))
	for _, product := range products {
		views = append(views, s.productView(product, locale))
	}
	return views, nil
}

// GetProduct returns one active product with its validated image gallery.
func (s *CatalogService) GetProduct(ctx context.Context, id int64, locale string) (*ProductView, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, catalog.ErrProductNotFound
	}

	view := s.productView(product, i18n.NormalizeLocale(locale))
	if s.gallery != nil {
		gallery := s.gallery.ProcessProductImages(ctx, product.ID, product.ImageURL, product.AdditionalImages)
		view.Gallery = &gallery
	}
	return &view, nil
}

func (s *CatalogService) productView(product *catalog.Product, locale string) ProductView {
	localized := s.translations.Localize(product, locale)

	view := ProductView{
		ID:               localized.ID,
		Name:             localized.Name,
		Description:      localized.Description,
		ImageURL:         s.resolveImage(localized.ImageURL),
		AdditionalImages: make([]string, 0, len(localized.AdditionalImages)),
		Category:         localized.Category,
		StockQuantity:    localized.StockQuantity,
		PackageOptions:   localized.PackageOptions,
		Locale:           locale,
	}
	if view.PackageOptions == nil {
		view.PackageOptions = catalog.PackageOptions{}
	}
	for _, img := range localized.AdditionalImages {
		view.AdditionalImages = append(view.AdditionalImages, s.resolveImage(img))
	}
	if cheapest, ok := catalog.CheapestPackageOption(localized.PackageOptions); ok {
		view.CheapestOption = &cheapest
	}
	return view
}

func (s *CatalogService) ListGiftPackages(ctx context.Context) ([]GiftPackageView, error) {
	packages, err := s.giftPackages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gift packages: %w", err)
	}
	views := make([]GiftPackageView, 0, len(packages))
	for _, pkg := range packages {
		views = append(views, GiftPackageView{
			GiftPackage: pkg,
			ImageURL:    s.resolveImage(pkg.ImageURL),
			MaxProducts: gift.MaxProducts(pkg.ID),
		})
	}
	return views, nil
}

func (s *CatalogService) ListRecipes(ctx context.Context, locale string) ([]RecipeView, error) {
	recipes, err := s.recipes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	locale = i18n.NormalizeLocale(locale)
	views := make([]RecipeView, 0, len(recipes))
	for _, recipe := range recipes {
		views = append(views, s.recipeView(recipe, locale))
	}
	return views, nil
}

func (s *CatalogService) GetRecipe(ctx context.Context, id int64, locale string) (*RecipeView, error) {
	recipe, err := s.recipes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.recipeView(recipe, i18n.NormalizeLocale(locale))
	return &view, nil
}

// Recipes carry an English title only; every other locale reads the source title.
func (s *CatalogService) recipeView(recipe *catalog.Recipe, locale string) RecipeView {
	title := recipe.Title
	if locale == "en" && recipe.TitleEN != "" {
		title = recipe.TitleEN
	}
	return RecipeView{
		ID:          recipe.ID,
		Title:       title,
		Summary:     recipe.Summary,
		Ingredients: nonNilStrings(recipe.Ingredients),
		Steps:       nonNilStrings(recipe.Steps),
		ImageURL:    s.resolveImage(recipe.ImageURL),
		ProductIDs:  recipe.ProductIDs,
	}
}

func (s *CatalogService) resolveImage(raw string) string {
	if s.resolver == nil {
		return raw
	}
	return s.resolver.Resolve(raw, "")
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
