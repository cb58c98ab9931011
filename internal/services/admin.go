package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go/attribute"

	"github.com/kmetijamarosa/storefront/internal/catalog"
	"github.com/kmetijamarosa/storefront/internal/db"
	"github.com/kmetijamarosa/storefront/internal/logging"
	"github.com/kmetijamarosa/storefront/internal/observability"
)

// UserError carries a message that is safe to show to the admin.
type UserError struct {
	Message string
}

func (e UserError) Error() string {
	return e.Message
}

var ErrAdminServiceUnavailable = errors.New("admin service unavailable")

type ProductStore interface {
	ProductReader
	Create(ctx context.Context, product *catalog.Product) error
	Update(ctx context.Context, product *catalog.Product) error
	Delete(ctx context.Context, id int64) error
}

type RecipeStore interface {
	RecipeReader
	Create(ctx context.Context, recipe *catalog.Recipe) error
	Update(ctx context.Context, recipe *catalog.Recipe) error
	Delete(ctx context.Context, id int64) error
}

type GalleryInvalidator interface {
	InvalidateGallery(ctx context.Context, productID int64, mainImage string)
}

type AdminService struct {
	productStore ProductStore
	recipeStore  RecipeStore
	validator    *catalog.Validator
	gallery      GalleryInvalidator
	logger       *slog.Logger
}

func NewAdminService(productStore ProductStore, recipeStore RecipeStore, validator *catalog.Validator, gallery GalleryInvalidator, logger *slog.Logger) *AdminService {
	if validator == nil {
		validator = catalog.NewValidator()
	}
	return &AdminService{
		productStore: productStore,
		recipeStore:  recipeStore,
		validator:    validator,
		gallery:      gallery,
		logger:       logging.OrDiscard(logger),
	}
}

func (s *AdminService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// ListProducts returns every product, active or not.
func (s *AdminService) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	if s.productStore == nil {
		return nil, ErrAdminServiceUnavailable
	}
	products, err := s.productStore.List(ctx, db.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *AdminService) CreateProduct(ctx context.Context, input catalog.ProductInput) (*catalog.Product, error) {
	if s.productStore == nil {
		return nil, ErrAdminServiceUnavailable
	}
	product, err := s.validator.Product(input)
	if err != nil {
		return nil, userError(err)
	}
	if err := s.productStore.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.recordChange(ctx, "product", "created")
	s.loggerFromContext(ctx).Info("product created", "product_id", product.ID, "options", len(product.PackageOptions))
	return product, nil
}

// UpdateProduct replaces a product. The product's cached galleries for both the old and
// new main image are dropped.
func (s *AdminService) UpdateProduct(ctx context.Context, id int64, input catalog.ProductInput) (*catalog.Product, error) {
	if s.productStore == nil {
		return nil, ErrAdminServiceUnavailable
	}
	existing, err := s.productStore.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product, err := s.validator.Product(input)
	if err != nil {
		return nil, userError(err)
	}
	product.ID = id
	if err := s.productStore.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.invalidateGallery(ctx, id, existing.ImageURL)
	if product.ImageURL != existing.ImageURL {
		s.invalidateGallery(ctx, id, product.ImageURL)
	}
	s.recordChange(ctx, "product", "updated")
	s.loggerFromContext(ctx).Info("product updated", "product_id", id, "options", len(product.PackageOptions))
	return product, nil
}

func (s *AdminService) DeleteProduct(ctx context.Context, id int64) error {
	if s.productStore == nil {
		return ErrAdminServiceUnavailable
	}
	existing, err := s.productStore.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.productStore.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateGallery(ctx, id, existing.ImageURL)
	s.recordChange(ctx, "product", "deleted")
	s.loggerFromContext(ctx).Info("product deleted", "product_id", id)
	return nil
}

func (s *AdminService) CreateRecipe(ctx context.Context, input catalog.RecipeInput) (*catalog.Recipe, error) {
	if s.recipeStore == nil {
		return nil, ErrAdminServiceUnavailable
	}
	recipe, err := s.validator.Recipe(input)
	if err != nil {
		return nil, userError(err)
	}
	if err := s.recipeStore.Create(ctx, recipe); err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	s.recordChange(ctx, "recipe", "created")
	return recipe, nil
}

func (s *AdminService) UpdateRecipe(ctx context.Context, id int64, input catalog.RecipeInput) (*catalog.Recipe, error) {
	if s.recipeStore == nil {
		return nil, ErrAdminServiceUnavailable
	}
	recipe, err := s.validator.Recipe(input)
	if err != nil {
		return nil, userError(err)
	}
	recipe.ID = id
	if err := s.recipeStore.Update(ctx, recipe); err != nil {
		if errors.Is(err, catalog.ErrRecipeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	s.recordChange(ctx, "recipe", "updated")
	return recipe, nil
}

func (s *AdminService) DeleteRecipe(ctx context.Context, id int64) error {
	if s.recipeStore == nil {
		return ErrAdminServiceUnavailable
	}
	if err := s.recipeStore.Delete(ctx, id); err != nil {
		return err
	}
	s.recordChange(ctx, "recipe", "deleted")
	return nil
}

func (s *AdminService) invalidateGallery(ctx context.Context, productID int64, mainImage string) {
	if s.gallery == nil {
		return
	}
	s.gallery.InvalidateGallery(ctx, productID, mainImage)
}

func (s *AdminService) recordChange(ctx context.Context, entity, action string) {
	observability.Count(ctx, "admin.catalog.changed",
		attribute.String("entity", entity),
		attribute.String("action", action),
	)
}

func userError(err error) error {
	if errors.Is(err, catalog.ErrInvalidInput) {
		return UserError{Message: err.Error()}
	}
	return err
}
