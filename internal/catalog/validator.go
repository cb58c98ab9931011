package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ProductInput is the admin payload for creating or replacing a product.
type ProductInput struct {
	Name             string        `json:"name" validate:"required,max=200"`
	NameEN           string        `json:"name_en" validate:"max=200"`
	NameDE           string        `json:"name_de" validate:"max=200"`
	NameHR           string        `json:"name_hr" validate:"max=200"`
	Description      string        `json:"description" validate:"max=5000"`
	DescriptionEN    string        `json:"description_en" validate:"max=5000"`
	DescriptionDE    string        `json:"description_de" validate:"max=5000"`
	DescriptionHR    string        `json:"description_hr" validate:"max=5000"`
	ImageURL         string        `json:"image_url" validate:"max=2048"`
	AdditionalImages []string      `json:"additional_images" validate:"max=5,dive,required,max=2048"`
	StockQuantity    *int          `json:"stock_quantity" validate:"omitempty,gte=0"`
	Category         string        `json:"category" validate:"max=100"`
	IsActive         bool          `json:"is_active"`
	PackageOptions   []OptionInput `json:"package_options" validate:"dive"`
}

// OptionInput is a package option as edited in the admin form. A blank id gets a fresh one.
type OptionInput struct {
	UniqueID    string          `json:"uniqueId" validate:"max=64"`
	Price       decimal.Decimal `json:"price"`
	Weight      string          `json:"weight" validate:"max=32"`
	Unit        string          `json:"unit" validate:"omitempty,oneof=g kg ml l"`
	Description string          `json:"description" validate:"max=200"`
}

// RecipeInput is the admin payload for recipes.
type RecipeInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	TitleEN     string   `json:"title_en" validate:"max=200"`
	Summary     string   `json:"summary" validate:"max=2000"`
	Ingredients []string `json:"ingredients" validate:"max=100,dive,required,max=500"`
	Steps       []string `json:"steps" validate:"max=100,dive,required,max=2000"`
	ImageURL    string   `json:"image_url" validate:"max=2048"`
	ProductIDs  []int64  `json:"product_ids" validate:"max=50,dive,gt=0"`
}

var ErrInvalidInput = errors.New("invalid input")

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Product validates the payload and converts it into a product ready to store.
func (v *Validator) Product(input ProductInput) (*Product, error) {
	if err := v.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	options, err := v.options(input.PackageOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if input.IsActive && len(options) == 0 {
		return nil, fmt.Errorf("%w: active products need at least one package option", ErrInvalidInput)
	}

	return &Product{
		Name:             strings.TrimSpace(input.Name),
		NameEN:           strings.TrimSpace(input.NameEN),
		NameDE:           strings.TrimSpace(input.NameDE),
		NameHR:           strings.TrimSpace(input.NameHR),
		Description:      input.Description,
		DescriptionEN:    input.DescriptionEN,
		DescriptionDE:    input.DescriptionDE,
		DescriptionHR:    input.DescriptionHR,
		ImageURL:         strings.TrimSpace(input.ImageURL),
		AdditionalImages: input.AdditionalImages,
		StockQuantity:    input.StockQuantity,
		Category:         strings.TrimSpace(input.Category),
		IsActive:         input.IsActive,
		PackageOptions:   options,
	}, nil
}

func (v *Validator) options(inputs []OptionInput) (PackageOptions, error) {
	options := make(PackageOptions, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for i, input := range inputs {
		if input.Price.IsNegative() {
			return nil, fmt.Errorf("option %d: price must be zero or positive", i)
		}

		option := NewDefaultPackageOption()
		if id := strings.TrimSpace(input.UniqueID); id != "" {
			option.UniqueID = id
		}
		if seen[option.UniqueID] {
			return nil, fmt.Errorf("duplicate package option id: %s", option.UniqueID)
		}
		seen[option.UniqueID] = true

		option.Price = input.Price.Round(2)
		option.Weight = strings.TrimSpace(input.Weight)
		option.Description = strings.TrimSpace(input.Description)
		if unit := strings.TrimSpace(input.Unit); unit != "" {
			if !slices.Contains(Units, unit) {
				return nil, fmt.Errorf("option %d: unsupported unit %q", i, unit)
			}
			option.Unit = unit
		}
		options = append(options, option)
	}
	return options, nil
}

// Recipe validates a recipe payload.
func (v *Validator) Recipe(input RecipeInput) (*Recipe, error) {
	if err := v.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return &Recipe{
		Title:       strings.TrimSpace(input.Title),
		TitleEN:     strings.TrimSpace(input.TitleEN),
		Summary:     input.Summary,
		Ingredients: input.Ingredients,
		Steps:       input.Steps,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		ProductIDs:  input.ProductIDs,
	}, nil
}
