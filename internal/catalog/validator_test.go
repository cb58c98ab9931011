package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func validProductInput() ProductInput {
	return ProductInput{
		Name:     "Bučno olje",
		IsActive: true,
		PackageOptions: []OptionInput{
			{UniqueID: "half", Price: decimal.RequireFromString("8.5"), Weight: "0,5", Unit: "l", Description: "steklenica"},
			{Price: decimal.RequireFromString("15"), Weight: "1", Unit: "l"},
		},
	}
}

func TestValidatorProduct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*ProductInput)
		wantErr string
	}{
		{
			name:   "valid product",
			mutate: func(*ProductInput) {},
		},
		{
			name:    "missing name",
			mutate:  func(in *ProductInput) { in.Name = "" },
			wantErr: "Name",
		},
		{
			name: "too many additional images",
			mutate: func(in *ProductInput) {
				in.AdditionalImages = []string{"1", "2", "3", "4", "5", "6"}
			},
			wantErr: "AdditionalImages",
		},
		{
			name: "negative price",
			mutate: func(in *ProductInput) {
				in.PackageOptions[0].Price = decimal.NewFromInt(-1)
			},
			wantErr: "price must be zero or positive",
		},
		{
			name: "duplicate option ids",
			mutate: func(in *ProductInput) {
				in.PackageOptions[1].UniqueID = "half"
			},
			wantErr: "duplicate package option id",
		},
		{
			name: "unknown unit",
			mutate: func(in *ProductInput) {
				in.PackageOptions[0].Unit = "oz"
			},
			wantErr: "Unit",
		},
		{
			name: "active without options",
			mutate: func(in *ProductInput) {
				in.PackageOptions = nil
			},
			wantErr: "at least one package option",
		},
		{
			name: "inactive without options",
			mutate: func(in *ProductInput) {
				in.IsActive = false
				in.PackageOptions = nil
			},
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := validProductInput()
			tt.mutate(&input)

			product, err := v.Product(input)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if product == nil {
				t.Fatalf("expected product")
			}
		})
	}
}

func TestValidatorProductFillsOptionIDs(t *testing.T) {
	t.Parallel()

	product, err := NewValidator().Product(validProductInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product.PackageOptions[0].UniqueID != "half" {
		t.Errorf("existing id should be kept, got %q", product.PackageOptions[0].UniqueID)
	}
	if product.PackageOptions[1].UniqueID == "" {
		t.Errorf("missing id should be generated")
	}
	if !product.Purchasable() {
		t.Errorf("product with options should be purchasable")
	}
}

func TestValidatorRecipe(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	if _, err := v.Recipe(RecipeInput{Title: "Bučna juha", Ingredients: []string{"buča"}, Steps: []string{"skuhaj"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := v.Recipe(RecipeInput{Title: ""}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProductLocalizedFallbacks(t *testing.T) {
	t.Parallel()

	product := &Product{Name: "Med", NameEN: "Honey", Description: "Cvetlični med"}
	if got := product.LocalizedName("en"); got != "Honey" {
		t.Errorf("LocalizedName(en) = %q, want Honey", got)
	}
	if got := product.LocalizedName("de"); got != "Med" {
		t.Errorf("LocalizedName(de) = %q, want Med", got)
	}
	if got := product.LocalizedDescription("en"); got != "Cvetlični med" {
		t.Errorf("LocalizedDescription(en) = %q, want source description", got)
	}
}
