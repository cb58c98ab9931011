package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MaxAdditionalImages is the gallery limit the admin editor enforces.
const MaxAdditionalImages = 5

// Product is a catalog row with its embedded package options.
type Product struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	NameEN           string         `json:"name_en,omitempty"`
	NameDE           string         `json:"name_de,omitempty"`
	NameHR           string         `json:"name_hr,omitempty"`
	Description      string         `json:"description"`
	DescriptionEN    string         `json:"description_en,omitempty"`
	DescriptionDE    string         `json:"description_de,omitempty"`
	DescriptionHR    string         `json:"description_hr,omitempty"`
	ImageURL         string         `json:"image_url,omitempty"`
	AdditionalImages []string       `json:"additional_images,omitempty"`
	StockQuantity    *int           `json:"stock_quantity,omitempty"`
	Category         string         `json:"category,omitempty"`
	IsActive         bool           `json:"is_active"`
	PackageOptions   PackageOptions `json:"package_options"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Purchasable reports whether the product can be added to a cart.
func (p *Product) Purchasable() bool {
	return p != nil && len(p.PackageOptions) > 0
}

// Option returns the package option with the given id.
func (p *Product) Option(id string) (PackageOption, bool) {
	if p == nil {
		return PackageOption{}, false
	}
	return FindPackageOption(p.PackageOptions, id)
}

// LocalizedName returns the stored column for a locale, falling back to the source name.
func (p *Product) LocalizedName(locale string) string {
	var name string
	switch locale {
	case "en":
		name = p.NameEN
	case "de":
		name = p.NameDE
	case "hr":
		name = p.NameHR
	}
	if name == "" {
		return p.Name
	}
	return name
}

// LocalizedDescription returns the stored column for a locale, falling back to the source description.
func (p *Product) LocalizedDescription(locale string) string {
	var description string
	switch locale {
	case "en":
		description = p.DescriptionEN
	case "de":
		description = p.DescriptionDE
	case "hr":
		description = p.DescriptionHR
	}
	if description == "" {
		return p.Description
	}
	return description
}

// GiftPackage is a box tier offered by the gift builder.
type GiftPackage struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// Recipe is an editorial recipe that links to catalog products.
type Recipe struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	TitleEN     string    `json:"title_en,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Ingredients []string  `json:"ingredients"`
	Steps       []string  `json:"steps"`
	ImageURL    string    `json:"image_url,omitempty"`
	ProductIDs  []int64   `json:"product_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrGiftPackageNotFound = errors.New("gift package not found")
	ErrRecipeNotFound      = errors.New("recipe not found")
)
