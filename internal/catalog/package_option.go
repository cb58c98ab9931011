// Package catalog provides the product and package option model.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultUnit = "g"

// Units lists the units the admin form offers. Stored options are not rejected for other values.
var Units = []string{"g", "kg", "ml", "l"}

// PackageOption is a purchasable variant of a product.
type PackageOption struct {
	UniqueID    string          `json:"uniqueId"`
	Price       decimal.Decimal `json:"price"`
	Weight      string          `json:"weight"`
	Unit        string          `json:"unit"`
	Description string          `json:"description"`
}

type packageOptionJSON struct {
	UniqueID    string      `json:"uniqueId"`
	Price       json.Number `json:"price"`
	Weight      string      `json:"weight"`
	Unit        string      `json:"unit"`
	Description string      `json:"description"`
}

// MarshalJSON writes the price as a JSON number with two decimals.
func (o PackageOption) MarshalJSON() ([]byte, error) {
	return json.Marshal(packageOptionJSON{
		UniqueID:    o.UniqueID,
		Price:       json.Number(o.Price.StringFixed(2)),
		Weight:      o.Weight,
		Unit:        o.Unit,
		Description: o.Description,
	})
}

// UnmarshalJSON accepts the loose shapes found in stored rows. Invalid entries decode to the zero option.
func (o *PackageOption) UnmarshalJSON(data []byte) error {
	entry, err := decodeJSON(data)
	if err != nil {
		return err
	}
	cleaned, ok := cleanEntry(entry)
	if !ok {
		*o = PackageOption{}
		return nil
	}
	*o = cleaned
	return nil
}

// PackageOptions is the parsed form of a product's package_options column.
// Rows may hold a JSON array, a JSON string wrapping an array, or garbage; all decode without error.
type PackageOptions []PackageOption

func (p *PackageOptions) UnmarshalJSON(data []byte) error {
	*p = ParsePackageOptions(json.RawMessage(data))
	return nil
}

// Scan implements sql.Scanner for jsonb, json and text columns. NULL scans to an empty list.
func (p *PackageOptions) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = PackageOptions{}
	case []byte:
		*p = ParsePackageOptions(v)
	case string:
		*p = ParsePackageOptions(v)
	default:
		return fmt.Errorf("catalog: cannot scan %T into PackageOptions", src)
	}
	return nil
}

// ParsePackageOptions normalizes any raw representation into a list of options.
// It never fails: unparseable input yields an empty list.
func ParsePackageOptions(raw any) []PackageOption {
	switch v := raw.(type) {
	case nil:
		return []PackageOption{}
	case []PackageOption:
		return v
	case PackageOptions:
		return []PackageOption(v)
	case []any:
		return CleanPackageOptions(v)
	case []map[string]any:
		entries := make([]any, 0, len(v))
		for _, entry := range v {
			entries = append(entries, entry)
		}
		return CleanPackageOptions(entries)
	case string:
		return parseEncoded([]byte(v))
	case []byte:
		return parseEncoded(v)
	case json.RawMessage:
		return parseEncoded(v)
	default:
		return []PackageOption{}
	}
}

func parseEncoded(data []byte) []PackageOption {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []PackageOption{}
	}
	decoded, err := decodeJSON(trimmed)
	if err != nil {
		return []PackageOption{}
	}
	switch v := decoded.(type) {
	case []any:
		return CleanPackageOptions(v)
	case string:
		return parseEncoded([]byte(v))
	default:
		return []PackageOption{}
	}
}

func decodeJSON(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var decoded any
	if err := decoder.Decode(&decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// CleanPackageOptions drops entries that fail ValidatePackageOption and coerces the rest.
func CleanPackageOptions(entries []any) []PackageOption {
	cleaned := make([]PackageOption, 0, len(entries))
	for _, entry := range entries {
		if option, ok := cleanEntry(entry); ok {
			cleaned = append(cleaned, option)
		}
	}
	return cleaned
}

func cleanEntry(entry any) (PackageOption, bool) {
	if option, ok := entry.(PackageOption); ok {
		option.Price = nonNegative(option.Price)
		return option, true
	}
	if !ValidatePackageOption(entry) {
		return PackageOption{}, false
	}
	fields := entry.(map[string]any)

	price, ok := numberToDecimal(fields["price"])
	if !ok {
		price = decimal.Zero
	}

	return PackageOption{
		UniqueID:    stringify(fields["uniqueId"]),
		Price:       nonNegative(price),
		Weight:      stringify(fields["weight"]),
		Unit:        stringify(fields["unit"]),
		Description: stringify(fields["description"]),
	}, true
}

// ValidatePackageOption reports whether a decoded JSON entry has the package option shape.
// Weight may be a string or a number; numbers are stringified by CleanPackageOptions.
func ValidatePackageOption(entry any) bool {
	fields, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := fields["uniqueId"].(string); !ok {
		return false
	}
	if !isNumber(fields["price"]) {
		return false
	}
	if _, ok := fields["unit"].(string); !ok {
		return false
	}
	if _, isString := fields["weight"].(string); !isString && !isNumber(fields["weight"]) {
		return false
	}
	if description, present := fields["description"]; present && description != nil {
		if _, ok := description.(string); !ok {
			return false
		}
	}
	return true
}

func isNumber(v any) bool {
	switch n := v.(type) {
	case json.Number:
		_, err := n.Float64()
		return err == nil
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32, int, int32, int64:
		return true
	case decimal.Decimal:
		return true
	default:
		return false
	}
}

func numberToDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Zero, false
	}
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		encoded, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

// FindPackageOption looks up an option by its unique id.
func FindPackageOption(options []PackageOption, id string) (PackageOption, bool) {
	for _, option := range options {
		if option.UniqueID == id {
			return option, true
		}
	}
	return PackageOption{}, false
}

// CheapestPackageOption returns the lowest priced option. Ties keep the first one seen.
func CheapestPackageOption(options []PackageOption) (PackageOption, bool) {
	if len(options) == 0 {
		return PackageOption{}, false
	}
	cheapest := options[0]
	for _, option := range options[1:] {
		if option.Price.LessThan(cheapest.Price) {
			cheapest = option
		}
	}
	return cheapest, true
}

// FormatPackageOption renders an option label such as "Darilo (500g) - €12.50".
func FormatPackageOption(option PackageOption) string {
	price := "€" + option.Price.StringFixed(2)
	if strings.TrimSpace(option.Weight) != "" {
		return option.Description + " (" + option.Weight + option.Unit + ") - " + price
	}
	return option.Description + " - " + price
}

// NewDefaultPackageOption returns a blank option for the admin editor.
func NewDefaultPackageOption() PackageOption {
	return PackageOption{
		UniqueID: uuid.NewString(),
		Price:    decimal.Zero,
		Unit:     DefaultUnit,
	}
}
