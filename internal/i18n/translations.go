// Package i18n localizes product names and descriptions for the storefront locales.
package i18n

import (
	_ "embed"
	"fmt"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/kmetijamarosa/storefront/internal/catalog"
)

//go:embed translations.yaml
var embeddedTranslations []byte

const SourceLocale = "sl"

type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
)

var supportedTags = []language.Tag{
	language.Slovenian,
	language.English,
	language.German,
	language.Croatian,
}

var matcher = language.NewMatcher(supportedTags)

// SupportedLocales lists the base locales in preference order; the first is the source.
func SupportedLocales() []string {
	locales := make([]string, 0, len(supportedTags))
	for _, tag := range supportedTags {
		base, _ := tag.Base()
		locales = append(locales, base.String())
	}
	return locales
}

// NormalizeLocale maps any BCP 47 string or Accept-Language value onto a supported base
// locale. Unknown or empty input yields the source locale.
func NormalizeLocale(raw string) string {
	if raw == "" {
		return SourceLocale
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return SourceLocale
	}
	tag, _, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return SourceLocale
	}
	base, _ := tag.Base()
	return base.String()
}

type entry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Table maps source product names to per-locale strings.
type Table struct {
	entries map[string]map[string]entry
}

func Parse(data []byte) (*Table, error) {
	entries := map[string]map[string]entry{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse translations: %w", err)
	}
	return &Table{entries: entries}, nil
}

var loadDefault = sync.OnceValues(func() (*Table, error) {
	return Parse(embeddedTranslations)
})

// Default returns the compiled-in table.
func Default() *Table {
	table, err := loadDefault()
	if err != nil {
		panic(err)
	}
	return table
}

// Translate looks up a field for a product by its source name. A miss returns the source
// string: the name itself for FieldName, and the source-locale description from the
// table for FieldDescription. That description is "" when the table has none; use
// TranslateDescription when the product's own description is at hand.
func (t *Table) Translate(originalName, locale string, field Field) string {
	source := originalName
	if field == FieldDescription {
		source = t.lookup(originalName, SourceLocale, FieldDescription)
	}
	return t.translate(originalName, source, locale, field)
}

// TranslateDescription is Translate for FieldDescription with the product's own source
// description as the fallback. An empty sourceDescription falls back to the table.
func (t *Table) TranslateDescription(originalName, sourceDescription, locale string) string {
	source := sourceDescription
	if source == "" {
		source = t.lookup(originalName, SourceLocale, FieldDescription)
	}
	return t.translate(originalName, source, locale, FieldDescription)
}

// Localize returns a copy of product with Name and Description in the requested locale.
// Stored locale columns win over the table; the source strings are the last resort.
func (t *Table) Localize(product *catalog.Product, locale string) *catalog.Product {
	if product == nil {
		return nil
	}
	locale = NormalizeLocale(locale)
	localized := *product
	if locale == SourceLocale {
		return &localized
	}

	if name := product.LocalizedName(locale); name != product.Name {
		localized.Name = name
	} else {
		localized.Name = t.translate(product.Name, product.Name, locale, FieldName)
	}
	if description := product.LocalizedDescription(locale); description != product.Description {
		localized.Description = description
	} else {
		localized.Description = t.TranslateDescription(product.Name, product.Description, locale)
	}
	return &localized
}

func (t *Table) translate(originalName, source, locale string, field Field) string {
	locale = NormalizeLocale(locale)
	if locale == SourceLocale && field == FieldName {
		return originalName
	}
	if value := t.lookup(originalName, locale, field); value != "" {
		return value
	}
	return source
}

func (t *Table) lookup(originalName, locale string, field Field) string {
	if t == nil {
		return ""
	}
	byLocale, ok := t.entries[originalName]
	if !ok {
		return ""
	}
	e, ok := byLocale[locale]
	if !ok {
		return ""
	}
	if field == FieldDescription {
		return e.Description
	}
	return e.Name
}
