package db

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/kmetijamarosa/storefront/internal/catalog"
)

func encodeOptions(options catalog.PackageOptions) ([]byte, error) {
	if options == nil {
		options = catalog.PackageOptions{}
	}
	data, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("encode package options: %w", err)
	}
	return data, nil
}

func encodeJSON(v any, what string) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", what, err)
	}
	return data, nil
}

func nullText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	return pgtype.Text{String: s, Valid: s != ""}
}

func textArray(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// numeric columns are read as text and parsed to keep exact cents.
func parseNumeric(raw string, column string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %w", column, raw, err)
	}
	return d, nil
}
