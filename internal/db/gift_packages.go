package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmetijamarosa/storefront/internal/catalog"
)

type GiftPackageStore struct {
	pool *pgxpool.Pool
}

func NewGiftPackageStore(pool *pgxpool.Pool) *GiftPackageStore {
	return &GiftPackageStore{pool: pool}
}

const giftPackageColumns = `id, name, description, base_price::text, COALESCE(image_url, '')`

func (s *GiftPackageStore) List(ctx context.Context) ([]catalog.GiftPackage, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+giftPackageColumns+" FROM gift_packages ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list gift packages: %w", err)
	}
	defer rows.Close()

	var packages []catalog.GiftPackage
	for rows.Next() {
		pkg, err := scanGiftPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list gift packages: %w", err)
	}
	return packages, nil
}

func (s *GiftPackageStore) Get(ctx context.Context, id int64) (catalog.GiftPackage, error) {
	pkg, err := scanGiftPackage(s.pool.QueryRow(ctx, "SELECT "+giftPackageColumns+" FROM gift_packages WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.GiftPackage{}, catalog.ErrGiftPackageNotFound
	}
	if err != nil {
		return catalog.GiftPackage{}, fmt.Errorf("get gift package %d: %w", id, err)
	}
	return pkg, nil
}

func scanGiftPackage(row pgx.Row) (catalog.GiftPackage, error) {
	var (
		pkg       catalog.GiftPackage
		basePrice string
	)
	if err := row.Scan(&pkg.ID, &pkg.Name, &pkg.Description, &basePrice, &pkg.ImageURL); err != nil {
		return catalog.GiftPackage{}, err
	}
	price, err := parseNumeric(basePrice, "base_price")
	if err != nil {
		return catalog.GiftPackage{}, err
	}
	pkg.BasePrice = price
	return pkg, nil
}
