package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmetijamarosa/storefront/internal/catalog"
)

const productColumns = `
	id, name, COALESCE(name_en, ''), COALESCE(name_de, ''), COALESCE(name_hr, ''),
	description, COALESCE(description_en, ''), COALESCE(description_de, ''), COALESCE(description_hr, ''),
	COALESCE(image_url, ''), additional_images, stock_quantity, COALESCE(category, ''),
	is_active, package_options, created_at`

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// ProductFilter narrows List. Zero values match everything.
type ProductFilter struct {
	Category   string
	ActiveOnly bool
}

func (f ProductFilter) where() (string, []any) {
	var clauses []string
	var args []any
	if f.ActiveOnly {
		clauses = append(clauses, "is_active")
	}
	if category := strings.TrimSpace(f.Category); category != "" {
		args = append(args, category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *ProductStore) List(ctx context.Context, filter ProductFilter) ([]*catalog.Product, error) {
	where, args := filter.where()
	rows, err := s.pool.Query(ctx, "SELECT"+productColumns+" FROM products"+where+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *ProductStore) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	row := s.pool.QueryRow(ctx, "SELECT"+productColumns+" FROM products WHERE id = $1", id)
	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return product, nil
}

func (s *ProductStore) Create(ctx context.Context, product *catalog.Product) error {
	options, err := encodeOptions(product.PackageOptions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (
			name, name_en, name_de, name_hr, description, description_en, description_de, description_hr,
			image_url, additional_images, stock_quantity, category, is_active, package_options
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`
	err = s.pool.QueryRow(ctx, query,
		product.Name, nullText(product.NameEN), nullText(product.NameDE), nullText(product.NameHR),
		product.Description, nullText(product.DescriptionEN), nullText(product.DescriptionDE), nullText(product.DescriptionHR),
		nullText(product.ImageURL), textArray(product.AdditionalImages), product.StockQuantity, nullText(product.Category),
		product.IsActive, options,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (s *ProductStore) Update(ctx context.Context, product *catalog.Product) error {
	options, err := encodeOptions(product.PackageOptions)
	if err != nil {
		return err
	}

	query := `
		UPDATE products SET
			name = $2, name_en = $3, name_de = $4, name_hr = $5,
			description = $6, description_en = $7, description_de = $8, description_hr = $9,
			image_url = $10, additional_images = $11, stock_quantity = $12, category = $13,
			is_active = $14, package_options = $15, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at
	`
	err = s.pool.QueryRow(ctx, query, product.ID,
		product.Name, nullText(product.NameEN), nullText(product.NameDE), nullText(product.NameHR),
		product.Description, nullText(product.DescriptionEN), nullText(product.DescriptionDE), nullText(product.DescriptionHR),
		nullText(product.ImageURL), textArray(product.AdditionalImages), product.StockQuantity, nullText(product.Category),
		product.IsActive, options,
	).Scan(&product.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("update product %d: %w", product.ID, err)
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var p catalog.Product
	// package_options may hold a JSON string or malformed entries from older admin tooling;
	// PackageOptions.Scan normalizes them.
	err := row.Scan(
		&p.ID, &p.Name, &p.NameEN, &p.NameDE, &p.NameHR,
		&p.Description, &p.DescriptionEN, &p.DescriptionDE, &p.DescriptionHR,
		&p.ImageURL, &p.AdditionalImages, &p.StockQuantity, &p.Category,
		&p.IsActive, &p.PackageOptions, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
