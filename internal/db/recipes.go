package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmetijamarosa/storefront/internal/catalog"
)

type RecipeStore struct {
	pool *pgxpool.Pool
}

func NewRecipeStore(pool *pgxpool.Pool) *RecipeStore {
	return &RecipeStore{pool: pool}
}

const recipeColumns = `id, title, COALESCE(title_en, ''), summary, ingredients, steps, COALESCE(image_url, ''), product_ids, created_at`

func (s *RecipeStore) List(ctx context.Context) ([]*catalog.Recipe, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+recipeColumns+" FROM recipes ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*catalog.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

func (s *RecipeStore) Get(ctx context.Context, id int64) (*catalog.Recipe, error) {
	recipe, err := scanRecipe(s.pool.QueryRow(ctx, "SELECT "+recipeColumns+" FROM recipes WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrRecipeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe %d: %w", id, err)
	}
	return recipe, nil
}

func (s *RecipeStore) Create(ctx context.Context, recipe *catalog.Recipe) error {
	query := `
		INSERT INTO recipes (title, title_en, summary, ingredients, steps, image_url, product_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := s.pool.QueryRow(ctx, query,
		recipe.Title, nullText(recipe.TitleEN), recipe.Summary, textArray(recipe.Ingredients), textArray(recipe.Steps),
		nullText(recipe.ImageURL), productIDs(recipe.ProductIDs),
	).Scan(&recipe.ID, &recipe.CreatedAt)
	if err != nil {
		return fmt.Errorf("create recipe: %w", err)
	}
	return nil
}

func (s *RecipeStore) Update(ctx context.Context, recipe *catalog.Recipe) error {
	query := `
		UPDATE recipes SET title = $2, title_en = $3, summary = $4, ingredients = $5, steps = $6,
			image_url = $7, product_ids = $8
		WHERE id = $1
		RETURNING created_at
	`
	err := s.pool.QueryRow(ctx, query, recipe.ID,
		recipe.Title, nullText(recipe.TitleEN), recipe.Summary, textArray(recipe.Ingredients), textArray(recipe.Steps),
		nullText(recipe.ImageURL), productIDs(recipe.ProductIDs),
	).Scan(&recipe.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ErrRecipeNotFound
	}
	if err != nil {
		return fmt.Errorf("update recipe %d: %w", recipe.ID, err)
	}
	return nil
}

func (s *RecipeStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recipe %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrRecipeNotFound
	}
	return nil
}

func scanRecipe(row pgx.Row) (*catalog.Recipe, error) {
	var r catalog.Recipe
	if err := row.Scan(&r.ID, &r.Title, &r.TitleEN, &r.Summary, &r.Ingredients, &r.Steps, &r.ImageURL, &r.ProductIDs, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func productIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
