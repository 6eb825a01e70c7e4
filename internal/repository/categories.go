package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xavisolis/nutmeglocal/internal/entity"
)

// ErrCategoryNotFound is returned when no category matches the slug.
var ErrCategoryNotFound = errors.New("category not found")

// CategoriesRepository reads the category tree.
type CategoriesRepository interface {
	List(ctx context.Context) ([]entity.Category, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Category, error)
}

// PGXCategoriesRepository implements CategoriesRepository using pgx.
type PGXCategoriesRepository struct {
	pool pgxPool
}

// NewPGXCategoriesRepository wires a pgx backed repository.
func NewPGXCategoriesRepository(pool *pgxpool.Pool) *PGXCategoriesRepository {
	return &PGXCategoriesRepository{pool: pool}
}

// List returns every category with its subcategories, both ordered by display_order.
func (r *PGXCategoriesRepository) List(ctx context.Context) ([]entity.Category, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, slug, description, icon, display_order
        FROM categories
        ORDER BY display_order ASC, name ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]entity.Category, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var category entity.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug, &category.Description, &category.Icon, &category.DisplayOrder); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		category.Subcategories = []entity.Subcategory{}
		index[category.ID] = len(categories)
		categories = append(categories, category)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	subs, err := r.subcategories(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if i, ok := index[sub.CategoryID]; ok {
			categories[i].Subcategories = append(categories[i].Subcategories, sub)
		}
	}
	return categories, nil
}

// GetBySlug fetches one category with its subcategories.
func (r *PGXCategoriesRepository) GetBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	var category entity.Category
	err := r.pool.QueryRow(ctx, `
        SELECT id, name, slug, description, icon, display_order
        FROM categories
        WHERE slug = $1
    `, slug).Scan(&category.ID, &category.Name, &category.Slug, &category.Description, &category.Icon, &category.DisplayOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("query category by slug: %w", err)
	}

	subs, err := r.subcategories(ctx, &category.ID)
	if err != nil {
		return nil, err
	}
	category.Subcategories = subs
	return &category, nil
}

func (r *PGXCategoriesRepository) subcategories(ctx context.Context, categoryID *uuid.UUID) ([]entity.Subcategory, error) {
	query := `SELECT id, category_id, name, slug, display_order FROM subcategories`
	args := make([]any, 0, 1)
	if categoryID != nil {
		query += ` WHERE category_id = $1`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY display_order ASC, name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer rows.Close()

	subs := make([]entity.Subcategory, 0)
	for rows.Next() {
		var sub entity.Subcategory
		if err := rows.Scan(&sub.ID, &sub.CategoryID, &sub.Name, &sub.Slug, &sub.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan subcategory row: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subcategories: %w", err)
	}
	return subs, nil
}
