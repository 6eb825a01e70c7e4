package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xavisolis/nutmeglocal/internal/entity"
)

// ErrPostNotFound is returned when no published guide matches the slug.
var ErrPostNotFound = errors.New("post not found")

// PostsRepository reads published guides.
type PostsRepository interface {
	ListPublished(ctx context.Context) ([]entity.Post, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*entity.Post, error)
}

// PGXPostsRepository implements PostsRepository using pgx.
type PGXPostsRepository struct {
	pool pgxPool
}

// NewPGXPostsRepository wires a pgx backed repository.
func NewPGXPostsRepository(pool *pgxpool.Pool) *PGXPostsRepository {
	return &PGXPostsRepository{pool: pool}
}

// ListPublished returns published guides newest first, without their body.
func (r *PGXPostsRepository) ListPublished(ctx context.Context) ([]entity.Post, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, title, slug, excerpt, cover_image, published, published_at, created_at
        FROM posts
        WHERE published = TRUE
        ORDER BY published_at DESC NULLS LAST, created_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]entity.Post, 0)
	for rows.Next() {
		var post entity.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Slug, &post.Excerpt, &post.CoverImage, &post.Published, &post.PublishedAt, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// GetPublishedBySlug fetches a single published guide with its body.
func (r *PGXPostsRepository) GetPublishedBySlug(ctx context.Context, slug string) (*entity.Post, error) {
	var post entity.Post
	err := r.pool.QueryRow(ctx, `
        SELECT id, title, slug, excerpt, content, cover_image, published, published_at, created_at
        FROM posts
        WHERE slug = $1 AND published = TRUE
    `, slug).Scan(&post.ID, &post.Title, &post.Slug, &post.Excerpt, &post.Content, &post.CoverImage, &post.Published, &post.PublishedAt, &post.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("query post by slug: %w", err)
	}
	return &post, nil
}
