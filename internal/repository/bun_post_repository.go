package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/terraconstructs/blogapi/internal/db/models"
	"github.com/uptrace/bun"
)

// BunPostRepository implements PostRepository using Bun ORM
type BunPostRepository struct {
	db *bun.DB
}

// NewBunPostRepository creates a new Bun-based post repository
func NewBunPostRepository(db *bun.DB) *BunPostRepository {
	return &BunPostRepository{db: db}
}

// Create inserts a new post and fills in its generated ID
func (r *BunPostRepository) Create(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(post).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// GetByID retrieves a post with its author
func (r *BunPostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	post := new(models.Post)
	err := r.db.NewSelect().
		Model(post).
		Relation("Author").
		Where("p.id = ?", id).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get post by ID: %w", err)
	}
	return post, nil
}

// List returns one page of posts, newest first, and the total number of posts
func (r *BunPostRepository) List(ctx context.Context, page Page) ([]models.Post, int, error) {
	var posts []models.Post
	total, err := r.db.NewSelect().
		Model(&posts).
		Relation("Author").
		OrderExpr("p.id DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}

// Update writes title and content; author_id is left untouched
func (r *BunPostRepository) Update(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now().UTC()
	result, err := r.db.NewUpdate().
		Model(post).
		Column("title", "content", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post %d: %w", post.ID, ErrNotFound)
	}
	return nil
}

// Delete removes the post and its comments in one transaction
func (r *BunPostRepository) Delete(ctx context.Context, id int64) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.Comment)(nil)).
			Where("post_id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete comments of post %d: %w", id, err)
		}

		result, err := tx.NewDelete().
			Model((*models.Post)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		return nil
	})
}
