package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/terraconstructs/blogapi/internal/db/models"
	"github.com/uptrace/bun"
)

// BunCommentRepository implements CommentRepository using Bun ORM
type BunCommentRepository struct {
	db *bun.DB
}

// NewBunCommentRepository creates a new Bun-based comment repository
func NewBunCommentRepository(db *bun.DB) *BunCommentRepository {
	return &BunCommentRepository{db: db}
}

// Create inserts a new comment and fills in its generated ID
func (r *BunCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(comment).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment with its author
func (r *BunCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	comment := new(models.Comment)
	err := r.db.NewSelect().
		Model(comment).
		Relation("Author").
		Where("c.id = ?", id).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get comment by ID: %w", err)
	}
	return comment, nil
}

// ListByPost returns one page of a post's comments in creation order
func (r *BunCommentRepository) ListByPost(ctx context.Context, postID int64, page Page) ([]models.Comment, int, error) {
	var comments []models.Comment
	total, err := r.db.NewSelect().
		Model(&comments).
		Relation("Author").
		Where("c.post_id = ?", postID).
		OrderExpr("c.id ASC").
		Limit(page.Size).
		Offset(page.Offset()).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, nil
}

// Update writes content; author_id and post_id are left untouched
func (r *BunCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	comment.UpdatedAt = time.Now().UTC()
	result, err := r.db.NewUpdate().
		Model(comment).
		Column("content", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("comment %d: %w", comment.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a single comment
func (r *BunCommentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.NewDelete().
		Model((*models.Comment)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	return nil
}
