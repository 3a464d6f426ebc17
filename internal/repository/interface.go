package repository

import (
	"context"
	"errors"

	"github.com/terraconstructs/blogapi/internal/db/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert violates a uniqueness constraint.
var ErrConflict = errors.New("already exists")

// Page selects a slice of an ordered listing. Number is zero-based.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return p.Number * p.Size
}

// AccountRepository exposes persistence operations for login accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
}

// PostRepository exposes persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	// List returns posts newest first with the total count.
	List(ctx context.Context, page Page) ([]models.Post, int, error)
	// Update writes title and content only; author_id is never modified.
	Update(ctx context.Context, post *models.Post) error
	// Delete removes the post and its comments atomically.
	Delete(ctx context.Context, id int64) error
}

// CommentRepository exposes persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListByPost(ctx context.Context, postID int64, page Page) ([]models.Comment, int, error)
	// Update writes content only; author_id and post_id are never modified.
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id int64) error
}
