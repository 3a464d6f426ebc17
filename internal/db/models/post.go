package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Post is a blog entry. AuthorID is fixed at creation and never updated.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Title     string    `bun:"title,notnull"`
	Content   string    `bun:"content,notnull"`
	AuthorID  int64     `bun:"author_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Author *Account `bun:"rel:belongs-to,join:author_id=id"`
}

// Comment belongs to a post and is removed with it.
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:c"`

	ID        int64     `bun:"id,pk,autoincrement"`
	PostID    int64     `bun:"post_id,notnull"`
	Content   string    `bun:"content,notnull"`
	AuthorID  int64     `bun:"author_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Author *Account `bun:"rel:belongs-to,join:author_id=id"`
}
