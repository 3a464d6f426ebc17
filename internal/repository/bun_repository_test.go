package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraconstructs/blogapi/internal/db/dbtest"
	"github.com/terraconstructs/blogapi/internal/db/models"
	"github.com/uptrace/bun"
)

func createAccount(t *testing.T, db *bun.DB, username string, roles ...string) *models.Account {
	t.Helper()
	account := &models.Account{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$placeholder",
		Roles:        roles,
	}
	require.NoError(t, NewBunAccountRepository(db).Create(context.Background(), account))
	require.NotZero(t, account.ID)
	return account
}

func TestBunAccountRepository(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewBunAccountRepository(db)
	ctx := context.Background()

	alice := createAccount(t, db, "alice", "ROLE_USER")

	t.Run("get by username", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, models.RoleList{"ROLE_USER"}, got.Roles)
		assert.NotZero(t, got.CreatedAt)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByUsername(ctx, "nobody")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = repo.GetByID(ctx, 9999)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup := &models.Account{Username: "alice", Email: "other@example.com", PasswordHash: "x", Roles: models.RoleList{"USER"}}
		err := repo.Create(ctx, dup)
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("list", func(t *testing.T) {
		createAccount(t, db, "bob", "USER", "ADMIN")
		accounts, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, "alice", accounts[0].Username)
		assert.Equal(t, models.RoleList{"USER", "ADMIN"}, accounts[1].Roles)
	})
}

func TestBunPostRepository(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewBunPostRepository(db)
	ctx := context.Background()

	author := createAccount(t, db, "writer", "USER")

	var ids []int64
	for i := 1; i <= 5; i++ {
		post := &models.Post{Title: fmt.Sprintf("post %d", i), Content: "body", AuthorID: author.ID}
		require.NoError(t, repo.Create(ctx, post))
		ids = append(ids, post.ID)
	}

	t.Run("get loads author", func(t *testing.T) {
		got, err := repo.GetByID(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, "post 1", got.Title)
		require.NotNil(t, got.Author)
		assert.Equal(t, "writer", got.Author.Username)
	})

	t.Run("list newest first with total", func(t *testing.T) {
		posts, total, err := repo.List(ctx, Page{Number: 0, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, posts, 2)
		assert.Equal(t, ids[4], posts[0].ID)
		assert.Equal(t, ids[3], posts[1].ID)

		posts, _, err = repo.List(ctx, Page{Number: 2, Size: 2})
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, ids[0], posts[0].ID)
	})

	t.Run("update keeps author", func(t *testing.T) {
		other := createAccount(t, db, "intruder", "USER")
		post := &models.Post{ID: ids[1], Title: "edited", Content: "new body", AuthorID: other.ID}
		require.NoError(t, repo.Update(ctx, post))

		got, err := repo.GetByID(ctx, ids[1])
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Title)
		assert.Equal(t, "new body", got.Content)
		assert.Equal(t, author.ID, got.AuthorID)
	})

	t.Run("update missing", func(t *testing.T) {
		err := repo.Update(ctx, &models.Post{ID: 9999, Title: "x", Content: "y"})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete cascades comments", func(t *testing.T) {
		comments := NewBunCommentRepository(db)
		comment := &models.Comment{PostID: ids[2], Content: "first", AuthorID: author.ID}
		require.NoError(t, comments.Create(ctx, comment))

		require.NoError(t, repo.Delete(ctx, ids[2]))

		_, err := repo.GetByID(ctx, ids[2])
		require.ErrorIs(t, err, ErrNotFound)
		_, err = comments.GetByID(ctx, comment.ID)
		require.ErrorIs(t, err, ErrNotFound)

		err = repo.Delete(ctx, ids[2])
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBunCommentRepository(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewBunCommentRepository(db)
	ctx := context.Background()

	author := createAccount(t, db, "writer", "USER")
	post := &models.Post{Title: "t", Content: "c", AuthorID: author.ID}
	require.NoError(t, NewBunPostRepository(db).Create(ctx, post))

	var ids []int64
	for i := 1; i <= 3; i++ {
		comment := &models.Comment{PostID: post.ID, Content: fmt.Sprintf("comment %d", i), AuthorID: author.ID}
		require.NoError(t, repo.Create(ctx, comment))
		ids = append(ids, comment.ID)
	}

	t.Run("list by post in creation order", func(t *testing.T) {
		comments, total, err := repo.ListByPost(ctx, post.ID, Page{Number: 0, Size: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, comments, 3)
		assert.Equal(t, ids[0], comments[0].ID)
		require.NotNil(t, comments[0].Author)
		assert.Equal(t, "writer", comments[0].Author.Username)

		comments, total, err = repo.ListByPost(ctx, post.ID+1, Page{Number: 0, Size: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, comments)
	})

	t.Run("update content only", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, &models.Comment{ID: ids[0], Content: "edited", AuthorID: 12345, PostID: 12345}))

		got, err := repo.GetByID(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Content)
		assert.Equal(t, author.ID, got.AuthorID)
		assert.Equal(t, post.ID, got.PostID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, ids[1]))
		_, err := repo.GetByID(ctx, ids[1])
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, repo.Delete(ctx, ids[1]), ErrNotFound)
	})
}
