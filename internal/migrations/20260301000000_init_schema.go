package migrations

import (
	"context"
	"fmt"

	"github.com/terraconstructs/blogapi/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260301000000, down_20260301000000)
}

// up_20260301000000 creates accounts, posts and comments
func up_20260301000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating accounts table...")
	_, err := db.NewCreateTable().
		Model((*models.Account)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create accounts table: %w", err)
	}
	if IsPostgreSQL(db) {
		_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_accounts_roles ON accounts USING GIN (roles)`)
		if err != nil {
			return fmt.Errorf("failed to create accounts roles index: %w", err)
		}
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating posts table...")
	_, err = db.NewCreateTable().
		Model((*models.Post)(nil)).
		IfNotExists().
		ForeignKey(`("author_id") REFERENCES "accounts" ("id")`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create posts table: %w", err)
	}
	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id)`)
	if err != nil {
		return fmt.Errorf("failed to create posts author index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating comments table...")
	_, err = db.NewCreateTable().
		Model((*models.Comment)(nil)).
		IfNotExists().
		ForeignKey(`("post_id") REFERENCES "posts" ("id") ON DELETE CASCADE`).
		ForeignKey(`("author_id") REFERENCES "accounts" ("id")`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create comments table: %w", err)
	}
	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id)`)
	if err != nil {
		return fmt.Errorf("failed to create comments post index: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260301000000 drops the schema in reverse dependency order
func down_20260301000000(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{(*models.Comment)(nil), (*models.Post)(nil), (*models.Account)(nil)} {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return nil
}
