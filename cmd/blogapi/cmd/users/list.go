package users

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/terraconstructs/blogapi/internal/config"
	"github.com/terraconstructs/blogapi/internal/db/bunx"
	"github.com/terraconstructs/blogapi/internal/repository"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		accounts, err := repository.NewBunAccountRepository(db).List(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLES\tCREATED")
		for _, a := range accounts {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				a.ID, a.Username, a.Email, strings.Join(a.Roles, ","), a.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}
