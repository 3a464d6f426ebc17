package users

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/terraconstructs/blogapi/internal/auth"
	"github.com/terraconstructs/blogapi/internal/config"
	"github.com/terraconstructs/blogapi/internal/db/bunx"
	"github.com/terraconstructs/blogapi/internal/db/models"
	"github.com/terraconstructs/blogapi/internal/repository"
)

var (
	emailFlag    string
	usernameFlag string
	passwordFlag string
	rolesInput   []string
	stdinFlag    bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Validate required flags
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}

		if strings.TrimSpace(usernameFlag) == "" {
			return fmt.Errorf("--username flag is required")
		}

		roles := auth.NormalizeRoles(rolesInput)
		if len(roles) == 0 {
			return fmt.Errorf("at least one role must be specified using --role")
		}
		password := passwordFlag
		if stdinFlag {
			// Read password from stdin
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Fprint(cmd.ErrOrStderr(), "Enter password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}

		if password == "" {
			return fmt.Errorf("password is required (use --password or --stdin)")
		}

		// Validate email format
		if _, err := mail.ParseAddress(emailFlag); err != nil {
			return fmt.Errorf("invalid email format: %w", err)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		policy, err := auth.NewPolicyFromFile(cfg.Authz.PolicyPath)
		if err != nil {
			return fmt.Errorf("failed to load authorization policy: %w", err)
		}
		if invalid := unknownRoles(policy, roles); len(invalid) > 0 {
			return fmt.Errorf("invalid role(s): %s (no grants in the authorization policy)",
				strings.Join(invalid, ", "))
		}

		hashedPassword, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		account := &models.Account{
			Username:     strings.TrimSpace(usernameFlag),
			Email:        emailFlag,
			PasswordHash: hashedPassword,
			Roles:        roles,
		}

		accounts := repository.NewBunAccountRepository(db)
		if err := accounts.Create(context.Background(), account); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("account with username %q or email %q already exists", account.Username, account.Email)
			}
			return fmt.Errorf("failed to create account: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Account created successfully!")
		fmt.Fprintln(out, "----------------------------------------")
		fmt.Fprintf(out, "ID: %d\n", account.ID)
		fmt.Fprintf(out, "Username: %s\n", account.Username)
		fmt.Fprintf(out, "Email: %s\n", account.Email)
		fmt.Fprintf(out, "Roles: %s\n", strings.Join(roles, ", "))
		fmt.Fprintln(out, "----------------------------------------")

		return nil
	},
}

// unknownRoles returns the roles the policy has no grants for.
func unknownRoles(policy *auth.Policy, roles []string) []string {
	var invalid []string
	for _, role := range roles {
		if !policy.KnownRole(role) {
			invalid = append(invalid, role)
		}
	}
	return invalid
}
