package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraconstructs/blogapi/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Bearer token utilities",
}

var tokenInspectCmd = &cobra.Command{
	Use:   "inspect [token]",
	Short: "Decode a bearer token and check it against the configured secret",
	Long: `Prints the claims of a token and whether it verifies with the configured
secret at the current time. Reads the token from stdin when no argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw string
		if len(args) == 1 {
			raw = args[0]
		} else {
			scanner := bufio.NewScanner(os.Stdin)
			if scanner.Scan() {
				raw = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read token: %w", err)
			}
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return errors.New("token is required")
		}
		if extracted, ok := auth.ExtractToken(raw, cfg.Token.Scheme); ok {
			raw = extracted
		}

		secret, err := cfg.Token.SecretBytes()
		if err != nil {
			return err
		}
		codec, err := auth.NewTokenCodec(secret, cfg.Token.TTL)
		if err != nil {
			return err
		}

		token, err := codec.Parse(raw)
		if err != nil {
			return fmt.Errorf("failed to decode token: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "----------------------------------------")
		fmt.Fprintf(out, "Token ID:   %s\n", token.ID)
		fmt.Fprintf(out, "Subject:    %s\n", token.Subject)
		fmt.Fprintf(out, "Username:   %s\n", token.Username)
		fmt.Fprintf(out, "Roles:      %s\n", strings.Join(token.Roles, ", "))
		fmt.Fprintf(out, "Issued at:  %s\n", token.IssuedAt.Format(time.RFC3339))
		fmt.Fprintf(out, "Expires at: %s\n", token.ExpiresAt.Format(time.RFC3339))

		if _, err := codec.Verify(raw, time.Now()); err != nil {
			fmt.Fprintf(out, "Status:     rejected (%s)\n", auth.FailureKind(err))
		} else {
			fmt.Fprintln(out, "Status:     valid")
		}
		fmt.Fprintln(out, "----------------------------------------")
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenInspectCmd)
	rootCmd.AddCommand(tokenCmd)
}
