package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/terraconstructs/blogapi/internal/auth"
)

// tokenIssuer exchanges credentials for a signed token.
type tokenIssuer interface {
	IssueToken(ctx context.Context, username, password string) (auth.IssuedToken, error)
	TokenScheme() string
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PrincipalResponse describes the caller of GET /api/auth/me.
type PrincipalResponse struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// HandleLogin verifies credentials and returns a token. Unknown users and wrong
// passwords get the same 401 response.
func HandleLogin(issuer tokenIssuer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing username or password")
			return
		}

		issued, err := issuer.IssueToken(r.Context(), req.Username, req.Password)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token:     issued.Token,
			TokenType: issuer.TokenScheme(),
			Username:  issued.Username,
			ExpiresAt: issued.ExpiresAt,
		})
	}
}

// HandleMe returns the authenticated principal.
func HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		writeJSON(w, http.StatusOK, PrincipalResponse{
			ID:       principal.ID,
			Username: principal.Username,
			Roles:    principal.Roles,
		})
	}
}
