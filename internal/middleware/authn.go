package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/terraconstructs/blogapi/internal/auth"
)

// RequestAuthenticator verifies the raw value of the token header at a given
// instant, including scheme handling. *auth.Service satisfies it.
type RequestAuthenticator interface {
	AuthenticateRequest(rawHeaderValue string, now time.Time) (auth.Principal, bool)
	Now() time.Time
}

// DefaultTokenHeader carries the token when no header is configured.
const DefaultTokenHeader = "Authorization"

// NewAuthnMiddleware attaches the principal of a valid bearer token to the request
// context. Requests without the header or whose header value the authenticator
// rejects continue anonymously; rejecting them is left to authorization.
// A principal attached by an earlier middleware is kept.
func NewAuthnMiddleware(authenticator RequestAuthenticator, header string) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultTokenHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.PrincipalFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			raw := r.Header.Get(header)
			if strings.TrimSpace(raw) == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, ok := authenticator.AuthenticateRequest(raw, authenticator.Now())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}
