package auth

import "errors"

// Token verification failures. All of them are recovered at the middleware
// boundary by treating the request as anonymous.
var (
	// ErrMalformedToken is returned when a token is structurally invalid: wrong
	// segment count, bad base64, unparsable or incomplete claims.
	ErrMalformedToken = errors.New("malformed token")

	// ErrSignatureInvalid is returned when the MAC does not match (tampered token
	// or a token signed with another key).
	ErrSignatureInvalid = errors.New("token signature invalid")

	// ErrExpired is returned when the verification instant falls outside
	// [issuedAt, expiresAt).
	ErrExpired = errors.New("token expired")
)

// ErrInvalidCredentials is the single failure kind for a rejected login. Unknown
// usernames and wrong passwords are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccountNotFound is returned by AccountLookup implementations when no account
// matches the query.
var ErrAccountNotFound = errors.New("account not found")

// FailureKind names the verification failure carried by err, for logging.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrExpired):
		return "expired"
	default:
		return "unknown"
	}
}
