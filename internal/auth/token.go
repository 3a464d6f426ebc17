package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest HMAC key accepted by NewTokenCodec (256 bits).
const MinSecretLength = 32

var signingMethod = jwt.SigningMethodHS256

// TokenClaims is the JWT payload carried by bearer tokens. iat and exp are
// Timestamps so sub-second issue instants survive the round trip.
type TokenClaims struct {
	ID        string     `json:"jti,omitempty"`
	Subject   string     `json:"sub,omitempty"`
	IssuedAt  *Timestamp `json:"iat,omitempty"`
	ExpiresAt *Timestamp `json:"exp,omitempty"`
	Username  string     `json:"username,omitempty"`
	Roles     []string   `json:"roles"`
}

func (c TokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return c.ExpiresAt.NumericDate(), nil
}

func (c TokenClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return c.IssuedAt.NumericDate(), nil
}

func (c TokenClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

func (c TokenClaims) GetIssuer() (string, error) { return "", nil }

func (c TokenClaims) GetSubject() (string, error) { return c.Subject, nil }

func (c TokenClaims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

// Token is a decoded bearer token. It carries no verification guarantee unless it
// was produced by Issue or accepted by Verify.
type Token struct {
	// Raw is the compact serialized form.
	Raw       string
	ID        string
	Subject   string
	Username  string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec issues and verifies HS256-signed bearer tokens. It is read-only after
// construction and safe for concurrent use.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec constructs a codec signing with secret and issuing tokens valid for ttl.
func NewTokenCodec(secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &TokenCodec{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
	}, nil
}

// TTL returns the configured token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a new token for subject, valid for exactly [now, now+ttl).
func (c *TokenCodec) Issue(subject, username string, roles []string, now time.Time) (Token, error) {
	if subject == "" {
		return Token{}, errors.New("issue token: subject is required")
	}
	roles = NormalizeRoles(roles)
	if len(roles) == 0 {
		return Token{}, errors.New("issue token: at least one role is required")
	}

	issuedAt := now.Round(0)
	expiresAt := issuedAt.Add(c.ttl)

	claims := TokenClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  NewTimestamp(issuedAt),
		ExpiresAt: NewTimestamp(expiresAt),
		Username:  username,
		Roles:     roles,
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{
		Raw:       signed,
		ID:        claims.ID,
		Subject:   subject,
		Username:  username,
		Roles:     roles,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Parse decodes the compact form without checking the signature or the validity window.
func (c *TokenCodec) Parse(serialized string) (Token, error) {
	parser := jwt.NewParser(jwt.WithStrictDecoding())

	claims := &TokenClaims{}
	_, parts, err := parser.ParseUnverified(serialized, claims)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if _, err := parser.DecodeSegment(parts[2]); err != nil || parts[2] == "" {
		return Token{}, fmt.Errorf("%w: invalid signature segment", ErrMalformedToken)
	}

	return tokenFromClaims(serialized, claims)
}

// Verify checks the signature (constant-time HMAC comparison) and then the validity
// window at now, and returns the principal the token describes. Expiry is exclusive:
// a token is rejected from the instant now >= expiresAt. There is no clock-skew leeway.
func (c *TokenCodec) Verify(serialized string, now time.Time) (Principal, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	claims := &TokenClaims{}
	if _, err := parser.ParseWithClaims(serialized, claims, c.keyFunc); err != nil {
		return Principal{}, classifyParseError(err)
	}

	token, err := tokenFromClaims(serialized, claims)
	if err != nil {
		return Principal{}, err
	}

	id, err := strconv.ParseInt(token.Subject, 10, 64)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: subject %q is not an account id", ErrMalformedToken, token.Subject)
	}

	return Principal{
		ID:       id,
		Username: token.Username,
		Roles:    token.Roles,
	}, nil
}

func (c *TokenCodec) keyFunc(*jwt.Token) (any, error) {
	return c.secret, nil
}

func tokenFromClaims(serialized string, claims *TokenClaims) (Token, error) {
	if claims.Subject == "" {
		return Token{}, fmt.Errorf("%w: missing sub claim", ErrMalformedToken)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return Token{}, fmt.Errorf("%w: missing iat or exp claim", ErrMalformedToken)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		return Token{}, fmt.Errorf("%w: exp must be after iat", ErrMalformedToken)
	}
	roles := NormalizeRoles(claims.Roles)
	if len(roles) == 0 {
		return Token{}, fmt.Errorf("%w: missing roles claim", ErrMalformedToken)
	}

	return Token{
		Raw:       serialized,
		ID:        claims.ID,
		Subject:   claims.Subject,
		Username:  claims.Username,
		Roles:     roles,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// classifyParseError maps golang-jwt errors onto the verification taxonomy.
// Anything that is neither a signature nor a validity-window failure is malformed.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

// ExtractToken pulls the token out of a raw header value. With an empty scheme the
// whole (trimmed) value is the token; otherwise the value must start with the scheme
// followed by a space, compared case-insensitively.
func ExtractToken(raw, scheme string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if scheme == "" {
		return raw, true
	}

	prefix := scheme + " "
	if len(raw) <= len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(raw[len(prefix):])
	return token, token != ""
}
