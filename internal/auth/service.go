package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/terraconstructs/blogapi/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// IssuedToken is returned to a client after a successful login.
type IssuedToken struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// Service is the entry point the HTTP layer and the blog service use for
// authentication and authorization.
type Service struct {
	codec    *TokenCodec
	verifier *CredentialVerifier
	policy   *Policy
	logger   *slog.Logger
	metrics  *telemetry.AuthMetrics
	scheme   string
	now      func() time.Time
}

// DefaultTokenScheme precedes the token in the Authorization header.
const DefaultTokenScheme = "Bearer"

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger used for authentication diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records login and token verification outcomes.
func WithMetrics(metrics *telemetry.AuthMetrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithTokenScheme sets the scheme expected before the token in the header value.
// An empty scheme means the whole header value is the token.
func WithTokenScheme(scheme string) Option {
	return func(s *Service) {
		s.scheme = scheme
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the codec, verifier and policy together.
func NewService(codec *TokenCodec, verifier *CredentialVerifier, policy *Policy, opts ...Option) (*Service, error) {
	if codec == nil || verifier == nil || policy == nil {
		return nil, errors.New("auth service requires codec, verifier and policy")
	}
	s := &Service{
		codec:    codec,
		verifier: verifier,
		policy:   policy,
		logger:   slog.Default(),
		scheme:   DefaultTokenScheme,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Now returns the current time from the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// IssueToken checks credentials and signs a token for the account.
func (s *Service) IssueToken(ctx context.Context, username, password string) (IssuedToken, error) {
	ctx, span := telemetry.StartSpan(ctx, "blogapi/auth", "auth.IssueToken")
	defer span.End()

	principal, err := s.verifier.Authenticate(ctx, username, password)
	s.metrics.RecordLogin(ctx, err == nil)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.DebugContext(ctx, "login rejected", "username", username)
			telemetry.AddEvent(span, "authentication.failed")
		} else {
			telemetry.RecordError(span, err)
		}
		return IssuedToken{}, err
	}

	token, err := s.codec.Issue(strconv.FormatInt(principal.ID, 10), principal.Username, principal.Roles, s.now())
	if err != nil {
		telemetry.RecordError(span, err)
		return IssuedToken{}, err
	}
	span.SetAttributes(attribute.Int64(telemetry.AttrPrincipalID, principal.ID))

	s.logger.InfoContext(ctx, "token issued", "account_id", principal.ID, "jti", token.ID)

	return IssuedToken{
		Token:     token.Raw,
		Username:  principal.Username,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// TokenScheme returns the scheme clients put before the token.
func (s *Service) TokenScheme() string {
	return s.scheme
}

// AuthenticateRequest extracts the token from a raw header value and verifies it at
// now. A missing token or foreign scheme reports false without logging; verification
// failures are logged at debug level with their kind. Either way the caller proceeds
// anonymously.
func (s *Service) AuthenticateRequest(rawHeaderValue string, now time.Time) (Principal, bool) {
	raw, ok := ExtractToken(rawHeaderValue, s.scheme)
	if !ok {
		return Principal{}, false
	}

	principal, err := s.codec.Verify(raw, now)
	if err != nil {
		kind := FailureKind(err)
		s.logger.Debug("bearer token rejected", "kind", kind, "error", err)
		s.metrics.RecordTokenRejection(context.Background(), kind)
		return Principal{}, false
	}
	return principal, true
}

// Authorize evaluates the policy. authorID is nil for create.
func (s *Service) Authorize(principal *Principal, op Operation, kind ResourceKind, authorID *int64) Decision {
	decision := s.policy.Decide(AuthorizationRequest{
		Principal: principal,
		Operation: op,
		Kind:      kind,
		AuthorID:  authorID,
	})
	if !decision.Allowed {
		s.logger.Debug("authorization denied", "operation", op, "kind", kind, "reason", decision.Reason)
	}
	return decision
}

// Codec exposes the token codec for tooling such as token inspection.
func (s *Service) Codec() *TokenCodec {
	return s.codec
}
