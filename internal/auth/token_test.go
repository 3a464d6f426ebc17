package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestCodec(t *testing.T, ttl time.Duration) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(testSecret, ttl)
	require.NoError(t, err)
	return codec
}

func TestNewTokenCodec_Validation(t *testing.T) {
	_, err := NewTokenCodec([]byte("short"), time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")

	_, err = NewTokenCodec(testSecret, 0)
	require.Error(t, err)

	codec, err := NewTokenCodec(testSecret, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, codec.TTL())
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	ttl := time.Hour
	codec := newTestCodec(t, ttl)
	now := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

	token, err := codec.Issue("42", "alice", []string{"USER", "ADMIN"}, now)
	require.NoError(t, err)
	require.NotEmpty(t, token.Raw)
	assert.Len(t, strings.Split(token.Raw, "."), 3)
	assert.NotEmpty(t, token.ID)
	assert.True(t, token.IssuedAt.Equal(now))
	assert.True(t, token.ExpiresAt.Equal(now.Add(ttl)))

	for _, offset := range []time.Duration{0, time.Millisecond, time.Second, 30 * time.Minute, ttl - time.Nanosecond} {
		principal, err := codec.Verify(token.Raw, now.Add(offset))
		require.NoError(t, err, "offset %s", offset)
		assert.Equal(t, int64(42), principal.ID)
		assert.Equal(t, "alice", principal.Username)
		assert.Equal(t, []string{"USER", "ADMIN"}, principal.Roles)
	}
}

func TestTokenCodec_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
	}{
		{name: "whole second", now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)},
		{name: "milliseconds", now: time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)},
		{name: "nanoseconds", now: time.Date(2026, 3, 14, 9, 26, 53, 589_123_457, time.UTC)},
		{name: "wall clock", now: time.Now()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ttl := 30 * time.Minute
			codec := newTestCodec(t, ttl)

			token, err := codec.Issue("7", "bob", []string{"USER"}, tt.now)
			require.NoError(t, err)

			_, err = codec.Verify(token.Raw, tt.now)
			require.NoError(t, err)

			_, err = codec.Verify(token.Raw, tt.now.Add(ttl-time.Nanosecond))
			require.NoError(t, err)

			_, err = codec.Verify(token.Raw, tt.now.Add(ttl))
			require.ErrorIs(t, err, ErrExpired)

			_, err = codec.Verify(token.Raw, tt.now.Add(ttl+400*time.Millisecond))
			require.ErrorIs(t, err, ErrExpired)

			_, err = codec.Verify(token.Raw, tt.now.Add(ttl+time.Hour))
			require.ErrorIs(t, err, ErrExpired)

			_, err = codec.Verify(token.Raw, tt.now.Add(-time.Nanosecond))
			require.ErrorIs(t, err, ErrExpired)
		})
	}
}

func TestTokenCodec_BeforeIssuedAtIsExpired(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	token, err := codec.Issue("7", "bob", []string{"USER"}, now)
	require.NoError(t, err)

	_, err = codec.Verify(token.Raw, now.Add(-time.Second))
	require.ErrorIs(t, err, ErrExpired)
}

func TestTokenCodec_TamperedPayload(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	token, err := codec.Issue("7", "bob", []string{"USER"}, now)
	require.NoError(t, err)

	parts := strings.Split(token.Raw, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var claims map[string]any
	require.NoError(t, json.Unmarshal(payload, &claims))
	claims["roles"] = []string{"ADMIN"}
	forged, err := json.Marshal(claims)
	require.NoError(t, err)

	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString(forged) + "." + parts[2]
	_, err = codec.Verify(tampered, now)
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestTokenCodec_TamperedSignature(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	token, err := codec.Issue("7", "bob", []string{"USER"}, now)
	require.NoError(t, err)

	parts := strings.Split(token.Raw, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	sig[0] ^= 0xff

	tampered := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(sig)
	_, err = codec.Verify(tampered, now)
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestTokenCodec_ForeignKey(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	other, err := NewTokenCodec([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
	require.NoError(t, err)

	token, err := other.Issue("7", "bob", []string{"USER"}, now)
	require.NoError(t, err)

	_, err = newTestCodec(t, time.Hour).Verify(token.Raw, now)
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestTokenCodec_RejectsUnsignedToken(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	claims := TokenClaims{
		Subject:   "1",
		IssuedAt:  NewTimestamp(now),
		ExpiresAt: NewTimestamp(now.Add(time.Hour)),
		Username:  "mallory",
		Roles:     []string{"ADMIN"},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestCodec(t, time.Hour).Verify(unsigned, now)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExpired)
}

func TestTokenCodec_Malformed(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	cases := map[string]string{
		"empty":          "",
		"one segment":    "abc",
		"two segments":   "abc.def",
		"four segments":  "a.b.c.d",
		"bad base64":     "!!!.@@@.###",
		"json garbage":   base64.RawURLEncoding.EncodeToString([]byte("{")) + ".e30.c2ln",
		"padded base64":  "eyJhbGciOiJIUzI1NiJ9.e30=.c2ln",
		"not json claim": "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".c2ln",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Verify(raw, now)
			require.ErrorIs(t, err, ErrMalformedToken)

			_, err = codec.Parse(raw)
			require.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestTokenCodec_NonNumericSubjectIsMalformed(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	token, err := codec.Issue("alice", "alice", []string{"USER"}, now)
	require.NoError(t, err)

	_, err = codec.Verify(token.Raw, now)
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestTokenCodec_ParseSkipsValidation(t *testing.T) {
	codec := newTestCodec(t, time.Minute)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	token, err := codec.Issue("9", "carol", []string{"ROLE_USER"}, now)
	require.NoError(t, err)

	parsed, err := codec.Parse(token.Raw)
	require.NoError(t, err)
	assert.Equal(t, "9", parsed.Subject)
	assert.Equal(t, "carol", parsed.Username)
	assert.Equal(t, []string{"USER"}, parsed.Roles)
	assert.Equal(t, token.ID, parsed.ID)
	assert.True(t, parsed.IssuedAt.Equal(now))
	assert.True(t, parsed.ExpiresAt.Equal(now.Add(time.Minute)))

	_, err = codec.Verify(token.Raw, now.Add(time.Hour))
	require.ErrorIs(t, err, ErrExpired)
}

func TestTokenCodec_IssueRequiresSubjectAndRoles(t *testing.T) {
	codec := newTestCodec(t, time.Hour)
	now := time.Now()

	_, err := codec.Issue("", "x", []string{"USER"}, now)
	require.Error(t, err)

	_, err = codec.Issue("1", "x", nil, now)
	require.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		scheme string
		want   string
		ok     bool
	}{
		{name: "bearer", raw: "Bearer abc.def.ghi", scheme: "Bearer", want: "abc.def.ghi", ok: true},
		{name: "case insensitive", raw: "bearer abc", scheme: "Bearer", want: "abc", ok: true},
		{name: "wrong scheme", raw: "Basic dXNlcjpwYXNz", scheme: "Bearer", ok: false},
		{name: "scheme only", raw: "Bearer ", scheme: "Bearer", ok: false},
		{name: "empty", raw: "", scheme: "Bearer", ok: false},
		{name: "no scheme configured", raw: " abc.def.ghi ", scheme: "", want: "abc.def.ghi", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractToken(tt.raw, tt.scheme)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
