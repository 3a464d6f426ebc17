package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Account is the credential record the verifier reads from the store.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	Roles        []string
}

// AccountLookup is the read-only view of the credential store used by the auth core.
// Implementations return ErrAccountNotFound (possibly wrapped) for unknown accounts.
type AccountLookup interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByID(ctx context.Context, id int64) (*Account, error)
}

// DefaultBcryptCost matches the cost used when hashing passwords on account creation.
const DefaultBcryptCost = 12

// CredentialVerifier checks a username/password pair against the credential store.
type CredentialVerifier struct {
	accounts  AccountLookup
	dummyHash []byte
}

// NewCredentialVerifier builds a verifier. The dummy hash is computed once at the given
// cost so unknown-user attempts pay the same bcrypt price as real ones.
func NewCredentialVerifier(accounts AccountLookup, bcryptCost int) (*CredentialVerifier, error) {
	if accounts == nil {
		return nil, errors.New("credential verifier requires an account lookup")
	}
	if bcryptCost == 0 {
		bcryptCost = DefaultBcryptCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("blogapi-dummy-password"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &CredentialVerifier{accounts: accounts, dummyHash: dummy}, nil
}

// Authenticate returns the principal for a matching username/password pair.
// Unknown user and wrong password are both reported as ErrInvalidCredentials.
func (v *CredentialVerifier) Authenticate(ctx context.Context, username, password string) (Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(password))
		return Principal{}, ErrInvalidCredentials
	}

	account, err := v.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(password))
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, fmt.Errorf("lookup account %q: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Principal{}, ErrInvalidCredentials
	}

	roles := NormalizeRoles(account.Roles)
	if len(roles) == 0 {
		return Principal{}, ErrInvalidCredentials
	}

	return Principal{
		ID:       account.ID,
		Username: account.Username,
		Roles:    roles,
	}, nil
}

// HashPassword hashes a plaintext password with bcrypt at cost.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
