package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/terraconstructs/blogapi/internal/auth"
	"github.com/terraconstructs/blogapi/internal/db/models"
)

// AccountLookup adapts an AccountRepository to the auth.AccountLookup contract.
type AccountLookup struct {
	repo AccountRepository
}

// NewAccountLookup wraps repo.
func NewAccountLookup(repo AccountRepository) *AccountLookup {
	return &AccountLookup{repo: repo}
}

func (l *AccountLookup) FindByUsername(ctx context.Context, username string) (*auth.Account, error) {
	account, err := l.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, translateLookupError(err)
	}
	return toAuthAccount(account), nil
}

func (l *AccountLookup) FindByID(ctx context.Context, id int64) (*auth.Account, error) {
	account, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateLookupError(err)
	}
	return toAuthAccount(account), nil
}

func translateLookupError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %v", auth.ErrAccountNotFound, err)
	}
	return err
}

func toAuthAccount(a *models.Account) *auth.Account {
	return &auth.Account{
		ID:           a.ID,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		Roles:        slices.Clone([]string(a.Roles)),
	}
}

// CachedAccountLookup memoizes FindByID in an expiring LRU. FindByUsername is the
// login path and always reads through so password changes take effect immediately.
type CachedAccountLookup struct {
	next auth.AccountLookup
	byID *expirable.LRU[int64, auth.Account]
}

// NewCachedAccountLookup caches up to size accounts for ttl.
func NewCachedAccountLookup(next auth.AccountLookup, size int, ttl time.Duration) *CachedAccountLookup {
	return &CachedAccountLookup{
		next: next,
		byID: expirable.NewLRU[int64, auth.Account](size, nil, ttl),
	}
}

func (c *CachedAccountLookup) FindByUsername(ctx context.Context, username string) (*auth.Account, error) {
	return c.next.FindByUsername(ctx, username)
}

func (c *CachedAccountLookup) FindByID(ctx context.Context, id int64) (*auth.Account, error) {
	if cached, ok := c.byID.Get(id); ok {
		cached.Roles = slices.Clone(cached.Roles)
		return &cached, nil
	}

	account, err := c.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stored := *account
	stored.Roles = slices.Clone(account.Roles)
	c.byID.Add(id, stored)
	return account, nil
}

// Invalidate drops a cached account.
func (c *CachedAccountLookup) Invalidate(id int64) {
	c.byID.Remove(id)
}

// Purge drops every cached account.
func (c *CachedAccountLookup) Purge() {
	c.byID.Purge()
}
