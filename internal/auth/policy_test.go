package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPolicy(t *testing.T) *Policy {
	t.Helper()
	policy, err := NewPolicy()
	require.NoError(t, err)
	return policy
}

func int64Ptr(v int64) *int64 { return &v }

func TestPolicy_Decide(t *testing.T) {
	policy := newTestPolicy(t)

	user := &Principal{ID: 10, Username: "alice", Roles: []string{RoleUser}}
	other := &Principal{ID: 11, Username: "bob", Roles: []string{RoleUser}}
	admin := &Principal{ID: 1, Username: "root", Roles: []string{RoleAdmin}}
	guest := &Principal{ID: 12, Username: "guest", Roles: []string{"GUEST"}}
	owned := int64Ptr(10)

	tests := []struct {
		name string
		req  AuthorizationRequest
		want Decision
	}{
		{"anonymous create", AuthorizationRequest{Operation: OpCreate, Kind: KindPost}, Decision{Reason: ReasonUnauthenticated}},
		{"anonymous update", AuthorizationRequest{Operation: OpUpdate, Kind: KindComment, AuthorID: owned}, Decision{Reason: ReasonUnauthenticated}},
		{"anonymous unknown op", AuthorizationRequest{Operation: "publish", Kind: KindPost}, Decision{Reason: ReasonUnauthenticated}},

		{"user creates post", AuthorizationRequest{Principal: user, Operation: OpCreate, Kind: KindPost}, Decision{Allowed: true}},
		{"user creates comment", AuthorizationRequest{Principal: user, Operation: OpCreate, Kind: KindComment}, Decision{Allowed: true}},
		{"admin creates post", AuthorizationRequest{Principal: admin, Operation: OpCreate, Kind: KindPost}, Decision{Allowed: true}},
		{"guest cannot create", AuthorizationRequest{Principal: guest, Operation: OpCreate, Kind: KindPost}, Decision{Reason: ReasonInsufficientRole}},

		{"owner updates post", AuthorizationRequest{Principal: user, Operation: OpUpdate, Kind: KindPost, AuthorID: owned}, Decision{Allowed: true}},
		{"non-owner updates post", AuthorizationRequest{Principal: other, Operation: OpUpdate, Kind: KindPost, AuthorID: owned}, Decision{Reason: ReasonNotOwner}},
		{"admin overrides post update", AuthorizationRequest{Principal: admin, Operation: OpUpdate, Kind: KindPost, AuthorID: owned}, Decision{Allowed: true}},
		{"owner updates comment", AuthorizationRequest{Principal: user, Operation: OpUpdate, Kind: KindComment, AuthorID: owned}, Decision{Allowed: true}},
		{"non-owner updates comment", AuthorizationRequest{Principal: other, Operation: OpUpdate, Kind: KindComment, AuthorID: owned}, Decision{Reason: ReasonNotOwner}},
		{"update without author", AuthorizationRequest{Principal: user, Operation: OpUpdate, Kind: KindComment}, Decision{Reason: ReasonNotOwner}},

		{"owner deletes comment", AuthorizationRequest{Principal: user, Operation: OpDelete, Kind: KindComment, AuthorID: owned}, Decision{Allowed: true}},
		{"non-owner deletes comment", AuthorizationRequest{Principal: other, Operation: OpDelete, Kind: KindComment, AuthorID: owned}, Decision{Reason: ReasonNotOwner}},
		{"admin deletes comment", AuthorizationRequest{Principal: admin, Operation: OpDelete, Kind: KindComment, AuthorID: owned}, Decision{Allowed: true}},

		{"owner cannot delete post", AuthorizationRequest{Principal: user, Operation: OpDelete, Kind: KindPost, AuthorID: owned}, Decision{Reason: ReasonInsufficientRole}},
		{"admin deletes post", AuthorizationRequest{Principal: admin, Operation: OpDelete, Kind: KindPost, AuthorID: owned}, Decision{Allowed: true}},

		{"unknown operation", AuthorizationRequest{Principal: admin, Operation: "publish", Kind: KindPost}, Decision{Reason: ReasonUnsupported}},
		{"unknown kind", AuthorizationRequest{Principal: admin, Operation: OpCreate, Kind: "attachment"}, Decision{Reason: ReasonUnsupported}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Decide(tt.req))
		})
	}
}

func TestPolicy_DecideIsPure(t *testing.T) {
	policy := newTestPolicy(t)
	req := AuthorizationRequest{
		Principal: &Principal{ID: 5, Roles: []string{RoleUser}},
		Operation: OpUpdate,
		Kind:      KindPost,
		AuthorID:  int64Ptr(6),
	}

	first := policy.Decide(req)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, policy.Decide(req))
	}
}

func TestDecision_Err(t *testing.T) {
	assert.NoError(t, Decision{Allowed: true}.Err())

	err := Decision{Reason: ReasonNotOwner}.Err()
	require.Error(t, err)

	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, ReasonNotOwner, denied.Reason)
	assert.Equal(t, "access denied: not_owner", err.Error())
}

func TestNewPolicyFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grants.csv")
	// Editors may also delete posts.
	content := "p, USER, post, create\np, EDITOR, post, delete\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	policy, err := NewPolicyFromFile(path)
	require.NoError(t, err)

	editor := &Principal{ID: 3, Roles: []string{"EDITOR"}}
	assert.True(t, policy.Decide(AuthorizationRequest{Principal: editor, Operation: OpDelete, Kind: KindPost}).Allowed)

	admin := &Principal{ID: 1, Roles: []string{RoleAdmin}}
	assert.Equal(t, ReasonInsufficientRole, policy.Decide(AuthorizationRequest{Principal: admin, Operation: OpDelete, Kind: KindPost}).Reason)

	_, err = NewPolicyFromFile(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)

	fallback, err := NewPolicyFromFile("")
	require.NoError(t, err)
	assert.True(t, fallback.Decide(AuthorizationRequest{Principal: admin, Operation: OpDelete, Kind: KindPost}).Allowed)
	assert.False(t, fallback.KnownRole("EDITOR"))
	assert.True(t, policy.KnownRole("EDITOR"))
}

func TestPolicy_KnownRole(t *testing.T) {
	policy := newTestPolicy(t)

	assert.True(t, policy.KnownRole(RoleUser))
	assert.True(t, policy.KnownRole(RoleAdmin))
	assert.False(t, policy.KnownRole("GUEST"))
	assert.False(t, policy.KnownRole(""))
}
