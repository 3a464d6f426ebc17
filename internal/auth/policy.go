package auth

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

//go:embed model.conf
var policyModelContent string

//go:embed policy.csv
var defaultGrants string

// Operation is a mutating action on a resource.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

func (o Operation) valid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// ResourceKind names the resource an operation targets.
type ResourceKind string

const (
	KindPost    ResourceKind = "post"
	KindComment ResourceKind = "comment"
)

func (k ResourceKind) valid() bool {
	return k == KindPost || k == KindComment
}

// actOverride is the grant that lets a role modify resources it does not own.
const actOverride = "override"

// DenyReason explains why a request was denied.
type DenyReason string

const (
	ReasonNone             DenyReason = ""
	ReasonUnauthenticated  DenyReason = "unauthenticated"
	ReasonInsufficientRole DenyReason = "insufficient_role"
	ReasonNotOwner         DenyReason = "not_owner"
	ReasonUnsupported      DenyReason = "unsupported"
)

// AuthorizationRequest is the input to Policy.Decide. AuthorID is nil for create.
type AuthorizationRequest struct {
	Principal *Principal
	Operation Operation
	Kind      ResourceKind
	AuthorID  *int64
}

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason DenyReason) Decision { return Decision{Reason: reason} }

// Err returns nil for an allowed decision and a *DeniedError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason}
}

// DeniedError is returned by services when the policy denies an operation.
type DeniedError struct {
	Reason DenyReason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// Policy decides whether a principal may perform an operation. Role grants
// (which role may create, delete, or override ownership per resource kind) live in a
// Casbin policy table loaded once at construction; ownership is compared in Decide.
// Decide performs no I/O.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicy builds a policy from the embedded default role grants.
func NewPolicy() (*Policy, error) {
	return newPolicyFromGrants(defaultGrants)
}

// NewPolicyFromFile builds a policy whose role grants are read from a Casbin CSV file.
// An empty path falls back to the embedded defaults.
func NewPolicyFromFile(path string) (*Policy, error) {
	if path == "" {
		return NewPolicy()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return newPolicyFromGrants(string(content))
}

func newPolicyFromGrants(grants string) (*Policy, error) {
	m, err := model.NewModelFromString(policyModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, stringadapter.NewAdapter(grants))
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	return &Policy{enforcer: enforcer}, nil
}

// Decide evaluates the rules in order:
//  1. no principal: Unauthenticated
//  2. unknown operation or kind: Unsupported
//  3. delete post: requires the delete grant, else InsufficientRole
//  4. create: requires the create grant, else InsufficientRole
//  5. update, or delete comment: override grant or ownership, else NotOwner
func (p *Policy) Decide(req AuthorizationRequest) Decision {
	if req.Principal == nil {
		return deny(ReasonUnauthenticated)
	}
	if !req.Operation.valid() || !req.Kind.valid() {
		return deny(ReasonUnsupported)
	}

	principal := req.Principal

	switch {
	case req.Operation == OpDelete && req.Kind == KindPost:
		if p.granted(principal, req.Kind, string(OpDelete)) {
			return allow()
		}
		return deny(ReasonInsufficientRole)

	case req.Operation == OpCreate:
		if p.granted(principal, req.Kind, string(OpCreate)) {
			return allow()
		}
		return deny(ReasonInsufficientRole)

	case req.Operation == OpUpdate, req.Operation == OpDelete:
		if p.granted(principal, req.Kind, actOverride) {
			return allow()
		}
		if req.AuthorID != nil && *req.AuthorID == principal.ID {
			return allow()
		}
		return deny(ReasonNotOwner)
	}

	return deny(ReasonUnsupported)
}

// granted reports whether any of the principal's roles holds act on kind.
// An enforcer error counts as not granted.
func (p *Policy) granted(principal *Principal, kind ResourceKind, act string) bool {
	for _, role := range principal.Roles {
		ok, err := p.enforcer.Enforce(role, string(kind), act)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// KnownRole reports whether role holds at least one grant in the policy table.
func (p *Policy) KnownRole(role string) bool {
	principal := &Principal{Roles: []string{role}}
	for _, kind := range []ResourceKind{KindPost, KindComment} {
		for _, act := range []string{string(OpCreate), string(OpDelete), actOverride} {
			if p.granted(principal, kind, act) {
				return true
			}
		}
	}
	return false
}
