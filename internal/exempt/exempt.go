// Package exempt decides whether an identity is shielded from enforcement:
// members of the configured admin set and holders of an elevated chat role
// are never acted on, regardless of what the matcher finds.
package exempt

import (
	"context"
	"log"

	"github.com/namegate/namegate/internal/identity"
	"github.com/namegate/namegate/internal/policy"
)

// Elevated chat roles reported by the platform.
const (
	RoleAdministrator = "administrator"
	RoleCreator       = "creator"
)

// Source records which rule granted an exemption.
type Source string

const (
	SourceNone          Source = "none"
	SourceAdminSet      Source = "admin_set"
	SourceChatRole      Source = "chat_role"
	SourceLookupFailure Source = "lookup_failure"
)

// RoleLookup queries the platform for a member's role in a chat. The call
// is fallible (network, API limits); failures are handled by the checker,
// not the caller.
type RoleLookup interface {
	MemberRole(ctx context.Context, chatID, userID int64) (string, error)
}

// Checker evaluates exemption. roles may be nil, in which case only the
// static admin set is consulted.
type Checker struct {
	roles RoleLookup
}

// NewChecker creates a checker with an optional role lookup.
func NewChecker(roles RoleLookup) *Checker {
	return &Checker{roles: roles}
}

// IsExempt reports whether id must be shielded from enforcement in chat,
// and which rule decided it.
//
// The static admin set is checked first (no network). Otherwise the role
// lookup is consulted; administrator and creator roles are exempt. A failed
// lookup also returns exempt: banning a real admin over a transient API
// error does more damage than letting one suspicious name through, so the
// error is logged and the member is left alone.
func (c *Checker) IsExempt(ctx context.Context, id identity.Identity, chat identity.ChatContext, snap policy.Snapshot) (bool, Source) {
	if snap.IsAdmin(id.ID) {
		return true, SourceAdminSet
	}
	if c.roles == nil {
		return false, SourceNone
	}

	role, err := c.roles.MemberRole(ctx, chat.ID, id.ID)
	if err != nil {
		log.Printf("[exempt] role lookup failed for user=%d chat=%d, treating as exempt: %v",
			id.ID, chat.ID, err)
		return true, SourceLookupFailure
	}
	if role == RoleAdministrator || role == RoleCreator {
		return true, SourceChatRole
	}
	return false, SourceNone
}
