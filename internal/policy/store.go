// Package policy holds the moderation policy: the restricted-name list and
// the admin-id set. The store hands out immutable snapshots so one event is
// always decided against a single consistent read, and serializes writes so
// the no-duplicate invariant survives concurrent admin commands.
package policy

import (
	"context"
	"errors"
	"strings"
)

// ErrStoreLoad wraps any failure to read the policy document. Callers treat
// it as "no decision possible for this event", never as a match.
var ErrStoreLoad = errors.New("policy: store load failed")

// Snapshot is a consistent point-in-time read of the policy. The slices and
// map are private copies; mutating the store after acquisition never changes
// an existing snapshot.
type Snapshot struct {
	RestrictedNames []string
	AdminIDs        map[int64]struct{}
}

// IsAdmin reports whether id is in the admin set.
func (s Snapshot) IsAdmin(id int64) bool {
	_, ok := s.AdminIDs[id]
	return ok
}

// Store is the policy persistence boundary. Implementations must make
// mutations atomic: a concurrent Load sees either the pre- or post-mutation
// collection in full.
type Store interface {
	// Load returns a fresh snapshot of the current policy.
	Load(ctx context.Context) (Snapshot, error)

	// Append adds a restricted name. It must reject case-insensitive
	// duplicates with ErrDuplicate.
	Append(ctx context.Context, name string) error

	// Remove deletes a restricted name (case-insensitive). Returns
	// ErrNotFound when no such entry exists.
	Remove(ctx context.Context, name string) error
}

// Append/Remove sentinel errors.
var (
	ErrDuplicate = errors.New("policy: name already restricted")
	ErrNotFound  = errors.New("policy: name not restricted")
)

// Document is the persisted policy representation, a single JSON document
// with two ordered arrays.
type Document struct {
	RestrictedNames []string `json:"restricted_names"`
	AdminIDs        []int64  `json:"admin_ids"`
}

// snapshot converts the persisted document into an immutable read.
func (d Document) snapshot() Snapshot {
	names := make([]string, len(d.RestrictedNames))
	copy(names, d.RestrictedNames)

	admins := make(map[int64]struct{}, len(d.AdminIDs))
	for _, id := range d.AdminIDs {
		admins[id] = struct{}{}
	}
	return Snapshot{RestrictedNames: names, AdminIDs: admins}
}

// containsFold reports whether names holds target under case-insensitive
// comparison.
func containsFold(names []string, target string) bool {
	for _, n := range names {
		if strings.EqualFold(n, target) {
			return true
		}
	}
	return false
}
