package policy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// Outcome classifies the result of one mutation call. Exactly one outcome
// is returned per call; authorization failures never leave a partial write.
type Outcome int

const (
	Added Outcome = iota
	AlreadyExists
	ConflictsWithExisting
	Removed
	NotFound
	Listed
	Unauthorized
	Invalid
)

// String returns the operator-facing name for the outcome.
func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case AlreadyExists:
		return "already_exists"
	case ConflictsWithExisting:
		return "conflicts_with_existing"
	case Removed:
		return "removed"
	case NotFound:
		return "not_found"
	case Listed:
		return "listed"
	case Unauthorized:
		return "unauthorized"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// MutatorConfig controls optional mutation policies.
type MutatorConfig struct {
	// StrictConflicts additionally rejects a new name that is a substring
	// of, or contains, an existing entry, to keep the list free of
	// redundant overlapping rules.
	StrictConflicts bool
}

// Mutator is the admin-only write surface over the policy store. Every call
// re-checks authorization against the current snapshot so an admin removed
// mid-session loses write access immediately.
type Mutator struct {
	store  Store
	config MutatorConfig
}

// NewMutator creates a mutation service over store.
func NewMutator(store Store, config MutatorConfig) *Mutator {
	return &Mutator{store: store, config: config}
}

// Add inserts a restricted name on behalf of actorID. The name is trimmed
// and lower-cased before storage.
func (m *Mutator) Add(ctx context.Context, actorID int64, name string) (Outcome, error) {
	snap, err := m.store.Load(ctx)
	if err != nil {
		return Invalid, fmt.Errorf("policy: add: %w", err)
	}
	if !snap.IsAdmin(actorID) {
		log.Printf("[policy] unauthorized add attempt by user=%d", actorID)
		return Unauthorized, nil
	}

	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return Invalid, nil
	}

	if m.config.StrictConflicts {
		for _, existing := range snap.RestrictedNames {
			e := strings.ToLower(existing)
			if e == normalized {
				continue // exact duplicate reported as AlreadyExists below
			}
			if strings.Contains(e, normalized) || strings.Contains(normalized, e) {
				return ConflictsWithExisting, nil
			}
		}
	}

	err = m.store.Append(ctx, normalized)
	if errors.Is(err, ErrDuplicate) {
		return AlreadyExists, nil
	}
	if err != nil {
		return Invalid, fmt.Errorf("policy: add %q: %w", normalized, err)
	}
	return Added, nil
}

// Remove deletes a restricted name on behalf of actorID.
func (m *Mutator) Remove(ctx context.Context, actorID int64, name string) (Outcome, error) {
	snap, err := m.store.Load(ctx)
	if err != nil {
		return Invalid, fmt.Errorf("policy: remove: %w", err)
	}
	if !snap.IsAdmin(actorID) {
		log.Printf("[policy] unauthorized remove attempt by user=%d", actorID)
		return Unauthorized, nil
	}

	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return Invalid, nil
	}

	err = m.store.Remove(ctx, normalized)
	if errors.Is(err, ErrNotFound) {
		return NotFound, nil
	}
	if err != nil {
		return Invalid, fmt.Errorf("policy: remove %q: %w", normalized, err)
	}
	return Removed, nil
}

// List returns the restricted-name list for an admin caller. Non-admins get
// Unauthorized and a nil list.
func (m *Mutator) List(ctx context.Context, actorID int64) ([]string, Outcome, error) {
	snap, err := m.store.Load(ctx)
	if err != nil {
		return nil, Invalid, fmt.Errorf("policy: list: %w", err)
	}
	if !snap.IsAdmin(actorID) {
		log.Printf("[policy] unauthorized list attempt by user=%d", actorID)
		return nil, Unauthorized, nil
	}
	return snap.RestrictedNames, Listed, nil
}
