// Package match evaluates normalized identity candidates against the
// restricted-name policy. A deployment runs exactly one strategy; the
// strategies are never mixed within one decision.
package match

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/namegate/namegate/internal/identity"
	"github.com/namegate/namegate/internal/policy"
)

// Strategy selects how candidates are compared against restricted entries.
type Strategy string

const (
	// StrategyExact matches a candidate equal to a restricted entry.
	StrategyExact Strategy = "exact"

	// StrategySubstring matches when a restricted entry is contained in a
	// candidate or vice versa.
	StrategySubstring Strategy = "substring"

	// StrategyWord matches a restricted entry appearing as a whole word or
	// phrase inside a candidate, never inside a longer token.
	StrategyWord Strategy = "word"

	// StrategyGroup matches identity candidates against the chat's derived
	// group name: equality, containment, or containment of the group
	// name's initialism.
	StrategyGroup Strategy = "group"
)

// ParseStrategy maps a config value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyExact:
		return StrategyExact, nil
	case StrategySubstring:
		return StrategySubstring, nil
	case StrategyWord:
		return StrategyWord, nil
	case StrategyGroup:
		return StrategyGroup, nil
	}
	return "", fmt.Errorf("match: unknown strategy %q", s)
}

// Result reports the first candidate/entry pair that satisfied the
// strategy. For StrategyGroup, Entry is the derived group name.
type Result struct {
	Entry     string
	Candidate string
}

// Matcher runs one configured strategy.
type Matcher struct {
	strategy Strategy
}

// New creates a matcher for the given strategy.
func New(strategy Strategy) *Matcher {
	return &Matcher{strategy: strategy}
}

// Strategy returns the configured strategy.
func (m *Matcher) Strategy() Strategy {
	return m.strategy
}

// Match evaluates candidates (in normalizer order) against the snapshot's
// restricted entries (in stored order) and returns the first satisfying
// pair. Iteration order is deterministic so results are reproducible:
// candidates outer, entries inner.
func (m *Matcher) Match(candidates []string, chat identity.ChatContext, snap policy.Snapshot) (Result, bool) {
	if m.strategy == StrategyGroup {
		return m.matchGroup(candidates, chat)
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		for _, entry := range snap.RestrictedNames {
			e := strings.ToLower(entry)
			if e == "" {
				continue
			}
			if m.satisfies(candidate, e) {
				return Result{Entry: entry, Candidate: candidate}, true
			}
		}
	}
	return Result{}, false
}

func (m *Matcher) satisfies(candidate, entry string) bool {
	switch m.strategy {
	case StrategyExact:
		return candidate == entry
	case StrategySubstring:
		return strings.Contains(candidate, entry) || strings.Contains(entry, candidate)
	case StrategyWord:
		return wordBoundaryMatch(candidate, entry)
	}
	return false
}

// wordBoundaryMatch reports whether entry occurs in candidate as a whole
// word or whole phrase. Entries are dynamic so the pattern is built per
// check; policy lists are small enough that this stays off any hot path.
func wordBoundaryMatch(candidate, entry string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(entry) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(candidate)
}

// matchGroup checks identity candidates against the chat's derived group
// name. The normalizer appends the derived name itself as the final
// candidate; that one is the reference being protected, not a subject, so
// it is excluded from the comparison.
func (m *Matcher) matchGroup(candidates []string, chat identity.ChatContext) (Result, bool) {
	group := identity.GroupDerived(chat.Title)
	if group == "" {
		return Result{}, false
	}
	initials := identity.Initialism(group)

	subjects := candidates
	if n := len(subjects); n > 0 && subjects[n-1] == group {
		subjects = subjects[:n-1]
	}

	for _, candidate := range subjects {
		if candidate == "" {
			continue
		}
		if candidate == group ||
			strings.Contains(candidate, group) ||
			(initials != "" && strings.Contains(candidate, initials)) {
			return Result{Entry: group, Candidate: candidate}, true
		}
	}
	return Result{}, false
}
