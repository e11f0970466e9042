package match

import (
	"testing"

	"github.com/namegate/namegate/internal/identity"
	"github.com/namegate/namegate/internal/policy"
)

func snapshot(names ...string) policy.Snapshot {
	return policy.Snapshot{RestrictedNames: names}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"exact", StrategyExact, false},
		{"  Substring ", StrategySubstring, false},
		{"WORD", StrategyWord, false},
		{"group", StrategyGroup, false},
		{"fuzzy", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatch_Exact(t *testing.T) {
	m := New(StrategyExact)
	snap := snapshot("winfix", "spambot")

	tests := []struct {
		name       string
		candidates []string
		wantEntry  string
		wantMatch  bool
	}{
		{"exact hit", []string{"winfix"}, "winfix", true},
		{"no partial", []string{"winfix support"}, "", false},
		{"no substring", []string{"mywinfix"}, "", false},
		{"empty candidates skipped", []string{"", "", "spambot"}, "spambot", true},
		{"clean", []string{"alice"}, "", false},
		{"none", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := m.Match(tt.candidates, identity.ChatContext{}, snap)
			if ok != tt.wantMatch {
				t.Fatalf("Match ok = %v, want %v", ok, tt.wantMatch)
			}
			if ok && result.Entry != tt.wantEntry {
				t.Errorf("Match entry = %q, want %q", result.Entry, tt.wantEntry)
			}
		})
	}
}

func TestMatch_Substring(t *testing.T) {
	m := New(StrategySubstring)
	snap := snapshot("winfix")

	tests := []struct {
		name       string
		candidates []string
		wantMatch  bool
	}{
		{"entry inside candidate", []string{"winfix support"}, true},
		{"candidate inside entry", []string{"winf"}, true},
		{"equal", []string{"winfix"}, true},
		{"disjoint", []string{"alice"}, false},
		{"empty candidate never matches", []string{""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := m.Match(tt.candidates, identity.ChatContext{}, snap)
			if ok != tt.wantMatch {
				t.Errorf("Match ok = %v, want %v", ok, tt.wantMatch)
			}
		})
	}
}

func TestMatch_WordBoundary(t *testing.T) {
	m := New(StrategyWord)
	snap := snapshot("winfix", "crypto signals")

	tests := []struct {
		name       string
		candidates []string
		wantEntry  string
		wantMatch  bool
	}{
		{"whole word", []string{"winfix support"}, "winfix", true},
		{"word alone", []string{"winfix"}, "winfix", true},
		{"inside longer token", []string{"mywinfixbot"}, "", false},
		{"prefix of longer token", []string{"winfixer"}, "", false},
		{"whole phrase", []string{"best crypto signals here"}, "crypto signals", true},
		{"phrase split", []string{"crypto best signals"}, "", false},
		{"clean", []string{"alice"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := m.Match(tt.candidates, identity.ChatContext{}, snap)
			if ok != tt.wantMatch {
				t.Fatalf("Match ok = %v, want %v", ok, tt.wantMatch)
			}
			if ok && result.Entry != tt.wantEntry {
				t.Errorf("Match entry = %q, want %q", result.Entry, tt.wantEntry)
			}
		})
	}
}

func TestMatch_Group(t *testing.T) {
	m := New(StrategyGroup)
	chat := identity.ChatContext{ID: 10, Title: "My Group", Type: identity.ChatSupergroup}

	tests := []struct {
		name      string
		id        identity.Identity
		wantMatch bool
	}{
		{"exact group name", identity.Identity{FirstName: "My", LastName: "Group"}, true},
		{"contains group name", identity.Identity{FirstName: "My Group", LastName: "Admin"}, true},
		{"initialism", identity.Identity{Username: "mg_official"}, true},
		{"unrelated", identity.Identity{FirstName: "Alice", Username: "wonder"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := identity.Candidates(tt.id, chat)
			_, ok := m.Match(candidates, chat, snapshot())
			if ok != tt.wantMatch {
				t.Errorf("Match ok = %v, want %v", ok, tt.wantMatch)
			}
		})
	}
}

func TestMatch_GroupNoTitle(t *testing.T) {
	m := New(StrategyGroup)
	chat := identity.ChatContext{ID: 10, Type: identity.ChatGroup}
	id := identity.Identity{FirstName: "Anyone"}

	if _, ok := m.Match(identity.Candidates(id, chat), chat, snapshot()); ok {
		t.Error("group strategy matched without a chat title")
	}
}

// The Ann Smith scenario: a legitimate member of a fan club whose own name
// seeds the title must not trip the initialism check.
func TestMatch_GroupInitialismScenario(t *testing.T) {
	m := New(StrategyGroup)
	chat := identity.ChatContext{ID: 10, Title: "Ann Smith Fan Club", Type: identity.ChatSupergroup}
	id := identity.Identity{FirstName: "Bob", LastName: "Lee"}

	candidates := identity.Candidates(id, chat)
	if _, ok := m.Match(candidates, chat, snapshot()); ok {
		t.Error("candidates without the asfc initialism should not match")
	}

	impostor := identity.Identity{Username: "asfc_admin"}
	if _, ok := m.Match(identity.Candidates(impostor, chat), chat, snapshot()); !ok {
		t.Error("username containing the initialism should match")
	}
}

func TestMatch_TieBreakFirstPair(t *testing.T) {
	m := New(StrategySubstring)
	snap := snapshot("smith", "ann")

	// Candidates in normalizer order: first ("ann") comes before last
	// ("smith"). The first candidate wins even though "smith" is the first
	// stored entry, because candidates are the outer loop.
	id := identity.Identity{FirstName: "Ann", LastName: "Smith"}
	result, ok := m.Match(identity.Candidates(id, identity.ChatContext{}), identity.ChatContext{}, snap)
	if !ok {
		t.Fatal("expected a match")
	}
	if result.Candidate != "ann" || result.Entry != "ann" {
		t.Errorf("tie-break pair = (%q, %q), want (ann, ann)", result.Candidate, result.Entry)
	}
}

func TestMatch_EntryOrderTieBreak(t *testing.T) {
	m := New(StrategySubstring)
	snap := snapshot("win", "winfix")

	result, ok := m.Match([]string{"winfix"}, identity.ChatContext{}, snap)
	if !ok {
		t.Fatal("expected a match")
	}
	if result.Entry != "win" {
		t.Errorf("entry = %q, want first stored entry %q", result.Entry, "win")
	}
}
