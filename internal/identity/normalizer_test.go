package identity

import (
	"reflect"
	"testing"
)

func TestCandidates_FullName(t *testing.T) {
	id := Identity{ID: 1, FirstName: "Ann", LastName: "Smith", Username: "asmith"}
	chat := ChatContext{ID: 10, Type: ChatGroup}

	want := []string{
		"ann",
		"smith",
		"asmith",
		"annsmith",
		"ann smith",
		"smithann",
		"smith ann",
	}
	got := Candidates(id, chat)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %v, want %v", got, want)
	}
}

func TestCandidates_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want []string
	}{
		{
			name: "first only",
			id:   Identity{FirstName: "Winfix"},
			want: []string{"winfix", "", "", "winfix", "winfix", "winfix", "winfix"},
		},
		{
			name: "username only",
			id:   Identity{Username: "w1"},
			want: []string{"", "", "w1", "", "", "", ""},
		},
		{
			name: "all empty",
			id:   Identity{},
			want: []string{"", "", "", "", "", "", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Candidates(tt.id, ChatContext{})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCandidates_CaseAndWhitespace(t *testing.T) {
	id := Identity{FirstName: "  BoB  ", LastName: "JONES"}
	got := Candidates(id, ChatContext{})

	if got[0] != "bob" {
		t.Errorf("first candidate = %q, want %q", got[0], "bob")
	}
	if got[4] != "bob jones" {
		t.Errorf("spaced candidate = %q, want %q", got[4], "bob jones")
	}
}

func TestCandidates_GroupDerivedAppended(t *testing.T) {
	id := Identity{FirstName: "Ann"}
	chat := ChatContext{Title: "★ Ann Smith Fan Club! ★", Type: ChatSupergroup}

	got := Candidates(id, chat)
	last := got[len(got)-1]
	if last != "ann smith fan club" {
		t.Errorf("group-derived candidate = %q, want %q", last, "ann smith fan club")
	}

	// No title, no extra candidate.
	if n := len(Candidates(id, ChatContext{})); n != 7 {
		t.Errorf("candidate count without title = %d, want 7", n)
	}
}

func TestGroupDerived(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"My Group", "my group"},
		{"My-Group!!!", "mygroup"},
		{"  Crypto  Signals  ", "crypto  signals"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := GroupDerived(tt.title); got != tt.want {
			t.Errorf("GroupDerived(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestInitialism(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"my group", "mg"},
		{"ann smith fan club", "asfc"},
		{"single", "s"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := Initialism(tt.in); got != tt.want {
			t.Errorf("Initialism(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMembershipEvent_IsJoin(t *testing.T) {
	join := MembershipEvent{NewStatus: StatusMember}
	if !join.IsJoin() {
		t.Error("member status should be a join")
	}
	for _, status := range []string{StatusLeft, StatusKicked, StatusAdministrator, StatusCreator} {
		if (MembershipEvent{NewStatus: status}).IsJoin() {
			t.Errorf("status %q should not be a join", status)
		}
	}
}
