package enforce

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeAPI records calls and fails the configured steps.
type fakeAPI struct {
	deleteErr error
	banErr    error
	sendErr   error

	calls    []string
	sentText string
	revoke   bool
}

func (f *fakeAPI) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	f.calls = append(f.calls, "delete")
	return f.deleteErr
}

func (f *fakeAPI) BanMember(ctx context.Context, chatID, userID int64, revokeMessages bool) error {
	f.calls = append(f.calls, "ban")
	f.revoke = revokeMessages
	return f.banErr
}

func (f *fakeAPI) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.calls = append(f.calls, "send")
	f.sentText = text
	return f.sendErr
}

func TestEnforce_FullSequence(t *testing.T) {
	api := &fakeAPI{}
	ex := NewExecutor(api)

	result := ex.Enforce(context.Background(), 10, 7, 100, "winfix")

	if !result.MessageDeleted || !result.MemberBanned || !result.NotificationSent {
		t.Errorf("result = %+v, want all steps successful", result)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected step errors: %v", result.Errors)
	}
	if result.MatchedName != "winfix" {
		t.Errorf("MatchedName = %q, want %q", result.MatchedName, "winfix")
	}
	if want := []string{"delete", "ban", "send"}; strings.Join(api.calls, ",") != strings.Join(want, ",") {
		t.Errorf("call order = %v, want %v", api.calls, want)
	}
	if !api.revoke {
		t.Error("ban must revoke message history")
	}
}

func TestEnforce_NoTriggeringMessage(t *testing.T) {
	api := &fakeAPI{}
	ex := NewExecutor(api)

	result := ex.Enforce(context.Background(), 10, 7, 0, "winfix")

	if result.MessageDeleted {
		t.Error("no message to delete, MessageDeleted should be false")
	}
	if want := []string{"ban", "send"}; strings.Join(api.calls, ",") != strings.Join(want, ",") {
		t.Errorf("call order = %v, want %v", api.calls, want)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected step errors: %v", result.Errors)
	}
}

func TestEnforce_DeleteFailureDoesNotBlockBan(t *testing.T) {
	api := &fakeAPI{deleteErr: errors.New("message not found")}
	ex := NewExecutor(api)

	result := ex.Enforce(context.Background(), 10, 7, 100, "winfix")

	if result.MessageDeleted {
		t.Error("MessageDeleted should be false")
	}
	if !result.MemberBanned {
		t.Error("ban must still be attempted after delete failure")
	}
	if len(result.Errors) != 1 || result.Errors[0].Step != StepDelete {
		t.Errorf("Errors = %v, want one delete error", result.Errors)
	}
	if result.BanFailed() {
		t.Error("BanFailed should be false when only delete failed")
	}
}

func TestEnforce_BanFailureChangesNotice(t *testing.T) {
	api := &fakeAPI{banErr: errors.New("not enough rights")}
	ex := NewExecutor(api)

	result := ex.Enforce(context.Background(), 10, 7, 100, "winfix")

	if result.MemberBanned {
		t.Error("MemberBanned should be false")
	}
	if !result.BanFailed() {
		t.Error("BanFailed should report the ban error")
	}
	if !result.NotificationSent {
		t.Error("notification must still be sent after ban failure")
	}
	if strings.Contains(strings.ToLower(api.sentText), "removed") {
		t.Errorf("notice %q claims a ban that did not happen", api.sentText)
	}
}

func TestEnforce_NoticeNeverLeaksMatchedName(t *testing.T) {
	for _, banErr := range []error{nil, errors.New("boom")} {
		api := &fakeAPI{banErr: banErr}
		ex := NewExecutor(api)

		ex.Enforce(context.Background(), 10, 7, 100, "winfix")

		if strings.Contains(strings.ToLower(api.sentText), "winfix") {
			t.Errorf("notice %q leaks the matched entry", api.sentText)
		}
		if banErr != nil && strings.Contains(api.sentText, banErr.Error()) {
			t.Errorf("notice %q leaks raw error text", api.sentText)
		}
	}
}

func TestEnforce_AllStepsFail(t *testing.T) {
	api := &fakeAPI{
		deleteErr: errors.New("d"),
		banErr:    errors.New("b"),
		sendErr:   errors.New("s"),
	}
	ex := NewExecutor(api)

	result := ex.Enforce(context.Background(), 10, 7, 100, "winfix")

	if result.MessageDeleted || result.MemberBanned || result.NotificationSent {
		t.Errorf("result = %+v, want no step successful", result)
	}
	wantSteps := []Step{StepDelete, StepBan, StepNotify}
	if len(result.Errors) != len(wantSteps) {
		t.Fatalf("Errors = %v, want %d entries", result.Errors, len(wantSteps))
	}
	for i, step := range wantSteps {
		if result.Errors[i].Step != step {
			t.Errorf("Errors[%d].Step = %s, want %s", i, result.Errors[i].Step, step)
		}
	}
}
