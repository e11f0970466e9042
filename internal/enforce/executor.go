// Package enforce runs the remediation sequence for a confirmed policy
// violation: delete the triggering message, ban the member with history
// revocation, notify the chat. Each step is independently fallible; a
// failed step is recorded and the sequence continues, so one missing
// permission never silently cancels the rest of the cleanup.
package enforce

import (
	"context"
	"fmt"
	"log"
)

// Step identifies one remediation step in Result.Errors.
type Step string

const (
	StepDelete Step = "delete_message"
	StepBan    Step = "ban_member"
	StepNotify Step = "send_notification"
)

// ChatAPI is the narrow outbound capability set the executor depends on.
// The production implementation is the Bot API client; tests substitute a
// recording fake.
type ChatAPI interface {
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	BanMember(ctx context.Context, chatID, userID int64, revokeMessages bool) error
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// StepError records one failed step and its cause.
type StepError struct {
	Step Step
	Err  error
}

func (e StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

// Result reports the outcome of one enforcement run. The executor always
// returns a Result, never an error: partial failure is the expected case,
// not an exception.
type Result struct {
	MatchedName      string
	MessageDeleted   bool
	MemberBanned     bool
	NotificationSent bool
	Errors           []StepError
}

// BanFailed reports whether the ban step failed. Ban failure is the one
// outcome operators must be alerted on: the violating member is still in
// the chat.
func (r Result) BanFailed() bool {
	for _, e := range r.Errors {
		if e.Step == StepBan {
			return true
		}
	}
	return false
}

// Chat-facing notifications. Generic on purpose: publishing the matched
// entry would tell evaders exactly which string to mutate.
const (
	noticeBanned   = "A member was removed for violating this group's naming policy."
	noticeDetected = "A naming-policy violation was detected. Moderators have been alerted."
)

// Executor runs the remediation sequence against a ChatAPI.
type Executor struct {
	api ChatAPI
}

// NewExecutor creates an executor over api.
func NewExecutor(api ChatAPI) *Executor {
	return &Executor{api: api}
}

// Enforce runs the ordered sequence for userID in chatID. messageID is the
// triggering message, or 0 when the event had none (a join). matchedName is
// recorded in the result for the caller's audit trail; it never appears in
// chat-facing text.
//
// Order and failure policy:
//  1. delete the triggering message — failure recorded, sequence continues
//     (the message may already be gone, or the bot may lack delete rights);
//  2. ban the member with history revocation — failure recorded and
//     surfaced distinctly via Result.BanFailed;
//  3. send one generic notification whose wording reflects whether the ban
//     actually happened.
func (ex *Executor) Enforce(ctx context.Context, chatID, userID, messageID int64, matchedName string) Result {
	result := Result{MatchedName: matchedName}

	if messageID != 0 {
		if err := ex.api.DeleteMessage(ctx, chatID, messageID); err != nil {
			log.Printf("[enforcer] delete message=%d chat=%d failed: %v", messageID, chatID, err)
			result.Errors = append(result.Errors, StepError{Step: StepDelete, Err: err})
		} else {
			result.MessageDeleted = true
		}
	}

	if err := ex.api.BanMember(ctx, chatID, userID, true); err != nil {
		log.Printf("[enforcer] ban user=%d chat=%d failed: %v", userID, chatID, err)
		result.Errors = append(result.Errors, StepError{Step: StepBan, Err: err})
	} else {
		result.MemberBanned = true
	}

	notice := noticeBanned
	if !result.MemberBanned {
		// Never announce a ban that did not happen.
		notice = noticeDetected
	}
	if err := ex.api.SendMessage(ctx, chatID, notice); err != nil {
		log.Printf("[enforcer] notify chat=%d failed: %v", chatID, err)
		result.Errors = append(result.Errors, StepError{Step: StepNotify, Err: err})
	} else {
		result.NotificationSent = true
	}

	return result
}
