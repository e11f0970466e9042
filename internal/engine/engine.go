// Package engine orchestrates one update's moderation pipeline: policy
// snapshot, exemption, normalization, matching, enforcement, and the audit
// trail. The engine is stateless between updates; the policy store is the
// only shared resource, and every update is decided against a single
// snapshot of it.
package engine

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/namegate/namegate/internal/enforce"
	"github.com/namegate/namegate/internal/exempt"
	"github.com/namegate/namegate/internal/identity"
	"github.com/namegate/namegate/internal/match"
	"github.com/namegate/namegate/internal/metrics"
	"github.com/namegate/namegate/internal/policy"
	"github.com/namegate/namegate/internal/telegram"
)

// Auditor persists enforcement outcomes for operator review. audit.Store
// implements it; deployments without Postgres run with a nil Auditor.
type Auditor interface {
	RecordEnforcement(ctx context.Context, updateID string, chatID, userID int64, username, strategy string, result enforce.Result) error
}

// ResultPublisher broadcasts serialized enforcement outcomes, e.g. onto
// NATS for an alerting process. Optional.
type ResultPublisher interface {
	PublishEnforcementResult(data []byte) error
}

// Disposition summarizes how one update was handled.
type Disposition struct {
	UpdateID string
	Kind     string // "message", "membership", "command", "ignored"
	Matched  bool
	Exempted bool
	Result   *enforce.Result // non-nil when enforcement ran
}

// Engine runs the moderation pipeline.
type Engine struct {
	store     policy.Store
	mutator   *policy.Mutator
	matcher   *match.Matcher
	checker   *exempt.Checker
	executor  *enforce.Executor
	responder enforce.ChatAPI // command replies go through SendMessage
	auditor   Auditor
	publisher ResultPublisher
}

// New assembles an engine. auditor and publisher may be nil.
func New(store policy.Store, mutator *policy.Mutator, matcher *match.Matcher,
	checker *exempt.Checker, api enforce.ChatAPI, auditor Auditor, publisher ResultPublisher) *Engine {
	return &Engine{
		store:     store,
		mutator:   mutator,
		matcher:   matcher,
		checker:   checker,
		executor:  enforce.NewExecutor(api),
		responder: api,
		auditor:   auditor,
		publisher: publisher,
	}
}

// HandleUpdate routes one inbound update through the pipeline. It never
// returns an error: every failure mode degrades to "no action taken" and is
// logged, so one bad update cannot take the worker down.
func (e *Engine) HandleUpdate(ctx context.Context, update telegram.Update) Disposition {
	updateID := uuid.NewString()

	switch {
	case update.Message != nil && update.Message.From != nil:
		msg := update.Message
		if msg.From.IsBot {
			metrics.UpdatesTotal.WithLabelValues("ignored").Inc()
			return Disposition{UpdateID: updateID, Kind: "ignored"}
		}
		if cmd, args := msg.Command(); cmd != "" {
			metrics.UpdatesTotal.WithLabelValues("command").Inc()
			e.handleCommand(ctx, msg, cmd, args)
			return Disposition{UpdateID: updateID, Kind: "command"}
		}
		metrics.UpdatesTotal.WithLabelValues("message").Inc()
		event := identity.MessageEvent{
			From:      msg.From.Identity(),
			Chat:      msg.Chat.Context(),
			MessageID: msg.MessageID,
			Text:      msg.Text,
		}
		return e.evaluate(ctx, updateID, "message", event.From, event.Chat, event.MessageID)

	case update.ChatMember != nil:
		transition := update.ChatMember
		event := identity.MembershipEvent{
			Member:    transition.NewChatMember.User.Identity(),
			Chat:      transition.Chat.Context(),
			NewStatus: transition.NewChatMember.Status,
		}
		if !event.IsJoin() {
			metrics.UpdatesTotal.WithLabelValues("ignored").Inc()
			return Disposition{UpdateID: updateID, Kind: "ignored"}
		}
		metrics.UpdatesTotal.WithLabelValues("membership").Inc()
		return e.evaluate(ctx, updateID, "membership", event.Member, event.Chat, 0)
	}

	metrics.UpdatesTotal.WithLabelValues("ignored").Inc()
	return Disposition{UpdateID: updateID, Kind: "ignored"}
}

// evaluate runs the decision pipeline for one identity and, on a confirmed
// violation, the enforcement sequence. messageID is 0 for join events.
func (e *Engine) evaluate(ctx context.Context, updateID, kind string, id identity.Identity, chat identity.ChatContext, messageID int64) Disposition {
	disposition := Disposition{UpdateID: updateID, Kind: kind}
	started := time.Now()

	snap, err := e.store.Load(ctx)
	if err != nil {
		// Fail safe: a policy that cannot be read decides nothing.
		log.Printf("[engine] update=%s policy load failed, no action: %v", updateID, err)
		metrics.StoreLoadFailures.Inc()
		return disposition
	}
	metrics.PolicySize.Set(float64(len(snap.RestrictedNames)))

	// Exemption gates the whole decision, not individual steps.
	if exempted, source := e.checker.IsExempt(ctx, id, chat, snap); exempted {
		metrics.ExemptionsTotal.WithLabelValues(string(source)).Inc()
		disposition.Exempted = true
		return disposition
	}

	candidates := identity.Candidates(id, chat)
	result, ok := e.matcher.Match(candidates, chat, snap)
	metrics.DecisionLatency.Observe(time.Since(started).Seconds())
	if !ok {
		return disposition
	}

	strategy := string(e.matcher.Strategy())
	metrics.MatchesTotal.WithLabelValues(strategy).Inc()
	disposition.Matched = true
	log.Printf("[engine] update=%s user=%d chat=%d matched %q via candidate %q",
		updateID, id.ID, chat.ID, result.Entry, result.Candidate)

	enforcement := e.executor.Enforce(ctx, chat.ID, id.ID, messageID, result.Entry)
	disposition.Result = &enforcement
	e.recordOutcome(ctx, updateID, id, chat, strategy, enforcement, messageID != 0)
	return disposition
}

// recordOutcome emits metrics, the audit row, the result broadcast, and the
// operator alert for failed bans.
func (e *Engine) recordOutcome(ctx context.Context, updateID string, id identity.Identity, chat identity.ChatContext, strategy string, result enforce.Result, hadMessage bool) {
	if hadMessage {
		metrics.EnforcementStepsTotal.WithLabelValues(string(enforce.StepDelete), outcomeLabel(result.MessageDeleted)).Inc()
	}
	metrics.EnforcementStepsTotal.WithLabelValues(string(enforce.StepBan), outcomeLabel(result.MemberBanned)).Inc()
	metrics.EnforcementStepsTotal.WithLabelValues(string(enforce.StepNotify), outcomeLabel(result.NotificationSent)).Inc()

	if result.BanFailed() {
		log.Printf("[engine] ALERT update=%s user=%d chat=%d ban failed, violation uncorrected",
			updateID, id.ID, chat.ID)
	}

	if e.auditor != nil {
		if err := e.auditor.RecordEnforcement(ctx, updateID, chat.ID, id.ID, id.Username, strategy, result); err != nil {
			log.Printf("[engine] update=%s audit record failed: %v", updateID, err)
		}
	}

	if e.publisher != nil {
		payload, err := json.Marshal(resultMessage{
			UpdateID:     updateID,
			ChatID:       chat.ID,
			UserID:       id.ID,
			Strategy:     strategy,
			MemberBanned: result.MemberBanned,
			BanFailed:    result.BanFailed(),
		})
		if err == nil {
			if err := e.publisher.PublishEnforcementResult(payload); err != nil {
				log.Printf("[engine] update=%s result publish failed: %v", updateID, err)
			}
		}
	}
}

// resultMessage is the NATS payload for one enforcement outcome.
type resultMessage struct {
	UpdateID     string `json:"update_id"`
	ChatID       int64  `json:"chat_id"`
	UserID       int64  `json:"user_id"`
	Strategy     string `json:"strategy"`
	MemberBanned bool   `json:"member_banned"`
	BanFailed    bool   `json:"ban_failed"`
}

func outcomeLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
