package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/namegate/namegate/internal/policy"
	"github.com/namegate/namegate/internal/telegram"
)

// Bot commands routed to the mutation service. Authorization lives in the
// mutation service, not here: the engine forwards the actor id and maps the
// typed outcome to a reply.
const (
	cmdStart  = "/start"
	cmdAdd    = "/add_restricted_name"
	cmdRemove = "/remove_restricted_name"
	cmdList   = "/list_restricted_names"
)

const replyUnauthorized = "Admin access required."

func (e *Engine) handleCommand(ctx context.Context, msg *telegram.Message, cmd, args string) {
	actorID := msg.From.ID
	chatID := msg.Chat.ID

	switch cmd {
	case cmdStart:
		e.reply(ctx, chatID, "Bot is operational.")

	case cmdAdd:
		if args == "" {
			e.reply(ctx, chatID, fmt.Sprintf("Usage: %s <name>", cmdAdd))
			return
		}
		outcome, err := e.mutator.Add(ctx, actorID, args)
		if err != nil {
			log.Printf("[engine] add command failed for user=%d: %v", actorID, err)
			e.reply(ctx, chatID, "Could not update the policy. Try again later.")
			return
		}
		e.reply(ctx, chatID, addReply(outcome, args))

	case cmdRemove:
		if args == "" {
			e.reply(ctx, chatID, fmt.Sprintf("Usage: %s <name>", cmdRemove))
			return
		}
		outcome, err := e.mutator.Remove(ctx, actorID, args)
		if err != nil {
			log.Printf("[engine] remove command failed for user=%d: %v", actorID, err)
			e.reply(ctx, chatID, "Could not update the policy. Try again later.")
			return
		}
		e.reply(ctx, chatID, removeReply(outcome, args))

	case cmdList:
		names, outcome, err := e.mutator.List(ctx, actorID)
		if err != nil {
			log.Printf("[engine] list command failed for user=%d: %v", actorID, err)
			e.reply(ctx, chatID, "Could not read the policy. Try again later.")
			return
		}
		if outcome == policy.Unauthorized {
			e.reply(ctx, chatID, replyUnauthorized)
			return
		}
		if len(names) == 0 {
			e.reply(ctx, chatID, "No restricted names configured.")
			return
		}
		e.reply(ctx, chatID, "Restricted names:\n- "+strings.Join(names, "\n- "))

	default:
		// Not our command; other bots in the chat may own it.
	}
}

func addReply(outcome policy.Outcome, name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch outcome {
	case policy.Added:
		return fmt.Sprintf("Added: %s", normalized)
	case policy.AlreadyExists:
		return fmt.Sprintf("Already restricted: %s", normalized)
	case policy.ConflictsWithExisting:
		return fmt.Sprintf("Rejected: %s overlaps an existing entry", normalized)
	case policy.Unauthorized:
		return replyUnauthorized
	default:
		return "Invalid name."
	}
}

func removeReply(outcome policy.Outcome, name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch outcome {
	case policy.Removed:
		return fmt.Sprintf("Removed: %s", normalized)
	case policy.NotFound:
		return fmt.Sprintf("Not restricted: %s", normalized)
	case policy.Unauthorized:
		return replyUnauthorized
	default:
		return "Invalid name."
	}
}

func (e *Engine) reply(ctx context.Context, chatID int64, text string) {
	if err := e.responder.SendMessage(ctx, chatID, text); err != nil {
		log.Printf("[engine] reply to chat=%d failed: %v", chatID, err)
	}
}
