package telegram

import (
	"context"
	"errors"
	"log"
	"time"
)

// UpdateHandler processes one inbound update. Handlers run on their own
// goroutine per update; ordering across updates is not guaranteed.
type UpdateHandler func(ctx context.Context, update Update)

// PollerConfig holds long-poll loop settings.
type PollerConfig struct {
	// HoldSeconds is the server-side long-poll hold.
	HoldSeconds int

	// RetryWait is the pause after a failed getUpdates call before the
	// loop retries.
	RetryWait time.Duration
}

// DefaultPollerConfig returns sensible defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		HoldSeconds: 30,
		RetryWait:   3 * time.Second,
	}
}

// Poller drives the engine in single-process deployments: a getUpdates
// offset loop dispatching each update to the handler.
type Poller struct {
	client  *Client
	config  PollerConfig
	handler UpdateHandler
}

// NewPoller creates a poller that feeds handler.
func NewPoller(client *Client, config PollerConfig, handler UpdateHandler) *Poller {
	return &Poller{client: client, config: config, handler: handler}
}

// Run polls until ctx is cancelled. Each update is handled on its own
// goroutine so one slow enforcement sequence never stalls the poll loop.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64

	log.Printf("[poller] starting long-poll loop (hold=%ds)", p.config.HoldSeconds)
	for {
		updates, err := p.client.GetUpdates(ctx, offset, p.config.HoldSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				log.Printf("[poller] getUpdates rejected: %v", apiErr)
			} else {
				log.Printf("[poller] getUpdates failed: %v", err)
			}

			select {
			case <-time.After(p.config.RetryWait):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			go p.handler(ctx, update)
		}
	}
}
