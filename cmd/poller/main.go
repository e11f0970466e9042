// The poller binary runs the whole bot in one process: a Bot API long-poll
// loop feeding the engine directly, with no NATS in between. Suitable for
// single-instance deployments; larger ones run cmd/webhook + cmd/moderator.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/namegate/namegate/internal/audit"
	"github.com/namegate/namegate/internal/engine"
	"github.com/namegate/namegate/internal/exempt"
	"github.com/namegate/namegate/internal/match"
	"github.com/namegate/namegate/internal/metrics"
	"github.com/namegate/namegate/internal/policy"
	"github.com/namegate/namegate/internal/roles"
	"github.com/namegate/namegate/internal/telegram"
)

func main() {
	log.Println("Starting namegate in polling mode...")

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		log.Fatal("BOT_TOKEN is required")
	}

	policyFile := "policy.json"
	if v := os.Getenv("POLICY_FILE"); v != "" {
		policyFile = v
	}

	strategy := match.StrategySubstring
	if v := os.Getenv("MATCH_STRATEGY"); v != "" {
		parsed, err := match.ParseStrategy(v)
		if err != nil {
			log.Fatalf("invalid MATCH_STRATEGY: %v", err)
		}
		strategy = parsed
	}

	mutatorConfig := policy.MutatorConfig{
		StrictConflicts: os.Getenv("POLICY_STRICT_CONFLICTS") == "true",
	}

	metricsAddr := ":9103"
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		metricsAddr = v
	}

	pollerConfig := telegram.DefaultPollerConfig()
	if v := os.Getenv("POLL_RETRY_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			pollerConfig.RetryWait = d
		}
	}

	// --- Bot API client ---
	client, err := telegram.NewClient(telegram.DefaultClientConfig(token))
	if err != nil {
		log.Fatalf("failed to create Bot API client: %v", err)
	}

	// --- Redis (role cache) ---
	redisAddr := "localhost:6379"
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		redisAddr = v
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	cancel()
	roleCache := roles.NewCache(rdb, client, 0)

	// --- Policy store ---
	store, err := policy.NewFileStore(policyFile)
	if err != nil {
		log.Fatalf("failed to open policy store: %v", err)
	}
	if v := os.Getenv("ADMIN_IDS"); v != "" {
		adminIDs, err := parseAdminIDs(v)
		if err != nil {
			log.Fatalf("invalid ADMIN_IDS: %v", err)
		}
		if err := store.SetAdmins(context.Background(), adminIDs); err != nil {
			log.Fatalf("failed to set admin ids: %v", err)
		}
	}

	// --- Audit log (optional) ---
	var auditor engine.Auditor
	var auditStore *audit.Store
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		auditStore, err = audit.Open(databaseURL)
		if err != nil {
			log.Fatalf("failed to open audit store: %v", err)
		}
		auditor = auditStore
	} else {
		log.Println("DATABASE_URL not set, enforcement audit log disabled")
	}

	eng := engine.New(
		store,
		policy.NewMutator(store, mutatorConfig),
		match.New(strategy),
		exempt.NewChecker(roleCache),
		client,
		auditor,
		nil,
	)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("[poller] metrics server: %v", err)
		}
	}()

	log.Printf("namegate poller running")
	log.Printf("  policy_file:   %s", policyFile)
	log.Printf("  strategy:      %s", strategy)
	log.Printf("  redis_addr:    %s", redisAddr)
	log.Printf("  metrics_addr:  %s", metricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := telegram.NewPoller(client, pollerConfig, func(ctx context.Context, update telegram.Update) {
		eng.HandleUpdate(ctx, update)
	})
	if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("poller stopped: %v", err)
	}

	log.Println("shutting down...")
	rdb.Close()
	if auditStore != nil {
		auditStore.Close()
	}
}

// parseAdminIDs parses a comma-separated id list, e.g. "42,1337".
func parseAdminIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
