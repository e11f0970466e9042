package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/namegate/namegate/internal/messaging"
	"github.com/namegate/namegate/internal/metrics"
	"github.com/namegate/namegate/internal/webhook"
)

func main() {
	log.Println("Starting namegate webhook receiver...")

	listenAddr := ":8080"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		listenAddr = v
	}
	metricsAddr := ":9101"
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		metricsAddr = v
	}

	// --- NATS ---
	natsConfig := messaging.DefaultNATSConfig()
	if v := os.Getenv("NATS_URL"); v != "" {
		natsConfig.URL = v
	}
	natsConfig.Name = "namegate-webhook"

	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	handler := webhook.NewHandler(webhook.HandlerConfig{
		SecretToken: os.Getenv("WEBHOOK_SECRET"),
	}, natsClient)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("[webhook] metrics server: %v", err)
		}
	}()

	server := &http.Server{Addr: listenAddr, Handler: handler.Mux()}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("webhook server: %v", err)
		}
	}()

	log.Printf("namegate webhook receiver running")
	log.Printf("  listen_addr:   %s", listenAddr)
	log.Printf("  nats_url:      %s", natsConfig.URL)
	log.Printf("  metrics_addr:  %s", metricsAddr)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	server.Close()
	natsClient.Close()
}
