package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"grievance-portal/pkg/config"
	"grievance-portal/pkg/mailer"
	"grievance-portal/pkg/queue"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const queueName = "email_queue"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[ERROR] Invalid configuration: %v", err)
	}
	if cfg.RabbitMQURL == "" {
		log.Fatal("[ERROR] RABBITMQ_URL is required for the dispatcher service")
	}

	conn, ch, err := queue.ConnectRabbitMQ(cfg.RabbitMQURL, "dispatcher-service")
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()
	defer ch.Close()
	log.Println("[OK] Dispatcher Service connected to RabbitMQ")

	msgs, err := queue.ConsumeMessages(ch, cfg.EventsExchange, queueName)
	if err != nil {
		log.Fatalf("[ERROR] Failed to consume queue: %v", err)
	}

	reg := prometheus.NewRegistry()
	worker := NewWorker(mailer.New(cfg), reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	srv := &http.Server{Addr: ":" + cfg.DispatcherPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[WARN] Metrics server stopped: %v", err)
		}
	}()

	log.Printf("[INFO] Waiting for notifications in queue '%s'", queueName)
	worker.Run(ctx, msgs)

	log.Println("[INFO] Shutting down dispatcher service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
