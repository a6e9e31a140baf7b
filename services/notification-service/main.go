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
	"grievance-portal/pkg/database"
	"grievance-portal/pkg/middleware"
	"grievance-portal/pkg/queue"
	"grievance-portal/pkg/security"
	"grievance-portal/services/portal-service/repository"

	"github.com/gin-gonic/gin"
)

const queueName = "inapp_queue"

func newRouter(hub *Hub, authn *middleware.Authenticator, metrics *middleware.Metrics, allowedOrigin string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Trace(), middleware.Logger(), middleware.Recovery(false))
	if metrics != nil {
		r.Use(metrics.Handler())
		r.GET("/metrics", gin.WrapH(metrics.Exposer()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":            "ok",
			"service":           "notification-service",
			"connected_clients": hub.Total(),
		})
	})

	gateway := NewGateway(hub, allowedOrigin)
	r.GET("/ws", tokenFromQuery(), authn.Required(), gateway.Subscribe)
	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[ERROR] Invalid configuration: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.RabbitMQURL == "" {
		log.Fatal("[ERROR] RABBITMQ_URL is required for the notification service")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	conn, ch, err := queue.ConnectRabbitMQ(cfg.RabbitMQURL, "notification-service")
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()
	defer ch.Close()
	log.Println("[OK] Connected to RabbitMQ")

	msgs, err := queue.ConsumeMessages(ch, cfg.EventsExchange, queueName)
	if err != nil {
		log.Fatalf("[ERROR] Failed to consume queue: %v", err)
	}

	metrics := middleware.NewMetrics("notification-service")
	hub := NewHub(metrics.Registry)
	go hub.Run(ctx)
	go Consume(ctx, msgs, hub)

	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authn := middleware.NewAuthenticator(tokens, repository.NewRedisDenylist(rdb), nil)

	origin := cfg.FrontendURL
	if !cfg.IsProduction() {
		origin = ""
	}

	srv := &http.Server{
		Addr:              ":" + cfg.NotificationPort,
		Handler:           newRouter(hub, authn, metrics, origin),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[INFO] Notification Service running on port :%s", cfg.NotificationPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[ERROR] Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[INFO] Shutting down notification service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
