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
	"grievance-portal/pkg/mailer"
	"grievance-portal/pkg/middleware"
	"grievance-portal/pkg/queue"
	"grievance-portal/pkg/security"
	"grievance-portal/pkg/storage"
	"grievance-portal/services/portal-service/handlers"
	"grievance-portal/services/portal-service/notification"
	"grievance-portal/services/portal-service/repository"
	"grievance-portal/services/portal-service/service"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[ERROR] Invalid configuration: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoDB, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to MongoDB: %v", err)
	}
	defer database.DisconnectMongo(mongoDB)
	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("[ERROR] Failed to create indexes: %v", err)
	}

	pg, err := database.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to PostgreSQL: %v", err)
	}
	if err := repository.AutoMigrate(pg); err != nil {
		log.Fatalf("[ERROR] Failed to migrate: %v", err)
	}

	rdb, err := database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	objects, err := storage.NewMinioStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("[ERROR] Failed to initialise object storage: %v", err)
	}

	templates, err := notification.NewTemplates(cfg.FrontendURL)
	if err != nil {
		log.Fatalf("[ERROR] Failed to load email templates: %v", err)
	}

	metrics := middleware.NewMetrics("portal-service")
	mail := mailer.New(cfg)

	var dispatcher notification.Dispatcher
	if cfg.RabbitMQURL != "" {
		conn, ch, err := queue.ConnectRabbitMQ(cfg.RabbitMQURL, "portal-service")
		if err != nil {
			log.Fatalf("[ERROR] Failed to connect to RabbitMQ: %v", err)
		}
		defer conn.Close()
		defer ch.Close()
		if err := queue.DeclareFanout(ch, cfg.EventsExchange); err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		log.Println("[OK] Connected to RabbitMQ")
		dispatcher = notification.NewQueueDispatcher(queue.NewPublisher(ch, cfg.EventsExchange), metrics.Registry)
	} else {
		log.Println("[WARN] RabbitMQ not configured, notifications are mailed in-process")
		direct := notification.NewDirectDispatcher(mail, metrics.Registry)
		defer direct.Wait()
		dispatcher = direct
	}

	deps := service.Deps{
		Users:        repository.NewGormUserRepository(pg),
		Departments:  repository.NewGormDepartmentRepository(pg),
		Grievances:   repository.NewMongoGrievanceRepository(mongoDB),
		WorkProgress: repository.NewMongoWorkProgressRepository(mongoDB),
		OTPs:         repository.NewRedisOTPStore(rdb),
		Denylist:     repository.NewRedisDenylist(rdb),
		Objects:      objects,
		Mailer:       mail,
		Dispatcher:   dispatcher,
		Templates:    templates,
		Tokens:       security.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
	}

	h := handlers.New(deps)
	authn := middleware.NewAuthenticator(deps.Tokens, deps.Denylist, h.PrincipalLoader())
	router := handlers.NewRouter(h, authn, metrics, !cfg.IsProduction())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[INFO] Portal Service running on port :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[ERROR] Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[INFO] Shutting down portal service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] Graceful shutdown failed: %v", err)
	}
}
