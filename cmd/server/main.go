package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/workbridge/backend/internal/config"
	"github.com/workbridge/backend/internal/handler"
	"github.com/workbridge/backend/internal/logging"
	"github.com/workbridge/backend/internal/mq"
	"github.com/workbridge/backend/internal/redis"
	"github.com/workbridge/backend/internal/repository"
	"github.com/workbridge/backend/internal/service"
	"github.com/workbridge/backend/internal/storage"
	"github.com/workbridge/backend/pkg/auth"
)

// storeBackend は Store と死活確認を兼ねる
type storeBackend interface {
	repository.Store
	repository.DB
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, "server")

	ctx := context.Background()

	var store storeBackend
	switch cfg.Store {
	case "memory":
		slog.Warn("using in-memory store; data is lost on restart")
		store = repository.NewMemoryStore()
	default:
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logging.Fatal("failed to connect to database", "error", err)
		}
		defer pool.Close()
		store = repository.NewPgStore(pool)
	}

	var notifiers service.Notifiers
	var versioner handler.WorkspaceVersioner
	var deps []handler.Dependency
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logging.Fatal("failed to connect to redis", "error", err)
		}
		defer rdb.Close()
		inv := redis.NewInvalidator(rdb)
		notifiers = append(notifiers, inv)
		versioner = inv
		deps = append(deps, handler.Dependency{Name: "redis", DB: inv})
	}
	if cfg.AMQP.URL != "" {
		producer, err := mq.NewProducer(cfg.AMQP.URL)
		if err != nil {
			logging.Fatal("failed to connect to amqp", "error", err)
		}
		defer producer.Close()
		notifiers = append(notifiers, producer)
		deps = append(deps, handler.Dependency{Name: "amqp", DB: producer})
	}
	var notifier service.WorkspaceNotifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	files := storage.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.URLPrefix)
	narrator := service.NewNarrator(nil)

	projectService := service.NewProjectService(store, narrator, notifier)
	milestoneService := service.NewMilestoneService(store, narrator, notifier)
	deliveryService := service.NewDeliveryService(store, narrator, notifier)
	messageService := service.NewMessageService(store, notifier)
	fileService := service.NewFileService(store, files, cfg.Upload.MaxBytes, notifier)

	h := handler.New(store, cfg.FrontendURL, deps...)
	routes := handler.Routes{
		Base:       h,
		Projects:   handler.NewProjectHandler(projectService, versioner),
		Milestones: handler.NewMilestoneHandler(milestoneService),
		Deliveries: handler.NewDeliveryHandler(deliveryService),
		Messages:   handler.NewMessageHandler(messageService),
		Files:      handler.NewFileHandler(fileService, cfg.Upload.MaxBytes),
	}

	sessionSecretBytes := auth.SessionSecretBytes(cfg.SessionSecret)
	jwtSecretBytes := []byte(cfg.JWTSecret)
	wrapAuth := func(next http.Handler) http.Handler {
		if cfg.AuthRequired {
			return auth.RequireAuth(sessionSecretBytes, jwtSecretBytes)(next)
		}
		return auth.DevAuth(next)
	}
	if !cfg.AuthRequired {
		slog.Warn("AUTH_REQUIRED is not true; requests run as the dev user")
	}

	mux := http.NewServeMux()
	routes.Register(mux, wrapAuth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET "+cfg.Upload.URLPrefix+"/", http.StripPrefix(cfg.Upload.URLPrefix+"/", http.FileServer(http.Dir(files.BaseDir()))))

	limiter := handler.NewRateLimiter(cfg.RateLimitPerMinute, cfg.TrustedProxies)
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler.RequestLogger(h.CORS(handler.SecurityHeaders(cfg.Upload.URLPrefix)(limiter.Middleware(mux)))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
