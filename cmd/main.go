package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"application-intake/infrastructure"
	"application-intake/interfaces"
)

const migrateRetryInterval = 30 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a TOML config file")
	flag.Parse()

	// Load .env
	_ = godotenv.Load()

	cfg, err := infrastructure.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log, err := infrastructure.NewLogger(cfg.Log)
	if err != nil {
		logrus.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := infrastructure.NewMySQLConnection(cfg.Database, log)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	store := infrastructure.NewStore(db)
	defer store.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	pingErr := store.Ping(pingCtx)
	cancelPing()
	if pingErr != nil {
		log.WithError(pingErr).Warn("MySQL is not reachable, uploads will fail until it is")
	} else {
		log.Info("Connected to MySQL")
	}

	if cfg.Database.AutoMigrate {
		migrateErr := pingErr
		if migrateErr == nil {
			migrateErr = store.Migrate()
		}
		if migrateErr != nil {
			log.WithError(migrateErr).Warn("Migration deferred, retrying in the background")
			go migrate(ctx, store, log)
		} else {
			log.Info("Database schema is up to date")
		}
	}

	videos := infrastructure.NewVideoStorage(cfg.Upload)
	if err := videos.EnsureDir(); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	deps := interfaces.Dependencies{
		Config:   cfg,
		Store:    store,
		Videos:   videos,
		Metrics:  infrastructure.NewMetrics(prometheus.DefaultRegisterer),
		Gatherer: prometheus.DefaultGatherer,
		Log:      log,
	}

	if cfg.RabbitMQ.URL != "" {
		rmq, err := infrastructure.NewRabbitMQ(cfg.RabbitMQ)
		if err != nil {
			log.Fatalf("Failed to connect RabbitMQ: %v", err)
		}
		defer rmq.Close()
		deps.Events = rmq
		log.WithField("queue", cfg.RabbitMQ.Queue).Info("Publishing application events")
	}

	if cfg.Admin.Password == "" {
		log.Warn("ADMIN_PASSWORD is not set, admin routes are disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      interfaces.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	go func() {
		log.Infof("Server running on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}

// migrate retries in the background until the schema is in place or ctx
// is done.
func migrate(ctx context.Context, store *infrastructure.Store, log *logrus.Logger) {
	ticker := time.NewTicker(migrateRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := store.Migrate(); err != nil {
			log.WithError(err).Warn("Migration failed, retrying")
			continue
		}
		log.Info("Database schema is up to date")
		return
	}
}
