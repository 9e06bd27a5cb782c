package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chainsleuth/casefile-api/internal/application"
	appai "github.com/chainsleuth/casefile-api/internal/application/ai"
	appcases "github.com/chainsleuth/casefile-api/internal/application/cases"
	"github.com/chainsleuth/casefile-api/internal/config"
	"github.com/chainsleuth/casefile-api/internal/domain/audit"
	domain "github.com/chainsleuth/casefile-api/internal/domain/cases"
	openaiclient "github.com/chainsleuth/casefile-api/internal/infra/ai/openai"
	memorydb "github.com/chainsleuth/casefile-api/internal/infra/db/memory"
	mysqldb "github.com/chainsleuth/casefile-api/internal/infra/db/mysql"
	postgresdb "github.com/chainsleuth/casefile-api/internal/infra/db/postgres"
	sqlitedb "github.com/chainsleuth/casefile-api/internal/infra/db/sqlite"
	"github.com/chainsleuth/casefile-api/internal/infra/httpserver"
	minioStore "github.com/chainsleuth/casefile-api/internal/infra/storage"
	"github.com/chainsleuth/casefile-api/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// pick the storage backend
	var (
		store     domain.Store
		registry  domain.RecordRegistry
		auditRepo audit.Repository
		db        *sql.DB
	)
	switch cfg.Database.Driver {
	case "memory":
		store = memorydb.NewStore()
		registry = memorydb.NewRegistry()
		auditRepo = memorydb.NewAuditRepository()
	case "mysql":
		db, err = mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		if err := mysqldb.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("mysql schema error: %v", err)
		}
		store = mysqldb.NewCaseRepository(db)
		registry = mysqldb.NewRecordRepository(db)
		auditRepo = mysqldb.NewAuditRepository(db)
	case "postgres":
		db, err = postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		if err := postgresdb.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("postgres schema error: %v", err)
		}
		store = postgresdb.NewCaseRepository(db)
		registry = postgresdb.NewRecordRepository(db)
		auditRepo = postgresdb.NewAuditRepository(db)
	case "sqlite":
		db, err = sqlitedb.Connect(ctx, cfg.Database.Path)
		if err != nil {
			log.Fatalf("sqlite connect error: %v", err)
		}
		if err := sqlitedb.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("sqlite schema error: %v", err)
		}
		store = sqlitedb.NewCaseRepository(db)
		registry = sqlitedb.NewRecordRepository(db)
		auditRepo = sqlitedb.NewAuditRepository(db)
	default:
		log.Fatalf("unknown database driver: %q", cfg.Database.Driver)
	}
	if db != nil {
		defer db.Close()
	}

	// init minio (optional, payloads are archived when configured)
	var archive domain.PayloadArchive
	if cfg.Minio.Endpoint != "" {
		s, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		archive = s
	}

	// init services
	caseSvc, err := appcases.NewService(store, registry, auditRepo, archive,
		application.SystemClock{}, cfg.Auth.AdminAccount, cfg.Engine.MintPrice)
	if err != nil {
		log.Fatalf("service init error: %v", err)
	}

	var aiSvc *appai.Service
	if cfg.OpenAI.APIKey != "" {
		aiSvc = appai.NewService(openaiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	mux.Use(middleware.RateLimitMiddleware(100, 10))

	checkers := map[string]middleware.HealthChecker{}
	if db != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}
	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(caseSvc, aiSvc, auditRepo))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
