package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"workspace-promoter/internal/adapters/primary/http/handlers"
	"workspace-promoter/internal/adapters/primary/http/middleware"
	"workspace-promoter/internal/adapters/secondary/entra"
	"workspace-promoter/internal/adapters/secondary/fabric"
	"workspace-promoter/internal/adapters/secondary/localrepo"
	"workspace-promoter/internal/adapters/secondary/memory"
	"workspace-promoter/internal/adapters/secondary/postgres"
	"workspace-promoter/internal/config"
	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
	"workspace-promoter/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	if cfg.Promotion.SourceWorkspaceID == "" {
		log.Fatal(domain.ErrMissingSourceWorkspace)
	}
	if cfg.Promotion.TargetWorkspaceID == "" {
		log.Fatal(domain.ErrMissingTargetWorkspace)
	}

	// ============================================================================
	// Hexagonal Architecture Wiring
	// ============================================================================

	// Secondary Adapters (Output Ports)
	tokens, err := entra.NewProvider(&cfg.Auth)
	if err != nil {
		log.Fatalf("token provider init failed: %v", err)
	}
	client := fabric.NewClient(&cfg.Fabric, tokens)
	scanner := localrepo.NewScanner()

	// Core Services (Application Layer)
	exporter := services.NewExportService(client, cfg.Promotion.FetchConcurrency)
	importer := services.NewImportService(client, cfg.Promotion.ResolveAttempts, cfg.Promotion.ResolveBackoff)
	translator := services.NewTranslateService()
	organizer := services.NewOrganizeService(client, scanner, cfg.Promotion.MoveAttempts, cfg.Promotion.MoveBackoff)
	promotionSvc := services.NewPromotionService(
		tokens, exporter, importer, translator, organizer,
		cfg.Promotion.SourceWorkspaceID,
		cfg.Promotion.TargetWorkspaceID,
		cfg.Promotion.RepoPath,
	)

	switch cfg.Mode {
	case "serve":
		serve(cfg, promotionSvc)
	case "once":
		os.Exit(runOnce(promotionSvc))
	default:
		log.Fatalf("unknown mode %q (expected once or serve)", cfg.Mode)
	}
}

// runOnce executes a single promotion, prints the report to stdout and maps
// the result onto the process exit code: 0 full success, 1 per-artifact
// failures, 2 stage-level abort.
func runOnce(promotionSvc *services.PromotionService) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := promotionSvc.Run(ctx)

	out, marshalErr := json.MarshalIndent(report, "", "  ")
	if marshalErr != nil {
		log.WithError(marshalErr).Error("encode run report")
	} else {
		fmt.Println(string(out))
	}

	if err != nil {
		return 2
	}
	if !report.Succeeded {
		return 1
	}
	return 0
}

func serve(cfg *config.Config, promotionSvc *services.PromotionService) {
	var runRepo ports.RunRepository
	var pool *pgxpool.Pool

	if cfg.Database.Enabled {
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			log.Fatalf("parse db config: %v", err)
		}
		poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

		pool, err = pgxpool.NewWithConfig(context.Background(), poolCfg)
		if err != nil {
			log.Fatalf("create db pool: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			log.Fatalf("ping db: %v", err)
		}
		log.Info("database connection established")
		runRepo = postgres.NewRunRepository(pool)
	} else {
		log.Info("run history database disabled, keeping runs in memory")
		runRepo = memory.NewRunRepository()
	}

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(promotionSvc, runRepo,
		cfg.Promotion.SourceWorkspaceID, cfg.Promotion.TargetWorkspaceID)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	api := router.Group("/api/v1/promoter")
	h.RegisterRoutes(api)

	router.GET("/healthz", func(c *gin.Context) {
		if pool != nil {
			if err := pool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
