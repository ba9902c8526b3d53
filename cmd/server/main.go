package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/api"
	"github.com/jengzang/shuttle-analytics/internal/config"
	"github.com/jengzang/shuttle-analytics/internal/database"
	"github.com/jengzang/shuttle-analytics/internal/loader"
	"github.com/jengzang/shuttle-analytics/internal/logging"
	"github.com/jengzang/shuttle-analytics/internal/metrics"
	"github.com/jengzang/shuttle-analytics/internal/reference"
	"github.com/jengzang/shuttle-analytics/internal/service"

	// Import analyzer packages to register them
	_ "github.com/jengzang/shuttle-analytics/internal/analysis/arrival"
	_ "github.com/jengzang/shuttle-analytics/internal/analysis/dwell"
	_ "github.com/jengzang/shuttle-analytics/internal/analysis/headway"
	_ "github.com/jengzang/shuttle-analytics/internal/analysis/holdover"
	_ "github.com/jengzang/shuttle-analytics/internal/analysis/pipeline"
	_ "github.com/jengzang/shuttle-analytics/internal/analysis/ridership"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 参考表
	tables, err := loadReference(cfg.ReferencePath)
	if err != nil {
		logging.LogError(logger, "failed to load reference tables", err)
		os.Exit(1)
	}
	logger.Info("reference_loaded",
		slog.String("version", tables.Version),
		slog.Int("scheduled_routes", len(tables.Schedule)),
		slog.Int("holdovers", len(tables.Holdovers)))

	// 数据源
	var db *sql.DB
	if cfg.StopEventsSource == "sql" {
		db, err = database.Open(ctx, database.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
		if err != nil {
			logging.LogError(logger, "failed to open database", err, slog.String("driver", cfg.DBDriver))
			os.Exit(1)
		}
		defer db.Close()
	}
	stopSource, loadSource := service.NewSources(cfg, db)

	mcol := metrics.NewCollector()
	env := &analysis.Env{Reference: tables, Options: cfg.Analysis, Logger: logger}
	svc := service.NewDatasetService(
		stopSource,
		loadSource,
		loader.New(loader.Typer{SourceLocation: cfg.SourceLocation, AnalysisLocation: cfg.AnalysisLocation}),
		env,
		service.Options{CacheSize: cfg.CacheSize, CacheTTL: cfg.CacheTTL, Metrics: mcol},
	)

	// Missing sources are reported per view; the server still starts
	if _, err := svc.StopEvents(ctx); err != nil {
		logging.LogError(logger, "initial stop-events load failed", err)
	}

	// 初始化路由
	router := api.SetupRouter(cfg, logger, svc, mcol)
	srv := &http.Server{Addr: cfg.Port, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.LogError(logger, "shutdown failed", err)
		}
	}()

	// 启动服务器
	logger.Info("server_starting", slog.String("addr", cfg.Port), slog.Any("views", analysis.Names()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.LogError(logger, "server failed", err)
		os.Exit(1)
	}
}

func loadReference(path string) (*reference.Tables, error) {
	if path == "" {
		return reference.Default()
	}
	return reference.Load(path)
}
