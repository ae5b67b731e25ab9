package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/yundist/order-approval/internal/application/service"
	"github.com/yundist/order-approval/internal/config"
	"github.com/yundist/order-approval/internal/domain/expr"
	"github.com/yundist/order-approval/internal/infrastructure/export"
	"github.com/yundist/order-approval/internal/infrastructure/persistence/repository"
	"github.com/yundist/order-approval/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/yundist/order-approval/internal/interfaces/http"
	"github.com/yundist/order-approval/pkg/database"
	"github.com/yundist/order-approval/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// .env overrides before config loading so env bindings see them
	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	txManager := sqlite.NewDB(db.DB, logger)
	processRepo := repository.NewProcessRepository(db.DB, logger)
	instanceRepo := repository.NewInstanceRepository(db.DB, logger)
	taskRepo := repository.NewTaskRepository(db.DB, logger)
	auditRepo := repository.NewAuditLogRepository(db.DB, logger)
	orderRepo := repository.NewOrderRepository(db.DB, logger)
	customerRepo := repository.NewCustomerRepository(db.DB, logger)

	// Application services
	kvLogger := utils.NewKVLogger(logger)
	evaluator := expr.NewEvaluator(logger)
	pathResolver := service.NewPathResolver(processRepo, evaluator, kvLogger)
	assignees := service.NewAssigneeResolver(customerRepo, kvLogger)
	mapping := service.StatusMapping{
		ByNodeKey: cfg.Approval.StatusMapping,
		Approved:  cfg.Approval.ApprovedStatus,
		Rejected:  cfg.Approval.RejectedStatus,
		Locked:    cfg.Approval.LockedStatuses,
	}

	approvalService := service.NewApprovalService(
		processRepo, instanceRepo, taskRepo, auditRepo, orderRepo,
		pathResolver, assignees, txManager, mapping,
		cfg.Approval.ProcessCode, kvLogger,
	)
	actionService := service.NewActionService(
		instanceRepo, taskRepo, auditRepo, orderRepo,
		txManager, mapping, kvLogger,
	)
	exporter := export.NewTaskHistoryExporter(logger)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, approvalService, actionService, exporter, kvLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting order approval service",
		zap.String("address", server.Address()),
		zap.String("process_code", cfg.Approval.ProcessCode))

	return server.Start(ctx)
}
