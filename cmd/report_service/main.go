package main

import (
	"context"
	"fmt"
	"log"

	"github.com/sirupsen/logrus"

	"SalesReport/internal/config"
	"SalesReport/internal/discovery/etcd"
	"SalesReport/internal/kintone"
	"SalesReport/internal/llm"
	"SalesReport/internal/normalizer"
	"SalesReport/internal/report_service/api"
	"SalesReport/internal/report_service/service"
	"SalesReport/internal/storage"
	"SalesReport/pkg/logger"
)

const ServiceName = "report_service"

func main() {
	// 1. 加载配置（启动时构造一次，之后只读）
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// 2. 初始化 Logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New(ServiceName, "")
	appLogger.Info("Logger initialized")

	// 3. 选定抽取 Schema
	schema, err := config.SchemaByName(cfg.Schema)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to select extraction schema: %v", err))
	}
	appLogger.Info(fmt.Sprintf("Extraction schema selected: %s", schema.Name))

	ctx := context.Background()

	// 4. 初始化抽取宿主客户端 (Gemini)
	extractor, err := llm.NewExtractor(ctx, cfg.Gemini, schema)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to create extractor: %v", err))
	}

	// 5. 初始化 kintone 客户端与可选的 MinIO 归档
	store := kintone.NewClient(cfg.Kintone)
	var archiver normalizer.Archiver
	if cfg.Storage.MinIO.Enabled {
		a, err := storage.NewArchiver(ctx, cfg.Storage.MinIO)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to create archiver: %v", err))
		}
		archiver = a
		appLogger.Info("MinIO archiver initialized")
	}
	norm := normalizer.New(cfg.Storage.SaveDir, archiver)

	// 6. 初始化服务核心逻辑与 HTTP handler
	reportSvc := service.NewReportService(cfg, schema, extractor, store, norm)
	handler := api.NewHandler(reportSvc, api.OptionsResponse{
		Schema:             schema.Name,
		ActivityCategories: cfg.ActivityCategories,
		Staff:              cfg.StaffNames(),
	})
	appLogger.Info("Service core and HTTP handler initialized")

	// 7. 可选：注册到 etcd 服务发现
	if cfg.Discovery.Enabled {
		registrar, err := etcd.NewRegistrar(cfg.Discovery.Endpoints)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to create service registrar: %v", err))
		}
		stopChan, err := registrar.Register(ctx, ServiceName, cfg.Server.Address, 10) // 10秒 TTL
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to register service: %v", err))
		}
		defer close(stopChan) // 确保程序退出时停止心跳
		appLogger.Info(fmt.Sprintf("Service '%s' registered at '%s'", ServiceName, cfg.Server.Address))
	}

	// 8. 启动 HTTP 服务器
	router := api.SetupRouter(handler)
	appLogger.Info("Starting HTTP server on " + cfg.Server.Address)
	if err := router.Run(cfg.Server.Address); err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to start HTTP server: %v", err))
	}
}
