// Точка входа Doc Gateway — шлюз приёма документов SME Ops-Center.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// инициализирует бэкенд хранилища и коннектор индексации, создаёт
// сервисный слой и API handlers, запускает topologymetrics и
// HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/smeops/opscenter/doc-gateway/internal/api/handlers"
	"github.com/smeops/opscenter/doc-gateway/internal/config"
	"github.com/smeops/opscenter/doc-gateway/internal/database"
	"github.com/smeops/opscenter/doc-gateway/internal/indexer"
	"github.com/smeops/opscenter/doc-gateway/internal/repository"
	"github.com/smeops/opscenter/doc-gateway/internal/server"
	"github.com/smeops/opscenter/doc-gateway/internal/service"
	"github.com/smeops/opscenter/doc-gateway/internal/storage"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Doc Gateway запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("storage_backend", cfg.StorageBackend),
	)

	if !cfg.IndexerConfigured() {
		logger.Warn("Коннектор индексации не настроен, импорт документов будет завершаться ошибкой")
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL будет идти через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Бэкенд хранилища документов (local или gcs)
	backend, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Хранилище документов инициализировано",
		slog.String("backend", backend.Kind()),
		slog.String("location", backend.Location()),
	)

	// 6. Клиент коннектора индексации
	connector := indexer.New(cfg.IndexerURL, cfg.IndexerDataStore, cfg.IndexerTimeout, logger)

	// 7. Repositories
	docRepo := repository.NewDocumentRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	// 8. Services
	auditSvc := service.NewAuditService(auditRepo, logger)
	indexingSvc := service.NewIndexingService(docRepo, connector, auditSvc, logger)
	docsSvc := service.NewDocumentService(docRepo, backend, indexingSvc, auditSvc, logger)
	querySvc := service.NewQueryService(auditSvc, logger)

	// 9. Readiness checker (PostgreSQL)
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker)

	// 10. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		docsSvc,
		indexingSvc,
		querySvc,
		backend,
		logger,
	)

	// 11. topologymetrics — мониторинг зависимостей (PostgreSQL + коннектор)
	var dephealthSvc *service.DephealthService
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"doc-gateway",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.IndexerURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 12. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 13. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Doc Gateway остановлен")
}
