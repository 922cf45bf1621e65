// Пакет config — загрузка и валидация конфигурации Doc Gateway
// из переменных окружения. Конфигурация собирается один раз на старте
// процесса и далее не изменяется — смена бэкенда хранилища или адреса
// коннектора индексации требует перезапуска.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Имена бэкендов хранилища.
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
)

// Config содержит все параметры конфигурации Doc Gateway.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 8000-8009)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Хранилище документов ---

	// Бэкенд хранилища: local или gcs
	StorageBackend string
	// Директория для локального бэкенда
	UploadsDir string
	// Имя bucket GCS (обязательно при StorageBackend=gcs)
	GCSBucket string
	// Префикс объектов в bucket. Согласован с областью импорта
	// коннектора индексации: импорт идёт по gs://<bucket>/<prefix>/
	GCSPrefix string

	// --- Коннектор индексации ---

	// URL сервиса индексации (пустая строка — коннектор не настроен)
	IndexerURL string
	// Идентификатор data store поискового индекса
	IndexerDataStore string
	// Таймаут одного вызова коннектора
	IndexerTimeout time.Duration

	// --- Мониторинг зависимостей ---

	// Имя группы в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// DG_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("DG_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("DG_PORT: %w", err)
	}
	if cfg.Port < 8000 || cfg.Port > 8009 {
		return nil, fmt.Errorf("DG_PORT: значение %d вне допустимого диапазона 8000-8009", cfg.Port)
	}

	// DG_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("DG_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("DG_LOG_LEVEL: %w", err)
	}

	// DG_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("DG_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DG_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// DG_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("DG_DB_HOST")
	if err != nil {
		return nil, err
	}

	// DG_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("DG_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("DG_DB_PORT: %w", err)
	}

	// DG_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("DG_DB_NAME")
	if err != nil {
		return nil, err
	}

	// DG_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("DG_DB_USER")
	if err != nil {
		return nil, err
	}

	// DG_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("DG_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// DG_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("DG_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("DG_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Хранилище документов ---

	// DG_STORAGE_BACKEND — бэкенд хранилища (по умолчанию local)
	cfg.StorageBackend = strings.ToLower(getEnvDefault("DG_STORAGE_BACKEND", BackendLocal))
	if cfg.StorageBackend != BackendLocal && cfg.StorageBackend != BackendGCS {
		return nil, fmt.Errorf("DG_STORAGE_BACKEND: недопустимое значение %q, допустимые: local, gcs", cfg.StorageBackend)
	}

	// DG_UPLOADS_DIR — директория локального бэкенда (по умолчанию ./uploads)
	cfg.UploadsDir = getEnvDefault("DG_UPLOADS_DIR", "uploads")

	// DG_GCS_BUCKET — обязательна только при бэкенде gcs
	cfg.GCSBucket = getEnvDefault("DG_GCS_BUCKET", "")
	if cfg.StorageBackend == BackendGCS && cfg.GCSBucket == "" {
		return nil, fmt.Errorf("DG_GCS_BUCKET: обязательна при DG_STORAGE_BACKEND=gcs")
	}

	// DG_GCS_PREFIX — префикс объектов (по умолчанию docs)
	cfg.GCSPrefix = strings.Trim(getEnvDefault("DG_GCS_PREFIX", "docs"), "/")

	// --- Коннектор индексации ---

	// DG_INDEXER_URL — опциональный. Пустое значение означает, что
	// коннектор не настроен: импорт любого документа завершается
	// описательной ошибкой, остальные операции работают в полном объёме.
	cfg.IndexerURL = strings.TrimRight(getEnvDefault("DG_INDEXER_URL", ""), "/")

	// DG_INDEXER_DATA_STORE — идентификатор data store (опциональный)
	cfg.IndexerDataStore = getEnvDefault("DG_INDEXER_DATA_STORE", "")

	// DG_INDEXER_TIMEOUT — таймаут вызова коннектора (по умолчанию 60s)
	cfg.IndexerTimeout, err = getEnvDuration("DG_INDEXER_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DG_INDEXER_TIMEOUT: %w", err)
	}

	// --- Мониторинг зависимостей ---

	// DG_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию opscenter)
	cfg.DephealthGroup = getEnvDefault("DG_DEPHEALTH_GROUP", "opscenter")

	// DG_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("DG_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DG_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// DG_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("DG_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DG_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL.
// Используется topologymetrics для лейблов метрик, не для подключения.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// MigrateURL возвращает URL подключения для golang-migrate
// (схема pgx5, с паролем).
func (c *Config) MigrateURL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IndexerConfigured сообщает, настроен ли коннектор индексации.
func (c *Config) IndexerConfigured() bool {
	return c.IndexerURL != "" && c.IndexerDataStore != ""
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
