// Пакет storage — абстракция хранилища документов.
// Бэкенд (локальный диск или GCS) выбирается один раз на старте
// процесса по конфигурации; обработчики работают только с интерфейсом.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/smeops/opscenter/doc-gateway/internal/config"
	"github.com/smeops/opscenter/doc-gateway/internal/storage/gcstore"
	"github.com/smeops/opscenter/doc-gateway/internal/storage/localstore"
)

// Backend — хранилище содержимого документов.
type Backend interface {
	// Save записывает содержимое документа и возвращает storage_uri.
	// Схема адреса зависит от бэкенда: uploads/... или gs://...
	Save(ctx context.Context, r io.Reader, filename, contentType, requestID string) (string, error)
	// Kind возвращает имя бэкенда (local, gcs).
	Kind() string
	// Location возвращает человекочитаемое расположение хранилища
	// (директория или gs://bucket/prefix).
	Location() string
	// Probe выполняет сквозную проверку хранилища: запись, чтение
	// и удаление служебного объекта.
	Probe(ctx context.Context) error
}

// New создаёт бэкенд хранилища по конфигурации.
func New(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendLocal:
		return localstore.New(cfg.UploadsDir)
	case config.BackendGCS:
		return gcstore.New(ctx, cfg.GCSBucket, cfg.GCSPrefix)
	default:
		return nil, fmt.Errorf("неизвестный бэкенд хранилища: %q", cfg.StorageBackend)
	}
}
