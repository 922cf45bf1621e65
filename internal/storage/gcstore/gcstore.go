// Пакет gcstore — бэкенд хранилища документов в Google Cloud Storage.
// Объекты кладутся под общий префикс, согласованный с областью импорта
// коннектора индексации: документы вне префикса в индекс не попадают.
package gcstore

import (
	"context"
	"fmt"
	"io"
	"path"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Store — бэкенд Google Cloud Storage.
type Store struct {
	client *gcs.Client
	bucket string
	// prefix — корневой префикс объектов (DG_GCS_PREFIX)
	prefix string
}

// New создаёт бэкенд GCS. Учётные данные берутся из окружения
// (Application Default Credentials).
func New(ctx context.Context, bucket, prefix string) (*Store, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента GCS: %w", err)
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}, nil
}

// Save записывает содержимое документа в bucket.
// Имя объекта: {prefix}/{request_id}/{filename}.
// Возвращает storage_uri вида gs://{bucket}/{object}.
func (s *Store) Save(ctx context.Context, r io.Reader, filename, contentType, requestID string) (string, error) {
	// path.Base отсекает попытки выхода из префикса через имя файла
	object := path.Join(s.prefix, requestID, path.Base(filename))

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("ошибка записи объекта %s: %w", object, err)
	}
	// Запись фиксируется только при Close
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("ошибка завершения записи объекта %s: %w", object, err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}

// Kind возвращает имя бэкенда.
func (s *Store) Kind() string {
	return "gcs"
}

// Location возвращает адрес корня хранилища.
func (s *Store) Location() string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, s.prefix)
}

// Probe выполняет сквозную проверку bucket: запись служебного
// объекта, чтение с проверкой содержимого и удаление.
func (s *Store) Probe(ctx context.Context) error {
	object := path.Join(s.prefix, "_smoke", uuid.New().String()+".txt")
	payload := []byte("doc-gateway smoke test")
	handle := s.client.Bucket(s.bucket).Object(object)

	// Запись
	w := handle.NewWriter(ctx)
	w.ContentType = "text/plain"
	if _, err := w.Write(payload); err != nil {
		w.Close()
		return fmt.Errorf("ошибка записи служебного объекта: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("ошибка завершения записи служебного объекта: %w", err)
	}

	// Чтение
	rd, err := handle.NewReader(ctx)
	if err != nil {
		return fmt.Errorf("ошибка чтения служебного объекта: %w", err)
	}
	got, err := io.ReadAll(rd)
	rd.Close()
	if err != nil {
		return fmt.Errorf("ошибка чтения содержимого служебного объекта: %w", err)
	}
	if string(got) != string(payload) {
		return fmt.Errorf("содержимое служебного объекта не совпадает с записанным")
	}

	// Удаление
	if err := handle.Delete(ctx); err != nil {
		return fmt.Errorf("ошибка удаления служебного объекта: %w", err)
	}
	return nil
}

// Close освобождает ресурсы клиента GCS.
func (s *Store) Close() error {
	return s.client.Close()
}
