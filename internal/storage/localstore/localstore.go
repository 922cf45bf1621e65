// Пакет localstore — локальный дисковый бэкенд хранилища документов.
// Содержимое пишется через temp файл с fsync и атомарным rename,
// имя файла на диске — request_id с сохранением расширения.
package localstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// uriPrefix — логический префикс storage_uri локального бэкенда.
// Не зависит от фактической директории на диске.
const uriPrefix = "uploads/"

// Store — локальный дисковый бэкенд.
type Store struct {
	// dir — директория хранения файлов (DG_UPLOADS_DIR)
	dir string
}

// New создаёт локальный бэкенд. Создаёт директорию, если её нет.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию загрузок %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Save записывает содержимое документа на диск.
// Имя файла на диске: {request_id}{ext}, где ext — расширение
// оригинального имени. Возвращает storage_uri вида uploads/{request_id}{ext}.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется.
func (s *Store) Save(ctx context.Context, r io.Reader, filename, contentType, requestID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	storageName := requestID + filepath.Ext(filename)
	fullPath := filepath.Join(s.dir, storageName)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return uriPrefix + storageName, nil
}

// Kind возвращает имя бэкенда.
func (s *Store) Kind() string {
	return "local"
}

// Location возвращает директорию хранения.
func (s *Store) Location() string {
	return s.dir
}

// Probe проверяет, что директория доступна для записи:
// создаёт и удаляет служебный файл.
func (s *Store) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	probePath := filepath.Join(s.dir, ".probe")
	if err := os.WriteFile(probePath, []byte("ok"), 0o640); err != nil {
		return fmt.Errorf("директория загрузок недоступна для записи: %w", err)
	}
	if err := os.Remove(probePath); err != nil {
		return fmt.Errorf("не удалось удалить служебный файл: %w", err)
	}
	return nil
}
