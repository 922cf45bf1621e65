// documents.go — сервис приёма документов.
// Оркестрация загрузки: сохранение содержимого в хранилище,
// регистрация в реестре, предупреждение о дубликате имени,
// запись события аудита.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/smeops/opscenter/doc-gateway/internal/domain/model"
	"github.com/smeops/opscenter/doc-gateway/internal/repository"
	"github.com/smeops/opscenter/doc-gateway/internal/storage"
)

// IngestResult — результат приёма документа.
type IngestResult struct {
	// RequestID — корреляционный идентификатор операции
	RequestID string
	// Doc — созданная запись документа
	Doc *model.DocumentAsset
	// DuplicateWarning — предупреждение, если активный документ с таким
	// именем уже существует. Загрузка при этом НЕ отклоняется.
	DuplicateWarning *string
}

// StatusResult — результат запроса статусов документов.
type StatusResult struct {
	// RequestID — корреляционный идентификатор операции
	RequestID string
	// Docs — активные документы
	Docs []*model.DocumentAsset
}

// DocumentService — приём документов и просмотр статусов.
type DocumentService struct {
	docRepo  repository.DocumentRepository
	backend  storage.Backend
	indexing *IndexingService
	audit    *AuditService
	logger   *slog.Logger
}

// NewDocumentService создаёт сервис приёма документов.
// indexing может быть nil — тогда индексация при загрузке не запускается
// и документы в объектном хранилище ждут пакетного запуска.
func NewDocumentService(
	docRepo repository.DocumentRepository,
	backend storage.Backend,
	indexing *IndexingService,
	audit *AuditService,
	logger *slog.Logger,
) *DocumentService {
	return &DocumentService{
		docRepo:  docRepo,
		backend:  backend,
		indexing: indexing,
		audit:    audit,
		logger:   logger.With(slog.String("component", "document_service")),
	}
}

// Ingest принимает документ: сохраняет содержимое в хранилище,
// создаёт запись в реестре (статус pending) и фиксирует событие
// аудита. Повторное имя файла допустимо и даёт только предупреждение.
//
// Операция успешна лишь после записи аудита: сбой журнала на этом
// шаге возвращается как ошибка, хотя содержимое уже сохранено.
func (s *DocumentService) Ingest(ctx context.Context, r io.Reader, filename, contentType string) (*IngestResult, error) {
	requestID := uuid.New().String()

	if filename == "" {
		err := fmt.Errorf("%w: имя файла не задано", ErrValidation)
		s.audit.AppendBestEffort(ctx, failureEvent(model.ModuleDocs, requestID, err))
		return nil, operationError(requestID, err)
	}

	// Проверка дубликата по имени — до создания новой записи,
	// чтобы предупреждение ссылалось на существующий документ
	var dupWarning *string
	existing, err := s.docRepo.FindByFilename(ctx, filename)
	switch {
	case err == nil:
		msg := fmt.Sprintf("документ с именем %q уже загружен ранее (doc_id=%d)", filename, existing.ID)
		dupWarning = &msg
	case errors.Is(err, repository.ErrNotFound):
		// Дубликата нет
	default:
		wrapped := fmt.Errorf("проверка дубликата: %w", err)
		s.audit.AppendBestEffort(ctx, failureEvent(model.ModuleDocs, requestID, wrapped))
		return nil, operationError(requestID, wrapped)
	}

	// Сохраняем содержимое в хранилище
	storageURI, err := s.backend.Save(ctx, r, filename, contentType, requestID)
	if err != nil {
		wrapped := fmt.Errorf("сохранение содержимого: %w", err)
		s.audit.AppendBestEffort(ctx, failureEvent(model.ModuleDocs, requestID, wrapped))
		return nil, operationError(requestID, wrapped)
	}

	// Регистрируем документ в реестре
	doc := &model.DocumentAsset{
		Filename:      filename,
		StorageURI:    storageURI,
		IndexedStatus: model.StatusPending,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		wrapped := fmt.Errorf("регистрация документа: %w", err)
		s.audit.AppendBestEffort(ctx, failureEvent(model.ModuleDocs, requestID, wrapped))
		return nil, operationError(requestID, wrapped)
	}

	// Документ в объектном хранилище сразу проводится через индексацию.
	// Отказ коннектора, включая ненастроенный коннектор, поглощается
	// статусом документа (failed) и не отменяет успех самой загрузки.
	if doc.AsyncIndexable() && s.indexing != nil {
		s.indexing.importOne(ctx, doc)
	}

	// Запись аудита — обязательное условие успеха
	if err := s.audit.Append(ctx, &model.AuditEvent{
		Module:    model.ModuleDocs,
		RequestID: requestID,
		SourcesJSON: map[string]any{
			"filename": filename,
			"doc_id":   doc.ID,
		},
		Status: model.AuditSuccess,
	}); err != nil {
		return nil, operationError(requestID, err)
	}

	s.logger.Info("Документ принят",
		slog.String("request_id", requestID),
		slog.Int64("doc_id", doc.ID),
		slog.String("filename", filename),
		slog.String("storage_uri", storageURI),
		slog.Bool("duplicate", dupWarning != nil),
	)

	return &IngestResult{
		RequestID:        requestID,
		Doc:              doc,
		DuplicateWarning: dupWarning,
	}, nil
}

// ListStatus возвращает активные документы (новые первыми).
// Soft-deleted записи исключены на уровне репозитория. Просмотр
// статусов — наблюдаемая операция и фиксируется в журнале аудита.
func (s *DocumentService) ListStatus(ctx context.Context) (*StatusResult, error) {
	requestID := uuid.New().String()

	docs, err := s.docRepo.ListActive(ctx)
	if err != nil {
		wrapped := fmt.Errorf("получение списка документов: %w", err)
		s.audit.AppendBestEffort(ctx, failureEvent(model.ModuleDocs, requestID, wrapped))
		return nil, operationError(requestID, wrapped)
	}

	if err := s.audit.Append(ctx, &model.AuditEvent{
		Module:    model.ModuleDocs,
		RequestID: requestID,
		SourcesJSON: map[string]any{
			"doc_count": len(docs),
		},
		Status: model.AuditSuccess,
	}); err != nil {
		return nil, operationError(requestID, err)
	}

	return &StatusResult{RequestID: requestID, Docs: docs}, nil
}

// Delete помечает документ удалённым (soft delete). Запись в БД и
// содержимое в хранилище сохраняются, документ исчезает из выборок.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	if err := s.docRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: документ %d не найден", ErrNotFound, id)
		}
		return fmt.Errorf("удаление документа: %w", err)
	}

	s.logger.Info("Документ помечен удалённым", slog.Int64("doc_id", id))
	return nil
}
