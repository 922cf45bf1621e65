// indexing.go — сервис запуска поисковой индексации.
//
// Индексация работает только с документами в объектном хранилище:
// отбор по статусу pending и storage_uri с префиксом gs://. Каждый
// документ проводится по жизненному циклу pending → indexing →
// {ready, failed}; частичный отказ пакета не прерывает остальные
// импорты.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/smeops/opscenter/doc-gateway/internal/domain/model"
	"github.com/smeops/opscenter/doc-gateway/internal/indexer"
	"github.com/smeops/opscenter/doc-gateway/internal/repository"
)

// TriggerDetail — исход импорта одного документа.
type TriggerDetail struct {
	DocID    int64
	Filename string
	// Status — итоговый статус документа (ready или failed)
	Status model.IndexedStatus
	// Error — причина отказа, только при Status=failed
	Error *string
}

// TriggerResult — агрегированный результат запуска индексации.
type TriggerResult struct {
	// RequestID — корреляционный идентификатор операции
	RequestID string
	// Triggered — количество документов, для которых запущен импорт
	Triggered int
	// Succeeded, Failed — исходы импортов (Triggered = Succeeded + Failed)
	Succeeded int
	Failed    int
	// Details — поимённые исходы
	Details []TriggerDetail
}

// IndexingService — запуск индексации документов.
type IndexingService struct {
	docRepo   repository.DocumentRepository
	connector indexer.Connector
	audit     *AuditService
	logger    *slog.Logger
}

// NewIndexingService создаёт сервис индексации.
func NewIndexingService(
	docRepo repository.DocumentRepository,
	connector indexer.Connector,
	audit *AuditService,
	logger *slog.Logger,
) *IndexingService {
	return &IndexingService{
		docRepo:   docRepo,
		connector: connector,
		audit:     audit,
		logger:    logger.With(slog.String("component", "indexing_service")),
	}
}

// Trigger запускает индексацию. При docID == nil обрабатываются все
// пригодные документы, иначе — только указанный.
//
// Пустой набор пригодных документов — не ошибка: фиксируется
// успешное событие аудита с doc_count = 0.
func (s *IndexingService) Trigger(ctx context.Context, docID *int64) (*TriggerResult, error) {
	requestID := uuid.New().String()

	// При адресном запуске документ обязан существовать
	if docID != nil {
		if _, err := s.docRepo.GetByID(ctx, *docID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				wrapped := fmt.Errorf("%w: документ %d не найден", ErrNotFound, *docID)
				s.audit.AppendBestEffort(ctx, failureEvent(model.ModuleIndexing, requestID, wrapped))
				return nil, operationError(requestID, wrapped)
			}
			return nil, operationError(requestID, fmt.Errorf("проверка документа: %w", err))
		}
	}

	eligible, err := s.docRepo.ListEligible(ctx, docID)
	if err != nil {
		wrapped := fmt.Errorf("выборка документов для индексации: %w", err)
		s.audit.AppendBestEffort(ctx, failureEvent(model.ModuleIndexing, requestID, wrapped))
		return nil, operationError(requestID, wrapped)
	}

	result := &TriggerResult{RequestID: requestID}
	for _, doc := range eligible {
		result.Triggered++
		detail := s.importOne(ctx, doc)
		if detail.Status == model.StatusReady {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Details = append(result.Details, detail)
	}

	// Одно событие аудита на операцию, независимо от размера пакета.
	// Частичный отказ — это отказ операции.
	event := &model.AuditEvent{
		Module:    model.ModuleIndexing,
		RequestID: requestID,
		SourcesJSON: map[string]any{
			"doc_count": result.Triggered,
		},
		DecisionJSON: map[string]any{
			"succeeded": result.Succeeded,
			"failed":    result.Failed,
		},
		Status: model.AuditSuccess,
	}
	if result.Failed > 0 {
		msg := fmt.Sprintf("%d из %d импортов завершились ошибкой", result.Failed, result.Triggered)
		event.Status = model.AuditFailure
		event.Error = &msg
	}
	if err := s.audit.Append(ctx, event); err != nil {
		return nil, operationError(requestID, err)
	}

	s.logger.Info("Индексация запущена",
		slog.String("request_id", requestID),
		slog.Int("triggered", result.Triggered),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
	)

	return result, nil
}

// importOne проводит один документ по жизненному циклу индексации.
// Отказ на любом шаге переводит документ в failed и попадает в
// детали результата, не прерывая остальной пакет.
func (s *IndexingService) importOne(ctx context.Context, doc *model.DocumentAsset) TriggerDetail {
	detail := TriggerDetail{DocID: doc.ID, Filename: doc.Filename}

	// pending → indexing
	if err := s.docRepo.UpdateStatus(ctx, doc, model.StatusIndexing, nil); err != nil {
		return s.markFailed(ctx, doc, detail, fmt.Errorf("переход в indexing: %w", err))
	}

	ref, err := s.connector.Submit(ctx, doc.StorageURI)
	if err != nil {
		return s.markFailed(ctx, doc, detail, fmt.Errorf("вызов коннектора: %w", err))
	}
	s.logger.Debug("Импорт принят коннектором",
		slog.Int64("doc_id", doc.ID),
		slog.String("datastore_ref", ref),
	)

	// indexing → ready; datastore_ref — адрес документа в хранилище,
	// по нему документ находится в data store поискового индекса
	if err := s.docRepo.UpdateStatus(ctx, doc, model.StatusReady, &doc.StorageURI); err != nil {
		return s.markFailed(ctx, doc, detail, fmt.Errorf("переход в ready: %w", err))
	}

	detail.Status = model.StatusReady
	return detail
}

// markFailed переводит документ в failed и заполняет деталь исхода.
func (s *IndexingService) markFailed(ctx context.Context, doc *model.DocumentAsset, detail TriggerDetail, cause error) TriggerDetail {
	msg := cause.Error()
	detail.Status = model.StatusFailed
	detail.Error = &msg

	s.logger.Warn("Импорт документа завершился ошибкой",
		slog.Int64("doc_id", doc.ID),
		slog.String("error", msg),
	)

	// Перевод в failed возможен только из indexing; если документ
	// не дошёл до indexing, статус остаётся прежним
	if doc.IndexedStatus == model.StatusIndexing {
		if err := s.docRepo.UpdateStatus(ctx, doc, model.StatusFailed, nil); err != nil {
			s.logger.Error("Не удалось перевести документ в failed",
				slog.Int64("doc_id", doc.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return detail
}
