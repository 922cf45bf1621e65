// query.go — сервис поисковых запросов по документам.
//
// Поисковая выдача пока не подключена: сервис возвращает
// фиксированный отказной ответ без цитат, но полностью фиксирует
// запрос в журнале аудита. Сырой текст вопроса не сохраняется —
// в журнал попадает только усечённый односторонний дайджест.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"

	"github.com/smeops/opscenter/doc-gateway/internal/domain/model"
)

// RefusalAnswer — фиксированный ответ при отсутствии данных в индексе.
const RefusalAnswer = "Information not found in internal records."

// promptHashLen — длина усечённого дайджеста текста запроса
// в hex-символах.
const promptHashLen = 16

// Citation — ссылка на документ-источник в ответе.
type Citation struct {
	DocID int64  `json:"doc_id"`
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// QueryResult — результат поискового запроса.
type QueryResult struct {
	// RequestID — корреляционный идентификатор операции
	RequestID string
	// Answer — текст ответа
	Answer string
	// Citations — источники ответа (пока всегда пусто)
	Citations []Citation
}

// QueryService — обработка поисковых запросов.
type QueryService struct {
	audit  *AuditService
	logger *slog.Logger
}

// NewQueryService создаёт сервис поисковых запросов.
func NewQueryService(audit *AuditService, logger *slog.Logger) *QueryService {
	return &QueryService{
		audit:  audit,
		logger: logger.With(slog.String("component", "query_service")),
	}
}

// Ask обрабатывает вопрос пользователя. Возвращает отказной ответ
// и фиксирует событие аудита; запись аудита — обязательное условие
// успеха. Пустой текст не отклоняется: ответ тот же отказной.
func (s *QueryService) Ask(ctx context.Context, question string) (*QueryResult, error) {
	requestID := uuid.New().String()

	hash := PromptHash(question)

	result := &QueryResult{
		RequestID: requestID,
		Answer:    RefusalAnswer,
		Citations: []Citation{},
	}

	if err := s.audit.Append(ctx, &model.AuditEvent{
		Module:     model.ModuleQuery,
		RequestID:  requestID,
		PromptHash: &hash,
		SourcesJSON: map[string]any{
			"citations_count": len(result.Citations),
		},
		Status: model.AuditSuccess,
	}); err != nil {
		return nil, operationError(requestID, err)
	}

	s.logger.Info("Поисковый запрос обработан",
		slog.String("request_id", requestID),
		slog.String("prompt_hash", hash),
	)

	return result, nil
}

// PromptHash возвращает усечённый SHA-256 дайджест текста запроса.
// Детерминирован: один и тот же текст всегда даёт один дайджест.
func PromptHash(question string) string {
	sum := sha256.Sum256([]byte(question))
	return hex.EncodeToString(sum[:])[:promptHashLen]
}
