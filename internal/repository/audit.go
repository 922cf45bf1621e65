package repository

import (
	"context"
	"fmt"

	"github.com/smeops/opscenter/doc-gateway/internal/domain/model"
)

// AuditRepository — интерфейс доступа к журналу аудита.
// Журнал append-only: операций обновления и удаления нет.
type AuditRepository interface {
	// Append добавляет запись аудита. ID и TS назначает БД.
	Append(ctx context.Context, e *model.AuditEvent) error
	// ListByRequestID возвращает записи с данным request_id
	// в порядке создания.
	ListByRequestID(ctx context.Context, requestID string) ([]*model.AuditEvent, error)
}

// auditRepo — реализация AuditRepository.
type auditRepo struct {
	db DBTX
}

// NewAuditRepository создаёт репозиторий журнала аудита.
func NewAuditRepository(db DBTX) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Append(ctx context.Context, e *model.AuditEvent) error {
	query := `
		INSERT INTO audit_event (module, user_id, session_id, request_id, prompt_hash,
			sources_json, tool_calls_json, decision_json, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, ts`

	err := r.db.QueryRow(ctx, query,
		string(e.Module), e.UserID, e.SessionID, e.RequestID, e.PromptHash,
		e.SourcesJSON, e.ToolCallsJSON, e.DecisionJSON, string(e.Status), e.Error,
	).Scan(&e.ID, &e.TS)
	if err != nil {
		return fmt.Errorf("ошибка записи события аудита: %w", err)
	}
	return nil
}

func (r *auditRepo) ListByRequestID(ctx context.Context, requestID string) ([]*model.AuditEvent, error) {
	query := `
		SELECT id, ts, module, user_id, session_id, request_id, prompt_hash,
			sources_json, tool_calls_json, decision_json, status, error
		FROM audit_event
		WHERE request_id = $1
		ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения событий аудита: %w", err)
	}
	defer rows.Close()

	var result []*model.AuditEvent
	for rows.Next() {
		e := &model.AuditEvent{}
		var module, status string
		if err := rows.Scan(
			&e.ID, &e.TS, &module, &e.UserID, &e.SessionID, &e.RequestID, &e.PromptHash,
			&e.SourcesJSON, &e.ToolCallsJSON, &e.DecisionJSON, &status, &e.Error,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования события аудита: %w", err)
		}
		e.Module = model.AuditModule(module)
		e.Status = model.AuditStatus(status)
		result = append(result, e)
	}
	return result, rows.Err()
}
