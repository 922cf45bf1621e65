// audit.go — сервис журнала аудита.
//
// Журнал append-only и рассматривается как обязательное условие
// успеха операции: если запись аудита не зафиксирована, операция
// не считается успешной, даже когда её побочные эффекты уже
// произошли. Для ветки ошибок действует обратное правило — сбой
// журнала логируется, но исходная ошибка операции не подменяется.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smeops/opscenter/doc-gateway/internal/domain/model"
	"github.com/smeops/opscenter/doc-gateway/internal/repository"
)

// AuditService — запись событий в журнал аудита.
type AuditService struct {
	repo   repository.AuditRepository
	logger *slog.Logger
}

// NewAuditService создаёт сервис журнала аудита.
func NewAuditService(repo repository.AuditRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger.With(slog.String("component", "audit_service")),
	}
}

// Append записывает событие аудита. Ошибка записи фатальна для
// вызывающей операции (ветка успеха).
func (s *AuditService) Append(ctx context.Context, e *model.AuditEvent) error {
	if err := s.repo.Append(ctx, e); err != nil {
		s.logger.Error("Ошибка записи события аудита",
			slog.String("module", string(e.Module)),
			slog.String("request_id", e.RequestID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %v", ErrAuditUnavailable, err)
	}
	return nil
}

// AppendBestEffort записывает событие аудита на ветке ошибки.
// Сбой записи логируется и не возвращается: исходная ошибка
// операции важнее.
func (s *AuditService) AppendBestEffort(ctx context.Context, e *model.AuditEvent) {
	if err := s.repo.Append(ctx, e); err != nil {
		s.logger.Error("Ошибка записи события аудита (ветка ошибки)",
			slog.String("module", string(e.Module)),
			slog.String("request_id", e.RequestID),
			slog.String("error", err.Error()),
		)
	}
}

// failureEvent собирает событие аудита для неуспешной операции.
func failureEvent(module model.AuditModule, requestID string, opErr error) *model.AuditEvent {
	msg := opErr.Error()
	return &model.AuditEvent{
		Module:    module,
		RequestID: requestID,
		Status:    model.AuditFailure,
		Error:     &msg,
	}
}
