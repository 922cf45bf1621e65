// handler.go — основной обработчик API Doc Gateway.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/smeops/opscenter/doc-gateway/internal/api/errors"
	"github.com/smeops/opscenter/doc-gateway/internal/service"
	"github.com/smeops/opscenter/doc-gateway/internal/storage"
)

// APIHandler — основной обработчик API Doc Gateway.
type APIHandler struct {
	health   *HealthHandler
	docs     *service.DocumentService
	indexing *service.IndexingService
	query    *service.QueryService
	backend  storage.Backend
	logger   *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	docs *service.DocumentService,
	indexing *service.IndexingService,
	query *service.QueryService,
	backend storage.Backend,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:   health,
		docs:     docs,
		indexing: indexing,
		query:    query,
		backend:  backend,
		logger:   logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError отображает ошибку сервисного слоя на HTTP-ответ.
// Корреляционный идентификатор операции извлекается из ошибки и
// попадает в тело ответа: по нему находится событие аудита отказа.
func writeServiceError(w http.ResponseWriter, err error) {
	var requestID string
	var opErr *service.OperationError
	if errors.As(err, &opErr) {
		requestID = opErr.RequestID
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, requestID, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, requestID, err.Error())
	case errors.Is(err, service.ErrAuditUnavailable):
		apierrors.AuditUnavailable(w, requestID, err.Error())
	default:
		apierrors.InternalError(w, requestID, err.Error())
	}
}
