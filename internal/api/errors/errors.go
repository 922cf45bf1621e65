// Пакет errors — конструкторы стандартных ошибок Doc Gateway.
// Единый формат: {"request_id": "...", "error": "...", "detail": "..."}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors

import (
	"encoding/json"
	"net/http"
)

// Машиночитаемые коды ошибок.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeAuditUnavailable   = "AUDIT_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// requestID — корреляционный идентификатор (пустая строка допустима),
// code — машиночитаемый код, detail — человекочитаемое описание.
// Идентификатор дублируется в заголовке X-Request-Id, чтобы попадать
// в журнал HTTP-запросов.
func WriteError(w http.ResponseWriter, statusCode int, requestID, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		RequestID: requestID,
		Error:     code,
		Detail:    detail,
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, requestID, detail string) {
	WriteError(w, http.StatusBadRequest, requestID, CodeValidationError, detail)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, requestID, detail string) {
	WriteError(w, http.StatusNotFound, requestID, CodeNotFound, detail)
}

// StorageUnavailable — 502 хранилище документов недоступно.
func StorageUnavailable(w http.ResponseWriter, requestID, detail string) {
	WriteError(w, http.StatusBadGateway, requestID, CodeStorageUnavailable, detail)
}

// AuditUnavailable — 503 журнал аудита недоступен.
func AuditUnavailable(w http.ResponseWriter, requestID, detail string) {
	WriteError(w, http.StatusServiceUnavailable, requestID, CodeAuditUnavailable, detail)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, requestID, detail string) {
	WriteError(w, http.StatusInternalServerError, requestID, CodeInternalError, detail)
}
