// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrAuditUnavailable — журнал аудита недоступен. Операции не
	// считаются успешными, пока запись аудита не зафиксирована.
	ErrAuditUnavailable = errors.New("журнал аудита недоступен")
)

// OperationError связывает ошибку операции с её корреляционным
// идентификатором. request_id попадает в тело ответа об ошибке и
// позволяет найти соответствующее событие аудита.
type OperationError struct {
	RequestID string
	Err       error
}

func (e *OperationError) Error() string { return e.Err.Error() }

func (e *OperationError) Unwrap() error { return e.Err }

// operationError оборачивает ошибку операции её корреляционным
// идентификатором.
func operationError(requestID string, err error) error {
	return &OperationError{RequestID: requestID, Err: err}
}
