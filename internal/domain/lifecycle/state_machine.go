// Пакет lifecycle — конечный автомат статусов индексации документа.
//
// Единственный жизненный цикл: pending → indexing → {ready, failed}.
// Документ с локальным storage_uri остаётся pending навсегда —
// достижимых переходов для него не инициирует ни одна операция.
//
// Автомат статичен (матрица переходов), состояние хранится в самой
// записи doc_asset; валидатор применяется при каждом update_status.
package lifecycle

import (
	"fmt"

	"github.com/smeops/opscenter/doc-gateway/internal/domain/model"
)

// validTransitions — матрица допустимых переходов.
// Ключ — текущий статус, значение — набор допустимых целевых статусов.
var validTransitions = map[model.IndexedStatus]map[model.IndexedStatus]bool{
	model.StatusPending:  {model.StatusIndexing: true},
	model.StatusIndexing: {model.StatusReady: true, model.StatusFailed: true},
	model.StatusReady:    {}, // Конечный статус
	model.StatusFailed:   {}, // Повторная индексация — решение вызывающего, не автомата
}

// CanTransition проверяет, допустим ли переход from → to.
func CanTransition(from, to model.IndexedStatus) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Validate возвращает nil, если переход from → to допустим,
// иначе — *TransitionError с кодом INVALID_TRANSITION.
func Validate(from, to model.IndexedStatus) error {
	if !isValidStatus(to) {
		return &TransitionError{
			Code:    "INVALID_TRANSITION",
			Message: fmt.Sprintf("недопустимый целевой статус: %q", to),
		}
	}
	if !CanTransition(from, to) {
		return &TransitionError{
			Code:    "INVALID_TRANSITION",
			Message: fmt.Sprintf("переход %s → %s недопустим", from, to),
		}
	}
	return nil
}

// TransitionError — ошибка недопустимого перехода статуса.
type TransitionError struct {
	Code    string // Машиночитаемый код (INVALID_TRANSITION)
	Message string // Человекочитаемое описание
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// isValidStatus проверяет, является ли значение допустимым статусом.
func isValidStatus(s model.IndexedStatus) bool {
	switch s {
	case model.StatusPending, model.StatusIndexing, model.StatusReady, model.StatusFailed:
		return true
	default:
		return false
	}
}

// ParseStatus преобразует строку в IndexedStatus.
// Возвращает ошибку для недопустимых значений.
func ParseStatus(s string) (model.IndexedStatus, error) {
	st := model.IndexedStatus(s)
	if !isValidStatus(st) {
		return "", fmt.Errorf("недопустимый статус: %q, допустимые: pending, indexing, ready, failed", s)
	}
	return st, nil
}
