package model

import "time"

// AuditModule — функциональная область, породившая событие аудита.
type AuditModule string

const (
	// ModuleDocs — загрузка документов и просмотр статусов
	ModuleDocs AuditModule = "docs"
	// ModuleIndexing — запуск индексации (одиночный и пакетный)
	ModuleIndexing AuditModule = "indexing"
	// ModuleQuery — поисковые запросы по документам
	ModuleQuery AuditModule = "query"
	// ModuleSystem — системные операции
	ModuleSystem AuditModule = "system"
)

// AuditStatus — исход операции в журнале аудита.
type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditFailure AuditStatus = "failure"
	AuditPending AuditStatus = "pending"
)

// AuditEvent — неизменяемая запись об одной попытке операции.
// Хранится в таблице audit_event, append-only: операций обновления
// и удаления не существует.
type AuditEvent struct {
	// ID — первичный ключ (bigserial), порядок создания
	ID int64
	// TS — время записи, устанавливается БД
	TS time.Time
	// Module — функциональная область
	Module AuditModule
	// UserID, SessionID — зарезервированы для будущей интеграции auth
	UserID    *string
	SessionID *string
	// RequestID — корреляционный идентификатор внешнего запроса (обязателен)
	RequestID string
	// PromptHash — усечённый односторонний дайджест текста запроса.
	// Сырой текст никогда не сохраняется.
	PromptHash *string
	// SourcesJSON, ToolCallsJSON, DecisionJSON — структурный контекст операции
	SourcesJSON   map[string]any
	ToolCallsJSON map[string]any
	DecisionJSON  map[string]any
	// Status — исход операции
	Status AuditStatus
	// Error — сообщение об ошибке, заполняется только при status=failure
	Error *string
}
