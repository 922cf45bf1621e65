package model

import (
	"strings"
	"time"
)

// IndexedStatus — статус индексации документа.
type IndexedStatus string

const (
	// StatusPending — документ загружен, индексация не запускалась
	StatusPending IndexedStatus = "pending"
	// StatusIndexing — индексация запущена, ожидается результат коннектора
	StatusIndexing IndexedStatus = "indexing"
	// StatusReady — документ проиндексирован, datastore_ref установлен
	StatusReady IndexedStatus = "ready"
	// StatusFailed — индексация завершилась ошибкой
	StatusFailed IndexedStatus = "failed"
)

// GCSPrefix — схема адресов объектного хранилища.
// Документы с такими storage_uri пригодны для асинхронной индексации.
const GCSPrefix = "gs://"

// DocumentAsset — запись загруженного документа и его жизненного цикла.
// Хранится в таблице doc_asset.
type DocumentAsset struct {
	// ID — первичный ключ (bigserial), назначается при создании
	ID int64
	// Filename — оригинальное имя файла (уникальность НЕ требуется)
	Filename string
	// StorageURI — адрес в хранилище (uploads/... или gs://...), неизменяем
	StorageURI string
	// UploadedAt — время загрузки, устанавливается БД при создании
	UploadedAt time.Time
	// IndexedStatus — текущий статус индексации
	IndexedStatus IndexedStatus
	// DatastoreRef — ссылка на data store поискового индекса,
	// устанавливается только при успешной индексации
	DatastoreRef *string
	// DeletedAt — время soft delete; непустое значение исключает
	// запись из всех выборок
	DeletedAt *time.Time
}

// AsyncIndexable сообщает, пригоден ли документ для асинхронной
// индексации: storage_uri должен указывать на объектное хранилище.
// Локальные документы (uploads/...) остаются pending без перехода.
func (d *DocumentAsset) AsyncIndexable() bool {
	return strings.HasPrefix(d.StorageURI, GCSPrefix)
}
