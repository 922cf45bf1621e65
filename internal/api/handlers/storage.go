// storage.go — обработчики конфигурации и проверки хранилища.
// GET /api/v1/storage/config — активный бэкенд и его расположение
// GET /api/v1/storage/smoke — сквозная проверка хранилища
package handlers

import (
	"net/http"

	"github.com/google/uuid"

	apierrors "github.com/smeops/opscenter/doc-gateway/internal/api/errors"
)

// storageConfigResponse — ответ на запрос конфигурации хранилища.
type storageConfigResponse struct {
	Backend  string `json:"storage_backend"`
	Location string `json:"location"`
}

// storageSmokeResponse — ответ успешной проверки хранилища.
type storageSmokeResponse struct {
	Status   string `json:"status"`
	Backend  string `json:"backend"`
	Location string `json:"location"`
}

// GetStorageConfig — GET /api/v1/storage/config.
// Бэкенд фиксируется на старте процесса, ответ не меняется между
// запросами без перезапуска.
func (h *APIHandler) GetStorageConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storageConfigResponse{
		Backend:  h.backend.Kind(),
		Location: h.backend.Location(),
	})
}

// StorageSmoke — GET /api/v1/storage/smoke.
// Выполняет сквозную проверку хранилища: запись, чтение и удаление
// служебного объекта.
func (h *APIHandler) StorageSmoke(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.Probe(r.Context()); err != nil {
		apierrors.StorageUnavailable(w, uuid.New().String(), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, storageSmokeResponse{
		Status:   "ok",
		Backend:  h.backend.Kind(),
		Location: h.backend.Location(),
	})
}
