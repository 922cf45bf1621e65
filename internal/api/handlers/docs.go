// docs.go — обработчики работы с документами.
// POST /api/v1/docs/upload — приём документа (multipart)
// GET  /api/v1/docs/status — статусы активных документов
// POST /api/v1/docs/query — поисковый запрос
// POST /api/v1/docs/index — запуск индексации
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/smeops/opscenter/doc-gateway/internal/api/errors"
	"github.com/smeops/opscenter/doc-gateway/internal/api/middleware"
	"github.com/smeops/opscenter/doc-gateway/internal/service"
)

// maxUploadSize — максимальный размер multipart-формы в памяти (32 MB).
const maxUploadSize = 32 << 20

// uploadResponse — ответ на приём документа.
type uploadResponse struct {
	RequestID        string  `json:"request_id"`
	DocID            int64   `json:"doc_id"`
	Filename         string  `json:"filename"`
	Message          string  `json:"message"`
	StorageURI       string  `json:"storage_uri"`
	IndexedStatus    string  `json:"indexed_status"`
	DuplicateWarning *string `json:"duplicate_warning,omitempty"`
}

// docStatusItem — статус одного документа в выдаче.
type docStatusItem struct {
	ID            int64   `json:"id"`
	Filename      string  `json:"filename"`
	StorageURI    string  `json:"storage_uri"`
	UploadedAt    string  `json:"uploaded_at"`
	IndexedStatus string  `json:"indexed_status"`
	DatastoreRef  *string `json:"datastore_ref,omitempty"`
}

// statusResponse — ответ на запрос статусов.
type statusResponse struct {
	RequestID string          `json:"request_id"`
	Documents []docStatusItem `json:"documents"`
	Total     int             `json:"total"`
}

// queryRequest — тело поискового запроса.
type queryRequest struct {
	Query string `json:"query"`
}

// queryResponse — ответ на поисковый запрос.
type queryResponse struct {
	RequestID string             `json:"request_id"`
	Answer    string             `json:"answer"`
	Citations []service.Citation `json:"citations"`
}

// indexRequest — тело запроса запуска индексации.
// doc_id опционален: без него обрабатываются все пригодные документы.
type indexRequest struct {
	DocID *int64 `json:"doc_id,omitempty"`
}

// indexDetail — исход импорта одного документа в ответе.
type indexDetail struct {
	DocID    int64   `json:"doc_id"`
	Filename string  `json:"filename"`
	Status   string  `json:"status"`
	Error    *string `json:"error,omitempty"`
}

// indexResponse — ответ на запуск индексации.
type indexResponse struct {
	RequestID string        `json:"request_id"`
	Triggered int           `json:"triggered"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Details   []indexDetail `json:"details"`
}

// UploadDocument — POST /api/v1/docs/upload.
// Принимает документ из multipart-поля "file". Повторное имя файла
// допустимо: загрузка проходит, в ответ попадает предупреждение.
func (h *APIHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		apierrors.ValidationError(w, uuid.New().String(), "некорректная multipart-форма: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, uuid.New().String(), "поле 'file' отсутствует в форме")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	res, err := h.docs.Ingest(r.Context(), file, header.Filename, contentType)
	middleware.ObserveOperation("upload", err == nil)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("X-Request-Id", res.RequestID)
	writeJSON(w, http.StatusCreated, uploadResponse{
		RequestID:        res.RequestID,
		DocID:            res.Doc.ID,
		Filename:         res.Doc.Filename,
		Message:          "документ принят",
		StorageURI:       res.Doc.StorageURI,
		IndexedStatus:    string(res.Doc.IndexedStatus),
		DuplicateWarning: res.DuplicateWarning,
	})
}

// ListDocumentStatus — GET /api/v1/docs/status.
// Возвращает активные документы; soft-deleted записи исключены.
func (h *APIHandler) ListDocumentStatus(w http.ResponseWriter, r *http.Request) {
	res, err := h.docs.ListStatus(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]docStatusItem, 0, len(res.Docs))
	for _, d := range res.Docs {
		items = append(items, docStatusItem{
			ID:            d.ID,
			Filename:      d.Filename,
			StorageURI:    d.StorageURI,
			UploadedAt:    d.UploadedAt.UTC().Format(time.RFC3339),
			IndexedStatus: string(d.IndexedStatus),
			DatastoreRef:  d.DatastoreRef,
		})
	}

	w.Header().Set("X-Request-Id", res.RequestID)
	writeJSON(w, http.StatusOK, statusResponse{
		RequestID: res.RequestID,
		Documents: items,
		Total:     len(items),
	})
}

// QueryDocuments — POST /api/v1/docs/query.
// Принимает вопрос, возвращает ответ с цитатами.
func (h *APIHandler) QueryDocuments(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, uuid.New().String(), "некорректное тело запроса: "+err.Error())
		return
	}

	res, err := h.query.Ask(r.Context(), req.Query)
	middleware.ObserveOperation("query", err == nil)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("X-Request-Id", res.RequestID)
	writeJSON(w, http.StatusOK, queryResponse{
		RequestID: res.RequestID,
		Answer:    res.Answer,
		Citations: res.Citations,
	})
}

// TriggerIndexing — POST /api/v1/docs/index.
// Тело опционально: {doc_id} сужает область до одного документа.
// Частичный отказ пакета не является HTTP-ошибкой — исходы
// перечислены в details.
func (h *APIHandler) TriggerIndexing(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierrors.ValidationError(w, uuid.New().String(), "некорректное тело запроса: "+err.Error())
			return
		}
	}

	res, err := h.indexing.Trigger(r.Context(), req.DocID)
	middleware.ObserveOperation("index", err == nil)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	details := make([]indexDetail, 0, len(res.Details))
	for _, d := range res.Details {
		details = append(details, indexDetail{
			DocID:    d.DocID,
			Filename: d.Filename,
			Status:   string(d.Status),
			Error:    d.Error,
		})
	}

	w.Header().Set("X-Request-Id", res.RequestID)
	writeJSON(w, http.StatusOK, indexResponse{
		RequestID: res.RequestID,
		Triggered: res.Triggered,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Details:   details,
	})
}
