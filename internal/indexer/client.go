// Пакет indexer — HTTP-клиент коннектора поисковой индексации.
// Коннектор принимает адрес документа в объектном хранилище и
// запускает импорт в data store поискового индекса.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrNotConfigured — коннектор индексации не настроен
// (DG_INDEXER_URL или DG_INDEXER_DATA_STORE не заданы).
var ErrNotConfigured = errors.New("коннектор индексации не настроен")

// Connector — запуск импорта документа в поисковый индекс.
type Connector interface {
	// Submit запускает импорт документа по его storage_uri.
	// Возвращает ссылку на data store, в который выполнен импорт.
	// Для ненастроенного коннектора — ErrNotConfigured.
	Submit(ctx context.Context, storageURI string) (datastoreRef string, err error)
}

// importRequest — тело запроса POST /v1/documents:import.
type importRequest struct {
	DataStore string `json:"data_store"`
	GCSURI    string `json:"gcs_uri"`
}

// importResponse — ответ коннектора на запуск импорта.
type importResponse struct {
	DatastoreRef string `json:"datastore_ref"`
}

// Client — HTTP-клиент коннектора.
type Client struct {
	httpClient *http.Client
	baseURL    string
	dataStore  string
	logger     *slog.Logger
}

// New создаёт клиент коннектора индексации.
// baseURL — адрес коннектора без trailing slash; пустая строка
// означает ненастроенный коннектор.
func New(baseURL, dataStore string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		dataStore:  dataStore,
		logger:     logger.With(slog.String("component", "indexer_client")),
	}
}

// Configured сообщает, настроен ли коннектор.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.dataStore != ""
}

// Submit запускает импорт документа.
// POST {baseURL}/v1/documents:import с телом {data_store, gcs_uri}.
func (c *Client) Submit(ctx context.Context, storageURI string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(importRequest{
		DataStore: c.dataStore,
		GCSURI:    storageURI,
	})
	if err != nil {
		return "", fmt.Errorf("сериализация запроса импорта: %w", err)
	}

	reqURL := c.baseURL + "/v1/documents:import"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("создание запроса импорта: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("запрос импорта к %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("коннектор вернул статус %d: %s", resp.StatusCode, string(respBody))
	}

	var importResp importResponse
	if err := json.NewDecoder(resp.Body).Decode(&importResp); err != nil {
		return "", fmt.Errorf("декодирование ответа коннектора: %w", err)
	}

	if importResp.DatastoreRef == "" {
		// Коннектор может не возвращать ссылку явно
		importResp.DatastoreRef = c.dataStore
	}

	c.logger.Debug("Импорт документа запущен",
		slog.String("storage_uri", storageURI),
		slog.String("datastore_ref", importResp.DatastoreRef),
	)

	return importResp.DatastoreRef, nil
}
