package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/smeops/opscenter/doc-gateway/internal/domain/lifecycle"
	"github.com/smeops/opscenter/doc-gateway/internal/domain/model"
	"github.com/smeops/opscenter/doc-gateway/internal/indexer"
	"github.com/smeops/opscenter/doc-gateway/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Фейки ---

// fakeDocRepo — in-memory реализация DocumentRepository.
type fakeDocRepo struct {
	docs   map[int64]*model.DocumentAsset
	nextID int64
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: make(map[int64]*model.DocumentAsset)}
}

func (r *fakeDocRepo) Create(ctx context.Context, d *model.DocumentAsset) error {
	r.nextID++
	d.ID = r.nextID
	d.UploadedAt = time.Now().UTC()
	if d.IndexedStatus == "" {
		d.IndexedStatus = model.StatusPending
	}
	cp := *d
	r.docs[d.ID] = &cp
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, id int64) (*model.DocumentAsset, error) {
	d, ok := r.docs[id]
	if !ok || d.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDocRepo) ListActive(ctx context.Context) ([]*model.DocumentAsset, error) {
	var result []*model.DocumentAsset
	for _, d := range r.docs {
		if d.DeletedAt == nil {
			cp := *d
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *fakeDocRepo) FindByFilename(ctx context.Context, filename string) (*model.DocumentAsset, error) {
	var earliest *model.DocumentAsset
	for _, d := range r.docs {
		if d.DeletedAt != nil || d.Filename != filename {
			continue
		}
		if earliest == nil || d.ID < earliest.ID {
			earliest = d
		}
	}
	if earliest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *earliest
	return &cp, nil
}

func (r *fakeDocRepo) ListEligible(ctx context.Context, docID *int64) ([]*model.DocumentAsset, error) {
	var result []*model.DocumentAsset
	for _, d := range r.docs {
		if d.DeletedAt != nil || d.IndexedStatus != model.StatusPending || !d.AsyncIndexable() {
			continue
		}
		if docID != nil && d.ID != *docID {
			continue
		}
		cp := *d
		result = append(result, &cp)
	}
	return result, nil
}

func (r *fakeDocRepo) UpdateStatus(ctx context.Context, d *model.DocumentAsset, to model.IndexedStatus, datastoreRef *string) error {
	if err := lifecycle.Validate(d.IndexedStatus, to); err != nil {
		return err
	}
	stored, ok := r.docs[d.ID]
	if !ok || stored.DeletedAt != nil {
		return repository.ErrNotFound
	}
	if stored.IndexedStatus != d.IndexedStatus {
		return repository.ErrConflict
	}
	stored.IndexedStatus = to
	if datastoreRef != nil {
		stored.DatastoreRef = datastoreRef
	}
	d.IndexedStatus = to
	d.DatastoreRef = stored.DatastoreRef
	return nil
}

func (r *fakeDocRepo) SoftDelete(ctx context.Context, id int64) error {
	d, ok := r.docs[id]
	if !ok || d.DeletedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	d.DeletedAt = &now
	return nil
}

// fakeAuditRepo — in-memory журнал аудита с управляемым отказом.
type fakeAuditRepo struct {
	events     []*model.AuditEvent
	failAppend bool
}

func (r *fakeAuditRepo) Append(ctx context.Context, e *model.AuditEvent) error {
	if r.failAppend {
		return errors.New("БД недоступна")
	}
	e.ID = int64(len(r.events) + 1)
	e.TS = time.Now().UTC()
	r.events = append(r.events, e)
	return nil
}

func (r *fakeAuditRepo) ListByRequestID(ctx context.Context, requestID string) ([]*model.AuditEvent, error) {
	var result []*model.AuditEvent
	for _, e := range r.events {
		if e.RequestID == requestID {
			result = append(result, e)
		}
	}
	return result, nil
}

// fakeBackend — бэкенд хранилища с управляемым отказом.
type fakeBackend struct {
	uriPrefix string
	failSave  bool
}

func (b *fakeBackend) Save(ctx context.Context, r io.Reader, filename, contentType, requestID string) (string, error) {
	if b.failSave {
		return "", errors.New("диск переполнен")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return b.uriPrefix + requestID + "/" + filename, nil
}

func (b *fakeBackend) Kind() string                   { return "fake" }
func (b *fakeBackend) Location() string               { return b.uriPrefix }
func (b *fakeBackend) Probe(ctx context.Context) error { return nil }

// fakeConnector — коннектор индексации с поимённым отказом.
type fakeConnector struct {
	configured bool
	failAll    bool
	failURIs   map[string]bool
	submitted  []string
}

func (c *fakeConnector) Submit(ctx context.Context, storageURI string) (string, error) {
	if !c.configured {
		return "", indexer.ErrNotConfigured
	}
	if c.failAll || c.failURIs[storageURI] {
		return "", errors.New("коннектор вернул статус 502")
	}
	c.submitted = append(c.submitted, storageURI)
	return "projects/p/dataStores/ds", nil
}

// --- Тесты DocumentService ---

func newDocService(repo repository.DocumentRepository, backend *fakeBackend, audit *fakeAuditRepo) *DocumentService {
	// Без сервиса индексации: документы остаются pending до пакетного запуска
	auditSvc := NewAuditService(audit, testLogger())
	return NewDocumentService(repo, backend, nil, auditSvc, testLogger())
}

func TestIngest(t *testing.T) {
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{}
	svc := newDocService(docRepo, &fakeBackend{uriPrefix: "gs://b/docs/"}, auditRepo)

	res, err := svc.Ingest(context.Background(), strings.NewReader("данные"), "runbook.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Ingest() ошибка: %v", err)
	}

	if res.RequestID == "" {
		t.Error("RequestID пуст")
	}
	if res.Doc.ID == 0 {
		t.Error("документ не зарегистрирован")
	}
	if res.Doc.IndexedStatus != model.StatusPending {
		t.Errorf("IndexedStatus = %q, хотели pending", res.Doc.IndexedStatus)
	}
	if res.DuplicateWarning != nil {
		t.Errorf("DuplicateWarning = %q, хотели nil", *res.DuplicateWarning)
	}

	// Ровно одно событие аудита на операцию
	if len(auditRepo.events) != 1 {
		t.Fatalf("событий аудита %d, хотели 1", len(auditRepo.events))
	}
	e := auditRepo.events[0]
	if e.Module != model.ModuleDocs {
		t.Errorf("Module = %q, хотели docs", e.Module)
	}
	if e.Status != model.AuditSuccess {
		t.Errorf("Status = %q, хотели success", e.Status)
	}
	if e.SourcesJSON["filename"] != "runbook.pdf" {
		t.Errorf("sources_json[filename] = %v, хотели runbook.pdf", e.SourcesJSON["filename"])
	}
	if e.SourcesJSON["doc_id"] != res.Doc.ID {
		t.Errorf("sources_json[doc_id] = %v, хотели %d", e.SourcesJSON["doc_id"], res.Doc.ID)
	}
}

func TestIngest_InlineIndexing(t *testing.T) {
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{}
	conn := &fakeConnector{configured: true}
	auditSvc := NewAuditService(auditRepo, testLogger())
	indexingSvc := NewIndexingService(docRepo, conn, auditSvc, testLogger())
	svc := NewDocumentService(docRepo, &fakeBackend{uriPrefix: "gs://b/docs/"}, indexingSvc, auditSvc, testLogger())

	res, err := svc.Ingest(context.Background(), strings.NewReader("данные"), "runbook.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Ingest() ошибка: %v", err)
	}

	// Документ в объектном хранилище сразу проиндексирован
	if res.Doc.IndexedStatus != model.StatusReady {
		t.Errorf("IndexedStatus = %q, хотели ready", res.Doc.IndexedStatus)
	}
	if res.Doc.DatastoreRef == nil || *res.Doc.DatastoreRef != res.Doc.StorageURI {
		t.Errorf("DatastoreRef = %v, хотели адрес документа %q", res.Doc.DatastoreRef, res.Doc.StorageURI)
	}
	if len(conn.submitted) != 1 {
		t.Errorf("коннектор вызван %d раз, хотели 1", len(conn.submitted))
	}

	// Ровно одно событие аудита на всю загрузку, включая индексацию
	if len(auditRepo.events) != 1 || auditRepo.events[0].Status != model.AuditSuccess {
		t.Errorf("ожидали одно событие аудита со статусом success, получили %d", len(auditRepo.events))
	}
}

func TestIngest_InlineIndexingFailureAbsorbed(t *testing.T) {
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{}
	conn := &fakeConnector{configured: true, failAll: true}
	auditSvc := NewAuditService(auditRepo, testLogger())
	indexingSvc := NewIndexingService(docRepo, conn, auditSvc, testLogger())
	svc := NewDocumentService(docRepo, &fakeBackend{uriPrefix: "gs://b/docs/"}, indexingSvc, auditSvc, testLogger())

	res, err := svc.Ingest(context.Background(), strings.NewReader("x"), "a.pdf", "application/pdf")
	// Загрузка успешна, отказ индексации поглощён статусом документа
	if err != nil {
		t.Fatalf("Ingest() ошибка: %v", err)
	}
	if res.Doc.IndexedStatus != model.StatusFailed {
		t.Errorf("IndexedStatus = %q, хотели failed", res.Doc.IndexedStatus)
	}
	if len(auditRepo.events) != 1 || auditRepo.events[0].Status != model.AuditSuccess {
		t.Error("ожидали одно событие аудита со статусом success")
	}
}

func TestIngest_DuplicateWarning(t *testing.T) {
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{}
	svc := newDocService(docRepo, &fakeBackend{uriPrefix: "uploads/"}, auditRepo)

	first, err := svc.Ingest(context.Background(), strings.NewReader("v1"), "report.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("первый Ingest() ошибка: %v", err)
	}

	second, err := svc.Ingest(context.Background(), strings.NewReader("v2"), "report.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("второй Ingest() ошибка: %v", err)
	}

	// Повторное имя не отклоняет загрузку
	if second.Doc.ID == first.Doc.ID {
		t.Error("повторная загрузка не создала новую запись")
	}
	if second.DuplicateWarning == nil {
		t.Fatal("DuplicateWarning = nil, хотели предупреждение")
	}
	// Предупреждение ссылается на существующий документ
	if !strings.Contains(*second.DuplicateWarning, fmt.Sprintf("doc_id=%d", first.Doc.ID)) {
		t.Errorf("DuplicateWarning = %q, хотели упоминание doc_id=%d", *second.DuplicateWarning, first.Doc.ID)
	}

	// Оба события аудита успешны
	if len(auditRepo.events) != 2 {
		t.Fatalf("событий аудита %d, хотели 2", len(auditRepo.events))
	}
	for i, e := range auditRepo.events {
		if e.Status != model.AuditSuccess {
			t.Errorf("событие %d: Status = %q, хотели success", i, e.Status)
		}
	}
}

func TestIngest_BackendFailure(t *testing.T) {
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{}
	svc := newDocService(docRepo, &fakeBackend{uriPrefix: "uploads/", failSave: true}, auditRepo)

	_, err := svc.Ingest(context.Background(), strings.NewReader("x"), "a.pdf", "application/pdf")
	if err == nil {
		t.Fatal("Ingest() при отказе хранилища должен вернуть ошибку")
	}

	// Ошибка несёт корреляционный идентификатор операции
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("Ingest() = %v, хотели *OperationError", err)
	}
	if opErr.RequestID == "" {
		t.Error("OperationError.RequestID пуст")
	}

	// Запись в реестре не создана
	docs, _ := docRepo.ListActive(context.Background())
	if len(docs) != 0 {
		t.Errorf("в реестре %d документов, хотели 0", len(docs))
	}

	// Зафиксировано событие failure с тем же request_id
	if len(auditRepo.events) != 1 {
		t.Fatalf("событий аудита %d, хотели 1", len(auditRepo.events))
	}
	e := auditRepo.events[0]
	if e.Status != model.AuditFailure {
		t.Errorf("Status = %q, хотели failure", e.Status)
	}
	if e.Error == nil {
		t.Error("Error не заполнен для failure")
	}
	if e.RequestID != opErr.RequestID {
		t.Errorf("RequestID события = %q, в ошибке %q — должны совпадать", e.RequestID, opErr.RequestID)
	}
}

func TestIngest_AuditFailureFailsOperation(t *testing.T) {
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{failAppend: true}
	svc := newDocService(docRepo, &fakeBackend{uriPrefix: "uploads/"}, auditRepo)

	// Журнал недоступен: операция не считается успешной,
	// хотя содержимое сохранено и запись создана
	_, err := svc.Ingest(context.Background(), strings.NewReader("x"), "a.pdf", "application/pdf")
	if !errors.Is(err, ErrAuditUnavailable) {
		t.Fatalf("Ingest() = %v, хотели ErrAuditUnavailable", err)
	}
}

func TestIngest_EmptyFilename(t *testing.T) {
	svc := newDocService(newFakeDocRepo(), &fakeBackend{uriPrefix: "uploads/"}, &fakeAuditRepo{})

	_, err := svc.Ingest(context.Background(), strings.NewReader("x"), "", "application/pdf")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Ingest() = %v, хотели ErrValidation", err)
	}
}

func TestDelete(t *testing.T) {
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{}
	svc := newDocService(docRepo, &fakeBackend{uriPrefix: "uploads/"}, auditRepo)

	res, err := svc.Ingest(context.Background(), strings.NewReader("x"), "a.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Ingest() ошибка: %v", err)
	}

	if err := svc.Delete(context.Background(), res.Doc.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}

	// Документ исчезает из выборок
	status, err := svc.ListStatus(context.Background())
	if err != nil {
		t.Fatalf("ListStatus() ошибка: %v", err)
	}
	if len(status.Docs) != 0 {
		t.Errorf("ListStatus() = %d документов после удаления, хотели 0", len(status.Docs))
	}

	if err := svc.Delete(context.Background(), res.Doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete() = %v, хотели ErrNotFound", err)
	}
}

// --- Тесты IndexingService ---

func seedDoc(t *testing.T, repo *fakeDocRepo, filename, uri string) *model.DocumentAsset {
	t.Helper()
	d := &model.DocumentAsset{Filename: filename, StorageURI: uri}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create(%s) ошибка: %v", filename, err)
	}
	return d
}

func newIndexingService(repo repository.DocumentRepository, conn *fakeConnector, audit *fakeAuditRepo) *IndexingService {
	auditSvc := NewAuditService(audit, testLogger())
	return NewIndexingService(repo, conn, auditSvc, testLogger())
}

func TestTrigger_EmptyEligibleSet(t *testing.T) {
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{}
	// Только локальный документ — для индексации непригоден
	seedDoc(t, docRepo, "local.pdf", "uploads/req-1.pdf")

	svc := newIndexingService(docRepo, &fakeConnector{configured: true}, auditRepo)

	res, err := svc.Trigger(context.Background(), nil)
	if err != nil {
		t.Fatalf("Trigger() ошибка: %v", err)
	}
	if res.Triggered != 0 || res.Succeeded != 0 || res.Failed != 0 {
		t.Errorf("Trigger() = {%d %d %d}, хотели нули", res.Triggered, res.Succeeded, res.Failed)
	}

	// Пустой набор — успешная операция с doc_count = 0
	if len(auditRepo.events) != 1 {
		t.Fatalf("событий аудита %d, хотели 1", len(auditRepo.events))
	}
	e := auditRepo.events[0]
	if e.Status != model.AuditSuccess {
		t.Errorf("Status = %q, хотели success", e.Status)
	}
	if e.SourcesJSON["doc_count"] != 0 {
		t.Errorf("sources_json[doc_count] = %v, хотели 0", e.SourcesJSON["doc_count"])
	}
}

func TestTrigger_BatchWithPartialFailure(t *testing.T) {
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{}

	d1 := seedDoc(t, docRepo, "a.pdf", "gs://b/docs/r1/a.pdf")
	d2 := seedDoc(t, docRepo, "b.pdf", "gs://b/docs/r2/b.pdf")
	d3 := seedDoc(t, docRepo, "c.pdf", "gs://b/docs/r3/c.pdf")

	conn := &fakeConnector{
		configured: true,
		failURIs:   map[string]bool{d2.StorageURI: true},
	}
	svc := newIndexingService(docRepo, conn, auditRepo)

	res, err := svc.Trigger(context.Background(), nil)
	if err != nil {
		t.Fatalf("Trigger() ошибка: %v", err)
	}

	if res.Triggered != 3 {
		t.Errorf("Triggered = %d, хотели 3", res.Triggered)
	}
	if res.Succeeded != 2 {
		t.Errorf("Succeeded = %d, хотели 2", res.Succeeded)
	}
	if res.Failed != 1 {
		t.Errorf("Failed = %d, хотели 1", res.Failed)
	}
	if len(res.Details) != 3 {
		t.Fatalf("Details = %d, хотели 3", len(res.Details))
	}

	// Статусы документов: успешные → ready с datastore_ref, отказ → failed
	for _, id := range []int64{d1.ID, d3.ID} {
		got, err := docRepo.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID(%d) ошибка: %v", id, err)
		}
		if got.IndexedStatus != model.StatusReady {
			t.Errorf("документ %d: статус %q, хотели ready", id, got.IndexedStatus)
		}
		if got.DatastoreRef == nil || *got.DatastoreRef != got.StorageURI {
			t.Errorf("документ %d: DatastoreRef = %v, хотели адрес документа %q", id, got.DatastoreRef, got.StorageURI)
		}
	}
	gotFailed, err := docRepo.GetByID(context.Background(), d2.ID)
	if err != nil {
		t.Fatalf("GetByID(%d) ошибка: %v", d2.ID, err)
	}
	if gotFailed.IndexedStatus != model.StatusFailed {
		t.Errorf("документ %d: статус %q, хотели failed", d2.ID, gotFailed.IndexedStatus)
	}

	// Одно событие аудита на весь пакет; частичный отказ — failure
	if len(auditRepo.events) != 1 {
		t.Fatalf("событий аудита %d, хотели 1", len(auditRepo.events))
	}
	e := auditRepo.events[0]
	if e.Status != model.AuditFailure {
		t.Errorf("Status = %q, хотели failure", e.Status)
	}
	if e.Error == nil || *e.Error != "1 из 3 импортов завершились ошибкой" {
		t.Errorf("Error = %v, хотели %q", e.Error, "1 из 3 импортов завершились ошибкой")
	}
	if e.SourcesJSON["doc_count"] != 3 {
		t.Errorf("sources_json[doc_count] = %v, хотели 3", e.SourcesJSON["doc_count"])
	}
}

func TestTrigger_SingleDocument(t *testing.T) {
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{}

	target := seedDoc(t, docRepo, "a.pdf", "gs://b/docs/r1/a.pdf")
	seedDoc(t, docRepo, "b.pdf", "gs://b/docs/r2/b.pdf")

	conn := &fakeConnector{configured: true}
	svc := newIndexingService(docRepo, conn, auditRepo)

	res, err := svc.Trigger(context.Background(), &target.ID)
	if err != nil {
		t.Fatalf("Trigger() ошибка: %v", err)
	}
	if res.Triggered != 1 || res.Succeeded != 1 {
		t.Errorf("Trigger() = {%d %d}, хотели {1 1}", res.Triggered, res.Succeeded)
	}
	if len(conn.submitted) != 1 || conn.submitted[0] != target.StorageURI {
		t.Errorf("коннектор вызван для %v, хотели только %q", conn.submitted, target.StorageURI)
	}
}

func TestTrigger_SingleDocumentNotFound(t *testing.T) {
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{}
	svc := newIndexingService(docRepo, &fakeConnector{configured: true}, auditRepo)

	missing := int64(999)
	_, err := svc.Trigger(context.Background(), &missing)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Trigger() = %v, хотели ErrNotFound", err)
	}

	if len(auditRepo.events) != 1 || auditRepo.events[0].Status != model.AuditFailure {
		t.Error("ожидали одно событие аудита со статусом failure")
	}
}

func TestTrigger_NotConfigured(t *testing.T) {
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{}
	d := seedDoc(t, docRepo, "a.pdf", "gs://b/docs/r1/a.pdf")

	svc := newIndexingService(docRepo, &fakeConnector{configured: false}, auditRepo)

	// Ненастроенный коннектор не обрушивает операцию: каждый документ
	// получает описательный отказ, пакет доходит до конца
	res, err := svc.Trigger(context.Background(), nil)
	if err != nil {
		t.Fatalf("Trigger() ошибка: %v", err)
	}
	if res.Triggered != 1 || res.Failed != 1 {
		t.Errorf("Trigger() = {triggered %d, failed %d}, хотели {1, 1}", res.Triggered, res.Failed)
	}
	if len(res.Details) != 1 {
		t.Fatalf("Details = %d, хотели 1", len(res.Details))
	}
	detail := res.Details[0]
	if detail.Status != model.StatusFailed {
		t.Errorf("detail.Status = %q, хотели failed", detail.Status)
	}
	if detail.Error == nil || !strings.Contains(*detail.Error, indexer.ErrNotConfigured.Error()) {
		t.Errorf("detail.Error = %v, хотели причину %q", detail.Error, indexer.ErrNotConfigured.Error())
	}

	// Документ переведён в failed
	got, err := docRepo.GetByID(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("GetByID(%d) ошибка: %v", d.ID, err)
	}
	if got.IndexedStatus != model.StatusFailed {
		t.Errorf("статус документа = %q, хотели failed", got.IndexedStatus)
	}

	// Одно событие аудита со сводкой отказа
	if len(auditRepo.events) != 1 {
		t.Fatalf("событий аудита %d, хотели 1", len(auditRepo.events))
	}
	e := auditRepo.events[0]
	if e.Status != model.AuditFailure {
		t.Errorf("Status = %q, хотели failure", e.Status)
	}
	if e.Error == nil || *e.Error != "1 из 1 импортов завершились ошибкой" {
		t.Errorf("Error = %v, хотели %q", e.Error, "1 из 1 импортов завершились ошибкой")
	}
}

// --- Тесты QueryService ---

func TestAsk(t *testing.T) {
	auditRepo := &fakeAuditRepo{}
	svc := NewQueryService(NewAuditService(auditRepo, testLogger()), testLogger())

	res, err := svc.Ask(context.Background(), "как перезапустить сервис?")
	if err != nil {
		t.Fatalf("Ask() ошибка: %v", err)
	}

	if res.Answer != RefusalAnswer {
		t.Errorf("Answer = %q, хотели %q", res.Answer, RefusalAnswer)
	}
	if res.Citations == nil || len(res.Citations) != 0 {
		t.Errorf("Citations = %v, хотели пустой список", res.Citations)
	}

	if len(auditRepo.events) != 1 {
		t.Fatalf("событий аудита %d, хотели 1", len(auditRepo.events))
	}
	e := auditRepo.events[0]
	if e.Module != model.ModuleQuery {
		t.Errorf("Module = %q, хотели query", e.Module)
	}
	if e.PromptHash == nil || len(*e.PromptHash) != 16 {
		t.Errorf("PromptHash = %v, хотели 16 hex-символов", e.PromptHash)
	}
	if e.SourcesJSON["citations_count"] != 0 {
		t.Errorf("sources_json[citations_count] = %v, хотели 0", e.SourcesJSON["citations_count"])
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	auditRepo := &fakeAuditRepo{}
	svc := NewQueryService(NewAuditService(auditRepo, testLogger()), testLogger())

	// Пустой текст не отклоняется: тот же отказной ответ и одно событие аудита
	res, err := svc.Ask(context.Background(), "")
	if err != nil {
		t.Fatalf("Ask(\"\") ошибка: %v", err)
	}
	if res.Answer != RefusalAnswer {
		t.Errorf("Answer = %q, хотели %q", res.Answer, RefusalAnswer)
	}
	if len(res.Citations) != 0 {
		t.Errorf("Citations = %v, хотели пустой список", res.Citations)
	}
	if len(auditRepo.events) != 1 {
		t.Errorf("событий аудита %d, хотели 1", len(auditRepo.events))
	}
}

func TestAsk_AuditFailureFailsOperation(t *testing.T) {
	auditRepo := &fakeAuditRepo{failAppend: true}
	svc := NewQueryService(NewAuditService(auditRepo, testLogger()), testLogger())

	if _, err := svc.Ask(context.Background(), "вопрос"); !errors.Is(err, ErrAuditUnavailable) {
		t.Errorf("Ask() = %v, хотели ErrAuditUnavailable", err)
	}
}

func TestPromptHash(t *testing.T) {
	// Дайджест детерминирован
	h1 := PromptHash("как перезапустить сервис?")
	h2 := PromptHash("как перезапустить сервис?")
	if h1 != h2 {
		t.Errorf("дайджест недетерминирован: %q != %q", h1, h2)
	}
	if len(h1) != 16 {
		t.Errorf("длина дайджеста %d, хотели 16", len(h1))
	}

	// Известный вектор: sha256("test")[:16]
	if got := PromptHash("test"); got != "9f86d081884c7d65" {
		t.Errorf("PromptHash(test) = %q, хотели 9f86d081884c7d65", got)
	}

	// Разные тексты — разные дайджесты
	if PromptHash("a") == PromptHash("b") {
		t.Error("разные тексты дали одинаковый дайджест")
	}
}
