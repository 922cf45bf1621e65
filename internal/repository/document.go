package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/smeops/opscenter/doc-gateway/internal/domain/lifecycle"
	"github.com/smeops/opscenter/doc-gateway/internal/domain/model"
)

// DocumentRepository — интерфейс доступа к таблице doc_asset.
// Все выборки, кроме GetByIDAny, исключают soft-deleted записи.
type DocumentRepository interface {
	// Create создаёт новую запись документа (статус pending).
	Create(ctx context.Context, d *model.DocumentAsset) error
	// GetByID возвращает активный документ по ID.
	GetByID(ctx context.Context, id int64) (*model.DocumentAsset, error)
	// ListActive возвращает активные документы (новые первыми).
	ListActive(ctx context.Context) ([]*model.DocumentAsset, error)
	// FindByFilename возвращает самый ранний активный документ с таким
	// именем файла. Служит для предупреждения о дубликате при загрузке.
	FindByFilename(ctx context.Context, filename string) (*model.DocumentAsset, error)
	// ListEligible возвращает активные документы, пригодные для
	// индексации: статус pending и storage_uri в объектном хранилище.
	// При docID != nil область сужается до одного документа.
	ListEligible(ctx context.Context, docID *int64) ([]*model.DocumentAsset, error)
	// UpdateStatus выполняет переход статуса документа. Переход
	// валидируется конечным автоматом и защищён условием на текущий
	// статус в самом UPDATE: конкурентное изменение даёт ErrConflict.
	UpdateStatus(ctx context.Context, d *model.DocumentAsset, to model.IndexedStatus, datastoreRef *string) error
	// SoftDelete помечает документ удалённым (deleted_at = now()).
	SoftDelete(ctx context.Context, id int64) error
}

// documentRepo — реализация DocumentRepository.
type documentRepo struct {
	db DBTX
}

// NewDocumentRepository создаёт репозиторий реестра документов.
func NewDocumentRepository(db DBTX) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, d *model.DocumentAsset) error {
	query := `
		INSERT INTO doc_asset (filename, storage_uri, indexed_status)
		VALUES ($1, $2, $3)
		RETURNING id, uploaded_at`

	if d.IndexedStatus == "" {
		d.IndexedStatus = model.StatusPending
	}

	err := r.db.QueryRow(ctx, query,
		d.Filename, d.StorageURI, string(d.IndexedStatus),
	).Scan(&d.ID, &d.UploadedAt)
	if err != nil {
		return fmt.Errorf("ошибка регистрации документа: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id int64) (*model.DocumentAsset, error) {
	query := `
		SELECT id, filename, storage_uri, uploaded_at, indexed_status, datastore_ref, deleted_at
		FROM doc_asset
		WHERE id = $1 AND deleted_at IS NULL`

	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *documentRepo) ListActive(ctx context.Context) ([]*model.DocumentAsset, error) {
	query := `
		SELECT id, filename, storage_uri, uploaded_at, indexed_status, datastore_ref, deleted_at
		FROM doc_asset
		WHERE deleted_at IS NULL
		ORDER BY uploaded_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка документов: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *documentRepo) FindByFilename(ctx context.Context, filename string) (*model.DocumentAsset, error) {
	query := `
		SELECT id, filename, storage_uri, uploaded_at, indexed_status, datastore_ref, deleted_at
		FROM doc_asset
		WHERE filename = $1 AND deleted_at IS NULL
		ORDER BY uploaded_at ASC, id ASC
		LIMIT 1`

	return r.scanOne(r.db.QueryRow(ctx, query, filename))
}

func (r *documentRepo) ListEligible(ctx context.Context, docID *int64) ([]*model.DocumentAsset, error) {
	query := `
		SELECT id, filename, storage_uri, uploaded_at, indexed_status, datastore_ref, deleted_at
		FROM doc_asset
		WHERE deleted_at IS NULL
			AND indexed_status = 'pending'
			AND storage_uri LIKE 'gs://%'`
	var args []any

	if docID != nil {
		query += ` AND id = $1`
		args = append(args, *docID)
	}
	query += ` ORDER BY uploaded_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки документов для индексации: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *documentRepo) UpdateStatus(ctx context.Context, d *model.DocumentAsset, to model.IndexedStatus, datastoreRef *string) error {
	if err := lifecycle.Validate(d.IndexedStatus, to); err != nil {
		return err
	}

	// Условие на текущий статус защищает от конкурентного перехода:
	// если статус в БД уже другой, строк не будет.
	query := `
		UPDATE doc_asset
		SET indexed_status = $3,
			datastore_ref = COALESCE($4, datastore_ref)
		WHERE id = $1 AND indexed_status = $2 AND deleted_at IS NULL
		RETURNING datastore_ref`

	err := r.db.QueryRow(ctx, query,
		d.ID, string(d.IndexedStatus), string(to), datastoreRef,
	).Scan(&d.DatastoreRef)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("%w: статус документа %d изменён конкурентно", ErrConflict, d.ID)
		}
		return fmt.Errorf("ошибка обновления статуса документа: %w", err)
	}

	d.IndexedStatus = to
	return nil
}

func (r *documentRepo) SoftDelete(ctx context.Context, id int64) error {
	query := `
		UPDATE doc_asset
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ошибка удаления документа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanOne сканирует одну строку doc_asset.
func (r *documentRepo) scanOne(row pgx.Row) (*model.DocumentAsset, error) {
	d := &model.DocumentAsset{}
	var status string
	err := row.Scan(
		&d.ID, &d.Filename, &d.StorageURI, &d.UploadedAt,
		&status, &d.DatastoreRef, &d.DeletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения документа: %w", err)
	}
	d.IndexedStatus = model.IndexedStatus(status)
	return d, nil
}

// scanAll сканирует все строки doc_asset из rows.
func (r *documentRepo) scanAll(rows pgx.Rows) ([]*model.DocumentAsset, error) {
	var result []*model.DocumentAsset
	for rows.Next() {
		d := &model.DocumentAsset{}
		var status string
		if err := rows.Scan(
			&d.ID, &d.Filename, &d.StorageURI, &d.UploadedAt,
			&status, &d.DatastoreRef, &d.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования документа: %w", err)
		}
		d.IndexedStatus = model.IndexedStatus(status)
		result = append(result, d)
	}
	return result, rows.Err()
}
