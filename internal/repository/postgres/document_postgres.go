package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"remitapi/internal/model"
	"remitapi/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, org_id, content_hash, filename, storage_ref, mime_type, size_bytes, status,
		status_reason, detected_payer_id, detected_template_version_id, uploaded_by, uploaded_at, updated_at`

func scanDocument(s rowScanner) (*model.Document, error) {
	var (
		d       model.Document
		status  string
		payerID sql.NullString
		tmplVer sql.NullString
	)
	if err := s.Scan(
		&d.ID,
		&d.OrgID,
		&d.ContentHash,
		&d.Filename,
		&d.StorageRef,
		&d.MimeType,
		&d.SizeBytes,
		&status,
		&d.StatusReason,
		&payerID,
		&tmplVer,
		&d.UploadedBy,
		&d.UploadedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Status = model.DocumentStatus(status)
	d.DetectedPayerID = ptr(payerID)
	d.DetectedTemplateVersionID = ptr(tmplVer)
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, org_id, content_hash, filename, storage_ref, mime_type, size_bytes,
			status, status_reason, uploaded_by, uploaded_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.OrgID,
		doc.ContentHash,
		doc.Filename,
		doc.StorageRef,
		doc.MimeType,
		doc.SizeBytes,
		string(doc.Status),
		doc.StatusReason,
		doc.UploadedBy,
		doc.UploadedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}

// FindByHash fetches the document holding a content hash within an org.
func (r *DocumentPostgres) FindByHash(ctx context.Context, orgID, contentHash string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE org_id = $1 AND content_hash = $2`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, orgID, contentHash))
	if err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	where, args := documentWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	qList := fmt.Sprintf(`SELECT %s FROM documents%s ORDER BY uploaded_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		documentColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, qList, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

func documentWhere(f repository.DocumentFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.OrgID != "" {
		args = append(args, f.OrgID)
		conds = append(conds, fmt.Sprintf("org_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListByStatus returns the oldest documents in a status outside exclude.
func (r *DocumentPostgres) ListByStatus(ctx context.Context, status model.DocumentStatus, limit int, exclude []string) ([]model.Document, error) {
	args := []any{string(status), limit}
	where := "status = $1"
	if len(exclude) > 0 {
		ph := make([]string, len(exclude))
		for i, id := range exclude {
			args = append(args, id)
			ph[i] = fmt.Sprintf("$%d", len(args))
		}
		where += " AND id NOT IN (" + strings.Join(ph, ", ") + ")"
	}
	q := `SELECT ` + documentColumns + ` FROM documents WHERE ` + where + ` ORDER BY uploaded_at ASC, id ASC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// UpdateStatus moves a document to a new status.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, id string, status model.DocumentStatus, reason string) error {
	const q = `UPDATE documents SET status = $2, status_reason = $3, updated_at = $4 WHERE id = $1`
	return r.execOne(ctx, q, id, string(status), reason, time.Now().UTC())
}

// UpdateOutcome writes the pipeline outcome for a document.
func (r *DocumentPostgres) UpdateOutcome(ctx context.Context, id string, status model.DocumentStatus, reason string, payerID, templateVersionID *string) error {
	const q = `
		UPDATE documents
		SET status = $2, status_reason = $3, detected_payer_id = $4, detected_template_version_id = $5, updated_at = $6
		WHERE id = $1`
	return r.execOne(ctx, q, id, string(status), reason, nullable(payerID), nullable(templateVersionID), time.Now().UTC())
}

// RequeueNeedTemplate sends need_template documents back to processing when
// any of their parked blocks resolved to payerID. The document's detected
// payer is only the first one seen, so the blocks decide.
func (r *DocumentPostgres) RequeueNeedTemplate(ctx context.Context, payerID string) (int64, error) {
	const q = `
		UPDATE documents d
		SET status = $2, status_reason = 'template registered', updated_at = $4
		WHERE d.status = $3 AND EXISTS (
			SELECT 1 FROM extraction_results e
			WHERE e.document_id = d.id AND e.status = $5 AND e.payer_id = $1)`
	res, err := r.db.ExecContext(ctx, q, payerID,
		string(model.DocumentProcessing), string(model.DocumentNeedTemplate), time.Now().UTC(),
		string(model.ClaimNeedTemplate))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *DocumentPostgres) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
