package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"remitapi/internal/database"
	"remitapi/internal/model"
	"remitapi/internal/repository"
)

// ClaimPostgres stores extraction results (JSONB document records), claim
// versions and exports.
type ClaimPostgres struct {
	db *sql.DB
}

// NewClaimPostgres creates a new ClaimPostgres repository.
func NewClaimPostgres(db *sql.DB) *ClaimPostgres {
	return &ClaimPostgres{db: db}
}

var _ repository.ClaimRepository = (*ClaimPostgres)(nil)

const extractionColumns = `id, document_id, block_index, payer_id, payer_name, template_id, template_version_id,
		match_fraction, template_matched, claim_number, source, confidence, raw_response, status, current_version,
		created_at, updated_at`

const versionColumns = `id, extraction_id, document_id, major, minor, payload, status, updated_by, created_at`

const exportColumns = `id, extraction_id, document_id, version, storage_ref, created_by, created_at`

// queryer is the subset shared by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanExtraction(s rowScanner) (*model.ExtractionResult, error) {
	var (
		e          model.ExtractionResult
		payerID    sql.NullString
		templateID sql.NullString
		versionID  sql.NullString
		source     string
		status     string
		raw        []byte
	)
	if err := s.Scan(
		&e.ID,
		&e.DocumentID,
		&e.BlockIndex,
		&payerID,
		&e.PayerName,
		&templateID,
		&versionID,
		&e.MatchFraction,
		&e.TemplateMatched,
		&e.ClaimNumber,
		&source,
		&e.Confidence,
		&raw,
		&status,
		&e.CurrentVersion,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.PayerID = ptr(payerID)
	e.TemplateID = ptr(templateID)
	e.TemplateVersionID = ptr(versionID)
	e.Source = model.ExtractionSource(source)
	e.Status = model.ClaimStatus(status)
	if len(raw) > 0 {
		e.RawResponse = json.RawMessage(raw)
	}
	return &e, nil
}

func scanVersion(s rowScanner) (*model.ClaimVersion, error) {
	var (
		v       model.ClaimVersion
		payload []byte
		status  string
	)
	if err := s.Scan(
		&v.ID,
		&v.ExtractionID,
		&v.DocumentID,
		&v.Version.Major,
		&v.Version.Minor,
		&payload,
		&status,
		&v.UpdatedBy,
		&v.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &v.Payload); err != nil {
		return nil, fmt.Errorf("decode payload of version %s: %w", v.ID, err)
	}
	v.Status = model.ClaimStatus(status)
	return &v, nil
}

func scanExport(s rowScanner) (*model.ClaimExport, error) {
	var x model.ClaimExport
	if err := s.Scan(&x.ID, &x.ExtractionID, &x.DocumentID, &x.Version, &x.StorageRef, &x.CreatedBy, &x.CreatedAt); err != nil {
		return nil, err
	}
	return &x, nil
}

func rawJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// CreateExtraction writes the block record and its first version together.
func (r *ClaimPostgres) CreateExtraction(ctx context.Context, ext *model.ExtractionResult, first *model.ClaimVersion) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if ext.CreatedAt.IsZero() {
			ext.CreatedAt = now
		}
		ext.UpdatedAt = ext.CreatedAt
		if first != nil {
			ext.CurrentVersion = first.Version.String()
		}

		const q = `
			INSERT INTO extraction_results (` + extractionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
		if _, err := tx.ExecContext(ctx, q,
			ext.ID,
			ext.DocumentID,
			ext.BlockIndex,
			nullable(ext.PayerID),
			ext.PayerName,
			nullable(ext.TemplateID),
			nullable(ext.TemplateVersionID),
			ext.MatchFraction,
			ext.TemplateMatched,
			ext.ClaimNumber,
			string(ext.Source),
			ext.Confidence,
			rawJSON(ext.RawResponse),
			string(ext.Status),
			ext.CurrentVersion,
			ext.CreatedAt,
			ext.UpdatedAt,
		); err != nil {
			return mapErr(err)
		}

		if first == nil {
			return nil
		}
		return insertClaimVersion(ctx, tx, first)
	})
}

func insertClaimVersion(ctx context.Context, q queryer, v *model.ClaimVersion) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(v.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	const stmt = `
		INSERT INTO claim_versions (` + versionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = q.ExecContext(ctx, stmt,
		v.ID,
		v.ExtractionID,
		v.DocumentID,
		v.Version.Major,
		v.Version.Minor,
		string(payload),
		string(v.Status),
		v.UpdatedBy,
		v.CreatedAt,
	)
	return mapErr(err)
}

// FindExtraction fetches one extraction record.
func (r *ClaimPostgres) FindExtraction(ctx context.Context, id string) (*model.ExtractionResult, error) {
	e, err := scanExtraction(r.db.QueryRowContext(ctx, `SELECT `+extractionColumns+` FROM extraction_results WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

// ListExtractions returns a document's records in block order.
func (r *ClaimPostgres) ListExtractions(ctx context.Context, documentID string) ([]model.ExtractionResult, error) {
	return r.listExtractions(ctx,
		`SELECT `+extractionColumns+` FROM extraction_results WHERE document_id = $1 ORDER BY block_index, created_at`, documentID)
}

// ListByTemplate returns records matched to a template.
func (r *ClaimPostgres) ListByTemplate(ctx context.Context, templateID string) ([]model.ExtractionResult, error) {
	return r.listExtractions(ctx,
		`SELECT `+extractionColumns+` FROM extraction_results WHERE template_id = $1 ORDER BY created_at`, templateID)
}

func (r *ClaimPostgres) listExtractions(ctx context.Context, q string, arg string) ([]model.ExtractionResult, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ExtractionResult, 0)
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// SupersedePlaceholders retires need_template and failed records of a document.
func (r *ClaimPostgres) SupersedePlaceholders(ctx context.Context, documentID string) (int64, error) {
	const q = `
		UPDATE extraction_results
		SET status = $2, updated_at = $5
		WHERE document_id = $1 AND status IN ($3, $4)`
	res, err := r.db.ExecContext(ctx, q, documentID,
		string(model.ClaimSuperseded), string(model.ClaimNeedTemplate), string(model.ClaimFailed), time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LatestVersion returns the newest version of an extraction.
func (r *ClaimPostgres) LatestVersion(ctx context.Context, extractionID string) (*model.ClaimVersion, error) {
	return latestVersion(ctx, r.db, extractionID)
}

func latestVersion(ctx context.Context, q queryer, extractionID string) (*model.ClaimVersion, error) {
	const stmt = `SELECT ` + versionColumns + ` FROM claim_versions
		WHERE extraction_id = $1 ORDER BY major DESC, minor DESC LIMIT 1`
	v, err := scanVersion(q.QueryRowContext(ctx, stmt, extractionID))
	if err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}

// LatestVersions returns the head version of every extraction of a document.
func (r *ClaimPostgres) LatestVersions(ctx context.Context, documentID string) ([]model.ClaimVersion, error) {
	const q = `
		SELECT DISTINCT ON (extraction_id) ` + versionColumns + `
		FROM claim_versions
		WHERE document_id = $1
		ORDER BY extraction_id, major DESC, minor DESC`
	return r.listVersions(ctx, q, documentID)
}

// Versions returns the full history of an extraction, oldest first.
func (r *ClaimPostgres) Versions(ctx context.Context, extractionID string) ([]model.ClaimVersion, error) {
	const q = `SELECT ` + versionColumns + ` FROM claim_versions WHERE extraction_id = $1 ORDER BY major, minor`
	return r.listVersions(ctx, q, extractionID)
}

func (r *ClaimPostgres) listVersions(ctx context.Context, q, arg string) ([]model.ClaimVersion, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ClaimVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// Mutate serializes writers per extraction with a row lock on the extraction record.
func (r *ClaimPostgres) Mutate(ctx context.Context, extractionID string, fn repository.MutateFunc) (*model.ClaimVersion, error) {
	var head *model.ClaimVersion
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		ext, err := scanExtraction(tx.QueryRowContext(ctx,
			`SELECT `+extractionColumns+` FROM extraction_results WHERE id = $1 FOR UPDATE`, extractionID))
		if err != nil {
			return mapErr(err)
		}
		// Versionless records (extraction_failed, need_template) still reach fn
		// so it can reject them with a typed error.
		latest, err := latestVersion(ctx, tx, extractionID)
		if errors.Is(err, repository.ErrNotFound) {
			latest = &model.ClaimVersion{ExtractionID: ext.ID, DocumentID: ext.DocumentID}
		} else if err != nil {
			return err
		}

		m, err := fn(*ext, *latest)
		if err != nil {
			return err
		}

		head = latest
		if m.Version != nil {
			if err := insertClaimVersion(ctx, tx, m.Version); err != nil {
				return err
			}
			head = m.Version
		}
		if m.Export != nil {
			if err := insertExport(ctx, tx, m.Export); err != nil {
				return err
			}
		}

		status := m.Status
		if status == "" {
			status = ext.Status
		}
		current := ext.CurrentVersion
		if head.ID != "" {
			current = head.Version.String()
		}
		const q = `UPDATE extraction_results SET status = $2, current_version = $3, updated_at = $4 WHERE id = $1`
		_, err = tx.ExecContext(ctx, q, extractionID, string(status), current, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return head, nil
}

func insertExport(ctx context.Context, q queryer, x *model.ClaimExport) error {
	if x.ID == "" {
		x.ID = uuid.NewString()
	}
	if x.CreatedAt.IsZero() {
		x.CreatedAt = time.Now().UTC()
	}
	const stmt = `INSERT INTO claim_exports (` + exportColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.ExecContext(ctx, stmt, x.ID, x.ExtractionID, x.DocumentID, x.Version, x.StorageRef, x.CreatedBy, x.CreatedAt)
	return mapErr(err)
}

// FindExport returns the export recorded for an extraction.
func (r *ClaimPostgres) FindExport(ctx context.Context, extractionID string) (*model.ClaimExport, error) {
	x, err := scanExport(r.db.QueryRowContext(ctx, `SELECT `+exportColumns+` FROM claim_exports WHERE extraction_id = $1`, extractionID))
	if err != nil {
		return nil, mapErr(err)
	}
	return x, nil
}
