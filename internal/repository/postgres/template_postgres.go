package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"remitapi/internal/database"
	"remitapi/internal/model"
	"remitapi/internal/repository"
)

// TemplatePostgres is a PostgreSQL implementation of repository.TemplateRepository.
type TemplatePostgres struct {
	db *sql.DB
}

// NewTemplatePostgres creates a new TemplatePostgres repository.
func NewTemplatePostgres(db *sql.DB) *TemplatePostgres {
	return &TemplatePostgres{db: db}
}

var _ repository.TemplateRepository = (*TemplatePostgres)(nil)

const templateColumns = `id, org_id, payer_id, name, current_version_id, created_by, created_at`

func scanTemplate(s rowScanner) (*model.Template, error) {
	var (
		t       model.Template
		current sql.NullString
	)
	if err := s.Scan(&t.ID, &t.OrgID, &t.PayerID, &t.Name, &current, &t.CreatedBy, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.CurrentVersionID = ptr(current)
	return &t, nil
}

// Create stores the template, version 1, and the current pointer in one transaction.
func (r *TemplatePostgres) Create(ctx context.Context, in *model.Template, schema model.TemplateSchema) (*model.Template, *model.TemplateVersion, error) {
	var (
		tmpl *model.Template
		ver  *model.TemplateVersion
	)
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const qTemplate = `
			INSERT INTO templates (id, org_id, payer_id, name, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING ` + templateColumns
		t, err := scanTemplate(tx.QueryRowContext(ctx, qTemplate,
			in.ID, in.OrgID, in.PayerID, in.Name, in.CreatedBy, in.CreatedAt))
		if err != nil {
			return mapErr(err)
		}

		v, err := insertVersion(ctx, tx, t.ID, 1, schema, in.CreatedBy)
		if err != nil {
			return err
		}
		if err := setCurrentVersion(ctx, tx, t.ID, v.ID); err != nil {
			return err
		}
		t.CurrentVersionID = &v.ID
		tmpl, ver = t, v
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return tmpl, ver, nil
}

// AddVersion appends the next version number and makes it current.
func (r *TemplatePostgres) AddVersion(ctx context.Context, templateID string, schema model.TemplateSchema, createdBy string) (*model.TemplateVersion, error) {
	var ver *model.TemplateVersion
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var id string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM templates WHERE id = $1 FOR UPDATE`, templateID).Scan(&id); err != nil {
			return mapErr(err)
		}

		var maxVersion int
		const qMax = `SELECT COALESCE(MAX(version_number), 0) FROM template_versions WHERE template_id = $1`
		if err := tx.QueryRowContext(ctx, qMax, templateID).Scan(&maxVersion); err != nil {
			return err
		}

		v, err := insertVersion(ctx, tx, templateID, maxVersion+1, schema, createdBy)
		if err != nil {
			return err
		}
		if err := setCurrentVersion(ctx, tx, templateID, v.ID); err != nil {
			return err
		}
		ver = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ver, nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, templateID string, number int, schema model.TemplateSchema, createdBy string) (*model.TemplateVersion, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	const q = `
		INSERT INTO template_versions (id, template_id, version_number, schema, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	v := &model.TemplateVersion{
		ID:            uuid.NewString(),
		TemplateID:    templateID,
		VersionNumber: number,
		Schema:        schema,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx, q, v.ID, v.TemplateID, v.VersionNumber, string(raw), v.CreatedBy, v.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}

func setCurrentVersion(ctx context.Context, tx *sql.Tx, templateID, versionID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE templates SET current_version_id = $2 WHERE id = $1`, templateID, versionID)
	return err
}

// FindByID fetches a template by ID.
func (r *TemplatePostgres) FindByID(ctx context.Context, id string) (*model.Template, error) {
	t, err := scanTemplate(r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

// ListByPayer returns a payer's templates oldest first.
func (r *TemplatePostgres) ListByPayer(ctx context.Context, payerID string) ([]model.Template, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE payer_id = $1 ORDER BY created_at, id`, payerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ListCandidates joins every version to its template for a payer.
func (r *TemplatePostgres) ListCandidates(ctx context.Context, payerID string) ([]model.TemplateCandidate, error) {
	const q = `
		SELECT t.id, t.org_id, t.payer_id, t.name, t.current_version_id, t.created_by, t.created_at,
			v.id, v.template_id, v.version_number, v.schema, v.created_by, v.created_at
		FROM templates t
		JOIN template_versions v ON v.template_id = t.id
		WHERE t.payer_id = $1
		ORDER BY t.created_at, t.id, v.version_number`
	rows, err := r.db.QueryContext(ctx, q, payerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TemplateCandidate, 0)
	for rows.Next() {
		var (
			c       model.TemplateCandidate
			current sql.NullString
			raw     []byte
		)
		if err := rows.Scan(
			&c.Template.ID, &c.Template.OrgID, &c.Template.PayerID, &c.Template.Name,
			&current, &c.Template.CreatedBy, &c.Template.CreatedAt,
			&c.Version.ID, &c.Version.TemplateID, &c.Version.VersionNumber, &raw,
			&c.Version.CreatedBy, &c.Version.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &c.Version.Schema); err != nil {
			return nil, fmt.Errorf("decode schema of version %s: %w", c.Version.ID, err)
		}
		c.Template.CurrentVersionID = ptr(current)
		out = append(out, c)
	}
	return out, rows.Err()
}
