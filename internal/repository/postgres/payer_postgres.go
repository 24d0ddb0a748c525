package postgres

import (
	"context"
	"database/sql"
	"errors"

	"remitapi/internal/model"
	"remitapi/internal/repository"
)

// PayerPostgres is a PostgreSQL implementation of repository.PayerRepository.
type PayerPostgres struct {
	db *sql.DB
}

// NewPayerPostgres creates a new PayerPostgres repository.
func NewPayerPostgres(db *sql.DB) *PayerPostgres {
	return &PayerPostgres{db: db}
}

var _ repository.PayerRepository = (*PayerPostgres)(nil)

func scanPayer(s rowScanner) (*model.Payer, error) {
	var (
		p    model.Payer
		code sql.NullString
	)
	if err := s.Scan(&p.ID, &p.OrgID, &p.Name, &code, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Code = ptr(code)
	return &p, nil
}

// FindByName matches the name exactly.
func (r *PayerPostgres) FindByName(ctx context.Context, orgID, name string) (*model.Payer, error) {
	const q = `SELECT id, org_id, name, code, created_at FROM payers WHERE org_id = $1 AND name = $2`
	p, err := scanPayer(r.db.QueryRowContext(ctx, q, orgID, name))
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

// CreateOrGet inserts a payer and falls back to the stored row on a name collision,
// which also resolves two concurrent first sightings of the same name.
func (r *PayerPostgres) CreateOrGet(ctx context.Context, in *model.Payer) (*model.Payer, error) {
	const qInsert = `
		INSERT INTO payers (id, org_id, name, code, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (org_id, lower(name)) DO NOTHING
		RETURNING id, org_id, name, code, created_at`
	p, err := scanPayer(r.db.QueryRowContext(ctx, qInsert, in.ID, in.OrgID, in.Name, nullable(in.Code), in.CreatedAt))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	const qExisting = `SELECT id, org_id, name, code, created_at FROM payers WHERE org_id = $1 AND lower(name) = lower($2)`
	p, err = scanPayer(r.db.QueryRowContext(ctx, qExisting, in.OrgID, in.Name))
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

// FindByID fetches a payer by ID.
func (r *PayerPostgres) FindByID(ctx context.Context, id string) (*model.Payer, error) {
	const q = `SELECT id, org_id, name, code, created_at FROM payers WHERE id = $1`
	p, err := scanPayer(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

// ListByOrg returns the org's payers by name.
func (r *PayerPostgres) ListByOrg(ctx context.Context, orgID string) ([]model.Payer, error) {
	const q = `SELECT id, org_id, name, code, created_at FROM payers WHERE org_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Payer, 0)
	for rows.Next() {
		p, err := scanPayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
