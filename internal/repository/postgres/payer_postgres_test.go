package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitapi/internal/model"
	"remitapi/internal/repository"
)

var payerCols = []string{"id", "org_id", "name", "code", "created_at"}

func TestPayerPostgres_FindByName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPayerPostgres(db)
	ctx := context.Background()

	t.Run("exact match", func(t *testing.T) {
		mock.ExpectQuery("FROM payers WHERE org_id = \\$1 AND name = \\$2").
			WithArgs("org-1", "Acme Health").
			WillReturnRows(sqlmock.NewRows(payerCols).AddRow("payer-1", "org-1", "Acme Health", nil, time.Now()))

		p, err := repo.FindByName(ctx, "org-1", "Acme Health")
		require.NoError(t, err)
		assert.Equal(t, "payer-1", p.ID)
		assert.Nil(t, p.Code)
	})

	t.Run("absent", func(t *testing.T) {
		mock.ExpectQuery("FROM payers WHERE org_id = \\$1 AND name = \\$2").
			WithArgs("org-1", "acme health").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByName(ctx, "org-1", "acme health")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayerPostgres_CreateOrGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPayerPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()
	in := &model.Payer{ID: "payer-new", OrgID: "org-1", Name: "Acme Health", CreatedAt: now}

	t.Run("inserted", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO payers (.+) ON CONFLICT \\(org_id, lower\\(name\\)\\) DO NOTHING").
			WithArgs(in.ID, in.OrgID, in.Name, nil, in.CreatedAt).
			WillReturnRows(sqlmock.NewRows(payerCols).AddRow(in.ID, in.OrgID, in.Name, nil, now))

		p, err := repo.CreateOrGet(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "payer-new", p.ID)
	})

	t.Run("conflict returns stored row", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO payers").
			WillReturnRows(sqlmock.NewRows(payerCols))
		mock.ExpectQuery("WHERE org_id = \\$1 AND lower\\(name\\) = lower\\(\\$2\\)").
			WithArgs("org-1", "Acme Health").
			WillReturnRows(sqlmock.NewRows(payerCols).AddRow("payer-old", "org-1", "ACME HEALTH", "ACM", now))

		p, err := repo.CreateOrGet(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "payer-old", p.ID)
		require.NotNil(t, p.Code)
		assert.Equal(t, "ACM", *p.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayerPostgres_ListByOrg(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM payers WHERE org_id = \\$1 ORDER BY name").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows(payerCols).
			AddRow("p1", "org-1", "Acme Health", nil, time.Now()).
			AddRow("p2", "org-1", "UnitedHealthcare", nil, time.Now()))

	payers, err := NewPayerPostgres(db).ListByOrg(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Len(t, payers, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
