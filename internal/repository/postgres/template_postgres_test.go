package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitapi/internal/model"
	"remitapi/internal/repository"
)

var templateCols = []string{"id", "org_id", "payer_id", "name", "current_version_id", "created_by", "created_at"}

func sampleSchema() model.TemplateSchema {
	return model.TemplateSchema{Sections: []model.TemplateSection{{
		DataKey: "claim",
		Name:    "Claim",
		Fields: []model.TemplateField{
			{Key: "claim_number"}, {Key: "patient_name"}, {Key: "paid_amount", Type: model.FieldMoney},
		},
	}}}
}

func TestTemplatePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	in := &model.Template{ID: "tmpl-1", OrgID: "org-1", PayerID: "payer-1", Name: "Acme EOB", CreatedBy: "ops", CreatedAt: now}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO templates").
		WithArgs(in.ID, in.OrgID, in.PayerID, in.Name, in.CreatedBy, in.CreatedAt).
		WillReturnRows(sqlmock.NewRows(templateCols).AddRow(in.ID, in.OrgID, in.PayerID, in.Name, nil, in.CreatedBy, now))
	mock.ExpectExec("INSERT INTO template_versions").
		WithArgs(sqlmock.AnyArg(), "tmpl-1", 1, sqlmock.AnyArg(), "ops", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE templates SET current_version_id").
		WithArgs("tmpl-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tmpl, ver, err := NewTemplatePostgres(db).Create(context.Background(), in, sampleSchema())
	require.NoError(t, err)
	assert.Equal(t, 1, ver.VersionNumber)
	require.NotNil(t, tmpl.CurrentVersionID)
	assert.Equal(t, ver.ID, *tmpl.CurrentVersionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplatePostgres_AddVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTemplatePostgres(db)
	ctx := context.Background()

	t.Run("next number becomes current", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM templates WHERE id = \\$1 FOR UPDATE").
			WithArgs("tmpl-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tmpl-1"))
		mock.ExpectQuery("SELECT COALESCE\\(MAX\\(version_number\\), 0\\)").
			WithArgs("tmpl-1").
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(2))
		mock.ExpectExec("INSERT INTO template_versions").
			WithArgs(sqlmock.AnyArg(), "tmpl-1", 3, sqlmock.AnyArg(), "ops", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE templates SET current_version_id").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		v, err := repo.AddVersion(ctx, "tmpl-1", sampleSchema(), "ops")
		require.NoError(t, err)
		assert.Equal(t, 3, v.VersionNumber)
	})

	t.Run("unknown template", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WithArgs("nope").WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.AddVersion(ctx, "nope", sampleSchema(), "ops")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplatePostgres_ListCandidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	raw, err := json.Marshal(sampleSchema())
	require.NoError(t, err)
	now := time.Now()

	cols := append(append([]string{}, templateCols...),
		"v_id", "template_id", "version_number", "schema", "v_created_by", "v_created_at")
	mock.ExpectQuery("FROM templates t JOIN template_versions v ON v.template_id = t.id WHERE t.payer_id = \\$1").
		WithArgs("payer-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("tmpl-1", "org-1", "payer-1", "Acme EOB", "ver-2", "ops", now, "ver-1", "tmpl-1", 1, raw, "ops", now).
			AddRow("tmpl-1", "org-1", "payer-1", "Acme EOB", "ver-2", "ops", now, "ver-2", "tmpl-1", 2, raw, "ops", now))

	cands, err := NewTemplatePostgres(db).ListCandidates(context.Background(), "payer-1")
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.False(t, cands[0].IsCurrent())
	assert.True(t, cands[1].IsCurrent())
	assert.Equal(t, []string{"claim_number", "patient_name", "paid_amount"}, cands[1].Version.Schema.FieldKeys())
	assert.NoError(t, mock.ExpectationsWereMet())
}
