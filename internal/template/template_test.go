package template

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"remitapi/internal/model"
	"remitapi/internal/repository"
	"remitapi/internal/repository/mocks"
)

type serviceDeps struct {
	templates *mocks.MockTemplateRepository
	payers    *mocks.MockPayerRepository
	documents *mocks.MockDocumentRepository
	svc       *Service
}

func newServiceDeps() serviceDeps {
	d := serviceDeps{
		templates: new(mocks.MockTemplateRepository),
		payers:    new(mocks.MockPayerRepository),
		documents: new(mocks.MockDocumentRepository),
	}
	d.svc = NewService(d.templates, d.payers, d.documents, zap.NewNop())
	return d
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	schema := schemaOf("claim_number", "patient_name", "paid_amount")

	t.Run("registers and requeues parked documents", func(t *testing.T) {
		d := newServiceDeps()
		d.payers.On("FindByID", ctx, "payer-1").Return(&model.Payer{ID: "payer-1", OrgID: "org-1"}, nil)
		vid := "v-1"
		d.templates.On("Create", ctx, mock.MatchedBy(func(tp *model.Template) bool {
			return tp.OrgID == "org-1" && tp.PayerID == "payer-1" && tp.Name == "Acme EOB"
		}), schema).Return(&model.Template{ID: "t-1", PayerID: "payer-1", CurrentVersionID: &vid},
			&model.TemplateVersion{ID: vid, TemplateID: "t-1", VersionNumber: 1}, nil)
		d.documents.On("RequeueNeedTemplate", ctx, "payer-1").Return(int64(2), nil)

		tp, v, err := d.svc.Register(ctx, RegisterInput{PayerID: "payer-1", Name: " Acme EOB ", Schema: schema, CreatedBy: "user-1"})
		require.NoError(t, err)
		assert.Equal(t, "t-1", tp.ID)
		assert.Equal(t, 1, v.VersionNumber)
		d.documents.AssertExpectations(t)
	})

	t.Run("requeue failure does not fail registration", func(t *testing.T) {
		d := newServiceDeps()
		d.payers.On("FindByID", ctx, "payer-1").Return(&model.Payer{ID: "payer-1", OrgID: "org-1"}, nil)
		d.templates.On("Create", ctx, mock.Anything, schema).Return(&model.Template{ID: "t-1"}, &model.TemplateVersion{ID: "v-1"}, nil)
		d.documents.On("RequeueNeedTemplate", ctx, "payer-1").Return(int64(0), errors.New("db down"))

		_, _, err := d.svc.Register(ctx, RegisterInput{PayerID: "payer-1", Name: "Acme", Schema: schema})
		assert.NoError(t, err)
	})

	t.Run("invalid schema", func(t *testing.T) {
		d := newServiceDeps()
		_, _, err := d.svc.Register(ctx, RegisterInput{PayerID: "payer-1", Name: "Acme"})
		assert.ErrorIs(t, err, ErrInvalidSchema)
		d.templates.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown payer", func(t *testing.T) {
		d := newServiceDeps()
		d.payers.On("FindByID", ctx, "nope").Return(nil, repository.ErrNotFound)
		_, _, err := d.svc.Register(ctx, RegisterInput{PayerID: "nope", Name: "Acme", Schema: schema})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestService_AddVersion(t *testing.T) {
	ctx := context.Background()
	schema := schemaOf("claim_number", "diagnosis_code")

	d := newServiceDeps()
	d.templates.On("FindByID", ctx, "t-1").Return(&model.Template{ID: "t-1", PayerID: "payer-1"}, nil)
	d.templates.On("AddVersion", ctx, "t-1", schema, "user-2").Return(&model.TemplateVersion{ID: "v-2", VersionNumber: 2}, nil)
	d.documents.On("RequeueNeedTemplate", ctx, "payer-1").Return(int64(0), nil)

	v, err := d.svc.AddVersion(ctx, "t-1", schema, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 2, v.VersionNumber)
	d.documents.AssertExpectations(t)

	d.templates.On("FindByID", ctx, "missing").Return(nil, repository.ErrNotFound)
	_, err = d.svc.AddVersion(ctx, "missing", schema, "user-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLoadSeed(t *testing.T) {
	const doc = `
name: Acme Standard EOB
payer: Acme Health
sections:
  - dataKey: claim
    sectionName: Claim Information
    fields:
      - field: claim_number
        label: Claim Number
      - field: paid_amount
        type: money
`
	seed, err := LoadSeed(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "Acme Health", seed.Payer)
	assert.Equal(t, []string{"claim_number", "paid_amount"}, seed.Schema().FieldKeys())
	assert.Equal(t, model.FieldMoney, seed.Sections[0].Fields[1].Type)

	_, err = LoadSeed(strings.NewReader("name: x\nsections: []\n"))
	assert.ErrorIs(t, err, ErrInvalidSchema)

	_, err = LoadSeed(strings.NewReader("name: x\nbogus: 1\n"))
	assert.ErrorContains(t, err, "decode template seed")
}
