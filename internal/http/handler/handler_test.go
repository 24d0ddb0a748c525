package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"remitapi/internal/claims"
	"remitapi/internal/http/middleware"
	"remitapi/internal/intake"
	"remitapi/internal/model"
	"remitapi/internal/registry"
	"remitapi/internal/scheduler"
	"remitapi/internal/service"
	serviceMocks "remitapi/internal/service/mocks"
	"remitapi/internal/template"
)

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func multipartUpload(t *testing.T, filename, content, orgID string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		part.Write([]byte(content))
	}
	if orgID != "" {
		require.NoError(t, writer.WriteField("org_id", orgID))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	var redisErr error
	app := fiber.New()
	app.Get("/health", HealthCheck(db, Dependency{
		Name: "redis",
		Ping: func(context.Context) error { return redisErr },
	}))

	tests := []struct {
		name           string
		dbErr          error
		redisErr       error
		wantStatus     int
		wantDependency string
	}{
		{name: "healthy", wantStatus: http.StatusOK},
		{name: "database down", dbErr: errors.New("db error"), wantStatus: http.StatusServiceUnavailable, wantDependency: "postgres"},
		{name: "redis down", redisErr: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable, wantDependency: "redis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbMock.ExpectPing().WillReturnError(tt.dbErr)
			redisErr = tt.redisErr

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantDependency == "" {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "healthy", body["status"])
				return
			}
			payload := decodeError(t, resp)
			assert.Equal(t, "SERVICE_UNAVAILABLE", payload.Error.Code)
			assert.Equal(t, tt.wantDependency, payload.Error.Details["dependency"])
		})
	}
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents", ListDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.DocumentListResult{
			Items: []model.Document{{ID: uuid.New().String(), Filename: "eob.pdf", Status: model.DocumentNeedTemplate}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, service.ListFilter{OrgID: "org-1", Status: "need_template", Limit: 10, Offset: 0}).
			Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents?org_id=org-1&status=need_template&limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.DocumentListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid status", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, service.ListFilter{Status: "archived", Limit: 10}).
			Return(nil, service.ErrInvalidStatus).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents?status=archived", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_STATUS", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, service.ListFilter{Limit: 10}).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestUploadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Use(middleware.Actor())
	app.Post("/documents", UploadDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		body, ct := multipartUpload(t, "eob.txt", "hello world", "org-1")

		expectedDoc := &model.Document{ID: uuid.New().String(), Filename: "eob.txt", Status: model.DocumentProcessing}
		mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.Filename == "eob.txt" && in.OrgID == "org-1" && in.UploadedBy == "clerk-1" && in.Reader != nil
		})).Return(expectedDoc, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set(middleware.ActorHeader, "clerk-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expectedDoc.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("no org", func(t *testing.T) {
		body, ct := multipartUpload(t, "eob.txt", "hello", "")

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "ORG_REQUIRED", decodeError(t, resp).Error.Code)
	})

	rejections := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "duplicate", err: &intake.Rejection{Reason: intake.ReasonDuplicate, ExistingID: "doc-1", Exported: true}, wantStatus: http.StatusConflict, wantCode: "DUPLICATE_CONTENT"},
		{name: "unsupported format", err: &intake.Rejection{Reason: intake.ReasonUnsupportedFormat}, wantStatus: http.StatusUnsupportedMediaType, wantCode: "UNSUPPORTED_FORMAT"},
		{name: "too large", err: &intake.Rejection{Reason: intake.ReasonTooLarge}, wantStatus: http.StatusRequestEntityTooLarge, wantCode: "TOO_LARGE"},
		{name: "too small", err: &intake.Rejection{Reason: intake.ReasonTooSmall}, wantStatus: http.StatusBadRequest, wantCode: "TOO_SMALL"},
		{name: "service error", err: errors.New("upload failed"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartUpload(t, "eob.txt", "hello", "org-1")
			mockSvc.On("Upload", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			req := httptest.NewRequest(http.MethodPost, "/documents", body)
			req.Header.Set("Content-Type", ct)
			resp, _ := app.Test(req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			res := decodeError(t, resp)
			assert.Equal(t, tt.wantCode, res.Error.Code)
			if tt.wantCode == "DUPLICATE_CONTENT" {
				assert.Equal(t, "doc-1", res.Error.Details["existing_document_id"])
				assert.Equal(t, true, res.Error.Details["exported"])
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id", GetDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &service.DocumentDetail{
			Document: model.Document{ID: id, Status: model.DocumentPendingReview},
			Claims: []service.ClaimSummary{{
				Extraction: model.ExtractionResult{ID: "ext-1", Status: model.ClaimPendingReview},
				Latest:     &model.ClaimVersion{Version: model.InitialVersion()},
			}},
		}
		mockSvc.On("Get", mock.Anything, id).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.DocumentDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, id, result.Document.ID)
		require.Len(t, result.Claims, 1)
		assert.Equal(t, "1.0", result.Claims[0].Latest.Version.String())
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents/invalid-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, errors.New("db error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDocumentFileURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id/file-url", DocumentFileURL(mockSvc))

	id := uuid.New().String()
	mockSvc.On("FileURL", mock.Anything, id).Return("https://minio/signed", nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/file-url", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "https://minio/signed", body["url"])
	mockSvc.AssertExpectations(t)
}

func TestReprocessDocument(t *testing.T) {
	id := uuid.New().String()

	tests := []struct {
		name       string
		target     string
		setup      func(m *serviceMocks.MockDocumentService)
		wantStatus int
		wantCode   string
	}{
		{
			name:   "accepted",
			target: "/documents/" + id + "/reprocess",
			setup: func(m *serviceMocks.MockDocumentService) {
				m.On("Reprocess", mock.Anything, id, "ops-1").
					Return(&model.Document{ID: id, Status: model.DocumentProcessing}, nil).Once()
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name:   "not parked",
			target: "/documents/" + id + "/reprocess",
			setup: func(m *serviceMocks.MockDocumentService) {
				m.On("Reprocess", mock.Anything, id, "ops-1").
					Return(nil, fmt.Errorf("%w: pending_review", service.ErrNotReprocessable)).Once()
			},
			wantStatus: http.StatusConflict,
			wantCode:   "INVALID_DOCUMENT_STATE",
		},
		{
			name:       "invalid id",
			target:     "/documents/nope/reprocess",
			setup:      func(*serviceMocks.MockDocumentService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ID",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockDocumentService)
			tt.setup(mockSvc)
			app := fiber.New()
			app.Use(middleware.Actor())
			app.Post("/documents/:id/reprocess", ReprocessDocument(mockSvc))

			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			req.Header.Set(middleware.ActorHeader, "ops-1")
			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestClaimVersions(t *testing.T) {
	mockSvc := new(serviceMocks.MockClaimService)
	app := fiber.New()
	app.Get("/claims/:extractionId/versions", ClaimVersions(mockSvc))

	id := uuid.New().String()
	mockSvc.On("Versions", mock.Anything, id).Return(&service.ClaimHistory{
		Extraction: model.ExtractionResult{ID: id},
		Versions:   []model.ClaimVersion{{Version: model.InitialVersion()}, {Version: model.InitialVersion().NextMinor()}},
	}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/claims/"+id+"/versions", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body service.ClaimHistory
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Versions, 2)
	assert.Equal(t, "1.1", body.Versions[1].Version.String())
	mockSvc.AssertExpectations(t)
}

func TestEditClaim(t *testing.T) {
	mockSvc := new(serviceMocks.MockClaimService)
	app := fiber.New()
	app.Use(middleware.Actor())
	app.Post("/claims/:extractionId/edit", EditClaim(mockSvc))

	id := uuid.New().String()

	tests := []struct {
		name       string
		body       string
		setupMocks func()
		wantStatus int
		wantCode   string
	}{
		{
			name: "draft",
			body: `{"mode":"draft","fields":{"claim":{"paid_amount":"12.50","unknown":"x"}}}`,
			setupMocks: func() {
				mockSvc.On("Edit", mock.Anything, id, mock.MatchedBy(func(r service.EditRequest) bool {
					return r.Mode == "draft" && r.UpdatedBy == "reviewer-1" && r.Fields != nil
				})).Return(&service.EditResponse{
					ExtractionID: id,
					Version:      model.ClaimVersion{Version: model.Version{Major: 1, Minor: 1}},
					Status:       model.ClaimPendingReview,
					Applied:      []string{"paid_amount"},
				}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "decided claim",
			body: `{"mode":"confirm"}`,
			setupMocks: func() {
				mockSvc.On("Edit", mock.Anything, id, mock.Anything).
					Return(nil, &claims.TransitionError{From: model.ClaimApproved, Mode: claims.ModeConfirm}).Once()
			},
			wantStatus: http.StatusConflict,
			wantCode:   "INVALID_STATE_TRANSITION",
		},
		{
			name: "unknown mode",
			body: `{"mode":"publish"}`,
			setupMocks: func() {
				mockSvc.On("Edit", mock.Anything, id, mock.Anything).
					Return(nil, fmt.Errorf("%w: publish", claims.ErrUnknownMode)).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_MODE",
		},
		{
			name:       "malformed body",
			body:       `{"mode":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_BODY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setupMocks != nil {
				tt.setupMocks()
			}
			req := httptest.NewRequest(http.MethodPost, "/claims/"+id+"/edit", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(middleware.ActorHeader, "reviewer-1")
			resp, _ := app.Test(req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
			} else {
				var body service.EditResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "1.1", body.Version.Version.String())
				assert.Equal(t, []string{"paid_amount"}, body.Applied)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestExportClaim(t *testing.T) {
	mockSvc := new(serviceMocks.MockClaimService)
	app := fiber.New()
	app.Post("/claims/:extractionId/export", ExportClaim(mockSvc))

	id := uuid.New().String()
	export := model.ClaimExport{ExtractionID: id, Version: "1.4", StorageRef: "exports/" + id + ".xlsx"}

	t.Run("first export", func(t *testing.T) {
		mockSvc.On("Export", mock.Anything, id, "").
			Return(&service.ExportResponse{Export: export, Created: true, DownloadURL: "https://minio/x"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/claims/"+id+"/export", nil))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var body service.ExportResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "https://minio/x", body.DownloadURL)
	})

	t.Run("repeat export", func(t *testing.T) {
		mockSvc.On("Export", mock.Anything, id, "").
			Return(&service.ExportResponse{Export: export, DownloadURL: "https://minio/x"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/claims/"+id+"/export", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("not approved", func(t *testing.T) {
		mockSvc.On("Export", mock.Anything, id, "").
			Return(nil, &claims.TransitionError{From: model.ClaimPendingReview, Mode: "export"}).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/claims/"+id+"/export", nil))

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "INVALID_STATE_TRANSITION", decodeError(t, resp).Error.Code)
	})

	mockSvc.AssertExpectations(t)
}

func TestCreateTemplate(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Post("/payers/:payerId/templates", CreateTemplate(mockSvc))

	payerID := uuid.New().String()
	body := `{"name":"Acme EOB","schema":{"sections":[{"dataKey":"claim","sectionName":"Claim","fields":[{"field":"claim_number"}]}]}}`

	t.Run("created", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, payerID, mock.MatchedBy(func(r service.CreateTemplateRequest) bool {
			return r.Name == "Acme EOB" && len(r.Schema.FieldKeys()) == 1
		})).Return(&service.TemplateResult{
			Template: model.Template{ID: "tpl-1", PayerID: payerID},
			Version:  model.TemplateVersion{ID: "tv-1", VersionNumber: 1},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/payers/"+payerID+"/templates", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var res service.TemplateResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.Equal(t, 1, res.Version.VersionNumber)
	})

	t.Run("invalid schema", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, payerID, mock.Anything).
			Return(nil, fmt.Errorf("%w: schema has no sections", template.ErrInvalidSchema)).Once()

		req := httptest.NewRequest(http.MethodPost, "/payers/"+payerID+"/templates", strings.NewReader(`{"name":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "INVALID_SCHEMA", res.Error.Code)
		assert.Contains(t, res.Error.Message, "no sections")
	})

	t.Run("unknown payer", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, payerID, mock.Anything).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodPost, "/payers/"+payerID+"/templates", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestTemplateListing(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Get("/orgs/:orgId/payers", ListPayers(mockSvc))
	app.Get("/payers/:payerId/templates", ListTemplates(mockSvc))
	app.Post("/templates/:templateId/versions", AddTemplateVersion(mockSvc))

	payerID := uuid.New().String()
	templateID := uuid.New().String()
	mockSvc.On("Payers", mock.Anything, "org-1").Return([]model.Payer{{ID: payerID, Name: "Acme Health"}}, nil).Once()
	mockSvc.On("List", mock.Anything, payerID).Return([]model.Template{{ID: templateID}}, nil).Once()
	mockSvc.On("AddVersion", mock.Anything, templateID, mock.Anything, "").
		Return(&model.TemplateVersion{TemplateID: templateID, VersionNumber: 2}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/orgs/org-1/payers", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/payers/"+payerID+"/templates", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var ts []model.Template
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ts))
	assert.Len(t, ts, 1)

	req := httptest.NewRequest(http.MethodPost, "/templates/"+templateID+"/versions",
		strings.NewReader(`{"schema":{"sections":[{"dataKey":"claim","fields":[{"field":"claim_number"},{"field":"paid_amount","type":"money"}]}]}}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	mockSvc.AssertExpectations(t)
}

func TestOpsHandlers(t *testing.T) {
	mockSvc := new(serviceMocks.MockOpsService)
	app := fiber.New()
	app.Get("/scheduler/status", SchedulerStatus(mockSvc))
	app.Get("/jobs", ListJobs(mockSvc))
	app.Delete("/jobs/:documentId", ClearJob(mockSvc))

	cleared := uuid.New().String()
	missing := uuid.New().String()
	mockSvc.On("SchedulerStatus", mock.Anything).Return(&scheduler.Status{Enabled: true, Processed: 7, InFlight: 2}, nil).Once()
	mockSvc.On("Jobs", mock.Anything).Return(&service.JobListResult{
		Items: []registry.Entry{{ID: cleared, State: registry.StateFailed, RetryCount: 3, Error: "boom"}},
		Total: 1,
	}, nil).Once()
	mockSvc.On("ClearJob", mock.Anything, cleared).Return(nil).Once()
	mockSvc.On("ClearJob", mock.Anything, missing).Return(service.ErrNotFound).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/scheduler/status", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var st scheduler.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, int64(7), st.Processed)
	assert.Equal(t, 2, st.InFlight)

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/jobs", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var jobs service.JobListResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
	assert.Equal(t, registry.StateFailed, jobs.Items[0].State)

	resp, _ = app.Test(httptest.NewRequest(http.MethodDelete, "/jobs/"+cleared, nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest(http.MethodDelete, "/jobs/"+missing, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest(http.MethodDelete, "/jobs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	mockSvc.AssertExpectations(t)
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	RegisterRoutes(app, nil, Services{
		Documents: new(serviceMocks.MockDocumentService),
		Claims:    new(serviceMocks.MockClaimService),
		Templates: new(serviceMocks.MockTemplateService),
		Ops:       new(serviceMocks.MockOpsService),
	})

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/domain", func(c *fiber.Ctx) error {
		return fmt.Errorf("load: %w", service.ErrNotFound)
	})
	app.Get("/opaque", func(c *fiber.Ctx) error {
		return errors.New("pq: connection reset")
	})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot)
	})

	tests := []struct {
		target string
		status int
		code   string
	}{
		{target: "/domain", status: http.StatusNotFound, code: "NOT_FOUND"},
		{target: "/opaque", status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
		{target: "/teapot", status: http.StatusTeapot, code: "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotContains(t, body.Error.Message, "pq:")
		})
	}
}
