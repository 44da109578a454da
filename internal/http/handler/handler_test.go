package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"documind/internal/ai"
	aiMocks "documind/internal/ai/mocks"
	"documind/internal/http/middleware"
	"documind/internal/model"
	"documind/internal/repository"
	"documind/internal/service"
	serviceMocks "documind/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUser = "user-1"

// newAuthedApp builds a fiber app with the production error handler.
func newAuthedApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
}

func authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(middleware.UserIDHeader, testUser)
	return req
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequiredOnDocumentRoutes(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	mockGateway := new(aiMocks.MockGateway)
	app := newAuthedApp()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	RegisterRoutes(app, db, mockSvc, mockGateway)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	mockSvc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newAuthedApp()
	app.Get("/documents", middleware.Auth(), ListDocuments(mockSvc))

	t.Run("passes filters through", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, testUser, repository.Filter{Status: "draft", Search: "Q3"}).
			Return([]model.Document{{ID: "doc-1", Title: "Q3 Plan"}}, nil).Once()

		req := authedRequest(http.MethodGet, "/documents?status=draft&search=Q3", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body documentListResponse
		json.NewDecoder(resp.Body).Decode(&body)
		require.Len(t, body.Documents, 1)
		assert.Equal(t, "Q3 Plan", body.Documents[0].Title)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, testUser, repository.Filter{Status: "published"}).
			Return(nil, service.ErrInvalidStatus).Once()

		req := authedRequest(http.MethodGet, "/documents?status=published", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCreateDocumentJSON(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newAuthedApp()
	app.Post("/documents", middleware.Auth(), CreateDocument(mockSvc))

	t.Run("creates draft from JSON", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, testUser, service.CreateInput{
			Title:   "Q3 Plan",
			Content: "Draft text",
			Tags:    []string{"finance", "q3"},
		}).Return(&model.Document{
			ID: "doc-1", Title: "Q3 Plan", Content: "Draft text",
			Status: model.StatusDraft, Tags: []string{"finance", "q3"},
		}, nil).Once()

		payload := `{"title":"Q3 Plan","content":"Draft text","tags":["finance","q3"]}`
		req := authedRequest(http.MethodPost, "/documents", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body documentResponse
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, model.StatusDraft, body.Document.Status)
		assert.Equal(t, []string{"finance", "q3"}, body.Document.Tags)
		assert.False(t, body.Document.HasFile())
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing title", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, testUser, mock.Anything).
			Return(nil, service.ErrTitleRequired).Once()

		req := authedRequest(http.MethodPost, "/documents", strings.NewReader(`{"content":"x"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "TITLE_REQUIRED", body.Error.Code)
	})
}

func TestCreateDocumentUpload(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newAuthedApp()
	app.Post("/documents", middleware.Auth(), CreateDocument(mockSvc))

	buildMultipart := func(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
		t.Helper()
		buf := new(bytes.Buffer)
		w := multipart.NewWriter(buf)
		fw, err := w.CreateFormFile("file", "report.txt")
		require.NoError(t, err)
		fw.Write([]byte("file body"))
		for k, v := range fields {
			w.WriteField(k, v)
		}
		require.NoError(t, w.Close())
		return buf, w.FormDataContentType()
	}

	t.Run("upload with analyze flag and tags", func(t *testing.T) {
		mockSvc.On("Upload", mock.Anything, testUser, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.Filename == "report.txt" &&
				in.Title == "My Report" &&
				in.Description == "desc" &&
				in.Analyze &&
				len(in.Tags) == 2 && in.Tags[0] == "a" && in.Tags[1] == "b"
		})).Return(&model.Document{ID: "doc-1", Title: "My Report"}, nil).Once()

		buf, contentType := buildMultipart(t, map[string]string{
			"title":       "My Report",
			"description": "desc",
			"tags":        "a,b",
			"analyze":     "true",
		})
		req := authedRequest(http.MethodPost, "/documents", buf)
		req.Header.Set("Content-Type", contentType)

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newAuthedApp()
	app.Get("/documents/:id", middleware.Auth(), GetDocument(mockSvc))

	t.Run("found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "doc-1", testUser).
			Return(&model.Document{ID: "doc-1"}, nil).Once()

		resp, _ := app.Test(authedRequest(http.MethodGet, "/documents/doc-1", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "missing", testUser).
			Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(authedRequest(http.MethodGet, "/documents/missing", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
	})
}

func TestUpdateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newAuthedApp()
	app.Put("/documents/:id", middleware.Auth(), UpdateDocument(mockSvc))

	t.Run("partial update passes only supplied fields", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, "doc-1", testUser, mock.MatchedBy(func(in service.UpdateInput) bool {
			return in.Title != nil && *in.Title == "Renamed" &&
				in.Content == nil && in.Status == nil && in.Tags == nil
		})).Return(&model.Document{ID: "doc-1", Title: "Renamed"}, nil).Once()

		req := authedRequest(http.MethodPut, "/documents/doc-1", strings.NewReader(`{"title":"Renamed"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("status update", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, "doc-1", testUser, mock.MatchedBy(func(in service.UpdateInput) bool {
			return in.Status != nil && *in.Status == model.StatusFinal
		})).Return(&model.Document{ID: "doc-1", Status: model.StatusFinal}, nil).Once()

		req := authedRequest(http.MethodPut, "/documents/doc-1", strings.NewReader(`{"status":"final"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newAuthedApp()
	app.Delete("/documents/:id", middleware.Auth(), DeleteDocument(mockSvc))

	t.Run("deleted", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, "doc-1", testUser).Return(nil).Once()

		resp, _ := app.Test(authedRequest(http.MethodDelete, "/documents/doc-1", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, "missing", testUser).Return(service.ErrNotFound).Once()

		resp, _ := app.Test(authedRequest(http.MethodDelete, "/documents/missing", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDownloadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newAuthedApp()
	app.Get("/documents/:id/download", middleware.Auth(), DownloadDocument(mockSvc))

	t.Run("streams with suggested filename", func(t *testing.T) {
		mockSvc.On("Download", mock.Anything, "doc-1", testUser).
			Return(io.NopCloser(strings.NewReader("file body")), service.DownloadInfo{
				Filename:    "Q3 Plan.pdf",
				ContentType: "application/pdf",
				Size:        9,
			}, nil).Once()

		resp, _ := app.Test(authedRequest(http.MethodGet, "/documents/doc-1/download", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "Q3 Plan.pdf")

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "file body", string(body))
	})

	t.Run("file unavailable", func(t *testing.T) {
		mockSvc.On("Download", mock.Anything, "doc-1", testUser).
			Return(nil, service.DownloadInfo{}, service.ErrFileUnavailable).Once()

		resp, _ := app.Test(authedRequest(http.MethodGet, "/documents/doc-1/download", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "FILE_UNAVAILABLE", body.Error.Code)
	})
}

func TestAnalyzeDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newAuthedApp()
	app.Post("/documents/:id/analyze", middleware.Auth(), AnalyzeDocument(mockSvc))

	t.Run("returns analysis and document", func(t *testing.T) {
		mockSvc.On("Analyze", mock.Anything, "doc-1", testUser).
			Return(&model.Document{ID: "doc-1", Analysis: "the analysis"}, nil).Once()

		resp, _ := app.Test(authedRequest(http.MethodPost, "/documents/doc-1/analyze", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "the analysis", body["analysis"])
	})

	t.Run("no content", func(t *testing.T) {
		mockSvc.On("Analyze", mock.Anything, "doc-1", testUser).
			Return(nil, service.ErrNoContent).Once()

		resp, _ := app.Test(authedRequest(http.MethodPost, "/documents/doc-1/analyze", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("provider failure surfaces", func(t *testing.T) {
		mockSvc.On("Analyze", mock.Anything, "doc-1", testUser).
			Return(nil, ai.ErrProvider).Once()

		resp, _ := app.Test(authedRequest(http.MethodPost, "/documents/doc-1/analyze", nil))

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "AI_PROVIDER_ERROR", body.Error.Code)
	})
}

func TestGenerateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newAuthedApp()
	app.Post("/generate", middleware.Auth(), GenerateDocument(mockSvc))

	t.Run("creates generated draft", func(t *testing.T) {
		mockSvc.On("Generate", mock.Anything, testUser, service.GenerateInput{
			Type: "memo", Title: "Policy Update", Description: "Remote work policy change",
		}).Return(&service.GenerateResult{
			Document: &model.Document{ID: "doc-1", Content: "MEMO BODY", FileType: "md", Status: model.StatusDraft},
			Content:  "MEMO BODY",
		}, nil).Once()

		payload := `{"type":"memo","title":"Policy Update","description":"Remote work policy change"}`
		req := authedRequest(http.MethodPost, "/generate", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body service.GenerateResult
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "MEMO BODY", body.Content)
		assert.Equal(t, "md", body.Document.FileType)
		assert.Equal(t, model.StatusDraft, body.Document.Status)
	})

	t.Run("validation error", func(t *testing.T) {
		mockSvc.On("Generate", mock.Anything, testUser, mock.Anything).
			Return(nil, service.ErrTypeRequired).Once()

		req := authedRequest(http.MethodPost, "/generate", strings.NewReader(`{"title":"t"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestChat(t *testing.T) {
	mockGateway := new(aiMocks.MockGateway)
	app := newAuthedApp()
	app.Post("/chat", middleware.Auth(), Chat(mockGateway))

	t.Run("returns assistant reply", func(t *testing.T) {
		mockGateway.On("ChatRespond", mock.Anything, []ai.Message{
			{Role: "user", Content: "hello"},
		}).Return("hi there", nil).Once()

		req := authedRequest(http.MethodPost, "/chat", strings.NewReader(`{"messages":[{"role":"user","content":"hello"}]}`))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body chatResponse
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "hi there", body.Response)
	})

	t.Run("missing messages", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/chat", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockGateway.AssertNotCalled(t, "ChatRespond", mock.Anything, mock.Anything)
	})

	t.Run("provider failure", func(t *testing.T) {
		mockGateway.On("ChatRespond", mock.Anything, mock.Anything).
			Return("", ai.ErrProvider).Once()

		req := authedRequest(http.MethodPost, "/chat", strings.NewReader(`{"messages":[{"role":"user","content":"x"}]}`))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}
