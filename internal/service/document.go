package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"documind/internal/ai"
	"documind/internal/model"
	"documind/internal/repository"
	"documind/internal/storage"
)

var (
	ErrTitleRequired       = errors.New("title is required")
	ErrTypeRequired        = errors.New("document type is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrInvalidStatus       = errors.New("invalid document status")
	ErrNotFound            = errors.New("document not found")
	ErrNoContent           = errors.New("document has no content to analyze")
	ErrFileUnavailable     = errors.New("document file is unavailable")
	ErrReaderNil           = errors.New("reader is nil")
)

// UploadInput carries a file upload and its metadata.
type UploadInput struct {
	Reader      io.Reader
	Filename    string
	Size        int64
	Title       string // defaults to Filename when empty
	Description string
	Tags        []string
	Analyze     bool
}

// CreateInput creates a document from inline JSON fields, no file involved.
type CreateInput struct {
	Title   string
	Content string
	Status  model.DocumentStatus
	Tags    []string
}

// UpdateInput is a partial update; nil fields are left untouched.
// A non-nil Tags fully replaces the stored tag set.
type UpdateInput struct {
	Title   *string
	Content *string
	Status  *model.DocumentStatus
	Tags    *[]string
}

// GenerateInput requests an AI-written document.
type GenerateInput struct {
	Type        string
	Title       string
	Description string
	Tags        []string
}

// GenerateResult returns both the created record and the raw generated text.
type GenerateResult struct {
	Document *model.Document `json:"document"`
	Content  string          `json:"content"`
}

// DownloadInfo describes the byte stream returned by Download.
type DownloadInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload stores the file, creates the record, and optionally runs a
	// best-effort analysis. Analysis failure never blocks creation.
	Upload(ctx context.Context, ownerID string, in UploadInput) (*model.Document, error)

	// Create makes a document from inline fields; no AI call.
	Create(ctx context.Context, ownerID string, in CreateInput) (*model.Document, error)

	// List returns the owner's documents matching the filter,
	// newest-updated first.
	List(ctx context.Context, ownerID string, f repository.Filter) ([]model.Document, error)

	// Get returns a single owned document.
	Get(ctx context.Context, id, ownerID string) (*model.Document, error)

	// Update applies a partial update.
	Update(ctx context.Context, id, ownerID string, in UpdateInput) (*model.Document, error)

	// Delete removes the record; the stored file is removed best-effort first.
	Delete(ctx context.Context, id, ownerID string) error

	// Download streams the stored file with a suggested filename.
	Download(ctx context.Context, id, ownerID string) (io.ReadCloser, DownloadInfo, error)

	// Analyze re-runs AI analysis on a stored document and persists the result.
	// Unlike upload-time analysis, gateway failures propagate to the caller.
	Analyze(ctx context.Context, id, ownerID string) (*model.Document, error)

	// Generate asks the AI gateway for a document body and persists it.
	Generate(ctx context.Context, ownerID string, in GenerateInput) (*GenerateResult, error)
}

type documentService struct {
	store   storage.FileStore
	repo    repository.DocumentRepository
	gateway ai.Gateway
	logger  *slog.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.FileStore, repo repository.DocumentRepository, gateway ai.Gateway, logger *slog.Logger) DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{store: store, repo: repo, gateway: gateway, logger: logger}
}

func (s *documentService) Upload(ctx context.Context, ownerID string, in UploadInput) (*model.Document, error) {
	if in.Reader == nil {
		return nil, ErrReaderNil
	}

	ref, err := s.store.Save(ctx, ownerID, in.Filename, in.Reader, in.Size)
	if err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	title := in.Title
	if strings.TrimSpace(title) == "" {
		title = in.Filename
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:          uuid.NewString(),
		Title:       title,
		Content:     in.Description,
		StoragePath: ref.Key,
		FileType:    ref.Ext,
		FileSize:    ref.Size,
		Status:      model.StatusDraft,
		Tags:        normalizeTags(in.Tags),
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Analysis is best-effort on upload: the file and record are saved
	// whether or not the provider call succeeds.
	if in.Analyze {
		analysis, err := s.analyzeStoredFile(ctx, ref.Key)
		if err != nil {
			s.logger.Warn("upload-time analysis failed, creating document without analysis",
				"key", ref.Key, "error", err)
		} else {
			doc.Analysis = analysis
		}
	}

	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Roll back the stored file so a failed create leaves nothing behind.
		if delErr := s.store.Remove(ctx, ref.Key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return created, nil
}

func (s *documentService) Create(ctx context.Context, ownerID string, in CreateInput) (*model.Document, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrTitleRequired
	}
	status := in.Status
	if status == "" {
		status = model.StatusDraft
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Status:    status,
		Tags:      normalizeTags(in.Tags),
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.repo.Create(ctx, doc)
}

func (s *documentService) List(ctx context.Context, ownerID string, f repository.Filter) ([]model.Document, error) {
	if f.Status != "" && !model.DocumentStatus(f.Status).Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, ownerID, f)
}

func (s *documentService) Get(ctx context.Context, id, ownerID string) (*model.Document, error) {
	doc, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, id, ownerID string, in UpdateInput) (*model.Document, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, ErrTitleRequired
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	doc, err := s.repo.Update(ctx, id, ownerID, repository.Patch{
		Title:   in.Title,
		Content: in.Content,
		Status:  in.Status,
		Tags:    in.Tags,
	})
	if err != nil {
		return nil, mapNoRows(err)
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, id, ownerID string) error {
	doc, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return mapNoRows(err)
	}

	// File removal is best-effort and independent of record deletion:
	// a missing or unreachable object must not keep the record alive.
	if doc.HasFile() {
		if err := s.store.Remove(ctx, doc.StoragePath); err != nil {
			s.logger.Warn("failed to remove stored file during delete",
				"key", doc.StoragePath, "error", err)
		}
	}

	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return mapNoRows(err)
	}
	return nil
}

func (s *documentService) Download(ctx context.Context, id, ownerID string) (io.ReadCloser, DownloadInfo, error) {
	doc, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, DownloadInfo{}, mapNoRows(err)
	}
	if !doc.HasFile() {
		return nil, DownloadInfo{}, ErrFileUnavailable
	}

	rc, info, err := s.store.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, DownloadInfo{}, fmt.Errorf("%w: %v", ErrFileUnavailable, err)
	}

	filename := doc.Title
	if doc.FileType != "" {
		filename += "." + doc.FileType
	}
	return rc, DownloadInfo{
		Filename:    filename,
		ContentType: info.ContentType,
		Size:        info.Size,
	}, nil
}

func (s *documentService) Analyze(ctx context.Context, id, ownerID string) (*model.Document, error) {
	doc, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, mapNoRows(err)
	}

	// Source precedence: stored file text when readable, then inline content.
	content := ""
	if doc.HasFile() {
		text, err := s.analyzeSource(ctx, doc.StoragePath)
		if err != nil {
			s.logger.Warn("stored file unreadable, falling back to inline content",
				"key", doc.StoragePath, "error", err)
		} else {
			content = text
		}
	}
	if content == "" {
		content = doc.Content
	}
	if content == "" {
		return nil, ErrNoContent
	}

	analysis, err := s.gateway.Analyze(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("analyze document: %w", err)
	}

	updated, err := s.repo.Update(ctx, id, ownerID, repository.Patch{Analysis: &analysis})
	if err != nil {
		return nil, mapNoRows(err)
	}
	return updated, nil
}

func (s *documentService) Generate(ctx context.Context, ownerID string, in GenerateInput) (*GenerateResult, error) {
	if strings.TrimSpace(in.Type) == "" {
		return nil, ErrTypeRequired
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, ErrDescriptionRequired
	}

	content, err := s.gateway.Generate(ctx, in.Type, in.Title, in.Description)
	if err != nil {
		return nil, fmt.Errorf("generate document: %w", err)
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   content,
		FileType:  "md",
		Status:    model.StatusDraft,
		Tags:      normalizeTags(in.Tags),
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &GenerateResult{Document: created, Content: content}, nil
}

// analyzeStoredFile reads a stored file back as text and runs gateway analysis.
func (s *documentService) analyzeStoredFile(ctx context.Context, key string) (string, error) {
	text, err := s.analyzeSource(ctx, key)
	if err != nil {
		return "", err
	}
	return s.gateway.Analyze(ctx, text)
}

func (s *documentService) analyzeSource(ctx context.Context, key string) (string, error) {
	rc, _, err := s.store.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("open stored file: %w", err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read stored file: %w", err)
	}
	return string(b), nil
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
