package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"documind/internal/http/middleware"
	"documind/internal/model"
	"documind/internal/repository"
	"documind/internal/service"
)

// createDocumentRequest is the JSON body for direct document creation.
type createDocumentRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags"`
}

// updateDocumentRequest is a partial update; absent fields stay untouched.
type updateDocumentRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Status  *string   `json:"status"`
	Tags    *[]string `json:"tags"`
}

type documentResponse struct {
	Document *model.Document `json:"document"`
}

type documentListResponse struct {
	Documents []model.Document `json:"documents"`
}

// ListDocuments returns the caller's documents, optionally filtered by
// status and a case-insensitive title search.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := middleware.UserIDFromCtx(c)

		items, err := svc.List(c.UserContext(), owner, repository.Filter{
			Status: c.Query("status"),
			Search: c.Query("search"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(documentListResponse{Documents: items})
	}
}

// CreateDocument creates a document either from an uploaded file
// (multipart/form-data, field name: file) or from a JSON body.
func CreateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := middleware.UserIDFromCtx(c)

		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()

			doc, err := svc.Upload(c.UserContext(), owner, service.UploadInput{
				Reader:      f,
				Filename:    fh.Filename,
				Size:        fh.Size,
				Title:       c.FormValue("title"),
				Description: c.FormValue("description"),
				Tags:        splitTags(c.FormValue("tags")),
				Analyze:     c.FormValue("analyze") == "true",
			})
			if err != nil {
				return writeServiceError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(documentResponse{Document: doc})
		}

		var req createDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		doc, err := svc.Create(c.UserContext(), owner, service.CreateInput{
			Title:   req.Title,
			Content: req.Content,
			Status:  model.DocumentStatus(req.Status),
			Tags:    req.Tags,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(documentResponse{Document: doc})
	}
}

// GetDocument returns a single document by ID.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := middleware.UserIDFromCtx(c)

		doc, err := svc.Get(c.UserContext(), c.Params("id"), owner)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(documentResponse{Document: doc})
	}
}

// UpdateDocument applies a partial update to a document.
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := middleware.UserIDFromCtx(c)

		var req updateDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		var status *model.DocumentStatus
		if req.Status != nil {
			s := model.DocumentStatus(*req.Status)
			status = &s
		}

		doc, err := svc.Update(c.UserContext(), c.Params("id"), owner, service.UpdateInput{
			Title:   req.Title,
			Content: req.Content,
			Status:  status,
			Tags:    req.Tags,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(documentResponse{Document: doc})
	}
}

// DeleteDocument removes a document and best-effort removes its stored file.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := middleware.UserIDFromCtx(c)

		if err := svc.Delete(c.UserContext(), c.Params("id"), owner); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Document deleted successfully"})
	}
}

// DownloadDocument streams the stored file with a suggested filename
// composed of the document's title and file type.
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := middleware.UserIDFromCtx(c)

		rc, info, err := svc.Download(c.UserContext(), c.Params("id"), owner)
		if err != nil {
			return writeServiceError(c, err)
		}

		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		c.Attachment(info.Filename)
		return c.SendStream(rc, int(info.Size))
	}
}

// AnalyzeDocument re-runs AI analysis on a stored document. Unlike
// upload-time analysis, failures here surface to the caller.
func AnalyzeDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := middleware.UserIDFromCtx(c)

		doc, err := svc.Analyze(c.UserContext(), c.Params("id"), owner)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{
			"analysis": doc.Analysis,
			"document": doc,
		})
	}
}

// splitTags parses the comma-separated tags field of a multipart upload.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
