package handler

import (
	"github.com/gofiber/fiber/v2"

	"documind/internal/http/middleware"
	"documind/internal/service"
)

type generateRequest struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// GenerateDocument asks the AI gateway for a document body and persists it
// as a new markdown draft. Provider failures surface as errors.
func GenerateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := middleware.UserIDFromCtx(c)

		var req generateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		res, err := svc.Generate(c.UserContext(), owner, service.GenerateInput{
			Type:        req.Type,
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}
