package handler

import (
	"github.com/gofiber/fiber/v2"

	"documind/internal/ai"
)

type chatRequest struct {
	Messages []ai.Message `json:"messages"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Chat forwards a conversation to the AI gateway and returns the assistant's
// reply. No document state is involved.
func Chat(gateway ai.Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if len(req.Messages) == 0 {
			return writeError(c, fiber.StatusBadRequest, "MESSAGES_REQUIRED", "missing messages in request")
		}

		reply, err := gateway.ChatRespond(c.UserContext(), req.Messages)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(chatResponse{Response: reply})
	}
}
