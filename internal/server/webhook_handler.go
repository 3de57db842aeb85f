package server

import (
	"anonrelay/internal/gateway"
	"anonrelay/internal/models"

	"github.com/gofiber/fiber/v2"
)

// webhookUpdate is the JSON shape a real chat-platform SDK binding posts
// to /gateway/webhook once it has normalized its own wire format into a
// gateway.Update.
type webhookUpdate struct {
	UserID      uint              `json:"user_id"`
	Command     string            `json:"command"`
	Args        []string          `json:"args"`
	Text        string            `json:"text"`
	MediaType   gateway.MediaType `json:"media_type"`
	MediaHandle string            `json:"media_handle"`
}

// GatewayWebhook is the concrete inbound port the gateway command
// dispatcher is exercised through: a real SDK binding posts one
// normalized Update per inbound platform event and receives back the
// tagged Result it should render as a reply.
//
// @Summary Dispatch one inbound gateway update
// @Tags gateway
// @Accept json
// @Produce json
// @Param update body webhookUpdate true "normalized inbound update"
// @Success 200 {object} gateway.Result
// @Router /gateway/webhook [post]
func (s *Server) GatewayWebhook(c *fiber.Ctx) error {
	var in webhookUpdate
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("malformed update payload"))
	}
	if in.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("user_id is required"))
	}

	result := s.dispatcher.Dispatch(c.UserContext(), gateway.Update{
		UserID: in.UserID, Command: in.Command, Args: in.Args,
		Text: in.Text, MediaType: in.MediaType, MediaHandle: in.MediaHandle,
	})

	status := fiber.StatusOK
	switch result.Kind {
	case gateway.ResultUnauthorized:
		status = fiber.StatusForbidden
	case gateway.ResultError:
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(result)
}
