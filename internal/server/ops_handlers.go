package server

import (
	"anonrelay/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetStats returns the same aggregate snapshot as the "stats" admin
// command.
//
// @Summary Get platform stats
// @Tags ops
// @Security BearerAuth
// @Success 200 {object} gateway.Stats
// @Router /ops/stats [get]
func (s *Server) GetStats(c *fiber.Ctx) error {
	stats, err := s.admin.ComputeStats(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(stats)
}

// GetExport streams the same CSV payload as the "export" admin command.
//
// @Summary Export users as CSV
// @Tags ops
// @Security BearerAuth
// @Produce text/csv
// @Success 200 {string} string
// @Router /ops/export [get]
func (s *Server) GetExport(c *fiber.Ctx) error {
	csv, err := s.admin.ExportUsers(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="users.csv"`)
	return c.SendString(csv)
}

// GetUserInfo returns the same profile as the "userinfo" admin command.
//
// @Summary Get a user's profile
// @Tags ops
// @Security BearerAuth
// @Param id path int true "user id"
// @Success 200 {object} models.User
// @Router /ops/users/{id} [get]
func (s *Server) GetUserInfo(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.admin.UserInfo(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, statusFor(err), err)
	}
	return c.JSON(user)
}

// GetRoomInfo returns the same room snapshot as the "roominfo" admin
// command.
//
// @Summary Get a room's state
// @Tags ops
// @Security BearerAuth
// @Param id path string true "room id"
// @Success 200 {object} models.Room
// @Router /ops/rooms/{id} [get]
func (s *Server) GetRoomInfo(c *fiber.Ctx) error {
	room, err := s.admin.RoomInfo(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, statusFor(err), err)
	}
	return c.JSON(room)
}

// GetRoomHistory returns the same transcript as the "viewhistory" admin
// command, paginated via ?limit=&offset=.
//
// @Summary Get a room's chat transcript
// @Tags ops
// @Security BearerAuth
// @Param id path string true "room id"
// @Param limit query int false "max entries"
// @Param offset query int false "skip entries"
// @Success 200 {array} models.ChatLogEntry
// @Router /ops/rooms/{id}/history [get]
func (s *Server) GetRoomHistory(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	entries, err := s.admin.ViewHistory(c.UserContext(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, statusFor(err), err)
	}
	return c.JSON(entries)
}

// statusFor maps a domain AppError code to its HTTP status.
func statusFor(err error) int {
	switch {
	case models.IsNotFound(err):
		return fiber.StatusNotFound
	case models.IsConflict(err):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
