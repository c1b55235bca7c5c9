package handlers

import (
	"globaltext/internal/dto"
	"globaltext/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notifications *service.NotificationService
	logger        *zap.Logger
}

func NewNotificationHandler(notifications *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// List godoc
// @Summary My notifications
// @Tags notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Param limit query int false "Limit" default(20)
// @Security Bearer
// @Success 200 {array} dto.NotificationResponse
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, _ := pagination(c)
	list, err := h.notifications.List(c.Context(), userID, c.QueryBool("unread", false), limit)
	if err != nil {
		return respondError(c, h.logger, err, "list notifications")
	}
	return c.JSON(dto.NewNotificationList(list))
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Param id path string true "Notification ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/v1/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.Context(), userID, id); err != nil {
		return respondError(c, h.logger, err, "mark notification")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead godoc
// @Summary Mark every notification as read
// @Tags notifications
// @Produce json
// @Security Bearer
// @Success 200 {object} map[string]int64
// @Router /api/v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.MarkAllRead(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "mark notifications")
	}
	return c.JSON(fiber.Map{"updated": n})
}
