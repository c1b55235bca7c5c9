package handlers

import (
	"globaltext/internal/dto"
	"globaltext/internal/models"
	"globaltext/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdminHandler struct {
	admin  *service.AdminService
	logger *zap.Logger
}

func NewAdminHandler(admin *service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// Stats godoc
// @Summary Dashboard counters
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.StatsResponse
// @Router /api/v1/admin/stats [get]
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := h.admin.Stats(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "load stats")
	}

	resp := dto.StatsResponse{
		TranslationsByStatus: make(map[string]int, len(stats.TranslationsByStatus)),
		ProfilesByRole:       make(map[string]int, len(stats.ProfilesByRole)),
		ActiveSubscriptions:  stats.ActiveSubscriptions,
		PendingWithdrawals:   stats.PendingWithdrawals,
		PendingApplications:  stats.PendingApplications,
		TotalPaid:            stats.TotalPaid.StringFixed(2),
	}
	for k, v := range stats.TranslationsByStatus {
		resp.TranslationsByStatus[string(k)] = v
	}
	for k, v := range stats.ProfilesByRole {
		resp.ProfilesByRole[string(k)] = v
	}
	return c.JSON(resp)
}

// Users godoc
// @Summary List profiles
// @Tags admin
// @Produce json
// @Param role query string false "client, translator or admin"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {array} dto.ProfileResponse
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var role *models.Role
	if r := c.Query("role"); r != "" {
		rr := models.Role(r)
		role = &rr
	}
	limit, offset := pagination(c)
	list, err := h.admin.Users(c.Context(), userID, role, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "list users")
	}
	return c.JSON(dto.NewProfileList(list))
}
