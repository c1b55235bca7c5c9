package handlers

import (
	"globaltext/internal/dto"
	"globaltext/internal/models"
	"globaltext/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ApplicationHandler struct {
	applications *service.ApplicationService
	maxUpload    int64
	logger       *zap.Logger
}

func NewApplicationHandler(applications *service.ApplicationService, maxUploadBytes int64, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, maxUpload: maxUploadBytes, logger: logger}
}

// Submit godoc
// @Summary Apply to become a translator
// @Tags applications
// @Accept multipart/form-data
// @Produce json
// @Param full_name formData string true "Full name"
// @Param email formData string false "Contact email, defaults to the account email"
// @Param years_of_experience formData int true "Years of experience"
// @Param languages formData string true "Comma separated BCP 47 tags"
// @Param cv formData file false "CV file"
// @Param cv_url formData string false "CV link when no file is sent"
// @Param portfolio_url formData string false "Portfolio"
// @Param linkedin_url formData string false "LinkedIn profile"
// @Param cover_letter formData string false "Cover letter"
// @Security Bearer
// @Success 201 {object} dto.ApplicationResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/applications [post]
func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateApplicationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := service.ApplicationInput{
		FullName:          req.FullName,
		Email:             req.Email,
		YearsOfExperience: req.YearsOfExperience,
		Languages:         splitCSV(req.Languages),
		CVURL:             req.CVURL,
		PortfolioURL:      optional(req.PortfolioURL),
		LinkedInURL:       optional(req.LinkedInURL),
		CoverLetter:       optional(req.CoverLetter),
	}
	if fh, err := c.FormFile("cv"); err == nil {
		if fh.Size > h.maxUpload {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "File is too large")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Failed to open file")
		}
		defer f.Close()
		in.CV = &service.FileUpload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		}
	}

	a, err := h.applications.Submit(c.Context(), userID, in)
	if err != nil {
		return respondError(c, h.logger, err, "submit application")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewApplicationResponse(a))
}

// Mine godoc
// @Summary My latest application
// @Tags applications
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.ApplicationResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/applications/mine [get]
func (h *ApplicationHandler) Mine(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	a, err := h.applications.Mine(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "load application")
	}
	return c.JSON(dto.NewApplicationResponse(a))
}

// List godoc
// @Summary Translator applications
// @Tags admin
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Security Bearer
// @Success 200 {array} dto.ApplicationResponse
// @Router /api/v1/admin/applications [get]
func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var status *models.ApplicationStatus
	if s := c.Query("status"); s != "" {
		st := models.ApplicationStatus(s)
		status = &st
	}
	limit, offset := pagination(c)
	list, err := h.applications.List(c.Context(), userID, status, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "list applications")
	}
	return c.JSON(dto.NewApplicationList(list))
}

// Approve godoc
// @Summary Approve an application
// @Description Marks the application approved and promotes the applicant to approved translator
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body dto.ReviewRequest false "Notes"
// @Security Bearer
// @Success 200 {object} dto.ApplicationResponse
// @Failure 409 {object} map[string]string
// @Router /api/v1/admin/applications/{id}/approve [post]
func (h *ApplicationHandler) Approve(c *fiber.Ctx) error {
	return h.decide(c, true)
}

// Reject godoc
// @Summary Reject an application
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body dto.ReviewRequest false "Notes"
// @Security Bearer
// @Success 200 {object} dto.ApplicationResponse
// @Failure 409 {object} map[string]string
// @Router /api/v1/admin/applications/{id}/reject [post]
func (h *ApplicationHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, false)
}

func (h *ApplicationHandler) decide(c *fiber.Ctx, approve bool) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ReviewRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	decide := h.applications.Reject
	if approve {
		decide = h.applications.Approve
	}
	a, err := decide(c.Context(), userID, id, req.Notes)
	if err != nil {
		return respondError(c, h.logger, err, "decide application")
	}
	return c.JSON(dto.NewApplicationResponse(a))
}
