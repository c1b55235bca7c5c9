package handlers

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"globaltext/internal/dto"
	"globaltext/internal/models"
	"globaltext/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const previewRunes = 500

type TranslationHandler struct {
	lifecycle *service.LifecycleService
	intake    *service.IntakeService
	mt        *service.MachineTranslationService
	maxUpload int64
	logger    *zap.Logger
}

func NewTranslationHandler(
	lifecycle *service.LifecycleService,
	intake *service.IntakeService,
	mt *service.MachineTranslationService,
	maxUploadBytes int64,
	logger *zap.Logger,
) *TranslationHandler {
	return &TranslationHandler{
		lifecycle: lifecycle,
		intake:    intake,
		mt:        mt,
		maxUpload: maxUploadBytes,
		logger:    logger,
	}
}

func (h *TranslationHandler) upload(c *fiber.Ctx) (data []byte, name, contentType string, err error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", "", fiber.NewError(fiber.StatusBadRequest, "File is required")
	}
	data, err = readUpload(fh, h.maxUpload)
	if errors.Is(err, errTooLarge) {
		return nil, "", "", fiber.NewError(fiber.StatusRequestEntityTooLarge, "File is too large")
	}
	if err != nil {
		return nil, "", "", fiber.NewError(fiber.StatusBadRequest, "Failed to read file")
	}
	return data, fh.Filename, fh.Header.Get(fiber.HeaderContentType), nil
}

// Quote godoc
// @Summary Extract text and quote a price
// @Description Counts the words of an uploaded document and prices it without creating a job
// @Tags translations
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document (txt, pdf, epub, xps, png, jpeg, tiff, bmp)"
// @Security Bearer
// @Success 200 {object} dto.QuoteResponse
// @Failure 400 {object} map[string]string
// @Failure 415 {object} map[string]string
// @Router /api/v1/documents/extract [post]
func (h *TranslationHandler) Quote(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	data, name, _, err := h.upload(c)
	if err != nil {
		return err
	}

	q, err := h.intake.Quote(c.Context(), userID, data, name)
	if err != nil {
		return respondError(c, h.logger, err, "extract document")
	}

	preview := q.Text
	if utf8.RuneCountInString(preview) > previewRunes {
		preview = string([]rune(preview)[:previewRunes])
	}
	return c.JSON(dto.QuoteResponse{
		WordCount:    q.WordCount,
		MIME:         q.MIME,
		Price:        q.Price.StringFixed(2),
		PricePerWord: q.PricePerWord.String(),
		Currency:     q.Currency,
		Covered:      q.Covered,
		Preview:      preview,
	})
}

// Create godoc
// @Summary Create a translation job
// @Description Upload a document; the job is created pending at words x price per word
// @Tags translations
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Param document_name formData string false "Display name"
// @Param source_language formData string true "BCP 47 source language"
// @Param target_language formData string true "BCP 47 target language"
// @Security Bearer
// @Success 201 {object} dto.TranslationResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 415 {object} map[string]string
// @Router /api/v1/translations [post]
func (h *TranslationHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTranslationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	data, name, contentType, err := h.upload(c)
	if err != nil {
		return err
	}

	t, err := h.intake.Create(c.Context(), userID, service.IntakeInput{
		DocumentName:   req.DocumentName,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		FileName:       name,
		ContentType:    contentType,
		Data:           data,
	})
	if err != nil {
		return respondError(c, h.logger, err, "create translation")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTranslationResponse(t))
}

// List godoc
// @Summary List my translations
// @Description Clients see the jobs they created, translators the jobs assigned to them, admins everything
// @Tags translations
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {array} dto.TranslationResponse
// @Router /api/v1/translations [get]
func (h *TranslationHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var statuses []models.TranslationStatus
	for _, s := range splitCSV(c.Query("status")) {
		statuses = append(statuses, models.TranslationStatus(s))
	}
	limit, offset := pagination(c)

	list, err := h.lifecycle.ListMine(c.Context(), userID, statuses, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "list translations")
	}
	return c.JSON(dto.NewTranslationList(list))
}

// Get godoc
// @Summary Get a translation
// @Tags translations
// @Produce json
// @Param id path string true "Translation ID"
// @Security Bearer
// @Success 200 {object} dto.TranslationResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/translations/{id} [get]
func (h *TranslationHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	t, err := h.lifecycle.Get(c.Context(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err, "get translation")
	}
	return c.JSON(dto.NewTranslationResponse(t))
}

// FileURL godoc
// @Summary Download link for a job file
// @Tags translations
// @Produce json
// @Param id path string true "Translation ID"
// @Param kind path string true "original or translated"
// @Security Bearer
// @Success 200 {object} dto.FileURLResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/translations/{id}/files/{kind} [get]
func (h *TranslationHandler) FileURL(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	url, err := h.lifecycle.FileURL(c.Context(), userID, id, service.FileKind(c.Params("kind")))
	if err != nil {
		return respondError(c, h.logger, err, "sign file url")
	}
	return c.JSON(dto.FileURLResponse{URL: url})
}

// Claim godoc
// @Summary Claim a job from the feed
// @Tags translations
// @Produce json
// @Param id path string true "Translation ID"
// @Security Bearer
// @Success 200 {object} dto.TranslationResponse
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/translations/{id}/claim [post]
func (h *TranslationHandler) Claim(c *fiber.Ctx) error {
	return h.transition(c, "claim translation", h.lifecycle.Claim)
}

// Decline godoc
// @Summary Give a claimed job back to the feed
// @Tags translations
// @Produce json
// @Param id path string true "Translation ID"
// @Security Bearer
// @Success 200 {object} dto.TranslationResponse
// @Failure 409 {object} map[string]string
// @Router /api/v1/translations/{id}/decline [post]
func (h *TranslationHandler) Decline(c *fiber.Ctx) error {
	return h.transition(c, "decline translation", h.lifecycle.Decline)
}

// PreTranslate godoc
// @Summary Machine pre-translation of an assigned job
// @Tags translations
// @Produce json
// @Param id path string true "Translation ID"
// @Security Bearer
// @Success 200 {object} dto.TranslationResponse
// @Failure 502 {object} map[string]string
// @Router /api/v1/translations/{id}/machine-translate [post]
func (h *TranslationHandler) PreTranslate(c *fiber.Ctx) error {
	return h.transition(c, "machine translate", h.mt.PreTranslate)
}

type transitionFunc func(ctx context.Context, actorID, id uuid.UUID) (*models.Translation, error)

func (h *TranslationHandler) transition(c *fiber.Ctx, action string, fn transitionFunc) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	t, err := fn(c.Context(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err, action)
	}
	return c.JSON(dto.NewTranslationResponse(t))
}

// Submit godoc
// @Summary Submit a translation for review
// @Description Either a multipart upload with a file part, or a JSON body with the translated text
// @Tags translations
// @Accept multipart/form-data,json
// @Produce json
// @Param id path string true "Translation ID"
// @Param file formData file false "Translated document"
// @Param request body dto.SubmitTextRequest false "Translated text"
// @Security Bearer
// @Success 200 {object} dto.TranslationResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/translations/{id}/submit [post]
func (h *TranslationHandler) Submit(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var sub service.Submission
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File is required")
		}
		if fh.Size > h.maxUpload {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "File is too large")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Failed to open file")
		}
		defer f.Close()
		sub = service.FileSubmission{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		}
	} else {
		var req dto.SubmitTextRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		sub = service.TextSubmission{Content: req.TranslatedContent, AITranslatedContent: req.AITranslatedContent}
	}

	t, err := h.lifecycle.Submit(c.Context(), userID, id, sub)
	if err != nil {
		return respondError(c, h.logger, err, "submit translation")
	}
	return c.JSON(dto.NewTranslationResponse(t))
}

// SaveDraft godoc
// @Summary Save work in progress
// @Tags translations
// @Accept json
// @Produce json
// @Param id path string true "Translation ID"
// @Param request body dto.DraftRequest true "Draft"
// @Security Bearer
// @Success 200 {object} dto.TranslationResponse
// @Router /api/v1/translations/{id}/draft [post]
func (h *TranslationHandler) SaveDraft(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.DraftRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := h.lifecycle.SaveDraft(c.Context(), userID, id, req.TranslatedContent, req.AITranslatedContent)
	if err != nil {
		return respondError(c, h.logger, err, "save draft")
	}
	return c.JSON(dto.NewTranslationResponse(t))
}

// MachineTranslate godoc
// @Summary Translate free text
// @Tags translations
// @Accept json
// @Produce json
// @Param request body dto.MachineTranslateRequest true "Text"
// @Security Bearer
// @Success 200 {object} dto.MachineTranslateResponse
// @Failure 502 {object} map[string]string
// @Router /api/v1/machine-translate [post]
func (h *TranslationHandler) MachineTranslate(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.MachineTranslateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.mt.Translate(c.Context(), userID, req.Text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		return respondError(c, h.logger, err, "machine translate")
	}
	return c.JSON(dto.MachineTranslateResponse{Text: out})
}

// ReviewQueue godoc
// @Summary Submissions waiting for review
// @Tags admin
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {array} dto.TranslationResponse
// @Router /api/v1/admin/reviews [get]
func (h *TranslationHandler) ReviewQueue(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	list, err := h.lifecycle.ReviewQueue(c.Context(), userID, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "list reviews")
	}
	return c.JSON(dto.NewTranslationList(list))
}

// Approve godoc
// @Summary Approve a submitted translation
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Translation ID"
// @Param request body dto.ReviewRequest false "Review notes"
// @Security Bearer
// @Success 200 {object} dto.TranslationResponse
// @Failure 409 {object} map[string]string
// @Router /api/v1/admin/translations/{id}/approve [post]
func (h *TranslationHandler) Approve(c *fiber.Ctx) error {
	return h.review(c, "approve translation", h.lifecycle.Approve)
}

// Reject godoc
// @Summary Send a submission back to the translator
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Translation ID"
// @Param request body dto.ReviewRequest false "Review notes"
// @Security Bearer
// @Success 200 {object} dto.TranslationResponse
// @Failure 409 {object} map[string]string
// @Router /api/v1/admin/translations/{id}/reject [post]
func (h *TranslationHandler) Reject(c *fiber.Ctx) error {
	return h.review(c, "reject translation", h.lifecycle.Reject)
}

func (h *TranslationHandler) review(c *fiber.Ctx, action string, fn func(context.Context, uuid.UUID, uuid.UUID, *string) (*models.Translation, error)) error {
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
	t, err := fn(c.Context(), userID, id, req.Notes)
	if err != nil {
		return respondError(c, h.logger, err, action)
	}
	return c.JSON(dto.NewTranslationResponse(t))
}
