package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"globaltext/internal/service"
	"globaltext/pkg/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// respondError maps service errors to HTTP statuses. Anything unclassified is
// logged and reported as a generic failure.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error, action string) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrAuthentication):
		status = fiber.StatusUnauthorized
	case errors.Is(err, service.ErrPermissionDenied):
		status = fiber.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrInsufficientBalance):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUpstream):
		status = fiber.StatusBadGateway
	case errors.Is(err, service.ErrStaleState), errors.Is(err, service.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrUnsupportedMedia):
		status = fiber.StatusUnsupportedMediaType
	}

	if status == fiber.StatusInternalServerError {
		logger.Error("Failed to "+action,
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("request_id", middleware.GetRequestID(c)))
		return errorResponse(c, status, "Failed to "+action)
	}
	if status == fiber.StatusBadGateway {
		logger.Warn("Upstream failure", zap.String("action", action), zap.Error(err))
	}
	return errorResponse(c, status, err.Error())
}

// ErrorHandler is the app-wide fallback; helpers below return *fiber.Error
// values that end up here.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return errorResponse(c, code, err.Error())
}

// bind parses the body into req and runs its validate tags.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
		}
		return fiber.NewError(fiber.StatusBadRequest, "Invalid fields: "+strings.Join(fields, ", "))
	}
	return nil
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return id, nil
}

func pathID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	offset = c.QueryInt("offset", 0)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// readUpload reads a multipart file fully, refusing anything above max bytes.
func readUpload(fh *multipart.FileHeader, max int64) ([]byte, error) {
	if fh.Size > max {
		return nil, errTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, errTooLarge
	}
	return data, nil
}

var errTooLarge = errors.New("file too large")

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
