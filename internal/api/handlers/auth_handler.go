package handlers

import (
	"globaltext/internal/dto"
	"globaltext/internal/service"
	"globaltext/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	guard       *service.RouteGuard
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, guard *service.RouteGuard, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		guard:       guard,
		logger:      logger,
	}
}

// Register godoc
// @Summary Register a new profile
// @Description Create a client or translator account. Translators start unapproved.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Register(c.Context(), &req)
	if err != nil {
		return respondError(c, h.logger, err, "register")
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login godoc
// @Summary Login
// @Description Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.Context(), &req)
	if err != nil {
		return respondError(c, h.logger, err, "login")
	}

	return c.JSON(resp)
}

// RefreshToken godoc
// @Summary Refresh access token
// @Description Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.RefreshToken(c.Context(), req.RefreshToken)
	if err != nil {
		return respondError(c, h.logger, err, "refresh token")
	}

	return c.JSON(resp)
}

// Me godoc
// @Summary Current profile
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.ProfileResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	p, err := h.authService.Me(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "load profile")
	}
	return c.JSON(dto.NewProfileResponse(p))
}

// UpdateProfile godoc
// @Summary Update profile details
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.UpdateProfileRequest true "Profile details"
// @Security Bearer
// @Success 200 {object} dto.ProfileResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/auth/me [put]
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.authService.UpdateProfile(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, h.logger, err, "update profile")
	}
	return c.JSON(dto.NewProfileResponse(p))
}

// Route godoc
// @Summary Resolve a protected view
// @Description Tells the front end whether the caller may open a view that needs the given capability, or where to go instead.
// @Tags auth
// @Produce json
// @Param required query string true "client, translator or admin"
// @Success 200 {object} dto.RouteResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/me/route [get]
func (h *AuthHandler) Route(c *fiber.Ctx) error {
	var userID *uuid.UUID
	if id, ok := middleware.UserID(c); ok {
		userID = &id
	}
	decision, err := h.guard.Resolve(c.Context(), userID, service.Capability(c.Query("required")))
	if err != nil {
		return respondError(c, h.logger, err, "resolve route")
	}
	return c.JSON(dto.RouteResponse{Allow: decision.Allow, Redirect: decision.Redirect})
}

// RequireCapability rejects callers whose profile lacks the capability: 401
// when the profile is gone, 403 otherwise. It runs after AuthMiddleware.
func (h *AuthHandler) RequireCapability(capability service.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := currentUser(c)
		if err != nil {
			return err
		}
		p, err := h.authService.Me(c.Context(), userID)
		if err != nil {
			return respondError(c, h.logger, err, "load profile")
		}
		if err := (service.AccessPolicy{}).Authorize(p, capability); err != nil {
			return respondError(c, h.logger, err, "authorize")
		}
		return c.Next()
	}
}
