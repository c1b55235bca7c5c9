package handlers

import (
	"time"

	"globaltext/internal/dto"
	"globaltext/internal/service"
	"globaltext/pkg/payment"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BillingHandler struct {
	billing *service.BillingService
	logger  *zap.Logger
}

func NewBillingHandler(billing *service.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{billing: billing, logger: logger}
}

// Plans godoc
// @Summary Subscription plans
// @Tags billing
// @Produce json
// @Success 200 {array} dto.PlanResponse
// @Router /api/v1/plans [get]
func (h *BillingHandler) Plans(c *fiber.Ctx) error {
	plans := h.billing.Plans()
	out := make([]dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, dto.PlanResponse{
			Name:       p.Name,
			Title:      p.Title,
			Price:      p.Price.StringFixed(2),
			Words:      p.Words,
			Unlimited:  p.Unlimited(),
			PeriodDays: p.PeriodDays,
		})
	}
	return c.JSON(out)
}

// CurrentSubscription godoc
// @Summary My current subscription
// @Tags billing
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/subscriptions/current [get]
func (h *BillingHandler) CurrentSubscription(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	sub, err := h.billing.CurrentSubscription(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "load subscription")
	}
	return c.JSON(dto.NewSubscriptionResponse(sub, time.Now()))
}

// Checkout godoc
// @Summary Start a checkout
// @Description Pays for one translation (translation_id) or subscribes to a plan (plan)
// @Tags billing
// @Accept json
// @Produce json
// @Param request body dto.CheckoutRequest true "Checkout"
// @Security Bearer
// @Success 200 {object} dto.CheckoutResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/billing/checkout [post]
func (h *BillingHandler) Checkout(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CheckoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	var sess *payment.CheckoutSession
	if req.TranslationID != "" {
		id, perr := uuid.Parse(req.TranslationID)
		if perr != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid translation_id")
		}
		sess, err = h.billing.CheckoutTranslation(c.Context(), userID, id)
	} else {
		sess, err = h.billing.CheckoutPlan(c.Context(), userID, req.Plan)
	}
	if err != nil {
		return respondError(c, h.logger, err, "create checkout")
	}
	return c.JSON(dto.CheckoutResponse{SessionID: sess.ID, URL: sess.URL})
}

// StripeWebhook godoc
// @Summary Stripe webhook
// @Tags billing
// @Accept json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200
// @Failure 401 {object} map[string]string
// @Router /api/v1/webhooks/stripe [post]
func (h *BillingHandler) StripeWebhook(c *fiber.Ctx) error {
	return h.webhook(c, "stripe", c.Get("Stripe-Signature"))
}

// MidtransWebhook godoc
// @Summary Midtrans notification
// @Tags billing
// @Accept json
// @Success 200
// @Failure 401 {object} map[string]string
// @Router /api/v1/webhooks/midtrans [post]
func (h *BillingHandler) MidtransWebhook(c *fiber.Ctx) error {
	// the signature travels inside the body
	return h.webhook(c, "midtrans", "")
}

func (h *BillingHandler) webhook(c *fiber.Ctx, gateway, signature string) error {
	payload := append([]byte(nil), c.Body()...)
	if err := h.billing.HandleWebhook(c.Context(), gateway, payload, signature); err != nil {
		return respondError(c, h.logger, err, "handle webhook")
	}
	return c.SendStatus(fiber.StatusOK)
}
