package handlers

import (
	"globaltext/internal/dto"
	"globaltext/internal/models"
	"globaltext/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WithdrawalHandler struct {
	ledger *service.BalanceLedger
	logger *zap.Logger
}

func NewWithdrawalHandler(ledger *service.BalanceLedger, logger *zap.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{ledger: ledger, logger: logger}
}

// Balance godoc
// @Summary Translator earnings
// @Tags withdrawals
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.BalanceResponse
// @Failure 403 {object} map[string]string
// @Router /api/v1/balance [get]
func (h *WithdrawalHandler) Balance(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	sum, err := h.ledger.Summary(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "load balance")
	}
	return c.JSON(dto.BalanceResponse{
		Earned:         sum.Earned.StringFixed(2),
		Pending:        sum.Pending.StringFixed(2),
		Withdrawn:      sum.Withdrawn.StringFixed(2),
		Available:      sum.Available.StringFixed(2),
		CompletedCount: sum.CompletedCount,
	})
}

// Request godoc
// @Summary Request a withdrawal
// @Tags withdrawals
// @Accept json
// @Produce json
// @Param request body dto.CreateWithdrawalRequest true "Withdrawal"
// @Security Bearer
// @Success 201 {object} dto.WithdrawalResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/withdrawals [post]
func (h *WithdrawalHandler) Request(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateWithdrawalRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	w, err := h.ledger.RequestWithdrawal(c.Context(), userID, service.WithdrawalInput{
		Amount:         req.Amount,
		PaymentMethod:  models.PaymentMethod(req.PaymentMethod),
		PaymentDetails: req.PaymentDetails,
	})
	if err != nil {
		return respondError(c, h.logger, err, "request withdrawal")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewWithdrawalResponse(w))
}

// ListMine godoc
// @Summary My withdrawal requests
// @Tags withdrawals
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.WithdrawalResponse
// @Router /api/v1/withdrawals [get]
func (h *WithdrawalHandler) ListMine(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	list, err := h.ledger.ListMine(c.Context(), userID, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "list withdrawals")
	}
	return c.JSON(dto.NewWithdrawalList(list))
}

// ListAll godoc
// @Summary All withdrawal requests
// @Tags admin
// @Produce json
// @Param status query string false "pending, approved, completed or rejected"
// @Security Bearer
// @Success 200 {array} dto.WithdrawalResponse
// @Router /api/v1/admin/withdrawals [get]
func (h *WithdrawalHandler) ListAll(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var status *models.WithdrawalStatus
	if s := c.Query("status"); s != "" {
		st := models.WithdrawalStatus(s)
		status = &st
	}
	limit, offset := pagination(c)
	list, err := h.ledger.ListAll(c.Context(), userID, status, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "list withdrawals")
	}
	return c.JSON(dto.NewWithdrawalList(list))
}

// Complete godoc
// @Summary Mark a withdrawal as paid
// @Tags admin
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Security Bearer
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 409 {object} map[string]string
// @Router /api/v1/admin/withdrawals/{id}/complete [post]
func (h *WithdrawalHandler) Complete(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	w, err := h.ledger.MarkCompleted(c.Context(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err, "complete withdrawal")
	}
	return c.JSON(dto.NewWithdrawalResponse(w))
}

// Reject godoc
// @Summary Reject a withdrawal
// @Tags admin
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Security Bearer
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 409 {object} map[string]string
// @Router /api/v1/admin/withdrawals/{id}/reject [post]
func (h *WithdrawalHandler) Reject(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	w, err := h.ledger.Reject(c.Context(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err, "reject withdrawal")
	}
	return c.JSON(dto.NewWithdrawalResponse(w))
}
