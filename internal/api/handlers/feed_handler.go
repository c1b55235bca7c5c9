package handlers

import (
	"bufio"
	"fmt"
	"time"

	"globaltext/internal/dto"
	"globaltext/internal/service"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const keepAliveInterval = 15 * time.Second

type FeedHandler struct {
	feed   *service.AvailabilityFeed
	logger *zap.Logger
}

func NewFeedHandler(feed *service.AvailabilityFeed, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, logger: logger}
}

// List godoc
// @Summary Available jobs
// @Description Pending, unclaimed translations, newest first. Approved translators only.
// @Tags feed
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {array} dto.FeedItemResponse
// @Failure 403 {object} map[string]string
// @Router /api/v1/feed [get]
func (h *FeedHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	items, err := h.feed.List(c.Context(), userID, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "list feed")
	}
	return c.JSON(dto.NewFeedList(items))
}

// Stream godoc
// @Summary Live feed
// @Description Server-sent events; every event carries the full current feed. The token may be passed as access_token query parameter.
// @Tags feed
// @Produce text/event-stream
// @Security Bearer
// @Success 200 {object} dto.FeedEventResponse
// @Failure 403 {object} map[string]string
// @Router /api/v1/feed/stream [get]
func (h *FeedHandler) Stream(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	sub, err := h.feed.Subscribe(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "subscribe to feed")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	logger := h.logger.With(zap.String("user_id", userID.String()))
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer sub.Release()
		logger.Debug("Feed stream opened")

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case ev := <-sub.C:
				if err := writeFeedEvent(w, ev); err != nil {
					logger.Debug("Feed stream closed", zap.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					logger.Debug("Feed stream closed", zap.Error(err))
					return
				}
			}
		}
	})
	return nil
}

func writeFeedEvent(w *bufio.Writer, ev service.FeedEvent) error {
	resp := dto.FeedEventResponse{
		Kind:  string(ev.Kind),
		Items: dto.NewFeedList(ev.Items),
		At:    ev.At,
	}
	if ev.TranslationID != nil {
		id := ev.TranslationID.String()
		resp.TranslationID = &id
	}
	data, err := sonic.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data); err != nil {
		return err
	}
	return w.Flush()
}
