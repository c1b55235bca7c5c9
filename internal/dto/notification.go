package dto

import (
	"time"

	"globaltext/internal/models"
)

type NotificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func NewNotificationList(list []*models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, NotificationResponse{
			ID:        n.ID.String(),
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}

type StatsResponse struct {
	TranslationsByStatus map[string]int `json:"translations_by_status"`
	ProfilesByRole       map[string]int `json:"profiles_by_role"`
	ActiveSubscriptions  int            `json:"active_subscriptions"`
	PendingWithdrawals   int            `json:"pending_withdrawals"`
	PendingApplications  int            `json:"pending_applications"`
	TotalPaid            string         `json:"total_paid"`
}
