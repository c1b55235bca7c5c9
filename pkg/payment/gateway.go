package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")

	// ErrUnsupportedAmount is returned by gateways that cannot charge the
	// requested amount exactly in the configured currency.
	ErrUnsupportedAmount = errors.New("amount not supported by gateway")
)

type Mode string

const (
	ModePayment      Mode = "payment"
	ModeSubscription Mode = "subscription"
)

type CheckoutRequest struct {
	Mode          Mode
	Amount        decimal.Decimal
	Currency      string
	Description   string
	CustomerEmail string
	CustomerName  string
	UserID        string
	TranslationID string
	PlanName      string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type EventType string

const (
	EventCheckoutCompleted    EventType = "checkout_completed"
	EventPaymentFailed        EventType = "payment_failed"
	EventSubscriptionUpserted EventType = "subscription_upserted"
	EventSubscriptionDeleted  EventType = "subscription_deleted"
	EventIgnored              EventType = "ignored"
)

// Event is a provider webhook reduced to what the marketplace acts on.
type Event struct {
	ID            string
	Type          EventType
	Raw           string
	Mode          Mode
	UserID        string
	TranslationID string
	PlanName      string
	AmountPaid    decimal.Decimal
	ExternalID    string
	Status        string
	PeriodEnd     *time.Time
}

type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseWebhook verifies the payload and maps it to an Event.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
