package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"globaltext/pkg/config"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
)

const (
	midtransTranslationPrefix  = "T-"
	midtransSubscriptionPrefix = "S-"
)

// Midtrans refuses to reuse an order_id, so each translation checkout gets a
// short attempt suffix after the record id.
func midtransTranslationOrderID(translationID string) string {
	return midtransTranslationPrefix + translationID + "-" + uuid.NewString()[:8]
}

// midtransTranslationID strips the prefix and any attempt suffix.
func midtransTranslationID(orderID string) string {
	id := strings.TrimPrefix(orderID, midtransTranslationPrefix)
	if len(id) > uuidLen && id[uuidLen] == '-' {
		return id[:uuidLen]
	}
	return id
}

const uuidLen = 36

// MidtransGateway uses Snap redirects. Midtrans has no recurring checkout in
// Snap, so a subscription order buys one billing period.
type MidtransGateway struct {
	snap      snap.Client
	serverKey string
}

func NewMidtransGateway(cfg *config.PaymentsConfig) *MidtransGateway {
	env := midtrans.Sandbox
	if cfg.MidtransProduction {
		env = midtrans.Production
	}
	g := &MidtransGateway{serverKey: cfg.MidtransServerKey}
	g.snap.New(cfg.MidtransServerKey, env)
	return g
}

func (g *MidtransGateway) Name() string { return "midtrans" }

// CreateCheckout charges gross_amount in whole currency units (IDR has no
// minor unit in Snap). Fractional amounts are refused rather than rounded.
func (g *MidtransGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if !req.Amount.Equal(req.Amount.Truncate(0)) {
		return nil, fmt.Errorf("%w: midtrans gross_amount %s is not a whole number", ErrUnsupportedAmount, req.Amount)
	}
	orderID := midtransTranslationOrderID(req.TranslationID)
	if req.Mode == ModeSubscription {
		orderID = midtransSubscriptionPrefix + uuid.NewString()
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: req.Amount.IntPart(),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
			Email: req.CustomerEmail,
		},
		CustomField1: req.UserID,
		CustomField2: req.PlanName,
	}

	resp, err := g.snap.CreateTransaction(snapReq)
	if err != nil {
		return nil, fmt.Errorf("midtrans checkout: %v", err)
	}
	return &CheckoutSession{ID: orderID, URL: resp.RedirectURL}, nil
}

type midtransNotification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	CustomField1      string `json:"custom_field1"`
	CustomField2      string `json:"custom_field2"`
}

// ParseWebhook checks signature_key inside the body; the signature argument is unused.
func (g *MidtransGateway) ParseWebhook(payload []byte, _ string) (*Event, error) {
	var n midtransNotification
	if err := sonic.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	want := MidtransSignature(n.OrderID, n.StatusCode, n.GrossAmount, g.serverKey)
	if subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(n.SignatureKey))) != 1 {
		return nil, ErrInvalidSignature
	}
	return mapMidtransNotification(n)
}

// MidtransSignature is sha512(order_id + status_code + gross_amount + server_key) in hex.
func MidtransSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func mapMidtransNotification(n midtransNotification) (*Event, error) {
	out := &Event{
		ID:     n.TransactionID,
		Raw:    n.TransactionStatus,
		Type:   EventIgnored,
		UserID: n.CustomField1,
	}

	switch {
	case strings.HasPrefix(n.OrderID, midtransTranslationPrefix):
		out.Mode = ModePayment
		out.TranslationID = midtransTranslationID(n.OrderID)
	case strings.HasPrefix(n.OrderID, midtransSubscriptionPrefix):
		out.Mode = ModeSubscription
		out.PlanName = n.CustomField2
		out.ExternalID = n.OrderID
	default:
		return out, nil
	}

	if n.GrossAmount != "" {
		amount, err := decimal.NewFromString(n.GrossAmount)
		if err != nil {
			return nil, fmt.Errorf("%w: gross_amount %q", ErrMalformedEvent, n.GrossAmount)
		}
		out.AmountPaid = amount
	}

	switch n.TransactionStatus {
	case "settlement":
		out.Type = EventCheckoutCompleted
	case "capture":
		if n.FraudStatus == "" || n.FraudStatus == "accept" {
			out.Type = EventCheckoutCompleted
		}
	case "deny", "cancel", "expire", "failure":
		if out.Mode == ModePayment {
			out.Type = EventPaymentFailed
		}
	}
	return out, nil
}
