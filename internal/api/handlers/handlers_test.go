package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"globaltext/internal/models"
	"globaltext/internal/repository"
	"globaltext/internal/service"
	"globaltext/pkg/middleware"
	"globaltext/pkg/payment"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: ErrorHandler,
	})
}

func readError(t *testing.T, body io.Reader) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		t.Fatalf("body %q is not an error response: %v", raw, err)
	}
	return out.Error
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"authentication", fmt.Errorf("%w: session expired", service.ErrAuthentication), 401, ""},
		{"permission", fmt.Errorf("%w: admin only", service.ErrPermissionDenied), 403, ""},
		{"not found", fmt.Errorf("%w: translation", service.ErrNotFound), 404, ""},
		{"validation", fmt.Errorf("%w: amount must be positive", service.ErrValidation), 400, ""},
		{"insufficient balance", service.ErrInsufficientBalance, 422, ""},
		{"upstream", fmt.Errorf("%w: minio down", service.ErrUpstream), 502, ""},
		{"stale", fmt.Errorf("%w: job moved", service.ErrStaleState), 409, ""},
		{"conflict", fmt.Errorf("%w: email taken", service.ErrConflict), 409, ""},
		{"unsupported media", service.ErrUnsupportedMedia, 415, ""},
		{"internal", errors.New("connection reset"), 500, "Failed to do thing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			app.Get("/", func(c *fiber.Ctx) error {
				return respondError(c, zap.NewNop(), tt.err, "do thing")
			})
			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			want := tt.message
			if want == "" {
				want = tt.err.Error()
			}
			if got := readError(t, resp.Body); got != want {
				t.Errorf("error = %q, want %q", got, want)
			}
		})
	}
}

type bindTarget struct {
	Amount string `json:"amount" validate:"required"`
	Method string `json:"method" validate:"required,oneof=pix bank_transfer"`
}

func TestBind(t *testing.T) {
	app := newTestApp()
	app.Post("/", func(c *fiber.Ctx) error {
		var req bindTarget
		if err := bind(c, &req); err != nil {
			return err
		}
		return c.SendString(req.Method)
	})

	tests := []struct {
		name     string
		body     string
		status   int
		contains string
	}{
		{"valid", `{"amount":"10.00","method":"pix"}`, 200, ""},
		{"malformed json", `{"amount":`, 400, "Invalid request body"},
		{"missing field", `{"method":"pix"}`, 400, "Amount (required)"},
		{"bad enum", `{"amount":"1","method":"cash"}`, 400, "Method (oneof)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.contains != "" {
				if got := readError(t, resp.Body); !strings.Contains(got, tt.contains) {
					t.Errorf("error = %q, want it to contain %q", got, tt.contains)
				}
			}
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query         string
		limit, offset int
	}{
		{"", 20, 0},
		{"?limit=50&offset=10", 50, 10},
		{"?limit=500", 20, 0},
		{"?limit=0&offset=-4", 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			app := newTestApp()
			app.Get("/", func(c *fiber.Ctx) error {
				limit, offset := pagination(c)
				if limit != tt.limit || offset != tt.offset {
					t.Errorf("pagination = (%d, %d), want (%d, %d)", limit, offset, tt.limit, tt.offset)
				}
				return nil
			})
			if _, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil)); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	app := newTestApp()
	app.Get("/:id", func(c *fiber.Ctx) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		return c.SendString(id.String())
	})

	id := uuid.New()
	resp, err := app.Test(httptest.NewRequest("GET", "/"+id.String(), nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("valid id status = %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/not-a-uuid", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("invalid id status = %d, want 400", resp.StatusCode)
	}
}

// profileStub is the minimum ProfileStore the auth handler needs.
type profileStub struct {
	byID map[uuid.UUID]*models.Profile
}

func (s *profileStub) Create(context.Context, *models.Profile) error { return nil }

func (s *profileStub) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (s *profileStub) GetByEmail(context.Context, string) (*models.Profile, error) {
	return nil, repository.ErrNotFound
}

func (s *profileStub) List(context.Context, *models.Role, int, int) ([]*models.Profile, error) {
	return nil, nil
}

func (s *profileStub) CountByRole(context.Context) (map[models.Role]int, error) { return nil, nil }

func (s *profileStub) UpsertAdmin(context.Context, *models.Profile) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (s *profileStub) UpdateDetails(context.Context, uuid.UUID, string, string, *string, *string) (*models.Profile, error) {
	return nil, repository.ErrNotFound
}

func TestRequireCapability(t *testing.T) {
	client := &models.Profile{ID: uuid.New(), Role: models.RoleClient}
	pending := &models.Profile{ID: uuid.New(), Role: models.RoleTranslator}
	approved := &models.Profile{ID: uuid.New(), Role: models.RoleTranslator, IsApprovedTranslator: true}
	admin := &models.Profile{ID: uuid.New(), Role: models.RoleAdmin}
	store := &profileStub{byID: map[uuid.UUID]*models.Profile{
		client.ID: client, pending.ID: pending, approved.ID: approved, admin.ID: admin,
	}}
	h := NewAuthHandler(service.NewAuthService(store, nil, zap.NewNop()), nil, zap.NewNop())

	tests := []struct {
		name       string
		caller     *uuid.UUID
		capability service.Capability
		status     int
	}{
		{"anonymous", nil, service.CapabilityTranslator, 401},
		{"deleted profile", ptr(uuid.New()), service.CapabilityTranslator, 401},
		{"client on feed", &client.ID, service.CapabilityTranslator, 403},
		{"unapproved translator on feed", &pending.ID, service.CapabilityTranslator, 403},
		{"approved translator on feed", &approved.ID, service.CapabilityTranslator, 200},
		{"translator on admin", &approved.ID, service.CapabilityAdmin, 403},
		{"admin on admin", &admin.ID, service.CapabilityAdmin, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			app.Use(func(c *fiber.Ctx) error {
				if tt.caller != nil {
					c.Locals(middleware.LocalUserID, *tt.caller)
				}
				return c.Next()
			})
			app.Get("/", h.RequireCapability(tt.capability), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})
			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

// signedGateway accepts payloads signed "ok" and ignores every event.
type signedGateway struct{}

func (signedGateway) Name() string { return "stripe" }

func (signedGateway) CreateCheckout(context.Context, payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	return &payment.CheckoutSession{ID: "cs_test", URL: "https://pay.example/cs_test"}, nil
}

func (signedGateway) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	if signature != "ok" {
		return nil, payment.ErrInvalidSignature
	}
	if len(payload) == 0 {
		return nil, payment.ErrMalformedEvent
	}
	return &payment.Event{ID: "evt_1", Type: payment.EventIgnored, Raw: "invoice.created"}, nil
}

func newBillingHandler(t *testing.T) *BillingHandler {
	t.Helper()
	plans, err := service.LoadPlanCatalog("")
	if err != nil {
		t.Fatal(err)
	}
	billing := service.NewBillingService(signedGateway{}, nil, plans, nil, nil, nil, nil, "brl", zap.NewNop())
	return NewBillingHandler(billing, zap.NewNop())
}

func TestPlans(t *testing.T) {
	h := newBillingHandler(t)
	app := newTestApp()
	app.Get("/plans", h.Plans)

	resp, err := app.Test(httptest.NewRequest("GET", "/plans", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var plans []map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if err := sonic.Unmarshal(raw, &plans); err != nil {
		t.Fatal(err)
	}
	if len(plans) == 0 {
		t.Fatal("no plans returned")
	}
	for _, p := range plans {
		price, _ := p["price"].(string)
		if !strings.Contains(price, ".") {
			t.Errorf("plan %v price %q is not fixed to cents", p["name"], price)
		}
	}
}

func TestStripeWebhook(t *testing.T) {
	h := newBillingHandler(t)
	app := newTestApp()
	app.Post("/webhooks/stripe", h.StripeWebhook)
	app.Post("/webhooks/midtrans", h.MidtransWebhook)

	tests := []struct {
		name      string
		path      string
		signature string
		body      string
		status    int
	}{
		{"valid", "/webhooks/stripe", "ok", `{"id":"evt_1"}`, 200},
		{"bad signature", "/webhooks/stripe", "forged", `{"id":"evt_1"}`, 401},
		{"empty payload", "/webhooks/stripe", "ok", "", 400},
		{"gateway not configured", "/webhooks/midtrans", "", `{"order_id":"x"}`, 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Stripe-Signature", tt.signature)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}
