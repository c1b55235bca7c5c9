package service

import (
	"context"
	"errors"
	"fmt"

	"globaltext/internal/models"
	"globaltext/internal/repository"

	"github.com/google/uuid"
)

type Capability string

const (
	CapabilityClient     Capability = "client"
	CapabilityTranslator Capability = "translator"
	CapabilityAdmin      Capability = "admin"
)

func (c Capability) Valid() bool {
	switch c {
	case CapabilityClient, CapabilityTranslator, CapabilityAdmin:
		return true
	}
	return false
}

// Front-end routes the guard can send a user to.
const (
	RouteSignIn          = "/auth"
	RouteLanding         = "/"
	RouteClientHome      = "/client/dashboard"
	RouteTranslatorHome  = "/translator/dashboard"
	RouteAdminHome       = "/admin"
	RouteTranslatorApply = "/translator/apply"
	RouteTranslatorWait  = "/translator/pending"
)

type RouteDecision struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
}

func allow() RouteDecision             { return RouteDecision{Allow: true} }
func redirect(to string) RouteDecision { return RouteDecision{Redirect: to} }

// AccessPolicy is stateless; admin is a stored role, translator capability
// additionally needs the approval flag.
type AccessPolicy struct{}

func (AccessPolicy) Authorize(p *models.Profile, c Capability) error {
	if p == nil {
		return ErrAuthentication
	}
	switch c {
	case CapabilityAdmin:
		if p.Role == models.RoleAdmin {
			return nil
		}
	case CapabilityTranslator:
		if p.Role == models.RoleTranslator && p.IsApprovedTranslator {
			return nil
		}
		if p.Role == models.RoleTranslator {
			return fmt.Errorf("%w: translator is not approved yet", ErrPermissionDenied)
		}
	case CapabilityClient:
		if p.Role == models.RoleClient {
			return nil
		}
	default:
		return fmt.Errorf("%w: unknown capability %q", ErrValidation, c)
	}
	return fmt.Errorf("%w: %s capability required", ErrPermissionDenied, c)
}

// ResolveRoute decides whether a view that needs the given capability may be
// rendered, and where to send the user if not. application is the user's latest
// freelancer application, or nil.
func (AccessPolicy) ResolveRoute(p *models.Profile, application *models.FreelancerApplication, required Capability) RouteDecision {
	if p == nil {
		return redirect(RouteSignIn)
	}

	switch required {
	case CapabilityAdmin:
		if p.Role == models.RoleAdmin {
			return allow()
		}
		return redirect(RouteLanding)

	case CapabilityTranslator:
		if p.Role != models.RoleTranslator {
			return redirect(home(p))
		}
		if p.IsApprovedTranslator {
			return allow()
		}
		if application != nil && application.Status == models.ApplicationPending {
			return redirect(RouteTranslatorWait)
		}
		return redirect(RouteTranslatorApply)

	case CapabilityClient:
		if p.Role == models.RoleClient {
			return allow()
		}
		return redirect(home(p))
	}
	return redirect(RouteLanding)
}

func home(p *models.Profile) string {
	switch p.Role {
	case models.RoleTranslator:
		return RouteTranslatorHome
	case models.RoleAdmin:
		return RouteAdminHome
	}
	return RouteClientHome
}

// RouteGuard resolves the route decision for a possibly anonymous caller.
type RouteGuard struct {
	profiles     ProfileStore
	applications ApplicationStore
}

func NewRouteGuard(profiles ProfileStore, applications ApplicationStore) *RouteGuard {
	return &RouteGuard{profiles: profiles, applications: applications}
}

// Resolve treats a nil userID, or one whose profile is gone, as signed out.
func (g *RouteGuard) Resolve(ctx context.Context, userID *uuid.UUID, required Capability) (RouteDecision, error) {
	if !required.Valid() {
		return RouteDecision{}, validationf("unknown capability %q", required)
	}
	if userID == nil {
		return AccessPolicy{}.ResolveRoute(nil, nil, required), nil
	}

	p, err := g.profiles.GetByID(ctx, *userID)
	if errors.Is(err, repository.ErrNotFound) {
		return AccessPolicy{}.ResolveRoute(nil, nil, required), nil
	}
	if err != nil {
		return RouteDecision{}, fromRepo(err, "profile")
	}

	var application *models.FreelancerApplication
	if required == CapabilityTranslator && p.Role == models.RoleTranslator && !p.IsApprovedTranslator {
		application, err = g.applications.Latest(ctx, p.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return RouteDecision{}, fromRepo(err, "application")
		}
	}
	return AccessPolicy{}.ResolveRoute(p, application, required), nil
}
