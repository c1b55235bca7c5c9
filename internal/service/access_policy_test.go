package service

import (
	"context"
	"errors"
	"testing"

	"globaltext/internal/models"

	"github.com/google/uuid"
)

func TestAuthorize(t *testing.T) {
	client := &models.Profile{Role: models.RoleClient}
	pendingTranslator := &models.Profile{Role: models.RoleTranslator}
	translator := &models.Profile{Role: models.RoleTranslator, IsApprovedTranslator: true}
	admin := &models.Profile{Role: models.RoleAdmin}

	tests := []struct {
		name    string
		profile *models.Profile
		cap     Capability
		want    error
	}{
		{"anonymous", nil, CapabilityClient, ErrAuthentication},
		{"client as client", client, CapabilityClient, nil},
		{"client as translator", client, CapabilityTranslator, ErrPermissionDenied},
		{"client as admin", client, CapabilityAdmin, ErrPermissionDenied},
		{"unapproved translator", pendingTranslator, CapabilityTranslator, ErrPermissionDenied},
		{"approved translator", translator, CapabilityTranslator, nil},
		{"translator as client", translator, CapabilityClient, ErrPermissionDenied},
		{"admin", admin, CapabilityAdmin, nil},
		{"admin is not a translator", admin, CapabilityTranslator, ErrPermissionDenied},
		{"unknown capability", admin, Capability("root"), ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AccessPolicy{}.Authorize(tt.profile, tt.cap)
			if tt.want == nil && err != nil {
				t.Fatalf("Authorize() error = %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("Authorize() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestResolveRoute(t *testing.T) {
	client := &models.Profile{Role: models.RoleClient}
	unapproved := &models.Profile{Role: models.RoleTranslator}
	translator := &models.Profile{Role: models.RoleTranslator, IsApprovedTranslator: true}
	admin := &models.Profile{Role: models.RoleAdmin}
	pending := &models.FreelancerApplication{Status: models.ApplicationPending}
	rejected := &models.FreelancerApplication{Status: models.ApplicationRejected}

	tests := []struct {
		name        string
		profile     *models.Profile
		application *models.FreelancerApplication
		required    Capability
		want        RouteDecision
	}{
		{"signed out", nil, nil, CapabilityClient, RouteDecision{Redirect: RouteSignIn}},
		{"client home", client, nil, CapabilityClient, RouteDecision{Allow: true}},
		{"client on translator view", client, nil, CapabilityTranslator, RouteDecision{Redirect: RouteClientHome}},
		{"translator on client view", translator, nil, CapabilityClient, RouteDecision{Redirect: RouteTranslatorHome}},
		{"approved translator", translator, nil, CapabilityTranslator, RouteDecision{Allow: true}},
		{"waiting for approval", unapproved, pending, CapabilityTranslator, RouteDecision{Redirect: RouteTranslatorWait}},
		{"never applied", unapproved, nil, CapabilityTranslator, RouteDecision{Redirect: RouteTranslatorApply}},
		{"rejected applicant", unapproved, rejected, CapabilityTranslator, RouteDecision{Redirect: RouteTranslatorApply}},
		{"non admin on admin view", client, nil, CapabilityAdmin, RouteDecision{Redirect: RouteLanding}},
		{"admin", admin, nil, CapabilityAdmin, RouteDecision{Allow: true}},
		{"admin on client view", admin, nil, CapabilityClient, RouteDecision{Redirect: RouteAdminHome}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (AccessPolicy{}).ResolveRoute(tt.profile, tt.application, tt.required); got != tt.want {
				t.Errorf("ResolveRoute() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRouteGuardLooksUpApplication(t *testing.T) {
	db := newMemDB()
	guard := NewRouteGuard(fakeProfiles{db}, fakeApplications{db})
	applicant := db.addProfile(models.RoleTranslator, false)
	db.applications[uuid.New()] = &models.FreelancerApplication{ApplicantID: applicant.ID, Status: models.ApplicationPending}

	got, err := guard.Resolve(context.Background(), &applicant.ID, CapabilityTranslator)
	if err != nil {
		t.Fatal(err)
	}
	if got.Redirect != RouteTranslatorWait {
		t.Errorf("Resolve() = %+v", got)
	}

	gone := uuid.New()
	got, err = guard.Resolve(context.Background(), &gone, CapabilityClient)
	if err != nil || got.Redirect != RouteSignIn {
		t.Errorf("Resolve(deleted) = %+v, %v", got, err)
	}
	if _, err := guard.Resolve(context.Background(), nil, Capability("x")); !errors.Is(err, ErrValidation) {
		t.Errorf("bad capability error = %v", err)
	}
}
