package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"globaltext/internal/models"
	"globaltext/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memDB is a shared in-memory backing store. Each fake store below is a view
// over it, mirroring the conditional writes of the Postgres repositories.
type memDB struct {
	mu            sync.Mutex
	profiles      map[uuid.UUID]*models.Profile
	translations  map[uuid.UUID]*models.Translation
	applications  map[uuid.UUID]*models.FreelancerApplication
	subscriptions map[uuid.UUID]*models.Subscription
	withdrawals   map[uuid.UUID]*models.WithdrawalRequest
	notifications []models.Notification
}

func newMemDB() *memDB {
	return &memDB{
		profiles:      make(map[uuid.UUID]*models.Profile),
		translations:  make(map[uuid.UUID]*models.Translation),
		applications:  make(map[uuid.UUID]*models.FreelancerApplication),
		subscriptions: make(map[uuid.UUID]*models.Subscription),
		withdrawals:   make(map[uuid.UUID]*models.WithdrawalRequest),
	}
}

func (db *memDB) addProfile(role models.Role, approved bool) *models.Profile {
	db.mu.Lock()
	defer db.mu.Unlock()
	p := &models.Profile{
		ID:                   uuid.New(),
		Email:                uuid.NewString() + "@example.com",
		FirstName:            string(role),
		LastName:             "User",
		Role:                 role,
		IsApprovedTranslator: approved,
		CreatedAt:            time.Now(),
	}
	db.profiles[p.ID] = p
	return p
}

func (db *memDB) addTranslation(t *models.Translation) *models.Translation {
	db.mu.Lock()
	defer db.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	cp := *t
	db.translations[t.ID] = &cp
	return t
}

func (db *memDB) translation(id uuid.UUID) models.Translation {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.translations[id]
}

func (db *memDB) notificationsFor(userID uuid.UUID) []models.Notification {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []models.Notification
	for _, n := range db.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// profiles

type fakeProfiles struct{ db *memDB }

func (f fakeProfiles) Create(_ context.Context, p *models.Profile) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return repository.ErrDuplicate
		}
	}
	cp := *p
	f.db.profiles[p.ID] = &cp
	return nil
}

func (f fakeProfiles) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f fakeProfiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, p := range f.db.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeProfiles) List(_ context.Context, role *models.Role, _, _ int) ([]*models.Profile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*models.Profile
	for _, p := range f.db.profiles {
		if role == nil || p.Role == *role {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f fakeProfiles) CountByRole(_ context.Context) (map[models.Role]int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make(map[models.Role]int)
	for _, p := range f.db.profiles {
		out[p.Role]++
	}
	return out, nil
}

func (f fakeProfiles) UpsertAdmin(_ context.Context, p *models.Profile) (uuid.UUID, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			existing.Role = models.RoleAdmin
			existing.PasswordHash = p.PasswordHash
			return existing.ID, nil
		}
	}
	cp := *p
	cp.Role = models.RoleAdmin
	f.db.profiles[p.ID] = &cp
	return p.ID, nil
}

func (f fakeProfiles) UpdateDetails(_ context.Context, id uuid.UUID, firstName, lastName string, country, phone *string) (*models.Profile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.FirstName, p.LastName, p.Country, p.Phone = firstName, lastName, country, phone
	cp := *p
	return &cp, nil
}

// translations

type fakeTranslations struct{ db *memDB }

func (f fakeTranslations) Create(_ context.Context, t *models.Translation) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if t.SubscriptionID != nil {
		sub, ok := f.db.subscriptions[*t.SubscriptionID]
		if !ok || sub.UserID != t.UserID || !sub.Covers(t.WordCount, t.CreatedAt) {
			return repository.ErrConditionFailed
		}
		if sub.WordsRemaining != nil {
			left := *sub.WordsRemaining - t.WordCount
			sub.WordsRemaining = &left
		}
	}
	cp := *t
	f.db.translations[t.ID] = &cp
	return nil
}

func (f fakeTranslations) GetByID(_ context.Context, id uuid.UUID) (*models.Translation, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.translations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f fakeTranslations) List(_ context.Context, filter repository.TranslationFilter) ([]*models.Translation, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*models.Translation
	for _, t := range f.db.translations {
		if filter.UserID != nil && t.UserID != *filter.UserID {
			continue
		}
		if filter.TranslatorID != nil && !t.AssignedTo(*filter.TranslatorID) {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, t.Status) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f fakeTranslations) ListAvailable(_ context.Context, _, _ int) ([]*models.AvailableTranslation, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*models.AvailableTranslation
	for _, t := range f.db.translations {
		if t.Status != models.StatusPending || t.TranslatorID != nil {
			continue
		}
		name := ""
		if p, ok := f.db.profiles[t.UserID]; ok {
			name = p.DisplayName()
		}
		out = append(out, &models.AvailableTranslation{Translation: *t, ClientName: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func hasStatus(list []models.TranslationStatus, s models.TranslationStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func (f fakeTranslations) ApplyTransition(_ context.Context, id uuid.UUID, g models.TransitionGuard, p models.TranslationPatch, notifications []models.Notification) (*models.Translation, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.translations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if len(g.From) > 0 && !hasStatus(g.From, t.Status) {
		return nil, repository.ErrConditionFailed
	}
	if g.Unassigned && t.TranslatorID != nil {
		return nil, repository.ErrConditionFailed
	}
	if g.TranslatorID != nil && !t.AssignedTo(*g.TranslatorID) {
		return nil, repository.ErrConditionFailed
	}
	if g.Unpaid && (t.AmountPaid.IsPositive() || t.SubscriptionID != nil) {
		return nil, repository.ErrConditionFailed
	}

	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.TranslatorID != nil {
		id := *p.TranslatorID
		t.TranslatorID = &id
	}
	if p.ClearTranslator {
		t.TranslatorID = nil
	}
	if p.ClearWork {
		t.TranslatedContent = nil
		t.AITranslatedContent = nil
		t.TranslatedFilePath = nil
	}
	if p.TranslatedContent != nil {
		t.TranslatedContent = p.TranslatedContent
	}
	if p.AITranslatedContent != nil {
		t.AITranslatedContent = p.AITranslatedContent
	}
	if p.TranslatedFilePath != nil {
		t.TranslatedFilePath = p.TranslatedFilePath
	}
	if p.AdminReviewStatus != nil {
		t.AdminReviewStatus = p.AdminReviewStatus
	}
	if p.AdminReviewNotes != nil {
		t.AdminReviewNotes = p.AdminReviewNotes
	}
	if p.CompletedAt != nil {
		t.CompletedAt = p.CompletedAt
	}
	if p.AdminReviewedAt != nil {
		t.AdminReviewedAt = p.AdminReviewedAt
	}
	if p.AmountPaid != nil {
		t.AmountPaid = *p.AmountPaid
	}
	if p.ReopenFailed && t.Status == models.StatusPaymentFailed {
		t.Status = models.StatusPending
	}
	t.UpdatedAt = time.Now()
	f.db.notifications = append(f.db.notifications, notifications...)

	cp := *t
	return &cp, nil
}

func (f fakeTranslations) CountByStatus(_ context.Context) (map[models.TranslationStatus]int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make(map[models.TranslationStatus]int)
	for _, t := range f.db.translations {
		out[t.Status]++
	}
	return out, nil
}

func (f fakeTranslations) TotalPaid(_ context.Context) (decimal.Decimal, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	total := decimal.Zero
	for _, t := range f.db.translations {
		total = total.Add(t.AmountPaid)
	}
	return total, nil
}

// applications

type fakeApplications struct{ db *memDB }

func (f fakeApplications) Create(_ context.Context, a *models.FreelancerApplication) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.applications {
		if existing.Status == models.ApplicationPending && strings.EqualFold(existing.Email, a.Email) {
			return repository.ErrDuplicate
		}
	}
	cp := *a
	f.db.applications[a.ID] = &cp
	return nil
}

func (f fakeApplications) GetByID(_ context.Context, id uuid.UUID) (*models.FreelancerApplication, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.applications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f fakeApplications) Latest(_ context.Context, applicantID uuid.UUID) (*models.FreelancerApplication, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var latest *models.FreelancerApplication
	for _, a := range f.db.applications {
		if a.ApplicantID == applicantID && (latest == nil || a.CreatedAt.After(latest.CreatedAt)) {
			latest = a
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f fakeApplications) List(_ context.Context, status *models.ApplicationStatus, _, _ int) ([]*models.FreelancerApplication, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*models.FreelancerApplication
	for _, a := range f.db.applications {
		if status == nil || a.Status == *status {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f fakeApplications) Decide(_ context.Context, d repository.ApplicationDecision) (*models.FreelancerApplication, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.applications[d.ApplicationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if a.Status != models.ApplicationPending {
		return nil, repository.ErrConditionFailed
	}
	a.Status = d.Status
	a.ReviewedBy = &d.ReviewerID
	a.ReviewedAt = &d.DecidedAt
	a.ReviewNotes = d.Notes
	if d.Status == models.ApplicationApproved {
		p := f.db.profiles[a.ApplicantID]
		if p.Role != models.RoleAdmin {
			p.Role = models.RoleTranslator
		}
		p.IsApprovedTranslator = true
	}
	if d.Notification != nil {
		f.db.notifications = append(f.db.notifications, *d.Notification)
	}
	cp := *a
	return &cp, nil
}

func (f fakeApplications) CountPending(_ context.Context) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	n := 0
	for _, a := range f.db.applications {
		if a.Status == models.ApplicationPending {
			n++
		}
	}
	return n, nil
}

// subscriptions

type fakeSubscriptions struct{ db *memDB }

func (f fakeSubscriptions) Current(_ context.Context, userID uuid.UUID) (*models.Subscription, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range f.db.subscriptions {
		if s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeSubscriptions) Upsert(_ context.Context, s *models.Subscription) (*models.Subscription, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.subscriptions {
		if existing.ExternalID != nil && s.ExternalID != nil && *existing.ExternalID == *s.ExternalID {
			existing.Status = s.Status
			if s.WordsRemaining != nil && s.ExpiresAt != nil && existing.ExpiresAt != nil && s.ExpiresAt.After(*existing.ExpiresAt) {
				words := *s.WordsRemaining
				existing.WordsRemaining = &words
			}
			if s.ExpiresAt != nil {
				existing.ExpiresAt = s.ExpiresAt
			}
			if s.PlanName != "" {
				existing.PlanName = s.PlanName
			}
			cp := *existing
			return &cp, nil
		}
	}
	cp := *s
	f.db.subscriptions[s.ID] = &cp
	return s, nil
}

func (f fakeSubscriptions) GetByExternalID(_ context.Context, externalID string) (*models.Subscription, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range f.db.subscriptions {
		if s.ExternalID != nil && *s.ExternalID == externalID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeSubscriptions) CountActive(_ context.Context) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	n := 0
	for _, s := range f.db.subscriptions {
		if s.Active(time.Now()) {
			n++
		}
	}
	return n, nil
}

// withdrawals

type fakeWithdrawals struct{ db *memDB }

func (f fakeWithdrawals) balanceLocked(translatorID uuid.UUID) models.Balance {
	var b models.Balance
	for _, t := range f.db.translations {
		if t.Status == models.StatusCompleted && t.AssignedTo(translatorID) {
			b.Earned = b.Earned.Add(t.PriceOffered)
			b.CompletedCount++
		}
	}
	for _, w := range f.db.withdrawals {
		if w.TranslatorID != translatorID {
			continue
		}
		switch w.Status {
		case models.WithdrawalPending, models.WithdrawalApproved:
			b.Reserved = b.Reserved.Add(w.Amount)
		case models.WithdrawalCompleted:
			b.Reserved = b.Reserved.Add(w.Amount)
			b.Withdrawn = b.Withdrawn.Add(w.Amount)
		}
	}
	return b
}

func (f fakeWithdrawals) Balance(_ context.Context, translatorID uuid.UUID) (models.Balance, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.balanceLocked(translatorID), nil
}

func (f fakeWithdrawals) CreateChecked(_ context.Context, w *models.WithdrawalRequest) (models.Balance, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b := f.balanceLocked(w.TranslatorID)
	if w.Amount.GreaterThan(b.Available()) {
		return b, repository.ErrInsufficientFunds
	}
	cp := *w
	f.db.withdrawals[w.ID] = &cp
	return b, nil
}

func (f fakeWithdrawals) GetByID(_ context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	w, ok := f.db.withdrawals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f fakeWithdrawals) List(_ context.Context, translatorID *uuid.UUID, status *models.WithdrawalStatus, _, _ int) ([]*models.WithdrawalRequest, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*models.WithdrawalRequest
	for _, w := range f.db.withdrawals {
		if translatorID != nil && w.TranslatorID != *translatorID {
			continue
		}
		if status != nil && w.Status != *status {
			continue
		}
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

func (f fakeWithdrawals) Transition(_ context.Context, id uuid.UUID, from, to models.WithdrawalStatus, adminID uuid.UUID, notification func(*models.WithdrawalRequest) models.Notification) (*models.WithdrawalRequest, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	w, ok := f.db.withdrawals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if w.Status != from {
		return nil, repository.ErrConditionFailed
	}
	now := time.Now()
	w.Status = to
	w.ProcessedAt = &now
	w.ProcessedBy = &adminID
	if notification != nil {
		f.db.notifications = append(f.db.notifications, notification(w))
	}
	cp := *w
	return &cp, nil
}

func (f fakeWithdrawals) CountPending(_ context.Context) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	n := 0
	for _, w := range f.db.withdrawals {
		if w.Status == models.WithdrawalPending {
			n++
		}
	}
	return n, nil
}

// storage

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.failPut != nil {
		return s.failPut
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
	return nil
}

func (s *fakeStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(strings.NewReader(string(b))), nil
}

func (s *fakeStorage) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://storage.test/" + key, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
