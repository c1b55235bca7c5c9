package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"globaltext/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestFeed(db *memDB) *AvailabilityFeed {
	return NewAvailabilityFeed(fakeTranslations{db}, fakeProfiles{db}, nil, time.Minute, zap.NewNop())
}

func receive(t *testing.T, ch <-chan FeedEvent) FeedEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no feed event")
	}
	return FeedEvent{}
}

func TestFeedSubscribeSendsSnapshot(t *testing.T) {
	db := newMemDB()
	feed := newTestFeed(db)
	translator := db.addProfile(models.RoleTranslator, true)
	client := db.addProfile(models.RoleClient, false)
	db.addTranslation(&models.Translation{UserID: client.ID, Status: models.StatusPending, PriceOffered: decimal.NewFromInt(8)})
	db.addTranslation(&models.Translation{UserID: client.ID, Status: models.StatusInProgress, TranslatorID: &translator.ID})

	sub, err := feed.Subscribe(context.Background(), translator.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Release()

	ev := receive(t, sub.C)
	if ev.Kind != FeedRefresh || len(ev.Items) != 1 {
		t.Fatalf("snapshot = %s with %d items", ev.Kind, len(ev.Items))
	}
	if ev.Items[0].ClientName == "" {
		t.Error("feed rows should carry the client display name")
	}
}

func TestFeedRequiresApprovedTranslator(t *testing.T) {
	db := newMemDB()
	feed := newTestFeed(db)
	for _, p := range []*models.Profile{
		db.addProfile(models.RoleTranslator, false),
		db.addProfile(models.RoleClient, false),
	} {
		if _, err := feed.Subscribe(context.Background(), p.ID); !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("Subscribe(%s) error = %v", p.Role, err)
		}
		if _, err := feed.List(context.Background(), p.ID, 10, 0); !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("List(%s) error = %v", p.Role, err)
		}
	}
	if feed.Subscribers() != 0 {
		t.Error("denied callers must not be registered")
	}
}

func TestFeedHandleChange(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    FeedEventKind
	}{
		{"insert pending", `{"op":"INSERT","id":"8c7f4a7e-3f51-4b0e-9c53-0b7a3f0a1a11","status":"pending"}`, FeedInserted},
		{"claimed", `{"op":"UPDATE","id":"8c7f4a7e-3f51-4b0e-9c53-0b7a3f0a1a11","status":"in_progress","old_status":"pending"}`, FeedUpdated},
		{"deleted", `{"op":"DELETE","id":"8c7f4a7e-3f51-4b0e-9c53-0b7a3f0a1a11","old_status":"pending"}`, FeedDeleted},
		{"not on the feed", `{"op":"UPDATE","id":"8c7f4a7e-3f51-4b0e-9c53-0b7a3f0a1a11","status":"completed","old_status":"pending_admin_review"}`, ""},
		{"garbage", `not json`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newMemDB()
			feed := newTestFeed(db)
			translator := db.addProfile(models.RoleTranslator, true)
			sub, err := feed.Subscribe(context.Background(), translator.ID)
			if err != nil {
				t.Fatal(err)
			}
			defer sub.Release()
			receive(t, sub.C)

			feed.handleChange(context.Background(), tt.payload)

			select {
			case ev := <-sub.C:
				if tt.want == "" {
					t.Fatalf("unexpected event %s", ev.Kind)
				}
				if ev.Kind != tt.want || ev.TranslationID == nil {
					t.Errorf("event = %+v, want %s", ev, tt.want)
				}
			default:
				if tt.want != "" {
					t.Fatalf("expected a %s event", tt.want)
				}
			}
		})
	}
}

func TestFeedBroadcastDropsOldest(t *testing.T) {
	db := newMemDB()
	feed := newTestFeed(db)
	translator := db.addProfile(models.RoleTranslator, true)
	sub, err := feed.Subscribe(context.Background(), translator.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Release()

	base := time.Now()
	for i := 0; i < subscriberBuffer+3; i++ {
		feed.broadcast(FeedEvent{Kind: FeedUpdated, At: base.Add(time.Duration(i) * time.Second)})
	}

	var last FeedEvent
	n := 0
	for len(sub.C) > 0 {
		last = <-sub.C
		n++
	}
	if n != subscriberBuffer {
		t.Errorf("queued = %d, want %d", n, subscriberBuffer)
	}
	if want := base.Add(time.Duration(subscriberBuffer+2) * time.Second); !last.At.Equal(want) {
		t.Errorf("newest event was dropped: got %v", last.At)
	}
}

func TestFeedReleaseIsIdempotent(t *testing.T) {
	db := newMemDB()
	feed := newTestFeed(db)
	translator := db.addProfile(models.RoleTranslator, true)
	a, _ := feed.Subscribe(context.Background(), translator.ID)
	b, _ := feed.Subscribe(context.Background(), translator.ID)
	if feed.Subscribers() != 2 {
		t.Fatalf("Subscribers() = %d", feed.Subscribers())
	}
	a.Release()
	a.Release()
	if feed.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d after release, want 1", feed.Subscribers())
	}
	b.Release()
	if feed.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d", feed.Subscribers())
	}
}

type stubSource struct{ payloads []string }

func (s stubSource) Listen(ctx context.Context, handle func(string)) error {
	for _, p := range s.payloads {
		handle(p)
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestFeedRunForwardsSourceChanges(t *testing.T) {
	db := newMemDB()
	source := stubSource{payloads: []string{`{"op":"INSERT","id":"8c7f4a7e-3f51-4b0e-9c53-0b7a3f0a1a11","status":"pending"}`}}
	feed := NewAvailabilityFeed(fakeTranslations{db}, fakeProfiles{db}, source, time.Hour, zap.NewNop())
	translator := db.addProfile(models.RoleTranslator, true)
	sub, err := feed.Subscribe(context.Background(), translator.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Release()
	receive(t, sub.C)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()

	if ev := receive(t, sub.C); ev.Kind != FeedInserted {
		t.Errorf("kind = %s", ev.Kind)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v", err)
	}
}
