package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"globaltext/internal/models"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// FeedChannel is the NOTIFY channel the translations trigger publishes on.
const FeedChannel = "translation_changes"

const (
	feedWindow       = 100
	subscriberBuffer = 8
)

// ChangeSource delivers raw change payloads until ctx is cancelled.
type ChangeSource interface {
	Listen(ctx context.Context, handle func(payload string)) error
}

type FeedEventKind string

const (
	FeedInserted FeedEventKind = "inserted"
	FeedUpdated  FeedEventKind = "updated"
	FeedDeleted  FeedEventKind = "deleted"
	FeedRefresh  FeedEventKind = "refresh"
)

// FeedEvent carries the full, re-queried feed and what triggered it.
type FeedEvent struct {
	Kind          FeedEventKind                  `json:"kind"`
	TranslationID *uuid.UUID                     `json:"translation_id,omitempty"`
	Items         []*models.AvailableTranslation `json:"items"`
	At            time.Time                      `json:"at"`
}

type changePayload struct {
	Op        string    `json:"op"`
	ID        uuid.UUID `json:"id"`
	Status    *string   `json:"status"`
	OldStatus *string   `json:"old_status"`
}

// FeedSubscription is a scoped handle; Release is safe to call more than once
// and must be called on every exit path.
type FeedSubscription struct {
	C       <-chan FeedEvent
	release func()
	once    sync.Once
}

func (s *FeedSubscription) Release() {
	s.once.Do(s.release)
}

// AvailabilityFeed serves pending, unclaimed translations to approved
// translators. Database notifications trigger a full re-query that is pushed
// to every subscriber; a cron job re-polls when no push arrived recently.
type AvailabilityFeed struct {
	translations TranslationStore
	profiles     ProfileStore
	source       ChangeSource
	interval     time.Duration
	logger       *zap.Logger

	mu       sync.Mutex
	subs     map[uint64]chan FeedEvent
	nextID   uint64
	lastPush time.Time
}

func NewAvailabilityFeed(
	translations TranslationStore,
	profiles ProfileStore,
	source ChangeSource,
	interval time.Duration,
	logger *zap.Logger,
) *AvailabilityFeed {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &AvailabilityFeed{
		translations: translations,
		profiles:     profiles,
		source:       source,
		interval:     interval,
		logger:       logger,
		subs:         make(map[uint64]chan FeedEvent),
	}
}

func (f *AvailabilityFeed) authorize(ctx context.Context, actorID uuid.UUID) error {
	p, err := actor(ctx, f.profiles, actorID)
	if err != nil {
		return err
	}
	return AccessPolicy{}.Authorize(p, CapabilityTranslator)
}

// List returns the feed newest first with client display names.
func (f *AvailabilityFeed) List(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*models.AvailableTranslation, error) {
	if err := f.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	items, err := f.translations.ListAvailable(ctx, limit, offset)
	if err != nil {
		return nil, fromRepo(err, "feed")
	}
	return items, nil
}

// Subscribe registers a live listener. The first event is the current feed.
func (f *AvailabilityFeed) Subscribe(ctx context.Context, actorID uuid.UUID) (*FeedSubscription, error) {
	if err := f.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	items, err := f.translations.ListAvailable(ctx, feedWindow, 0)
	if err != nil {
		return nil, fromRepo(err, "feed")
	}

	ch := make(chan FeedEvent, subscriberBuffer)
	ch <- FeedEvent{Kind: FeedRefresh, Items: items, At: time.Now().UTC()}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	f.mu.Unlock()

	return &FeedSubscription{
		C: ch,
		release: func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		},
	}, nil
}

func (f *AvailabilityFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Run consumes the change source and the polling schedule until ctx ends.
func (f *AvailabilityFeed) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", f.interval), func() { f.pollIfQuiet(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule feed poll: %w", err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	f.logger.Info("Availability feed started", zap.Duration("poll_interval", f.interval))
	if f.source == nil {
		<-ctx.Done()
		return nil
	}
	return f.source.Listen(ctx, func(payload string) { f.handleChange(ctx, payload) })
}

func (f *AvailabilityFeed) handleChange(ctx context.Context, payload string) {
	var change changePayload
	if err := sonic.UnmarshalString(payload, &change); err != nil {
		f.logger.Warn("Ignoring malformed change payload", zap.String("payload", payload), zap.Error(err))
		return
	}

	pending := string(models.StatusPending)
	touchesFeed := (change.Status != nil && *change.Status == pending) ||
		(change.OldStatus != nil && *change.OldStatus == pending)
	if !touchesFeed {
		return
	}

	kind := FeedUpdated
	switch change.Op {
	case "INSERT":
		kind = FeedInserted
	case "DELETE":
		kind = FeedDeleted
	}
	id := change.ID
	f.refresh(ctx, kind, &id)
}

func (f *AvailabilityFeed) pollIfQuiet(ctx context.Context) {
	f.mu.Lock()
	quiet := time.Since(f.lastPush) >= f.interval
	idle := len(f.subs) == 0
	f.mu.Unlock()
	if quiet && !idle {
		f.refresh(ctx, FeedRefresh, nil)
	}
}

func (f *AvailabilityFeed) refresh(ctx context.Context, kind FeedEventKind, id *uuid.UUID) {
	items, err := f.translations.ListAvailable(ctx, feedWindow, 0)
	if err != nil {
		f.logger.Error("Failed to refresh feed", zap.Error(err))
		return
	}
	f.broadcast(FeedEvent{Kind: kind, TranslationID: id, Items: items, At: time.Now().UTC()})
}

// broadcast never blocks: a slow subscriber loses its oldest queued event.
func (f *AvailabilityFeed) broadcast(ev FeedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPush = ev.At
	for _, ch := range f.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
