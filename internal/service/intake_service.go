package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"globaltext/internal/models"
	"globaltext/internal/repository"
	"globaltext/pkg/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Quote struct {
	Extraction
	Price        decimal.Decimal `json:"price"`
	PricePerWord decimal.Decimal `json:"price_per_word"`
	Currency     string          `json:"currency"`
	// Covered is true when the caller's subscription would absorb the words.
	Covered bool `json:"covered_by_subscription"`
}

type IntakeInput struct {
	DocumentName   string
	SourceLanguage string
	TargetLanguage string
	FileName       string
	ContentType    string
	Data           []byte
}

// IntakeService turns a client upload into a pending translation job.
type IntakeService struct {
	translations  TranslationStore
	subscriptions SubscriptionStore
	profiles      ProfileStore
	extractor     *ExtractionService
	storage       ObjectStorage
	pricePerWord  decimal.Decimal
	currency      string
	logger        *zap.Logger
	now           func() time.Time
}

func NewIntakeService(
	translations TranslationStore,
	subscriptions SubscriptionStore,
	profiles ProfileStore,
	extractor *ExtractionService,
	storage ObjectStorage,
	pricePerWord decimal.Decimal,
	currency string,
	logger *zap.Logger,
) *IntakeService {
	return &IntakeService{
		translations:  translations,
		subscriptions: subscriptions,
		profiles:      profiles,
		extractor:     extractor,
		storage:       storage,
		pricePerWord:  pricePerWord,
		currency:      currency,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Price is words x rate rounded half-up to cents.
func Price(words int, rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(words))).Round(2)
}

func (s *IntakeService) client(ctx context.Context, actorID uuid.UUID) (*models.Profile, error) {
	p, err := actor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}
	if err := (AccessPolicy{}).Authorize(p, CapabilityClient); err != nil {
		return nil, err
	}
	return p, nil
}

// coveringSubscription returns the caller's subscription if it can absorb the words.
func (s *IntakeService) coveringSubscription(ctx context.Context, userID uuid.UUID, words int) (*models.Subscription, error) {
	sub, err := s.subscriptions.Current(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fromRepo(err, "subscription")
	}
	if !sub.Covers(words, s.now()) {
		return nil, nil
	}
	return sub, nil
}

func (s *IntakeService) Quote(ctx context.Context, actorID uuid.UUID, data []byte, fileName string) (*Quote, error) {
	p, err := s.client(ctx, actorID)
	if err != nil {
		return nil, err
	}
	ex, err := s.extractor.Extract(ctx, data, fileName)
	if err != nil {
		return nil, err
	}
	sub, err := s.coveringSubscription(ctx, p.ID, ex.WordCount)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Extraction:   *ex,
		Price:        Price(ex.WordCount, s.pricePerWord),
		PricePerWord: s.pricePerWord,
		Currency:     s.currency,
		Covered:      sub != nil,
	}, nil
}

// Create extracts, stores the original and records the job as pending. Words are
// debited from an active subscription when it covers them.
func (s *IntakeService) Create(ctx context.Context, actorID uuid.UUID, in IntakeInput) (*models.Translation, error) {
	p, err := s.client(ctx, actorID)
	if err != nil {
		return nil, err
	}

	src, err := NormalizeLanguage(in.SourceLanguage)
	if err != nil {
		return nil, err
	}
	tgt, err := NormalizeLanguage(in.TargetLanguage)
	if err != nil {
		return nil, err
	}
	if src == tgt {
		return nil, validationf("source and target language must differ")
	}
	name := strings.TrimSpace(in.DocumentName)
	if name == "" {
		name = in.FileName
	}

	ex, err := s.extractor.Extract(ctx, in.Data, in.FileName)
	if err != nil {
		return nil, err
	}

	key := storage.ObjectKey("originals", p.ID, in.FileName)
	if err := s.storage.Upload(ctx, key, bytes.NewReader(in.Data), int64(len(in.Data)), ex.MIME); err != nil {
		return nil, fmt.Errorf("%w: failed to store document: %v", ErrUpstream, err)
	}

	now := s.now()
	t := &models.Translation{
		ID:             uuid.New(),
		UserID:         p.ID,
		DocumentName:   name,
		SourceLanguage: src,
		TargetLanguage: tgt,
		WordCount:      ex.WordCount,
		Content:        ex.Text,
		FilePath:       key,
		PriceOffered:   Price(ex.WordCount, s.pricePerWord),
		AmountPaid:     decimal.Zero,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	sub, err := s.coveringSubscription(ctx, p.ID, ex.WordCount)
	if err != nil {
		s.discard(key)
		return nil, err
	}
	if sub != nil {
		t.SubscriptionID = &sub.ID
	}

	err = s.translations.Create(ctx, t)
	if errors.Is(err, repository.ErrConditionFailed) && t.SubscriptionID != nil {
		// the allowance ran out between the check and the debit
		s.logger.Info("Subscription no longer covers document, creating unpaid job",
			zap.String("subscription_id", t.SubscriptionID.String()))
		t.SubscriptionID = nil
		err = s.translations.Create(ctx, t)
	}
	if err != nil {
		s.discard(key)
		return nil, fromRepo(err, "translation")
	}

	s.logger.Info("Translation created",
		zap.String("translation_id", t.ID.String()),
		zap.String("user_id", p.ID.String()),
		zap.Int("words", t.WordCount),
		zap.String("price", t.PriceOffered.StringFixed(2)),
		zap.Bool("subscription", t.SubscriptionID != nil))
	return t, nil
}

func (s *IntakeService) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to remove orphaned upload", zap.String("key", key), zap.Error(err))
	}
}
