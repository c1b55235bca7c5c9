package dto

import (
	"time"

	"globaltext/internal/models"
)

type CreateTranslationRequest struct {
	DocumentName   string `form:"document_name" validate:"max=255"`
	SourceLanguage string `form:"source_language" validate:"required,max=35"`
	TargetLanguage string `form:"target_language" validate:"required,max=35"`
}

type SubmitTextRequest struct {
	TranslatedContent   string  `json:"translated_content" validate:"required"`
	AITranslatedContent *string `json:"ai_translated_content,omitempty"`
}

type DraftRequest struct {
	TranslatedContent   *string `json:"translated_content,omitempty"`
	AITranslatedContent *string `json:"ai_translated_content,omitempty"`
}

type ReviewRequest struct {
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

type MachineTranslateRequest struct {
	Text           string `json:"text" validate:"required,max=200000"`
	SourceLanguage string `json:"source_language" validate:"required,max=35"`
	TargetLanguage string `json:"target_language" validate:"required,max=35"`
}

type MachineTranslateResponse struct {
	Text string `json:"text"`
}

type FileURLResponse struct {
	URL string `json:"url"`
}

type TranslationResponse struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	TranslatorID        *string    `json:"translator_id,omitempty"`
	DocumentName        string     `json:"document_name"`
	SourceLanguage      string     `json:"source_language"`
	TargetLanguage      string     `json:"target_language"`
	WordCount           int        `json:"word_count"`
	Content             string     `json:"content,omitempty"`
	TranslatedContent   *string    `json:"translated_content,omitempty"`
	AITranslatedContent *string    `json:"ai_translated_content,omitempty"`
	HasTranslatedFile   bool       `json:"has_translated_file"`
	PriceOffered        string     `json:"price_offered"`
	AmountPaid          string     `json:"amount_paid"`
	SubscriptionID      *string    `json:"subscription_id,omitempty"`
	Status              string     `json:"status"`
	AdminReviewStatus   *string    `json:"admin_review_status,omitempty"`
	AdminReviewNotes    *string    `json:"admin_review_notes,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	AdminReviewedAt     *time.Time `json:"admin_reviewed_at,omitempty"`
}

func NewTranslationResponse(t *models.Translation) TranslationResponse {
	resp := TranslationResponse{
		ID:                  t.ID.String(),
		UserID:              t.UserID.String(),
		DocumentName:        t.DocumentName,
		SourceLanguage:      t.SourceLanguage,
		TargetLanguage:      t.TargetLanguage,
		WordCount:           t.WordCount,
		Content:             t.Content,
		TranslatedContent:   t.TranslatedContent,
		AITranslatedContent: t.AITranslatedContent,
		HasTranslatedFile:   t.TranslatedFilePath != nil,
		PriceOffered:        t.PriceOffered.StringFixed(2),
		AmountPaid:          t.AmountPaid.StringFixed(2),
		Status:              string(t.Status),
		AdminReviewNotes:    t.AdminReviewNotes,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
		CompletedAt:         t.CompletedAt,
		AdminReviewedAt:     t.AdminReviewedAt,
	}
	if t.TranslatorID != nil {
		id := t.TranslatorID.String()
		resp.TranslatorID = &id
	}
	if t.SubscriptionID != nil {
		id := t.SubscriptionID.String()
		resp.SubscriptionID = &id
	}
	if t.AdminReviewStatus != nil {
		s := string(*t.AdminReviewStatus)
		resp.AdminReviewStatus = &s
	}
	return resp
}

func NewTranslationList(list []*models.Translation) []TranslationResponse {
	out := make([]TranslationResponse, 0, len(list))
	for _, t := range list {
		out = append(out, NewTranslationResponse(t))
	}
	return out
}

// FeedItemResponse omits the document body; translators see it after claiming.
type FeedItemResponse struct {
	ID             string    `json:"id"`
	DocumentName   string    `json:"document_name"`
	SourceLanguage string    `json:"source_language"`
	TargetLanguage string    `json:"target_language"`
	WordCount      int       `json:"word_count"`
	PriceOffered   string    `json:"price_offered"`
	ClientName     string    `json:"client_name"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewFeedList(list []*models.AvailableTranslation) []FeedItemResponse {
	out := make([]FeedItemResponse, 0, len(list))
	for _, a := range list {
		out = append(out, FeedItemResponse{
			ID:             a.ID.String(),
			DocumentName:   a.DocumentName,
			SourceLanguage: a.SourceLanguage,
			TargetLanguage: a.TargetLanguage,
			WordCount:      a.WordCount,
			PriceOffered:   a.PriceOffered.StringFixed(2),
			ClientName:     a.ClientName,
			CreatedAt:      a.CreatedAt,
		})
	}
	return out
}

type FeedEventResponse struct {
	Kind          string             `json:"kind"`
	TranslationID *string            `json:"translation_id,omitempty"`
	Items         []FeedItemResponse `json:"items"`
	At            time.Time          `json:"at"`
}

type QuoteResponse struct {
	WordCount    int    `json:"word_count"`
	MIME         string `json:"mime"`
	Price        string `json:"price"`
	PricePerWord string `json:"price_per_word"`
	Currency     string `json:"currency"`
	Covered      bool   `json:"covered_by_subscription"`
	Preview      string `json:"preview"`
}
