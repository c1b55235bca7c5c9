package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"globaltext/internal/models"
	"globaltext/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxChunkRunes = 6000

// Translator is a machine translation backend.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// NewTranslator builds the provider selected in config.
func NewTranslator(ctx context.Context, cfg *config.MTConfig, logger *zap.Logger) (Translator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAITranslator(cfg), nil
	case "gigachat":
		return NewGigaChatTranslator(ctx, cfg, logger)
	}
	return nil, fmt.Errorf("unknown machine translation provider %q", cfg.Provider)
}

func translationPrompt(sourceLang, targetLang string) string {
	return fmt.Sprintf("Translate the user's text from %s to %s. "+
		"Preserve paragraphs, numbers, names and formatting. "+
		"Reply with the translation only, without comments.", sourceLang, targetLang)
}

const translatorInstruction = "You are a professional document translator."

// MachineTranslationService pre-translates jobs for the assigned translator.
// Failures surface as ErrUpstream and are never retried; the translator can
// always continue manually.
type MachineTranslationService struct {
	translator Translator
	lifecycle  *LifecycleService
	profiles   ProfileStore
	timeout    time.Duration
	logger     *zap.Logger
}

func NewMachineTranslationService(translator Translator, lifecycle *LifecycleService, profiles ProfileStore, timeout time.Duration, logger *zap.Logger) *MachineTranslationService {
	return &MachineTranslationService{
		translator: translator,
		lifecycle:  lifecycle,
		profiles:   profiles,
		timeout:    timeout,
		logger:     logger,
	}
}

// Translate is the free-form translation used by the editor.
func (s *MachineTranslationService) Translate(ctx context.Context, actorID uuid.UUID, text, sourceLang, targetLang string) (string, error) {
	p, err := actor(ctx, s.profiles, actorID)
	if err != nil {
		return "", err
	}
	if err := (AccessPolicy{}).Authorize(p, CapabilityTranslator); err != nil {
		return "", err
	}
	return s.translate(ctx, text, sourceLang, targetLang)
}

// PreTranslate fills ai_translated_content of a job assigned to the caller.
func (s *MachineTranslationService) PreTranslate(ctx context.Context, actorID, id uuid.UUID) (*models.Translation, error) {
	t, err := s.lifecycle.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !t.AssignedTo(actorID) {
		return nil, fmt.Errorf("%w: translation %s is not assigned to you", ErrPermissionDenied, id)
	}

	out, err := s.translate(ctx, t.Content, t.SourceLanguage, t.TargetLanguage)
	if err != nil {
		return nil, err
	}
	return s.lifecycle.SaveDraft(ctx, actorID, id, nil, &out)
}

func (s *MachineTranslationService) translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	src, err := NormalizeLanguage(sourceLang)
	if err != nil {
		return "", err
	}
	tgt, err := NormalizeLanguage(targetLang)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", validationf("text is required")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	chunks := chunkText(text, maxChunkRunes)
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out, err := s.translator.Translate(ctx, chunk, src, tgt)
		if err != nil {
			s.logger.Warn("Machine translation failed",
				zap.String("provider", s.translator.Name()),
				zap.Error(err))
			return "", fmt.Errorf("%w: %s: %v", ErrUpstream, s.translator.Name(), err)
		}
		parts = append(parts, strings.TrimSpace(out))
	}

	s.logger.Info("Machine translation completed",
		zap.String("provider", s.translator.Name()),
		zap.String("source", src),
		zap.String("target", tgt),
		zap.Int("chunks", len(chunks)),
		zap.Duration("took", time.Since(start)))
	return strings.Join(parts, "\n\n"), nil
}

// chunkText splits on blank lines and packs paragraphs into chunks of at most
// max runes. A single paragraph longer than max is split on rune boundaries.
func chunkText(text string, max int) []string {
	var (
		chunks []string
		cur    strings.Builder
		size   int
	)
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			size = 0
		}
	}

	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		runes := []rune(para)
		for len(runes) > max {
			flush()
			chunks = append(chunks, string(runes[:max]))
			runes = runes[max:]
		}
		if size > 0 && size+2+len(runes) > max {
			flush()
		}
		if size > 0 {
			cur.WriteString("\n\n")
			size += 2
		}
		cur.WriteString(string(runes))
		size += len(runes)
	}
	flush()
	return chunks
}
