package service

import (
	"context"
	"errors"
	"fmt"

	"globaltext/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

type GigaChatTranslator struct {
	client *gigago.Client
	model  *gigago.GenerativeModel
}

func NewGigaChatTranslator(ctx context.Context, cfg *config.MTConfig, logger *zap.Logger) (*GigaChatTranslator, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.GigaChatScope),
	}
	if cfg.GigaChatInsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.GigaChatKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel("GigaChat")
	model.SystemInstruction = translatorInstruction
	model.Temperature = 0.2

	return &GigaChatTranslator{client: client, model: model}, nil
}

func (t *GigaChatTranslator) Name() string { return "gigachat" }

func (t *GigaChatTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	resp, err := t.model.Generate(ctx, []gigago.Message{
		{Role: gigago.RoleUser, Content: translationPrompt(sourceLang, targetLang) + "\n\n" + text},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func (t *GigaChatTranslator) Close() error {
	if t.client != nil {
		t.client.Close()
	}
	return nil
}
