package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// Extraction is the text pulled out of an uploaded document.
type Extraction struct {
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
	MIME      string `json:"mime"`
}

type textExtractor func(data []byte) (string, error)

var documentTypes = []string{
	"application/pdf",
	"application/epub+zip",
	"application/vnd.ms-xpsdocument",
	"application/oxps",
}

var imageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/tiff",
	"image/bmp",
}

type ExtractionService struct {
	documentText textExtractor
	imageText    textExtractor
	logger       *zap.Logger
}

// NewExtractionService uses MuPDF for paged documents and Tesseract for images.
func NewExtractionService(ocrLanguages []string, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{
		documentText: fitzText,
		imageText:    tesseractText(ocrLanguages),
		logger:       logger,
	}
}

// Extract sniffs the content type and returns the document text with its word
// count. Unsupported types fail with ErrUnsupportedMedia.
func (s *ExtractionService) Extract(ctx context.Context, data []byte, fileName string) (*Extraction, error) {
	if len(data) == 0 {
		return nil, validationf("file is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mime := mimetype.Detect(data)
	var (
		text   string
		err    error
		method string
	)
	switch {
	case mime.Is("text/plain"):
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: text file is not UTF-8", ErrUnsupportedMedia)
		}
		text, method = string(data), "plain"
	case matchesAny(mime, documentTypes):
		text, err = s.documentText(data)
		method = "go-fitz"
	case matchesAny(mime, imageTypes):
		text, err = s.imageText(data)
		method = "tesseract"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mime.String())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: text extraction failed: %v", ErrUpstream, err)
	}

	// MuPDF and Tesseract can emit broken sequences that Postgres rejects
	text = strings.TrimSpace(strings.ToValidUTF8(text, ""))
	if text == "" {
		return nil, validationf("no text found in %s", fileName)
	}

	out := &Extraction{Text: text, WordCount: CountWords(text), MIME: mime.String()}
	s.logger.Info("Text extracted",
		zap.String("file", fileName),
		zap.String("mime", out.MIME),
		zap.String("method", method),
		zap.Int("words", out.WordCount),
	)
	return out, nil
}

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

func matchesAny(m *mimetype.MIME, types []string) bool {
	for _, t := range types {
		if m.Is(t) {
			return true
		}
	}
	return false
}

func fitzText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		page, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i+1, err)
		}
		if page != "" {
			b.WriteString(page)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func tesseractText(languages []string) textExtractor {
	return func(data []byte) (string, error) {
		client := gosseract.NewClient()
		defer client.Close()

		if len(languages) > 0 {
			if err := client.SetLanguage(languages...); err != nil {
				return "", err
			}
		}
		if err := client.SetImageFromBytes(data); err != nil {
			return "", err
		}
		return client.Text()
	}
}
