package service

import (
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLanguage validates a BCP 47 tag and returns its canonical form
// ("pt-br" -> "pt-BR").
func NormalizeLanguage(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", validationf("language is required")
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", validationf("unknown language %q", tag)
	}
	return t.String(), nil
}

func normalizeLanguages(tags []string) ([]string, error) {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		norm, err := NormalizeLanguage(tag)
		if err != nil {
			return nil, err
		}
		if !seen[norm] {
			seen[norm] = true
			out = append(out, norm)
		}
	}
	return out, nil
}
