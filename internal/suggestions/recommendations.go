package suggestions

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RecommendationParser reads the sugerenciasIA text of the per-apiario
// recommendations endpoint: one "Título: descripción" pair per line.
// Greetings ("¡Hola!") and bullet lines ("•") are skipped.
type RecommendationParser struct{}

// ExtractRecommendations parses per-apiario recommendation text.
func ExtractRecommendations(text string) []Card {
	return RecommendationParser{}.Parse(text)
}

// Parse keeps only cards whose description is longer than ten characters.
// Titles get the same icon table as the apiarios extractor.
func (RecommendationParser) Parse(text string) []Card {
	cards := []Card{}
	n := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "¡Hola!") || strings.HasPrefix(trimmed, "•") {
			continue
		}
		n++

		head, rest, found := strings.Cut(line, ":")
		title := stripInline(head)
		if title == "" {
			title = fmt.Sprintf("Sugerencia %d", n)
		}
		desc := strings.TrimSpace(rest)
		if !found || desc == "" {
			desc = trimmed
		}

		desc = stripInline(desc)
		if utf8.RuneCountInString(desc) <= minDescriptionLen {
			continue
		}
		cards = append(cards, Card{
			Title:       matchIcon(defaultExtractor.icons, defaultExtractor.defaultIcon, title) + " " + title,
			Description: desc,
			Kind:        KindAI,
		})
	}
	return cards
}

func stripInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.TrimPrefix(s, "- ")
	return strings.TrimSpace(s)
}

var _ Parser = RecommendationParser{}
