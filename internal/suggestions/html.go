package suggestions

import (
	"html"
	"regexp"
	"strings"
)

var (
	probabilityLabel = regexp.MustCompile(`Probabilidad:\s*(\w+)`)
	sentenceBreak    = regexp.MustCompile(`\.\s+`)
	lineBreak        = regexp.MustCompile(`\r\n|\r|\n`)
)

// FormatHTML renders a card description with the emphasis the web console
// applies: probability and recommended-measure labels in bold and one
// sentence per line. Input is escaped first.
func FormatHTML(text string) string {
	if text == "" {
		return ""
	}
	out := html.EscapeString(text)
	out = probabilityLabel.ReplaceAllString(out, "<strong>Probabilidad: $1</strong>")
	out = strings.ReplaceAll(out, "Medida recomendada:", "<br><strong>Medida recomendada:</strong>")
	out = strings.ReplaceAll(out, "Justificación:", "<br><strong>Justificación:</strong>")
	out = sentenceBreak.ReplaceAllString(out, ".<br>")
	return lineBreak.ReplaceAllString(out, "<br>")
}
